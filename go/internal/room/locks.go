package room

import "sync"

// roomLocks serializes the load→mutate→save cycle per room id. Two intents for
// different rooms proceed in parallel; two for the same room queue up, which
// closes the read-modify-write race the last-write-wins store cannot.
//
// Entries are reference counted: the last holder to unlock removes the entry,
// so a deleted room does not leak a mutex while waiters still queued on it
// keep serializing against newcomers for the same id.
type roomLocks struct {
	mu    sync.Mutex
	locks map[string]*roomLock
}

type roomLock struct {
	mu   sync.Mutex
	refs int
}

func newRoomLocks() *roomLocks {
	return &roomLocks{locks: make(map[string]*roomLock)}
}

func (l *roomLocks) lock(roomID string) func() {
	l.mu.Lock()
	e, ok := l.locks[roomID]
	if !ok {
		e = &roomLock{}
		l.locks[roomID] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.locks, roomID)
		}
		l.mu.Unlock()
	}
}
