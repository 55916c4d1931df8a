package room

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/btktNo012/MysteryMakerProject/go/internal/models"
)

// MemoryRepository keeps rooms in a mutex-guarded map. It backs tests and
// database-less development runs. Load returns a deep copy so that, like the
// Postgres implementation, mutations only become visible through Save.
type MemoryRepository struct {
	clock        clockwork.Clock
	mu           sync.RWMutex
	rooms        map[string][]byte
	lastActivity map[string]time.Time
}

// NewMemoryRepository creates an empty in-memory repository. Activity stamps
// come from the given clock so inactivity sweeps are testable.
func NewMemoryRepository(clock clockwork.Clock) *MemoryRepository {
	return &MemoryRepository{
		clock:        clock,
		rooms:        make(map[string][]byte),
		lastActivity: make(map[string]time.Time),
	}
}

var _ Repository = (*MemoryRepository)(nil)

func (r *MemoryRepository) Load(_ context.Context, roomID string) (*models.Room, error) {
	r.mu.RLock()
	state, ok := r.rooms[NormalizeRoomID(roomID)]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrRoomNotFound
	}

	var room models.Room
	if err := json.Unmarshal(state, &room); err != nil {
		return nil, fmt.Errorf("decode room %s: %w", roomID, err)
	}
	return &room, nil
}

func (r *MemoryRepository) Save(_ context.Context, room *models.Room) error {
	state, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("encode room %s: %w", room.ID, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.rooms[room.ID] = state
	r.lastActivity[room.ID] = r.clock.Now()
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, roomID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rooms, NormalizeRoomID(roomID))
	delete(r.lastActivity, NormalizeRoomID(roomID))
	return nil
}

func (r *MemoryRepository) ListRunningTimerRoomIDs(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	ids := make([]string, 0, len(r.rooms))
	for id := range r.rooms {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	var running []string
	for _, id := range ids {
		room, err := r.Load(ctx, id)
		if err != nil {
			continue
		}
		if room.DiscussionTimer.Running() {
			running = append(running, id)
		}
	}
	return running, nil
}

func (r *MemoryRepository) ListInactiveRoomIDs(_ context.Context, cutoff time.Time) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var ids []string
	for id, at := range r.lastActivity {
		if at.Before(cutoff) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
