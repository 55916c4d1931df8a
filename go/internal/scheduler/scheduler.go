// Package scheduler arms one single-shot wake-up per room for the discussion
// timer and re-arms them from persisted state at process start, so a deadline
// survives restarts. It also runs the periodic inactive-room sweep.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/btktNo012/MysteryMakerProject/go/internal/models"
	"github.com/btktNo012/MysteryMakerProject/go/internal/room"
)

// Engine is what the scheduler drives when a deadline passes. The room App
// implements it; FireTimeup is idempotent, so a wake-up racing a pause or
// force-end applies nothing.
type Engine interface {
	FireTimeup(ctx context.Context, roomID string) error
}

// RoomLoader is the slice of the repository the scheduler needs.
type RoomLoader interface {
	Load(ctx context.Context, roomID string) (*models.Room, error)
	ListRunningTimerRoomIDs(ctx context.Context) ([]string, error)
}

// Scheduler owns the per-room wake-up timers.
type Scheduler struct {
	engine Engine
	repo   RoomLoader
	clock  clockwork.Clock

	mu     sync.Mutex
	timers map[string]clockwork.Timer
}

// New creates a scheduler. It does nothing until Schedule or RecoverAll is
// called.
func New(engine Engine, repo RoomLoader, clock clockwork.Clock) *Scheduler {
	return &Scheduler{
		engine: engine,
		repo:   repo,
		clock:  clock,
		timers: make(map[string]clockwork.Timer),
	}
}

var _ room.TimerScheduler = (*Scheduler)(nil)

// Schedule arms the wake-up for a room from its persisted deadline, replacing
// any previous wake-up. A deadline already in the past fires immediately, which
// is what makes recovery after a long outage behave the same as an uptime run.
func (s *Scheduler) Schedule(roomID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.Cancel(roomID)

	r, err := s.repo.Load(ctx, roomID)
	if err != nil {
		if err != room.ErrRoomNotFound {
			log.Error().Err(err).Str("room_id", roomID).Msg("scheduler: loading room failed")
		}
		return
	}
	deadline, ok := r.DiscussionTimer.Deadline()
	if !ok || !r.DiscussionTimer.IsTicking {
		return
	}

	delay := deadline.Sub(s.clock.Now())
	if delay <= 0 {
		// Fire off the caller's goroutine: Schedule is called from engine
		// operations that still hold the room lock FireTimeup needs, the same
		// way the AfterFunc path fires outside it.
		go s.fire(roomID)
		return
	}

	s.mu.Lock()
	s.timers[roomID] = s.clock.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.timers, roomID)
		s.mu.Unlock()
		s.fire(roomID)
	})
	s.mu.Unlock()
	log.Info().Str("room_id", roomID).Dur("delay", delay).Msg("discussion wake-up scheduled")
}

// Cancel drops any pending wake-up for the room. Required on every transition
// that invalidates the scheduled deadline (pause, force-end, room deletion).
func (s *Scheduler) Cancel(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[roomID]; ok {
		t.Stop()
		delete(s.timers, roomID)
	}
}

func (s *Scheduler) fire(roomID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.engine.FireTimeup(ctx, roomID); err != nil {
		log.Error().Err(err).Str("room_id", roomID).Msg("scheduler: timeup handling failed")
	}
}

// RecoverAll re-arms the wake-up of every room whose stored timer is running.
// Called once at process start.
func (s *Scheduler) RecoverAll(ctx context.Context) {
	ids, err := s.repo.ListRunningTimerRoomIDs(ctx)
	if err != nil {
		log.Error().Err(err).Msg("scheduler: listing running timers failed")
		return
	}
	for _, roomID := range ids {
		s.Schedule(roomID)
	}
	log.Info().Int("rooms", len(ids)).Msg("rescheduled discussion timers")
}
