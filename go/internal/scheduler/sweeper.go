package scheduler

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Cleaner is the slice of the room App the sweep drives.
type Cleaner interface {
	CleanupInactiveRooms(ctx context.Context, inactivity time.Duration)
}

// RunSweeper deletes long-inactive rooms on a fixed interval until the context
// is cancelled. Inactivity is measured on the repository's last-activity
// timestamp, independent of connection state.
func RunSweeper(ctx context.Context, cleaner Cleaner, clock clockwork.Clock, interval, inactivity time.Duration) {
	log.Info().Dur("interval", interval).Dur("inactivity", inactivity).Msg("room sweeper started")
	ticker := clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("room sweeper shutting down")
			return
		case <-ticker.Chan():
			cleaner.CleanupInactiveRooms(ctx, inactivity)
		}
	}
}
