package room

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/btktNo012/MysteryMakerProject/go/internal/events"
	"github.com/btktNo012/MysteryMakerProject/go/internal/models"
)

// StartDiscussionTimer begins one of the two timed rounds. Master only, and
// only while no round currently owns the timer.
func (a *App) StartDiscussionTimer(ctx context.Context, roomID, userID string, phase models.GamePhase, durationSeconds int) error {
	roomID = NormalizeRoomID(roomID)
	unlock := a.locks.lock(roomID)
	defer unlock()

	r, err := a.repo.Load(ctx, roomID)
	if err != nil {
		return ignoreNotFound(err)
	}
	if r.MasterUserID != userID || !phase.IsDiscussion() || durationSeconds <= 0 {
		return nil
	}
	if r.DiscussionTimer.Phase != "" {
		// A round already owns the timer; it must be force-ended or
		// acknowledged before another can start.
		return nil
	}

	r.DiscussionTimer.Start(phase, a.clock.Now(), time.Duration(durationSeconds)*time.Second)

	if phase == models.PhaseFirstDiscussion {
		r.AppendLog(models.LogPhaseStart, "The first discussion phase has started.")
	} else {
		r.AppendLog(models.LogPhaseStart, "The second discussion phase has started.")
	}

	if err := a.repo.Save(ctx, r); err != nil {
		return err
	}
	log.Info().Str("room_id", roomID).Str("phase", string(phase)).Int("duration_sec", durationSeconds).Msg("discussion timer started")
	a.broadcaster.BroadcastToRoom(roomID, events.New(roomID, events.TypeGameLogUpdated, r.GameLog))
	a.broadcaster.BroadcastToRoom(roomID, events.New(roomID, events.TypeDiscussionTimerUpdated, r.DiscussionTimer))
	if a.scheduler != nil {
		a.scheduler.Schedule(roomID)
	}
	return nil
}

// PauseDiscussionTimer freezes the running timer and cancels its wake-up.
func (a *App) PauseDiscussionTimer(ctx context.Context, roomID, userID string) error {
	roomID = NormalizeRoomID(roomID)
	unlock := a.locks.lock(roomID)
	defer unlock()

	r, err := a.repo.Load(ctx, roomID)
	if err != nil {
		return ignoreNotFound(err)
	}
	if !r.DiscussionTimer.Running() {
		return nil
	}

	r.DiscussionTimer.Pause(a.clock.Now())

	if err := a.repo.Save(ctx, r); err != nil {
		return err
	}
	log.Info().Str("room_id", roomID).Str("user_id", userID).Msg("discussion timer paused")
	a.broadcaster.BroadcastToRoom(roomID, events.New(roomID, events.TypeDiscussionTimerUpdated, r.DiscussionTimer))
	if a.scheduler != nil {
		a.scheduler.Cancel(roomID)
	}
	return nil
}

// ResumeDiscussionTimer restarts a paused timer with a fresh deadline.
func (a *App) ResumeDiscussionTimer(ctx context.Context, roomID, userID string) error {
	roomID = NormalizeRoomID(roomID)
	unlock := a.locks.lock(roomID)
	defer unlock()

	r, err := a.repo.Load(ctx, roomID)
	if err != nil {
		return ignoreNotFound(err)
	}
	if !r.DiscussionTimer.Paused() {
		return nil
	}

	r.DiscussionTimer.Resume(a.clock.Now())

	if err := a.repo.Save(ctx, r); err != nil {
		return err
	}
	log.Info().Str("room_id", roomID).Str("user_id", userID).Msg("discussion timer resumed")
	a.broadcaster.BroadcastToRoom(roomID, events.New(roomID, events.TypeDiscussionTimerUpdated, r.DiscussionTimer))
	if a.scheduler != nil {
		a.scheduler.Schedule(roomID)
	}
	return nil
}

// RequestEndDiscussion opens the force-end confirmation dialog on every
// connected client. Master only.
func (a *App) RequestEndDiscussion(ctx context.Context, roomID, userID string) error {
	return a.setEndState(ctx, roomID, userID, models.EndStateRequested)
}

// CancelEndDiscussion withdraws a pending force-end request. Master only.
func (a *App) CancelEndDiscussion(ctx context.Context, roomID, userID string) error {
	return a.setEndState(ctx, roomID, userID, models.EndStateNone)
}

func (a *App) setEndState(ctx context.Context, roomID, userID string, state models.TimerEndState) error {
	roomID = NormalizeRoomID(roomID)
	unlock := a.locks.lock(roomID)
	defer unlock()

	r, err := a.repo.Load(ctx, roomID)
	if err != nil {
		return ignoreNotFound(err)
	}
	if r.MasterUserID != userID || r.DiscussionTimer.Phase == "" {
		return nil
	}
	if r.DiscussionTimer.EndState == models.EndStateTimeup {
		// Time already ran out; the round ends through the master's
		// acknowledgement, not through the force-end dialog.
		return nil
	}

	r.DiscussionTimer.EndState = state
	if err := a.repo.Save(ctx, r); err != nil {
		return err
	}
	log.Info().Str("room_id", roomID).Str("end_state", string(state)).Msg("discussion end state changed")
	a.broadcaster.BroadcastToRoom(roomID, events.New(roomID, events.TypeDiscussionTimerUpdated, r.DiscussionTimer))
	return nil
}

// ConfirmEndDiscussion closes the current discussion round regardless of
// remaining time: the room advances to the next phase and the timer returns to
// its empty state. Master only.
func (a *App) ConfirmEndDiscussion(ctx context.Context, roomID, userID string) error {
	roomID = NormalizeRoomID(roomID)
	unlock := a.locks.lock(roomID)
	defer unlock()

	r, err := a.repo.Load(ctx, roomID)
	if err != nil {
		return ignoreNotFound(err)
	}
	if r.MasterUserID != userID {
		return nil
	}

	switch r.DiscussionTimer.Phase {
	case models.PhaseFirstDiscussion:
		r.GamePhase = models.PhaseInterlude
		r.ResetStandBy()
	case models.PhaseSecondDiscussion:
		r.GamePhase = models.PhaseVoting
	default:
		return nil
	}
	r.DiscussionTimer.Reset()

	if err := a.repo.Save(ctx, r); err != nil {
		return err
	}
	log.Info().Str("room_id", roomID).Str("phase", string(r.GamePhase)).Msg("discussion ended by master")
	a.broadcaster.BroadcastToRoom(roomID, events.New(roomID, events.TypeDiscussionTimerUpdated, r.DiscussionTimer))
	a.broadcaster.BroadcastToRoom(roomID, events.New(roomID, events.TypeGamePhaseChanged, events.PhaseChanged{GamePhase: r.GamePhase}))
	if r.GamePhase == models.PhaseInterlude {
		a.broadcaster.BroadcastToRoom(roomID, events.New(roomID, events.TypeUpdatePlayers, events.UpdatePlayers{Players: r.Players}))
	}
	if a.scheduler != nil {
		a.scheduler.Cancel(roomID)
	}
	return nil
}

// FireTimeup is invoked by the scheduler at the persisted deadline. It only
// has an effect on a timer that is still ticking past its deadline and not yet
// marked timeup, so stale wake-ups racing a pause or force-end are harmless.
// Reaching timeup never advances the room phase by itself; the master still
// has to acknowledge the end of the round.
func (a *App) FireTimeup(ctx context.Context, roomID string) error {
	roomID = NormalizeRoomID(roomID)
	unlock := a.locks.lock(roomID)
	defer unlock()

	r, err := a.repo.Load(ctx, roomID)
	if err != nil {
		return ignoreNotFound(err)
	}

	deadline, ok := r.DiscussionTimer.Deadline()
	if !ok || !r.DiscussionTimer.IsTicking || a.clock.Now().Before(deadline) {
		return nil
	}
	if r.DiscussionTimer.EndState == models.EndStateTimeup {
		return nil
	}

	r.DiscussionTimer.IsTicking = false
	r.DiscussionTimer.EndState = models.EndStateTimeup

	if err := a.repo.Save(ctx, r); err != nil {
		return err
	}
	log.Info().Str("room_id", roomID).Msg("discussion time is up")
	a.broadcaster.BroadcastToRoom(roomID, events.New(roomID, events.TypeDiscussionTimerUpdated, r.DiscussionTimer))
	return nil
}
