// Package room implements the authoritative game engine: room lifecycle, the
// phase state machine, the discussion timer, the information-card and skill
// engine, and vote tallying. Every operation is one serialized
// load→mutate→save cycle against the repository, followed by event broadcasts.
package room

import (
	"context"
	"crypto/rand"
	"math/big"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/btktNo012/MysteryMakerProject/go/internal/events"
	"github.com/btktNo012/MysteryMakerProject/go/internal/models"
	"github.com/btktNo012/MysteryMakerProject/go/internal/scenario"
)

// Broadcaster fans engine events out to connected sessions. The gateway
// implements it; tests substitute a recorder.
type Broadcaster interface {
	BroadcastToRoom(roomID string, event *events.Event)
	SendToUser(roomID, userID string, event *events.Event)
}

// TimerScheduler manages the single-shot discussion wake-ups. The scheduler
// package implements it.
type TimerScheduler interface {
	Schedule(roomID string)
	Cancel(roomID string)
}

// Config holds the engine tunables.
type Config struct {
	// ReadingExtension is added to the hand-out reading deadline on each
	// master-requested extension.
	ReadingExtension time.Duration
	// DisconnectGrace is how long a fully disconnected room survives before
	// deletion. Reconnection within the window cancels the deletion.
	DisconnectGrace time.Duration
}

// App is the engine facade the gateway and scheduler drive.
type App struct {
	repo        Repository
	scenarios   *scenario.Store
	broadcaster Broadcaster
	scheduler   TimerScheduler
	clock       clockwork.Clock
	cfg         Config

	locks *roomLocks

	// Pending grace-period deletions for fully disconnected rooms.
	deletionMu     sync.Mutex
	deletionTimers map[string]clockwork.Timer
}

// NewApp creates the engine. The broadcaster and scheduler are attached
// afterwards because both need the App to drive.
func NewApp(repo Repository, scenarios *scenario.Store, clock clockwork.Clock, cfg Config) *App {
	return &App{
		repo:           repo,
		scenarios:      scenarios,
		broadcaster:    noopBroadcaster{},
		clock:          clock,
		cfg:            cfg,
		locks:          newRoomLocks(),
		deletionTimers: make(map[string]clockwork.Timer),
	}
}

// SetBroadcaster attaches the event fan-out.
func (a *App) SetBroadcaster(b Broadcaster) {
	a.broadcaster = b
}

// SetScheduler attaches the discussion-timer scheduler.
func (a *App) SetScheduler(s TimerScheduler) {
	a.scheduler = s
}

// noopBroadcaster drops events until a real broadcaster is attached.
type noopBroadcaster struct{}

func (noopBroadcaster) BroadcastToRoom(string, *events.Event) {}
func (noopBroadcaster) SendToUser(string, string, *events.Event) {}

const (
	roomIDLength  = 6
	roomIDCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// newRoomID generates a short shareable room code, retrying on the unlikely
// collision with an existing room.
func (a *App) newRoomID(ctx context.Context) (string, error) {
	for {
		code := make([]byte, roomIDLength)
		for i := range code {
			n, err := rand.Int(rand.Reader, big.NewInt(int64(len(roomIDCharset))))
			if err != nil {
				return "", err
			}
			code[i] = roomIDCharset[n.Int64()]
		}
		id := string(code)
		if _, err := a.repo.Load(ctx, id); err == ErrRoomNotFound {
			return id, nil
		} else if err != nil {
			return "", err
		}
	}
}

// CreateRoom creates a room owned by the given user and returns it together
// with the master player record for the caller's snapshot reply.
func (a *App) CreateRoom(ctx context.Context, sessionID, userID, username string) (*models.Room, *models.Player, error) {
	roomID, err := a.newRoomID(ctx)
	if err != nil {
		return nil, nil, err
	}

	master := models.NewPlayer(sessionID, userID, username, true, false)
	r := &models.Room{
		ID:                  roomID,
		Players:             []*models.Player{master},
		MasterUserID:        userID,
		RequiredPlayerCount: a.scenarios.PCCount(),
		GamePhase:           models.PhaseWaiting,
		CharacterSelections: a.scenarios.NewCharacterSelections(),
		InfoCards:           a.scenarios.NewInfoCards(),
		DiscussionTimer:     models.NewDiscussionTimer(),
		Votes:               make(map[string]string),
		GameLog:             []models.GameLogEntry{},
	}

	if err := a.repo.Save(ctx, r); err != nil {
		return nil, nil, err
	}
	log.Info().Str("room_id", roomID).Str("user_id", userID).Msg("room created")
	return r, master, nil
}

// JoinRoom adds a player to a room, or re-binds an existing player on
// reconnect. Non-spectator joins are rejected with ErrRoomFull once every
// protagonist slot is taken; spectators may always join. A reconnect cancels
// any pending grace-period deletion.
func (a *App) JoinRoom(ctx context.Context, sessionID, roomID, userID, username string, spectator *bool) (*models.Room, *models.Player, error) {
	roomID = NormalizeRoomID(roomID)
	unlock := a.locks.lock(roomID)
	defer unlock()

	r, err := a.repo.Load(ctx, roomID)
	if err != nil {
		return nil, nil, err
	}

	player := r.PlayerByUserID(userID)
	if player != nil {
		player.SessionID = sessionID
		player.Connected = true
		if spectator != nil {
			player.IsSpectator = *spectator
		}
		log.Info().Str("room_id", roomID).Str("user_id", userID).Msg("player reconnected")
	} else {
		wantSpectator := spectator != nil && *spectator
		if !wantSpectator && r.ParticipantCount() >= r.RequiredPlayerCount {
			return nil, nil, ErrRoomFull
		}
		player = models.NewPlayer(sessionID, userID, username, false, wantSpectator)
		r.Players = append(r.Players, player)
		log.Info().Str("room_id", roomID).Str("user_id", userID).Bool("spectator", wantSpectator).Msg("player joined")
	}

	if err := a.repo.Save(ctx, r); err != nil {
		return nil, nil, err
	}
	a.cancelPendingDeletion(roomID)

	a.broadcaster.BroadcastToRoom(roomID, events.New(roomID, events.TypeUpdatePlayers, events.UpdatePlayers{
		Players: r.Players,
	}))
	return r, player, nil
}

// LeaveRoom removes a player and releases any character they held.
func (a *App) LeaveRoom(ctx context.Context, roomID, userID string) error {
	roomID = NormalizeRoomID(roomID)
	unlock := a.locks.lock(roomID)
	defer unlock()

	r, err := a.repo.Load(ctx, roomID)
	if err != nil {
		return ignoreNotFound(err)
	}

	idx := -1
	for i, p := range r.Players {
		if p.UserID == userID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}

	r.Players = append(r.Players[:idx], r.Players[idx+1:]...)
	for charID, holder := range r.CharacterSelections {
		if holder == userID {
			r.CharacterSelections[charID] = ""
		}
	}

	if err := a.repo.Save(ctx, r); err != nil {
		return err
	}
	log.Info().Str("room_id", roomID).Str("user_id", userID).Msg("player left")

	a.broadcaster.BroadcastToRoom(roomID, events.New(roomID, events.TypeUpdatePlayers, events.UpdatePlayers{
		Players:    r.Players,
		Selections: r.CharacterSelections,
	}))
	return nil
}

// CloseRoom dissolves a room. Master only; silent no-op otherwise.
func (a *App) CloseRoom(ctx context.Context, roomID, userID string) error {
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

	a.broadcaster.BroadcastToRoom(roomID, events.New(roomID, events.TypeRoomClosed, nil))
	a.removeRoom(ctx, roomID)
	log.Info().Str("room_id", roomID).Msg("room closed by master")
	return nil
}

// removeRoom deletes a room and every timer attached to it. Callers hold the
// room lock.
func (a *App) removeRoom(ctx context.Context, roomID string) {
	if a.scheduler != nil {
		a.scheduler.Cancel(roomID)
	}
	a.cancelPendingDeletion(roomID)
	if err := a.repo.Delete(ctx, roomID); err != nil {
		log.Error().Err(err).Str("room_id", roomID).Msg("failed to delete room")
	}
}

// HandleDisconnect marks a player disconnected. The player stays in the room
// so a reconnect restores full state; only when every player is gone does the
// grace-period deletion timer start.
func (a *App) HandleDisconnect(ctx context.Context, roomID, sessionID string) error {
	roomID = NormalizeRoomID(roomID)
	unlock := a.locks.lock(roomID)
	defer unlock()

	r, err := a.repo.Load(ctx, roomID)
	if err != nil {
		return ignoreNotFound(err)
	}

	var player *models.Player
	for _, p := range r.Players {
		if p.SessionID == sessionID {
			player = p
			break
		}
	}
	if player == nil {
		return nil
	}

	player.Connected = false
	log.Info().Str("room_id", roomID).Str("user_id", player.UserID).Msg("player disconnected")

	if err := a.repo.Save(ctx, r); err != nil {
		return err
	}

	if r.AllDisconnected() {
		a.schedulePendingDeletion(roomID)
		return nil
	}

	a.broadcaster.BroadcastToRoom(roomID, events.New(roomID, events.TypeUpdatePlayers, events.UpdatePlayers{
		Players:      r.Players,
		MasterUserID: r.MasterUserID,
	}))
	return nil
}

// schedulePendingDeletion arms the grace-window deletion for a fully
// disconnected room. The fire path re-checks the condition against fresh state
// because a reconnect may have raced the timer.
func (a *App) schedulePendingDeletion(roomID string) {
	a.deletionMu.Lock()
	defer a.deletionMu.Unlock()

	if _, ok := a.deletionTimers[roomID]; ok {
		return
	}
	log.Info().Str("room_id", roomID).Dur("grace", a.cfg.DisconnectGrace).Msg("all players disconnected, scheduling room deletion")
	a.deletionTimers[roomID] = a.clock.AfterFunc(a.cfg.DisconnectGrace, func() {
		a.deletionMu.Lock()
		delete(a.deletionTimers, roomID)
		a.deletionMu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		unlock := a.locks.lock(roomID)
		defer unlock()

		r, err := a.repo.Load(ctx, roomID)
		if err != nil {
			return
		}
		if !r.AllDisconnected() {
			return
		}
		log.Info().Str("room_id", roomID).Msg("deleting abandoned room")
		a.removeRoom(ctx, roomID)
	})
}

func (a *App) cancelPendingDeletion(roomID string) {
	a.deletionMu.Lock()
	defer a.deletionMu.Unlock()
	if t, ok := a.deletionTimers[roomID]; ok {
		t.Stop()
		delete(a.deletionTimers, roomID)
	}
}

// SetStandBy records a player's soft ready signal during untimed phases.
func (a *App) SetStandBy(ctx context.Context, roomID, userID string, value bool) error {
	roomID = NormalizeRoomID(roomID)
	unlock := a.locks.lock(roomID)
	defer unlock()

	r, err := a.repo.Load(ctx, roomID)
	if err != nil {
		return ignoreNotFound(err)
	}
	player := r.PlayerByUserID(userID)
	if player == nil {
		return nil
	}
	player.IsStandBy = value

	if err := a.repo.Save(ctx, r); err != nil {
		return err
	}
	a.broadcaster.BroadcastToRoom(roomID, events.New(roomID, events.TypeUpdatePlayers, events.UpdatePlayers{
		Players:      r.Players,
		MasterUserID: r.MasterUserID,
	}))
	return nil
}

// appendLog records a room log entry and pushes the refreshed log to clients.
func (a *App) appendLog(r *models.Room, entryType, message string) {
	r.AppendLog(entryType, message)
	a.broadcaster.BroadcastToRoom(r.ID, events.New(r.ID, events.TypeGameLogUpdated, r.GameLog))
}

// ignoreNotFound turns ErrRoomNotFound into a no-op; stale intents against
// deleted rooms are expected, not errors.
func ignoreNotFound(err error) error {
	if err == ErrRoomNotFound {
		return nil
	}
	return err
}

// CleanupInactiveRooms deletes rooms without any activity since the inactivity
// window, bounding storage growth regardless of connection state.
func (a *App) CleanupInactiveRooms(ctx context.Context, inactivity time.Duration) {
	cutoff := a.clock.Now().Add(-inactivity)
	ids, err := a.repo.ListInactiveRoomIDs(ctx, cutoff)
	if err != nil {
		log.Error().Err(err).Msg("room cleanup: listing inactive rooms failed")
		return
	}
	for _, roomID := range ids {
		unlock := a.locks.lock(roomID)
		log.Info().Str("room_id", roomID).Msg("deleting inactive room")
		a.broadcaster.BroadcastToRoom(roomID, events.New(roomID, events.TypeRoomClosed, nil))
		a.removeRoom(ctx, roomID)
		unlock()
	}
}
