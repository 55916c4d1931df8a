package room

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/btktNo012/MysteryMakerProject/go/internal/events"
	"github.com/btktNo012/MysteryMakerProject/go/internal/models"
)

// StartGame moves the room out of the lobby. Master only.
func (a *App) StartGame(ctx context.Context, roomID, userID string) error {
	roomID = NormalizeRoomID(roomID)
	unlock := a.locks.lock(roomID)
	defer unlock()

	r, err := a.repo.Load(ctx, roomID)
	if err != nil {
		return ignoreNotFound(err)
	}
	if r.MasterUserID != userID || r.GamePhase != models.PhaseWaiting {
		return nil
	}

	r.GamePhase = models.PhaseIntroduction
	if err := a.repo.Save(ctx, r); err != nil {
		return err
	}
	log.Info().Str("room_id", roomID).Str("phase", string(r.GamePhase)).Msg("game started")
	a.broadcaster.BroadcastToRoom(roomID, events.New(roomID, events.TypeGamePhaseChanged, events.PhaseChanged{GamePhase: r.GamePhase}))
	return nil
}

// SelectCharacter claims a character for the user, or releases their current
// pick when characterID is empty. A character already held by someone else is
// a silent no-op; a user holds at most one character at a time.
func (a *App) SelectCharacter(ctx context.Context, roomID, userID, characterID string) error {
	roomID = NormalizeRoomID(roomID)
	unlock := a.locks.lock(roomID)
	defer unlock()

	r, err := a.repo.Load(ctx, roomID)
	if err != nil {
		return ignoreNotFound(err)
	}

	if characterID == "" {
		for charID, holder := range r.CharacterSelections {
			if holder == userID {
				r.CharacterSelections[charID] = ""
				break
			}
		}
	} else {
		if _, ok := r.CharacterSelections[characterID]; !ok {
			return nil
		}
		if holder := r.CharacterSelections[characterID]; holder != "" && holder != userID {
			return nil
		}
		for charID, holder := range r.CharacterSelections {
			if holder == userID {
				r.CharacterSelections[charID] = ""
			}
		}
		r.CharacterSelections[characterID] = userID
	}

	if err := a.repo.Save(ctx, r); err != nil {
		return err
	}
	a.broadcaster.BroadcastToRoom(roomID, events.New(roomID, events.TypeCharacterSelectionUpdated, r.CharacterSelections))
	return nil
}

// ConfirmCharacters locks in the selections, starts the hand-out reading
// deadline, and snapshots each holder's character skills onto the player.
// Master only, and only from the character-select phase: a stale confirm
// arriving later must not rewind the room or wipe consumed skills.
func (a *App) ConfirmCharacters(ctx context.Context, roomID, userID string) error {
	roomID = NormalizeRoomID(roomID)
	unlock := a.locks.lock(roomID)
	defer unlock()

	r, err := a.repo.Load(ctx, roomID)
	if err != nil {
		return ignoreNotFound(err)
	}
	if r.MasterUserID != userID || r.GamePhase != models.PhaseCharacterSelect {
		return nil
	}

	r.GamePhase = models.PhaseCommonInfo
	endTime := a.clock.Now().Add(time.Duration(a.scenarios.Scenario.HandOutSettings.TimeLimit) * time.Second).UnixMilli()
	r.ReadingTimerEndTime = &endTime

	for _, p := range r.Players {
		p.Skills = []models.Skill{}
		charID := r.CharacterHeldBy(p.UserID)
		if charID == "" {
			continue
		}
		char := a.scenarios.CharacterByID(charID)
		if char == nil {
			continue
		}
		for _, skill := range char.Skills {
			snapshot := skill
			snapshot.Used = false
			p.Skills = append(p.Skills, snapshot)
		}
	}

	if err := a.repo.Save(ctx, r); err != nil {
		return err
	}
	log.Info().Str("room_id", roomID).Msg("characters confirmed")
	a.broadcaster.BroadcastToRoom(roomID, events.New(roomID, events.TypeCharactersConfirmed, events.CharactersConfirmed{
		GamePhase:           r.GamePhase,
		ReadingTimerEndTime: endTime,
	}))
	a.broadcaster.BroadcastToRoom(roomID, events.New(roomID, events.TypeUpdatePlayers, events.UpdatePlayers{Players: r.Players}))
	return nil
}

// ExtendReadingTimer pushes the reading deadline back by the configured
// extension. Master only, and only while a deadline is active.
func (a *App) ExtendReadingTimer(ctx context.Context, roomID, userID string) error {
	roomID = NormalizeRoomID(roomID)
	unlock := a.locks.lock(roomID)
	defer unlock()

	r, err := a.repo.Load(ctx, roomID)
	if err != nil {
		return ignoreNotFound(err)
	}
	if r.MasterUserID != userID || r.ReadingTimerEndTime == nil {
		return nil
	}

	newEndTime := *r.ReadingTimerEndTime + a.cfg.ReadingExtension.Milliseconds()
	r.ReadingTimerEndTime = &newEndTime

	if err := a.repo.Save(ctx, r); err != nil {
		return err
	}
	log.Info().Str("room_id", roomID).Msg("reading time extended")
	a.broadcaster.BroadcastToRoom(roomID, events.New(roomID, events.TypeReadingTimeExtended, events.ReadingTimeExtended{EndTime: newEndTime}))
	return nil
}

// ProceedToFirstDiscussion ends the reading flow: the deadline is cleared and
// every ready signal reset for the new phase. Master only, and only from the
// individual-story phase.
func (a *App) ProceedToFirstDiscussion(ctx context.Context, roomID, userID string) error {
	roomID = NormalizeRoomID(roomID)
	unlock := a.locks.lock(roomID)
	defer unlock()

	r, err := a.repo.Load(ctx, roomID)
	if err != nil {
		return ignoreNotFound(err)
	}
	if r.MasterUserID != userID || r.GamePhase != models.PhaseIndividualStory {
		return nil
	}

	r.GamePhase = models.PhaseFirstDiscussion
	r.ReadingTimerEndTime = nil
	r.ResetStandBy()

	if err := a.repo.Save(ctx, r); err != nil {
		return err
	}
	log.Info().Str("room_id", roomID).Str("phase", string(r.GamePhase)).Msg("proceeding to first discussion")
	a.broadcaster.BroadcastToRoom(roomID, events.New(roomID, events.TypeGamePhaseChanged, events.PhaseChanged{GamePhase: r.GamePhase}))
	a.broadcaster.BroadcastToRoom(roomID, events.New(roomID, events.TypeUpdatePlayers, events.UpdatePlayers{Players: r.Players}))
	return nil
}

// SetPhase is the generic forward-only phase write used for transitions with
// no side effects. Requests that would move the room backwards, or to an
// unknown phase, are dropped so the canonical order is preserved.
func (a *App) SetPhase(ctx context.Context, roomID string, newPhase models.GamePhase) error {
	roomID = NormalizeRoomID(roomID)
	unlock := a.locks.lock(roomID)
	defer unlock()

	r, err := a.repo.Load(ctx, roomID)
	if err != nil {
		return ignoreNotFound(err)
	}
	if !newPhase.Valid() || !r.GamePhase.Before(newPhase) {
		return nil
	}

	r.GamePhase = newPhase
	if err := a.repo.Save(ctx, r); err != nil {
		return err
	}
	log.Info().Str("room_id", roomID).Str("phase", string(newPhase)).Msg("phase changed")
	a.broadcaster.BroadcastToRoom(roomID, events.New(roomID, events.TypeGamePhaseChanged, events.PhaseChanged{GamePhase: newPhase}))
	return nil
}
