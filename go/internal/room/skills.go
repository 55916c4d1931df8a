package room

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/btktNo012/MysteryMakerProject/go/internal/events"
	"github.com/btktNo012/MysteryMakerProject/go/internal/models"
	"github.com/btktNo012/MysteryMakerProject/go/internal/scenario"
)

// SkillPayload is the client-supplied argument of an active skill.
type SkillPayload struct {
	TargetCardID string `json:"targetCardId"`
}

// skillContext is everything an effect may inspect when it runs.
type skillContext struct {
	room       *models.Room
	casterID   string
	casterName string
	skillName  string
	store      *scenario.Store
}

// skillEffect applies one active skill against current card state. It returns
// the log message to record and whether the skill actually fired; a false
// return leaves the room untouched and the skill unconsumed.
type skillEffect func(sc *skillContext, payload SkillPayload) (string, bool)

// skillRegistry maps scenario skill ids to their effects. New skills get an
// entry here instead of another branch in UseActiveSkill.
var skillRegistry = map[string]skillEffect{
	// Take an owned card from its current holder, consent not required.
	"skill_01": func(sc *skillContext, payload SkillPayload) (string, bool) {
		card := sc.room.CardByID(payload.TargetCardID)
		if card == nil || card.Owner == "" || card.Owner == sc.casterID {
			return "", false
		}
		ownerName := sc.store.CharacterNameHeldBy(sc.room, card.Owner)
		card.Owner = sc.casterID
		return fmt.Sprintf("%s used \"%s\": took \"%s\" from %s.", sc.casterName, sc.skillName, card.Name, ownerName), true
	},

	// Force another holder's hidden card public.
	"skill_02": func(sc *skillContext, payload SkillPayload) (string, bool) {
		card := sc.room.CardByID(payload.TargetCardID)
		if card == nil || card.Owner == "" || card.Owner == sc.casterID || card.IsPublic {
			return "", false
		}
		card.IsPublic = true
		return fmt.Sprintf("%s used \"%s\": \"%s\" was revealed to everyone.", sc.casterName, sc.skillName, card.Name), true
	},
}

// UseActiveSkill applies a one-shot skill effect. The caller must hold a
// character and an unused snapshot of the skill; the used flag is set within
// the same mutation as the effect, so a second invocation is a total no-op.
func (a *App) UseActiveSkill(ctx context.Context, roomID, userID, skillID string, rawPayload json.RawMessage) error {
	roomID = NormalizeRoomID(roomID)
	unlock := a.locks.lock(roomID)
	defer unlock()

	r, err := a.repo.Load(ctx, roomID)
	if err != nil {
		return ignoreNotFound(err)
	}

	player := r.PlayerByUserID(userID)
	if player == nil || r.CharacterHeldBy(userID) == "" {
		return nil
	}
	skill := player.FindSkill(skillID)
	if skill == nil || skill.Used {
		return nil
	}
	effect, ok := skillRegistry[skillID]
	if !ok {
		log.Warn().Str("room_id", roomID).Str("skill_id", skillID).Msg("no effect registered for skill")
		return nil
	}

	var payload SkillPayload
	if len(rawPayload) > 0 {
		if err := json.Unmarshal(rawPayload, &payload); err != nil {
			return nil
		}
	}

	sc := &skillContext{
		room:       r,
		casterID:   userID,
		casterName: a.scenarios.CharacterNameHeldBy(r, userID),
		skillName:  a.scenarios.SkillName(skillID),
		store:      a.scenarios,
	}
	message, fired := effect(sc, payload)
	if !fired {
		return nil
	}

	skill.Used = true
	r.AppendLog(models.LogSkillUse, message)

	if err := a.repo.Save(ctx, r); err != nil {
		return err
	}
	log.Info().Str("room_id", roomID).Str("user_id", userID).Str("skill_id", skillID).Msg("active skill used")
	a.broadcaster.BroadcastToRoom(roomID, events.New(roomID, events.TypeInfoCardsUpdated, r.InfoCards))
	a.broadcaster.BroadcastToRoom(roomID, events.New(roomID, events.TypeGameLogUpdated, r.GameLog))
	a.broadcaster.BroadcastToRoom(roomID, events.New(roomID, events.TypeUpdatePlayers, events.UpdatePlayers{Players: r.Players}))
	return nil
}
