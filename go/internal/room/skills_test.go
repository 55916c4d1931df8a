package room

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/btktNo012/MysteryMakerProject/go/internal/models"
)

// skillRoom returns a discussion room where user-1 holds char_a (skill_01),
// user-2 holds char_b (skill_02), and user-2 owns the hidden ledger card.
func skillRoom(t *testing.T, env *testEnv) string {
	t.Helper()
	roomID := discussionRoom(t, env)
	store := testStore()
	mutateRoom(t, env, roomID, func(r *models.Room) {
		for _, p := range r.Players {
			p.Skills = []models.Skill{}
			charID := r.CharacterHeldBy(p.UserID)
			if charID == "" {
				continue
			}
			if char := store.CharacterByID(charID); char != nil {
				p.Skills = append(p.Skills, char.Skills...)
			}
		}
	})
	require.NoError(t, env.app.GetCard(context.Background(), roomID, "user-2", "card_ledger"))
	return roomID
}

func target(t *testing.T, cardID string) json.RawMessage {
	t.Helper()
	payload, err := json.Marshal(SkillPayload{TargetCardID: cardID})
	require.NoError(t, err)
	return payload
}

func TestUseActiveSkillSteal(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	roomID := skillRoom(t, env)

	require.NoError(t, env.app.UseActiveSkill(context.Background(), roomID, "user-1", "skill_01", target(t, "card_ledger")))

	r := loadRoom(t, env, roomID)
	assert.Equal(t, "user-1", r.CardByID("card_ledger").Owner)
	assert.Equal(t, "user-2", r.CardByID("card_ledger").FirstOwner)
	assert.True(t, r.PlayerByUserID("user-1").FindSkill("skill_01").Used)

	last := r.GameLog[len(r.GameLog)-1]
	assert.Equal(t, models.LogSkillUse, last.Type)
	assert.Contains(t, last.Message, "Sleight of Hand")
}

func TestUseActiveSkillReveal(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	roomID := skillRoom(t, env)
	// Hand the ledger to user-1 so char_b can target it.
	require.NoError(t, env.app.TransferCard(context.Background(), roomID, "user-2", "card_ledger", "user-1"))

	require.NoError(t, env.app.UseActiveSkill(context.Background(), roomID, "user-2", "skill_02", target(t, "card_ledger")))

	r := loadRoom(t, env, roomID)
	assert.True(t, r.CardByID("card_ledger").IsPublic)
	assert.Equal(t, "user-1", r.CardByID("card_ledger").Owner, "reveal does not move the card")
	assert.True(t, r.PlayerByUserID("user-2").FindSkill("skill_02").Used)
}

func TestUseActiveSkillGuards(t *testing.T) {
	t.Parallel()

	t.Run("a skill fires once", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		roomID := skillRoom(t, env)
		require.NoError(t, env.app.UseActiveSkill(context.Background(), roomID, "user-1", "skill_01", target(t, "card_ledger")))
		// The ledger is back with user-2 for a second attempt.
		require.NoError(t, env.app.TransferCard(context.Background(), roomID, "user-1", "card_ledger", "user-2"))

		require.NoError(t, env.app.UseActiveSkill(context.Background(), roomID, "user-1", "skill_01", target(t, "card_ledger")))
		assert.Equal(t, "user-2", loadRoom(t, env, roomID).CardByID("card_ledger").Owner)
	})

	t.Run("a declined effect leaves the skill unconsumed", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		roomID := skillRoom(t, env)

		// Targeting your own card declines; nothing is spent.
		require.NoError(t, env.app.GetCard(context.Background(), roomID, "user-1", "card_key"))
		require.NoError(t, env.app.UseActiveSkill(context.Background(), roomID, "user-1", "skill_01", target(t, "card_key")))

		r := loadRoom(t, env, roomID)
		assert.False(t, r.PlayerByUserID("user-1").FindSkill("skill_01").Used)
		assert.Equal(t, "user-1", r.CardByID("card_key").Owner)

		// An unowned target declines too.
		require.NoError(t, env.app.UseActiveSkill(context.Background(), roomID, "user-1", "skill_01", target(t, "card_letter")))
		assert.False(t, loadRoom(t, env, roomID).PlayerByUserID("user-1").FindSkill("skill_01").Used)
	})

	t.Run("reveal declines on an already public card", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		roomID := skillRoom(t, env)
		require.NoError(t, env.app.MakeCardPublic(context.Background(), roomID, "user-2", "card_ledger"))
		require.NoError(t, env.app.TransferCard(context.Background(), roomID, "user-2", "card_ledger", "user-1"))

		require.NoError(t, env.app.UseActiveSkill(context.Background(), roomID, "user-2", "skill_02", target(t, "card_ledger")))
		assert.False(t, loadRoom(t, env, roomID).PlayerByUserID("user-2").FindSkill("skill_02").Used)
	})

	t.Run("a skill the caller does not hold is a no-op", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		roomID := skillRoom(t, env)

		require.NoError(t, env.app.UseActiveSkill(context.Background(), roomID, "user-2", "skill_01", target(t, "card_ledger")))
		assert.Equal(t, "user-2", loadRoom(t, env, roomID).CardByID("card_ledger").Owner)
	})

	t.Run("an unregistered skill is a no-op", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		roomID := skillRoom(t, env)
		mutateRoom(t, env, roomID, func(r *models.Room) {
			p := r.PlayerByUserID("user-1")
			p.Skills = append(p.Skills, models.Skill{ID: "skill_99", Name: "Mystery", Type: models.SkillTypeActive})
		})

		require.NoError(t, env.app.UseActiveSkill(context.Background(), roomID, "user-1", "skill_99", target(t, "card_ledger")))
		assert.False(t, loadRoom(t, env, roomID).PlayerByUserID("user-1").FindSkill("skill_99").Used)
	})

	t.Run("a malformed payload is dropped", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		roomID := skillRoom(t, env)

		require.NoError(t, env.app.UseActiveSkill(context.Background(), roomID, "user-1", "skill_01", json.RawMessage(`{broken`)))
		assert.False(t, loadRoom(t, env, roomID).PlayerByUserID("user-1").FindSkill("skill_01").Used)
	})
}
