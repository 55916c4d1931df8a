package room

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/btktNo012/MysteryMakerProject/go/internal/events"
	"github.com/btktNo012/MysteryMakerProject/go/internal/models"
)

// discussionRoom returns a two-player room sitting in firstDiscussion with
// characters assigned, without a running timer.
func discussionRoom(t *testing.T, env *testEnv) string {
	t.Helper()
	roomID := createRoom(t, env)
	_, _, err := env.app.JoinRoom(context.Background(), "sess-2", roomID, "user-2", "Bob", nil)
	require.NoError(t, err)
	mutateRoom(t, env, roomID, func(r *models.Room) {
		r.GamePhase = models.PhaseFirstDiscussion
		r.CharacterSelections["char_a"] = "user-1"
		r.CharacterSelections["char_b"] = "user-2"
	})
	return roomID
}

func TestGetCard(t *testing.T) {
	t.Parallel()

	t.Run("acquires an unowned card", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		roomID := discussionRoom(t, env)

		require.NoError(t, env.app.GetCard(context.Background(), roomID, "user-1", "card_ledger"))

		r := loadRoom(t, env, roomID)
		card := r.CardByID("card_ledger")
		assert.Equal(t, "user-1", card.Owner)
		assert.Equal(t, "user-1", card.FirstOwner)
		assert.False(t, card.IsPublic)
		assert.Equal(t, 1, r.PlayerByUserID("user-1").CardCount(models.PhaseFirstDiscussion))
		require.Len(t, r.GameLog, 1)
		assert.Equal(t, models.LogCardGet, r.GameLog[0].Type)
		assert.Contains(t, r.GameLog[0].Message, "The Apprentice", "log names the character, not the user")
	})

	t.Run("owned card is a no-op", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		roomID := discussionRoom(t, env)
		require.NoError(t, env.app.GetCard(context.Background(), roomID, "user-1", "card_ledger"))

		require.NoError(t, env.app.GetCard(context.Background(), roomID, "user-2", "card_ledger"))

		r := loadRoom(t, env, roomID)
		assert.Equal(t, "user-1", r.CardByID("card_ledger").Owner)
		assert.Equal(t, 0, r.PlayerByUserID("user-2").CardCount(models.PhaseFirstDiscussion))
	})

	t.Run("outside a discussion phase is a no-op", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		roomID := discussionRoom(t, env)
		mutateRoom(t, env, roomID, func(r *models.Room) { r.GamePhase = models.PhaseInterlude })

		require.NoError(t, env.app.GetCard(context.Background(), roomID, "user-1", "card_ledger"))
		assert.Equal(t, "", loadRoom(t, env, roomID).CardByID("card_ledger").Owner)
	})

	t.Run("per-phase quota reports to the caller only", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		roomID := discussionRoom(t, env)
		require.NoError(t, env.app.GetCard(context.Background(), roomID, "user-1", "card_ledger"))
		require.NoError(t, env.app.GetCard(context.Background(), roomID, "user-1", "card_key"))

		err := env.app.GetCard(context.Background(), roomID, "user-1", "card_letter")
		assert.ErrorIs(t, err, ErrCardLimit)

		r := loadRoom(t, env, roomID)
		assert.Equal(t, "", r.CardByID("card_letter").Owner)
		assert.Equal(t, 2, r.PlayerByUserID("user-1").CardCount(models.PhaseFirstDiscussion))

		errs := env.bc.ofType(events.TypeGetCardError)
		require.Len(t, errs, 1)
		assert.Equal(t, "user-1", errs[0].UserID, "the rejection goes to the requester alone")
	})

	t.Run("quota resets per phase", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		roomID := discussionRoom(t, env)
		require.NoError(t, env.app.GetCard(context.Background(), roomID, "user-1", "card_ledger"))
		require.NoError(t, env.app.GetCard(context.Background(), roomID, "user-1", "card_key"))
		mutateRoom(t, env, roomID, func(r *models.Room) { r.GamePhase = models.PhaseSecondDiscussion })

		require.NoError(t, env.app.GetCard(context.Background(), roomID, "user-1", "card_letter"))
		assert.Equal(t, "user-1", loadRoom(t, env, roomID).CardByID("card_letter").Owner)
	})
}

func TestMakeCardPublic(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	roomID := discussionRoom(t, env)
	require.NoError(t, env.app.GetCard(context.Background(), roomID, "user-1", "card_ledger"))

	// Only the owner can reveal.
	require.NoError(t, env.app.MakeCardPublic(context.Background(), roomID, "user-2", "card_ledger"))
	assert.False(t, loadRoom(t, env, roomID).CardByID("card_ledger").IsPublic)

	require.NoError(t, env.app.MakeCardPublic(context.Background(), roomID, "user-1", "card_ledger"))
	r := loadRoom(t, env, roomID)
	assert.True(t, r.CardByID("card_ledger").IsPublic)
	assert.Equal(t, models.LogCardPublic, r.GameLog[len(r.GameLog)-1].Type)
}

func TestTransferCard(t *testing.T) {
	t.Parallel()

	t.Run("owner hands the card over", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		roomID := discussionRoom(t, env)
		require.NoError(t, env.app.GetCard(context.Background(), roomID, "user-1", "card_ledger"))
		require.NoError(t, env.app.MakeCardPublic(context.Background(), roomID, "user-1", "card_ledger"))

		require.NoError(t, env.app.TransferCard(context.Background(), roomID, "user-1", "card_ledger", "user-2"))

		r := loadRoom(t, env, roomID)
		card := r.CardByID("card_ledger")
		assert.Equal(t, "user-2", card.Owner)
		assert.Equal(t, "user-1", card.FirstOwner, "provenance survives the transfer")
		assert.True(t, card.IsPublic, "visibility survives the transfer")
		assert.Equal(t, models.LogCardTransfer, r.GameLog[len(r.GameLog)-1].Type)
	})

	t.Run("non-owner cannot transfer", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		roomID := discussionRoom(t, env)
		require.NoError(t, env.app.GetCard(context.Background(), roomID, "user-1", "card_ledger"))

		require.NoError(t, env.app.TransferCard(context.Background(), roomID, "user-2", "card_ledger", "user-2"))
		assert.Equal(t, "user-1", loadRoom(t, env, roomID).CardByID("card_ledger").Owner)
	})

	t.Run("unknown target is a no-op", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		roomID := discussionRoom(t, env)
		require.NoError(t, env.app.GetCard(context.Background(), roomID, "user-1", "card_ledger"))

		require.NoError(t, env.app.TransferCard(context.Background(), roomID, "user-1", "card_ledger", "user-ghost"))
		assert.Equal(t, "user-1", loadRoom(t, env, roomID).CardByID("card_ledger").Owner)
	})
}
