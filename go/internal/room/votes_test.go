package room

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/btktNo012/MysteryMakerProject/go/internal/events"
	"github.com/btktNo012/MysteryMakerProject/go/internal/models"
)

// votingRoom returns a full five-player room in the voting phase, every player
// holding one protagonist.
func votingRoom(t *testing.T, env *testEnv) string {
	t.Helper()
	roomID := createRoom(t, env)
	fillRoom(t, env, roomID)
	mutateRoom(t, env, roomID, func(r *models.Room) {
		r.GamePhase = models.PhaseVoting
		r.CharacterSelections["char_a"] = "user-1"
		r.CharacterSelections["char_b"] = "user-2"
		r.CharacterSelections["char_c"] = "user-3"
		r.CharacterSelections["char_d"] = "user-4"
		r.CharacterSelections["char_e"] = "user-5"
	})
	return roomID
}

func TestSubmitVote(t *testing.T) {
	t.Parallel()

	t.Run("outside the voting phase is a no-op", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		roomID := createRoom(t, env)

		require.NoError(t, env.app.SubmitVote(context.Background(), roomID, "user-1", "char_a"))
		assert.Empty(t, loadRoom(t, env, roomID).Votes)
	})

	t.Run("a later ballot replaces the earlier one", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		roomID := votingRoom(t, env)

		require.NoError(t, env.app.SubmitVote(context.Background(), roomID, "user-1", "char_b"))
		require.NoError(t, env.app.SubmitVote(context.Background(), roomID, "user-1", "char_c"))

		r := loadRoom(t, env, roomID)
		assert.Equal(t, map[string]string{"user-1": "char_c"}, r.Votes)
		assert.Nil(t, r.VoteResult, "no tally before every ballot is in")
	})

	t.Run("plurality wins when the last ballot lands", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		roomID := votingRoom(t, env)

		ballots := map[string]string{
			"user-1": "char_a",
			"user-2": "char_b",
			"user-3": "char_a",
			"user-4": "char_c",
			"user-5": "char_a",
		}
		for userID, charID := range ballots {
			require.NoError(t, env.app.SubmitVote(context.Background(), roomID, userID, charID))
		}

		r := loadRoom(t, env, roomID)
		require.NotNil(t, r.VoteResult)
		assert.Equal(t, "char_a", r.VoteResult.VotedCharacterID)
		assert.Equal(t, 3, r.VoteResult.Count)
		assert.Equal(t, models.PhaseVoting, r.GamePhase, "advancing past the result stays a master action")
		assert.Equal(t, ballots, r.Votes, "ballots survive for the result display")

		finalized := env.bc.ofType(events.TypeVoteResultFinalized)
		require.Len(t, finalized, 1)
		assert.Empty(t, env.bc.ofType(events.TypeVoteTied))
	})

	t.Run("a tie clears every ballot for a re-vote", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		roomID := votingRoom(t, env)

		for userID, charID := range map[string]string{
			"user-1": "char_a",
			"user-2": "char_b",
			"user-3": "char_a",
			"user-4": "char_b",
			"user-5": "char_c",
		} {
			require.NoError(t, env.app.SubmitVote(context.Background(), roomID, userID, charID))
		}

		r := loadRoom(t, env, roomID)
		assert.Empty(t, r.Votes)
		assert.Nil(t, r.VoteResult)
		assert.Equal(t, models.PhaseVoting, r.GamePhase)

		tied := env.bc.ofType(events.TypeVoteTied)
		require.Len(t, tied, 1)

		// The re-vote can then finalize.
		for userID := range map[string]string{"user-1": "", "user-2": "", "user-3": "", "user-4": "", "user-5": ""} {
			require.NoError(t, env.app.SubmitVote(context.Background(), roomID, userID, "char_b"))
		}
		r = loadRoom(t, env, roomID)
		require.NotNil(t, r.VoteResult)
		assert.Equal(t, "char_b", r.VoteResult.VotedCharacterID)
		assert.Equal(t, 5, r.VoteResult.Count)
	})

	t.Run("spectators and seatless players do not gate the tally", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		roomID := votingRoom(t, env)
		spectator := true
		_, _, err := env.app.JoinRoom(context.Background(), "sess-6", roomID, "user-6", "Watcher", &spectator)
		require.NoError(t, err)

		for _, userID := range []string{"user-1", "user-2", "user-3", "user-4", "user-5"} {
			require.NoError(t, env.app.SubmitVote(context.Background(), roomID, userID, "char_a"))
		}

		require.NotNil(t, loadRoom(t, env, roomID).VoteResult, "five seated ballots close the tally despite the spectator")
	})
}
