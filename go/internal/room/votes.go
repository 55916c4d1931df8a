package room

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/btktNo012/MysteryMakerProject/go/internal/events"
	"github.com/btktNo012/MysteryMakerProject/go/internal/models"
	"github.com/btktNo012/MysteryMakerProject/go/internal/scenario"
)

// SubmitVote records a ballot during the voting phase; a voter's later ballot
// replaces their earlier one. Once every eligible voter has a ballot in, the
// tally finalizes: a strict plurality is recorded with the ballots retained for
// display, a tie clears every ballot for a full re-vote. The room phase stays
// at voting either way — advancing to the ending is an explicit master action.
func (a *App) SubmitVote(ctx context.Context, roomID, userID, votedCharacterID string) error {
	roomID = NormalizeRoomID(roomID)
	unlock := a.locks.lock(roomID)
	defer unlock()

	r, err := a.repo.Load(ctx, roomID)
	if err != nil {
		return ignoreNotFound(err)
	}
	if r.GamePhase != models.PhaseVoting {
		return nil
	}

	if r.Votes == nil {
		r.Votes = make(map[string]string)
	}
	r.Votes[userID] = votedCharacterID

	// Snapshot the ballots as cast; a tie clears r.Votes before the first
	// update event goes out.
	cast := make(map[string]string, len(r.Votes))
	for voter, charID := range r.Votes {
		cast[voter] = charID
	}

	var winners []string
	var maxVotes int
	closed := false
	if eligible := a.eligibleVoterCount(r); eligible > 0 && len(r.Votes) >= eligible {
		closed = true
		winners, maxVotes = tallyVotes(r.Votes)
		if len(winners) == 1 {
			r.VoteResult = &models.VoteResult{VotedCharacterID: winners[0], Count: maxVotes}
		} else {
			r.Votes = make(map[string]string)
		}
	}

	if err := a.repo.Save(ctx, r); err != nil {
		return err
	}
	log.Info().Str("room_id", roomID).Str("user_id", userID).Str("character_id", votedCharacterID).Msg("vote submitted")
	a.broadcaster.BroadcastToRoom(roomID, events.New(roomID, events.TypeVoteStateUpdated, cast))

	if !closed {
		return nil
	}
	if len(winners) == 1 {
		log.Info().Str("room_id", roomID).Str("character_id", winners[0]).Int("count", maxVotes).Msg("vote result finalized")
		a.broadcaster.BroadcastToRoom(roomID, events.New(roomID, events.TypeVoteResultFinalized, events.VoteFinalized{
			Result: r.VoteResult,
			Votes:  r.Votes,
		}))
		return nil
	}
	log.Info().Str("room_id", roomID).Strs("winners", winners).Msg("vote tied, restarting ballot")
	a.broadcaster.BroadcastToRoom(roomID, events.New(roomID, events.TypeVoteTied, events.VoteTied{Winners: winners}))
	a.broadcaster.BroadcastToRoom(roomID, events.New(roomID, events.TypeVoteStateUpdated, r.Votes))
	return nil
}

// eligibleVoterCount counts non-spectator players currently holding a PC
// character. The tally closes when this many ballots are in.
func (a *App) eligibleVoterCount(r *models.Room) int {
	n := 0
	for _, p := range r.Players {
		if p.IsSpectator {
			continue
		}
		charID := r.CharacterHeldBy(p.UserID)
		if charID == "" {
			continue
		}
		if c := a.scenarios.CharacterByID(charID); c != nil && c.Type == scenario.CharacterPC {
			n++
		}
	}
	return n
}

// tallyVotes returns the candidate(s) sharing the strictly highest count.
func tallyVotes(votes map[string]string) (winners []string, maxVotes int) {
	counts := make(map[string]int)
	for _, charID := range votes {
		counts[charID]++
	}
	for charID, count := range counts {
		switch {
		case count > maxVotes:
			maxVotes = count
			winners = []string{charID}
		case count == maxVotes:
			winners = append(winners, charID)
		}
	}
	return winners, maxVotes
}
