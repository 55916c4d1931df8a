package events

import (
	"github.com/btktNo012/MysteryMakerProject/go/internal/models"
)

// RoomSnapshot is sent to the originating caller on create and join. It carries
// the whole room plus the caller's own player record so a reconnecting client
// can restore its state in one frame.
type RoomSnapshot struct {
	*models.Room
	YourPlayer *models.Player `json:"yourPlayer"`
	RoomID     string         `json:"roomId"`
}

// UpdatePlayers carries the full player list whenever it changes.
type UpdatePlayers struct {
	Players      []*models.Player  `json:"players"`
	MasterUserID string            `json:"masterUserId,omitempty"`
	Selections   map[string]string `json:"characterSelections,omitempty"`
}

// PhaseChanged carries the room's new phase.
type PhaseChanged struct {
	GamePhase models.GamePhase `json:"gamePhase"`
}

// CharactersConfirmed signals the reading phase start.
type CharactersConfirmed struct {
	GamePhase           models.GamePhase `json:"gamePhase"`
	ReadingTimerEndTime int64            `json:"readingTimerEndTime"`
}

// ReadingTimeExtended carries the pushed-back reading deadline.
type ReadingTimeExtended struct {
	EndTime int64 `json:"endTime"`
}

// VoteTied names the candidates sharing the highest count; all ballots have
// been cleared and every eligible voter must vote again.
type VoteTied struct {
	Winners []string `json:"winners"`
}

// VoteFinalized carries the finalized tally plus the ballots for display.
type VoteFinalized struct {
	Result *models.VoteResult `json:"result"`
	Votes  map[string]string  `json:"votes"`
}

// CardError is a caller-only rejection of a card acquisition.
type CardError struct {
	Message string `json:"message"`
}
