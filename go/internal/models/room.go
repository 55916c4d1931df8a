package models

// GameLogEntry is one human-readable record in a room's append-only log.
type GameLogEntry struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Log entry types.
const (
	LogPhaseStart   = "phase-start"
	LogCardGet      = "card-get"
	LogCardPublic   = "card-public"
	LogCardTransfer = "card-transfer"
	LogSkillUse     = "skill-use"
)

// VoteResult is the last finalized tally of a room.
type VoteResult struct {
	VotedCharacterID string `json:"votedCharacterId"`
	Count            int    `json:"count"`
}

// Room is the aggregate root of one game session. It is persisted as a single
// self-contained JSON document and is the only state shared between clients.
type Room struct {
	ID                  string            `json:"id"`
	Players             []*Player         `json:"players"`
	MasterUserID        string            `json:"masterUserId"`
	RequiredPlayerCount int               `json:"maxPlayers"`
	GamePhase           GamePhase         `json:"gamePhase"`
	CharacterSelections map[string]string `json:"characterSelections"`
	ReadingTimerEndTime *int64            `json:"readingTimerEndTime"`
	InfoCards           []*InfoCard       `json:"infoCards"`
	DiscussionTimer     DiscussionTimer   `json:"discussionTimer"`
	Votes               map[string]string `json:"votes"`
	VoteResult          *VoteResult       `json:"voteResult"`
	GameLog             []GameLogEntry    `json:"gameLog"`
}

// PlayerByUserID returns the player with the given stable user id, or nil.
func (r *Room) PlayerByUserID(userID string) *Player {
	for _, p := range r.Players {
		if p.UserID == userID {
			return p
		}
	}
	return nil
}

// CardByID returns the card with the given id, or nil.
func (r *Room) CardByID(cardID string) *InfoCard {
	for _, c := range r.InfoCards {
		if c.ID == cardID {
			return c
		}
	}
	return nil
}

// CharacterHeldBy returns the character id currently held by the given user,
// or "" if they hold none.
func (r *Room) CharacterHeldBy(userID string) string {
	for charID, holder := range r.CharacterSelections {
		if holder == userID {
			return charID
		}
	}
	return ""
}

// ParticipantCount counts non-spectator players. Spectators never count against
// the required player slots.
func (r *Room) ParticipantCount() int {
	n := 0
	for _, p := range r.Players {
		if !p.IsSpectator {
			n++
		}
	}
	return n
}

// AllDisconnected reports whether no player in the room holds a live connection.
func (r *Room) AllDisconnected() bool {
	for _, p := range r.Players {
		if p.Connected {
			return false
		}
	}
	return true
}

// AppendLog appends an entry to the room's game log.
func (r *Room) AppendLog(entryType, message string) {
	r.GameLog = append(r.GameLog, GameLogEntry{Type: entryType, Message: message})
}

// ResetStandBy clears every player's ready signal. Called whenever the room
// advances into a new untimed phase.
func (r *Room) ResetStandBy() {
	for _, p := range r.Players {
		p.IsStandBy = false
	}
}
