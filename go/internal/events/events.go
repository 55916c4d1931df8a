// Package events defines the named events the engine emits and the gateway
// fans out, together with their JSON payloads. It sits below both packages so
// neither has to import the other.
package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Type names an engine event.
type Type string

const (
	TypeRoomCreated               Type = "roomCreated"
	TypeRoomJoined                Type = "roomJoined"
	TypeRoomNotFound              Type = "roomNotFound"
	TypeRoomFull                  Type = "roomFull"
	TypeUpdatePlayers             Type = "updatePlayers"
	TypeGamePhaseChanged          Type = "gamePhaseChanged"
	TypeCharacterSelectionUpdated Type = "characterSelectionUpdated"
	TypeCharactersConfirmed       Type = "charactersConfirmed"
	TypeReadingTimeExtended       Type = "readingTimeExtended"
	TypeDiscussionTimerUpdated    Type = "discussionTimerUpdated"
	TypeInfoCardsUpdated          Type = "infoCardsUpdated"
	TypeGameLogUpdated            Type = "gameLogUpdated"
	TypeVoteStateUpdated          Type = "voteStateUpdated"
	TypeVoteTied                  Type = "voteTied"
	TypeVoteResultFinalized       Type = "voteResultFinalized"
	TypeGetCardError              Type = "getCardError"
	TypeRoomClosed                Type = "roomClosed"
)

// Event is the envelope every outbound frame is wrapped in.
type Event struct {
	ID        string          `json:"id"`
	RoomID    string          `json:"roomId"`
	Type      Type            `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// New builds an event envelope, marshaling the payload. A payload that fails to
// marshal is a programming error; the event is emitted with empty data so the
// stream never stalls on it.
func New(roomID string, eventType Type, payload any) *Event {
	ev := &Event{
		ID:        uuid.New().String(),
		RoomID:    roomID,
		Type:      eventType,
		Timestamp: time.Now().UTC(),
	}
	if payload != nil {
		if data, err := json.Marshal(payload); err == nil {
			ev.Data = data
		}
	}
	return ev
}
