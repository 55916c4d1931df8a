// Package models holds the persisted game state: rooms, players, cards, the
// discussion timer, and the phase order. Everything here round-trips through
// JSON unchanged, so the repository document and the wire payloads share one
// shape.
package models

// GamePhase is one step of the fixed session flow. Phases only ever move
// forward through the canonical order.
type GamePhase string

const (
	PhaseWaiting          GamePhase = "waiting"
	PhaseIntroduction     GamePhase = "introduction"
	PhaseSynopsis         GamePhase = "synopsis"
	PhaseCharacterSelect  GamePhase = "characterSelect"
	PhaseCommonInfo       GamePhase = "commonInfo"
	PhaseIndividualStory  GamePhase = "individualStory"
	PhaseFirstDiscussion  GamePhase = "firstDiscussion"
	PhaseInterlude        GamePhase = "interlude"
	PhaseSecondDiscussion GamePhase = "secondDiscussion"
	PhaseVoting           GamePhase = "voting"
	PhaseEnding           GamePhase = "ending"
	PhaseDebriefing       GamePhase = "debriefing"
)

// phaseOrder gives each phase its position in the canonical flow.
var phaseOrder = map[GamePhase]int{
	PhaseWaiting:          0,
	PhaseIntroduction:     1,
	PhaseSynopsis:         2,
	PhaseCharacterSelect:  3,
	PhaseCommonInfo:       4,
	PhaseIndividualStory:  5,
	PhaseFirstDiscussion:  6,
	PhaseInterlude:        7,
	PhaseSecondDiscussion: 8,
	PhaseVoting:           9,
	PhaseEnding:           10,
	PhaseDebriefing:       11,
}

// Valid reports whether p is one of the canonical phases.
func (p GamePhase) Valid() bool {
	_, ok := phaseOrder[p]
	return ok
}

// Before reports whether p comes strictly before other in the canonical order.
// Unknown phases are never before anything.
func (p GamePhase) Before(other GamePhase) bool {
	a, ok := phaseOrder[p]
	if !ok {
		return false
	}
	b, ok := phaseOrder[other]
	if !ok {
		return false
	}
	return a < b
}

// IsDiscussion reports whether p is one of the two timed discussion rounds.
func (p GamePhase) IsDiscussion() bool {
	return p == PhaseFirstDiscussion || p == PhaseSecondDiscussion
}
