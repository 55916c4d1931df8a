// Package scenario loads the immutable content documents a game session is
// played from: the scenario itself (characters, goals, phase settings, card
// templates, ending pointers) and the skill catalog. Both are read once at boot
// and never mutated; rooms deep-copy whatever they need out of them.
package scenario

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/btktNo012/MysteryMakerProject/go/internal/models"
)

// Goal is one scored character objective. Opaque to the engine.
type Goal struct {
	Text   string `json:"text"`
	Points int    `json:"points"`
}

// CharacterType distinguishes player-controllable characters from NPCs.
type CharacterType string

const (
	CharacterPC  CharacterType = "PC"
	CharacterNPC CharacterType = "NPC"
)

// Character is one scenario character definition.
type Character struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Type         CharacterType  `json:"type"`
	Profile      string         `json:"profile"`
	Goals        []Goal         `json:"goals,omitempty"`
	Skills       []models.Skill `json:"skills,omitempty"`
	StoryFile    string         `json:"storyFile,omitempty"`
	MapImageFile string         `json:"mapImageFile,omitempty"`
}

// DiscussionSettings configures one discussion round.
type DiscussionSettings struct {
	// MaxCardsPerPlayer caps per-player acquisitions in the round.
	// Zero or absent means unlimited.
	MaxCardsPerPlayer int `json:"maxCardsPerPlayer"`
}

// HandOutSettings bounds the character hand-out reading phase.
type HandOutSettings struct {
	TimeLimit int `json:"timeLimit"` // seconds
}

// Ending maps a voted character to an ending file.
type Ending struct {
	VotedCharID string `json:"votedCharId"`
	EndingFile  string `json:"endingFile"`
	Title       string `json:"title"`
}

// Scenario is the immutable content document for one mystery. File pointers are
// opaque to the engine; the client resolves them.
type Scenario struct {
	Title                   string                        `json:"title"`
	ScheduleFile            string                        `json:"scheduleFile,omitempty"`
	SynopsisFile            string                        `json:"synopsisFile,omitempty"`
	HandOutSettings         HandOutSettings               `json:"handOutSettings"`
	DiscussionPhaseSettings map[string]DiscussionSettings `json:"discussionPhaseSettings"`
	Characters              []Character                   `json:"characters"`
	InfoCards               []models.InfoCard             `json:"infoCards"`
	Endings                 []Ending                      `json:"endings,omitempty"`
}

// SkillInfo is one entry of the skill catalog document.
type SkillInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Store holds the loaded scenario and skill catalog.
type Store struct {
	Scenario  *Scenario
	SkillInfo []SkillInfo
}

// Load reads the scenario and skill catalog documents from disk.
func Load(scenarioPath, skillInfoPath string) (*Store, error) {
	data, err := os.ReadFile(scenarioPath)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}
	var sc Scenario
	if err := json.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario file: %w", err)
	}

	var skills []SkillInfo
	if skillInfoPath != "" {
		data, err := os.ReadFile(skillInfoPath)
		if err != nil {
			return nil, fmt.Errorf("read skill info file: %w", err)
		}
		if err := json.Unmarshal(data, &skills); err != nil {
			return nil, fmt.Errorf("parse skill info file: %w", err)
		}
	}

	return &Store{Scenario: &sc, SkillInfo: skills}, nil
}

// PCCount returns the number of protagonist roles, which is also the number of
// non-spectator player slots in a room.
func (s *Store) PCCount() int {
	n := 0
	for _, c := range s.Scenario.Characters {
		if c.Type == CharacterPC {
			n++
		}
	}
	return n
}

// CharacterByID returns the character definition, or nil.
func (s *Store) CharacterByID(id string) *Character {
	for i := range s.Scenario.Characters {
		if s.Scenario.Characters[i].ID == id {
			return &s.Scenario.Characters[i]
		}
	}
	return nil
}

// CharacterNameHeldBy resolves the display name of the character the given user
// holds in the room, falling back to the player name when they hold none.
func (s *Store) CharacterNameHeldBy(room *models.Room, userID string) string {
	if charID := room.CharacterHeldBy(userID); charID != "" {
		if c := s.CharacterByID(charID); c != nil {
			return c.Name
		}
	}
	if p := room.PlayerByUserID(userID); p != nil {
		return p.Name
	}
	return userID
}

// MaxCardsPerPlayer returns the acquisition cap for the given discussion phase.
// Unconfigured phases are unlimited.
func (s *Store) MaxCardsPerPlayer(phase models.GamePhase) int {
	settings, ok := s.Scenario.DiscussionPhaseSettings[string(phase)]
	if !ok || settings.MaxCardsPerPlayer <= 0 {
		return int(^uint(0) >> 1)
	}
	return settings.MaxCardsPerPlayer
}

// SkillName resolves a skill id against the catalog.
func (s *Store) SkillName(skillID string) string {
	for _, info := range s.SkillInfo {
		if info.ID == skillID {
			return info.Name
		}
	}
	return skillID
}

// NewInfoCards deep-copies the scenario's card templates for a fresh room.
// Rooms must never share card state with the template document.
func (s *Store) NewInfoCards() []*models.InfoCard {
	cards := make([]*models.InfoCard, 0, len(s.Scenario.InfoCards))
	for _, tpl := range s.Scenario.InfoCards {
		card := tpl
		cards = append(cards, &card)
	}
	return cards
}

// NewCharacterSelections seeds the selection map with every PC slot unclaimed.
func (s *Store) NewCharacterSelections() map[string]string {
	selections := make(map[string]string)
	for _, c := range s.Scenario.Characters {
		if c.Type == CharacterPC {
			selections[c.ID] = ""
		}
	}
	return selections
}
