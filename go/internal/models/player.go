package models

// Skill is a per-player snapshot of a scenario skill. Snapshots are copied from
// the scenario at character-confirmation time so that marking one used never
// touches scenario configuration.
type Skill struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Type        SkillType `json:"type"`
	Description string    `json:"description"`
	Used        bool      `json:"used"`
}

// SkillType distinguishes always-on skills from one-shot triggered ones.
type SkillType string

const (
	SkillTypePassive SkillType = "passive"
	SkillTypeActive  SkillType = "active"
)

// Player is one participant in a room. UserID is the stable identity; SessionID
// is the volatile transport identifier and is replaced on every reconnect.
type Player struct {
	SessionID         string         `json:"id"`
	UserID            string         `json:"userId"`
	Name              string         `json:"name"`
	IsMaster          bool           `json:"isMaster"`
	IsSpectator       bool           `json:"isSpectator"`
	Connected         bool           `json:"connected"`
	AcquiredCardCount map[string]int `json:"acquiredCardCount"`
	Skills            []Skill        `json:"skills"`
	IsStandBy         bool           `json:"isStandBy"`
}

// NewPlayer returns a connected player with zeroed per-phase card counters.
func NewPlayer(sessionID, userID, name string, isMaster, isSpectator bool) *Player {
	return &Player{
		SessionID:   sessionID,
		UserID:      userID,
		Name:        name,
		IsMaster:    isMaster,
		IsSpectator: isSpectator,
		Connected:   true,
		AcquiredCardCount: map[string]int{
			string(PhaseFirstDiscussion):  0,
			string(PhaseSecondDiscussion): 0,
		},
		Skills: []Skill{},
	}
}

// CardCount returns the number of cards acquired during the given phase.
func (p *Player) CardCount(phase GamePhase) int {
	if p.AcquiredCardCount == nil {
		return 0
	}
	return p.AcquiredCardCount[string(phase)]
}

// IncrementCardCount bumps the per-phase acquisition counter.
func (p *Player) IncrementCardCount(phase GamePhase) {
	if p.AcquiredCardCount == nil {
		p.AcquiredCardCount = make(map[string]int)
	}
	p.AcquiredCardCount[string(phase)]++
}

// FindSkill returns the player's snapshot of the given skill, or nil.
func (p *Player) FindSkill(skillID string) *Skill {
	for i := range p.Skills {
		if p.Skills[i].ID == skillID {
			return &p.Skills[i]
		}
	}
	return nil
}
