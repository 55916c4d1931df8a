package models

// InfoCard is one discoverable clue. Owner is the current holder's user id, or
// empty when the card is still lying on the scene. FirstOwner is set once on the
// first acquisition and never cleared; IsPublic never reverts to false.
type InfoCard struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Content    string `json:"content"`
	Owner      string `json:"owner,omitempty"`
	FirstOwner string `json:"firstOwner,omitempty"`
	IsPublic   bool   `json:"isPublic"`
}
