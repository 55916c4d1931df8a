package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/btktNo012/MysteryMakerProject/go/internal/events"
	"github.com/btktNo012/MysteryMakerProject/go/internal/models"
	"github.com/btktNo012/MysteryMakerProject/go/internal/room"
)

// Intent names, matching the client protocol.
const (
	IntentCreateRoom               = "createRoom"
	IntentJoinRoom                 = "joinRoom"
	IntentStartGame                = "startGame"
	IntentSelectCharacter          = "selectCharacter"
	IntentConfirmCharacters        = "confirmCharacters"
	IntentExtendReadingTimer       = "extendReadingTimer"
	IntentProceedToFirstDiscussion = "proceedToFirstDiscussion"
	IntentChangeGamePhase          = "changeGamePhase"
	IntentStartDiscussionTimer     = "startDiscussionTimer"
	IntentPauseDiscussionTimer     = "pauseDiscussionTimer"
	IntentResumeDiscussionTimer    = "resumeDiscussionTimer"
	IntentRequestEndDiscussion     = "requestEndDiscussion"
	IntentCancelEndDiscussion      = "cancelEndDiscussion"
	IntentConfirmEndDiscussion     = "confirmEndDiscussion"
	IntentUseActiveSkill           = "useActiveSkill"
	IntentSetStandBy               = "setStandBy"
	IntentGetCard                  = "getCard"
	IntentMakeCardPublic           = "makeCardPublic"
	IntentTransferCard             = "transferCard"
	IntentSubmitVote               = "submitVote"
	IntentLeaveRoom                = "leaveRoom"
	IntentCloseRoom                = "closeRoom"
)

// intentEnvelope is the inbound frame shape: a type tag plus a type-specific
// payload.
type intentEnvelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// intentPayload is the superset of the per-intent payload fields. Every intent
// decodes from this one struct; absent fields stay zero.
type intentPayload struct {
	Username         string           `json:"username"`
	UserID           string           `json:"userId"`
	RoomID           string           `json:"roomId"`
	IsSpectator      *bool            `json:"isSpectator"`
	CharacterID      *string          `json:"characterId"`
	NewPhase         models.GamePhase `json:"newPhase"`
	Phase            models.GamePhase `json:"phase"`
	DurationSeconds  int              `json:"durationSeconds"`
	SkillID          string           `json:"skillId"`
	SkillPayload     json.RawMessage  `json:"payload"`
	Value            bool             `json:"value"`
	CardID           string           `json:"cardId"`
	TargetUserID     string           `json:"targetUserId"`
	VotedCharacterID string           `json:"votedCharacterId"`
}

// dispatch decodes one inbound frame and routes it to the engine. Unknown or
// malformed frames are dropped; the engine's own guards make every operation a
// safe no-op on invalid input.
func (m *Manager) dispatch(c *Connection, message []byte) {
	var envelope intentEnvelope
	if err := json.Unmarshal(message, &envelope); err != nil {
		log.Warn().Err(err).Str("session_id", c.ID).Msg("undecodable intent frame")
		return
	}
	var p intentPayload
	if len(envelope.Payload) > 0 {
		if err := json.Unmarshal(envelope.Payload, &p); err != nil {
			log.Warn().Err(err).Str("session_id", c.ID).Str("intent", envelope.Type).Msg("undecodable intent payload")
			return
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var err error
	switch envelope.Type {
	case IntentCreateRoom:
		err = m.handleCreateRoom(ctx, c, p)
	case IntentJoinRoom:
		err = m.handleJoinRoom(ctx, c, p)
	case IntentStartGame:
		err = m.app.StartGame(ctx, p.RoomID, p.UserID)
	case IntentSelectCharacter:
		characterID := ""
		if p.CharacterID != nil {
			characterID = *p.CharacterID
		}
		err = m.app.SelectCharacter(ctx, p.RoomID, p.UserID, characterID)
	case IntentConfirmCharacters:
		err = m.app.ConfirmCharacters(ctx, p.RoomID, p.UserID)
	case IntentExtendReadingTimer:
		err = m.app.ExtendReadingTimer(ctx, p.RoomID, p.UserID)
	case IntentProceedToFirstDiscussion:
		err = m.app.ProceedToFirstDiscussion(ctx, p.RoomID, p.UserID)
	case IntentChangeGamePhase:
		err = m.app.SetPhase(ctx, p.RoomID, p.NewPhase)
	case IntentStartDiscussionTimer:
		err = m.app.StartDiscussionTimer(ctx, p.RoomID, p.UserID, p.Phase, p.DurationSeconds)
	case IntentPauseDiscussionTimer:
		err = m.app.PauseDiscussionTimer(ctx, p.RoomID, p.UserID)
	case IntentResumeDiscussionTimer:
		err = m.app.ResumeDiscussionTimer(ctx, p.RoomID, p.UserID)
	case IntentRequestEndDiscussion:
		err = m.app.RequestEndDiscussion(ctx, p.RoomID, p.UserID)
	case IntentCancelEndDiscussion:
		err = m.app.CancelEndDiscussion(ctx, p.RoomID, p.UserID)
	case IntentConfirmEndDiscussion:
		err = m.app.ConfirmEndDiscussion(ctx, p.RoomID, p.UserID)
	case IntentUseActiveSkill:
		err = m.app.UseActiveSkill(ctx, p.RoomID, p.UserID, p.SkillID, p.SkillPayload)
	case IntentSetStandBy:
		err = m.app.SetStandBy(ctx, p.RoomID, p.UserID, p.Value)
	case IntentGetCard:
		err = m.app.GetCard(ctx, p.RoomID, p.UserID, p.CardID)
		if errors.Is(err, room.ErrCardLimit) {
			// Already reported to the caller by the engine.
			err = nil
		}
	case IntentMakeCardPublic:
		err = m.app.MakeCardPublic(ctx, p.RoomID, p.UserID, p.CardID)
	case IntentTransferCard:
		err = m.app.TransferCard(ctx, p.RoomID, p.UserID, p.CardID, p.TargetUserID)
	case IntentSubmitVote:
		err = m.app.SubmitVote(ctx, p.RoomID, p.UserID, p.VotedCharacterID)
	case IntentLeaveRoom:
		err = m.app.LeaveRoom(ctx, p.RoomID, p.UserID)
		m.unbind(c)
	case IntentCloseRoom:
		err = m.app.CloseRoom(ctx, p.RoomID, p.UserID)
	default:
		log.Warn().Str("intent", envelope.Type).Str("session_id", c.ID).Msg("unknown intent, ignoring")
	}

	if err != nil {
		log.Error().Err(err).Str("intent", envelope.Type).Str("session_id", c.ID).Msg("intent handling failed")
	}
}

// handleCreateRoom creates the room, binds the session, and replies with the
// caller's snapshot.
func (m *Manager) handleCreateRoom(ctx context.Context, c *Connection, p intentPayload) error {
	r, player, err := m.app.CreateRoom(ctx, c.ID, p.UserID, p.Username)
	if err != nil {
		return err
	}
	m.bind(c, r.ID, p.UserID)
	c.sendEvent(events.New(r.ID, events.TypeRoomCreated, events.RoomSnapshot{
		Room:       r,
		YourPlayer: player,
		RoomID:     r.ID,
	}))
	return nil
}

// handleJoinRoom joins (or re-binds) the session and replies with the caller's
// snapshot, or with a caller-only rejection.
func (m *Manager) handleJoinRoom(ctx context.Context, c *Connection, p intentPayload) error {
	r, player, err := m.app.JoinRoom(ctx, c.ID, p.RoomID, p.UserID, p.Username, p.IsSpectator)
	switch {
	case errors.Is(err, room.ErrRoomNotFound):
		c.sendEvent(events.New(room.NormalizeRoomID(p.RoomID), events.TypeRoomNotFound, nil))
		return nil
	case errors.Is(err, room.ErrRoomFull):
		c.sendEvent(events.New(room.NormalizeRoomID(p.RoomID), events.TypeRoomFull, nil))
		return nil
	case err != nil:
		return err
	}

	m.bind(c, r.ID, p.UserID)
	c.sendEvent(events.New(r.ID, events.TypeRoomJoined, events.RoomSnapshot{
		Room:       r,
		YourPlayer: player,
		RoomID:     r.ID,
	}))
	return nil
}
