package room

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/btktNo012/MysteryMakerProject/go/internal/events"
	"github.com/btktNo012/MysteryMakerProject/go/internal/models"
)

// GetCard acquires an unowned card for the player. Only valid during a
// discussion phase, and capped per player per phase by the scenario; hitting
// the cap is reported to the requesting player only.
func (a *App) GetCard(ctx context.Context, roomID, userID, cardID string) error {
	roomID = NormalizeRoomID(roomID)
	unlock := a.locks.lock(roomID)
	defer unlock()

	r, err := a.repo.Load(ctx, roomID)
	if err != nil {
		return ignoreNotFound(err)
	}
	if !r.GamePhase.IsDiscussion() {
		return nil
	}

	player := r.PlayerByUserID(userID)
	card := r.CardByID(cardID)
	if player == nil || card == nil || card.Owner != "" {
		return nil
	}

	maxCards := a.scenarios.MaxCardsPerPlayer(r.GamePhase)
	if player.CardCount(r.GamePhase) >= maxCards {
		a.broadcaster.SendToUser(roomID, userID, events.New(roomID, events.TypeGetCardError, events.CardError{
			Message: fmt.Sprintf("No more cards can be acquired this phase (limit: %d).", maxCards),
		}))
		return ErrCardLimit
	}

	card.Owner = userID
	if card.FirstOwner == "" {
		card.FirstOwner = userID
	}
	player.IncrementCardCount(r.GamePhase)

	characterName := a.scenarios.CharacterNameHeldBy(r, userID)
	r.AppendLog(models.LogCardGet, fmt.Sprintf("%s picked up \"%s\".", characterName, card.Name))

	if err := a.repo.Save(ctx, r); err != nil {
		return err
	}
	log.Info().Str("room_id", roomID).Str("user_id", userID).Str("card_id", cardID).Msg("card acquired")
	a.broadcaster.BroadcastToRoom(roomID, events.New(roomID, events.TypeGameLogUpdated, r.GameLog))
	a.broadcaster.BroadcastToRoom(roomID, events.New(roomID, events.TypeInfoCardsUpdated, r.InfoCards))
	a.broadcaster.BroadcastToRoom(roomID, events.New(roomID, events.TypeUpdatePlayers, events.UpdatePlayers{Players: r.Players}))
	return nil
}

// MakeCardPublic reveals a card to everyone. Only the current owner may do
// this, and a revealed card never becomes hidden again.
func (a *App) MakeCardPublic(ctx context.Context, roomID, userID, cardID string) error {
	roomID = NormalizeRoomID(roomID)
	unlock := a.locks.lock(roomID)
	defer unlock()

	r, err := a.repo.Load(ctx, roomID)
	if err != nil {
		return ignoreNotFound(err)
	}
	card := r.CardByID(cardID)
	if card == nil || card.Owner != userID {
		return nil
	}

	card.IsPublic = true
	r.AppendLog(models.LogCardPublic, fmt.Sprintf("\"%s\" was revealed to everyone.", card.Name))

	if err := a.repo.Save(ctx, r); err != nil {
		return err
	}
	log.Info().Str("room_id", roomID).Str("user_id", userID).Str("card_id", cardID).Msg("card made public")
	a.broadcaster.BroadcastToRoom(roomID, events.New(roomID, events.TypeGameLogUpdated, r.GameLog))
	a.broadcaster.BroadcastToRoom(roomID, events.New(roomID, events.TypeInfoCardsUpdated, r.InfoCards))
	a.broadcaster.BroadcastToRoom(roomID, events.New(roomID, events.TypeUpdatePlayers, events.UpdatePlayers{Players: r.Players}))
	return nil
}

// TransferCard hands a card to another player. Only the current owner may
// transfer; FirstOwner and IsPublic are untouched.
func (a *App) TransferCard(ctx context.Context, roomID, userID, cardID, targetUserID string) error {
	roomID = NormalizeRoomID(roomID)
	unlock := a.locks.lock(roomID)
	defer unlock()

	r, err := a.repo.Load(ctx, roomID)
	if err != nil {
		return ignoreNotFound(err)
	}
	card := r.CardByID(cardID)
	if card == nil || card.Owner != userID {
		return nil
	}
	if r.PlayerByUserID(targetUserID) == nil {
		return nil
	}

	fromName := a.scenarios.CharacterNameHeldBy(r, userID)
	toName := a.scenarios.CharacterNameHeldBy(r, targetUserID)

	card.Owner = targetUserID
	r.AppendLog(models.LogCardTransfer, fmt.Sprintf("\"%s\" was handed from %s to %s.", card.Name, fromName, toName))

	if err := a.repo.Save(ctx, r); err != nil {
		return err
	}
	log.Info().Str("room_id", roomID).Str("card_id", cardID).Str("from", userID).Str("to", targetUserID).Msg("card transferred")
	a.broadcaster.BroadcastToRoom(roomID, events.New(roomID, events.TypeGameLogUpdated, r.GameLog))
	a.broadcaster.BroadcastToRoom(roomID, events.New(roomID, events.TypeInfoCardsUpdated, r.InfoCards))
	a.broadcaster.BroadcastToRoom(roomID, events.New(roomID, events.TypeUpdatePlayers, events.UpdatePlayers{Players: r.Players}))
	return nil
}
