package entity

import "github.com/google/uuid"

type EventType string

const (
	EventGameCreated   EventType = "game_created"
	EventGameJoined    EventType = "game_joined"
	EventMove          EventType = "move"
	EventGameWon       EventType = "game_won"
	EventGameDraw      EventType = "game_draw"
	EventGameCancelled EventType = "game_cancelled"
	EventEscrowDebit   EventType = "escrow_debit"
	EventPayout        EventType = "payout"
	EventRefund        EventType = "refund"
)

// Event is an append-only record for off-chain observers.
type Event struct {
	ID     string    `json:"id"`
	Type   EventType `json:"type"`
	GameID uint64    `json:"game_id"`
	Actor  string    `json:"actor"`
	Amount uint64    `json:"amount,omitempty"`
	Cell   *int      `json:"cell,omitempty"`
	Mark   Mark      `json:"mark,omitempty"`
	Height uint64    `json:"height"`
}

func NewEvent(eventType EventType, game *Game, actor string, height uint64) Event {
	return Event{
		ID:     uuid.NewString(),
		Type:   eventType,
		GameID: game.ID,
		Actor:  actor,
		Height: height,
	}
}

func (that Event) WithAmount(amount uint64) Event {
	that.Amount = amount
	return that
}

func (that Event) WithMove(cell int, mark Mark) Event {
	that.Cell = &cell
	that.Mark = mark
	return that
}
