package websocket

import (
	"encoding/json"

	"github.com/rocketscienceinc/tictactoe-escrow/internal/entity"
)

const (
	actionCreate  = "game:create"
	actionJoin    = "game:join"
	actionPlay    = "game:play"
	actionCancel  = "game:cancel"
	actionGet     = "game:get"
	actionBalance = "wallet:balance"
	actionError   = "error"
)

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Payload is what clients send. Player is the caller's principal.
type Payload struct {
	Player    string      `json:"player"`
	GameID    *uint64     `json:"game_id,omitempty"`
	Cell      *int        `json:"cell,omitempty"`
	Mark      entity.Mark `json:"mark,omitempty"`
	BetAmount uint64      `json:"bet_amount,omitempty"`
}

type ResponsePayload struct {
	Game    *entity.Game `json:"game,omitempty"`
	Balance *uint64      `json:"balance,omitempty"`
	Error   string       `json:"error,omitempty"`
	Code    int          `json:"code,omitempty"`
}
