package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-escrow/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-escrow/internal/entity"
)

var (
	errUnknownAction   = errors.New("unknown action")
	errPlayerRequired  = errors.New("player is required")
	errGameIDRequired  = fmt.Errorf("%w: game_id is required", apperror.ErrGameNotFound)
	errCellRequired    = fmt.Errorf("%w: cell is required", apperror.ErrInvalidMove)
	errMalformedObject = errors.New("malformed payload")
)

func (that *Server) decodePayload(msg *Message) (*Payload, error) {
	var payload Payload

	if len(msg.Payload) == 0 {
		return nil, errPlayerRequired
	}

	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return nil, fmt.Errorf("%w: %w", errMalformedObject, err)
	}

	if payload.Player == "" {
		return nil, errPlayerRequired
	}

	return &payload, nil
}

func (that *Server) handleCreate(ctx context.Context, conn *Conn, payload *Payload) error {
	if payload.Cell == nil {
		return that.sendErrorResponse(conn, actionCreate, errCellRequired, 0)
	}

	game, err := that.engine.Create(ctx, payload.Player, payload.BetAmount, *payload.Cell, payload.Mark)
	if err != nil {
		return that.sendErrorResponse(conn, actionCreate, err, 0)
	}

	that.logger.Info("game created", "gameID", game.ID, "player", payload.Player, "bet", game.BetAmount)

	return that.sendMessage(conn, actionCreate, ResponsePayload{Game: game})
}

func (that *Server) handleJoin(ctx context.Context, conn *Conn, payload *Payload) error {
	if payload.GameID == nil {
		return that.sendErrorResponse(conn, actionJoin, errGameIDRequired, 0)
	}

	if payload.Cell == nil {
		return that.sendErrorResponse(conn, actionJoin, errCellRequired, 0)
	}

	game, err := that.engine.Join(ctx, payload.Player, *payload.GameID, *payload.Cell, payload.Mark)
	if err != nil {
		return that.sendErrorResponse(conn, actionJoin, err, 0)
	}

	that.logger.Info("player joined game", "gameID", game.ID, "player", payload.Player)

	return that.broadcast(conn, actionJoin, game)
}

func (that *Server) handlePlay(ctx context.Context, conn *Conn, payload *Payload) error {
	if payload.GameID == nil {
		return that.sendErrorResponse(conn, actionPlay, errGameIDRequired, 0)
	}

	if payload.Cell == nil {
		return that.sendErrorResponse(conn, actionPlay, errCellRequired, 0)
	}

	game, err := that.engine.Play(ctx, payload.Player, *payload.GameID, *payload.Cell, payload.Mark)
	if err != nil {
		return that.sendErrorResponse(conn, actionPlay, err, 0)
	}

	if game.IsFinished() {
		that.logger.Info("game finished", "gameID", game.ID, "winner", game.Winner)
	}

	return that.broadcast(conn, actionPlay, game)
}

func (that *Server) handleCancel(ctx context.Context, conn *Conn, payload *Payload) error {
	if payload.GameID == nil {
		return that.sendErrorResponse(conn, actionCancel, errGameIDRequired, 0)
	}

	game, err := that.engine.Cancel(ctx, payload.Player, *payload.GameID)
	if err != nil {
		return that.sendErrorResponse(conn, actionCancel, err, 0)
	}

	that.logger.Info("game cancelled", "gameID", game.ID, "player", payload.Player)

	return that.broadcast(conn, actionCancel, game)
}

func (that *Server) handleGet(ctx context.Context, conn *Conn, payload *Payload) error {
	if payload.GameID == nil {
		return that.sendErrorResponse(conn, actionGet, errGameIDRequired, 0)
	}

	game, err := that.engine.Get(ctx, *payload.GameID)
	if err != nil {
		return that.sendErrorResponse(conn, actionGet, err, 0)
	}

	return that.sendMessage(conn, actionGet, ResponsePayload{Game: game})
}

func (that *Server) handleBalance(ctx context.Context, conn *Conn, payload *Payload) error {
	balance, err := that.balances.Balance(ctx, payload.Player)
	if err != nil {
		return that.sendErrorResponse(conn, actionBalance, err, 0)
	}

	return that.sendMessage(conn, actionBalance, ResponsePayload{Balance: &balance})
}

// broadcast - sends the updated game to the caller and to the other player if connected.
func (that *Server) broadcast(caller *Conn, action string, game *entity.Game) error {
	log := that.logger.With("method", "broadcast", "gameID", game.ID)

	if err := that.sendMessage(caller, action, ResponsePayload{Game: game}); err != nil {
		return err
	}

	players := []string{game.PlayerOne}
	if game.PlayerTwo != nil {
		players = append(players, *game.PlayerTwo)
	}

	for _, player := range players {
		that.connectionsMutex.RLock()
		conn, ok := that.connections[player]
		that.connectionsMutex.RUnlock()

		if !ok || conn == caller {
			continue
		}

		if err := that.sendMessage(conn, action, ResponsePayload{Game: game}); err != nil {
			log.Warn("failed to send game update", "player", player, "error", err)
		}
	}

	return nil
}

func (that *Server) sendMessage(conn *Conn, action string, payload ResponsePayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}

	if err = conn.WriteMessage(Message{Action: action, Payload: body}); err != nil {
		return fmt.Errorf("failed to write response: %w", err)
	}

	return nil
}

// sendErrorResponse - reports err to the client. A zero code is derived from err.
func (that *Server) sendErrorResponse(conn *Conn, action string, err error, code int) error {
	if code == 0 {
		code = apperror.Code(err)
	}

	if code == apperror.CodeInternal {
		that.logger.Error("request failed", "action", action, "error", err)
	}

	payload := ResponsePayload{Error: err.Error(), Code: code}
	if err = that.sendMessage(conn, action, payload); err != nil {
		return fmt.Errorf("failed to send error response: %w", err)
	}

	return nil
}
