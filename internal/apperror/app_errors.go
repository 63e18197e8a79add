package apperror

import "errors"

var (
	ErrInvalidBet        = errors.New("invalid bet amount")
	ErrInvalidMove       = errors.New("invalid move")
	ErrGameNotFound      = errors.New("game not found")
	ErrGameAlreadyJoined = errors.New("game already has a second player")
	ErrNotYourTurn       = errors.New("it's not your turn")
	ErrGameNotTimedOut   = errors.New("game is not timed out yet")
	ErrCantCancelOwnTurn = errors.New("can't cancel the game on your own turn")
	ErrGameFinished      = errors.New("game is already finished")
	ErrGameIsNotStarted  = errors.New("game is not started")
	ErrNotAPlayer        = errors.New("not a player of this game")
	ErrInsufficientFunds = errors.New("insufficient funds")
)
