package tictactoe

import (
	"fmt"
	"math"

	"github.com/rocketscienceinc/tictactoe-escrow/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-escrow/internal/entity"
)

// Outcome is the state a game reaches after a transition.
type Outcome int

const (
	Ongoing Outcome = iota
	Win
	Draw
	Cancelled
)

// MaxBet keeps the pot representable as a signed 64-bit amount.
const MaxBet = math.MaxInt64 / 2

var WinCombos = [][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

func (that Outcome) String() string {
	switch that {
	case Win:
		return "win"
	case Draw:
		return "draw"
	case Cancelled:
		return "cancelled"
	default:
		return "ongoing"
	}
}

// NewGame - opens a game with the creator's first move. The joiner moves next.
func NewGame(id uint64, creator string, betAmount uint64, cell int, mark entity.Mark, height uint64) (*entity.Game, error) {
	if betAmount == 0 || betAmount > MaxBet {
		return nil, fmt.Errorf("%w: %d", apperror.ErrInvalidBet, betAmount)
	}

	game := &entity.Game{
		ID:            id,
		PlayerOne:     creator,
		PlayerOneMark: mark,
		BetAmount:     betAmount,
		LastMoveAt:    height,
	}

	if err := ValidateMove(game, cell, mark); err != nil {
		return nil, err
	}

	game.Board[cell] = mark

	return game, nil
}

// Join - seats the second player and records their opening move.
func Join(game *entity.Game, player string, cell int, mark entity.Mark, height uint64) error {
	if game.PlayerTwo != nil {
		return apperror.ErrGameAlreadyJoined
	}

	if game.IsFinished() {
		return apperror.ErrGameFinished
	}

	if err := ValidateMove(game, cell, mark); err != nil {
		return err
	}

	game.PlayerTwo = &player
	game.PlayerTwoMark = mark
	game.Board[cell] = mark
	game.IsPlayerOneTurn = true
	game.LastMoveAt = height

	return nil
}

// Play - applies a move by the player on turn and evaluates the board.
func Play(game *entity.Game, player string, cell int, mark entity.Mark, height uint64) (Outcome, error) {
	if err := game.ConfirmOngoingState(); err != nil {
		return Ongoing, err
	}

	if game.PlayerOnTurn() != player {
		return Ongoing, apperror.ErrNotYourTurn
	}

	if err := ValidateMove(game, cell, mark); err != nil {
		return Ongoing, err
	}

	if expected := game.MarkOf(player); mark != expected {
		return Ongoing, fmt.Errorf("%w: mark %s, expected %s", apperror.ErrInvalidMove, mark, expected)
	}

	game.Board[cell] = mark

	outcome := updateGameStatus(game, player)
	game.IsPlayerOneTurn = !game.IsPlayerOneTurn
	game.LastMoveAt = height

	return outcome, nil
}

// Cancel - lets the waiting player claim the game once the opponent stayed silent for timeout blocks.
func Cancel(game *entity.Game, player string, height, timeout uint64) error {
	if game.IsFinished() {
		return apperror.ErrGameFinished
	}

	if !game.HasPlayer(player) {
		return apperror.ErrNotAPlayer
	}

	if height < game.LastMoveAt || height-game.LastMoveAt < timeout {
		return fmt.Errorf("%w: last move at %d, now %d", apperror.ErrGameNotTimedOut, game.LastMoveAt, height)
	}

	if game.PlayerOnTurn() == player {
		return apperror.ErrCantCancelOwnTurn
	}

	game.Winner = &player
	game.Finished = true
	game.LastMoveAt = height

	return nil
}

// ValidateMove - checks the cell range, the mark and cell occupancy.
func ValidateMove(game *entity.Game, cell int, mark entity.Mark) error {
	if cell < 0 || cell >= len(game.Board) {
		return fmt.Errorf("%w: cell %d", apperror.ErrInvalidMove, cell)
	}

	if !mark.IsPlayable() {
		return fmt.Errorf("%w: mark %d", apperror.ErrInvalidMove, uint8(mark))
	}

	if game.Board[cell] != entity.EmptyCell {
		return fmt.Errorf("%w: cell %d is already occupied", apperror.ErrInvalidMove, cell)
	}

	return nil
}

// updateGameStatus - checks the board after a move by player.
func updateGameStatus(game *entity.Game, player string) Outcome {
	switch checkGameStatus(game.Board) {
	case Win:
		game.Winner = &player
		game.Finished = true
		return Win
	case Draw:
		game.Finished = true
		return Draw
	default:
		return Ongoing
	}
}

func checkGameStatus(board [entity.BoardSize]entity.Mark) Outcome {
	for _, combo := range WinCombos {
		a, b, c := board[combo[0]], board[combo[1]], board[combo[2]]
		if a != entity.EmptyCell && a == b && b == c {
			return Win
		}
	}

	for _, cell := range board {
		if cell == entity.EmptyCell {
			return Ongoing
		}
	}

	return Draw
}
