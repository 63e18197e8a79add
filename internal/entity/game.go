package entity

import (
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-escrow/internal/apperror"
)

const (
	StatusFinished = "finished"
	StatusOngoing  = "ongoing"
	StatusWaiting  = "waiting"
)

// Mark is the content of a board cell.
type Mark uint8

const (
	EmptyCell Mark = iota
	PlayerX
	PlayerO
)

const BoardSize = 9

var ErrUnknownGameStatus = errors.New("unknown game status")

func (that Mark) IsPlayable() bool {
	return that == PlayerX || that == PlayerO
}

func (that Mark) String() string {
	switch that {
	case EmptyCell:
		return "-"
	case PlayerX:
		return "X"
	case PlayerO:
		return "O"
	default:
		return fmt.Sprintf("Mark(%d)", uint8(that))
	}
}

// Game is a single wagered match. PlayerTwo and Winner stay nil until set.
type Game struct {
	ID              uint64          `json:"id"`
	PlayerOne       string          `json:"player_one"`
	PlayerTwo       *string         `json:"player_two,omitempty"`
	PlayerOneMark   Mark            `json:"player_one_mark"`
	PlayerTwoMark   Mark            `json:"player_two_mark,omitempty"`
	BetAmount       uint64          `json:"bet_amount"`
	Board           [BoardSize]Mark `json:"board"`
	IsPlayerOneTurn bool            `json:"is_player_one_turn"`
	Winner          *string         `json:"winner,omitempty"`
	LastMoveAt      uint64          `json:"last_move_at"`
	Finished        bool            `json:"finished"`
}

func (that *Game) Status() string {
	switch {
	case that.Finished:
		return StatusFinished
	case that.PlayerTwo == nil:
		return StatusWaiting
	default:
		return StatusOngoing
	}
}

func (that *Game) IsFinished() bool {
	return that.Status() == StatusFinished
}

func (that *Game) IsOngoing() bool {
	return that.Status() == StatusOngoing
}

func (that *Game) IsWaiting() bool {
	return that.Status() == StatusWaiting
}

func (that *Game) ConfirmOngoingState() error {
	switch status := that.Status(); status {
	case StatusWaiting:
		return apperror.ErrGameIsNotStarted
	case StatusFinished:
		return apperror.ErrGameFinished
	case StatusOngoing:
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownGameStatus, status)
	}
}

func (that *Game) HasPlayer(principal string) bool {
	if that.PlayerOne == principal {
		return true
	}

	return that.PlayerTwo != nil && *that.PlayerTwo == principal
}

// PlayerOnTurn - returns the principal expected to move next, empty while nobody has joined.
func (that *Game) PlayerOnTurn() string {
	if that.IsPlayerOneTurn {
		return that.PlayerOne
	}

	if that.PlayerTwo == nil {
		return ""
	}

	return *that.PlayerTwo
}

// MarkOf - returns the mark the player opened with.
func (that *Game) MarkOf(principal string) Mark {
	switch {
	case that.PlayerOne == principal:
		return that.PlayerOneMark
	case that.PlayerTwo != nil && *that.PlayerTwo == principal:
		return that.PlayerTwoMark
	default:
		return EmptyCell
	}
}

// Stakes - number of bets held in escrow for this game.
func (that *Game) Stakes() uint64 {
	if that.PlayerTwo == nil {
		return 1
	}

	return 2
}

func (that *Game) Pot() uint64 {
	return that.BetAmount * that.Stakes()
}

func (that *Game) IsBoardFull() bool {
	for _, cell := range that.Board {
		if cell == EmptyCell {
			return false
		}
	}

	return true
}

// Clone - returns a deep copy, so the original stays untouched while a transition is validated.
func (that *Game) Clone() *Game {
	clone := *that

	if that.PlayerTwo != nil {
		playerTwo := *that.PlayerTwo
		clone.PlayerTwo = &playerTwo
	}

	if that.Winner != nil {
		winner := *that.Winner
		clone.Winner = &winner
	}

	return &clone
}
