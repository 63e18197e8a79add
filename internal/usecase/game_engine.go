package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rocketscienceinc/tictactoe-escrow/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-escrow/internal/entity"
	"github.com/rocketscienceinc/tictactoe-escrow/internal/tictactoe"
)

const DefaultTimeoutBlocks = 144

// DrawPolicy decides what happens to the pot when the board fills up without a line.
type DrawPolicy string

const (
	// DrawRetain leaves both stakes in escrow.
	DrawRetain DrawPolicy = "retain"
	// DrawRefund returns each player's stake.
	DrawRefund DrawPolicy = "refund"
)

type Settings struct {
	TimeoutBlocks uint64
	DrawPolicy    DrawPolicy
}

type gameRepo interface {
	NextID(ctx context.Context) (uint64, error)
	Save(ctx context.Context, game *entity.Game) error
	GetByID(ctx context.Context, id uint64) (*entity.Game, error)
}

type escrow interface {
	Debit(ctx context.Context, principal string, amount uint64) error
	Credit(ctx context.Context, principal string, amount uint64) error
}

type clock interface {
	CurrentHeight(ctx context.Context) (uint64, error)
}

type eventSink interface {
	Publish(ctx context.Context, events ...entity.Event) error
}

type observer interface {
	Observe(operation string, started time.Time, err error)
	Transfer(kind string, amount uint64)
}

type transfer struct {
	kind      string
	principal string
	amount    uint64
}

// GameEngine applies create, join, play and cancel one at a time against the stored games and escrow.
type GameEngine struct {
	mu sync.Mutex

	logger   *slog.Logger
	settings Settings

	gameRepo gameRepo
	escrow   escrow
	clock    clock
	events   eventSink
	metrics  observer
}

func NewGameEngine(
	logger *slog.Logger,
	settings Settings,
	gameRepo gameRepo,
	escrow escrow,
	clock clock,
	events eventSink,
	metrics observer,
) *GameEngine {
	if settings.TimeoutBlocks == 0 {
		settings.TimeoutBlocks = DefaultTimeoutBlocks
	}

	if settings.DrawPolicy == "" {
		settings.DrawPolicy = DrawRetain
	}

	return &GameEngine{
		logger:   logger.With("component", "engine"),
		settings: settings,

		gameRepo: gameRepo,
		escrow:   escrow,
		clock:    clock,
		events:   events,
		metrics:  metrics,
	}
}

// Create - escrows the creator's bet and opens a game with their first move.
func (that *GameEngine) Create(ctx context.Context, caller string, betAmount uint64, cell int, mark entity.Mark) (game *entity.Game, err error) {
	defer func(started time.Time) { that.observe("create", started, err) }(time.Now())

	that.mu.Lock()
	defer that.mu.Unlock()

	height, err := that.currentHeight(ctx)
	if err != nil {
		return nil, err
	}

	// the id is assigned once the stake is in escrow, so a rejected create consumes none
	game, err = tictactoe.NewGame(0, caller, betAmount, cell, mark, height)
	if err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	if err = that.escrow.Debit(ctx, caller, betAmount); err != nil {
		return nil, fmt.Errorf("failed to escrow bet: %w", err)
	}

	if game.ID, err = that.gameRepo.NextID(ctx); err == nil {
		err = that.gameRepo.Save(ctx, game)
	}

	if err != nil {
		that.returnStake(ctx, caller, betAmount)
		return nil, fmt.Errorf("failed to save game: %w", err)
	}

	that.metrics.Transfer("debit", betAmount)
	that.publish(ctx,
		entity.NewEvent(entity.EventGameCreated, game, caller, height).WithAmount(betAmount).WithMove(cell, mark),
		entity.NewEvent(entity.EventEscrowDebit, game, caller, height).WithAmount(betAmount),
	)

	return game, nil
}

// Join - escrows the second stake and records the joiner's opening move.
func (that *GameEngine) Join(ctx context.Context, caller string, id uint64, cell int, mark entity.Mark) (game *entity.Game, err error) {
	defer func(started time.Time) { that.observe("join", started, err) }(time.Now())

	that.mu.Lock()
	defer that.mu.Unlock()

	current, err := that.getGameByID(ctx, id)
	if err != nil {
		return nil, err
	}

	height, err := that.currentHeight(ctx)
	if err != nil {
		return nil, err
	}

	game = current.Clone()
	if err = tictactoe.Join(game, caller, cell, mark, height); err != nil {
		return nil, fmt.Errorf("failed to join game %d: %w", id, err)
	}

	if err = that.escrow.Debit(ctx, caller, game.BetAmount); err != nil {
		return nil, fmt.Errorf("failed to escrow bet: %w", err)
	}

	if err = that.gameRepo.Save(ctx, game); err != nil {
		that.returnStake(ctx, caller, game.BetAmount)
		return nil, fmt.Errorf("failed to update game: %w", err)
	}

	that.metrics.Transfer("debit", game.BetAmount)
	that.publish(ctx,
		entity.NewEvent(entity.EventEscrowDebit, game, caller, height).WithAmount(game.BetAmount),
		entity.NewEvent(entity.EventGameJoined, game, caller, height),
		entity.NewEvent(entity.EventMove, game, caller, height).WithMove(cell, mark),
	)

	return game, nil
}

// Play - applies a move and settles the pot when it ends the game.
func (that *GameEngine) Play(ctx context.Context, caller string, id uint64, cell int, mark entity.Mark) (game *entity.Game, err error) {
	defer func(started time.Time) { that.observe("play", started, err) }(time.Now())

	that.mu.Lock()
	defer that.mu.Unlock()

	current, err := that.getGameByID(ctx, id)
	if err != nil {
		return nil, err
	}

	height, err := that.currentHeight(ctx)
	if err != nil {
		return nil, err
	}

	game = current.Clone()

	outcome, err := tictactoe.Play(game, caller, cell, mark, height)
	if err != nil {
		return nil, fmt.Errorf("failed to play in game %d: %w", id, err)
	}

	events := []entity.Event{
		entity.NewEvent(entity.EventMove, game, caller, height).WithMove(cell, mark),
	}

	var transfers []transfer

	switch outcome {
	case tictactoe.Win:
		transfers = append(transfers, transfer{kind: "payout", principal: caller, amount: game.Pot()})
		events = append(events,
			entity.NewEvent(entity.EventGameWon, game, caller, height).WithAmount(game.Pot()),
			entity.NewEvent(entity.EventPayout, game, caller, height).WithAmount(game.Pot()),
		)
	case tictactoe.Draw:
		events = append(events, entity.NewEvent(entity.EventGameDraw, game, caller, height).WithAmount(game.Pot()))

		if that.settings.DrawPolicy == DrawRefund {
			for _, player := range []string{game.PlayerOne, *game.PlayerTwo} {
				transfers = append(transfers, transfer{kind: "refund", principal: player, amount: game.BetAmount})
				events = append(events, entity.NewEvent(entity.EventRefund, game, player, height).WithAmount(game.BetAmount))
			}
		}
	}

	if err = that.commit(ctx, current, game, transfers); err != nil {
		return nil, err
	}

	that.logger.Debug("move accepted", "gameID", id, "player", caller, "cell", cell, "outcome", outcome.String())
	that.publish(ctx, events...)

	return game, nil
}

// Cancel - awards the pot to the waiting player once the opponent let the game time out.
func (that *GameEngine) Cancel(ctx context.Context, caller string, id uint64) (game *entity.Game, err error) {
	defer func(started time.Time) { that.observe("cancel", started, err) }(time.Now())

	that.mu.Lock()
	defer that.mu.Unlock()

	current, err := that.getGameByID(ctx, id)
	if err != nil {
		return nil, err
	}

	height, err := that.currentHeight(ctx)
	if err != nil {
		return nil, err
	}

	game = current.Clone()
	if err = tictactoe.Cancel(game, caller, height, that.settings.TimeoutBlocks); err != nil {
		return nil, fmt.Errorf("failed to cancel game %d: %w", id, err)
	}

	pot := game.Pot()
	if err = that.commit(ctx, current, game, []transfer{{kind: "payout", principal: caller, amount: pot}}); err != nil {
		return nil, err
	}

	that.publish(ctx,
		entity.NewEvent(entity.EventGameCancelled, game, caller, height),
		entity.NewEvent(entity.EventPayout, game, caller, height).WithAmount(pot),
	)

	return game, nil
}

// Get - returns the stored game.
func (that *GameEngine) Get(ctx context.Context, id uint64) (*entity.Game, error) {
	return that.getGameByID(ctx, id)
}

func (that *GameEngine) getGameByID(ctx context.Context, id uint64) (*entity.Game, error) {
	game, err := that.gameRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	return game, nil
}

func (that *GameEngine) currentHeight(ctx context.Context) (uint64, error) {
	height, err := that.clock.CurrentHeight(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get block height: %w", err)
	}

	return height, nil
}

// commit - stores next and pays out. If a payout fails, the credited amounts are taken back and previous is restored.
func (that *GameEngine) commit(ctx context.Context, previous, next *entity.Game, transfers []transfer) error {
	log := that.logger.With("method", "commit", "gameID", next.ID)

	if err := that.gameRepo.Save(ctx, next); err != nil {
		return fmt.Errorf("failed to update game: %w", err)
	}

	for i, t := range transfers {
		if err := that.escrow.Credit(ctx, t.principal, t.amount); err != nil {
			for _, done := range transfers[:i] {
				if debitErr := that.escrow.Debit(ctx, done.principal, done.amount); debitErr != nil {
					log.Error("failed to take back payout", "player", done.principal, "amount", done.amount, "error", debitErr)
				}
			}

			if restoreErr := that.gameRepo.Save(ctx, previous); restoreErr != nil {
				log.Error("failed to restore game", "error", restoreErr)
			}

			return fmt.Errorf("failed to pay %d to %s: %w", t.amount, t.principal, err)
		}
	}

	for _, t := range transfers {
		that.metrics.Transfer(t.kind, t.amount)
	}

	return nil
}

// returnStake - gives back a stake whose game could not be stored.
func (that *GameEngine) returnStake(ctx context.Context, principal string, amount uint64) {
	if err := that.escrow.Credit(ctx, principal, amount); err != nil {
		that.logger.Error("failed to return stake", "player", principal, "amount", amount, "error", err)
	}
}

func (that *GameEngine) publish(ctx context.Context, events ...entity.Event) {
	if err := that.events.Publish(ctx, events...); err != nil {
		that.logger.Warn("failed to publish events", "count", len(events), "error", err)
	}
}

func (that *GameEngine) observe(operation string, started time.Time, err error) {
	that.metrics.Observe(operation, started, err)

	if err == nil {
		return
	}

	log := that.logger.With("method", operation)

	if apperror.IsRuleViolation(err) {
		log.Debug("request rejected", "code", apperror.Code(err), "error", err)
		return
	}

	log.Error("operation failed", "error", err)
}
