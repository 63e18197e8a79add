package application

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/tictactoe-escrow/internal/chain"
	"github.com/rocketscienceinc/tictactoe-escrow/internal/config"
	"github.com/rocketscienceinc/tictactoe-escrow/internal/events"
	"github.com/rocketscienceinc/tictactoe-escrow/internal/ledger"
	"github.com/rocketscienceinc/tictactoe-escrow/internal/metrics"
	"github.com/rocketscienceinc/tictactoe-escrow/internal/repository"
	"github.com/rocketscienceinc/tictactoe-escrow/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-escrow/internal/usecase"
	"github.com/rocketscienceinc/tictactoe-escrow/transport/rest"
	"github.com/rocketscienceinc/tictactoe-escrow/transport/websocket"
)

var (
	ErrAddrNotFound   = errors.New("redis address string is empty")
	ErrUnknownBackend = errors.New("unknown backend")
)

// wallet - what both the engine and the transports need from the ledger.
type wallet interface {
	Deposit(ctx context.Context, principal string, amount uint64) (uint64, error)
	Balance(ctx context.Context, principal string) (uint64, error)
	Debit(ctx context.Context, principal string, amount uint64) error
	Credit(ctx context.Context, principal string, amount uint64) error
}

type heightSource interface {
	CurrentHeight(ctx context.Context) (uint64, error)
	Advance(ctx context.Context, n uint64) (uint64, error)
}

// dependencies - everything RunApp opened and must close on the way out.
type dependencies struct {
	redis   *redis.Client
	db      *sql.DB
	closers []io.Closer
}

func (that *dependencies) Close(log *slog.Logger) {
	for _, closer := range that.closers {
		if err := closer.Close(); err != nil {
			log.Error("could not close dependency", "error", err)
		}
	}
}

// health - pings the external stores that are in use.
func (that *dependencies) health(ctx context.Context) error {
	var errs []error

	if that.redis != nil {
		if err := that.redis.Ping(ctx).Err(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}

	if that.db != nil {
		if err := that.db.PingContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("postgres: %w", err))
		}
	}

	return errors.Join(errs...)
}

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	deps := &dependencies{}
	defer deps.Close(log)

	if err := connect(ctx, conf, deps); err != nil {
		return err
	}

	gameRepo, err := newGameRepository(conf, deps)
	if err != nil {
		return err
	}

	wallets, err := newLedger(ctx, conf, deps)
	if err != nil {
		return err
	}

	height, err := newChain(ctx, conf, deps)
	if err != nil {
		return err
	}

	sink, err := newEventSink(logger, conf, deps)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(registry)

	settings := usecase.Settings{
		TimeoutBlocks: conf.Game.TimeoutBlocks,
		DrawPolicy:    usecase.DrawPolicy(conf.Game.DrawPolicy),
	}

	engine := usecase.NewGameEngine(logger, settings, gameRepo, wallets, height, sink, collector)

	go chain.NewMiner(logger, height, conf.Chain.BlockInterval).Run(ctx)

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		restServer := rest.New(logger, engine, wallets, collector.Handler(), deps.health)
		if httpErr := restServer.Start(ctx, conf.HTTPPort); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run Websocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		wsServer := websocket.New(logger, engine, wallets)
		if wsErr := wsServer.Start(ctx, conf.SocketPort); wsErr != nil {
			log.Error("WebSocket server error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err = <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}

// connect - opens the stores the configured backends need.
func connect(ctx context.Context, conf *config.Config, deps *dependencies) error {
	if conf.Storage == config.BackendRedis {
		redisAddrString := conf.Redis.GetRedisAddr()
		if redisAddrString == "" {
			return ErrAddrNotFound
		}

		redisStorage, err := storage.New(ctx, redisAddrString)
		if err != nil {
			return fmt.Errorf("could not connect to redis storage: %w", err)
		}

		deps.redis = redisStorage
		deps.closers = append(deps.closers, redisStorage)
	}

	if conf.Ledger == config.BackendPostgres {
		db, err := storage.NewPostgres(ctx, conf.Postgres.DSN)
		if err != nil {
			return fmt.Errorf("could not connect to postgres: %w", err)
		}

		deps.db = db
		deps.closers = append(deps.closers, db)
	}

	return nil
}

func newGameRepository(conf *config.Config, deps *dependencies) (repository.GameRepository, error) {
	switch conf.Storage {
	case config.BackendRedis:
		return repository.NewGameRepository(deps.redis), nil
	case config.BackendMemory:
		return repository.NewMemoryGameRepository(), nil
	default:
		return nil, fmt.Errorf("%w: storage %q", ErrUnknownBackend, conf.Storage)
	}
}

func newLedger(ctx context.Context, conf *config.Config, deps *dependencies) (wallet, error) {
	switch conf.Ledger {
	case config.BackendPostgres:
		pg := ledger.NewPostgres(deps.db)
		if err := pg.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("could not migrate ledger: %w", err)
		}

		return pg, nil
	case config.BackendMemory:
		return ledger.NewMemory(), nil
	default:
		return nil, fmt.Errorf("%w: ledger %q", ErrUnknownBackend, conf.Ledger)
	}
}

// newChain - the block height is shared through redis when games are, so restarts keep counting.
func newChain(ctx context.Context, conf *config.Config, deps *dependencies) (heightSource, error) {
	if deps.redis == nil {
		return chain.NewManualClock(conf.Chain.StartHeight), nil
	}

	height := chain.NewRedisHeight(deps.redis)
	if err := height.Init(ctx, conf.Chain.StartHeight); err != nil {
		return nil, fmt.Errorf("could not init block height: %w", err)
	}

	return height, nil
}

func newEventSink(logger *slog.Logger, conf *config.Config, deps *dependencies) (events.Sink, error) {
	logSink := events.NewLogSink(logger)

	switch conf.Events {
	case config.BackendLog:
		return logSink, nil
	case config.BackendKafka:
		writer := events.NewKafkaWriter(conf.Kafka.Brokers, conf.Kafka.Topic)
		deps.closers = append(deps.closers, writer)

		return events.Fanout{logSink, events.NewKafkaSink(writer)}, nil
	default:
		return nil, fmt.Errorf("%w: events %q", ErrUnknownBackend, conf.Events)
	}
}
