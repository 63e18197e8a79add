package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/rocketscienceinc/tictactoe-escrow/internal/entity"
)

const shutdownTimeout = 5 * time.Second

type gameReader interface {
	Get(ctx context.Context, id uint64) (*entity.Game, error)
}

type wallets interface {
	Balance(ctx context.Context, principal string) (uint64, error)
	Deposit(ctx context.Context, principal string, amount uint64) (uint64, error)
}

// HealthFunc reports whether the backing stores are reachable.
type HealthFunc func(ctx context.Context) error

type Server struct {
	logger  *slog.Logger
	games   gameReader
	wallets wallets
	metrics http.Handler
	health  HealthFunc
}

func New(logger *slog.Logger, games gameReader, wallets wallets, metrics http.Handler, health HealthFunc) *Server {
	return &Server{
		logger:  logger.With("component", "rest"),
		games:   games,
		wallets: wallets,
		metrics: metrics,
		health:  health,
	}
}

func (that *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ping", pingHandler)
	mux.HandleFunc("GET /healthz", that.healthHandler)
	mux.HandleFunc("GET /games/{id}", that.getGameHandler)
	mux.HandleFunc("GET /wallets/{principal}", that.getBalanceHandler)
	mux.HandleFunc("POST /wallets/{principal}/deposit", that.depositHandler)
	mux.Handle("GET /metrics", that.metrics)

	return mux
}

// Start - serves until ctx is done.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      that.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shut down HTTP server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
