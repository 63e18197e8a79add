package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-escrow/internal/entity"
)

const shutdownTimeout = 5 * time.Second

type gameEngine interface {
	Create(ctx context.Context, caller string, betAmount uint64, cell int, mark entity.Mark) (*entity.Game, error)
	Join(ctx context.Context, caller string, id uint64, cell int, mark entity.Mark) (*entity.Game, error)
	Play(ctx context.Context, caller string, id uint64, cell int, mark entity.Mark) (*entity.Game, error)
	Cancel(ctx context.Context, caller string, id uint64) (*entity.Game, error)
	Get(ctx context.Context, id uint64) (*entity.Game, error)
}

type balances interface {
	Balance(ctx context.Context, principal string) (uint64, error)
}

type handlerFunc func(ctx context.Context, conn *Conn, payload *Payload) error

type Server struct {
	logger   *slog.Logger
	engine   gameEngine
	balances balances
	upgrader *websocket.Upgrader

	handlers map[string]handlerFunc

	connectionsMutex sync.RWMutex
	connections      map[string]*Conn
}

func New(logger *slog.Logger, engine gameEngine, balances balances) *Server {
	server := &Server{
		logger:   logger.With("component", "websocket"),
		engine:   engine,
		balances: balances,
		upgrader: &websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},

		handlers:    make(map[string]handlerFunc),
		connections: make(map[string]*Conn),
	}

	server.handlers[actionCreate] = server.handleCreate
	server.handlers[actionJoin] = server.handleJoin
	server.handlers[actionPlay] = server.handlePlay
	server.handlers[actionCancel] = server.handleCancel
	server.handlers[actionGet] = server.handleGet
	server.handlers[actionBalance] = server.handleBalance

	return server
}

func (that *Server) Handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.upgradeToWebSocket(ctx, w, r)
	})

	return mux
}

// Start - starts WebSocket server and stops it when ctx is done.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           that.Handler(ctx),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shut down WebSocket server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// upgradeToWebSocket - upgrades the connection and serves it until the client leaves.
func (that *Server) upgradeToWebSocket(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "upgradeToWebSocket")

	conn, err := upgrade(that.upgrader, w, r)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	defer conn.Close()
	defer that.handleDisconnect(conn)

	log.Info("WebSocket connection established", "remote", r.RemoteAddr)

	if err = that.handleMessages(ctx, conn); err != nil {
		log.Error("error handling messages", "error", err)
	}
}

// handleMessages - processes messages from the client.
func (that *Server) handleMessages(ctx context.Context, conn *Conn) error {
	log := that.logger.With("method", "handleMessages")

	for {
		var message Message
		if err := conn.ReadMessage(&message); err != nil {
			if IsNormalClose(err) || ctx.Err() != nil {
				return nil
			}

			return fmt.Errorf("failed to read message: %w", err)
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			log.Warn("unknown action", "action", message.Action)

			if err := that.sendErrorResponse(conn, actionError, errUnknownAction, http.StatusBadRequest); err != nil {
				return err
			}

			continue
		}

		payload, err := that.decodePayload(&message)
		if err != nil {
			if err = that.sendErrorResponse(conn, message.Action, err, http.StatusBadRequest); err != nil {
				return err
			}

			continue
		}

		that.register(payload.Player, conn)

		if err = handler(ctx, conn, payload); err != nil {
			return fmt.Errorf("failed to process %s: %w", message.Action, err)
		}
	}
}

// register - remembers the latest connection of a player, so opponents' moves reach them.
func (that *Server) register(player string, conn *Conn) {
	that.connectionsMutex.Lock()
	defer that.connectionsMutex.Unlock()

	that.connections[player] = conn
}

func (that *Server) handleDisconnect(conn *Conn) {
	that.connectionsMutex.Lock()
	defer that.connectionsMutex.Unlock()

	for player, connection := range that.connections {
		if connection == conn {
			delete(that.connections, player)
			that.logger.Info("player disconnected", "player", player)
		}
	}
}
