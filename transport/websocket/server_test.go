package websocket

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-escrow/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-escrow/internal/chain"
	"github.com/rocketscienceinc/tictactoe-escrow/internal/entity"
	"github.com/rocketscienceinc/tictactoe-escrow/internal/events"
	"github.com/rocketscienceinc/tictactoe-escrow/internal/ledger"
	"github.com/rocketscienceinc/tictactoe-escrow/internal/metrics"
	"github.com/rocketscienceinc/tictactoe-escrow/internal/repository"
	"github.com/rocketscienceinc/tictactoe-escrow/internal/usecase"
)

const readTimeout = 2 * time.Second

type testClient struct {
	t    *testing.T
	conn *websocket.Conn
}

func newTestServer(t *testing.T) (string, *ledger.Memory) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	wallets := ledger.NewMemory()
	engine := usecase.NewGameEngine(
		logger,
		usecase.Settings{},
		repository.NewMemoryGameRepository(),
		wallets,
		chain.NewManualClock(1),
		events.NewRecorder(),
		metrics.NewCollector(prometheus.NewRegistry()),
	)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	ts := httptest.NewServer(New(logger, engine, wallets).Handler(ctx))
	t.Cleanup(ts.Close)

	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws", wallets
}

func dial(t *testing.T, url string) *testClient {
	t.Helper()

	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })

	return &testClient{t: t, conn: conn}
}

func (that *testClient) send(action string, payload map[string]any) {
	that.t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(that.t, err)
	require.NoError(that.t, that.conn.WriteJSON(Message{Action: action, Payload: body}))
}

func (that *testClient) receive() (string, ResponsePayload) {
	that.t.Helper()

	require.NoError(that.t, that.conn.SetReadDeadline(time.Now().Add(readTimeout)))

	var msg Message
	require.NoError(that.t, that.conn.ReadJSON(&msg))

	var payload ResponsePayload
	require.NoError(that.t, json.Unmarshal(msg.Payload, &payload))

	return msg.Action, payload
}

func deposit(t *testing.T, wallets *ledger.Memory, principal string, amount uint64) {
	t.Helper()

	_, err := wallets.Deposit(context.Background(), principal, amount)
	require.NoError(t, err)
}

func TestServer_CreateAndJoin(t *testing.T) {
	// Given: two funded players connected
	url, wallets := newTestServer(t)
	deposit(t, wallets, "alice", 100)
	deposit(t, wallets, "bob", 100)

	alice := dial(t, url)
	bob := dial(t, url)

	// When: alice opens a game
	alice.send(actionCreate, map[string]any{"player": "alice", "bet_amount": 40, "cell": 4, "mark": entity.PlayerX})

	// Then: she gets the new game back
	action, resp := alice.receive()
	assert.Equal(t, actionCreate, action)
	require.NotNil(t, resp.Game)
	assert.Equal(t, uint64(0), resp.Game.ID)
	assert.Equal(t, entity.PlayerX, resp.Game.Board[4])

	// When: bob joins it
	bob.send(actionJoin, map[string]any{"player": "bob", "game_id": 0, "cell": 0, "mark": entity.PlayerO})

	// Then: both players see the joined game
	action, resp = bob.receive()
	assert.Equal(t, actionJoin, action)
	require.NotNil(t, resp.Game.PlayerTwo)
	assert.Equal(t, "bob", *resp.Game.PlayerTwo)

	action, resp = alice.receive()
	assert.Equal(t, actionJoin, action)
	assert.Equal(t, entity.PlayerO, resp.Game.Board[0])

	// And: bob's balance reflects the escrowed stake
	bob.send(actionBalance, map[string]any{"player": "bob"})
	action, resp = bob.receive()
	assert.Equal(t, actionBalance, action)
	require.NotNil(t, resp.Balance)
	assert.Equal(t, uint64(60), *resp.Balance)
}

func TestServer_Errors(t *testing.T) {
	t.Run("Rule violations carry their code", func(t *testing.T) {
		url, _ := newTestServer(t)
		client := dial(t, url)

		client.send(actionCreate, map[string]any{"player": "alice", "bet_amount": 0, "cell": 4, "mark": entity.PlayerX})

		action, resp := client.receive()
		assert.Equal(t, actionCreate, action)
		assert.Equal(t, apperror.Code(apperror.ErrInvalidBet), resp.Code)
		assert.Nil(t, resp.Game)
	})

	t.Run("Unknown game", func(t *testing.T) {
		url, _ := newTestServer(t)
		client := dial(t, url)

		client.send(actionGet, map[string]any{"player": "alice", "game_id": 42})

		_, resp := client.receive()
		assert.Equal(t, 102, resp.Code)
	})

	t.Run("Missing cell is an invalid move", func(t *testing.T) {
		url, _ := newTestServer(t)
		client := dial(t, url)

		client.send(actionCreate, map[string]any{"player": "alice", "bet_amount": 10, "mark": entity.PlayerX})

		_, resp := client.receive()
		assert.Equal(t, 101, resp.Code)
	})

	t.Run("Missing player is a bad request", func(t *testing.T) {
		url, _ := newTestServer(t)
		client := dial(t, url)

		client.send(actionGet, map[string]any{"game_id": 1})

		_, resp := client.receive()
		assert.Equal(t, 400, resp.Code)
	})

	t.Run("Unknown action", func(t *testing.T) {
		url, _ := newTestServer(t)
		client := dial(t, url)

		client.send("game:surrender", map[string]any{"player": "alice"})

		action, resp := client.receive()
		assert.Equal(t, actionError, action)
		assert.Equal(t, 400, resp.Code)
	})

	t.Run("Connection stays usable after an error", func(t *testing.T) {
		url, wallets := newTestServer(t)
		deposit(t, wallets, "alice", 10)
		client := dial(t, url)

		client.send(actionCreate, map[string]any{"player": "alice", "bet_amount": 50, "cell": 4, "mark": entity.PlayerX})
		_, resp := client.receive()
		assert.Equal(t, 110, resp.Code)

		client.send(actionCreate, map[string]any{"player": "alice", "bet_amount": 10, "cell": 4, "mark": entity.PlayerX})
		_, resp = client.receive()
		require.NotNil(t, resp.Game)
		assert.Zero(t, resp.Code)
	})
}
