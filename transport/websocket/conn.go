package websocket

import (
	"errors"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// Conn wraps a gorilla connection. Writes are serialized because game updates are pushed from other connections.
type Conn struct {
	*websocket.Conn
	writeMu sync.Mutex
}

func upgrade(upgrader *websocket.Upgrader, w http.ResponseWriter, r *http.Request) (*Conn, error) {
	c, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}

	return &Conn{Conn: c}, nil
}

// ReadMessage reads the next json message.
func (that *Conn) ReadMessage(m *Message) error {
	return that.Conn.ReadJSON(m)
}

// WriteMessage writes the message as json.
func (that *Conn) WriteMessage(m Message) error {
	that.writeMu.Lock()
	defer that.writeMu.Unlock()

	return that.Conn.WriteJSON(m)
}

// IsNormalClose determines if the error is an expected close from the client.
func IsNormalClose(err error) bool {
	var closeErr *websocket.CloseError
	if !errors.As(err, &closeErr) {
		return false
	}

	return !websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived)
}
