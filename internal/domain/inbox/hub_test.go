package inbox

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func dialHub(t *testing.T, hub *Hub, userID, studioID int64) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.ServeWS(conn, userID, studioID)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitConnected(t *testing.T, hub *Hub, studioID int64, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.Connected(studioID) == n }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_BroadcastIsStudioScoped(t *testing.T) {
	hub := NewHub(zap.NewNop())
	mine := dialHub(t, hub, 1, 100)
	other := dialHub(t, hub, 2, 200)
	waitConnected(t, hub, 100, 1)
	waitConnected(t, hub, 200, 1)

	hub.BroadcastToStudio(100, &Event{Type: EventNewMessage, ConversationID: "c-1"})

	var got Event
	require.NoError(t, mine.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, mine.ReadJSON(&got))
	assert.Equal(t, EventNewMessage, got.Type)
	assert.Equal(t, "c-1", got.ConversationID)

	require.NoError(t, other.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := other.ReadMessage()
	assert.Error(t, err)
}

func TestHub_TypingIsRelayed(t *testing.T) {
	hub := NewHub(zap.NewNop())
	a := dialHub(t, hub, 1, 100)
	b := dialHub(t, hub, 2, 100)
	waitConnected(t, hub, 100, 2)

	require.NoError(t, a.WriteJSON(map[string]string{"type": EventTyping, "conversation_id": "c-9"}))

	var got Event
	require.NoError(t, b.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, b.ReadJSON(&got))
	assert.Equal(t, EventTyping, got.Type)
	assert.Equal(t, "c-9", got.ConversationID)
}

func TestHub_UnregistersOnClose(t *testing.T) {
	hub := NewHub(zap.NewNop())
	conn := dialHub(t, hub, 1, 100)
	waitConnected(t, hub, 100, 1)

	require.NoError(t, conn.Close())
	waitConnected(t, hub, 100, 0)
}
