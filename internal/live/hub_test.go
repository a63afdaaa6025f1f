package live

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialHub(t *testing.T, h *Hub) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(h.HandleWS))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// syncPing força um round-trip: quando o pong chega, tudo que foi enviado
// antes já passou pelo loop de leitura do servidor
func syncPing(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(ClientMsg{Type: "ping"}))
	var pong map[string]string
	require.NoError(t, conn.ReadJSON(&pong))
	require.Equal(t, "pong", pong["type"])
}

func TestSubscribedClientReceivesBroadcast(t *testing.T) {
	h := NewHub(func(*http.Request) bool { return true })
	conn := dialHub(t, h)

	require.NoError(t, conn.WriteJSON(ClientMsg{Type: "subscribe", Topic: "trade_placed"}))
	syncPing(t, conn)

	h.Broadcast(Message{Topic: "trade_placed", Payload: json.RawMessage(`{"tradeId":"t1"}`)})

	var got Message
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "trade_placed", got.Topic)
	assert.JSONEq(t, `{"tradeId":"t1"}`, string(got.Payload))
}

func TestBroadcastSkipsOtherTopics(t *testing.T) {
	h := NewHub(func(*http.Request) bool { return true })
	conn := dialHub(t, h)

	require.NoError(t, conn.WriteJSON(ClientMsg{Type: "subscribe", Topic: "trade_placed"}))
	syncPing(t, conn)

	// tópico não assinado não deve chegar; o pong seguinte prova que nada
	// foi enfileirado antes dele
	h.Broadcast(Message{Topic: "event_updated", Payload: json.RawMessage(`{}`)})
	syncPing(t, conn)
}

// Broadcast e o pong do loop de leitura escrevem na mesma conexão; o teste
// martela os dois caminhos ao mesmo tempo e confere que nada se perde
func TestBroadcastConcurrentWithClientWrites(t *testing.T) {
	h := NewHub(func(*http.Request) bool { return true })
	conn := dialHub(t, h)

	require.NoError(t, conn.WriteJSON(ClientMsg{Type: "subscribe", Topic: "trade_placed"}))
	syncPing(t, conn)

	// Segundo cliente entra e sai da assinatura o tempo todo, mutando o mesmo
	// conjunto de destinos que o broadcast percorre
	conn2 := dialHub(t, h)
	go func() {
		for {
			if _, _, err := conn2.ReadMessage(); err != nil {
				return
			}
		}
	}()

	const total = 500
	done := make(chan struct{})
	churnDone := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < total; i++ {
			h.Broadcast(Message{Topic: "trade_placed", Payload: json.RawMessage(`{}`)})
		}
	}()
	go func() {
		defer close(churnDone)
		for i := 0; i < total; i++ {
			_ = conn2.WriteJSON(ClientMsg{Type: "subscribe", Topic: "trade_placed"})
			_ = conn2.WriteJSON(ClientMsg{Type: "unsubscribe", Topic: "trade_placed"})
		}
	}()

	received := 0
	for received < total {
		require.NoError(t, conn.WriteJSON(ClientMsg{Type: "ping"}))
		for {
			var raw map[string]json.RawMessage
			require.NoError(t, conn.ReadJSON(&raw))
			if _, ok := raw["type"]; ok {
				break // pong; o resto são broadcasts
			}
			received++
		}
	}
	<-done
	<-churnDone
	assert.Equal(t, total, received)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	h := NewHub(func(*http.Request) bool { return true })
	conn := dialHub(t, h)

	require.NoError(t, conn.WriteJSON(ClientMsg{Type: "subscribe", Topic: "trade_settled"}))
	require.NoError(t, conn.WriteJSON(ClientMsg{Type: "unsubscribe", Topic: "trade_settled"}))
	syncPing(t, conn)

	h.Broadcast(Message{Topic: "trade_settled", Payload: json.RawMessage(`{}`)})
	syncPing(t, conn)
}
