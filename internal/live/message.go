package live

import "encoding/json"

// Message é o envelope que circula no canal Redis Pub/Sub e chega ao WebSocket
// Topic identifica a origem (event_updated | trade_placed | trade_settled)
type Message struct {
	Topic   string          `json:"topic"`
	Payload json.RawMessage `json:"payload"`
}
