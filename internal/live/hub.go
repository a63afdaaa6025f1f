package live

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// ClientMsg representa uma mensagem recebida do cliente WebSocket
// Type: subscribe | unsubscribe | ping
// Topic: requerido em subscribe/unsubscribe (ex: "event_updated")
type ClientMsg struct {
	Type  string `json:"type"`
	Topic string `json:"topic"`
}

// client embrulha a conexão com um mutex de escrita: o broadcast e o pong do
// loop de leitura escrevem na mesma conexão, e gorilla/websocket só admite um
// escritor por vez
type client struct {
	wmu  sync.Mutex
	conn *websocket.Conn
}

func (c *client) write(data []byte) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Hub gerencia conexões WebSocket e assinaturas por tópico
// Entrega é at-most-once: cliente desconectado perde a mensagem e deve
// ressincronizar via REST ao reconectar
type Hub struct {
	upgrader websocket.Upgrader
	mu       sync.RWMutex
	// topic -> set of clients
	subs map[string]map[*client]struct{}

	OnConnect func(delta int)           // métricas: +1 ao conectar, -1 ao desconectar
	OnDeliver func(topic string, n int) // métricas: mensagens entregues por tópico
}

// NewHub cria uma instância de Hub com política customizada de origem (CORS)
func NewHub(allowOrigin func(r *http.Request) bool) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{CheckOrigin: allowOrigin},
		subs:     make(map[string]map[*client]struct{}),
	}
}

// HandleWS gerencia o ciclo de vida de uma conexão WebSocket
// Cada cliente pode assinar múltiplos tópicos
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	if h.OnConnect != nil {
		h.OnConnect(1)
		defer h.OnConnect(-1)
	}

	cl := &client{conn: conn}
	pong, _ := json.Marshal(map[string]string{"type": "pong"})

	for {
		var msg ClientMsg
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		switch msg.Type {
		case "subscribe":
			h.mu.Lock()
			if _, ok := h.subs[msg.Topic]; !ok {
				h.subs[msg.Topic] = make(map[*client]struct{})
			}
			h.subs[msg.Topic][cl] = struct{}{}
			h.mu.Unlock()
		case "unsubscribe":
			h.mu.Lock()
			if m, ok := h.subs[msg.Topic]; ok {
				delete(m, cl)
				if len(m) == 0 {
					delete(h.subs, msg.Topic)
				}
			}
			h.mu.Unlock()
		case "ping":
			_ = cl.write(pong)
		}
	}
	// Remove o cliente de todas as assinaturas ao desconectar
	h.mu.Lock()
	for _, set := range h.subs {
		delete(set, cl)
	}
	h.mu.Unlock()
}

// Broadcast envia a mensagem para todos os clientes assinando o tópico dela
//
// Os destinos são copiados pra uma slice antes de soltar o lock: iterar o mapa
// vivo fora dele correria contra subscribe/unsubscribe no loop de leitura
func (h *Hub) Broadcast(msg Message) {
	h.mu.RLock()
	targets := make([]*client, 0, len(h.subs[msg.Topic]))
	for c := range h.subs[msg.Topic] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()
	if len(targets) == 0 {
		return
	}

	b, _ := json.Marshal(msg)
	for _, c := range targets {
		_ = c.write(b)
	}
	if h.OnDeliver != nil {
		h.OnDeliver(msg.Topic, len(targets))
	}
}
