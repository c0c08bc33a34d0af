package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/radieske/auraflow/pkg/contracts/events"
)

// ClientMsg é a mensagem enviada pelo cliente WebSocket
// Type: subscribe | unsubscribe | ping
// Topic: prefixo do tipo ("bet", "timer", ...) ou "*"
type ClientMsg struct {
	Type  string `json:"type"`
	Topic string `json:"topic"`
}

const allTopics = "*"

// DefaultWriteWait limita cada escrita; cliente que não lê é desconectado
const DefaultWriteWait = 2 * time.Second

type wsClient struct {
	conn   *websocket.Conn
	wmu    sync.Mutex // gorilla aceita um escritor por vez
	topics map[string]struct{}
}

func (c *wsClient) write(b []byte, wait time.Duration) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(wait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, b)
}

func (c *wsClient) writeJSON(v any, wait time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.write(b, wait)
}

// Hub gerencia as conexões WebSocket e as assinaturas por tópico.
// Uma conexão nova recebe todos os tópicos até mandar um subscribe específico.
type Hub struct {
	upgrader  websocket.Upgrader
	log       *zap.Logger
	writeWait time.Duration
	mu        sync.RWMutex
	clients   map[*wsClient]struct{}
}

// NewHub cria o Hub com a política de origem informada (nil aceita qualquer origem)
func NewHub(allowOrigin func(r *http.Request) bool, log *zap.Logger) *Hub {
	if allowOrigin == nil {
		allowOrigin = func(*http.Request) bool { return true }
	}
	return &Hub{
		upgrader:  websocket.Upgrader{CheckOrigin: allowOrigin},
		log:       log,
		writeWait: DefaultWriteWait,
		clients:   make(map[*wsClient]struct{}),
	}
}

// HandleWS mantém o ciclo de vida de uma conexão
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	c := &wsClient{conn: conn, topics: map[string]struct{}{allTopics: {}}}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	for {
		var msg ClientMsg
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		switch msg.Type {
		case "subscribe":
			h.mu.Lock()
			// primeiro subscribe específico troca o "tudo" pelo tópico pedido
			if _, all := c.topics[allTopics]; all && msg.Topic != allTopics {
				delete(c.topics, allTopics)
			}
			c.topics[msg.Topic] = struct{}{}
			h.mu.Unlock()
		case "unsubscribe":
			h.mu.Lock()
			delete(c.topics, msg.Topic)
			h.mu.Unlock()
		case "ping":
			if err := c.writeJSON(map[string]string{"type": "pong"}, h.writeWait); err != nil {
				h.drop(c)
			}
		}
	}

	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

// Publish envia a notificação a todos os clientes inscritos no tópico dela
func (h *Hub) Publish(_ context.Context, n events.Notification) error {
	topic := n.Topic()

	h.mu.RLock()
	targets := make([]*wsClient, 0, len(h.clients))
	for c := range h.clients {
		_, all := c.topics[allTopics]
		_, one := c.topics[topic]
		if all || one {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()
	if len(targets) == 0 {
		return nil
	}

	b, err := json.Marshal(n)
	if err != nil {
		return err
	}
	for _, c := range targets {
		if err := c.write(b, h.writeWait); err != nil {
			h.log.Debug("ws write failed, dropping client", zap.Error(err))
			h.drop(c)
		}
	}
	return nil
}

// drop remove o cliente e fecha a conexão; o loop de leitura dele termina em seguida
func (h *Hub) drop(c *wsClient) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	_ = c.conn.Close()
}

// Clients retorna quantas conexões estão abertas
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
