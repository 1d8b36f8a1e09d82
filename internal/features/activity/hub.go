package activity

import (
	"encoding/json"
	"sync"

	common_models "charity-admin/internal/common/models"

	"go.uber.org/zap"
)

const clientBuffer = 32

// Hub fans audit entries out to connected websocket listeners. A listener that
// falls clientBuffer messages behind is disconnected rather than slowing writers.
type Hub struct {
	mu      sync.Mutex
	clients map[chan []byte]struct{}
	logger  *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[chan []byte]struct{}),
		logger:  logger,
	}
}

// Subscribe registers a listener. The returned cancel func is idempotent.
func (h *Hub) Subscribe() (<-chan []byte, func()) {
	ch := make(chan []byte, clientBuffer)

	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() { h.drop(ch) })
	}
}

func (h *Hub) drop(ch chan []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[ch]; ok {
		delete(h.clients, ch)
		close(ch)
	}
}

func (h *Hub) Publish(entry common_models.AuditLog) {
	msg, err := json.Marshal(entry)
	if err != nil {
		h.logger.Warn("activity event not encoded", zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- msg:
		default:
			delete(h.clients, ch)
			close(ch)
			h.logger.Info("dropped slow activity listener")
		}
	}
}

func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
