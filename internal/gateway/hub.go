package gateway

import (
	"log/slog"
	"sync"

	"trivia-room-service/internal/domain"
)

const sendBuffer = 64

// Hub keeps one outbound queue per live connection and implements app.Broadcaster.
type Hub struct {
	logger *slog.Logger
	mu     sync.RWMutex
	conns  map[string]chan domain.Event
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{logger: logger, conns: make(map[string]chan domain.Event)}
}

// Register opens a queue for connectionID. The caller must invoke the returned
// function to close the queue once the connection ends.
func (h *Hub) Register(connectionID string) (<-chan domain.Event, func()) {
	ch := make(chan domain.Event, sendBuffer)
	h.mu.Lock()
	h.conns[connectionID] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			if current, ok := h.conns[connectionID]; ok && current == ch {
				delete(h.conns, connectionID)
			}
			close(ch)
			h.mu.Unlock()
		})
	}
}

// Send enqueues without blocking. A full queue means the client is not
// reading; the event is dropped and the later disconnect reconciles state.
func (h *Hub) Send(connectionID string, event domain.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ch, ok := h.conns[connectionID]
	if !ok {
		return
	}
	select {
	case ch <- event:
	default:
		h.logger.Warn("dropping event for slow connection", "connection", connectionID, "event", event.Type)
	}
}

// Connections reports how many sockets are registered.
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}
