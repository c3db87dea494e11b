package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"trivia-room-service/internal/domain"
	"trivia-room-service/internal/gateway"
)

const maxMessageBytes = 64 << 10

type WSHandler struct {
	gateway  *gateway.Gateway
	hub      *gateway.Hub
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(gw *gateway.Gateway, hub *gateway.Hub, logger *slog.Logger) *WSHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WSHandler{
		gateway: gw,
		hub:     hub,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ServeWS upgrades the request and runs one connection until the client goes away.
// Every socket gets a fresh connection id; all room state is keyed by it.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxMessageBytes)

	connectionID := uuid.NewString()
	logger := h.logger.With("connection", connectionID)
	events, unregister := h.hub.Register(connectionID)
	writerDone := make(chan struct{})

	// Single writer: gorilla connections allow one concurrent writer only.
	go func() {
		defer close(writerDone)
		for event := range events {
			if err := conn.WriteJSON(event); err != nil {
				logger.Debug("ws write failed", "error", err)
				_ = conn.Close()
				for range events {
				}
				return
			}
		}
	}()

	ctx := context.WithoutCancel(r.Context())
	h.gateway.Dispatch(ctx, connectionID, gateway.Connect{})
	logger.Info("client connected")

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("ws read failed", "error", err)
			}
			break
		}
		var inbound inboundMessage
		if err := json.Unmarshal(data, &inbound); err != nil {
			h.hub.Send(connectionID, domain.ErrorEvent(gateway.ErrInvalidPayload))
			continue
		}
		h.gateway.Handle(ctx, connectionID, inbound.Type, inbound.Payload)
	}

	h.gateway.Dispatch(ctx, connectionID, gateway.Disconnect{})
	unregister()
	<-writerDone
	logger.Info("client disconnected")
}
