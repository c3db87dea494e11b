package gateway

import (
	"context"
	"encoding/json"
	"log/slog"

	"trivia-room-service/internal/app"
	"trivia-room-service/internal/domain"
)

// RoomService is the state-machine surface the gateway dispatches to.
type RoomService interface {
	CreateRoom(ctx context.Context, connectionID string, settings domain.RoomSettings, profile domain.PlayerProfile) (domain.RoomView, error)
	JoinRoom(ctx context.Context, connectionID, code string, profile domain.PlayerProfile) error
	LeaveRoom(ctx context.Context, connectionID, code string)
	Disconnect(ctx context.Context, connectionID string)
	MarkReady(ctx context.Context, connectionID, code string)
	StartGame(ctx context.Context, connectionID, code string) error
	SubmitAnswer(ctx context.Context, connectionID, code string, choice *int, timeTaken float64)
	Chat(ctx context.Context, connectionID, code, message string)
}

// Gateway maps inbound events onto room operations. It only extracts payloads,
// fills defaults and reports surfaced errors back to the acting connection.
type Gateway struct {
	rooms  RoomService
	out    app.Broadcaster
	logger *slog.Logger
}

func New(rooms RoomService, out app.Broadcaster, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{rooms: rooms, out: out, logger: logger}
}

// Handle decodes a wire message and dispatches it.
func (g *Gateway) Handle(ctx context.Context, connectionID, eventType string, payload json.RawMessage) {
	event, err := Decode(eventType, payload)
	if err != nil {
		g.logger.Debug("rejected inbound message", "connection", connectionID, "type", eventType, "error", err)
		g.out.Send(connectionID, domain.ErrorEvent(err))
		return
	}
	g.Dispatch(ctx, connectionID, event)
}

// Dispatch runs one inbound event to completion.
func (g *Gateway) Dispatch(ctx context.Context, connectionID string, event Inbound) {
	var err error
	switch e := event.(type) {
	case Connect:
		g.out.Send(connectionID, domain.Event{
			Type:    domain.EventConnected,
			Payload: domain.ConnectedPayload{ConnectionID: connectionID},
		})
	case Disconnect:
		g.rooms.Disconnect(ctx, connectionID)
	case CreateRoom:
		_, err = g.rooms.CreateRoom(ctx, connectionID, domain.RoomSettings{
			Category:       orDefault(e.Category, domain.DefaultCategory),
			MaxPlayers:     positiveOrDefault(e.MaxPlayers, domain.DefaultMaxPlayers),
			QuestionsCount: positiveOrDefault(e.QuestionsCount, domain.DefaultQuestionsCount),
		}, profile(e.PlayerName, e.Avatar))
	case JoinRoom:
		err = g.rooms.JoinRoom(ctx, connectionID, e.RoomCode, profile(e.PlayerName, e.Avatar))
	case LeaveRoom:
		g.rooms.LeaveRoom(ctx, connectionID, e.RoomCode)
	case PlayerReady:
		g.rooms.MarkReady(ctx, connectionID, e.RoomCode)
	case StartGame:
		err = g.rooms.StartGame(ctx, connectionID, e.RoomCode)
	case SubmitAnswer:
		timeTaken := domain.DefaultTimeTaken
		if e.TimeTaken != nil {
			timeTaken = *e.TimeTaken
		}
		g.rooms.SubmitAnswer(ctx, connectionID, e.RoomCode, e.Answer, timeTaken)
	case ChatMessage:
		g.rooms.Chat(ctx, connectionID, e.RoomCode, e.Message)
	default:
		err = ErrUnsupportedEvent
	}
	if err != nil {
		g.logger.Info("event rejected", "connection", connectionID, "event", event.inboundName(), "error", err)
		g.out.Send(connectionID, domain.ErrorEvent(err))
	}
}

func profile(name, avatar string) domain.PlayerProfile {
	return domain.PlayerProfile{
		Name:   orDefault(name, domain.DefaultPlayerName),
		Avatar: orDefault(avatar, domain.DefaultAvatar),
	}
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func positiveOrDefault(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}
