package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Inbound is the tagged union of client events.
type Inbound interface {
	inboundName() string
}

type Connect struct{}

type Disconnect struct{}

type CreateRoom struct {
	Category       string `json:"category"`
	MaxPlayers     int    `json:"max_players"`
	QuestionsCount int    `json:"questions_count"`
	PlayerName     string `json:"player_name"`
	Avatar         string `json:"avatar"`
}

type JoinRoom struct {
	RoomCode   string `json:"room_code"`
	PlayerName string `json:"player_name"`
	Avatar     string `json:"avatar"`
}

type LeaveRoom struct {
	RoomCode string `json:"room_code"`
}

type PlayerReady struct {
	RoomCode string `json:"room_code"`
}

type StartGame struct {
	RoomCode string `json:"room_code"`
}

// SubmitAnswer leaves Answer and TimeTaken nil when the client omits them.
type SubmitAnswer struct {
	RoomCode  string   `json:"room_code"`
	Answer    *int     `json:"answer"`
	TimeTaken *float64 `json:"time_taken"`
}

type ChatMessage struct {
	RoomCode string `json:"room_code"`
	Message  string `json:"message"`
}

func (Connect) inboundName() string      { return "connect" }
func (Disconnect) inboundName() string   { return "disconnect" }
func (CreateRoom) inboundName() string   { return "create_room" }
func (JoinRoom) inboundName() string     { return "join_room" }
func (LeaveRoom) inboundName() string    { return "leave_room" }
func (PlayerReady) inboundName() string  { return "player_ready" }
func (StartGame) inboundName() string    { return "start_game" }
func (SubmitAnswer) inboundName() string { return "submit_answer" }
func (ChatMessage) inboundName() string  { return "chat_message" }

var (
	// ErrUnsupportedEvent is returned for unknown inbound event names.
	ErrUnsupportedEvent = errors.New("unsupported message type")
	// ErrInvalidPayload is returned when a payload cannot be decoded.
	ErrInvalidPayload = errors.New("invalid payload")
)

// Decode turns a wire {type, payload} pair into an Inbound event. connect and
// disconnect come from the transport itself and are not accepted from clients.
func Decode(eventType string, payload json.RawMessage) (Inbound, error) {
	var target Inbound
	switch eventType {
	case "create_room":
		target = &CreateRoom{}
	case "join_room":
		target = &JoinRoom{}
	case "leave_room":
		target = &LeaveRoom{}
	case "player_ready":
		target = &PlayerReady{}
	case "start_game":
		target = &StartGame{}
	case "submit_answer":
		target = &SubmitAnswer{}
	case "chat_message":
		target = &ChatMessage{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedEvent, eventType)
	}
	if len(payload) > 0 && string(payload) != "null" {
		if err := json.Unmarshal(payload, target); err != nil {
			return nil, fmt.Errorf("%w for %s", ErrInvalidPayload, eventType)
		}
	}
	return deref(target), nil
}

func deref(in Inbound) Inbound {
	switch e := in.(type) {
	case *CreateRoom:
		return *e
	case *JoinRoom:
		return *e
	case *LeaveRoom:
		return *e
	case *PlayerReady:
		return *e
	case *StartGame:
		return *e
	case *SubmitAnswer:
		return *e
	case *ChatMessage:
		return *e
	}
	return in
}
