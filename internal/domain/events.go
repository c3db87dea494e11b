package domain

// EventType names an outbound event.
type EventType string

const (
	EventConnected         EventType = "connected"
	EventRoomCreated       EventType = "room_created"
	EventRoomJoined        EventType = "room_joined"
	EventPlayerJoined      EventType = "player_joined"
	EventPlayerLeft        EventType = "player_left"
	EventNewHost           EventType = "new_host"
	EventPlayerReadyUpdate EventType = "player_ready_update"
	EventAllPlayersReady   EventType = "all_players_ready"
	EventGameStarted       EventType = "game_started"
	EventNewQuestion       EventType = "new_question"
	EventPlayerAnswered    EventType = "player_answered"
	EventQuestionResults   EventType = "question_results"
	EventGameEnded         EventType = "game_ended"
	EventChatMessage       EventType = "chat_message"
	EventError             EventType = "error"
)

// Event is the outbound envelope written to clients as {"type", "payload"}.
type Event struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload"`
}

type ConnectedPayload struct {
	ConnectionID string `json:"connection_id"`
}

// RoomEnteredPayload is sent for both room_created and room_joined.
type RoomEnteredPayload struct {
	RoomCode string   `json:"room_code"`
	Room     RoomView `json:"room"`
}

type PlayerJoinedPayload struct {
	Players      []Player `json:"players"`
	PlayersCount int      `json:"players_count"`
}

type PlayerLeftPayload struct {
	ConnectionID string `json:"connection_id"`
	PlayersCount int    `json:"players_count"`
}

type NewHostPayload struct {
	HostConnectionID string `json:"host_connection_id"`
}

type PlayerReadyUpdatePayload struct {
	Players []Player `json:"players"`
}

type AllPlayersReadyPayload struct{}

type GameStartedPayload struct {
	TotalQuestions int `json:"total_questions"`
}

type NewQuestionPayload struct {
	QuestionNumber int            `json:"question_number"`
	TotalQuestions int            `json:"total_questions"`
	Question       PublicQuestion `json:"question"`
}

type PlayerAnsweredPayload struct {
	ConnectionID  string `json:"connection_id"`
	AnsweredCount int    `json:"answered_count"`
	TotalPlayers  int    `json:"total_players"`
}

type QuestionResultsPayload struct {
	CorrectAnswer int               `json:"correct_answer"`
	Explanation   string            `json:"explanation"`
	Players       []Player          `json:"players"`
	Answers       map[string]Answer `json:"answers"`
}

// GameEndedPayload carries players sorted by descending score.
type GameEndedPayload struct {
	Players []Player `json:"players"`
}

type ChatMessagePayload struct {
	PlayerName string `json:"player_name"`
	Message    string `json:"message"`
	Timestamp  string `json:"timestamp"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// ErrorEvent wraps err as an outbound error event.
func ErrorEvent(err error) Event {
	return Event{Type: EventError, Payload: ErrorPayload{Message: err.Error()}}
}
