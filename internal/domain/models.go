package domain

import "time"

// RoomStatus is the lifecycle phase of a room.
type RoomStatus string

const (
	StatusWaiting  RoomStatus = "waiting"
	StatusPlaying  RoomStatus = "playing"
	StatusFinished RoomStatus = "finished"
)

// Defaults applied to optional create/join fields.
const (
	DefaultCategory       = "maths"
	DefaultMaxPlayers     = 4
	DefaultQuestionsCount = 20
	DefaultPlayerName     = "Player"
	DefaultAvatar         = "😀"
	DefaultTimeTaken      = 30.0
	AnonymousName         = "Anonymous"
)

// Question is one multiple-choice record from the question bank.
// Correct is the index of the right entry in Choices.
type Question struct {
	ID          int      `json:"id"`
	Question    string   `json:"question"`
	Choices     []string `json:"choices"`
	Correct     int      `json:"correct"`
	Difficulty  int      `json:"difficulty"`
	Explanation string   `json:"explanation"`
}

// PublicQuestion is what players see while a round is open.
type PublicQuestion struct {
	ID         int      `json:"id"`
	Question   string   `json:"question"`
	Choices    []string `json:"choices"`
	Difficulty int      `json:"difficulty"`
}

// Public strips the answer and explanation.
func (q Question) Public() PublicQuestion {
	choices := make([]string, len(q.Choices))
	copy(choices, q.Choices)
	return PublicQuestion{
		ID:         q.ID,
		Question:   q.Question,
		Choices:    choices,
		Difficulty: q.Difficulty,
	}
}

// CategorySummary describes a category available for play.
type CategorySummary struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// Player is a room member keyed by its connection identifier.
type Player struct {
	ConnectionID string `json:"connection_id"`
	Name         string `json:"name"`
	Avatar       string `json:"avatar"`
	Score        int    `json:"score"`
	Ready        bool   `json:"ready"`
}

// PlayerProfile is the display metadata a client supplies on create/join.
type PlayerProfile struct {
	Name   string
	Avatar string
}

// Answer is one connection's result for the current question.
type Answer struct {
	IsCorrect bool    `json:"is_correct"`
	TimeTaken float64 `json:"time_taken"`
}

// RoomSettings are fixed when a room is created.
type RoomSettings struct {
	Category       string
	MaxPlayers     int
	QuestionsCount int
}

// RoomView is the client-facing snapshot of a room. Selected questions are never included.
type RoomView struct {
	Code             string     `json:"code"`
	HostConnectionID string     `json:"host_connection_id"`
	Category         string     `json:"category"`
	MaxPlayers       int        `json:"max_players"`
	QuestionsCount   int        `json:"questions_count"`
	Players          []Player   `json:"players"`
	Status           RoomStatus `json:"status"`
	CurrentQuestion  int        `json:"current_question"`
	TotalQuestions   int        `json:"total_questions"`
}

// MatchResult is handed to the score sink once per finished match.
type MatchResult struct {
	RoomCode       string    `json:"room_code"`
	Category       string    `json:"category"`
	TotalQuestions int       `json:"total_questions"`
	Standings      []Player  `json:"standings"`
	FinishedAt     time.Time `json:"finished_at"`
}
