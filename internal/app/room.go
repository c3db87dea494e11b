package app

import (
	"sort"
	"sync"

	"trivia-room-service/internal/domain"
)

// Room is the in-memory state machine of one match. All methods except Code
// expect the caller to hold mu for the whole handler body.
type Room struct {
	code     string
	settings domain.RoomSettings

	mu         sync.Mutex
	closed     bool
	hostID     string
	players    []*domain.Player
	status     domain.RoomStatus
	current    int
	selected   []domain.Question
	answers    map[string]domain.Answer
	roundOpen  bool
	cancelNext func() bool
}

// NewRoom is exported for registry implementations; the creator becomes host.
func NewRoom(code string, settings domain.RoomSettings, creator domain.Player) *Room {
	creator.Score = 0
	creator.Ready = false
	return &Room{
		code:     code,
		settings: settings,
		hostID:   creator.ConnectionID,
		players:  []*domain.Player{&creator},
		status:   domain.StatusWaiting,
		answers:  make(map[string]domain.Answer),
	}
}

// Code returns the immutable room code.
func (r *Room) Code() string {
	return r.code
}

func (r *Room) find(connectionID string) (int, *domain.Player) {
	for i, p := range r.players {
		if p.ConnectionID == connectionID {
			return i, p
		}
	}
	return -1, nil
}

func (r *Room) join(player domain.Player) error {
	if r.status != domain.StatusWaiting {
		return domain.ErrWrongPhase
	}
	if _, existing := r.find(player.ConnectionID); existing != nil {
		return domain.ErrAlreadyInRoom
	}
	if len(r.players) >= r.settings.MaxPlayers {
		return domain.ErrRoomFull
	}
	player.Score = 0
	player.Ready = false
	r.players = append(r.players, &player)
	return nil
}

// remove drops a player and hands host authority to the earliest remaining
// joiner when needed. The removed player's pending answer is discarded.
func (r *Room) remove(connectionID string) (removed, hostChanged bool) {
	idx, _ := r.find(connectionID)
	if idx < 0 {
		return false, false
	}
	r.players = append(r.players[:idx], r.players[idx+1:]...)
	delete(r.answers, connectionID)
	if r.hostID == connectionID && len(r.players) > 0 {
		r.hostID = r.players[0].ConnectionID
		hostChanged = true
	}
	return true, hostChanged
}

func (r *Room) isEmpty() bool {
	return len(r.players) == 0
}

func (r *Room) setReady(connectionID string) bool {
	_, p := r.find(connectionID)
	if p == nil {
		return false
	}
	p.Ready = true
	return true
}

func (r *Room) allReady() bool {
	if len(r.players) < 2 {
		return false
	}
	for _, p := range r.players {
		if !p.Ready {
			return false
		}
	}
	return true
}

func (r *Room) start(questions []domain.Question) {
	r.selected = questions
	r.status = domain.StatusPlaying
	r.current = 0
	r.roundOpen = false
	r.answers = make(map[string]domain.Answer)
	for _, p := range r.players {
		p.Score = 0
	}
}

// openRound clears pending answers and returns the question to broadcast, or
// false when the match has run out of questions.
func (r *Room) openRound() (domain.Question, bool) {
	if r.current >= len(r.selected) {
		return domain.Question{}, false
	}
	r.answers = make(map[string]domain.Answer)
	r.roundOpen = true
	return r.selected[r.current], true
}

// recordAnswer stores the first answer of a member for the open round.
func (r *Room) recordAnswer(connectionID string, choice *int, timeTaken float64) bool {
	if r.status != domain.StatusPlaying || !r.roundOpen {
		return false
	}
	_, p := r.find(connectionID)
	if p == nil {
		return false
	}
	if _, answered := r.answers[connectionID]; answered {
		return false
	}
	correct, points := scoreAnswer(r.selected[r.current], choice, timeTaken)
	r.answers[connectionID] = domain.Answer{IsCorrect: correct, TimeTaken: timeTaken}
	p.Score += points
	return true
}

func (r *Room) roundComplete() bool {
	return r.status == domain.StatusPlaying && r.roundOpen && len(r.players) > 0 && len(r.answers) >= len(r.players)
}

// closeRound ends the open round and advances the question pointer.
func (r *Room) closeRound() domain.QuestionResultsPayload {
	q := r.selected[r.current]
	answers := make(map[string]domain.Answer, len(r.answers))
	for id, a := range r.answers {
		answers[id] = a
	}
	r.roundOpen = false
	r.current++
	return domain.QuestionResultsPayload{
		CorrectAnswer: q.Correct,
		Explanation:   q.Explanation,
		Players:       r.playersSnapshot(),
		Answers:       answers,
	}
}

func (r *Room) finish() []domain.Player {
	r.status = domain.StatusFinished
	r.roundOpen = false
	standings := r.playersSnapshot()
	sort.SliceStable(standings, func(i, j int) bool {
		return standings[i].Score > standings[j].Score
	})
	return standings
}

func (r *Room) playerName(connectionID string) string {
	if _, p := r.find(connectionID); p != nil {
		return p.Name
	}
	return domain.AnonymousName
}

func (r *Room) playersSnapshot() []domain.Player {
	out := make([]domain.Player, len(r.players))
	for i, p := range r.players {
		out[i] = *p
	}
	return out
}

func (r *Room) connectionIDs() []string {
	ids := make([]string, len(r.players))
	for i, p := range r.players {
		ids[i] = p.ConnectionID
	}
	return ids
}

func (r *Room) view() domain.RoomView {
	return domain.RoomView{
		Code:             r.code,
		HostConnectionID: r.hostID,
		Category:         r.settings.Category,
		MaxPlayers:       r.settings.MaxPlayers,
		QuestionsCount:   r.settings.QuestionsCount,
		Players:          r.playersSnapshot(),
		Status:           r.status,
		CurrentQuestion:  r.current,
		TotalQuestions:   len(r.selected),
	}
}
