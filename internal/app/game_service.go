package app

import (
	"context"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"trivia-room-service/internal/domain"
)

// RoomRepository owns room lifetime (in-memory, Redis-aware, etc).
type RoomRepository interface {
	Create(settings domain.RoomSettings, creator domain.Player) (*Room, error)
	Get(code string) (*Room, bool)
	Delete(code string)
}

// QuestionRepository loads question banks by category (from cache/backing store).
type QuestionRepository interface {
	Questions(ctx context.Context, category string) ([]domain.Question, error)
	Categories(ctx context.Context) ([]domain.CategorySummary, error)
}

// Broadcaster delivers an outbound event to one connection. Delivery is fire-and-forget.
type Broadcaster interface {
	Send(connectionID string, event domain.Event)
}

const (
	// DefaultNextQuestionDelay leaves clients time to show round results.
	DefaultNextQuestionDelay = 5 * time.Second
	resultSaveTimeout        = 10 * time.Second
)

// Option customizes a GameService.
type Option func(*GameService)

func WithLogger(logger *slog.Logger) Option {
	return func(s *GameService) { s.logger = logger }
}

func WithClock(now func() time.Time) Option {
	return func(s *GameService) { s.now = now }
}

func WithScheduler(scheduler Scheduler) Option {
	return func(s *GameService) { s.scheduler = scheduler }
}

func WithNextQuestionDelay(d time.Duration) Option {
	return func(s *GameService) { s.nextDelay = d }
}

func WithResultSink(sink ResultSink) Option {
	return func(s *GameService) { s.results = sink }
}

// WithPermutation replaces the random permutation used to sample questions.
func WithPermutation(perm func(n int) []int) Option {
	return func(s *GameService) { s.perm = perm }
}

// GameService contains the room use cases. Every handler holds the room lock
// for its whole body, so each room sees one mutation at a time.
type GameService struct {
	rooms     RoomRepository
	questions QuestionRepository
	out       Broadcaster
	results   ResultSink
	scheduler Scheduler
	nextDelay time.Duration
	now       func() time.Time
	perm      func(n int) []int
	logger    *slog.Logger

	mu          sync.Mutex
	memberships map[string]map[string]struct{}
	persisting  sync.WaitGroup
}

func NewGameService(rooms RoomRepository, questions QuestionRepository, out Broadcaster, opts ...Option) *GameService {
	s := &GameService{
		rooms:       rooms,
		questions:   questions,
		out:         out,
		results:     discardSink{},
		scheduler:   TimerScheduler{},
		nextDelay:   DefaultNextQuestionDelay,
		now:         time.Now,
		perm:        rand.Perm,
		logger:      slog.Default(),
		memberships: make(map[string]map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NormalizeRoomCode upper-cases and trims a client-supplied code.
func NormalizeRoomCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// CreateRoom registers a new room with the caller as host and sends room_created to the caller.
func (s *GameService) CreateRoom(ctx context.Context, connectionID string, settings domain.RoomSettings, profile domain.PlayerProfile) (domain.RoomView, error) {
	// Rooms cannot be created for categories the bank does not know.
	pool, err := s.questions.Questions(ctx, settings.Category)
	if err != nil {
		return domain.RoomView{}, err
	}
	if len(pool) == 0 {
		return domain.RoomView{}, domain.ErrCategoryNotFound
	}

	room, err := s.rooms.Create(settings, domain.Player{
		ConnectionID: connectionID,
		Name:         profile.Name,
		Avatar:       profile.Avatar,
	})
	if err != nil {
		return domain.RoomView{}, err
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	s.track(connectionID, room.code)
	view := room.view()
	s.out.Send(connectionID, domain.Event{
		Type:    domain.EventRoomCreated,
		Payload: domain.RoomEnteredPayload{RoomCode: room.code, Room: view},
	})
	s.logger.Info("room created", "room", room.code, "connection", connectionID, "category", settings.Category)
	return view, nil
}

// JoinRoom adds the caller to a waiting room with free capacity.
func (s *GameService) JoinRoom(_ context.Context, connectionID, code string, profile domain.PlayerProfile) error {
	code = NormalizeRoomCode(code)
	room, ok := s.lockRoom(code)
	if !ok {
		return domain.ErrRoomNotFound
	}
	defer room.mu.Unlock()

	err := room.join(domain.Player{
		ConnectionID: connectionID,
		Name:         profile.Name,
		Avatar:       profile.Avatar,
	})
	if err != nil {
		return err
	}
	s.track(connectionID, code)

	s.out.Send(connectionID, domain.Event{
		Type:    domain.EventRoomJoined,
		Payload: domain.RoomEnteredPayload{RoomCode: code, Room: room.view()},
	})
	s.broadcastLocked(room, domain.Event{
		Type: domain.EventPlayerJoined,
		Payload: domain.PlayerJoinedPayload{
			Players:      room.playersSnapshot(),
			PlayersCount: len(room.players),
		},
	})
	s.logger.Info("player joined", "room", code, "connection", connectionID)
	return nil
}

// LeaveRoom removes the caller from one room.
func (s *GameService) LeaveRoom(_ context.Context, connectionID, code string) {
	s.removeFromRoom(NormalizeRoomCode(code), connectionID)
}

// Disconnect removes the connection from every room it belongs to.
func (s *GameService) Disconnect(_ context.Context, connectionID string) {
	for _, code := range s.roomsOf(connectionID) {
		s.removeFromRoom(code, connectionID)
	}
}

// MarkReady flags the caller ready and announces when the room may be started.
func (s *GameService) MarkReady(_ context.Context, connectionID, code string) {
	room, ok := s.lockRoom(NormalizeRoomCode(code))
	if !ok {
		return
	}
	defer room.mu.Unlock()

	if !room.setReady(connectionID) {
		return
	}
	s.broadcastLocked(room, domain.Event{
		Type:    domain.EventPlayerReadyUpdate,
		Payload: domain.PlayerReadyUpdatePayload{Players: room.playersSnapshot()},
	})
	if room.allReady() {
		s.broadcastLocked(room, domain.Event{Type: domain.EventAllPlayersReady, Payload: domain.AllPlayersReadyPayload{}})
	}
}

// StartGame samples the match questions and broadcasts the first one. Host only.
func (s *GameService) StartGame(ctx context.Context, connectionID, code string) error {
	room, ok := s.lockRoom(NormalizeRoomCode(code))
	if !ok {
		return nil
	}
	defer room.mu.Unlock()

	if room.hostID != connectionID {
		return domain.ErrNotHost
	}
	if room.status != domain.StatusWaiting {
		return domain.ErrWrongPhase
	}
	pool, err := s.questions.Questions(ctx, room.settings.Category)
	if err != nil {
		return err
	}

	room.start(s.sample(pool, room.settings.QuestionsCount))
	s.broadcastLocked(room, domain.Event{
		Type:    domain.EventGameStarted,
		Payload: domain.GameStartedPayload{TotalQuestions: len(room.selected)},
	})
	s.logger.Info("game started", "room", room.code, "questions", len(room.selected))
	s.sendQuestionLocked(room)
	return nil
}

// SubmitAnswer records the caller's answer for the open round. Late, duplicate
// and non-member submissions are ignored.
func (s *GameService) SubmitAnswer(_ context.Context, connectionID, code string, choice *int, timeTaken float64) {
	room, ok := s.lockRoom(NormalizeRoomCode(code))
	if !ok {
		return
	}
	defer room.mu.Unlock()

	if !room.recordAnswer(connectionID, choice, timeTaken) {
		return
	}
	s.broadcastLocked(room, domain.Event{
		Type: domain.EventPlayerAnswered,
		Payload: domain.PlayerAnsweredPayload{
			ConnectionID:  connectionID,
			AnsweredCount: len(room.answers),
			TotalPlayers:  len(room.players),
		},
	})
	if room.roundComplete() {
		s.closeRoundLocked(room)
	}
}

// Chat relays a message to every member of the room.
func (s *GameService) Chat(_ context.Context, connectionID, code, message string) {
	room, ok := s.lockRoom(NormalizeRoomCode(code))
	if !ok {
		return
	}
	defer room.mu.Unlock()

	s.broadcastLocked(room, domain.Event{
		Type: domain.EventChatMessage,
		Payload: domain.ChatMessagePayload{
			PlayerName: room.playerName(connectionID),
			Message:    message,
			Timestamp:  s.now().Format(time.RFC3339),
		},
	})
}

// Room returns the public view of a room.
func (s *GameService) Room(code string) (domain.RoomView, error) {
	room, ok := s.lockRoom(NormalizeRoomCode(code))
	if !ok {
		return domain.RoomView{}, domain.ErrRoomNotFound
	}
	defer room.mu.Unlock()
	return room.view(), nil
}

// Categories lists the categories rooms can be created for.
func (s *GameService) Categories(ctx context.Context) ([]domain.CategorySummary, error) {
	return s.questions.Categories(ctx)
}

// Questions returns a full category bank, answers included, for solo play.
func (s *GameService) Questions(ctx context.Context, category string) ([]domain.Question, error) {
	return s.questions.Questions(ctx, category)
}

// SaveScore forwards an externally computed result to the score sink.
func (s *GameService) SaveScore(ctx context.Context, result domain.MatchResult) error {
	if result.FinishedAt.IsZero() {
		result.FinishedAt = s.now()
	}
	return s.results.SaveResult(ctx, result)
}

// Wait blocks until in-flight result persistence finishes.
func (s *GameService) Wait() {
	s.persisting.Wait()
}

// lockRoom returns a live room with its lock held.
func (s *GameService) lockRoom(code string) (*Room, bool) {
	room, ok := s.rooms.Get(code)
	if !ok {
		return nil, false
	}
	room.mu.Lock()
	if room.closed {
		room.mu.Unlock()
		return nil, false
	}
	return room, true
}

func (s *GameService) removeFromRoom(code, connectionID string) {
	room, ok := s.lockRoom(code)
	if !ok {
		s.untrack(connectionID, code)
		return
	}
	defer room.mu.Unlock()

	removed, hostChanged := room.remove(connectionID)
	s.untrack(connectionID, code)
	if !removed {
		return
	}
	s.logger.Info("player left", "room", code, "connection", connectionID)

	if room.isEmpty() {
		room.closed = true
		if room.cancelNext != nil {
			room.cancelNext()
			room.cancelNext = nil
		}
		s.rooms.Delete(code)
		s.logger.Info("room deleted", "room", code)
		return
	}

	s.broadcastLocked(room, domain.Event{
		Type:    domain.EventPlayerLeft,
		Payload: domain.PlayerLeftPayload{ConnectionID: connectionID, PlayersCount: len(room.players)},
	})
	if hostChanged {
		s.broadcastLocked(room, domain.Event{
			Type:    domain.EventNewHost,
			Payload: domain.NewHostPayload{HostConnectionID: room.hostID},
		})
	}
	if room.roundComplete() {
		s.closeRoundLocked(room)
	}
}

func (s *GameService) sendQuestionLocked(room *Room) {
	q, ok := room.openRound()
	if !ok {
		s.endGameLocked(room)
		return
	}
	s.broadcastLocked(room, domain.Event{
		Type: domain.EventNewQuestion,
		Payload: domain.NewQuestionPayload{
			QuestionNumber: room.current + 1,
			TotalQuestions: len(room.selected),
			Question:       q.Public(),
		},
	})
}

func (s *GameService) closeRoundLocked(room *Room) {
	results := room.closeRound()
	s.broadcastLocked(room, domain.Event{Type: domain.EventQuestionResults, Payload: results})

	code := room.code
	room.cancelNext = s.scheduler.AfterFunc(s.nextDelay, func() {
		s.nextQuestion(code)
	})
}

// nextQuestion is the deferred task fired after a round closes. The room may
// have been deleted or restarted in the meantime.
func (s *GameService) nextQuestion(code string) {
	room, ok := s.lockRoom(code)
	if !ok {
		s.logger.Debug("next question skipped, room gone", "room", code)
		return
	}
	defer room.mu.Unlock()

	room.cancelNext = nil
	if room.status != domain.StatusPlaying || room.roundOpen {
		return
	}
	s.sendQuestionLocked(room)
}

func (s *GameService) endGameLocked(room *Room) {
	standings := room.finish()
	result := domain.MatchResult{
		RoomCode:       room.code,
		Category:       room.settings.Category,
		TotalQuestions: len(room.selected),
		Standings:      standings,
		FinishedAt:     s.now(),
	}
	// Registered before the broadcast so Wait observes it once clients see game_ended.
	s.persisting.Add(1)
	s.broadcastLocked(room, domain.Event{
		Type:    domain.EventGameEnded,
		Payload: domain.GameEndedPayload{Players: standings},
	})
	s.logger.Info("game ended", "room", room.code)

	go func() {
		defer s.persisting.Done()
		ctx, cancel := context.WithTimeout(context.Background(), resultSaveTimeout)
		defer cancel()
		if err := s.results.SaveResult(ctx, result); err != nil {
			s.logger.Error("save match result", "room", result.RoomCode, "error", err)
		}
	}()
}

func (s *GameService) broadcastLocked(room *Room, event domain.Event) {
	for _, id := range room.connectionIDs() {
		s.out.Send(id, event)
	}
}

// sample draws min(n, len(pool)) questions without replacement.
func (s *GameService) sample(pool []domain.Question, n int) []domain.Question {
	if n > len(pool) {
		n = len(pool)
	}
	if n < 0 {
		n = 0
	}
	order := s.perm(len(pool))
	picked := make([]domain.Question, n)
	for i := 0; i < n; i++ {
		picked[i] = pool[order[i]]
	}
	return picked
}

func (s *GameService) track(connectionID, code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	codes, ok := s.memberships[connectionID]
	if !ok {
		codes = make(map[string]struct{})
		s.memberships[connectionID] = codes
	}
	codes[code] = struct{}{}
}

func (s *GameService) untrack(connectionID, code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	codes, ok := s.memberships[connectionID]
	if !ok {
		return
	}
	delete(codes, code)
	if len(codes) == 0 {
		delete(s.memberships, connectionID)
	}
}

func (s *GameService) roomsOf(connectionID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	codes := make([]string, 0, len(s.memberships[connectionID]))
	for code := range s.memberships[connectionID] {
		codes = append(codes, code)
	}
	return codes
}
