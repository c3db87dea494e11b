package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"trivia-room-service/internal/app"
	"trivia-room-service/internal/domain"
	"trivia-room-service/internal/gateway"
	"trivia-room-service/internal/infra/memory"
)

type testServer struct {
	*httptest.Server
	service *app.GameService
	results *memory.ResultLog
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	results := memory.NewResultLog()
	questions := memory.NewQuestionRepository(memory.NewStaticQuestionLoader(map[string][]domain.Question{
		"maths": sampleQuestions(),
	}), time.Minute)
	hub := gateway.NewHub(nil)
	service := app.NewGameService(memory.NewRoomStore(), questions, hub,
		app.WithNextQuestionDelay(20*time.Millisecond),
		app.WithResultSink(results),
		app.WithPermutation(func(n int) []int {
			out := make([]int, n)
			for i := range out {
				out[i] = i
			}
			return out
		}),
	)
	ws := NewWSHandler(gateway.New(service, hub, nil), hub, nil)
	server := httptest.NewServer(NewRouter(service, ws, RouterConfig{}))
	t.Cleanup(server.Close)
	return &testServer{Server: server, service: service, results: results}
}

func TestWebSocketMatchFlow(t *testing.T) {
	srv := newTestServer(t)

	host := dial(t, srv)
	guest := dial(t, srv)
	hostID := readUntil(t, host, "connected")["connection_id"].(string)
	guestID := readUntil(t, guest, "connected")["connection_id"].(string)
	if hostID == "" || hostID == guestID {
		t.Fatalf("expected distinct connection ids, got %q and %q", hostID, guestID)
	}

	send(t, host, "create_room", map[string]any{"category": "maths", "questions_count": 1, "player_name": "Ana"})
	created := readUntil(t, host, "room_created")
	code := created["room_code"].(string)
	if len(code) != 6 {
		t.Fatalf("expected 6 character code, got %q", code)
	}

	send(t, guest, "join_room", map[string]any{"room_code": strings.ToLower(code), "player_name": "Ben"})
	joined := readUntil(t, guest, "room_joined")
	room := joined["room"].(map[string]any)
	if room["host_connection_id"] != hostID {
		t.Fatalf("expected host %s, got %v", hostID, room["host_connection_id"])
	}
	readUntil(t, host, "player_joined")

	send(t, host, "start_game", map[string]any{"room_code": code})
	started := readUntil(t, guest, "game_started")
	if started["total_questions"].(float64) != 1 {
		t.Fatalf("expected 1 question, got %v", started["total_questions"])
	}
	question := readUntil(t, guest, "new_question")["question"].(map[string]any)
	if _, leaked := question["correct"]; leaked {
		t.Fatalf("question must not expose the answer: %v", question)
	}
	readUntil(t, host, "new_question")

	send(t, host, "submit_answer", map[string]any{"room_code": code, "answer": 1, "time_taken": 2.0})
	send(t, guest, "submit_answer", map[string]any{"room_code": code, "answer": 0, "time_taken": 5.0})

	results := readUntil(t, host, "question_results")
	if results["correct_answer"].(float64) != 1 {
		t.Fatalf("unexpected correct answer %v", results["correct_answer"])
	}

	ended := readUntil(t, guest, "game_ended")
	players := ended["players"].([]any)
	first := players[0].(map[string]any)
	if first["name"] != "Ana" || first["score"].(float64) != float64(app.Points(1, 2)) {
		t.Fatalf("expected Ana first with %d points, got %v", app.Points(1, 2), first)
	}

	srv.service.Wait()
	if len(srv.results.Results()) != 1 {
		t.Fatalf("expected one persisted result, got %d", len(srv.results.Results()))
	}
}

func TestWebSocketErrors(t *testing.T) {
	srv := newTestServer(t)
	conn := dial(t, srv)
	readUntil(t, conn, "connected")

	send(t, conn, "join_room", map[string]any{"room_code": "NOPE00"})
	if msg := readUntil(t, conn, "error")["message"]; msg != domain.ErrRoomNotFound.Error() {
		t.Fatalf("unexpected error %v", msg)
	}

	send(t, conn, "teleport", nil)
	readUntil(t, conn, "error")

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatalf("write: %v", err)
	}
	readUntil(t, conn, "error")
}

func TestDisconnectRemovesPlayer(t *testing.T) {
	srv := newTestServer(t)
	host := dial(t, srv)
	guest := dial(t, srv)
	readUntil(t, host, "connected")
	guestID := readUntil(t, guest, "connected")["connection_id"].(string)

	send(t, host, "create_room", map[string]any{"category": "maths"})
	code := readUntil(t, host, "room_created")["room_code"].(string)
	send(t, guest, "join_room", map[string]any{"room_code": code})
	readUntil(t, guest, "room_joined")

	guest.Close()
	left := readUntil(t, host, "player_left")
	if left["connection_id"] != guestID || left["players_count"].(float64) != 1 {
		t.Fatalf("unexpected player_left payload %v", left)
	}
}

func TestAPI(t *testing.T) {
	srv := newTestServer(t)

	var categories []domain.CategorySummary
	getJSON(t, srv.URL+"/api/categories", http.StatusOK, &categories)
	if len(categories) != 1 || categories[0].Key != "maths" || categories[0].Count != 2 {
		t.Fatalf("unexpected categories %+v", categories)
	}

	var questions []domain.Question
	getJSON(t, srv.URL+"/api/questions/maths", http.StatusOK, &questions)
	if len(questions) != 2 || questions[1].Explanation == "" {
		t.Fatalf("solo play needs full questions, got %+v", questions)
	}
	getJSON(t, srv.URL+"/api/questions/history", http.StatusNotFound, nil)
	getJSON(t, srv.URL+"/api/rooms/ABC123", http.StatusNotFound, nil)

	view, err := srv.service.CreateRoom(context.Background(), "c1", domain.RoomSettings{
		Category: "maths", MaxPlayers: 4, QuestionsCount: 2,
	}, domain.PlayerProfile{Name: "Ana"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	var got domain.RoomView
	getJSON(t, srv.URL+"/api/rooms/"+view.Code, http.StatusOK, &got)
	if got.Code != view.Code || len(got.Players) != 1 {
		t.Fatalf("unexpected room %+v", got)
	}

	resp, err := http.Get(srv.URL + "/api/rooms/" + view.Code + "/qr")
	if err != nil {
		t.Fatalf("qr: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "image/png" {
		t.Fatalf("expected png, got %d %s", resp.StatusCode, resp.Header.Get("Content-Type"))
	}

	body, _ := json.Marshal(map[string]any{"player_name": "Solo", "category": "maths", "score": 450, "total_questions": 5})
	resp, err = http.Post(srv.URL+"/api/save-score", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("save score: %v", err)
	}
	defer resp.Body.Close()
	var saved saveScoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&saved); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !saved.Success {
		t.Fatalf("expected success, got %+v", saved)
	}
	stored := srv.results.Results()
	if len(stored) != 1 || stored[0].Standings[0].Score != 450 || stored[0].FinishedAt.IsZero() {
		t.Fatalf("unexpected stored result %+v", stored)
	}
}

func TestJoinURLPrefersPublicURL(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/rooms/ABC123/qr", nil)
	req.Host = "localhost:8080"

	a := &api{}
	if got := a.joinURL(req, "ABC123"); got != "http://localhost:8080/multiplayer?room=ABC123" {
		t.Fatalf("unexpected url %s", got)
	}
	a.publicURL = "https://trivia.example.com"
	if got := a.joinURL(req, "ABC123"); got != "https://trivia.example.com/multiplayer?room=ABC123" {
		t.Fatalf("unexpected url %s", got)
	}
}

func dial(t *testing.T, srv *testServer) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	if err := conn.WriteJSON(map[string]any{"type": typ, "payload": payload}); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

// readUntil skips other events until one of type expect arrives.
func readUntil(t *testing.T, conn *websocket.Conn, expect string) map[string]any {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		var msg struct {
			Type    string         `json:"type"`
			Payload map[string]any `json:"payload"`
		}
		_ = conn.SetReadDeadline(deadline)
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("waiting for %s: %v", expect, err)
		}
		if msg.Type == expect {
			return msg.Payload
		}
	}
}

func getJSON(t *testing.T, url string, status int, out any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("get %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != status {
		t.Fatalf("get %s: expected %d, got %d", url, status, resp.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
}

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{ID: 1, Question: "What is 2 + 2?", Choices: []string{"3", "4", "5"}, Correct: 1, Difficulty: 1, Explanation: "2 + 2 = 4"},
		{ID: 2, Question: "What is 3 * 3?", Choices: []string{"6", "9", "12"}, Correct: 1, Difficulty: 2, Explanation: "3 * 3 = 9"},
	}
}
