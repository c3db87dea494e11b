package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/skip2/go-qrcode"
	"trivia-room-service/internal/domain"
)

const qrSize = 320

// RoomQueries is the read side of the game service used by the JSON API.
type RoomQueries interface {
	Room(code string) (domain.RoomView, error)
	Categories(ctx context.Context) ([]domain.CategorySummary, error)
	Questions(ctx context.Context, category string) ([]domain.Question, error)
	SaveScore(ctx context.Context, result domain.MatchResult) error
}

type RouterConfig struct {
	// PublicURL overrides the scheme and host used in join links.
	PublicURL string
	Logger    *slog.Logger
}

type api struct {
	rooms     RoomQueries
	publicURL string
	logger    *slog.Logger
}

// NewRouter mounts the websocket endpoint and the JSON API.
func NewRouter(rooms RoomQueries, ws *WSHandler, cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	a := &api{rooms: rooms, publicURL: strings.TrimRight(cfg.PublicURL, "/"), logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.AllowAll().Handler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/ws", ws.ServeWS)
	r.Route("/api", func(r chi.Router) {
		r.Get("/categories", a.categories)
		r.Get("/questions/{category}", a.questions)
		r.Get("/rooms/{code}", a.room)
		r.Get("/rooms/{code}/qr", a.roomQR)
		r.Post("/save-score", a.saveScore)
	})
	return r
}

func (a *api) categories(w http.ResponseWriter, r *http.Request) {
	categories, err := a.rooms.Categories(r.Context())
	if err != nil {
		a.fail(w, err)
		return
	}
	if categories == nil {
		categories = []domain.CategorySummary{}
	}
	writeJSON(w, http.StatusOK, categories)
}

func (a *api) questions(w http.ResponseWriter, r *http.Request) {
	questions, err := a.rooms.Questions(r.Context(), chi.URLParam(r, "category"))
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, questions)
}

func (a *api) room(w http.ResponseWriter, r *http.Request) {
	view, err := a.rooms.Room(chi.URLParam(r, "code"))
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (a *api) roomQR(w http.ResponseWriter, r *http.Request) {
	view, err := a.rooms.Room(chi.URLParam(r, "code"))
	if err != nil {
		a.fail(w, err)
		return
	}
	png, err := qrcode.Encode(a.joinURL(r, view.Code), qrcode.Medium, qrSize)
	if err != nil {
		a.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(png)
}

// joinURL is the link a phone lands on after scanning the room QR code.
func (a *api) joinURL(r *http.Request, code string) string {
	base := a.publicURL
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}
		base = scheme + "://" + r.Host
	}
	return base + "/multiplayer?room=" + url.QueryEscape(code)
}

type saveScoreRequest struct {
	PlayerName     string `json:"player_name"`
	Category       string `json:"category"`
	Score          int    `json:"score"`
	TotalQuestions int    `json:"total_questions"`
}

type saveScoreResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (a *api) saveScore(w http.ResponseWriter, r *http.Request) {
	var req saveScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, saveScoreResponse{Message: "invalid request body"})
		return
	}
	if req.PlayerName == "" {
		req.PlayerName = domain.DefaultPlayerName
	}
	result := domain.MatchResult{
		Category:       req.Category,
		TotalQuestions: req.TotalQuestions,
		Standings:      []domain.Player{{Name: req.PlayerName, Score: req.Score}},
	}
	if err := a.rooms.SaveScore(r.Context(), result); err != nil {
		a.logger.Error("save score failed", "category", req.Category, "error", err)
		writeJSON(w, http.StatusInternalServerError, saveScoreResponse{Message: "score could not be saved"})
		return
	}
	writeJSON(w, http.StatusOK, saveScoreResponse{Success: true, Message: "Score saved successfully"})
}

type errorResponse struct {
	Error string `json:"error"`
}

func (a *api) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrRoomNotFound), errors.Is(err, domain.ErrCategoryNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	default:
		a.logger.Error("api request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
