package memory

import (
	"context"
	"sync"

	"trivia-room-service/internal/domain"
)

// ResultLog is an in-process app.ResultSink that keeps every saved result.
type ResultLog struct {
	mu      sync.Mutex
	results []domain.MatchResult
}

func NewResultLog() *ResultLog {
	return &ResultLog{}
}

func (l *ResultLog) SaveResult(_ context.Context, result domain.MatchResult) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.results = append(l.results, result)
	return nil
}

// Results returns a copy of everything saved so far.
func (l *ResultLog) Results() []domain.MatchResult {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.MatchResult, len(l.results))
	copy(out, l.results)
	return out
}
