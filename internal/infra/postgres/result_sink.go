package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"trivia-room-service/internal/domain"
)

type matchResultRow struct {
	bun.BaseModel `bun:"table:match_results"`

	ID             int64           `bun:"id,pk,autoincrement"`
	RoomCode       string          `bun:"room_code"`
	Category       string          `bun:"category"`
	TotalQuestions int             `bun:"total_questions"`
	Standings      []domain.Player `bun:"standings,type:jsonb"`
	FinishedAt     time.Time       `bun:"finished_at"`
}

// ResultSink stores final leaderboards in match_results.
type ResultSink struct {
	db *bun.DB
}

func NewResultSink(db *bun.DB) *ResultSink {
	return &ResultSink{db: db}
}

func (s *ResultSink) SaveResult(ctx context.Context, result domain.MatchResult) error {
	row := &matchResultRow{
		RoomCode:       result.RoomCode,
		Category:       result.Category,
		TotalQuestions: result.TotalQuestions,
		Standings:      result.Standings,
		FinishedAt:     result.FinishedAt,
	}
	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("save match result: %w", err)
	}
	return nil
}

// RecentResults returns the latest results for a category, newest first.
func (s *ResultSink) RecentResults(ctx context.Context, category string, limit int) ([]domain.MatchResult, error) {
	var rows []matchResultRow
	err := s.db.NewSelect().
		Model(&rows).
		Where("category = ?", category).
		Order("finished_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("recent results: %w", err)
	}
	out := make([]domain.MatchResult, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.MatchResult{
			RoomCode:       row.RoomCode,
			Category:       row.Category,
			TotalQuestions: row.TotalQuestions,
			Standings:      row.Standings,
			FinishedAt:     row.FinishedAt,
		})
	}
	return out, nil
}
