package postgres

import (
	"context"
	"fmt"
	"sort"

	"github.com/uptrace/bun"
	"trivia-room-service/internal/domain"
)

type questionRow struct {
	bun.BaseModel `bun:"table:questions"`

	Category string          `bun:"category,pk"`
	ID       int             `bun:"id,pk"`
	Position int             `bun:"position"`
	Data     domain.Question `bun:"data,type:jsonb"`
}

// SeedQuestions upserts a question bank, keeping each category's file order as its position.
func SeedQuestions(ctx context.Context, db *bun.DB, bank map[string][]domain.Question) (int, error) {
	categories := make([]string, 0, len(bank))
	for category := range bank {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	var rows []questionRow
	for _, category := range categories {
		for position, q := range bank[category] {
			rows = append(rows, questionRow{
				Category: category,
				ID:       q.ID,
				Position: position,
				Data:     q,
			})
		}
	}
	if len(rows) == 0 {
		return 0, nil
	}

	_, err := db.NewInsert().
		Model(&rows).
		On("CONFLICT (category, id) DO UPDATE").
		Set("position = EXCLUDED.position").
		Set("data = EXCLUDED.data").
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("seed questions: %w", err)
	}
	return len(rows), nil
}
