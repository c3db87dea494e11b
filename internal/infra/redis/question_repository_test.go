package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"trivia-room-service/internal/domain"
	"trivia-room-service/internal/infra/memory"
)

func TestQuestionRepositoryCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)

	loader := &countingLoader{
		QuestionLoader: memory.NewStaticQuestionLoader(map[string][]domain.Question{
			"maths": sampleQuestions(),
		}),
	}
	repo := NewQuestionRepository(client, loader, time.Minute)

	questions, err := repo.Questions(context.Background(), "maths")
	if err != nil {
		t.Fatalf("get questions: %v", err)
	}
	if loader.calls != 1 || len(questions) != 2 {
		t.Fatalf("expected loader called once with 2 questions, got calls=%d len=%d", loader.calls, len(questions))
	}
	if !mr.Exists("trivia:questions:maths") {
		t.Fatalf("expected category cached in redis")
	}

	// Second call should hit cache, loader not incremented.
	cached, err := repo.Questions(context.Background(), "maths")
	if err != nil {
		t.Fatalf("get cached questions: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
	if cached[1].Correct != 2 || cached[1].Explanation != "3 * 3 = 9" {
		t.Fatalf("cache lost question fields: %+v", cached[1])
	}
}

func TestQuestionRepositoryPropagatesLoaderErrors(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	repo := NewQuestionRepository(newClient(mr), memory.NewStaticQuestionLoader(nil), time.Minute)
	if _, err := repo.Questions(context.Background(), "python"); !errors.Is(err, domain.ErrCategoryNotFound) {
		t.Fatalf("expected category not found, got %v", err)
	}
	if mr.Exists("trivia:questions:python") {
		t.Fatalf("failed loads must not be cached")
	}
}

type countingLoader struct {
	memory.QuestionLoader
	calls int
}

func (l *countingLoader) LoadCategory(ctx context.Context, category string) ([]domain.Question, error) {
	l.calls++
	return l.QuestionLoader.LoadCategory(ctx, category)
}

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{ID: 1, Question: "What is 2 + 2?", Choices: []string{"3", "4"}, Correct: 1, Difficulty: 1, Explanation: "2 + 2 = 4"},
		{ID: 2, Question: "What is 3 * 3?", Choices: []string{"6", "8", "9"}, Correct: 2, Difficulty: 2, Explanation: "3 * 3 = 9"},
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
