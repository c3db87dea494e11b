package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"trivia-room-service/internal/domain"
)

func TestQuestionRepositoryCaches(t *testing.T) {
	loader := &countingLoader{
		QuestionLoader: NewStaticQuestionLoader(map[string][]domain.Question{
			"maths": sampleQuestions(),
		}),
	}
	repo := NewQuestionRepository(loader, time.Minute)

	if _, err := repo.Questions(context.Background(), "maths"); err != nil {
		t.Fatalf("get questions: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	if _, err := repo.Questions(context.Background(), "maths"); err != nil {
		t.Fatalf("get questions 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
}

func TestQuestionRepositoryUnknownCategory(t *testing.T) {
	repo := NewQuestionRepository(NewStaticQuestionLoader(map[string][]domain.Question{}), time.Minute)
	_, err := repo.Questions(context.Background(), "history")
	if !errors.Is(err, domain.ErrCategoryNotFound) {
		t.Fatalf("expected category not found, got %v", err)
	}
}

func TestQuestionRepositoryCategories(t *testing.T) {
	repo := NewQuestionRepository(NewStaticQuestionLoader(map[string][]domain.Question{
		"python": sampleQuestions()[:1],
		"maths":  sampleQuestions(),
	}), time.Minute)

	summaries, err := repo.Categories(context.Background())
	if err != nil {
		t.Fatalf("categories: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(summaries))
	}
	if summaries[0].Key != "maths" || summaries[0].Count != 2 {
		t.Fatalf("expected maths with 2 questions first, got %+v", summaries[0])
	}
	if summaries[1].Key != "python" || summaries[1].Count != 1 {
		t.Fatalf("expected python with 1 question, got %+v", summaries[1])
	}
}

func TestLoadQuestionFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.json")
	body := `{"maths":[{"id":1,"question":"2+2?","choices":["3","4"],"correct":1,"difficulty":1,"explanation":"basic"}]}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	bank, err := LoadQuestionFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	q := bank["maths"][0]
	if q.ID != 1 || q.Correct != 1 || len(q.Choices) != 2 || q.Explanation != "basic" {
		t.Fatalf("unexpected question %+v", q)
	}
}

func TestResultLogKeepsResults(t *testing.T) {
	log := NewResultLog()
	_ = log.SaveResult(context.Background(), domain.MatchResult{RoomCode: "ABC123"})
	got := log.Results()
	if len(got) != 1 || got[0].RoomCode != "ABC123" {
		t.Fatalf("unexpected results %+v", got)
	}
}

type countingLoader struct {
	QuestionLoader
	calls int
}

func (l *countingLoader) LoadCategory(ctx context.Context, category string) ([]domain.Question, error) {
	l.calls++
	return l.QuestionLoader.LoadCategory(ctx, category)
}

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{ID: 1, Question: "What is 2 + 2?", Choices: []string{"3", "4", "5"}, Correct: 1, Difficulty: 1, Explanation: "2 + 2 = 4"},
		{ID: 2, Question: "What is 3 * 3?", Choices: []string{"6", "9", "12"}, Correct: 1, Difficulty: 2, Explanation: "3 * 3 = 9"},
	}
}
