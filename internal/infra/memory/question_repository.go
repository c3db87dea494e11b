package memory

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"trivia-room-service/internal/domain"
)

// QuestionLoader fetches question banks from a backing store (file, Postgres).
type QuestionLoader interface {
	LoadCategory(ctx context.Context, category string) ([]domain.Question, error)
	ListCategories(ctx context.Context) ([]string, error)
}

// QuestionRepository caches category banks with TTL to avoid repeated loader hits.
type QuestionRepository struct {
	loader QuestionLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex

	mu    sync.RWMutex
	cache map[string]cachedCategory
}

type cachedCategory struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewQuestionRepository(loader QuestionLoader, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedCategory),
	}
}

func (r *QuestionRepository) Questions(ctx context.Context, category string) ([]domain.Question, error) {
	now := r.clock()

	r.mu.RLock()
	if entry, ok := r.cache[category]; ok && entry.expiresAt.After(now) {
		r.mu.RUnlock()
		return entry.questions, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do(category, func() (interface{}, error) {
		now := r.clock()
		r.mu.RLock()
		if entry, ok := r.cache[category]; ok && entry.expiresAt.After(now) {
			r.mu.RUnlock()
			return entry.questions, nil
		}
		r.mu.RUnlock()

		questions, err := r.loader.LoadCategory(ctx, category)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.cache[category] = cachedCategory{
			questions: questions,
			expiresAt: now.Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (r *QuestionRepository) Categories(ctx context.Context) ([]domain.CategorySummary, error) {
	return Summarize(ctx, r.loader, r)
}

// CategoryReader is the read side of a question repository.
type CategoryReader interface {
	Questions(ctx context.Context, category string) ([]domain.Question, error)
}

// Summarize counts each category the loader lists, reading through repo so the cache is used.
func Summarize(ctx context.Context, loader QuestionLoader, repo CategoryReader) ([]domain.CategorySummary, error) {
	keys, err := loader.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.CategorySummary, 0, len(keys))
	for _, key := range keys {
		questions, err := repo.Questions(ctx, key)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.CategorySummary{Key: key, Count: len(questions)})
	}
	return out, nil
}

// StaticQuestionLoader is a loader backed by an in-memory map (useful for tests/demos).
type StaticQuestionLoader struct {
	bank map[string][]domain.Question
}

func NewStaticQuestionLoader(bank map[string][]domain.Question) *StaticQuestionLoader {
	return &StaticQuestionLoader{bank: bank}
}

func (l *StaticQuestionLoader) LoadCategory(_ context.Context, category string) ([]domain.Question, error) {
	if questions, ok := l.bank[category]; ok && len(questions) > 0 {
		return questions, nil
	}
	return nil, domain.ErrCategoryNotFound
}

func (l *StaticQuestionLoader) ListCategories(_ context.Context) ([]string, error) {
	keys := make([]string, 0, len(l.bank))
	for key := range l.bank {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
