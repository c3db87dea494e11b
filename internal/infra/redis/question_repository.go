package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
	"trivia-room-service/internal/domain"
	"trivia-room-service/internal/infra/memory"
)

// QuestionRepository caches whole category banks in Redis and falls back to a loader on cache miss.
// Banks are stored as: SET trivia:questions:{category} <json array>
type QuestionRepository struct {
	client *redis.Client
	loader memory.QuestionLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex
}

func NewQuestionRepository(client *redis.Client, loader memory.QuestionLoader, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuestionRepository) Questions(ctx context.Context, category string) ([]domain.Question, error) {
	if questions, ok := r.cached(ctx, category); ok {
		return questions, nil
	}

	result, err, _ := r.sf.Do(category, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if questions, ok := r.cached(ctx, category); ok {
			return questions, nil
		}

		questions, err := r.loader.LoadCategory(ctx, category)
		if err != nil {
			return nil, err
		}

		if data, err := json.Marshal(questions); err == nil {
			_ = r.client.Set(ctx, r.key(category), data, r.ttlWithJitter()).Err()
		}
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (r *QuestionRepository) Categories(ctx context.Context) ([]domain.CategorySummary, error) {
	return memory.Summarize(ctx, r.loader, r)
}

func (r *QuestionRepository) cached(ctx context.Context, category string) ([]domain.Question, bool) {
	raw, err := r.client.Get(ctx, r.key(category)).Bytes()
	if err != nil {
		// redis.Nil on a miss; other errors fall through to the loader too.
		return nil, false
	}
	var questions []domain.Question
	if err := json.Unmarshal(raw, &questions); err != nil || len(questions) == 0 {
		return nil, false
	}
	return questions, true
}

func (r *QuestionRepository) key(category string) string {
	return "trivia:questions:" + category
}

func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
