package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"vocab-quiz-service/internal/domain"
	"vocab-quiz-service/internal/infra/memory"
)

// QuestionRepository caches question pools in Redis (hash per filter) and
// falls back to a loader on cache miss.
// Pools are stored as: HSET questions:{filterKey} {questionID} {questionJSON}
type QuestionRepository struct {
	client    *redis.Client
	loader    memory.QuestionLoader
	ttl       time.Duration
	batchSize int
	sf        singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewQuestionRepository(client *redis.Client, loader memory.QuestionLoader, ttl time.Duration, batchSize int) *QuestionRepository {
	return &QuestionRepository{
		client:    client,
		loader:    loader,
		ttl:       ttl,
		batchSize: batchSize,
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// FetchQuestions implements app.QuestionSource.
func (r *QuestionRepository) FetchQuestions(ctx context.Context, query domain.QuestionQuery) ([]domain.Question, error) {
	pool, err := r.pool(ctx, query.Filter())
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return memory.Sample(pool, r.batchSize, r.rnd), nil
}

func (r *QuestionRepository) pool(ctx context.Context, filter domain.QuestionFilter) ([]domain.Question, error) {
	key := r.poolKey(filter)

	if pool, ok := r.cached(ctx, key); ok {
		return pool, nil
	}

	result, err, _ := r.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if pool, ok := r.cached(ctx, key); ok {
			return pool, nil
		}

		pool, err := r.loader.LoadQuestions(ctx, filter)
		if err != nil {
			return nil, err
		}
		if len(pool) == 0 {
			return nil, domain.ErrNoQuestions
		}

		pipe := r.client.Pipeline()
		for _, q := range pool {
			raw, err := json.Marshal(q)
			if err != nil {
				return nil, fmt.Errorf("encode question %s: %w", q.ID, err)
			}
			pipe.HSet(ctx, key, q.ID, raw)
		}
		if ttl := r.ttlWithJitter(); ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		// the pool is still served when the cache write fails
		_, _ = pipe.Exec(ctx)

		return pool, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (r *QuestionRepository) cached(ctx context.Context, key string) ([]domain.Question, bool) {
	entries, err := r.client.HGetAll(ctx, key).Result()
	if err != nil || len(entries) == 0 {
		return nil, false
	}
	pool, err := decodePool(entries)
	if err != nil {
		return nil, false
	}
	return pool, true
}

func (r *QuestionRepository) poolKey(filter domain.QuestionFilter) string {
	return "questions:" + filter.Key()
}

func decodePool(entries map[string]string) ([]domain.Question, error) {
	pool := make([]domain.Question, 0, len(entries))
	for id, raw := range entries {
		var q domain.Question
		if err := json.Unmarshal([]byte(raw), &q); err != nil {
			return nil, fmt.Errorf("decode question %s: %w", id, err)
		}
		pool = append(pool, q)
	}
	// hash iteration order is random; keep pools stable before sampling
	sort.Slice(pool, func(i, j int) bool { return pool[i].ID < pool[j].ID })
	return pool, nil
}

func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
