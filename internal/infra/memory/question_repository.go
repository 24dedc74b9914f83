package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"vocab-quiz-service/internal/domain"
)

// QuestionLoader fetches the pool of questions matching a filter from a backing store.
type QuestionLoader interface {
	LoadQuestions(ctx context.Context, filter domain.QuestionFilter) ([]domain.Question, error)
}

// QuestionRepository caches question pools with TTL to avoid repeated DB hits
// and samples a batch from the pool for every session.
type QuestionRepository struct {
	loader    QuestionLoader
	ttl       time.Duration
	batchSize int
	clock     func() time.Time
	sf        singleflight.Group

	mu    sync.Mutex
	rnd   *rand.Rand
	cache map[string]cachedPool
}

type cachedPool struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewQuestionRepository(loader QuestionLoader, ttl time.Duration, batchSize int) *QuestionRepository {
	return &QuestionRepository{
		loader:    loader,
		ttl:       ttl,
		batchSize: batchSize,
		clock:     time.Now,
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:     make(map[string]cachedPool),
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
	return Sample(pool, r.batchSize, r.rnd), nil
}

func (r *QuestionRepository) pool(ctx context.Context, filter domain.QuestionFilter) ([]domain.Question, error) {
	key := filter.Key()
	if pool, ok := r.cached(key); ok {
		return pool, nil
	}

	result, err, _ := r.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if pool, ok := r.cached(key); ok {
			return pool, nil
		}

		pool, err := r.loader.LoadQuestions(ctx, filter)
		if err != nil {
			return nil, err
		}
		if len(pool) == 0 {
			return nil, domain.ErrNoQuestions
		}

		r.mu.Lock()
		r.cache[key] = cachedPool{
			questions: pool,
			expiresAt: r.clock().Add(r.ttlWithJitterLocked()),
		}
		r.mu.Unlock()
		return pool, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (r *QuestionRepository) cached(key string) ([]domain.Question, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.cache[key]
	if !ok || !entry.expiresAt.After(r.clock()) {
		return nil, false
	}
	return entry.questions, true
}

func (r *QuestionRepository) ttlWithJitterLocked() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// Sample returns up to size questions from pool in random order. A size of
// zero or less returns the whole pool shuffled. pool is not modified.
func Sample(pool []domain.Question, size int, rnd *rand.Rand) []domain.Question {
	out := append([]domain.Question(nil), pool...)
	rnd.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	if size > 0 && size < len(out) {
		out = out[:size]
	}
	return out
}

// StaticQuestionLoader is a simple loader backed by an in-memory slice (useful for tests/demos).
type StaticQuestionLoader struct {
	questions []domain.Question
}

func NewStaticQuestionLoader(questions []domain.Question) *StaticQuestionLoader {
	return &StaticQuestionLoader{questions: questions}
}

func (l *StaticQuestionLoader) LoadQuestions(_ context.Context, filter domain.QuestionFilter) ([]domain.Question, error) {
	var out []domain.Question
	for _, q := range l.questions {
		if filter.Matches(q) {
			out = append(out, q)
		}
	}
	return out, nil
}
