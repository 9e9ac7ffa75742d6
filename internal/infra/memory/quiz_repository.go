package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"quiz-session/internal/domain"

	"golang.org/x/sync/singleflight"
)

// QuizLoader fetches a quiz document from its provider.
type QuizLoader interface {
	LoadQuiz(ctx context.Context, source string) (domain.Quiz, error)
}

// QuizRepository caches quiz documents per source with a TTL.
// A zero TTL disables caching; concurrent fetches are still collapsed.
type QuizRepository struct {
	loader QuizLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedQuiz
}

type cachedQuiz struct {
	quiz      domain.Quiz
	expiresAt time.Time
}

func NewQuizRepository(loader QuizLoader, ttl time.Duration) *QuizRepository {
	return &QuizRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedQuiz),
	}
}

// GetQuiz returns the cached document or fetches it. The shared fetch runs
// detached from any single caller; a caller whose ctx ends returns alone.
func (r *QuizRepository) GetQuiz(ctx context.Context, source string) (domain.Quiz, error) {
	if quiz, ok := r.cached(source); ok {
		return quiz, nil
	}

	fetchCtx := context.WithoutCancel(ctx)
	ch := r.sf.DoChan(source, func() (interface{}, error) {
		if quiz, ok := r.cached(source); ok {
			return quiz, nil
		}

		quiz, err := r.loader.LoadQuiz(fetchCtx, source)
		if err != nil {
			return domain.Quiz{}, err
		}
		if r.ttl <= 0 {
			return quiz, nil
		}

		r.mu.Lock()
		r.cache[source] = cachedQuiz{
			quiz:      quiz,
			expiresAt: r.clock().Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return quiz, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return domain.Quiz{}, res.Err
		}
		return res.Val.(domain.Quiz), nil
	case <-ctx.Done():
		return domain.Quiz{}, ctx.Err()
	}
}

// Invalidate drops the cached document for source.
func (r *QuizRepository) Invalidate(_ context.Context, source string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cache, source)
	return nil
}

func (r *QuizRepository) cached(source string) (domain.Quiz, bool) {
	now := r.clock()
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[source]
	if !ok || !entry.expiresAt.After(now) {
		return domain.Quiz{}, false
	}
	return entry.quiz, true
}

// StaticQuizLoader is a simple loader backed by an in-memory map (useful for tests/demos).
type StaticQuizLoader struct {
	quizzes map[string]domain.Quiz
}

func NewStaticQuizLoader(quizzes map[string]domain.Quiz) *StaticQuizLoader {
	return &StaticQuizLoader{quizzes: quizzes}
}

func (l *StaticQuizLoader) LoadQuiz(_ context.Context, source string) (domain.Quiz, error) {
	if quiz, ok := l.quizzes[source]; ok {
		return quiz, nil
	}
	return domain.Quiz{}, domain.ErrQuizNotFound
}

func (r *QuizRepository) ttlWithJitter() time.Duration {
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
