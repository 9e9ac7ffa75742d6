package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"math/rand"
	"sync"
	"time"

	"quiz-session/internal/domain"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// QuizLoader fetches a quiz document from its provider.
type QuizLoader interface {
	LoadQuiz(ctx context.Context, source string) (domain.Quiz, error)
}

// QuizRepository caches whole quiz documents in Redis and falls back to a loader on miss.
// Documents are stored as: SET quiz:doc:{source} {json} EX {ttl}
// Redis errors degrade to a direct load; the cache never fails a fetch on its own.
type QuizRepository struct {
	client *redis.Client
	loader QuizLoader
	ttl    time.Duration
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewQuizRepository(client *redis.Client, loader QuizLoader, ttl time.Duration) *QuizRepository {
	return &QuizRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// GetQuiz returns the cached document or fetches it. The shared fetch runs
// detached from any single caller; a caller whose ctx ends returns alone.
func (r *QuizRepository) GetQuiz(ctx context.Context, source string) (domain.Quiz, error) {
	if quiz, ok := r.cached(ctx, source); ok {
		return quiz, nil
	}

	fetchCtx := context.WithoutCancel(ctx)
	ch := r.sf.DoChan(source, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if quiz, ok := r.cached(fetchCtx, source); ok {
			return quiz, nil
		}

		quiz, err := r.loader.LoadQuiz(fetchCtx, source)
		if err != nil {
			return domain.Quiz{}, err
		}

		if ttl := r.ttlWithJitter(); ttl > 0 {
			data, err := json.Marshal(quiz)
			if err == nil {
				err = r.client.Set(fetchCtx, r.key(source), data, ttl).Err()
			}
			if err != nil {
				log.Printf("quiz cache write failed for %s: %v", source, err)
			}
		}
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
func (r *QuizRepository) Invalidate(ctx context.Context, source string) error {
	return r.client.Del(ctx, r.key(source)).Err()
}

func (r *QuizRepository) cached(ctx context.Context, source string) (domain.Quiz, bool) {
	data, err := r.client.Get(ctx, r.key(source)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("quiz cache read failed for %s: %v", source, err)
		}
		return domain.Quiz{}, false
	}
	var quiz domain.Quiz
	if err := json.Unmarshal(data, &quiz); err != nil {
		log.Printf("quiz cache entry for %s is corrupt: %v", source, err)
		return domain.Quiz{}, false
	}
	return quiz, true
}

func (r *QuizRepository) key(source string) string {
	return "quiz:doc:" + source
}

func (r *QuizRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
