package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"quizpal-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// QuestionLister is the inner repository the cache falls back to on a miss.
type QuestionLister interface {
	ListByCategory(ctx context.Context, categoryID, difficulty string) ([]domain.Question, error)
}

// QuestionCache caches the question list per (category, difficulty) pair as a
// JSON blob: SET questions:{categoryID}:{difficulty} with TTL. Admin writes go
// through the uncached repository, so entries are refreshed only on expiry.
type QuestionCache struct {
	client *redis.Client
	inner  QuestionLister
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewQuestionCache(client *redis.Client, inner QuestionLister, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		client: client,
		inner:  inner,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuestionCache) ListByCategory(ctx context.Context, categoryID, difficulty string) ([]domain.Question, error) {
	key := c.key(categoryID, difficulty)

	if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var questions []domain.Question
		if err := json.Unmarshal(raw, &questions); err == nil {
			return questions, nil
		}
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
			var questions []domain.Question
			if err := json.Unmarshal(raw, &questions); err == nil {
				return questions, nil
			}
		}

		questions, err := c.inner.ListByCategory(ctx, categoryID, difficulty)
		if err != nil {
			return nil, err
		}

		if raw, err := json.Marshal(questions); err == nil {
			_ = c.client.Set(ctx, key, raw, c.ttlWithJitter()).Err()
		}
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (c *QuestionCache) key(categoryID, difficulty string) string {
	if difficulty == "" {
		difficulty = "any"
	}
	return "questions:" + categoryID + ":" + difficulty
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
