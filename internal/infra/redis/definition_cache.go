package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"edubot/internal/content"
	"edubot/internal/domain"
)

// DefinitionCache caches quiz and quest definitions in Redis as JSON blobs
// and falls back to the wrapped store on a miss. It sits between the
// database loader and the in-process catalog, so a fleet of instances
// shares one warm cache. Concurrent misses for a key are collapsed with
// singleflight; entries expire with jitter to spread reloads.
type DefinitionCache struct {
	client *redis.Client
	store  content.Store
	ttl    time.Duration
	sf     singleflight.Group
}

func NewDefinitionCache(client *redis.Client, store content.Store, ttl time.Duration) *DefinitionCache {
	return &DefinitionCache{
		client: client,
		store:  store,
		ttl:    ttl,
	}
}

func (c *DefinitionCache) GetQuiz(ctx context.Context, quizID int64) (domain.Quiz, error) {
	var quiz domain.Quiz
	err := c.cached(ctx, fmt.Sprintf("bot:quiz:%d", quizID), &quiz, func() (interface{}, error) {
		return c.store.GetQuiz(ctx, quizID)
	})
	return quiz, err
}

func (c *DefinitionCache) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	var quizzes []domain.Quiz
	err := c.cached(ctx, "bot:quizzes", &quizzes, func() (interface{}, error) {
		return c.store.ListQuizzes(ctx)
	})
	return quizzes, err
}

func (c *DefinitionCache) GetQuest(ctx context.Context, questID int64) (domain.Quest, error) {
	var quest domain.Quest
	err := c.cached(ctx, fmt.Sprintf("bot:quest:%d", questID), &quest, func() (interface{}, error) {
		return c.store.GetQuest(ctx, questID)
	})
	return quest, err
}

func (c *DefinitionCache) ListQuests(ctx context.Context) ([]domain.Quest, error) {
	var quests []domain.Quest
	err := c.cached(ctx, "bot:quests", &quests, func() (interface{}, error) {
		return c.store.ListQuests(ctx)
	})
	return quests, err
}

// Invalidate drops the cached definition keys after an admin write.
func (c *DefinitionCache) Invalidate(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, "bot:quiz*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan definitions: %w", err)
	}
	questIter := c.client.Scan(ctx, 0, "bot:quest*", 0).Iterator()
	for questIter.Next(ctx) {
		keys = append(keys, questIter.Val())
	}
	if err := questIter.Err(); err != nil {
		return fmt.Errorf("scan definitions: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("drop definitions: %w", err)
	}
	return nil
}

func (c *DefinitionCache) cached(ctx context.Context, key string, out interface{}, load func() (interface{}, error)) error {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		if err := json.Unmarshal(raw, out); err == nil {
			return nil
		}
		// corrupt entry, reload below
	} else if !errors.Is(err, redis.Nil) {
		// Redis down: degrade to the store rather than failing the event.
		value, err := load()
		if err != nil {
			return err
		}
		return remarshal(value, out)
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check in case another goroutine filled it.
		if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
			return raw, nil
		}

		value, err := load()
		if err != nil {
			return nil, err
		}
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		// best-effort write; a failed SET only costs the next reader a reload
		_ = c.client.Set(ctx, key, encoded, c.ttlWithJitter()).Err()
		return encoded, nil
	})
	if err != nil {
		return err
	}
	return json.Unmarshal(result.([]byte), out)
}

func remarshal(value, out interface{}) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(encoded, out)
}

// ttlWithJitter adds up to 10% to the TTL. The top-level rand functions
// are safe under the concurrent misses singleflight lets through for
// distinct keys.
func (c *DefinitionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(rand.Int63n(jitterMax+1))
}
