package content

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"edubot/internal/domain"
)

// Store fetches quiz and quest definitions from a backing store.
type Store interface {
	GetQuiz(ctx context.Context, quizID int64) (domain.Quiz, error)
	ListQuizzes(ctx context.Context) ([]domain.Quiz, error)
	GetQuest(ctx context.Context, questID int64) (domain.Quest, error)
	ListQuests(ctx context.Context) ([]domain.Quest, error)
}

// StoreInvalidator is implemented by stores that keep a shared cache of
// their own; Invalidate purges it along with the in-process entries.
type StoreInvalidator interface {
	Invalidate(ctx context.Context) error
}

// Catalog serves read-only content: static informational material compiled
// into the binary, and quiz/quest definitions cached over the store with a
// TTL to avoid repeated DB hits. Concurrent misses for the same key are
// collapsed through singleflight.
type Catalog struct {
	store Store
	ttl   time.Duration
	clock func() time.Time
	sf    singleflight.Group
	rnd   *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedEntry
}

type cachedEntry struct {
	value     interface{}
	expiresAt time.Time
}

func NewCatalog(store Store, ttl time.Duration) *Catalog {
	return &Catalog{
		store:   store,
		ttl:     ttl,
		clock:   time.Now,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:   make(map[string]cachedEntry),
	}
}

func (c *Catalog) GetQuiz(ctx context.Context, quizID int64) (domain.Quiz, error) {
	v, err := c.cached(ctx, fmt.Sprintf("quiz:%d", quizID), func() (interface{}, error) {
		return c.store.GetQuiz(ctx, quizID)
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return v.(domain.Quiz), nil
}

func (c *Catalog) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	v, err := c.cached(ctx, "quizzes", func() (interface{}, error) {
		return c.store.ListQuizzes(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Quiz), nil
}

func (c *Catalog) GetQuest(ctx context.Context, questID int64) (domain.Quest, error) {
	v, err := c.cached(ctx, fmt.Sprintf("quest:%d", questID), func() (interface{}, error) {
		return c.store.GetQuest(ctx, questID)
	})
	if err != nil {
		return domain.Quest{}, err
	}
	return v.(domain.Quest), nil
}

func (c *Catalog) ListQuests(ctx context.Context) ([]domain.Quest, error) {
	v, err := c.cached(ctx, "quests", func() (interface{}, error) {
		return c.store.ListQuests(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Quest), nil
}

// Invalidate drops every cached definition, forcing the next read through
// to the store. Called after admin writes so new content shows up at once.
// A store-level purge failure is swallowed: those entries expire on TTL.
func (c *Catalog) Invalidate() {
	c.mu.Lock()
	c.cache = make(map[string]cachedEntry)
	c.mu.Unlock()

	if inv, ok := c.store.(StoreInvalidator); ok {
		_ = inv.Invalidate(context.Background())
	}
}

func (c *Catalog) cached(_ context.Context, key string, load func() (interface{}, error)) (interface{}, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[key]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.value, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[key]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.value, nil
		}
		c.mu.RUnlock()

		value, err := load()
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.cache[key] = cachedEntry{
			value:     value,
			expiresAt: now.Add(c.ttlWithJitter()),
		}
		c.mu.Unlock()
		return value, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Catalog) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

// ── Static content accessors ──

func (c *Catalog) ListPolls() []domain.Poll {
	return polls
}

func (c *Catalog) ListEducationTopics() []domain.EducationTopic {
	return educationTopics
}

func (c *Catalog) ListCareerQuestions() []domain.CareerQuestion {
	return careerQuestions
}

func (c *Catalog) CareerProfile(tag string) (domain.CareerProfile, bool) {
	p, ok := careerProfiles[tag]
	return p, ok
}

func (c *Catalog) ListDailyFacts() []string {
	return dailyFacts
}
