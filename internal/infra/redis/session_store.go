package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"edubot/internal/app"
)

// SessionStore keeps each user's session as one JSON blob in Redis, so any
// instance can pick up the conversation. The TTL acts as an idle timeout:
// a user who goes silent long enough simply starts from the main menu.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

func (s *SessionStore) Load(ctx context.Context, userID int64) (*app.Session, error) {
	raw, err := s.client.Get(ctx, s.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	var sess app.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		// A corrupt blob is unrecoverable; start the user over.
		return nil, nil
	}
	return &sess, nil
}

func (s *SessionStore) Save(ctx context.Context, userID int64, sess *app.Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.client.Set(ctx, s.key(userID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *SessionStore) Clear(ctx context.Context, userID int64) error {
	if err := s.client.Del(ctx, s.key(userID)).Err(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (s *SessionStore) key(userID int64) string {
	return fmt.Sprintf("bot:session:%d", userID)
}
