// internal/session/store.go
package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"career-advisor/internal/common/database"
	"career-advisor/internal/common/errors"
	"career-advisor/internal/common/logger"
	"career-advisor/internal/common/metrics"
)

const keyPrefix = "session:"

// Store persists sessions in Redis with a TTL.
type Store struct {
	redis  *database.RedisClient
	ttl    time.Duration
	logger logger.Logger
}

func NewStore(rdb *database.RedisClient, ttl time.Duration, log logger.Logger) *Store {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Store{redis: rdb, ttl: ttl, logger: log}
}

func key(userID string) string {
	return keyPrefix + userID
}

// Load returns the stored session, or a fresh MainMenu session when the
// key is missing or expired.
func (s *Store) Load(ctx context.Context, userID string) (*Session, error) {
	raw, err := s.redis.Get(ctx, key(userID))
	if err == redis.Nil {
		return New(userID), nil
	}
	if err != nil {
		return nil, errors.NewPersistenceError("session_load", err)
	}

	var sess Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		// Corrupt payload: start over rather than wedge the user.
		s.logger.Warn("Discarding corrupt session", map[string]interface{}{
			"userId": userID,
			"error":  err.Error(),
		})
		return New(userID), nil
	}
	return &sess, nil
}

// Save writes the session back under the store TTL.
func (s *Store) Save(ctx context.Context, sess *Session) error {
	sess.UpdatedAt = time.Now().UTC()
	raw, err := json.Marshal(sess)
	if err != nil {
		return errors.NewPersistenceError("session_save", err)
	}
	if err := s.redis.Set(ctx, key(sess.UserID), raw, s.ttl); err != nil {
		return errors.NewPersistenceError("session_save", err)
	}
	s.trackActive(ctx)
	return nil
}

// SaveIfVersion writes the session only when the stored version still
// matches expectedVersion. A mismatch means the user reset or replaced
// the session while an operation was in flight; the stored session wins
// and SESSION_CONFLICT is returned.
func (s *Store) SaveIfVersion(ctx context.Context, sess *Session, expectedVersion string) error {
	current, err := s.Load(ctx, sess.UserID)
	if err != nil {
		return err
	}
	if current.Version != expectedVersion {
		return errors.NewSessionConflictError(sess.UserID)
	}
	return s.Save(ctx, sess)
}

// Delete removes the session key.
func (s *Store) Delete(ctx context.Context, userID string) error {
	if err := s.redis.Del(ctx, key(userID)); err != nil {
		return errors.NewPersistenceError("session_delete", err)
	}
	s.trackActive(ctx)
	return nil
}

// trackActive refreshes the live-session gauge. Sessions get a
// dedicated Redis database, so DBSIZE is the session count.
func (s *Store) trackActive(ctx context.Context) {
	if n, err := s.redis.Client.DBSize(ctx).Result(); err == nil {
		metrics.ActiveSessions.Set(float64(n))
	}
}
