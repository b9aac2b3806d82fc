package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"telegram-number-market/internal/domain"
	"telegram-number-market/internal/domain/ports/repository"
)

var _ repository.SessionRepository = (*SessionRepo)(nil)

// SessionRepo keeps dialog sessions in Redis. The TTL gives users a generous
// window to finish a dialog, including the wait at the subscription gate.
type SessionRepo struct {
	client RedisClient
	ttl    time.Duration
}

func NewSessionRepo(client RedisClient, ttl time.Duration) *SessionRepo {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SessionRepo{client: client, ttl: ttl}
}

func (r *SessionRepo) sessionKey(tgID int64) string {
	return fmt.Sprintf("dialog_session:%d", tgID)
}

func (r *SessionRepo) Set(ctx context.Context, tgID int64, s *repository.DialogSession) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.sessionKey(tgID), data, r.ttl)
}

func (r *SessionRepo) Get(ctx context.Context, tgID int64) (*repository.DialogSession, error) {
	data, err := r.client.Get(ctx, r.sessionKey(tgID))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	var s repository.DialogSession
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SessionRepo) Clear(ctx context.Context, tgID int64) error {
	return r.client.Del(ctx, r.sessionKey(tgID))
}
