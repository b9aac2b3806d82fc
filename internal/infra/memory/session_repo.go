package memory

import (
	"context"
	"sync"

	"telegram-number-market/internal/domain"
	"telegram-number-market/internal/domain/ports/repository"
)

var _ repository.SessionRepository = (*SessionRepo)(nil)

// SessionRepo is the default, in-process session store. Sessions are ephemeral
// by design: a restart drops every in-progress dialog.
type SessionRepo struct {
	mu    sync.RWMutex
	store map[int64]*repository.DialogSession
}

func NewSessionRepo() *SessionRepo {
	return &SessionRepo{store: make(map[int64]*repository.DialogSession)}
}

func (r *SessionRepo) Set(ctx context.Context, tgID int64, s *repository.DialogSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.store[tgID] = clone(s)
	return nil
}

func (r *SessionRepo) Get(ctx context.Context, tgID int64) (*repository.DialogSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.store[tgID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return clone(s), nil
}

// clone copies the session including its fields map, so callers can mutate
// their copy without touching the stored one.
func clone(s *repository.DialogSession) *repository.DialogSession {
	cp := *s
	cp.Fields = make(map[string]string, len(s.Fields))
	for k, v := range s.Fields {
		cp.Fields[k] = v
	}
	return &cp
}

func (r *SessionRepo) Clear(ctx context.Context, tgID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.store, tgID)
	return nil
}
