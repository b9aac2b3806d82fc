//go:build !integration

package usecase

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"telegram-number-market/internal/domain"
	"telegram-number-market/internal/domain/ports/adapter"
	"telegram-number-market/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// memSessionRepo is a small in-memory implementation used by unit tests.
type memSessionRepo struct {
	mu     sync.RWMutex
	store  map[int64]*repository.DialogSession
	setErr error // used by tests to simulate save failures
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{store: make(map[int64]*repository.DialogSession)}
}

func (m *memSessionRepo) Set(ctx context.Context, tgID int64, s *repository.DialogSession) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	cp.Fields = make(map[string]string, len(s.Fields))
	for k, v := range s.Fields {
		cp.Fields[k] = v
	}
	m.store[tgID] = &cp
	return nil
}

func (m *memSessionRepo) Get(ctx context.Context, tgID int64) (*repository.DialogSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.store[tgID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	cp.Fields = make(map[string]string, len(s.Fields))
	for k, v := range s.Fields {
		cp.Fields[k] = v
	}
	return &cp, nil
}

func (m *memSessionRepo) Clear(ctx context.Context, tgID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, tgID)
	return nil
}

// mockGateway records sends and answers membership lookups from a fixture map.
type mockGateway struct {
	mu sync.Mutex

	// membership fixtures keyed by "<chat>:<user>"
	members map[string]adapter.ChatMemberInfo
	// per-target send errors; the error is consumed after one use when
	// onceErrs is set for that target, so a retry succeeds
	sendErrs map[string]error
	onceErrs map[string]bool

	sent       []adapter.SendMessageParams
	memberErr  error
	botID      int64
	lookupLogs []string
}

func newMockGateway() *mockGateway {
	return &mockGateway{
		members:  make(map[string]adapter.ChatMemberInfo),
		sendErrs: make(map[string]error),
		onceErrs: make(map[string]bool),
		botID:    999,
	}
}

func memberKey(chat adapter.ChatRef, userID int64) string {
	return chat.String() + ":" + adapter.ChatRef{ID: userID}.String()
}

func (m *mockGateway) setMember(chat adapter.ChatRef, userID int64, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.members[memberKey(chat, userID)] = adapter.ChatMemberInfo{Status: status, CanSendMessages: true}
}

func (m *mockGateway) failSend(target adapter.ChatRef, err error, once bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sendErrs[target.String()] = err
	m.onceErrs[target.String()] = once
}

func (m *mockGateway) SendMessage(ctx context.Context, params adapter.SendMessageParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := params.Chat.String()
	if err, ok := m.sendErrs[key]; ok && err != nil {
		if m.onceErrs[key] {
			delete(m.sendErrs, key)
		}
		return err
	}
	m.sent = append(m.sent, params)
	return nil
}

func (m *mockGateway) GetChatMember(ctx context.Context, chat adapter.ChatRef, userID int64) (adapter.ChatMemberInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookupLogs = append(m.lookupLogs, chat.String())
	if m.memberErr != nil {
		return adapter.ChatMemberInfo{}, m.memberErr
	}
	info, ok := m.members[memberKey(chat, userID)]
	if !ok {
		return adapter.ChatMemberInfo{Status: "left"}, nil
	}
	return info, nil
}

func (m *mockGateway) BotID() int64 { return m.botID }

func (m *mockGateway) sentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func (m *mockGateway) sentTexts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.sent))
	for _, p := range m.sent {
		out = append(out, p.Text)
	}
	return out
}

// mockGate returns a scripted missing-channel list and counts calls.
type mockGate struct {
	mu      sync.Mutex
	missing []adapter.ChatRef
	calls   int
}

func (g *mockGate) MissingChannels(ctx context.Context, userID int64) []adapter.ChatRef {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	return g.missing
}

func (g *mockGate) setMissing(refs ...adapter.ChatRef) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.missing = refs
}

func (g *mockGate) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

// mockBroadcaster records broadcast texts and returns scripted results.
type mockBroadcaster struct {
	mu    sync.Mutex
	sent  int
	err   error
	texts []string
}

func (b *mockBroadcaster) Broadcast(ctx context.Context, text string) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return 0, b.err
	}
	b.texts = append(b.texts, text)
	return b.sent, nil
}

func (b *mockBroadcaster) broadcastCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.texts)
}
