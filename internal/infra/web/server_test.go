//go:build !integration

package web

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"telegram-number-market/internal/application"
	"telegram-number-market/internal/domain"
	"telegram-number-market/internal/domain/model"
)

type stubBroadcaster struct {
	sent int
	err  error
	last string
}

func (s *stubBroadcaster) Broadcast(_ context.Context, text string) (int, error) {
	s.last = text
	return s.sent, s.err
}

type stubArchive struct {
	items []*model.Listing
	err   error
}

func (s *stubArchive) Save(context.Context, *model.Listing) error { return nil }

func (s *stubArchive) ListRecent(_ context.Context, limit int) ([]*model.Listing, error) {
	if s.err != nil {
		return nil, s.err
	}
	if limit < len(s.items) {
		return s.items[:limit], nil
	}
	return s.items, nil
}

func newTestServer(t *testing.T, bc *stubBroadcaster, archive *stubArchive) *Server {
	t.Helper()
	logger := zerolog.Nop()
	facade := application.NewBotFacade(nil, bc)
	auth := NewAuthManager("test-secret", time.Minute)
	if archive == nil {
		return NewServer(facade, nil, auth, "test-key", &logger)
	}
	return NewServer(facade, archive, auth, "test-key", &logger)
}

func login(t *testing.T, h http.Handler, apiKey string) (string, int) {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"api_key": apiKey})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		return "", rec.Code
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	return resp["token"], rec.Code
}

func TestHealthz(t *testing.T) {
	h := newTestServer(t, &stubBroadcaster{}, nil).Router()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestLoginRejectsWrongKey(t *testing.T) {
	h := newTestServer(t, &stubBroadcaster{}, nil).Router()
	if _, code := login(t, h, "wrong-key"); code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", code)
	}
}

func TestAnnounceRequiresToken(t *testing.T) {
	h := newTestServer(t, &stubBroadcaster{}, nil).Router()
	body, _ := json.Marshal(map[string]string{"text": "hello"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/announce", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAnnounceHappyPath(t *testing.T) {
	bc := &stubBroadcaster{sent: 3}
	h := newTestServer(t, bc, nil).Router()
	token, code := login(t, h, "test-key")
	if code != http.StatusOK {
		t.Fatalf("login failed with %d", code)
	}

	body, _ := json.Marshal(map[string]string{"text": "  важное объявление  "})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/announce", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["sent"] != 3 {
		t.Fatalf("expected sent=3, got %d", resp["sent"])
	}
	if bc.last != "важное объявление" {
		t.Fatalf("expected trimmed text, got %q", bc.last)
	}
}

func TestAnnounceNoTargets(t *testing.T) {
	bc := &stubBroadcaster{err: domain.ErrNoTargets}
	h := newTestServer(t, bc, nil).Router()
	token, _ := login(t, h, "test-key")

	body, _ := json.Marshal(map[string]string{"text": "hello"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/announce", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestListingsWithoutArchive(t *testing.T) {
	h := newTestServer(t, &stubBroadcaster{}, nil).Router()
	token, _ := login(t, h, "test-key")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/listings", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotImplemented {
		t.Fatalf("expected 501, got %d", rec.Code)
	}
}

func TestListingsReturnsArchived(t *testing.T) {
	archive := &stubArchive{items: []*model.Listing{
		model.NewListing(model.FlowSell, map[string]string{"number": "+7 900 000-00-00"}, "body", 42),
		model.NewListing(model.FlowBuy, map[string]string{"pattern": "888"}, "body2", 43),
	}}
	h := newTestServer(t, &stubBroadcaster{}, archive).Router()
	token, _ := login(t, h, "test-key")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/listings?limit=1", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var items []*model.Listing
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 listing, got %d", len(items))
	}
}

func TestAuthManagerRejectsForeignToken(t *testing.T) {
	mint := NewAuthManager("secret-a", time.Minute)
	verify := NewAuthManager("secret-b", time.Minute)

	token, err := mint.Mint()
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	if _, err := verify.ParseFromRequest(req); err == nil {
		t.Fatal("expected verification to fail for a foreign secret")
	}
}
