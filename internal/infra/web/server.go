package web

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"telegram-number-market/internal/application"
	"telegram-number-market/internal/domain"
	"telegram-number-market/internal/domain/ports/repository"
)

// Server exposes the ops surface: health, metrics and a small admin API for
// announcements and the listing archive.
type Server struct {
	facade  *application.BotFacade
	archive repository.ListingArchiveRepository // may be nil
	auth    *AuthManager
	apiKey  string
	log     *zerolog.Logger
}

func NewServer(
	facade *application.BotFacade,
	archive repository.ListingArchiveRepository,
	auth *AuthManager,
	apiKey string,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		facade:  facade,
		archive: archive,
		auth:    auth,
		apiKey:  apiKey,
		log:     logger,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/api/v1/login", s.handleLogin)
	r.Group(func(r chi.Router) {
		r.Use(s.requireAdmin)
		r.Post("/api/v1/announce", s.handleAnnounce)
		r.Get("/api/v1/listings", s.handleListings)
	})

	return r
}

// requireAdmin verifies the JWT minted by /api/v1/login.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := s.auth.ParseFromRequest(r); err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleLogin exchanges the configured API key for a short-lived bearer token.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.apiKey == "" {
		s.log.Error().Msg("admin api key is not configured")
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	var req struct {
		APIKey string `json:"api_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if subtle.ConstantTimeCompare([]byte(req.APIKey), []byte(s.apiKey)) != 1 {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	token, err := s.auth.Mint()
	if err != nil {
		s.log.Error().Err(err).Msg("failed to mint admin token")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleAnnounce(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	sent, err := s.facade.HandleAnnounce(r.Context(), strings.TrimSpace(req.Text))
	if err != nil {
		if errors.Is(err, domain.ErrNoTargets) {
			http.Error(w, "no targets configured", http.StatusConflict)
			return
		}
		s.log.Error().Err(err).Msg("announce failed")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"sent": sent})
}

func (s *Server) handleListings(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		http.Error(w, "listing archive is disabled", http.StatusNotImplemented)
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	items, err := s.archive.ListRecent(r.Context(), limit)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list archived listings")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
