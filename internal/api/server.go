// Package api exposes the subscriber-facing HTTP endpoints: config
// management, subscribe/unsubscribe and the latest tee sheet snapshot.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"teewatch/internal/links"
	"teewatch/internal/metrics"
	"teewatch/internal/model"
	"teewatch/internal/storage"
)

// ConfigStore is the persistence the API needs for user configs.
type ConfigStore interface {
	GetUserConfig(email string) (model.UserConfig, bool, error)
	PutUserConfig(item model.ConfigItem) error
	DeleteUserConfig(email string) error
}

// RunSource exposes the most recent published run.
type RunSource interface {
	LatestRun() (*storage.RunRecord, error)
}

// Mailer sends the account emails the API triggers.
type Mailer interface {
	SendWelcome(ctx context.Context, userEmail, configURL string) error
	SendLink(ctx context.Context, userEmail, subject, url string) error
}

// HTTPServer handles the subscriber API.
type HTTPServer struct {
	store         ConfigStore
	runs          RunSource
	links         *links.Handler
	mailer        Mailer
	publicBaseURL string
	log           *zerolog.Logger
}

// NewHTTPServer wires the API handlers.
func NewHTTPServer(store ConfigStore, runs RunSource, linkHandler *links.Handler, mailer Mailer, publicBaseURL string, log *zerolog.Logger) *HTTPServer {
	return &HTTPServer{
		store:         store,
		runs:          runs,
		links:         linkHandler,
		mailer:        mailer,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		log:           log,
	}
}

// Router returns the API mux.
func (s *HTTPServer) Router() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/config/", s.handleConfig)
	mux.HandleFunc("/api/subscribe", s.handleSubscribe)
	mux.HandleFunc("/api/unsubscribe", s.handleUnsubscribe)
	mux.HandleFunc("/api/teetimes/latest", s.handleLatestTeeTimes)
	return mux
}

// ConfigResponse is the response for GET /api/config/{email}.
type ConfigResponse struct {
	Email      string           `json:"email"`
	Subscribed bool             `json:"subscribed"`
	Config     model.UserConfig `json:"config"`
}

// handleConfig reads or updates a user's filter settings.
// GET  /api/config/{email}
// POST /api/config/{email} with a partial config body
func (s *HTTPServer) handleConfig(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("config")

	const prefix = "/api/config/"
	email, err := url.PathUnescape(strings.TrimPrefix(r.URL.Path, prefix))
	if err != nil || email == "" || strings.Contains(email, "/") {
		writeError(w, http.StatusBadRequest, "email is required in the path")
		return
	}

	switch r.Method {
	case http.MethodGet:
		cfg, found, err := s.store.GetUserConfig(email)
		if err != nil {
			s.log.Error().Err(err).Str("user", email).Msg("config lookup failed")
			writeError(w, http.StatusInternalServerError, "config lookup failed")
			return
		}
		writeJSON(w, http.StatusOK, ConfigResponse{Email: email, Subscribed: found, Config: cfg})

	case http.MethodPost:
		var patch model.UserConfigPatch
		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&patch); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		current, _, err := s.store.GetUserConfig(email)
		if err != nil {
			s.log.Error().Err(err).Str("user", email).Msg("config lookup failed")
			writeError(w, http.StatusInternalServerError, "config lookup failed")
			return
		}

		updated, err := patch.Apply(current)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		if err := s.store.PutUserConfig(updated.Item(email)); err != nil {
			s.log.Error().Err(err).Str("user", email).Msg("config save failed")
			writeError(w, http.StatusInternalServerError, "config save failed")
			return
		}

		s.log.Info().Str("user", email).Msg("config updated")
		writeJSON(w, http.StatusOK, ConfigResponse{Email: email, Subscribed: true, Config: updated})

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// SubscribeRequest is the request body for POST /api/subscribe.
type SubscribeRequest struct {
	Email string `json:"email"`
}

// handleSubscribe registers a new user with default settings and sends a
// welcome email. Subscribing an existing user is a no-op.
// POST /api/subscribe
func (s *HTTPServer) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("subscribe")

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req SubscribeRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if !looksLikeEmail(req.Email) {
		writeError(w, http.StatusBadRequest, "a valid email is required")
		return
	}

	_, found, err := s.store.GetUserConfig(req.Email)
	if err != nil {
		s.log.Error().Err(err).Str("user", req.Email).Msg("config lookup failed")
		writeError(w, http.StatusInternalServerError, "subscribe failed")
		return
	}
	if found {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "already_subscribed": true})
		return
	}

	cfg := model.DefaultUserConfig()
	if err := s.store.PutUserConfig(cfg.Item(req.Email)); err != nil {
		s.log.Error().Err(err).Str("user", req.Email).Msg("config save failed")
		writeError(w, http.StatusInternalServerError, "subscribe failed")
		return
	}

	configURL := fmt.Sprintf("%s/api/config/%s", s.publicBaseURL, url.PathEscape(req.Email))
	if err := s.mailer.SendWelcome(r.Context(), req.Email, configURL); err != nil {
		s.log.Warn().Err(err).Str("user", req.Email).Msg("welcome email failed")
	}

	s.log.Info().Str("user", req.Email).Msg("user subscribed")
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// handleUnsubscribe works in two steps. A POST with an email issues a
// one-time confirmation link and mails it to the user. A GET with the token
// from that link removes the user's config.
// POST /api/unsubscribe        {"email": "..."}
// GET  /api/unsubscribe?token=...
func (s *HTTPServer) handleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("unsubscribe")

	switch r.Method {
	case http.MethodPost:
		var req SubscribeRequest
		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		_, found, err := s.store.GetUserConfig(req.Email)
		if err != nil || !found {
			// Do not reveal whether the address is subscribed.
			writeJSON(w, http.StatusOK, map[string]any{"success": true})
			return
		}

		link, err := s.links.Issue(req.Email)
		if err != nil {
			s.log.Error().Err(err).Str("user", req.Email).Msg("issuing unsubscribe link failed")
			writeError(w, http.StatusInternalServerError, "unsubscribe failed")
			return
		}

		confirmURL := fmt.Sprintf("%s/api/unsubscribe?token=%s", s.publicBaseURL, url.QueryEscape(link.ID))
		if err := s.mailer.SendLink(r.Context(), req.Email, "Confirm unsubscribe", confirmURL); err != nil {
			s.log.Error().Err(err).Str("user", req.Email).Msg("unsubscribe email failed")
			writeError(w, http.StatusInternalServerError, "unsubscribe failed")
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"success": true})

	case http.MethodGet:
		token := r.URL.Query().Get("token")
		if token == "" {
			writeError(w, http.StatusBadRequest, "token is required")
			return
		}

		email, err := s.links.Validate(token)
		if err != nil {
			writeError(w, http.StatusBadRequest, "link is invalid or expired")
			return
		}

		if err := s.store.DeleteUserConfig(email); err != nil {
			s.log.Error().Err(err).Str("user", email).Msg("config delete failed")
			writeError(w, http.StatusInternalServerError, "unsubscribe failed")
			return
		}

		s.log.Info().Str("user", email).Msg("user unsubscribed")
		writeJSON(w, http.StatusOK, map[string]any{"success": true})

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// LatestTeeTimesResponse is the response for GET /api/teetimes/latest.
type LatestTeeTimesResponse struct {
	RunID    string           `json:"run_id"`
	TeeTimes []model.TimeSlot `json:"tee_times"`
}

// handleLatestTeeTimes returns everything the last scrape saw, unfiltered.
// GET /api/teetimes/latest
func (s *HTTPServer) handleLatestTeeTimes(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("teetimes_latest")

	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	run, err := s.runs.LatestRun()
	if err != nil {
		s.log.Error().Err(err).Msg("latest run lookup failed")
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	if run == nil {
		writeJSON(w, http.StatusOK, LatestTeeTimesResponse{TeeTimes: []model.TimeSlot{}})
		return
	}

	slots := run.AllSlots
	if slots == nil {
		slots = []model.TimeSlot{}
	}
	writeJSON(w, http.StatusOK, LatestTeeTimesResponse{RunID: run.ID, TeeTimes: slots})
}

func looksLikeEmail(s string) bool {
	at := strings.Index(s, "@")
	return at > 0 && at < len(s)-1 && !strings.ContainsAny(s, " /")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
