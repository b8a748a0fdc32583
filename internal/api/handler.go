// Package api provides the HTTP handlers of the tutor.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	errx "github.com/chative-tutor/server/internal/core/error"
	"github.com/chative-tutor/server/internal/identity"
	"github.com/chative-tutor/server/internal/store"
	"github.com/chative-tutor/server/internal/tutor/model"
	logx "github.com/chative-tutor/server/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// maxUploadBytes matches the transcription provider's upload limit.
const maxUploadBytes = 25 << 20

// Tutor is the orchestrator surface the handlers drive.
type Tutor interface {
	Turn(ctx context.Context, in model.TurnInput) (*model.TurnResult, error)
	AddTime(ctx context.Context, userID, clientAddr string, seconds int) (int, error)
	Transcribe(ctx context.Context, audio []byte, filename string) string
	SetPhase(ctx context.Context, sessionKey, raw string) (model.Phase, error)
	ResetSession(ctx context.Context, sessionKey string) error
	SetBusinessMode(ctx context.Context, userID, raw string) (model.Mode, bool, error)
	BusinessMode(ctx context.Context, userID string) (model.Mode, bool)
	Modes() []model.Mode
}

// ProfileStore persists learner profiles sent with chat turns.
type ProfileStore interface {
	UpsertProfile(ctx context.Context, p store.Profile) error
	GetProfile(ctx context.Context, userID string) (*store.Profile, error)
}

// Handler serves the tutor endpoints.
type Handler struct {
	tutor    Tutor
	profiles ProfileStore
	log      zerolog.Logger
}

// NewHandler creates a Handler. profiles may be nil.
func NewHandler(tutor Tutor, profiles ProfileStore) *Handler {
	return &Handler{
		tutor:    tutor,
		profiles: profiles,
		log:      logx.WithComponent("api"),
	}
}

// RegisterRoutes registers the tutor routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/stt", h.STT)
	r.Post("/chat", h.Chat)
	r.Post("/ttsTime", h.TTSTime)
	r.Get("/business-mode", h.GetBusinessMode)
	r.Post("/business-mode", h.SetBusinessMode)
	r.Post("/session/phase", h.SetPhase)
	r.Delete("/session", h.ResetSession)
	r.Get("/profile", h.GetProfile)
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]interface{}{"ok": false, "error": message})
}

// writeError maps err through errx to a status and a client safe message.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errx.StatusOf(err)
	if status >= http.StatusInternalServerError {
		h.log.Error().Err(err).Str("path", r.URL.Path).Int("status", status).Msg("request failed")
	}
	Error(w, status, errx.MessageOf(err))
}

func decode(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errx.New(err, http.StatusBadRequest, "invalid request body")
	}
	return nil
}

// requester returns the authenticated user id when present, else the id the
// client sent, together with the client address.
func requester(r *http.Request, bodyUserID string) (userID, clientAddr string) {
	clientAddr = identity.ClientAddrFromContext(r.Context())
	if clientAddr == "" {
		clientAddr = identity.ClientAddr(r)
	}
	if p := identity.ProfileFromContext(r.Context()); p != nil && p.UserID != "" {
		return p.UserID, clientAddr
	}
	return bodyUserID, clientAddr
}
