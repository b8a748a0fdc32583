package api

import (
	"net/http"

	"github.com/chative-tutor/server/internal/tutor/model"
	"github.com/chative-tutor/server/internal/tutor/orchestrator"
)

type businessModeRequest struct {
	UserID string `json:"userId"`
	Mode   string `json:"mode"`
}

// SetBusinessMode activates a scenario, or clears it with mode "exit".
func (h *Handler) SetBusinessMode(w http.ResponseWriter, r *http.Request) {
	var req businessModeRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	userID, _ := requester(r, req.UserID)
	mode, active, err := h.tutor.SetBusinessMode(r.Context(), userID, req.Mode)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.log.Info().Str("user_id", userID).Str("mode", mode.String()).Bool("active", active).Msg("business mode updated")
	JSON(w, http.StatusOK, map[string]interface{}{"ok": true, "activeMode": activeMode(mode, active)})
}

// GetBusinessMode reports the active scenario and the selectable ones.
func (h *Handler) GetBusinessMode(w http.ResponseWriter, r *http.Request) {
	userID, _ := requester(r, r.URL.Query().Get("userId"))

	var mode model.Mode
	var active bool
	if userID != "" {
		mode, active = h.tutor.BusinessMode(r.Context(), userID)
	}
	JSON(w, http.StatusOK, map[string]interface{}{
		"activeMode": activeMode(mode, active),
		"modes":      h.tutor.Modes(),
	})
}

type phaseRequest struct {
	UserID string `json:"userId"`
	Phase  string `json:"phase"`
}

// SetPhase moves the caller's session to an explicit phase.
func (h *Handler) SetPhase(w http.ResponseWriter, r *http.Request) {
	var req phaseRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	userID, clientAddr := requester(r, req.UserID)
	key := orchestrator.SessionKey(userID, clientAddr)
	if key == "" {
		Error(w, http.StatusBadRequest, "userId is required")
		return
	}

	p, err := h.tutor.SetPhase(r.Context(), key, req.Phase)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"ok": true, "phase": p})
}

// ResetSession drops the caller's session and history.
func (h *Handler) ResetSession(w http.ResponseWriter, r *http.Request) {
	userID, clientAddr := requester(r, r.URL.Query().Get("userId"))
	if err := h.tutor.ResetSession(r.Context(), orchestrator.SessionKey(userID, clientAddr)); err != nil {
		h.writeError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"ok": true})
}

func activeMode(mode model.Mode, active bool) interface{} {
	if !active {
		return nil
	}
	return mode
}
