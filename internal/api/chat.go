package api

import (
	"io"
	"net/http"
	"strings"

	"github.com/chative-tutor/server/internal/identity"
	"github.com/chative-tutor/server/internal/store"
	"github.com/chative-tutor/server/internal/tutor/model"
	"github.com/chative-tutor/server/internal/tutor/orchestrator"
)

type chatRequest struct {
	Message   string              `json:"message"`
	History   []model.HistoryTurn `json:"history"`
	FirstName string              `json:"firstname"`
	LastName  string              `json:"lastname"`
	UserID    string              `json:"userId"`
	Email     string              `json:"email"`
}

type chatResponse struct {
	TurnID           string      `json:"turnId"`
	Reply            string      `json:"reply"`
	Audio            []byte      `json:"audio"`
	TimeSpentToday   int         `json:"timeSpentToday"`
	Phase            model.Phase `json:"phase,omitempty"`
	BusinessMode     model.Mode  `json:"businessMode,omitempty"`
	UsedBusinessMode bool        `json:"usedBusinessMode"`
	QuotaExceeded    bool        `json:"quotaExceeded"`
}

// Chat answers one learner message with text and synthesized audio.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		Error(w, http.StatusBadRequest, "message is required")
		return
	}

	userID, clientAddr := requester(r, req.UserID)
	profile := identity.ProfileFromContext(r.Context())
	firstName, lastName, email := req.FirstName, req.LastName, req.Email
	if profile != nil {
		firstName = firstNonEmpty(profile.FirstName, firstName)
		lastName = firstNonEmpty(profile.LastName, lastName)
		email = firstNonEmpty(profile.Email, email)
	}

	if userID != "" && h.profiles != nil {
		err := h.profiles.UpsertProfile(r.Context(), store.Profile{
			UserID:    userID,
			FirstName: firstName,
			LastName:  lastName,
			Email:     email,
		})
		if err != nil {
			h.log.Warn().Err(err).Str("user_id", userID).Msg("failed to upsert profile")
		}
	}

	res, err := h.tutor.Turn(r.Context(), model.TurnInput{
		SessionKey: orchestrator.SessionKey(userID, clientAddr),
		UserID:     userID,
		Name:       firstName,
		ClientAddr: clientAddr,
		Message:    req.Message,
		History:    req.History,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	JSON(w, http.StatusOK, chatResponse{
		TurnID:           res.TurnID,
		Reply:            res.Reply,
		Audio:            res.Audio,
		TimeSpentToday:   res.SecondsUsed,
		Phase:            res.Phase,
		BusinessMode:     res.Mode,
		UsedBusinessMode: res.UsedBusinessMode,
		QuotaExceeded:    res.QuotaExceeded,
	})
}

// STT transcribes the multipart "audio" upload. Any failure answers with an
// empty transcript.
func (h *Handler) STT(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("audio")
	if err != nil {
		h.log.Debug().Err(err).Msg("no audio upload")
		JSON(w, http.StatusOK, map[string]string{"text": ""})
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		h.log.Warn().Err(err).Msg("failed to read audio upload")
		JSON(w, http.StatusOK, map[string]string{"text": ""})
		return
	}

	text := h.tutor.Transcribe(r.Context(), audio, header.Filename)
	JSON(w, http.StatusOK, map[string]string{"text": text})
}

type ttsTimeRequest struct {
	Seconds *int   `json:"seconds"`
	UserID  string `json:"userId"`
}

// TTSTime adds listened seconds to today's usage.
func (h *Handler) TTSTime(w http.ResponseWriter, r *http.Request) {
	var req ttsTimeRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.Seconds == nil {
		Error(w, http.StatusBadRequest, "seconds is required")
		return
	}

	userID, clientAddr := requester(r, req.UserID)
	total, err := h.tutor.AddTime(r.Context(), userID, clientAddr, *req.Seconds)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"ok": true, "total": total})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
