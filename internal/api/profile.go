package api

import (
	"context"
	"net/http"
	"time"
)

type profileResponse struct {
	UserID    string    `json:"userId"`
	FirstName string    `json:"firstname,omitempty"`
	LastName  string    `json:"lastname,omitempty"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// GetProfile returns the stored learner profile.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, _ := requester(r, r.URL.Query().Get("userId"))
	if userID == "" {
		Error(w, http.StatusBadRequest, "userId is required")
		return
	}
	if h.profiles == nil {
		Error(w, http.StatusNotFound, "profile not found")
		return
	}

	p, err := h.profiles.GetProfile(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, profileResponse{
		UserID:    p.UserID,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Email:     p.Email,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	})
}

// Pinger is a dependency that can report its readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

// Readiness answers 503 while any dependency fails its ping.
func Readiness(deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		failed := map[string]string{}
		for name, dep := range deps {
			if err := dep.Ping(ctx); err != nil {
				failed[name] = err.Error()
			}
		}
		if len(failed) > 0 {
			JSON(w, http.StatusServiceUnavailable, map[string]interface{}{"ok": false, "error": "not ready", "failed": failed})
			return
		}
		JSON(w, http.StatusOK, map[string]interface{}{"ok": true})
	}
}
