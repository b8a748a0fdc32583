// Package identity resolves who is speaking: the authenticated learner behind
// a bearer token, and the network origin of the request.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	errx "github.com/chative-tutor/server/internal/core/error"
	logx "github.com/chative-tutor/server/pkg/logger"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

var (
	// ErrUnauthorized is returned for missing, expired or rejected tokens.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrProfileNotFound is returned when the provider answers without a user id.
	ErrProfileNotFound = errors.New("profile not found")
)

// Profile is the learner as known by the identity provider.
type Profile struct {
	UserID    string `json:"userId"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"firstname,omitempty"`
	LastName  string `json:"lastname,omitempty"`
}

// Resolver turns a bearer token into a profile.
type Resolver interface {
	Resolve(ctx context.Context, token string) (*Profile, error)
}

// HTTPResolver calls the provider's /auth/v1/user endpoint and caches results
// per token for a short time.
type HTTPResolver struct {
	baseURL string
	apiKey  string
	client  *http.Client
	cache   *expirable.LRU[string, Profile]
}

func NewHTTPResolver(baseURL, apiKey string, client *http.Client) *HTTPResolver {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPResolver{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  client,
		cache:   expirable.NewLRU[string, Profile](1024, nil, 5*time.Minute),
	}
}

type providerUser struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	UserMetadata struct {
		FirstName string `json:"firstname"`
		LastName  string `json:"lastname"`
	} `json:"user_metadata"`
}

func (h *HTTPResolver) Resolve(ctx context.Context, token string) (*Profile, error) {
	if token == "" {
		return nil, errx.Unauthorized(ErrUnauthorized)
	}
	if p, ok := h.cache.Get(token); ok {
		return &p, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if h.apiKey != "" {
		req.Header.Set("apikey", h.apiKey)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, errx.New(err, http.StatusBadGateway, "identity provider unreachable")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read identity response: %w", err)
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, errx.Unauthorized(ErrUnauthorized)
	case resp.StatusCode != http.StatusOK:
		cause := fmt.Errorf("identity provider responded %d", resp.StatusCode)
		return nil, errx.New(cause, http.StatusBadGateway, "identity provider error")
	}

	var u providerUser
	if err := json.Unmarshal(body, &u); err != nil {
		return nil, fmt.Errorf("decode identity response: %w", err)
	}
	if u.ID == "" {
		return nil, errx.NotFound(ErrProfileNotFound, "profile not found")
	}

	p := Profile{
		UserID:    u.ID,
		Email:     u.Email,
		FirstName: u.UserMetadata.FirstName,
		LastName:  u.UserMetadata.LastName,
	}
	h.cache.Add(token, p)
	return &p, nil
}

type contextKey int

const (
	profileKey contextKey = iota
	clientAddrKey
)

// ProfileFromContext returns the authenticated profile, nil for anonymous requests.
func ProfileFromContext(ctx context.Context) *Profile {
	if p, ok := ctx.Value(profileKey).(*Profile); ok {
		return p
	}
	return nil
}

// ClientAddrFromContext returns the address stored by Middleware.
func ClientAddrFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(clientAddrKey).(string); ok {
		return v
	}
	return ""
}

// ClientAddr returns the first X-Forwarded-For hop, else the remote host.
func ClientAddr(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// Middleware stores the client address and, when a bearer token resolves,
// the learner profile in the request context. With required set, requests
// without a valid token are rejected.
func Middleware(resolver Resolver, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), clientAddrKey, ClientAddr(r))

			token := bearerToken(r)
			if token != "" && resolver != nil {
				p, err := resolver.Resolve(ctx, token)
				if err != nil {
					logx.Warn().Err(err).Msg("failed to resolve bearer token")
				} else {
					ctx = context.WithValue(ctx, profileKey, p)
				}
			}

			if required && ProfileFromContext(ctx) == nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]interface{}{"ok": false, "error": ErrUnauthorized.Error()})
				return
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
