package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/swassyman/heart/internal/contracts"
)

func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return &contracts.ValidationError{Entity: "request", Field: "body", Reason: "required"}
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return &contracts.ValidationError{Entity: "request", Field: "body", Reason: err.Error()}
	}
	return nil
}

// StatusOf maps the error taxonomy onto HTTP status codes.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, contracts.ErrCorrupt):
		return http.StatusInternalServerError
	case errors.Is(err, contracts.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, contracts.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, contracts.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, contracts.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, contracts.ErrTransport):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// WriteError writes err as {"error": ...}. Server-side failures are logged
// and their detail is not echoed to the client.
func WriteError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := StatusOf(err)
	message := err.Error()
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err)
		message = http.StatusText(status)
	}
	WriteJSON(w, status, map[string]any{"error": message})
}

type userKey struct{}

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user contracts.User) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

func UserFrom(ctx context.Context) (contracts.User, bool) {
	user, ok := ctx.Value(userKey{}).(contracts.User)
	return user, ok
}

// TokenVerifier turns a bearer token into the user it was issued to.
type TokenVerifier interface {
	Verify(token string) (contracts.User, error)
}

// Authenticate verifies the bearer token into the request user. Requests
// without a valid token are rejected with 401.
func Authenticate(v TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				WriteJSON(w, http.StatusUnauthorized, map[string]any{"error": "bearer token required"})
				return
			}
			user, err := v.Verify(strings.TrimSpace(token))
			if err != nil {
				WriteJSON(w, http.StatusUnauthorized, map[string]any{"error": "invalid bearer token"})
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}
