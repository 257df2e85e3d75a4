package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/teslo-shop/apiserver/internal/services"
	"github.com/teslo-shop/apiserver/types"
)

const maxJSONBody = 1 << 20

type contextKey string

const contextPrincipalKey contextKey = "principal"

func withPrincipal(ctx context.Context, user types.User) context.Context {
	return context.WithValue(ctx, contextPrincipalKey, &user)
}

// principalFromContext returns the user resolved by RequireAuth, or nil.
func principalFromContext(ctx context.Context) *types.User {
	user, _ := ctx.Value(contextPrincipalKey).(*types.User)
	return user
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Error      string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{
		StatusCode: status,
		Message:    message,
		Error:      http.StatusText(status),
	})
}

// writeServiceError maps a service failure onto its HTTP status. Internal causes
// never reach the client.
func writeServiceError(w http.ResponseWriter, err error) {
	writeError(w, statusFor(services.KindOf(err)), services.MessageOf(err))
}

func statusFor(kind services.Kind) int {
	switch kind {
	case services.KindValidation,
		services.KindDuplicateCredential,
		services.KindDuplicateEntity,
		services.KindMissingPrincipal:
		return http.StatusBadRequest
	case services.KindInvalidCredentials, services.KindTokenInvalid:
		return http.StatusUnauthorized
	case services.KindInsufficientRole:
		return http.StatusForbidden
	case services.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a single JSON object and rejects unknown properties.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.Is(err, io.EOF):
			return errors.New("request body is required")
		case errors.As(err, &typeErr):
			return fmt.Errorf("%s has an invalid type", typeErr.Field)
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			field := strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`)
			return fmt.Errorf("property %s should not exist", field)
		default:
			return errors.New("invalid request body")
		}
	}
	if dec.More() {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

func bearerToken(r *http.Request) (string, error) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if auth == "" {
		return "", errors.New("missing authorization")
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("invalid authorization")
	}
	return token, nil
}

// Healthz reports liveness.
func Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
