package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"github.com/teslo-shop/apiserver/internal/logging"
	"github.com/teslo-shop/apiserver/internal/services"
	"github.com/teslo-shop/apiserver/types"
)

var (
	adminUser = types.User{ID: uuid.New(), Email: "admin@shop.io", FullName: "Ada", IsActive: true, Roles: []string{types.RoleAdmin}}
	superUser = types.User{ID: uuid.New(), Email: "super@shop.io", FullName: "Sam", IsActive: true, Roles: []string{types.RoleUser, types.RoleSuperUser}}
	plainUser = types.User{ID: uuid.New(), Email: "bob@shop.io", FullName: "Bob", IsActive: true, Roles: []string{types.RoleUser}}
)

// tokenResolver maps fixed tokens to users.
type tokenResolver map[string]types.User

func (t tokenResolver) ResolvePrincipal(ctx context.Context, token string) (types.User, error) {
	user, ok := t[token]
	if !ok {
		return types.User{}, &services.Error{Kind: services.KindTokenInvalid, Message: "Token not valid"}
	}
	return user, nil
}

func testGuard() *Guard {
	return NewGuard(tokenResolver{
		"admin-token": adminUser,
		"super-token": superUser,
		"user-token":  plainUser,
	}, logging.Nop())
}

type apiDeps struct {
	auth     AuthService
	products ProductService
	files    FileService
	throttle func(http.Handler) http.Handler
}

func newTestAPI(deps apiDeps) http.Handler {
	guard := testGuard()
	log := logging.Nop()

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		if deps.auth != nil {
			r.Route("/auth", func(r chi.Router) {
				AuthRouter(r, deps.auth, guard, deps.throttle, log)
			})
		}
		if deps.products != nil {
			r.Route("/products", func(r chi.Router) {
				ProductRouter(r, deps.products, guard, log)
			})
		}
		if deps.files != nil {
			r.Route("/files", func(r chi.Router) {
				FileRouter(r, deps.files, log)
			})
		}
	})
	return r
}

func doRequest(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func requireError(t *testing.T, rec *httptest.ResponseRecorder, status int, message string) {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
	body := decodeBody[ErrorResponse](t, rec)
	require.Equal(t, status, body.StatusCode)
	require.Equal(t, http.StatusText(status), body.Error)
	if message != "" {
		require.Equal(t, message, body.Message)
	}
}

func newTestRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

func testLogger() *slog.Logger {
	return logging.Nop()
}
