package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/teslo-shop/apiserver/internal/logging"
	"github.com/teslo-shop/apiserver/internal/services"
	"github.com/teslo-shop/apiserver/types"
)

// AuthService is what the auth endpoints need from the service layer.
type AuthService interface {
	Register(ctx context.Context, in services.RegisterInput) (types.Session, error)
	Login(ctx context.Context, in services.LoginInput) (types.Session, error)
	CheckStatus(ctx context.Context, principal types.User) (types.Session, error)
}

// AuthHandler provides JWT authentication endpoints.
type AuthHandler struct {
	auth AuthService
	log  *slog.Logger
}

func NewAuthHandler(auth AuthService, log *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, log: log}
}

// AuthRouter registers auth routes on the given router. throttle guards the
// credential endpoints and may be nil.
func AuthRouter(r chi.Router, auth AuthService, guard *Guard, throttle func(http.Handler) http.Handler, log *slog.Logger) {
	handler := NewAuthHandler(auth, log)

	credentials := r
	if throttle != nil {
		credentials = r.With(throttle)
	}
	credentials.Post("/register", handler.Register)
	credentials.Post("/login", handler.Login)

	r.With(guard.Auth()).Get("/check-status", handler.CheckStatus)
	r.With(guard.Auth()).Get("/private", handler.Private)
	r.With(guard.Auth(types.RoleSuperUser, types.RoleAdmin)).Get("/private2", handler.Private2)
	r.With(guard.Auth(types.RoleAdmin)).Get("/private3", handler.Private2)
}

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=50,maxbytes=72,password"`
	FullName string `json:"fullName" validate:"required,min=1"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=50,maxbytes=72,password"`
}

// Register creates a new user account and returns a session.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	req.FullName = strings.TrimSpace(req.FullName)
	if err := validateStruct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := h.auth.Register(r.Context(), services.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		h.logFailure(r, "handlers.auth.register", err)
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, session)
}

// Login verifies credentials and returns a session.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := validateStruct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := h.auth.Login(r.Context(), services.LoginInput{Email: req.Email, Password: req.Password})
	if err != nil {
		h.logFailure(r, "handlers.auth.login", err)
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// CheckStatus re-issues a token for the current principal.
func (h *AuthHandler) CheckStatus(w http.ResponseWriter, r *http.Request) {
	session, err := h.auth.CheckStatus(r.Context(), *principalFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

type PrivateResponse struct {
	OK         bool              `json:"ok"`
	Message    string            `json:"message"`
	User       types.UserView    `json:"user"`
	UserEmail  string            `json:"userEmail"`
	RawHeaders []string          `json:"rawHeaders"`
	Headers    map[string]string `json:"headers"`
}

// Private echoes the principal and the request headers.
func (h *AuthHandler) Private(w http.ResponseWriter, r *http.Request) {
	principal := principalFromContext(r.Context())

	names := make([]string, 0, len(r.Header))
	for name := range r.Header {
		names = append(names, name)
	}
	sort.Strings(names)

	raw := make([]string, 0, len(names)*2)
	headers := make(map[string]string, len(names))
	for _, name := range names {
		values := r.Header.Values(name)
		for _, value := range values {
			raw = append(raw, name, value)
		}
		headers[strings.ToLower(name)] = strings.Join(values, ", ")
	}

	writeJSON(w, http.StatusOK, PrivateResponse{
		OK:         true,
		Message:    "Hola Mundo Private",
		User:       types.NewUserView(*principal),
		UserEmail:  principal.Email,
		RawHeaders: raw,
		Headers:    headers,
	})
}

type RoleCheckResponse struct {
	OK   bool           `json:"ok"`
	User types.UserView `json:"user"`
}

// Private2 confirms that the principal passed the route's role requirement.
func (h *AuthHandler) Private2(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, RoleCheckResponse{
		OK:   true,
		User: types.NewUserView(*principalFromContext(r.Context())),
	})
}

func (h *AuthHandler) logFailure(r *http.Request, op string, err error) {
	level := slog.LevelInfo
	if services.KindOf(err) == services.KindInternal {
		level = slog.LevelError
	}
	h.log.Log(r.Context(), level, "request failed",
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		logging.Err(err),
	)
}
