package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/teslo-shop/apiserver/internal/auth"
	"github.com/teslo-shop/apiserver/internal/logging"
	"github.com/teslo-shop/apiserver/internal/store"
	"github.com/teslo-shop/apiserver/types"
)

const (
	msgTokenInvalid = "Token not valid"
	msgUserInactive = "User is inactive, talk with an admin"
	msgBadEmail     = "Credentials are not valid (email)"
	msgBadPassword  = "Credentials are not valid (password)"
	msgPasswordLong = "password must be shorter than or equal to 72 bytes"
	defaultUserRole = types.RoleUser
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

type TokenManager interface {
	Issue(subject string) (string, error)
	Validate(token string) (string, error)
}

// AuthService registers users, checks credentials, and turns tokens back into users.
type AuthService struct {
	users  UserRepository
	hasher PasswordHasher
	tokens TokenManager
	log    *slog.Logger
}

func NewAuthService(users UserRepository, hasher PasswordHasher, tokens TokenManager, log *slog.Logger) *AuthService {
	return &AuthService{users: users, hasher: hasher, tokens: tokens, log: log}
}

type RegisterInput struct {
	Email    string
	Password string
	FullName string
}

type LoginInput struct {
	Email    string
	Password string
}

// NormalizeEmail is the canonical stored form of an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an active account with the default role. Uniqueness is
// enforced by a single insert; a duplicate surfaces as KindDuplicateCredential.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (types.Session, error) {
	const op = "services.AuthService.Register"

	hash, err := s.hasher.Hash(in.Password)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		return types.Session{}, newError(KindValidation, msgPasswordLong, err)
	}
	if err != nil {
		s.log.Error("hash password", slog.String("op", op), logging.Err(err))
		return types.Session{}, internalError(err)
	}

	user, err := s.users.Create(ctx, types.User{
		Email:        NormalizeEmail(in.Email),
		PasswordHash: hash,
		FullName:     strings.TrimSpace(in.FullName),
		IsActive:     true,
		Roles:        []string{defaultUserRole},
	})
	if err != nil {
		var conflict *store.ConflictError
		if errors.As(err, &conflict) {
			return types.Session{}, newError(KindDuplicateCredential, conflict.Detail, err)
		}
		s.log.Error("create user", slog.String("op", op), logging.Err(err))
		return types.Session{}, internalError(err)
	}

	return s.session(user)
}

// Login does not check IsActive; inactive users are rejected when the token is used.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (types.Session, error) {
	const op = "services.AuthService.Login"

	user, err := s.users.GetByEmail(ctx, NormalizeEmail(in.Email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Session{}, newError(KindInvalidCredentials, msgBadEmail, err)
		}
		s.log.Error("load user", slog.String("op", op), logging.Err(err))
		return types.Session{}, internalError(err)
	}

	if !s.hasher.Verify(in.Password, user.PasswordHash) {
		return types.Session{}, newError(KindInvalidCredentials, msgBadPassword, nil)
	}

	return s.session(user)
}

// CheckStatus issues a fresh token for an already resolved principal.
func (s *AuthService) CheckStatus(ctx context.Context, principal types.User) (types.Session, error) {
	return s.session(principal)
}

// ResolvePrincipal loads the user behind token on every call. The result is never cached.
func (s *AuthService) ResolvePrincipal(ctx context.Context, token string) (types.User, error) {
	const op = "services.AuthService.ResolvePrincipal"

	subject, err := s.tokens.Validate(token)
	if err != nil {
		return types.User{}, newError(KindTokenInvalid, msgTokenInvalid, err)
	}
	id, err := uuid.Parse(subject)
	if err != nil {
		return types.User{}, newError(KindTokenInvalid, msgTokenInvalid, err)
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, newError(KindTokenInvalid, msgTokenInvalid, err)
		}
		s.log.Error("load principal", slog.String("op", op), logging.Err(err))
		return types.User{}, internalError(err)
	}
	if !user.IsActive {
		return types.User{}, newError(KindTokenInvalid, msgUserInactive, nil)
	}
	return user, nil
}

func (s *AuthService) session(user types.User) (types.Session, error) {
	token, err := s.tokens.Issue(user.ID.String())
	if err != nil {
		s.log.Error("issue token", slog.String("op", "services.AuthService.session"), logging.Err(err))
		return types.Session{}, internalError(err)
	}
	return types.Session{User: types.NewUserView(user), Token: token}, nil
}
