package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/geocoder89/taskhub/internal/auth"
	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/geocoder89/taskhub/internal/observability"
	"github.com/geocoder89/taskhub/internal/security"
)

type UserStore interface {
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, username, passwordHash string) (user.User, error)
	GetByUsername(ctx context.Context, username string) (user.User, error)
}

type TokenManager interface {
	Issue(userID, username string) (string, time.Time, error)
	Verify(token string) (*auth.Claims, error)
}

type AuthResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      user.User `json:"user"`
}

// Identity is the caller established from a verified bearer token.
type Identity struct {
	UserID   string
	Username string
}

type AuthService struct {
	users  UserStore
	tokens TokenManager
	prom   *observability.Prom
}

func NewAuthService(users UserStore, tokens TokenManager, prom *observability.Prom) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		prom:   prom,
	}
}

// verified against on the unknown-user path so both login failures cost one key derivation
var dummyHash = sync.OnceValue(func() string {
	h, err := security.HashPassword("taskhub-dummy-password")
	if err != nil {
		return ""
	}
	return h
})

func (s *AuthService) Register(ctx context.Context, req user.RegisterRequest) (AuthResult, error) {
	if err := validateStruct(req); err != nil {
		s.prom.ObserveAuth("register", "invalid")
		return AuthResult{}, err
	}

	// fast path only; the store's unique constraint is the real guard
	exists, err := s.users.ExistsByUsername(ctx, req.Username)
	if err != nil {
		return AuthResult{}, fmt.Errorf("register: %w", err)
	}
	if exists {
		s.prom.ObserveAuth("register", "conflict")
		return AuthResult{}, user.ErrUsernameTaken
	}

	hash, err := security.HashPassword(req.Password)
	if err != nil {
		return AuthResult{}, fmt.Errorf("register: %w", err)
	}

	u, err := s.users.Create(ctx, req.Username, hash)
	if err != nil {
		if errors.Is(err, user.ErrUsernameTaken) {
			s.prom.ObserveAuth("register", "conflict")
			return AuthResult{}, user.ErrUsernameTaken
		}
		return AuthResult{}, fmt.Errorf("register: %w", err)
	}

	res, err := s.issue(u)
	if err != nil {
		return AuthResult{}, fmt.Errorf("register: %w", err)
	}

	s.prom.ObserveAuth("register", "success")
	return res, nil
}

func (s *AuthService) Login(ctx context.Context, req user.LoginRequest) (AuthResult, error) {
	if err := validateStruct(req); err != nil {
		s.prom.ObserveAuth("login", "invalid")
		return AuthResult{}, err
	}

	u, err := s.users.GetByUsername(ctx, req.Username)
	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			return AuthResult{}, fmt.Errorf("login: %w", err)
		}

		security.VerifyPassword(req.Password, dummyHash())
		s.prom.ObserveAuth("login", "rejected")
		return AuthResult{}, ErrInvalidCredentials
	}

	if !security.VerifyPassword(req.Password, u.PasswordHash) {
		s.prom.ObserveAuth("login", "rejected")
		return AuthResult{}, ErrInvalidCredentials
	}

	res, err := s.issue(u)
	if err != nil {
		return AuthResult{}, fmt.Errorf("login: %w", err)
	}

	s.prom.ObserveAuth("login", "success")
	return res, nil
}

// Authenticate verifies a bearer token. Failures wrap auth.ErrInvalidToken.
func (s *AuthService) Authenticate(token string) (Identity, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return Identity{}, err
	}

	return Identity{UserID: claims.UserID, Username: claims.Username}, nil
}

func (s *AuthService) issue(u user.User) (AuthResult, error) {
	token, expiresAt, err := s.tokens.Issue(u.ID, u.Username)
	if err != nil {
		return AuthResult{}, err
	}

	return AuthResult{Token: token, ExpiresAt: expiresAt, User: u}, nil
}
