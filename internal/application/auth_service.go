package application

import (
	"context"
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/waste3d/cfproxyhub/internal/domain"
)

// AuthService checks the admin credentials and manages the session tokens
// handed out on login.
type AuthService struct {
	sessions domain.SessionRepository
	username string
	password string
	ttl      time.Duration
}

func NewAuthService(sessions domain.SessionRepository, username, password string, ttl time.Duration) *AuthService {
	return &AuthService{
		sessions: sessions,
		username: username,
		password: password,
		ttl:      ttl,
	}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*domain.Session, error) {
	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(s.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(s.password)) == 1
	if !userOK || !passOK {
		return nil, domain.ErrInvalidCredentials
	}

	session := domain.NewSession(req.Username, s.ttl)
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return session, nil
}

// Authenticate resolves a session token. Unknown and expired tokens yield
// domain.ErrUnauthorized.
func (s *AuthService) Authenticate(ctx context.Context, token domain.SessionToken) (*domain.Session, error) {
	if token == "" {
		return nil, domain.ErrUnauthorized
	}
	session, err := s.sessions.FindByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		return nil, domain.ErrUnauthorized
	}
	if session.Expired(time.Now()) {
		_ = s.sessions.Delete(ctx, token)
		return nil, domain.ErrUnauthorized
	}
	return session, nil
}

func (s *AuthService) Logout(ctx context.Context, token domain.SessionToken) error {
	if err := s.sessions.Delete(ctx, token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
