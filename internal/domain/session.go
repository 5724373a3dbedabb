package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type SessionToken string

// Session is an authenticated admin login.
type Session struct {
	Token     SessionToken
	Username  string
	CreatedAt time.Time
	ExpiresAt time.Time
}

func NewSession(username string, ttl time.Duration) *Session {
	now := time.Now()
	return &Session{
		Token:     SessionToken(uuid.New().String()),
		Username:  username,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

type SessionRepository interface {
	Save(ctx context.Context, session *Session) error
	FindByToken(ctx context.Context, token SessionToken) (*Session, error)
	Delete(ctx context.Context, token SessionToken) error
}
