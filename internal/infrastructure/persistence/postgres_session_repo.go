package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/waste3d/cfproxyhub/internal/domain"
)

type PostgresSessionRepository struct {
	db *pgxpool.Pool
}

func NewPostgresSessionRepository(db *pgxpool.Pool) domain.SessionRepository {
	return &PostgresSessionRepository{db: db}
}

func (r *PostgresSessionRepository) Save(ctx context.Context, session *domain.Session) error {
	query := `
		INSERT INTO sessions (token, username, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (token) DO UPDATE SET expires_at = EXCLUDED.expires_at
	`
	_, err := r.db.Exec(ctx, query,
		string(session.Token),
		session.Username,
		session.CreatedAt,
		session.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("could not save session: %w", err)
	}
	return nil
}

func (r *PostgresSessionRepository) FindByToken(ctx context.Context, token domain.SessionToken) (*domain.Session, error) {
	query := `select token, username, created_at, expires_at from sessions where token = $1`
	row := r.db.QueryRow(ctx, query, string(token))

	var s domain.Session
	var raw string
	err := row.Scan(&raw, &s.Username, &s.CreatedAt, &s.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("could not scan session: %w", err)
	}
	s.Token = domain.SessionToken(raw)
	return &s, nil
}

func (r *PostgresSessionRepository) Delete(ctx context.Context, token domain.SessionToken) error {
	if _, err := r.db.Exec(ctx, `delete from sessions where token = $1`, string(token)); err != nil {
		return fmt.Errorf("could not delete session: %w", err)
	}
	return nil
}
