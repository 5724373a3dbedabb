package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/waste3d/cfproxyhub/internal/domain"
)

const uniqueViolation = "23505"

const schema = `
	create table if not exists hostnames (
		account_id text not null,
		tunnel_id  text not null,
		hostname   text not null,
		service    text not null,
		path       text not null default '/',
		status     text not null default 'active',
		created_at timestamptz not null default now(),
		primary key (account_id, tunnel_id, hostname)
	);

	create table if not exists sessions (
		token      text primary key,
		username   text not null,
		created_at timestamptz not null,
		expires_at timestamptz not null
	);
`

// EnsureSchema creates the tables used by the postgres repositories.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("could not create schema: %w", err)
	}
	return nil
}

type PostgresHostnameRepository struct {
	db *pgxpool.Pool
}

func NewPostgresHostnameRepository(db *pgxpool.Pool) *PostgresHostnameRepository {
	return &PostgresHostnameRepository{db: db}
}

func (r *PostgresHostnameRepository) List(ctx context.Context, scope domain.TunnelScope) ([]domain.HostnameRecord, error) {
	query := `
		select hostname, service, path, status, created_at
		from hostnames
		where account_id = $1 and tunnel_id = $2
		order by created_at, hostname
	`
	rows, err := r.db.Query(ctx, query, scope.AccountID, scope.TunnelID)
	if err != nil {
		return nil, fmt.Errorf("could not list hostnames: %w", err)
	}
	defer rows.Close()

	records := []domain.HostnameRecord{}
	for rows.Next() {
		rec, err := scanHostname(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("could not list hostnames: %w", err)
	}
	return records, nil
}

func (r *PostgresHostnameRepository) Insert(ctx context.Context, scope domain.TunnelScope, record domain.HostnameRecord) error {
	query := `
		insert into hostnames (account_id, tunnel_id, hostname, service, path, status, created_at)
		values ($1, $2, $3, $4, $5, $6, coalesce($7, now()))
	`
	_, err := r.db.Exec(ctx, query,
		scope.AccountID,
		scope.TunnelID,
		record.Hostname,
		record.Service,
		record.DisplayPath(),
		string(record.DisplayStatus()),
		record.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrHostnameTaken
		}
		return fmt.Errorf("could not save hostname: %w", err)
	}
	return nil
}

// Replace rewrites the target row in place so created_at survives renames.
func (r *PostgresHostnameRepository) Replace(ctx context.Context, scope domain.TunnelScope, target string, record domain.HostnameRecord) (domain.HostnameRecord, error) {
	query := `
		update hostnames
		set hostname = $4, service = $5, path = $6, status = $7
		where account_id = $1 and tunnel_id = $2 and hostname = $3
		returning hostname, service, path, status, created_at
	`
	row := r.db.QueryRow(ctx, query,
		scope.AccountID,
		scope.TunnelID,
		target,
		record.Hostname,
		record.Service,
		record.DisplayPath(),
		string(record.DisplayStatus()),
	)

	updated, err := scanHostname(row)
	if err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return domain.HostnameRecord{}, fmt.Errorf("%w: hostname %s not found in tunnel %s", domain.ErrHostnameNotFound, target, scope.TunnelID)
		case errors.As(err, &pgErr) && pgErr.Code == uniqueViolation:
			return domain.HostnameRecord{}, domain.ErrHostnameTaken
		}
		return domain.HostnameRecord{}, err
	}
	return updated, nil
}

func (r *PostgresHostnameRepository) Delete(ctx context.Context, scope domain.TunnelScope, hostname string) error {
	query := `delete from hostnames where account_id = $1 and tunnel_id = $2 and hostname = $3`
	tag, err := r.db.Exec(ctx, query, scope.AccountID, scope.TunnelID, hostname)
	if err != nil {
		return fmt.Errorf("could not delete hostname: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: hostname %s not found in tunnel %s", domain.ErrHostnameNotFound, hostname, scope.TunnelID)
	}
	return nil
}

func scanHostname(row pgx.Row) (domain.HostnameRecord, error) {
	var rec domain.HostnameRecord
	var status string
	err := row.Scan(
		&rec.Hostname,
		&rec.Service,
		&rec.Path,
		&status,
		&rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return rec, err
		}
		return rec, fmt.Errorf("could not scan hostname: %w", err)
	}
	rec.Status = domain.RecordStatus(status)
	return rec, nil
}
