package refresh

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/rentora/authcore/refresh/migrations"
)

// DBTX is the subset of database/sql the store uses. Both *sql.DB and
// *sql.Tx satisfy it.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresStore is a durable Store over PostgreSQL. The single-winner
// guarantee rides on a conditional UPDATE against the revoked flag, so it
// holds across processes without advisory locks.
type PostgresStore struct {
	db DBTX
}

// NewPostgresStore binds a store to the given DBTX.
func NewPostgresStore(db DBTX) *PostgresStore {
	return &PostgresStore{db: db}
}

// RunMigrations applies the embedded schema migrations through goose.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("refresh store: set dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("refresh store: migrate: %w", err)
	}
	return nil
}

const recordColumns = `token, jti, user_id, issued_at, expires_at,
		revoked, revoked_at, revoked_by_ip, revoked_reason, replaced_by, created_by_ip`

func (s *PostgresStore) Create(ctx context.Context, rec *Record) error {
	query := `
		INSERT INTO refresh_records (token, jti, user_id, issued_at, expires_at, created_by_ip)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := s.db.ExecContext(ctx, query,
		rec.Value, rec.JTI, rec.UserID, rec.IssuedAt, rec.ExpiresAt, rec.CreatedByIP,
	); err != nil {
		return fmt.Errorf("refresh store: create: %w", err)
	}
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, value, userID, jti string) (*Record, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM refresh_records
		WHERE token = $1 AND user_id = $2 AND jti = $3
	`
	return s.scanOne(s.db.QueryRowContext(ctx, query, value, userID, jti))
}

func (s *PostgresStore) FindByValue(ctx context.Context, value string) (*Record, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM refresh_records
		WHERE token = $1
	`
	return s.scanOne(s.db.QueryRowContext(ctx, query, value))
}

func (s *PostgresStore) scanOne(row *sql.Row) (*Record, error) {
	var (
		rec       Record
		revokedAt sql.NullTime
		byIP      sql.NullString
		reason    sql.NullString
		replaced  sql.NullString
		createdIP sql.NullString
	)
	err := row.Scan(
		&rec.Value, &rec.JTI, &rec.UserID, &rec.IssuedAt, &rec.ExpiresAt,
		&rec.Revoked, &revokedAt, &byIP, &reason, &replaced, &createdIP,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("refresh store: find: %w", err)
	}

	rec.RevokedAt = revokedAt.Time
	rec.RevokedByIP = byIP.String
	rec.RevokedReason = reason.String
	rec.ReplacedBy = replaced.String
	rec.CreatedByIP = createdIP.String
	return &rec, nil
}

// Revoke performs the CAS transition. The WHERE clause admits only the
// not-yet-revoked row, so concurrent callers race on rows-affected and
// exactly one sees 1.
func (s *PostgresStore) Revoke(ctx context.Context, value string, at time.Time, ip, reason string) (bool, error) {
	query := `
		UPDATE refresh_records
		SET revoked = TRUE, revoked_at = $2, revoked_by_ip = $3, revoked_reason = $4
		WHERE token = $1 AND revoked = FALSE
	`
	res, err := s.db.ExecContext(ctx, query, value, at, ip, reason)
	if err != nil {
		return false, fmt.Errorf("refresh store: revoke: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("refresh store: revoke: %w", err)
	}
	if affected == 1 {
		return true, nil
	}

	// Lost the race, or the record never existed. Distinguish the two so
	// callers can surface unknown tokens correctly.
	var exists bool
	checkQuery := `SELECT EXISTS (SELECT 1 FROM refresh_records WHERE token = $1)`
	if err := s.db.QueryRowContext(ctx, checkQuery, value).Scan(&exists); err != nil {
		return false, fmt.Errorf("refresh store: revoke: %w", err)
	}
	if !exists {
		return false, ErrNotFound
	}
	return false, nil
}

func (s *PostgresStore) SetReplacedBy(ctx context.Context, value, replacedBy string) error {
	query := `
		UPDATE refresh_records
		SET replaced_by = $2
		WHERE token = $1
	`
	res, err := s.db.ExecContext(ctx, query, value, replacedBy)
	if err != nil {
		return fmt.Errorf("refresh store: link successor: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("refresh store: link successor: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) RevokeAllForUser(ctx context.Context, userID string, at time.Time, ip, reason string) (int64, error) {
	query := `
		UPDATE refresh_records
		SET revoked = TRUE, revoked_at = $2, revoked_by_ip = $3, revoked_reason = $4
		WHERE user_id = $1 AND revoked = FALSE
	`
	res, err := s.db.ExecContext(ctx, query, userID, at, ip, reason)
	if err != nil {
		return 0, fmt.Errorf("refresh store: revoke all: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("refresh store: revoke all: %w", err)
	}
	return affected, nil
}

func (s *PostgresStore) Descendants(ctx context.Context, value string) ([]string, error) {
	query := `
		WITH RECURSIVE chain AS (
			SELECT token, replaced_by, 1 AS depth
			FROM refresh_records
			WHERE token = $1
			UNION ALL
			SELECT r.token, r.replaced_by, c.depth + 1
			FROM refresh_records r
			JOIN chain c ON r.token = c.replaced_by
		)
		SELECT token FROM chain WHERE token <> $1 ORDER BY depth
	`
	rows, err := s.db.QueryContext(ctx, query, value)
	if err != nil {
		return nil, fmt.Errorf("refresh store: descendants: %w", err)
	}
	defer rows.Close()

	var chain []string
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, fmt.Errorf("refresh store: descendants: %w", err)
		}
		chain = append(chain, token)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("refresh store: descendants: %w", err)
	}
	return chain, nil
}
