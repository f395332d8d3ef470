package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/arturoeanton/finsentsis/internal/domain"
	"github.com/arturoeanton/finsentsis/internal/port"
)

// auditLockKey serializes appends across processes sharing one database.
const auditLockKey int64 = 0x46696e5341756474

const auditColumns = `seq, id, user_name, action, resource, resource_id, details, ip, user_agent, prev_hash, hash, status, created_at`

// PostgresStore persists the audit chain in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

var _ port.AuditStore = (*PostgresStore)(nil)

// NewPostgresStore opens a connection and returns a store instance.
func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// NewPostgresStoreFromDB wraps an existing connection pool.
func NewPostgresStoreFromDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB.
func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

// Append links entry to the chain head inside a transaction holding the
// audit advisory lock.
func (s *PostgresStore) Append(ctx context.Context, entry domain.AuditLog) (domain.AuditLog, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.AuditLog{}, fmt.Errorf("begin audit tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, auditLockKey); err != nil {
		return domain.AuditLog{}, fmt.Errorf("lock audit chain: %w", err)
	}

	var head *domain.AuditLog
	var last domain.AuditLog
	err = tx.QueryRowContext(ctx, `SELECT seq, hash FROM audit_logs ORDER BY seq DESC LIMIT 1`).Scan(&last.Seq, &last.Hash)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return domain.AuditLog{}, fmt.Errorf("read audit head: %w", err)
	default:
		head = &last
	}

	linked, err := link(head, entry)
	if err != nil {
		return domain.AuditLog{}, fmt.Errorf("hash audit entry: %w", err)
	}

	query := `INSERT INTO audit_logs (` + auditColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	if _, err := tx.ExecContext(ctx, query,
		linked.Seq, linked.ID, linked.User, linked.Action, linked.Resource, linked.ResourceID,
		linked.Details, linked.IP, linked.UserAgent, linked.PrevHash, linked.Hash, linked.Status, linked.CreatedAt,
	); err != nil {
		return domain.AuditLog{}, fmt.Errorf("insert audit log: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.AuditLog{}, fmt.Errorf("commit audit log: %w", err)
	}
	return linked, nil
}

// List returns recent audit logs with an optional action filter.
func (s *PostgresStore) List(ctx context.Context, limit int, action string) ([]domain.AuditLog, error) {
	query := `SELECT ` + auditColumns + ` FROM audit_logs`
	args := []interface{}{}
	argIdx := 1

	if action != "" {
		query += fmt.Sprintf(" WHERE action = $%d", argIdx)
		args = append(args, action)
		argIdx++
	}

	query += " ORDER BY seq DESC"

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, limit)
	}

	return s.query(ctx, query, args...)
}

// Chain returns every audit log oldest first.
func (s *PostgresStore) Chain(ctx context.Context) ([]domain.AuditLog, error) {
	return s.query(ctx, `SELECT `+auditColumns+` FROM audit_logs ORDER BY seq ASC`)
}

func (s *PostgresStore) query(ctx context.Context, query string, args ...interface{}) ([]domain.AuditLog, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()

	var logs []domain.AuditLog
	for rows.Next() {
		var l domain.AuditLog
		if err := rows.Scan(
			&l.Seq, &l.ID, &l.User, &l.Action, &l.Resource, &l.ResourceID,
			&l.Details, &l.IP, &l.UserAgent, &l.PrevHash, &l.Hash, &l.Status, &l.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		l.CreatedAt = l.CreatedAt.UTC()
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
