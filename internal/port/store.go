package port

import (
	"context"

	"github.com/arturoeanton/finsentsis/internal/domain"
)

// SessionStore keeps dashboard sessions for the lifetime of the process.
type SessionStore interface {
	Create(ctx context.Context, s *domain.Session) error
	Get(ctx context.Context, id string) (*domain.Session, error)

	// Modify runs fn against the stored session under the store's lock and
	// persists the result only when fn returns nil.
	Modify(ctx context.Context, id string, fn func(s *domain.Session) error) (*domain.Session, error)
}

// AuditStore persists hash-chained audit entries.
type AuditStore interface {
	// Append links entry to the current chain head and stores it.
	Append(ctx context.Context, entry domain.AuditLog) (domain.AuditLog, error)

	// List returns entries newest first; empty action means no filter.
	List(ctx context.Context, limit int, action string) ([]domain.AuditLog, error)

	// Chain returns every entry oldest first.
	Chain(ctx context.Context) ([]domain.AuditLog, error)
}
