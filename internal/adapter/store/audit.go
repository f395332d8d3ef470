package store

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arturoeanton/finsentsis/internal/anchor"
	"github.com/arturoeanton/finsentsis/internal/domain"
	"github.com/arturoeanton/finsentsis/internal/port"
)

// MemoryAuditStore is the default audit store when no database is configured.
type MemoryAuditStore struct {
	mu      sync.RWMutex
	entries []domain.AuditLog
}

var _ port.AuditStore = (*MemoryAuditStore)(nil)

// NewMemoryAuditStore creates an empty chain.
func NewMemoryAuditStore() *MemoryAuditStore {
	return &MemoryAuditStore{}
}

// Append links entry to the chain head.
func (m *MemoryAuditStore) Append(_ context.Context, entry domain.AuditLog) (domain.AuditLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var head *domain.AuditLog
	if n := len(m.entries); n > 0 {
		head = &m.entries[n-1]
	}
	linked, err := link(head, entry)
	if err != nil {
		return domain.AuditLog{}, err
	}
	m.entries = append(m.entries, linked)
	return linked, nil
}

// List returns entries newest first.
func (m *MemoryAuditStore) List(_ context.Context, limit int, action string) ([]domain.AuditLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []domain.AuditLog
	for i := len(m.entries) - 1; i >= 0; i-- {
		if action != "" && m.entries[i].Action != action {
			continue
		}
		out = append(out, m.entries[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Chain returns a copy of every entry oldest first.
func (m *MemoryAuditStore) Chain(_ context.Context) ([]domain.AuditLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.AuditLog(nil), m.entries...), nil
}

// link fills the chain fields of entry given the current head (nil for an
// empty chain). Timestamps are truncated to the precision Postgres keeps.
func link(head *domain.AuditLog, entry domain.AuditLog) (domain.AuditLog, error) {
	if id, err := uuid.Parse(entry.ID); err == nil {
		entry.ID = id.String() // the form Postgres hands back for a UUID column
	} else if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	entry.Details = normalizeDetails(entry.Details)
	if entry.Status == "" {
		entry.Status = domain.AuditStatusVerified
	}
	entry.CreatedAt = entry.CreatedAt.UTC().Truncate(time.Microsecond)
	entry.Seq = 1
	entry.PrevHash = ""
	if head != nil {
		entry.Seq = head.Seq + 1
		entry.PrevHash = head.Hash
	}
	h, err := anchor.ChainHash(entry.PrevHash, entry)
	if err != nil {
		return domain.AuditLog{}, err
	}
	entry.Hash = h
	return entry, nil
}

// normalizeDetails keeps Details a JSON document: empty becomes {} and
// free text is wrapped as {"raw": ...}.
func normalizeDetails(details string) string {
	if details == "" {
		return "{}"
	}
	if !json.Valid([]byte(details)) {
		wrapped, _ := json.Marshal(map[string]string{"raw": details})
		return string(wrapped)
	}
	return details
}
