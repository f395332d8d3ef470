package service

import (
	"context"
	"fmt"
	"slices"

	"github.com/arturoeanton/finsentsis/internal/anchor"
	"github.com/arturoeanton/finsentsis/internal/domain"
	"github.com/arturoeanton/finsentsis/internal/port"
)

// AuditService combines the static seed trail with the hash-chained entries
// recorded at runtime.
type AuditService struct {
	store port.AuditStore
	seed  []domain.AuditLog
	clock port.Clock
}

// NewAuditService creates a new audit service. seed is shown after every
// recorded entry and is not part of the chain.
func NewAuditService(store port.AuditStore, seed []domain.AuditLog, clock port.Clock) *AuditService {
	return &AuditService{store: store, seed: slices.Clone(seed), clock: clock}
}

// Record appends entry to the chain. A zero CreatedAt is set to now.
// Implements middleware.AuditWriter.
func (s *AuditService) Record(ctx context.Context, entry domain.AuditLog) (domain.AuditLog, error) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.clock.Now()
	}
	out, err := s.store.Append(ctx, entry)
	if err != nil {
		return domain.AuditLog{}, fmt.Errorf("record audit entry: %w", err)
	}
	return out, nil
}

// Logs returns recorded entries newest first followed by the seed trail.
// limit <= 0 means no limit; empty action means every action.
func (s *AuditService) Logs(ctx context.Context, limit int, action string) ([]domain.AuditLog, error) {
	recorded, err := s.store.List(ctx, limit, action)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	logs := recorded
	for _, l := range s.seed {
		if limit > 0 && len(logs) >= limit {
			break
		}
		if action == "" || l.Action == action {
			logs = append(logs, l)
		}
	}
	if logs == nil {
		logs = []domain.AuditLog{}
	}
	return logs, nil
}

// ChainStatus summarizes a chain verification.
type ChainStatus struct {
	Entries  int    `json:"entries"`
	Intact   bool   `json:"intact"`
	BrokenAt int64  `json:"broken_at,omitempty"`
	Head     string `json:"head,omitempty"`
}

// Verify walks the recorded chain. A broken chain returns the status along
// with ErrAuditChainBroken.
func (s *AuditService) Verify(ctx context.Context) (ChainStatus, error) {
	chain, err := s.store.Chain(ctx)
	if err != nil {
		return ChainStatus{}, fmt.Errorf("load audit chain: %w", err)
	}
	st := ChainStatus{Entries: len(chain), Intact: true}
	if n := len(chain); n > 0 {
		st.Head = chain[n-1].Hash
	}
	if i := anchor.Verify(chain); i >= 0 {
		st.Intact = false
		st.BrokenAt = chain[i].Seq
		return st, fmt.Errorf("entry %d: %w", chain[i].Seq, port.ErrAuditChainBroken)
	}
	return st, nil
}
