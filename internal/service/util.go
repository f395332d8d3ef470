package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/arturoeanton/finsentsis/internal/domain"
)

// recordAudit writes an audit entry; failures are logged and never fail the caller.
func recordAudit(ctx context.Context, audit *AuditService, entry domain.AuditLog) {
	if audit == nil {
		return
	}
	if _, err := audit.Record(ctx, entry); err != nil {
		slog.Error("failed to write audit log", "action", entry.Action, "error", err)
	}
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}
