package domain

import "time"

// AuditLog records a significant action. Recorded entries are hash-chained:
// Hash covers the entry fields and PrevHash.
type AuditLog struct {
	ID         string    `json:"id"          db:"id"          yaml:"id"`
	Seq        int64     `json:"seq"         db:"seq"         yaml:"-"`
	User       string    `json:"user"        db:"user_name"   yaml:"user"`
	Action     string    `json:"action"      db:"action"      yaml:"action"`
	Resource   string    `json:"resource"    db:"resource"    yaml:"resource"`
	ResourceID string    `json:"resource_id" db:"resource_id" yaml:"resource_id"`
	Details    string    `json:"details"     db:"details"     yaml:"details"` // JSON blob
	IP         string    `json:"ip"          db:"ip"          yaml:"-"`
	UserAgent  string    `json:"user_agent"  db:"user_agent"  yaml:"-"`
	PrevHash   string    `json:"prev_hash"   db:"prev_hash"   yaml:"-"`
	Hash       string    `json:"hash"        db:"hash"        yaml:"hash"`
	Status     string    `json:"status"      db:"status"      yaml:"status"`
	CreatedAt  time.Time `json:"created_at"  db:"created_at"  yaml:"created_at"`
}

// Audit constants.
const (
	AuditStatusVerified = "Verified"

	AuditActionLogin          = "login"
	AuditActionOnboarding     = "onboarding_complete"
	AuditActionHTTPRequest    = "http_request"
	AuditActionEvidenceAdd    = "evidence_added"
	AuditActionEvidenceRemove = "evidence_removed"
	AuditActionReport         = "report_generated"
)
