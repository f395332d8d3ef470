package port

import "errors"

// Sentinel errors used across ports.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")

	ErrSessionNotFound    = errors.New("session not found")
	ErrTaskNotFound       = errors.New("task not found")
	ErrEvidenceNotFound   = errors.New("evidence not found")
	ErrRegulationNotFound = errors.New("regulation not found")

	ErrInvalidProfile  = errors.New("invalid profile")
	ErrProfileLocked   = errors.New("profile already set")
	ErrInvalidEvidence = errors.New("invalid evidence")

	ErrInvalidTransition   = errors.New("invalid workflow transition")
	ErrNoFiles             = errors.New("no files uploaded")
	ErrNoJurisdictions     = errors.New("no jurisdictions selected")
	ErrUnknownJurisdiction = errors.New("unknown jurisdiction")
	ErrStaleScan           = errors.New("stale scan event")
	ErrEmptyMessage        = errors.New("empty message")
	ErrRequestPending      = errors.New("a copilot request is already pending")
	ErrRateLimited         = errors.New("rate limited")
	ErrShuttingDown        = errors.New("copilot is shutting down")

	ErrAuditChainBroken = errors.New("audit chain broken")
)
