package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/arturoeanton/finsentsis/internal/adapter/catalog"
	"github.com/arturoeanton/finsentsis/internal/domain"
	"github.com/arturoeanton/finsentsis/internal/middleware"
	"github.com/arturoeanton/finsentsis/internal/port"
)

// SessionService handles the mock login and the onboarding flow.
type SessionService struct {
	sessions port.SessionStore
	catalog  *catalog.Catalog
	audit    *AuditService
	jwtCfg   middleware.JWTConfig
	clock    port.Clock
}

// NewSessionService creates a new session service.
func NewSessionService(sessions port.SessionStore, cat *catalog.Catalog, audit *AuditService, jwtCfg middleware.JWTConfig, clock port.Clock) *SessionService {
	return &SessionService{sessions: sessions, catalog: cat, audit: audit, jwtCfg: jwtCfg, clock: clock}
}

// Login opens a session for any non-empty email and password and returns
// its token. The session starts in onboarding with its own task list.
func (s *SessionService) Login(ctx context.Context, email, password string) (string, *domain.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return "", nil, fmt.Errorf("email and password are required: %w", port.ErrUnauthorized)
	}

	sess := &domain.Session{
		ID:        uuid.NewString(),
		User:      email,
		State:     domain.AuthOnboarding,
		Tasks:     s.catalog.SeedTasks(),
		CreatedAt: s.clock.Now(),
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return "", nil, fmt.Errorf("create session: %w", err)
	}

	token, err := middleware.GenerateJWT(sess, s.jwtCfg)
	if err != nil {
		return "", nil, err
	}

	s.record(ctx, domain.AuditLog{
		User:       sess.User,
		Action:     domain.AuditActionLogin,
		Resource:   "session",
		ResourceID: sess.ID,
	})
	slog.Info("session opened", "session_id", sess.ID, "user", sess.User)
	return token, sess, nil
}

// Onboard validates and stores the organization profile. A profile can be
// set only once per session.
func (s *SessionService) Onboard(ctx context.Context, sessionID string, p domain.UserProfile) (*domain.Session, error) {
	profile, err := NormalizeProfile(p)
	if err != nil {
		return nil, err
	}

	sess, err := s.sessions.Modify(ctx, sessionID, func(sess *domain.Session) error {
		if sess.Profile != nil {
			return port.ErrProfileLocked
		}
		sess.Profile = profile
		sess.State = domain.AuthAuthenticated
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, domain.AuditLog{
		User:       sess.User,
		Action:     domain.AuditActionOnboarding,
		Resource:   "profile",
		ResourceID: sess.ID,
		Details:    mustJSON(profile),
	})
	return sess, nil
}

// Session returns a copy of the session.
func (s *SessionService) Session(ctx context.Context, sessionID string) (*domain.Session, error) {
	return s.sessions.Get(ctx, sessionID)
}

// NormalizeProfile trims and validates an onboarding submission. Regions are
// de-duplicated in submission order.
func NormalizeProfile(p domain.UserProfile) (*domain.UserProfile, error) {
	out := domain.UserProfile{
		CompanyName: strings.TrimSpace(p.CompanyName),
		Employees:   strings.TrimSpace(p.Employees),
		Sector:      strings.TrimSpace(p.Sector),
	}
	if out.CompanyName == "" {
		return nil, fmt.Errorf("company name is required: %w", port.ErrInvalidProfile)
	}
	if out.Employees != "" && !slices.Contains(domain.EmployeeBuckets, out.Employees) {
		return nil, fmt.Errorf("unknown employee bucket %q: %w", out.Employees, port.ErrInvalidProfile)
	}
	for _, r := range p.Regions {
		r = strings.TrimSpace(r)
		if !slices.Contains(domain.Regions, r) {
			return nil, fmt.Errorf("unknown region %q: %w", r, port.ErrInvalidProfile)
		}
		if !slices.Contains(out.Regions, r) {
			out.Regions = append(out.Regions, r)
		}
	}
	if len(out.Regions) == 0 {
		return nil, fmt.Errorf("at least one region is required: %w", port.ErrInvalidProfile)
	}
	if !slices.Contains(domain.Sectors, out.Sector) {
		return nil, fmt.Errorf("unknown sector %q: %w", out.Sector, port.ErrInvalidProfile)
	}
	return &out, nil
}

func (s *SessionService) record(ctx context.Context, entry domain.AuditLog) {
	recordAudit(ctx, s.audit, entry)
}
