package service

import (
	"context"
	"fmt"
	"slices"

	"github.com/arturoeanton/finsentsis/internal/adapter/catalog"
	"github.com/arturoeanton/finsentsis/internal/compliance"
	"github.com/arturoeanton/finsentsis/internal/domain"
	"github.com/arturoeanton/finsentsis/internal/port"
)

// ComplianceService serves the profile-scoped dashboard and regulatory
// intelligence views.
type ComplianceService struct {
	sessions port.SessionStore
	catalog  *catalog.Catalog
}

// NewComplianceService creates a new compliance service.
func NewComplianceService(sessions port.SessionStore, cat *catalog.Catalog) *ComplianceService {
	return &ComplianceService{sessions: sessions, catalog: cat}
}

// Dashboard is the executive overview of a session.
type Dashboard struct {
	Profile     *domain.UserProfile  `json:"profile,omitempty"`
	Metrics     compliance.Metrics   `json:"metrics"`
	Alerts      []domain.Alert       `json:"alerts"`
	CountryRisk []domain.CountryRisk `json:"country_risk"`
	Regulations int                  `json:"regulations"`
	Tasks       int                  `json:"tasks"` // active remediation tasks in view
}

// View returns the regulations and tasks relevant to the session's profile.
func (s *ComplianceService) View(ctx context.Context, sessionID string) (compliance.View, *domain.UserProfile, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return compliance.View{}, nil, err
	}
	return compliance.Filter(sess.Profile, s.catalog.Regulations, sess.Tasks), sess.Profile, nil
}

// Dashboard computes metrics, alerts and the country risk list for a session.
func (s *ComplianceService) Dashboard(ctx context.Context, sessionID string) (Dashboard, error) {
	view, profile, err := s.View(ctx, sessionID)
	if err != nil {
		return Dashboard{}, err
	}
	return Summarize(view, profile, s.catalog), nil
}

// Summarize builds a dashboard from an already filtered view.
func Summarize(view compliance.View, profile *domain.UserProfile, cat *catalog.Catalog) Dashboard {
	return Dashboard{
		Profile:     profile,
		Metrics:     compliance.ComputeMetrics(view.Tasks, profile),
		Alerts:      compliance.Alerts(view, cat.Alerts),
		CountryRisk: slices.Clone(cat.CountryRisk),
		Regulations: len(view.Regulations),
		Tasks:       len(view.Tasks),
	}
}

// Regulations searches the regulations relevant to the session.
func (s *ComplianceService) Regulations(ctx context.Context, sessionID, term string) ([]domain.Regulation, error) {
	view, _, err := s.View(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return compliance.Search(view.Regulations, term), nil
}

// Regulation looks up one regulation within the session's view.
func (s *ComplianceService) Regulation(ctx context.Context, sessionID, id string) (domain.Regulation, error) {
	view, _, err := s.View(ctx, sessionID)
	if err != nil {
		return domain.Regulation{}, err
	}
	for _, r := range view.Regulations {
		if r.ID == id {
			return r, nil
		}
	}
	return domain.Regulation{}, fmt.Errorf("regulation %s: %w", id, port.ErrRegulationNotFound)
}

// Policies returns the internal policy library.
func (s *ComplianceService) Policies() []domain.Policy {
	return slices.Clone(s.catalog.Policies)
}
