package compliance

import "github.com/arturoeanton/finsentsis/internal/domain"

// BasePenalty is the illustrative fine the exposure estimate starts from.
const BasePenalty = 1_500_000

// Metrics are the dashboard KPIs, recomputed from a view on every request.
type Metrics struct {
	OpenCritical     int     `json:"open_critical"`
	OpenHigh         int     `json:"open_high"`
	TotalOpen        int     `json:"total_open"`
	EstimatedPenalty float64 `json:"estimated_penalty"`
}

// ComputeMetrics counts open Critical and High tasks and estimates exposure
// for the profile's sector.
func ComputeMetrics(tasks []domain.Task, profile *domain.UserProfile) Metrics {
	var m Metrics
	for i := range tasks {
		t := &tasks[i]
		if !t.Open() {
			continue
		}
		switch t.Priority {
		case domain.RiskCritical:
			m.OpenCritical++
		case domain.RiskHigh:
			m.OpenHigh++
		}
	}
	m.TotalOpen = m.OpenCritical + m.OpenHigh
	m.EstimatedPenalty = BasePenalty * SectorMultiplier(profile)
	return m
}

// SectorMultiplier weights the penalty estimate: finance > health > default.
func SectorMultiplier(profile *domain.UserProfile) float64 {
	if profile == nil {
		return 1.2
	}
	switch profile.Sector {
	case domain.SectorFinance:
		return 2.5
	case domain.SectorHealth:
		return 1.8
	default:
		return 1.2
	}
}

// Alerts keeps the candidates whose regulation is part of the view.
func Alerts(v View, candidates []domain.Alert) []domain.Alert {
	out := make([]domain.Alert, 0, len(candidates))
	for _, a := range candidates {
		if v.Contains(a.RegulationID) {
			out = append(out, a)
		}
	}
	return out
}
