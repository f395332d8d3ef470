// Package compliance scopes the static catalog to an organization profile and
// derives the dashboard metrics from the result. Everything here is pure.
package compliance

import (
	"slices"

	"github.com/arturoeanton/finsentsis/internal/domain"
)

// View is the profile-scoped subset of the catalog.
type View struct {
	Regulations []domain.Regulation `json:"regulations"`
	Tasks       []domain.Task       `json:"tasks"`
}

// Filter returns the regulations and tasks relevant to profile. A nil profile
// yields the unfiltered catalog. Input order is preserved and inputs are not
// modified.
func Filter(profile *domain.UserProfile, regs []domain.Regulation, tasks []domain.Task) View {
	if profile == nil {
		return View{Regulations: slices.Clone(regs), Tasks: domain.CloneTasks(tasks)}
	}

	v := View{
		Regulations: make([]domain.Regulation, 0, len(regs)),
		Tasks:       make([]domain.Task, 0, len(tasks)),
	}
	for _, r := range regs {
		if RegulationApplies(profile, r) {
			v.Regulations = append(v.Regulations, r)
		}
	}
	for _, t := range tasks {
		if TaskApplies(profile, t) {
			v.Tasks = append(v.Tasks, t.Clone())
		}
	}
	return v
}

// RegulationApplies: region unrestricted or in the profile's regions, and
// sectors unrestricted, wildcard, or containing the profile's sector.
func RegulationApplies(profile *domain.UserProfile, r domain.Regulation) bool {
	regionMatch := r.RegionCode == "" || profile.OperatesIn(r.RegionCode)
	sectorMatch := len(r.Sectors) == 0 ||
		slices.Contains(r.Sectors, domain.SectorAll) ||
		slices.Contains(r.Sectors, profile.Sector)
	return regionMatch && sectorMatch
}

// TaskApplies mirrors RegulationApplies for a task's single sector.
func TaskApplies(profile *domain.UserProfile, t domain.Task) bool {
	regionMatch := t.RegionCode == "" || profile.OperatesIn(t.RegionCode)
	sectorMatch := t.Sector == "" || t.Sector == domain.SectorAll || t.Sector == profile.Sector
	return regionMatch && sectorMatch
}

// Contains reports whether the view includes the regulation id.
func (v View) Contains(regulationID string) bool {
	return slices.ContainsFunc(v.Regulations, func(r domain.Regulation) bool { return r.ID == regulationID })
}
