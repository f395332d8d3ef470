package domain

import "slices"

// UserProfile describes the organization captured at onboarding.
// It is set once per session and never modified afterwards.
type UserProfile struct {
	CompanyName string   `json:"company_name"`
	Employees   string   `json:"employees"`
	Regions     []string `json:"regions"`
	Sector      string   `json:"sector"`
}

// Region codes.
const (
	RegionNorthAmerica = "na"
	RegionEurope       = "eu"
	RegionAsiaPacific  = "apac"
	RegionLatinAmerica = "latam"
)

// Sector codes. SectorAll is the wildcard meaning "applies to every sector".
const (
	SectorFinance       = "finance"
	SectorHealth        = "health"
	SectorManufacturing = "mfg"
	SectorTechnology    = "tech"
	SectorRetail        = "retail"
	SectorEnergy        = "energy"
	SectorAll           = "all"
)

// Regions lists the operating regions offered during onboarding.
var Regions = []string{RegionNorthAmerica, RegionEurope, RegionAsiaPacific, RegionLatinAmerica}

// Sectors lists the industry verticals offered during onboarding.
var Sectors = []string{SectorFinance, SectorHealth, SectorManufacturing, SectorTechnology, SectorRetail, SectorEnergy}

// EmployeeBuckets lists the accepted employee-count buckets.
var EmployeeBuckets = []string{"1-50", "51-200", "201-1000", "1000+"}

// OperatesIn reports whether the profile lists the given region code.
func (p *UserProfile) OperatesIn(region string) bool {
	return slices.Contains(p.Regions, region)
}

// Clone returns a deep copy of the profile.
func (p *UserProfile) Clone() *UserProfile {
	if p == nil {
		return nil
	}
	c := *p
	c.Regions = slices.Clone(p.Regions)
	return &c
}
