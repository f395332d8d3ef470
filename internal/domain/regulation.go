package domain

// RiskLevel is the severity classification shared by regulations and tasks.
type RiskLevel string

// Risk levels, most severe first.
const (
	RiskCritical RiskLevel = "Critical"
	RiskHigh     RiskLevel = "High"
	RiskMedium   RiskLevel = "Medium"
	RiskLow      RiskLevel = "Low"
)

// Severity orders risk levels: Critical=4 ... Low=1, unknown=0.
func (r RiskLevel) Severity() int {
	switch r {
	case RiskCritical:
		return 4
	case RiskHigh:
		return 3
	case RiskMedium:
		return 2
	case RiskLow:
		return 1
	default:
		return 0
	}
}

// Regulation is an entry of the static regulatory catalog.
type Regulation struct {
	ID          string    `json:"id"           yaml:"id"`
	Title       string    `json:"title"        yaml:"title"`
	Region      string    `json:"region"       yaml:"region"`
	RegionCode  string    `json:"region_code"  yaml:"region_code"` // empty = no region restriction
	Sectors     []string  `json:"sectors"      yaml:"sectors"`     // empty = no sector restriction
	RiskLevel   RiskLevel `json:"risk_level"   yaml:"risk_level"`
	Summary     string    `json:"summary"      yaml:"summary"`
	LastUpdated string    `json:"last_updated" yaml:"last_updated"`
	Status      string    `json:"status"       yaml:"status"` // Active, Pending, Draft
	Impact      string    `json:"impact"       yaml:"impact"`
}

// Alert is a candidate entry of the dashboard alert feed, tied to one regulation.
type Alert struct {
	Title        string    `json:"title"         yaml:"title"`
	Time         string    `json:"time"          yaml:"time"`
	Severity     RiskLevel `json:"severity"      yaml:"severity"`
	Description  string    `json:"description"   yaml:"description"`
	RegulationID string    `json:"regulation_id" yaml:"regulation_id"`
}

// CountryRisk feeds the world map on the dashboard.
type CountryRisk struct {
	ID    string    `json:"id"    yaml:"id"`
	Value int       `json:"value" yaml:"value"`
	Risk  RiskLevel `json:"risk"  yaml:"risk"`
}

// Policy is a display-only internal policy record.
type Policy struct {
	ID                string `json:"id"                 yaml:"id"`
	Name              string `json:"name"               yaml:"name"`
	Description       string `json:"description"        yaml:"description"`
	Owner             string `json:"owner"              yaml:"owner"`
	LinkedRegulations int    `json:"linked_regulations" yaml:"linked_regulations"`
	LastReview        string `json:"last_review"        yaml:"last_review"`
	Status            string `json:"status"             yaml:"status"`
}
