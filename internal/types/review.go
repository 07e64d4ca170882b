package types

// Issue severities, ordered by weight.
const (
	SeverityCritical = "critical"
	SeverityMajor    = "major"
	SeverityMinor    = "minor"
)

// Issue is one finding from a review step, ordered by severity in the
// review output.
type Issue struct {
	Severity       string   `json:"severity"`
	Summary        string   `json:"summary"`
	AffectedFields []string `json:"affected_fields,omitempty"`
	Rationale      string   `json:"rationale,omitempty"`
}

// ReviewReport is the issues/improvements half of a review output; the
// revised artifact travels separately under a per-kind key.
type ReviewReport struct {
	Issues       []Issue  `json:"issues"`
	Improvements []string `json:"improvements"`
}
