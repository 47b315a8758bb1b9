// internal/validation/types.go
package validation

// Severity grades a validation error. Critical errors block persistence;
// major and minor are advisory and returned alongside success.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityMajor    Severity = "major"
	SeverityMinor    Severity = "minor"
)

// Level grades the impact/effort estimate attached to a suggestion.
type Level string

const (
	LevelHigh   Level = "high"
	LevelMedium Level = "medium"
	LevelLow    Level = "low"
)

// Error is one validation finding against a specific field.
type Error struct {
	Field    string   `json:"field"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// Warning is a non-blocking risk flag.
type Warning struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Suggestion is an optimization hint with an impact/effort estimate.
type Suggestion struct {
	Message string `json:"message"`
	Impact  Level  `json:"impact"`
	Effort  Level  `json:"effort"`
}

// Scores holds the four category sub-scores and their unweighted mean. Each
// sub-score is the ratio of satisfied weighted criteria in [0,1].
type Scores struct {
	Completeness      float64 `json:"completeness"`
	Clarity           float64 `json:"clarity"`
	BusinessAlignment float64 `json:"businessAlignment"`
	TechnicalQuality  float64 `json:"technicalQuality"`
	Overall           float64 `json:"overall"`
}

// Result is the outcome of validating one template snapshot.
type Result struct {
	IsValid     bool         `json:"isValid"`
	Errors      []Error      `json:"errors"`
	Warnings    []Warning    `json:"warnings"`
	Suggestions []Suggestion `json:"suggestions"`
	Score       Scores       `json:"score"`
}

// CriticalErrors returns only the persistence-blocking findings.
func (r *Result) CriticalErrors() []Error {
	var out []Error
	for _, e := range r.Errors {
		if e.Severity == SeverityCritical {
			out = append(out, e)
		}
	}
	return out
}
