// internal/models/version.go
package models

import "time"

// ChangeType selects which semver component a new version bumps.
type ChangeType string

const (
	ChangeMajor ChangeType = "major"
	ChangeMinor ChangeType = "minor"
	ChangePatch ChangeType = "patch"
)

// Impact classifies how a field change affects consumers of a template.
type Impact string

const (
	ImpactBreaking    Impact = "breaking"
	ImpactEnhancement Impact = "enhancement"
	ImpactBugfix      Impact = "bugfix"
	ImpactCosmetic    Impact = "cosmetic"
)

// FieldChange records one field-level edit between two versions.
type FieldChange struct {
	Path     string      `json:"path"`
	OldValue interface{} `json:"oldValue,omitempty"`
	NewValue interface{} `json:"newValue,omitempty"`
	Impact   Impact      `json:"impact"`
}

// VersionChange is one append-only history entry. A rollback entry carries
// RestoredFrom pointing at the version whose content was restored.
type VersionChange struct {
	Timestamp     time.Time     `json:"timestamp"`
	Actor         string        `json:"actor"`
	ChangeType    ChangeType    `json:"changeType"`
	Changes       []FieldChange `json:"changes"`
	Reason        string        `json:"reason,omitempty"`
	RollbackPoint bool          `json:"rollbackPoint"`
	RestoredFrom  string        `json:"restoredFrom,omitempty"`
}

// DiffSummary is a count histogram over impact categories.
type DiffSummary struct {
	Breaking    int `json:"breaking"`
	Enhancement int `json:"enhancement"`
	Bugfix      int `json:"bugfix"`
	Cosmetic    int `json:"cosmetic"`
	Total       int `json:"total"`
}

// Add counts one change into the summary.
func (s *DiffSummary) Add(impact Impact) {
	switch impact {
	case ImpactBreaking:
		s.Breaking++
	case ImpactEnhancement:
		s.Enhancement++
	case ImpactBugfix:
		s.Bugfix++
	case ImpactCosmetic:
		s.Cosmetic++
	}
	s.Total++
}

// VersionComparison is the result of a structural diff between two versions.
type VersionComparison struct {
	TemplateID  string        `json:"templateId"`
	VersionA    string        `json:"versionA"`
	VersionB    string        `json:"versionB"`
	Differences []FieldChange `json:"differences"`
	Summary     DiffSummary   `json:"summary"`
}
