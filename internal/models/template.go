// internal/models/template.go
package models

import (
	"encoding/json"
	"time"
)

// TemplateStatus is the lifecycle state of a template version.
type TemplateStatus string

const (
	StatusDraft      TemplateStatus = "draft"
	StatusActive     TemplateStatus = "active"
	StatusBeta       TemplateStatus = "beta"
	StatusDeprecated TemplateStatus = "deprecated"
)

// SegmentType distinguishes fixed content from user-fillable slots.
type SegmentType string

const (
	SegmentFixed        SegmentType = "fixed"
	SegmentUserFillable SegmentType = "user_fillable"
)

// Complexity buckets templates for search filtering.
type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityAdvanced Complexity = "advanced"
)

// SegmentRules are per-segment content constraints.
type SegmentRules struct {
	MinLength int    `json:"minLength,omitempty"`
	MaxLength int    `json:"maxLength,omitempty"`
	Pattern   string `json:"pattern,omitempty"`
}

// Segment is a named content unit within a template, either fixed or
// user-fillable.
type Segment struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Type     SegmentType   `json:"type"`
	Content  string        `json:"content"`
	Required bool          `json:"required"`
	Order    int           `json:"order"`
	Rules    *SegmentRules `json:"rules,omitempty"`
}

// BusinessContext carries the business framing a template was designed for.
type BusinessContext struct {
	Objectives     []string `json:"objectives,omitempty"`
	Industries     []string `json:"industries,omitempty"`
	TargetAudience string   `json:"targetAudience,omitempty"`
	Tone           string   `json:"tone,omitempty"`
}

// Template is one stored version record of a prompt template. Every version
// of a template is a full snapshot; the Latest flag marks the record that is
// currently active for its TemplateID.
type Template struct {
	TemplateID     string          `json:"templateId"`
	Name           string          `json:"name"`
	Description    string          `json:"description,omitempty"`
	Version        string          `json:"version"`
	Status         TemplateStatus  `json:"status"`
	Category       string          `json:"category,omitempty"`
	Complexity     Complexity      `json:"complexity,omitempty"`
	Segments       []Segment       `json:"segments"`
	VoiceConfig    json.RawMessage `json:"voiceConfig,omitempty"`
	ModelConfig    json.RawMessage `json:"modelConfig,omitempty"`
	Business       BusinessContext `json:"business"`
	UsageCount     int             `json:"usageCount"`
	AverageRating  float64         `json:"averageRating"`
	RatingCount    int             `json:"ratingCount"`
	Creator        string          `json:"creator"`
	Tags           []string        `json:"tags,omitempty"`
	SearchKeywords []string        `json:"searchKeywords,omitempty"`
	ClonedFrom     string          `json:"clonedFrom,omitempty"`
	Latest         bool            `json:"latest"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
	VersionHistory []VersionChange `json:"versionHistory"`
}

// SegmentByID returns the segment with the given id, or nil.
func (t *Template) SegmentByID(id string) *Segment {
	for i := range t.Segments {
		if t.Segments[i].ID == id {
			return &t.Segments[i]
		}
	}
	return nil
}

// Clone returns a deep copy of the template. Version records are immutable
// once written, so every mutation path works on a copy.
func (t *Template) Clone() *Template {
	cp := *t

	cp.Segments = make([]Segment, len(t.Segments))
	copy(cp.Segments, t.Segments)
	for i := range cp.Segments {
		if t.Segments[i].Rules != nil {
			rules := *t.Segments[i].Rules
			cp.Segments[i].Rules = &rules
		}
	}

	cp.VoiceConfig = append(json.RawMessage(nil), t.VoiceConfig...)
	cp.ModelConfig = append(json.RawMessage(nil), t.ModelConfig...)
	cp.Tags = append([]string(nil), t.Tags...)
	cp.SearchKeywords = append([]string(nil), t.SearchKeywords...)

	cp.Business.Objectives = append([]string(nil), t.Business.Objectives...)
	cp.Business.Industries = append([]string(nil), t.Business.Industries...)

	cp.VersionHistory = make([]VersionChange, len(t.VersionHistory))
	copy(cp.VersionHistory, t.VersionHistory)
	for i := range cp.VersionHistory {
		cp.VersionHistory[i].Changes = append([]FieldChange(nil), t.VersionHistory[i].Changes...)
	}

	return &cp
}
