// Package validation scores and validates template snapshots. The engine is
// a pure function over the template value: no I/O, deterministic output, so
// it runs inline on every create and update.
package validation

import (
	"fmt"
	"regexp"
	"strings"

	"template-manager/internal/models"
)

const (
	maxRecommendedSegments   = 10
	minDocumentedDescription = 40
)

// Engine validates template snapshots against the criteria table.
type Engine struct {
	criteria CriteriaTable
}

// Option configures an Engine.
type Option func(*Engine) error

// WithWeightOverrides replaces criterion weights from configuration, keyed
// "<category>.<criterion>".
func WithWeightOverrides(weights map[string]float64) Option {
	return func(e *Engine) error {
		return e.criteria.ApplyWeightOverrides(weights)
	}
}

// New builds an engine with the default criteria table and any overrides.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{criteria: DefaultCriteria()}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Validate checks one template snapshot and scores it. IsValid is false only
// when at least one critical error is present.
func (e *Engine) Validate(t *models.Template) *Result {
	result := &Result{
		Errors:      []Error{},
		Warnings:    []Warning{},
		Suggestions: []Suggestion{},
	}

	e.checkCritical(t, result)
	e.checkMajor(t, result)
	e.checkMinor(t, result)
	e.collectWarnings(t, result)
	e.collectSuggestions(t, result)

	result.Score = e.criteria.Score(t)
	result.IsValid = len(result.CriticalErrors()) == 0

	return result
}

func (e *Engine) checkCritical(t *models.Template, result *Result) {
	if strings.TrimSpace(t.Name) == "" {
		result.Errors = append(result.Errors, Error{
			Field:    "name",
			Message:  "template name is required",
			Severity: SeverityCritical,
		})
	}

	if len(t.Segments) == 0 {
		result.Errors = append(result.Errors, Error{
			Field:    "segments",
			Message:  "template must contain at least one segment",
			Severity: SeverityCritical,
		})
	}

	for _, violation := range configSchemaViolations(t.VoiceConfig, voiceConfigSchema) {
		result.Errors = append(result.Errors, Error{
			Field:    "voiceConfig",
			Message:  violation,
			Severity: SeverityCritical,
		})
	}

	for _, violation := range configSchemaViolations(t.ModelConfig, modelConfigSchema) {
		result.Errors = append(result.Errors, Error{
			Field:    "modelConfig",
			Message:  violation,
			Severity: SeverityCritical,
		})
	}
}

func (e *Engine) checkMajor(t *models.Template, result *Result) {
	for _, s := range t.Segments {
		if s.Required && strings.TrimSpace(s.Content) == "" {
			result.Errors = append(result.Errors, Error{
				Field:    fmt.Sprintf("segments.%s.content", s.ID),
				Message:  "required segment has no content",
				Severity: SeverityMajor,
			})
		}
	}
}

func (e *Engine) checkMinor(t *models.Template, result *Result) {
	for _, s := range t.Segments {
		for _, violation := range segmentRuleViolations(s) {
			result.Errors = append(result.Errors, Error{
				Field:    fmt.Sprintf("segments.%s.content", s.ID),
				Message:  violation,
				Severity: SeverityMinor,
			})
		}
	}
}

func (e *Engine) collectWarnings(t *models.Template, result *Result) {
	fillable := false
	for _, s := range t.Segments {
		if s.Type == models.SegmentUserFillable {
			fillable = true
			break
		}
	}
	if !fillable {
		result.Warnings = append(result.Warnings, Warning{
			Field:   "segments",
			Message: "template has no user-fillable segments; it cannot be customized per deployment",
		})
	}

	if len(t.Business.Objectives) == 0 {
		result.Warnings = append(result.Warnings, Warning{
			Field:   "business.objectives",
			Message: "no business objectives declared; effectiveness cannot be measured",
		})
	}
}

func (e *Engine) collectSuggestions(t *models.Template, result *Result) {
	if len(t.Segments) > maxRecommendedSegments {
		result.Suggestions = append(result.Suggestions, Suggestion{
			Message: fmt.Sprintf("template has %d segments; consolidating below %d improves maintainability",
				len(t.Segments), maxRecommendedSegments+1),
			Impact: LevelHigh,
			Effort: LevelMedium,
		})
	}

	if len(strings.TrimSpace(t.Description)) < minDocumentedDescription {
		result.Suggestions = append(result.Suggestions, Suggestion{
			Message: "add a description documenting intended use and best practices",
			Impact:  LevelMedium,
			Effort:  LevelLow,
		})
	}
}

// segmentRuleViolations evaluates a segment's own validation rules against
// its content. Empty content is reported by the major check, not here.
func segmentRuleViolations(s models.Segment) []string {
	if s.Rules == nil || strings.TrimSpace(s.Content) == "" {
		return nil
	}

	var violations []string
	if s.Rules.MinLength > 0 && len(s.Content) < s.Rules.MinLength {
		violations = append(violations,
			fmt.Sprintf("content must be at least %d characters", s.Rules.MinLength))
	}
	if s.Rules.MaxLength > 0 && len(s.Content) > s.Rules.MaxLength {
		violations = append(violations,
			fmt.Sprintf("content must be at most %d characters", s.Rules.MaxLength))
	}
	if s.Rules.Pattern != "" {
		re, err := regexp.Compile(s.Rules.Pattern)
		if err != nil {
			violations = append(violations, "segment pattern rule is not a valid regular expression")
		} else if !re.MatchString(s.Content) {
			violations = append(violations,
				fmt.Sprintf("content does not match required pattern %q", s.Rules.Pattern))
		}
	}
	return violations
}
