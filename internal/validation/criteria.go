// internal/validation/criteria.go
package validation

import (
	"fmt"
	"sort"
	"strings"

	"template-manager/internal/models"
)

// Category names one scoring dimension.
type Category string

const (
	CategoryCompleteness      Category = "completeness"
	CategoryClarity           Category = "clarity"
	CategoryBusinessAlignment Category = "business_alignment"
	CategoryTechnicalQuality  Category = "technical_quality"
)

// Categories lists the scoring dimensions in a stable order.
var Categories = []Category{
	CategoryCompleteness,
	CategoryClarity,
	CategoryBusinessAlignment,
	CategoryTechnicalQuality,
}

// Criterion is one weighted check inside a category.
type Criterion struct {
	Name      string
	Weight    float64
	Satisfied func(t *models.Template) bool
}

// CriteriaTable is the data-driven scoring weight table. Weights are
// overridable from configuration without code changes.
type CriteriaTable map[Category][]Criterion

// DefaultCriteria returns the built-in criteria set.
func DefaultCriteria() CriteriaTable {
	return CriteriaTable{
		CategoryCompleteness: {
			{Name: "has_name", Weight: 0.20, Satisfied: func(t *models.Template) bool {
				return strings.TrimSpace(t.Name) != ""
			}},
			{Name: "has_description", Weight: 0.15, Satisfied: func(t *models.Template) bool {
				return strings.TrimSpace(t.Description) != ""
			}},
			{Name: "has_segments", Weight: 0.25, Satisfied: func(t *models.Template) bool {
				return len(t.Segments) > 0
			}},
			{Name: "required_segments_filled", Weight: 0.20, Satisfied: func(t *models.Template) bool {
				for _, s := range t.Segments {
					if s.Required && strings.TrimSpace(s.Content) == "" {
						return false
					}
				}
				return len(t.Segments) > 0
			}},
			{Name: "has_voice_config", Weight: 0.10, Satisfied: func(t *models.Template) bool {
				return len(t.VoiceConfig) > 0
			}},
			{Name: "has_model_config", Weight: 0.10, Satisfied: func(t *models.Template) bool {
				return len(t.ModelConfig) > 0
			}},
		},
		CategoryClarity: {
			{Name: "descriptive_name", Weight: 0.20, Satisfied: func(t *models.Template) bool {
				return len(strings.TrimSpace(t.Name)) >= 8
			}},
			{Name: "segments_named", Weight: 0.25, Satisfied: func(t *models.Template) bool {
				if len(t.Segments) == 0 {
					return false
				}
				for _, s := range t.Segments {
					if strings.TrimSpace(s.Name) == "" {
						return false
					}
				}
				return true
			}},
			{Name: "segments_ordered", Weight: 0.15, Satisfied: segmentsOrdered},
			{Name: "bounded_segment_count", Weight: 0.20, Satisfied: func(t *models.Template) bool {
				return len(t.Segments) >= 1 && len(t.Segments) <= maxRecommendedSegments
			}},
			{Name: "documented", Weight: 0.20, Satisfied: func(t *models.Template) bool {
				return len(strings.TrimSpace(t.Description)) >= minDocumentedDescription
			}},
		},
		CategoryBusinessAlignment: {
			{Name: "has_objectives", Weight: 0.30, Satisfied: func(t *models.Template) bool {
				return len(t.Business.Objectives) > 0
			}},
			{Name: "has_industry", Weight: 0.20, Satisfied: func(t *models.Template) bool {
				return len(t.Business.Industries) > 0
			}},
			{Name: "has_target_audience", Weight: 0.20, Satisfied: func(t *models.Template) bool {
				return strings.TrimSpace(t.Business.TargetAudience) != ""
			}},
			{Name: "has_tone", Weight: 0.15, Satisfied: func(t *models.Template) bool {
				return strings.TrimSpace(t.Business.Tone) != ""
			}},
			{Name: "tagged", Weight: 0.15, Satisfied: func(t *models.Template) bool {
				return len(t.Tags) > 0
			}},
		},
		CategoryTechnicalQuality: {
			{Name: "voice_config_valid", Weight: 0.30, Satisfied: func(t *models.Template) bool {
				return configMatchesSchema(t.VoiceConfig, voiceConfigSchema)
			}},
			{Name: "model_config_valid", Weight: 0.30, Satisfied: func(t *models.Template) bool {
				return configMatchesSchema(t.ModelConfig, modelConfigSchema)
			}},
			{Name: "segment_rules_satisfied", Weight: 0.20, Satisfied: func(t *models.Template) bool {
				for _, s := range t.Segments {
					if len(segmentRuleViolations(s)) > 0 {
						return false
					}
				}
				return true
			}},
			{Name: "has_user_fillable", Weight: 0.20, Satisfied: func(t *models.Template) bool {
				for _, s := range t.Segments {
					if s.Type == models.SegmentUserFillable {
						return true
					}
				}
				return false
			}},
		},
	}
}

// ApplyWeightOverrides replaces criterion weights by "<category>.<criterion>"
// key. Unknown keys are an error so a config typo cannot silently skew scores.
func (c CriteriaTable) ApplyWeightOverrides(weights map[string]float64) error {
	for key, w := range weights {
		parts := strings.SplitN(key, ".", 2)
		if len(parts) != 2 {
			return fmt.Errorf("scoring weight key %q must be <category>.<criterion>", key)
		}
		criteria, ok := c[Category(parts[0])]
		if !ok {
			return fmt.Errorf("unknown scoring category %q", parts[0])
		}
		found := false
		for i := range criteria {
			if criteria[i].Name == parts[1] {
				criteria[i].Weight = w
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("unknown scoring criterion %q in category %q", parts[1], parts[0])
		}
	}
	return nil
}

// Score computes the sub-score for every category plus the unweighted mean.
func (c CriteriaTable) Score(t *models.Template) Scores {
	byCategory := make(map[Category]float64, len(Categories))
	for _, cat := range Categories {
		byCategory[cat] = scoreCategory(c[cat], t)
	}

	scores := Scores{
		Completeness:      byCategory[CategoryCompleteness],
		Clarity:           byCategory[CategoryClarity],
		BusinessAlignment: byCategory[CategoryBusinessAlignment],
		TechnicalQuality:  byCategory[CategoryTechnicalQuality],
	}
	scores.Overall = (scores.Completeness + scores.Clarity +
		scores.BusinessAlignment + scores.TechnicalQuality) / float64(len(Categories))
	return scores
}

func scoreCategory(criteria []Criterion, t *models.Template) float64 {
	var total, satisfied float64
	for _, crit := range criteria {
		total += crit.Weight
		if crit.Satisfied(t) {
			satisfied += crit.Weight
		}
	}
	if total == 0 {
		return 0
	}
	return satisfied / total
}

func segmentsOrdered(t *models.Template) bool {
	if len(t.Segments) == 0 {
		return false
	}
	orders := make([]int, len(t.Segments))
	for i, s := range t.Segments {
		orders[i] = s.Order
	}
	if !sort.IntsAreSorted(orders) {
		return false
	}
	for i := 1; i < len(orders); i++ {
		if orders[i] == orders[i-1] {
			return false
		}
	}
	return true
}
