// internal/versioning/diff.go
package versioning

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"template-manager/internal/models"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// computeDiff produces the structural field-level differences between two
// stored versions of the same template. Impact classification is
// deterministic: configuration and segment removals break consumers, added
// capability is an enhancement, small content corrections are bugfixes, and
// metadata-only edits are cosmetic.
func computeDiff(a, b *models.Template) []models.FieldChange {
	var diffs []models.FieldChange

	addIfChanged := func(path, oldV, newV string, impact models.Impact) {
		if oldV != newV {
			diffs = append(diffs, models.FieldChange{
				Path: path, OldValue: oldV, NewValue: newV, Impact: impact,
			})
		}
	}

	addIfChanged("name", a.Name, b.Name, models.ImpactCosmetic)
	addIfChanged("description", a.Description, b.Description, models.ImpactCosmetic)
	addIfChanged("category", a.Category, b.Category, models.ImpactCosmetic)
	addIfChanged("complexity", string(a.Complexity), string(b.Complexity), models.ImpactCosmetic)
	addIfChanged("status", string(a.Status), string(b.Status), models.ImpactEnhancement)
	addIfChanged("business.targetAudience", a.Business.TargetAudience, b.Business.TargetAudience, models.ImpactEnhancement)
	addIfChanged("business.tone", a.Business.Tone, b.Business.Tone, models.ImpactEnhancement)

	if !stringSlicesEqual(a.Tags, b.Tags) {
		diffs = append(diffs, models.FieldChange{
			Path: "tags", OldValue: a.Tags, NewValue: b.Tags, Impact: models.ImpactCosmetic,
		})
	}
	if !stringSlicesEqual(a.Business.Objectives, b.Business.Objectives) {
		diffs = append(diffs, models.FieldChange{
			Path: "business.objectives", OldValue: a.Business.Objectives,
			NewValue: b.Business.Objectives, Impact: models.ImpactEnhancement,
		})
	}
	if !stringSlicesEqual(a.Business.Industries, b.Business.Industries) {
		diffs = append(diffs, models.FieldChange{
			Path: "business.industries", OldValue: a.Business.Industries,
			NewValue: b.Business.Industries, Impact: models.ImpactEnhancement,
		})
	}

	if !jsonDocsEqual(a.VoiceConfig, b.VoiceConfig) {
		diffs = append(diffs, models.FieldChange{
			Path: "voiceConfig", OldValue: string(a.VoiceConfig),
			NewValue: string(b.VoiceConfig), Impact: models.ImpactBreaking,
		})
	}
	if !jsonDocsEqual(a.ModelConfig, b.ModelConfig) {
		diffs = append(diffs, models.FieldChange{
			Path: "modelConfig", OldValue: string(a.ModelConfig),
			NewValue: string(b.ModelConfig), Impact: models.ImpactBreaking,
		})
	}

	diffs = append(diffs, diffSegments(a, b)...)
	return diffs
}

func diffSegments(a, b *models.Template) []models.FieldChange {
	var diffs []models.FieldChange

	for _, oldSeg := range a.Segments {
		newSeg := b.SegmentByID(oldSeg.ID)
		if newSeg == nil {
			diffs = append(diffs, models.FieldChange{
				Path:     fmt.Sprintf("segments.%s", oldSeg.ID),
				OldValue: oldSeg.Name,
				Impact:   models.ImpactBreaking,
			})
			continue
		}

		prefix := fmt.Sprintf("segments.%s", oldSeg.ID)
		if oldSeg.Name != newSeg.Name {
			diffs = append(diffs, models.FieldChange{
				Path: prefix + ".name", OldValue: oldSeg.Name, NewValue: newSeg.Name,
				Impact: models.ImpactCosmetic,
			})
		}
		if oldSeg.Type != newSeg.Type {
			diffs = append(diffs, models.FieldChange{
				Path: prefix + ".type", OldValue: string(oldSeg.Type), NewValue: string(newSeg.Type),
				Impact: models.ImpactBreaking,
			})
		}
		if oldSeg.Required != newSeg.Required {
			impact := models.ImpactEnhancement
			if newSeg.Required {
				// Tightening a segment to required breaks existing fills.
				impact = models.ImpactBreaking
			}
			diffs = append(diffs, models.FieldChange{
				Path: prefix + ".required", OldValue: oldSeg.Required, NewValue: newSeg.Required,
				Impact: impact,
			})
		}
		if oldSeg.Content != newSeg.Content {
			diffs = append(diffs, models.FieldChange{
				Path: prefix + ".content", OldValue: oldSeg.Content, NewValue: newSeg.Content,
				Impact: classifyContentChange(oldSeg.Content, newSeg.Content),
			})
		}
	}

	for _, newSeg := range b.Segments {
		if a.SegmentByID(newSeg.ID) == nil {
			diffs = append(diffs, models.FieldChange{
				Path:     fmt.Sprintf("segments.%s", newSeg.ID),
				NewValue: newSeg.Name,
				Impact:   models.ImpactEnhancement,
			})
		}
	}

	return diffs
}

// classifyContentChange grades a segment content edit by its text diff:
// whitespace-only edits are cosmetic, edits touching under a quarter of the
// text are bugfixes, larger rewrites are enhancements.
func classifyContentChange(oldContent, newContent string) models.Impact {
	if normalizeWhitespace(oldContent) == normalizeWhitespace(newContent) {
		return models.ImpactCosmetic
	}

	dmp := diffmatchpatch.New()
	changed := 0
	for _, d := range dmp.DiffMain(oldContent, newContent, false) {
		if d.Type != diffmatchpatch.DiffEqual {
			changed += len(d.Text)
		}
	}

	longest := len(oldContent)
	if len(newContent) > longest {
		longest = len(newContent)
	}
	if longest > 0 && float64(changed)/float64(longest) < 0.25 {
		return models.ImpactBugfix
	}
	return models.ImpactEnhancement
}

// summarize builds the impact histogram for a difference list.
func summarize(diffs []models.FieldChange) models.DiffSummary {
	var summary models.DiffSummary
	for _, d := range diffs {
		summary.Add(d.Impact)
	}
	return summary
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func stringSlicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// jsonDocsEqual compares two raw JSON documents ignoring formatting.
func jsonDocsEqual(a, b json.RawMessage) bool {
	if len(a) == 0 || len(b) == 0 {
		return len(a) == len(b)
	}

	var ca, cb bytes.Buffer
	if err := json.Compact(&ca, a); err != nil {
		return bytes.Equal(a, b)
	}
	if err := json.Compact(&cb, b); err != nil {
		return bytes.Equal(a, b)
	}
	return bytes.Equal(ca.Bytes(), cb.Bytes())
}
