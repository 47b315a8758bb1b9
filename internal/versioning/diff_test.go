// internal/versioning/diff_test.go
package versioning

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"template-manager/internal/models"
)

func diffFixture() *models.Template {
	return &models.Template{
		TemplateID:  "tpl-1",
		Name:        "Support Triage",
		Description: "Routes inbound support requests to the right queue.",
		Category:    "support",
		Status:      models.StatusActive,
		Segments: []models.Segment{
			{ID: "intro", Name: "Intro", Type: models.SegmentFixed, Content: "You are a support triage assistant.", Required: true, Order: 1},
			{ID: "rules", Name: "Rules", Type: models.SegmentFixed, Content: "Always ask for the account id before routing.", Required: false, Order: 2},
		},
		VoiceConfig: json.RawMessage(`{"provider":"elevenlabs","voiceId":"v1","language":"en"}`),
		ModelConfig: json.RawMessage(`{"provider":"openai","model":"gpt-4o"}`),
		Business: models.BusinessContext{
			Objectives: []string{"reduce response time"},
			Tone:       "calm",
		},
		Tags: []string{"support"},
	}
}

func TestComputeDiffIdenticalTemplates(t *testing.T) {
	a := diffFixture()
	b := diffFixture()

	diffs := computeDiff(a, b)
	assert.Empty(t, diffs)
	assert.Equal(t, models.DiffSummary{}, summarize(diffs))
}

func TestComputeDiffIgnoresJSONFormatting(t *testing.T) {
	a := diffFixture()
	b := diffFixture()
	b.ModelConfig = json.RawMessage("{\n  \"provider\": \"openai\",\n  \"model\": \"gpt-4o\"\n}")

	assert.Empty(t, computeDiff(a, b))
}

// ==========================
// Impact classification
// ==========================

func TestComputeDiffImpacts(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(b *models.Template)
		wantPath   string
		wantImpact models.Impact
	}{
		{
			name:       "rename is cosmetic",
			mutate:     func(b *models.Template) { b.Name = "Ticket Triage" },
			wantPath:   "name",
			wantImpact: models.ImpactCosmetic,
		},
		{
			name:       "status change is enhancement",
			mutate:     func(b *models.Template) { b.Status = models.StatusDeprecated },
			wantPath:   "status",
			wantImpact: models.ImpactEnhancement,
		},
		{
			name: "voice config change is breaking",
			mutate: func(b *models.Template) {
				b.VoiceConfig = json.RawMessage(`{"provider":"azure","voiceId":"v2","language":"en"}`)
			},
			wantPath:   "voiceConfig",
			wantImpact: models.ImpactBreaking,
		},
		{
			name:       "segment removal is breaking",
			mutate:     func(b *models.Template) { b.Segments = b.Segments[:1] },
			wantPath:   "segments.rules",
			wantImpact: models.ImpactBreaking,
		},
		{
			name: "segment addition is enhancement",
			mutate: func(b *models.Template) {
				b.Segments = append(b.Segments, models.Segment{ID: "closing", Name: "Closing", Order: 3})
			},
			wantPath:   "segments.closing",
			wantImpact: models.ImpactEnhancement,
		},
		{
			name: "relaxing a required segment is enhancement",
			mutate: func(b *models.Template) {
				b.Segments[0].Required = false
			},
			wantPath:   "segments.intro.required",
			wantImpact: models.ImpactEnhancement,
		},
		{
			name: "making a segment required is breaking",
			mutate: func(b *models.Template) {
				b.Segments[1].Required = true
			},
			wantPath:   "segments.rules.required",
			wantImpact: models.ImpactBreaking,
		},
		{
			name: "segment type change is breaking",
			mutate: func(b *models.Template) {
				b.Segments[1].Type = models.SegmentUserFillable
			},
			wantPath:   "segments.rules.type",
			wantImpact: models.ImpactBreaking,
		},
		{
			name: "objectives change is enhancement",
			mutate: func(b *models.Template) {
				b.Business.Objectives = []string{"reduce response time", "improve routing accuracy"}
			},
			wantPath:   "business.objectives",
			wantImpact: models.ImpactEnhancement,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := diffFixture()
			b := diffFixture()
			tt.mutate(b)

			diffs := computeDiff(a, b)
			found := false
			for _, d := range diffs {
				if d.Path == tt.wantPath {
					found = true
					assert.Equal(t, tt.wantImpact, d.Impact)
				}
			}
			require.True(t, found, "expected a diff at %s, got %+v", tt.wantPath, diffs)
		})
	}
}

func TestClassifyContentChange(t *testing.T) {
	long := "Always ask for the account id before routing the caller to a queue."

	tests := []struct {
		name string
		old  string
		new  string
		want models.Impact
	}{
		{name: "whitespace only", old: long, new: "  " + long + "\n", want: models.ImpactCosmetic},
		{name: "small correction", old: long, new: long[:len(long)-1] + "s.", want: models.ImpactBugfix},
		{name: "full rewrite", old: long, new: "Route every caller straight to tier two.", want: models.ImpactEnhancement},
		{name: "from empty", old: "", new: long, want: models.ImpactEnhancement},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyContentChange(tt.old, tt.new))
		})
	}
}

func TestSummarize(t *testing.T) {
	summary := summarize([]models.FieldChange{
		{Impact: models.ImpactBreaking},
		{Impact: models.ImpactBreaking},
		{Impact: models.ImpactEnhancement},
		{Impact: models.ImpactBugfix},
		{Impact: models.ImpactCosmetic},
	})

	assert.Equal(t, models.DiffSummary{
		Breaking: 2, Enhancement: 1, Bugfix: 1, Cosmetic: 1, Total: 5,
	}, summary)
}
