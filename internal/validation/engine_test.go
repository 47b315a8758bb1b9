// internal/validation/engine_test.go
package validation

import (
	"encoding/json"
	"testing"

	"template-manager/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func validVoiceConfig() json.RawMessage {
	return json.RawMessage(`{"provider":"polly","voiceId":"Joanna","language":"en-US"}`)
}

func validModelConfig() json.RawMessage {
	return json.RawMessage(`{"provider":"bedrock","model":"claude-3-haiku","temperature":0.7}`)
}

func validTemplate() *models.Template {
	return &models.Template{
		TemplateID:  "tpl-123",
		Name:        "Order Support Agent",
		Description: "Handles inbound order status questions with escalation to a human agent.",
		Version:     "1.0.0",
		Status:      models.StatusDraft,
		Segments: []models.Segment{
			{ID: "greeting", Name: "Greeting", Type: models.SegmentFixed, Content: "Hello, thanks for calling.", Required: true, Order: 1},
			{ID: "company", Name: "Company Name", Type: models.SegmentUserFillable, Content: "Acme Corp", Required: true, Order: 2},
			{ID: "closing", Name: "Closing", Type: models.SegmentFixed, Content: "Goodbye!", Order: 3},
		},
		VoiceConfig: validVoiceConfig(),
		ModelConfig: validModelConfig(),
		Business: models.BusinessContext{
			Objectives:     []string{"reduce call handle time"},
			Industries:     []string{"retail"},
			TargetAudience: "existing customers",
			Tone:           "friendly",
		},
		Creator: "ops@example.com",
		Tags:    []string{"support", "orders"},
	}
}

func newTestEngine(t *testing.T) *Engine {
	engine, err := New()
	require.NoError(t, err)
	return engine
}

// ==========================
// Critical Error Tests
// ==========================

func TestValidate_ValidTemplate(t *testing.T) {
	engine := newTestEngine(t)

	result := engine.Validate(validTemplate())

	assert.True(t, result.IsValid)
	assert.Empty(t, result.CriticalErrors())
}

func TestValidate_CriticalConditions(t *testing.T) {
	tests := []struct {
		name          string
		mutate        func(tpl *models.Template)
		expectedField string
	}{
		{
			name:          "missing name",
			mutate:        func(tpl *models.Template) { tpl.Name = "  " },
			expectedField: "name",
		},
		{
			name:          "empty segment list",
			mutate:        func(tpl *models.Template) { tpl.Segments = nil },
			expectedField: "segments",
		},
		{
			name:          "missing voice config",
			mutate:        func(tpl *models.Template) { tpl.VoiceConfig = nil },
			expectedField: "voiceConfig",
		},
		{
			name: "voice config missing required field",
			mutate: func(tpl *models.Template) {
				tpl.VoiceConfig = json.RawMessage(`{"provider":"polly"}`)
			},
			expectedField: "voiceConfig",
		},
		{
			name:          "missing model config",
			mutate:        func(tpl *models.Template) { tpl.ModelConfig = nil },
			expectedField: "modelConfig",
		},
		{
			name: "model config out of range temperature",
			mutate: func(tpl *models.Template) {
				tpl.ModelConfig = json.RawMessage(`{"provider":"bedrock","model":"m","temperature":9}`)
			},
			expectedField: "modelConfig",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newTestEngine(t)
			tpl := validTemplate()
			tt.mutate(tpl)

			result := engine.Validate(tpl)

			assert.False(t, result.IsValid)
			fields := make([]string, 0)
			for _, e := range result.CriticalErrors() {
				fields = append(fields, e.Field)
			}
			assert.Contains(t, fields, tt.expectedField)
		})
	}
}

func TestValidate_RequiredSegmentWithoutContent_IsMajorNotBlocking(t *testing.T) {
	engine := newTestEngine(t)
	tpl := validTemplate()
	tpl.Segments[0].Content = ""

	result := engine.Validate(tpl)

	// Major errors are advisory: the template stays valid.
	assert.True(t, result.IsValid)

	found := false
	for _, e := range result.Errors {
		if e.Severity == SeverityMajor && e.Field == "segments.greeting.content" {
			found = true
		}
	}
	assert.True(t, found, "expected a major error on segments.greeting.content")
}

func TestValidate_SegmentRuleViolations_AreMinor(t *testing.T) {
	engine := newTestEngine(t)
	tpl := validTemplate()
	tpl.Segments[0].Rules = &models.SegmentRules{MinLength: 100}

	result := engine.Validate(tpl)

	assert.True(t, result.IsValid)
	found := false
	for _, e := range result.Errors {
		if e.Severity == SeverityMinor && e.Field == "segments.greeting.content" {
			found = true
		}
	}
	assert.True(t, found)
}

// ==========================
// Warning & Suggestion Tests
// ==========================

func TestValidate_Warnings(t *testing.T) {
	engine := newTestEngine(t)
	tpl := validTemplate()
	for i := range tpl.Segments {
		tpl.Segments[i].Type = models.SegmentFixed
	}
	tpl.Business.Objectives = nil

	result := engine.Validate(tpl)

	assert.True(t, result.IsValid)
	assert.Len(t, result.Warnings, 2)
}

func TestValidate_TooManySegments_Suggestion(t *testing.T) {
	engine := newTestEngine(t)
	tpl := validTemplate()
	for i := 0; i < 12; i++ {
		tpl.Segments = append(tpl.Segments, models.Segment{
			ID: string(rune('a' + i)), Name: "Extra", Type: models.SegmentFixed,
			Content: "x", Order: 10 + i,
		})
	}

	result := engine.Validate(tpl)

	require.NotEmpty(t, result.Suggestions)
	assert.Equal(t, LevelHigh, result.Suggestions[0].Impact)
}

func TestValidate_ShortDescription_Suggestion(t *testing.T) {
	engine := newTestEngine(t)
	tpl := validTemplate()
	tpl.Description = "short"

	result := engine.Validate(tpl)

	require.NotEmpty(t, result.Suggestions)
	assert.Equal(t, LevelLow, result.Suggestions[0].Effort)
}

// ==========================
// Scoring Tests
// ==========================

func TestValidate_ScoreBounds(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(tpl *models.Template)
	}{
		{name: "fully valid", mutate: func(tpl *models.Template) {}},
		{name: "empty template", mutate: func(tpl *models.Template) {
			*tpl = models.Template{}
		}},
		{name: "partial template", mutate: func(tpl *models.Template) {
			tpl.Description = ""
			tpl.Business = models.BusinessContext{}
			tpl.Tags = nil
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newTestEngine(t)
			tpl := validTemplate()
			tt.mutate(tpl)

			score := engine.Validate(tpl).Score

			for _, sub := range []float64{score.Completeness, score.Clarity, score.BusinessAlignment, score.TechnicalQuality, score.Overall} {
				assert.GreaterOrEqual(t, sub, 0.0)
				assert.LessOrEqual(t, sub, 1.0)
			}

			mean := (score.Completeness + score.Clarity + score.BusinessAlignment + score.TechnicalQuality) / 4
			assert.InDelta(t, mean, score.Overall, 1e-9)
		})
	}
}

func TestValidate_FullyValidTemplate_ScoresHigh(t *testing.T) {
	engine := newTestEngine(t)

	score := engine.Validate(validTemplate()).Score

	assert.Equal(t, 1.0, score.Completeness)
	assert.Equal(t, 1.0, score.BusinessAlignment)
	assert.Equal(t, 1.0, score.TechnicalQuality)
}

func TestValidate_IsDeterministic(t *testing.T) {
	engine := newTestEngine(t)
	tpl := validTemplate()

	first := engine.Validate(tpl)
	second := engine.Validate(tpl)

	assert.Equal(t, first, second)
}
