// internal/versioning/patch.go
package versioning

import (
	"encoding/json"
	"fmt"
	"strings"

	apperrors "template-manager/internal/common/errors"
	"template-manager/internal/models"
)

// applyFieldChanges applies path-addressed edits to a template copy. The set
// of addressable paths is explicit: every path maps to a typed setter, and
// unknown paths are rejected instead of being resolved by reflection.
func applyFieldChanges(t *models.Template, changes []models.FieldChange) error {
	for _, change := range changes {
		if err := applyFieldChange(t, change); err != nil {
			return err
		}
	}
	return nil
}

func applyFieldChange(t *models.Template, change models.FieldChange) error {
	switch {
	case change.Path == "name":
		return setString(&t.Name, change)
	case change.Path == "description":
		return setString(&t.Description, change)
	case change.Path == "category":
		return setString(&t.Category, change)
	case change.Path == "complexity":
		var v string
		if err := setString(&v, change); err != nil {
			return err
		}
		t.Complexity = models.Complexity(v)
		return nil
	case change.Path == "status":
		var v string
		if err := setString(&v, change); err != nil {
			return err
		}
		t.Status = models.TemplateStatus(v)
		return nil
	case change.Path == "tags":
		return setStringSlice(&t.Tags, change)
	case change.Path == "voiceConfig":
		return setRawJSON(&t.VoiceConfig, change)
	case change.Path == "modelConfig":
		return setRawJSON(&t.ModelConfig, change)
	case change.Path == "business.objectives":
		return setStringSlice(&t.Business.Objectives, change)
	case change.Path == "business.industries":
		return setStringSlice(&t.Business.Industries, change)
	case change.Path == "business.targetAudience":
		return setString(&t.Business.TargetAudience, change)
	case change.Path == "business.tone":
		return setString(&t.Business.Tone, change)
	case strings.HasPrefix(change.Path, "segments."):
		return applySegmentChange(t, change)
	default:
		return apperrors.NewInvalidFieldPathError(change.Path)
	}
}

// applySegmentChange resolves "segments.<id>.<field>" paths.
func applySegmentChange(t *models.Template, change models.FieldChange) error {
	parts := strings.Split(change.Path, ".")
	if len(parts) != 3 {
		return apperrors.NewInvalidFieldPathError(change.Path)
	}

	segment := t.SegmentByID(parts[1])
	if segment == nil {
		return apperrors.NewInvalidFieldPathError(change.Path)
	}

	switch parts[2] {
	case "content":
		return setString(&segment.Content, change)
	case "name":
		return setString(&segment.Name, change)
	case "required":
		return setBool(&segment.Required, change)
	default:
		return apperrors.NewInvalidFieldPathError(change.Path)
	}
}

// ==========================
// Typed value coercion
// ==========================

func setString(dst *string, change models.FieldChange) error {
	v, ok := change.NewValue.(string)
	if !ok {
		return valueTypeError(change, "string")
	}
	*dst = v
	return nil
}

func setBool(dst *bool, change models.FieldChange) error {
	v, ok := change.NewValue.(bool)
	if !ok {
		return valueTypeError(change, "bool")
	}
	*dst = v
	return nil
}

// setStringSlice accepts []string directly or []interface{} as produced by
// JSON decoding.
func setStringSlice(dst *[]string, change models.FieldChange) error {
	switch v := change.NewValue.(type) {
	case []string:
		*dst = append([]string(nil), v...)
		return nil
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return valueTypeError(change, "[]string")
			}
			out = append(out, s)
		}
		*dst = out
		return nil
	default:
		return valueTypeError(change, "[]string")
	}
}

// setRawJSON accepts a raw JSON document in any of its common Go carriers.
func setRawJSON(dst *json.RawMessage, change models.FieldChange) error {
	switch v := change.NewValue.(type) {
	case json.RawMessage:
		*dst = append(json.RawMessage(nil), v...)
	case []byte:
		*dst = append(json.RawMessage(nil), v...)
	case string:
		*dst = json.RawMessage(v)
	case map[string]interface{}:
		data, err := json.Marshal(v)
		if err != nil {
			return valueTypeError(change, "JSON object")
		}
		*dst = data
	default:
		return valueTypeError(change, "JSON object")
	}

	if !json.Valid(*dst) {
		return valueTypeError(change, "JSON object")
	}
	return nil
}

func valueTypeError(change models.FieldChange, expected string) error {
	return apperrors.NewInvalidFieldPathError(
		fmt.Sprintf("%s (value must be %s, got %T)", change.Path, expected, change.NewValue))
}
