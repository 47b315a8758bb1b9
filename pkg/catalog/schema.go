// pkg/catalog/schema.go
package catalog

import (
	"encoding/json"

	"template-manager/internal/models"
)

// Catalog is a file of starter templates seeded into an empty store on boot.
type Catalog struct {
	Version     string  `json:"version"`
	LastUpdated string  `json:"lastUpdated"`
	Templates   []Entry `json:"templates"`
}

// Entry is one starter template definition. It mirrors the stored template
// shape minus identity and counters, which are assigned at seed time.
type Entry struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Category    string                 `json:"category"`
	Complexity  string                 `json:"complexity"`
	Segments    []models.Segment       `json:"segments"`
	VoiceConfig json.RawMessage        `json:"voiceConfig,omitempty"`
	ModelConfig json.RawMessage        `json:"modelConfig,omitempty"`
	Business    models.BusinessContext `json:"business"`
	Tags        []string               `json:"tags,omitempty"`
}

// catalogSchemaJSON is the JSON Schema every catalog file must satisfy before
// any entry is seeded.
const catalogSchemaJSON = `{
	"type": "object",
	"required": ["version", "templates"],
	"properties": {
		"version": {"type": "string"},
		"lastUpdated": {"type": "string"},
		"templates": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["id", "name", "segments"],
				"properties": {
					"id": {"type": "string", "pattern": "^[a-z0-9]+(-[a-z0-9]+)*$"},
					"name": {"type": "string", "minLength": 1},
					"description": {"type": "string"},
					"category": {"type": "string"},
					"complexity": {"enum": ["", "simple", "moderate", "advanced"]},
					"segments": {
						"type": "array",
						"minItems": 1,
						"items": {
							"type": "object",
							"required": ["id", "name", "type"],
							"properties": {
								"id": {"type": "string", "minLength": 1},
								"name": {"type": "string", "minLength": 1},
								"type": {"enum": ["fixed", "user_fillable"]},
								"content": {"type": "string"},
								"required": {"type": "boolean"},
								"order": {"type": "integer", "minimum": 0}
							}
						}
					},
					"tags": {"type": "array", "items": {"type": "string"}}
				}
			}
		}
	}
}`
