// pkg/catalog/catalog.go
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"template-manager/internal/models"
)

// Load reads and validates a starter template catalog from disk.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return Parse(data)
}

// Parse validates raw catalog JSON against the catalog schema and decodes it.
func Parse(data []byte) (*Catalog, error) {
	schemaLoader := gojsonschema.NewStringLoader(catalogSchemaJSON)
	documentLoader := gojsonschema.NewBytesLoader(data)

	validation, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, fmt.Errorf("failed to validate catalog: %w", err)
	}
	if !validation.Valid() {
		return nil, fmt.Errorf("invalid catalog: %s", formatSchemaErrors(validation))
	}

	var catalog Catalog
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if err := checkUniqueIDs(&catalog); err != nil {
		return nil, err
	}
	return &catalog, nil
}

// Seeds converts the catalog entries into stored template records. Entries
// come out as active first versions attributed to the given creator.
func (c *Catalog) Seeds(creator string) []*models.Template {
	now := time.Now().UTC()

	templates := make([]*models.Template, 0, len(c.Templates))
	for _, entry := range c.Templates {
		complexity := models.Complexity(entry.Complexity)
		if complexity == "" {
			complexity = models.ComplexitySimple
		}
		templates = append(templates, &models.Template{
			TemplateID:  entry.ID,
			Name:        entry.Name,
			Description: entry.Description,
			Version:     "1.0.0",
			Status:      models.StatusActive,
			Category:    entry.Category,
			Complexity:  complexity,
			Segments:    cloneSegments(entry.Segments),
			VoiceConfig: append(json.RawMessage(nil), entry.VoiceConfig...),
			ModelConfig: append(json.RawMessage(nil), entry.ModelConfig...),
			Business:    entry.Business,
			Tags:        append([]string(nil), entry.Tags...),
			Creator:     creator,
			Latest:      true,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}
	return templates
}

// Entry returns the catalog entry with the given id, or nil.
func (c *Catalog) Entry(id string) *Entry {
	for i := range c.Templates {
		if c.Templates[i].ID == id {
			return &c.Templates[i]
		}
	}
	return nil
}

func checkUniqueIDs(c *Catalog) error {
	seen := make(map[string]bool, len(c.Templates))
	for _, entry := range c.Templates {
		if seen[entry.ID] {
			return fmt.Errorf("invalid catalog: duplicate template id %q", entry.ID)
		}
		seen[entry.ID] = true
	}
	return nil
}

func cloneSegments(segments []models.Segment) []models.Segment {
	out := make([]models.Segment, len(segments))
	copy(out, segments)
	return out
}

func formatSchemaErrors(result *gojsonschema.Result) string {
	msg := ""
	for i, desc := range result.Errors() {
		if i > 0 {
			msg += "; "
		}
		msg += desc.String()
	}
	return msg
}
