// internal/manager/indexer.go
package manager

import (
	"context"
	"encoding/json"
	"fmt"

	"template-manager/internal/common/database"
	"template-manager/internal/common/logger"
	"template-manager/internal/models"
)

// Indexer mirrors template metadata into the Elasticsearch keyword index.
// Indexing is best effort: the store row is the source of truth and a failed
// index write never fails the originating operation.
type Indexer struct {
	es     *database.ElasticsearchClient
	index  string
	logger logger.Logger
}

// NewIndexer creates an Indexer writing to the given index.
func NewIndexer(es *database.ElasticsearchClient, index string, log logger.Logger) *Indexer {
	return &Indexer{es: es, index: index, logger: log}
}

// templateDocument is the flattened shape stored in the search index.
type templateDocument struct {
	TemplateID  string   `json:"templateId"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Version     string   `json:"version"`
	Status      string   `json:"status"`
	Category    string   `json:"category"`
	Complexity  string   `json:"complexity"`
	Creator     string   `json:"creator"`
	Tags        []string `json:"tags"`
	Keywords    []string `json:"keywords"`
	UsageCount  int      `json:"usageCount"`
	Rating      float64  `json:"rating"`
}

// Index upserts the latest-version document for a template.
func (i *Indexer) Index(ctx context.Context, t *models.Template) error {
	doc := templateDocument{
		TemplateID:  t.TemplateID,
		Name:        t.Name,
		Description: t.Description,
		Version:     t.Version,
		Status:      string(t.Status),
		Category:    t.Category,
		Complexity:  string(t.Complexity),
		Creator:     t.Creator,
		Tags:        t.Tags,
		Keywords:    t.SearchKeywords,
		UsageCount:  t.UsageCount,
		Rating:      t.AverageRating,
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal index document: %w", err)
	}
	return i.es.IndexDocument(ctx, i.index, t.TemplateID, body)
}

// searchResponse holds the slice of the Elasticsearch reply we care about.
type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID string `json:"_id"`
		} `json:"hits"`
	} `json:"hits"`
}

// SearchIDs resolves a free-text query to matching template ids.
func (i *Indexer) SearchIDs(ctx context.Context, query string, limit int) ([]string, error) {
	body, err := json.Marshal(map[string]interface{}{
		"size":    limit,
		"_source": false,
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"name^2", "description", "keywords", "tags"},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal search query: %w", err)
	}

	raw, err := i.es.Search(ctx, i.index, body)
	if err != nil {
		return nil, err
	}

	var resp searchResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("parse search response: %w", err)
	}

	ids := make([]string, 0, len(resp.Hits.Hits))
	for _, hit := range resp.Hits.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}
