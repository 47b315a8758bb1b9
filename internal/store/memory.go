// internal/store/memory.go
package store

import (
	"context"
	"sort"
	"sync"

	apperrors "template-manager/internal/common/errors"
	"template-manager/internal/models"
)

// MemoryStore is an in-memory TemplateStore with the same compare-and-swap
// semantics as the PostgreSQL implementation. It backs local development and
// tests; the swap runs under one mutex so two concurrent writers against the
// same superseded version cannot both succeed.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]map[string]*models.Template // templateID -> version -> record
}

// NewMemory creates an empty MemoryStore.
func NewMemory() *MemoryStore {
	return &MemoryStore{records: make(map[string]map[string]*models.Template)}
}

func (m *MemoryStore) GetLatest(_ context.Context, templateID string) (*models.Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	versions, ok := m.records[templateID]
	if !ok {
		return nil, apperrors.NewTemplateNotFoundError(templateID)
	}
	for _, rec := range versions {
		if rec.Latest {
			return rec.Clone(), nil
		}
	}
	return nil, apperrors.NewTemplateNotFoundError(templateID)
}

func (m *MemoryStore) GetVersion(_ context.Context, templateID, version string) (*models.Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[templateID][version]
	if !ok {
		return nil, apperrors.NewVersionNotFoundError(templateID, version)
	}
	return rec.Clone(), nil
}

func (m *MemoryStore) ListVersions(_ context.Context, templateID string) ([]*models.Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	versions, ok := m.records[templateID]
	if !ok || len(versions) == 0 {
		return nil, apperrors.NewTemplateNotFoundError(templateID)
	}

	out := make([]*models.Template, 0, len(versions))
	for _, rec := range versions {
		out = append(out, rec.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Version < out[j].Version
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *MemoryStore) ListLatest(_ context.Context, q ListQuery) ([]*models.Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*models.Template
	for _, versions := range m.records {
		for _, rec := range versions {
			if !rec.Latest || !matchesQuery(rec, q) {
				continue
			}
			out = append(out, rec.Clone())
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].TemplateID < out[j].TemplateID })
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (m *MemoryStore) Insert(_ context.Context, t *models.Template) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.records[t.TemplateID]; exists {
		return apperrors.NewVersionConflictError(t.TemplateID, t.Version)
	}

	rec := t.Clone()
	rec.Latest = true
	m.records[t.TemplateID] = map[string]*models.Template{rec.Version: rec}
	return nil
}

func (m *MemoryStore) SwapLatest(_ context.Context, current, next *models.Template) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.records[current.TemplateID][current.Version]
	if !ok || !stored.Latest {
		return apperrors.NewVersionConflictError(current.TemplateID, current.Version)
	}
	if _, exists := m.records[next.TemplateID][next.Version]; exists {
		return apperrors.NewVersionConflictError(next.TemplateID, next.Version)
	}

	stored.Latest = false
	rec := next.Clone()
	rec.Latest = true
	m.records[next.TemplateID][rec.Version] = rec
	return nil
}

func (m *MemoryStore) IncrementUsage(_ context.Context, templateID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, rec := range m.records[templateID] {
		if rec.Latest {
			rec.UsageCount++
			return nil
		}
	}
	return apperrors.NewTemplateNotFoundError(templateID)
}

func (m *MemoryStore) AddRating(_ context.Context, templateID string, rating float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, rec := range m.records[templateID] {
		if rec.Latest {
			total := rec.AverageRating*float64(rec.RatingCount) + rating
			rec.RatingCount++
			rec.AverageRating = total / float64(rec.RatingCount)
			return nil
		}
	}
	return apperrors.NewTemplateNotFoundError(templateID)
}

func matchesQuery(t *models.Template, q ListQuery) bool {
	if len(q.Statuses) > 0 {
		found := false
		for _, s := range q.Statuses {
			if t.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if q.Creator != "" && t.Creator != q.Creator {
		return false
	}
	if q.Category != "" && t.Category != q.Category {
		return false
	}
	return true
}
