// Package store defines the backing-store contract for template version
// records: point lookups, coarse filtered listing, and the atomic
// conditional write that moves the latest flag. Correctness under
// concurrent writers comes from the swap primitive, never from in-process
// locks.
package store

import (
	"context"

	"template-manager/internal/models"
)

// ListQuery is the coarse store-level filter. Multi-valued attribute filters
// (industries, tags) are applied by the caller over the returned candidate
// set.
type ListQuery struct {
	Statuses []models.TemplateStatus
	Creator  string
	Category string
	Limit    int
}

// TemplateStore is the transactional backing store consumed by the
// versioning service and the management facade.
type TemplateStore interface {
	// GetLatest returns the record currently flagged latest for templateID.
	GetLatest(ctx context.Context, templateID string) (*models.Template, error)

	// GetVersion returns one specific stored version.
	GetVersion(ctx context.Context, templateID, version string) (*models.Template, error)

	// ListVersions returns every stored version of a template, oldest first.
	ListVersions(ctx context.Context, templateID string) ([]*models.Template, error)

	// ListLatest returns latest records matching the coarse filter.
	ListLatest(ctx context.Context, q ListQuery) ([]*models.Template, error)

	// Insert writes the first version of a new template with latest=true.
	Insert(ctx context.Context, t *models.Template) error

	// SwapLatest atomically clears the latest flag on current and inserts
	// next as the new latest, conditioned on current still being latest.
	// A lost race yields a conflict error and writes nothing.
	SwapLatest(ctx context.Context, current, next *models.Template) error

	// IncrementUsage bumps the usage counter on the latest record.
	IncrementUsage(ctx context.Context, templateID string) error

	// AddRating folds one rating into the running average on the latest record.
	AddRating(ctx context.Context, templateID string, rating float64) error
}
