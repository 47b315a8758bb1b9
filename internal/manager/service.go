// internal/manager/service.go

// Package manager is the facade over template creation, validation,
// versioning, search, and usage tracking. It owns template identity: callers
// hand it content, it hands back stored, validated version records.
package manager

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"template-manager/internal/common/config"
	"template-manager/internal/common/database"
	apperrors "template-manager/internal/common/errors"
	"template-manager/internal/common/logger"
	"template-manager/internal/common/metrics"
	"template-manager/internal/models"
	"template-manager/internal/store"
	"template-manager/internal/validation"
	"template-manager/internal/versioning"
)

// Service is the template management facade.
type Service struct {
	store     store.TemplateStore
	versions  *versioning.Service
	validator *validation.Engine
	logger    logger.Logger

	search config.SearchConfig

	cache      *database.RedisClient
	popularTTL time.Duration
	indexer    *Indexer
}

// Option configures optional service collaborators.
type Option func(*Service)

// WithCache enables cache-aside reads for popular templates.
func WithCache(cache *database.RedisClient, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = cache
		s.popularTTL = ttl
	}
}

// WithIndexer enables best-effort mirroring into the search index.
func WithIndexer(indexer *Indexer) Option {
	return func(s *Service) {
		s.indexer = indexer
	}
}

// New creates the manager service.
func New(
	st store.TemplateStore,
	versions *versioning.Service,
	validator *validation.Engine,
	searchCfg config.SearchConfig,
	log logger.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		store:     st,
		versions:  versions,
		validator: validator,
		search:    searchCfg,
		logger:    log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Versions exposes the versioning collaborator for version-level operations.
func (s *Service) Versions() *versioning.Service {
	return s.versions
}

// CreateTemplateInput is the caller-supplied content for a new template.
type CreateTemplateInput struct {
	Name        string
	Description string
	Category    string
	Complexity  models.Complexity
	Segments    []models.Segment
	VoiceConfig json.RawMessage
	ModelConfig json.RawMessage
	Business    models.BusinessContext
	Tags        []string
	Creator     string
}

// CreateTemplate validates the input and persists it as version 1.0.0 in
// draft status. Critical validation errors block persistence; warnings and
// sub-critical errors travel back in the result alongside the stored record.
func (s *Service) CreateTemplate(ctx context.Context, input CreateTemplateInput) (*models.Template, *validation.Result, error) {
	done := s.observe("create_template")

	now := time.Now().UTC()
	tpl := &models.Template{
		TemplateID:  uuid.NewString(),
		Name:        input.Name,
		Description: input.Description,
		Version:     "1.0.0",
		Status:      models.StatusDraft,
		Category:    input.Category,
		Complexity:  input.Complexity,
		Segments:    input.Segments,
		VoiceConfig: input.VoiceConfig,
		ModelConfig: input.ModelConfig,
		Business:    input.Business,
		Tags:        input.Tags,
		Creator:     input.Creator,
		Latest:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	result, err := s.persistNew(ctx, tpl)
	if err != nil {
		return nil, result, done(err)
	}

	s.logger.Info("created template", map[string]interface{}{
		"template_id": tpl.TemplateID,
		"name":        tpl.Name,
		"creator":     tpl.Creator,
		"score":       result.Score.Overall,
	})
	done(nil)
	return tpl, result, nil
}

// CloneTemplateInput customizes a clone of an existing template. Segment
// content overrides are keyed by segment id; segments without an override
// keep the source content verbatim.
type CloneTemplateInput struct {
	SourceTemplateID string
	Name             string
	Description      string
	Creator          string
	Tags             []string
	SegmentContent   map[string]string
	Business         *models.BusinessContext
}

// CloneTemplate derives a new template from the latest version of an existing
// one. The clone gets a fresh identity, version 1.0.0 in draft status, zeroed
// usage counters, an empty history, and provenance back to the source.
func (s *Service) CloneTemplate(ctx context.Context, input CloneTemplateInput) (*models.Template, *validation.Result, error) {
	done := s.observe("clone_template")

	source, err := s.store.GetLatest(ctx, input.SourceTemplateID)
	if err != nil {
		return nil, nil, done(err)
	}

	tpl := source.Clone()
	tpl.TemplateID = uuid.NewString()
	tpl.Version = "1.0.0"
	tpl.Status = models.StatusDraft
	tpl.ClonedFrom = input.SourceTemplateID
	tpl.Creator = input.Creator
	tpl.UsageCount = 0
	tpl.AverageRating = 0
	tpl.RatingCount = 0
	tpl.VersionHistory = nil

	if input.Name != "" {
		tpl.Name = input.Name
	}
	if input.Description != "" {
		tpl.Description = input.Description
	}
	if len(input.Tags) > 0 {
		tpl.Tags = append([]string(nil), input.Tags...)
	}
	if input.Business != nil {
		tpl.Business = *input.Business
	}
	for id, content := range input.SegmentContent {
		segment := tpl.SegmentByID(id)
		if segment == nil {
			return nil, nil, done(apperrors.NewInvalidFieldPathError(fmt.Sprintf("segments.%s.content", id)))
		}
		segment.Content = content
	}

	now := time.Now().UTC()
	tpl.CreatedAt = now
	tpl.UpdatedAt = now

	result, err := s.persistNew(ctx, tpl)
	if err != nil {
		return nil, result, done(err)
	}

	s.logger.Info("cloned template", map[string]interface{}{
		"template_id": tpl.TemplateID,
		"cloned_from": input.SourceTemplateID,
		"creator":     tpl.Creator,
	})
	done(nil)
	return tpl, result, nil
}

// persistNew runs validation, derives search keywords, and inserts the first
// version record. Shared by create and clone.
func (s *Service) persistNew(ctx context.Context, tpl *models.Template) (*validation.Result, error) {
	result := s.validator.Validate(tpl)
	if !result.IsValid {
		metrics.ValidationFailures.Inc()
		return result, apperrors.NewValidationFailedError(
			fmt.Sprintf("%d critical error(s)", len(result.CriticalErrors())))
	}

	tpl.SearchKeywords = deriveSearchKeywords(tpl)
	if err := s.store.Insert(ctx, tpl); err != nil {
		return result, err
	}

	s.indexBestEffort(ctx, tpl)
	return result, nil
}

// ValidateTemplate scores a template without persisting anything.
func (s *Service) ValidateTemplate(t *models.Template) *validation.Result {
	return s.validator.Validate(t)
}

// GetTemplate returns the latest version of a template.
func (s *Service) GetTemplate(ctx context.Context, templateID string) (*models.Template, error) {
	return s.store.GetLatest(ctx, templateID)
}

// GetTemplateVersion returns one specific stored version.
func (s *Service) GetTemplateVersion(ctx context.Context, templateID, version string) (*models.Template, error) {
	return s.store.GetVersion(ctx, templateID, version)
}

// RecordUsage increments the usage counter on the latest version.
func (s *Service) RecordUsage(ctx context.Context, templateID string) error {
	done := s.observe("record_usage")
	if err := s.store.IncrementUsage(ctx, templateID); err != nil {
		return done(err)
	}
	s.invalidatePopular(ctx)
	return done(nil)
}

// RateTemplate folds a 1 to 5 rating into the running average on the latest
// version.
func (s *Service) RateTemplate(ctx context.Context, templateID string, rating float64) error {
	done := s.observe("rate_template")

	if rating < 1 || rating > 5 {
		return done(apperrors.NewValidationFailedError(
			fmt.Sprintf("rating must be between 1 and 5, got %g", rating)))
	}
	if err := s.store.AddRating(ctx, templateID, rating); err != nil {
		return done(err)
	}
	s.invalidatePopular(ctx)
	return done(nil)
}

func (s *Service) indexBestEffort(ctx context.Context, tpl *models.Template) {
	if s.indexer == nil {
		return
	}
	if err := s.indexer.Index(ctx, tpl); err != nil {
		s.logger.Warn("search index write failed", map[string]interface{}{
			"template_id": tpl.TemplateID,
			"error":       err.Error(),
		})
	}
}

func (s *Service) observe(operation string) func(error) error {
	start := time.Now()
	metrics.TemplateOperations.WithLabelValues(operation).Inc()

	return func(err error) error {
		metrics.TemplateOperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
		if err != nil {
			code := "unknown"
			var se *apperrors.StandardError
			if errors.As(err, &se) {
				code = string(se.Code)
			}
			metrics.TemplateOperationFailures.WithLabelValues(operation, code).Inc()
		}
		return err
	}
}
