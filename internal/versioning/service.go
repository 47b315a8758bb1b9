// internal/versioning/service.go
package versioning

import (
	"context"
	"errors"
	"sort"
	"time"

	apperrors "template-manager/internal/common/errors"
	"template-manager/internal/common/logger"
	"template-manager/internal/common/metrics"
	"template-manager/internal/models"
	"template-manager/internal/store"
)

// Service owns the version lifecycle of templates: forward-only semver
// progression, immutable version records, and the append-only change history.
// All writes go through the store's atomic latest-flag swap, so a lost race
// surfaces as a conflict instead of a second latest record.
type Service struct {
	store  store.TemplateStore
	logger logger.Logger
}

// NewService creates a versioning service on top of a template store.
func NewService(s store.TemplateStore, log logger.Logger) *Service {
	return &Service{store: s, logger: log}
}

// CreateVersion applies field changes to the current latest version and
// persists the result as the new latest. The superseded record stays readable
// forever; only its latest flag flips. A concurrent writer that swaps first
// wins, and the loser gets a retryable conflict.
func (s *Service) CreateVersion(
	ctx context.Context,
	templateID string,
	changes []models.FieldChange,
	changeType models.ChangeType,
	reason, actor string,
	markAsRollbackPoint bool,
) (*models.Template, error) {
	done := s.observe("create_version")

	current, err := s.store.GetLatest(ctx, templateID)
	if err != nil {
		return nil, done(err)
	}

	currentVersion, err := parseVersion(current.Version)
	if err != nil {
		return nil, done(apperrors.NewInvalidVersionError(current.Version, err))
	}
	nextVersion, err := currentVersion.bump(changeType)
	if err != nil {
		return nil, done(err)
	}

	next := current.Clone()
	if err := applyFieldChanges(next, changes); err != nil {
		return nil, done(err)
	}

	now := time.Now().UTC()
	next.Version = nextVersion.String()
	next.Latest = true
	next.CreatedAt = now
	next.UpdatedAt = now
	next.VersionHistory = append(next.VersionHistory, models.VersionChange{
		Timestamp:     now,
		Actor:         actor,
		ChangeType:    changeType,
		Changes:       changes,
		Reason:        reason,
		RollbackPoint: markAsRollbackPoint,
	})

	if err := s.store.SwapLatest(ctx, current, next); err != nil {
		if apperrors.IsConflict(err) {
			metrics.VersionConflicts.Inc()
			s.logger.Warn("lost race on latest-flag swap", map[string]interface{}{
				"template_id":        templateID,
				"superseded_version": current.Version,
			})
		}
		return nil, done(err)
	}

	s.logger.Info("created template version", map[string]interface{}{
		"template_id": templateID,
		"version":     next.Version,
		"change_type": string(changeType),
		"actor":       actor,
	})
	done(nil)
	return next, nil
}

// RollbackToVersion restores the content of a historical version as a brand
// new version. Rollback never rewinds the version number: the restored
// content ships under a major bump of the current latest, with usage counters
// and the full history carried forward.
func (s *Service) RollbackToVersion(
	ctx context.Context,
	templateID, targetVersion, reason, actor string,
) (*models.Template, error) {
	done := s.observe("rollback")

	current, err := s.store.GetLatest(ctx, templateID)
	if err != nil {
		return nil, done(err)
	}
	target, err := s.store.GetVersion(ctx, templateID, targetVersion)
	if err != nil {
		return nil, done(err)
	}

	currentVersion, err := parseVersion(current.Version)
	if err != nil {
		return nil, done(apperrors.NewInvalidVersionError(current.Version, err))
	}
	nextVersion, err := currentVersion.bump(models.ChangeMajor)
	if err != nil {
		return nil, done(err)
	}

	// Content comes from the target; counters and history come from the
	// current latest so nothing recorded since the target is lost.
	next := target.Clone()
	next.UsageCount = current.UsageCount
	next.AverageRating = current.AverageRating
	next.RatingCount = current.RatingCount
	next.VersionHistory = current.Clone().VersionHistory

	now := time.Now().UTC()
	next.Version = nextVersion.String()
	next.Latest = true
	next.CreatedAt = now
	next.UpdatedAt = now
	next.VersionHistory = append(next.VersionHistory, models.VersionChange{
		Timestamp:     now,
		Actor:         actor,
		ChangeType:    models.ChangeMajor,
		Changes:       computeDiff(current, target),
		Reason:        reason,
		RollbackPoint: true,
		RestoredFrom:  targetVersion,
	})

	if err := s.store.SwapLatest(ctx, current, next); err != nil {
		if apperrors.IsConflict(err) {
			metrics.VersionConflicts.Inc()
		}
		return nil, done(err)
	}

	s.logger.Info("rolled back template", map[string]interface{}{
		"template_id":   templateID,
		"restored_from": targetVersion,
		"new_version":   next.Version,
		"actor":         actor,
	})
	done(nil)
	return next, nil
}

// CompareVersions computes the structural diff between two stored versions.
// Comparing a version with itself yields an empty difference list.
func (s *Service) CompareVersions(
	ctx context.Context,
	templateID, versionA, versionB string,
) (*models.VersionComparison, error) {
	done := s.observe("compare_versions")

	a, err := s.store.GetVersion(ctx, templateID, versionA)
	if err != nil {
		return nil, done(err)
	}

	comparison := &models.VersionComparison{
		TemplateID: templateID,
		VersionA:   versionA,
		VersionB:   versionB,
	}
	if versionA == versionB {
		done(nil)
		return comparison, nil
	}

	b, err := s.store.GetVersion(ctx, templateID, versionB)
	if err != nil {
		return nil, done(err)
	}

	comparison.Differences = computeDiff(a, b)
	comparison.Summary = summarize(comparison.Differences)
	done(nil)
	return comparison, nil
}

// GetVersionHistory returns the append-only change history carried by the
// current latest version.
func (s *Service) GetVersionHistory(ctx context.Context, templateID string) ([]models.VersionChange, error) {
	latest, err := s.store.GetLatest(ctx, templateID)
	if err != nil {
		return nil, err
	}
	return latest.VersionHistory, nil
}

// GetAllVersions returns every stored version of a template in ascending
// version order.
func (s *Service) GetAllVersions(ctx context.Context, templateID string) ([]*models.Template, error) {
	versions, err := s.store.ListVersions(ctx, templateID)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(versions, func(i, j int) bool {
		vi, errI := parseVersion(versions[i].Version)
		vj, errJ := parseVersion(versions[j].Version)
		if errI != nil || errJ != nil {
			return versions[i].Version < versions[j].Version
		}
		return vi.less(vj)
	})
	return versions, nil
}

// GetRollbackPoints returns the history entries flagged as rollback points,
// oldest first.
func (s *Service) GetRollbackPoints(ctx context.Context, templateID string) ([]models.VersionChange, error) {
	history, err := s.GetVersionHistory(ctx, templateID)
	if err != nil {
		return nil, err
	}

	var points []models.VersionChange
	for _, entry := range history {
		if entry.RollbackPoint {
			points = append(points, entry)
		}
	}
	return points, nil
}

// observe starts operation metrics and returns a finisher that records the
// outcome. The finisher passes the error through for convenience.
func (s *Service) observe(operation string) func(error) error {
	start := time.Now()
	metrics.TemplateOperations.WithLabelValues(operation).Inc()

	return func(err error) error {
		metrics.TemplateOperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
		if err != nil {
			metrics.TemplateOperationFailures.WithLabelValues(operation, errorCode(err)).Inc()
		}
		return err
	}
}

func errorCode(err error) string {
	var se *apperrors.StandardError
	if errors.As(err, &se) {
		return string(se.Code)
	}
	return "unknown"
}
