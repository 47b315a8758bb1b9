// internal/versioning/service_test.go
package versioning

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "template-manager/internal/common/errors"
	"template-manager/internal/common/logger/loggertest"
	"template-manager/internal/models"
	"template-manager/internal/store"
)

func seedTemplate(t *testing.T, st store.TemplateStore) *models.Template {
	t.Helper()

	tpl := &models.Template{
		TemplateID:  "tpl-1",
		Name:        "Appointment Reminder",
		Description: "Reminds customers about upcoming appointments and offers rescheduling.",
		Version:     "1.0.0",
		Status:      models.StatusActive,
		Category:    "scheduling",
		Segments: []models.Segment{
			{ID: "greeting", Name: "Greeting", Type: models.SegmentFixed, Content: "Hello, this is a reminder call.", Required: true, Order: 1},
			{ID: "details", Name: "Details", Type: models.SegmentUserFillable, Content: "Your appointment is on {{date}}.", Required: true, Order: 2},
		},
		VoiceConfig: json.RawMessage(`{"provider":"elevenlabs","voiceId":"v1","language":"en"}`),
		ModelConfig: json.RawMessage(`{"provider":"openai","model":"gpt-4o"}`),
		Creator:     "alice",
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	require.NoError(t, st.Insert(context.Background(), tpl))
	return tpl
}

func newTestService(t *testing.T) (*Service, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemory()
	return NewService(st, loggertest.New(t)), st
}

// ==========================
// CreateVersion
// ==========================

func TestCreateVersion(t *testing.T) {
	svc, st := newTestService(t)
	seedTemplate(t, st)
	ctx := context.Background()

	next, err := svc.CreateVersion(ctx, "tpl-1", []models.FieldChange{
		{Path: "segments.greeting.content", NewValue: "Hi, calling to confirm your appointment."},
	}, models.ChangePatch, "soften greeting", "bob", false)
	require.NoError(t, err)

	assert.Equal(t, "1.0.1", next.Version)
	assert.True(t, next.Latest)
	assert.Equal(t, "Hi, calling to confirm your appointment.", next.SegmentByID("greeting").Content)

	// History is append-only: exactly one new entry per write.
	require.Len(t, next.VersionHistory, 1)
	entry := next.VersionHistory[0]
	assert.Equal(t, "bob", entry.Actor)
	assert.Equal(t, models.ChangePatch, entry.ChangeType)
	assert.Equal(t, "soften greeting", entry.Reason)
	assert.False(t, entry.RollbackPoint)

	// The superseded record is untouched and still readable.
	old, err := st.GetVersion(ctx, "tpl-1", "1.0.0")
	require.NoError(t, err)
	assert.False(t, old.Latest)
	assert.Equal(t, "Hello, this is a reminder call.", old.SegmentByID("greeting").Content)
	assert.Empty(t, old.VersionHistory)

	latest, err := st.GetLatest(ctx, "tpl-1")
	require.NoError(t, err)
	assert.Equal(t, "1.0.1", latest.Version)
}

func TestCreateVersionBumpsPerChangeType(t *testing.T) {
	tests := []struct {
		name       string
		changeType models.ChangeType
		want       string
	}{
		{name: "patch", changeType: models.ChangePatch, want: "1.0.1"},
		{name: "minor", changeType: models.ChangeMinor, want: "1.1.0"},
		{name: "major", changeType: models.ChangeMajor, want: "2.0.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, st := newTestService(t)
			seedTemplate(t, st)

			next, err := svc.CreateVersion(context.Background(), "tpl-1",
				[]models.FieldChange{{Path: "description", NewValue: "Updated description for the reminder flow."}},
				tt.changeType, "", "bob", false)
			require.NoError(t, err)
			assert.Equal(t, tt.want, next.Version)
		})
	}
}

func TestCreateVersionHistoryGrowsByOne(t *testing.T) {
	svc, st := newTestService(t)
	seedTemplate(t, st)
	ctx := context.Background()

	for i := 1; i <= 4; i++ {
		next, err := svc.CreateVersion(ctx, "tpl-1",
			[]models.FieldChange{{Path: "name", NewValue: "Reminder"}},
			models.ChangePatch, "", "bob", false)
		require.NoError(t, err)
		assert.Len(t, next.VersionHistory, i)
	}
}

func TestCreateVersionRejections(t *testing.T) {
	svc, st := newTestService(t)
	seedTemplate(t, st)
	ctx := context.Background()

	t.Run("unknown template", func(t *testing.T) {
		_, err := svc.CreateVersion(ctx, "nope", nil, models.ChangePatch, "", "bob", false)
		assert.True(t, apperrors.IsNotFound(err))
	})

	t.Run("unknown change type", func(t *testing.T) {
		_, err := svc.CreateVersion(ctx, "tpl-1", nil, models.ChangeType("hotfix"), "", "bob", false)
		require.Error(t, err)
		var se *apperrors.StandardError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, apperrors.ErrCodeInvalidChangeType, se.Code)
	})

	t.Run("bad field path leaves store untouched", func(t *testing.T) {
		_, err := svc.CreateVersion(ctx, "tpl-1",
			[]models.FieldChange{{Path: "bogus", NewValue: "x"}},
			models.ChangePatch, "", "bob", false)
		require.Error(t, err)

		latest, err := st.GetLatest(ctx, "tpl-1")
		require.NoError(t, err)
		assert.Equal(t, "1.0.0", latest.Version)
	})
}

// pinnedLatestStore always serves the same snapshot from GetLatest, so two
// writers can be made to observe one current version regardless of how the
// scheduler interleaves them.
type pinnedLatestStore struct {
	store.TemplateStore
	snapshot *models.Template
}

func (p *pinnedLatestStore) GetLatest(ctx context.Context, templateID string) (*models.Template, error) {
	if templateID == p.snapshot.TemplateID {
		return p.snapshot.Clone(), nil
	}
	return p.TemplateStore.GetLatest(ctx, templateID)
}

// Two writers that loaded the same current version race the swap; exactly
// one lands and the loser surfaces a conflict with no partial state.
func TestCreateVersionStaleWriterGetsConflict(t *testing.T) {
	st := store.NewMemory()
	seedTemplate(t, st)
	ctx := context.Background()

	snapshot, err := st.GetLatest(ctx, "tpl-1")
	require.NoError(t, err)
	svc := NewService(&pinnedLatestStore{TemplateStore: st, snapshot: snapshot}, loggertest.New(t))

	changes := []models.FieldChange{{Path: "description", NewValue: "Concurrent edit."}}

	next, err := svc.CreateVersion(ctx, "tpl-1", changes, models.ChangePatch, "", "writer", false)
	require.NoError(t, err)
	assert.Equal(t, "1.0.1", next.Version)

	// The second writer still holds the superseded record and must lose.
	_, err = svc.CreateVersion(ctx, "tpl-1", changes, models.ChangePatch, "", "writer", false)
	assert.True(t, apperrors.IsConflict(err))

	latest, err := st.GetLatest(ctx, "tpl-1")
	require.NoError(t, err)
	assert.Equal(t, "1.0.1", latest.Version)

	versions, err := st.ListVersions(ctx, "tpl-1")
	require.NoError(t, err)
	assert.Len(t, versions, 2)
}

// ==========================
// Rollback
// ==========================

func TestRollbackToVersion(t *testing.T) {
	svc, st := newTestService(t)
	seedTemplate(t, st)
	ctx := context.Background()

	_, err := svc.CreateVersion(ctx, "tpl-1",
		[]models.FieldChange{{Path: "segments.greeting.content", NewValue: "Completely rewritten greeting that turned out worse."}},
		models.ChangeMinor, "rewrite", "bob", false)
	require.NoError(t, err)

	require.NoError(t, st.IncrementUsage(ctx, "tpl-1"))
	require.NoError(t, st.IncrementUsage(ctx, "tpl-1"))

	restored, err := svc.RollbackToVersion(ctx, "tpl-1", "1.0.0", "rewrite regressed", "carol")
	require.NoError(t, err)

	// Forward-only: restored content ships under a major bump, never 1.0.0.
	assert.Equal(t, "2.0.0", restored.Version)
	assert.Equal(t, "Hello, this is a reminder call.", restored.SegmentByID("greeting").Content)

	// Counters and history carry forward from the superseded latest.
	assert.Equal(t, 2, restored.UsageCount)
	require.Len(t, restored.VersionHistory, 2)

	entry := restored.VersionHistory[1]
	assert.True(t, entry.RollbackPoint)
	assert.Equal(t, "1.0.0", entry.RestoredFrom)
	assert.Equal(t, models.ChangeMajor, entry.ChangeType)
	assert.Equal(t, "carol", entry.Actor)

	latest, err := st.GetLatest(ctx, "tpl-1")
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", latest.Version)
}

func TestRollbackUnknownVersion(t *testing.T) {
	svc, st := newTestService(t)
	seedTemplate(t, st)

	_, err := svc.RollbackToVersion(context.Background(), "tpl-1", "9.9.9", "", "carol")
	assert.True(t, apperrors.IsNotFound(err))
}

// ==========================
// Compare and history reads
// ==========================

func TestCompareVersions(t *testing.T) {
	svc, st := newTestService(t)
	seedTemplate(t, st)
	ctx := context.Background()

	_, err := svc.CreateVersion(ctx, "tpl-1",
		[]models.FieldChange{{Path: "name", NewValue: "Appointment Confirmation"}},
		models.ChangePatch, "", "bob", false)
	require.NoError(t, err)

	cmp, err := svc.CompareVersions(ctx, "tpl-1", "1.0.0", "1.0.1")
	require.NoError(t, err)
	require.Len(t, cmp.Differences, 1)
	assert.Equal(t, "name", cmp.Differences[0].Path)
	assert.Equal(t, 1, cmp.Summary.Total)
}

func TestCompareVersionSelfIsEmpty(t *testing.T) {
	svc, st := newTestService(t)
	seedTemplate(t, st)

	cmp, err := svc.CompareVersions(context.Background(), "tpl-1", "1.0.0", "1.0.0")
	require.NoError(t, err)
	assert.Empty(t, cmp.Differences)
	assert.Equal(t, models.DiffSummary{}, cmp.Summary)
}

func TestGetAllVersionsSortedByVersion(t *testing.T) {
	svc, st := newTestService(t)
	seedTemplate(t, st)
	ctx := context.Background()

	for _, ct := range []models.ChangeType{models.ChangePatch, models.ChangeMinor, models.ChangeMajor} {
		_, err := svc.CreateVersion(ctx, "tpl-1",
			[]models.FieldChange{{Path: "description", NewValue: "Iterating on the flow."}},
			ct, "", "bob", false)
		require.NoError(t, err)
	}

	versions, err := svc.GetAllVersions(ctx, "tpl-1")
	require.NoError(t, err)
	require.Len(t, versions, 4)

	got := make([]string, len(versions))
	for i, v := range versions {
		got[i] = v.Version
	}
	assert.Equal(t, []string{"1.0.0", "1.0.1", "1.1.0", "2.0.0"}, got)
}

func TestGetRollbackPoints(t *testing.T) {
	svc, st := newTestService(t)
	seedTemplate(t, st)
	ctx := context.Background()

	_, err := svc.CreateVersion(ctx, "tpl-1",
		[]models.FieldChange{{Path: "description", NewValue: "Stable milestone."}},
		models.ChangeMinor, "milestone", "bob", true)
	require.NoError(t, err)

	_, err = svc.CreateVersion(ctx, "tpl-1",
		[]models.FieldChange{{Path: "description", NewValue: "Experiment."}},
		models.ChangePatch, "", "bob", false)
	require.NoError(t, err)

	points, err := svc.GetRollbackPoints(ctx, "tpl-1")
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, "milestone", points[0].Reason)

	history, err := svc.GetVersionHistory(ctx, "tpl-1")
	require.NoError(t, err)
	assert.Len(t, history, 2)
}
