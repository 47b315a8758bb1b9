// internal/manager/search_test.go
package manager

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"template-manager/internal/common/database"
	"template-manager/internal/models"
)

// seedSearchCorpus creates three active templates with distinct adoption
// profiles and returns their ids keyed by name.
func seedSearchCorpus(t *testing.T, svc *Service) map[string]string {
	t.Helper()
	ctx := context.Background()
	ids := make(map[string]string)

	specs := []struct {
		name     string
		industry string
		tag      string
		usage    int
		rating   float64
	}{
		{name: "Quote Machine", industry: "insurance", tag: "quotes", usage: 50, rating: 3},
		{name: "Renewal Caller", industry: "insurance", tag: "renewals", usage: 10, rating: 5},
		{name: "Clinic Scheduler", industry: "healthcare", tag: "scheduling", usage: 30, rating: 4},
	}

	for _, spec := range specs {
		input := validCreateInput(spec.name)
		input.Business.Industries = []string{spec.industry}
		input.Tags = []string{spec.tag}

		tpl, _, err := svc.CreateTemplate(ctx, input)
		require.NoError(t, err)
		ids[spec.name] = tpl.TemplateID

		// Search and popularity only see active templates.
		_, err = svc.Versions().CreateVersion(ctx, tpl.TemplateID,
			[]models.FieldChange{{Path: "status", NewValue: "active"}},
			models.ChangeMinor, "activate", "alice", false)
		require.NoError(t, err)

		for i := 0; i < spec.usage; i++ {
			require.NoError(t, svc.RecordUsage(ctx, tpl.TemplateID))
		}
		require.NoError(t, svc.RateTemplate(ctx, tpl.TemplateID, spec.rating))
	}
	return ids
}

func resultNames(t *testing.T, svc *Service, result *models.SearchResult) []string {
	t.Helper()
	names := make([]string, len(result.Templates))
	for i, tpl := range result.Templates {
		names[i] = tpl.Name
	}
	return names
}

// ==========================
// SearchTemplates
// ==========================

func TestSearchTemplatesRanking(t *testing.T) {
	svc, _ := newTestManager(t)
	seedSearchCorpus(t, svc)

	result, err := svc.SearchTemplates(context.Background(), models.SearchFilters{
		Statuses: []models.TemplateStatus{models.StatusActive},
	}, 1, 10)
	require.NoError(t, err)

	// usage*0.7 + rating*0.3: 50/3 -> 35.9, 30/4 -> 22.2, 10/5 -> 8.5.
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, []string{"Quote Machine", "Clinic Scheduler", "Renewal Caller"},
		resultNames(t, svc, result))
}

func TestSearchTemplatesFilters(t *testing.T) {
	svc, _ := newTestManager(t)
	seedSearchCorpus(t, svc)
	ctx := context.Background()

	tests := []struct {
		name    string
		filters models.SearchFilters
		want    []string
	}{
		{
			name:    "by industry",
			filters: models.SearchFilters{Industries: []string{"healthcare"}},
			want:    []string{"Clinic Scheduler"},
		},
		{
			name:    "by tag",
			filters: models.SearchFilters{Tags: []string{"renewals"}},
			want:    []string{"Renewal Caller"},
		},
		{
			name:    "by minimum usage",
			filters: models.SearchFilters{MinUsageCount: 25},
			want:    []string{"Quote Machine", "Clinic Scheduler"},
		},
		{
			name:    "by minimum rating",
			filters: models.SearchFilters{MinRating: 4},
			want:    []string{"Clinic Scheduler", "Renewal Caller"},
		},
		{
			name:    "by query text",
			filters: models.SearchFilters{Query: "scheduler"},
			want:    []string{"Clinic Scheduler"},
		},
		{
			name:    "query matches keywords",
			filters: models.SearchFilters{Query: "quotes"},
			want:    []string{"Quote Machine"},
		},
		{
			name:    "no matches",
			filters: models.SearchFilters{Industries: []string{"aviation"}},
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := svc.SearchTemplates(ctx, tt.filters, 1, 10)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resultNames(t, svc, result))
		})
	}
}

func TestSearchTemplatesPaging(t *testing.T) {
	svc, _ := newTestManager(t)
	seedSearchCorpus(t, svc)
	ctx := context.Background()

	page1, err := svc.SearchTemplates(ctx, models.SearchFilters{}, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, page1.Total)
	assert.Len(t, page1.Templates, 2)

	page2, err := svc.SearchTemplates(ctx, models.SearchFilters{}, 2, 2)
	require.NoError(t, err)
	assert.Len(t, page2.Templates, 1)
	assert.Equal(t, "Renewal Caller", page2.Templates[0].Name)

	beyond, err := svc.SearchTemplates(ctx, models.SearchFilters{}, 9, 2)
	require.NoError(t, err)
	assert.Empty(t, beyond.Templates)
	assert.Equal(t, 3, beyond.Total)
}

func TestSearchTemplatesClampsPageSize(t *testing.T) {
	svc, _ := newTestManager(t)
	seedSearchCorpus(t, svc)

	result, err := svc.SearchTemplates(context.Background(), models.SearchFilters{}, 0, 9999)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Page)
	assert.Equal(t, testSearchConfig().MaxPageSize, result.Limit)
}

// ==========================
// Popular templates
// ==========================

func newRedisCache(t *testing.T) *database.RedisClient {
	t.Helper()

	mr := miniredis.RunT(t)
	return &database.RedisClient{Client: redis.NewClient(&redis.Options{Addr: mr.Addr()})}
}

func TestGetPopularTemplatesRanking(t *testing.T) {
	svc, _ := newTestManager(t)
	seedSearchCorpus(t, svc)

	popular, err := svc.GetPopularTemplates(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, popular, 2)

	// usage*0.6 + rating*0.4: 50/3 -> 31.2, 30/4 -> 19.6, 10/5 -> 8.
	assert.Equal(t, "Quote Machine", popular[0].Name)
	assert.Equal(t, "Clinic Scheduler", popular[1].Name)
}

// Oversized limits land on the clamped cache key, which counter writes sweep.
func TestGetPopularTemplatesClampsLimit(t *testing.T) {
	cache := newRedisCache(t)
	svc, _ := newTestManager(t, WithCache(cache, time.Minute))
	ids := seedSearchCorpus(t, svc)
	ctx := context.Background()

	maxPage := testSearchConfig().MaxPageSize
	popular, err := svc.GetPopularTemplates(ctx, maxPage+50)
	require.NoError(t, err)
	require.Len(t, popular, 3)

	_, err = cache.Get(ctx, fmt.Sprintf("templates:popular:%d", maxPage))
	require.NoError(t, err, "oversized request should cache under the clamped key")

	require.NoError(t, svc.RecordUsage(ctx, ids["Renewal Caller"]))

	fresh, err := svc.GetPopularTemplates(ctx, maxPage+50)
	require.NoError(t, err)
	for _, tpl := range fresh {
		if tpl.TemplateID == ids["Renewal Caller"] {
			assert.Equal(t, 11, tpl.UsageCount)
		}
	}
}

func TestGetPopularTemplatesCacheAside(t *testing.T) {
	cache := newRedisCache(t)
	svc, st := newTestManager(t, WithCache(cache, time.Minute))
	ids := seedSearchCorpus(t, svc)
	ctx := context.Background()

	first, err := svc.GetPopularTemplates(ctx, 3)
	require.NoError(t, err)
	require.Len(t, first, 3)

	// Bump a counter behind the cache; the cached listing stays stale until
	// invalidation or TTL.
	require.NoError(t, st.IncrementUsage(ctx, ids["Renewal Caller"]))

	cached, err := svc.GetPopularTemplates(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, first[2].UsageCount, cached[2].UsageCount)

	// Writes through the service invalidate the cached listings.
	require.NoError(t, svc.RecordUsage(ctx, ids["Renewal Caller"]))

	fresh, err := svc.GetPopularTemplates(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, first[2].UsageCount+2, fresh[2].UsageCount)
}
