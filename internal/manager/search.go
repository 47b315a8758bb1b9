// internal/manager/search.go
package manager

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"template-manager/internal/models"
	"template-manager/internal/store"
)

// Ranking weights. Search favors adoption slightly more than satisfaction;
// the popular listing leans further into raw usage.
const (
	searchUsageWeight   = 0.7
	searchRatingWeight  = 0.3
	popularUsageWeight  = 0.6
	popularRatingWeight = 0.4
)

const popularCacheKey = "templates:popular"

// SearchTemplates runs a filtered, ranked, paged search over the latest
// versions. The store does the coarse cut (status, creator, candidate
// ceiling); the fine-grained filters and ranking run in memory.
func (s *Service) SearchTemplates(ctx context.Context, filters models.SearchFilters, page, limit int) (*models.SearchResult, error) {
	done := s.observe("search_templates")

	page, limit = s.normalizePage(page, limit)

	candidates, err := s.store.ListLatest(ctx, store.ListQuery{
		Statuses: filters.Statuses,
		Creator:  filters.Creator,
		Limit:    s.search.MaxCandidates,
	})
	if err != nil {
		return nil, done(err)
	}

	// A free-text query resolves through the keyword index when one is
	// wired; an index failure falls back to the in-memory text match.
	queryIDs := s.resolveQueryIDs(ctx, filters.Query)

	var matched []*models.Template
	for _, tpl := range candidates {
		if queryIDs != nil {
			if !queryIDs[tpl.TemplateID] {
				continue
			}
			f := filters
			f.Query = ""
			if matchesFilters(tpl, f) {
				matched = append(matched, tpl)
			}
			continue
		}
		if matchesFilters(tpl, filters) {
			matched = append(matched, tpl)
		}
	}

	rankTemplates(matched, searchUsageWeight, searchRatingWeight)

	result := &models.SearchResult{
		Templates: pageOf(matched, page, limit),
		Total:     len(matched),
		Page:      page,
		Limit:     limit,
	}
	done(nil)
	return result, nil
}

// GetPopularTemplates returns the top templates among active latest versions,
// ranked by adoption. Results come from the cache when present; a miss reads
// through to the store and repopulates.
func (s *Service) GetPopularTemplates(ctx context.Context, limit int) ([]*models.Template, error) {
	done := s.observe("get_popular")

	if limit <= 0 {
		limit = s.search.DefaultPageSize
	}
	if limit > s.search.MaxPageSize {
		// Keeps the cache key within the range invalidation sweeps.
		limit = s.search.MaxPageSize
	}
	key := fmt.Sprintf("%s:%d", popularCacheKey, limit)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, key); err == nil {
			var templates []*models.Template
			if err := json.Unmarshal([]byte(cached), &templates); err == nil {
				done(nil)
				return templates, nil
			}
		}
	}

	candidates, err := s.store.ListLatest(ctx, store.ListQuery{
		Statuses: []models.TemplateStatus{models.StatusActive},
		Limit:    s.search.MaxCandidates,
	})
	if err != nil {
		return nil, done(err)
	}

	rankTemplates(candidates, popularUsageWeight, popularRatingWeight)
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	if s.cache != nil {
		if payload, err := json.Marshal(candidates); err == nil {
			if err := s.cache.Set(ctx, key, payload, s.popularTTL); err != nil {
				s.logger.Warn("popular cache write failed", map[string]interface{}{
					"error": err.Error(),
				})
			}
		}
	}

	done(nil)
	return candidates, nil
}

// resolveQueryIDs asks the keyword index for ids matching a free-text query.
// Returns nil when there is no query, no index, or the lookup fails, in which
// case the caller matches text in memory instead.
func (s *Service) resolveQueryIDs(ctx context.Context, query string) map[string]bool {
	if query == "" || s.indexer == nil {
		return nil
	}

	ids, err := s.indexer.SearchIDs(ctx, query, s.search.MaxCandidates)
	if err != nil {
		s.logger.Warn("keyword index query failed", map[string]interface{}{
			"query": query,
			"error": err.Error(),
		})
		return nil
	}

	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// invalidatePopular drops cached popular listings after a counter change.
// Best effort; the TTL bounds staleness either way.
func (s *Service) invalidatePopular(ctx context.Context) {
	if s.cache == nil {
		return
	}

	keys := make([]string, 0, s.search.MaxPageSize)
	for limit := 1; limit <= s.search.MaxPageSize; limit++ {
		keys = append(keys, fmt.Sprintf("%s:%d", popularCacheKey, limit))
	}
	if err := s.cache.Del(ctx, keys...); err != nil {
		s.logger.Warn("popular cache invalidation failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (s *Service) normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = s.search.DefaultPageSize
	}
	if limit > s.search.MaxPageSize {
		limit = s.search.MaxPageSize
	}
	return page, limit
}

// rankTemplates sorts in place by weighted usage and rating, descending.
// Template id breaks ties so paging is stable.
func rankTemplates(templates []*models.Template, usageWeight, ratingWeight float64) {
	score := func(t *models.Template) float64 {
		return float64(t.UsageCount)*usageWeight + t.AverageRating*ratingWeight
	}
	sort.SliceStable(templates, func(i, j int) bool {
		si, sj := score(templates[i]), score(templates[j])
		if si != sj {
			return si > sj
		}
		return templates[i].TemplateID < templates[j].TemplateID
	})
}

func pageOf(templates []*models.Template, page, limit int) []*models.Template {
	start := (page - 1) * limit
	if start >= len(templates) {
		return []*models.Template{}
	}
	end := start + limit
	if end > len(templates) {
		end = len(templates)
	}
	return templates[start:end]
}

func matchesFilters(t *models.Template, f models.SearchFilters) bool {
	if len(f.Industries) > 0 && !anyOverlap(t.Business.Industries, f.Industries) {
		return false
	}
	if len(f.Tags) > 0 && !anyOverlap(t.Tags, f.Tags) {
		return false
	}
	if len(f.Complexities) > 0 {
		found := false
		for _, c := range f.Complexities {
			if t.Complexity == c {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if t.UsageCount < f.MinUsageCount {
		return false
	}
	if t.AverageRating < f.MinRating {
		return false
	}
	if f.Query != "" && !matchesQueryText(t, f.Query) {
		return false
	}
	return true
}

// matchesQueryText does a case-insensitive substring match over the name,
// description, and derived keywords.
func matchesQueryText(t *models.Template, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	if strings.Contains(strings.ToLower(t.Name), q) {
		return true
	}
	if strings.Contains(strings.ToLower(t.Description), q) {
		return true
	}
	for _, kw := range t.SearchKeywords {
		if strings.Contains(kw, q) {
			return true
		}
	}
	return false
}

func anyOverlap(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if strings.EqualFold(h, w) {
				return true
			}
		}
	}
	return false
}
