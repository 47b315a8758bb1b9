// internal/models/search.go
package models

// SearchFilters narrows a template search. Statuses, industries, complexities
// and tags are OR-sets; the remaining filters are minimum thresholds or exact
// matches.
type SearchFilters struct {
	Statuses      []TemplateStatus `json:"statuses,omitempty"`
	Industries    []string         `json:"industries,omitempty"`
	Complexities  []Complexity     `json:"complexities,omitempty"`
	Tags          []string         `json:"tags,omitempty"`
	MinUsageCount int              `json:"minUsageCount,omitempty"`
	MinRating     float64          `json:"minRating,omitempty"`
	Creator       string           `json:"creator,omitempty"`
	Query         string           `json:"query,omitempty"`
}

// SearchResult is one page of ranked search hits.
type SearchResult struct {
	Templates []*Template `json:"templates"`
	Total     int         `json:"total"`
	Page      int         `json:"page"`
	Limit     int         `json:"limit"`
}
