// internal/manager/keywords.go
package manager

import (
	"strings"

	"template-manager/internal/models"
)

// stopwords excluded from derived search keywords.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "for": {}, "from": {}, "in": {},
	"of": {}, "on": {}, "or": {}, "the": {}, "to": {}, "with": {},
}

// deriveSearchKeywords builds the keyword set indexed for a template from its
// name, category, tags, and business context. Tokens are lowercased and
// deduplicated; stopwords and single characters are dropped.
func deriveSearchKeywords(t *models.Template) []string {
	seen := make(map[string]struct{})
	var keywords []string

	add := func(raw string) {
		for _, token := range strings.Fields(strings.ToLower(raw)) {
			token = strings.Trim(token, ".,;:!?\"'()")
			if len(token) < 2 {
				continue
			}
			if _, skip := stopwords[token]; skip {
				continue
			}
			if _, dup := seen[token]; dup {
				continue
			}
			seen[token] = struct{}{}
			keywords = append(keywords, token)
		}
	}

	add(t.Name)
	add(t.Category)
	add(string(t.Complexity))
	for _, tag := range t.Tags {
		add(tag)
	}
	for _, industry := range t.Business.Industries {
		add(industry)
	}
	for _, objective := range t.Business.Objectives {
		add(objective)
	}
	add(t.Business.TargetAudience)

	return keywords
}
