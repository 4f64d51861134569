package lookup

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TrimToNil trims s and returns nil when nothing is left.
func TrimToNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// ClampLimit maps a requested limit into [1, ceiling]. Zero means "not given"
// and takes def; negative values clamp to 1.
func ClampLimit(limit, def, ceiling int) int {
	if ceiling < 1 {
		ceiling = MaxLimit
	}
	if def < 1 || def > ceiling {
		def = min(DefaultLimit, ceiling)
	}
	if limit == 0 {
		return def
	}
	if limit < 1 {
		return 1
	}
	if limit > ceiling {
		return ceiling
	}
	return limit
}

// IsExcludedItem reports whether a consumed-item identifier starts, case
// insensitively, with one of the excluded category prefixes.
func IsExcludedItem(id string, prefixes []string) bool {
	upper := cases.Upper(language.Und)
	id = upper.String(strings.TrimSpace(id))
	for _, p := range prefixes {
		p = upper.String(strings.TrimSpace(p))
		if p != "" && strings.HasPrefix(id, p) {
			return true
		}
	}
	return false
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike escapes LIKE metacharacters so s matches literally.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// containsPattern is the ILIKE pattern for an unanchored substring match.
func containsPattern(term string) string {
	return "%" + escapeLike(term) + "%"
}

// prefixPatterns builds upper-cased LIKE prefix patterns from the exclusion list.
func prefixPatterns(prefixes []string) []string {
	upper := cases.Upper(language.Und)
	out := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, escapeLike(upper.String(p))+"%")
	}
	return out
}
