package importer

import (
	"strings"
	"unicode"
)

// similarityThreshold is the minimum score (0..1) for a fuzzy match
// between a normalized source field and a canonical key.
const similarityThreshold = 0.7

// SuggestMapping proposes a mapping from the module's canonical fields to
// the source field names observed in the fetched rows.
//
// Matching runs in three passes per canonical field, first hit wins:
//  1. the field's known alias spellings, compared in normalized form,
//  2. exact match on the normalized name (orderId == order-id == order_id),
//  3. best fuzzy match on the normalized name at or above the threshold.
//
// Canonical fields with no acceptable source candidate stay unmapped.
func SuggestMapping(m ImportModule, sourceFields []string) Mapping {
	normalized := make([]string, len(sourceFields))
	for i, f := range sourceFields {
		normalized[i] = NormalizeFieldName(f)
	}

	mapping := make(Mapping, len(m.Fields))
	used := make(map[string]bool, len(sourceFields))

	for _, field := range m.Fields {
		mapping[field.Key] = ""

		if src := matchAlias(field, sourceFields, normalized, used); src != "" {
			mapping[field.Key] = src
			used[src] = true
			continue
		}

		if src := matchNormalized(field.Key, sourceFields, normalized, used); src != "" {
			mapping[field.Key] = src
			used[src] = true
			continue
		}

		if src := matchFuzzy(field.Key, sourceFields, normalized, used); src != "" {
			mapping[field.Key] = src
			used[src] = true
		}
	}

	return mapping
}

func matchAlias(field Field, sourceFields, normalized []string, used map[string]bool) string {
	for _, alias := range field.Aliases {
		want := NormalizeFieldName(alias)
		for i, src := range sourceFields {
			if used[src] {
				continue
			}
			if normalized[i] == want {
				return src
			}
		}
	}
	return ""
}

func matchNormalized(key string, sourceFields, normalized []string, used map[string]bool) string {
	want := NormalizeFieldName(key)
	for i, src := range sourceFields {
		if used[src] {
			continue
		}
		if normalized[i] == want {
			return src
		}
	}
	return ""
}

func matchFuzzy(key string, sourceFields, normalized []string, used map[string]bool) string {
	want := NormalizeFieldName(key)
	best := ""
	bestScore := similarityThreshold
	for i, src := range sourceFields {
		if used[src] || normalized[i] == "" {
			continue
		}
		if score := similarity(normalized[i], want); score >= bestScore {
			best = src
			bestScore = score
		}
	}
	return best
}

// NormalizeFieldName canonicalizes a source field name for comparison:
// camelCase and PascalCase become snake_case, hyphens become underscores,
// other punctuation collapses into single underscores, and the result is
// lowercased. "OrderId", "order-id" and "order_id" all normalize equal.
func NormalizeFieldName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(name) + 4)

	runes := []rune(name)
	for i, r := range runes {
		switch {
		case unicode.IsUpper(r):
			// Word boundary before an upper rune that follows a lower/digit
			// rune, or starts a new word inside an acronym run ("APIKey").
			if i > 0 {
				prev := runes[i-1]
				next := rune(0)
				if i+1 < len(runes) {
					next = runes[i+1]
				}
				if unicode.IsLower(prev) || unicode.IsDigit(prev) ||
					(unicode.IsUpper(prev) && unicode.IsLower(next)) {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	// Collapse duplicate underscores and trim the ends.
	out := b.String()
	for strings.Contains(out, "__") {
		out = strings.ReplaceAll(out, "__", "_")
	}
	return strings.Trim(out, "_")
}

// similarity scores how alike two strings are in [0, 1] using the
// Levenshtein distance relative to the longer string.
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}

	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	return 1 - float64(levenshtein(a, b))/float64(longest)
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)

	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = min3(cur[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
