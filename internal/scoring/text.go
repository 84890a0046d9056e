package scoring

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// tokens lower-cases s, splits it on anything that is not a letter or
// digit and keeps the distinct words longer than two characters.
func tokens(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, f := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if utf8.RuneCountInString(f) > 2 {
			out[f] = struct{}{}
		}
	}
	return out
}

// jaccard is |a∩b| / |a∪b|, or 0 when both sets are empty.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for k := range a {
		if _, ok := b[k]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// TextSimilarity is the token-set Jaccard similarity of two strings.
func TextSimilarity(a, b string) float64 {
	return jaccard(tokens(a), tokens(b))
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func set(items []string) map[string]struct{} {
	out := make(map[string]struct{}, len(items))
	for _, it := range items {
		if it = normalize(it); it != "" {
			out[it] = struct{}{}
		}
	}
	return out
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
