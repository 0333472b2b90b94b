package convert

import "strings"

// Themes is the curated theme vocabulary.
var Themes = []string{
	"Agriculture", "Arts", "Crime", "Economy", "Education", "Energy", "Environment",
	"Government", "Health", "Housing", "Society", "Science", "Towns", "Transport",
}

// matchThemes returns the vocabulary themes found among keywords, compared
// case-insensitively, in vocabulary order.
func matchThemes(keywords []string) []string {
	kw := make(map[string]struct{}, len(keywords))
	for _, k := range keywords {
		kw[strings.ToLower(strings.TrimSpace(k))] = struct{}{}
	}
	var out []string
	for _, th := range Themes {
		if _, ok := kw[strings.ToLower(th)]; ok {
			out = append(out, th)
		}
	}
	return out
}
