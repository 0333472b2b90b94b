// Package slug derives URL-safe names from human-readable titles.
package slug

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/agentstation/harvester/pkg/constants"
)

var (
	ampersand   = regexp.MustCompile(`\s*&\s*`)
	whitespace  = regexp.MustCompile(`\s+`)
	nonWord     = regexp.MustCompile(`[^0-9a-z_]`)
	underscores = regexp.MustCompile(`_+`)
)

// MaxLength is the longest slug Make returns.
const MaxLength = constants.MaxNameLength

// Make returns the slug for text. The result is lowercase ASCII letters,
// digits and dashes, with accents folded to their base letter. Long inputs
// keep their last MaxLength characters, since title suffixes tend to be
// more distinctive than prefixes.
func Make(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	s = ampersand.ReplaceAllString(s, " and ")
	s = whitespace.ReplaceAllString(s, " ")
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	s = fold(s)
	s = nonWord.ReplaceAllString(s, "")
	s = underscores.ReplaceAllString(s, "_")
	s = strings.ReplaceAll(s, "_", "-")
	if len(s) > MaxLength {
		s = s[len(s)-MaxLength:]
	}
	return s
}

// fold strips combining marks after canonical decomposition.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// WithSuffix appends -n to a slug, trimming from the front so the result
// still fits in MaxLength.
func WithSuffix(s string, n int) string {
	suffix := "-" + strconv.Itoa(n)
	if len(s)+len(suffix) > MaxLength {
		s = s[len(s)+len(suffix)-MaxLength:]
	}
	return s + suffix
}
