package grading

import (
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var folder = cases.Fold()

// stripMarks decomposes and drops combining marks: "São" becomes "Sao".
func stripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// normalize is the form answers are compared in: case and accents folded,
// dashes read as spaces, other punctuation dropped, whitespace collapsed.
func normalize(s string) string {
	s = folder.String(stripMarks(s))
	s = strings.Map(func(r rune) rune {
		switch {
		case unicode.Is(unicode.Pd, r):
			return ' '
		case unicode.IsPunct(r):
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// distance counts rune insertions, deletions and substitutions.
func distance(a, b string) int {
	return levenshtein.ComputeDistance(a, b)
}
