// Package topcv knows the markup and URL structure of the TopCV job portal.
// It turns raw search-result, job-detail, and company pages into the
// pipeline's structured types.
package topcv

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var whitespaceRE = regexp.MustCompile(`\s+`)

// cleanText extracts the visible text of a selection with collapsed
// whitespace. An empty selection yields "".
func cleanText(sel *goquery.Selection) string {
	if sel == nil || sel.Length() == 0 {
		return ""
	}
	return normalizeSpace(sel.Text())
}

func normalizeSpace(s string) string {
	return strings.TrimSpace(whitespaceRE.ReplaceAllString(s, " "))
}

// stripDiacritics removes combining marks so Vietnamese keywords can be
// folded into ASCII slugs ("Kỹ sư" -> "Ky su").
func stripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Slugify folds a free-text keyword into the lowercase hyphenated form TopCV
// uses in search URLs: "Data Engineer" -> "data-engineer", "Kỹ sư phần mềm"
// -> "ky-su-phan-mem". Characters with no ASCII fold are dropped.
func Slugify(keyword string) string {
	s := stripDiacritics(keyword)
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(unicode.ToLower(r))
		case r == ' ', r == '\t', r == '-', r == '_', r == '.', r == '/':
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), "-")
}
