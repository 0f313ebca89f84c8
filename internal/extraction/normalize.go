package extraction

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	reDashes     = regexp.MustCompile(`[\x{2010}-\x{2015}\x{2212}]`)
	reLineBreaks = regexp.MustCompile(`[\r\n\t\f\v]+`)
	reMultiSpace = regexp.MustCompile(`\s+`)
)

// Normalize cleans OCR text with the default locale, see (*Parser).Normalize
func Normalize(text string) string {
	return defaultParser.Normalize(text)
}

// Normalize folds OCR text into a single line. Newlines become spaces, runs of whitespace
// collapse, and anything outside letters, digits, `_ , . : % - /` and the currency glyphs is
// dropped. Dashes survive so identifiers like SEL-00123 stay intact.
func (p *Parser) Normalize(text string) string {
	s := text
	// Dropping a character can leave neighbours that compose, so repeat until stable
	for range maxNormalizePasses {
		next := p.normalizeOnce(s)
		if next == s {
			break
		}
		s = next
	}
	return s
}

const maxNormalizePasses = 8

func (p *Parser) normalizeOnce(s string) string {
	if s == "" {
		return ""
	}
	s = norm.NFKC.String(s)
	s = reDashes.ReplaceAllString(s, "-")
	s = reLineBreaks.ReplaceAllString(s, " ")
	s = p.reUnsafe.ReplaceAllString(s, "")
	s = reMultiSpace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// unsafeCharsPattern builds the class of characters Normalize removes
func unsafeCharsPattern(symbols []string) *regexp.Regexp {
	var extra strings.Builder
	seen := make(map[rune]bool)
	for _, sym := range symbols {
		for _, r := range sym {
			if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || seen[r] {
				continue
			}
			seen[r] = true
			extra.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	return regexp.MustCompile(`[^\p{L}\p{N}_\s,.:%/\-` + extra.String() + `]`)
}
