package catalog

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// articleTable maps a language code to the leading word-articles that
// GenerateSortName strips, one at most per call, per §4.A: "optionally
// remove one recognized article from a per-language set of word articles
// and elided forms". Unknown languages fall through with no article
// removal — the function is total.
var articleTable = map[string][]string{
	"en": {"the ", "a ", "an "},
	"fr": {"le ", "la ", "les ", "un ", "une ", "des ", "du "},
	"es": {"el ", "la ", "los ", "las ", "un ", "una "},
	"de": {"der ", "die ", "das ", "ein ", "eine "},
	"it": {"il ", "lo ", "la ", "gli ", "le ", "un ", "una "},
	"pt": {"o ", "a ", "os ", "as ", "um ", "uma "},
	"nl": {"de ", "het ", "een "},
}

// elisionPrefixes maps a language code to leading consonant-elision prefixes
// that precede an apostrophe (straight ' or curly ’), e.g. French "l'", "d'".
var elisionPrefixes = map[string][]string{
	"fr": {"qu", "l", "d", "j", "n", "m", "t", "s", "c"},
	"it": {"l", "d", "un"},
}

// apostrophes covers both the ASCII and Unicode right-single-quote forms
// sources commonly use for elision.
var apostrophes = []string{"'", "’"}

// GenerateSortName derives the deterministic ordering key for a display
// title, per §4.A and test scenario 1/2:
//  1. Unicode NFC normalization.
//  2. Strip leading non-alphanumeric symbols.
//  3. Optionally remove one recognized leading article/elided form for language.
//  4. Re-trim.
//
// The function is total: unknown language means no article removal.
func GenerateSortName(title, language string) string {
	s := norm.NFC.String(title)
	s = strings.TrimSpace(s)
	s = strings.TrimLeftFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	lang := strings.ToLower(strings.TrimSpace(language))
	lower := strings.ToLower(s)

	stripped := false
	for _, prefix := range elisionPrefixes[lang] {
		for _, apo := range apostrophes {
			token := prefix + apo
			if strings.HasPrefix(lower, token) {
				s = s[len(token):]
				stripped = true
				break
			}
		}
		if stripped {
			break
		}
	}

	if !stripped {
		for _, article := range articleTable[lang] {
			if strings.HasPrefix(lower, article) {
				s = s[len(article):]
				break
			}
		}
	}

	return strings.TrimSpace(s)
}

// NaturalCompare implements the natural-sort collation required by §4.A
// query ordering: chunks of digits compare numerically, other chunks
// compare case-insensitively. Returns -1, 0, or 1 like strings.Compare.
func NaturalCompare(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	i, j := 0, 0
	for i < len(ra) && j < len(rb) {
		ca, cb := ra[i], rb[j]
		if isDigit(ca) && isDigit(cb) {
			starti, startj := i, j
			for i < len(ra) && isDigit(ra[i]) {
				i++
			}
			for j < len(rb) && isDigit(rb[j]) {
				j++
			}
			numA := strings.TrimLeft(string(ra[starti:i]), "0")
			numB := strings.TrimLeft(string(rb[startj:j]), "0")
			if len(numA) != len(numB) {
				if len(numA) < len(numB) {
					return -1
				}
				return 1
			}
			if numA != numB {
				if numA < numB {
					return -1
				}
				return 1
			}
			continue
		}

		la, lb := unicode.ToLower(ca), unicode.ToLower(cb)
		if la != lb {
			if la < lb {
				return -1
			}
			return 1
		}
		i++
		j++
	}
	switch {
	case len(ra)-i < len(rb)-j:
		return -1
	case len(ra)-i > len(rb)-j:
		return 1
	default:
		return 0
	}
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

// NaturalSortStrings sorts xs in place using NaturalCompare; it is a total
// order, so sort(sort(xs)) == sort(xs).
func NaturalSortStrings(xs []string) {
	sort.Slice(xs, func(i, j int) bool { return NaturalCompare(xs[i], xs[j]) < 0 })
}
