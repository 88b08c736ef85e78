// Package textfilter keeps generated stories suitable for children by
// swapping rude words for gentle ones.
package textfilter

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const censored = "[censored]"

// DefaultReplacements maps each filtered word to its stand-in.
var DefaultReplacements = map[string]string{
	"fuck":         "fudge",
	"motherfucker": "mother-trucker",
	"shit":         "shoot",
	"bullshit":     "baloney",
	"horseshit":    "nonsense",
	"damn":         "dang",
	"goddamn":      "gosh-dang",
	"hell":         "heck",
	"ass":          "donkey",
	"asshole":      "meanie",
	"dumbass":      "dummy",
	"jackass":      "meanie",
	"smartass":     "smarty",
	"bitch":        "meanie",
	"bastard":      "scoundrel",
	"crap":         "crud",
	"piss":         "fizz",
	"prick":        "meanie",
	"dickhead":     "meanie",
	"douche":       "meanie",
	"douchebag":    "meanie",
	"cock":         "rooster",
	"pussy":        censored,
	"tits":         censored,
	"whore":        censored,
	"slut":         censored,
	"retard":       censored,
}

// Filter rewrites rude words in text. It is safe for concurrent use.
type Filter struct {
	pattern      *regexp.Regexp
	replacements map[string]string
}

// New builds a filter from a word to replacement map. Matching ignores case
// and respects word boundaries.
func New(replacements map[string]string) *Filter {
	words := make([]string, 0, len(replacements))
	lowered := make(map[string]string, len(replacements))
	for w, r := range replacements {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		words = append(words, regexp.QuoteMeta(w))
		lowered[w] = r
	}
	if len(words) == 0 {
		return &Filter{replacements: lowered}
	}

	// Longest first so "bullshit" wins over "shit".
	sort.Slice(words, func(i, j int) bool {
		if len(words[i]) != len(words[j]) {
			return len(words[i]) > len(words[j])
		}
		return words[i] < words[j]
	})

	return &Filter{
		pattern:      regexp.MustCompile(`(?i)\b(?:` + strings.Join(words, "|") + `)\b`),
		replacements: lowered,
	}
}

// Default returns a filter using DefaultReplacements.
func Default() *Filter {
	return New(DefaultReplacements)
}

// Clean returns text with every filtered word replaced, keeping the case
// shape of the original word.
func (f *Filter) Clean(text string) string {
	if f == nil || f.pattern == nil {
		return text
	}
	return f.pattern.ReplaceAllStringFunc(text, func(match string) string {
		replacement, ok := f.replacements[strings.ToLower(match)]
		if !ok {
			return match
		}
		if replacement == censored {
			return censored
		}
		return matchCase(match, replacement)
	})
}

// Contains reports whether text has any filtered word.
func (f *Filter) Contains(text string) bool {
	if f == nil || f.pattern == nil {
		return false
	}
	return f.pattern.MatchString(text)
}

func matchCase(original, replacement string) string {
	switch {
	case original == "":
		return replacement
	case strings.ToUpper(original) == original:
		return strings.ToUpper(replacement)
	case strings.ToLower(original) == original:
		return replacement
	}

	title := cases.Title(language.English)
	if title.String(strings.ToLower(original)) == original {
		return title.String(replacement)
	}

	// Mixed case: copy the case of each position, lower case past the end.
	src := []rune(original)
	out := []rune(replacement)
	for i, r := range out {
		if i < len(src) && unicode.IsUpper(src[i]) {
			out[i] = unicode.ToUpper(r)
		} else {
			out[i] = unicode.ToLower(r)
		}
	}
	return string(out)
}
