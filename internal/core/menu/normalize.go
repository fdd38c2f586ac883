// internal/core/menu/normalize.go
package menu

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Supported normalization languages. LanguageAuto means "try every table and
// keep the best-scoring result".
const (
	LanguageAuto    = ""
	LanguageEnglish = "en"
	LanguageUrdu    = "ur" // Roman-Urdu spellings, not Urdu script
)

// SupportedLanguages lists the normalization tables in the order they are
// attempted when no language hint is given.
var SupportedLanguages = []string{LanguageEnglish, LanguageUrdu}

// englishTokens folds common customer misspellings onto menu vocabulary.
var englishTokens = map[string]string{
	"expresso":  "espresso",
	"cappucino": "cappuccino",
	"capuccino": "cappuccino",
	"cappu":     "cappuccino",
	"late":      "latte",
	"sandwitch": "sandwich",
	"crossant":  "croissant",
	"choco":     "chocolate",
	"moca":      "mocha",
}

// romanUrduTokens maps common Roman-Urdu spellings onto the canonical English
// token set used by menu names. Empty values drop filler words.
var romanUrduTokens = map[string]string{
	"kafi":   "coffee",
	"kofi":   "coffee",
	"caffee": "coffee",
	"chai":   "tea",
	"burgr":  "burger",
	"birger": "burger",
	"bargar": "burger",
	"thanda": "cold",
	"garam":  "hot",
	"doodh":  "milk",
	"pani":   "water",
	"anda":   "egg",
	"roti":   "bread",
	"meetha": "sweet",
	"wala":   "",
	"walay":  "",
	"ka":     "",
	"ki":     "",
	"ke":     "",
}

var languageTables = map[string]map[string]string{
	LanguageEnglish: englishTokens,
	LanguageUrdu:    romanUrduTokens,
}

var diacriticStripper = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// Normalize lowercases, strips diacritics and punctuation, and maps tokens
// through the language-specific table. The catalog side is indexed with
// LanguageEnglish so both sides of a comparison share one token set.
func Normalize(s, language string) string {
	return strings.Join(NormalizeTokens(s, language), " ")
}

// NormalizeTokens is Normalize returning the individual tokens.
func NormalizeTokens(s, language string) []string {
	s = strings.ToLower(s)
	if folded, _, err := transform.String(diacriticStripper, s); err == nil {
		s = folded
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}

	table := languageTables[language]
	tokens := strings.Fields(b.String())
	out := tokens[:0]
	for _, tok := range tokens {
		if table != nil {
			if mapped, ok := table[tok]; ok {
				if mapped == "" {
					continue
				}
				tok = mapped
			}
		}
		out = append(out, tok)
	}
	return out
}
