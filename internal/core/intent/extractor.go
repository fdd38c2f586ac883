// internal/core/intent/extractor.go
package intent

import (
	"strconv"
	"strings"

	"foodexpress-workers/internal/core/menu"
	"foodexpress-workers/internal/models"
)

// numberWords covers spelled-out quantities in the supported languages.
var numberWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
	"ek": 1, "do": 2, "teen": 3, "char": 4, "panch": 5,
	"che": 6, "saat": 7, "aath": 8, "nau": 9, "das": 10,
}

// conjunctions separate candidate item phrases.
var conjunctions = map[string]bool{
	"and": true, "aur": true, "plus": true, "with": true,
}

// stopWords are filler tokens stripped from item phrases.
var stopWords = map[string]bool{
	"i": true, "want": true, "need": true, "would": true, "like": true,
	"please": true, "order": true, "give": true, "get": true, "me": true,
	"my": true, "a": true, "an": true, "the": true, "some": true, "any": true,
	"of": true, "to": true, "for": true, "can": true, "have": true, "x": true,
	"mujhe": true, "chahiye": true,
	// Greeting tokens are not item phrases even when they fuzz close to a
	// menu name ("salam" vs "salad").
	"hello": true, "hi": true, "hey": true, "salam": true, "salaam": true,
}

// maxQuantity caps a single line; anything larger is treated as noise and
// reset to 1.
const maxQuantity = 50

// Extract classifies a message and, for order intents, extracts (item,
// quantity) pairs by fuzzy-matching candidate phrases against the menu
// snapshot. When languageHint is empty every supported normalization table is
// tried and the result with the highest aggregate match score wins.
func Extract(snap *menu.Snapshot, branchID int64, text, languageHint string) (models.ParsedIntent, []models.OrderLineDraft) {
	languages := []string{languageHint}
	if languageHint == menu.LanguageAuto {
		languages = menu.SupportedLanguages
	}

	var (
		bestLines []models.OrderLineDraft
		bestScore = -1.0
	)
	for _, lang := range languages {
		tokens := menu.NormalizeTokens(text, lang)

		if kind, ok := classifyKeywords(tokens); ok {
			return models.ParsedIntent{Kind: kind, Confidence: 1.0, RawText: text}, nil
		}

		lines := extractLines(snap, branchID, tokens)
		if score := aggregateScore(lines); score > bestScore {
			bestScore = score
			bestLines = lines
		}
	}

	if len(bestLines) > 0 {
		return models.ParsedIntent{
			Kind:       models.IntentPlaceOrder,
			Confidence: meanResolvedScore(bestLines),
			RawText:    text,
		}, bestLines
	}

	for _, lang := range languages {
		if isGreeting(menu.NormalizeTokens(text, lang)) {
			return models.ParsedIntent{Kind: models.IntentGreeting, Confidence: 1.0, RawText: text}, nil
		}
	}

	return models.ParsedIntent{Kind: models.IntentUnknown, Confidence: 0, RawText: text}, nil
}

// phrase is one candidate item mention with its adjacent quantity.
type phrase struct {
	words    []string
	quantity int
	explicit bool // quantity came from a number token
}

// splitPhrases walks the token stream, starting a new phrase at each quantity
// token or conjunction. A trailing number with no noun phrase is dropped.
func splitPhrases(tokens []string) []phrase {
	var (
		phrases []phrase
		current *phrase
	)
	flush := func() {
		if current != nil && len(current.words) > 0 {
			phrases = append(phrases, *current)
		}
		current = nil
	}

	for _, tok := range tokens {
		if qty, ok := parseQuantity(tok); ok {
			flush()
			current = &phrase{quantity: qty, explicit: true}
			continue
		}
		if conjunctions[tok] {
			flush()
			continue
		}
		if stopWords[tok] {
			continue
		}
		if current == nil {
			current = &phrase{quantity: 1}
		}
		current.words = append(current.words, tok)
	}
	flush()
	return phrases
}

func parseQuantity(tok string) (int, bool) {
	if n, err := strconv.Atoi(tok); err == nil {
		if n <= 0 || n > maxQuantity {
			return 1, true
		}
		return n, true
	}
	if n, ok := numberWords[tok]; ok {
		return n, true
	}
	return 0, false
}

// extractLines resolves each candidate phrase against the catalog. A phrase
// becomes an order line when it carried an explicit quantity or when it
// matched a menu item at or above the suggestion threshold; anything else is
// not item-like and is discarded.
func extractLines(snap *menu.Snapshot, branchID int64, tokens []string) []models.OrderLineDraft {
	var lines []models.OrderLineDraft
	for _, p := range splitPhrases(tokens) {
		raw := strings.Join(p.words, " ")
		matches := snap.LookupNormalized(raw, branchID)

		var top menu.Match
		if len(matches) > 0 {
			top = matches[0]
		}
		if !p.explicit && top.Score < menu.SuggestThreshold {
			continue
		}

		line := models.OrderLineDraft{
			RawPhrase:  raw,
			Quantity:   p.quantity,
			MatchScore: top.Score,
		}
		switch {
		case top.Score >= menu.AutoResolveThreshold:
			line.ItemID = top.Item.ID
			line.ItemName = top.Item.Name
		case top.Score >= menu.SuggestThreshold:
			// Suggestion only: name recorded for the disambiguation
			// prompt, id left unset until the customer confirms.
			line.ItemName = top.Item.Name
		}
		lines = append(lines, line)
	}
	return dedupe(lines)
}

// dedupe folds repeated mentions of the same resolved item into one line,
// summing quantities.
func dedupe(lines []models.OrderLineDraft) []models.OrderLineDraft {
	seen := make(map[int64]int)
	out := lines[:0]
	for _, l := range lines {
		if l.Resolved() {
			if idx, ok := seen[l.ItemID]; ok {
				out[idx].Quantity += l.Quantity
				continue
			}
			seen[l.ItemID] = len(out)
		}
		out = append(out, l)
	}
	return out
}

func aggregateScore(lines []models.OrderLineDraft) float64 {
	total := 0.0
	for _, l := range lines {
		total += l.MatchScore
	}
	return total
}

func meanResolvedScore(lines []models.OrderLineDraft) float64 {
	sum, n := 0.0, 0
	for _, l := range lines {
		if l.Resolved() {
			sum += l.MatchScore
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
