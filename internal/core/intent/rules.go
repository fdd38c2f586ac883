// internal/core/intent/rules.go
package intent

import (
	"strings"

	"foodexpress-workers/internal/models"
)

// keywordRule maps trigger vocabulary to an intent. Single-word keywords
// match whole tokens; multi-word keywords match as substrings of the
// normalized text.
type keywordRule struct {
	Kind     models.IntentKind
	Keywords []string
}

// priorityRules are checked in order before any item extraction; the first
// matching rule wins. Cancel and confirm outrank everything, then tracking,
// then nearby lookups, then the menu/help side intents.
var priorityRules = []keywordRule{
	{models.IntentCancel, []string{"cancel", "cancle", "nahi chahiye"}},
	{models.IntentConfirm, []string{"confirm", "confirmed", "haan theek"}},
	{models.IntentTrackOrder, []string{"track", "status", "where is my order", "when will my order"}},
	{models.IntentNearbyRestaurants, []string{"nearby", "near me", "close to me", "around me", "restaurants near"}},
	{models.IntentGetMenu, []string{"menu", "what do you have", "whats available", "price list"}},
	{models.IntentHelp, []string{"help", "support", "problem", "issue"}},
}

// greetingRule is checked only after item extraction found nothing; a
// greeting containing an order is still an order.
var greetingRule = keywordRule{
	Kind: models.IntentGreeting,
	Keywords: []string{
		"hello", "hi", "hey", "salam", "salaam", "assalam o alaikum",
		"good morning", "good evening", "start",
	},
}

// matchRule reports whether the rule triggers on the normalized token list.
func matchRule(rule keywordRule, tokens []string, joined string) bool {
	for _, kw := range rule.Keywords {
		if strings.ContainsRune(kw, ' ') {
			if strings.Contains(joined, kw) {
				return true
			}
			continue
		}
		for _, tok := range tokens {
			if tok == kw {
				return true
			}
		}
	}
	return false
}

// classifyKeywords runs the priority table and returns the first hit.
func classifyKeywords(tokens []string) (models.IntentKind, bool) {
	joined := strings.Join(tokens, " ")
	for _, rule := range priorityRules {
		if matchRule(rule, tokens, joined) {
			return rule.Kind, true
		}
	}
	return models.IntentUnknown, false
}

// isGreeting checks the greeting patterns.
func isGreeting(tokens []string) bool {
	return matchRule(greetingRule, tokens, strings.Join(tokens, " "))
}
