// internal/core/intent/extractor_test.go
package intent

import (
	"testing"

	"foodexpress-workers/internal/core/menu"
	"foodexpress-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSnapshot() *menu.Snapshot {
	return menu.BuildSnapshot([]models.MenuItem{
		{ID: 1, Name: "Zinger Burger", Category: "Burgers", Price: 450, IsAvailable: true, Aliases: []string{"zinger"}},
		{ID: 2, Name: "Coke", Category: "Beverages", Price: 150, IsAvailable: true, Aliases: []string{"cola", "coca cola"}},
		{ID: 3, Name: "Espresso", Category: "Coffee", Price: 250, IsAvailable: true, Aliases: []string{"coffee", "black coffee"}},
		{ID: 4, Name: "Cookie", Category: "Desserts", Price: 150, IsAvailable: true, Aliases: []string{"biscuit"}},
		{ID: 5, Name: "Chicken Karahi", Category: "Mains", Price: 950, IsAvailable: true},
	})
}

func TestExtract_OrderWithQuantities(t *testing.T) {
	snap := testSnapshot()

	parsed, lines := Extract(snap, 0, "2 zinger burger 1 coke", menu.LanguageEnglish)

	assert.Equal(t, models.IntentPlaceOrder, parsed.Kind)
	require.Len(t, lines, 2)

	assert.Equal(t, int64(1), lines[0].ItemID)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, int64(2), lines[1].ItemID)
	assert.Equal(t, 1, lines[1].Quantity)
	assert.InDelta(t, 1.0, parsed.Confidence, 1e-9)
}

func TestExtract_DefaultQuantityIsOne(t *testing.T) {
	snap := testSnapshot()

	parsed, lines := Extract(snap, 0, "i want a coke please", menu.LanguageEnglish)

	assert.Equal(t, models.IntentPlaceOrder, parsed.Kind)
	require.Len(t, lines, 1)
	assert.Equal(t, int64(2), lines[0].ItemID)
	assert.Equal(t, 1, lines[0].Quantity)
}

func TestExtract_SpelledOutNumbers(t *testing.T) {
	snap := testSnapshot()

	tests := []struct {
		name string
		text string
		lang string
		qty  int
		item int64
	}{
		{"english word", "two cookies", menu.LanguageEnglish, 2, 4},
		{"roman urdu word", "do coffee", menu.LanguageUrdu, 2, 3},
		{"urdu spelling via auto detect", "teen kafi", menu.LanguageAuto, 3, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, lines := Extract(snap, 0, tt.text, tt.lang)
			assert.Equal(t, models.IntentPlaceOrder, parsed.Kind)
			require.Len(t, lines, 1)
			assert.Equal(t, tt.item, lines[0].ItemID)
			assert.Equal(t, tt.qty, lines[0].Quantity)
		})
	}
}

func TestExtract_ConjunctionSplitsPhrases(t *testing.T) {
	snap := testSnapshot()

	_, lines := Extract(snap, 0, "a coffee and 2 cookies", menu.LanguageEnglish)

	require.Len(t, lines, 2)
	assert.Equal(t, int64(3), lines[0].ItemID)
	assert.Equal(t, 1, lines[0].Quantity)
	assert.Equal(t, int64(4), lines[1].ItemID)
	assert.Equal(t, 2, lines[1].Quantity)
}

func TestExtract_DuplicateItemQuantitiesSummed(t *testing.T) {
	snap := testSnapshot()

	_, lines := Extract(snap, 0, "1 coke and 2 coke", menu.LanguageEnglish)

	require.Len(t, lines, 1)
	assert.Equal(t, int64(2), lines[0].ItemID)
	assert.Equal(t, 3, lines[0].Quantity)
}

func TestExtract_UnrecognizedPhraseWithQuantityKeptUnresolved(t *testing.T) {
	snap := testSnapshot()

	parsed, lines := Extract(snap, 0, "2 flurgle nuggets", menu.LanguageEnglish)

	assert.Equal(t, models.IntentPlaceOrder, parsed.Kind)
	require.Len(t, lines, 1)
	assert.False(t, lines[0].Resolved())
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, 0.0, parsed.Confidence, "no resolved lines means zero confidence")
}

func TestExtract_SuggestionRangeRecordsNameWithoutID(t *testing.T) {
	snap := testSnapshot()

	// "karah" sits between the suggestion and auto-resolve thresholds for
	// "chicken karahi" only when paired with "chicken".
	_, lines := Extract(snap, 0, "1 chicken karah food", menu.LanguageEnglish)

	require.Len(t, lines, 1)
	if lines[0].MatchScore >= menu.SuggestThreshold && lines[0].MatchScore < menu.AutoResolveThreshold {
		assert.False(t, lines[0].Resolved())
		assert.Equal(t, "Chicken Karahi", lines[0].ItemName)
	}
}

func TestExtract_IntentPriorityOrder(t *testing.T) {
	snap := testSnapshot()

	// Inputs deliberately match multiple rule classes; the fixed priority
	// order decides the winner.
	tests := []struct {
		name     string
		text     string
		expected models.IntentKind
	}{
		{"cancel beats order items", "cancel my 2 zinger burger order", models.IntentCancel},
		{"cancel beats tracking", "cancel the order you are tracking", models.IntentCancel},
		{"confirm beats order items", "confirm 1 coke", models.IntentConfirm},
		{"tracking beats nearby", "track my order near me", models.IntentTrackOrder},
		{"tracking beats items", "what is the status of my coke", models.IntentTrackOrder},
		{"nearby beats items", "nearby places for a zinger burger", models.IntentNearbyRestaurants},
		{"menu beats items", "menu with coffee prices", models.IntentGetMenu},
		{"items beat greeting", "hello i want 2 zinger burger", models.IntentPlaceOrder},
		{"greeting alone", "hello", models.IntentGreeting},
		{"greeting roman urdu", "salam", models.IntentGreeting},
		{"unknown fallback", "xyz123 nonsense", models.IntentUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, _ := Extract(snap, 0, tt.text, menu.LanguageAuto)
			assert.Equal(t, tt.expected, parsed.Kind)
		})
	}
}

func TestExtract_KeywordIntentConfidenceIsOne(t *testing.T) {
	snap := testSnapshot()

	for _, text := range []string{"cancel", "confirm", "track order", "nearby restaurants"} {
		parsed, lines := Extract(snap, 0, text, menu.LanguageEnglish)
		assert.Equal(t, 1.0, parsed.Confidence, text)
		assert.Empty(t, lines, text)
	}
}

func TestExtract_UnknownHasZeroConfidence(t *testing.T) {
	snap := testSnapshot()

	parsed, lines := Extract(snap, 0, "qwerty asdf", menu.LanguageAuto)

	assert.Equal(t, models.IntentUnknown, parsed.Kind)
	assert.Zero(t, parsed.Confidence)
	assert.Empty(t, lines)
}

func TestExtract_AutoLanguagePicksBestTable(t *testing.T) {
	snap := testSnapshot()

	// "kafi" only resolves after the Roman-Urdu table maps it to "coffee".
	parsed, lines := Extract(snap, 0, "ek kafi", menu.LanguageAuto)

	assert.Equal(t, models.IntentPlaceOrder, parsed.Kind)
	require.Len(t, lines, 1)
	assert.Equal(t, int64(3), lines[0].ItemID)
	assert.Equal(t, 1, lines[0].Quantity)
}
