package core

import "sort"

type (
	// Ranked pairs a card with the value it yields for one category.
	Ranked struct {
		Card  Card
		Value float64
	}

	// CategoryBest is one row of the best-card report.
	CategoryBest struct {
		Category string  `json:"category"`
		BestCard string  `json:"best_card"`
		Value    float64 `json:"value"`
	}
)

// BestFor scans cards in order and returns the first card reaching the
// highest value for category. A later card only wins on a strictly greater
// value. It returns false when cards is empty.
func BestFor(cards []Card, category string) (Ranked, bool) {
	if len(cards) == 0 {
		return Ranked{}, false
	}
	best := Ranked{Card: cards[0], Value: cards[0].Value(category)}
	for _, c := range cards[1:] {
		if v := c.Value(category); v > best.Value {
			best = Ranked{Card: c, Value: v}
		}
	}
	return best, true
}

// Categories returns the sorted set of multiplier keys defined by any card.
func Categories(cards []Card) []string {
	seen := map[string]struct{}{}
	for _, c := range cards {
		for k := range c.Multipliers {
			seen[k] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// BestPerCategory ranks every known category plus DefaultCategory, in
// lexicographic order. It returns nil when cards is empty.
func BestPerCategory(cards []Card) []CategoryBest {
	if len(cards) == 0 {
		return nil
	}
	cats := Categories(cards)
	i := sort.SearchStrings(cats, DefaultCategory)
	if i == len(cats) || cats[i] != DefaultCategory {
		cats = append(cats, "")
		copy(cats[i+1:], cats[i:])
		cats[i] = DefaultCategory
	}

	out := make([]CategoryBest, 0, len(cats))
	for _, cat := range cats {
		best, ok := BestFor(cards, cat)
		if !ok {
			continue
		}
		out = append(out, CategoryBest{Category: cat, BestCard: best.Card.Name, Value: best.Value})
	}
	return out
}
