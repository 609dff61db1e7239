package http

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"wallet/internal/core"
)

// maxCategoryRows bounds the category-i/multiplier-i pairs read from a form.
const maxCategoryRows = 200

// ParseCardForm turns a submitted card form into raw card data. Rows are
// read as category-0/multiplier-0, category-1/multiplier-1, ... until the
// first missing category-i. Rows with an empty category or an unparseable
// multiplier are dropped. Required numbers are passed through unparsed so
// core.NewCard reports them.
func ParseCardForm(form url.Values) (core.CardData, error) {
	multipliers := make(map[string]float64)
	for i := 0; ; i++ {
		raw, ok := form[fmt.Sprintf("category-%d", i)]
		if !ok {
			break
		}
		if i >= maxCategoryRows {
			return nil, &core.ValidationError{
				Field:  core.FieldMultipliers,
				Reason: fmt.Sprintf("at most %d categories allowed", maxCategoryRows),
			}
		}

		category := core.NormalizeCategory(first(raw))
		value := strings.TrimSpace(form.Get(fmt.Sprintf("multiplier-%d", i)))
		if category == "" || value == "" {
			continue
		}
		m, err := strconv.ParseFloat(value, 64)
		if err != nil {
			continue
		}
		multipliers[category] = m
	}

	data := core.CardData{core.FieldMultipliers: multipliers}
	for _, field := range []string{core.FieldCardName, core.FieldPointValue, core.FieldDefaultMultiplier} {
		if v, ok := form[field]; ok {
			data[field] = first(v)
		}
	}
	return data, nil
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
