// Package core holds the card entity and the ranking rules used to pick the
// most rewarding card for a spending category.
package core

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Raw field names, shared by form parsing and the JSON store.
const (
	FieldCardName          = "card_name"
	FieldPointValue        = "point_value"
	FieldDefaultMultiplier = "default_multiplier"
	FieldMultipliers       = "multipliers"
)

// DefaultCategory is the synthetic category ranked with every card's default multiplier.
const DefaultCategory = "default"

const centsPerDollar = 100.0

type (
	// CardData is a raw, not yet validated card record as submitted by a
	// form or decoded from storage. Numeric values may be numbers or
	// numeric strings.
	CardData map[string]any

	// Card is a credit card with its reward parameters. PointValue is
	// expressed in cents per point.
	Card struct {
		Name              string
		PointValue        float64
		DefaultMultiplier float64
		Multipliers       map[string]float64
	}
)

// NewCard validates raw data and builds a Card from it.
func NewCard(data CardData) (Card, error) {
	name, err := requiredName(data)
	if err != nil {
		return Card{}, err
	}
	pointValue, err := requiredNumber(data, FieldPointValue)
	if err != nil {
		return Card{}, err
	}
	defaultMult, err := requiredNumber(data, FieldDefaultMultiplier)
	if err != nil {
		return Card{}, err
	}
	mults, err := multipliers(data)
	if err != nil {
		return Card{}, err
	}
	return Card{
		Name:              name,
		PointValue:        pointValue,
		DefaultMultiplier: defaultMult,
		Multipliers:       mults,
	}, nil
}

// Value returns the cash back in dollars earned per unit spent in category.
func (c Card) Value(category string) float64 {
	return (c.Multiplier(category) * c.PointValue) / centsPerDollar
}

// Multiplier returns the category multiplier, falling back to the default one.
func (c Card) Multiplier(category string) float64 {
	if m, ok := c.Multipliers[category]; ok {
		return m
	}
	return c.DefaultMultiplier
}

// Data converts the card back to its raw representation.
func (c Card) Data() CardData {
	mults := make(map[string]any, len(c.Multipliers))
	for k, v := range c.Multipliers {
		mults[k] = v
	}
	return CardData{
		FieldCardName:          c.Name,
		FieldPointValue:        c.PointValue,
		FieldDefaultMultiplier: c.DefaultMultiplier,
		FieldMultipliers:       mults,
	}
}

// Clone returns a deep copy of the card.
func (c Card) Clone() Card {
	out := c
	out.Multipliers = make(map[string]float64, len(c.Multipliers))
	for k, v := range c.Multipliers {
		out.Multipliers[k] = v
	}
	return out
}

func (c Card) String() string {
	return c.Name
}

// NormalizeCategory turns a user supplied category into its storage key:
// trimmed, lower-cased, with spaces replaced by underscores.
func NormalizeCategory(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_")
}

// ParseNumber converts a user or storage supplied value to a finite,
// non-negative float.
func ParseNumber(v any) (float64, error) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", n.String())
		}
		f = parsed
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, fmt.Errorf("empty value")
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", s)
		}
		f = parsed
	case nil:
		return 0, fmt.Errorf("missing value")
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("must be finite")
	}
	if f < 0 {
		return 0, fmt.Errorf("must not be negative")
	}
	return f, nil
}

func requiredName(data CardData) (string, error) {
	raw, ok := data[FieldCardName]
	if !ok {
		return "", &ValidationError{Field: FieldCardName, Reason: "missing"}
	}
	name, ok := raw.(string)
	if !ok {
		return "", &ValidationError{Field: FieldCardName, Reason: fmt.Sprintf("unsupported type %T", raw)}
	}
	if strings.TrimSpace(name) == "" {
		return "", &ValidationError{Field: FieldCardName, Reason: "empty"}
	}
	return name, nil
}

func requiredNumber(data CardData, field string) (float64, error) {
	raw, ok := data[field]
	if !ok {
		return 0, &ValidationError{Field: field, Reason: "missing"}
	}
	f, err := ParseNumber(raw)
	if err != nil {
		return 0, &ValidationError{Field: field, Reason: err.Error()}
	}
	return f, nil
}

func multipliers(data CardData) (map[string]float64, error) {
	out := map[string]float64{}
	raw, ok := data[FieldMultipliers]
	if !ok || raw == nil {
		return out, nil
	}
	switch m := raw.(type) {
	case map[string]float64:
		for k, v := range m {
			f, err := ParseNumber(v)
			if err != nil {
				return nil, &ValidationError{Field: FieldMultipliers + "." + k, Reason: err.Error()}
			}
			out[k] = f
		}
	case map[string]any:
		for k, v := range m {
			f, err := ParseNumber(v)
			if err != nil {
				return nil, &ValidationError{Field: FieldMultipliers + "." + k, Reason: err.Error()}
			}
			out[k] = f
		}
	default:
		return nil, &ValidationError{Field: FieldMultipliers, Reason: fmt.Sprintf("unsupported type %T", raw)}
	}
	return out, nil
}
