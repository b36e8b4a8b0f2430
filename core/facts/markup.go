// Package facts - markup matrix resolution
package facts

import (
	"github.com/shopspring/decimal"

	"bundle-pricing/core/types"
)

type markupKey struct {
	provider string
	group    string
}

// MarkupMatrix is a structured lookup from (provider, optional group)
// and duration to an added margin amount. It replaces free-form
// concatenated string keys with an explicit ordered fallback chain:
//
//  1. provider-only entry, only for bundles without a group
//  2. compound provider+group entry
//  3. legacy group-only entry
//
// A miss is reported through Lookup's second return; the caller
// decides the fallback.
type MarkupMatrix struct {
	entries map[markupKey]map[int]decimal.Decimal
}

// NewMarkupMatrix creates an empty matrix
func NewMarkupMatrix() *MarkupMatrix {
	return &MarkupMatrix{
		entries: make(map[markupKey]map[int]decimal.Decimal),
	}
}

// Add registers a margin amount. An empty group registers a
// provider-only entry; an empty provider registers a legacy
// group-only entry.
func (m *MarkupMatrix) Add(provider, group string, days int, amount decimal.Decimal) {
	key := markupKey{provider: provider, group: group}
	if m.entries[key] == nil {
		m.entries[key] = make(map[int]decimal.Decimal)
	}
	m.entries[key][days] = amount
}

// Size returns the number of (key, duration) entries
func (m *MarkupMatrix) Size() int {
	n := 0
	for _, durations := range m.entries {
		n += len(durations)
	}
	return n
}

// Lookup returns the margin for a bundle, walking the fallback chain.
// The provider-only key applies only to bundles without a group, so a
// grouped provider never silently inherits its groupless margin.
func (m *MarkupMatrix) Lookup(b *types.Bundle) (decimal.Decimal, bool) {
	var keys []markupKey
	if b.Group == "" {
		keys = []markupKey{{provider: b.Provider}}
	} else {
		keys = []markupKey{
			{provider: b.Provider, group: b.Group},
			{group: b.Group},
		}
	}

	for _, key := range keys {
		if durations, ok := m.entries[key]; ok {
			if amount, ok := durations[b.ValidityDays]; ok {
				return amount, true
			}
		}
	}
	return decimal.Zero, false
}
