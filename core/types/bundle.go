// Package types - Bundle catalog types
package types

import (
	"github.com/shopspring/decimal"
)

// Currency is an ISO 4217 currency code
type Currency string

const (
	// CurrencyUSD is US dollars
	CurrencyUSD Currency = "USD"

	// CurrencyEUR is euros
	CurrencyEUR Currency = "EUR"

	// CurrencyAUD is Australian dollars
	CurrencyAUD Currency = "AUD"
)

// Bundle is an immutable snapshot of a catalog offer.
// A bundle is fetched per request from the catalog collaborator
// and never mutated by the pricing core.
type Bundle struct {
	// ID uniquely identifies this bundle in the catalog
	ID string `json:"id" yaml:"id"`

	// Name is the display name
	Name string `json:"name" yaml:"name"`

	// Provider is the connectivity provider code
	Provider string `json:"provider" yaml:"provider"`

	// Group is the optional catalog group (empty = ungrouped)
	Group string `json:"group,omitempty" yaml:"group,omitempty"`

	// ValidityDays is the number of days the bundle remains usable
	ValidityDays int `json:"validity_days" yaml:"validity_days"`

	// Price is the catalog list price
	Price decimal.Decimal `json:"price" yaml:"price"`

	// Currency is the price currency
	Currency Currency `json:"currency" yaml:"currency"`

	// Unlimited indicates an unlimited-data bundle
	Unlimited bool `json:"unlimited" yaml:"unlimited"`

	// Countries lists the country codes the bundle covers
	Countries []string `json:"countries,omitempty" yaml:"countries,omitempty"`

	// Regions lists the region codes the bundle covers
	Regions []string `json:"regions,omitempty" yaml:"regions,omitempty"`

	// Groups lists additional group memberships. A bundle with no
	// declared groups matches any requested group.
	Groups []string `json:"groups,omitempty" yaml:"groups,omitempty"`
}

// HasGroup reports whether the bundle belongs to the given group.
// A bundle with no declared groups matches any group.
func (b *Bundle) HasGroup(group string) bool {
	if group == "" {
		return true
	}
	if b.Group == "" && len(b.Groups) == 0 {
		return true
	}
	if b.Group == group {
		return true
	}
	for _, g := range b.Groups {
		if g == group {
			return true
		}
	}
	return false
}

// CoversCountry reports whether the bundle covers the given country
func (b *Bundle) CoversCountry(country string) bool {
	if country == "" {
		return true
	}
	for _, c := range b.Countries {
		if c == country {
			return true
		}
	}
	return false
}

// CoversRegion reports whether the bundle covers the given region
func (b *Bundle) CoversRegion(region string) bool {
	if region == "" {
		return true
	}
	for _, r := range b.Regions {
		if r == region {
			return true
		}
	}
	return false
}
