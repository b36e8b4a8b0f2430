// Package types - Pricing request types
package types

import (
	"strings"

	"bundle-pricing/internal/errors"
)

// PricingRequest describes one purchase to be priced.
// Country and Region are mutually exclusive.
type PricingRequest struct {
	// Days is the requested usage duration in days
	Days int `json:"days"`

	// Group optionally narrows the catalog to one bundle group
	Group string `json:"group,omitempty"`

	// Country is the destination country code
	Country string `json:"country,omitempty"`

	// Region is the destination region code
	Region string `json:"region,omitempty"`

	// PaymentMethod selects the processing fee entry (e.g. "card", "paypal")
	PaymentMethod string `json:"payment_method"`

	// StrategyID optionally selects a pricing strategy; empty uses the
	// default rule set
	StrategyID string `json:"strategy_id,omitempty"`

	// Debug requests soft warnings and fact values in the breakdown
	Debug bool `json:"debug,omitempty"`
}

// Validate checks the request is well formed
func (r *PricingRequest) Validate() error {
	if r.Days <= 0 {
		return errors.Input("requested days must be positive")
	}
	if r.Country != "" && r.Region != "" {
		return errors.Input("country and region are mutually exclusive")
	}
	if r.Country == "" && r.Region == "" {
		return errors.Input("either country or region is required")
	}
	return nil
}

// FeeEntry is a processing fee for one payment method
type FeeEntry struct {
	// PercentageFee is the fee percentage applied to the running price
	PercentageFee float64 `json:"percentage_fee" yaml:"percentage_fee"`

	// FixedFee is the flat fee added on top
	FixedFee float64 `json:"fixed_fee" yaml:"fixed_fee"`
}

// FeeMatrix maps payment methods to processing fees.
// Lookup is case-insensitive; a method with no entry means the
// processing fee stage is skipped for that request.
type FeeMatrix map[string]FeeEntry

// Lookup returns the fee entry for a payment method
func (m FeeMatrix) Lookup(method string) (FeeEntry, bool) {
	if entry, ok := m[method]; ok {
		return entry, true
	}
	for k, entry := range m {
		if strings.EqualFold(k, method) {
			return entry, true
		}
	}
	return FeeEntry{}, false
}
