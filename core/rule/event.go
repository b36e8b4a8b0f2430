// Package rule - pricing event types and normalization
package rule

import (
	"strings"
)

// EventType is a canonical pricing event type. Every configured event
// type string is normalized to one of these at the load boundary;
// the hot path never does string munging.
type EventType string

const (
	// EventSetBasePrice seeds the running price from the selected bundle
	EventSetBasePrice EventType = "set-base-price"

	// EventApplyMarkup adds the resolved margin
	EventApplyMarkup EventType = "apply-markup"

	// EventApplyUnusedDaysDiscount refunds part of the unused validity
	EventApplyUnusedDaysDiscount EventType = "apply-unused-days-discount"

	// EventApplyProcessingFee adds the payment method fee
	EventApplyProcessingFee EventType = "apply-processing-fee"

	// EventApplyProfitConstraint enforces the minimum profit floor
	EventApplyProfitConstraint EventType = "apply-profit-constraint"

	// EventApplyPsychologicalRounding rounds the final price
	EventApplyPsychologicalRounding EventType = "apply-psychological-rounding"

	// EventApplyRegionRounding floors the price plus a fractional offset
	EventApplyRegionRounding EventType = "apply-region-rounding"

	// EventApplyFixedPrice overrides all prior computation
	EventApplyFixedPrice EventType = "apply-fixed-price"

	// EventUnknown marks an unrecognized event type; applied as a
	// no-op with a warning, never fatal
	EventUnknown EventType = "unknown"
)

var canonicalEventTypes = []EventType{
	EventSetBasePrice,
	EventApplyMarkup,
	EventApplyUnusedDaysDiscount,
	EventApplyProcessingFee,
	EventApplyProfitConstraint,
	EventApplyPsychologicalRounding,
	EventApplyRegionRounding,
	EventApplyFixedPrice,
}

// squash lowercases and strips separators so that "apply_markup",
// "ApplyMarkup" and "apply-markup" all compare equal
func squash(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		}
	}
	return b.String()
}

var squashedEventTypes = func() map[string]EventType {
	m := make(map[string]EventType, len(canonicalEventTypes))
	for _, t := range canonicalEventTypes {
		m[squash(string(t))] = t
	}
	return m
}()

// NormalizeEventType maps a configured event type string to its
// canonical form, case- and separator-insensitively. Unrecognized
// types normalize to EventUnknown.
func NormalizeEventType(s string) EventType {
	if t, ok := squashedEventTypes[squash(s)]; ok {
		return t
	}
	return EventUnknown
}

// Event is one configured pricing event template
type Event struct {
	// Type is the canonical event type
	Type EventType `json:"type"`

	// RawType preserves the configured spelling for diagnostics
	RawType string `json:"raw_type,omitempty"`

	// Params carries event parameters, merged with any strategy
	// overrides before the rule is materialized
	Params map[string]interface{} `json:"params,omitempty"`
}

// Param returns a parameter value
func (e *Event) Param(key string) (interface{}, bool) {
	if e.Params == nil {
		return nil, false
	}
	v, ok := e.Params[key]
	return v, ok
}

// NumericParam returns a numeric parameter as float64
func (e *Event) NumericParam(key string) (float64, bool) {
	v, ok := e.Param(key)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// StringParam returns a string parameter
func (e *Event) StringParam(key string) (string, bool) {
	v, ok := e.Param(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
