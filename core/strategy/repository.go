// Package strategy provides the rule repository interface, pricing
// strategy materialization and the process-wide rule cache.
package strategy

import (
	"context"

	"bundle-pricing/core/rule"
)

// Repository loads rule sets. Rules are authored externally and are
// read-only to the pricing core.
type Repository interface {
	// LoadRules returns the materialized rules for a strategy
	LoadRules(ctx context.Context, strategyID string) ([]rule.Rule, error)

	// LoadDefaultRules returns the default rule set
	LoadDefaultRules(ctx context.Context) ([]rule.Rule, error)

	// Invalidate discards any repository-internal state so the next
	// load observes fresh rules
	Invalidate()
}

// RuleBlock is one strategy entry referencing a base rule with
// optional per-deployment overrides
type RuleBlock struct {
	// RuleID references the base rule
	RuleID string `json:"rule_id"`

	// Priority overrides the base rule's priority when non-nil
	Priority *int `json:"priority,omitempty"`

	// ParamOverrides are merged over the base event params
	ParamOverrides map[string]interface{} `json:"param_overrides,omitempty"`
}

// PricingStrategy is a named, versioned, ordered collection of rule
// blocks
type PricingStrategy struct {
	// ID uniquely identifies the strategy
	ID string `json:"id"`

	// Name is the display name
	Name string `json:"name"`

	// Version is the strategy version
	Version string `json:"version,omitempty"`

	// Blocks are the ordered rule blocks
	Blocks []RuleBlock `json:"blocks"`
}

// Materialize resolves a strategy against the base rule set: each
// block's overrides are merged into a copy of its base rule before
// the rule is used. Blocks referencing unknown rules are skipped.
// Base rules not referenced by any block are excluded; a strategy is
// a complete rule selection, not a patch.
func Materialize(base []rule.Rule, strat *PricingStrategy) []rule.Rule {
	byID := make(map[string]rule.Rule, len(base))
	for _, r := range base {
		byID[r.ID] = r
	}

	out := make([]rule.Rule, 0, len(strat.Blocks))
	for _, block := range strat.Blocks {
		r, ok := byID[block.RuleID]
		if !ok {
			continue
		}

		if block.Priority != nil {
			r.Priority = *block.Priority
		}
		if len(block.ParamOverrides) > 0 {
			merged := make(map[string]interface{}, len(r.Event.Params)+len(block.ParamOverrides))
			for k, v := range r.Event.Params {
				merged[k] = v
			}
			for k, v := range block.ParamOverrides {
				merged[k] = v
			}
			r.Event.Params = merged
		}
		out = append(out, r)
	}
	return out
}
