// Package rule - rule matching
package rule

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"bundle-pricing/core/types"
	"bundle-pricing/internal/logging"
)

// FiredEvent is one event fired by a matched rule, in firing order
type FiredEvent struct {
	// RuleID is the rule that fired the event
	RuleID string `json:"rule_id"`

	// RuleName is the rule name
	RuleName string `json:"rule_name"`

	// Category is the rule category
	Category string `json:"category,omitempty"`

	// Event is the configured event
	Event Event `json:"event"`
}

// MatchResult is the output of one matching run
type MatchResult struct {
	// Fired lists fired events in firing order
	Fired []FiredEvent `json:"fired"`

	// Diagnostics lists per-rule evaluation outcomes in evaluation order
	Diagnostics []types.RuleDiagnostic `json:"diagnostics"`

	// Evaluated is the number of rules evaluated
	Evaluated int `json:"evaluated"`
}

// Matcher evaluates rule sets against facts
type Matcher struct {
	log *zap.Logger
}

// NewMatcher creates a matcher
func NewMatcher() *Matcher {
	return &Matcher{log: logging.Named("matcher")}
}

// Match evaluates every rule's condition tree against the fact source
// and collects the fired events. Rules are evaluated in priority order
// (stable on input order for equal priorities); priority affects only
// evaluation and diagnostics ordering, never pricing outcome. A rule
// whose condition fails to evaluate is skipped with a diagnostic,
// not a fatal error.
func (m *Matcher) Match(ctx context.Context, rules []Rule, facts FactSource) (*MatchResult, error) {
	ordered := make([]Rule, len(rules))
	copy(ordered, rules)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority < ordered[j].Priority
	})

	result := &MatchResult{
		Fired:       make([]FiredEvent, 0, len(ordered)),
		Diagnostics: make([]types.RuleDiagnostic, 0, len(ordered)),
		Evaluated:   len(ordered),
	}

	for _, r := range ordered {
		diag := types.RuleDiagnostic{RuleID: r.ID, Name: r.Name}

		matched, err := Evaluate(ctx, r.Condition, facts)
		if err != nil {
			diag.Error = err.Error()
			m.log.Warn("rule condition evaluation failed",
				zap.String("rule", r.ID),
				zap.Error(err))
			result.Diagnostics = append(result.Diagnostics, diag)
			continue
		}

		diag.Matched = matched
		result.Diagnostics = append(result.Diagnostics, diag)

		if matched {
			result.Fired = append(result.Fired, FiredEvent{
				RuleID:   r.ID,
				RuleName: r.Name,
				Category: r.Category,
				Event:    r.Event,
			})
		}
	}

	return result, nil
}
