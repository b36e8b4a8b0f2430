// Package rule - rule definition and load-time validation
package rule

import (
	"bundle-pricing/internal/errors"
)

// Rule is one configured pricing rule: a condition tree plus the
// single event it fires when the condition holds. Rules are read-only
// snapshots within a run.
type Rule struct {
	// ID uniquely identifies the rule
	ID string `json:"id"`

	// Name is the human-readable rule name
	Name string `json:"name"`

	// Category classifies the rule (e.g. "base", "markup", "discount")
	Category string `json:"category,omitempty"`

	// Priority orders rule evaluation only; it never affects the
	// canonical stage order prices are applied in
	Priority int `json:"priority"`

	// Condition is the tree gating the event
	Condition *Condition `json:"condition"`

	// Event is the single event fired when the condition holds
	Event Event `json:"event"`
}

// Validate checks the rule is well formed and its event parameters
// satisfy the schema of the event type. An invalid rule is rejected
// at load time and never influences a price.
func (r *Rule) Validate() error {
	if r.ID == "" {
		return errors.Validation("rule id is required")
	}
	if r.Condition == nil {
		return errors.Validationf("rule %s: condition is required", r.ID)
	}
	if err := validateCondition(r.Condition); err != nil {
		return errors.Wrapf(errors.TypeValidation, err, "rule %s", r.ID)
	}
	if err := validateEvent(&r.Event); err != nil {
		return errors.Wrapf(errors.TypeValidation, err, "rule %s", r.ID)
	}
	return nil
}

func validateCondition(c *Condition) error {
	switch c.Kind {
	case KindAll, KindAny:
		if len(c.Children) == 0 {
			return errors.Validationf("%s condition requires children", c.Kind)
		}
		for _, child := range c.Children {
			if err := validateCondition(child); err != nil {
				return err
			}
		}
	case KindNot:
		if c.Child == nil {
			return errors.Validation("not condition requires a child")
		}
		return validateCondition(c.Child)
	case KindLeaf:
		if c.Path == "" {
			return errors.Validation("leaf condition requires a path")
		}
		if _, ok := ParseOperator(string(c.Operator)); !ok {
			return errors.Validationf("leaf condition has unknown operator: %s", c.Operator)
		}
		if _, err := splitPath(c.Path); err != nil {
			return err
		}
	default:
		return errors.Validationf("unknown condition kind: %s", c.Kind)
	}
	return nil
}

// validateEvent checks per-type parameter schemas. Unknown event
// types pass validation; they are skipped with a warning at apply
// time instead of failing the load. A missing event does not: a rule
// is a condition plus exactly one event template.
func validateEvent(e *Event) error {
	if e.Type == "" {
		return errors.Validation("event is required")
	}
	switch e.Type {
	case EventApplyMarkup:
		if v, ok := e.Param("amount"); ok {
			if _, numeric := e.NumericParam("amount"); !numeric {
				return errors.Validationf("apply-markup amount must be numeric, got %T", v)
			}
		}
	case EventApplyUnusedDaysDiscount:
		if v, ok := e.Param("refund_factor"); ok {
			f, numeric := e.NumericParam("refund_factor")
			if !numeric || f < 0 || f > 1 {
				return errors.Validationf("apply-unused-days-discount refund_factor must be in [0,1], got %v", v)
			}
		}
	case EventApplyProfitConstraint:
		if v, ok := e.Param("min_profit"); ok {
			f, numeric := e.NumericParam("min_profit")
			if !numeric || f < 0 {
				return errors.Validationf("apply-profit-constraint min_profit must be non-negative, got %v", v)
			}
		}
	case EventApplyPsychologicalRounding:
		if s, ok := e.Param("strategy"); ok {
			str, isString := e.StringParam("strategy")
			if !isString || str != "nearest-whole" {
				return errors.Validationf("apply-psychological-rounding strategy unsupported: %v", s)
			}
		}
	case EventApplyRegionRounding:
		if v, ok := e.Param("offset"); ok {
			f, numeric := e.NumericParam("offset")
			if !numeric || f < 0 || f >= 1 {
				return errors.Validationf("apply-region-rounding offset must be in [0,1), got %v", v)
			}
		}
	case EventApplyFixedPrice:
		f, ok := e.NumericParam("price")
		if !ok || f < 0 {
			return errors.Validation("apply-fixed-price requires a non-negative numeric price")
		}
	}
	return nil
}
