// Package rule provides data-described pricing rules: condition trees
// evaluated against resolved facts, firing configured pricing events.
package rule

import (
	"context"

	"bundle-pricing/internal/errors"
)

// Operator is a leaf condition operator
type Operator string

const (
	// OpEquals tests equality
	OpEquals Operator = "eq"

	// OpNotEquals tests inequality
	OpNotEquals Operator = "neq"

	// OpGreaterThan tests numeric greater-than
	OpGreaterThan Operator = "gt"

	// OpLessThan tests numeric less-than
	OpLessThan Operator = "lt"

	// OpIn tests membership in a list
	OpIn Operator = "in"

	// OpNotIn tests non-membership in a list
	OpNotIn Operator = "not_in"

	// OpBetween tests an inclusive numeric range [min, max]
	OpBetween Operator = "between"

	// OpExists tests that the path resolves to a non-nil value
	OpExists Operator = "exists"

	// OpNotExists tests that the path resolves to nil
	OpNotExists Operator = "not_exists"
)

// ParseOperator normalizes an operator spelling to its canonical form
func ParseOperator(s string) (Operator, bool) {
	switch s {
	case "eq", "equals", "==":
		return OpEquals, true
	case "neq", "not_equals", "not-equals", "!=":
		return OpNotEquals, true
	case "gt", "greater_than", "greater-than", ">":
		return OpGreaterThan, true
	case "lt", "less_than", "less-than", "<":
		return OpLessThan, true
	case "in":
		return OpIn, true
	case "not_in", "not-in", "nin":
		return OpNotIn, true
	case "between":
		return OpBetween, true
	case "exists":
		return OpExists, true
	case "not_exists", "not-exists":
		return OpNotExists, true
	}
	return "", false
}

// ConditionKind discriminates the condition variants
type ConditionKind string

const (
	// KindAll is a conjunction over child conditions
	KindAll ConditionKind = "all"

	// KindAny is a disjunction over child conditions
	KindAny ConditionKind = "any"

	// KindNot negates a single child condition
	KindNot ConditionKind = "not"

	// KindLeaf compares a fact path against a value
	KindLeaf ConditionKind = "leaf"
)

// Condition is a tagged-variant condition tree node.
// Exactly one variant is populated, selected by Kind.
type Condition struct {
	// Kind selects the variant
	Kind ConditionKind `json:"kind"`

	// Children holds the operands of All and Any nodes
	Children []*Condition `json:"children,omitempty"`

	// Child holds the operand of a Not node
	Child *Condition `json:"child,omitempty"`

	// Path is the dotted, optionally indexed fact path of a leaf
	// (e.g. "bundle.selected.price", "provider.available[0]")
	Path string `json:"path,omitempty"`

	// Operator is the leaf comparison operator
	Operator Operator `json:"operator,omitempty"`

	// Value is the leaf comparison operand
	Value interface{} `json:"value,omitempty"`
}

// All builds a conjunction node
func All(children ...*Condition) *Condition {
	return &Condition{Kind: KindAll, Children: children}
}

// Any builds a disjunction node
func Any(children ...*Condition) *Condition {
	return &Condition{Kind: KindAny, Children: children}
}

// Not builds a negation node
func Not(child *Condition) *Condition {
	return &Condition{Kind: KindNot, Child: child}
}

// Leaf builds a leaf comparison node
func Leaf(path string, op Operator, value interface{}) *Condition {
	return &Condition{Kind: KindLeaf, Path: path, Operator: op, Value: value}
}

// FactSource resolves named facts for condition evaluation.
// A fact is resolved at most once per run by the implementation.
type FactSource interface {
	// Fact returns the value of the named root fact.
	// A missing fact returns (nil, nil); errors are reserved for
	// failed resolution of facts that do exist.
	Fact(ctx context.Context, name string) (interface{}, error)
}

// Evaluate walks the condition tree against the fact source
func Evaluate(ctx context.Context, c *Condition, facts FactSource) (bool, error) {
	if c == nil {
		return false, errors.Internal("nil condition", nil)
	}

	switch c.Kind {
	case KindAll:
		for _, child := range c.Children {
			ok, err := Evaluate(ctx, child, facts)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil

	case KindAny:
		for _, child := range c.Children {
			ok, err := Evaluate(ctx, child, facts)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil

	case KindNot:
		ok, err := Evaluate(ctx, c.Child, facts)
		if err != nil {
			return false, err
		}
		return !ok, nil

	case KindLeaf:
		return evaluateLeaf(ctx, c, facts)
	}

	return false, errors.Newf(errors.TypeInternal, "unknown condition kind: %s", c.Kind)
}

func evaluateLeaf(ctx context.Context, c *Condition, facts FactSource) (bool, error) {
	value, err := ResolvePath(ctx, facts, c.Path)
	if err != nil {
		return false, err
	}

	switch c.Operator {
	case OpExists:
		return value != nil, nil
	case OpNotExists:
		return value == nil, nil
	}

	// All remaining operators treat a missing value as non-matching
	if value == nil {
		return false, nil
	}

	switch c.Operator {
	case OpEquals:
		return compareEqual(value, c.Value), nil
	case OpNotEquals:
		return !compareEqual(value, c.Value), nil
	case OpGreaterThan:
		cmp, ok := compareNumeric(value, c.Value)
		return ok && cmp > 0, nil
	case OpLessThan:
		cmp, ok := compareNumeric(value, c.Value)
		return ok && cmp < 0, nil
	case OpIn:
		return containedIn(value, c.Value), nil
	case OpNotIn:
		return !containedIn(value, c.Value), nil
	case OpBetween:
		return between(value, c.Value), nil
	}

	return false, errors.Newf(errors.TypeInternal, "unknown operator: %s", c.Operator)
}
