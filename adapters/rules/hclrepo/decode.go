// Package hclrepo - HCL block decoding
package hclrepo

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"

	"bundle-pricing/core/rule"
	"bundle-pricing/core/strategy"
	"bundle-pricing/internal/errors"
)

var ruleFileSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "rule", LabelNames: []string{"id"}},
		{Type: "strategy", LabelNames: []string{"id"}},
	},
}

var ruleBodySchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "name"},
		{Name: "category"},
		{Name: "priority"},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "all"},
		{Type: "any"},
		{Type: "not"},
		{Type: "when"},
		{Type: "event", LabelNames: []string{"type"}},
	},
}

var conditionBodySchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "all"},
		{Type: "any"},
		{Type: "not"},
		{Type: "when"},
	},
}

var leafBodySchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "path"},
		{Name: "operator"},
		{Name: "value"},
	},
}

var eventBodySchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "params"},
	},
}

var strategyBodySchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "name"},
		{Name: "version"},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "block", LabelNames: []string{"rule_id"}},
	},
}

var strategyBlockSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "priority"},
		{Name: "params"},
	},
}

func decodeRule(block *hcl.Block) (*rule.Rule, error) {
	r := &rule.Rule{ID: block.Labels[0]}

	content, _, diags := block.Body.PartialContent(ruleBodySchema)
	if diags.HasErrors() {
		return nil, errors.Validationf("rule %s: %s", r.ID, diags.Error())
	}

	if attr, ok := content.Attributes["name"]; ok {
		s, err := attrString(attr)
		if err != nil {
			return nil, err
		}
		r.Name = s
	}
	if r.Name == "" {
		r.Name = r.ID
	}
	if attr, ok := content.Attributes["category"]; ok {
		s, err := attrString(attr)
		if err != nil {
			return nil, err
		}
		r.Category = s
	}
	if attr, ok := content.Attributes["priority"]; ok {
		n, err := attrInt(attr)
		if err != nil {
			return nil, err
		}
		r.Priority = n
	}

	var conditions []*rule.Condition
	hasEvent := false
	for _, child := range content.Blocks {
		switch child.Type {
		case "all", "any", "not", "when":
			cond, err := decodeCondition(child)
			if err != nil {
				return nil, errors.Wrapf(errors.TypeValidation, err, "rule %s", r.ID)
			}
			conditions = append(conditions, cond)
		case "event":
			if err := decodeEvent(child, &r.Event); err != nil {
				return nil, errors.Wrapf(errors.TypeValidation, err, "rule %s", r.ID)
			}
			hasEvent = true
		}
	}
	if !hasEvent {
		return nil, errors.Validationf("rule %s: event is required", r.ID)
	}

	switch len(conditions) {
	case 0:
		return nil, errors.Validationf("rule %s: condition is required", r.ID)
	case 1:
		r.Condition = conditions[0]
	default:
		// Multiple top-level condition blocks form an implicit conjunction
		r.Condition = rule.All(conditions...)
	}

	return r, nil
}

func decodeCondition(block *hcl.Block) (*rule.Condition, error) {
	switch block.Type {
	case "when":
		return decodeLeaf(block)

	case "not":
		children, err := decodeChildren(block)
		if err != nil {
			return nil, err
		}
		if len(children) != 1 {
			return nil, errors.Validation("not condition requires exactly one child")
		}
		return rule.Not(children[0]), nil

	case "all":
		children, err := decodeChildren(block)
		if err != nil {
			return nil, err
		}
		return rule.All(children...), nil

	case "any":
		children, err := decodeChildren(block)
		if err != nil {
			return nil, err
		}
		return rule.Any(children...), nil
	}

	return nil, errors.Validationf("unknown condition block type: %s", block.Type)
}

func decodeChildren(block *hcl.Block) ([]*rule.Condition, error) {
	content, _, diags := block.Body.PartialContent(conditionBodySchema)
	if diags.HasErrors() {
		return nil, errors.Validation(diags.Error())
	}

	children := make([]*rule.Condition, 0, len(content.Blocks))
	for _, child := range content.Blocks {
		cond, err := decodeCondition(child)
		if err != nil {
			return nil, err
		}
		children = append(children, cond)
	}
	return children, nil
}

func decodeLeaf(block *hcl.Block) (*rule.Condition, error) {
	content, _, diags := block.Body.PartialContent(leafBodySchema)
	if diags.HasErrors() {
		return nil, errors.Validation(diags.Error())
	}

	attr, ok := content.Attributes["path"]
	if !ok {
		return nil, errors.Validation("when condition requires a path")
	}
	path, err := attrString(attr)
	if err != nil {
		return nil, err
	}

	opSpelling := "exists"
	if attr, ok := content.Attributes["operator"]; ok {
		opSpelling, err = attrString(attr)
		if err != nil {
			return nil, err
		}
	}
	op, ok := rule.ParseOperator(opSpelling)
	if !ok {
		return nil, errors.Validationf("unknown operator: %s", opSpelling)
	}

	var value interface{}
	if attr, ok := content.Attributes["value"]; ok {
		v, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, errors.Validation(diags.Error())
		}
		value = ctyToGo(v)
	}

	return rule.Leaf(path, op, value), nil
}

func decodeEvent(block *hcl.Block, out *rule.Event) error {
	out.RawType = block.Labels[0]
	out.Type = rule.NormalizeEventType(block.Labels[0])

	content, _, diags := block.Body.PartialContent(eventBodySchema)
	if diags.HasErrors() {
		return errors.Validation(diags.Error())
	}

	if attr, ok := content.Attributes["params"]; ok {
		v, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return errors.Validation(diags.Error())
		}
		params, ok := ctyToGo(v).(map[string]interface{})
		if !ok {
			return errors.Validation("event params must be a map")
		}
		out.Params = params
	}
	return nil
}

func decodeStrategy(block *hcl.Block) (*strategy.PricingStrategy, error) {
	s := &strategy.PricingStrategy{ID: block.Labels[0]}

	content, _, diags := block.Body.PartialContent(strategyBodySchema)
	if diags.HasErrors() {
		return nil, errors.Validationf("strategy %s: %s", s.ID, diags.Error())
	}

	if attr, ok := content.Attributes["name"]; ok {
		name, err := attrString(attr)
		if err != nil {
			return nil, err
		}
		s.Name = name
	}
	if attr, ok := content.Attributes["version"]; ok {
		version, err := attrString(attr)
		if err != nil {
			return nil, err
		}
		s.Version = version
	}

	for _, child := range content.Blocks {
		rb := strategy.RuleBlock{RuleID: child.Labels[0]}

		blockContent, _, diags := child.Body.PartialContent(strategyBlockSchema)
		if diags.HasErrors() {
			return nil, errors.Validationf("strategy %s: %s", s.ID, diags.Error())
		}

		if attr, ok := blockContent.Attributes["priority"]; ok {
			n, err := attrInt(attr)
			if err != nil {
				return nil, err
			}
			rb.Priority = &n
		}
		if attr, ok := blockContent.Attributes["params"]; ok {
			v, diags := attr.Expr.Value(nil)
			if diags.HasErrors() {
				return nil, errors.Validation(diags.Error())
			}
			params, ok := ctyToGo(v).(map[string]interface{})
			if !ok {
				return nil, errors.Validationf("strategy %s: block params must be a map", s.ID)
			}
			rb.ParamOverrides = params
		}

		s.Blocks = append(s.Blocks, rb)
	}

	return s, nil
}

func attrString(attr *hcl.Attribute) (string, error) {
	v, diags := attr.Expr.Value(nil)
	if diags.HasErrors() {
		return "", errors.Validation(diags.Error())
	}
	if v.Type() != cty.String {
		return "", errors.Validationf("%s must be a string", attr.Name)
	}
	return v.AsString(), nil
}

func attrInt(attr *hcl.Attribute) (int, error) {
	v, diags := attr.Expr.Value(nil)
	if diags.HasErrors() {
		return 0, errors.Validation(diags.Error())
	}
	if v.Type() != cty.Number {
		return 0, errors.Validationf("%s must be a number", attr.Name)
	}
	f, _ := v.AsBigFloat().Float64()
	return int(f), nil
}

// ctyToGo converts an evaluated cty value to plain Go values the
// rule engine understands: strings, float64, bool, []interface{}
// and map[string]interface{}
func ctyToGo(v cty.Value) interface{} {
	if v.IsNull() || !v.IsKnown() {
		return nil
	}

	t := v.Type()
	switch {
	case t == cty.String:
		return v.AsString()
	case t == cty.Number:
		f, _ := v.AsBigFloat().Float64()
		return f
	case t == cty.Bool:
		return v.True()
	case t.IsTupleType(), t.IsListType(), t.IsSetType():
		out := make([]interface{}, 0, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			out = append(out, ctyToGo(ev))
		}
		return out
	case t.IsObjectType(), t.IsMapType():
		out := make(map[string]interface{})
		for it := v.ElementIterator(); it.Next(); {
			kv, ev := it.Element()
			out[kv.AsString()] = ctyToGo(ev)
		}
		return out
	}
	return nil
}
