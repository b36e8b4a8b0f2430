// Package strategy - materialization tests
package strategy

import (
	"testing"

	"bundle-pricing/core/rule"
)

func baseRules() []rule.Rule {
	return []rule.Rule{
		{
			ID:        "markup",
			Name:      "Standard Markup",
			Priority:  10,
			Condition: rule.Leaf("bundle.selected", rule.OpExists, nil),
			Event: rule.Event{
				Type:   rule.EventApplyMarkup,
				Params: map[string]interface{}{"amount": 1.0, "source": "base"},
			},
		},
		{
			ID:        "discount",
			Name:      "Unused Days Discount",
			Priority:  20,
			Condition: rule.Leaf("facts.unusedDays", rule.OpGreaterThan, 0),
			Event:     rule.Event{Type: rule.EventApplyUnusedDaysDiscount},
		},
		{
			ID:        "round",
			Name:      "Whole Dollar Rounding",
			Priority:  90,
			Condition: rule.Leaf("bundle.selected", rule.OpExists, nil),
			Event:     rule.Event{Type: rule.EventApplyPsychologicalRounding},
		},
	}
}

func intPtr(v int) *int { return &v }

func TestMaterializeOverrides(t *testing.T) {
	strat := &PricingStrategy{
		ID: "summer",
		Blocks: []RuleBlock{
			{RuleID: "markup", Priority: intPtr(5), ParamOverrides: map[string]interface{}{"amount": 2.5}},
			{RuleID: "round"},
		},
	}

	out := Materialize(baseRules(), strat)
	if len(out) != 2 {
		t.Fatalf("materialized %d rules, want 2", len(out))
	}

	markup := out[0]
	if markup.Priority != 5 {
		t.Errorf("priority = %d, want the 5 override", markup.Priority)
	}
	if markup.Event.Params["amount"] != 2.5 {
		t.Errorf("amount = %v, want the 2.5 override", markup.Event.Params["amount"])
	}
	if markup.Event.Params["source"] != "base" {
		t.Errorf("source = %v, unoverridden params must survive the merge", markup.Event.Params["source"])
	}

	if out[1].ID != "round" || out[1].Priority != 90 {
		t.Errorf("untouched block changed: %+v", out[1])
	}
}

func TestMaterializeExcludesUnreferencedRules(t *testing.T) {
	strat := &PricingStrategy{
		ID:     "minimal",
		Blocks: []RuleBlock{{RuleID: "markup"}},
	}

	out := Materialize(baseRules(), strat)
	if len(out) != 1 {
		t.Fatalf("materialized %d rules, want 1", len(out))
	}
	if out[0].ID != "markup" {
		t.Errorf("kept rule = %s, want markup", out[0].ID)
	}
}

func TestMaterializeSkipsUnknownReferences(t *testing.T) {
	strat := &PricingStrategy{
		ID: "dangling",
		Blocks: []RuleBlock{
			{RuleID: "no-such-rule"},
			{RuleID: "discount"},
		},
	}

	out := Materialize(baseRules(), strat)
	if len(out) != 1 {
		t.Fatalf("materialized %d rules, want 1", len(out))
	}
	if out[0].ID != "discount" {
		t.Errorf("kept rule = %s, want discount", out[0].ID)
	}
}

func TestMaterializeDoesNotMutateBase(t *testing.T) {
	base := baseRules()
	strat := &PricingStrategy{
		ID: "summer",
		Blocks: []RuleBlock{
			{RuleID: "markup", Priority: intPtr(1), ParamOverrides: map[string]interface{}{"amount": 9.9}},
		},
	}

	Materialize(base, strat)

	if base[0].Priority != 10 {
		t.Errorf("base priority mutated to %d", base[0].Priority)
	}
	if base[0].Event.Params["amount"] != 1.0 {
		t.Errorf("base params mutated: %v", base[0].Event.Params)
	}
}
