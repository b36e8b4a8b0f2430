// Package hclrepo - rule file loading tests
package hclrepo

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"bundle-pricing/core/rule"
	"bundle-pricing/internal/errors"
)

const rulesHCL = `rule "markup" {
  name     = "Standard Markup"
  category = "markup"
  priority = 20

  when {
    path     = "bundle.selected"
    operator = "exists"
  }

  event "apply-markup" {}
}

rule "unused" {
  name     = "Unused Days Discount"
  category = "discount"
  priority = 30

  all {
    when {
      path     = "facts.unusedDays"
      operator = "gt"
      value    = 0
    }
    when {
      path     = "bundle.selected"
      operator = "exists"
    }
  }

  event "apply-unused-days-discount" {
    params = {
      refund_factor = 0.5
    }
  }
}

rule "au-promo" {
  name     = "Promotional AU Price"
  priority = 50

  when {
    path     = "request.country"
    operator = "in"
    value    = ["AU", "NZ"]
  }
  when {
    path     = "request.days"
    operator = "lt"
    value    = 4
  }

  event "apply-fixed-price" {
    params = {
      price = 9.99
    }
  }
}

strategy "summer" {
  name    = "Summer Sale"
  version = "2"

  block "markup" {
    priority = 5
    params = {
      amount = 0.25
    }
  }

  block "unused" {}
}
`

func writeRules(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}
	return dir
}

func TestLoadDefaultRules(t *testing.T) {
	ctx := context.Background()
	dir := writeRules(t, map[string]string{"rules.hcl": rulesHCL})

	rules, err := NewRepository(dir).LoadDefaultRules(ctx)
	if err != nil {
		t.Fatalf("LoadDefaultRules returned error: %v", err)
	}
	if len(rules) != 3 {
		t.Fatalf("got %d rules, want 3", len(rules))
	}

	byID := make(map[string]rule.Rule)
	for _, r := range rules {
		byID[r.ID] = r
	}

	markup := byID["markup"]
	if markup.Name != "Standard Markup" || markup.Category != "markup" || markup.Priority != 20 {
		t.Errorf("markup decoded as %+v", markup)
	}
	if markup.Event.Type != rule.EventApplyMarkup {
		t.Errorf("markup event type = %v", markup.Event.Type)
	}
	if markup.Condition.Kind != rule.KindLeaf {
		t.Errorf("markup condition kind = %v, want leaf", markup.Condition.Kind)
	}

	unused := byID["unused"]
	if unused.Condition.Kind != rule.KindAll || len(unused.Condition.Children) != 2 {
		t.Errorf("unused condition decoded as %+v", unused.Condition)
	}
	if factor, ok := unused.Event.NumericParam("refund_factor"); !ok || factor != 0.5 {
		t.Errorf("refund_factor = %v, %v", factor, ok)
	}

	// Two sibling top-level conditions form an implicit conjunction.
	promo := byID["au-promo"]
	if promo.Condition.Kind != rule.KindAll || len(promo.Condition.Children) != 2 {
		t.Errorf("promo condition decoded as %+v", promo.Condition)
	}
	leaf := promo.Condition.Children[0]
	if leaf.Operator != rule.OpIn {
		t.Errorf("promo leaf operator = %v, want in", leaf.Operator)
	}
	list, ok := leaf.Value.([]interface{})
	if !ok || len(list) != 2 || list[0] != "AU" {
		t.Errorf("promo leaf value = %#v", leaf.Value)
	}
	if price, ok := promo.Event.NumericParam("price"); !ok || price != 9.99 {
		t.Errorf("promo price = %v, %v", price, ok)
	}
}

func TestLoadRulesMaterializesStrategy(t *testing.T) {
	ctx := context.Background()
	dir := writeRules(t, map[string]string{"rules.hcl": rulesHCL})

	rules, err := NewRepository(dir).LoadRules(ctx, "summer")
	if err != nil {
		t.Fatalf("LoadRules returned error: %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("got %d rules, want the 2 referenced by the strategy", len(rules))
	}

	markup := rules[0]
	if markup.ID != "markup" || markup.Priority != 5 {
		t.Errorf("markup block = %+v, want priority override 5", markup)
	}
	if amount, ok := markup.Event.NumericParam("amount"); !ok || amount != 0.25 {
		t.Errorf("amount override = %v, %v", amount, ok)
	}

	if rules[1].ID != "unused" || rules[1].Priority != 30 {
		t.Errorf("untouched block = %+v", rules[1])
	}
}

func TestLoadRulesUnknownStrategy(t *testing.T) {
	ctx := context.Background()
	dir := writeRules(t, map[string]string{"rules.hcl": rulesHCL})

	_, err := NewRepository(dir).LoadRules(ctx, "no-such-strategy")
	if err == nil {
		t.Fatal("expected error for an unknown strategy")
	}
	if !errors.IsType(err, errors.TypeNotFound) {
		t.Errorf("error type = %v, want not-found", err)
	}
}

func TestInvalidRuleExcludedNotFatal(t *testing.T) {
	ctx := context.Background()
	dir := writeRules(t, map[string]string{
		"good.hcl": `rule "markup" {
  when {
    path = "bundle.selected"
  }
  event "apply-markup" {}
}
`,
		"bad.hcl": `rule "broken" {
  when {
    path     = "request.days"
    operator = "definitely-not-an-operator"
    value    = 1
  }
  event "apply-markup" {}
}

rule "bad-params" {
  when {
    path = "bundle.selected"
  }
  event "apply-unused-days-discount" {
    params = {
      refund_factor = 2.0
    }
  }
}
`,
	})

	rules, err := NewRepository(dir).LoadDefaultRules(ctx)
	if err != nil {
		t.Fatalf("invalid rules must not fail the load: %v", err)
	}
	if len(rules) != 1 {
		t.Fatalf("got %d rules, want only the valid one", len(rules))
	}
	if rules[0].ID != "markup" {
		t.Errorf("surviving rule = %s, want markup", rules[0].ID)
	}
	t.Log("broken and bad-params rules excluded, markup survived")
}

func TestRuleWithoutEventExcluded(t *testing.T) {
	ctx := context.Background()
	dir := writeRules(t, map[string]string{
		"rules.hcl": `rule "no-event" {
  when {
    path = "bundle.selected"
  }
}

rule "markup" {
  when {
    path = "bundle.selected"
  }
  event "apply-markup" {}
}
`,
	})

	rules, err := NewRepository(dir).LoadDefaultRules(ctx)
	if err != nil {
		t.Fatalf("LoadDefaultRules returned error: %v", err)
	}
	if len(rules) != 1 {
		t.Fatalf("got %d rules, want only the one with an event", len(rules))
	}
	if rules[0].ID != "markup" {
		t.Errorf("surviving rule = %s, want markup", rules[0].ID)
	}
}

func TestUnparsableFileFailsLoad(t *testing.T) {
	ctx := context.Background()
	dir := writeRules(t, map[string]string{
		"rules.hcl":  rulesHCL,
		"broken.hcl": `rule "x" { when {`,
	})

	if _, err := NewRepository(dir).LoadDefaultRules(ctx); err == nil {
		t.Fatal("a file that fails to parse must fail the whole load")
	}
}

func TestMissingDirectory(t *testing.T) {
	ctx := context.Background()
	if _, err := NewRepository("/nonexistent/rules").LoadDefaultRules(ctx); err == nil {
		t.Fatal("expected error for a missing rule directory")
	}
}

func TestOperatorDefaultsToExists(t *testing.T) {
	ctx := context.Background()
	dir := writeRules(t, map[string]string{
		"rules.hcl": `rule "probe" {
  when {
    path = "bundle.previous"
  }
  event "set-base-price" {}
}
`,
	})

	rules, err := NewRepository(dir).LoadDefaultRules(ctx)
	if err != nil {
		t.Fatalf("LoadDefaultRules returned error: %v", err)
	}
	if len(rules) != 1 {
		t.Fatalf("got %d rules, want 1", len(rules))
	}
	if rules[0].Condition.Operator != rule.OpExists {
		t.Errorf("operator = %v, want the exists default", rules[0].Condition.Operator)
	}
}

func TestEventTypeNormalization(t *testing.T) {
	ctx := context.Background()
	dir := writeRules(t, map[string]string{
		"rules.hcl": `rule "shouty" {
  when {
    path = "bundle.selected"
  }
  event "APPLY_MARKUP" {}
}

rule "novel" {
  when {
    path = "bundle.selected"
  }
  event "apply-confetti" {}
}
`,
	})

	rules, err := NewRepository(dir).LoadDefaultRules(ctx)
	if err != nil {
		t.Fatalf("LoadDefaultRules returned error: %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("got %d rules, want 2", len(rules))
	}

	byID := make(map[string]rule.Rule)
	for _, r := range rules {
		byID[r.ID] = r
	}

	if byID["shouty"].Event.Type != rule.EventApplyMarkup {
		t.Errorf("SHOUTY spelling normalized to %v", byID["shouty"].Event.Type)
	}
	// An unrecognized type loads fine and prices as a no-op.
	novel := byID["novel"]
	if novel.Event.Type != rule.EventUnknown {
		t.Errorf("novel event type = %v, want unknown", novel.Event.Type)
	}
	if novel.Event.RawType != "apply-confetti" {
		t.Errorf("raw type = %q not preserved", novel.Event.RawType)
	}
}
