// Package facts - fact resolver tests
package facts

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"bundle-pricing/core/rule"
	"bundle-pricing/core/types"
)

// countingCatalog tracks how often each read happens so memoization
// can be asserted
type countingCatalog struct {
	bundles   []types.Bundle
	durations []int
	reads     int
}

func (c *countingCatalog) AvailableBundles(_ context.Context, _, _, _ string) ([]types.Bundle, error) {
	c.reads++
	return c.bundles, nil
}

func (c *countingCatalog) DurationCatalog(_ context.Context) ([]int, error) {
	return c.durations, nil
}

func testResolver(req types.PricingRequest) (*Resolver, *countingCatalog) {
	cat := &countingCatalog{bundles: testCatalogBundles(), durations: testDurations}
	return NewResolver(req, cat, testMatrix(), []string{"AIRLINK"}), cat
}

func TestResolverMemoizesCatalogReads(t *testing.T) {
	ctx := context.Background()
	r, cat := testResolver(types.PricingRequest{Days: 5, Country: "AU"})

	for i := 0; i < 3; i++ {
		if _, err := r.SelectedBundle(ctx); err != nil {
			t.Fatalf("SelectedBundle returned error: %v", err)
		}
		if _, err := r.AvailableBundles(ctx); err != nil {
			t.Fatalf("AvailableBundles returned error: %v", err)
		}
	}

	if cat.reads != 1 {
		t.Errorf("catalog read %d times, want 1 (memoized)", cat.reads)
	}
}

func TestResolverFactNames(t *testing.T) {
	ctx := context.Background()
	r, _ := testResolver(types.PricingRequest{Days: 5, Country: "AU", PaymentMethod: "card"})

	reqFact, err := r.Fact(ctx, "request")
	if err != nil {
		t.Fatalf("Fact(request) returned error: %v", err)
	}
	reqMap, ok := reqFact.(map[string]interface{})
	if !ok {
		t.Fatalf("request fact is %T, want map", reqFact)
	}
	if reqMap["paymentMethod"] != "card" {
		t.Errorf("request.paymentMethod = %v, want card", reqMap["paymentMethod"])
	}

	bundleFact, err := r.Fact(ctx, "bundle")
	if err != nil {
		t.Fatalf("Fact(bundle) returned error: %v", err)
	}
	bundleMap, ok := bundleFact.(map[string]interface{})
	if !ok {
		t.Fatalf("bundle fact is %T, want map", bundleFact)
	}
	selected, ok := bundleMap["selected"].(map[string]interface{})
	if !ok {
		t.Fatal("bundle.selected missing from bundle fact")
	}
	if selected["validity"] != 7 {
		t.Errorf("bundle.selected.validity = %v, want 7", selected["validity"])
	}

	unknown, err := r.Fact(ctx, "no-such-root")
	if err != nil {
		t.Fatalf("unknown fact must not error, got %v", err)
	}
	if unknown != nil {
		t.Errorf("unknown fact = %v, want nil", unknown)
	}
}

func TestResolverUnusedDaysAndMarkup(t *testing.T) {
	ctx := context.Background()
	r, _ := testResolver(types.PricingRequest{Days: 5, Country: "AU", Group: "Standard Unlimited Essential"})

	unused, err := r.ResolveUnusedDays(ctx)
	if err != nil {
		t.Fatalf("ResolveUnusedDays returned error: %v", err)
	}
	if unused != 2 {
		t.Errorf("unused days = %d, want 2", unused)
	}

	markup, err := r.ResolveMarkup(ctx)
	if err != nil {
		t.Fatalf("ResolveMarkup returned error: %v", err)
	}
	if markup.String() != "1.2" {
		t.Errorf("markup = %s, want 1.2", markup)
	}
}

func TestResolverProviderSelection(t *testing.T) {
	ctx := context.Background()
	bundles := []types.Bundle{
		testBundle("sc-7", "SATCOM", "", 7, "25.00"),
		testBundle("al-7", "AIRLINK", "", 7, "26.80"),
		testBundle("ob-7", "ORBIT", "", 7, "24.00"),
	}
	cat := &countingCatalog{bundles: bundles, durations: testDurations}
	r := NewResolver(types.PricingRequest{Days: 7, Country: "AU"}, cat, nil, []string{"AIRLINK", "ORBIT"})

	sel, err := r.ResolveProviderSelection(ctx)
	if err != nil {
		t.Fatalf("ResolveProviderSelection returned error: %v", err)
	}
	if sel.Preferred != "AIRLINK" {
		t.Errorf("preferred = %s, want AIRLINK", sel.Preferred)
	}
	if sel.Fallback != "ORBIT" {
		t.Errorf("fallback = %s, want ORBIT", sel.Fallback)
	}
	want := []string{"AIRLINK", "ORBIT", "SATCOM"}
	if len(sel.Available) != len(want) {
		t.Fatalf("available = %v, want %v", sel.Available, want)
	}
	for i, p := range want {
		if sel.Available[i] != p {
			t.Errorf("available[%d] = %s, want %s", i, sel.Available[i], p)
		}
	}
}

func TestResolverPreviousBundleFactAbsent(t *testing.T) {
	// The shortest duration has no previous bundle; the fact must be
	// a real nil so exists/not-exists conditions read it as absent.
	ctx := context.Background()
	cat := &countingCatalog{
		bundles:   []types.Bundle{testBundle("al-1", "AIRLINK", "", 1, "3.50")},
		durations: []int{1},
	}
	r := NewResolver(types.PricingRequest{Days: 1, Country: "AU"}, cat, nil, nil)

	absent, err := rule.Evaluate(ctx, rule.Leaf("bundle.previous", rule.OpNotExists, nil), r)
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if !absent {
		t.Error("bundle.previous not-exists = false, want true when no previous bundle exists")
	}

	present, err := rule.Evaluate(ctx, rule.Leaf("bundle.previous", rule.OpExists, nil), r)
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if present {
		t.Error("bundle.previous exists = true, want false when no previous bundle exists")
	}

	selected, err := rule.Evaluate(ctx, rule.Leaf("bundle.selected", rule.OpExists, nil), r)
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if !selected {
		t.Error("bundle.selected exists = false, want true")
	}
}

func TestResolverMarkupFlatFallback(t *testing.T) {
	// 15 days has no matrix entry; the markup fact must carry the
	// flat fallback, the same value the pipeline applies.
	ctx := context.Background()
	cat := &countingCatalog{bundles: testCatalogBundles(), durations: testDurations}
	r := NewResolver(types.PricingRequest{Days: 15, Country: "AU"}, cat, testMatrix(), nil).
		WithFlatMarkup(decimal.RequireFromString("0.40"))

	markup, err := r.ResolveMarkup(ctx)
	if err != nil {
		t.Fatalf("ResolveMarkup returned error: %v", err)
	}
	if !markup.Equal(decimal.RequireFromString("0.40")) {
		t.Errorf("markup = %s, want the 0.40 flat fallback", markup)
	}

	fact, err := r.Fact(ctx, "markup")
	if err != nil {
		t.Fatalf("Fact(markup) returned error: %v", err)
	}
	factValue, ok := fact.(decimal.Decimal)
	if !ok {
		t.Fatalf("markup fact is %T, want decimal", fact)
	}
	if !factValue.Equal(markup) {
		t.Errorf("markup fact %s disagrees with resolved markup %s", factValue, markup)
	}
}

func TestResolverSnapshotHidesInternalKeys(t *testing.T) {
	ctx := context.Background()
	r, _ := testResolver(types.PricingRequest{Days: 5, Country: "AU"})

	if _, err := r.Fact(ctx, "request"); err != nil {
		t.Fatalf("Fact returned error: %v", err)
	}
	if _, err := r.SelectedBundle(ctx); err != nil {
		t.Fatalf("SelectedBundle returned error: %v", err)
	}

	// An empty fact name must not break the snapshot walk.
	if _, err := r.Fact(ctx, ""); err != nil {
		t.Fatalf("Fact(\"\") returned error: %v", err)
	}

	snap := r.Snapshot()
	if _, ok := snap["request"]; !ok {
		t.Error("snapshot missing the request fact")
	}
	for name := range snap {
		if len(name) > 0 && name[0] == '_' {
			t.Errorf("internal key %q leaked into the snapshot", name)
		}
	}
}
