// Package types - bundle and fee matrix tests
package types

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestBundleHasGroup(t *testing.T) {
	grouped := Bundle{Groups: []string{"Standard Unlimited Essential", "Standard Unlimited Plus"}}
	if !grouped.HasGroup("Standard Unlimited Essential") {
		t.Error("declared group not matched")
	}
	if grouped.HasGroup("Standard Unlimited Max") {
		t.Error("undeclared group matched")
	}

	// A bundle with no declared groups matches any group.
	ungrouped := Bundle{}
	if !ungrouped.HasGroup("anything") {
		t.Error("ungrouped bundle must match any group")
	}
}

func TestBundleGeography(t *testing.T) {
	b := Bundle{Countries: []string{"AU", "NZ"}, Regions: []string{"Oceania"}}

	if !b.CoversCountry("AU") {
		t.Error("covered country not matched")
	}
	if b.CoversCountry("US") {
		t.Error("uncovered country matched")
	}
	if !b.CoversRegion("Oceania") {
		t.Error("covered region not matched")
	}
	if b.CoversRegion("Europe") {
		t.Error("uncovered region matched")
	}
	if !b.CoversCountry("") || !b.CoversRegion("") {
		t.Error("empty filter must match any bundle")
	}
}

func TestRequestValidate(t *testing.T) {
	valid := PricingRequest{Days: 5, Country: "AU"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}

	invalid := []PricingRequest{
		{Days: 0, Country: "AU"},
		{Days: -1, Country: "AU"},
		{Days: 5},
		{Days: 5, Country: "AU", Region: "Oceania"},
	}
	for _, req := range invalid {
		if err := req.Validate(); err == nil {
			t.Errorf("request %+v passed validation", req)
		}
	}
}

func TestFeeMatrixLookup(t *testing.T) {
	m := FeeMatrix{
		"card":   {PercentageFee: 2.9, FixedFee: 0.30},
		"PayPal": {PercentageFee: 3.4},
	}

	entry, ok := m.Lookup("card")
	if !ok || entry.PercentageFee != 2.9 {
		t.Errorf("Lookup(card) = %+v, %v", entry, ok)
	}
	if _, ok := m.Lookup("CARD"); !ok {
		t.Error("lookup must be case-insensitive")
	}
	if _, ok := m.Lookup("paypal"); !ok {
		t.Error("lookup must be case-insensitive against mixed-case keys")
	}
	if _, ok := m.Lookup("barter"); ok {
		t.Error("missing method matched")
	}
}

func TestAppliedRuleImpactSign(t *testing.T) {
	discount := AppliedRule{Impact: decimal.RequireFromString("-3.83")}
	if !discount.Impact.IsNegative() {
		t.Error("discount impact should be negative")
	}
}
