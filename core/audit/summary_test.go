// Package audit - summary derivation tests
package audit

import (
	"testing"

	"github.com/shopspring/decimal"

	"bundle-pricing/core/pipeline"
	"bundle-pricing/core/types"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func applied(id, name, category, impact string) types.AppliedRule {
	return types.AppliedRule{ID: id, Name: name, Category: category, Impact: dec(impact)}
}

func testResult() *pipeline.Result {
	return &pipeline.Result{
		BasePrice:  dec("26.80"),
		FinalPrice: dec("25.17"),
		Applied: []types.AppliedRule{
			applied("markup", "Standard Markup", "markup", "1.20"),
			applied("unused", "Unused Days Discount", "discount", "-3.83"),
			applied("fee", "Card Processing Fee", "fee", "1.00"),
		},
	}
}

func TestSummarizeAggregates(t *testing.T) {
	s := Summarize(testResult(), 2)

	if !s.Cost.Equal(dec("26.80")) {
		t.Errorf("cost = %s, want 26.80", s.Cost)
	}
	if !s.Markup.Equal(dec("1.20")) {
		t.Errorf("markup = %s, want 1.20", s.Markup)
	}
	if !s.DiscountValue.Equal(dec("3.83")) {
		t.Errorf("discount value = %s, want 3.83 (absolute)", s.DiscountValue)
	}
	if !s.ProcessingCost.Equal(dec("1.00")) {
		t.Errorf("processing cost = %s, want 1.00", s.ProcessingCost)
	}
	if !s.TotalCost.Equal(dec("28.00")) {
		t.Errorf("total cost = %s, want 28.00", s.TotalCost)
	}
	if !s.PriceAfterDiscount.Equal(dec("24.17")) {
		t.Errorf("price after discount = %s, want 24.17", s.PriceAfterDiscount)
	}
	if !s.RevenueAfterProcessing.Equal(dec("24.17")) {
		t.Errorf("revenue after processing = %s, want 24.17", s.RevenueAfterProcessing)
	}
	if !s.NetProfit.Equal(dec("-2.63")) {
		t.Errorf("net profit = %s, want -2.63", s.NetProfit)
	}
	if !s.DiscountPerDay.Equal(dec("1.915")) {
		t.Errorf("discount per day = %s, want 1.915", s.DiscountPerDay)
	}
}

func TestSummarizeRates(t *testing.T) {
	s := Summarize(testResult(), 2)

	// 3.83 / 28.00 * 100
	wantRate := dec("3.83").Div(dec("28.00")).Mul(dec("100"))
	if !s.DiscountRate.Equal(wantRate) {
		t.Errorf("discount rate = %s, want %s", s.DiscountRate, wantRate)
	}
	if !s.SavingsPercentage.Equal(wantRate.Round(1)) {
		t.Errorf("savings percentage = %s, want %s", s.SavingsPercentage, wantRate.Round(1))
	}

	// fee over pre-fee revenue: 1.00 / 24.17 * 100
	wantProcessing := dec("1.00").Div(dec("24.17")).Mul(dec("100"))
	if !s.ProcessingRate.Equal(wantProcessing) {
		t.Errorf("processing rate = %s, want %s", s.ProcessingRate, wantProcessing)
	}
	if !s.SavingsAmount.Equal(s.DiscountValue) {
		t.Errorf("savings amount = %s, want %s", s.SavingsAmount, s.DiscountValue)
	}
}

func TestSummarizeZeroGuards(t *testing.T) {
	result := &pipeline.Result{}
	s := Summarize(result, 0)

	if !s.DiscountRate.IsZero() || !s.ProcessingRate.IsZero() || !s.DiscountPerDay.IsZero() {
		t.Error("rates must stay zero when denominators are zero")
	}
	if len(s.CustomerDiscounts) != 0 {
		t.Errorf("got %d customer discounts for an empty run", len(s.CustomerDiscounts))
	}
}

func TestSummarizeDiscountByNameWithoutCategory(t *testing.T) {
	// Rules without an explicit category still count as discounts
	// when the name says so.
	result := &pipeline.Result{
		BasePrice:  dec("10.00"),
		FinalPrice: dec("9.00"),
		Applied: []types.AppliedRule{
			applied("promo", "Seasonal Discount", "", "-1.00"),
		},
	}
	s := Summarize(result, 0)
	if !s.DiscountValue.Equal(dec("1.00")) {
		t.Errorf("discount value = %s, want 1.00", s.DiscountValue)
	}
}

func TestCustomerDiscountLabels(t *testing.T) {
	result := &pipeline.Result{
		BasePrice:  dec("20.00"),
		FinalPrice: dec("14.00"),
		Applied: []types.AppliedRule{
			applied("m", "Standard Markup", "markup", "1.00"),
			applied("u", "Unused Days Discount", "discount", "-2.00"),
			applied("v", "Volume Pricing", "discount", "-1.00"),
			applied("l", "Loyalty Tier Two", "discount", "-1.00"),
			applied("p", "Promotional Launch Offer", "discount", "-1.00"),
			applied("x", "Mystery Reduction", "discount", "-2.00"),
		},
	}
	s := Summarize(result, 0)

	wantLabels := []string{"Multi-day Savings", "Volume Discount", "Loyalty Reward", "Special Promotion", "Discount"}
	if len(s.CustomerDiscounts) != len(wantLabels) {
		t.Fatalf("got %d customer discounts, want %d", len(s.CustomerDiscounts), len(wantLabels))
	}
	for i, want := range wantLabels {
		if s.CustomerDiscounts[i].Label != want {
			t.Errorf("discount %d label = %q, want %q", i, s.CustomerDiscounts[i].Label, want)
		}
		if s.CustomerDiscounts[i].Reason == "" {
			t.Errorf("discount %d has no reason", i)
		}
	}

	// 2.00 of 20.00 base is 10%
	if !s.CustomerDiscounts[0].Percentage.Equal(dec("10")) {
		t.Errorf("first discount percentage = %s, want 10", s.CustomerDiscounts[0].Percentage)
	}
	if !s.CustomerDiscounts[0].Amount.Equal(dec("2.00")) {
		t.Errorf("first discount amount = %s, want 2.00", s.CustomerDiscounts[0].Amount)
	}
}

func TestCustomerDiscountsSkipPositiveImpacts(t *testing.T) {
	s := Summarize(testResult(), 2)

	if len(s.CustomerDiscounts) != 1 {
		t.Fatalf("got %d customer discounts, want 1", len(s.CustomerDiscounts))
	}
	if s.CustomerDiscounts[0].Label != "Multi-day Savings" {
		t.Errorf("label = %q, want Multi-day Savings", s.CustomerDiscounts[0].Label)
	}
}
