// Package audit aggregates applied-rule deltas into summary metrics
// and customer-facing discount explanations.
package audit

import (
	"strings"

	"github.com/shopspring/decimal"

	"bundle-pricing/core/pipeline"
	"bundle-pricing/core/types"
)

var hundred = decimal.NewFromInt(100)

// Summary holds the aggregate figures derived from one pipeline run
type Summary struct {
	// Cost is the base bundle cost
	Cost decimal.Decimal

	// Markup is the total markup applied
	Markup decimal.Decimal

	// DiscountValue is the absolute sum of discount impacts
	DiscountValue decimal.Decimal

	// ProcessingCost is the total processing fee applied
	ProcessingCost decimal.Decimal

	// DiscountPerDay is discount per unused day (zero when none)
	DiscountPerDay decimal.Decimal

	// DiscountRate is discount over cost plus markup, as a percentage
	DiscountRate decimal.Decimal

	// ProcessingRate is fee over pre-fee revenue, as a percentage
	ProcessingRate decimal.Decimal

	// TotalCost is cost plus markup
	TotalCost decimal.Decimal

	// PriceAfterDiscount is total cost minus discounts
	PriceAfterDiscount decimal.Decimal

	// FinalRevenue is the final price charged
	FinalRevenue decimal.Decimal

	// RevenueAfterProcessing is final revenue minus processing cost
	RevenueAfterProcessing decimal.Decimal

	// NetProfit is revenue after processing minus cost
	NetProfit decimal.Decimal

	// SavingsAmount is the total customer savings
	SavingsAmount decimal.Decimal

	// SavingsPercentage is savings over the pre-discount price
	SavingsPercentage decimal.Decimal

	// CustomerDiscounts explains each discount in customer terms
	CustomerDiscounts []types.CustomerDiscount
}

// Summarize derives the aggregate metrics from a pipeline result
func Summarize(result *pipeline.Result, unusedDays int) *Summary {
	s := &Summary{
		Cost:         result.BasePrice,
		FinalRevenue: result.FinalPrice,
	}

	for _, applied := range result.Applied {
		switch {
		case applied.Category == "markup":
			s.Markup = s.Markup.Add(applied.Impact)
		case applied.Category == "fee":
			s.ProcessingCost = s.ProcessingCost.Add(applied.Impact)
		case isDiscount(applied):
			s.DiscountValue = s.DiscountValue.Add(applied.Impact.Abs())
		}
	}

	s.TotalCost = s.Cost.Add(s.Markup)
	s.PriceAfterDiscount = s.TotalCost.Sub(s.DiscountValue)
	s.RevenueAfterProcessing = s.FinalRevenue.Sub(s.ProcessingCost)
	s.NetProfit = s.RevenueAfterProcessing.Sub(s.Cost)
	s.SavingsAmount = s.DiscountValue

	if unusedDays > 0 && s.DiscountValue.IsPositive() {
		s.DiscountPerDay = s.DiscountValue.Div(decimal.NewFromInt(int64(unusedDays)))
	}
	if s.TotalCost.IsPositive() {
		s.DiscountRate = s.DiscountValue.Div(s.TotalCost).Mul(hundred)
		s.SavingsPercentage = s.DiscountValue.Div(s.TotalCost).Mul(hundred).Round(1)
	}
	preFee := s.FinalRevenue.Sub(s.ProcessingCost)
	if preFee.IsPositive() {
		s.ProcessingRate = s.ProcessingCost.Div(preFee).Mul(hundred)
	}

	s.CustomerDiscounts = customerDiscounts(result, s.Cost)
	return s
}

// discountLabel maps an internal rule name to customer-facing copy.
// Heuristics are ordered; the first substring match wins.
var discountLabels = []struct {
	contains string
	label    string
	reason   string
}{
	{"unused days", "Multi-day Savings", "You save on days you will not use"},
	{"volume", "Volume Discount", "Discount for booking a longer period"},
	{"loyalty", "Loyalty Reward", "Thank you for purchasing with us again"},
	{"promotional", "Special Promotion", "A limited-time promotional price"},
}

// customerDiscounts produces one explanation per negative-impact
// applied rule, with the amount as a share of the base price rounded
// to one decimal
func customerDiscounts(result *pipeline.Result, basePrice decimal.Decimal) []types.CustomerDiscount {
	discounts := make([]types.CustomerDiscount, 0)
	for _, applied := range result.Applied {
		if !applied.Impact.IsNegative() {
			continue
		}

		label, reason := "Discount", "A discount was applied to your order"
		lower := strings.ToLower(applied.Name)
		for _, h := range discountLabels {
			if strings.Contains(lower, h.contains) {
				label, reason = h.label, h.reason
				break
			}
		}

		amount := applied.Impact.Abs()
		percentage := decimal.Zero
		if basePrice.IsPositive() {
			percentage = amount.Div(basePrice).Mul(hundred).Round(1)
		}

		discounts = append(discounts, types.CustomerDiscount{
			Label:      label,
			Reason:     reason,
			Amount:     amount,
			Percentage: percentage,
		})
	}
	return discounts
}

func isDiscount(applied types.AppliedRule) bool {
	if applied.Category == "discount" {
		return true
	}
	return strings.Contains(strings.ToLower(applied.Name), "discount")
}
