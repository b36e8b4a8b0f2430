// Package types - Pricing output types
package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// AppliedRule records one price-changing event.
// Zero-impact events are never recorded here.
type AppliedRule struct {
	// ID is the rule identifier
	ID string `json:"id"`

	// Name is the rule name
	Name string `json:"name"`

	// Category classifies the rule (e.g. "markup", "discount", "fee")
	Category string `json:"category"`

	// Impact is the signed price delta the event produced
	Impact decimal.Decimal `json:"impact"`
}

// PricingStep records one pipeline step, including zero-impact ones.
// Steps appear in application order, preceded by the synthetic
// bundle-selection bootstrap step.
type PricingStep struct {
	// Order is the 1-based position in the step sequence
	Order int `json:"order"`

	// Name is the step description
	Name string `json:"name"`

	// PriceBefore is the running price before the step
	PriceBefore decimal.Decimal `json:"price_before"`

	// PriceAfter is the running price after the step
	PriceAfter decimal.Decimal `json:"price_after"`

	// Impact is PriceAfter minus PriceBefore
	Impact decimal.Decimal `json:"impact"`

	// RuleID is the rule that fired the event (empty for bootstrap)
	RuleID string `json:"rule_id,omitempty"`

	// Metadata carries step-specific detail
	Metadata map[string]interface{} `json:"metadata,omitempty"`

	// Timestamp is when the step was applied
	Timestamp time.Time `json:"timestamp"`
}

// CustomerDiscount is a customer-facing explanation of one discount
type CustomerDiscount struct {
	// Label is the customer-facing discount name
	Label string `json:"label"`

	// Reason is the explanatory copy
	Reason string `json:"reason"`

	// Amount is the absolute discount value
	Amount decimal.Decimal `json:"amount"`

	// Percentage is the discount as a share of the base price,
	// rounded to one decimal
	Percentage decimal.Decimal `json:"percentage"`
}

// DebugInfo carries diagnostics retained only when requested
type DebugInfo struct {
	// Warnings lists soft warnings absorbed during the run
	Warnings []string `json:"warnings,omitempty"`

	// Facts is a snapshot of resolved fact values
	Facts map[string]interface{} `json:"facts,omitempty"`

	// RuleDiagnostics lists per-rule evaluation outcomes
	RuleDiagnostics []RuleDiagnostic `json:"rule_diagnostics,omitempty"`
}

// RuleDiagnostic records one rule evaluation outcome
type RuleDiagnostic struct {
	// RuleID is the evaluated rule
	RuleID string `json:"rule_id"`

	// Name is the rule name
	Name string `json:"name"`

	// Matched indicates the condition tree evaluated true
	Matched bool `json:"matched"`

	// Error is a non-fatal evaluation error, if any
	Error string `json:"error,omitempty"`
}

// PricingBreakdown is the full output of one pricing run
type PricingBreakdown struct {
	// Cost is the base bundle cost the computation started from
	Cost decimal.Decimal `json:"cost"`

	// Markup is the total markup applied
	Markup decimal.Decimal `json:"markup"`

	// Currency is the breakdown currency
	Currency Currency `json:"currency"`

	// UnusedDays is selected validity minus requested days
	UnusedDays int `json:"unused_days"`

	// ProcessingCost is the total processing fee applied
	ProcessingCost decimal.Decimal `json:"processing_cost"`

	// DiscountPerDay is discount value per unused day (zero when none)
	DiscountPerDay decimal.Decimal `json:"discount_per_day"`

	// DiscountValue is the absolute sum of discount impacts
	DiscountValue decimal.Decimal `json:"discount_value"`

	// PriceAfterDiscount is cost plus markup minus discounts
	PriceAfterDiscount decimal.Decimal `json:"price_after_discount"`

	// DiscountRate is discount / (cost + markup) * 100
	DiscountRate decimal.Decimal `json:"discount_rate"`

	// TotalCost is cost plus markup
	TotalCost decimal.Decimal `json:"total_cost"`

	// ProcessingRate is fee / (final - fee) * 100
	ProcessingRate decimal.Decimal `json:"processing_rate"`

	// FinalRevenue is the final price charged
	FinalRevenue decimal.Decimal `json:"final_revenue"`

	// RevenueAfterProcessing is final revenue minus processing cost
	RevenueAfterProcessing decimal.Decimal `json:"revenue_after_processing"`

	// NetProfit is revenue after processing minus base cost
	NetProfit decimal.Decimal `json:"net_profit"`

	// FinalPrice is the price presented to the customer
	FinalPrice decimal.Decimal `json:"final_price"`

	// AppliedRules lists every price-changing event in application order
	AppliedRules []AppliedRule `json:"applied_rules"`

	// PricingSteps lists every pipeline step in application order
	PricingSteps []PricingStep `json:"pricing_steps"`

	// CustomerDiscounts explains each discount in customer terms
	CustomerDiscounts []CustomerDiscount `json:"customer_discounts"`

	// SavingsAmount is the total customer savings
	SavingsAmount decimal.Decimal `json:"savings_amount"`

	// SavingsPercentage is savings as a share of the pre-discount price
	SavingsPercentage decimal.Decimal `json:"savings_percentage"`

	// CalculationTimeMs is the wall-clock computation time
	CalculationTimeMs int64 `json:"calculation_time_ms"`

	// RulesEvaluated is the number of rules evaluated
	RulesEvaluated int `json:"rules_evaluated"`

	// DebugInfo is populated only when the request asked for it
	DebugInfo *DebugInfo `json:"debug_info,omitempty"`
}
