// Package pipeline - per-event price transforms
package pipeline

import (
	"fmt"

	"github.com/shopspring/decimal"

	"bundle-pricing/core/rule"
	"bundle-pricing/core/types"
)

// Context carries the run-local inputs every transform may read.
// Transforms are pure: they never mutate the context.
type Context struct {
	// Request is the priced request
	Request types.PricingRequest

	// Selected is the selected bundle (never nil on a successful run)
	Selected *types.Bundle

	// Previous is the next-shorter bundle, may be nil
	Previous *types.Bundle

	// UnusedDays is selected validity minus requested days
	UnusedDays int

	// Markup is the margin resolved from the markup matrix, or the
	// flat configured fallback when the matrix had no entry
	Markup decimal.Decimal

	// Fees is the payment method fee matrix
	Fees types.FeeMatrix

	// MinProfit is the configured minimum profit floor
	MinProfit decimal.Decimal

	// UnusedDaysRefundFactor is the pro-rated refund share (0.5 = half)
	UnusedDaysRefundFactor decimal.Decimal

	// RegionRoundingOffset is the fractional offset for region rounding
	RegionRoundingOffset decimal.Decimal
}

// transformOutcome is the result of applying one event
type transformOutcome struct {
	price       decimal.Decimal
	description string
	metadata    map[string]interface{}
	warning     string
}

// applyEvent dispatches one fired event to its transform.
// Every transform is a pure function of (price, params, context).
func applyEvent(ctx *Context, ev rule.FiredEvent, price decimal.Decimal) transformOutcome {
	switch ev.Event.Type {
	case rule.EventSetBasePrice:
		return setBasePrice(ctx, price)
	case rule.EventApplyMarkup:
		return applyMarkup(ctx, ev, price)
	case rule.EventApplyUnusedDaysDiscount:
		return applyUnusedDaysDiscount(ctx, ev, price)
	case rule.EventApplyProcessingFee:
		return applyProcessingFee(ctx, price)
	case rule.EventApplyProfitConstraint:
		return applyProfitConstraint(ctx, ev, price)
	case rule.EventApplyPsychologicalRounding:
		return applyPsychologicalRounding(ev, price)
	case rule.EventApplyRegionRounding:
		return applyRegionRounding(ctx, ev, price)
	case rule.EventApplyFixedPrice:
		return applyFixedPrice(ev, price)
	}

	return transformOutcome{
		price:       price,
		description: fmt.Sprintf("Unknown event type %q ignored", ev.Event.RawType),
		warning:     fmt.Sprintf("rule %s: unknown event type %q", ev.RuleID, ev.Event.RawType),
	}
}

// BasePrice is the bootstrap price: selected bundle price, else
// previous bundle price, else zero
func BasePrice(selected, previous *types.Bundle) decimal.Decimal {
	if selected != nil {
		return selected.Price
	}
	if previous != nil {
		return previous.Price
	}
	return decimal.Zero
}

func setBasePrice(ctx *Context, _ decimal.Decimal) transformOutcome {
	base := BasePrice(ctx.Selected, ctx.Previous)
	return transformOutcome{
		price:       base,
		description: "Set base price from selected bundle",
		metadata: map[string]interface{}{
			"base_price": base.String(),
		},
	}
}

func applyMarkup(ctx *Context, ev rule.FiredEvent, price decimal.Decimal) transformOutcome {
	amount := ctx.Markup
	source := "matrix"
	if v, ok := ev.Event.NumericParam("amount"); ok {
		amount = decimal.NewFromFloat(v)
		source = "rule"
	}

	return transformOutcome{
		price:       price.Add(amount),
		description: fmt.Sprintf("Applied markup of %s", amount.String()),
		metadata: map[string]interface{}{
			"amount": amount.String(),
			"source": source,
		},
	}
}

func applyUnusedDaysDiscount(ctx *Context, ev rule.FiredEvent, price decimal.Decimal) transformOutcome {
	if ctx.UnusedDays <= 0 || ctx.Selected == nil || ctx.Selected.ValidityDays <= 0 {
		return transformOutcome{
			price:       price,
			description: "No unused days, discount skipped",
		}
	}

	factor := ctx.UnusedDaysRefundFactor
	if v, ok := ev.Event.NumericParam("refund_factor"); ok {
		factor = decimal.NewFromFloat(v)
	}

	perDay := ctx.Selected.Price.Div(decimal.NewFromInt(int64(ctx.Selected.ValidityDays)))
	discount := perDay.Mul(decimal.NewFromInt(int64(ctx.UnusedDays))).Mul(factor)

	return transformOutcome{
		price:       price.Sub(discount),
		description: fmt.Sprintf("Discounted %s for %d unused days", discount.String(), ctx.UnusedDays),
		metadata: map[string]interface{}{
			"unused_days":   ctx.UnusedDays,
			"per_day":       perDay.String(),
			"refund_factor": factor.String(),
		},
	}
}

func applyProcessingFee(ctx *Context, price decimal.Decimal) transformOutcome {
	entry, ok := ctx.Fees.Lookup(ctx.Request.PaymentMethod)
	if !ok {
		return transformOutcome{
			price:       price,
			description: fmt.Sprintf("No fee entry for payment method %q, fee skipped", ctx.Request.PaymentMethod),
			warning:     fmt.Sprintf("no fee entry for payment method %q", ctx.Request.PaymentMethod),
		}
	}

	percentage := decimal.NewFromFloat(entry.PercentageFee)
	fixed := decimal.NewFromFloat(entry.FixedFee)
	fee := price.Mul(percentage).Div(decimal.NewFromInt(100)).Add(fixed)

	return transformOutcome{
		price:       price.Add(fee),
		description: fmt.Sprintf("Applied %s processing fee of %s", ctx.Request.PaymentMethod, fee.String()),
		metadata: map[string]interface{}{
			"percentage_fee": entry.PercentageFee,
			"fixed_fee":      entry.FixedFee,
			"fee":            fee.String(),
		},
	}
}

func applyProfitConstraint(ctx *Context, ev rule.FiredEvent, price decimal.Decimal) transformOutcome {
	minProfit := ctx.MinProfit
	if v, ok := ev.Event.NumericParam("min_profit"); ok {
		minProfit = decimal.NewFromFloat(v)
	}

	cost := BasePrice(ctx.Selected, ctx.Previous)
	if price.Sub(cost).GreaterThanOrEqual(minProfit) {
		return transformOutcome{
			price:       price,
			description: "Profit constraint satisfied",
		}
	}

	floor := cost.Add(minProfit)
	return transformOutcome{
		price:       floor,
		description: fmt.Sprintf("Raised price to %s to preserve minimum profit", floor.String()),
		metadata: map[string]interface{}{
			"cost":       cost.String(),
			"min_profit": minProfit.String(),
		},
	}
}

func applyPsychologicalRounding(ev rule.FiredEvent, price decimal.Decimal) transformOutcome {
	strategy := "nearest-whole"
	if s, ok := ev.Event.StringParam("strategy"); ok {
		strategy = s
	}

	if strategy != "nearest-whole" {
		return transformOutcome{
			price:       price,
			description: fmt.Sprintf("Unsupported rounding strategy %q, skipped", strategy),
			warning:     fmt.Sprintf("unsupported rounding strategy %q", strategy),
		}
	}

	rounded := price.Round(0)
	return transformOutcome{
		price:       rounded,
		description: fmt.Sprintf("Rounded to nearest whole: %s", rounded.String()),
		metadata: map[string]interface{}{
			"strategy": strategy,
		},
	}
}

func applyRegionRounding(ctx *Context, ev rule.FiredEvent, price decimal.Decimal) transformOutcome {
	offset := ctx.RegionRoundingOffset
	if v, ok := ev.Event.NumericParam("offset"); ok {
		offset = decimal.NewFromFloat(v)
	}

	rounded := price.Floor().Add(offset)
	return transformOutcome{
		price:       rounded,
		description: fmt.Sprintf("Region rounding to %s", rounded.String()),
		metadata: map[string]interface{}{
			"offset": offset.String(),
		},
	}
}

func applyFixedPrice(ev rule.FiredEvent, price decimal.Decimal) transformOutcome {
	v, ok := ev.Event.NumericParam("price")
	if !ok {
		// validation rejects this at load time; guard anyway
		return transformOutcome{
			price:       price,
			description: "Fixed price event missing price, skipped",
			warning:     fmt.Sprintf("rule %s: fixed price event missing price", ev.RuleID),
		}
	}

	fixed := decimal.NewFromFloat(v)
	return transformOutcome{
		price:       fixed,
		description: fmt.Sprintf("Fixed price override: %s", fixed.String()),
		metadata: map[string]interface{}{
			"price": fixed.String(),
		},
	}
}
