// Package engine provides the pricing engine API. The transport
// layer, persistence and checkout flows are collaborators outside
// this core; the engine is consumed purely as an in-process
// computation.
package engine

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"bundle-pricing/core/audit"
	"bundle-pricing/core/catalog"
	"bundle-pricing/core/facts"
	"bundle-pricing/core/pipeline"
	"bundle-pricing/core/rule"
	"bundle-pricing/core/strategy"
	"bundle-pricing/core/stream"
	"bundle-pricing/core/types"
	"bundle-pricing/internal/errors"
	"bundle-pricing/internal/logging"
)

// Config holds the engine's pricing parameters
type Config struct {
	// Currency is the breakdown currency when the bundle has none
	Currency types.Currency

	// FlatMarkup is the markup used when the matrix has no entry
	FlatMarkup decimal.Decimal

	// MinProfit is the default minimum profit floor
	MinProfit decimal.Decimal

	// UnusedDaysRefundFactor is the default pro-rated refund share
	UnusedDaysRefundFactor decimal.Decimal

	// RegionRoundingOffset is the default region rounding offset
	RegionRoundingOffset decimal.Decimal

	// PreferredProviders is the provider preference order, best first
	PreferredProviders []string
}

// DefaultConfig returns the engine defaults
func DefaultConfig() Config {
	return Config{
		Currency:               types.CurrencyUSD,
		UnusedDaysRefundFactor: decimal.NewFromFloat(0.5),
		RegionRoundingOffset:   decimal.NewFromFloat(0.99),
	}
}

// Engine prices purchase requests. All collaborators are injected;
// the engine itself holds no mutable per-request state, so one
// instance serves concurrent requests.
type Engine struct {
	catalog  catalog.Provider
	rules    strategy.Repository
	fees     types.FeeMatrix
	markup   *facts.MarkupMatrix
	config   Config
	matcher  *rule.Matcher
	pipeline *pipeline.Pipeline
	log      *zap.Logger
}

// New creates a pricing engine
func New(cat catalog.Provider, rules strategy.Repository, fees types.FeeMatrix, markup *facts.MarkupMatrix, config Config) *Engine {
	return &Engine{
		catalog:  cat,
		rules:    rules,
		fees:     fees,
		markup:   markup,
		config:   config,
		matcher:  rule.NewMatcher(),
		pipeline: pipeline.NewPipeline(),
		log:      logging.Named("engine"),
	}
}

// WithClock replaces the pipeline step timestamp source
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.pipeline.WithClock(now)
	return e
}

// Price computes the full breakdown for one request
func (e *Engine) Price(ctx context.Context, req types.PricingRequest) (*types.PricingBreakdown, error) {
	return e.price(ctx, req, nil)
}

// PriceStream computes the same breakdown while delivering each
// pricing step to the sink as it is produced, followed by a terminal
// message. Sink failures never abort the computation.
func (e *Engine) PriceStream(ctx context.Context, req types.PricingRequest, correlationID string, sink stream.Sink) (*types.PricingBreakdown, error) {
	emitter := stream.NewEmitter(correlationID, sink)
	breakdown, err := e.price(ctx, req, emitter.EmitStep)
	if err != nil {
		emitter.EmitError(err)
		return nil, err
	}
	emitter.EmitComplete(breakdown)
	return breakdown, nil
}

func (e *Engine) price(ctx context.Context, req types.PricingRequest, observe pipeline.StepObserver) (*types.PricingBreakdown, error) {
	start := time.Now()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	rules, err := e.loadRules(ctx, req.StrategyID)
	if err != nil {
		return nil, errors.Initialization("rule load failed", err)
	}

	resolver := facts.NewResolver(req, e.catalog, e.markup, e.config.PreferredProviders).
		WithFlatMarkup(e.config.FlatMarkup)

	selected, err := resolver.SelectedBundle(ctx)
	if err != nil {
		return nil, err
	}
	previous, err := resolver.PrevBundle(ctx)
	if err != nil {
		return nil, err
	}
	unusedDays, err := resolver.ResolveUnusedDays(ctx)
	if err != nil {
		return nil, err
	}

	var warnings []string
	var margin decimal.Decimal
	var found bool
	if e.markup != nil {
		margin, found = e.markup.Lookup(selected)
	}
	if !found {
		margin = e.config.FlatMarkup
		warnings = append(warnings, "no markup matrix entry for selected bundle, using flat markup")
		e.log.Warn("no markup matrix entry, using flat markup",
			zap.String("bundle", selected.ID),
			zap.String("flat", margin.String()))
	}

	matchResult, err := e.matcher.Match(ctx, rules, resolver)
	if err != nil {
		return nil, err
	}

	pipelineCtx := &pipeline.Context{
		Request:                req,
		Selected:               selected,
		Previous:               previous,
		UnusedDays:             unusedDays,
		Markup:                 margin,
		Fees:                   e.fees,
		MinProfit:              e.config.MinProfit,
		UnusedDaysRefundFactor: e.config.UnusedDaysRefundFactor,
		RegionRoundingOffset:   e.config.RegionRoundingOffset,
	}

	result := e.pipeline.Run(pipelineCtx, matchResult.Fired, observe)
	warnings = append(warnings, result.Warnings...)

	summary := audit.Summarize(result, unusedDays)

	currency := e.config.Currency
	if selected.Currency != "" {
		currency = selected.Currency
	}

	breakdown := &types.PricingBreakdown{
		Cost:                   summary.Cost,
		Markup:                 summary.Markup,
		Currency:               currency,
		UnusedDays:             unusedDays,
		ProcessingCost:         summary.ProcessingCost,
		DiscountPerDay:         summary.DiscountPerDay,
		DiscountValue:          summary.DiscountValue,
		PriceAfterDiscount:     summary.PriceAfterDiscount,
		DiscountRate:           summary.DiscountRate,
		TotalCost:              summary.TotalCost,
		ProcessingRate:         summary.ProcessingRate,
		FinalRevenue:           summary.FinalRevenue,
		RevenueAfterProcessing: summary.RevenueAfterProcessing,
		NetProfit:              summary.NetProfit,
		FinalPrice:             result.FinalPrice,
		AppliedRules:           result.Applied,
		PricingSteps:           result.Steps,
		CustomerDiscounts:      summary.CustomerDiscounts,
		SavingsAmount:          summary.SavingsAmount,
		SavingsPercentage:      summary.SavingsPercentage,
		CalculationTimeMs:      time.Since(start).Milliseconds(),
		RulesEvaluated:         matchResult.Evaluated,
	}

	if req.Debug {
		breakdown.DebugInfo = &types.DebugInfo{
			Warnings:        warnings,
			Facts:           resolver.Snapshot(),
			RuleDiagnostics: matchResult.Diagnostics,
		}
	}

	e.log.Info("priced request",
		zap.Int("days", req.Days),
		zap.String("country", req.Country),
		zap.String("region", req.Region),
		zap.String("bundle", selected.ID),
		zap.String("final_price", result.FinalPrice.String()),
		zap.Int("rules_evaluated", matchResult.Evaluated),
		zap.Int("rules_applied", len(result.Applied)))

	return breakdown, nil
}

func (e *Engine) loadRules(ctx context.Context, strategyID string) ([]rule.Rule, error) {
	if strategyID != "" {
		return e.rules.LoadRules(ctx, strategyID)
	}
	return e.rules.LoadDefaultRules(ctx)
}
