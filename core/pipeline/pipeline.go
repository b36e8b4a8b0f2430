// Package pipeline - canonical stage runner
package pipeline

import (
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"bundle-pricing/core/rule"
	"bundle-pricing/core/types"
	"bundle-pricing/internal/logging"
)

// Result is the output of one pipeline run
type Result struct {
	// BasePrice is the bootstrap price the run started from
	BasePrice decimal.Decimal `json:"base_price"`

	// FinalPrice is the price after all stages
	FinalPrice decimal.Decimal `json:"final_price"`

	// Steps lists every step in application order, bootstrap first
	Steps []types.PricingStep `json:"steps"`

	// Applied lists only the events that changed the price
	Applied []types.AppliedRule `json:"applied"`

	// Warnings lists soft warnings absorbed during the run
	Warnings []string `json:"warnings,omitempty"`
}

// StepObserver receives each step as it is produced. Used by the
// streaming emitter; nil disables observation.
type StepObserver func(step types.PricingStep)

// Pipeline applies fired events in canonical stage order
type Pipeline struct {
	log *zap.Logger

	// now is injectable for deterministic step timestamps
	now func() time.Time
}

// NewPipeline creates a pipeline with the wall clock
func NewPipeline() *Pipeline {
	return &Pipeline{
		log: logging.Named("pipeline"),
		now: time.Now,
	}
}

// WithClock replaces the step timestamp source
func (p *Pipeline) WithClock(now func() time.Time) *Pipeline {
	p.now = now
	return p
}

// Run applies the fired events. Events are bucketed into the
// canonical stages and applied stage by stage; within a stage the
// original firing order is preserved, never re-sorted. The synthetic
// bundle-selection step seeds the price before any event applies, so
// a run with no set-base-price rule still prices correctly.
func (p *Pipeline) Run(ctx *Context, fired []rule.FiredEvent, observe StepObserver) *Result {
	result := &Result{
		Steps:   make([]types.PricingStep, 0, len(fired)+1),
		Applied: make([]types.AppliedRule, 0, len(fired)),
	}

	price := BasePrice(ctx.Selected, ctx.Previous)
	result.BasePrice = price

	bootstrap := types.PricingStep{
		Order:       1,
		Name:        "Bundle Selection",
		PriceBefore: decimal.Zero,
		PriceAfter:  price,
		Impact:      price,
		Metadata:    bootstrapMetadata(ctx),
		Timestamp:   p.now(),
	}
	result.Steps = append(result.Steps, bootstrap)
	if observe != nil {
		observe(bootstrap)
	}

	buckets, unknown := groupByStage(fired)
	for stage := Stage(0); stage < stageCount; stage++ {
		for _, ev := range buckets[stage] {
			price = p.applyOne(ctx, ev, price, result, observe)
		}
	}

	// Unrecognized event types are ignored with a warning, never
	// fatal; their zero-impact steps keep the audit trail complete.
	for _, ev := range unknown {
		price = p.applyOne(ctx, ev, price, result, observe)
	}

	result.FinalPrice = price
	return result
}

func (p *Pipeline) applyOne(ctx *Context, ev rule.FiredEvent, price decimal.Decimal, result *Result, observe StepObserver) decimal.Decimal {
	outcome := applyEvent(ctx, ev, price)

	if outcome.warning != "" {
		result.Warnings = append(result.Warnings, outcome.warning)
		p.log.Warn("pipeline soft warning",
			zap.String("rule", ev.RuleID),
			zap.String("warning", outcome.warning))
	}

	impact := outcome.price.Sub(price)

	metadata := outcome.metadata
	if metadata == nil {
		metadata = make(map[string]interface{}, 1)
	}
	metadata["event_type"] = string(ev.Event.Type)

	step := types.PricingStep{
		Order:       len(result.Steps) + 1,
		Name:        outcome.description,
		PriceBefore: price,
		PriceAfter:  outcome.price,
		Impact:      impact,
		RuleID:      ev.RuleID,
		Metadata:    metadata,
		Timestamp:   p.now(),
	}
	result.Steps = append(result.Steps, step)
	if observe != nil {
		observe(step)
	}

	if !impact.IsZero() {
		result.Applied = append(result.Applied, types.AppliedRule{
			ID:       ev.RuleID,
			Name:     ev.RuleName,
			Category: categoryFor(ev),
			Impact:   impact,
		})
	}

	return outcome.price
}

// categoryFor uses the rule's own category when set, else derives one
// from the event type
func categoryFor(ev rule.FiredEvent) string {
	if ev.Category != "" {
		return ev.Category
	}
	switch ev.Event.Type {
	case rule.EventSetBasePrice:
		return "base"
	case rule.EventApplyMarkup:
		return "markup"
	case rule.EventApplyUnusedDaysDiscount:
		return "discount"
	case rule.EventApplyProcessingFee:
		return "fee"
	case rule.EventApplyProfitConstraint:
		return "constraint"
	case rule.EventApplyPsychologicalRounding, rule.EventApplyRegionRounding:
		return "rounding"
	case rule.EventApplyFixedPrice:
		return "override"
	}
	return "other"
}

func bootstrapMetadata(ctx *Context) map[string]interface{} {
	metadata := map[string]interface{}{
		"requested_days": ctx.Request.Days,
		"unused_days":    ctx.UnusedDays,
	}
	if ctx.Selected != nil {
		metadata["bundle_id"] = ctx.Selected.ID
		metadata["bundle_name"] = ctx.Selected.Name
		metadata["provider"] = ctx.Selected.Provider
		metadata["validity_days"] = ctx.Selected.ValidityDays
	}
	if ctx.Previous != nil {
		metadata["previous_bundle_id"] = ctx.Previous.ID
	}
	return metadata
}
