// Package pipeline applies fired pricing events in a fixed canonical
// stage order, maintaining the running price and per-event audit
// records. The stage order never depends on rule priority or on the
// order the matcher fired events in.
package pipeline

import (
	"bundle-pricing/core/rule"
)

// Stage is a position in the canonical processing order
type Stage int

const (
	// StageSetBasePrice seeds the running price
	StageSetBasePrice Stage = iota

	// StageApplyMarkup adds the margin
	StageApplyMarkup

	// StageApplyUnusedDaysDiscount refunds unused validity
	StageApplyUnusedDaysDiscount

	// StageApplyProcessingFee adds the payment fee
	StageApplyProcessingFee

	// StageApplyProfitConstraint enforces the profit floor
	StageApplyProfitConstraint

	// StageTerminal rounds or overrides the final price.
	// Psychological rounding, region rounding and fixed price are
	// alternative variants of this single terminal slot.
	StageTerminal

	stageCount
)

// stageOf maps canonical event types to their stage
var stageOf = map[rule.EventType]Stage{
	rule.EventSetBasePrice:               StageSetBasePrice,
	rule.EventApplyMarkup:                StageApplyMarkup,
	rule.EventApplyUnusedDaysDiscount:    StageApplyUnusedDaysDiscount,
	rule.EventApplyProcessingFee:         StageApplyProcessingFee,
	rule.EventApplyProfitConstraint:      StageApplyProfitConstraint,
	rule.EventApplyPsychologicalRounding: StageTerminal,
	rule.EventApplyRegionRounding:        StageTerminal,
	rule.EventApplyFixedPrice:            StageTerminal,
}

// groupByStage buckets fired events per stage, preserving the
// original firing order within each bucket. Events with an
// unrecognized type land in the unknown bucket.
func groupByStage(fired []rule.FiredEvent) (buckets [stageCount][]rule.FiredEvent, unknown []rule.FiredEvent) {
	for _, ev := range fired {
		stage, ok := stageOf[ev.Event.Type]
		if !ok {
			unknown = append(unknown, ev)
			continue
		}
		buckets[stage] = append(buckets[stage], ev)
	}
	return buckets, unknown
}
