// Package stream - emitter tests
package stream

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"bundle-pricing/core/types"
)

func step(order int, name string) types.PricingStep {
	return types.PricingStep{Order: order, Name: name, PriceAfter: decimal.NewFromInt(int64(order))}
}

func TestEmitterDeliversStepsInOrder(t *testing.T) {
	var got []Message
	e := NewEmitter("corr-1", SinkFunc(func(msg Message) error {
		got = append(got, msg)
		return nil
	}))

	e.EmitStep(step(1, "Bundle Selection"))
	e.EmitStep(step(2, "Applied markup"))
	e.EmitComplete(&types.PricingBreakdown{
		PricingSteps: []types.PricingStep{step(1, "Bundle Selection"), step(2, "Applied markup")},
	})

	if len(got) != 3 {
		t.Fatalf("got %d messages, want 3", len(got))
	}

	for i := 0; i < 2; i++ {
		msg := got[i]
		if msg.CorrelationID != "corr-1" {
			t.Errorf("message %d correlation = %q, want corr-1", i, msg.CorrelationID)
		}
		if msg.IsComplete {
			t.Errorf("message %d marked complete", i)
		}
		if msg.Step == nil || msg.Step.Order != i+1 {
			t.Errorf("message %d step out of order", i)
		}
		if msg.CompletedSteps != i+1 {
			t.Errorf("message %d completed = %d, want %d", i, msg.CompletedSteps, i+1)
		}
	}

	final := got[2]
	if !final.IsComplete {
		t.Error("terminal message not marked complete")
	}
	if final.Step != nil {
		t.Error("terminal message carries a step")
	}
	if final.TotalSteps != 2 || final.CompletedSteps != 2 {
		t.Errorf("terminal counters = %d/%d, want 2/2", final.CompletedSteps, final.TotalSteps)
	}
	if final.FinalBreakdown == nil {
		t.Error("terminal message missing the breakdown")
	}
}

func TestEmitterGeneratesCorrelationID(t *testing.T) {
	a := NewEmitter("", nil)
	b := NewEmitter("", nil)

	if a.CorrelationID() == "" {
		t.Fatal("empty correlation id not replaced")
	}
	if a.CorrelationID() == b.CorrelationID() {
		t.Error("generated correlation ids collide")
	}
}

func TestEmitterSurvivesFailingSink(t *testing.T) {
	calls := 0
	e := NewEmitter("corr-2", SinkFunc(func(Message) error {
		calls++
		return errors.New("consumer went away")
	}))

	e.EmitStep(step(1, "Bundle Selection"))
	e.EmitStep(step(2, "Applied markup"))
	e.EmitError(errors.New("boom"))

	// Every delivery is still attempted; failures are swallowed.
	if calls != 3 {
		t.Errorf("sink called %d times, want 3", calls)
	}
}

func TestEmitterNilSink(t *testing.T) {
	e := NewEmitter("corr-3", nil)
	e.EmitStep(step(1, "Bundle Selection"))
	e.EmitComplete(&types.PricingBreakdown{})
	// No panic is the assertion.
}

func TestEmitterErrorMessage(t *testing.T) {
	var got Message
	e := NewEmitter("corr-4", SinkFunc(func(msg Message) error {
		got = msg
		return nil
	}))

	e.EmitError(errors.New("no bundle covers the requested duration"))

	if !got.IsComplete {
		t.Error("error message not terminal")
	}
	if got.Error != "no bundle covers the requested duration" {
		t.Errorf("error text = %q", got.Error)
	}
	if got.FinalBreakdown != nil {
		t.Error("error message carries a breakdown")
	}
}
