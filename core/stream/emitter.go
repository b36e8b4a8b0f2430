// Package stream provides incremental delivery of pricing steps to a
// caller-supplied sink. Delivery is best effort: a failing or absent
// consumer never aborts the underlying computation.
package stream

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"bundle-pricing/core/types"
	"bundle-pricing/internal/logging"
)

// Message is one streamed update. Non-terminal messages carry a step;
// the terminal message carries the breakdown or an error.
type Message struct {
	// CorrelationID identifies the subscription
	CorrelationID string `json:"correlation_id"`

	// Step is the pricing step, nil on the terminal message
	Step *types.PricingStep `json:"step,omitempty"`

	// IsComplete marks the terminal message
	IsComplete bool `json:"is_complete"`

	// TotalSteps is the total step count, known only at completion
	TotalSteps int `json:"total_steps"`

	// CompletedSteps is the number of steps delivered so far
	CompletedSteps int `json:"completed_steps"`

	// FinalBreakdown is the full result, terminal success only
	FinalBreakdown *types.PricingBreakdown `json:"final_breakdown,omitempty"`

	// Error is the failure description, terminal failure only
	Error string `json:"error,omitempty"`
}

// Sink consumes streamed messages. Implementations are invoked
// sequentially in pipeline order and must not retain the message's
// step pointer past the call.
type Sink interface {
	// Send delivers one message. An error is logged and swallowed;
	// delivery is at-least-once with no backpressure.
	Send(msg Message) error
}

// SinkFunc adapts a function to the Sink interface
type SinkFunc func(msg Message) error

// Send implements Sink
func (f SinkFunc) Send(msg Message) error {
	return f(msg)
}

// Emitter delivers pipeline steps for one subscription
type Emitter struct {
	correlationID string
	sink          Sink
	completed     int
	log           *zap.Logger
}

// NewEmitter creates an emitter. An empty correlation id is replaced
// with a generated one.
func NewEmitter(correlationID string, sink Sink) *Emitter {
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	return &Emitter{
		correlationID: correlationID,
		sink:          sink,
		log:           logging.Named("stream"),
	}
}

// CorrelationID returns the subscription id
func (e *Emitter) CorrelationID() string {
	return e.correlationID
}

// EmitStep delivers one pricing step
func (e *Emitter) EmitStep(step types.PricingStep) {
	e.completed++
	e.deliver(Message{
		CorrelationID:  e.correlationID,
		Step:           &step,
		CompletedSteps: e.completed,
	})
}

// EmitComplete delivers the terminal success message
func (e *Emitter) EmitComplete(breakdown *types.PricingBreakdown) {
	e.deliver(Message{
		CorrelationID:  e.correlationID,
		IsComplete:     true,
		TotalSteps:     len(breakdown.PricingSteps),
		CompletedSteps: e.completed,
		FinalBreakdown: breakdown,
	})
}

// EmitError delivers the terminal failure message
func (e *Emitter) EmitError(err error) {
	e.deliver(Message{
		CorrelationID:  e.correlationID,
		IsComplete:     true,
		CompletedSteps: e.completed,
		Error:          err.Error(),
	})
}

// deliver swallows sink failures: the computation runs to completion
// regardless of whether anyone is listening
func (e *Emitter) deliver(msg Message) {
	if e.sink == nil {
		return
	}
	if err := e.sink.Send(msg); err != nil {
		e.log.Warn("step delivery failed",
			zap.String("correlation_id", e.correlationID),
			zap.Bool("terminal", msg.IsComplete),
			zap.Error(err))
	}
}
