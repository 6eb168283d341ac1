// Package state holds the ephemeral per-message cycle state and the
// in-memory conversation sessions used by the interactive surface.
package state

import (
	"fmt"
	"time"

	contractx "github.com/tanpawarit/restaurant-concierge/flow/contract"
)

// Stage is a step in the flow controller's state machine.
type Stage string

const (
	StageStart              Stage = "start"
	StageCustomerResolution Stage = "customer_resolution"
	StageContextLoad        Stage = "context_load"
	StageClassify           Stage = "classify"
	StageRoute              Stage = "route"
	StageHandle             Stage = "handle"
	StageCompose            Stage = "compose"
	StageDone               Stage = "done"
)

// next encodes the only legal transition out of each stage. No stage is
// skipped: even a failed customer resolution advances to context load with a
// nil customer id.
var next = map[Stage]Stage{
	StageStart:              StageCustomerResolution,
	StageCustomerResolution: StageContextLoad,
	StageContextLoad:        StageClassify,
	StageClassify:           StageRoute,
	StageRoute:              StageHandle,
	StageHandle:             StageCompose,
	StageCompose:            StageDone,
}

// Cycle is the session state for one message-handling pass. It is created at
// cycle start, threaded through every stage, and discarded at cycle end;
// durable facts must go through the preference store before StageDone.
type Cycle struct {
	Message string
	Stage   Stage

	CustomerID     *int64
	ContextSummary string
	ContextMap     map[string]string

	Classification contractx.Classification
	Handler        contractx.HandlerID
	Result         contractx.HandlerResult
	Response       string

	StartedAt time.Time
}

func NewCycle(message string, now time.Time) *Cycle {
	return &Cycle{
		Message:   message,
		Stage:     StageStart,
		StartedAt: now.UTC(),
	}
}

// Advance moves the cycle to the given stage, rejecting skips and regressions.
func (c *Cycle) Advance(to Stage) error {
	want, ok := next[c.Stage]
	if !ok {
		return fmt.Errorf("%w: cycle already terminal at %s", contractx.ErrValidation, c.Stage)
	}
	if to != want {
		return fmt.Errorf("%w: illegal transition %s -> %s (want %s)", contractx.ErrValidation, c.Stage, to, want)
	}
	c.Stage = to
	return nil
}

// Done reports whether the cycle reached its terminal stage.
func (c *Cycle) Done() bool {
	return c.Stage == StageDone
}

// CustomerResolved reports whether identity was established this cycle.
func (c *Cycle) CustomerResolved() bool {
	return c.CustomerID != nil
}
