package state

import (
	"testing"
	"time"
)

func TestCycleWalksEveryStageInOrder(t *testing.T) {
	t.Parallel()

	c := NewCycle("hello", time.Now())
	if c.Stage != StageStart {
		t.Fatalf("new cycle stage = %s", c.Stage)
	}

	order := []Stage{
		StageCustomerResolution,
		StageContextLoad,
		StageClassify,
		StageRoute,
		StageHandle,
		StageCompose,
		StageDone,
	}
	for _, stage := range order {
		if err := c.Advance(stage); err != nil {
			t.Fatalf("Advance(%s): %v", stage, err)
		}
	}
	if !c.Done() {
		t.Fatal("cycle should be terminal")
	}
}

func TestCycleRejectsSkips(t *testing.T) {
	t.Parallel()

	c := NewCycle("hello", time.Now())
	if err := c.Advance(StageClassify); err == nil {
		t.Fatal("skipping customer resolution should be rejected")
	}
}

func TestCycleRejectsRegression(t *testing.T) {
	t.Parallel()

	c := NewCycle("hello", time.Now())
	if err := c.Advance(StageCustomerResolution); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if err := c.Advance(StageStart); err == nil {
		t.Fatal("regressing to start should be rejected")
	}
}

func TestCycleTerminalStageIsFinal(t *testing.T) {
	t.Parallel()

	c := NewCycle("hello", time.Now())
	for _, stage := range []Stage{
		StageCustomerResolution, StageContextLoad, StageClassify,
		StageRoute, StageHandle, StageCompose, StageDone,
	} {
		if err := c.Advance(stage); err != nil {
			t.Fatalf("Advance(%s): %v", stage, err)
		}
	}
	if err := c.Advance(StageStart); err == nil {
		t.Fatal("done cycle should reject further transitions")
	}
}

func TestCustomerResolved(t *testing.T) {
	t.Parallel()

	c := NewCycle("hello", time.Now())
	if c.CustomerResolved() {
		t.Fatal("fresh cycle should be unresolved")
	}
	id := int64(7)
	c.CustomerID = &id
	if !c.CustomerResolved() {
		t.Fatal("cycle with customer id should report resolved")
	}
}
