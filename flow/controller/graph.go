package controller

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/restaurant-concierge/flow/contract"
	"github.com/tanpawarit/restaurant-concierge/flow/preference"
	"github.com/tanpawarit/restaurant-concierge/flow/router"
	statex "github.com/tanpawarit/restaurant-concierge/flow/state"
	toolx "github.com/tanpawarit/restaurant-concierge/flow/tool"
)

// graphState threads the cycle plus per-invocation inputs through the nodes.
type graphState struct {
	Cycle        *statex.Cycle
	CustomerName string
	Preclassify  *contractx.Classification
}

func (c *Controller) compileCycleGraph(ctx context.Context) (compose.Runnable[Input, Output], error) {
	graph := compose.NewGraph[Input, Output]()

	if err := graph.AddLambdaNode("start_cycle",
		compose.InvokableLambda(func(ctx context.Context, in Input) (*graphState, error) {
			return c.startCycle(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node start_cycle: %w", err)
	}

	if err := graph.AddLambdaNode("resolve_customer",
		compose.InvokableLambda(func(ctx context.Context, in *graphState) (*graphState, error) {
			return c.resolveCustomer(ctx, in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node resolve_customer: %w", err)
	}

	if err := graph.AddLambdaNode("load_context",
		compose.InvokableLambda(func(ctx context.Context, in *graphState) (*graphState, error) {
			return c.loadContext(ctx, in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node load_context: %w", err)
	}

	if err := graph.AddLambdaNode("classify",
		compose.InvokableLambda(func(ctx context.Context, in *graphState) (*graphState, error) {
			return c.classify(ctx, in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node classify: %w", err)
	}

	if err := graph.AddLambdaNode("route",
		compose.InvokableLambda(func(ctx context.Context, in *graphState) (*graphState, error) {
			return c.route(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node route: %w", err)
	}

	if err := graph.AddLambdaNode("handle",
		compose.InvokableLambda(func(ctx context.Context, in *graphState) (*graphState, error) {
			return c.handle(ctx, in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node handle: %w", err)
	}

	if err := graph.AddLambdaNode("compose_response",
		compose.InvokableLambda(func(ctx context.Context, in *graphState) (Output, error) {
			return c.composeResponse(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node compose_response: %w", err)
	}

	edges := [][2]string{
		{compose.START, "start_cycle"},
		{"start_cycle", "resolve_customer"},
		{"resolve_customer", "load_context"},
		{"load_context", "classify"},
		{"classify", "route"},
		{"route", "handle"},
		{"handle", "compose_response"},
		{"compose_response", compose.END},
	}

	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("controller.cycle"))
	if err != nil {
		return nil, fmt.Errorf("compile cycle graph: %w", err)
	}
	return runner, nil
}

func (c *Controller) startCycle(in Input) (*graphState, error) {
	message := strings.TrimSpace(in.Message)
	if message == "" {
		return nil, fmt.Errorf("%w: message is required", contractx.ErrValidation)
	}

	name := strings.TrimSpace(in.CustomerName)
	if name == "" {
		name = c.customerName
	}

	return &graphState{
		Cycle:        statex.NewCycle(message, c.now()),
		CustomerName: name,
		Preclassify:  in.Classification,
	}, nil
}

// resolveCustomer establishes identity for the cycle. Failure is not fatal:
// the cycle proceeds with a nil customer id and handlers degrade.
func (c *Controller) resolveCustomer(ctx context.Context, in *graphState) (*graphState, error) {
	if err := in.Cycle.Advance(statex.StageCustomerResolution); err != nil {
		return nil, err
	}

	if in.CustomerName == "" {
		log.Debug().Msg("no customer name presented; proceeding unresolved")
		return in, nil
	}

	c.lookupCustomer(ctx, in.Cycle, in.CustomerName)
	return in, nil
}

// lookupCustomer sets the cycle's customer id from a name lookup. Failure is
// logged, never fatal.
func (c *Controller) lookupCustomer(ctx context.Context, cycle *statex.Cycle, name string) {
	res, err := c.gateway.Execute(ctx, contractx.ToolRequest{
		Action: toolx.ActionCustomerLookup,
		Args:   map[string]any{"name": name},
	})
	if err != nil || res.Failed() {
		log.Warn().Err(err).Str("reason", res.Err).Str("name", name).
			Msg("customer resolution failed; proceeding unresolved")
		return
	}

	if id, ok := asCustomerID(res.Data["customer_id"]); ok {
		cycle.CustomerID = &id
	}
}

func (c *Controller) loadContext(ctx context.Context, in *graphState) (*graphState, error) {
	if err := in.Cycle.Advance(statex.StageContextLoad); err != nil {
		return nil, err
	}

	c.snapshotContext(ctx, in.Cycle)
	return in, nil
}

// snapshotContext loads the resolved customer's stored preferences into the
// cycle. An unresolved customer gets the explicit empty-summary sentinel.
func (c *Controller) snapshotContext(ctx context.Context, cycle *statex.Cycle) {
	cycle.ContextSummary = preference.EmptySummary
	cycle.ContextMap = map[string]string{}

	if cycle.CustomerID == nil {
		return
	}

	entries, err := c.store.GetAll(ctx, *cycle.CustomerID)
	if err != nil {
		log.Warn().Err(err).Int64("customer_id", *cycle.CustomerID).
			Msg("context load failed; proceeding with empty context")
		return
	}

	cycle.ContextSummary = preference.Summarize(entries)
	cycle.ContextMap = preference.AsMap(entries)
}

// classify obtains the cycle's classification, preferring a pre-supplied one.
// A failing classifier degrades to unclear rather than aborting the cycle.
// Identity often arrives inside the message itself ("... for Noah Chen"); when
// up-front resolution found nothing, the extracted name gets a second pass
// here: the cycle resolves it and re-snapshots stored context, then
// reclassifies against the real summary so anaphora like "my last order" can
// land.
func (c *Controller) classify(ctx context.Context, in *graphState) (*graphState, error) {
	if err := in.Cycle.Advance(statex.StageClassify); err != nil {
		return nil, err
	}

	fresh := in.Preclassify == nil
	if fresh {
		classification, err := c.classifier.Classify(ctx, in.Cycle.Message, in.Cycle.ContextSummary)
		if err != nil {
			log.Warn().Err(err).Msg("classification failed; degrading to unclear")
			classification = contractx.Classification{
				Intent:     contractx.IntentUnclear,
				Confidence: "low",
			}
		}
		in.Cycle.Classification = classification
	} else {
		in.Cycle.Classification = *in.Preclassify
	}

	if in.Cycle.CustomerID != nil {
		return in, nil
	}
	name := in.Cycle.Classification.Field("customer_name")
	if name == "" {
		return in, nil
	}

	c.lookupCustomer(ctx, in.Cycle, name)
	if in.Cycle.CustomerID == nil {
		return in, nil
	}

	c.snapshotContext(ctx, in.Cycle)
	if fresh && in.Cycle.ContextSummary != preference.EmptySummary {
		if reclassified, err := c.classifier.Classify(ctx, in.Cycle.Message, in.Cycle.ContextSummary); err == nil {
			in.Cycle.Classification = reclassified
		} else {
			log.Warn().Err(err).Msg("context-aware reclassification failed; keeping first pass")
		}
	}
	return in, nil
}

func (c *Controller) route(in *graphState) (*graphState, error) {
	if err := in.Cycle.Advance(statex.StageRoute); err != nil {
		return nil, err
	}
	in.Cycle.Handler = router.Route(in.Cycle.Classification)
	return in, nil
}

// handle dispatches to the routed handler and persists its context writes,
// but only on a fully successful outcome for a resolved customer.
func (c *Controller) handle(ctx context.Context, in *graphState) (*graphState, error) {
	if err := in.Cycle.Advance(statex.StageHandle); err != nil {
		return nil, err
	}

	result := c.registry.Dispatch(ctx, in.Cycle.Handler, contractx.HandlerRequest{
		Message:        in.Cycle.Message,
		Classification: in.Cycle.Classification,
		CustomerID:     in.Cycle.CustomerID,
		ContextSummary: in.Cycle.ContextSummary,
		ContextMap:     in.Cycle.ContextMap,
	})
	in.Cycle.Result = result

	if result.Status == contractx.StatusOK && len(result.NewContext) > 0 {
		c.persistContext(ctx, in.Cycle, result.NewContext)
	}
	return in, nil
}

func (c *Controller) persistContext(ctx context.Context, cycle *statex.Cycle, entries []contractx.ContextEntry) {
	if cycle.CustomerID == nil {
		log.Debug().Msg("skipping context writes for unresolved customer")
		return
	}
	for _, entry := range entries {
		if err := c.store.Set(ctx, *cycle.CustomerID, entry.Key, entry.Value); err != nil {
			log.Warn().Err(err).Str("key", entry.Key).Int64("customer_id", *cycle.CustomerID).
				Msg("context write failed; remaining writes skipped")
			return
		}
	}
}

func (c *Controller) composeResponse(in *graphState) (Output, error) {
	if err := in.Cycle.Advance(statex.StageCompose); err != nil {
		return Output{}, err
	}

	in.Cycle.Response = c.composer.Compose(in.Cycle.Result)

	if err := in.Cycle.Advance(statex.StageDone); err != nil {
		return Output{}, err
	}

	return Output{
		Response: in.Cycle.Response,
		Result:   in.Cycle.Result,
		Handler:  in.Cycle.Handler,
	}, nil
}

func asCustomerID(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, n > 0
	case int:
		return int64(n), n > 0
	case float64:
		return int64(n), n > 0
	}
	return 0, false
}
