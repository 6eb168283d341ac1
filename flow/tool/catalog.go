// Package tool exposes the restaurant domain actions (menu search, order and
// reservation lookup/create, customer lookup) behind the gateway contract.
// Two transports exist: a SQL gateway sharing the concierge database, and an
// MCP stdio gateway for running against an external tool server.
package tool

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	contractx "github.com/tanpawarit/restaurant-concierge/flow/contract"
)

// Domain action names. The flow core depends only on these plus a flat
// argument mapping; the transport behind them is interchangeable.
const (
	ActionMenuSearch        = "menu.search"
	ActionCustomerLookup    = "customer.lookup"
	ActionOrderLookup       = "order.lookup"
	ActionOrderCreate       = "order.create"
	ActionOrderUpdate       = "order.update"
	ActionReservationLookup = "reservation.lookup"
	ActionReservationCreate = "reservation.create"
	ActionReservationUpdate = "reservation.update"
)

// UnavailableGateway answers every action with a tool-level failure. It keeps
// the flow runnable when no transport is configured.
type UnavailableGateway struct{}

func (UnavailableGateway) Execute(_ context.Context, req contractx.ToolRequest) (contractx.ToolResult, error) {
	return contractx.ToolResult{
		Action: req.Action,
		Err:    fmt.Sprintf("action %s is unavailable: no tool gateway configured", req.Action),
	}, nil
}

/* --------------------------- argument helpers ---------------------------- */

func stringArg(args map[string]any, key string) string {
	if args == nil {
		return ""
	}
	if v, ok := args[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func int64Arg(args map[string]any, key string) (int64, bool) {
	if args == nil {
		return 0, false
	}
	switch v := args[key].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

func intArg(args map[string]any, key string) (int, bool) {
	n, ok := int64Arg(args, key)
	return int(n), ok
}

func boolArg(args map[string]any, key string) bool {
	if args == nil {
		return false
	}
	v, _ := args[key].(bool)
	return v
}

func failure(action, format string, a ...any) contractx.ToolResult {
	return contractx.ToolResult{
		Action: action,
		Err:    fmt.Sprintf(format, a...),
	}
}
