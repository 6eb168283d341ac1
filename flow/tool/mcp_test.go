package tool

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	contractx "github.com/tanpawarit/restaurant-concierge/flow/contract"
)

// fakeMCPCaller replays canned results keyed by tool name and records every
// query it receives.
type fakeMCPCaller struct {
	reads   []string // JSON payloads returned by successive read_query calls
	readIdx int
	queries []string
	err     error
	isError bool
	errText string
}

func (f *fakeMCPCaller) CallTool(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := req.Params.Arguments.(map[string]any)
	query, _ := args["query"].(string)
	f.queries = append(f.queries, req.Params.Name+": "+query)

	if f.err != nil {
		return nil, f.err
	}
	if f.isError {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{mcp.NewTextContent(f.errText)},
		}, nil
	}

	payload := "[]"
	if req.Params.Name == "read_query" && f.readIdx < len(f.reads) {
		payload = f.reads[f.readIdx]
		f.readIdx++
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(payload)},
	}, nil
}

func newMCPGatewayWithCaller(caller mcpCaller) *MCPGateway {
	return &MCPGateway{client: caller, timeout: time.Second}
}

func TestMCPMenuSearchBuildsQueryAndParsesRows(t *testing.T) {
	t.Parallel()

	caller := &fakeMCPCaller{
		reads: []string{`[{"name":"Pad Thai","category":"mains","price":12.5,"is_available":1}]`},
	}
	gateway := newMCPGatewayWithCaller(caller)

	res, err := gateway.Execute(context.Background(), contractx.ToolRequest{
		Action: ActionMenuSearch,
		Args:   map[string]any{"query": "Pad Thai", "available_only": true},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Failed() {
		t.Fatalf("unexpected failure: %s", res.Err)
	}
	if len(res.Rows) != 1 || res.Rows[0]["name"] != "Pad Thai" {
		t.Fatalf("rows = %v", res.Rows)
	}

	query := caller.queries[0]
	if !strings.Contains(query, "read_query") {
		t.Fatalf("menu search should be a read, got %q", query)
	}
	if !strings.Contains(query, "pad thai") {
		t.Fatalf("search term should be lowercased in %q", query)
	}
	if !strings.Contains(query, "is_available = 1") {
		t.Fatalf("available_only should constrain the query, got %q", query)
	}
}

func TestMCPCustomerLookupEscapesQuotes(t *testing.T) {
	t.Parallel()

	caller := &fakeMCPCaller{
		reads: []string{`[{"customer_id":7,"name":"Mia O'Brien"}]`},
	}
	gateway := newMCPGatewayWithCaller(caller)

	res, err := gateway.Execute(context.Background(), contractx.ToolRequest{
		Action: ActionCustomerLookup,
		Args:   map[string]any{"name": "O'Brien"},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Failed() {
		t.Fatalf("unexpected failure: %s", res.Err)
	}
	if !strings.Contains(caller.queries[0], "o''brien") {
		t.Fatalf("single quote should be doubled in %q", caller.queries[0])
	}
}

func TestMCPCustomerLookupMissReportsFailure(t *testing.T) {
	t.Parallel()

	gateway := newMCPGatewayWithCaller(&fakeMCPCaller{reads: []string{`[]`}})

	res, err := gateway.Execute(context.Background(), contractx.ToolRequest{
		Action: ActionCustomerLookup,
		Args:   map[string]any{"name": "nobody"},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !res.Failed() || !strings.Contains(res.Err, "nobody") {
		t.Fatalf("miss should fail naming the fragment, got %q", res.Err)
	}
}

func TestMCPServerErrorSurfacesAsToolFailure(t *testing.T) {
	t.Parallel()

	gateway := newMCPGatewayWithCaller(&fakeMCPCaller{isError: true, errText: "no such table: menu_items"})

	res, err := gateway.Execute(context.Background(), contractx.ToolRequest{
		Action: ActionMenuSearch,
		Args:   map[string]any{"query": "soup"},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !res.Failed() || !strings.Contains(res.Err, "no such table") {
		t.Fatalf("server error should surface in the result, got %q", res.Err)
	}
	if !strings.Contains(res.Err, contractx.ErrExternalTool.Error()) {
		t.Fatalf("failure should carry the external tool marker, got %q", res.Err)
	}
}

func TestMCPTransportErrorSurfacesAsToolFailure(t *testing.T) {
	t.Parallel()

	gateway := newMCPGatewayWithCaller(&fakeMCPCaller{err: errors.New("broken pipe")})

	res, err := gateway.Execute(context.Background(), contractx.ToolRequest{
		Action: ActionOrderLookup,
		Args:   map[string]any{"order_id": 29},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !res.Failed() || !strings.Contains(res.Err, "broken pipe") {
		t.Fatalf("transport error should surface in the result, got %q", res.Err)
	}
}

func TestMCPOrderUpdateRefetchesOrder(t *testing.T) {
	t.Parallel()

	caller := &fakeMCPCaller{
		reads: []string{
			`[{"order_id":29,"order_status":"updated","total_amount":25.0}]`,
			`[{"name":"Pad Thai","quantity":2,"unit_price":12.5}]`,
		},
	}
	gateway := newMCPGatewayWithCaller(caller)

	res, err := gateway.Execute(context.Background(), contractx.ToolRequest{
		Action: ActionOrderUpdate,
		Args:   map[string]any{"order_id": 29, "quantity": 2},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Failed() {
		t.Fatalf("unexpected failure: %s", res.Err)
	}
	if res.Action != ActionOrderLookup {
		t.Fatalf("update should answer with a fresh lookup, got %s", res.Action)
	}
	if res.Data["order_status"] != "updated" {
		t.Fatalf("data = %v", res.Data)
	}

	var writes int
	for _, q := range caller.queries {
		if strings.HasPrefix(q, "write_query") {
			writes++
		}
	}
	if writes != 2 {
		t.Fatalf("expected quantity update plus total recompute, got %d writes", writes)
	}
}

func TestMCPOrderCreateUnsupported(t *testing.T) {
	t.Parallel()

	gateway := newMCPGatewayWithCaller(&fakeMCPCaller{})

	res, err := gateway.Execute(context.Background(), contractx.ToolRequest{
		Action: ActionOrderCreate,
		Args:   map[string]any{"customer_id": 1, "items": "Pad Thai"},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !res.Failed() {
		t.Fatal("order creation should be rejected over the MCP transport")
	}
}
