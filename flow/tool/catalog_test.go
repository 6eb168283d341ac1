package tool

import (
	"context"
	"strings"
	"testing"

	contractx "github.com/tanpawarit/restaurant-concierge/flow/contract"
)

func TestUnavailableGatewayFailsEveryAction(t *testing.T) {
	t.Parallel()

	gateway := UnavailableGateway{}
	actions := []string{
		ActionMenuSearch,
		ActionCustomerLookup,
		ActionOrderLookup,
		ActionOrderCreate,
		ActionOrderUpdate,
		ActionReservationLookup,
		ActionReservationCreate,
		ActionReservationUpdate,
	}

	for _, action := range actions {
		res, err := gateway.Execute(context.Background(), contractx.ToolRequest{Action: action})
		if err != nil {
			t.Fatalf("Execute(%s) returned error: %v", action, err)
		}
		if !res.Failed() {
			t.Fatalf("Execute(%s) should report a tool-level failure", action)
		}
		if !strings.Contains(res.Err, action) {
			t.Fatalf("failure for %s should name the action, got %q", action, res.Err)
		}
	}
}

func TestStringArg(t *testing.T) {
	t.Parallel()

	args := map[string]any{"query": "  pad thai  ", "limit": 5}
	if got := stringArg(args, "query"); got != "pad thai" {
		t.Fatalf("stringArg trimmed = %q", got)
	}
	if got := stringArg(args, "limit"); got != "" {
		t.Fatalf("stringArg on non-string = %q, want empty", got)
	}
	if got := stringArg(nil, "query"); got != "" {
		t.Fatalf("stringArg on nil args = %q, want empty", got)
	}
}

func TestInt64ArgAcceptsCommonShapes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		args map[string]any
		want int64
		ok   bool
	}{
		{"int64", map[string]any{"id": int64(29)}, 29, true},
		{"int", map[string]any{"id": 29}, 29, true},
		{"json number", map[string]any{"id": float64(29)}, 29, true},
		{"numeric string", map[string]any{"id": " 29 "}, 29, true},
		{"word", map[string]any{"id": "twenty-nine"}, 0, false},
		{"missing", map[string]any{}, 0, false},
		{"nil args", nil, 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, ok := int64Arg(tc.args, "id")
			if ok != tc.ok || got != tc.want {
				t.Fatalf("int64Arg = (%d, %v), want (%d, %v)", got, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestBoolArg(t *testing.T) {
	t.Parallel()

	if !boolArg(map[string]any{"available_only": true}, "available_only") {
		t.Fatal("boolArg should pass through true")
	}
	if boolArg(map[string]any{"available_only": "true"}, "available_only") {
		t.Fatal("boolArg should not coerce strings")
	}
	if boolArg(nil, "available_only") {
		t.Fatal("boolArg on nil args should be false")
	}
}
