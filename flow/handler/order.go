package handler

import (
	"context"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/restaurant-concierge/flow/contract"
	"github.com/tanpawarit/restaurant-concierge/flow/preference"
	toolx "github.com/tanpawarit/restaurant-concierge/flow/tool"
)

// OrderHandler serves order placement, status checks, and modifications.
// Resolution order for "which order": an id stated in the message wins, then
// the remembered last_order_id backs anaphora; a bare reference with no
// context degrades to a reference-unresolvable result that asks which order.
type OrderHandler struct {
	gateway contractx.ToolGateway
}

func (*OrderHandler) ID() contractx.HandlerID { return contractx.HandlerOrder }

func (h *OrderHandler) Handle(ctx context.Context, req contractx.HandlerRequest) (contractx.HandlerResult, error) {
	orderID, resolved, err := resolveOrderID(req)
	if err != nil {
		return contractx.HandlerResult{
			Handler: contractx.HandlerOrder,
			Status:  contractx.StatusReferenceUnresolvable,
			Payload: map[string]any{
				"question": "Which order do you mean? I don't have a recent order on file; an order number would help.",
			},
		}, nil
	}

	if resolved {
		if quantity, ok := messageQuantity(req); ok {
			return h.update(ctx, orderID, quantity)
		}
		return h.lookup(ctx, orderID)
	}

	return h.create(ctx, req)
}

func (h *OrderHandler) lookup(ctx context.Context, orderID int64) (contractx.HandlerResult, error) {
	res, err := h.gateway.Execute(ctx, contractx.ToolRequest{
		Action: toolx.ActionOrderLookup,
		Args:   map[string]any{"order_id": orderID},
	})
	if err != nil {
		return contractx.HandlerResult{}, err
	}
	if res.Failed() {
		return toolFailure(contractx.HandlerOrder, res), nil
	}
	return h.success(orderID, res), nil
}

func (h *OrderHandler) update(ctx context.Context, orderID int64, quantity int) (contractx.HandlerResult, error) {
	res, err := h.gateway.Execute(ctx, contractx.ToolRequest{
		Action: toolx.ActionOrderUpdate,
		Args:   map[string]any{"order_id": orderID, "quantity": quantity},
	})
	if err != nil {
		return contractx.HandlerResult{}, err
	}
	if res.Failed() {
		return toolFailure(contractx.HandlerOrder, res), nil
	}
	return h.success(orderID, res), nil
}

func (h *OrderHandler) create(ctx context.Context, req contractx.HandlerRequest) (contractx.HandlerResult, error) {
	items := req.Classification.Field("items")
	if items == "" {
		return contractx.HandlerResult{
			Handler: contractx.HandlerOrder,
			Status:  contractx.StatusAwaitingDetails,
			Payload: map[string]any{
				"question": "What would you like to order?",
				"missing":  []string{"items"},
			},
		}, nil
	}

	if req.CustomerID == nil {
		return contractx.HandlerResult{
			Handler: contractx.HandlerOrder,
			Status:  contractx.StatusCustomerUnresolved,
			Payload: map[string]any{
				"question": "Could I get a name or phone number for the order?",
			},
		}, nil
	}

	args := map[string]any{
		"customer_id": *req.CustomerID,
		"items":       items,
	}
	if quantity, ok := messageQuantity(req); ok {
		args["quantity"] = quantity
	}

	res, err := h.gateway.Execute(ctx, contractx.ToolRequest{
		Action: toolx.ActionOrderCreate,
		Args:   args,
	})
	if err != nil {
		return contractx.HandlerResult{}, err
	}
	if res.Failed() {
		return toolFailure(contractx.HandlerOrder, res), nil
	}

	orderID, _ := res.Data["order_id"].(int64)
	if orderID == 0 {
		if f, ok := res.Data["order_id"].(float64); ok {
			orderID = int64(f)
		}
	}
	return h.success(orderID, res), nil
}

// success builds the terminal payload and the context writes that follow a
// completed order action.
func (h *OrderHandler) success(orderID int64, res contractx.ToolResult) contractx.HandlerResult {
	payload := map[string]any{
		"order_id": orderID,
	}
	for k, v := range res.Data {
		payload[k] = v
	}
	if len(res.Rows) > 0 {
		payload["items"] = res.Rows
	}

	newContext := []contractx.ContextEntry{
		{Key: preference.KeyLastOrderID, Value: preference.FormatID(orderID)},
	}
	if names := itemNames(res.Rows); len(names) > 0 {
		newContext = append(newContext, contractx.ContextEntry{
			Key:   preference.KeyRecentItems,
			Value: preference.FormatList(names),
		})
	}

	return contractx.HandlerResult{
		Handler:    contractx.HandlerOrder,
		Status:     contractx.StatusOK,
		Payload:    payload,
		NewContext: newContext,
	}
}

func itemNames(rows []map[string]any) []string {
	names := make([]string, 0, len(rows))
	for _, row := range rows {
		name, _ := row["name"].(string)
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if qty := rowQuantity(row); qty > 1 {
			name = fmt.Sprintf("%s x%d", name, qty)
		}
		names = append(names, name)
	}
	return names
}

func rowQuantity(row map[string]any) int {
	switch v := row["quantity"].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}
