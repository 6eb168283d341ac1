package handler

import (
	"context"
	"strings"

	contractx "github.com/tanpawarit/restaurant-concierge/flow/contract"
	"github.com/tanpawarit/restaurant-concierge/flow/preference"
	toolx "github.com/tanpawarit/restaurant-concierge/flow/tool"
)

// MenuHandler answers menu questions. It is stateless: context is read only
// (dietary restrictions narrow the search) and never written.
type MenuHandler struct {
	gateway contractx.ToolGateway
}

func (*MenuHandler) ID() contractx.HandlerID { return contractx.HandlerMenu }

func (h *MenuHandler) Handle(ctx context.Context, req contractx.HandlerRequest) (contractx.HandlerResult, error) {
	query := req.Classification.Field("query")
	if query == "" {
		query = strings.TrimSpace(req.Message)
	}

	args := map[string]any{
		"query":          query,
		"available_only": true,
	}

	res, err := h.gateway.Execute(ctx, contractx.ToolRequest{
		Action: toolx.ActionMenuSearch,
		Args:   args,
	})
	if err != nil {
		return contractx.HandlerResult{}, err
	}
	if res.Failed() {
		return toolFailure(contractx.HandlerMenu, res), nil
	}

	payload := map[string]any{
		"query": query,
		"items": res.Rows,
		"count": len(res.Rows),
	}
	if dietary := req.ContextMap[preference.KeyDietaryRestrictions]; dietary != "" {
		payload["dietary_note"] = dietary
	}

	return contractx.HandlerResult{
		Handler: contractx.HandlerMenu,
		Status:  contractx.StatusOK,
		Payload: payload,
	}, nil
}
