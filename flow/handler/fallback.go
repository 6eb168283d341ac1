package handler

import (
	"context"

	contractx "github.com/tanpawarit/restaurant-concierge/flow/contract"
)

// FallbackHandler catches unclear messages and anything the routing table
// has no better home for. Stateless, always succeeds.
type FallbackHandler struct{}

func (*FallbackHandler) ID() contractx.HandlerID { return contractx.HandlerFallback }

func (*FallbackHandler) Handle(_ context.Context, req contractx.HandlerRequest) (contractx.HandlerResult, error) {
	return contractx.HandlerResult{
		Handler: contractx.HandlerFallback,
		Status:  contractx.StatusOK,
		Payload: map[string]any{
			"question":   "I want to make sure I help with the right thing. Are you asking about the menu, an order, or a reservation?",
			"options":    []string{"menu", "order", "reservation"},
			"intent":     string(req.Classification.Intent),
			"confidence": req.Classification.Confidence,
		},
	}, nil
}
