package handler

import (
	"context"

	contractx "github.com/tanpawarit/restaurant-concierge/flow/contract"
)

const managerContact = "our duty manager at (555) 010-0199"

// EscalationHandler acknowledges the problem and hands the customer to a
// person. It never touches tools or context, so it cannot fail.
type EscalationHandler struct{}

func (*EscalationHandler) ID() contractx.HandlerID { return contractx.HandlerEscalation }

func (*EscalationHandler) Handle(_ context.Context, req contractx.HandlerRequest) (contractx.HandlerResult, error) {
	return contractx.HandlerResult{
		Handler: contractx.HandlerEscalation,
		Status:  contractx.StatusOK,
		Payload: map[string]any{
			"acknowledgement": "I'm sorry about this; it's not the experience we want you to have.",
			"manager_contact": managerContact,
			"intent":          string(req.Classification.Intent),
		},
	}, nil
}
