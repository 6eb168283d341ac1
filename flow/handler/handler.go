// Package handler implements the five intent handlers behind the routing
// table. Handlers degrade instead of failing: every component error becomes
// an error-variant result with a payload the composer can render, so a raw
// error never reaches the customer.
package handler

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/restaurant-concierge/flow/contract"
)

// Registry holds one handler per routing target.
type Registry struct {
	handlers map[contractx.HandlerID]contractx.Handler
}

func NewRegistry(gateway contractx.ToolGateway) (*Registry, error) {
	if gateway == nil {
		return nil, errors.New("tool gateway is required")
	}

	handlers := map[contractx.HandlerID]contractx.Handler{
		contractx.HandlerMenu:        &MenuHandler{gateway: gateway},
		contractx.HandlerOrder:       &OrderHandler{gateway: gateway},
		contractx.HandlerReservation: &ReservationHandler{gateway: gateway},
		contractx.HandlerEscalation:  &EscalationHandler{},
		contractx.HandlerFallback:    &FallbackHandler{},
	}
	return &Registry{handlers: handlers}, nil
}

// Dispatch runs the handler selected by the router and absorbs its errors
// into degraded results. The returned result is always well formed.
func (r *Registry) Dispatch(ctx context.Context, id contractx.HandlerID, req contractx.HandlerRequest) contractx.HandlerResult {
	h, ok := r.handlers[id]
	if !ok {
		log.Error().Str("handler", string(id)).Msg("no handler registered; degrading to internal error")
		return Degrade(id, fmt.Errorf("no handler registered for %q", id))
	}

	result, err := h.Handle(ctx, req)
	if err != nil {
		log.Warn().Err(err).Str("handler", string(id)).Msg("handler error converted to degraded result")
		return Degrade(id, err)
	}
	if result.Handler == "" {
		result.Handler = id
	}
	return result
}

// Degrade maps an error to the matching error-variant result. Unknown errors
// collapse to an internal-error result rather than escaping.
func Degrade(id contractx.HandlerID, err error) contractx.HandlerResult {
	status := contractx.StatusInternalError
	switch {
	case errors.Is(err, contractx.ErrCustomerUnresolved):
		status = contractx.StatusCustomerUnresolved
	case errors.Is(err, contractx.ErrReferenceUnresolvable):
		status = contractx.StatusReferenceUnresolvable
	case errors.Is(err, contractx.ErrExternalTool):
		status = contractx.StatusExternalToolFailure
	}

	return contractx.HandlerResult{
		Handler: id,
		Status:  status,
	}
}

// toolFailure is the degraded result for a tool-level failure (ToolResult.Err
// set, no transport error).
func toolFailure(id contractx.HandlerID, res contractx.ToolResult) contractx.HandlerResult {
	log.Warn().Str("handler", string(id)).Str("action", res.Action).Str("reason", res.Err).Msg("tool action failed")
	return contractx.HandlerResult{
		Handler: id,
		Status:  contractx.StatusExternalToolFailure,
		Payload: map[string]any{"action": res.Action},
	}
}
