package handler

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/restaurant-concierge/flow/contract"
	"github.com/tanpawarit/restaurant-concierge/flow/preference"
	toolx "github.com/tanpawarit/restaurant-concierge/flow/tool"
)

// ReservationHandler serves booking, checking, and changing reservations.
// Identifier resolution mirrors the order handler: stated ids beat the
// remembered last_reservation_id, which only backs anaphora.
type ReservationHandler struct {
	gateway contractx.ToolGateway
}

func (*ReservationHandler) ID() contractx.HandlerID { return contractx.HandlerReservation }

func (h *ReservationHandler) Handle(ctx context.Context, req contractx.HandlerRequest) (contractx.HandlerResult, error) {
	reservationID, resolved, err := resolveReservationID(req)
	if err != nil {
		return contractx.HandlerResult{
			Handler: contractx.HandlerReservation,
			Status:  contractx.StatusReferenceUnresolvable,
			Payload: map[string]any{
				"question": "Which reservation do you mean? I don't have a recent booking on file; a reservation number would help.",
			},
		}, nil
	}

	if resolved {
		return h.change(ctx, reservationID, req)
	}
	return h.create(ctx, req)
}

// change updates the referenced reservation with whatever details the
// message states, or looks it up when nothing changes.
func (h *ReservationHandler) change(ctx context.Context, reservationID int64, req contractx.HandlerRequest) (contractx.HandlerResult, error) {
	args := map[string]any{"reservation_id": reservationID}
	dirty := false

	if clock, ok := messageClock(req); ok {
		args["reservation_time"] = clock
		dirty = true
	}
	if date := req.Classification.Field("date"); date != "" {
		args["reservation_date"] = date
		dirty = true
	}
	if partySize := req.Classification.Field("party_size"); partySize != "" {
		if n, err := preference.ParseCount(partySize); err == nil {
			args["party_size"] = n
			dirty = true
		}
	}

	action := toolx.ActionReservationLookup
	if dirty {
		action = toolx.ActionReservationUpdate
	}

	res, err := h.gateway.Execute(ctx, contractx.ToolRequest{Action: action, Args: args})
	if err != nil {
		return contractx.HandlerResult{}, err
	}
	if res.Failed() {
		return toolFailure(contractx.HandlerReservation, res), nil
	}
	return h.success(reservationID, res), nil
}

func (h *ReservationHandler) create(ctx context.Context, req contractx.HandlerRequest) (contractx.HandlerResult, error) {
	var missing []string

	partySize := 0
	if v := req.Classification.Field("party_size"); v != "" {
		if n, err := preference.ParseCount(v); err == nil {
			partySize = n
		}
	}
	if partySize == 0 {
		missing = append(missing, "party size")
	}

	date := req.Classification.Field("date")
	if date == "" {
		missing = append(missing, "date")
	}

	clock, hasClock := messageClock(req)
	if !hasClock {
		missing = append(missing, "time")
	}

	if len(missing) > 0 {
		return contractx.HandlerResult{
			Handler: contractx.HandlerReservation,
			Status:  contractx.StatusAwaitingDetails,
			Payload: map[string]any{
				"question": reservationQuestion(missing),
				"missing":  missing,
			},
		}, nil
	}

	if req.CustomerID == nil {
		return contractx.HandlerResult{
			Handler: contractx.HandlerReservation,
			Status:  contractx.StatusCustomerUnresolved,
			Payload: map[string]any{
				"question": "Could I get a name or phone number for the booking?",
			},
		}, nil
	}

	args := map[string]any{
		"customer_id":      *req.CustomerID,
		"party_size":       partySize,
		"reservation_date": date,
		"reservation_time": clock,
	}
	if requests := req.Classification.Field("special_requests"); requests != "" {
		args["special_requests"] = requests
	}

	res, err := h.gateway.Execute(ctx, contractx.ToolRequest{
		Action: toolx.ActionReservationCreate,
		Args:   args,
	})
	if err != nil {
		return contractx.HandlerResult{}, err
	}
	if res.Failed() {
		return toolFailure(contractx.HandlerReservation, res), nil
	}

	reservationID, _ := res.Data["reservation_id"].(int64)
	if reservationID == 0 {
		if f, ok := res.Data["reservation_id"].(float64); ok {
			reservationID = int64(f)
		}
	}
	return h.success(reservationID, res), nil
}

// success builds the terminal payload plus context writes from the
// reservation the gateway handed back.
func (h *ReservationHandler) success(reservationID int64, res contractx.ToolResult) contractx.HandlerResult {
	payload := map[string]any{
		"reservation_id": reservationID,
	}
	for k, v := range res.Data {
		payload[k] = v
	}

	newContext := []contractx.ContextEntry{
		{Key: preference.KeyLastReservationID, Value: preference.FormatID(reservationID)},
	}
	if n := dataCount(res.Data, "party_size"); n > 0 {
		newContext = append(newContext, contractx.ContextEntry{
			Key:   preference.KeyUsualPartySize,
			Value: preference.FormatCount(n),
		})
	}
	if t, ok := res.Data["reservation_time"].(string); ok && t != "" {
		if clock, err := preference.NormalizeClock(t); err == nil {
			newContext = append(newContext, contractx.ContextEntry{
				Key:   preference.KeyLastReservationTime,
				Value: clock,
			})
		}
	}

	return contractx.HandlerResult{
		Handler:    contractx.HandlerReservation,
		Status:     contractx.StatusOK,
		Payload:    payload,
		NewContext: newContext,
	}
}

func reservationQuestion(missing []string) string {
	switch len(missing) {
	case 1:
		return fmt.Sprintf("What %s should I book for?", missing[0])
	default:
		return fmt.Sprintf("To book a table I still need: %s.", preference.FormatList(missing))
	}
}

func dataCount(data map[string]any, key string) int {
	switch v := data[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}
