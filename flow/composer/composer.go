// Package composer renders handler results into customer-facing text. It is
// the last line of defense: whatever shape a result arrives in, the output
// is a friendly sentence that never names internal errors or components.
package composer

import (
	"fmt"
	"sort"
	"strings"

	contractx "github.com/tanpawarit/restaurant-concierge/flow/contract"
)

type TextComposer struct{}

func New() *TextComposer { return &TextComposer{} }

func (*TextComposer) Compose(result contractx.HandlerResult) string {
	switch result.Status {
	case contractx.StatusOK:
		return composeOK(result)
	case contractx.StatusAwaitingDetails:
		return withQuestion(result, "I just need a couple more details to finish that up.")
	case contractx.StatusCustomerUnresolved:
		return withQuestion(result, "I couldn't find you in our records. Could I get a name or phone number?")
	case contractx.StatusReferenceUnresolvable:
		return withQuestion(result, "I'm not sure which one you mean. Could you give me the number?")
	case contractx.StatusExternalToolFailure:
		return "Sorry, I'm having trouble reaching our systems right now. Please try again in a moment, or ask for a manager if it's urgent."
	default:
		return "Sorry, something went wrong on our side. Please try again, or ask for a manager and we'll sort it out."
	}
}

func composeOK(result contractx.HandlerResult) string {
	switch result.Handler {
	case contractx.HandlerMenu:
		return composeMenu(result.Payload)
	case contractx.HandlerOrder:
		return composeOrder(result.Payload)
	case contractx.HandlerReservation:
		return composeReservation(result.Payload)
	case contractx.HandlerEscalation:
		return composeEscalation(result.Payload)
	case contractx.HandlerFallback:
		return withQuestion(result, "Are you asking about the menu, an order, or a reservation?")
	}
	return "All set. Anything else I can help with?"
}

func composeMenu(payload map[string]any) string {
	rows, _ := payload["items"].([]map[string]any)
	if len(rows) == 0 {
		return "I couldn't find anything matching that on our menu. Would you like me to look for something else?"
	}

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		name, _ := row["name"].(string)
		if name == "" {
			continue
		}
		if price, ok := asFloat(row["price"]); ok {
			lines = append(lines, fmt.Sprintf("%s ($%.2f)", name, price))
		} else {
			lines = append(lines, name)
		}
	}

	msg := "Here's what I found: " + strings.Join(lines, ", ") + "."
	if note, _ := payload["dietary_note"].(string); note != "" {
		msg += fmt.Sprintf(" I've kept your %s preference in mind.", note)
	}
	return msg + " Would you like to order any of these?"
}

func composeOrder(payload map[string]any) string {
	var parts []string

	if id, ok := asInt(payload["order_id"]); ok && id > 0 {
		parts = append(parts, fmt.Sprintf("Your order #%d", id))
	} else {
		parts = append(parts, "Your order")
	}

	if status, _ := payload["order_status"].(string); status != "" {
		parts = append(parts, fmt.Sprintf("is %s", status))
	} else {
		parts = append(parts, "is confirmed")
	}

	msg := strings.Join(parts, " ")
	if rows, _ := payload["items"].([]map[string]any); len(rows) > 0 {
		names := make([]string, 0, len(rows))
		for _, row := range rows {
			name, _ := row["name"].(string)
			if name == "" {
				continue
			}
			if qty, ok := asInt(row["quantity"]); ok && qty > 1 {
				name = fmt.Sprintf("%d x %s", qty, name)
			}
			names = append(names, name)
		}
		if len(names) > 0 {
			msg += ": " + strings.Join(names, ", ")
		}
	}
	if total, ok := asFloat(payload["total_amount"]); ok {
		msg += fmt.Sprintf(", total $%.2f", total)
	}
	return msg + ". Anything else I can get you?"
}

func composeReservation(payload map[string]any) string {
	msg := "Your table is booked"
	if id, ok := asInt(payload["reservation_id"]); ok && id > 0 {
		msg = fmt.Sprintf("Your reservation #%d is confirmed", id)
	}

	var details []string
	if n, ok := asInt(payload["party_size"]); ok && n > 0 {
		details = append(details, fmt.Sprintf("party of %d", n))
	}
	if date, _ := payload["reservation_date"].(string); date != "" {
		details = append(details, date)
	}
	if t, _ := payload["reservation_time"].(string); t != "" {
		details = append(details, "at "+t)
	}
	if len(details) > 0 {
		msg += " for " + strings.Join(details, ", ")
	}
	return msg + ". We look forward to seeing you!"
}

func composeEscalation(payload map[string]any) string {
	ack, _ := payload["acknowledgement"].(string)
	if ack == "" {
		ack = "I'm really sorry about this."
	}
	msg := ack + " I've flagged this for our team"
	if contact, _ := payload["manager_contact"].(string); contact != "" {
		msg += ", and you can reach " + contact + " directly"
	}
	return msg + ". Thank you for your patience."
}

// withQuestion prefers the handler's own question and appends what's still
// missing when the payload lists it.
func withQuestion(result contractx.HandlerResult, fallback string) string {
	question, _ := result.Payload["question"].(string)
	if question == "" {
		question = fallback
	}
	if missing, _ := result.Payload["missing"].([]string); len(missing) > 1 {
		sorted := append([]string(nil), missing...)
		sort.Strings(sorted)
		question += " (Still needed: " + strings.Join(sorted, ", ") + ".)"
	}
	return question
}

func asInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), true
	}
	return 0, false
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
