package handler

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	contractx "github.com/tanpawarit/restaurant-concierge/flow/contract"
	"github.com/tanpawarit/restaurant-concierge/flow/preference"
)

// Explicit identifiers stated in the message, e.g. "order #29" or
// "reservation 12".
var (
	explicitOrderPattern       = regexp.MustCompile(`(?i)\border\s*#?\s*(\d+)\b`)
	explicitReservationPattern = regexp.MustCompile(`(?i)\breservation\s*#?\s*(\d+)\b`)

	// Anaphoric references that lean on stored context instead of an id.
	orderRefPattern       = regexp.MustCompile(`(?i)\b(?:my|the|that)\s+(?:last\s+|previous\s+|recent\s+)?order\b|\bmake (?:it|that)\b|\bchange (?:it|that)\b`)
	reservationRefPattern = regexp.MustCompile(`(?i)\b(?:my|the|that)\s+(?:last\s+|previous\s+|recent\s+)?(?:reservation|booking|table)\b|\bchange (?:it|that)? ?to\b|\bmove (?:it|that)\b`)

	quantityPattern = regexp.MustCompile(`(?i)\b(?:make (?:it|that)|change (?:it |that )?to)\s+(\d+)\b`)
	clockPattern    = regexp.MustCompile(`(?i)\b(\d{1,2}(?::\d{2})?\s*(?:am|pm)|\d{1,2}[:.]\d{2})\b`)
)

// RefersToExistingOrder reports whether the message targets an order that
// already exists, by stated id or by anaphora. Used by the interactive
// surface to skip new-order clarification for modifications.
func RefersToExistingOrder(message string) bool {
	return explicitOrderPattern.MatchString(message) || orderRefPattern.MatchString(message)
}

// RefersToExistingReservation is the reservation counterpart.
func RefersToExistingReservation(message string) bool {
	return explicitReservationPattern.MatchString(message) || reservationRefPattern.MatchString(message)
}

// resolveOrderID finds the order a message is about. An id stated in the
// message or extracted by the classifier always beats stored context; the
// stored last_order_id only backs anaphora like "my last order". A reference
// with nothing behind it is ErrReferenceUnresolvable; no reference at all is
// (0, false, nil).
func resolveOrderID(req contractx.HandlerRequest) (int64, bool, error) {
	if id, ok := explicitID(req, "order_id", explicitOrderPattern); ok {
		return id, true, nil
	}

	if !orderRefPattern.MatchString(req.Message) {
		return 0, false, nil
	}

	stored := req.ContextMap[preference.KeyLastOrderID]
	if stored == "" {
		return 0, false, fmt.Errorf("%w: no remembered order", contractx.ErrReferenceUnresolvable)
	}
	id, err := preference.ParseID(stored)
	if err != nil {
		return 0, false, fmt.Errorf("%w: stored order id is unusable", contractx.ErrReferenceUnresolvable)
	}
	return id, true, nil
}

func resolveReservationID(req contractx.HandlerRequest) (int64, bool, error) {
	if id, ok := explicitID(req, "reservation_id", explicitReservationPattern); ok {
		return id, true, nil
	}

	if !reservationRefPattern.MatchString(req.Message) {
		return 0, false, nil
	}

	stored := req.ContextMap[preference.KeyLastReservationID]
	if stored == "" {
		return 0, false, fmt.Errorf("%w: no remembered reservation", contractx.ErrReferenceUnresolvable)
	}
	id, err := preference.ParseID(stored)
	if err != nil {
		return 0, false, fmt.Errorf("%w: stored reservation id is unusable", contractx.ErrReferenceUnresolvable)
	}
	return id, true, nil
}

func explicitID(req contractx.HandlerRequest, field string, pattern *regexp.Regexp) (int64, bool) {
	if v := req.Classification.Field(field); v != "" {
		if id, err := preference.ParseID(v); err == nil {
			return id, true
		}
	}
	if m := pattern.FindStringSubmatch(req.Message); m != nil {
		if id, err := strconv.ParseInt(m[1], 10, 64); err == nil && id > 0 {
			return id, true
		}
	}
	return 0, false
}

// messageQuantity reads a quantity from classifier fields first, then from
// phrasings like "make it 2".
func messageQuantity(req contractx.HandlerRequest) (int, bool) {
	if v := req.Classification.Field("quantity"); v != "" {
		if n, err := preference.ParseCount(v); err == nil {
			return n, true
		}
	}
	if m := quantityPattern.FindStringSubmatch(req.Message); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			return n, true
		}
	}
	return 0, false
}

// messageClock reads a reservation time, normalized to HH:MM.
func messageClock(req contractx.HandlerRequest) (string, bool) {
	if v := req.Classification.Field("time"); v != "" {
		if clock, err := preference.NormalizeClock(v); err == nil {
			return clock, true
		}
	}
	if m := clockPattern.FindStringSubmatch(req.Message); m != nil {
		if clock, err := preference.NormalizeClock(strings.TrimSpace(m[1])); err == nil {
			return clock, true
		}
	}
	return "", false
}
