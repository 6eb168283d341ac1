// Package router maps a classification to exactly one handler. It is a pure
// function with no I/O and no hidden state: this determinism is what keeps
// the controller testable independent of the non-deterministic classifier.
package router

import (
	contractx "github.com/tanpawarit/restaurant-concierge/flow/contract"
)

// Route picks the handler for a classification. Priority order, first match
// wins:
//
//  1. requires_escalation          -> escalation
//  2. intent == menu               -> menu
//  3. intent == order              -> order
//  4. intent == reservation        -> reservation
//  5. unclear / complaint / other  -> fallback
//
// Total: every classification, including unknown intent values from a
// misbehaving classifier, maps to a handler.
func Route(c contractx.Classification) contractx.HandlerID {
	if c.RequiresEscalation {
		return contractx.HandlerEscalation
	}
	switch c.Intent {
	case contractx.IntentMenu:
		return contractx.HandlerMenu
	case contractx.IntentOrder:
		return contractx.HandlerOrder
	case contractx.IntentReservation:
		return contractx.HandlerReservation
	default:
		return contractx.HandlerFallback
	}
}
