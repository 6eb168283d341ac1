package controller

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/restaurant-concierge/flow/contract"
	handlerx "github.com/tanpawarit/restaurant-concierge/flow/handler"
	"github.com/tanpawarit/restaurant-concierge/flow/preference"
	statex "github.com/tanpawarit/restaurant-concierge/flow/state"
	toolx "github.com/tanpawarit/restaurant-concierge/flow/tool"
)

const defaultMaxClarifyRounds = 3

// requiredInfo lists what must be known before an intent's cycle is worth
// running. Other intents never clarify.
var requiredInfo = map[contractx.Intent][]string{
	contractx.IntentOrder:       {"items", "customer_name"},
	contractx.IntentReservation: {"party_size", "date", "time", "customer_name"},
}

// clarifyQuestions is the deterministic question per missing field; the
// first missing field in requiredInfo order decides the question asked.
var clarifyQuestions = map[string]string{
	"items":         "What would you like to order?",
	"customer_name": "Could I get a name for that?",
	"party_size":    "How many people should I book for?",
	"date":          "What date would you like?",
	"time":          "What time works best?",
}

// HandleTurn processes one interactive turn. It classifies the message,
// merges newly stated details into the session, and either asks the next
// clarifying question or runs the full cycle. After maxRounds of
// clarification the classification is forced to unclear, so the cycle lands
// in fallback instead of looping forever.
func (c *Controller) HandleTurn(ctx context.Context, session *statex.Session, message string) (string, error) {
	now := c.now()
	session.Append("user", message, now)

	classification, err := c.classifier.Classify(ctx, message, c.turnContextSummary(ctx, session))
	if err != nil {
		log.Warn().Err(err).Msg("turn classification failed; degrading to unclear")
		classification = contractx.Classification{
			Intent:     contractx.IntentUnclear,
			Confidence: "low",
		}
	}

	// A bare answer ("Friday at 7pm") rarely restates the request; the intent
	// being clarified carries over so the collected details are not discarded.
	if classification.Intent == contractx.IntentUnclear &&
		session.Rounds > 0 && session.CurrentIntent != "" {
		classification.Intent = session.CurrentIntent
	}

	session.Collect(classification.ExtractedFields)
	merged := c.mergeSession(classification, session)

	if missing := c.missingInfo(merged, message); len(missing) > 0 && !merged.RequiresEscalation {
		if session.Rounds < c.maxRounds {
			session.Rounds++
			session.CurrentIntent = merged.Intent
			question := clarifyQuestions[missing[0]]
			session.Append("assistant", question, now)
			return question, nil
		}

		log.Info().Str("intent", string(merged.Intent)).Int("rounds", session.Rounds).
			Msg("clarification rounds exhausted; forcing unclear")
		merged.Intent = contractx.IntentUnclear
	}

	out, err := c.runner.Invoke(ctx, Input{
		Message:        message,
		CustomerName:   merged.Field("customer_name"),
		Classification: &merged,
	})

	response := out.Response
	if err != nil {
		log.Error().Err(err).Msg("cycle failed; composing degraded response")
		response = c.composer.Compose(contractx.HandlerResult{Status: contractx.StatusInternalError})
	}

	session.ResetClarification()
	session.Append("assistant", response, now)
	return response, nil
}

// turnContextSummary gives the classifier the customer's real stored context
// once the session's identity is known, resolving it at most once per
// conversation. Unknown identity degrades to the empty sentinel.
func (c *Controller) turnContextSummary(ctx context.Context, session *statex.Session) string {
	if session.CustomerID == nil {
		name := strings.TrimSpace(session.CollectedInfo["customer_name"])
		if name == "" {
			name = c.customerName
		}
		if name == "" {
			return preference.EmptySummary
		}

		res, err := c.gateway.Execute(ctx, contractx.ToolRequest{
			Action: toolx.ActionCustomerLookup,
			Args:   map[string]any{"name": name},
		})
		if err != nil || res.Failed() {
			return preference.EmptySummary
		}
		if id, ok := asCustomerID(res.Data["customer_id"]); ok {
			session.CustomerID = &id
		}
	}

	if session.CustomerID == nil {
		return preference.EmptySummary
	}

	entries, err := c.store.GetAll(ctx, *session.CustomerID)
	if err != nil {
		log.Warn().Err(err).Int64("customer_id", *session.CustomerID).
			Msg("session context load failed; classifying without it")
		return preference.EmptySummary
	}
	return preference.Summarize(entries)
}

// mergeSession overlays earlier collected answers under this turn's fields;
// the current turn wins where both state a value.
func (c *Controller) mergeSession(classification contractx.Classification, session *statex.Session) contractx.Classification {
	if len(session.CollectedInfo) == 0 && c.customerName == "" {
		return classification
	}

	fields := make(map[string]string, len(session.CollectedInfo)+len(classification.ExtractedFields)+1)
	for k, v := range session.CollectedInfo {
		fields[k] = v
	}
	for k, v := range classification.ExtractedFields {
		fields[k] = v
	}
	if fields["customer_name"] == "" && c.customerName != "" {
		fields["customer_name"] = c.customerName
	}

	classification.ExtractedFields = fields
	return classification
}

// missingInfo returns the intent's still-unanswered required fields, in
// canonical order. Messages about an existing order or reservation never
// clarify; the handler resolves the reference itself.
func (c *Controller) missingInfo(classification contractx.Classification, message string) []string {
	required, ok := requiredInfo[classification.Intent]
	if !ok {
		return nil
	}

	switch classification.Intent {
	case contractx.IntentOrder:
		if classification.Field("order_id") != "" || handlerx.RefersToExistingOrder(message) {
			return nil
		}
	case contractx.IntentReservation:
		if classification.Field("reservation_id") != "" || handlerx.RefersToExistingReservation(message) {
			return nil
		}
	}

	var missing []string
	for _, field := range required {
		if classification.Field(field) == "" {
			missing = append(missing, field)
		}
	}
	return missing
}
