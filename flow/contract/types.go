package contract

import "strings"

// Intent is the closed set of message categories the classifier may emit.
type Intent string

const (
	IntentMenu        Intent = "menu"
	IntentOrder       Intent = "order"
	IntentReservation Intent = "reservation"
	IntentComplaint   Intent = "complaint"
	IntentUnclear     Intent = "unclear"
)

// KnownIntents lists every defined intent, in routing-table order.
var KnownIntents = []Intent{
	IntentMenu,
	IntentOrder,
	IntentReservation,
	IntentComplaint,
	IntentUnclear,
}

func (i Intent) Valid() bool {
	switch i {
	case IntentMenu, IntentOrder, IntentReservation, IntentComplaint, IntentUnclear:
		return true
	}
	return false
}

// Classification is the structured output of the external classifier.
// It is produced once per cycle and immutable thereafter.
type Classification struct {
	Intent             Intent            `json:"intent"`
	RequiresEscalation bool              `json:"requires_escalation"`
	Confidence         string            `json:"confidence,omitempty"`
	ExtractedFields    map[string]string `json:"extracted_fields,omitempty"`
}

// Field returns a trimmed extracted field value, "" when absent.
func (c Classification) Field(key string) string {
	if c.ExtractedFields == nil {
		return ""
	}
	return strings.TrimSpace(c.ExtractedFields[key])
}

// HandlerID identifies one of the five handler variants.
type HandlerID string

const (
	HandlerMenu        HandlerID = "menu"
	HandlerOrder       HandlerID = "order"
	HandlerReservation HandlerID = "reservation"
	HandlerEscalation  HandlerID = "escalation"
	HandlerFallback    HandlerID = "fallback"
)

// ResultStatus tags a HandlerResult. Error variants carry a degraded but
// well-formed payload so the composer always has something to render.
type ResultStatus string

const (
	StatusOK                    ResultStatus = "ok"
	StatusAwaitingDetails       ResultStatus = "awaiting_details"
	StatusCustomerUnresolved    ResultStatus = "customer_unresolved"
	StatusReferenceUnresolvable ResultStatus = "reference_unresolvable"
	StatusExternalToolFailure   ResultStatus = "external_tool_failure"
	StatusInternalError         ResultStatus = "internal_error"
)

// ContextEntry is a pending preference write emitted by a handler.
type ContextEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// HandlerRequest carries everything a handler variant may consume.
// CustomerID is nil when customer resolution failed; handlers must degrade,
// not assume identity.
type HandlerRequest struct {
	Message        string            `json:"message"`
	Classification Classification    `json:"classification"`
	CustomerID     *int64            `json:"customer_id,omitempty"`
	ContextSummary string            `json:"context_summary"`
	ContextMap     map[string]string `json:"context_map,omitempty"`
}

// HandlerResult is the common handler output contract.
type HandlerResult struct {
	Handler    HandlerID      `json:"handler"`
	Status     ResultStatus   `json:"status"`
	Payload    map[string]any `json:"payload,omitempty"`
	NewContext []ContextEntry `json:"new_context,omitempty"`
}

// ToolRequest asks the gateway to run one domain action with flat parameters.
type ToolRequest struct {
	Action string         `json:"action"`
	Args   map[string]any `json:"args,omitempty"`
}

// ToolResult is the gateway's structured reply. Err is a tool-level failure
// message, not a transport error.
type ToolResult struct {
	Action string           `json:"action"`
	Data   map[string]any   `json:"data,omitempty"`
	Rows   []map[string]any `json:"rows,omitempty"`
	Err    string           `json:"error,omitempty"`
}

// Failed reports whether the tool itself rejected or failed the action.
func (r ToolResult) Failed() bool {
	return r.Err != ""
}
