package contract

import "context"

// Classifier maps (message, context summary) to a Classification. The
// implementation is external and non-deterministic; everything downstream of
// it must be deterministic.
type Classifier interface {
	Classify(ctx context.Context, message string, contextSummary string) (Classification, error)
}

// Handler is one intent-specific variant. Implementations convert their own
// failures into error-variant HandlerResults; a returned error means the
// dispatch layer itself is broken.
type Handler interface {
	ID() HandlerID
	Handle(ctx context.Context, req HandlerRequest) (HandlerResult, error)
}

// ToolGateway executes one domain action (menu search, order lookup/create,
// reservation lookup/create, customer lookup) keyed by action name with a
// flat parameter mapping.
type ToolGateway interface {
	Execute(ctx context.Context, req ToolRequest) (ToolResult, error)
}

// Composer renders a HandlerResult into the final customer-facing message.
type Composer interface {
	Compose(result HandlerResult) string
}
