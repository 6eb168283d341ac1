// Package controller drives one message through the fixed cycle
// Start -> CustomerResolution -> ContextLoad -> Classify -> Route -> Handle
// -> Compose -> Done, compiled as an eino graph. No stage is skipped: a
// failed customer resolution or a misbehaving classifier degrades the cycle,
// it never aborts it, so every accepted message ends in exactly one composed
// response.
package controller

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"

	contractx "github.com/tanpawarit/restaurant-concierge/flow/contract"
	handlerx "github.com/tanpawarit/restaurant-concierge/flow/handler"
	"github.com/tanpawarit/restaurant-concierge/flow/preference"
)

type Config struct {
	// CustomerName is the identity presented to customer resolution when a
	// turn does not carry its own name.
	CustomerName string

	// MaxClarifyRounds caps the interactive clarification loop; past it the
	// classification is forced to unclear. Zero means the default of 3.
	MaxClarifyRounds int
}

// Input is one message entering the cycle. Classification, when set, skips
// the model call; the interactive surface classifies once per turn before
// deciding whether to clarify or run the cycle.
type Input struct {
	Message        string
	CustomerName   string
	Classification *contractx.Classification
}

// Output is the cycle's terminal product.
type Output struct {
	Response string
	Result   contractx.HandlerResult
	Handler  contractx.HandlerID
}

type Controller struct {
	store      preference.Store
	classifier contractx.Classifier
	registry   *handlerx.Registry
	composer   contractx.Composer
	gateway    contractx.ToolGateway

	runner compose.Runnable[Input, Output]

	customerName string
	maxRounds    int

	now func() time.Time
}

func New(
	store preference.Store,
	classifier contractx.Classifier,
	registry *handlerx.Registry,
	composer contractx.Composer,
	gateway contractx.ToolGateway,
	cfg Config,
) (*Controller, error) {
	if store == nil {
		return nil, errors.New("preference store is required")
	}
	if classifier == nil {
		return nil, errors.New("classifier is required")
	}
	if registry == nil {
		return nil, errors.New("handler registry is required")
	}
	if composer == nil {
		return nil, errors.New("composer is required")
	}
	if gateway == nil {
		return nil, errors.New("tool gateway is required")
	}

	maxRounds := cfg.MaxClarifyRounds
	if maxRounds <= 0 {
		maxRounds = defaultMaxClarifyRounds
	}

	c := &Controller{
		store:        store,
		classifier:   classifier,
		registry:     registry,
		composer:     composer,
		gateway:      gateway,
		customerName: strings.TrimSpace(cfg.CustomerName),
		maxRounds:    maxRounds,
		now:          time.Now,
	}

	runner, err := c.compileCycleGraph(context.Background())
	if err != nil {
		return nil, err
	}
	c.runner = runner

	return c, nil
}

// HandleMessage runs one complete cycle for a single message.
func (c *Controller) HandleMessage(ctx context.Context, message string) (string, error) {
	out, err := c.runner.Invoke(ctx, Input{Message: message})
	if err != nil {
		return "", err
	}
	return out.Response, nil
}
