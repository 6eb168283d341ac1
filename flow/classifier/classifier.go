// Package classifier wraps the external intent model behind the Classifier
// contract. The model is the only non-deterministic component in a cycle;
// this package normalizes its output so everything downstream can stay
// deterministic.
package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"

	contractx "github.com/tanpawarit/restaurant-concierge/flow/contract"
)

const defaultTimeout = 10 * time.Second

// LLMClassifier classifies customer messages through a compiled chat graph.
type LLMClassifier struct {
	runner  compose.Runnable[map[string]any, classifierLLMOutput]
	timeout time.Duration
}

func NewLLMClassifier(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	systemPrompt string,
	timeout time.Duration,
) (*LLMClassifier, error) {
	if chatModel == nil {
		return nil, errors.New("chat model is required")
	}
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, errors.New("classifier prompt is required")
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	runner, err := compileClassifierGraph(ctx, chatModel, systemPrompt)
	if err != nil {
		return nil, err
	}
	return &LLMClassifier{runner: runner, timeout: timeout}, nil
}

func (c *LLMClassifier) Classify(ctx context.Context, message string, contextSummary string) (contractx.Classification, error) {
	if strings.TrimSpace(message) == "" {
		return contractx.Classification{}, fmt.Errorf("%w: message is required", contractx.ErrValidation)
	}

	payload := map[string]any{
		"message":            message,
		"preference_summary": contextSummary,
	}
	inputBytes, err := json.Marshal(payload)
	if err != nil {
		return contractx.Classification{}, fmt.Errorf("%w: marshal classifier payload: %v", contractx.ErrValidation, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	out, err := c.runner.Invoke(ctx, map[string]any{
		"input": string(inputBytes),
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return contractx.Classification{}, fmt.Errorf("%w: %v", contractx.ErrClassificationTimeout, err)
		}
		return contractx.Classification{}, fmt.Errorf("%w: %v", contractx.ErrClassification, err)
	}

	return Normalize(out.Intent, out.RequiresEscalation, out.Confidence, out.ExtractedFields), nil
}

// Normalize coerces raw model output into the closed classification contract.
// Unknown or empty intents collapse to unclear rather than failing the cycle.
func Normalize(rawIntent string, escalate bool, confidence string, fields map[string]string) contractx.Classification {
	intent := contractx.Intent(strings.ToLower(strings.TrimSpace(rawIntent)))

	// Older prompt vocabularies show up under different labels.
	switch intent {
	case "menu_inquiry":
		intent = contractx.IntentMenu
	case "order_request":
		intent = contractx.IntentOrder
	case "reservation_request":
		intent = contractx.IntentReservation
	case "general_question", "other":
		intent = contractx.IntentUnclear
	}

	if !intent.Valid() {
		intent = contractx.IntentUnclear
	}

	conf := strings.ToLower(strings.TrimSpace(confidence))
	switch conf {
	case "high", "medium", "low":
	default:
		conf = "low"
	}

	cleaned := make(map[string]string, len(fields))
	for k, v := range fields {
		k = strings.TrimSpace(k)
		v = strings.TrimSpace(v)
		if k != "" && v != "" {
			cleaned[k] = v
		}
	}
	if len(cleaned) == 0 {
		cleaned = nil
	}

	return contractx.Classification{
		Intent:             intent,
		RequiresEscalation: escalate,
		Confidence:         conf,
		ExtractedFields:    cleaned,
	}
}
