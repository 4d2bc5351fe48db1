package llm

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/claro-ops/media-intel/pkg/metrics"
)

// AnthropicClassifier invokes the model directly against Anthropic's
// Messages API, the primary classification path of SPEC_FULL.md §2.2.
type AnthropicClassifier struct {
	client anthropic.Client
	model  string
}

// NewAnthropicClassifier builds a classifier bound to a single model
// id; apiKey is read by the caller from the secrets layer, never
// logged.
func NewAnthropicClassifier(apiKey, model string) *AnthropicClassifier {
	return &AnthropicClassifier{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

// Classify implements Classifier.
func (c *AnthropicClassifier) Classify(ctx context.Context, input ClassificationInput) (ClassificationResult, error) {
	prompt := renderPrompt(input)

	metrics.RecordLLMCall("anthropic")
	timer := metrics.NewTimer()

	text, err := withRetry(ctx, func(attemptCtx context.Context) (string, error) {
		message, err := c.client.Messages.New(attemptCtx, anthropic.MessageNewParams{
			Model:       anthropic.Model(c.model),
			MaxTokens:   classifyMaxTokens,
			Temperature: anthropic.Float(classifyTemperature),
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
			},
		})
		if err != nil {
			return "", fmt.Errorf("anthropic messages.new: %w", err)
		}
		return firstTextBlock(message)
	})
	metrics.LLMClassificationDuration.Observe(timer.Elapsed().Seconds())
	if err != nil {
		metrics.RecordLLMError("anthropic", "invoke_failed")
		return ClassificationResult{}, err
	}

	raw, err := extractJSON(text)
	if err != nil {
		metrics.RecordLLMError("anthropic", "invalid_response")
		return ClassificationResult{}, err
	}
	return validateAndNormalize(raw)
}

func firstTextBlock(message *anthropic.Message) (string, error) {
	for _, block := range message.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", errModelEmptyResponse
}
