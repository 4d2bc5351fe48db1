package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/claro-ops/media-intel/pkg/metrics"
)

var (
	errBedrockMissingTextOutput = errors.New("bedrock_missing_text_output")
	errBedrockAttemptsExhausted = errors.New("bedrock_attempts_exhausted")
)

// bedrockAnthropicVersion is the wire contract version Bedrock's Claude
// models expect in every InvokeModel body.
const bedrockAnthropicVersion = "bedrock-2023-05-31"

// BedrockClassifier invokes a Claude model hosted behind Bedrock, the
// alternate invocation path of SPEC_FULL.md §2.2 behind the same
// Classifier interface as AnthropicClassifier.
type BedrockClassifier struct {
	client  *bedrockruntime.Client
	modelID string
}

// NewBedrockClassifier builds a classifier bound to a Bedrock model id
// (e.g. "anthropic.claude-3-5-sonnet-20241022-v2:0").
func NewBedrockClassifier(client *bedrockruntime.Client, modelID string) *BedrockClassifier {
	return &BedrockClassifier{client: client, modelID: modelID}
}

type bedrockRequestBody struct {
	AnthropicVersion string              `json:"anthropic_version"`
	MaxTokens        int                 `json:"max_tokens"`
	Temperature      float64             `json:"temperature"`
	Messages         []bedrockRequestMsg `json:"messages"`
}

type bedrockRequestMsg struct {
	Role    string                `json:"role"`
	Content []bedrockContentBlock `json:"content"`
}

type bedrockContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type bedrockResponseBody struct {
	Content []bedrockContentBlock `json:"content"`
}

// Classify implements Classifier.
func (c *BedrockClassifier) Classify(ctx context.Context, input ClassificationInput) (ClassificationResult, error) {
	prompt := renderPrompt(input)

	body, err := json.Marshal(bedrockRequestBody{
		AnthropicVersion: bedrockAnthropicVersion,
		MaxTokens:        classifyMaxTokens,
		Temperature:      classifyTemperature,
		Messages: []bedrockRequestMsg{
			{Role: "user", Content: []bedrockContentBlock{{Type: "text", Text: prompt}}},
		},
	})
	if err != nil {
		return ClassificationResult{}, fmt.Errorf("bedrock: marshal request: %w", err)
	}

	metrics.RecordLLMCall("bedrock")
	timer := metrics.NewTimer()

	text, err := withRetry(ctx, func(attemptCtx context.Context) (string, error) {
		out, err := c.client.InvokeModel(attemptCtx, &bedrockruntime.InvokeModelInput{
			ModelId:     aws.String(c.modelID),
			Body:        body,
			ContentType: aws.String("application/json"),
			Accept:      aws.String("application/json"),
		})
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return "", fmt.Errorf("bedrock invoke model: timeout: %w", err)
			}
			return "", fmt.Errorf("bedrock invoke model: %w", err)
		}

		var parsed bedrockResponseBody
		if err := json.Unmarshal(out.Body, &parsed); err != nil {
			return "", fmt.Errorf("bedrock: decode response: %w", err)
		}
		for _, block := range parsed.Content {
			if block.Type == "text" {
				return block.Text, nil
			}
		}
		return "", errBedrockMissingTextOutput
	})
	metrics.LLMClassificationDuration.Observe(timer.Elapsed().Seconds())
	if err != nil {
		if errors.Is(err, errBedrockMissingTextOutput) {
			metrics.RecordLLMError("bedrock", "missing_text_output")
			return ClassificationResult{}, err
		}
		metrics.RecordLLMError("bedrock", "attempts_exhausted")
		return ClassificationResult{}, fmt.Errorf("%w: %v", errBedrockAttemptsExhausted, err)
	}

	raw, err := extractJSON(text)
	if err != nil {
		metrics.RecordLLMError("bedrock", "invalid_response")
		return ClassificationResult{}, err
	}
	return validateAndNormalize(raw)
}
