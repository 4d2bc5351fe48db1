// Package llm implements the Classification Worker's model call of spec
// §4.4 steps 3-6: prompt rendering, invocation against either Anthropic's
// API or Bedrock-hosted Claude behind a single Classifier interface,
// response extraction and field validation/normalization.
package llm

import "context"

// ClassificationInput is the per-content-item payload the Classification
// Worker has already loaded and truncated (spec §4.4 step 2) before
// rendering it into a prompt.
type ClassificationInput struct {
	ContentItemID string
	Title         string
	Summary       string
	Content       string
	Provider      string
	Language      string
	PromptVersion string
	ModelID       string
}

// ClassificationResult is the validated output of one Classify call,
// ready to upsert as a store.Classification.
type ClassificationResult struct {
	Categoria   string
	Sentimiento string
	Etiquetas   []string
	Confianza   float64
	Resumen     string
}

// Classifier is the model-agnostic contract the worker depends on; both
// the Anthropic and Bedrock clients implement it.
type Classifier interface {
	Classify(ctx context.Context, input ClassificationInput) (ClassificationResult, error)
}

const (
	titleBudget   = 500
	summaryBudget = 1200
	contentBudget = 9000

	classifyTemperature = 0.1
	classifyMaxTokens   = 800
)
