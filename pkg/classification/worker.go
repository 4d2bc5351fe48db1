package classification

import (
	"context"
	"fmt"

	apperrors "github.com/claro-ops/media-intel/internal/errors"
	"github.com/claro-ops/media-intel/internal/store"
	"github.com/claro-ops/media-intel/pkg/llm"
	"github.com/claro-ops/media-intel/pkg/metrics"
)

// Worker runs one dispatched classification message end to end per
// spec §4.4.
type Worker struct {
	store      store.Store
	classifier llm.Classifier
}

// NewWorker builds a Worker from its dependencies.
func NewWorker(s store.Store, classifier llm.Classifier) *Worker {
	return &Worker{store: s, classifier: classifier}
}

// Run classifies one content item, honoring any manual override.
func (w *Worker) Run(ctx context.Context, msg DispatchMessage) (Outcome, error) {
	timer := metrics.NewTimer()

	if _, err := w.store.GetManualOverride(ctx, msg.ContentItemID); err == nil {
		metrics.RecordClassificationRun(string(OutcomeSkippedOverride), timer.Elapsed())
		return OutcomeSkippedOverride, nil
	} else if !apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
		return "", fmt.Errorf("classification: check manual override for %s: %w", msg.ContentItemID, err)
	}

	item, err := w.store.GetContentItem(ctx, msg.ContentItemID)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			metrics.RecordClassificationRun(string(OutcomeSkippedNotFound), timer.Elapsed())
			return OutcomeSkippedNotFound, nil
		}
		return "", fmt.Errorf("classification: load content item %s: %w", msg.ContentItemID, err)
	}

	input := llm.ClassificationInput{
		ContentItemID: item.ID.String(),
		Title:         item.Title,
		Summary:       item.Summary,
		Content:       item.Content,
		Provider:      item.Provider,
		Language:      item.Language,
		PromptVersion: msg.PromptVersion,
		ModelID:       msg.ModelID,
	}

	result, err := w.classifier.Classify(ctx, input)
	if err != nil {
		return "", fmt.Errorf("classification: classify %s: %w", msg.ContentItemID, err)
	}

	c := &store.Classification{
		ContentItemID: item.ID,
		PromptVersion: msg.PromptVersion,
		ModelID:       msg.ModelID,
		Categoria:     result.Categoria,
		Sentimiento:   store.Sentiment(result.Sentimiento),
		Etiquetas:     result.Etiquetas,
		Confianza:     result.Confianza,
		Resumen:       result.Resumen,
	}
	if err := w.store.UpsertClassification(ctx, c); err != nil {
		return "", fmt.Errorf("classification: upsert result for %s: %w", msg.ContentItemID, err)
	}

	metrics.RecordClassifiedItem(string(c.Sentimiento))
	metrics.RecordClassificationRun(string(OutcomeClassified), timer.Elapsed())
	return OutcomeClassified, nil
}
