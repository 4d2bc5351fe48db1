package incident

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/claro-ops/media-intel/internal/config"
	"github.com/claro-ops/media-intel/internal/store"
	appmetrics "github.com/claro-ops/media-intel/pkg/metrics"
	"github.com/claro-ops/media-intel/pkg/shared/logging"
)

// evaluationWindow is the fixed lookback spec §4.5 scans every pass.
const evaluationWindow = 7 * 24 * time.Hour

// maxErrorMessageLen bounds the errorMessage persisted on a failed run.
const maxErrorMessageLen = 2000

var scopes = []store.TaxonomyKind{store.TaxonomyScopeClaro, store.TaxonomyScopeCompetencia}

// Evaluator runs one pass of the incident evaluator end to end.
type Evaluator struct {
	store  store.Store
	cfg    config.AlertConfig
	logger *zap.Logger
}

// NewEvaluator builds an Evaluator from its dependencies.
func NewEvaluator(s store.Store, cfg config.AlertConfig, logger *zap.Logger) *Evaluator {
	return &Evaluator{store: s, cfg: cfg, logger: logger}
}

// Run scans the evaluation window, aggregates risk per scope, and
// drives each scope's state machine, recording one IncidentEvaluationRun.
func (e *Evaluator) Run(ctx context.Context, trigger store.TriggerType) (RunMetrics, error) {
	run := &store.IncidentEvaluationRun{TriggerType: trigger, Status: store.RunStatusRunning}
	if err := e.store.CreateIncidentEvaluationRun(ctx, run); err != nil {
		return RunMetrics{}, fmt.Errorf("incident: create evaluation run: %w", err)
	}

	metrics, runErr := e.evaluate(ctx)

	finishRun := &store.IncidentEvaluationRun{ID: run.ID, Status: store.RunStatusCompleted}
	if runErr != nil {
		finishRun.Status = store.RunStatusFailed
		finishRun.ErrorMessage = truncateError(runErr)
	}
	if body, mErr := json.Marshal(metrics); mErr == nil {
		finishRun.Metrics = body
	}
	if err := e.store.FinishIncidentEvaluationRun(ctx, finishRun); err != nil {
		return metrics, fmt.Errorf("incident: finish evaluation run %s: %w", run.ID, err)
	}

	return metrics, runErr
}

func (e *Evaluator) evaluate(ctx context.Context) (RunMetrics, error) {
	windowStart := time.Now().Add(-evaluationWindow)

	items, err := e.store.ListActiveNewsForEvaluation(ctx, windowStart)
	if err != nil {
		return RunMetrics{}, fmt.Errorf("incident: list active news: %w", err)
	}

	signals := make(map[store.TaxonomyKind]*scopeSignal, len(scopes))
	classifiedItems := make(map[store.TaxonomyKind]int, len(scopes))
	for _, scope := range scopes {
		signals[scope] = &scopeSignal{}
	}

	for _, item := range items {
		if item.TermID == nil {
			continue
		}
		query, err := e.store.GetTrackedQuery(ctx, *item.TermID)
		if err != nil {
			continue
		}
		signal, ok := signals[query.Scope]
		if !ok {
			continue
		}

		classification, err := e.store.GetLatestClassification(ctx, item.ID)
		if err != nil {
			signal.unknown++
			continue
		}

		weight := e.weightFor(ctx, item)
		classifiedItems[query.Scope]++
		signal.classifiedWeight += weight

		switch classification.Sentimiento {
		case store.SentimentPositivo:
			signal.positives++
		case store.SentimentNegativo:
			signal.negatives++
			signal.negativeWeight += weight
		case store.SentimentNeutro:
			signal.neutrals++
		default:
			signal.unknown++
		}
	}

	cooldown := clampCooldown(e.cfg.CooldownMinutes)
	metrics := RunMetrics{
		CooldownMinutes: cooldown,
		SignalVersion:   e.cfg.SignalVersion,
		PerScope:        make(map[string]ScopeMetrics, len(scopes)),
	}

	for _, scope := range scopes {
		signal := signals[scope]
		riskWeighted := 100 * signal.negativeWeight / max(signal.classifiedWeight, 1e-4)
		severity := severityFor(riskWeighted)

		outcome, err := e.driveScope(ctx, scope, severity, riskWeighted, classifiedItems[scope], cooldown, signal)
		if err != nil {
			return metrics, fmt.Errorf("incident: drive scope %s: %w", scope, err)
		}

		switch outcome {
		case OutcomeCreated:
			metrics.CreatedCount++
		case OutcomeEscalated:
			metrics.EscalatedCount++
		case OutcomeDeduped:
			metrics.DedupedCount++
		case OutcomeSkippedSev:
			metrics.SkippedSEV4Count++
		}
		appmetrics.RecordIncidentOutcome(string(scope), string(severity), string(outcome))

		metrics.PerScope[string(scope)] = ScopeMetrics{
			RiskWeighted:     riskWeighted,
			ClassifiedWeight: signal.classifiedWeight,
			NegativeWeight:   signal.negativeWeight,
			Positives:        signal.positives,
			Negatives:        signal.negatives,
			Neutrals:         signal.neutrals,
			Unknown:          signal.unknown,
			Outcome:          outcome,
		}

		e.logger.Info("incident scope evaluated",
			logging.NewFields().Component("incident").Operation("evaluate").
				Custom("scope", string(scope)).Custom("riskWeighted", riskWeighted).
				Custom("severity", string(severity)).Custom("outcome", string(outcome)).ToZapFields()...)
	}

	return metrics, nil
}

// weightFor resolves the first non-null credibility weight in spec
// §4.5's fallback chain: SourceWeight(provider, sourceName), then
// SourceWeight(provider, null), then the item's own sourceScore, then
// the global default of 0.5.
func (e *Evaluator) weightFor(ctx context.Context, item store.ContentItem) float64 {
	if item.SourceName != "" {
		if w, err := e.store.GetSourceWeight(ctx, item.Provider, &item.SourceName); err == nil && w != nil {
			return w.Weight
		}
	}
	if w, err := e.store.GetSourceWeight(ctx, item.Provider, nil); err == nil && w != nil {
		return w.Weight
	}
	if item.SourceScore > 0 {
		return item.SourceScore
	}
	return 0.5
}

func max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func truncateError(err error) string {
	msg := err.Error()
	if len(msg) > maxErrorMessageLen {
		return msg[:maxErrorMessageLen]
	}
	return msg
}
