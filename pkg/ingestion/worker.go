package ingestion

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/claro-ops/media-intel/internal/config"
	apperrors "github.com/claro-ops/media-intel/internal/errors"
	"github.com/claro-ops/media-intel/internal/objectstore"
	"github.com/claro-ops/media-intel/internal/store"
	"github.com/claro-ops/media-intel/pkg/metrics"
	"github.com/claro-ops/media-intel/pkg/providers"
	"github.com/claro-ops/media-intel/pkg/queryengine"
	"github.com/claro-ops/media-intel/pkg/shared/logging"
)

// maxConcurrentAdapters bounds the fan-out within one target to the
// size of the provider registry (spec §5: "fan-out bounded by the
// number of adapters, currently 6").
const maxConcurrentAdapters = 6

// Worker runs one ingestion dispatch end to end: claim, resolve
// targets, fan out per-target across providers, filter/dedupe/rank,
// and persist, per spec §4.3.
type Worker struct {
	store     store.Store
	registry  *providers.Registry
	objects   *objectstore.Store
	rawBucket string
	cfg       config.IngestionConfig
	logger    *zap.Logger
}

// NewWorker builds a Worker from its dependencies.
func NewWorker(s store.Store, registry *providers.Registry, objects *objectstore.Store, rawBucket string, cfg config.IngestionConfig, logger *zap.Logger) *Worker {
	return &Worker{store: s, registry: registry, objects: objects, rawBucket: rawBucket, cfg: cfg, logger: logger}
}

// Run executes one dispatched ingestion message.
func (w *Worker) Run(ctx context.Context, msg DispatchMessage) (RunResult, error) {
	timer := metrics.NewTimer()

	run, skip, err := claimRun(ctx, w.store, msg)
	if err != nil {
		return RunResult{}, err
	}
	if skip != "" {
		w.logger.Info("ingestion run skipped",
			logging.IngestionFields("claim", run.ID.String()).Custom("reason", string(skip)).ToZapFields()...)
		return RunResult{RunID: run.ID, Status: run.Status, Skipped: skip}, nil
	}

	result, runErr := w.execute(ctx, run, msg)

	finish := &store.IngestionRun{
		ID:        run.ID,
		Status:    store.RunStatusCompleted,
		StartedAt: run.StartedAt,
	}
	if runErr != nil {
		finish.Status = store.RunStatusFailed
		finish.ErrorMessage = runErr.Error()
	}
	if runMetrics, mErr := json.Marshal(result.ItemsByProvider); mErr == nil {
		finish.Metrics = runMetrics
	}
	if err := w.store.FinishIngestionRun(ctx, finish); err != nil {
		return result, fmt.Errorf("ingestion: finish run %s: %w", run.ID, err)
	}

	metrics.RecordIngestionRun(string(finish.Status), timer.Elapsed())

	result.RunID = run.ID
	result.Status = finish.Status
	return result, runErr
}

func (w *Worker) execute(ctx context.Context, run *store.IngestionRun, msg DispatchMessage) (RunResult, error) {
	result := RunResult{ItemsByProvider: make(map[string]ProviderOutcome)}

	targets, err := resolveTargets(ctx, w.store, w.cfg, msg)
	if err != nil {
		return result, err
	}
	if len(targets) == 0 {
		return result, nil
	}

	for i := range targets {
		outcome, persisted, err := w.runTarget(ctx, run, string(msg.TriggerType), &targets[i])
		if err != nil {
			return result, fmt.Errorf("ingestion: target %q: %w", targets[i].name, err)
		}
		for provider, o := range outcome {
			agg := result.ItemsByProvider[provider]
			agg.FetchedCount += o.FetchedCount
			agg.PersistedCount += o.PersistedCount
			agg.LatencyMs += o.LatencyMs
			agg.Status = o.Status
			if o.ErrorMessage != "" {
				agg.ErrorMessage = o.ErrorMessage
			}
			result.ItemsByProvider[provider] = agg
		}
		result.PersistedTotal += persisted
	}

	items := make([]store.IngestionRunItem, 0, len(result.ItemsByProvider))
	for provider, o := range result.ItemsByProvider {
		items = append(items, store.IngestionRunItem{
			RunID:          run.ID,
			Provider:       provider,
			FetchedCount:   o.FetchedCount,
			PersistedCount: o.PersistedCount,
			LatencyMs:      o.LatencyMs,
			Status:         o.Status,
			ErrorMessage:   o.ErrorMessage,
		})
	}
	if err := w.store.ReplaceIngestionRunItems(ctx, run.ID, items); err != nil {
		return result, fmt.Errorf("ingestion: replace run items: %w", err)
	}

	return result, nil
}

// runTarget fans the target's selected providers out concurrently,
// evaluates+dedupes+ranks the combined results, writes the raw
// snapshot, and persists the surviving content items.
func (w *Worker) runTarget(ctx context.Context, run *store.IngestionRun, trigger string, t *target) (map[string]ProviderOutcome, int, error) {
	exec := queryengine.SanitizeExecution(t.execution)
	selected := queryengine.SelectProviders(w.registry.Names(), exec.ProvidersAllow, exec.ProvidersDeny)

	outcomes := make(map[string]ProviderOutcome, len(selected))
	if len(selected) == 0 {
		return outcomes, 0, nil
	}

	fetchResults := make([]providers.ProviderFetchResult, len(selected))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentAdapters)

	for i, name := range selected {
		i, name := i, name
		adapter, ok := w.registry.Get(name)
		if !ok {
			continue
		}
		g.Go(func() error {
			fetchResults[i] = adapter.Fetch(gctx, providers.FetchRequest{
				Term:     t.name,
				Language: t.language,
				Max:      t.maxArticlesPerRun,
			})
			return nil
		})
	}
	_ = g.Wait() // adapter.Fetch never returns an error itself; failures are carried in ProviderFetchResult

	var all []providers.NormalizedArticle
	for _, r := range fetchResults {
		if r.Provider == "" {
			continue
		}
		status := statusFor(r)
		outcomes[r.Provider] = ProviderOutcome{
			FetchedCount: r.RawCount,
			LatencyMs:    r.DurationMs,
			Status:       status,
			ErrorMessage: r.Error,
		}
		metrics.RecordProviderFetch(r.Provider, status)
		all = append(all, r.Items...)
	}

	if _, err := writeSnapshot(ctx, w.objects, w.rawBucket, run.ID, trigger, *t, fetchResults); err != nil {
		w.logger.Warn("ingestion snapshot write failed",
			logging.IngestionFields("snapshot", run.ID.String()).Error(err).ToZapFields()...)
	}

	ranked := queryengine.ApplyPipeline(t.definition, exec, all, t.maxArticlesPerRun)

	termID, err := w.ensureTrackedQuery(ctx, t)
	if err != nil {
		return outcomes, 0, err
	}

	links, err := w.persistItems(ctx, termID, t.name, ranked)
	if err != nil {
		return outcomes, 0, err
	}

	newlyLinked, err := w.store.LinkIngestionRunContent(ctx, run.ID, links)
	if err != nil {
		return outcomes, 0, fmt.Errorf("ingestion: link run content: %w", err)
	}

	attributePersistedCounts(outcomes, newlyLinked)

	return outcomes, len(newlyLinked), nil
}

// attributePersistedCounts sets each provider's PersistedCount from the
// links LinkIngestionRunContent actually inserted, not from the full
// ranked set: the same canonical URL can be returned by more than one
// provider within a run, and only the first insert for that URL
// survives the (run_id, canonical_url) uniqueness constraint.
func attributePersistedCounts(outcomes map[string]ProviderOutcome, newlyLinked []store.IngestionRunContentLink) {
	counts := make(map[string]int, len(outcomes))
	for _, link := range newlyLinked {
		counts[link.Provider]++
	}
	for provider, o := range outcomes {
		o.PersistedCount = counts[provider]
		outcomes[provider] = o
	}
}

func statusFor(r providers.ProviderFetchResult) string {
	if r.Error != "" {
		return "error"
	}
	return "ok"
}

// ensureTrackedQuery resolves the term id every ContentItem and
// IngestionRunContentLink needs: look the row up by name+language
// first so an ad-hoc or fallback-resolved term is reused across runs
// instead of minting a new revision each time; only upsert when no row
// exists yet.
func (w *Worker) ensureTrackedQuery(ctx context.Context, t *target) (uuid.UUID, error) {
	if t.queryID != nil {
		return *t.queryID, nil
	}

	existing, err := w.store.GetTrackedQueryByNameLanguage(ctx, t.name, t.language)
	if err == nil {
		t.queryID = &existing.ID
		return existing.ID, nil
	}
	if !apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
		return uuid.Nil, fmt.Errorf("ingestion: lookup tracked query %q/%s: %w", t.name, t.language, err)
	}

	q := &store.TrackedQuery{
		Name:               t.name,
		Language:           t.language,
		Scope:              store.TaxonomyScopeClaro,
		IsActive:           true,
		MaxArticlesPerRun:  t.maxArticlesPerRun,
		Definition:         t.definition,
		Execution:          t.execution,
		CompiledDefinition: queryengine.Compile(t.definition),
	}
	if err := w.store.UpsertTrackedQuery(ctx, q, "ad-hoc term auto-registration", ""); err != nil {
		return uuid.Nil, fmt.Errorf("ingestion: upsert ad-hoc tracked query %q: %w", t.name, err)
	}
	t.queryID = &q.ID
	return q.ID, nil
}

func (w *Worker) persistItems(ctx context.Context, termID uuid.UUID, termName string, items []providers.NormalizedArticle) ([]store.IngestionRunContentLink, error) {
	links := make([]store.IngestionRunContentLink, 0, len(items))

	for _, item := range items {
		ci := &store.ContentItem{
			CanonicalURL: item.CanonicalURL,
			SourceType:   store.SourceTypeNews,
			Provider:     item.Provider,
			SourceName:   item.SourceName,
			SourceID:     item.SourceID,
			Title:        item.Title,
			Summary:      item.Summary,
			Content:      item.Content,
			ImageURL:     item.ImageURL,
			Language:     item.Language,
			Category:     item.Category,
			PublishedAt:  item.PublishedAt,
			State:        store.ContentStateActive,
		}
		if termID != uuid.Nil {
			id := termID
			ci.TermID = &id
		}

		id, err := w.store.UpsertContentItem(ctx, ci)
		if err != nil {
			return links, fmt.Errorf("ingestion: upsert content item %q: %w", item.CanonicalURL, err)
		}

		links = append(links, store.IngestionRunContentLink{
			ContentItemID: id,
			CanonicalURL:  item.CanonicalURL,
			Provider:      item.Provider,
			Term:          termName,
		})
	}

	return links, nil
}
