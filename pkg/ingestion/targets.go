package ingestion

import (
	"context"
	"fmt"
	"strings"

	"github.com/claro-ops/media-intel/internal/config"
	"github.com/claro-ops/media-intel/internal/store"
)

// resolveTargets implements spec §4.3's target-resolution fallback
// chain: manual ad-hoc terms, then explicit termIds, then the fallback
// of active tracked queries, then the environment's default-terms
// list. Targets are deduplicated by id (when resolved from a stored
// query) or by lower(name)+"::"+lower(language) for ad-hoc ones, first
// occurrence wins.
func resolveTargets(ctx context.Context, s store.Store, cfg config.IngestionConfig, msg DispatchMessage) ([]target, error) {
	var targets []target

	for _, term := range msg.Terms {
		targets = append(targets, adHocTarget(term, msg.Language, msg.MaxArticlesPerTerm, cfg))
	}

	for _, id := range msg.TermIDs {
		q, err := s.GetTrackedQuery(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("ingestion: resolve term id %s: %w", id, err)
		}
		targets = append(targets, targetFromQuery(*q))
	}

	if len(targets) == 0 {
		queries, err := s.ListActiveTrackedQueries(ctx, cfg.MaxFallbackQueries)
		if err != nil {
			return nil, fmt.Errorf("ingestion: list active tracked queries: %w", err)
		}
		for _, q := range queries {
			targets = append(targets, targetFromQuery(q))
		}
	}

	if len(targets) == 0 {
		for _, term := range cfg.DefaultTerms {
			targets = append(targets, adHocTarget(term, msg.Language, msg.MaxArticlesPerTerm, cfg))
		}
	}

	return dedupeTargets(targets), nil
}

func adHocTarget(term, language string, requestedMax int, cfg config.IngestionConfig) target {
	maxPerRun := cfg.MaxArticlesPerTerm
	if maxPerRun < 2 {
		maxPerRun = 2
	}
	return target{
		name:     term,
		language: language,
		definition: store.Definition{
			Include: []store.Term{{Value: term, IsPhrase: strings.Contains(term, " ")}},
		},
		execution:         store.ExecutionConfig{},
		maxArticlesPerRun: effectiveMax(requestedMax, maxPerRun),
	}
}

func targetFromQuery(q store.TrackedQuery) target {
	id := q.ID
	maxPerRun := q.MaxArticlesPerRun
	if maxPerRun < 2 {
		maxPerRun = 2
	}
	return target{
		queryID:           &id,
		name:              q.Name,
		language:          q.Language,
		definition:        q.Definition,
		execution:         q.Execution,
		maxArticlesPerRun: maxPerRun,
	}
}

// effectiveMax is M = min(requestedMax, target.maxArticlesPerRun),
// clamped to a floor of 2 articles per spec §4.3's news-item minimum.
func effectiveMax(requestedMax, targetMax int) int {
	m := targetMax
	if requestedMax > 0 && requestedMax < m {
		m = requestedMax
	}
	if m < 2 {
		m = 2
	}
	return m
}

func dedupeTargets(targets []target) []target {
	seen := make(map[string]struct{}, len(targets))
	out := make([]target, 0, len(targets))
	for _, t := range targets {
		key := t.dedupeKey()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	return out
}

func lower(s string) string {
	return strings.ToLower(s)
}
