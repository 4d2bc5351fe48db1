package report

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/claro-ops/media-intel/internal/store"
)

const reportWindow = 7 * 24 * time.Hour

// topContentLimit is spec §4.6 step 3's "top content ... (limit 12)".
const topContentLimit = 12

// maxIncidentListPages bounds the active-incident count scan so a
// runaway incident backlog can never turn this into an unbounded loop.
const maxIncidentListPages = 50

// templateFilters mirrors spec §4.6 step 7's restricted filter field
// whitelist as it is stored on a ReportTemplate.
type templateFilters struct {
	SourceType  *store.SourceType  `json:"source_type,omitempty"`
	State       *store.ContentState `json:"state,omitempty"`
	From        *time.Time         `json:"from,omitempty"`
	To          *time.Time         `json:"to,omitempty"`
	Provider    *string            `json:"provider,omitempty"`
	Category    *string            `json:"category,omitempty"`
	Sentimiento *string            `json:"sentimiento,omitempty"`
	TermID      *uuid.UUID         `json:"term_id,omitempty"`
	Query       *string            `json:"q,omitempty"`
}

func (f templateFilters) toContentItemFilter() store.ContentItemFilter {
	return store.ContentItemFilter{
		SourceType:  f.SourceType,
		State:       f.State,
		From:        f.From,
		To:          f.To,
		Provider:    f.Provider,
		Category:    f.Category,
		Sentimiento: f.Sentimiento,
		TermID:      f.TermID,
		Query:       f.Query,
	}
}

// aggregateWindow computes spec §4.6 step 3's monitor KPI overview,
// active-incident count, and top content, then derives the BHS,
// riesgoActivo and SOV-claro inputs the confidence formula needs.
func (w *Worker) aggregateWindow(ctx context.Context, template *store.ReportTemplate) (aggregate, error) {
	now := time.Now()
	windowStart := now.Add(-reportWindow)
	previousWindowStart := windowStart.Add(-reportWindow)

	current, err := w.scanWindow(ctx, windowStart, now)
	if err != nil {
		return aggregate{}, fmt.Errorf("report: scan current window: %w", err)
	}
	previous, err := w.scanWindow(ctx, previousWindowStart, windowStart)
	if err != nil {
		return aggregate{}, fmt.Errorf("report: scan previous window: %w", err)
	}

	activeIncidents, err := w.countActiveIncidents(ctx)
	if err != nil {
		return aggregate{}, fmt.Errorf("report: count active incidents: %w", err)
	}

	top, err := w.listTopContent(ctx, template, windowStart, now)
	if err != nil {
		return aggregate{}, fmt.Errorf("report: list top content: %w", err)
	}

	agg := aggregate{
		scopeTotals:             current.scopeTotals,
		itemsTotal:              current.itemsTotal,
		classifiedTotal:         current.classifiedTotal,
		previousItemsTotal:      previous.itemsTotal,
		previousClassifiedTotal: previous.classifiedTotal,
		activeIncidents:         activeIncidents,
		topContent:              top,
	}

	claro := agg.scopeTotals[string(store.TaxonomyScopeClaro)]
	agg.bhs = clamp(50+50*float64(claro.positives-claro.negatives)/float64(maxInt(claro.classified, 1)), 0, 100)
	agg.riesgoActivo = w.riskForScope(ctx, store.TaxonomyScopeClaro)
	if agg.classifiedTotal > 0 {
		agg.sovClaro = 100 * float64(claro.classified) / float64(agg.classifiedTotal)
	}

	return agg, nil
}

type windowScan struct {
	scopeTotals     map[string]scopeTotals
	itemsTotal      int
	classifiedTotal int
}

// scanWindow paginates every active news item published in
// [from, to), resolving each item's taxonomy scope through its tracked
// query and folding it into per-scope totals using the denormalized
// categoria/sentimiento columns content_items already carries.
func (w *Worker) scanWindow(ctx context.Context, from, to time.Time) (windowScan, error) {
	scan := windowScan{scopeTotals: map[string]scopeTotals{
		string(store.TaxonomyScopeClaro):       {},
		string(store.TaxonomyScopeCompetencia): {},
	}}

	state := store.ContentStateActive
	sourceType := store.SourceTypeNews
	filter := store.ContentItemFilter{State: &state, SourceType: &sourceType, From: &from, To: &to}

	scopeCache := make(map[uuid.UUID]store.TaxonomyKind)
	page := store.PageRequest{PageSize: store.MaxPageSize}

	for {
		result, err := w.store.ListContentItems(ctx, filter, page)
		if err != nil {
			return scan, err
		}

		for _, item := range result.Items {
			scan.itemsTotal++

			scope := store.TaxonomyScopeClaro
			if item.TermID != nil {
				if cached, ok := scopeCache[*item.TermID]; ok {
					scope = cached
				} else if q, err := w.store.GetTrackedQuery(ctx, *item.TermID); err == nil {
					scope = q.Scope
					scopeCache[*item.TermID] = scope
				}
			}

			totals := scan.scopeTotals[string(scope)]
			totals.items++
			if item.Sentimiento != "" {
				scan.classifiedTotal++
				totals.classified++
				switch store.Sentiment(item.Sentimiento) {
				case store.SentimentPositivo:
					totals.positives++
				case store.SentimentNegativo:
					totals.negatives++
				case store.SentimentNeutro:
					totals.neutrals++
				}
			}
			scan.scopeTotals[string(scope)] = totals
		}

		if !result.HasMore {
			break
		}
		page.After = result.NextCursor
	}

	return scan, nil
}

// countActiveIncidents paginates spec §4.6 step 3's active-incident
// count across both scopes.
func (w *Worker) countActiveIncidents(ctx context.Context) (int, error) {
	filter := store.IncidentFilter{Statuses: []store.IncidentStatus{
		store.IncidentStatusOpen, store.IncidentStatusAcknowledged, store.IncidentStatusInProgress,
	}}
	page := store.PageRequest{PageSize: store.MaxPageSize}

	count := 0
	for i := 0; i < maxIncidentListPages; i++ {
		result, err := w.store.ListIncidents(ctx, filter, page)
		if err != nil {
			return 0, err
		}
		count += len(result.Items)
		if !result.HasMore {
			break
		}
		page.After = result.NextCursor
	}
	return count, nil
}

// listTopContent applies the template's restricted filters and returns
// its first topContentLimit matches in the window.
func (w *Worker) listTopContent(ctx context.Context, template *store.ReportTemplate, from, to time.Time) ([]topContentItem, error) {
	var tf templateFilters
	if len(template.Filters) > 0 {
		if err := json.Unmarshal(template.Filters, &tf); err != nil {
			return nil, fmt.Errorf("unmarshal template filters: %w", err)
		}
	}
	filter := tf.toContentItemFilter()
	if filter.From == nil {
		filter.From = &from
	}
	if filter.To == nil {
		filter.To = &to
	}

	result, err := w.store.ListContentItems(ctx, filter, store.PageRequest{PageSize: topContentLimit})
	if err != nil {
		return nil, err
	}

	top := make([]topContentItem, 0, len(result.Items))
	for _, item := range result.Items {
		top = append(top, topContentItem{
			ID: item.ID, Title: item.Title, Provider: item.Provider,
			PublishedAt: item.PublishedAt, Sentimiento: item.Sentimiento,
		})
	}
	return top, nil
}

// riskForScope reads the scope's currently active incident's risk
// score, standing in for spec §4.6's "riesgoActivo" (no active
// incident means zero active risk).
func (w *Worker) riskForScope(ctx context.Context, scope store.TaxonomyKind) float64 {
	incident, err := w.store.GetActiveIncidentForScope(ctx, scope)
	if err != nil || incident == nil {
		return 0
	}
	return incident.RiskScore
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
