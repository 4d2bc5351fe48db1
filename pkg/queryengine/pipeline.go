package queryengine

import (
	"net/url"
	"sort"
	"strings"

	"github.com/claro-ops/media-intel/internal/store"
	"github.com/claro-ops/media-intel/pkg/providers"
)

// ApplyPipeline runs the per-target selection steps of spec §4.3 (ii)-(iv)
// over one adapter's raw fetch items, given the target's compiled
// Definition and sanitized ExecutionConfig: keep items the evaluator
// matches and the execution filters allow, dedupe by canonical URL, sort
// by PublishedAt descending then CanonicalURL ascending, and take the
// first max items. max <= 0 means unlimited.
func ApplyPipeline(def store.Definition, exec store.ExecutionConfig, items []providers.NormalizedArticle, max int) []providers.NormalizedArticle {
	filtered := make([]providers.NormalizedArticle, 0, len(items))
	for _, item := range items {
		if !Evaluate(def, item) {
			continue
		}
		if !passesExecutionFilters(exec, item) {
			continue
		}
		filtered = append(filtered, item)
	}

	deduped := providers.DedupeByCanonicalURL(filtered)

	sort.SliceStable(deduped, func(i, j int) bool {
		if !deduped[i].PublishedAt.Equal(deduped[j].PublishedAt) {
			return deduped[i].PublishedAt.After(deduped[j].PublishedAt)
		}
		return deduped[i].CanonicalURL < deduped[j].CanonicalURL
	})

	if max > 0 && len(deduped) > max {
		deduped = deduped[:max]
	}
	return deduped
}

func passesExecutionFilters(exec store.ExecutionConfig, item providers.NormalizedArticle) bool {
	u, err := url.Parse(item.CanonicalURL)
	if err != nil {
		return false
	}
	if !MatchesHostLists(u.Host, exec.DomainsAllow, exec.DomainsDeny) {
		return false
	}

	country := strings.ToLower(item.Metadata["country"])
	if country == "" {
		return true
	}
	return matchesCountryLists(country, exec.CountriesAllow, exec.CountriesDeny)
}

func matchesCountryLists(country string, allow, deny []string) bool {
	for _, d := range deny {
		if country == d {
			return false
		}
	}
	if len(allow) == 0 {
		return true
	}
	for _, a := range allow {
		if country == a {
			return true
		}
	}
	return false
}
