package queryengine

import (
	"sort"
	"strings"

	"github.com/claro-ops/media-intel/internal/store"
)

// maxExecutionListSize is the per-list cap of spec §4.1's sanitization
// rule, applied after trim/lower/dedupe.
const maxExecutionListSize = 50

// SanitizeExecution coerces every list in an ExecutionConfig to
// trimmed, lower-cased, deduplicated entries capped at 50 per list.
// Order of first appearance is preserved.
func SanitizeExecution(cfg store.ExecutionConfig) store.ExecutionConfig {
	return store.ExecutionConfig{
		ProvidersAllow: sanitizeList(cfg.ProvidersAllow),
		ProvidersDeny:  sanitizeList(cfg.ProvidersDeny),
		DomainsAllow:   sanitizeList(cfg.DomainsAllow),
		DomainsDeny:    sanitizeList(cfg.DomainsDeny),
		CountriesAllow: sanitizeList(cfg.CountriesAllow),
		CountriesDeny:  sanitizeList(cfg.CountriesDeny),
	}
}

func sanitizeList(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, raw := range items {
		v := strings.ToLower(strings.TrimSpace(raw))
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
		if len(out) == maxExecutionListSize {
			break
		}
	}
	return out
}

// SelectProviders returns the adapter names from available that are not
// in providersDeny and, if providersAllow is non-empty, also present in
// providersAllow. An empty result means the query is reported as
// skipped for this run (§4.1).
func SelectProviders(available []string, providersAllow, providersDeny []string) []string {
	denySet := toSet(providersDeny)
	allowSet := toSet(providersAllow)

	out := make([]string, 0, len(available))
	for _, name := range available {
		if _, denied := denySet[name]; denied {
			continue
		}
		if len(allowSet) > 0 {
			if _, allowed := allowSet[name]; !allowed {
				continue
			}
		}
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}

// MatchesHostLists reports whether host satisfies a domains allow/deny
// pair: deny always wins, an empty allow list means "any host allowed".
func MatchesHostLists(host string, domainsAllow, domainsDeny []string) bool {
	host = strings.ToLower(host)
	for _, deny := range domainsDeny {
		if host == deny || strings.HasSuffix(host, "."+deny) {
			return false
		}
	}
	if len(domainsAllow) == 0 {
		return true
	}
	for _, allow := range domainsAllow {
		if host == allow || strings.HasSuffix(host, "."+allow) {
			return true
		}
	}
	return false
}
