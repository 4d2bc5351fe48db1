package providers

import "sort"

// Credentials holds the per-provider API keys the registry needs to
// construct adapters; GDELT requires none.
type Credentials struct {
	NewsAPIKey    string
	BingNewsKey   string
	MediastackKey string
	NewsdataKey   string
	GNewsKey      string
}

// Registry holds every configured adapter, keyed by provider name, for
// the ingestion worker's per-target fan-out (spec §4.3).
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry builds the fixed six-adapter set of spec §5 ("fan-out
// bounded by the number of adapters, currently 6"). An adapter whose key
// is empty is still registered so ingestion runs against an empty
// credential show up as an auth-classified fetch failure rather than a
// silently missing provider.
func NewRegistry(creds Credentials) *Registry {
	adapters := []Adapter{
		NewNewsAPIAdapter(creds.NewsAPIKey),
		NewGDELTAdapter(),
		NewBingNewsAdapter(creds.BingNewsKey),
		NewMediastackAdapter(creds.MediastackKey),
		NewNewsdataAdapter(creds.NewsdataKey),
		NewGNewsAdapter(creds.GNewsKey),
	}

	r := &Registry{adapters: make(map[string]Adapter, len(adapters))}
	for _, a := range adapters {
		r.adapters[a.Name()] = a
	}
	return r
}

// Get returns the adapter registered under name, if any.
func (r *Registry) Get(name string) (Adapter, bool) {
	a, ok := r.adapters[name]
	return a, ok
}

// Select returns the adapters allowed by the given allow/deny lists, per
// spec §4.1's provider selection rule: an empty allow list means "all
// registered providers", and deny always wins over allow.
func (r *Registry) Select(allow, deny []string) []Adapter {
	denySet := toSet(deny)

	var names []string
	if len(allow) == 0 {
		for name := range r.adapters {
			names = append(names, name)
		}
	} else {
		names = allow
	}
	sort.Strings(names)

	out := make([]Adapter, 0, len(names))
	for _, name := range names {
		if _, denied := denySet[name]; denied {
			continue
		}
		if a, ok := r.adapters[name]; ok {
			out = append(out, a)
		}
	}
	return out
}

// Names returns every registered provider name, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}
