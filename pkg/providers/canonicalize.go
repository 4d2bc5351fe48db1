package providers

import (
	"net/url"
	"strings"
)

// Canonicalize strips the fragment and query string, removes a trailing
// slash unless the path is root, and preserves scheme/host/path.
// Canonicalize is idempotent per spec §8's invariant 6.
func Canonicalize(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	u.Fragment = ""
	u.RawQuery = ""
	if len(u.Path) > 1 {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}
	return u.String(), nil
}

// DedupeByCanonicalURL removes articles sharing a canonical URL,
// preserving first-seen order; idempotent on an already-deduped slice.
func DedupeByCanonicalURL(articles []NormalizedArticle) []NormalizedArticle {
	seen := make(map[string]struct{}, len(articles))
	out := make([]NormalizedArticle, 0, len(articles))
	for _, a := range articles {
		if _, ok := seen[a.CanonicalURL]; ok {
			continue
		}
		seen[a.CanonicalURL] = struct{}{}
		out = append(out, a)
	}
	return out
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max]
}
