package queryengine

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/claro-ops/media-intel/internal/store"
	"github.com/claro-ops/media-intel/pkg/providers"
)

// Evaluate reports whether a normalized article matches a Definition:
// every include term matches, no exclude term matches, and (any is
// empty or at least one any-term matches). Matching runs against the
// lower-cased concatenation of provider, title, summary, content and
// canonical host.
func Evaluate(def store.Definition, article providers.NormalizedArticle) bool {
	haystack := strings.ToLower(strings.Join([]string{
		article.Provider,
		article.Title,
		article.Summary,
		article.Content,
		canonicalHost(article.CanonicalURL),
	}, " "))

	for _, term := range def.Include {
		if !matches(haystack, term) {
			return false
		}
	}

	for _, term := range def.Exclude {
		if matches(haystack, term) {
			return false
		}
	}

	if len(def.Any) == 0 {
		return true
	}
	for _, term := range def.Any {
		if matches(haystack, term) {
			return true
		}
	}
	return false
}

func canonicalHost(canonicalURL string) string {
	u, err := url.Parse(canonicalURL)
	if err != nil {
		return ""
	}
	return u.Host
}

func matches(haystack string, term store.Term) bool {
	value := strings.ToLower(strings.TrimSpace(term.Value))
	if value == "" {
		return false
	}
	if term.IsPhrase {
		return strings.Contains(haystack, value)
	}
	return wholeWordMatch(haystack, value)
}

func wholeWordMatch(haystack, word string) bool {
	pattern := `(?:^|\W)` + regexp.QuoteMeta(word) + `(?:$|\W)`
	matched, err := regexp.MatchString(pattern, haystack)
	return err == nil && matched
}
