// Package queryengine implements spec §4.1: compiling a TrackedQuery's
// Definition into the provider query string, evaluating a normalized
// article against it, and sanitizing/selecting the ExecutionConfig an
// ingestion target actually runs with.
package queryengine

import (
	"strings"

	"github.com/claro-ops/media-intel/internal/store"
)

// Compile produces the provider query-string form of a Definition:
// include terms joined by a space, any-terms parenthesized and OR'd,
// exclude terms each prefixed with "-". Provider-specific quoting is
// left to the adapter that consumes this string.
func Compile(def store.Definition) store.CompiledDefinition {
	return store.CompiledDefinition{
		Query:      compileQuery(def),
		Definition: def,
	}
}

func compileQuery(def store.Definition) string {
	var parts []string

	for _, term := range def.Include {
		parts = append(parts, termText(term))
	}

	if len(def.Any) > 0 {
		texts := make([]string, len(def.Any))
		for i, term := range def.Any {
			texts[i] = termText(term)
		}
		parts = append(parts, "("+strings.Join(texts, " OR ")+")")
	}

	for _, term := range def.Exclude {
		parts = append(parts, "-"+termText(term))
	}

	return strings.Join(parts, " ")
}

func termText(t store.Term) string {
	if t.IsPhrase {
		return `"` + t.Value + `"`
	}
	return t.Value
}
