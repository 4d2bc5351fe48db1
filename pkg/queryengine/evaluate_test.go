package queryengine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/claro-ops/media-intel/internal/store"
	"github.com/claro-ops/media-intel/pkg/providers"
)

func article(title, summary, content, canonicalURL string) providers.NormalizedArticle {
	return providers.NormalizedArticle{
		Title:        title,
		Summary:      summary,
		Content:      content,
		CanonicalURL: canonicalURL,
	}
}

func TestEvaluate_RequiresAllIncludeTerms(t *testing.T) {
	def := store.Definition{Include: []store.Term{{Value: "claro"}, {Value: "outage"}}}

	assert.True(t, Evaluate(def, article("Claro reports outage", "", "", "https://a.test/x")))
	assert.False(t, Evaluate(def, article("Claro reports record profit", "", "", "https://a.test/x")))
}

func TestEvaluate_WholeWordLiteralDoesNotMatchSubstring(t *testing.T) {
	def := store.Definition{Include: []store.Term{{Value: "5g"}}}
	assert.False(t, Evaluate(def, article("the 5glte rollout", "", "", "https://a.test/x")))
	assert.True(t, Evaluate(def, article("the 5g rollout", "", "", "https://a.test/x")))
}

func TestEvaluate_PhraseMatchesSubstring(t *testing.T) {
	def := store.Definition{Include: []store.Term{{Value: "service outage", IsPhrase: true}}}
	assert.True(t, Evaluate(def, article("major service outage reported", "", "", "https://a.test/x")))
	assert.False(t, Evaluate(def, article("outage of service reported", "", "", "https://a.test/x")))
}

func TestEvaluate_ExcludeWins(t *testing.T) {
	def := store.Definition{
		Include: []store.Term{{Value: "claro"}},
		Exclude: []store.Term{{Value: "satire"}},
	}
	assert.False(t, Evaluate(def, article("Claro satire piece", "", "", "https://a.test/x")))
}

func TestEvaluate_AnyRequiresAtLeastOneWhenNonEmpty(t *testing.T) {
	def := store.Definition{
		Include: []store.Term{{Value: "claro"}},
		Any:     []store.Term{{Value: "5g"}, {Value: "fiber"}},
	}
	assert.False(t, Evaluate(def, article("Claro quarterly report", "", "", "https://a.test/x")))
	assert.True(t, Evaluate(def, article("Claro launches fiber", "", "", "https://a.test/x")))
}

func TestEvaluate_EmptyAnyAlwaysPasses(t *testing.T) {
	def := store.Definition{Include: []store.Term{{Value: "claro"}}}
	assert.True(t, Evaluate(def, article("Claro news", "", "", "https://a.test/x")))
}

func TestEvaluate_MatchesAgainstCanonicalHost(t *testing.T) {
	def := store.Definition{Include: []store.Term{{Value: "example"}}}
	assert.True(t, Evaluate(def, article("no keyword here", "", "", "https://example.com/x")))
}
