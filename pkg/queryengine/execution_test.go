package queryengine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/claro-ops/media-intel/internal/store"
)

func TestSanitizeExecution_TrimsLowersDedupesAndCaps(t *testing.T) {
	cfg := store.ExecutionConfig{
		ProvidersAllow: []string{" NewsAPI ", "newsapi", "GDELT"},
	}
	out := SanitizeExecution(cfg)
	assert.Equal(t, []string{"newsapi", "gdelt"}, out.ProvidersAllow)
}

func TestSanitizeExecution_CapsAt50(t *testing.T) {
	many := make([]string, 0, 60)
	for i := 0; i < 60; i++ {
		many = append(many, string(rune('a'+i%26))+string(rune('0'+i/26)))
	}
	out := SanitizeExecution(store.ExecutionConfig{DomainsAllow: many})
	assert.Len(t, out.DomainsAllow, 50)
}

func TestSanitizeExecution_DropsEmptyEntries(t *testing.T) {
	out := SanitizeExecution(store.ExecutionConfig{ProvidersDeny: []string{"", "  ", "gnews"}})
	assert.Equal(t, []string{"gnews"}, out.ProvidersDeny)
}

func TestSelectProviders_DenyWinsOverAllow(t *testing.T) {
	available := []string{"newsapi", "gdelt", "gnews"}
	selected := SelectProviders(available, []string{"newsapi", "gdelt"}, []string{"gdelt"})
	assert.Equal(t, []string{"newsapi"}, selected)
}

func TestSelectProviders_EmptyAllowMeansAll(t *testing.T) {
	available := []string{"newsapi", "gdelt"}
	selected := SelectProviders(available, nil, nil)
	assert.ElementsMatch(t, available, selected)
}

func TestSelectProviders_EmptyResultWhenAllDenied(t *testing.T) {
	selected := SelectProviders([]string{"newsapi"}, nil, []string{"newsapi"})
	assert.Empty(t, selected)
}

func TestMatchesHostLists_DenyWinsAndSubdomainsMatch(t *testing.T) {
	assert.False(t, MatchesHostLists("news.blocked.com", nil, []string{"blocked.com"}))
	assert.True(t, MatchesHostLists("example.com", nil, nil))
	assert.True(t, MatchesHostLists("sub.allowed.com", []string{"allowed.com"}, nil))
	assert.False(t, MatchesHostLists("other.com", []string{"allowed.com"}, nil))
}
