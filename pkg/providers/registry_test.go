package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry() *Registry {
	return NewRegistry(Credentials{
		NewsAPIKey:    "k1",
		BingNewsKey:   "k2",
		MediastackKey: "k3",
		NewsdataKey:   "k4",
		GNewsKey:      "k5",
	})
}

func TestNewRegistry_RegistersAllSixAdapters(t *testing.T) {
	r := testRegistry()
	assert.Len(t, r.Names(), 6)
	assert.Equal(t, []string{"bing_news", "gdelt", "gnews", "mediastack", "newsapi", "newsdata"}, r.Names())
}

func TestRegistry_Get(t *testing.T) {
	r := testRegistry()
	a, ok := r.Get("gdelt")
	require.True(t, ok)
	assert.Equal(t, "gdelt", a.Name())

	_, ok = r.Get("unknown")
	assert.False(t, ok)
}

func TestRegistry_Select_EmptyAllowMeansAll(t *testing.T) {
	r := testRegistry()
	selected := r.Select(nil, nil)
	assert.Len(t, selected, 6)
}

func TestRegistry_Select_DenyWinsOverAllow(t *testing.T) {
	r := testRegistry()
	selected := r.Select([]string{"newsapi", "gdelt"}, []string{"gdelt"})

	require.Len(t, selected, 1)
	assert.Equal(t, "newsapi", selected[0].Name())
}

func TestRegistry_Select_UnknownAllowedNameIsIgnored(t *testing.T) {
	r := testRegistry()
	selected := r.Select([]string{"newsapi", "not_registered"}, nil)

	require.Len(t, selected, 1)
	assert.Equal(t, "newsapi", selected[0].Name())
}
