package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON_PlainObject(t *testing.T) {
	raw, err := extractJSON(`{"categoria":"red","sentimiento":"positivo","confianza":0.8}`)
	require.NoError(t, err)
	assert.Equal(t, "red", raw.Categoria)
}

func TestExtractJSON_StripsCodeFences(t *testing.T) {
	raw, err := extractJSON("```json\n{\"categoria\":\"red\",\"confianza\":0.5}\n```")
	require.NoError(t, err)
	assert.Equal(t, "red", raw.Categoria)
}

func TestExtractJSON_FallsBackToBraceSlice(t *testing.T) {
	raw, err := extractJSON(`Sure, here you go: {"categoria":"red","confianza":0.5} Hope that helps!`)
	require.NoError(t, err)
	assert.Equal(t, "red", raw.Categoria)
}

func TestExtractJSON_EmptyIsError(t *testing.T) {
	_, err := extractJSON("   ")
	assert.ErrorIs(t, err, errModelEmptyResponse)
}

func TestExtractJSON_NoJSONIsError(t *testing.T) {
	_, err := extractJSON("no json here at all")
	assert.ErrorIs(t, err, errModelInvalidJSON)
}
