package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeSentiment_SimpleCases(t *testing.T) {
	s, err := normalizeSentiment("positivo")
	require.NoError(t, err)
	assert.Equal(t, "positivo", s)

	s, err = normalizeSentiment("Negativo")
	require.NoError(t, err)
	assert.Equal(t, "negativo", s)

	s, err = normalizeSentiment("neutro")
	require.NoError(t, err)
	assert.Equal(t, "neutro", s)
}

func TestNormalizeSentiment_StripsDiacritics(t *testing.T) {
	s, err := normalizeSentiment("négatïvo")
	require.NoError(t, err)
	assert.Equal(t, "negativo", s)
}

func TestNormalizeSentiment_MixedBecomesNeutro(t *testing.T) {
	s, err := normalizeSentiment("mixed")
	require.NoError(t, err)
	assert.Equal(t, "neutro", s)

	s, err = normalizeSentiment("positive and negative")
	require.NoError(t, err)
	assert.Equal(t, "neutro", s)
}

func TestNormalizeSentiment_InvalidIsError(t *testing.T) {
	_, err := normalizeSentiment("¯\\_(ツ)_/¯")
	assert.ErrorContains(t, err, "model_invalid_sentimiento")
}

func TestValidateAndNormalize_DedupesAndCapsEtiquetas(t *testing.T) {
	raw := rawClassification{
		Categoria:   "network",
		Sentimiento: "neutro",
		Etiquetas:   []string{"5G", "5g", "  fiber "},
		Confianza:   0.4,
	}
	result, err := validateAndNormalize(raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"5g", "fiber"}, result.Etiquetas)
}

func TestValidateAndNormalize_RejectsEmptyCategoria(t *testing.T) {
	raw := rawClassification{Categoria: "  ", Sentimiento: "neutro", Confianza: 0.5}
	_, err := validateAndNormalize(raw)
	assert.Error(t, err)
}

func TestValidateAndNormalize_RejectsOutOfRangeConfianza(t *testing.T) {
	raw := rawClassification{Categoria: "x", Sentimiento: "neutro", Confianza: 1.5}
	_, err := validateAndNormalize(raw)
	assert.Error(t, err)
}

func TestValidateAndNormalize_TruncatesResumen(t *testing.T) {
	long := make([]byte, maxResumen+50)
	for i := range long {
		long[i] = 'a'
	}
	raw := rawClassification{Categoria: "x", Sentimiento: "neutro", Confianza: 0.1, Resumen: string(long)}
	result, err := validateAndNormalize(raw)
	require.NoError(t, err)
	assert.Len(t, result.Resumen, maxResumen)
}
