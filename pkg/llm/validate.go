package llm

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	maxEtiquetas = 50
	maxResumen   = 1000
)

var (
	positiveTokens = map[string]struct{}{"positivo": {}, "positive": {}, "pos": {}}
	negativeTokens = map[string]struct{}{"negativo": {}, "negative": {}, "neg": {}}
	neutralTokens  = map[string]struct{}{"neutro": {}, "neutral": {}}
	mixedTokens    = map[string]struct{}{"mixto": {}, "mixed": {}, "mixta": {}}
)

// validateAndNormalize applies spec §4.4 step 6 to a freshly parsed
// rawClassification.
func validateAndNormalize(raw rawClassification) (ClassificationResult, error) {
	categoria := strings.TrimSpace(raw.Categoria)
	if categoria == "" {
		return ClassificationResult{}, fmt.Errorf("model_missing_field: categoria")
	}

	sentimiento, err := normalizeSentiment(raw.Sentimiento)
	if err != nil {
		return ClassificationResult{}, err
	}

	if raw.Confianza < 0 || raw.Confianza > 1 {
		return ClassificationResult{}, fmt.Errorf("model_missing_field: confianza out of range [0,1]")
	}

	resumen := strings.TrimSpace(raw.Resumen)
	if len(resumen) > maxResumen {
		resumen = resumen[:maxResumen]
	}

	return ClassificationResult{
		Categoria:   categoria,
		Sentimiento: sentimiento,
		Etiquetas:   dedupeCapped(raw.Etiquetas, maxEtiquetas),
		Confianza:   raw.Confianza,
		Resumen:     resumen,
	}, nil
}

// normalizeSentiment tokenizes the model's sentiment text after
// stripping diacritics and non-letters, then classifies it as one of
// positivo/neutro/negativo; an ambiguous mix of positive and negative
// tokens, or an explicit "mixed"/"mixto" token, normalizes to neutro.
func normalizeSentiment(raw string) (string, error) {
	folded := stripDiacritics(strings.ToLower(raw))
	tokens := letterTokens(folded)

	var hasPositive, hasNegative, hasNeutral, hasMixed bool
	for _, tok := range tokens {
		if _, ok := positiveTokens[tok]; ok {
			hasPositive = true
		}
		if _, ok := negativeTokens[tok]; ok {
			hasNegative = true
		}
		if _, ok := neutralTokens[tok]; ok {
			hasNeutral = true
		}
		if _, ok := mixedTokens[tok]; ok {
			hasMixed = true
		}
	}

	switch {
	case hasMixed, hasPositive && hasNegative:
		return "neutro", nil
	case hasPositive:
		return "positivo", nil
	case hasNegative:
		return "negativo", nil
	case hasNeutral:
		return "neutro", nil
	default:
		return "", fmt.Errorf("model_invalid_sentimiento: %q", raw)
	}
}

func stripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return result
}

func letterTokens(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
}

func dedupeCapped(items []string, max int) []string {
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
		if len(out) == max {
			break
		}
	}
	return out
}
