package llm

import (
	"encoding/json"
	"errors"
	"strings"
)

var errModelEmptyResponse = errors.New("model_empty_response")
var errModelInvalidJSON = errors.New("model_invalid_json")

// rawClassification mirrors the JSON shape the prompt asks the model
// for, before validateAndNormalize converts it to a ClassificationResult.
type rawClassification struct {
	Categoria   string   `json:"categoria"`
	Sentimiento string   `json:"sentimiento"`
	Etiquetas   []string `json:"etiquetas"`
	Confianza   float64  `json:"confianza"`
	Resumen     string   `json:"resumen"`
}

// extractJSON strips ``` fences (with or without a language tag) from a
// model response and parses the remainder as a rawClassification,
// falling back to slicing between the first '{' and the last '}' when
// the stripped text still isn't valid JSON on its own (spec §4.4 step 4).
func extractJSON(text string) (rawClassification, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return rawClassification{}, errModelEmptyResponse
	}

	stripped := stripFences(text)

	var parsed rawClassification
	if err := json.Unmarshal([]byte(stripped), &parsed); err == nil {
		return parsed, nil
	}

	start := strings.Index(stripped, "{")
	end := strings.LastIndex(stripped, "}")
	if start < 0 || end < start {
		return rawClassification{}, errModelInvalidJSON
	}
	if err := json.Unmarshal([]byte(stripped[start:end+1]), &parsed); err != nil {
		return rawClassification{}, errModelInvalidJSON
	}
	return parsed, nil
}

func stripFences(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 && !strings.Contains(text[:nl], "{") {
		text = text[nl+1:]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
