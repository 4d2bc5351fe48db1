package llm

import (
	"fmt"
	"strings"
)

// promptTemplate renders the classification request body; placeholders
// are filled by renderPrompt. Kept as a package-level constant so its
// shape is easy to diff across prompt_version bumps.
const promptTemplate = `You are classifying a news article for a telecom operator's media
intelligence pipeline.

Provider: %s
Language: %s
Title: %s
Summary: %s
Content: %s

Return a single JSON object with exactly these fields:
- categoria: string, a short topical category
- sentimiento: string, one of positivo, neutro, negativo
- etiquetas: array of up to 10 short lowercase tags
- confianza: number between 0 and 1
- resumen: string, at most two sentences summarizing the article

Respond with JSON only. Do not include any text before or after the JSON
object, and do not wrap it in code fences.`

func renderPrompt(input ClassificationInput) string {
	return fmt.Sprintf(
		promptTemplate,
		input.Provider,
		input.Language,
		truncateField(input.Title, titleBudget),
		truncateField(input.Summary, summaryBudget),
		truncateField(input.Content, contentBudget),
	)
}

func truncateField(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max]
}
