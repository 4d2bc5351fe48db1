package report

import "math"

// computeConfidence implements spec §4.6 step 4's deterministic
// formula, rounded to 3 decimals.
func computeConfidence(agg aggregate) float64 {
	coverage := clamp(float64(agg.classifiedTotal)/120, 0, 1)
	volume := clamp(float64(agg.itemsTotal)/180, 0, 1)
	bhsQuality := clamp(agg.bhs/100, 0, 1)
	lowRisk := 1 - clamp(agg.riesgoActivo/100, 0, 1)
	contentSignal := clamp(float64(len(agg.topContent))/8, 0, 1)
	incidentPenalty := clamp(float64(agg.activeIncidents)/6, 0, 1)

	value := 0.2 + coverage*0.25 + volume*0.20 + bhsQuality*0.20 + lowRisk*0.10 + contentSignal*0.10 - incidentPenalty*0.15
	return math.Round(value*1000) / 1000
}

// maxRecommendations is spec §4.6 step 6's cap.
const maxRecommendations = 6

// recommendationsFor implements spec §4.6 step 6's deterministic rule
// set: risk-driven containment, SOV-claro coverage push, incident
// triage, empty-content term revision, and two maintenance defaults
// when nothing else fires.
func recommendationsFor(agg aggregate) []string {
	var recs []string

	if agg.riesgoActivo >= 60 {
		recs = append(recs, "Activar plan de contención de riesgo reputacional para la marca.")
	}
	if agg.sovClaro < 50 {
		recs = append(recs, "Incrementar la cobertura de contenido propio para mejorar el share of voice.")
	}
	if agg.activeIncidents > 0 {
		recs = append(recs, "Revisar y triage de los incidentes activos abiertos en la ventana.")
	}
	if len(agg.topContent) == 0 {
		recs = append(recs, "Revisar los términos de búsqueda: no se encontró contenido relevante en la ventana.")
	}

	if len(recs) == 0 {
		recs = append(recs,
			"Mantener el monitoreo activo de las consultas actuales.",
			"Revisar la configuración de pesos de fuentes trimestralmente.",
		)
	}

	if len(recs) > maxRecommendations {
		recs = recs[:maxRecommendations]
	}
	return recs
}
