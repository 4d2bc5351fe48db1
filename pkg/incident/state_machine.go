package incident

import (
	"context"
	"fmt"
	"time"

	apperrors "github.com/claro-ops/media-intel/internal/errors"
	"github.com/claro-ops/media-intel/internal/store"
)

// driveScope implements spec §4.5's per-scope state machine: skip SEV4
// or zero-classified scopes; otherwise create, escalate, dedupe (within
// cooldown) or refresh (past cooldown) the scope's single active
// incident.
func (e *Evaluator) driveScope(ctx context.Context, scope store.TaxonomyKind, severity store.IncidentSeverity, riskWeighted float64, classifiedItems int, cooldownMinutes int, signal *scopeSignal) (Outcome, error) {
	payload := store.IncidentPayload{
		Scope:            scope,
		RiskWeighted:     riskWeighted,
		ClassifiedWeight: signal.classifiedWeight,
		NegativeWeight:   signal.negativeWeight,
		Positives:        signal.positives,
		Negatives:        signal.negatives,
		Neutrals:         signal.neutrals,
		Unknown:          signal.unknown,
		SignalVersion:    e.cfg.SignalVersion,
		Source:           "classification",
	}
	return DriveScope(ctx, e.store, e.cfg.SignalVersion, scope, severity, riskWeighted, classifiedItems, cooldownMinutes, payload)
}

// DriveScope is spec §4.5's per-scope incident state machine, exported
// so pkg/social can reuse the same cooldown/escalate logic (tagged
// source=social) per spec §4.3.1 step 5 instead of duplicating it.
func DriveScope(ctx context.Context, s store.Store, signalVersion string, scope store.TaxonomyKind, severity store.IncidentSeverity, riskWeighted float64, classifiedItems int, cooldownMinutes int, payload store.IncidentPayload) (Outcome, error) {
	if severity == store.SeveritySEV4 || classifiedItems == 0 {
		return OutcomeSkippedSev, nil
	}

	now := time.Now()

	active, err := s.GetActiveIncidentForScope(ctx, scope)
	if err != nil {
		if !apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			return "", fmt.Errorf("get active incident for scope %s: %w", scope, err)
		}
		active = nil
	}

	if active == nil {
		incident := &store.Incident{
			Scope:           scope,
			Status:          store.IncidentStatusOpen,
			Severity:        severity,
			RiskScore:       riskWeighted,
			ClassifiedItems: classifiedItems,
			SLADueAt:        now.Add(time.Duration(slaMinutesFor(severity)) * time.Minute),
			CooldownUntil:   now.Add(time.Duration(cooldownMinutes) * time.Minute),
			SignalVersion:   signalVersion,
			Payload:         payload,
		}
		if err := s.CreateIncident(ctx, incident); err != nil {
			return "", fmt.Errorf("create incident for scope %s: %w", scope, err)
		}
		return OutcomeCreated, nil
	}

	if severity.MoreSevereThan(active.Severity) {
		active.Severity = severity
		active.Status = store.IncidentStatusOpen
		active.RiskScore = riskWeighted
		active.ClassifiedItems = classifiedItems
		active.SLADueAt = now.Add(time.Duration(slaMinutesFor(severity)) * time.Minute)
		active.CooldownUntil = now.Add(time.Duration(cooldownMinutes) * time.Minute)
		active.SignalVersion = signalVersion
		active.Payload = payload
		active.ResolvedAt = nil
		if err := s.UpdateIncident(ctx, active); err != nil {
			return "", fmt.Errorf("escalate incident %s: %w", active.ID, err)
		}
		return OutcomeEscalated, nil
	}

	if severity == active.Severity {
		if now.Before(active.CooldownUntil) {
			return OutcomeDeduped, nil
		}

		active.RiskScore = riskWeighted
		active.ClassifiedItems = classifiedItems
		active.CooldownUntil = now.Add(time.Duration(cooldownMinutes) * time.Minute)
		active.Payload = payload
		if err := s.UpdateIncident(ctx, active); err != nil {
			return "", fmt.Errorf("refresh incident %s: %w", active.ID, err)
		}
		return OutcomeRefreshed, nil
	}

	// Lower severity than the existing active incident: the severity is
	// never downgraded. Within cooldown this is a dedupe; past cooldown
	// the risk score, item count and cooldown are refreshed (the payload
	// is kept).
	if now.Before(active.CooldownUntil) {
		return OutcomeDeduped, nil
	}
	active.RiskScore = riskWeighted
	active.ClassifiedItems = classifiedItems
	active.CooldownUntil = now.Add(time.Duration(cooldownMinutes) * time.Minute)
	if err := s.UpdateIncident(ctx, active); err != nil {
		return "", fmt.Errorf("refresh incident %s: %w", active.ID, err)
	}
	return OutcomeRefreshed, nil
}
