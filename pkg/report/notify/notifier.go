// Package notify posts the Report Worker's optional operational Slack
// notifications: a report run landing in pending_review, or an incident
// auto-escalation (no package in this module calls the latter; pkg/incident
// does not post to Slack). Both are supplements
// to the spec's email channel, gated by configuration and off by
// default.
package notify

import (
	"context"
	"fmt"

	goslack "github.com/slack-go/slack"
	"go.uber.org/zap"

	"github.com/claro-ops/media-intel/pkg/shared/logging"
)

// Notifier sends messages to one configured Slack channel. If botToken
// is empty, it is a noop — callers never need to branch on whether
// Slack is configured.
type Notifier struct {
	client  *goslack.Client
	channel string
	logger  *zap.Logger
}

// New builds a Notifier. An empty botToken or channel disables posting.
func New(botToken, channel string, logger *zap.Logger) *Notifier {
	var client *goslack.Client
	if botToken != "" {
		client = goslack.New(botToken)
	}
	return &Notifier{client: client, channel: channel, logger: logger}
}

// Enabled reports whether this notifier will actually post.
func (n *Notifier) Enabled() bool {
	return n.client != nil && n.channel != ""
}

// NotifyPendingReview posts a report run that fell below its
// confidence threshold.
func (n *Notifier) NotifyPendingReview(ctx context.Context, reportRunID, templateName string, confidence, threshold float64) {
	text := fmt.Sprintf(":warning: Reporte *%s* (`%s`) quedó en revisión pendiente: confianza %.3f < umbral %.3f.",
		templateName, reportRunID, confidence, threshold)
	n.post(ctx, text)
}

// NotifyIncidentEscalated posts an incident that was just escalated to
// a higher severity. No package in this module calls it.
func (n *Notifier) NotifyIncidentEscalated(ctx context.Context, incidentID, scope string, severity string) {
	text := fmt.Sprintf(":rotating_light: Incidente `%s` (%s) escalado a %s.", incidentID, scope, severity)
	n.post(ctx, text)
}

func (n *Notifier) post(ctx context.Context, text string) {
	if !n.Enabled() {
		return
	}
	if _, _, err := n.client.PostMessageContext(ctx, n.channel, goslack.MsgOptionText(text, false)); err != nil {
		n.logger.Warn("slack notification failed",
			logging.NewFields().Component("notify").Operation("post").Error(err).ToZapFields()...)
	}
}
