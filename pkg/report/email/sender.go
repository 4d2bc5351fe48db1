// Package email sends completed report runs to their schedule's
// recipients over SES, per spec §4.6 step 9: a recipient is only
// mailed if its exact address, or its domain, carries a verified SES
// identity; unverifiable recipients and send failures are logged and
// skipped rather than failing the run.
package email

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"go.uber.org/zap"

	"github.com/claro-ops/media-intel/internal/store"
	"github.com/claro-ops/media-intel/pkg/shared/logging"
)

// Client is the narrow slice of *sesv2.Client this package needs,
// accepted as an interface so tests can fake SES without a live client.
type Client interface {
	GetEmailIdentity(ctx context.Context, params *sesv2.GetEmailIdentityInput, optFns ...func(*sesv2.Options)) (*sesv2.GetEmailIdentityOutput, error)
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// Sender mails completed report runs through SES.
type Sender struct {
	client Client
	from   string
	logger *zap.Logger
}

// NewSender builds a Sender backed by a live SES client. from is the
// verified sender identity (e.g. reportes@claro-ops.com) every
// outgoing message is sent as.
func NewSender(client *sesv2.Client, from string, logger *zap.Logger) *Sender {
	return NewSenderWithClient(client, from, logger)
}

// NewSenderWithClient builds a Sender against any Client, letting tests
// substitute a fake without a live AWS credential chain.
func NewSenderWithClient(client Client, from string, logger *zap.Logger) *Sender {
	return &Sender{client: client, from: from, logger: logger}
}

// Send mails run's summary to recipient if its address or domain has a
// verified SES identity, skipping (with a log line) otherwise.
func (s *Sender) Send(ctx context.Context, recipient string, run *store.ReportRun) error {
	if s.from == "" || recipient == "" {
		s.logger.Info("report email skipped, no sender or recipient configured",
			logging.NewFields().Component("report_email").Operation("send").
				Resource("report_run", run.ID.String()).ToZapFields()...)
		return nil
	}

	verified, err := s.isVerified(ctx, recipient)
	if err != nil {
		s.logger.Warn("report email identity check failed",
			logging.NewFields().Component("report_email").Operation("verify").
				Resource("recipient", recipient).Error(err).ToZapFields()...)
		return nil
	}
	if !verified {
		s.logger.Info("report email recipient not verified, skipping",
			logging.NewFields().Component("report_email").Operation("verify").
				Resource("recipient", recipient).ToZapFields()...)
		return nil
	}

	subject := fmt.Sprintf("Reporte %s", run.ID.String())
	_, err = s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.from),
		Destination:      &types.Destination{ToAddresses: []string{recipient}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject)},
				Body:    &types.Body{Text: &types.Content{Data: aws.String(run.Summary)}},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("send report email to %s: %w", recipient, err)
	}
	return nil
}

// isVerified checks the exact recipient address first, then falls back
// to its domain, matching SES's own two verification granularities.
func (s *Sender) isVerified(ctx context.Context, recipient string) (bool, error) {
	if ok, err := s.identityVerified(ctx, recipient); err != nil {
		return false, err
	} else if ok {
		return true, nil
	}

	domain := domainOf(recipient)
	if domain == "" {
		return false, nil
	}
	return s.identityVerified(ctx, domain)
}

func (s *Sender) identityVerified(ctx context.Context, identity string) (bool, error) {
	out, err := s.client.GetEmailIdentity(ctx, &sesv2.GetEmailIdentityInput{EmailIdentity: aws.String(identity)})
	if err != nil {
		var notFound *types.NotFoundException
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, err
	}
	return out.VerifiedForSendingStatus, nil
}

func domainOf(address string) string {
	at := strings.LastIndex(address, "@")
	if at < 0 || at == len(address)-1 {
		return ""
	}
	return address[at+1:]
}
