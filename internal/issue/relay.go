package issue

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/resend/resend-go/v2"
)

// OpEmailSend is the timing name reported for mailer calls.
const OpEmailSend = "email_send"

// Mailer delivers a composed email and returns the provider's message ID.
type Mailer interface {
	Send(ctx context.Context, e Email) (string, error)
}

// ResendMailer sends through the Resend API.
type ResendMailer struct {
	client *resend.Client
}

// NewResendMailer creates a mailer for apiKey.
func NewResendMailer(apiKey string) *ResendMailer {
	return &ResendMailer{client: resend.NewClient(apiKey)}
}

// Send implements Mailer.
func (m *ResendMailer) Send(ctx context.Context, e Email) (string, error) {
	resp, err := m.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    e.From,
		To:      []string{e.To},
		Subject: e.Subject,
		Html:    e.HTML,
		Text:    e.Text,
	})
	if err != nil {
		return "", fmt.Errorf("resend: %w", err)
	}
	return resp.Id, nil
}

// Receipt acknowledges an accepted report.
type Receipt struct {
	ID        string `json:"id"`
	Delivered bool   `json:"delivered"`
	MessageID string `json:"messageId,omitempty"`
}

// Recorder receives mailer timings and failures. *metrics.Collector
// satisfies it.
type Recorder interface {
	RecordTiming(op string, d time.Duration)
	RecordError(op string)
}

// RelayConfig configures a Relay. A nil Mailer logs every report instead of
// sending it.
type RelayConfig struct {
	Mailer   Mailer
	From     string
	To       string
	Logger   *slog.Logger
	Recorder Recorder
}

// Relay validates reports and forwards them by email.
type Relay struct {
	cfg RelayConfig
}

// NewRelay creates a relay.
func NewRelay(cfg RelayConfig) *Relay {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Relay{cfg: cfg}
}

// Submit validates and sends a report. Delivery failures do not fail the
// submission: the report is logged instead and Delivered is false.
func (r *Relay) Submit(ctx context.Context, rep Report) (Receipt, error) {
	if err := rep.Validate(); err != nil {
		return Receipt{}, err
	}

	email, err := Compose(rep, r.cfg.From, r.cfg.To)
	if err != nil {
		return Receipt{}, err
	}

	receipt := Receipt{ID: uuid.NewString()}
	logger := r.cfg.Logger.With("receipt", receipt.ID, "issue_type", rep.IssueType)

	if r.cfg.Mailer == nil {
		logger.Warn("no mailer configured, logging issue report")
		r.logFallback(logger, email)
		return receipt, nil
	}

	start := time.Now()
	id, err := r.cfg.Mailer.Send(ctx, email)
	if r.cfg.Recorder != nil {
		if err != nil {
			r.cfg.Recorder.RecordError(OpEmailSend)
		} else {
			r.cfg.Recorder.RecordTiming(OpEmailSend, time.Since(start))
		}
	}
	if err != nil {
		logger.Error("failed to send issue report email", "error", err)
		r.logFallback(logger, email)
		return receipt, nil
	}

	logger.Info("issue report email sent", "message_id", id)
	receipt.Delivered = true
	receipt.MessageID = id
	return receipt, nil
}

func (r *Relay) logFallback(logger *slog.Logger, e Email) {
	logger.Info("issue report received", "subject", e.Subject, "body", e.Text)
}
