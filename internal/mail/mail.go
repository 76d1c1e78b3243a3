// internal/mail/mail.go
//
// Outbound email through the SendGrid v3 API.
//
// Context
// -------
// The contact form is the only sender.  Each Send is one synchronous POST
// to /v3/mail/send; there is no queue and no retry, so the visitor learns
// immediately whether the message went out.
//
// Settings are read through a func on every Send so a reloaded config (or
// a fixed secret) applies without a restart.  A missing API key or sender
// address is a configuration error, reported as a 500.
package mail

import (
	"context"
	"net/http"
	"strings"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/sydneysamil/samil-web/internal/apperr"
	"github.com/sydneysamil/samil-web/internal/config"
	"github.com/sydneysamil/samil-web/internal/logger"
)

const sendEndpoint = "/v3/mail/send"

var (
	// ErrNotConfigured is returned when the API key or sender is missing.
	ErrNotConfigured = apperr.New(http.StatusInternalServerError, "Email service is not configured.")
	// ErrUnreachable is returned when the provider cannot be contacted.
	ErrUnreachable = apperr.New(http.StatusInternalServerError, "Unable to reach email provider.")
)

// MsgRejected labels a non-2xx provider answer.
const MsgRejected = "Email provider rejected request."

// Address is a display name plus mailbox.
type Address struct {
	Name  string
	Email string
}

// Email is one outbound message.
type Email struct {
	To      []Address
	ReplyTo *Address
	Subject string
	Text    string
}

// Settings configures the relay.
type Settings struct {
	APIKey   string
	From     string
	FromName string
	Host     string // empty selects the public API host
}

// SettingsFrom copies the mail section of cfg.
func SettingsFrom(cfg *config.Config) Settings {
	if cfg == nil {
		return Settings{}
	}
	return Settings{
		APIKey:   cfg.Mail.APIKey,
		From:     cfg.Mail.From,
		FromName: cfg.Mail.FromName,
		Host:     cfg.Mail.Host,
	}
}

// Relay sends Email values.  Safe for concurrent use.
type Relay struct {
	settings func() Settings
}

// NewRelay returns a Relay that consults settings on every Send.
func NewRelay(settings func() Settings) *Relay {
	return &Relay{settings: settings}
}

// Configured reports whether Send can be attempted.
func (r *Relay) Configured() error {
	s := r.settings()
	if s.APIKey == "" || s.From == "" {
		return ErrNotConfigured
	}
	return nil
}

// Send delivers msg.  Errors are *apperr.Error values: ErrNotConfigured,
// ErrUnreachable, or a 502 carrying the provider's truncated answer.
func (r *Relay) Send(ctx context.Context, msg Email) error {
	if err := r.Configured(); err != nil {
		return err
	}
	s := r.settings()

	req := sendgrid.GetRequest(s.APIKey, sendEndpoint, s.Host)
	req.Method = rest.Post
	req.Body = sgmail.GetRequestBody(build(s, msg))

	res, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		logger.FromContext(ctx).Warnw("mail provider unreachable", "err", err)
		return &apperr.Error{Status: ErrUnreachable.Status, Message: ErrUnreachable.Message, Cause: err}
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		logger.FromContext(ctx).Warnw("mail provider rejected message",
			"status", res.StatusCode, "body", apperr.Truncate(res.Body, apperr.MaxUpstreamDetail))
		return &apperr.Error{
			Status:  http.StatusBadGateway,
			Message: MsgRejected,
			Detail:  apperr.Truncate(res.Body, apperr.MaxUpstreamDetail),
		}
	}
	logger.FromContext(ctx).Infow("mail sent", "to", len(msg.To), "status", res.StatusCode)
	return nil
}

func build(s Settings, msg Email) *sgmail.SGMailV3 {
	m := sgmail.NewV3Mail()
	m.SetFrom(sgmail.NewEmail(s.FromName, s.From))

	p := sgmail.NewPersonalization()
	for _, to := range msg.To {
		p.AddTos(sgmail.NewEmail(to.Name, to.Email))
	}
	p.Subject = SanitizeHeader(msg.Subject)
	m.AddPersonalizations(p)

	if msg.ReplyTo != nil {
		m.SetReplyTo(sgmail.NewEmail(SanitizeHeader(msg.ReplyTo.Name), msg.ReplyTo.Email))
	}
	m.AddContent(sgmail.NewContent("text/plain", msg.Text))
	return m
}

// SanitizeHeader removes CR, LF, and NUL so user input cannot inject
// headers.
func SanitizeHeader(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\x00", "")
	return strings.TrimSpace(s)
}
