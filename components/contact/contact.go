// components/contact/contact.go
//
// Contact component – relays the public contact form by email.
//
// Context
// -------
// POST /api/contact accepts `{name, email, message}`, validates it, and
// sends one plain-text message to the configured contact mailbox with the
// sender as Reply-To.  A short request-info footer (browser, device,
// country) is appended when the enrichment middleware ran.
//
// Notes
// -----
// • Mail settings are read per request; a missing API key or sender is a
//   500, never a validation error.
// • Header values built from user input go through mail.SanitizeHeader.
//
//------------------------------------------------------------------------------

package contact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/sydneysamil/samil-web/internal/apperr"
	"github.com/sydneysamil/samil-web/internal/component"
	"github.com/sydneysamil/samil-web/internal/config"
	"github.com/sydneysamil/samil-web/internal/logger"
	"github.com/sydneysamil/samil-web/internal/mail"
	"github.com/sydneysamil/samil-web/internal/metrics"
	"github.com/sydneysamil/samil-web/internal/middleware"
	"github.com/sydneysamil/samil-web/internal/requestinfo"
	"github.com/sydneysamil/samil-web/internal/respond"
)

// ErrInvalid is the 400 for any malformed or incomplete submission.
var ErrInvalid = apperr.New(http.StatusBadRequest, "Invalid form submission.")

const maxBodyBytes = 64 << 10

// Each client IP may send three messages at once and one more per minute.
// Only submissions that pass validation draw from the bucket.
const (
	sendInterval = time.Minute
	sendBurst    = 3
)

// Mailer is the part of *mail.Relay the handler uses.
type Mailer interface {
	Configured() error
	Send(ctx context.Context, msg mail.Email) error
}

// Submission is the request body.
type Submission struct {
	Name    string `json:"name"    validate:"required,max=200"`
	Email   string `json:"email"   validate:"required,email,max=320"`
	Message string `json:"message" validate:"required,max=10000"`
}

// Compile-time assertion: *Component satisfies component.Component.
var _ component.Component = (*Component)(nil)

// Component serves the contact endpoint.
type Component struct {
	mailer   Mailer
	to       func() string
	validate *validator.Validate
	limit    *middleware.Limiter
}

// New returns a Component that delivers to the address to() returns.
func New(mailer Mailer, to func() string) *Component {
	return &Component{
		mailer:   mailer,
		to:       to,
		validate: validator.New(),
		limit:    middleware.NewLimiter(sendInterval, sendBurst),
	}
}

/*────────────────── component.Component methods ───────────────────────────*/

// Name returns the canonical component key.
func (c *Component) Name() string { return "contact" }

// Init wires the shared relay and config getter.
func (c *Component) Init(deps component.Deps) error {
	if deps.Mail == nil || deps.Config == nil {
		return errors.New("mail relay and config are required")
	}
	c.mailer = deps.Mail
	c.to = func() string {
		if cfg := deps.Config(); cfg != nil && cfg.Contact.To != "" {
			return cfg.Contact.To
		}
		return config.DefaultContactTo
	}
	c.validate = validator.New()
	c.limit = middleware.NewLimiter(sendInterval, sendBurst)
	return nil
}

// Routes registers POST /api/contact; other methods get the router's 405.
func (c *Component) Routes(r chi.Router) {
	r.Post("/api/contact", c.handleSubmit)
}

// Register component at program start.
func init() { component.Register(&Component{}) }

/*──────────────────────────── Handlers ─────────────────────────────────────*/

func (c *Component) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var sub Submission
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&sub); err != nil {
		metrics.ContactSubmissionsTotal.WithLabelValues("invalid").Inc()
		respond.Error(w, r, ErrInvalid)
		return
	}
	sub.Name = strings.TrimSpace(sub.Name)
	sub.Email = strings.TrimSpace(sub.Email)
	sub.Message = strings.TrimSpace(sub.Message)

	if err := c.validate.Struct(sub); err != nil {
		metrics.ContactSubmissionsTotal.WithLabelValues("invalid").Inc()
		respond.Error(w, r, ErrInvalid)
		return
	}

	if !c.limit.Check(w, r) {
		metrics.ContactSubmissionsTotal.WithLabelValues("limited").Inc()
		return
	}

	if err := c.mailer.Configured(); err != nil {
		metrics.ContactSubmissionsTotal.WithLabelValues("error").Inc()
		respond.Error(w, r, err)
		return
	}

	if err := c.mailer.Send(ctx, Compose(sub, c.to(), requestinfo.FromContext(ctx))); err != nil {
		metrics.ContactSubmissionsTotal.WithLabelValues("error").Inc()
		respond.Error(w, r, err)
		return
	}

	metrics.ContactSubmissionsTotal.WithLabelValues("sent").Inc()
	logger.FromContext(ctx).Infow("contact form relayed", "from", sub.Email)
	respond.JSON(w, http.StatusAccepted, map[string]bool{"ok": true})
}

// Compose builds the outbound message for sub.  info may be nil.
func Compose(sub Submission, to string, info *requestinfo.RequestInfo) mail.Email {
	text := fmt.Sprintf("Name: %s\nEmail: %s\n\n%s", sub.Name, sub.Email, sub.Message)
	if s := info.Summary(); s != "" {
		text += "\n\n--\n" + s
	}
	return mail.Email{
		To:      []mail.Address{{Email: to}},
		ReplyTo: &mail.Address{Name: sub.Name, Email: sub.Email},
		Subject: "Contact form: " + sub.Name,
		Text:    text,
	}
}
