// Package notifier delivers teewatch emails: new tee time alerts, welcome
// messages, one-time links and operator error reports.
package notifier

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"
	"github.com/rs/zerolog"

	"teewatch/internal/metrics"
	"teewatch/internal/model"
)

// Notifier is what the pipeline needs to tell users about new tee times.
type Notifier interface {
	NotifyNewSlots(ctx context.Context, userEmail string, slots []model.TimeSlot) error
}

// SMTPConfig holds the mail relay settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Address  string // From address and auth identity
	Password string
	FromName string
}

// EmailNotifier sends mail through a plain-auth SMTP relay.
type EmailNotifier struct {
	cfg      SMTPConfig
	cooldown *Cooldown
	logger   *zerolog.Logger

	// send is swapped out in tests.
	send func(e *email.Email) error
}

// NewEmailNotifier creates a notifier. cooldown may be nil to disable
// per-user rate limiting.
func NewEmailNotifier(cfg SMTPConfig, cooldown *Cooldown, logger *zerolog.Logger) *EmailNotifier {
	if cfg.FromName == "" {
		cfg.FromName = "Tee Time Watch"
	}
	n := &EmailNotifier{cfg: cfg, cooldown: cooldown, logger: logger}
	n.send = n.sendSMTP
	return n
}

func (n *EmailNotifier) sendSMTP(e *email.Email) error {
	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)
	err := e.Send(addr, smtp.PlainAuth("", n.cfg.Address, n.cfg.Password, n.cfg.Host))
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		return e.Send(addr, nil)
	}
	return err
}

func (n *EmailNotifier) from() string {
	return fmt.Sprintf("%s <%s>", n.cfg.FromName, n.cfg.Address)
}

// NotifyNewSlots emails the user an HTML table of newly available tee times.
// Nothing is sent when the slot list is empty or the user is on cooldown.
func (n *EmailNotifier) NotifyNewSlots(ctx context.Context, userEmail string, slots []model.TimeSlot) error {
	if len(slots) == 0 {
		return nil
	}

	if n.cooldown != nil {
		ok, err := n.cooldown.Allow(ctx, userEmail)
		if err != nil {
			n.logger.Warn().Err(err).Str("user", userEmail).Msg("cooldown check failed, sending anyway")
		} else if !ok {
			n.logger.Info().Str("user", userEmail).Msg("user on notification cooldown, skipping")
			return nil
		}
	}

	e := email.NewEmail()
	e.From = n.from()
	e.To = []string{userEmail}
	e.Subject = fmt.Sprintf("%d new tee time(s) available", len(slots))
	e.HTML = []byte(renderSlotsHTML(slots))
	e.Text = []byte(renderSlotsText(slots))

	if err := n.send(e); err != nil {
		return fmt.Errorf("sending tee time alert to %s: %w", userEmail, err)
	}

	metrics.IncEmailSent("alert")
	n.logger.Info().Str("user", userEmail).Int("slots", len(slots)).Msg("sent tee time alert")
	return nil
}

// SendWelcome greets a newly subscribed user and tells them how to tune
// their settings.
func (n *EmailNotifier) SendWelcome(ctx context.Context, userEmail, configURL string) error {
	e := email.NewEmail()
	e.From = n.from()
	e.To = []string{userEmail}
	e.Subject = "Welcome to Tee Time Watch"
	e.Text = []byte(fmt.Sprintf(`You are now subscribed to tee time alerts.

You will get an email whenever a tee time matching your settings opens up.
Manage your settings here:

%s

If you did not sign up, you can ignore this email.`, configURL))

	if err := n.send(e); err != nil {
		return fmt.Errorf("sending welcome to %s: %w", userEmail, err)
	}
	metrics.IncEmailSent("welcome")
	return nil
}

// SendLink emails a one-time action link (for example an unsubscribe
// confirmation) to the user.
func (n *EmailNotifier) SendLink(ctx context.Context, userEmail, subject, url string) error {
	e := email.NewEmail()
	e.From = n.from()
	e.To = []string{userEmail}
	e.Subject = subject
	e.Text = []byte(fmt.Sprintf(`Use the link below to confirm. It works once and expires soon.

%s`, url))

	if err := n.send(e); err != nil {
		return fmt.Errorf("sending link to %s: %w", userEmail, err)
	}
	metrics.IncEmailSent("link")
	return nil
}

// SendOperatorAlert reports a pipeline failure to the operator address. A
// missing operator address makes this a no-op.
func (n *EmailNotifier) SendOperatorAlert(ctx context.Context, operator string, runErr error) error {
	if operator == "" {
		return nil
	}

	e := email.NewEmail()
	e.From = n.from()
	e.To = []string{operator}
	e.Subject = "teewatch run failed"
	e.Text = []byte(fmt.Sprintf("A scrape-and-filter run failed:\n\n%v\n", runErr))

	if err := n.send(e); err != nil {
		return fmt.Errorf("sending operator alert: %w", err)
	}
	metrics.IncEmailSent("operator")
	return nil
}
