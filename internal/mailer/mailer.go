// Package mailer delivers transactional email over SMTP, with a logging
// no-op fallback for environments without mail credentials.
package mailer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wneessen/go-mail"
)

// SMTPMailer sends OTP and welcome email through an SMTP relay.
type SMTPMailer struct {
	client *mail.Client
	from   string
}

// NewSMTP creates an SMTP mailer. Credentials are optional for relays that
// accept unauthenticated local delivery.
func NewSMTP(host string, port int, user, pass, from string) (*SMTPMailer, error) {
	opts := []mail.Option{
		mail.WithPort(port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if user != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(user),
			mail.WithPassword(pass),
		)
	}

	client, err := mail.NewClient(host, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating smtp client: %w", err)
	}

	return &SMTPMailer{client: client, from: from}, nil
}

// SendOTP mails a one-time verification code.
func (m *SMTPMailer) SendOTP(ctx context.Context, to, name, code string) error {
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>Your Notely verification code is:</p><h2>%s</h2><p>It expires in 10 minutes.</p>",
		name, code)
	return m.send(ctx, to, "Your Notely verification code", body)
}

// SendWelcome mails a post-verification greeting.
func (m *SMTPMailer) SendWelcome(ctx context.Context, to, name string) error {
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>Your email is verified and your Notely account is ready. Happy note-taking!</p>",
		name)
	return m.send(ctx, to, "Welcome to Notely", body)
}

func (m *SMTPMailer) send(ctx context.Context, to, subject, body string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("setting from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("setting to address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, body)

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("sending mail: %w", err)
	}
	return nil
}

// Noop logs instead of sending. Used when SMTP is not configured so local
// development still surfaces the generated codes.
type Noop struct{}

func (Noop) SendOTP(ctx context.Context, to, name, code string) error {
	slog.Info("mailer disabled, otp not sent", "to", to, "code", code)
	return nil
}

func (Noop) SendWelcome(ctx context.Context, to, name string) error {
	slog.Info("mailer disabled, welcome not sent", "to", to)
	return nil
}
