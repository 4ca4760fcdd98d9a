// Package mailer delivers verification codes over SMTP.
package mailer

import (
	"context"
	"fmt"
	"time"

	"mindfulchat-backend/internal/config"

	log "github.com/sirupsen/logrus"
	"github.com/wneessen/go-mail"
)

const otpSubject = "Your OTP for Mindful Chat"

// SMTPMailer sends mail through a single configured relay.
type SMTPMailer struct {
	client *mail.Client
	from   string
	ttl    time.Duration
}

func NewSMTPMailer(cfg *config.Config) (*SMTPMailer, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.SMTPPort),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
		mail.WithTimeout(15 * time.Second),
	}
	if cfg.SMTPUsername != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.SMTPUsername),
			mail.WithPassword(cfg.SMTPPassword),
		)
	}
	client, err := mail.NewClient(cfg.SMTPHost, opts...)
	if err != nil {
		return nil, fmt.Errorf("mailer: create smtp client: %w", err)
	}
	return &SMTPMailer{client: client, from: cfg.MailFrom, ttl: cfg.OTPTTL}, nil
}

func (m *SMTPMailer) SendOTP(ctx context.Context, to, name, otp string) error {
	msg, err := buildOTPMessage(m.from, to, name, otp, m.ttl)
	if err != nil {
		return err
	}
	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("mailer: send otp: %w", err)
	}
	log.Printf("[Mailer] OTP sent to %s", to)
	return nil
}

func buildOTPMessage(from, to, name, otp string, ttl time.Duration) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("mailer: invalid sender %q: %w", from, err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("mailer: invalid recipient %q: %w", to, err)
	}
	msg.Subject(otpSubject)
	msg.SetBodyString(mail.TypeTextPlain, otpBody(name, otp, ttl))
	return msg, nil
}

func otpBody(name, otp string, ttl time.Duration) string {
	greeting := "Hi"
	if name != "" {
		greeting = "Hi " + name
	}
	return fmt.Sprintf("%s,\n\nYour OTP is %s. It is valid for %d minutes.\n", greeting, otp, int(ttl.Minutes()))
}

// LogMailer writes codes to the log. Used when no SMTP host is configured.
type LogMailer struct{}

func (LogMailer) SendOTP(_ context.Context, to, _, otp string) error {
	log.WithField("to", to).Warnf("[Mailer] SMTP not configured, OTP for %s is %s", to, otp)
	return nil
}
