// Package mailer delivers account emails. Delivery is best-effort: nothing
// that calls into this package fails because an email could not be sent.
package mailer

import (
	"context"
	"errors"

	"safeflame-backend/internal/config"

	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

type Message struct {
	To      string
	Subject string
	HTML    string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPSender hands each message to its own goroutine so request handlers
// never wait on the mail server.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
	log    logrus.FieldLogger
}

func NewSMTPSender(cfg *config.Config, log logrus.FieldLogger) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword),
		from:   cfg.EmailFrom,
		log:    log,
	}
}

func (s *SMTPSender) Send(_ context.Context, msg Message) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTML)

	go func() {
		if err := s.dialer.DialAndSend(m); err != nil {
			config.LogError(s.log, "mailer", "SMTPSender.Send", "smtp delivery failed", msg.To, err)
			return
		}
		s.log.WithField("to", msg.To).Infof("email sent: %s", msg.Subject)
	}()
	return nil
}

// NopSender is used when SMTP is not configured.
type NopSender struct {
	log logrus.FieldLogger
}

func NewNopSender(log logrus.FieldLogger) *NopSender {
	return &NopSender{log: log}
}

func (s *NopSender) Send(_ context.Context, msg Message) error {
	s.log.WithField("to", msg.To).Infof("email credentials not provided, skipping %q", msg.Subject)
	return nil
}

func NewSender(cfg *config.Config, log logrus.FieldLogger) Sender {
	if cfg.MailEnabled() {
		return NewSMTPSender(cfg, log)
	}
	return NewNopSender(log)
}

var ErrNotConfigured = errors.New("email service not configured")
