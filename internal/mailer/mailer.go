package mailer

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"safeflame-backend/internal/config"
	"safeflame-backend/internal/models"

	"github.com/sirupsen/logrus"
)

// Mailer renders the account emails and passes them to a Sender.
type Mailer struct {
	sender    Sender
	clientURL string
	log       logrus.FieldLogger
}

func New(sender Sender, clientURL string, log logrus.FieldLogger) *Mailer {
	return &Mailer{sender: sender, clientURL: strings.TrimRight(clientURL, "/"), log: log}
}

// Enabled reports whether messages actually leave the process.
func (m *Mailer) Enabled() bool {
	_, nop := m.sender.(*NopSender)
	return !nop
}

func (m *Mailer) VerificationLink(token string) string {
	return fmt.Sprintf("%s/verify-email/%s", m.clientURL, token)
}

func (m *Mailer) SendVerification(ctx context.Context, user *models.User, token string) error {
	body, err := render(verificationTmpl, map[string]any{
		"Name":      user.Name,
		"VerifyURL": m.VerificationLink(token),
	})
	if err != nil {
		return err
	}
	return m.sender.Send(ctx, Message{
		To:      user.Email,
		Subject: "Verify Your Email - SafeFlame Gas Agency",
		HTML:    body,
	})
}

func (m *Mailer) BookingCreated(ctx context.Context, user *models.User, booking *models.Booking) {
	m.deliver(ctx, "BookingCreated", user, "Gas Cylinder Booking Confirmation", bookingConfirmationTmpl, map[string]any{
		"User":    user,
		"Booking": booking,
	})
}

func (m *Mailer) BookingStatusChanged(ctx context.Context, user *models.User, booking *models.Booking) {
	subject := fmt.Sprintf("Gas Cylinder Booking %s", strings.ToUpper(string(booking.Status)))
	m.deliver(ctx, "BookingStatusChanged", user, subject, statusUpdateTmpl, map[string]any{
		"User":    user,
		"Booking": booking,
	})
}

func (m *Mailer) AccountBalance(ctx context.Context, user *models.User) {
	m.deliver(ctx, "AccountBalance", user, "Gas Agency Account Balance", accountBalanceTmpl, map[string]any{
		"User": user,
		"Used": user.CylindersAllocated - user.CylindersRemaining,
	})
}

func (m *Mailer) deliver(ctx context.Context, fn string, user *models.User, subject string, tmpl templateRenderer, data any) {
	body, err := render(tmpl, data)
	if err != nil {
		config.LogError(m.log, "mailer", fn, "render template", user.Email, err)
		return
	}
	if err := m.sender.Send(ctx, Message{To: user.Email, Subject: subject, HTML: body}); err != nil {
		config.LogError(m.log, "mailer", fn, "send email", user.Email, err)
	}
}

func render(tmpl templateRenderer, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render email: %w", err)
	}
	return buf.String(), nil
}
