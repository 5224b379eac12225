package mailer

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"safeflame-backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []Message
}

func (r *recordingSender) Send(_ context.Context, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestBookingCreated_RendersDetails(t *testing.T) {
	rec := &recordingSender{}
	m := New(rec, "http://localhost:5173/", quietLogger())

	user := &models.User{Name: "Ravi", Email: "ravi@example.com", CylindersAllocated: 12, CylindersRemaining: 9}
	booking := &models.Booking{
		ID:            7,
		Quantity:      3,
		Address:       "4 Lake View",
		Amount:        decimal.NewFromInt(2400),
		PaymentMethod: models.PaymentCash,
		CreatedAt:     time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}

	m.BookingCreated(context.Background(), user, booking)

	require.Len(t, rec.sent, 1)
	msg := rec.sent[0]
	assert.Equal(t, "ravi@example.com", msg.To)
	assert.Equal(t, "Gas Cylinder Booking Confirmation", msg.Subject)
	assert.Contains(t, msg.HTML, "Hello Ravi")
	assert.Contains(t, msg.HTML, "<strong>Quantity:</strong> 3 cylinder(s)")
	assert.Contains(t, msg.HTML, "2400.00")
	assert.Contains(t, msg.HTML, "Cylinders Remaining: 9")
}

func TestBookingStatusChanged_RejectedShowsReason(t *testing.T) {
	rec := &recordingSender{}
	m := New(rec, "http://localhost:5173", quietLogger())

	now := time.Now()
	user := &models.User{Name: "Ravi", Email: "ravi@example.com", CylindersAllocated: 12, CylindersRemaining: 12}
	booking := &models.Booking{ID: 3, Quantity: 2, Status: models.BookingRejected, Remarks: "out of stock", UpdatedAt: &now}

	m.BookingStatusChanged(context.Background(), user, booking)

	require.Len(t, rec.sent, 1)
	assert.Equal(t, "Gas Cylinder Booking REJECTED", rec.sent[0].Subject)
	assert.Contains(t, rec.sent[0].HTML, "Reason: out of stock")
}

func TestSendVerification_UsesClientURL(t *testing.T) {
	rec := &recordingSender{}
	m := New(rec, "https://portal.example.com/", quietLogger())

	err := m.SendVerification(context.Background(), &models.User{Name: "Asha", Email: "asha@example.com"}, "tok123")
	require.NoError(t, err)

	require.Len(t, rec.sent, 1)
	assert.Contains(t, rec.sent[0].HTML, "https://portal.example.com/verify-email/tok123")
	assert.True(t, m.Enabled())
}

func TestNopSender_DisablesMailer(t *testing.T) {
	m := New(NewNopSender(quietLogger()), "http://localhost", quietLogger())

	assert.False(t, m.Enabled())
	m.AccountBalance(context.Background(), &models.User{Name: "A", Email: "a@example.com"})
}
