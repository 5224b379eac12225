package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"safeflame-backend/internal/apperr"
	"safeflame-backend/internal/audit"
	"safeflame-backend/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type VerifyInput struct {
	BookingID uint
	Verified  bool
	// Remarks replaces the booking remarks only when non-empty.
	Remarks string
	AdminID uint
}

// ListPendingVerifications returns offline bookings whose proof nobody has
// looked at yet, newest first.
func (s *Service) ListPendingVerifications(ctx context.Context) ([]models.Booking, error) {
	bookings := []models.Booking{}
	if err := s.db.WithContext(ctx).
		Where("payment_method = ? AND payment_status = ?", models.PaymentOffline, models.PaymentPending).
		Order(newestFirst).
		Find(&bookings).Error; err != nil {
		return nil, apperr.Wrap(err, "Server error")
	}
	return bookings, nil
}

// VerifyPayment records the admin's verdict on an offline payment. A rejected
// payment also rejects the booking and refunds its quantity once.
func (s *Service) VerifyPayment(ctx context.Context, in VerifyInput) (*models.Booking, error) {
	var (
		booking models.Booking
		owner   *models.User
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockBooking(tx, in.BookingID, &booking); err != nil {
			return err
		}
		if booking.PaymentMethod != models.PaymentOffline {
			return apperr.Validation("Only offline payments need verification")
		}
		if booking.PaymentStatus != models.PaymentPending {
			return apperr.Conflict(fmt.Sprintf("Payment is already %s", booking.PaymentStatus))
		}

		now := time.Now()
		booking.PaymentStatus = models.PaymentVerified
		booking.PaymentVerifiedAt = &now
		booking.PaymentVerifiedBy = &in.AdminID
		booking.UpdatedAt = &now
		booking.UpdatedBy = &in.AdminID
		if in.Remarks != "" {
			booking.Remarks = in.Remarks
		}

		if !in.Verified {
			booking.PaymentStatus = models.PaymentRejected
			booking.Status = models.BookingRejected
			if err := s.refund(ctx, tx, &booking); err != nil {
				return err
			}
		}

		if err := tx.Model(&booking).Updates(map[string]any{
			"payment_status":      booking.PaymentStatus,
			"payment_verified_at": booking.PaymentVerifiedAt,
			"payment_verified_by": booking.PaymentVerifiedBy,
			"status":              booking.Status,
			"remarks":             booking.Remarks,
			"updated_at":          booking.UpdatedAt,
			"updated_by":          booking.UpdatedBy,
			"refunded":            booking.Refunded,
		}).Error; err != nil {
			return err
		}

		if err := audit.WriteLog(ctx, tx, audit.LogOptions{
			Action: "booking.payment_verified",
			UserID: &in.AdminID,
			Details: map[string]any{
				"bookingId":     booking.ID,
				"verified":      in.Verified,
				"paymentStatus": booking.PaymentStatus,
			},
		}); err != nil {
			return err
		}

		if !in.Verified {
			owner = findOwner(tx, booking.UserID)
		}
		return nil
	})
	if err != nil {
		return nil, serviceError(err)
	}

	s.log.WithFields(logrus.Fields{
		"booking_id":     booking.ID,
		"payment_status": booking.PaymentStatus,
		"admin_id":       in.AdminID,
	}).Info("payment verified")

	if owner != nil {
		s.notify.BookingStatusChanged(ctx, owner, &booking)
	}
	return &booking, nil
}

// ProofHandle returns where the booking's payment proof can be fetched.
func (s *Service) ProofHandle(ctx context.Context, bookingID uint) (string, error) {
	var booking models.Booking
	err := s.db.WithContext(ctx).Select("id", "payment_proof").First(&booking, bookingID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", apperr.NotFound(MsgProofNotFound)
	}
	if err != nil {
		return "", apperr.Wrap(err, "Server error")
	}
	if booking.PaymentProof == nil || *booking.PaymentProof == "" {
		return "", apperr.NotFound(MsgProofNotFound)
	}
	return *booking.PaymentProof, nil
}
