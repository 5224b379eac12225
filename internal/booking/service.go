// Package booking runs the cylinder booking lifecycle: customers book against
// their yearly allocation, admins approve or reject, and rejected bookings
// hand their quantity back to the account ledger exactly once.
package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"safeflame-backend/internal/apperr"
	"safeflame-backend/internal/audit"
	"safeflame-backend/internal/cache"
	"safeflame-backend/internal/config"
	"safeflame-backend/internal/ledger"
	"safeflame-backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	MsgPendingExists     = "You already have a pending booking. Please wait for it to be processed before booking again."
	MsgNotEnoughCylinder = "Not enough cylinders remaining in your allocation"
	MsgUserNotFound      = "User not found"
	MsgBookingNotFound   = "Booking not found"
	MsgProofNotFound     = "Payment proof not found"
	MsgOfflineIncomplete = "Offline payments need both a payment proof and a payment reference"
)

const newestFirst = "created_at DESC, id DESC"

// Notifier receives booking events after they commit. Implementations must
// not fail the caller; *mailer.Mailer logs delivery problems and moves on.
type Notifier interface {
	BookingCreated(ctx context.Context, user *models.User, booking *models.Booking)
	BookingStatusChanged(ctx context.Context, user *models.User, booking *models.Booking)
	AccountBalance(ctx context.Context, user *models.User)
}

// Locker serializes work on one account across API instances.
type Locker interface {
	WithAccountLock(ctx context.Context, userID uint, fn func() error) error
}

// CustomerFacing is what an authenticated customer may do.
type CustomerFacing interface {
	Create(ctx context.Context, in CreateInput) (*models.Booking, error)
	History(ctx context.Context, userID uint) ([]models.Booking, error)
	PendingFor(ctx context.Context, userID uint) (*models.Booking, error)
	Balance(ctx context.Context, userID uint) (ledger.Balance, error)
	EmailBalance(ctx context.Context, userID uint) error
}

// AdminFacing is what an admin may do on top of that.
type AdminFacing interface {
	ListPending(ctx context.Context) ([]models.Booking, error)
	SetStatus(ctx context.Context, in StatusInput) (*models.Booking, error)
	ListPendingVerifications(ctx context.Context) ([]models.Booking, error)
	VerifyPayment(ctx context.Context, in VerifyInput) (*models.Booking, error)
	ProofHandle(ctx context.Context, bookingID uint) (string, error)
	ListAll(ctx context.Context) ([]models.Booking, error)
}

var (
	_ CustomerFacing = (*Service)(nil)
	_ AdminFacing    = (*Service)(nil)
)

type Service struct {
	db        *gorm.DB
	notify    Notifier
	locker    Locker
	unitPrice decimal.Decimal
	log       logrus.FieldLogger
}

type Option func(*Service)

// WithLocker adds a cross-instance lock around booking creation. The row lock
// and the one-pending index still apply without it.
func WithLocker(l Locker) Option {
	return func(s *Service) {
		if l != nil {
			s.locker = l
		}
	}
}

func NewService(db *gorm.DB, notify Notifier, unitPrice decimal.Decimal, log logrus.FieldLogger, opts ...Option) *Service {
	s := &Service{
		db:        db,
		notify:    notify,
		locker:    noLock{},
		unitPrice: unitPrice,
		log:       log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type noLock struct{}

func (noLock) WithAccountLock(_ context.Context, _ uint, fn func() error) error {
	return fn()
}

type CreateInput struct {
	UserID           uint
	Quantity         int
	Address          string
	PaymentMethod    string
	PaymentReference string
	// PaymentProof is the URL the proof store returned, if any.
	PaymentProof string
}

type StatusInput struct {
	BookingID uint
	Status    string
	Remarks   string
	AdminID   uint
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Booking, error) {
	if in.Quantity <= 0 {
		return nil, apperr.Validation("Quantity must be at least 1")
	}
	method, ok := models.ParsePaymentMethod(in.PaymentMethod)
	if !ok {
		return nil, apperr.Validation("Payment method must be cash or offline")
	}
	if method == models.PaymentOffline && (in.PaymentProof == "" || in.PaymentReference == "") {
		return nil, apperr.Validation(MsgOfflineIncomplete)
	}

	var (
		user    models.User
		booking models.Booking
	)
	err := s.locker.WithAccountLock(ctx, in.UserID, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, in.UserID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperr.NotFound(MsgUserNotFound)
				}
				return err
			}

			var pending int64
			if err := tx.Model(&models.Booking{}).
				Where("user_id = ? AND status = ?", user.ID, models.BookingPending).
				Count(&pending).Error; err != nil {
				return err
			}
			if pending > 0 {
				return apperr.Conflict(MsgPendingExists)
			}
			if in.Quantity > user.CylindersRemaining {
				return apperr.Conflict(MsgNotEnoughCylinder)
			}

			booking = models.Booking{
				UserID:        user.ID,
				UserName:      user.Name,
				Quantity:      in.Quantity,
				Address:       in.Address,
				Amount:        s.unitPrice.Mul(decimal.NewFromInt(int64(in.Quantity))),
				PaymentMethod: method,
				PaymentStatus: models.PaymentPending,
				Status:        models.BookingPending,
			}
			if booking.Address == "" {
				booking.Address = user.Address
			}
			if method == models.PaymentCash {
				booking.PaymentStatus = models.PaymentVerified
			} else {
				booking.PaymentProof = optional(in.PaymentProof)
				booking.PaymentReference = optional(in.PaymentReference)
			}

			if err := tx.Create(&booking).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return apperr.Conflict(MsgPendingExists)
				}
				return err
			}

			if err := ledger.Debit(ctx, tx, user.ID, in.Quantity); err != nil {
				return ledgerError(err)
			}
			user.CylindersRemaining -= in.Quantity

			return audit.WriteLog(ctx, tx, audit.LogOptions{
				Action: "booking.created",
				UserID: &user.ID,
				Details: map[string]any{
					"bookingId":     booking.ID,
					"quantity":      booking.Quantity,
					"paymentMethod": booking.PaymentMethod,
				},
			})
		})
	})
	if err != nil {
		return nil, serviceError(err)
	}

	s.log.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"user_id":    user.ID,
		"quantity":   booking.Quantity,
	}).Info("booking created")

	s.notify.BookingCreated(ctx, &user, &booking)
	return &booking, nil
}

func (s *Service) History(ctx context.Context, userID uint) ([]models.Booking, error) {
	bookings := []models.Booking{}
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order(newestFirst).
		Find(&bookings).Error; err != nil {
		return nil, apperr.Wrap(err, "Server error")
	}
	return bookings, nil
}

// PendingFor returns the account's pending booking, or nil when there is none.
func (s *Service) PendingFor(ctx context.Context, userID uint) (*models.Booking, error) {
	var booking models.Booking
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, models.BookingPending).
		First(&booking).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Wrap(err, "Server error")
	}
	return &booking, nil
}

func (s *Service) Balance(ctx context.Context, userID uint) (ledger.Balance, error) {
	bal, err := ledger.GetBalance(ctx, s.db, userID)
	if err != nil {
		return ledger.Balance{}, ledgerError(err)
	}
	return bal, nil
}

func (s *Service) EmailBalance(ctx context.Context, userID uint) error {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound(MsgUserNotFound)
		}
		return apperr.Wrap(err, "Server error")
	}
	s.notify.AccountBalance(ctx, &user)
	return nil
}

func (s *Service) ListPending(ctx context.Context) ([]models.Booking, error) {
	bookings := []models.Booking{}
	if err := s.db.WithContext(ctx).
		Where("status = ?", models.BookingPending).
		Order(newestFirst).
		Find(&bookings).Error; err != nil {
		return nil, apperr.Wrap(err, "Server error")
	}
	return bookings, nil
}

// ListAll feeds the admin export, owners preloaded.
func (s *Service) ListAll(ctx context.Context) ([]models.Booking, error) {
	bookings := []models.Booking{}
	if err := s.db.WithContext(ctx).
		Preload("User").
		Order(newestFirst).
		Find(&bookings).Error; err != nil {
		return nil, apperr.Wrap(err, "Server error")
	}
	return bookings, nil
}

// SetStatus records an admin decision regardless of the current status.
// Rejection credits the ledger once per booking; approving a rejected booking
// leaves the ledger alone.
func (s *Service) SetStatus(ctx context.Context, in StatusInput) (*models.Booking, error) {
	status := models.BookingStatus(in.Status)
	if status != models.BookingApproved && status != models.BookingRejected {
		return nil, apperr.Validation("Status must be approved or rejected")
	}

	var (
		booking models.Booking
		owner   *models.User
		changed bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockBooking(tx, in.BookingID, &booking); err != nil {
			return err
		}
		changed = booking.Status != status

		now := time.Now()
		booking.Status = status
		booking.Remarks = in.Remarks
		booking.UpdatedAt = &now
		booking.UpdatedBy = &in.AdminID

		if status == models.BookingRejected {
			if err := s.refund(ctx, tx, &booking); err != nil {
				return err
			}
		}

		if err := tx.Model(&booking).Updates(map[string]any{
			"status":     booking.Status,
			"remarks":    booking.Remarks,
			"updated_at": booking.UpdatedAt,
			"updated_by": booking.UpdatedBy,
			"refunded":   booking.Refunded,
		}).Error; err != nil {
			return err
		}

		if err := audit.WriteLog(ctx, tx, audit.LogOptions{
			Action: "booking.status_updated",
			UserID: &in.AdminID,
			Details: map[string]any{
				"bookingId": booking.ID,
				"status":    booking.Status,
				"remarks":   booking.Remarks,
			},
		}); err != nil {
			return err
		}

		owner = findOwner(tx, booking.UserID)
		return nil
	})
	if err != nil {
		return nil, serviceError(err)
	}

	s.log.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"status":     booking.Status,
		"admin_id":   in.AdminID,
	}).Info("booking status updated")

	if changed && owner != nil {
		s.notify.BookingStatusChanged(ctx, owner, &booking)
	}
	return &booking, nil
}

// refund credits the booking's quantity back to its owner once. A deleted
// owner leaves nothing to credit; the booking is still marked refunded.
func (s *Service) refund(ctx context.Context, tx *gorm.DB, booking *models.Booking) error {
	if booking.Refunded {
		return nil
	}
	err := ledger.Credit(ctx, tx, booking.UserID, booking.Quantity)
	if errors.Is(err, ledger.ErrAccountNotFound) {
		s.log.WithField("booking_id", booking.ID).Warn("booking owner no longer exists, nothing to refund")
		err = nil
	}
	if err != nil {
		return err
	}
	booking.Refunded = true
	return nil
}

func lockBooking(tx *gorm.DB, id uint, booking *models.Booking) error {
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(booking, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(MsgBookingNotFound)
	}
	return err
}

func findOwner(tx *gorm.DB, userID uint) *models.User {
	var user models.User
	if err := tx.First(&user, userID).Error; err != nil {
		return nil
	}
	return &user
}

func ledgerError(err error) error {
	switch {
	case errors.Is(err, ledger.ErrAccountNotFound):
		return apperr.NotFound(MsgUserNotFound)
	case errors.Is(err, ledger.ErrInsufficientBalance):
		return apperr.Conflict(MsgNotEnoughCylinder)
	case errors.Is(err, ledger.ErrInvalidQuantity):
		return apperr.Validation("Quantity must be at least 1")
	}
	return err
}

// serviceError keeps *apperr.Error values and wraps everything else.
func serviceError(err error) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, cache.ErrLockNotObtained) {
		return apperr.Conflict("Another booking request for this account is in progress")
	}
	return apperr.Wrap(err, "Server error")
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// NewFromConfig wires the service the way cmd/server does.
func NewFromConfig(cfg *config.Config, db *gorm.DB, notify Notifier, log logrus.FieldLogger, opts ...Option) (*Service, error) {
	price, err := cfg.UnitPrice()
	if err != nil {
		return nil, fmt.Errorf("cylinder price: %w", err)
	}
	return NewService(db, notify, price, log, opts...), nil
}
