package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingPending  BookingStatus = "pending"
	BookingApproved BookingStatus = "approved"
	BookingRejected BookingStatus = "rejected"
)

type PaymentMethod string

const (
	PaymentCash    PaymentMethod = "cash"
	PaymentOffline PaymentMethod = "offline" // customer uploads a proof, admin verifies it by hand
)

// ParsePaymentMethod accepts the legacy "paytm" value old clients still send.
func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	switch s {
	case string(PaymentCash):
		return PaymentCash, true
	case string(PaymentOffline), "paytm":
		return PaymentOffline, true
	}
	return "", false
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentVerified PaymentStatus = "verified"
	PaymentRejected PaymentStatus = "rejected"
)

type Booking struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	UserID   uint   `gorm:"index;not null" json:"userId"`
	User     *User  `json:"-"`
	UserName string `gorm:"size:100;not null" json:"userName"`

	Quantity int             `gorm:"not null" json:"quantity"`
	Address  string          `gorm:"size:255;not null" json:"address"`
	Amount   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`

	PaymentMethod     PaymentMethod `gorm:"size:20;not null" json:"paymentMethod"`
	PaymentStatus     PaymentStatus `gorm:"size:20;not null;default:pending;index" json:"paymentStatus"`
	PaymentProof      *string       `gorm:"size:512" json:"paymentProof"`
	PaymentReference  *string       `gorm:"size:100" json:"paymentReference"`
	PaymentVerifiedAt *time.Time    `json:"paymentVerifiedAt"`
	PaymentVerifiedBy *uint         `json:"paymentVerifiedBy"`

	Status  BookingStatus `gorm:"size:20;not null;default:pending;index" json:"status"`
	Remarks string        `gorm:"size:500" json:"remarks"`

	// Set once the quantity went back to the owner's ledger; guards against double refunds.
	Refunded bool `gorm:"not null;default:false" json:"-"`

	CreatedAt time.Time  `gorm:"index" json:"createdAt"`
	UpdatedAt *time.Time `gorm:"autoUpdateTime:false" json:"updatedAt"`
	UpdatedBy *uint      `json:"updatedBy"`
}
