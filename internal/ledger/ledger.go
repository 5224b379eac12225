// Package ledger owns the allocated/remaining cylinder counters on an account.
//
// Every function takes the *gorm.DB to run on, so callers pass their
// transaction handle when a ledger change must commit together with a
// booking change.
package ledger

import (
	"context"
	"errors"

	"safeflame-backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrInsufficientBalance = errors.New("insufficient cylinder balance")
	ErrInvalidQuantity     = errors.New("quantity must be positive")
)

type Balance struct {
	Allocated int `json:"allocated"`
	Remaining int `json:"remaining"`
	Used      int `json:"used"`
}

// Debit takes qty cylinders from the account. The check and the decrement
// are one conditional UPDATE, so remaining can never go below zero.
func Debit(ctx context.Context, db *gorm.DB, userID uint, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}

	res := db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND cylinders_remaining >= ?", userID, qty).
		UpdateColumn("cylinders_remaining", gorm.Expr("cylinders_remaining - ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return missingOrShort(ctx, db, userID)
	}
	return nil
}

// Credit returns qty cylinders, clamped at the allocation.
func Credit(ctx context.Context, db *gorm.DB, userID uint, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}

	res := db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("cylinders_remaining", gorm.Expr(
			"CASE WHEN cylinders_remaining + ? > cylinders_allocated THEN cylinders_allocated ELSE cylinders_remaining + ? END",
			qty, qty,
		))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func GetBalance(ctx context.Context, db *gorm.DB, userID uint) (Balance, error) {
	var user models.User
	err := db.WithContext(ctx).
		Select("id", "cylinders_allocated", "cylinders_remaining").
		First(&user, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Balance{}, ErrAccountNotFound
		}
		return Balance{}, err
	}
	return Of(&user), nil
}

func Of(user *models.User) Balance {
	return Balance{
		Allocated: user.CylindersAllocated,
		Remaining: user.CylindersRemaining,
		Used:      user.CylindersAllocated - user.CylindersRemaining,
	}
}

func missingOrShort(ctx context.Context, db *gorm.DB, userID uint) error {
	var count int64
	if err := db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrAccountNotFound
	}
	return ErrInsufficientBalance
}
