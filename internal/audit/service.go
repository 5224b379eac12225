package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"safeflame-backend/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type LogOptions struct {
	Action string
	// UserID is nil for unauthenticated callers.
	UserID  *uint
	Details any
}

// WriteLog appends one entry. Pass a transaction handle to make the entry
// commit together with the change it describes.
func WriteLog(ctx context.Context, db *gorm.DB, opts LogOptions) error {
	details := datatypes.JSON("null")
	if opts.Details != nil {
		b, err := json.Marshal(opts.Details)
		if err != nil {
			return fmt.Errorf("encode audit details: %w", err)
		}
		details = b
	}

	entry := models.Log{
		Action:    opts.Action,
		Details:   details,
		Timestamp: time.Now(),
		User:      Actor(opts.UserID),
	}
	if err := db.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

func Actor(userID *uint) string {
	if userID == nil {
		return models.UnauthenticatedActor
	}
	return strconv.FormatUint(uint64(*userID), 10)
}
