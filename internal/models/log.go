package models

import (
	"time"

	"gorm.io/datatypes"
)

const UnauthenticatedActor = "unauthenticated"

// Log is the append-only activity trail. Client events arrive through POST /api/logs,
// admin decisions on bookings are written by the server itself.
type Log struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Action    string         `gorm:"size:100;not null;index" json:"action"`
	Details   datatypes.JSON `json:"details"`
	Timestamp time.Time      `gorm:"index;not null" json:"timestamp"`
	User      string         `gorm:"size:50;not null" json:"user"`
}
