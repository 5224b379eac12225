package models

import "time"

type NotificationType string

const (
	NotificationInfo    NotificationType = "info"
	NotificationSuccess NotificationType = "success"
	NotificationWarning NotificationType = "warning"
	NotificationDanger  NotificationType = "danger"
)

func (t NotificationType) Valid() bool {
	switch t {
	case NotificationInfo, NotificationSuccess, NotificationWarning, NotificationDanger:
		return true
	}
	return false
}

// Notification is a broadcast shown to every signed-in user. Never updated after insert.
type Notification struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	Title     string           `gorm:"size:150;not null" json:"title"`
	Message   string           `gorm:"type:text;not null" json:"message"`
	Type      NotificationType `gorm:"size:20;not null;default:info" json:"type"`
	CreatedBy uint             `gorm:"not null" json:"createdBy"`
	CreatedAt time.Time        `gorm:"index" json:"createdAt"`
}
