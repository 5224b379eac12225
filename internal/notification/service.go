// Package notification is the broadcast board: admins post, everyone reads
// the most recent entries.
package notification

import (
	"context"
	"strings"
	"time"

	"safeflame-backend/internal/apperr"
	"safeflame-backend/internal/audit"
	"safeflame-backend/internal/cache"
	"safeflame-backend/internal/config"
	"safeflame-backend/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	MaxRecent = 10

	recentCacheKey = "notifications:recent"
	recentCacheTTL = 5 * time.Minute
)

// Cache is satisfied by *cache.Redis, including a nil one.
type Cache interface {
	GetObject(ctx context.Context, key string, dest any) (bool, error)
	SetObject(ctx context.Context, key string, obj any, exp time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type Service struct {
	db    *gorm.DB
	cache Cache
	log   logrus.FieldLogger
}

func NewService(db *gorm.DB, c Cache, log logrus.FieldLogger) *Service {
	if c == nil {
		c = (*cache.Redis)(nil)
	}
	return &Service{db: db, cache: c, log: log}
}

type PostInput struct {
	Title   string
	Message string
	Type    string
	AdminID uint
}

func (s *Service) Post(ctx context.Context, in PostInput) (*models.Notification, error) {
	n := models.Notification{
		Title:     strings.TrimSpace(in.Title),
		Message:   strings.TrimSpace(in.Message),
		Type:      models.NotificationType(in.Type),
		CreatedBy: in.AdminID,
	}
	if n.Title == "" || n.Message == "" {
		return nil, apperr.Validation("Title and message are required")
	}
	if n.Type == "" {
		n.Type = models.NotificationInfo
	}
	if !n.Type.Valid() {
		return nil, apperr.Validation("Type must be one of info, success, warning, danger")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&n).Error; err != nil {
			return err
		}
		return audit.WriteLog(ctx, tx, audit.LogOptions{
			Action:  "notification.created",
			UserID:  &in.AdminID,
			Details: map[string]any{"notificationId": n.ID, "title": n.Title, "type": n.Type},
		})
	})
	if err != nil {
		return nil, apperr.Wrap(err, "Server error")
	}

	if err := s.cache.Delete(ctx, recentCacheKey); err != nil {
		config.LogError(s.log, "notification", "Post", "invalidate cache", recentCacheKey, err)
	}
	return &n, nil
}

// ListRecent returns up to limit notifications, newest first. A limit outside
// 1..MaxRecent means MaxRecent.
func (s *Service) ListRecent(ctx context.Context, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > MaxRecent {
		limit = MaxRecent
	}

	var cached []models.Notification
	found, err := s.cache.GetObject(ctx, recentCacheKey, &cached)
	if err != nil {
		config.LogError(s.log, "notification", "ListRecent", "read cache", recentCacheKey, err)
	}
	if found {
		return head(cached, limit), nil
	}

	list := []models.Notification{}
	if err := s.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(MaxRecent).
		Find(&list).Error; err != nil {
		return nil, apperr.Wrap(err, "Server error")
	}

	if err := s.cache.SetObject(ctx, recentCacheKey, list, recentCacheTTL); err != nil {
		config.LogError(s.log, "notification", "ListRecent", "write cache", recentCacheKey, err)
	}
	return head(list, limit), nil
}

func head(list []models.Notification, n int) []models.Notification {
	if len(list) > n {
		return list[:n]
	}
	return list
}
