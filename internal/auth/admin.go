package auth

import (
	"context"
	"fmt"

	"safeflame-backend/internal/config"
	"safeflame-backend/internal/models"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// EnsureAdmin creates the admin account from ADMIN_* settings when the
// database holds no admin yet. Without ADMIN_EMAIL it only warns.
func EnsureAdmin(ctx context.Context, db *gorm.DB, cfg *config.Config, log logrus.FieldLogger) error {
	var count int64
	if err := db.WithContext(ctx).Model(&models.User{}).
		Where("role = ?", models.RoleAdmin).
		Count(&count).Error; err != nil {
		return fmt.Errorf("count admins: %w", err)
	}
	if count > 0 {
		return nil
	}

	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		log.Warn("no admin account exists and ADMIN_EMAIL/ADMIN_PASSWORD are not set")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	admin := models.User{
		Name:          cfg.AdminName,
		Email:         normalizeEmail(cfg.AdminEmail),
		Phone:         cfg.AdminPhone,
		Address:       cfg.AdminAddress,
		PasswordHash:  string(hash),
		Role:          models.RoleAdmin,
		EmailVerified: true,
	}
	if err := db.WithContext(ctx).Create(&admin).Error; err != nil {
		return fmt.Errorf("create admin: %w", err)
	}

	log.WithField("email", admin.Email).Info("admin account created")
	return nil
}
