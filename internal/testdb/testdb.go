// Package testdb opens throwaway in-memory databases for tests.
package testdb

import (
	"fmt"
	"testing"

	"safeflame-backend/internal/database"
	"safeflame-backend/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func New(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// Customer inserts a verified customer holding allocated cylinders, all unused.
func Customer(t *testing.T, db *gorm.DB, email string, allocated int) *models.User {
	t.Helper()

	user := &models.User{
		Name:               "Test Customer",
		Email:              email,
		Phone:              "9876543210",
		Address:            "12 Market Road",
		PasswordHash:       "x",
		Role:               models.RoleCustomer,
		EmailVerified:      true,
		CylindersAllocated: allocated,
		CylindersRemaining: allocated,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func Admin(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()

	user := &models.User{
		Name:          "Admin",
		Email:         "admin@safeflame.test",
		PasswordHash:  "x",
		Role:          models.RoleAdmin,
		EmailVerified: true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func Remaining(t *testing.T, db *gorm.DB, userID uint) int {
	t.Helper()

	var user models.User
	require.NoError(t, db.First(&user, userID).Error)
	return user.CylindersRemaining
}
