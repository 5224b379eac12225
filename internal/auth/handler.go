package auth

import (
	"errors"
	"strings"
	"time"

	"safeflame-backend/internal/apperr"
	"safeflame-backend/internal/audit"
	"safeflame-backend/internal/config"
	"safeflame-backend/internal/mailer"
	"safeflame-backend/internal/models"
	"safeflame-backend/internal/validation"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type Deps struct {
	DB       *gorm.DB
	Config   *config.Config
	Mailer   *mailer.Mailer
	Validate *validator.Validate
	Log      logrus.FieldLogger
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=4,max=100"`
	Email    string `json:"email" validate:"required,email,max=100"`
	Password string `json:"password" validate:"required"`
	Phone    string `json:"phone" validate:"required"`
	Address  string `json:"address" validate:"required,max=255"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type ResendVerificationRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

// POST /api/auth/register
func RegisterHandler(d Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RegisterRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.Validation("Invalid request body")
		}
		body.Name = strings.TrimSpace(body.Name)
		body.Email = normalizeEmail(body.Email)
		body.Address = strings.TrimSpace(body.Address)

		if err := d.Validate.Struct(body); err != nil {
			return apperr.FromValidation(err)
		}
		if !validation.Password(body.Password) {
			return apperr.Validation("Password must be at least 6 characters and include a number and a special character")
		}
		phone, err := validation.Phone(body.Phone, d.Config.PhoneRegion)
		if err != nil {
			return apperr.Validation("Invalid phone number")
		}

		var count int64
		if err := d.DB.WithContext(c.UserContext()).Model(&models.User{}).
			Where("email = ?", body.Email).
			Count(&count).Error; err != nil {
			return apperr.Wrap(err, "Server error")
		}
		if count > 0 {
			return apperr.Conflict("Email already registered")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			return apperr.Wrap(err, "Server error")
		}

		user := models.User{
			Name:               body.Name,
			Email:              body.Email,
			Phone:              phone,
			Address:            body.Address,
			PasswordHash:       string(hash),
			Role:               models.RoleCustomer,
			CylindersAllocated: d.Config.DefaultAllocation,
			CylindersRemaining: d.Config.DefaultAllocation,
		}
		if err := d.DB.WithContext(c.UserContext()).Create(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.Conflict("Email already registered")
			}
			return apperr.Wrap(err, "Server error")
		}

		if token, err := GenerateEmailToken(d.Config.JWTSecret, user.Email); err != nil {
			config.LogError(d.Log, "auth", "RegisterHandler", "sign verification token", user.Email, err)
		} else if err := d.Mailer.SendVerification(c.UserContext(), &user, token); err != nil {
			config.LogError(d.Log, "auth", "RegisterHandler", "send verification email", user.Email, err)
		}

		if err := audit.WriteLog(c.UserContext(), d.DB, audit.LogOptions{
			Action:  "user.registered",
			UserID:  &user.ID,
			Details: fiber.Map{"email": user.Email},
		}); err != nil {
			config.LogError(d.Log, "auth", "RegisterHandler", "write audit log", user.ID, err)
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"success": true,
			"message": "Registered successfully. Please verify your email.",
		})
	}
}

// GET /api/auth/verify-email/:token
func VerifyEmailHandler(d Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		email, err := ParseEmailToken(d.Config.JWTSecret, c.Params("token"))
		if err != nil {
			return apperr.Validation("Invalid or expired token")
		}

		var user models.User
		if err := d.DB.WithContext(c.UserContext()).Where("email = ?", email).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("User not found")
			}
			return apperr.Wrap(err, "Server error")
		}

		if user.EmailVerified {
			return c.JSON(fiber.Map{"success": true, "message": "Email already verified"})
		}

		if err := d.DB.WithContext(c.UserContext()).Model(&user).
			Update("email_verified", true).Error; err != nil {
			return apperr.Wrap(err, "Server error")
		}

		return c.JSON(fiber.Map{"success": true, "message": "Email verified successfully"})
	}
}

// POST /api/auth/resend-verification
func ResendVerificationHandler(d Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ResendVerificationRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.Validation("Invalid request body")
		}
		body.Email = normalizeEmail(body.Email)
		if err := d.Validate.Struct(body); err != nil {
			return apperr.FromValidation(err)
		}

		var user models.User
		if err := d.DB.WithContext(c.UserContext()).Where("email = ?", body.Email).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("User not found")
			}
			return apperr.Wrap(err, "Server error")
		}

		if user.EmailVerified {
			return c.JSON(fiber.Map{"success": true, "message": "Email already verified"})
		}
		if !d.Mailer.Enabled() {
			return apperr.Wrap(mailer.ErrNotConfigured, "Email service not configured")
		}

		token, err := GenerateEmailToken(d.Config.JWTSecret, user.Email)
		if err != nil {
			return apperr.Wrap(err, "Failed to send verification email")
		}
		if err := d.Mailer.SendVerification(c.UserContext(), &user, token); err != nil {
			return apperr.Wrap(err, "Failed to send verification email")
		}

		return c.JSON(fiber.Map{"success": true, "message": "Verification email resent successfully"})
	}
}

// POST /api/auth/login
func LoginHandler(d Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.Validation("Invalid request body")
		}
		body.Email = normalizeEmail(body.Email)
		if err := d.Validate.Struct(body); err != nil {
			return apperr.FromValidation(err)
		}

		var user models.User
		if err := d.DB.WithContext(c.UserContext()).Where("email = ?", body.Email).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.Validation("Invalid credentials")
			}
			return apperr.Wrap(err, "Server error")
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)); err != nil {
			return apperr.Validation("Invalid credentials")
		}

		if !user.EmailVerified {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success":           false,
				"error":             "Please verify your email before logging in",
				"needsVerification": true,
			})
		}

		token, err := GenerateToken(d.Config.JWTSecret, &user)
		if err != nil {
			return apperr.Wrap(err, "Server error")
		}

		c.Cookie(&fiber.Cookie{
			Name:     CookieName,
			Value:    token,
			Expires:  time.Now().Add(SessionTTL),
			HTTPOnly: true,
			Secure:   d.Config.CookieSecure,
			SameSite: fiber.CookieSameSiteStrictMode,
		})

		return c.JSON(fiber.Map{
			"success": true,
			"token":   token,
			"user":    user,
		})
	}
}

// POST /api/auth/logout
func LogoutHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.ClearCookie(CookieName)
		return c.JSON(fiber.Map{"success": true, "message": "Logged out successfully"})
	}
}

// GET /api/auth/me
func MeHandler(d Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := UserID(c)
		if err != nil {
			return err
		}

		var user models.User
		if err := d.DB.WithContext(c.UserContext()).First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("User not found")
			}
			return apperr.Wrap(err, "Server error")
		}

		return c.JSON(fiber.Map{"success": true, "user": user})
	}
}
