// Package admin serves the back-office routes. Every handler here sits behind
// auth.JWTMiddleware and auth.RequireRole(models.RoleAdmin).
package admin

import (
	"strings"

	"safeflame-backend/internal/apperr"
	"safeflame-backend/internal/auth"
	"safeflame-backend/internal/booking"
	"safeflame-backend/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type Deps struct {
	Bookings booking.AdminFacing
	DB       *gorm.DB
	Validate *validator.Validate
	Log      logrus.FieldLogger
}

type UpdateBookingRequest struct {
	Status  string `json:"status" validate:"required,oneof=approved rejected"`
	Remarks string `json:"remarks" validate:"max=500"`
}

type VerifyPaymentRequest struct {
	Verified *bool  `json:"verified" validate:"required"`
	Remarks  string `json:"remarks" validate:"max=500"`
}

func bookingID(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, apperr.Validation("Invalid booking id")
	}
	return uint(id), nil
}

// GET /api/admin/bookings/pending
func PendingBookingsHandler(d Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		bookings, err := d.Bookings.ListPending(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"success": true, "bookings": bookings})
	}
}

// PUT /api/admin/bookings/:id
func UpdateBookingHandler(d Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		adminID, err := auth.UserID(c)
		if err != nil {
			return err
		}
		id, err := bookingID(c)
		if err != nil {
			return err
		}

		var body UpdateBookingRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.Validation("Invalid request body")
		}
		body.Remarks = strings.TrimSpace(body.Remarks)
		if err := d.Validate.Struct(body); err != nil {
			return apperr.FromValidation(err)
		}

		updated, err := d.Bookings.SetStatus(c.UserContext(), booking.StatusInput{
			BookingID: id,
			Status:    body.Status,
			Remarks:   body.Remarks,
			AdminID:   adminID,
		})
		if err != nil {
			return err
		}

		return c.JSON(fiber.Map{
			"success": true,
			"booking": updated,
			"message": "Booking " + string(updated.Status) + " successfully",
		})
	}
}

// GET /api/admin/bookings/payment-verification
func PaymentVerificationListHandler(d Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		bookings, err := d.Bookings.ListPendingVerifications(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"success": true, "bookings": bookings})
	}
}

// PUT /api/admin/bookings/:id/verify-payment
func VerifyPaymentHandler(d Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		adminID, err := auth.UserID(c)
		if err != nil {
			return err
		}
		id, err := bookingID(c)
		if err != nil {
			return err
		}

		var body VerifyPaymentRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.Validation("Invalid request body")
		}
		body.Remarks = strings.TrimSpace(body.Remarks)
		if err := d.Validate.Struct(body); err != nil {
			return apperr.FromValidation(err)
		}

		updated, err := d.Bookings.VerifyPayment(c.UserContext(), booking.VerifyInput{
			BookingID: id,
			Verified:  *body.Verified,
			Remarks:   body.Remarks,
			AdminID:   adminID,
		})
		if err != nil {
			return err
		}

		msg := "Payment verified successfully"
		if !*body.Verified {
			msg = "Payment rejected"
		}
		return c.JSON(fiber.Map{"success": true, "booking": updated, "message": msg})
	}
}

// GET /api/admin/bookings/:id/payment-proof
func PaymentProofHandler(d Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := bookingID(c)
		if err != nil {
			return err
		}
		url, err := d.Bookings.ProofHandle(c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.Redirect(url, fiber.StatusFound)
	}
}

// GET /api/admin/users
func UsersHandler(d Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		users := []models.User{}
		if err := d.DB.WithContext(c.UserContext()).
			Where("role = ?", models.RoleCustomer).
			Order("created_at DESC, id DESC").
			Find(&users).Error; err != nil {
			return apperr.Wrap(err, "Server error")
		}
		return c.JSON(fiber.Map{"success": true, "users": users})
	}
}
