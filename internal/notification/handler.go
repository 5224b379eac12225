package notification

import (
	"safeflame-backend/internal/apperr"
	"safeflame-backend/internal/auth"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type CreateRequest struct {
	Title   string `json:"title" validate:"required,max=150"`
	Message string `json:"message" validate:"required"`
	Type    string `json:"type" validate:"omitempty,oneof=info success warning danger"`
}

// GET /api/notifications
func ListHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		list, err := svc.ListRecent(c.UserContext(), c.QueryInt("limit", MaxRecent))
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"success": true, "notifications": list})
	}
}

// POST /api/admin/notifications
func CreateHandler(svc *Service, validate *validator.Validate) fiber.Handler {
	return func(c *fiber.Ctx) error {
		adminID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		var body CreateRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.Validation("Invalid request body")
		}
		if err := validate.Struct(body); err != nil {
			return apperr.FromValidation(err)
		}

		n, err := svc.Post(c.UserContext(), PostInput{
			Title:   body.Title,
			Message: body.Message,
			Type:    body.Type,
			AdminID: adminID,
		})
		if err != nil {
			return err
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"success":        true,
			"notificationId": n.ID,
			"message":        "Notification created successfully",
		})
	}
}
