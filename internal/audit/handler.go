package audit

import (
	"encoding/json"
	"strings"

	"safeflame-backend/internal/apperr"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CreateLogRequest struct {
	Action  string          `json:"action"`
	Details json.RawMessage `json:"details"`
}

// Identify reports the caller's account id when a session is attached.
type Identify func(c *fiber.Ctx) (uint, bool)

// POST /api/logs
// Works with or without a session; the entry is never read back by the API.
func CreateLogHandler(db *gorm.DB, identify Identify) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateLogRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.Validation("Invalid request body")
		}
		body.Action = strings.TrimSpace(body.Action)
		if body.Action == "" {
			return apperr.Validation("action is required")
		}

		var details any
		if len(body.Details) > 0 {
			details = body.Details
		}

		var userID *uint
		if id, ok := identify(c); ok {
			userID = &id
		}

		if err := WriteLog(c.UserContext(), db, LogOptions{
			Action:  body.Action,
			UserID:  userID,
			Details: details,
		}); err != nil {
			return apperr.Wrap(err, "Server error")
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true})
	}
}
