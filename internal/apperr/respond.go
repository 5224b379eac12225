package apperr

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// Handler is the fiber.Config ErrorHandler. Unknown errors become a generic 500.
func Handler(logger logrus.FieldLogger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var appErr *Error
		if errors.As(err, &appErr) {
			status := appErr.Kind.Status()
			if status >= fiber.StatusInternalServerError {
				logger.WithFields(logrus.Fields{
					"method": c.Method(),
					"path":   c.Path(),
				}).WithError(err).Error("request failed")
			}
			return c.Status(status).JSON(fiber.Map{
				"success": false,
				"error":   appErr.Message,
			})
		}

		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{
				"success": false,
				"error":   fe.Message,
			})
		}

		logger.WithFields(logrus.Fields{
			"method": c.Method(),
			"path":   c.Path(),
		}).WithError(err).Error("unexpected error")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Server error",
		})
	}
}
