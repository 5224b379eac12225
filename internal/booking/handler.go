package booking

import (
	"errors"
	"io"
	"mime/multipart"
	"strings"

	"safeflame-backend/internal/apperr"
	"safeflame-backend/internal/auth"
	"safeflame-backend/internal/config"
	"safeflame-backend/internal/storage"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"
)

type HandlerDeps struct {
	Bookings CustomerFacing
	Proofs   storage.ProofStore
	Validate *validator.Validate
	Log      logrus.FieldLogger
}

// CreateRequest is accepted as JSON or as a multipart form carrying the
// paymentProof file.
type CreateRequest struct {
	Quantity         int    `json:"quantity" form:"quantity" validate:"gt=0"`
	Address          string `json:"address" form:"address" validate:"max=255"`
	PaymentMethod    string `json:"paymentMethod" form:"paymentMethod" validate:"required"`
	PaymentReference string `json:"paymentReference" form:"paymentReference" validate:"max=100"`
}

// POST /api/bookings
func CreateHandler(d HandlerDeps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		var body CreateRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.Validation("Invalid request body")
		}
		body.Address = strings.TrimSpace(body.Address)
		body.PaymentReference = strings.TrimSpace(body.PaymentReference)
		if err := d.Validate.Struct(body); err != nil {
			return apperr.FromValidation(err)
		}

		in := CreateInput{
			UserID:           userID,
			Quantity:         body.Quantity,
			Address:          body.Address,
			PaymentMethod:    body.PaymentMethod,
			PaymentReference: body.PaymentReference,
		}

		var proofName string
		if file, err := proofFile(c); err != nil {
			return err
		} else if file != nil {
			// Fail before uploading anything the booking could not use.
			pending, err := d.Bookings.PendingFor(c.UserContext(), userID)
			if err != nil {
				return err
			}
			if pending != nil {
				return apperr.Conflict(MsgPendingExists)
			}

			name, url, err := storeProof(c, d, userID, file)
			if err != nil {
				return err
			}
			in.PaymentProof = url
			proofName = name
		}

		booking, err := d.Bookings.Create(c.UserContext(), in)
		if err != nil {
			if proofName != "" {
				discardProof(c, d, userID, proofName)
			}
			return err
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"success":   true,
			"bookingId": booking.ID,
			"booking":   booking,
			"message":   "Booking created successfully",
		})
	}
}

func storeProof(c *fiber.Ctx, d HandlerDeps, userID uint, file *multipart.FileHeader) (name, url string, err error) {
	if file.Size > storage.MaxProofBytes {
		return "", "", apperr.Validation(storage.ErrProofTooLarge.Error())
	}
	f, err := file.Open()
	if err != nil {
		return "", "", apperr.Validation("Invalid payment proof upload")
	}
	defer f.Close()

	raw, err := io.ReadAll(io.LimitReader(f, storage.MaxProofBytes+1))
	if err != nil {
		return "", "", apperr.Validation("Invalid payment proof upload")
	}

	data, err := storage.NormalizeProof(raw)
	switch {
	case errors.Is(err, storage.ErrProofTooLarge), errors.Is(err, storage.ErrUnsupportedType):
		return "", "", apperr.Validation(err.Error())
	case err != nil:
		return "", "", apperr.Validation("Payment proof could not be read as an image")
	}

	name = storage.ObjectName(userID)
	url, err = d.Proofs.Put(c.UserContext(), name, data)
	if err != nil {
		config.LogError(d.Log, "booking", "CreateHandler", "store payment proof", userID, err)
		return "", "", apperr.Wrap(err, "Could not store payment proof")
	}
	return name, url, nil
}

// discardProof removes an upload whose booking was refused.
func discardProof(c *fiber.Ctx, d HandlerDeps, userID uint, name string) {
	if err := d.Proofs.Delete(c.UserContext(), name); err != nil {
		config.LogError(d.Log, "booking", "CreateHandler", "discard payment proof", userID, err)
	}
}

// proofFile returns the uploaded paymentProof, or nil for JSON bodies and
// forms without one.
func proofFile(c *fiber.Ctx) (*multipart.FileHeader, error) {
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		return nil, nil
	}
	file, err := c.FormFile("paymentProof")
	if errors.Is(err, fasthttp.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Validation("Invalid payment proof upload")
	}
	return file, nil
}

// GET /api/bookings/history
func HistoryHandler(svc CustomerFacing) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}
		bookings, err := svc.History(c.UserContext(), userID)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"success": true, "bookings": bookings})
	}
}

// GET /api/bookings/check-pending
func CheckPendingHandler(svc CustomerFacing) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}
		pending, err := svc.PendingFor(c.UserContext(), userID)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"success":           true,
			"hasPendingBooking": pending != nil,
			"pendingBooking":    pending,
		})
	}
}

// GET /api/bookings/balance
func BalanceHandler(svc CustomerFacing) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}
		bal, err := svc.Balance(c.UserContext(), userID)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"success": true, "balance": bal})
	}
}

// POST /api/bookings/email-balance
func EmailBalanceHandler(svc CustomerFacing) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}
		if err := svc.EmailBalance(c.UserContext(), userID); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"success": true, "message": "Account balance email sent successfully"})
	}
}
