package admin

import (
	"fmt"
	"time"

	"safeflame-backend/internal/apperr"
	"safeflame-backend/internal/config"
	"safeflame-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
)

const (
	exportSheet = "Bookings"
	xlsxMIME    = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var exportHeaders = []string{
	"Booking ID", "Customer", "Email", "Quantity", "Amount", "Address",
	"Payment Method", "Payment Status", "Payment Reference", "Status",
	"Remarks", "Booked At", "Updated At",
}

// GET /api/admin/bookings/export
func ExportBookingsHandler(d Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		bookings, err := d.Bookings.ListAll(c.UserContext())
		if err != nil {
			return err
		}

		f, err := BookingsWorkbook(bookings)
		if err != nil {
			config.LogError(d.Log, "admin", "ExportBookingsHandler", "build workbook", len(bookings), err)
			return apperr.Wrap(err, "Could not build export")
		}
		defer f.Close()

		buf, err := f.WriteToBuffer()
		if err != nil {
			return apperr.Wrap(err, "Could not build export")
		}

		filename := fmt.Sprintf("bookings-%s.xlsx", time.Now().Format("2006-01-02"))
		c.Set(fiber.HeaderContentType, xlsxMIME)
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
		return c.Send(buf.Bytes())
	}
}

// BookingsWorkbook lays out one row per booking under a bold header row.
func BookingsWorkbook(bookings []models.Booking) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	header := make([]any, len(exportHeaders))
	for i, h := range exportHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return nil, err
	}
	last, _ := excelize.CoordinatesToCellName(len(exportHeaders), 1)
	if err := f.SetCellStyle(exportSheet, "A1", last, bold); err != nil {
		return nil, err
	}

	for i, b := range bookings {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		amount, _ := b.Amount.Float64()
		email := ""
		if b.User != nil {
			email = b.User.Email
		}
		updated := ""
		if b.UpdatedAt != nil {
			updated = b.UpdatedAt.Format(time.RFC3339)
		}
		row := []any{
			b.ID, b.UserName, email, b.Quantity, amount, b.Address,
			string(b.PaymentMethod), string(b.PaymentStatus), deref(b.PaymentReference), string(b.Status),
			b.Remarks, b.CreatedAt.Format(time.RFC3339), updated,
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
