package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"safeflame-backend/internal/apperr"
	"safeflame-backend/internal/auth"
	"safeflame-backend/internal/booking"
	"safeflame-backend/internal/config"
	"safeflame-backend/internal/models"
	"safeflame-backend/internal/notification"
	"safeflame-backend/internal/testdb"
	"safeflame-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

const testSecret = "test-secret-test-secret-test-secret!"

type silentNotifier struct{}

func (silentNotifier) BookingCreated(context.Context, *models.User, *models.Booking)       {}
func (silentNotifier) BookingStatusChanged(context.Context, *models.User, *models.Booking) {}
func (silentNotifier) AccountBalance(context.Context, *models.User)                        {}

type env struct {
	app      *fiber.App
	db       *gorm.DB
	bookings *booking.Service
	admin    *models.User
}

func newEnv(t *testing.T) *env {
	t.Helper()

	db := testdb.New(t)
	log, _ := logtest.NewNullLogger()
	cfg := &config.Config{JWTSecret: testSecret}
	svc := booking.NewService(db, silentNotifier{}, decimal.NewFromInt(800), log)
	notes := notification.NewService(db, nil, log)
	validate := validation.New()
	d := Deps{Bookings: svc, DB: db, Validate: validate, Log: log}

	app := fiber.New(fiber.Config{ErrorHandler: apperr.Handler(log)})
	r := app.Group("/api/admin", auth.JWTMiddleware(cfg), auth.RequireRole(models.RoleAdmin))
	r.Get("/bookings/pending", PendingBookingsHandler(d))
	r.Get("/bookings/payment-verification", PaymentVerificationListHandler(d))
	r.Get("/bookings/export", ExportBookingsHandler(d))
	r.Put("/bookings/:id", UpdateBookingHandler(d))
	r.Put("/bookings/:id/verify-payment", VerifyPaymentHandler(d))
	r.Get("/bookings/:id/payment-proof", PaymentProofHandler(d))
	r.Get("/users", UsersHandler(d))
	r.Post("/notifications", notification.CreateHandler(notes, validate))

	return &env{app: app, db: db, bookings: svc, admin: testdb.Admin(t, db)}
}

func (e *env) request(t *testing.T, as *models.User, method, path, body string) *http.Response {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	token, err := auth.GenerateToken(testSecret, as)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	out := map[string]any{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func path(id uint, suffix string) string {
	return "/api/admin/bookings/" + strconv.FormatUint(uint64(id), 10) + suffix
}

func TestCustomerCannotUseAdminRoutes(t *testing.T) {
	e := newEnv(t)
	customer := testdb.Customer(t, e.db, "c@example.com", 12)

	resp := e.request(t, customer, http.MethodGet, "/api/admin/bookings/pending", "")
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "Admin access required", decode(t, resp)["error"])
}

func TestRejectThroughHTTPRestoresBalance(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	customer := testdb.Customer(t, e.db, "c@example.com", 14)

	b, err := e.bookings.Create(ctx, booking.CreateInput{UserID: customer.ID, Quantity: 3, PaymentMethod: "cash"})
	require.NoError(t, err)

	resp := e.request(t, e.admin, http.MethodGet, "/api/admin/bookings/pending", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, decode(t, resp)["bookings"], 1)

	resp = e.request(t, e.admin, http.MethodPut, path(b.ID, ""), `{"status":"rejected","remarks":"out of stock"}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, "Booking rejected successfully", body["message"])
	assert.Equal(t, 14, testdb.Remaining(t, e.db, customer.ID))

	// Approving the rejected booking is allowed and does not debit again.
	resp = e.request(t, e.admin, http.MethodPut, path(b.ID, ""), `{"status":"approved"}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Booking approved successfully", decode(t, resp)["message"])
	assert.Equal(t, 14, testdb.Remaining(t, e.db, customer.ID))

	// Rejecting it again restores nothing further.
	resp = e.request(t, e.admin, http.MethodPut, path(b.ID, ""), `{"status":"rejected"}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 14, testdb.Remaining(t, e.db, customer.ID))

	resp = e.request(t, e.admin, http.MethodPut, path(b.ID, ""), `{"status":"done"}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = e.request(t, e.admin, http.MethodPut, path(9999, ""), `{"status":"approved"}`)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, booking.MsgBookingNotFound, decode(t, resp)["error"])

	resp = e.request(t, e.admin, http.MethodPut, "/api/admin/bookings/abc", `{"status":"approved"}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestVerifyPaymentAndProof(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	customer := testdb.Customer(t, e.db, "c@example.com", 12)

	b, err := e.bookings.Create(ctx, booking.CreateInput{
		UserID:           customer.ID,
		Quantity:         2,
		PaymentMethod:    "offline",
		PaymentReference: "UTR-7",
		PaymentProof:     "https://storage.googleapis.com/proofs/p.jpg",
	})
	require.NoError(t, err)

	resp := e.request(t, e.admin, http.MethodGet, "/api/admin/bookings/payment-verification", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, decode(t, resp)["bookings"], 1)

	resp = e.request(t, e.admin, http.MethodGet, path(b.ID, "/payment-proof"), "")
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "https://storage.googleapis.com/proofs/p.jpg", resp.Header.Get("Location"))

	resp = e.request(t, e.admin, http.MethodPut, path(b.ID, "/verify-payment"), `{"remarks":"x"}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = e.request(t, e.admin, http.MethodPut, path(b.ID, "/verify-payment"), `{"verified":false}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Payment rejected", decode(t, resp)["message"])
	assert.Equal(t, 12, testdb.Remaining(t, e.db, customer.ID))

	var stored models.Booking
	require.NoError(t, e.db.First(&stored, b.ID).Error)
	assert.Equal(t, models.BookingRejected, stored.Status)
	assert.Equal(t, models.PaymentRejected, stored.PaymentStatus)

	resp = e.request(t, e.admin, http.MethodGet, "/api/admin/bookings/payment-verification", "")
	assert.Empty(t, decode(t, resp)["bookings"])
}

func TestPaymentProofMissing(t *testing.T) {
	e := newEnv(t)
	customer := testdb.Customer(t, e.db, "c@example.com", 12)
	b, err := e.bookings.Create(context.Background(), booking.CreateInput{UserID: customer.ID, Quantity: 1, PaymentMethod: "cash"})
	require.NoError(t, err)

	resp := e.request(t, e.admin, http.MethodGet, path(b.ID, "/payment-proof"), "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, booking.MsgProofNotFound, decode(t, resp)["error"])
}

func TestUsersListsCustomersOnly(t *testing.T) {
	e := newEnv(t)
	testdb.Customer(t, e.db, "a@example.com", 12)
	testdb.Customer(t, e.db, "b@example.com", 12)

	resp := e.request(t, e.admin, http.MethodGet, "/api/admin/users", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	users := decode(t, resp)["users"].([]any)
	require.Len(t, users, 2)
	first := users[0].(map[string]any)
	assert.Equal(t, "b@example.com", first["email"])
	for _, u := range users {
		m := u.(map[string]any)
		assert.Equal(t, "customer", m["role"])
		assert.NotContains(t, m, "passwordHash")
		assert.NotContains(t, m, "PasswordHash")
	}
}

func TestPostNotification(t *testing.T) {
	e := newEnv(t)

	resp := e.request(t, e.admin, http.MethodPost, "/api/admin/notifications", `{"title":"Price change","message":"From Monday"}`)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.NotZero(t, decode(t, resp)["notificationId"])

	var n models.Notification
	require.NoError(t, e.db.First(&n).Error)
	assert.Equal(t, models.NotificationInfo, n.Type)
	assert.Equal(t, e.admin.ID, n.CreatedBy)

	resp = e.request(t, e.admin, http.MethodPost, "/api/admin/notifications", `{"title":"x","message":"y","type":"loud"}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestExportBookings(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := testdb.Customer(t, e.db, "a@example.com", 12)
	b := testdb.Customer(t, e.db, "b@example.com", 12)

	_, err := e.bookings.Create(ctx, booking.CreateInput{UserID: a.ID, Quantity: 2, PaymentMethod: "cash"})
	require.NoError(t, err)
	_, err = e.bookings.Create(ctx, booking.CreateInput{UserID: b.ID, Quantity: 1, PaymentMethod: "offline", PaymentReference: "UTR-9", PaymentProof: "https://storage.googleapis.com/proofs/b.jpg"})
	require.NoError(t, err)

	resp := e.request(t, e.admin, http.MethodGet, "/api/admin/bookings/export", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, xlsxMIME, resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "attachment")

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	f, err := excelize.OpenReader(bytes.NewReader(raw))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(exportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, exportHeaders[0], rows[0][0])
	assert.Equal(t, "b@example.com", rows[1][2])
	assert.Equal(t, "UTR-9", rows[1][8])
	assert.Equal(t, "a@example.com", rows[2][2])
	assert.Equal(t, "1600", rows[2][4])
}
