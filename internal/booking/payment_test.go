package booking

import (
	"context"
	"testing"

	"safeflame-backend/internal/apperr"
	"safeflame-backend/internal/models"
	"safeflame-backend/internal/testdb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func offlineBooking(userID uint, qty int) CreateInput {
	return CreateInput{
		UserID:        userID,
		Quantity:      qty,
		PaymentMethod:    "offline",
		PaymentReference: "UTR-42",
		PaymentProof:     "http://proofs.test/proof.jpg",
	}
}

func TestRejectedPaymentRejectsBookingAndCredits(t *testing.T) {
	svc, db, n := newTestService(t)
	ctx := context.Background()
	user := testdb.Customer(t, db, "c@example.com", 12)
	admin := testdb.Admin(t, db)

	b, err := svc.Create(ctx, offlineBooking(user.ID, 2))
	require.NoError(t, err)
	assert.Equal(t, 10, testdb.Remaining(t, db, user.ID))

	updated, err := svc.VerifyPayment(ctx, VerifyInput{BookingID: b.ID, Verified: false, Remarks: "blurry proof", AdminID: admin.ID})
	require.NoError(t, err)
	assert.Equal(t, models.BookingRejected, updated.Status)
	assert.Equal(t, models.PaymentRejected, updated.PaymentStatus)
	assert.Equal(t, "blurry proof", updated.Remarks)
	require.NotNil(t, updated.PaymentVerifiedBy)
	assert.Equal(t, admin.ID, *updated.PaymentVerifiedBy)
	assert.NotNil(t, updated.PaymentVerifiedAt)
	assert.Equal(t, 12, testdb.Remaining(t, db, user.ID))

	assert.Equal(t, []string{"created", "status"}, n.kinds())

	// The admin then rejects the booking as well: no second credit.
	_, err = svc.SetStatus(ctx, StatusInput{BookingID: b.ID, Status: "rejected", AdminID: admin.ID})
	require.NoError(t, err)
	assert.Equal(t, 12, testdb.Remaining(t, db, user.ID))

	// Approving it afterwards is allowed and leaves the ledger alone.
	updated, err = svc.SetStatus(ctx, StatusInput{BookingID: b.ID, Status: "approved", AdminID: admin.ID})
	require.NoError(t, err)
	assert.Equal(t, models.BookingApproved, updated.Status)
	assert.Equal(t, 12, testdb.Remaining(t, db, user.ID))
}

func TestVerifiedPaymentKeepsStatus(t *testing.T) {
	svc, db, n := newTestService(t)
	ctx := context.Background()
	user := testdb.Customer(t, db, "c@example.com", 12)
	admin := testdb.Admin(t, db)

	b, err := svc.Create(ctx, offlineBooking(user.ID, 3))
	require.NoError(t, err)
	_, err = svc.SetStatus(ctx, StatusInput{BookingID: b.ID, Status: "approved", Remarks: "on the way", AdminID: admin.ID})
	require.NoError(t, err)

	updated, err := svc.VerifyPayment(ctx, VerifyInput{BookingID: b.ID, Verified: true, AdminID: admin.ID})
	require.NoError(t, err)
	assert.Equal(t, models.BookingApproved, updated.Status)
	assert.Equal(t, models.PaymentVerified, updated.PaymentStatus)
	assert.Equal(t, "on the way", updated.Remarks)
	assert.Equal(t, 9, testdb.Remaining(t, db, user.ID))
	assert.Equal(t, []string{"created", "status"}, n.kinds())

	_, err = svc.VerifyPayment(ctx, VerifyInput{BookingID: b.ID, Verified: false, AdminID: admin.ID})
	requireKind(t, err, apperr.KindConflict, "")
	assert.Equal(t, 9, testdb.Remaining(t, db, user.ID))
}

func TestVerifyPaymentRejectsCashAndUnknown(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()
	user := testdb.Customer(t, db, "c@example.com", 12)
	admin := testdb.Admin(t, db)

	b, err := svc.Create(ctx, cashBooking(user.ID, 1))
	require.NoError(t, err)

	_, err = svc.VerifyPayment(ctx, VerifyInput{BookingID: b.ID, Verified: true, AdminID: admin.ID})
	requireKind(t, err, apperr.KindValidation, "")

	_, err = svc.VerifyPayment(ctx, VerifyInput{BookingID: 9999, Verified: true, AdminID: admin.ID})
	requireKind(t, err, apperr.KindNotFound, MsgBookingNotFound)
}

func TestListPendingVerifications(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()
	a := testdb.Customer(t, db, "a@example.com", 12)
	b := testdb.Customer(t, db, "b@example.com", 12)
	c := testdb.Customer(t, db, "c@example.com", 12)
	admin := testdb.Admin(t, db)

	older, err := svc.Create(ctx, offlineBooking(a.ID, 1))
	require.NoError(t, err)
	_, err = svc.Create(ctx, cashBooking(b.ID, 1))
	require.NoError(t, err)
	newer, err := svc.Create(ctx, offlineBooking(c.ID, 1))
	require.NoError(t, err)

	list, err := svc.ListPendingVerifications(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)
	assert.Equal(t, older.ID, list[1].ID)

	_, err = svc.VerifyPayment(ctx, VerifyInput{BookingID: newer.ID, Verified: true, AdminID: admin.ID})
	require.NoError(t, err)

	list, err = svc.ListPendingVerifications(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, older.ID, list[0].ID)
}

func TestProofHandle(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()
	a := testdb.Customer(t, db, "a@example.com", 12)
	b := testdb.Customer(t, db, "b@example.com", 12)

	withProof, err := svc.Create(ctx, offlineBooking(a.ID, 1))
	require.NoError(t, err)
	cash, err := svc.Create(ctx, cashBooking(b.ID, 1))
	require.NoError(t, err)

	url, err := svc.ProofHandle(ctx, withProof.ID)
	require.NoError(t, err)
	assert.Equal(t, "http://proofs.test/proof.jpg", url)

	_, err = svc.ProofHandle(ctx, cash.ID)
	requireKind(t, err, apperr.KindNotFound, MsgProofNotFound)

	_, err = svc.ProofHandle(ctx, 9999)
	requireKind(t, err, apperr.KindNotFound, MsgProofNotFound)
}
