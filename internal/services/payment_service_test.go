package services

import (
	"strings"
	"testing"
	"time"

	"github.com/aditinaik811/Pre-Bookings-VGO/internal/config"
	"github.com/aditinaik811/Pre-Bookings-VGO/internal/models"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestPaymentService(t *testing.T, orders OrderCreator, repo models.PaymentsRepo) *PaymentService {
	t.Helper()
	ps, err := NewPaymentService(orders, repo, config.RazorpayConfig{
		KeyID:        testKeyID,
		SecretKey:    testSecret,
		Currency:     "INR",
		MerchantName: "VGO",
	}, testLogger())
	require.NoError(t, err)
	ps.now = func() time.Time { return time.UnixMilli(1728100000000) }
	ps.newToken = func() string { return "abcd1234-5678-90ab-cdef-1234567890ab" }
	return ps
}

func TestNewPaymentServiceRequiresCredentials(t *testing.T) {
	_, err := NewPaymentService(&mockOrders{}, &fakePaymentsRepo{}, config.RazorpayConfig{KeyID: testKeyID}, testLogger())
	assert.True(t, errors.Is(err, models.ErrConfiguration))

	_, err = NewPaymentService(&mockOrders{}, &fakePaymentsRepo{}, config.RazorpayConfig{SecretKey: testSecret}, testLogger())
	assert.True(t, errors.Is(err, models.ErrConfiguration))
}

func TestCreateOrderRejectsNonPositiveAmount(t *testing.T) {
	orders := &mockOrders{}
	ps := newTestPaymentService(t, orders, &fakePaymentsRepo{})

	for _, amount := range []float64{0, -10} {
		_, err := ps.CreateOrder(t.Context(), "r1", amount)
		assert.True(t, errors.Is(err, models.ErrValidation))
	}
	orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateOrderRejectsAmountBelowOnePaisa(t *testing.T) {
	orders := &mockOrders{}
	ps := newTestPaymentService(t, orders, &fakePaymentsRepo{})

	for _, amount := range []float64{0.004, 0.0049, 1e-9} {
		_, err := ps.CreateOrder(t.Context(), "r1", amount)
		assert.True(t, errors.Is(err, models.ErrValidation), "amount %v", amount)
	}
	orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateOrderBuildsGatewayRequest(t *testing.T) {
	orders := &mockOrders{}
	orders.On("Create", mock.MatchedBy(func(data map[string]interface{}) bool {
		receipt, _ := data["receipt"].(string)
		notes, _ := data["notes"].(map[string]interface{})
		note, _ := notes["item_r1"].(map[string]interface{})
		return data["amount"] == int64(150050) &&
			data["currency"] == "INR" &&
			receipt == "rcpt_abcd1234_1500.5_1728100000000" &&
			note["id"] == "r1" && note["amount"] == 1500.5
	}), mock.Anything).Return(map[string]interface{}{"id": "order_Q1"}, nil).Once()

	ps := newTestPaymentService(t, orders, &fakePaymentsRepo{})
	handle, err := ps.CreateOrder(t.Context(), "r1", 1500.5)
	require.NoError(t, err)

	assert.Equal(t, &OrderHandle{OrderID: "order_Q1", Key: testKeyID, Amount: 150050, Currency: "INR", Name: "VGO"}, handle)
	orders.AssertExpectations(t)
}

func TestReceiptIsCapped(t *testing.T) {
	ps := newTestPaymentService(t, &mockOrders{}, &fakePaymentsRepo{})
	ps.newToken = func() string { return strings.Repeat("f", 30) }

	r := ps.receipt(99999.99)
	assert.Len(t, r, maxReceiptLength)
	assert.True(t, strings.HasPrefix(r, "rcpt_fff"))
}

func TestCreateOrderGatewayFailure(t *testing.T) {
	orders := &mockOrders{}
	orders.On("Create", mock.Anything, mock.Anything).Return(nil, errors.New("gateway down"))

	ps := newTestPaymentService(t, orders, &fakePaymentsRepo{})
	_, err := ps.CreateOrder(t.Context(), "r1", 100)
	require.Error(t, err)
	assert.Equal(t, 500, models.StatusFor(err))
}

func TestVerifyPaymentWritesPaymentOnValidSignature(t *testing.T) {
	repo := &fakePaymentsRepo{}
	ps := newTestPaymentService(t, &mockOrders{}, repo)
	user := uuid.New()

	p, err := ps.VerifyPayment(t.Context(), PaymentCallback{
		OrderID:   "order_1",
		PaymentID: "pay_1",
		Signature: sign("order_1", "pay_1"),
	}, &user, 3000)
	require.NoError(t, err)

	require.Len(t, repo.rows, 1)
	assert.Equal(t, p, repo.rows[0])
	assert.Equal(t, models.PaymentMethodRazorpay, p.PaymentMethod)
	assert.Equal(t, models.PaymentStatusCompleted, p.Status)
	assert.Equal(t, models.ReferenceTypeOrder, p.ReferenceType)
	assert.Equal(t, "order_1", p.ReferenceID)
	assert.Equal(t, "pay_1", p.PaymentID)
	assert.Equal(t, 3000.0, p.Amount)
	assert.Equal(t, &user, p.UserID)
}

func TestVerifyPaymentRejectsTamperedSignature(t *testing.T) {
	repo := &fakePaymentsRepo{}
	ps := newTestPaymentService(t, &mockOrders{}, repo)
	user := uuid.New()

	_, err := ps.VerifyPayment(t.Context(), PaymentCallback{
		OrderID:   "order_1",
		PaymentID: "pay_1",
		Signature: sign("order_1", "pay_2"),
	}, &user, 3000)
	assert.True(t, errors.Is(err, models.ErrVerification))
	assert.Empty(t, repo.rows)
}

func TestVerifyPaymentRequiresAllFields(t *testing.T) {
	repo := &fakePaymentsRepo{}
	ps := newTestPaymentService(t, &mockOrders{}, repo)
	user := uuid.New()

	for _, cb := range []PaymentCallback{
		{PaymentID: "pay_1", Signature: "x"},
		{OrderID: "order_1", Signature: "x"},
		{OrderID: "order_1", PaymentID: "pay_1"},
	} {
		_, err := ps.VerifyPayment(t.Context(), cb, &user, 3000)
		assert.True(t, errors.Is(err, models.ErrVerification))
	}
	assert.Empty(t, repo.rows)
}

func TestVerifyPaymentRequiresUser(t *testing.T) {
	repo := &fakePaymentsRepo{}
	ps := newTestPaymentService(t, &mockOrders{}, repo)

	_, err := ps.VerifyPayment(t.Context(), PaymentCallback{
		OrderID:   "order_1",
		PaymentID: "pay_1",
		Signature: sign("order_1", "pay_1"),
	}, nil, 3000)
	assert.True(t, errors.Is(err, models.ErrUnauthenticated))
	assert.Equal(t, 401, models.StatusFor(err))
	assert.Empty(t, repo.rows)
}

func TestVerifyPaymentRejectsNonPositiveAmount(t *testing.T) {
	repo := &fakePaymentsRepo{}
	ps := newTestPaymentService(t, &mockOrders{}, repo)
	user := uuid.New()

	_, err := ps.VerifyPayment(t.Context(), PaymentCallback{
		OrderID:   "order_1",
		PaymentID: "pay_1",
		Signature: sign("order_1", "pay_1"),
	}, &user, 0)
	assert.True(t, errors.Is(err, models.ErrValidation))
	assert.Empty(t, repo.rows)
}

func TestVerifyPaymentIsIdempotentPerOrder(t *testing.T) {
	repo := &fakePaymentsRepo{}
	ps := newTestPaymentService(t, &mockOrders{}, repo)
	user := uuid.New()
	cb := PaymentCallback{OrderID: "order_1", PaymentID: "pay_1", Signature: sign("order_1", "pay_1")}

	first, err := ps.VerifyPayment(t.Context(), cb, &user, 3000)
	require.NoError(t, err)
	second, err := ps.VerifyPayment(t.Context(), cb, &user, 3000)
	require.NoError(t, err)

	assert.Len(t, repo.rows, 1)
	assert.Equal(t, first.ID, second.ID)
}

func TestVerifyPaymentSurfacesPersistenceFailure(t *testing.T) {
	repo := &fakePaymentsRepo{writeErr: errors.New("(XX000) disk full")}
	ps := newTestPaymentService(t, &mockOrders{}, repo)
	user := uuid.New()

	_, err := ps.VerifyPayment(t.Context(), PaymentCallback{
		OrderID:   "order_1",
		PaymentID: "pay_1",
		Signature: sign("order_1", "pay_1"),
	}, &user, 3000)
	assert.True(t, errors.Is(err, models.ErrPersistence))
}
