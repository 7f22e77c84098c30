package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/aditinaik811/Pre-Bookings-VGO/internal/config"
	"github.com/aditinaik811/Pre-Bookings-VGO/internal/models"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

const maxReceiptLength = 40

// OrderCreator is the slice of the Razorpay order resource the service needs.
type OrderCreator interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// OrderHandle is what the client checkout widget needs to open a payment.
type OrderHandle struct {
	OrderID  string `json:"order_id"`
	Key      string `json:"key"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Name     string `json:"name"`
}

// PaymentCallback is the payload the checkout widget hands back on success.
type PaymentCallback struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
}

type PaymentService struct {
	orders       OrderCreator
	paymentsRepo models.PaymentsRepo
	keyID        string
	secret       string
	currency     string
	merchantName string
	logger       *slog.Logger

	now      func() time.Time
	newToken func() string
}

func NewPaymentService(orders OrderCreator, paymentsRepo models.PaymentsRepo, cfg config.RazorpayConfig, logger *slog.Logger) (*PaymentService, error) {
	if cfg.KeyID == "" || cfg.SecretKey == "" {
		return nil, models.ConfigurationError("razorpay credentials are not configured")
	}
	if orders == nil {
		return nil, models.ConfigurationError("razorpay client is not initialized")
	}
	currency := cfg.Currency
	if currency == "" {
		currency = "INR"
	}
	return &PaymentService{
		orders:       orders,
		paymentsRepo: paymentsRepo,
		keyID:        cfg.KeyID,
		secret:       cfg.SecretKey,
		currency:     currency,
		merchantName: cfg.MerchantName,
		logger:       logger,
		now:          time.Now,
		newToken:     uuid.NewString,
	}, nil
}

// ToSubunit converts a rupee amount to paise.
func ToSubunit(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func (ps *PaymentService) receipt(amount float64) string {
	token := strings.SplitN(ps.newToken(), "-", 2)[0]
	r := fmt.Sprintf("rcpt_%s_%s_%d", token, strconv.FormatFloat(amount, 'f', -1, 64), ps.now().UnixMilli())
	if len(r) > maxReceiptLength {
		r = r[:maxReceiptLength]
	}
	return r
}

// CreateOrder opens a remote order for amount (in rupees). Nothing is sent when
// the input is invalid.
func (ps *PaymentService) CreateOrder(ctx context.Context, itemID string, amount float64) (*OrderHandle, error) {
	if strings.TrimSpace(itemID) == "" {
		return nil, models.ValidationError("item ID cannot be empty")
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return nil, models.ValidationError("amount must be greater than zero")
	}
	// Checked in paise: a positive amount below half a paisa still rounds to zero.
	subunit := ToSubunit(amount)
	if subunit <= 0 {
		return nil, models.ValidationError("amount must be greater than zero")
	}

	data := map[string]interface{}{
		"amount":   subunit,
		"currency": ps.currency,
		"receipt":  ps.receipt(amount),
		"notes": map[string]interface{}{
			"item_" + itemID: map[string]interface{}{
				"id":     itemID,
				"amount": amount,
			},
		},
	}

	resp, err := ps.orders.Create(data, nil)
	if err != nil {
		ps.logger.Error("razorpay order creation failed", "item_id", itemID, "error", err)
		return nil, errors.Wrap(err, "failed to create payment order")
	}

	orderID, _ := resp["id"].(string)
	if orderID == "" {
		return nil, errors.New("payment gateway returned an order without an id")
	}

	ps.logger.Info("payment order created", "item_id", itemID, "order_id", orderID, "amount", subunit)
	return &OrderHandle{
		OrderID:  orderID,
		Key:      ps.keyID,
		Amount:   subunit,
		Currency: ps.currency,
		Name:     ps.merchantName,
	}, nil
}

func (ps *PaymentService) expectedSignature(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(ps.secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyPayment checks the gateway signature and records the payment against userID.
// A repeated callback for an order that already has a payment returns the stored row.
func (ps *PaymentService) VerifyPayment(ctx context.Context, cb PaymentCallback, userID *uuid.UUID, amount float64) (*models.Payment, error) {
	if ps.secret == "" {
		return nil, models.VerificationError("payment verification is not configured")
	}
	if cb.OrderID == "" || cb.PaymentID == "" || cb.Signature == "" {
		return nil, models.VerificationError("missing payment verification fields")
	}
	if userID == nil {
		return nil, models.UnauthenticatedError("sign in to complete your payment")
	}
	if ToSubunit(amount) <= 0 {
		return nil, models.ValidationError("amount must be greater than zero")
	}

	expected := ps.expectedSignature(cb.OrderID, cb.PaymentID)
	if !hmac.Equal([]byte(expected), []byte(cb.Signature)) {
		ps.logger.Warn("payment signature mismatch", "order_id", cb.OrderID, "payment_id", cb.PaymentID)
		return nil, models.VerificationError("invalid payment signature")
	}

	existing, err := ps.paymentsRepo.GetPaymentByOrderID(ctx, cb.OrderID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.PaymentID != cb.PaymentID {
			ps.logger.Warn("order already paid with a different payment id",
				"order_id", cb.OrderID, "stored_payment_id", existing.PaymentID, "payment_id", cb.PaymentID)
		}
		return existing, nil
	}

	payment := &models.Payment{
		ID:            uuid.New(),
		Signature:     cb.Signature,
		UserID:        userID,
		Amount:        amount,
		PaymentMethod: models.PaymentMethodRazorpay,
		Status:        models.PaymentStatusCompleted,
		ReferenceType: models.ReferenceTypeOrder,
		ReferenceID:   cb.OrderID,
		PaymentID:     cb.PaymentID,
		CreatedAt:     ps.now(),
	}

	created, err := ps.paymentsRepo.CreatePayment(ctx, payment)
	if errors.Is(err, models.ErrConflict) {
		// A concurrent verification of the same order got there first.
		if existing, getErr := ps.paymentsRepo.GetPaymentByOrderID(ctx, cb.OrderID); getErr == nil && existing != nil {
			return existing, nil
		}
	}
	if err != nil {
		ps.logger.Error("failed to record verified payment", "order_id", cb.OrderID, "error", err)
		return nil, err
	}

	ps.logger.Info("payment verified", "order_id", cb.OrderID, "payment_id", cb.PaymentID)
	return created, nil
}
