package models

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	PaymentMethodRazorpay  = "razorpay"
	PaymentStatusCompleted = "completed"
	ReferenceTypeOrder     = "order"
)

type Payment struct {
	ID            uuid.UUID  `json:"id"`
	Signature     string     `json:"signature"`
	UserID        *uuid.UUID `json:"user_id,omitempty"`
	Amount        float64    `json:"amount"`
	PaymentMethod string     `json:"payment_method"`
	Status        string     `json:"status"`
	ReferenceType string     `json:"reference_type"`
	ReferenceID   string     `json:"reference_id"`
	PaymentID     string     `json:"payment_id"`
	CreatedAt     time.Time  `json:"created_at"`
}

type PaymentsRepo interface {
	CreatePayment(ctx context.Context, payment *Payment) (*Payment, error)
	// GetPaymentByOrderID returns nil, nil when no payment references the order.
	GetPaymentByOrderID(ctx context.Context, orderID string) (*Payment, error)
}

func (su *SupabaseRepo) CreatePayment(ctx context.Context, payment *Payment) (*Payment, error) {
	row := map[string]interface{}{
		"id":             payment.ID,
		"signature":      payment.Signature,
		"amount":         payment.Amount,
		"payment_method": payment.PaymentMethod,
		"status":         payment.Status,
		"reference_type": payment.ReferenceType,
		"reference_id":   payment.ReferenceID,
		"payment_id":     payment.PaymentID,
		"created_at":     payment.CreatedAt,
	}
	if payment.UserID != nil {
		row["user_id"] = payment.UserID.String()
	}

	data, _, err := su.supabaseClient.From(PaymentsTable).
		Insert(row, false, "", "representation", "").
		Execute()
	if err != nil {
		return nil, PersistenceError(err, "failed to insert payment record")
	}

	var created []Payment
	if err := json.Unmarshal(data, &created); err != nil {
		return nil, PersistenceError(err, "failed to decode inserted payment")
	}
	if len(created) == 0 {
		return payment, nil
	}
	return &created[0], nil
}

func (su *SupabaseRepo) GetPaymentByOrderID(ctx context.Context, orderID string) (*Payment, error) {
	data, _, err := su.supabaseClient.From(PaymentsTable).
		Select("*", "", false).
		Eq("reference_type", ReferenceTypeOrder).
		Eq("reference_id", orderID).
		Execute()
	if err != nil {
		return nil, PersistenceError(err, "failed to look up payment")
	}

	var payments []Payment
	if err := json.Unmarshal(data, &payments); err != nil {
		return nil, PersistenceError(err, "failed to decode payment rows")
	}
	if len(payments) == 0 {
		return nil, nil
	}
	return &payments[0], nil
}
