package models

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	BookingStatusConfirmed = "confirmed"

	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
)

var Locations = []string{"Mangaluru", "Bangalore"}

type Booking struct {
	ID            uuid.UUID  `json:"id"`
	ItemID        string     `json:"ride_id"`
	BookingDate   string     `json:"booking_date"`
	StartTime     string     `json:"start_time"`
	EndTime       string     `json:"end_time"`
	Status        string     `json:"status"`
	PaymentStatus string     `json:"payment_status"`
	UserID        *uuid.UUID `json:"user_id,omitempty"`
	CustomerName  string     `json:"customer_name,omitempty"`
	Phone         string     `json:"phone,omitempty"`
	Location      string     `json:"location,omitempty"`
	PartySize     int        `json:"party_size,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// BookedSlot is the projection read for conflict checks.
type BookedSlot struct {
	ItemID      string `json:"ride_id"`
	BookingDate string `json:"booking_date"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
}

func (b BookedSlot) Slot() (Slot, error) {
	return ParseSlot(b.StartTime, b.EndTime)
}

type BookingsRepo interface {
	ListBookedSlots(ctx context.Context, itemID, date string) ([]BookedSlot, error)
	CreateBooking(ctx context.Context, booking *Booking) (*Booking, error)
}

// ListBookedSlots returns every booking for the item on the date, whatever its status.
func (su *SupabaseRepo) ListBookedSlots(ctx context.Context, itemID, date string) ([]BookedSlot, error) {
	data, _, err := su.supabaseClient.From(BookingsTable).
		Select("ride_id,booking_date,start_time,end_time", "", false).
		Eq("ride_id", itemID).
		Eq("booking_date", date).
		Execute()
	if err != nil {
		return nil, PersistenceError(err, "failed to get booked slots")
	}

	var slots []BookedSlot
	if err := json.Unmarshal(data, &slots); err != nil {
		return nil, fmt.Errorf("failed to unmarshal booked slots: %w", err)
	}
	if slots == nil {
		slots = []BookedSlot{}
	}
	return slots, nil
}

func (su *SupabaseRepo) CreateBooking(ctx context.Context, booking *Booking) (*Booking, error) {
	row := map[string]interface{}{
		"id":             booking.ID,
		"ride_id":        booking.ItemID,
		"booking_date":   booking.BookingDate,
		"start_time":     booking.StartTime,
		"end_time":       booking.EndTime,
		"status":         booking.Status,
		"payment_status": booking.PaymentStatus,
		"customer_name":  booking.CustomerName,
		"phone":          booking.Phone,
		"location":       booking.Location,
		"party_size":     booking.PartySize,
		"created_at":     booking.CreatedAt,
	}
	if booking.UserID != nil {
		row["user_id"] = booking.UserID.String()
	}

	data, _, err := su.supabaseClient.From(BookingsTable).
		Insert(row, false, "", "representation", "").
		Execute()
	if err != nil {
		return nil, PersistenceError(err, "failed to insert booking")
	}

	var created []Booking
	if err := json.Unmarshal(data, &created); err != nil {
		return nil, PersistenceError(err, "failed to decode inserted booking")
	}
	if len(created) == 0 {
		return booking, nil
	}
	return &created[0], nil
}
