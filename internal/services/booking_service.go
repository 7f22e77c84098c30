package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/aditinaik811/Pre-Bookings-VGO/internal/models"
	"github.com/google/uuid"
)

// SlotConflictChecker decides whether a proposed slot overlaps an existing booking.
type SlotConflictChecker struct {
	bookingsRepo models.BookingsRepo
	logger       *slog.Logger
}

func NewSlotConflictChecker(bookingsRepo models.BookingsRepo, logger *slog.Logger) *SlotConflictChecker {
	return &SlotConflictChecker{
		bookingsRepo: bookingsRepo,
		logger:       logger,
	}
}

// HasConflict reports true when any booking for (itemID, date), whatever its status,
// overlaps the proposed slot. A failed read or an unparseable stored row counts as a conflict.
func (sc *SlotConflictChecker) HasConflict(ctx context.Context, itemID, date string, proposed models.Slot) bool {
	booked, err := sc.bookingsRepo.ListBookedSlots(ctx, itemID, date)
	if err != nil {
		sc.logger.Error("conflict check read failed, treating slot as taken",
			"item_id", itemID, "date", date, "error", err)
		return true
	}

	for _, b := range booked {
		existing, err := b.Slot()
		if err != nil {
			sc.logger.Warn("stored booking has an invalid slot, treating slot as taken",
				"item_id", itemID, "date", date, "start_time", b.StartTime, "end_time", b.EndTime)
			return true
		}
		if proposed.ConflictsWith(existing) {
			return true
		}
	}
	return false
}

// Check is HasConflict as an error: nil when the slot is free, ErrConflict otherwise.
func (sc *SlotConflictChecker) Check(ctx context.Context, itemID, date string, proposed models.Slot) error {
	if sc.HasConflict(ctx, itemID, date, proposed) {
		return models.ConflictError("slot already booked")
	}
	return nil
}

type BookingRequest struct {
	Item          *models.Item
	BookingDate   string
	StartTime     string
	PaymentStatus string
	UserID        *uuid.UUID
	CustomerName  string
	Phone         string
	Location      string
	PartySize     int
}

// BookingWriter persists one booking row per call. It does not deduplicate.
type BookingWriter struct {
	bookingsRepo models.BookingsRepo
	logger       *slog.Logger
	now          func() time.Time
}

func NewBookingWriter(bookingsRepo models.BookingsRepo, logger *slog.Logger) *BookingWriter {
	return &BookingWriter{
		bookingsRepo: bookingsRepo,
		logger:       logger,
		now:          time.Now,
	}
}

// SlotFor derives the booking slot from a start time and the item duration.
func SlotFor(item *models.Item, startTime string) (models.Slot, error) {
	if item == nil {
		return models.Slot{}, models.ValidationError("item is required")
	}
	end, err := models.ComputeEndTime(startTime, item.DurationMinutes)
	if err != nil {
		return models.Slot{}, err
	}
	return models.ParseSlot(startTime, end)
}

func (bw *BookingWriter) CreateBooking(ctx context.Context, req BookingRequest) (*models.Booking, error) {
	if req.Item == nil || strings.TrimSpace(req.Item.ID) == "" {
		return nil, models.ValidationError("item is required")
	}
	if _, err := models.ParseBookingDate(req.BookingDate); err != nil {
		return nil, err
	}
	if req.PaymentStatus != models.PaymentStatusPending && req.PaymentStatus != models.PaymentStatusPaid {
		return nil, models.ValidationError("unsupported payment status %q", req.PaymentStatus)
	}

	slot, err := SlotFor(req.Item, req.StartTime)
	if err != nil {
		return nil, err
	}

	booking := &models.Booking{
		ID:            uuid.New(),
		ItemID:        req.Item.ID,
		BookingDate:   req.BookingDate,
		StartTime:     slot.Start.String(),
		EndTime:       slot.End.String(),
		Status:        models.BookingStatusConfirmed,
		PaymentStatus: req.PaymentStatus,
		UserID:        req.UserID,
		CustomerName:  req.CustomerName,
		Phone:         req.Phone,
		Location:      req.Location,
		PartySize:     req.PartySize,
		CreatedAt:     bw.now(),
	}

	created, err := bw.bookingsRepo.CreateBooking(ctx, booking)
	if err != nil {
		bw.logger.Error("failed to write booking",
			"item_id", booking.ItemID, "date", booking.BookingDate, "start_time", booking.StartTime, "error", err)
		return nil, err
	}
	return created, nil
}
