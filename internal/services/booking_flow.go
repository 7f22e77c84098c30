package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/aditinaik811/Pre-Bookings-VGO/internal/models"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	ReasonDismissed      = "checkout dismissed"
	ReasonWindowExpired  = "payment window expired"
	reasonSlotTaken      = "slot already booked"
	reasonPaidNotBooked  = "payment received but the slot could not be booked"
	reasonPaymentInvalid = "payment could not be verified"
)

// SubmitRequest is the booking form.
type SubmitRequest struct {
	BookingDate  string `json:"booking_date" validate:"required,calendardate"`
	StartTime    string `json:"start_time" validate:"required,wallclock"`
	CustomerName string `json:"customer_name" validate:"required,min=2,max=100"`
	Phone        string `json:"phone" validate:"required,min=7,max=20"`
	Location     string `json:"location" validate:"required,oneof=Mangaluru Bangalore"`
	PartySize    int    `json:"party_size" validate:"required,min=1,max=50"`
	PayNow       bool   `json:"pay_now"`
}

// FlowResult is the attempt after a step, plus whatever the step produced.
type FlowResult struct {
	Attempt *models.BookingAttempt `json:"attempt"`
	Booking *models.Booking        `json:"booking,omitempty"`
	Order   *OrderHandle           `json:"order,omitempty"`
}

// BookingFlow drives one booking attempt through its states. Every state change is
// persisted with a compare-and-set on the prior state, so two requests racing on
// the same attempt cannot both advance it.
type BookingFlow struct {
	attemptsRepo models.AttemptsRepo
	catalog      *CatalogService
	checker      *SlotConflictChecker
	writer       *BookingWriter
	payments     *PaymentService
	locker       SlotLocker
	logger       *slog.Logger
	now          func() time.Time
}

func NewBookingFlow(
	attemptsRepo models.AttemptsRepo,
	catalog *CatalogService,
	checker *SlotConflictChecker,
	writer *BookingWriter,
	payments *PaymentService,
	locker SlotLocker,
	logger *slog.Logger,
) *BookingFlow {
	return &BookingFlow{
		attemptsRepo: attemptsRepo,
		catalog:      catalog,
		checker:      checker,
		writer:       writer,
		payments:     payments,
		locker:       locker,
		logger:       logger,
		now:          time.Now,
	}
}

func parseAttemptID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return primitive.NilObjectID, models.NotFoundError("booking attempt %s not found", id)
	}
	return oid, nil
}

func userString(user *uuid.UUID) string {
	if user == nil {
		return ""
	}
	return user.String()
}

// load fetches the attempt and hides attempts owned by someone else.
func (bf *BookingFlow) load(ctx context.Context, id string, user *uuid.UUID) (*models.BookingAttempt, error) {
	oid, err := parseAttemptID(id)
	if err != nil {
		return nil, err
	}
	attempt, err := bf.attemptsRepo.GetAttempt(ctx, oid)
	if err != nil {
		return nil, err
	}
	if attempt.UserID != "" && attempt.UserID != userString(user) {
		return nil, models.NotFoundError("booking attempt %s not found", id)
	}
	return attempt, nil
}

func (bf *BookingFlow) advance(ctx context.Context, attempt *models.BookingAttempt, next models.AttemptState, reason string) error {
	from := attempt.State
	if err := attempt.Transition(next, reason, bf.now()); err != nil {
		return err
	}
	return bf.attemptsRepo.SaveAttempt(ctx, attempt, from)
}

// fail moves the attempt to failed and returns cause for the caller to surface.
func (bf *BookingFlow) fail(ctx context.Context, attempt *models.BookingAttempt, reason string, cause error) error {
	if err := bf.advance(ctx, attempt, models.StateFailed, reason); err != nil {
		bf.logger.Error("failed to record failed booking attempt",
			"attempt_id", attempt.ID.Hex(), "reason", reason, "error", err)
	}
	return cause
}

func (bf *BookingFlow) Open(ctx context.Context, itemID string, user *uuid.UUID) (*models.BookingAttempt, error) {
	item, err := bf.catalog.GetBookableItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	attempt := models.NewBookingAttempt(item.ID, userString(user), bf.now())
	if err := bf.attemptsRepo.CreateAttempt(ctx, attempt); err != nil {
		return nil, err
	}

	bf.logger.Info("booking attempt opened", "attempt_id", attempt.ID.Hex(), "item_id", item.ID)
	return attempt, nil
}

func (bf *BookingFlow) Get(ctx context.Context, id string, user *uuid.UUID) (*models.BookingAttempt, error) {
	return bf.load(ctx, id, user)
}

// Submit validates the form, checks the slot and either books it straight away
// (free flow) or opens a payment order (paid flow).
func (bf *BookingFlow) Submit(ctx context.Context, id string, req SubmitRequest, user *uuid.UUID) (*FlowResult, error) {
	attempt, err := bf.load(ctx, id, user)
	if err != nil {
		return nil, err
	}
	if attempt.State != models.StateFormOpen {
		return nil, errors.Mark(
			errors.Newf("booking attempt is %s, the form can no longer be submitted", attempt.State),
			models.ErrInvalidTransition,
		)
	}

	req.CustomerName = strings.TrimSpace(req.CustomerName)
	req.Phone = strings.TrimSpace(req.Phone)
	if err := models.Validate.Struct(req); err != nil {
		return nil, models.ValidationError("invalid booking form: %v", err)
	}

	item, err := bf.catalog.GetItem(ctx, attempt.ItemID)
	if err != nil {
		return nil, err
	}
	slot, err := SlotFor(item, req.StartTime)
	if err != nil {
		return nil, err
	}

	total := item.TotalFor(req.PartySize)
	paid := req.PayNow && total > 0
	if paid && user == nil {
		return nil, models.UnauthenticatedError("sign in to pay for your booking")
	}

	if attempt.UserID == "" {
		attempt.UserID = userString(user)
	}
	attempt.BookingDate = req.BookingDate
	attempt.StartTime = slot.Start.String()
	attempt.EndTime = slot.End.String()
	attempt.CustomerName = req.CustomerName
	attempt.Phone = req.Phone
	attempt.Location = req.Location
	attempt.PartySize = req.PartySize
	attempt.Amount = total

	if err := bf.advance(ctx, attempt, models.StateConflictChecking, ""); err != nil {
		return nil, err
	}

	release, err := bf.locker.Acquire(ctx, item.ID, req.BookingDate)
	if err != nil {
		return nil, bf.fail(ctx, attempt, reasonSlotTaken, err)
	}
	defer release()

	if err := bf.checker.Check(ctx, item.ID, req.BookingDate, slot); err != nil {
		return nil, bf.fail(ctx, attempt, reasonSlotTaken, err)
	}

	if !paid {
		booking, err := bf.writer.CreateBooking(ctx, BookingRequest{
			Item:          item,
			BookingDate:   req.BookingDate,
			StartTime:     attempt.StartTime,
			PaymentStatus: models.PaymentStatusPending,
			UserID:        user,
			CustomerName:  req.CustomerName,
			Phone:         req.Phone,
			Location:      req.Location,
			PartySize:     req.PartySize,
		})
		if err != nil {
			return nil, bf.fail(ctx, attempt, models.PublicMessage(err), err)
		}

		attempt.BookingID = booking.ID.String()
		if err := bf.advance(ctx, attempt, models.StateSuccess, ""); err != nil {
			return nil, err
		}
		bf.logger.Info("booking confirmed", "attempt_id", attempt.ID.Hex(), "item_id", item.ID, "booking_id", attempt.BookingID)
		return &FlowResult{Attempt: attempt, Booking: booking}, nil
	}

	order, err := bf.payments.CreateOrder(ctx, item.ID, total)
	if err != nil {
		return nil, bf.fail(ctx, attempt, "could not start payment", err)
	}

	attempt.OrderID = order.OrderID
	if err := bf.advance(ctx, attempt, models.StatePaymentPending, ""); err != nil {
		return nil, err
	}
	return &FlowResult{Attempt: attempt, Order: order}, nil
}

// Verify confirms the payment and only then writes the booking, under the slot lock.
func (bf *BookingFlow) Verify(ctx context.Context, id string, cb PaymentCallback, user *uuid.UUID) (*FlowResult, error) {
	attempt, err := bf.load(ctx, id, user)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.UnauthenticatedError("sign in to complete your payment")
	}

	if lapsed(attempt) && cb.OrderID == attempt.OrderID {
		return nil, bf.lateCallback(ctx, attempt, cb, user)
	}

	if err := bf.advance(ctx, attempt, models.StateVerifying, ""); err != nil {
		return nil, err
	}

	if cb.OrderID != attempt.OrderID {
		return nil, bf.fail(ctx, attempt, reasonPaymentInvalid,
			models.VerificationError("payment does not belong to this booking"))
	}

	payment, err := bf.payments.VerifyPayment(ctx, cb, user, attempt.Amount)
	if err != nil {
		return nil, bf.fail(ctx, attempt, reasonPaymentInvalid, err)
	}
	attempt.PaymentID = payment.PaymentID

	item, err := bf.catalog.GetItem(ctx, attempt.ItemID)
	if err != nil {
		return nil, bf.fail(ctx, attempt, reasonPaidNotBooked, err)
	}
	slot, err := models.ParseSlot(attempt.StartTime, attempt.EndTime)
	if err != nil {
		return nil, bf.fail(ctx, attempt, reasonPaidNotBooked, err)
	}

	release, err := bf.locker.Acquire(ctx, item.ID, attempt.BookingDate)
	if err != nil {
		bf.logPaidNotBooked(attempt, err)
		return nil, bf.fail(ctx, attempt, reasonPaidNotBooked, err)
	}
	defer release()

	if err := bf.checker.Check(ctx, item.ID, attempt.BookingDate, slot); err != nil {
		bf.logPaidNotBooked(attempt, err)
		return nil, bf.fail(ctx, attempt, reasonSlotTaken, err)
	}

	booking, err := bf.writer.CreateBooking(ctx, BookingRequest{
		Item:          item,
		BookingDate:   attempt.BookingDate,
		StartTime:     attempt.StartTime,
		PaymentStatus: models.PaymentStatusPaid,
		UserID:        user,
		CustomerName:  attempt.CustomerName,
		Phone:         attempt.Phone,
		Location:      attempt.Location,
		PartySize:     attempt.PartySize,
	})
	if err != nil {
		bf.logPaidNotBooked(attempt, err)
		return nil, bf.fail(ctx, attempt, reasonPaidNotBooked, err)
	}

	attempt.BookingID = booking.ID.String()
	if err := bf.advance(ctx, attempt, models.StateSuccess, ""); err != nil {
		return nil, err
	}
	bf.logger.Info("paid booking confirmed",
		"attempt_id", attempt.ID.Hex(), "item_id", item.ID, "order_id", attempt.OrderID, "booking_id", attempt.BookingID)
	return &FlowResult{Attempt: attempt, Booking: booking}, nil
}

// lapsed reports an attempt that opened an order but was dismissed or expired
// before the payment callback arrived.
func lapsed(attempt *models.BookingAttempt) bool {
	if attempt.OrderID == "" || attempt.BookingID != "" {
		return false
	}
	return attempt.State == models.StateIdle || attempt.State == models.StateFailed
}

// lateCallback records a payment the gateway captured after the attempt lapsed.
// The slot is not booked, so a verified payment is flagged for refund.
func (bf *BookingFlow) lateCallback(ctx context.Context, attempt *models.BookingAttempt, cb PaymentCallback, user *uuid.UUID) error {
	payment, err := bf.payments.VerifyPayment(ctx, cb, user, attempt.Amount)
	if err != nil {
		bf.logger.Warn("late payment callback rejected",
			"attempt_id", attempt.ID.Hex(), "order_id", cb.OrderID, "error", err)
		return err
	}

	attempt.PaymentID = payment.PaymentID
	if err := bf.attemptsRepo.SaveAttempt(ctx, attempt, attempt.State); err != nil {
		bf.logger.Error("failed to record late payment on booking attempt",
			"attempt_id", attempt.ID.Hex(), "error", err)
	}

	cause := errors.Mark(
		errors.Newf("booking attempt is %s, payment arrived too late", attempt.State),
		models.ErrInvalidTransition,
	)
	bf.logPaidNotBooked(attempt, cause)
	return cause
}

// logPaidNotBooked flags a captured payment without a booking; it needs a manual refund.
func (bf *BookingFlow) logPaidNotBooked(attempt *models.BookingAttempt, err error) {
	bf.logger.Error("verified payment could not be booked, refund required",
		"attempt_id", attempt.ID.Hex(), "item_id", attempt.ItemID,
		"order_id", attempt.OrderID, "payment_id", attempt.PaymentID, "error", err)
}

// Dismiss resets the attempt to idle. Any open gateway order is left to expire.
func (bf *BookingFlow) Dismiss(ctx context.Context, id string, user *uuid.UUID) (*models.BookingAttempt, error) {
	attempt, err := bf.load(ctx, id, user)
	if err != nil {
		return nil, err
	}
	if err := bf.advance(ctx, attempt, models.StateIdle, ReasonDismissed); err != nil {
		return nil, err
	}
	return attempt, nil
}
