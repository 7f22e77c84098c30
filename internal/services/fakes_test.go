package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/aditinaik811/Pre-Bookings-VGO/internal/models"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	testKeyID  = "rzp_test_key"
	testSecret = "rzp_test_secret"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sign(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

type fakeItemsRepo struct {
	items map[string]*models.Item
}

func (f *fakeItemsRepo) ListAvailableItems(ctx context.Context) ([]*models.Item, error) {
	out := []*models.Item{}
	for _, it := range f.items {
		if it.Available {
			out = append(out, it)
		}
	}
	return out, nil
}

func (f *fakeItemsRepo) GetItemByID(ctx context.Context, id string) (*models.Item, error) {
	it, ok := f.items[id]
	if !ok {
		return nil, models.NotFoundError("ride %s not found", id)
	}
	return it, nil
}

type fakeBookingsRepo struct {
	mu       sync.Mutex
	rows     []*models.Booking
	readErr  error
	writeErr error
}

func (f *fakeBookingsRepo) ListBookedSlots(ctx context.Context, itemID, date string) ([]models.BookedSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return nil, f.readErr
	}
	out := []models.BookedSlot{}
	for _, b := range f.rows {
		if b.ItemID == itemID && b.BookingDate == date {
			out = append(out, models.BookedSlot{ItemID: b.ItemID, BookingDate: b.BookingDate, StartTime: b.StartTime, EndTime: b.EndTime})
		}
	}
	return out, nil
}

func (f *fakeBookingsRepo) CreateBooking(ctx context.Context, booking *models.Booking) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return nil, models.PersistenceError(f.writeErr, "failed to insert booking")
	}
	f.rows = append(f.rows, booking)
	return booking, nil
}

func (f *fakeBookingsRepo) add(itemID, date, start, end string) {
	f.rows = append(f.rows, &models.Booking{ItemID: itemID, BookingDate: date, StartTime: start, EndTime: end})
}

type fakePaymentsRepo struct {
	rows     []*models.Payment
	writeErr error
}

func (f *fakePaymentsRepo) CreatePayment(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	if f.writeErr != nil {
		return nil, models.PersistenceError(f.writeErr, "failed to insert payment record")
	}
	f.rows = append(f.rows, payment)
	return payment, nil
}

func (f *fakePaymentsRepo) GetPaymentByOrderID(ctx context.Context, orderID string) (*models.Payment, error) {
	for _, p := range f.rows {
		if p.ReferenceID == orderID {
			return p, nil
		}
	}
	return nil, nil
}

// fakeAttemptsRepo keeps copies so the compare-and-set in SaveAttempt is meaningful.
type fakeAttemptsRepo struct {
	mu       sync.Mutex
	attempts map[primitive.ObjectID]models.BookingAttempt
}

func newFakeAttemptsRepo() *fakeAttemptsRepo {
	return &fakeAttemptsRepo{attempts: map[primitive.ObjectID]models.BookingAttempt{}}
}

func snapshot(a *models.BookingAttempt) models.BookingAttempt {
	c := *a
	c.History = append([]models.AttemptTransition(nil), a.History...)
	return c
}

func (f *fakeAttemptsRepo) CreateAttempt(ctx context.Context, attempt *models.BookingAttempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts[attempt.ID] = snapshot(attempt)
	return nil
}

func (f *fakeAttemptsRepo) GetAttempt(ctx context.Context, id primitive.ObjectID) (*models.BookingAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.attempts[id]
	if !ok {
		return nil, models.NotFoundError("booking attempt %s not found", id.Hex())
	}
	c := snapshot(&a)
	return &c, nil
}

func (f *fakeAttemptsRepo) SaveAttempt(ctx context.Context, attempt *models.BookingAttempt, from models.AttemptState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.attempts[attempt.ID]
	if !ok || stored.State != from {
		return errors.Mark(errors.New("stale attempt"), models.ErrInvalidTransition)
	}
	f.attempts[attempt.ID] = snapshot(attempt)
	return nil
}

func (f *fakeAttemptsRepo) ExpirePendingAttempts(ctx context.Context, olderThan time.Time, reason string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, a := range f.attempts {
		if a.State == models.StatePaymentPending && a.UpdatedAt.Before(olderThan) {
			if err := a.Transition(models.StateFailed, reason, time.Now()); err != nil {
				return n, err
			}
			f.attempts[id] = a
			n++
		}
	}
	return n, nil
}

func (f *fakeAttemptsRepo) stored(id primitive.ObjectID) models.BookingAttempt {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attempts[id]
}

type mockOrders struct {
	mock.Mock
}

func (m *mockOrders) Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error) {
	args := m.Called(data, extraHeaders)
	resp, _ := args.Get(0).(map[string]interface{})
	return resp, args.Error(1)
}

type fakeLocker struct {
	err      error
	acquired int
	released int
}

func (f *fakeLocker) Acquire(ctx context.Context, itemID, date string) (ReleaseFunc, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.acquired++
	return func() { f.released++ }, nil
}
