package models

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/supabase-community/supabase-go"
	"github.com/tidwall/gjson"
)

// fakePostgrest answers PostgREST requests under /rest/v1 from a route table.
type fakePostgrest struct {
	routes   map[string]http.HandlerFunc
	lastBody []byte
	lastURL  string
}

func newTestSupabaseRepo(t *testing.T, routes map[string]http.HandlerFunc) (*SupabaseRepo, *fakePostgrest) {
	t.Helper()
	fake := &fakePostgrest{routes: routes}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fake.lastURL = r.URL.String()
		fake.lastBody, _ = io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(fake.lastBody))
		h, ok := fake.routes[r.Method+" "+r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"code":"PGRST000","message":"no route"}`))
			return
		}
		h(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := supabase.NewClient(srv.URL, "test-key", nil)
	require.NoError(t, err)
	return SupabaseNewRepo(client), fake
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestListAvailableItems(t *testing.T) {
	repo, fake := newTestSupabaseRepo(t, map[string]http.HandlerFunc{
		"GET /rest/v1/rides": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, []map[string]interface{}{
				{"ride_id": "r1", "ride_name": "Sunset Cruise", "price": 1500, "duration_minutes": 30, "available": true},
			})
		},
	})

	items, err := repo.ListAvailableItems(t.Context())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Sunset Cruise", items[0].Name)
	assert.Equal(t, 30, items[0].DurationMinutes)
	assert.Contains(t, fake.lastURL, "available=eq.true")
}

func TestGetItemByIDNotFound(t *testing.T) {
	repo, _ := newTestSupabaseRepo(t, map[string]http.HandlerFunc{
		"GET /rest/v1/rides": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, []interface{}{})
		},
	})

	_, err := repo.GetItemByID(t.Context(), "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestListBookedSlotsFiltersByItemAndDate(t *testing.T) {
	repo, fake := newTestSupabaseRepo(t, map[string]http.HandlerFunc{
		"GET /rest/v1/bookings": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, []map[string]string{
				{"ride_id": "r1", "booking_date": "2025-10-05", "start_time": "10:00:00", "end_time": "11:00:00"},
			})
		},
	})

	slots, err := repo.ListBookedSlots(t.Context(), "r1", "2025-10-05")
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Contains(t, fake.lastURL, "ride_id=eq.r1")
	assert.Contains(t, fake.lastURL, "booking_date=eq.2025-10-05")

	slot, err := slots[0].Slot()
	require.NoError(t, err)
	assert.Equal(t, "10:00", slot.Start.String())
}

func TestCreateBookingUniqueViolationIsConflict(t *testing.T) {
	repo, fake := newTestSupabaseRepo(t, map[string]http.HandlerFunc{
		"POST /rest/v1/bookings": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusConflict, map[string]string{
				"code":    "23505",
				"message": `duplicate key value violates unique constraint "bookings_slot_key"`,
			})
		},
	})

	_, err := repo.CreateBooking(t.Context(), &Booking{
		ID:            uuid.New(),
		ItemID:        "r1",
		BookingDate:   "2025-10-05",
		StartTime:     "10:00",
		EndTime:       "10:30",
		Status:        BookingStatusConfirmed,
		PaymentStatus: PaymentStatusPending,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConflict))
	assert.Equal(t, "slot already booked", err.Error())

	body := gjson.ParseBytes(fake.lastBody)
	assert.Equal(t, "r1", body.Get("ride_id").String())
	assert.Equal(t, "pending", body.Get("payment_status").String())
	assert.False(t, body.Get("user_id").Exists())
}

func TestCreateBookingStoreFailureIsPersistence(t *testing.T) {
	repo, _ := newTestSupabaseRepo(t, map[string]http.HandlerFunc{
		"POST /rest/v1/bookings": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"code": "XX000", "message": "boom"})
		},
	})

	_, err := repo.CreateBooking(t.Context(), &Booking{ID: uuid.New(), ItemID: "r1"})
	assert.True(t, errors.Is(err, ErrPersistence))
	assert.Equal(t, "could not save your booking, please try again", PublicMessage(err))
}

func TestCreatePaymentRecordsOrderReference(t *testing.T) {
	repo, fake := newTestSupabaseRepo(t, map[string]http.HandlerFunc{
		"POST /rest/v1/payments": func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte("[" + string(fakeBody(r)) + "]"))
		},
	})

	uid := uuid.New()
	created, err := repo.CreatePayment(t.Context(), &Payment{
		ID:            uuid.New(),
		Signature:     "sig",
		UserID:        &uid,
		Amount:        3000,
		PaymentMethod: PaymentMethodRazorpay,
		Status:        PaymentStatusCompleted,
		ReferenceType: ReferenceTypeOrder,
		ReferenceID:   "order_1",
		PaymentID:     "pay_1",
	})
	require.NoError(t, err)
	assert.Equal(t, "order_1", created.ReferenceID)

	body := gjson.ParseBytes(fake.lastBody)
	assert.Equal(t, uid.String(), body.Get("user_id").String())
	assert.Equal(t, "razorpay", body.Get("payment_method").String())
	assert.Equal(t, "completed", body.Get("status").String())
}

func TestGetPaymentByOrderIDAbsent(t *testing.T) {
	repo, fake := newTestSupabaseRepo(t, map[string]http.HandlerFunc{
		"GET /rest/v1/payments": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, []interface{}{})
		},
	})

	p, err := repo.GetPaymentByOrderID(t.Context(), "order_1")
	require.NoError(t, err)
	assert.Nil(t, p)
	assert.Contains(t, fake.lastURL, "reference_id=eq.order_1")
}

func fakeBody(r *http.Request) []byte {
	b, _ := io.ReadAll(r.Body)
	return b
}
