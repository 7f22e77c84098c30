package models

import (
	"context"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type AttemptState string

const (
	StateIdle             AttemptState = "idle"
	StateFormOpen         AttemptState = "form_open"
	StateConflictChecking AttemptState = "conflict_checking"
	StatePaymentPending   AttemptState = "payment_pending"
	StateVerifying        AttemptState = "verifying"
	StateSuccess          AttemptState = "success"
	StateFailed           AttemptState = "failed"
)

var attemptTransitions = map[AttemptState][]AttemptState{
	StateIdle:             {StateFormOpen},
	StateFormOpen:         {StateConflictChecking, StateIdle},
	StateConflictChecking: {StatePaymentPending, StateSuccess, StateFailed},
	StatePaymentPending:   {StateVerifying, StateIdle, StateFailed},
	StateVerifying:        {StateSuccess, StateFailed},
}

func (s AttemptState) CanTransitionTo(next AttemptState) bool {
	for _, allowed := range attemptTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s AttemptState) IsTerminal() bool {
	return s == StateSuccess || s == StateFailed
}

type AttemptTransition struct {
	From   AttemptState `bson:"from" json:"from"`
	To     AttemptState `bson:"to" json:"to"`
	Reason string       `bson:"reason,omitempty" json:"reason,omitempty"`
	At     time.Time    `bson:"at" json:"at"`
}

// BookingAttempt is the state record of one user's pass through the booking modal.
type BookingAttempt struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	ItemID        string              `bson:"item_id" json:"item_id"`
	UserID        string              `bson:"user_id,omitempty" json:"user_id,omitempty"`
	State         AttemptState        `bson:"state" json:"state"`
	FailureReason string              `bson:"failure_reason,omitempty" json:"failure_reason,omitempty"`
	BookingDate   string              `bson:"booking_date,omitempty" json:"booking_date,omitempty"`
	StartTime     string              `bson:"start_time,omitempty" json:"start_time,omitempty"`
	EndTime       string              `bson:"end_time,omitempty" json:"end_time,omitempty"`
	CustomerName  string              `bson:"customer_name,omitempty" json:"customer_name,omitempty"`
	Phone         string              `bson:"phone,omitempty" json:"phone,omitempty"`
	Location      string              `bson:"location,omitempty" json:"location,omitempty"`
	PartySize     int                 `bson:"party_size,omitempty" json:"party_size,omitempty"`
	Amount        float64             `bson:"amount,omitempty" json:"amount,omitempty"`
	OrderID       string              `bson:"order_id,omitempty" json:"order_id,omitempty"`
	PaymentID     string              `bson:"payment_id,omitempty" json:"payment_id,omitempty"`
	BookingID     string              `bson:"booking_id,omitempty" json:"booking_id,omitempty"`
	History       []AttemptTransition `bson:"history" json:"history"`
	CreatedAt     time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time           `bson:"updated_at" json:"updated_at"`
}

func NewBookingAttempt(itemID, userID string, now time.Time) *BookingAttempt {
	return &BookingAttempt{
		ID:        primitive.NewObjectID(),
		ItemID:    itemID,
		UserID:    userID,
		State:     StateFormOpen,
		History:   []AttemptTransition{{From: StateIdle, To: StateFormOpen, At: now}},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Transition moves the attempt in memory and records it in the history.
func (a *BookingAttempt) Transition(next AttemptState, reason string, now time.Time) error {
	if !a.State.CanTransitionTo(next) {
		return errors.Mark(
			errors.Newf("cannot move booking attempt from %s to %s", a.State, next),
			ErrInvalidTransition,
		)
	}
	a.History = append(a.History, AttemptTransition{From: a.State, To: next, Reason: reason, At: now})
	a.State = next
	a.UpdatedAt = now
	if next == StateFailed {
		a.FailureReason = reason
	} else {
		a.FailureReason = ""
	}
	return nil
}

type AttemptsRepo interface {
	CreateAttempt(ctx context.Context, attempt *BookingAttempt) error
	GetAttempt(ctx context.Context, id primitive.ObjectID) (*BookingAttempt, error)
	// SaveAttempt persists the attempt only if the stored state is still from.
	SaveAttempt(ctx context.Context, attempt *BookingAttempt, from AttemptState) error
	ExpirePendingAttempts(ctx context.Context, olderThan time.Time, reason string) (int64, error)
}

func (mdb *MongodbRepo) CreateAttempt(ctx context.Context, attempt *BookingAttempt) error {
	col, err := mdb.GetCollection(ctx, AttemptsColName)
	if err != nil {
		return PersistenceError(err, "failed to open attempts collection")
	}
	if attempt.ID.IsZero() {
		attempt.ID = primitive.NewObjectID()
	}
	if _, err := col.InsertOne(ctx, attempt); err != nil {
		return PersistenceError(err, "failed to insert booking attempt")
	}
	return nil
}

func (mdb *MongodbRepo) GetAttempt(ctx context.Context, id primitive.ObjectID) (*BookingAttempt, error) {
	col, err := mdb.GetCollection(ctx, AttemptsColName)
	if err != nil {
		return nil, PersistenceError(err, "failed to open attempts collection")
	}

	var attempt BookingAttempt
	err = col.FindOne(ctx, bson.M{"_id": id}).Decode(&attempt)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, NotFoundError("booking attempt %s not found", id.Hex())
	}
	if err != nil {
		return nil, PersistenceError(err, "failed to get booking attempt")
	}
	return &attempt, nil
}

func (mdb *MongodbRepo) SaveAttempt(ctx context.Context, attempt *BookingAttempt, from AttemptState) error {
	col, err := mdb.GetCollection(ctx, AttemptsColName)
	if err != nil {
		return PersistenceError(err, "failed to open attempts collection")
	}

	res, err := col.ReplaceOne(ctx, bson.M{"_id": attempt.ID, "state": from}, attempt)
	if err != nil {
		return PersistenceError(err, "failed to save booking attempt")
	}
	if res.MatchedCount == 0 {
		return errors.Mark(
			fmt.Errorf("booking attempt %s is no longer in state %s", attempt.ID.Hex(), from),
			ErrInvalidTransition,
		)
	}
	return nil
}

func (mdb *MongodbRepo) ExpirePendingAttempts(ctx context.Context, olderThan time.Time, reason string) (int64, error) {
	col, err := mdb.GetCollection(ctx, AttemptsColName)
	if err != nil {
		return 0, PersistenceError(err, "failed to open attempts collection")
	}

	now := time.Now()
	filter := bson.M{
		"state":      StatePaymentPending,
		"updated_at": bson.M{"$lt": olderThan},
	}
	update := bson.M{
		"$set": bson.M{
			"state":          StateFailed,
			"failure_reason": reason,
			"updated_at":     now,
		},
		"$push": bson.M{
			"history": AttemptTransition{From: StatePaymentPending, To: StateFailed, Reason: reason, At: now},
		},
	}

	res, err := col.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, PersistenceError(err, "failed to expire pending attempts")
	}
	return res.ModifiedCount, nil
}
