package models

import (
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
)

var (
	ErrValidation        = errors.New("validation error")
	ErrConflict          = errors.New("slot conflict")
	ErrConfiguration     = errors.New("configuration error")
	ErrPersistence       = errors.New("persistence error")
	ErrVerification      = errors.New("payment verification failed")
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid booking state transition")
	ErrUnauthenticated   = errors.New("authentication required")
)

func ValidationError(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrValidation)
}

func ConflictError(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrConflict)
}

func ConfigurationError(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrConfiguration)
}

func VerificationError(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrVerification)
}

func UnauthenticatedError(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrUnauthenticated)
}

func NotFoundError(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrNotFound)
}

// PersistenceError wraps a data-store failure. A PostgREST unique violation
// (code 23505) is reported as a conflict instead.
func PersistenceError(err error, msg string) error {
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return errors.Mark(errors.WithSecondaryError(errors.New("slot already booked"), err), ErrConflict)
	}
	return errors.Mark(errors.Wrap(err, msg), ErrPersistence)
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "(23505)")
}

// StatusFor maps an error from the taxonomy to an HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrVerification):
		return http.StatusPaymentRequired
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict), errors.Is(err, ErrInvalidTransition):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the message surfaced to the user. Internal failures are not echoed.
func PublicMessage(err error) string {
	switch {
	case errors.Is(err, ErrConfiguration):
		return "payment gateway is not configured"
	case errors.Is(err, ErrPersistence):
		return "could not save your booking, please try again"
	case StatusFor(err) == http.StatusInternalServerError:
		return "internal server error"
	default:
		return err.Error()
	}
}
