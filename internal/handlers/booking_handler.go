package handlers

import (
	"net/http"

	"github.com/aditinaik811/Pre-Bookings-VGO/internal/middleware"
	"github.com/aditinaik811/Pre-Bookings-VGO/internal/models"
	"github.com/aditinaik811/Pre-Bookings-VGO/internal/services"
	"github.com/gin-gonic/gin"
)

type openAttemptRequest struct {
	ItemID string `json:"item_id" binding:"required"`
}

func OpenBookingAttempt(bf *services.BookingFlow) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req openAttemptRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, models.ValidationError("invalid request: %v", err), nil)
			return
		}

		attempt, err := bf.Open(c.Request.Context(), req.ItemID, middleware.CurrentUserID(c))
		if err != nil {
			fail(c, err, nil)
			return
		}
		c.JSON(http.StatusCreated, models.SuccessResponse(attempt, "Booking started"))
	}
}

func GetBookingAttempt(bf *services.BookingFlow) gin.HandlerFunc {
	return func(c *gin.Context) {
		attempt, err := bf.Get(c.Request.Context(), c.Param("id"), middleware.CurrentUserID(c))
		if err != nil {
			fail(c, err, nil)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(attempt, ""))
	}
}

// failedAttempt reloads the attempt so a failure response shows its final state.
func failedAttempt(c *gin.Context, bf *services.BookingFlow) interface{} {
	attempt, err := bf.Get(c.Request.Context(), c.Param("id"), middleware.CurrentUserID(c))
	if err != nil {
		return nil
	}
	return attempt
}

func SubmitBookingAttempt(bf *services.BookingFlow) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req services.SubmitRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, models.ValidationError("invalid booking form: %v", err), nil)
			return
		}

		res, err := bf.Submit(c.Request.Context(), c.Param("id"), req, middleware.CurrentUserID(c))
		if err != nil {
			fail(c, err, failedAttempt(c, bf))
			return
		}

		msg := "Booking confirmed"
		if res.Order != nil {
			msg = "Complete the payment to confirm your booking"
		}
		c.JSON(http.StatusOK, models.SuccessResponse(res, msg))
	}
}

func VerifyBookingPayment(bf *services.BookingFlow) gin.HandlerFunc {
	return func(c *gin.Context) {
		var cb services.PaymentCallback
		if err := c.ShouldBindJSON(&cb); err != nil {
			fail(c, models.ValidationError("invalid payment payload: %v", err), nil)
			return
		}

		res, err := bf.Verify(c.Request.Context(), c.Param("id"), cb, middleware.CurrentUserID(c))
		if err != nil {
			fail(c, err, failedAttempt(c, bf))
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(res, "Payment verified, booking confirmed"))
	}
}

func DismissBookingAttempt(bf *services.BookingFlow) gin.HandlerFunc {
	return func(c *gin.Context) {
		attempt, err := bf.Dismiss(c.Request.Context(), c.Param("id"), middleware.CurrentUserID(c))
		if err != nil {
			fail(c, err, nil)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(attempt, "Booking dismissed"))
	}
}
