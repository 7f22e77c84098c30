package handlers

import (
	"net/http"

	"github.com/aditinaik811/Pre-Bookings-VGO/internal/middleware"
	"github.com/aditinaik811/Pre-Bookings-VGO/internal/models"
	"github.com/aditinaik811/Pre-Bookings-VGO/internal/services"
	"github.com/gin-gonic/gin"
)

type createOrderRequest struct {
	ItemID string  `json:"item_id" binding:"required"`
	Amount float64 `json:"amount"`
}

type verifyPaymentRequest struct {
	services.PaymentCallback
	Amount float64 `json:"amount" binding:"gt=0"`
}

// CreatePaymentOrder opens a gateway order for a client-supplied amount.
func CreatePaymentOrder(ps *services.PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, models.ValidationError("invalid request: %v", err), nil)
			return
		}

		order, err := ps.CreateOrder(c.Request.Context(), req.ItemID, req.Amount)
		if err != nil {
			fail(c, err, nil)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(order, "Order created"))
	}
}

// VerifyPayment checks a checkout callback and records the payment for the signed-in user.
// It never writes a booking.
func VerifyPayment(ps *services.PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req verifyPaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, models.ValidationError("invalid payment payload: %v", err), nil)
			return
		}

		payment, err := ps.VerifyPayment(c.Request.Context(), req.PaymentCallback, middleware.CurrentUserID(c), req.Amount)
		if err != nil {
			fail(c, err, gin.H{"verified": false})
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(gin.H{
			"verified":   true,
			"payment_id": payment.PaymentID,
		}, "Payment verified"))
	}
}
