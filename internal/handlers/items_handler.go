package handlers

import (
	"net/http"
	"strings"

	"github.com/aditinaik811/Pre-Bookings-VGO/internal/middleware"
	"github.com/aditinaik811/Pre-Bookings-VGO/internal/models"
	"github.com/aditinaik811/Pre-Bookings-VGO/internal/services"
	"github.com/gin-gonic/gin"
)

// fail hands err to middleware.ErrorHandler, optionally with a payload for the response body.
func fail(c *gin.Context, err error, data interface{}) {
	if data != nil {
		c.Set(middleware.ErrorDataKey, data)
	}
	_ = c.Error(err)
	c.Abort()
}

// itemID normalizes the :id path param; clients sometimes send it quoted.
func itemID(c *gin.Context) string {
	return strings.Trim(strings.TrimSpace(c.Param("id")), "\"'")
}

func ListItems(cs *services.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := cs.ListAvailable(c.Request.Context())
		if err != nil {
			fail(c, err, nil)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(items, "Rides retrieved successfully"))
	}
}

func GetItem(cs *services.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		item, err := cs.GetItem(c.Request.Context(), itemID(c))
		if err != nil {
			fail(c, err, nil)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(item, "Ride retrieved successfully"))
	}
}

type slotsQuery struct {
	Date string `form:"date" binding:"required,calendardate"`
}

// ListBookedSlots answers GET /items/:id/slots?date=YYYY-MM-DD.
func ListBookedSlots(cs *services.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q slotsQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			fail(c, models.ValidationError("date must be a YYYY-MM-DD calendar date"), nil)
			return
		}

		slots, err := cs.BookedSlots(c.Request.Context(), itemID(c), q.Date)
		if err != nil {
			fail(c, err, nil)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(slots, "Booked slots retrieved successfully"))
	}
}
