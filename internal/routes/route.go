package routes

import (
	"time"

	"github.com/aditinaik811/Pre-Bookings-VGO/internal/container"
	"github.com/aditinaik811/Pre-Bookings-VGO/internal/handlers"
	"github.com/aditinaik811/Pre-Bookings-VGO/internal/middleware"
	"github.com/aditinaik811/Pre-Bookings-VGO/internal/models"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// SetupRoutes configures all routes with the dependency container
func SetupRoutes(container *container.Container) *gin.Engine {
	cfg := container.Config
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		models.RegisterValidations(v)
	}

	r := gin.New()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(container.Logger))
	r.Use(middleware.ErrorHandler(container.Logger))
	r.Use(gin.Recovery())

	auth := container.Authenticator
	secure := cfg.IsProduction()

	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status":  "OK",
				"service": "vgo-bookings-api",
			})
		})

		authRoutes := v1.Group("/auth")
		{
			authRoutes.GET("/google", handlers.GoogleAuth(container.AuthRepo, secure))
			authRoutes.GET("/google/callback", handlers.GoogleAuthCallback(container.AuthRepo, cfg.FrontendURL, secure))
			authRoutes.POST("/logout", handlers.Logout(secure))
			authRoutes.GET("/me", auth.RequireAuth(), handlers.Me())
		}

		itemRoutes := v1.Group("/items")
		{
			itemRoutes.GET("", handlers.ListItems(container.CatalogService))
			itemRoutes.GET("/:id", handlers.GetItem(container.CatalogService))
			itemRoutes.GET("/:id/slots", handlers.ListBookedSlots(container.CatalogService))
		}

		attemptRoutes := v1.Group("/bookings/attempts")
		attemptRoutes.Use(auth.OptionalAuth())
		{
			attemptRoutes.POST("", handlers.OpenBookingAttempt(container.BookingFlow))
			attemptRoutes.GET("/:id", handlers.GetBookingAttempt(container.BookingFlow))
			attemptRoutes.POST("/:id/submit", handlers.SubmitBookingAttempt(container.BookingFlow))
			attemptRoutes.POST("/:id/verify", handlers.VerifyBookingPayment(container.BookingFlow))
			attemptRoutes.POST("/:id/dismiss", handlers.DismissBookingAttempt(container.BookingFlow))
		}

		paymentRoutes := v1.Group("/payments")
		paymentRoutes.Use(auth.RequireAuth())
		{
			paymentRoutes.POST("/orders", handlers.CreatePaymentOrder(container.PaymentService))
			paymentRoutes.POST("/verify", handlers.VerifyPayment(container.PaymentService))
		}
	}

	return r
}
