package container

import (
	"log/slog"

	"github.com/aditinaik811/Pre-Bookings-VGO/internal/config"
	"github.com/aditinaik811/Pre-Bookings-VGO/internal/middleware"
	"github.com/aditinaik811/Pre-Bookings-VGO/internal/models"
	"github.com/aditinaik811/Pre-Bookings-VGO/internal/services"
	"github.com/redis/go-redis/v9"
	"github.com/supabase-community/supabase-go"
	"go.mongodb.org/mongo-driver/mongo"
)

// Container holds all application dependencies
type Container struct {
	Config *config.Config
	Logger *slog.Logger
	// Database clients
	SupabaseClient *supabase.Client
	MongoDBClient  *mongo.Client
	RedisClient    *redis.Client

	AuthRepo       models.AuthRepo
	Authenticator  *middleware.Authenticator
	CatalogService *services.CatalogService
	PaymentService *services.PaymentService
	BookingFlow    *services.BookingFlow
	Sweeper        *services.AttemptSweeper
}

// NewContainer creates a new dependency injection container
func NewContainer(
	cfg *config.Config,
	logger *slog.Logger,
	supabaseClient *supabase.Client,
	mongoDBClient *mongo.Client,
	redisClient *redis.Client,
	orders services.OrderCreator,
	validator middleware.TokenValidator,
) (*Container, error) {
	// Initialize repositories
	supa := models.SupabaseNewRepo(supabaseClient)
	attempts := models.MongodbNewRepo(mongoDBClient, cfg.MongoDB.Database)

	paymentService, err := services.NewPaymentService(orders, supa, cfg.Razorpay, logger)
	if err != nil {
		return nil, err
	}

	catalog := services.NewCatalogService(supa, supa)
	flow := services.NewBookingFlow(
		attempts,
		catalog,
		services.NewSlotConflictChecker(supa, logger),
		services.NewBookingWriter(supa, logger),
		paymentService,
		services.NewRedisSlotLocker(redisClient, cfg.Booking.SlotLockTTL, logger),
		logger,
	)

	return &Container{
		Config:         cfg,
		Logger:         logger,
		SupabaseClient: supabaseClient,
		MongoDBClient:  mongoDBClient,
		RedisClient:    redisClient,
		AuthRepo:       supa,
		Authenticator:  middleware.NewAuthenticator(validator, supa, cfg.IsProduction(), logger),
		CatalogService: catalog,
		PaymentService: paymentService,
		BookingFlow:    flow,
		Sweeper:        services.NewAttemptSweeper(attempts, cfg.Booking.PaymentWindow, cfg.Booking.SweepInterval, logger),
	}, nil
}
