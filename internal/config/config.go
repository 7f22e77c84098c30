package config

import (
	"time"

	"github.com/aditinaik811/Pre-Bookings-VGO/internal/models"
	"github.com/cockroachdb/errors"
	"github.com/kelseyhightower/envconfig"
)

// ErrMissingGatewayCredentials is returned by LoadConfig when the Razorpay key pair is absent.
var ErrMissingGatewayCredentials = errors.Mark(
	errors.New("razorpay credentials are not set in environment variables"),
	models.ErrConfiguration,
)

type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	FrontendURL string `envconfig:"FRONTEND_URL" default:"http://localhost:3000"`

	Supabase SupabaseConfig
	MongoDB  MongoDBConfig
	Redis    RedisConfig
	Razorpay RazorpayConfig
	Booking  BookingConfig
}

type SupabaseConfig struct {
	URL            string `envconfig:"SUPABASE_URL" required:"true"`
	AnonKey        string `envconfig:"SUPABASE_ANON_KEY" required:"true"`
	ServiceRoleKey string `envconfig:"SUPABASE_SERVICE_ROLE_KEY"`
	JWTSecret      string `envconfig:"SUPABASE_JWT_SECRET"`
}

type MongoDBConfig struct {
	URI      string `envconfig:"MONGODB_URI" required:"true"`
	Password string `envconfig:"MONGODB_PASSWORD"`
	Database string `envconfig:"MONGODB_DATABASE" default:"vgo"`
}

type RedisConfig struct {
	URL string `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`
}

// Key pair is checked by hand so a missing value surfaces as ErrMissingGatewayCredentials.
type RazorpayConfig struct {
	KeyID        string `envconfig:"RAZORPAY_KEY_ID"`
	SecretKey    string `envconfig:"RAZORPAY_SECRET_KEY"`
	Currency     string `envconfig:"PAYMENT_CURRENCY" default:"INR"`
	MerchantName string `envconfig:"MERCHANT_NAME" default:"VGO"`
}

type BookingConfig struct {
	SlotLockTTL   time.Duration `envconfig:"SLOT_LOCK_TTL" default:"15s"`
	PaymentWindow time.Duration `envconfig:"PAYMENT_WINDOW" default:"15m"`
	SweepInterval time.Duration `envconfig:"SWEEP_INTERVAL" default:"1m"`
}

func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Razorpay.KeyID == "" || c.Razorpay.SecretKey == "" {
		return ErrMissingGatewayCredentials
	}
	if c.Booking.SlotLockTTL <= 0 {
		return errors.New("SLOT_LOCK_TTL must be positive")
	}
	if c.Booking.PaymentWindow <= 0 || c.Booking.SweepInterval <= 0 {
		return errors.New("PAYMENT_WINDOW and SWEEP_INTERVAL must be positive")
	}
	return nil
}

// SupabaseKey is the key used for server-side PostgREST calls.
func (c *Config) SupabaseKey() string {
	if c.Supabase.ServiceRoleKey != "" {
		return c.Supabase.ServiceRoleKey
	}
	return c.Supabase.AnonKey
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
