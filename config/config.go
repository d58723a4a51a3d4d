package config

import (
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config holds everything the core consumes from the environment.
type Config struct {
	ServerPort string `mapstructure:"PORT"`

	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DBHost      string `mapstructure:"DB_HOST"`
	DBPort      string `mapstructure:"DB_PORT"`
	DBUser      string `mapstructure:"DB_USER"`
	DBPassword  string `mapstructure:"DB_PASSWORD"`
	DBName      string `mapstructure:"DB_NAME"`

	JWTSecret    string        `mapstructure:"JWT_SECRET"`
	JWTExpiresIn time.Duration `mapstructure:"JWT_EXPIRES_IN"`

	// Payment gateway credentials. The gateway verifier stays disabled
	// unless key, secret and base URL are all present.
	PaymentAPIKey    string        `mapstructure:"PAYMENT_API_KEY"`
	PaymentAPISecret string        `mapstructure:"PAYMENT_API_SECRET"`
	PaymentAPIBase   string        `mapstructure:"PAYMENT_API_BASE"`
	PaymentTimeout   time.Duration `mapstructure:"PAYMENT_TIMEOUT"`

	ShippingFee int64 `mapstructure:"SHIPPING_FEE"`

	LockoutThreshold int           `mapstructure:"LOCKOUT_THRESHOLD"`
	LockoutDuration  time.Duration `mapstructure:"LOCKOUT_DURATION"`
}

// Load reads .env from the working directory (if present) merged with
// process environment variables. A missing .env is not an error.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	// Defaults also register every key so AutomaticEnv can resolve it
	// during Unmarshal.
	v.SetDefault("PORT", "8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_NAME", "")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_EXPIRES_IN", "24h")
	v.SetDefault("PAYMENT_API_KEY", "")
	v.SetDefault("PAYMENT_API_SECRET", "")
	v.SetDefault("PAYMENT_API_BASE", "")
	v.SetDefault("PAYMENT_TIMEOUT", "10s")
	v.SetDefault("SHIPPING_FEE", 3000)
	v.SetDefault("LOCKOUT_THRESHOLD", 5)
	v.SetDefault("LOCKOUT_DURATION", "2h")

	if _, err := os.Stat(".env"); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// GatewayConfigured reports whether real payment verification can run.
func (c *Config) GatewayConfigured() bool {
	return c.PaymentAPIKey != "" && c.PaymentAPISecret != "" && c.PaymentAPIBase != ""
}
