package config

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Config struct {
	Port               string        `mapstructure:"PORT"`
	DatabaseDriver     string        `mapstructure:"DATABASE_DRIVER"`
	DatabaseDSN        string        `mapstructure:"DATABASE_DSN"`
	GoogleClientID     string        `mapstructure:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string        `mapstructure:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string        `mapstructure:"GOOGLE_REDIRECT_URL"`
	JWTSecret          string        `mapstructure:"JWT_SECRET"`
	FrontendURL        string        `mapstructure:"FRONTEND_URL"`
	MinBookingLength   int           `mapstructure:"MIN_BOOKING_LENGTH"`
	MaxBookingLength   int           `mapstructure:"MAX_BOOKING_LENGTH"`
	ViewCacheTTL       time.Duration `mapstructure:"VIEW_CACHE_TTL"`
	FlowTTL            time.Duration `mapstructure:"FLOW_TTL"`
	EnableCORS         bool          `mapstructure:"ENABLE_CORS"`
	LogLevel           string        `mapstructure:"LOG_LEVEL"`
}

func LoadConfig() *Config {
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DATABASE_DRIVER", "sqlite")
	viper.SetDefault("DATABASE_DSN", "cabins.db")
	viper.SetDefault("GOOGLE_REDIRECT_URL", "http://127.0.0.1:8080/auth/google/callback")
	viper.SetDefault("FRONTEND_URL", "http://127.0.0.1:3000")
	viper.SetDefault("MIN_BOOKING_LENGTH", 3)
	viper.SetDefault("MAX_BOOKING_LENGTH", 90)
	viper.SetDefault("VIEW_CACHE_TTL", "5m")
	viper.SetDefault("FLOW_TTL", "30m")
	viper.SetDefault("LOG_LEVEL", "info")

	viper.BindEnv("DATABASE_DRIVER")
	viper.BindEnv("DATABASE_DSN")
	viper.BindEnv("GOOGLE_CLIENT_ID")
	viper.BindEnv("GOOGLE_CLIENT_SECRET")
	viper.BindEnv("GOOGLE_REDIRECT_URL")
	viper.BindEnv("JWT_SECRET")
	viper.BindEnv("FRONTEND_URL")
	viper.BindEnv("MIN_BOOKING_LENGTH")
	viper.BindEnv("MAX_BOOKING_LENGTH")
	viper.BindEnv("VIEW_CACHE_TTL")
	viper.BindEnv("FLOW_TTL")
	viper.BindEnv("ENABLE_CORS")
	viper.BindEnv("LOG_LEVEL")

	viper.AutomaticEnv()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		logrus.Fatalf("Unable to decode into struct, %v", err)
	}

	return &config
}

// NewLogger builds the process logger at the configured level.
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		logger.Warnf("Unknown log level %q, falling back to info", c.LogLevel)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	return logger
}
