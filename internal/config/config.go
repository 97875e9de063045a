package config

import (
	"log"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	ServerPort   string `mapstructure:"SERVER_PORT"`
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	RedisAddr    string `mapstructure:"REDIS_ADDR"`
	RabbitMQURL  string `mapstructure:"RABBITMQ_URL"`
	JWTSecret    string `mapstructure:"JWT_SECRET"`
	ClientOrigin string `mapstructure:"CLIENT_ORIGIN"`
	AWSRegion    string `mapstructure:"AWS_REGION"`
	EmailSender  string `mapstructure:"EMAIL_SENDER"`
	StripeAPIKey string

	// PendingRequestTTL is how long a request may sit in pending before the
	// reaper cancels it. Zero disables the reaper.
	PendingRequestTTL time.Duration `mapstructure:"PENDING_REQUEST_TTL"`

	// TrackingEntryTTL is how long a deactivated tracking entry stays
	// readable before Redis evicts it.
	TrackingEntryTTL time.Duration `mapstructure:"TRACKING_ENTRY_TTL"`
}

func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName(".env") // Name of config file (without extension)
	viper.SetConfigType("env")

	viper.AutomaticEnv() // Read in environment variables that match

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("PENDING_REQUEST_TTL", "24h")
	viper.SetDefault("TRACKING_ENTRY_TTL", "72h")

	err := viper.ReadInConfig()
	if err != nil {
		// Allow a missing .env file; everything can come from the environment.
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("No .env file found.")
		} else {
			return nil, err
		}
	}

	var cfg Config
	err = viper.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	cfg.StripeAPIKey = os.Getenv("STRIPE_API_KEY")

	return &cfg, nil
}
