package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const devJWTSecret = "supersecretjwtkey"

type Config struct {
	Port                    string        `envconfig:"PORT" default:"8080"`
	Env                     string        `envconfig:"ENV" default:"development"`
	LogLevel                string        `envconfig:"LOG_LEVEL" default:"info"`
	FirebaseCredentialsPath string        `envconfig:"FIREBASE_CREDENTIALS_PATH"`
	PostgresConnStr         string        `envconfig:"POSTGRES_CONN_STR" required:"true"`
	MongoURI                string        `envconfig:"MONGO_URI" required:"true"`
	MongoDatabase           string        `envconfig:"MONGO_DATABASE" default:"bazaar"`
	RedisURL                string        `envconfig:"REDIS_URL"`
	MetricsPort             string        `envconfig:"METRICS_PORT" default:"9090"`
	JWTSecret               string        `envconfig:"JWT_SECRET"`
	TokenTTL                time.Duration `envconfig:"TOKEN_TTL" default:"72h"`
	RequestTimeout          time.Duration `envconfig:"REQUEST_TIMEOUT" default:"15s"`
	NotifyWorkers           int           `envconfig:"NOTIFY_WORKERS" default:"4"`
	NotifyBuffer            int           `envconfig:"NOTIFY_BUFFER" default:"1024"`
	NotifyTimeout           time.Duration `envconfig:"NOTIFY_TIMEOUT" default:"5s"`
}

// Load reads an optional .env file, then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using process environment")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) IsDevelopment() bool { return c.Env == "development" }

func (c *Config) validate() error {
	if c.PostgresConnStr == "" || c.MongoURI == "" {
		return fmt.Errorf("POSTGRES_CONN_STR and MONGO_URI must be set")
	}
	if c.JWTSecret == "" {
		if !c.IsDevelopment() {
			return fmt.Errorf("JWT_SECRET must be set when ENV=%s", c.Env)
		}
		c.JWTSecret = devJWTSecret
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	return nil
}
