package config

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

type Config struct {
	Port    string `env:"PORT,default=8080"`
	GinMode string `env:"GIN_MODE,default=debug"`

	DBDriver string `env:"DB_DRIVER,default=sqlite"`
	DBDSN    string `env:"DB_DSN,default=emenu.db"`

	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL,default=24h"`

	TimeZone string `env:"TIME_ZONE,default=UTC"`

	FromEmail    string `env:"FROM_EMAIL"`
	EmailBackend string `env:"EMAIL_BACKEND,default=console"`
	SMTPHost     string `env:"SMTP_HOST,default=localhost"`
	SMTPPort     int    `env:"SMTP_PORT,default=25"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`

	RedisURL       string `env:"REDIS_URL"`
	ReportSchedule string `env:"REPORT_SCHEDULE,default=0 10 * * *"`

	MediaRoot     string `env:"MEDIA_ROOT,default=media"`
	MediaURL      string `env:"MEDIA_URL,default=/media/"`
	MaxUploadSize int64  `env:"MAX_UPLOAD_SIZE,default=10485760"`

	AdminUsername string `env:"ADMIN_USERNAME"`
	AdminEmail    string `env:"ADMIN_EMAIL"`
	AdminPassword string `env:"ADMIN_PASSWORD"`

	CORSOrigin string `env:"CORS_ORIGIN,default=*"`
	RateLimit  int    `env:"RATE_LIMIT,default=50"`

	LogLevel  string `env:"LOG_LEVEL,default=info"`
	LogFormat string `env:"LOG_FORMAT,default=text"`
}

// Load reads .env (if present) and decodes the environment into a Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or error loading: %v", err)
	}

	cfg := &Config{}
	if err := envdecode.Decode(cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode environment: %w", err)
	}

	if cfg.JWTSecret == "" {
		log.Printf("Warning: JWT_SECRET not found in environment, using default secret")
		cfg.JWTSecret = "emenu-development-secret"
	}

	if _, err := cfg.Location(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Location resolves TIME_ZONE.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIME_ZONE %q: %w", c.TimeZone, err)
	}
	return loc, nil
}
