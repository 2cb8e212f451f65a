package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port                  string   `mapstructure:"PORT"`
	Env                   string   `mapstructure:"ENV"`
	LogLevel              string   `mapstructure:"LOG_LEVEL"`
	DatabaseURL           string   `mapstructure:"DATABASE_URL"`
	DBMaxConns            int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns            int32    `mapstructure:"DB_MIN_CONNS"`
	Timezone              string   `mapstructure:"TIMEZONE"`
	DischargeWindowHours  int      `mapstructure:"CENSUS_DISCHARGE_WINDOW_HOURS"`
	CORSOrigins           []string `mapstructure:"CORS_ORIGINS"`
	JWTSigningKey         string   `mapstructure:"JWT_SIGNING_KEY"`
	JWTIssuer             string   `mapstructure:"JWT_ISSUER"`
	JWTAudience           string   `mapstructure:"JWT_AUDIENCE"`
	ArchiveDriver         string   `mapstructure:"ARCHIVE_DRIVER"`
	ArchiveFSRoot         string   `mapstructure:"ARCHIVE_FS_ROOT"`
	ArchiveS3Bucket       string   `mapstructure:"ARCHIVE_S3_BUCKET"`
	ArchiveS3Endpoint     string   `mapstructure:"ARCHIVE_S3_ENDPOINT"`
	ArchiveS3Region       string   `mapstructure:"ARCHIVE_S3_REGION"`
	ArchiveS3PathStyle    bool     `mapstructure:"ARCHIVE_S3_PATH_STYLE"`
	WebhookURL            string   `mapstructure:"WEBHOOK_URL"`
	WebhookSecret         string   `mapstructure:"WEBHOOK_SECRET"`
	RateLimitRPS          float64  `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst        int      `mapstructure:"RATE_LIMIT_BURST"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("TIMEZONE", "UTC")
	v.SetDefault("CENSUS_DISCHARGE_WINDOW_HOURS", 48)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("ARCHIVE_DRIVER", "memory")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("LOG_LEVEL")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("TIMEZONE")
	v.BindEnv("CENSUS_DISCHARGE_WINDOW_HOURS")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("JWT_SIGNING_KEY")
	v.BindEnv("JWT_ISSUER")
	v.BindEnv("JWT_AUDIENCE")
	v.BindEnv("ARCHIVE_DRIVER")
	v.BindEnv("ARCHIVE_FS_ROOT")
	v.BindEnv("ARCHIVE_S3_BUCKET")
	v.BindEnv("ARCHIVE_S3_ENDPOINT")
	v.BindEnv("ARCHIVE_S3_REGION")
	v.BindEnv("ARCHIVE_S3_PATH_STYLE")
	v.BindEnv("WEBHOOK_URL")
	v.BindEnv("WEBHOOK_SECRET")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.IsDev() {
		log.Println("WARNING: ============================================================")
		log.Println("WARNING: Server is running in DEVELOPMENT mode (ENV=development).")
		log.Println("WARNING: DevAuthMiddleware is active. All requests get admin access.")
		log.Println("WARNING: Do NOT use this configuration in production.")
		log.Println("WARNING: Set ENV=production and configure JWT_SIGNING_KEY for production.")
		log.Println("WARNING: ============================================================")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Location resolves TIMEZONE into a *time.Location. The census date filter
// compares calendar days in this location, so an unknown zone name is a
// startup error rather than a silent fall back to UTC.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// DischargeWindow returns the trailing visibility window for discharged
// admissions as a duration.
func (c *Config) DischargeWindow() time.Duration {
	return time.Duration(c.DischargeWindowHours) * time.Hour
}

// Validate checks that the configuration is safe to run. In production a JWT
// signing key must be set so that real authentication is enforced, and the
// selected archive driver must have its backing settings present.
func (c *Config) Validate() error {
	if c.IsProduction() && c.JWTSigningKey == "" {
		return fmt.Errorf(
			"JWT_SIGNING_KEY must be set when ENV is \"production\". " +
				"Refusing to start without authentication configuration")
	}

	if _, err := c.Location(); err != nil {
		return err
	}

	if c.DischargeWindowHours <= 0 {
		return fmt.Errorf("CENSUS_DISCHARGE_WINDOW_HOURS must be positive, got %d", c.DischargeWindowHours)
	}

	switch c.ArchiveDriver {
	case "memory":
	case "fs":
		if c.ArchiveFSRoot == "" {
			return fmt.Errorf("ARCHIVE_FS_ROOT is required when ARCHIVE_DRIVER is \"fs\"")
		}
	case "s3":
		if c.ArchiveS3Bucket == "" {
			return fmt.Errorf("ARCHIVE_S3_BUCKET is required when ARCHIVE_DRIVER is \"s3\"")
		}
	default:
		return fmt.Errorf("ARCHIVE_DRIVER must be \"memory\", \"fs\", or \"s3\", got %q", c.ArchiveDriver)
	}

	if c.WebhookURL != "" && c.WebhookSecret == "" {
		return fmt.Errorf("WEBHOOK_SECRET is required when WEBHOOK_URL is set")
	}

	return nil
}
