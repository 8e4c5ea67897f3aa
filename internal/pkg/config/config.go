package config

import (
	"context"
	"errors"
	"fmt"
	"time"
	_ "time/tzdata" // REPORT_TIMEZONE must resolve in images without zoneinfo

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port           string `env:"PORT,      default=8080"`
	Env            string `env:"ENV,       default=development"`
	LogLevel       string `env:"LOG_LEVEL, default=info"`
	MilestonesFile string `env:"MILESTONES_FILE"`

	Auth   AuthConfig
	Mongo  MongoConfig
	Redis  RedisConfig
	Scan   ScanConfig
	Report ReportConfig
}

type AuthConfig struct {
	JWTSecret string        `env:"JWT_SECRET, required"`
	Issuer    string        `env:"TOKEN_ISSUER, default=loyalty-system"`
	TokenTTL  time.Duration `env:"TOKEN_TTL,  default=24h"`
}

type MongoConfig struct {
	URI      string        `env:"MONGO_URI,     default=mongodb://localhost:27017"`
	Database string        `env:"MONGO_DB,      default=loyalty_system"`
	Timeout  time.Duration `env:"MONGO_TIMEOUT, default=10s"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

type ScanConfig struct {
	Workers  int           `env:"SCAN_WORKERS,   default=8"`
	Timeout  time.Duration `env:"SCAN_TIMEOUT,   default=5s"`
	DedupTTL time.Duration `env:"SCAN_DEDUP_TTL, default=720h"`
}

type ReportConfig struct {
	WindowDays      int           `env:"REPORT_WINDOW_DAYS,      default=7"`
	RefreshInterval time.Duration `env:"REPORT_REFRESH_INTERVAL, default=5m"`
	Timezone        string        `env:"REPORT_TIMEZONE,         default=UTC"`
}

// Location resolves Timezone. It is checked by Validate, so after a
// successful load it cannot fail.
func (r ReportConfig) Location() *time.Location {
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks the values envconfig cannot express with tags.
func (c *Config) Validate() error {
	var errs []error
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}
	if c.Scan.Workers <= 0 {
		errs = append(errs, errors.New("SCAN_WORKERS must be positive"))
	}
	if c.Report.WindowDays <= 0 {
		errs = append(errs, errors.New("REPORT_WINDOW_DAYS must be positive"))
	}
	if _, err := time.LoadLocation(c.Report.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("REPORT_TIMEZONE: %w", err))
	}
	return errors.Join(errs...)
}

// Load reads an optional .env file and then the process environment.
// It panics on invalid configuration.
func Load() *Config {
	// .env is optional; real environment variables take precedence
	_ = godotenv.Load()

	cfg, err := LoadWith(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadWith processes configuration from an arbitrary lookuper.
func LoadWith(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
