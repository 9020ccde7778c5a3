package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the configuration for the wellness service.
// Environment variables are parsed from the WELLNESS_BACKEND_ prefix.
type Config struct {
	// Build target selects high-level environment: local, cloud
	BuildTarget string `envconfig:"BUILD_TARGET" default:"local"`

	// Derived or override driver: sqlite, postgres
	DBDriver string `envconfig:"DB_DRIVER" default:"auto"`

	// HTTP Configuration
	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	// Postgres Configuration
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`

	// SQLite Configuration
	SQLitePath string `envconfig:"SQLITE_PATH" default:"data/wellness.db"`

	// Server-day boundary zone for the one-check-in-per-day rule.
	// Per-user timezone overrides this when set on the account.
	TimeZone string `envconfig:"TIME_ZONE" default:"UTC"`

	// Progressive-depth policy
	DepthStepSize  int `envconfig:"DEPTH_STEP_SIZE" default:"3"`
	DepthGraceDays int `envconfig:"DEPTH_GRACE_DAYS" default:"1"`
	DepthMaxLevel  int `envconfig:"DEPTH_MAX_LEVEL" default:"5"`

	// Insight generation
	InsightMinSources       int     `envconfig:"INSIGHT_MIN_SOURCES" default:"2"`
	PatternDisplayThreshold float64 `envconfig:"PATTERN_DISPLAY_THRESHOLD" default:"0.5"`
	RulesPath               string  `envconfig:"RULES_PATH" default:""`

	// Lifecycle phase thresholds
	PreparingCheckInCount int           `envconfig:"PREPARING_CHECKIN_COUNT" default:"7"`
	InTherapyCheckInCount int           `envconfig:"IN_THERAPY_CHECKIN_COUNT" default:"21"`
	MaintenanceAfter      time.Duration `envconfig:"MAINTENANCE_AFTER" default:"2160h"`
	InactivityWindow      time.Duration `envconfig:"INACTIVITY_WINDOW" default:"720h"`

	// Sharing
	ShareTTLDefault time.Duration `envconfig:"SHARE_TTL_DEFAULT" default:"168h"`
	ShareTTLMax     time.Duration `envconfig:"SHARE_TTL_MAX" default:"720h"`

	// Report type minimum insight counts
	WeeklyMinInsights    int `envconfig:"WEEKLY_MIN_INSIGHTS" default:"1"`
	MonthlyMinInsights   int `envconfig:"MONTHLY_MIN_INSIGHTS" default:"3"`
	TherapistMinInsights int `envconfig:"THERAPIST_MIN_INSIGHTS" default:"5"`

	// Booking collaborator
	BookingServiceURL string `envconfig:"BOOKING_SERVICE_URL" default:""`

	// Identity collaborator
	AuthMode      string `envconfig:"AUTH_MODE" default:"static"`
	JWTSigningKey string `envconfig:"JWT_SIGNING_KEY" default:""`

	// Worker cadence
	WorkerInterval   time.Duration `envconfig:"WORKER_INTERVAL" default:"1h"`
	WorkerWidePeriod time.Duration `envconfig:"WORKER_WIDE_PERIOD" default:"168h"`

	// Health checking
	HealthIntervalSeconds     int `envconfig:"HEALTH_INTERVAL_SECONDS" default:"15"`
	HealthProbeTimeoutSeconds int `envconfig:"HEALTH_PROBE_TIMEOUT_SECONDS" default:"3"`
}

// ResolveDefaults validates BuildTarget and derives DBDriver when set to "auto" or empty.
func (c *Config) ResolveDefaults() error {
	var defaultDB string
	switch c.BuildTarget {
	case "local":
		defaultDB = "sqlite"
	case "cloud":
		defaultDB = "postgres"
	default:
		return fmt.Errorf("unsupported BUILD_TARGET: %s", c.BuildTarget)
	}

	if c.DBDriver == "" || c.DBDriver == "auto" {
		c.DBDriver = defaultDB
	}
	allowedDB := map[string]bool{"sqlite": true, "postgres": true}
	if !allowedDB[c.DBDriver] {
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}

	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		return fmt.Errorf("invalid TIME_ZONE %q: %w", c.TimeZone, err)
	}
	if c.DepthStepSize < 1 {
		return fmt.Errorf("DEPTH_STEP_SIZE must be >= 1")
	}
	if c.DepthMaxLevel < 1 {
		return fmt.Errorf("DEPTH_MAX_LEVEL must be >= 1")
	}
	if c.InsightMinSources < 1 {
		return fmt.Errorf("INSIGHT_MIN_SOURCES must be >= 1")
	}
	if c.ShareTTLDefault <= 0 || c.ShareTTLMax < c.ShareTTLDefault {
		return fmt.Errorf("share TTL bounds invalid: default=%s max=%s", c.ShareTTLDefault, c.ShareTTLMax)
	}
	if c.AuthMode != "static" && c.AuthMode != "jwt" {
		return fmt.Errorf("unsupported AUTH_MODE: %s", c.AuthMode)
	}
	if c.AuthMode == "jwt" && c.JWTSigningKey == "" {
		return fmt.Errorf("JWT_SIGNING_KEY required when AUTH_MODE=jwt")
	}
	return nil
}

// New creates a Config by parsing environment variables.
// Example: WELLNESS_BACKEND_HTTP_PORT, WELLNESS_BACKEND_DB_DRIVER.
func New() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("WELLNESS_BACKEND", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// NewForTesting creates a config with test-friendly defaults.
func NewForTesting() *Config {
	cfg := &Config{
		BuildTarget: "local",
		DBDriver:    "sqlite",
		HTTPPort:    8080,
		SQLitePath:  "",
		TimeZone:    "UTC",

		DepthStepSize:  3,
		DepthGraceDays: 1,
		DepthMaxLevel:  5,

		InsightMinSources:       2,
		PatternDisplayThreshold: 0.5,

		PreparingCheckInCount: 7,
		InTherapyCheckInCount: 21,
		MaintenanceAfter:      90 * 24 * time.Hour,
		InactivityWindow:      30 * 24 * time.Hour,

		ShareTTLDefault: 7 * 24 * time.Hour,
		ShareTTLMax:     30 * 24 * time.Hour,

		WeeklyMinInsights:    1,
		MonthlyMinInsights:   3,
		TherapistMinInsights: 5,

		AuthMode: "static",

		WorkerInterval:   time.Hour,
		WorkerWidePeriod: 7 * 24 * time.Hour,

		HealthIntervalSeconds:     1,
		HealthProbeTimeoutSeconds: 1,
	}
	return cfg
}

// Location returns the configured server-day timezone.
// ResolveDefaults guarantees the zone parses.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// MinInsightsFor returns the minimum qualifying insight count for a report type.
func (c *Config) MinInsightsFor(t string) (int, bool) {
	switch t {
	case "weekly_summary":
		return c.WeeklyMinInsights, true
	case "monthly_progress":
		return c.MonthlyMinInsights, true
	case "therapist_packet":
		return c.TherapistMinInsights, true
	}
	return 0, false
}

// GetHTTPAddr returns the HTTP server address.
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
