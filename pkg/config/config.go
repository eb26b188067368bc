// Package config loads and validates trustguard configuration.
//
// Precedence, lowest to highest: built-in defaults, YAML config file,
// environment variables with the TRUSTGUARD_ prefix (double underscore maps
// to nesting, e.g. TRUSTGUARD_MONITOR__AUTHENTICITY_PERIOD).
//
// Every threshold the evaluators consult is a named tunable here. The
// defaults are sensible, not authoritative: real deployments calibrate.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/gokaycavdar/go-trustguard/pkg/authenticity"
	"github.com/gokaycavdar/go-trustguard/pkg/models"
	"github.com/gokaycavdar/go-trustguard/pkg/policy"
)

// Config is the full application configuration.
type Config struct {
	Logging      LoggingConfig      `koanf:"logging"`
	Server       ServerConfig       `koanf:"server"`
	Device       DeviceConfig       `koanf:"device"`
	Geofence     GeofenceConfig     `koanf:"geofence"`
	Authenticity AuthenticityConfig `koanf:"authenticity"`
	Policy       PolicyConfig       `koanf:"policy"`
	Monitor      MonitorConfig      `koanf:"monitor"`
	Report       ReportConfig       `koanf:"report"`
	GeoIP        GeoIPConfig        `koanf:"geoip"`
}

// LoggingConfig controls zerolog output.
type LoggingConfig struct {
	// Level is the minimum level: debug, info, warn, error.
	Level string `koanf:"level" validate:"oneof=trace debug info warn error"`

	// Format is json or console.
	Format string `koanf:"format" validate:"oneof=json console"`
}

// ServerConfig controls the HTTP surface.
type ServerConfig struct {
	Addr string `koanf:"addr" validate:"required"`
}

// DeviceConfig identifies the monitored device in reports.
type DeviceConfig struct {
	ID string `koanf:"id"`
}

// GeofenceConfig is the allowed check-in region.
type GeofenceConfig struct {
	CenterLatitude  float64 `koanf:"center_latitude" validate:"gte=-90,lte=90"`
	CenterLongitude float64 `koanf:"center_longitude" validate:"gte=-180,lte=180"`
	RadiusMeters    float64 `koanf:"radius_meters" validate:"gt=0"`
}

// AuthenticityConfig calibrates the location-authenticity checks.
type AuthenticityConfig struct {
	MaxSpeedKmH                float64       `koanf:"max_speed_kmh" validate:"gt=0"`
	MinElapsed                 time.Duration `koanf:"min_elapsed" validate:"gt=0"`
	MaxProviderDistanceMeters  float64       `koanf:"max_provider_distance_meters" validate:"gt=0"`
	MaxSecondaryDistanceMeters float64       `koanf:"max_secondary_distance_meters" validate:"gt=0"`
	MinAccuracyMeters          float64       `koanf:"min_accuracy_meters" validate:"gte=0"`
}

// PolicyConfig calibrates the escalation policy.
type PolicyConfig struct {
	// ViolationCeiling is the cumulative count above which the app is
	// blocked regardless of individual severities.
	ViolationCeiling int `koanf:"violation_ceiling" validate:"gte=1"`
}

// MonitorConfig drives the two periodic evaluation cycles.
type MonitorConfig struct {
	// AuthenticityPeriod is the short cycle driving location checks.
	AuthenticityPeriod time.Duration `koanf:"authenticity_period" validate:"gt=0"`

	// IntegrityPeriod is the long cycle driving integrity checks.
	IntegrityPeriod time.Duration `koanf:"integrity_period" validate:"gt=0"`

	// DeepRootEvery throttles the expensive full root probe to every
	// N-th integrity cycle.
	DeepRootEvery int `koanf:"deep_root_every" validate:"gte=1"`

	// LocationTimeout bounds a single location acquisition.
	LocationTimeout time.Duration `koanf:"location_timeout" validate:"gt=0"`
}

// ReportConfig controls violation report delivery.
type ReportConfig struct {
	// Endpoint is the backend URL reports are posted to. Empty disables
	// network submission (reports are logged instead).
	Endpoint string `koanf:"endpoint" validate:"omitempty,url"`

	APIKey string `koanf:"api_key"`

	FlushInterval time.Duration `koanf:"flush_interval" validate:"gt=0"`
}

// GeoIPConfig controls the IP-based secondary location source.
type GeoIPConfig struct {
	Enabled bool `koanf:"enabled"`

	// CityDBPath is the GeoLite2/GeoIP2 City database file.
	CityDBPath string `koanf:"city_db_path" validate:"required_if=Enabled true"`
}

// Default returns the configuration with all built-in defaults applied.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Server: ServerConfig{
			Addr: ":8085",
		},
		Geofence: GeofenceConfig{
			// Placeholder campus; deployments must set their own.
			CenterLatitude:  41.0082,
			CenterLongitude: 28.9784,
			RadiusMeters:    200,
		},
		Authenticity: AuthenticityConfig{
			MaxSpeedKmH:                200,
			MinElapsed:                 10 * time.Second,
			MaxProviderDistanceMeters:  1000,
			MaxSecondaryDistanceMeters: 50000,
			MinAccuracyMeters:          1,
		},
		Policy: PolicyConfig{
			ViolationCeiling: policy.DefaultViolationCeiling,
		},
		Monitor: MonitorConfig{
			AuthenticityPeriod: 30 * time.Second,
			IntegrityPeriod:    2 * time.Minute,
			DeepRootEvery:      6,
			LocationTimeout:    15 * time.Second,
		},
		Report: ReportConfig{
			FlushInterval: 30 * time.Second,
		},
		GeoIP: GeoIPConfig{
			Enabled: false,
		},
	}
}

// Validate checks the configuration against its struct tags.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	return nil
}

// Zone returns the configured geofence as a model value.
func (c *Config) Zone() models.GeofenceZone {
	return models.GeofenceZone{
		Center: models.Coordinate{
			Latitude:  c.Geofence.CenterLatitude,
			Longitude: c.Geofence.CenterLongitude,
		},
		RadiusMeters: c.Geofence.RadiusMeters,
	}
}

// Thresholds returns the authenticity calibration as evaluator thresholds.
func (c *Config) Thresholds() authenticity.Thresholds {
	return authenticity.Thresholds{
		MaxSpeedKmH:                c.Authenticity.MaxSpeedKmH,
		MinElapsed:                 c.Authenticity.MinElapsed,
		MaxProviderDistanceMeters:  c.Authenticity.MaxProviderDistanceMeters,
		MaxSecondaryDistanceMeters: c.Authenticity.MaxSecondaryDistanceMeters,
		MinAccuracyMeters:          c.Authenticity.MinAccuracyMeters,
	}
}
