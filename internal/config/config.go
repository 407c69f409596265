package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ============================================================================
// CONFIGURATION - daysync
// ============================================================================
// Precedence: built-in defaults < config.yml < environment (.env included).
// The merged result is validated before the server or CLI use it.
// ============================================================================

// Config holds all configuration for the itinerary service
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Tago       TagoConfig       `yaml:"tago"`
	Pedestrian PedestrianConfig `yaml:"pedestrian"`
	Search     SearchConfig     `yaml:"search"`
	Estimator  EstimatorConfig  `yaml:"estimator"`
	Database   DatabaseConfig   `yaml:"database"`
	Cache      CacheConfig      `yaml:"cache"`
	Debug      DebugConfig      `yaml:"debug"`
	Region     RegionConfig     `yaml:"region"`
}

type ServerConfig struct {
	Port          string        `yaml:"port" validate:"required,numeric"`
	RateLimit     int           `yaml:"rate_limit" validate:"gte=0"`
	SearchTimeout time.Duration `yaml:"search_timeout" validate:"gt=0"`
}

// TagoConfig points at the public transit API (stops, arrivals, line stations).
type TagoConfig struct {
	BaseURL    string        `yaml:"base_url" validate:"required,url"`
	ServiceKey string        `yaml:"service_key"`
	Timeout    time.Duration `yaml:"timeout" validate:"gt=0"`
}

// PedestrianConfig selects the walking-time provider.
type PedestrianConfig struct {
	Provider       string        `yaml:"provider" validate:"oneof=tmap graphhopper none"`
	TmapURL        string        `yaml:"tmap_url" validate:"omitempty,url"`
	TmapAppKey     string        `yaml:"tmap_app_key"`
	GraphHopperURL string        `yaml:"graphhopper_url" validate:"omitempty,url"`
	WalkCacheSize  int           `yaml:"walk_cache_size" validate:"gte=0"`
	WalkCacheTTL   time.Duration `yaml:"walk_cache_ttl"`
}

type SearchConfig struct {
	MaxResults              int     `yaml:"max_results" validate:"gte=1"`
	MaxStopsPerLocation     int     `yaml:"max_stops_per_location" validate:"gte=1"`
	RadiusMeters            float64 `yaml:"radius_meters" validate:"gt=0"`
	SampleOffsetMeters      float64 `yaml:"sample_offset_meters" validate:"gt=0"`
	StopPageSize            int     `yaml:"stop_page_size" validate:"gte=1"`
	ArrivalPageSize         int     `yaml:"arrival_page_size" validate:"gte=1"`
	ArrivalMaxPages         int     `yaml:"arrival_max_pages" validate:"gte=1"`
	StationPageSize         int     `yaml:"station_page_size" validate:"gte=1"`
	Workers                 int     `yaml:"workers" validate:"gte=1,lte=64"`
	AllowCoordinateEstimate bool    `yaml:"allow_coordinate_estimates"`
}

// EstimatorConfig carries the itinerary timing constants.
type EstimatorConfig struct {
	WalkingMetersPerMinute float64 `yaml:"walking_meters_per_minute" validate:"gt=0"`
	BusMetersPerMinute     float64 `yaml:"bus_meters_per_minute" validate:"gt=0"`
	DistanceMultiplier     float64 `yaml:"distance_multiplier" validate:"gte=1"`
	MinutesPerStop         float64 `yaml:"minutes_per_stop" validate:"gt=0"`
	MaxStopSpan            int     `yaml:"max_stop_span" validate:"gte=1"`
	MaxStopBasedMinutes    int     `yaml:"max_stop_based_minutes" validate:"gte=1"`
	MinRideMinutes         int     `yaml:"min_ride_minutes" validate:"gte=1"`
	MaxRideMinutes         int     `yaml:"max_ride_minutes" validate:"gtefield=MinRideMinutes"`
}

type DatabaseConfig struct {
	Enabled    bool   `yaml:"enabled"`
	User       string `yaml:"user"`
	Pass       string `yaml:"pass"`
	Host       string `yaml:"host"`
	Port       string `yaml:"port"`
	Name       string `yaml:"name" validate:"required_if=Enabled true"`
	SkipSchema bool   `yaml:"skip_schema"`
}

// CacheConfig sizes the cross-request response cache.
type CacheConfig struct {
	ResultSize int           `yaml:"result_size" validate:"gte=0"`
	ResultTTL  time.Duration `yaml:"result_ttl"`
}

type DebugConfig struct {
	Dashboard bool `yaml:"dashboard"`
}

// RegionConfig bounds accepted input coordinates. A zero box disables the check.
type RegionConfig struct {
	Name   string  `yaml:"name"`
	MinLat float64 `yaml:"min_lat"`
	MaxLat float64 `yaml:"max_lat"`
	MinLon float64 `yaml:"min_lon"`
	MaxLon float64 `yaml:"max_lon"`
}

// Enabled reports whether a bounding box was configured.
func (r RegionConfig) Enabled() bool {
	return r.MinLat != 0 || r.MaxLat != 0 || r.MinLon != 0 || r.MaxLon != 0
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:          "8080",
			RateLimit:     60,
			SearchTimeout: 45 * time.Second,
		},
		Tago: TagoConfig{
			BaseURL: "https://apis.data.go.kr/1613000",
			Timeout: 15 * time.Second,
		},
		Pedestrian: PedestrianConfig{
			Provider:       "none",
			TmapURL:        "https://apis.openapi.sk.com/tmap",
			GraphHopperURL: "http://localhost:8989",
			WalkCacheSize:  10000,
			WalkCacheTTL:   24 * time.Hour,
		},
		Search: SearchConfig{
			MaxResults:          10,
			MaxStopsPerLocation: 20,
			RadiusMeters:        1000,
			SampleOffsetMeters:  500,
			StopPageSize:        100,
			ArrivalPageSize:     200,
			ArrivalMaxPages:     2,
			StationPageSize:     200,
			Workers:             8,
		},
		Estimator: EstimatorConfig{
			WalkingMetersPerMinute: 83.33,
			BusMetersPerMinute:     200,
			DistanceMultiplier:     1.3,
			MinutesPerStop:         1.8,
			MaxStopSpan:            50,
			MaxStopBasedMinutes:    60,
			MinRideMinutes:         2,
			MaxRideMinutes:         50,
		},
		Database: DatabaseConfig{
			Host: "127.0.0.1",
			Port: "3306",
		},
		Cache: CacheConfig{
			ResultSize: 500,
			ResultTTL:  30 * time.Second,
		},
		Region: RegionConfig{
			Name:   "korea",
			MinLat: 33.0,
			MaxLat: 38.7,
			MinLon: 124.5,
			MaxLon: 132.0,
		},
	}
}

// Load reads .env, an optional YAML file and the environment, then validates.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	path := getEnv("CONFIG_FILE", "config.yml")
	if err := cfg.mergeFile(path); err != nil {
		return nil, err
	}

	cfg.applyEnv()

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks struct tags on every section.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.Pedestrian.Provider == "tmap" && cfg.Pedestrian.TmapAppKey == "" {
		return errors.New("invalid configuration: TMAP_APP_KEY is required when PEDESTRIAN_PROVIDER=tmap")
	}
	return nil
}

func (cfg *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

func (cfg *Config) applyEnv() {
	cfg.Server.Port = getEnv("PORT", cfg.Server.Port)
	cfg.Server.RateLimit = getEnvInt("RATE_LIMIT_PER_MINUTE", cfg.Server.RateLimit)
	cfg.Server.SearchTimeout = getEnvDuration("SEARCH_TIMEOUT", cfg.Server.SearchTimeout)

	cfg.Tago.BaseURL = strings.TrimSuffix(getEnv("TAGO_BASE_URL", cfg.Tago.BaseURL), "/")
	cfg.Tago.ServiceKey = getEnv("TAGO_SERVICE_KEY", cfg.Tago.ServiceKey)
	cfg.Tago.Timeout = getEnvDuration("UPSTREAM_TIMEOUT", cfg.Tago.Timeout)

	cfg.Pedestrian.Provider = strings.ToLower(getEnv("PEDESTRIAN_PROVIDER", cfg.Pedestrian.Provider))
	cfg.Pedestrian.TmapURL = strings.TrimSuffix(getEnv("TMAP_URL", cfg.Pedestrian.TmapURL), "/")
	cfg.Pedestrian.TmapAppKey = getEnv("TMAP_APP_KEY", cfg.Pedestrian.TmapAppKey)
	cfg.Pedestrian.GraphHopperURL = strings.TrimSuffix(getEnv("GRAPHHOPPER_URL", cfg.Pedestrian.GraphHopperURL), "/")

	cfg.Search.MaxResults = getEnvInt("SEARCH_MAX_RESULTS", cfg.Search.MaxResults)
	cfg.Search.MaxStopsPerLocation = getEnvInt("SEARCH_MAX_STOPS", cfg.Search.MaxStopsPerLocation)
	cfg.Search.RadiusMeters = getEnvFloat("SEARCH_RADIUS_METERS", cfg.Search.RadiusMeters)
	cfg.Search.Workers = getEnvInt("SEARCH_WORKERS", cfg.Search.Workers)
	cfg.Search.AllowCoordinateEstimate = getEnvBool("SEARCH_ALLOW_COORDINATE_ESTIMATES", cfg.Search.AllowCoordinateEstimate)

	cfg.Database.Enabled = getEnvBool("DB_ENABLED", cfg.Database.Enabled)
	cfg.Database.User = getEnv("DB_USER", cfg.Database.User)
	cfg.Database.Pass = getEnv("DB_PASS", cfg.Database.Pass)
	cfg.Database.Host = getEnv("DB_HOST", cfg.Database.Host)
	cfg.Database.Port = getEnv("DB_PORT", cfg.Database.Port)
	cfg.Database.Name = getEnv("DB_NAME", cfg.Database.Name)
	cfg.Database.SkipSchema = getEnvBool("DB_SKIP_SCHEMA", cfg.Database.SkipSchema)

	cfg.Cache.ResultSize = getEnvInt("RESULT_CACHE_SIZE", cfg.Cache.ResultSize)
	cfg.Cache.ResultTTL = getEnvDuration("RESULT_CACHE_TTL", cfg.Cache.ResultTTL)

	cfg.Debug.Dashboard = getEnvBool("DEBUG_DASHBOARD", cfg.Debug.Dashboard)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return strings.EqualFold(value, "true") || value == "1"
}

// getEnvDuration accepts Go durations ("15s") or plain seconds ("15").
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
