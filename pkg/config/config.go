package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Geocoder providers understood by pkg/geocoder.
const (
	GeocoderNominatim = "nominatim"
	GeocoderGoogle    = "google"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database     DatabaseConfig
	Redis        RedisConfig
	JWT          JWTConfig
	CORS         CORSConfig
	Log          LogConfig
	Matching     MatchingConfig
	Geocoder     GeocoderConfig
	GeocodeCache GeocodeCacheConfig
	Jobs         JobsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig verifies access tokens minted by the auth backend.
type JWTConfig struct {
	Secret string
	Issuer string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// MatchingConfig holds the proximity and workflow policy parameters.
type MatchingConfig struct {
	VolunteerRadiusKm float64
	NGORadiusKm       float64
	ReofferReentry    string
}

// GeocoderConfig configures the outbound geocoding client.
type GeocoderConfig struct {
	Provider   string
	BaseURL    string
	APIKey     string
	UserAgent  string
	RegionHint string
	Timeout    time.Duration
	BatchSize  int
	BatchDelay time.Duration
}

// GeocodeCacheConfig sizes the address resolution cache.
// MaxEntries of zero keeps every entry for the lifetime of the process.
type GeocodeCacheConfig struct {
	MaxEntries   int
	RedisEnabled bool
	TTL          time.Duration
}

// JobsConfig tunes the background geocode backfill queue.
type JobsConfig struct {
	GeocodeWorkers int
	GeocodeRetries int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret: v.GetString("JWT_SECRET"),
		Issuer: v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Matching = MatchingConfig{
		VolunteerRadiusKm: positiveFloat(v.GetFloat64("MATCHING_VOLUNTEER_RADIUS_KM"), 20),
		NGORadiusKm:       positiveFloat(v.GetFloat64("MATCHING_NGO_RADIUS_KM"), 15),
		ReofferReentry:    strings.TrimSpace(v.GetString("MATCHING_REOFFER_REENTRY")),
	}

	batchSize := v.GetInt("GEOCODER_BATCH_SIZE")
	if batchSize <= 0 {
		batchSize = 5
	}
	cfg.Geocoder = GeocoderConfig{
		Provider:   strings.ToLower(strings.TrimSpace(v.GetString("GEOCODER_PROVIDER"))),
		BaseURL:    strings.TrimRight(v.GetString("GEOCODER_BASE_URL"), "/"),
		APIKey:     v.GetString("GEOCODER_API_KEY"),
		UserAgent:  v.GetString("GEOCODER_USER_AGENT"),
		RegionHint: v.GetString("GEOCODER_REGION_HINT"),
		Timeout:    parseDuration(v.GetString("GEOCODER_TIMEOUT"), 5*time.Second),
		BatchSize:  batchSize,
		BatchDelay: parseDuration(v.GetString("GEOCODER_BATCH_DELAY"), 200*time.Millisecond),
	}

	cfg.GeocodeCache = GeocodeCacheConfig{
		MaxEntries:   v.GetInt("GEOCODE_CACHE_MAX_ENTRIES"),
		RedisEnabled: v.GetBool("GEOCODE_CACHE_REDIS"),
		TTL:          parseDuration(v.GetString("GEOCODE_CACHE_TTL"), 30*24*time.Hour),
	}

	cfg.Jobs = JobsConfig{
		GeocodeWorkers: v.GetInt("GEOCODE_WORKERS"),
		GeocodeRetries: v.GetInt("GEOCODE_RETRIES"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "food_rescue")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("MATCHING_VOLUNTEER_RADIUS_KM", 20)
	v.SetDefault("MATCHING_NGO_RADIUS_KM", 15)
	v.SetDefault("MATCHING_REOFFER_REENTRY", "approvedF")

	v.SetDefault("GEOCODER_PROVIDER", GeocoderNominatim)
	v.SetDefault("GEOCODER_BASE_URL", "https://nominatim.openstreetmap.org")
	v.SetDefault("GEOCODER_API_KEY", "")
	v.SetDefault("GEOCODER_USER_AGENT", "food-rescue-api/1.0")
	v.SetDefault("GEOCODER_REGION_HINT", "")
	v.SetDefault("GEOCODER_TIMEOUT", "5s")
	v.SetDefault("GEOCODER_BATCH_SIZE", 5)
	v.SetDefault("GEOCODER_BATCH_DELAY", "200ms")

	v.SetDefault("GEOCODE_CACHE_MAX_ENTRIES", 0)
	v.SetDefault("GEOCODE_CACHE_REDIS", false)
	v.SetDefault("GEOCODE_CACHE_TTL", "720h")

	v.SetDefault("GEOCODE_WORKERS", 2)
	v.SetDefault("GEOCODE_RETRIES", 3)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func positiveFloat(value, fallback float64) float64 {
	if value <= 0 {
		return fallback
	}
	return value
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
