// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// MinIOConfig provides settings for MinIO S3-compatible storage.
type MinIOConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	GetMinIOPublicBaseURL() string
	GetMinioBucketItemIcons() string
	GetMinioBucketPointImages() string
	IsMinIOEnabled() bool
}

// RedisConfig provides settings for the geography cache.
type RedisConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
}

// SchedulerConfig provides settings for the asynq task queue.
type SchedulerConfig interface {
	RedisConfig
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// SMTPConfig provides settings for outgoing email.
type SMTPConfig interface {
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
	IsSMTPEnabled() bool
}

// GeographyConfig provides settings for the IBGE and Nominatim clients.
type GeographyConfig interface {
	GetIBGEBaseURL() string
	GetNominatimBaseURL() string
	GetGeographyTimeout() time.Duration
	GetGeographyCacheTTL() time.Duration
}

// MapConfig provides the map widget defaults shown on the registration form.
type MapConfig interface {
	GetMapCenterLat() float64
	GetMapCenterLng() float64
	GetMapZoom() int
	GetMapTileURL() string
	GetMapAttribution() string
}

// DraftConfig provides lifetime settings for registration drafts.
type DraftConfig interface {
	GetDraftTTL() time.Duration
}

// PublicConfig provides public-facing URLs.
type PublicConfig interface {
	GetAppBaseURL() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                    string
	HTTPAddr               string
	DatabaseURL            string
	JWTAccessSecret        string
	CORSAllowAll           bool
	CORSOrigins            []string
	CORSAllowCreds         bool
	AppBaseURL             string
	MinIOEndpoint          string
	MinIOAccessKey         string
	MinIOSecretKey         string
	MinIOUseSSL            bool
	MinIOMaxFileSize       int64
	MinIOPublicBaseURL     string
	MinioBucketItemIcons   string
	MinioBucketPointImages string
	RedisURL               string
	RedisTLSInsecure       bool
	AsynqQueueName         string
	AsynqConcurrency       int
	SMTPHost               string
	SMTPPort               int
	SMTPUsername           string
	SMTPPassword           string
	EmailFromName          string
	EmailFromAddress       string
	IBGEBaseURL            string
	NominatimBaseURL       string
	GeographyTimeout       time.Duration
	GeographyCacheTTL      time.Duration
	MapCenterLat           float64
	MapCenterLng           float64
	MapZoom                int
	MapTileURL             string
	MapAttribution         string
	DraftTTL               time.Duration
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// MinIOConfig implementation
func (c *Config) GetMinIOEndpoint() string        { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string       { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string       { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool            { return c.MinIOUseSSL }
func (c *Config) GetMinIOMaxFileSize() int64      { return c.MinIOMaxFileSize }
func (c *Config) GetMinIOPublicBaseURL() string   { return c.MinIOPublicBaseURL }
func (c *Config) GetMinioBucketItemIcons() string { return c.MinioBucketItemIcons }
func (c *Config) GetMinioBucketPointImages() string {
	return c.MinioBucketPointImages
}
func (c *Config) IsMinIOEnabled() bool { return c.MinIOEndpoint != "" }

// RedisConfig / SchedulerConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

// SMTPConfig implementation
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }
func (c *Config) IsSMTPEnabled() bool         { return c.SMTPHost != "" }

// GeographyConfig implementation
func (c *Config) GetIBGEBaseURL() string              { return c.IBGEBaseURL }
func (c *Config) GetNominatimBaseURL() string         { return c.NominatimBaseURL }
func (c *Config) GetGeographyTimeout() time.Duration  { return c.GeographyTimeout }
func (c *Config) GetGeographyCacheTTL() time.Duration { return c.GeographyCacheTTL }

// MapConfig implementation
func (c *Config) GetMapCenterLat() float64  { return c.MapCenterLat }
func (c *Config) GetMapCenterLng() float64  { return c.MapCenterLng }
func (c *Config) GetMapZoom() int           { return c.MapZoom }
func (c *Config) GetMapTileURL() string     { return c.MapTileURL }
func (c *Config) GetMapAttribution() string { return c.MapAttribution }

// DraftConfig implementation
func (c *Config) GetDraftTTL() time.Duration { return c.DraftTTL }

// PublicConfig implementation
func (c *Config) GetAppBaseURL() string { return c.AppBaseURL }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                    getEnv("APP_ENV", "development"),
		HTTPAddr:               getEnv("HTTP_ADDR", ":3333"),
		DatabaseURL:            getEnv("DATABASE_URL", ""),
		JWTAccessSecret:        getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:           corsAllowAll,
		CORSOrigins:            corsOrigins,
		CORSAllowCreds:         strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "false"), "true"),
		AppBaseURL:             strings.TrimRight(getEnv("APP_BASE_URL", "http://localhost:3000"), "/"),
		MinIOEndpoint:          getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:         getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:         getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:            strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinIOMaxFileSize:       mustInt64(getEnv("MINIO_MAX_FILE_SIZE", "5242880")),
		MinIOPublicBaseURL:     strings.TrimRight(getEnv("MINIO_PUBLIC_BASE_URL", "http://localhost:9000"), "/"),
		MinioBucketItemIcons:   getEnv("MINIO_BUCKET_ITEM_ICONS", "item-icons"),
		MinioBucketPointImages: getEnv("MINIO_BUCKET_POINT_IMAGES", "point-images"),
		RedisURL:               getEnv("REDIS_URL", ""),
		RedisTLSInsecure:       strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:         getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:       mustInt(getEnv("ASYNQ_CONCURRENCY", "5")),
		SMTPHost:               getEnv("SMTP_HOST", ""),
		SMTPPort:               mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:           getEnv("SMTP_USERNAME", ""),
		SMTPPassword:           getEnv("SMTP_PASSWORD", ""),
		EmailFromName:          getEnv("EMAIL_FROM_NAME", "Ecoleta"),
		EmailFromAddress:       getEnv("EMAIL_FROM_ADDRESS", ""),
		IBGEBaseURL:            strings.TrimRight(getEnv("IBGE_BASE_URL", "https://servicodados.ibge.gov.br/api/v1/localidades"), "/"),
		NominatimBaseURL:       strings.TrimRight(getEnv("NOMINATIM_BASE_URL", "https://nominatim.openstreetmap.org"), "/"),
		GeographyTimeout:       mustDuration(getEnv("IBGE_TIMEOUT", "10s")),
		GeographyCacheTTL:      mustDuration(getEnv("GEOGRAPHY_CACHE_TTL", "24h")),
		MapCenterLat:           mustFloat(getEnv("MAP_CENTER_LAT", "-23.556365")),
		MapCenterLng:           mustFloat(getEnv("MAP_CENTER_LNG", "-46.4625029")),
		MapZoom:                mustInt(getEnv("MAP_ZOOM", "15")),
		MapTileURL:             getEnv("MAP_TILE_URL", "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"),
		MapAttribution:         getEnv("MAP_ATTRIBUTION", `&copy; <a href="http://osm.org/copyright">OpenStreetMap</a> contributors`),
		DraftTTL:               mustDuration(getEnv("DRAFT_TTL", "30m")),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.JWTAccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if c.CORSAllowAll && c.CORSAllowCreds {
		return fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	if c.MapZoom < 1 || c.MapZoom > 19 {
		return fmt.Errorf("MAP_ZOOM must be between 1 and 19, got %d", c.MapZoom)
	}
	if c.IsSMTPEnabled() && c.EmailFromAddress == "" {
		return fmt.Errorf("EMAIL_FROM_ADDRESS is required when SMTP_HOST is set")
	}
	if c.DraftTTL <= 0 {
		return fmt.Errorf("DRAFT_TTL must be a positive duration")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt64(value string) int64 {
	result, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return result
}

func mustInt(value string) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return result
}

func mustFloat(value string) float64 {
	result, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
