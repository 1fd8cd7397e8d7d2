// backend-go/internal/config/config.go
package config

import (
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Boulevard BoulevardConfig
	Sync      SyncConfig
	Cache     CacheConfig
	Archive   ArchiveConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// BoulevardConfig holds the upstream export API settings.
type BoulevardConfig struct {
	APIBaseURL    string
	APIKey        string
	BusinessID    string
	SalesReportID string
}

// SyncConfig tunes the sales sync run. Poll budget times interval must fit
// inside the caller's execution ceiling.
type SyncConfig struct {
	PollAttempts    int
	PollIntervalSec int
	FallbackExports int
	ChunkSize       int
	Locations       []Location
}

// Location maps a canonical site key to the display name Boulevard prints
// in report exports.
type Location struct {
	Key  string
	Name string
}

type CacheConfig struct {
	Enabled           bool
	RedisURL          string
	RedisHost         string
	RedisPort         string
	RedisPassword     string
	RedisDB           int
	SummaryTTLSeconds int
}

// ArchiveConfig holds the optional S3-compatible bucket raw export payloads
// are copied to for audit.
type ArchiveConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		// Set default values
		viper.SetDefault("SERVER_PORT", "8080")
		viper.SetDefault("SERVER_MODE", "debug")
		viper.SetDefault("SERVER_READ_TIMEOUT", 15)
		viper.SetDefault("SERVER_WRITE_TIMEOUT", 120)
		viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
		viper.SetDefault("DB_HOST", "localhost")
		viper.SetDefault("DB_PORT", "5432")
		viper.SetDefault("DB_USER", "postgres")
		viper.SetDefault("DB_PASSWORD", "postgres")
		viper.SetDefault("DB_NAME", "solara")
		viper.SetDefault("DB_SSLMODE", "disable")
		viper.SetDefault("BLVD_API_BASE_URL", "https://dashboard.boulevard.io/api/2024-01")
		viper.SetDefault("BLVD_API_KEY", "")
		viper.SetDefault("BLVD_BUSINESS_ID", "")
		viper.SetDefault("BLVD_SALES_REPORT_ID", "")
		viper.SetDefault("SYNC_POLL_ATTEMPTS", 12)
		viper.SetDefault("SYNC_POLL_INTERVAL_SECONDS", 5)
		viper.SetDefault("SYNC_FALLBACK_EXPORTS", 5)
		viper.SetDefault("SYNC_CHUNK_SIZE", 500)
		viper.SetDefault("SYNC_LOCATIONS", "union_square:Union Square,marina:Marina")
		viper.SetDefault("CACHE_ENABLED", false)
		viper.SetDefault("REDIS_URL", "")
		viper.SetDefault("REDIS_HOST", "127.0.0.1")
		viper.SetDefault("REDIS_PORT", "6379")
		viper.SetDefault("REDIS_PASSWORD", "")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("CACHE_SUMMARY_TTL_SECONDS", 300)
		viper.SetDefault("ARCHIVE_ENABLED", false)
		viper.SetDefault("ARCHIVE_ENDPOINT", "")
		viper.SetDefault("ARCHIVE_ACCESS_KEY", "")
		viper.SetDefault("ARCHIVE_SECRET_KEY", "")
		viper.SetDefault("ARCHIVE_BUCKET", "boulevard-exports")
		viper.SetDefault("ARCHIVE_USE_SSL", true)

		// Read from environment variables
		viper.AutomaticEnv()

		instance = &Config{
			Server: ServerConfig{
				Port:           viper.GetString("SERVER_PORT"),
				Mode:           viper.GetString("SERVER_MODE"),
				ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
				WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
				AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			},
			Database: DatabaseConfig{
				Host:     viper.GetString("DB_HOST"),
				Port:     viper.GetString("DB_PORT"),
				User:     viper.GetString("DB_USER"),
				Password: viper.GetString("DB_PASSWORD"),
				DBName:   viper.GetString("DB_NAME"),
				SSLMode:  viper.GetString("DB_SSLMODE"),
			},
			Boulevard: BoulevardConfig{
				APIBaseURL:    viper.GetString("BLVD_API_BASE_URL"),
				APIKey:        viper.GetString("BLVD_API_KEY"),
				BusinessID:    viper.GetString("BLVD_BUSINESS_ID"),
				SalesReportID: viper.GetString("BLVD_SALES_REPORT_ID"),
			},
			Sync: SyncConfig{
				PollAttempts:    viper.GetInt("SYNC_POLL_ATTEMPTS"),
				PollIntervalSec: viper.GetInt("SYNC_POLL_INTERVAL_SECONDS"),
				FallbackExports: viper.GetInt("SYNC_FALLBACK_EXPORTS"),
				ChunkSize:       viper.GetInt("SYNC_CHUNK_SIZE"),
				Locations:       parseLocations(viper.GetString("SYNC_LOCATIONS")),
			},
			Cache: CacheConfig{
				Enabled:           viper.GetBool("CACHE_ENABLED"),
				RedisURL:          viper.GetString("REDIS_URL"),
				RedisHost:         viper.GetString("REDIS_HOST"),
				RedisPort:         viper.GetString("REDIS_PORT"),
				RedisPassword:     viper.GetString("REDIS_PASSWORD"),
				RedisDB:           viper.GetInt("REDIS_DB"),
				SummaryTTLSeconds: viper.GetInt("CACHE_SUMMARY_TTL_SECONDS"),
			},
			Archive: ArchiveConfig{
				Enabled:   viper.GetBool("ARCHIVE_ENABLED"),
				Endpoint:  viper.GetString("ARCHIVE_ENDPOINT"),
				AccessKey: viper.GetString("ARCHIVE_ACCESS_KEY"),
				SecretKey: viper.GetString("ARCHIVE_SECRET_KEY"),
				Bucket:    viper.GetString("ARCHIVE_BUCKET"),
				UseSSL:    viper.GetBool("ARCHIVE_USE_SSL"),
			},
		}
	})

	return instance
}

// parseLocations parses "key:Display Name,key2:Other Name" pairs. Entries
// without a colon are skipped.
func parseLocations(raw string) []Location {
	var locations []Location
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, ":", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		name := strings.TrimSpace(parts[1])
		if key == "" || name == "" {
			continue
		}
		locations = append(locations, Location{Key: key, Name: name})
	}
	return locations
}
