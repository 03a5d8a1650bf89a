package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	ServerPort     string
	ServerHost     string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxRequestBody int64
	AllowedOrigins []string
	RateLimitRPS   int
	RateLimitBurst int

	// Database
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// Kafka
	KafkaBrokers []string
	KafkaGroupID string
	DatasetTopic string

	// Lab calendar
	LabTimezone    string
	SourceTimezone string
	DayStartHour   int

	// Dashboards
	UnitCatalogPath string
	TATSource       string
	RevenueSource   string
	NumbersSource   string
	SourceCacheTTL  time.Duration
	UpstreamTimeout time.Duration
	UpstreamRetries int
	UpstreamToken   string
	DefaultTopN     int
}

func Load() *Config {
	return &Config{
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		ServerHost:     getEnv("SERVER_HOST", "0.0.0.0"),
		ReadTimeout:    getDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout:   getDuration("WRITE_TIMEOUT", 30*time.Second),
		MaxRequestBody: int64(getIntEnv("MAX_REQUEST_BODY_BYTES", 1024*1024)),
		AllowedOrigins: getStringSliceEnv("ALLOWED_ORIGINS", []string{"*"}),
		RateLimitRPS:   getIntEnv("RATE_LIMIT_RPS", 20),
		RateLimitBurst: getIntEnv("RATE_LIMIT_BURST", 40),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "labops"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "labops"),
		PostgresDB:       getEnv("POSTGRES_DB", "labops"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),

		KafkaBrokers: getStringSliceEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
		KafkaGroupID: getEnv("KAFKA_GROUP_ID", "labops-dashboards"),
		DatasetTopic: getEnv("DATASET_TOPIC", ""),

		LabTimezone:    getEnv("LAB_TIMEZONE", "Africa/Nairobi"),
		SourceTimezone: getEnv("SOURCE_TIMEZONE", "UTC"),
		DayStartHour:   getIntEnv("DAY_START_HOUR", 8),

		UnitCatalogPath: getEnv("UNIT_CATALOG_PATH", ""),
		TATSource:       getEnv("TAT_SOURCE", "table:tat_records"),
		RevenueSource:   getEnv("REVENUE_SOURCE", "table:revenue_records"),
		NumbersSource:   getEnv("NUMBERS_SOURCE", "table:numbers_records"),
		SourceCacheTTL:  getDuration("SOURCE_CACHE_TTL", 0),
		UpstreamTimeout: getDuration("UPSTREAM_TIMEOUT", 10*time.Second),
		UpstreamRetries: getIntEnv("UPSTREAM_RETRIES", 3),
		UpstreamToken:   getEnv("UPSTREAM_TOKEN", ""),
		DefaultTopN:     getIntEnv("DEFAULT_TOP_N", 10),
	}
}

// Location resolves an IANA zone name, falling back to UTC.
func Location(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getStringSliceEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
