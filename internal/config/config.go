package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultWatchlist is used when neither WATCHLIST nor WATCHLIST_FILE is set
var DefaultWatchlist = []string{"AAPL", "MSFT", "GOOGL", "AMZN", "META", "NVDA", "BRK-B", "TSM", "V", "JPM"}

// DefaultMarketCapThreshold is the large-cap cutoff in currency units
const DefaultMarketCapThreshold int64 = 500_000_000_000

// Config holds all application configuration
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Kafka      KafkaConfig
	MarketData MarketDataConfig
	Analysis   AnalysisConfig
	Scheduler  SchedulerConfig
	LogLevel   string
	LogFormat  string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host           string
	Port           string
	User           string
	Password       string
	DBName         string
	SSLMode        string
	MigrationsPath string
}

// RedisConfig holds Redis cache configuration
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// KafkaConfig holds Kafka configuration
type KafkaConfig struct {
	Enabled      bool
	Brokers      []string
	Topic        string
	RefreshTopic string
	GroupID      string
}

// MarketDataConfig holds the market data gateway configuration
type MarketDataConfig struct {
	BaseURL string
	Timeout time.Duration
}

// AnalysisConfig holds the ranking pipeline configuration
type AnalysisConfig struct {
	Watchlist          []string
	MarketCapThreshold int64
	ROIWindowDays      int
	TopN               int
}

// SchedulerConfig holds the daily update schedule
type SchedulerConfig struct {
	Enabled    bool
	UpdateCron string
	RunOnStart bool
}

// Load reads configuration from a .env file (if present) and environment variables
func Load() (*Config, error) {
	_ = godotenv.Load()

	watchlist, err := loadWatchlist()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:  getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getEnvDuration("SERVER_WRITE_TIMEOUT", 2*time.Minute),
		},
		Database: DatabaseConfig{
			Host:           getEnv("DB_HOST", "localhost"),
			Port:           getEnv("DB_PORT", "5432"),
			User:           getEnv("DB_USER", "postgres"),
			Password:       getEnv("DB_PASSWORD", "postgres"),
			DBName:         getEnv("DB_NAME", "largecap_roi"),
			SSLMode:        getEnv("DB_SSLMODE", "disable"),
			MigrationsPath: getEnv("DB_MIGRATIONS_PATH", "db/migrations"),
		},
		Redis: RedisConfig{
			Enabled:  getEnvBool("REDIS_ENABLED", false),
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			TTL:      getEnvDuration("REDIS_TTL", 10*time.Minute),
		},
		Kafka: KafkaConfig{
			Enabled:      getEnvBool("KAFKA_ENABLED", false),
			Brokers:      splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
			Topic:        getEnv("KAFKA_TOPIC", "stock-events"),
			RefreshTopic: getEnv("KAFKA_REFRESH_TOPIC", "stock-refresh-requests"),
			GroupID:      getEnv("KAFKA_GROUP_ID", "largecap-roi-service"),
		},
		MarketData: MarketDataConfig{
			BaseURL: getEnv("MARKET_DATA_BASE_URL", "https://query2.finance.yahoo.com"),
			Timeout: getEnvDuration("MARKET_DATA_TIMEOUT", 30*time.Second),
		},
		Analysis: AnalysisConfig{
			Watchlist:          watchlist,
			MarketCapThreshold: getEnvInt64("MARKET_CAP_THRESHOLD", DefaultMarketCapThreshold),
			ROIWindowDays:      getEnvInt("ROI_WINDOW_DAYS", 365),
			TopN:               getEnvInt("TOP_N", 5),
		},
		Scheduler: SchedulerConfig{
			Enabled:    getEnvBool("SCHEDULER_ENABLED", true),
			UpdateCron: getEnv("UPDATE_CRON", "0 30 21 * * 1-5"),
			RunOnStart: getEnvBool("RUN_ON_START", false),
		},
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}, nil
}

// ConnectionString returns the PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + d.Port + "/" + d.DBName + "?sslmode=" + d.SSLMode
}

// Addr returns the host:port the HTTP server listens on
func (s *ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// watchlistFile is the YAML layout accepted by WATCHLIST_FILE
type watchlistFile struct {
	Symbols []string `yaml:"symbols"`
}

func loadWatchlist() ([]string, error) {
	if v := os.Getenv("WATCHLIST"); v != "" {
		return normalizeSymbols(splitList(v)), nil
	}
	if path := os.Getenv("WATCHLIST_FILE"); path != "" {
		return LoadWatchlistFile(path)
	}
	return append([]string(nil), DefaultWatchlist...), nil
}

// LoadWatchlistFile reads an ordered symbol list from a YAML file
func LoadWatchlistFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read watchlist file: %w", err)
	}

	var wf watchlistFile
	if err := yaml.Unmarshal(data, &wf); err != nil {
		return nil, fmt.Errorf("failed to parse watchlist file: %w", err)
	}

	symbols := normalizeSymbols(wf.Symbols)
	if len(symbols) == 0 {
		return nil, fmt.Errorf("watchlist file %s has no symbols", path)
	}
	return symbols, nil
}

// normalizeSymbols upper-cases, trims and de-duplicates while keeping order
func normalizeSymbols(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
