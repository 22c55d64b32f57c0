package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// defaultEndpointPaths are the pages under COURT_BASE_URL known to host case
// search, in the order they are tried.
var defaultEndpointPaths = []string{
	"/dhcqrydisp_o.asp",
	"/dhcqrydisp.asp",
	"/case_status.asp",
	"/",
}

// Config holds all application configuration
type Config struct {
	// Server settings
	Host string
	Port string

	// Database settings
	DatabasePath string
	StoreTimeout time.Duration

	// Logging settings
	LogLevel  string
	LogFormat string

	// Cache settings
	CacheBackend string
	CacheSize    int
	CacheTTL     time.Duration
	RedisAddr    string
	RedisDB      int

	// Court settings
	CourtBaseURL   string
	CourtName      string
	CourtEndpoints []string

	// Scraper settings
	ScraperTimeout   time.Duration
	DiscoveryTimeout time.Duration
	SearchTimeout    time.Duration
	DocumentTimeout  time.Duration
	BrowserDiscovery bool
	HeadlessMode     bool
	UserAgent        string
	BrowserPath      string

	// Synthetic fallback settings; zero seed means ambient randomness
	SyntheticSeed int64

	// Concurrency settings
	MaxConcurrentScrapes int

	// API settings
	HistoryLimit  int
	APIRateLimit  int
	APIRateWindow time.Duration
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	cfg := &Config{
		Host:         getEnv("HOST", "0.0.0.0"),
		Port:         getEnv("PORT", "8080"),
		DatabasePath: getEnv("DATABASE_PATH", "./data/court_data.db"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogFormat:    getEnv("LOG_FORMAT", "json"),
		CacheBackend: strings.ToLower(getEnv("CACHE_BACKEND", "memory")),
		RedisAddr:    getEnv("REDIS_ADDR", "localhost:6379"),
		CourtBaseURL: getEnv("COURT_BASE_URL", "https://delhihighcourt.nic.in"),
		CourtName:    getEnv("COURT_NAME", "Delhi High Court"),
		UserAgent:    getEnv("USER_AGENT", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
		BrowserPath:  getEnv("ROD_BROWSER_PATH", ""),
	}

	cfg.CourtEndpoints = splitList(getEnv("COURT_ENDPOINTS", ""))
	if len(cfg.CourtEndpoints) == 0 {
		cfg.CourtEndpoints = defaultEndpoints(cfg.CourtBaseURL)
	}

	switch cfg.CacheBackend {
	case "memory", "redis":
	default:
		return nil, fmt.Errorf("invalid CACHE_BACKEND: %q", cfg.CacheBackend)
	}

	var err error
	if cfg.CacheSize, err = getInt("CACHE_SIZE", 1000); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = getDuration("CACHE_TTL", 30, time.Minute); err != nil {
		return nil, err
	}
	if cfg.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.ScraperTimeout, err = getDuration("SCRAPER_TIMEOUT", 30, time.Second); err != nil {
		return nil, err
	}
	if cfg.DiscoveryTimeout, err = getDuration("DISCOVERY_TIMEOUT", 10, time.Second); err != nil {
		return nil, err
	}
	if cfg.SearchTimeout, err = getDuration("SEARCH_TIMEOUT", 15, time.Second); err != nil {
		return nil, err
	}
	if cfg.DocumentTimeout, err = getDuration("DOCUMENT_TIMEOUT", 30, time.Second); err != nil {
		return nil, err
	}
	if cfg.StoreTimeout, err = getDuration("STORE_TIMEOUT", 5, time.Second); err != nil {
		return nil, err
	}

	cfg.BrowserDiscovery = getEnv("BROWSER_DISCOVERY", "false") == "true"
	cfg.HeadlessMode = getEnv("HEADLESS_MODE", "true") == "true"

	cfg.SyntheticSeed, err = strconv.ParseInt(getEnv("SYNTHETIC_SEED", "0"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid SYNTHETIC_SEED: %w", err)
	}

	if cfg.MaxConcurrentScrapes, err = getInt("MAX_CONCURRENT_SCRAPES", 5); err != nil {
		return nil, err
	}
	if cfg.HistoryLimit, err = getInt("HISTORY_LIMIT", 50); err != nil {
		return nil, err
	}
	if cfg.APIRateLimit, err = getInt("API_RATE_LIMIT", 100); err != nil {
		return nil, err
	}
	if cfg.APIRateWindow, err = getDuration("API_RATE_WINDOW", 60, time.Second); err != nil {
		return nil, err
	}

	if cfg.MaxConcurrentScrapes < 1 {
		return nil, fmt.Errorf("invalid MAX_CONCURRENT_SCRAPES: must be at least 1")
	}
	if cfg.HistoryLimit < 1 {
		return nil, fmt.Errorf("invalid HISTORY_LIMIT: must be at least 1")
	}

	return cfg, nil
}

// getEnv returns the value of an environment variable or a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	v, err := strconv.Atoi(getEnv(key, strconv.Itoa(defaultValue)))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func getDuration(key string, defaultValue int, unit time.Duration) (time.Duration, error) {
	v, err := getInt(key, defaultValue)
	if err != nil {
		return 0, err
	}
	return time.Duration(v) * unit, nil
}

func defaultEndpoints(baseURL string) []string {
	base := strings.TrimRight(baseURL, "/")
	endpoints := make([]string, 0, len(defaultEndpointPaths))
	for _, p := range defaultEndpointPaths {
		endpoints = append(endpoints, base+p)
	}
	return endpoints
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
