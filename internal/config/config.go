package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Host string
	Port string

	// Database settings
	DatabasePath string

	// Logging settings
	LogLevel  string
	LogFormat string

	// Cache settings
	CacheSize int
	CacheTTL  time.Duration

	// Court settings
	CourtBaseURL    string
	CourtSearchPath string
	CourtName       string

	// Scraper settings
	ScraperTimeout time.Duration // overall page-load bound
	LocatorTimeout time.Duration // per locator-strategy bound
	SubmitSettle   time.Duration // blind wait after submit
	ResultSettle   time.Duration // blind wait before reading results
	HeadlessMode   bool
	UserAgent      string
	BrowserPath    string

	// Document download settings
	DocumentDir string

	// API settings
	APIRateLimit  int
	APIRateWindow time.Duration
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// Not an error if .env doesn't exist
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	cfg := &Config{
		Host:            getEnv("HOST", "0.0.0.0"),
		Port:            getEnv("PORT", "8080"),
		DatabasePath:    getEnv("DATABASE_PATH", "./data/court_data.db"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "json"),
		CourtBaseURL:    getEnv("COURT_BASE_URL", "https://delhihighcourt.nic.in"),
		CourtSearchPath: getEnv("COURT_SEARCH_PATH", "/app/get-case-type-status"),
		CourtName:       getEnv("COURT_NAME", "Delhi High Court"),
		UserAgent:       getEnv("USER_AGENT", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"),
		BrowserPath:     getEnv("ROD_BROWSER_PATH", ""),
		DocumentDir:     getEnv("DOCUMENT_DIR", "./data/documents"),
	}

	// Parse integer values
	var err error
	cfg.CacheSize, err = strconv.Atoi(getEnv("CACHE_SIZE", "1000"))
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_SIZE: %w", err)
	}

	cfg.CacheTTL, err = minutesEnv("CACHE_TTL", "30")
	if err != nil {
		return nil, err
	}

	cfg.ScraperTimeout, err = secondsEnv("SCRAPER_TIMEOUT", "30")
	if err != nil {
		return nil, err
	}

	cfg.LocatorTimeout, err = secondsEnv("LOCATOR_TIMEOUT", "20")
	if err != nil {
		return nil, err
	}

	cfg.SubmitSettle, err = secondsEnv("SUBMIT_SETTLE", "8")
	if err != nil {
		return nil, err
	}

	cfg.ResultSettle, err = secondsEnv("RESULT_SETTLE", "5")
	if err != nil {
		return nil, err
	}

	cfg.HeadlessMode = getEnv("HEADLESS_MODE", "true") == "true"

	cfg.APIRateLimit, err = strconv.Atoi(getEnv("API_RATE_LIMIT", "100"))
	if err != nil {
		return nil, fmt.Errorf("invalid API_RATE_LIMIT: %w", err)
	}

	cfg.APIRateWindow, err = secondsEnv("API_RATE_WINDOW", "60")
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// SearchURL returns the full URL of the case-status search form
func (c *Config) SearchURL() string {
	return strings.TrimRight(c.CourtBaseURL, "/") + c.CourtSearchPath
}

// getEnv returns the value of an environment variable or a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func secondsEnv(key, defaultValue string) (time.Duration, error) {
	n, err := strconv.Atoi(getEnv(key, defaultValue))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return time.Duration(n) * time.Second, nil
}

func minutesEnv(key, defaultValue string) (time.Duration, error) {
	n, err := strconv.Atoi(getEnv(key, defaultValue))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return time.Duration(n) * time.Minute, nil
}
