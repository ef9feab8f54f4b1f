// Package config builds the single Config value shared by both binaries.
// It is loaded once at startup and passed down; nothing reads the
// environment after Load returns.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrMissingDatabaseURL is returned when the datastore credentials are absent.
var ErrMissingDatabaseURL = errors.New("DATABASE_URL is not set")

const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"

// Config holds application configuration.
type Config struct {
	DatabaseDriver string
	DatabaseURL    string
	RedisURL       string
	RESTPort       string
	WSPort         string
	LogLevel       string
	LogFile        string
	CSVDir         string
	OddsAPIKey     string
	Season         int
	RefreshCron    string
	CatalogFile    string
	ChromePath     string

	ESPNWebBase      string
	ESPNAPIBase      string
	ESPNSiteAPIBase  string
	OddsAPIBase      string
	TeamRankingsBase string

	// HTTP is the fetch policy applied to sources without their own entry
	// in Catalog.Sources.
	HTTP         SourcePolicy
	UserAgent    string
	SubjectDelay time.Duration

	Catalog Catalog
}

// SourcePolicy is the per-source fetch timeout and retry budget.
type SourcePolicy struct {
	Timeout      time.Duration `yaml:"timeout"`
	Retries      int           `yaml:"retries"`
	RetryWait    time.Duration `yaml:"retry_wait"`
	RetryMaxWait time.Duration `yaml:"retry_max_wait"`
}

// Load reads .env (when present) and the environment, then the subject catalog.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		DatabaseDriver:   getEnv("DATABASE_DRIVER", "postgres"),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		RedisURL:         getEnv("REDIS_URL", ""),
		RESTPort:         getEnv("REST_PORT", "8080"),
		WSPort:           getEnv("WS_PORT", "8081"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFile:          getEnv("LOG_FILE", ""),
		CSVDir:           getEnv("CSV_DIR", "data"),
		OddsAPIKey:       getEnv("ODDS_API_KEY", ""),
		Season:           getEnvInt("SEASON", time.Now().Year()),
		RefreshCron:      getEnv("REFRESH_CRON", "0 6 * * *"),
		CatalogFile:      getEnv("CATALOG_FILE", "configs/subjects.yaml"),
		ChromePath:       getEnv("CHROME_PATH", ""),
		ESPNWebBase:      getEnv("ESPN_WEB_BASE", "https://www.espn.com"),
		ESPNAPIBase:      getEnv("ESPN_API_BASE", "https://site.web.api.espn.com/apis/common/v3/sports/baseball/mlb"),
		ESPNSiteAPIBase:  getEnv("ESPN_SITE_API_BASE", "https://site.api.espn.com/apis/site/v2/sports/baseball/mlb"),
		OddsAPIBase:      getEnv("ODDS_API_BASE", "https://api.the-odds-api.com/v4"),
		TeamRankingsBase: getEnv("TEAMRANKINGS_BASE", "https://www.teamrankings.com"),
		UserAgent:        getEnv("USER_AGENT", DefaultUserAgent),
		SubjectDelay:     getEnvDuration("SUBJECT_DELAY", time.Second),
		HTTP: SourcePolicy{
			Timeout:      getEnvDuration("HTTP_TIMEOUT", 10*time.Second),
			Retries:      getEnvInt("HTTP_RETRIES", 3),
			RetryWait:    getEnvDuration("HTTP_RETRY_WAIT", 500*time.Millisecond),
			RetryMaxWait: getEnvDuration("HTTP_RETRY_MAX_WAIT", 8*time.Second),
		},
	}

	switch cfg.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		return nil, fmt.Errorf("unsupported DATABASE_DRIVER %q", cfg.DatabaseDriver)
	}

	catalog, err := LoadCatalog(cfg.CatalogFile, cfg.Season)
	if err != nil {
		return nil, err
	}
	cfg.Catalog = *catalog
	if cfg.Catalog.Season != 0 {
		cfg.Season = cfg.Catalog.Season
	}
	return cfg, nil
}

// RequireDatabase fails when no datastore credentials were configured.
func (c *Config) RequireDatabase() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return ErrMissingDatabaseURL
	}
	return nil
}

// Policy returns the fetch policy for a source, falling back to the
// global HTTP policy field by field.
func (c *Config) Policy(source string) SourcePolicy {
	p, ok := c.Catalog.Sources[source]
	if !ok {
		return c.HTTP
	}
	if p.Timeout == 0 {
		p.Timeout = c.HTTP.Timeout
	}
	if p.Retries == 0 {
		p.Retries = c.HTTP.Retries
	}
	if p.RetryWait == 0 {
		p.RetryWait = c.HTTP.RetryWait
	}
	if p.RetryMaxWait == 0 {
		p.RetryMaxWait = c.HTTP.RetryMaxWait
	}
	return p
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
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
