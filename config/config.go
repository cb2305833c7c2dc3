package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds tracker configuration derived from environment
// variables, an optional YAML file, and built-in defaults. Environment
// values win over file values.
type Config struct {
	APIURL          string
	FetchTimeoutSec int

	DataDir     string
	AnalysisDir string

	DiscordWebhookURL   string
	HighVolumeThreshold int
	AlertCallTypes      []string
	AlertAddresses      []string
	MaxAlertsPerRun     int

	MetricsAddr string
	SentryDSN   string

	LocalTZ      string
	StrictConfig bool

	// Location resolved from LocalTZ.
	Location *time.Location
}

type fileConfig struct {
	APIURL              string   `json:"api_url" yaml:"api_url"`
	DataDir             string   `json:"data_dir" yaml:"data_dir"`
	AnalysisDir         string   `json:"analysis_dir" yaml:"analysis_dir"`
	FetchTimeoutSec     *int     `json:"fetch_timeout_sec" yaml:"fetch_timeout_sec"`
	DiscordWebhookURL   string   `json:"discord_webhook_url" yaml:"discord_webhook_url"`
	HighVolumeThreshold *int     `json:"high_volume_threshold" yaml:"high_volume_threshold"`
	AlertCallTypes      []string `json:"alert_call_types" yaml:"alert_call_types"`
	AlertAddresses      []string `json:"alert_addresses" yaml:"alert_addresses"`
	MaxAlertsPerRun     *int     `json:"max_alerts_per_run" yaml:"max_alerts_per_run"`
	MetricsAddr         string   `json:"metrics_addr" yaml:"metrics_addr"`
	LocalTZ             string   `json:"local_tz" yaml:"local_tz"`
}

const (
	defaultAPIURL          = "https://apps.myclearwater.com/activecalls/api/ActiveCalls"
	defaultDataDir         = "data"
	defaultAnalysisDir     = "analysis"
	defaultFetchTimeoutSec = 30
	defaultVolumeThreshold = 10
	defaultMaxAlertsPerRun = 5
	defaultMetricsAddr     = ":9290"
	maxFetchTimeoutSec     = 300
)

// Load reads configuration and applies sane defaults. The config file
// is optional, so a missing file is never an error; a file that exists
// but fails to parse is an error only under STRICT_CONFIG.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("dotenv load: %v", err)
	}

	cfg := Config{
		FetchTimeoutSec:     defaultFetchTimeoutSec,
		HighVolumeThreshold: defaultVolumeThreshold,
		MaxAlertsPerRun:     defaultMaxAlertsPerRun,
		StrictConfig:        parseBoolEnv("STRICT_CONFIG"),
		SentryDSN:           os.Getenv("SENTRY_DSN"),
	}

	configPath := getEnv("CONFIG_PATH", filepath.Join("config", "config.yaml"))
	fileCfg, fileErr := loadFileConfig(configPath)
	if fileErr != nil && !os.IsNotExist(fileErr) {
		if cfg.StrictConfig {
			return cfg, fmt.Errorf("config load failed (%s): %w", configPath, fileErr)
		}
		log.Printf("config load failed (%s): %v (using defaults)", configPath, fileErr)
	}

	cfg.APIURL = firstNonEmpty(os.Getenv("API_URL"), fileCfg.APIURL, defaultAPIURL)
	cfg.DataDir = firstNonEmpty(os.Getenv("DATA_DIR"), fileCfg.DataDir, defaultDataDir)
	cfg.AnalysisDir = firstNonEmpty(os.Getenv("ANALYSIS_DIR"), fileCfg.AnalysisDir, defaultAnalysisDir)
	cfg.DiscordWebhookURL = firstNonEmpty(os.Getenv("DISCORD_WEBHOOK_URL"), fileCfg.DiscordWebhookURL)
	cfg.MetricsAddr = firstNonEmpty(os.Getenv("METRICS_ADDR"), fileCfg.MetricsAddr, defaultMetricsAddr)
	if !strings.HasPrefix(cfg.MetricsAddr, ":") && !strings.Contains(cfg.MetricsAddr, ":") {
		cfg.MetricsAddr = ":" + cfg.MetricsAddr
	}
	cfg.LocalTZ = firstNonEmpty(os.Getenv("LOCAL_TZ"), fileCfg.LocalTZ)

	if fileCfg.FetchTimeoutSec != nil && *fileCfg.FetchTimeoutSec > 0 {
		cfg.FetchTimeoutSec = *fileCfg.FetchTimeoutSec
	}
	if fileCfg.HighVolumeThreshold != nil && *fileCfg.HighVolumeThreshold > 0 {
		cfg.HighVolumeThreshold = *fileCfg.HighVolumeThreshold
	}
	if fileCfg.MaxAlertsPerRun != nil && *fileCfg.MaxAlertsPerRun >= 0 {
		cfg.MaxAlertsPerRun = *fileCfg.MaxAlertsPerRun
	}
	cfg.AlertCallTypes = fileCfg.AlertCallTypes
	cfg.AlertAddresses = fileCfg.AlertAddresses

	if v, ok, err := parseIntEnv("FETCH_TIMEOUT_SEC"); err != nil {
		if cfg.StrictConfig {
			return cfg, fmt.Errorf("invalid FETCH_TIMEOUT_SEC: %w", err)
		}
		log.Printf("invalid FETCH_TIMEOUT_SEC: %v (using default %d)", err, defaultFetchTimeoutSec)
	} else if ok {
		if v <= 0 {
			log.Printf("FETCH_TIMEOUT_SEC must be positive, using default %d", defaultFetchTimeoutSec)
			v = defaultFetchTimeoutSec
		}
		if v > maxFetchTimeoutSec {
			log.Printf("FETCH_TIMEOUT_SEC capped at %d (was %d)", maxFetchTimeoutSec, v)
			v = maxFetchTimeoutSec
		}
		cfg.FetchTimeoutSec = v
	}

	if v, ok, err := parseIntEnv("HIGH_VOLUME_THRESHOLD"); err != nil {
		if cfg.StrictConfig {
			return cfg, fmt.Errorf("invalid HIGH_VOLUME_THRESHOLD: %w", err)
		}
		log.Printf("invalid HIGH_VOLUME_THRESHOLD: %v (using default %d)", err, defaultVolumeThreshold)
	} else if ok && v > 0 {
		cfg.HighVolumeThreshold = v
	}

	if v, ok, err := parseIntEnv("MAX_ALERTS_PER_RUN"); err != nil {
		if cfg.StrictConfig {
			return cfg, fmt.Errorf("invalid MAX_ALERTS_PER_RUN: %w", err)
		}
		log.Printf("invalid MAX_ALERTS_PER_RUN: %v (using default %d)", err, defaultMaxAlertsPerRun)
	} else if ok && v >= 0 {
		cfg.MaxAlertsPerRun = v
	}

	if v := os.Getenv("ALERT_CALL_TYPES"); v != "" {
		cfg.AlertCallTypes = splitCSV(v)
	}
	if v := os.Getenv("ALERT_ADDRESSES"); v != "" {
		cfg.AlertAddresses = splitCSV(v)
	}

	// Empty LOCAL_TZ means the system zone, matching how run timestamps
	// and archive dates behave when the tracker runs on a local box.
	cfg.Location = time.Local
	if cfg.LocalTZ != "" {
		loc, err := time.LoadLocation(cfg.LocalTZ)
		if err != nil {
			if cfg.StrictConfig {
				return cfg, fmt.Errorf("invalid LOCAL_TZ %q: %w", cfg.LocalTZ, err)
			}
			log.Printf("invalid LOCAL_TZ %q: %v (using UTC)", cfg.LocalTZ, err)
			loc = time.UTC
		}
		cfg.Location = loc
	}

	if err := validateConfig(cfg); err != nil {
		if cfg.StrictConfig {
			return cfg, err
		}
		log.Printf("config validation failed: %v (continuing)", err)
	}

	return cfg, nil
}

// Derived file locations under DataDir and AnalysisDir.

func (c Config) SnapshotPath() string { return filepath.Join(c.DataDir, "current_calls.json") }
func (c Config) HistoryPath() string  { return filepath.Join(c.DataDir, "historical_log.txt") }
func (c Config) ArchiveDir() string   { return filepath.Join(c.DataDir, "archive") }
func (c Config) LockPath() string     { return filepath.Join(c.DataDir, "calltracker.lock") }
func (c Config) StatsPath() string    { return filepath.Join(c.AnalysisDir, "stats.json") }
func (c Config) EventsDBPath() string { return filepath.Join(c.AnalysisDir, "events.db") }

func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSec) * time.Second
}

func loadFileConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
		return cfg, nil
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func validateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.APIURL) == "" {
		return fmt.Errorf("API_URL is required")
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		return fmt.Errorf("DATA_DIR is required")
	}
	if strings.TrimSpace(cfg.AnalysisDir) == "" {
		return fmt.Errorf("ANALYSIS_DIR is required")
	}
	return nil
}

func splitCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, val := range values {
		if strings.TrimSpace(val) != "" {
			return val
		}
	}
	return ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBoolEnv(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseIntEnv(key string) (int, bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return 0, false, nil
	}
	val, err := strconv.Atoi(raw)
	return val, true, err
}
