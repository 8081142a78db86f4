package config

import (
	"path/filepath"
	"time"
)

// Config holds runtime settings for the researcher CLI.
//
// Fields:
//   - APIBaseURL: backend base URL including the /api/v1 prefix.
//   - RequestTimeout: upper bound for a single gateway call.
//   - DataDir / DatabaseFile: location of the local SQLite store.
//   - LogLevel / LogBackend: see logging.New.
//   - RateLimit / RateBurst: outbound requests per second (0 disables) and
//     the burst allowed on top of it (at least 1).
type Config struct {
	APIBaseURL     string
	RequestTimeout time.Duration
	DataDir        string
	DatabaseFile   string
	LogLevel       string
	LogBackend     string
	RateLimit      float64
	RateBurst      int
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://127.0.0.1:8000/api/v1"
	c.RequestTimeout = 30 * time.Second
	c.DataDir = ".researcher"
	c.DatabaseFile = "client.db"
	c.LogLevel = "info"
	c.LogBackend = "slog"
	c.RateLimit = 0
	c.RateBurst = 1
}

// DatabasePath joins DataDir and DatabaseFile.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, c.DatabaseFile)
}

// LogPath is the file the CLI writes its log to.
func (c *Config) LogPath() string {
	return filepath.Join(c.DataDir, "client.log")
}

// Normalize clamps values the rest of the client cannot run with: a
// negative RateLimit disables limiting and RateBurst is at least 1.
func (c *Config) Normalize() {
	if c.RateLimit < 0 {
		c.RateLimit = 0
	}
	if c.RateBurst < 1 {
		c.RateBurst = 1
	}
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present), the environment and command-line flags. Later sources
// take precedence over earlier ones. The result is normalized.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	cfg.Normalize()
	return cfg
}
