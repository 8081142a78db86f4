package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/dmitrijs2005/researcher/internal/flagx"
)

const envPrefix = "RESEARCHER_"

// parseEnv overlays Config with RESEARCHER_* variables. When -e/-env names a
// dotenv file its values are used as a fallback for variables that are not
// set in the process environment. Malformed values panic.
func parseEnv(cfg *Config) {
	var fromFile map[string]string
	if path := flagx.EnvFileFlags(); path != "" {
		var err error
		fromFile, err = godotenv.Read(path)
		if err != nil {
			panic(err)
		}
	}

	lookup := func(key string) (string, bool) {
		key = envPrefix + key
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fromFile[key]
		return v, ok
	}

	if err := applyEnv(cfg, lookup); err != nil {
		panic(err)
	}
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup("API_BASE_URL"); ok {
		cfg.APIBaseURL = v
	}
	if v, ok := lookup("REQUEST_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sREQUEST_TIMEOUT: %w", envPrefix, err)
		}
		cfg.RequestTimeout = d
	}
	if v, ok := lookup("DATA_DIR"); ok {
		cfg.DataDir = v
	}
	if v, ok := lookup("DATABASE_FILE"); ok {
		cfg.DatabaseFile = v
	}
	if v, ok := lookup("LOG_LEVEL"); ok {
		cfg.LogLevel = v
	}
	if v, ok := lookup("LOG_BACKEND"); ok {
		cfg.LogBackend = v
	}
	if v, ok := lookup("RATE_LIMIT"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%sRATE_LIMIT: %w", envPrefix, err)
		}
		cfg.RateLimit = f
	}
	if v, ok := lookup("RATE_BURST"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sRATE_BURST: %w", envPrefix, err)
		}
		cfg.RateBurst = n
	}
	return nil
}
