// Package config loads runtime configuration for the researcher CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Environment variables RESEARCHER_*, optionally seeded from a dotenv
//     file given with -e or -env (see parseEnv). Real environment variables
//     win over the file.
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   backend API base URL
//	-t int      request timeout (seconds)
//	-d string   data directory
//	-l string   log level
//
// # JSON schema
//
// Durations use timex.Duration, so values can be either strings like "30s"
// or integer nanoseconds. Absent keys keep their previous value:
//
//	{
//	  "api_base_url": "http://127.0.0.1:8000/api/v1",
//	  "request_timeout": "30s",
//	  "data_dir": ".researcher",
//	  "database_file": "client.db",
//	  "log_level": "info",
//	  "log_backend": "slog",
//	  "rate_limit": 5,
//	  "rate_burst": 10
//	}
//
// # Environment
//
//	RESEARCHER_API_BASE_URL, RESEARCHER_REQUEST_TIMEOUT, RESEARCHER_DATA_DIR,
//	RESEARCHER_DATABASE_FILE, RESEARCHER_LOG_LEVEL, RESEARCHER_LOG_BACKEND,
//	RESEARCHER_RATE_LIMIT, RESEARCHER_RATE_BURST
package config
