// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	App       AppConfig
	Logger    LoggerConfig
	Server    ServerConfig
	Database  DatabaseConfig
	Cache     CacheConfig
	Shikimori ShikimoriConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string        // Server port (default: 8080)
	ReadTimeout  time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout time.Duration // HTTP write timeout (default: 15s)
	IdleTimeout  time.Duration // HTTP idle timeout (default: 60s)
}

// DatabaseConfig holds durable cache store configuration.
type DatabaseConfig struct {
	// Path is the sqlite database file (default: {data}/cache.db).
	Path string
}

// CacheConfig holds file index cache configuration.
type CacheConfig struct {
	// DataPath is the base directory for cache files.
	DataPath string
	// ByIDPath is the by-id JSON index file (default: {data}/anime_cache.json).
	ByIDPath string
	// ByNamePath is the by-name JSON index file (default: {data}/anime_cache_by_name.json).
	ByNamePath string
	// PosterPlaceholderURL substitutes missing poster URLs at write time.
	PosterPlaceholderURL string
}

// ShikimoriConfig holds upstream catalog configuration.
type ShikimoriConfig struct {
	GraphQLURL     string
	SiteURL        string
	UserAgent      string
	RequestTimeout time.Duration // per-request timeout (default: 10s)
	// BrowseMaxRequests caps upstream requests within one browse operation.
	BrowseMaxRequests int
	// BrowseMaxPage bounds the random page selection for browse queries.
	BrowseMaxPage int
	// RequestsPerSecond throttles upstream calls.
	RequestsPerSecond float64
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	// Define command-line flags.
	env := flag.String("env", "", "Environment (development, staging, production)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := flag.String("data-path", "", "Base path for cache data")
	dbPath := flag.String("db-path", "", "Path to the sqlite cache database")

	// Server flags
	serverPort := flag.String("port", "", "Server port (default: 8080)")
	readTimeout := flag.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := flag.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := flag.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")

	// Upstream flags
	gqlURL := flag.String("shikimori-url", "", "Shikimori GraphQL endpoint")
	requestTimeout := flag.String("shikimori-timeout", "", "Upstream request timeout (default: 10s)")

	envFile := flag.String("env-file", ".env", "Path to .env file")

	// Parse flags but don't exit on error - we want to handle it gracefully.
	flag.Parse()

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	// Build config with proper precedence.
	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Server: ServerConfig{
			Port: getConfigValue(*serverPort, "SERVER_PORT", "8080"),
		},
		Database: DatabaseConfig{
			Path: getConfigValue(*dbPath, "CACHE_DB_PATH", ""),
		},
		Cache: CacheConfig{
			DataPath:             getConfigValue(*dataPath, "DATA_PATH", ""),
			PosterPlaceholderURL: getConfigValue("", "POSTER_PLACEHOLDER_URL", "https://sekai.example/static/pictures/_access_block.jpg"),
		},
		Shikimori: ShikimoriConfig{
			GraphQLURL:        getConfigValue(*gqlURL, "SHIKIMORI_GRAPHQL_URL", "https://shikimori.one/api/graphql"),
			SiteURL:           getConfigValue("", "SHIKIMORI_SITE_URL", "https://shikimori.one"),
			UserAgent:         getConfigValue("", "SHIKIMORI_USER_AGENT", "SekaiBot/1.0"),
			BrowseMaxRequests: getIntConfigValue("", "SHIKIMORI_BROWSE_MAX_REQUESTS", 10),
			BrowseMaxPage:     getIntConfigValue("", "SHIKIMORI_BROWSE_MAX_PAGE", 10),
			RequestsPerSecond: getFloatConfigValue("", "SHIKIMORI_RPS", 5),
		},
	}

	// Parse server timeouts.
	readTimeoutStr := getConfigValue(*readTimeout, "SERVER_READ_TIMEOUT", "15s")
	readTimeoutDuration, err := time.ParseDuration(readTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid read timeout %q: %w", readTimeoutStr, err)
	}
	cfg.Server.ReadTimeout = readTimeoutDuration

	writeTimeoutStr := getConfigValue(*writeTimeout, "SERVER_WRITE_TIMEOUT", "15s")
	writeTimeoutDuration, err := time.ParseDuration(writeTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid write timeout %q: %w", writeTimeoutStr, err)
	}
	cfg.Server.WriteTimeout = writeTimeoutDuration

	idleTimeoutStr := getConfigValue(*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s")
	idleTimeoutDuration, err := time.ParseDuration(idleTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid idle timeout %q: %w", idleTimeoutStr, err)
	}
	cfg.Server.IdleTimeout = idleTimeoutDuration

	requestTimeoutStr := getConfigValue(*requestTimeout, "SHIKIMORI_REQUEST_TIMEOUT", "10s")
	requestTimeoutDuration, err := time.ParseDuration(requestTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid upstream request timeout %q: %w", requestTimeoutStr, err)
	}
	cfg.Shikimori.RequestTimeout = requestTimeoutDuration

	// Expand and derive cache paths.
	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	// Validate configuration.
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Cache.DataPath == "" {
		return errors.New("data path cannot be empty after expansion")
	}

	if c.Shikimori.GraphQLURL == "" {
		return errors.New("shikimori graphql url is required")
	}

	if c.Shikimori.BrowseMaxRequests <= 0 {
		return fmt.Errorf("browse max requests must be positive, got %d", c.Shikimori.BrowseMaxRequests)
	}

	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	// Expand tilde.
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	// Make absolute if needed.
	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandDataPath expands ~ and makes the data path absolute, then derives
// the database and file index paths that were not set explicitly.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "sekai", "data")

	expanded, err := expandPath(c.Cache.DataPath, defaultPath)
	if err != nil {
		return err
	}
	c.Cache.DataPath = expanded

	if c.Database.Path == "" {
		c.Database.Path = filepath.Join(expanded, "cache.db")
	}
	if c.Cache.ByIDPath == "" {
		c.Cache.ByIDPath = filepath.Join(expanded, "anime_cache.json")
	}
	if c.Cache.ByNamePath == "" {
		c.Cache.ByNamePath = filepath.Join(expanded, "anime_cache_by_name.json")
	}
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	// Priority 1: Command-line flag.
	if flagValue != "" {
		return flagValue
	}

	// Priority 2: Environment variable.
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}

	// Priority 3: Default value.
	return defaultValue
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

// getFloatConfigValue returns a float64 from flag, env var, or default.
func getFloatConfigValue(flagValue, envKey string, defaultValue float64) float64 {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result float64
	if _, err := fmt.Sscanf(strValue, "%g", &result); err != nil {
		return defaultValue
	}
	return result
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments.
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=value.
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove quotes if present.
		value = strings.Trim(value, `"'`)

		// Only set if not already set (env vars take precedence over .env file).
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
