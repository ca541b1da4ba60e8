// Package config loads the planner configuration from the environment.
//
// A .env file in the working directory is read first when present; values
// already set in the environment win over it. Command-line flags override
// the loaded values in cmd.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/teemow/planner/internal/gateway"
	"github.com/teemow/planner/internal/syncer"
	"github.com/teemow/planner/internal/teams"
)

// Transport preference values for PLANNER_TRANSPORT_PREFERENCE.
const (
	TransportGoogle = "google"
	TransportNone   = "none"
)

// Config is the planner configuration.
type Config struct {
	// APIURL is the collaborator base URL (PLANNER_API_URL)
	APIURL string

	// APIToken is the bearer token sent to the collaborator (PLANNER_API_TOKEN)
	APIToken string

	// UserID and Username identify the user the server acts for
	// (PLANNER_USER_ID, PLANNER_USERNAME)
	UserID   int64
	Username string

	// HTTPTimeout bounds each collaborator request. Zero means no timeout
	// (PLANNER_HTTP_TIMEOUT)
	HTTPTimeout time.Duration

	// AutoSync is the cron spec of the periodic sync; empty disables it
	// (PLANNER_AUTO_SYNC)
	AutoSync string

	// UserCacheSize bounds the username lookup cache (PLANNER_USER_CACHE_SIZE)
	UserCacheSize int

	// TransportPreference is "google", "none" or empty
	// (PLANNER_TRANSPORT_PREFERENCE)
	TransportPreference string
}

// Load reads .env if present and builds a Config from the environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from the environment only.
func FromEnv() (Config, error) {
	cfg := Config{
		APIURL:              getEnvOrDefault("PLANNER_API_URL", gateway.DefaultBaseURL),
		APIToken:            os.Getenv("PLANNER_API_TOKEN"),
		Username:            os.Getenv("PLANNER_USERNAME"),
		AutoSync:            os.Getenv("PLANNER_AUTO_SYNC"),
		TransportPreference: strings.ToLower(os.Getenv("PLANNER_TRANSPORT_PREFERENCE")),
	}

	var err error
	if cfg.UserID, err = getEnvInt64("PLANNER_USER_ID", 0); err != nil {
		return cfg, err
	}
	if cfg.HTTPTimeout, err = getEnvDuration("PLANNER_HTTP_TIMEOUT", 0); err != nil {
		return cfg, err
	}
	size, err := getEnvInt64("PLANNER_USER_CACHE_SIZE", teams.DefaultUserCacheSize)
	if err != nil {
		return cfg, err
	}
	cfg.UserCacheSize = int(size)

	return cfg, nil
}

// Validate checks the configuration.
func (c Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil {
		return fmt.Errorf("invalid PLANNER_API_URL %q: %w", c.APIURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid PLANNER_API_URL %q: must be an absolute http(s) URL", c.APIURL)
	}
	if c.UserID < 0 {
		return fmt.Errorf("PLANNER_USER_ID must not be negative, got %d", c.UserID)
	}
	if c.HTTPTimeout < 0 {
		return fmt.Errorf("PLANNER_HTTP_TIMEOUT must not be negative, got %s", c.HTTPTimeout)
	}
	if c.UserCacheSize <= 0 {
		return fmt.Errorf("PLANNER_USER_CACHE_SIZE must be positive, got %d", c.UserCacheSize)
	}
	switch c.TransportPreference {
	case "", TransportGoogle, TransportNone:
	default:
		return fmt.Errorf("invalid PLANNER_TRANSPORT_PREFERENCE %q, must be one of: google, none", c.TransportPreference)
	}
	return nil
}

// HasUser reports whether a user is configured.
func (c Config) HasUser() bool {
	return c.UserID > 0
}

// AutoSyncSpec returns the cron spec to use when auto-sync is enabled
// without an explicit schedule.
func (c Config) AutoSyncSpec() string {
	if c.AutoSync == "" || c.AutoSync == "true" {
		return syncer.DefaultAutoSyncSpec
	}
	return c.AutoSync
}

// Transport returns the transport preference as sent to the collaborator.
// Nil leaves the preference unset.
func (c Config) Transport() *bool {
	var v bool
	switch c.TransportPreference {
	case TransportGoogle:
		v = true
	case TransportNone:
		v = false
	default:
		return nil
	}
	return &v
}

// getEnvOrDefault returns the value of an environment variable or a default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) (int64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return n, nil
}

// getEnvDuration accepts Go durations ("30s") and plain seconds ("30").
func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return d, nil
}
