package ratelimit

import (
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment variables read by LoadConfig
const (
	EnvEnabled         = "RATE_LIMIT_ENABLED"
	EnvDefaultLimit    = "RATE_LIMIT_DEFAULT_LIMIT"
	EnvDefaultWindow   = "RATE_LIMIT_DEFAULT_WINDOW"
	EnvCleanupInterval = "RATE_LIMIT_CLEANUP_INTERVAL"
	EnvWhitelist       = "RATE_LIMIT_WHITELIST"
	EnvBlacklist       = "RATE_LIMIT_BLACKLIST"
)

// Rule limits one route. Paths ending in "/" match by prefix.
type Rule struct {
	Path   string
	Method string
	Limit  int           // requests per Window; zero means unlimited
	Window time.Duration
	Burst  int // defaults to Limit
}

func (r Rule) window() time.Duration {
	if r.Window <= 0 {
		return time.Minute
	}
	return r.Window
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	Whitelist       map[string]bool
	Blacklist       map[string]bool
	Rules           []Rule
}

// DefaultRules limits the routes that trigger a synthesis run.
// Each run calls every upstream API, so these are much stricter than reads.
func DefaultRules() []Rule {
	return []Rule{
		{Path: "/run", Method: http.MethodPost, Limit: 10, Window: time.Hour, Burst: 2},
		{Path: "/run/stream", Method: http.MethodPost, Limit: 10, Window: time.Hour, Burst: 2},
		{Path: "/synthesize", Method: http.MethodPost, Limit: 30, Window: time.Hour, Burst: 5},
		{Path: "/events", Method: http.MethodGet, Limit: 120, Window: time.Minute, Burst: 20},
	}
}

// DefaultConfig returns the configuration used when no environment overrides are set.
func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		DefaultLimit:    600,
		DefaultWindow:   time.Minute,
		CleanupInterval: 5 * time.Minute,
		Whitelist:       map[string]bool{},
		Blacklist:       map[string]bool{},
		Rules:           DefaultRules(),
	}
}

// LoadConfig applies RATE_LIMIT_* environment variables over DefaultConfig.
func LoadConfig() *Config {
	cfg := DefaultConfig()
	if v, err := strconv.ParseBool(os.Getenv(EnvEnabled)); err == nil {
		cfg.Enabled = v
	}
	if v, err := strconv.Atoi(os.Getenv(EnvDefaultLimit)); err == nil {
		cfg.DefaultLimit = v
	}
	if v, err := time.ParseDuration(os.Getenv(EnvDefaultWindow)); err == nil && v > 0 {
		cfg.DefaultWindow = v
	}
	if v, err := time.ParseDuration(os.Getenv(EnvCleanupInterval)); err == nil {
		cfg.CleanupInterval = v
	}
	cfg.Whitelist = parseIPList(os.Getenv(EnvWhitelist))
	cfg.Blacklist = parseIPList(os.Getenv(EnvBlacklist))
	return cfg
}

// Match returns the rule for a request. GET /health is always unlimited;
// unmatched routes get the default limit.
func (c *Config) Match(path, method string) Rule {
	if path == "/health" && method == http.MethodGet {
		return Rule{Path: path, Method: method}
	}
	for _, r := range c.Rules {
		if r.Method == method && r.Path == path {
			return r
		}
	}
	for _, r := range c.Rules {
		if r.Method == method && strings.HasSuffix(r.Path, "/") && strings.HasPrefix(path, r.Path) {
			return r
		}
	}
	return Rule{Path: path, Method: method, Limit: c.DefaultLimit, Window: c.DefaultWindow}
}

func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}
