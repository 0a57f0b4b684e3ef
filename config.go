package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Build-time variables - inject via ldflags
// Example: go build -ldflags "-X main.jinaAPIKey=YOUR_KEY"
var (
	jinaAPIKey string // -X main.jinaAPIKey=...
)

// GetJinaAPIKey returns the Jina reader API key (build-time or env fallback).
// An empty key uses the anonymous rate limit.
func GetJinaAPIKey() string {
	if jinaAPIKey != "" {
		return jinaAPIKey
	}
	return os.Getenv("JINA_API_KEY")
}

const (
	defaultSiteBase      = "https://en.ephoto360.com"
	defaultJinaBase      = "https://r.jina.ai/"
	defaultHost          = "0.0.0.0"
	defaultPort          = "7860"
	defaultNavTimeout    = 60 * time.Second
	defaultSubmitTimeout = 60 * time.Second
	defaultSearchTimeout = 15 * time.Second
	defaultReqTimeout    = 3 * time.Minute
	defaultMinDelay      = 2 * time.Second
	defaultMaxDelay      = 5 * time.Second
)

// Config holds every startup option. Nothing is persisted across runs.
type Config struct {
	Headless       bool
	Hardened       bool
	InstallBrowser bool
	MinDelay       time.Duration
	MaxDelay       time.Duration
	Proxy          string // single proxy, any format parseProxyLine accepts
	ProxyFile      string // one proxy per line, picked at random per request
	UserAgent      string
	LaunchFlags    []string // extra Chromium flags, comma separated in LAUNCH_FLAGS

	Resolver         string // "jina" or "site"
	BlockMarkersFile string
	SiteBase         string
	JinaBase         string

	NavigationTimeout time.Duration
	SubmitTimeout     time.Duration
	SearchTimeout     time.Duration
	RequestTimeout    time.Duration

	Host string
	Port string
}

// Addr is the front-end bind address.
func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}

// LoadConfig reads the configuration from the environment.
// Call godotenv.Load before this to pick up a .env file.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Headless:          true,
		MinDelay:          defaultMinDelay,
		MaxDelay:          defaultMaxDelay,
		Resolver:          resolverJina,
		SiteBase:          defaultSiteBase,
		JinaBase:          defaultJinaBase,
		NavigationTimeout: defaultNavTimeout,
		SubmitTimeout:     defaultSubmitTimeout,
		SearchTimeout:     defaultSearchTimeout,
		RequestTimeout:    defaultReqTimeout,
		Host:              defaultHost,
		Port:              defaultPort,
		UserAgent:         DefaultProfile.UserAgent,
	}

	var err error
	boolOpts := []struct {
		key string
		dst *bool
	}{
		{"HEADLESS", &cfg.Headless},
		{"HARDENED", &cfg.Hardened},
		{"BROWSER_INSTALL", &cfg.InstallBrowser},
	}
	for _, opt := range boolOpts {
		if *opt.dst, err = envBool(opt.key, *opt.dst); err != nil {
			return nil, err
		}
	}

	durOpts := []struct {
		key string
		dst *time.Duration
	}{
		{"MIN_DELAY", &cfg.MinDelay},
		{"MAX_DELAY", &cfg.MaxDelay},
		{"NAV_TIMEOUT", &cfg.NavigationTimeout},
		{"SUBMIT_TIMEOUT", &cfg.SubmitTimeout},
		{"SEARCH_TIMEOUT", &cfg.SearchTimeout},
		{"REQUEST_TIMEOUT", &cfg.RequestTimeout},
	}
	for _, opt := range durOpts {
		if *opt.dst, err = envDuration(opt.key, *opt.dst); err != nil {
			return nil, err
		}
	}

	strOpts := []struct {
		key string
		dst *string
	}{
		{"PROXY", &cfg.Proxy},
		{"PROXY_FILE", &cfg.ProxyFile},
		{"USER_AGENT", &cfg.UserAgent},
		{"RESOLVER", &cfg.Resolver},
		{"BLOCK_MARKERS_FILE", &cfg.BlockMarkersFile},
		{"SITE_BASE", &cfg.SiteBase},
		{"JINA_BASE", &cfg.JinaBase},
		{"HOST", &cfg.Host},
		{"PORT", &cfg.Port},
	}
	for _, opt := range strOpts {
		if v := strings.TrimSpace(os.Getenv(opt.key)); v != "" {
			*opt.dst = v
		}
	}
	cfg.SiteBase = strings.TrimRight(cfg.SiteBase, "/")

	for _, flag := range strings.Split(os.Getenv("LAUNCH_FLAGS"), ",") {
		if flag = strings.TrimSpace(flag); flag != "" {
			cfg.LaunchFlags = append(cfg.LaunchFlags, flag)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.MinDelay < 0 || c.MaxDelay < c.MinDelay {
		return fmt.Errorf("invalid delay bounds: MIN_DELAY=%v MAX_DELAY=%v", c.MinDelay, c.MaxDelay)
	}
	if c.Resolver != resolverJina && c.Resolver != resolverSite {
		return fmt.Errorf("RESOLVER must be %q or %q, got %q", resolverJina, resolverSite, c.Resolver)
	}
	if c.Proxy != "" {
		if _, _, ok := parseProxyLine(c.Proxy); !ok {
			return fmt.Errorf("invalid PROXY value")
		}
	}
	return nil
}

func envBool(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

// envDuration accepts Go durations ("1500ms") or plain seconds ("2", "2.5").
func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
