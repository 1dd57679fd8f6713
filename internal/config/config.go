// Package config provides configuration management for the publishing tools.
//
// Settings come from three layers applied in order: built-in defaults, an optional
// YAML settings file, and environment variables. Credentials are only ever read from
// the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // the publication calendar must resolve on hosts without zoneinfo

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Configuration validation errors.
var (
	ErrInvalidFormat            = errors.New("article.format must be 'html' or 'lexical'")
	ErrInvalidStatus            = errors.New("article.status must be 'published' or 'draft'")
	ErrInvalidTimezone          = errors.New("article.timezone is not a known location")
	ErrInvalidArticleDate       = errors.New("article.date must be formatted YYYY-MM-DD")
	ErrInvalidMaxAttempts       = errors.New("retry.max_attempts must be at least 1")
	ErrInvalidInitialDelay      = errors.New("retry.initial_delay_ms must be non-negative")
	ErrInvalidBackoffMultiplier = errors.New("retry.backoff_multiplier must be >= 1.0")
	ErrInvalidTimeout           = errors.New("retry.timeout_sec must be at least 1")
	ErrInvalidPort              = errors.New("server.port must be between 1 and 65535")
	ErrInvalidRateLimit         = errors.New("airtable.requests_per_second must be positive")
	ErrInvalidLogLevel          = errors.New("logging.level must be one of: debug, info, warn, error")
	ErrMissingBrand             = errors.New("site.brand and site.subject are required")
)

// Environment variable names.
const (
	EnvAirtableAPIKey  = "AIRTABLE_API_KEY"
	EnvAirtableBaseID  = "AIRTABLE_BASE_ID"
	EnvAirtableTableID = "AIRTABLE_TABLE_ID"
	EnvAirtableViewID  = "AIRTABLE_VIEW_ID"
	EnvAdTableName     = "AIRTABLE_AD_TABLE_NAME"
	EnvAdAPIKey        = "AIRTABLE_AD_API_KEY"
	EnvAdBaseID        = "AIRTABLE_AD_BASE_ID"
	EnvGhostAPIURL     = "GHOST_API_URL"
	EnvGhostSiteURL    = "GHOST_SITE_URL"
	EnvGhostAdminKey   = "GHOST_ADMIN_API_KEY"
	EnvArticleDate     = "ARTICLE_DATE"
	EnvArticleTimezone = "ARTICLE_TIMEZONE"
	EnvLocalHost       = "LOCAL_HOST"
	EnvLocalPort       = "LOCAL_PORT"
	EnvLogLevel        = "LOG_LEVEL"
)

// Article body formats.
const (
	FormatHTML    = "html"
	FormatLexical = "lexical"
)

// Post statuses.
const (
	StatusPublished = "published"
	StatusDraft     = "draft"
)

// DateLayout is the layout of ARTICLE_DATE and every other calendar date input.
const DateLayout = "2006-01-02"

// LookupFunc resolves an environment variable. os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

// Config represents the complete tool configuration.
type Config struct {
	Airtable AirtableConfig `yaml:"airtable"`
	Ads      AdsConfig      `yaml:"ads"`
	Ghost    GhostConfig    `yaml:"ghost"`
	Site     SiteConfig     `yaml:"site"`
	Article  ArticleConfig  `yaml:"article"`
	Server   ServerConfig   `yaml:"server"`
	Logging  LoggingConfig  `yaml:"logging"`
	Retry    RetryPolicy    `yaml:"retry"`
}

// AirtableConfig locates the bookings table.
type AirtableConfig struct {
	APIKey            string  `yaml:"-"`
	BaseID            string  `yaml:"base_id"`
	TableID           string  `yaml:"table_id"`
	ViewID            string  `yaml:"view_id"`
	BookingDateField  string  `yaml:"booking_date_field"`
	APIURL            string  `yaml:"api_url"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	PageSize          int     `yaml:"page_size"`
}

// AdsConfig locates the advertisements table. Empty credentials fall back to Airtable's.
type AdsConfig struct {
	APIKey string `yaml:"-"`
	BaseID string `yaml:"base_id"`
	Table  string `yaml:"table"`
}

// GhostConfig points at the Ghost Admin API.
type GhostConfig struct {
	URL        string `yaml:"url"`
	AdminKey   string `yaml:"-"`
	APIVersion string `yaml:"api_version"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// SiteConfig carries publication branding used in titles, slugs and SEO fields.
type SiteConfig struct {
	Brand        string   `yaml:"brand"`
	Subject      string   `yaml:"subject"`
	Name         string   `yaml:"name"`
	SheriffName  string   `yaml:"sheriff_name"`
	FeatureImage string   `yaml:"feature_image"`
	Tags         []string `yaml:"tags"`
}

// ArticleConfig controls what a run renders and how it is published.
type ArticleConfig struct {
	Date                 string `yaml:"date"`
	Timezone             string `yaml:"timezone"`
	Format               string `yaml:"format"`
	Status               string `yaml:"status"`
	ShowBonds            bool   `yaml:"show_bonds"`
	AllowMixedDelimiters bool   `yaml:"allow_mixed_delimiters"`
}

// ServerConfig is the local preview server bind address.
type ServerConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	OutputDir string `yaml:"output_dir"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// RetryPolicy defines retry behavior for idempotent reads against the records store.
type RetryPolicy struct {
	MaxAttempts       int     `yaml:"max_attempts"`
	InitialDelayMs    int     `yaml:"initial_delay_ms"`
	MaxDelayMs        int     `yaml:"max_delay_ms"`
	BackoffMultiplier float64 `yaml:"backoff_multiplier"`
	TimeoutSec        int     `yaml:"timeout_sec"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Airtable: AirtableConfig{
			TableID:           "Jail Records",
			BookingDateField:  "Booking Date",
			APIURL:            "https://api.airtable.com/v0",
			RequestsPerSecond: 5,
			PageSize:          100,
		},
		Ads: AdsConfig{
			Table: "Advertisements",
		},
		Ghost: GhostConfig{
			URL:        "https://angelina-411.ghost.io",
			APIVersion: "v5.0",
			TimeoutSec: 30,
		},
		Site: SiteConfig{
			Brand:       "Angelina County",
			Subject:     "Arrests",
			Name:        "Angelina411.com",
			SheriffName: "Angelina County Sheriff's Department",
			Tags:        []string{"Angelina County", "News", "Jail", "Data", "Crime"},
		},
		Article: ArticleConfig{
			Timezone: "America/Chicago",
			Format:   FormatHTML,
			Status:   StatusPublished,
		},
		Server: ServerConfig{
			Host:      "localhost",
			Port:      3000,
			OutputDir: "output",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Retry: RetryPolicy{
			MaxAttempts:       3,
			InitialDelayMs:    500,
			MaxDelayMs:        5000,
			BackoffMultiplier: 2.0,
			TimeoutSec:        30,
		},
	}
}

// LoadDotEnv loads the given dotenv files into the process environment.
// Missing files are skipped; variables already set are never overwritten.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}

		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}

	return nil
}

// LoadConfig loads defaults, the optional YAML file at path, then the process environment.
func LoadConfig(path string) (*Config, error) {
	return Load(path, os.LookupEnv)
}

// Load is LoadConfig with an explicit environment lookup.
func Load(path string, lookup LookupFunc) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}

	if err := cfg.ApplyEnv(lookup); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overlays recognized environment variables onto the configuration.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)

		return v, ok && v != ""
	}

	if v, ok := get(EnvAirtableAPIKey); ok {
		c.Airtable.APIKey = v
	}

	if v, ok := get(EnvAirtableBaseID); ok {
		c.Airtable.BaseID = v
	}

	if v, ok := get(EnvAirtableTableID); ok {
		c.Airtable.TableID = v
	}

	if v, ok := get(EnvAirtableViewID); ok {
		c.Airtable.ViewID = v
	}

	if v, ok := get(EnvAdTableName); ok {
		c.Ads.Table = v
	}

	if v, ok := get(EnvAdAPIKey); ok {
		c.Ads.APIKey = v
	}

	if v, ok := get(EnvAdBaseID); ok {
		c.Ads.BaseID = v
	}

	if v, ok := get(EnvGhostSiteURL); ok {
		c.Ghost.URL = v
	}

	// GHOST_API_URL wins over GHOST_SITE_URL when both are set.
	if v, ok := get(EnvGhostAPIURL); ok {
		c.Ghost.URL = v
	}

	if v, ok := get(EnvGhostAdminKey); ok {
		c.Ghost.AdminKey = v
	}

	if v, ok := get(EnvArticleDate); ok {
		c.Article.Date = v
	}

	if v, ok := get(EnvArticleTimezone); ok {
		c.Article.Timezone = v
	}

	if v, ok := get(EnvLocalHost); ok {
		c.Server.Host = v
	}

	if v, ok := get(EnvLocalPort); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidPort, EnvLocalPort, v)
		}

		c.Server.Port = port
	}

	if v, ok := get(EnvLogLevel); ok {
		c.Logging.Level = strings.ToLower(v)
	}

	c.Ghost.URL = strings.TrimRight(c.Ghost.URL, "/")

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Article.Format != FormatHTML && c.Article.Format != FormatLexical {
		return ErrInvalidFormat
	}

	if c.Article.Status != StatusPublished && c.Article.Status != StatusDraft {
		return ErrInvalidStatus
	}

	if _, err := time.LoadLocation(c.Article.Timezone); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidTimezone, c.Article.Timezone)
	}

	if c.Article.Date != "" {
		if _, err := time.Parse(DateLayout, c.Article.Date); err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidArticleDate, c.Article.Date)
		}
	}

	if c.Site.Brand == "" || c.Site.Subject == "" {
		return ErrMissingBrand
	}

	// Validate retry policy
	if c.Retry.MaxAttempts < 1 {
		return ErrInvalidMaxAttempts
	}

	if c.Retry.InitialDelayMs < 0 {
		return ErrInvalidInitialDelay
	}

	if c.Retry.BackoffMultiplier < 1.0 {
		return ErrInvalidBackoffMultiplier
	}

	if c.Retry.TimeoutSec < 1 || c.Ghost.TimeoutSec < 1 {
		return ErrInvalidTimeout
	}

	if c.Airtable.RequestsPerSecond <= 0 {
		return ErrInvalidRateLimit
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return ErrInvalidPort
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}

	return nil
}

// Location returns the publication's local calendar.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Article.Timezone)
	if err != nil {
		return time.UTC
	}

	return loc
}

// TargetDate returns the calendar day being reported on, as local midnight.
// Without an override it is the day before now in the publication's calendar.
func (c *Config) TargetDate(now time.Time) (time.Time, error) {
	loc := c.Location()

	if c.Article.Date != "" {
		d, err := time.ParseInLocation(DateLayout, c.Article.Date, loc)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidArticleDate, c.Article.Date)
		}

		return d, nil
	}

	local := now.In(loc)

	return time.Date(local.Year(), local.Month(), local.Day()-1, 0, 0, 0, 0, loc), nil
}

// AdsCredentials returns the key and base for the advertisements table,
// falling back to the bookings credentials.
func (c *Config) AdsCredentials() (apiKey, baseID string) {
	apiKey, baseID = c.Ads.APIKey, c.Ads.BaseID
	if apiKey == "" {
		apiKey = c.Airtable.APIKey
	}

	if baseID == "" {
		baseID = c.Airtable.BaseID
	}

	return apiKey, baseID
}

// HasAdsStore reports whether the advertisements table can be reached.
func (c *Config) HasAdsStore() bool {
	key, base := c.AdsCredentials()

	return key != "" && base != ""
}

// GetTimeout returns the per-request timeout for the records store.
func (rp *RetryPolicy) GetTimeout() time.Duration {
	return time.Duration(rp.TimeoutSec) * time.Second
}

// GetRetryDelay calculates exponential backoff delay for attempt number.
func (rp *RetryPolicy) GetRetryDelay(attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}

	delayMs := float64(rp.InitialDelayMs)
	for i := 1; i < attempt; i++ {
		delayMs *= rp.BackoffMultiplier
	}

	// Cap at max delay
	if rp.MaxDelayMs > 0 && int(delayMs) > rp.MaxDelayMs {
		delayMs = float64(rp.MaxDelayMs)
	}

	return time.Duration(int(delayMs)) * time.Millisecond
}

// PublishTimeout returns the timeout for a single Ghost Admin API call.
func (g *GhostConfig) PublishTimeout() time.Duration {
	return time.Duration(g.TimeoutSec) * time.Second
}

// String returns a representation of the config with credentials redacted.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Base: %s, Table: %s, Ghost: %s, Format: %s, Status: %s, TZ: %s, AirtableKey: %s, GhostKey: %s}",
		c.Airtable.BaseID,
		c.Airtable.TableID,
		c.Ghost.URL,
		c.Article.Format,
		c.Article.Status,
		c.Article.Timezone,
		redact(c.Airtable.APIKey),
		redact(c.Ghost.AdminKey),
	)
}

func redact(secret string) string {
	if secret == "" {
		return "<unset>"
	}

	return "<set>"
}
