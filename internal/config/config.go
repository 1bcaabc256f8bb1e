package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/pders01/headlines/internal/validation"
	"github.com/spf13/viper"
)

// Headline source kinds.
const (
	SourceNewsAPI = "newsapi"
	SourceFeed    = "feed"
)

// NetworkPageSize is the nominal page size of the headline API.
const NetworkPageSize = 20

var ErrMissingAPIKey = errors.New("api key is not configured (set api.key or HEADLINES_API_KEY)")

type Config struct {
	API    APIConfig    `mapstructure:"api" toml:"api"`
	Source SourceConfig `mapstructure:"source" toml:"source"`
	UI     UIConfig     `mapstructure:"ui" toml:"ui"`
	Media  MediaConfig  `mapstructure:"media" toml:"media"`
	Keys   KeyConfig    `mapstructure:"keys" toml:"keys"`
	Log    LogConfig    `mapstructure:"log" toml:"log"`
}

type APIConfig struct {
	BaseURL           string        `mapstructure:"base_url" toml:"base_url"`
	Key               string        `mapstructure:"key" toml:"key"`
	Country           string        `mapstructure:"country" toml:"country"`
	PageSize          int           `mapstructure:"page_size" toml:"page_size"`
	HTTPTimeout       time.Duration `mapstructure:"http_timeout" toml:"http_timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" toml:"requests_per_second"`
	UserAgent         string        `mapstructure:"user_agent" toml:"user_agent"`
	AllowPrivateHosts bool          `mapstructure:"allow_private_hosts" toml:"allow_private_hosts"`
}

type SourceConfig struct {
	Kind    string `mapstructure:"kind" toml:"kind"`
	FeedURL string `mapstructure:"feed_url" toml:"feed_url"`
}

type UIConfig struct {
	Colors           UIColors      `mapstructure:"colors" toml:"colors"`
	Article          ArticleConfig `mapstructure:"article" toml:"article"`
	PrefetchDistance int           `mapstructure:"prefetch_distance" toml:"prefetch_distance"`
}

type UIColors struct {
	Primary   string `mapstructure:"primary" toml:"primary"`
	Secondary string `mapstructure:"secondary" toml:"secondary"`
	Accent    string `mapstructure:"accent" toml:"accent"`
	Text      string `mapstructure:"text" toml:"text"`
	Muted     string `mapstructure:"muted" toml:"muted"`
	Error     string `mapstructure:"error" toml:"error"`
	Success   string `mapstructure:"success" toml:"success"`
}

type ArticleConfig struct {
	MaxDescriptionLength int `mapstructure:"max_description_length" toml:"max_description_length"`
	WordWrapMaxWidth     int `mapstructure:"word_wrap_max_width" toml:"word_wrap_max_width"`
	WordWrapMinWidth     int `mapstructure:"word_wrap_min_width" toml:"word_wrap_min_width"`
}

type MediaConfig struct {
	DefaultOpener string `mapstructure:"default_opener" toml:"default_opener"`
}

type KeyConfig struct {
	Bindings KeyBindings `mapstructure:"bindings" toml:"bindings"`
}

type KeyBindings struct {
	Quit    string `mapstructure:"quit" toml:"quit"`
	Search  string `mapstructure:"search" toml:"search"`
	Refresh string `mapstructure:"refresh" toml:"refresh"`
	Retry   string `mapstructure:"retry" toml:"retry"`
	Open    string `mapstructure:"open" toml:"open"`
	Back    string `mapstructure:"back" toml:"back"`
}

type LogConfig struct {
	Level string `mapstructure:"level" toml:"level"`
	File  string `mapstructure:"file" toml:"file"`
}

func defaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		API: APIConfig{
			BaseURL:           "https://newsapi.org/v2",
			Country:           "us",
			PageSize:          NetworkPageSize,
			HTTPTimeout:       30 * time.Second,
			RequestsPerSecond: 2,
			UserAgent:         "headlines/1.0 (https://github.com/pders01/headlines)",
		},
		Source: SourceConfig{
			Kind: SourceNewsAPI,
		},
		UI: UIConfig{
			Colors: UIColors{
				Primary:   "#FF6B6B",
				Secondary: "#4ECDC4",
				Accent:    "#95E1D3",
				Text:      "#EAEAEA",
				Muted:     "#94A3B8",
				Error:     "#F87171",
				Success:   "#4ADE80",
			},
			Article: ArticleConfig{
				MaxDescriptionLength: 150,
				WordWrapMaxWidth:     120,
				WordWrapMinWidth:     40,
			},
			PrefetchDistance: 5,
		},
		Media: MediaConfig{
			DefaultOpener: getDefaultOpener(),
		},
		Keys: KeyConfig{
			Bindings: KeyBindings{
				Quit:    "q",
				Search:  "/",
				Refresh: "r",
				Retry:   "R",
				Open:    "o",
				Back:    "esc",
			},
		},
		Log: LogConfig{
			Level: "off",
			File:  filepath.Join(homeDir, ".headlines", "headlines.log"),
		},
	}
}

func getDefaultOpener() string {
	switch runtime.GOOS {
	case "darwin":
		return "open"
	case "linux":
		return "xdg-open"
	case "windows":
		return "rundll32"
	default:
		return "open"
	}
}

// Default returns the built-in configuration.
func Default() *Config {
	return defaultConfig()
}

// setDefaults registers every leaf so a file that overrides one key in a
// table keeps the defaults of its siblings.
func setDefaults(v *viper.Viper, cfg *Config) {
	defaults := map[string]any{
		"api.base_url":                      cfg.API.BaseURL,
		"api.key":                           cfg.API.Key,
		"api.country":                       cfg.API.Country,
		"api.page_size":                     cfg.API.PageSize,
		"api.http_timeout":                  cfg.API.HTTPTimeout,
		"api.requests_per_second":           cfg.API.RequestsPerSecond,
		"api.user_agent":                    cfg.API.UserAgent,
		"api.allow_private_hosts":           cfg.API.AllowPrivateHosts,
		"source.kind":                       cfg.Source.Kind,
		"source.feed_url":                   cfg.Source.FeedURL,
		"ui.colors.primary":                 cfg.UI.Colors.Primary,
		"ui.colors.secondary":               cfg.UI.Colors.Secondary,
		"ui.colors.accent":                  cfg.UI.Colors.Accent,
		"ui.colors.text":                    cfg.UI.Colors.Text,
		"ui.colors.muted":                   cfg.UI.Colors.Muted,
		"ui.colors.error":                   cfg.UI.Colors.Error,
		"ui.colors.success":                 cfg.UI.Colors.Success,
		"ui.article.max_description_length": cfg.UI.Article.MaxDescriptionLength,
		"ui.article.word_wrap_max_width":    cfg.UI.Article.WordWrapMaxWidth,
		"ui.article.word_wrap_min_width":    cfg.UI.Article.WordWrapMinWidth,
		"ui.prefetch_distance":              cfg.UI.PrefetchDistance,
		"media.default_opener":              cfg.Media.DefaultOpener,
		"keys.bindings.quit":                cfg.Keys.Bindings.Quit,
		"keys.bindings.search":              cfg.Keys.Bindings.Search,
		"keys.bindings.refresh":             cfg.Keys.Bindings.Refresh,
		"keys.bindings.retry":               cfg.Keys.Bindings.Retry,
		"keys.bindings.open":                cfg.Keys.Bindings.Open,
		"keys.bindings.back":                cfg.Keys.Bindings.Back,
		"log.level":                         cfg.Log.Level,
		"log.file":                          cfg.Log.File,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}

func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v, defaultConfig())

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		homeDir, _ := os.UserHomeDir()
		configDir := filepath.Join(homeDir, ".config", "headlines")

		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(configDir)
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("HEADLINES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// NewsAPI's own tooling conventionally reads NEWS_API_KEY.
	if err := v.BindEnv("api.key", "HEADLINES_API_KEY", "NEWS_API_KEY"); err != nil {
		return nil, fmt.Errorf("binding env: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	config.Log.File = expandPath(config.Log.File)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks values that would otherwise fail deep inside a fetch.
func (c *Config) Validate() error {
	if c.API.PageSize < 1 || c.API.PageSize > 100 {
		return fmt.Errorf("api.page_size must be between 1 and 100, got %d", c.API.PageSize)
	}
	if c.API.Country != "" && len(c.API.Country) != 2 {
		return fmt.Errorf("api.country must be a two-letter code, got %q", c.API.Country)
	}
	if c.API.RequestsPerSecond < 0 {
		return fmt.Errorf("api.requests_per_second must not be negative")
	}

	validator := validation.NewURLValidator()
	if c.API.AllowPrivateHosts {
		validator = validation.NewPermissiveURLValidator()
	}

	switch c.Source.Kind {
	case SourceNewsAPI:
		normalized, err := validator.ValidateAndNormalize(c.API.BaseURL)
		if err != nil {
			return fmt.Errorf("api.base_url: %w", err)
		}
		c.API.BaseURL = normalized
	case SourceFeed:
		normalized, err := validator.ValidateAndNormalize(c.Source.FeedURL)
		if err != nil {
			return fmt.Errorf("source.feed_url: %w", err)
		}
		c.Source.FeedURL = normalized
	default:
		return fmt.Errorf("source.kind must be %q or %q, got %q", SourceNewsAPI, SourceFeed, c.Source.Kind)
	}
	return nil
}

// RequireCredentials reports ErrMissingAPIKey when the configured source
// needs an API key and none is set.
func (c *Config) RequireCredentials() error {
	if c.Source.Kind == SourceNewsAPI && strings.TrimSpace(c.API.Key) == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// expandPath expands ~ to home directory and converts to absolute path
func expandPath(path string) string {
	if path == "" {
		return path
	}

	if len(path) >= 2 && path[:2] == "~/" {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}

	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	return path
}

func Save(config *Config, path string) error {
	v := viper.New()

	// Durations as strings for TOML readability. The API key is never written.
	apiCfg := map[string]interface{}{
		"base_url":            config.API.BaseURL,
		"country":             config.API.Country,
		"page_size":           config.API.PageSize,
		"http_timeout":        config.API.HTTPTimeout.String(),
		"requests_per_second": config.API.RequestsPerSecond,
		"user_agent":          config.API.UserAgent,
		"allow_private_hosts": config.API.AllowPrivateHosts,
	}

	v.Set("api", apiCfg)
	v.Set("source", config.Source)
	v.Set("ui", config.UI)
	v.Set("media", config.Media)
	v.Set("keys", config.Keys)
	v.Set("log", config.Log)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	return v.WriteConfigAs(path)
}

func GenerateDefaultConfig(path string) error {
	return Save(defaultConfig(), path)
}
