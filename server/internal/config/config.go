package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml"
	"gopkg.in/yaml.v3"

	"github.com/qubicdash/qubicdash/server/internal/projection"
)

// Default values for the server configuration.
const (
	DefaultHTTPPort          = 8080
	DefaultSnapshotTTL       = 15 * time.Minute
	DefaultBroadcastInterval = 5 * time.Second
	DefaultRefreshInterval   = time.Minute
	DefaultMaxRetries        = 3
	DefaultTokenSkew         = 30 * time.Second
	DefaultUpstreamTimeout   = 10 * time.Second

	DefaultQubicLiURL   = "https://api.qubic.li"
	DefaultCoinGeckoURL = "https://api.coingecko.com/api/v3"
	DefaultHistoryURL   = "https://qbm.mdesk.tech"

	// The guest account is public and shared by every dashboard instance.
	DefaultGuestUser     = "guest@qubic.li"
	DefaultGuestPassword = "guest13@Qubic.li"

	DefaultAsset    = "qubic-network"
	DefaultCurrency = "usd"

	DefaultLanguage       = "en"
	DefaultUTCOffsetHours = 8
)

// Config is the top-level configuration for qubicdash-server.
// Fields map 1:1 to config.example.yaml.
type Config struct {
	Server     ServerConfig     `yaml:"server" toml:"server"`
	Upstream   UpstreamConfig   `yaml:"upstream" toml:"upstream"`
	Refresh    RefreshConfig    `yaml:"refresh" toml:"refresh"`
	Projection ProjectionConfig `yaml:"projection" toml:"projection"`
	Alerts     AlertsConfig     `yaml:"alerts" toml:"alerts"`
	Display    DisplayConfig    `yaml:"display" toml:"display"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	// HTTPPort is the port the REST API, proxy routes and WebSocket hub listen on.
	HTTPPort int `yaml:"http_port" toml:"http_port"`

	// Auth configures the API key check on /api/v1.
	Auth AuthConfig `yaml:"auth" toml:"auth"`

	// Snapshot controls how long fetched data stays live in the store.
	Snapshot SnapshotConfig `yaml:"snapshot" toml:"snapshot"`

	// BroadcastInterval is how often the WebSocket hub pushes the dashboard.
	BroadcastInterval time.Duration `yaml:"broadcast_interval" toml:"broadcast_interval"`

	// CORSOrigins lists origins allowed to call the API from a browser.
	// Empty allows every origin.
	CORSOrigins []string `yaml:"cors_origins" toml:"cors_origins"`
}

// AuthConfig controls client authentication on the dashboard API.
type AuthConfig struct {
	// Mode is one of: apikey | none.
	Mode string `yaml:"mode" toml:"mode"`

	// KeyEnv is the name of the environment variable that holds the expected API key.
	KeyEnv string `yaml:"key_env" toml:"key_env"`

	// Header is the HTTP header to read the key from. Defaults to "X-API-Key".
	Header string `yaml:"header" toml:"header"`
}

// Key returns the expected API key resolved from the environment.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// EffectiveHeader returns the configured header name, or the default "X-API-Key".
func (a AuthConfig) EffectiveHeader() string {
	if a.Header != "" {
		return a.Header
	}
	return "X-API-Key"
}

// SnapshotConfig controls in-memory retention of fetched data.
type SnapshotConfig struct {
	// TTL is how long a snapshot or price stays live after its last refresh.
	TTL time.Duration `yaml:"ttl" toml:"ttl"`
}

// UpstreamConfig locates the three upstream services.
type UpstreamConfig struct {
	QubicLi   QubicLiConfig   `yaml:"qubic_li" toml:"qubic_li"`
	CoinGecko CoinGeckoConfig `yaml:"coingecko" toml:"coingecko"`
	History   HistoryConfig   `yaml:"history" toml:"history"`

	// Timeout bounds every upstream request.
	Timeout time.Duration `yaml:"timeout" toml:"timeout"`
}

// QubicLiConfig holds the score service endpoint and login.
type QubicLiConfig struct {
	BaseURL  string `yaml:"base_url" toml:"base_url"`
	UserName string `yaml:"username" toml:"username"`

	// PasswordEnv names the environment variable holding the password.
	// When unset or empty the public guest password is used.
	PasswordEnv string `yaml:"password_env" toml:"password_env"`

	TwoFactorCode string `yaml:"two_factor_code" toml:"two_factor_code"`
}

// Password returns the login password resolved from the environment.
func (q QubicLiConfig) Password() string {
	if q.PasswordEnv != "" {
		if v := os.Getenv(q.PasswordEnv); v != "" {
			return v
		}
	}
	return DefaultGuestPassword
}

// CoinGeckoConfig holds the price feed endpoint and the tracked pair.
type CoinGeckoConfig struct {
	BaseURL  string `yaml:"base_url" toml:"base_url"`
	Asset    string `yaml:"asset" toml:"asset"`
	Currency string `yaml:"currency" toml:"currency"`
}

// HistoryConfig holds the historical series endpoint.
type HistoryConfig struct {
	BaseURL string `yaml:"base_url" toml:"base_url"`
}

// RefreshConfig controls the background polling of the upstreams.
type RefreshConfig struct {
	// Interval is the time between refreshes.
	Interval time.Duration `yaml:"interval" toml:"interval"`

	// MaxRetries bounds the backoff retries of one fetch within a refresh.
	MaxRetries int `yaml:"max_retries" toml:"max_retries"`

	// TokenSkew re-logs in this long before the session token expires.
	TokenSkew time.Duration `yaml:"token_skew" toml:"token_skew"`
}

// ProjectionConfig holds the epoch anchor and the income constants.
type ProjectionConfig struct {
	Anchor AnchorConfig      `yaml:"anchor" toml:"anchor"`
	Params projection.Params `yaml:"params" toml:"params"`
}

// AnchorConfig is a known epoch boundary.
type AnchorConfig struct {
	Epoch         int       `yaml:"epoch" toml:"epoch"`
	Start         time.Time `yaml:"start" toml:"start"`
	WindowSeconds int       `yaml:"window_seconds" toml:"window_seconds"`
}

// Anchor converts a to the projection type.
func (a AnchorConfig) Anchor() projection.Anchor {
	return projection.Anchor{Epoch: a.Epoch, Start: a.Start.UTC(), WindowSeconds: a.WindowSeconds}
}

// AlertsConfig holds alerting rules and webhook delivery targets.
type AlertsConfig struct {
	Rules    []AlertRule     `yaml:"rules" toml:"rules"`
	Webhooks []WebhookConfig `yaml:"webhooks" toml:"webhooks"`
}

// AlertRule defines one threshold-based alert condition.
type AlertRule struct {
	// Name is the human-readable alert identifier, used as the deduplication key.
	Name string `yaml:"name" toml:"name"`

	// Condition is a simple expression: "price < 0.000001",
	// "estimated_its < 1000000", "epoch_progress > 1".
	Condition string `yaml:"condition" toml:"condition"`

	// Severity is one of: critical | warning | info.
	Severity string `yaml:"severity" toml:"severity"`

	// Cooldown suppresses re-fires for this duration after an alert fires.
	// Defaults to 15 minutes if zero.
	Cooldown time.Duration `yaml:"cooldown" toml:"cooldown"`
}

// WebhookConfig defines one webhook delivery target.
type WebhookConfig struct {
	// Type is one of: teams | slack | http.
	Type string `yaml:"type" toml:"type"`

	// URLEnv is the name of the environment variable that holds the webhook URL.
	URLEnv string `yaml:"url_env" toml:"url_env"`
}

// URL returns the webhook URL resolved from the environment.
func (w WebhookConfig) URL() string {
	if w.URLEnv == "" {
		return ""
	}
	return os.Getenv(w.URLEnv)
}

// DisplayConfig controls how figures are rendered for people.
type DisplayConfig struct {
	// Language is the fallback UI language: en | zh.
	Language string `yaml:"language" toml:"language"`

	// UTCOffsetHours is the zone dates are shown in. The reference
	// deployment shows UTC+8.
	UTCOffsetHours int `yaml:"utc_offset_hours" toml:"utc_offset_hours"`
}

// Location returns the fixed zone described by d.
func (d DisplayConfig) Location() *time.Location {
	return time.FixedZone(fmt.Sprintf("UTC%+d", d.UTCOffsetHours), d.UTCOffsetHours*3600)
}

// Load reads and parses the config file at path. Files ending in .toml are
// parsed as TOML; everything else as YAML. Missing fields are filled with
// defaults before validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	cfg := defaults()
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse toml: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse yaml: %w", err)
		}
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	anchor := projection.DefaultAnchor()
	return &Config{
		Server: ServerConfig{
			HTTPPort:          DefaultHTTPPort,
			BroadcastInterval: DefaultBroadcastInterval,
			Snapshot: SnapshotConfig{
				TTL: DefaultSnapshotTTL,
			},
		},
		Upstream: UpstreamConfig{
			QubicLi: QubicLiConfig{
				BaseURL:  DefaultQubicLiURL,
				UserName: DefaultGuestUser,
			},
			CoinGecko: CoinGeckoConfig{
				BaseURL:  DefaultCoinGeckoURL,
				Asset:    DefaultAsset,
				Currency: DefaultCurrency,
			},
			History: HistoryConfig{BaseURL: DefaultHistoryURL},
			Timeout: DefaultUpstreamTimeout,
		},
		Refresh: RefreshConfig{
			Interval:   DefaultRefreshInterval,
			MaxRetries: DefaultMaxRetries,
			TokenSkew:  DefaultTokenSkew,
		},
		Projection: ProjectionConfig{
			Anchor: AnchorConfig{
				Epoch:         anchor.Epoch,
				Start:         anchor.Start,
				WindowSeconds: anchor.WindowSeconds,
			},
			Params: projection.DefaultParams(),
		},
		Display: DisplayConfig{
			Language:       DefaultLanguage,
			UTCOffsetHours: DefaultUTCOffsetHours,
		},
	}
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	if cfg.Server.HTTPPort <= 0 || cfg.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range [1, 65535]", cfg.Server.HTTPPort)
	}
	switch cfg.Server.Auth.Mode {
	case "apikey", "none", "":
	default:
		return fmt.Errorf("server.auth.mode %q unknown: want apikey|none", cfg.Server.Auth.Mode)
	}
	if cfg.Server.Snapshot.TTL < 0 {
		return fmt.Errorf("server.snapshot.ttl must not be negative")
	}
	if cfg.Server.BroadcastInterval <= 0 {
		return fmt.Errorf("server.broadcast_interval must be positive")
	}

	for name, raw := range map[string]string{
		"upstream.qubic_li.base_url":  cfg.Upstream.QubicLi.BaseURL,
		"upstream.coingecko.base_url": cfg.Upstream.CoinGecko.BaseURL,
		"upstream.history.base_url":   cfg.Upstream.History.BaseURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s %q is not an absolute URL", name, raw)
		}
	}
	if cfg.Upstream.CoinGecko.Asset == "" || cfg.Upstream.CoinGecko.Currency == "" {
		return fmt.Errorf("upstream.coingecko.asset and currency are required")
	}
	if cfg.Upstream.Timeout <= 0 {
		return fmt.Errorf("upstream.timeout must be positive")
	}

	if cfg.Refresh.Interval <= 0 {
		return fmt.Errorf("refresh.interval must be positive")
	}
	if cfg.Refresh.MaxRetries < 0 {
		return fmt.Errorf("refresh.max_retries must not be negative")
	}
	if cfg.Refresh.TokenSkew < 0 {
		return fmt.Errorf("refresh.token_skew must not be negative")
	}

	if cfg.Projection.Anchor.WindowSeconds <= 0 {
		return fmt.Errorf("projection.anchor.window_seconds must be positive")
	}
	if cfg.Projection.Anchor.Start.IsZero() {
		return fmt.Errorf("projection.anchor.start is required")
	}
	if err := cfg.Projection.Params.Validate(); err != nil {
		return err
	}

	for i, r := range cfg.Alerts.Rules {
		if r.Name == "" {
			return fmt.Errorf("alerts.rules[%d]: name is required", i)
		}
		if len(strings.Fields(r.Condition)) != 3 {
			return fmt.Errorf("alerts.rules[%d] %q: condition %q must be \"field op value\"", i, r.Name, r.Condition)
		}
		switch r.Severity {
		case "critical", "warning", "info", "":
		default:
			return fmt.Errorf("alerts.rules[%d] %q: unknown severity %q", i, r.Name, r.Severity)
		}
	}
	for i, w := range cfg.Alerts.Webhooks {
		switch w.Type {
		case "slack", "teams", "http":
		default:
			return fmt.Errorf("alerts.webhooks[%d]: unknown type %q", i, w.Type)
		}
	}

	switch cfg.Display.Language {
	case "en", "zh":
	default:
		return fmt.Errorf("display.language %q unknown: want en|zh", cfg.Display.Language)
	}
	if cfg.Display.UTCOffsetHours < -12 || cfg.Display.UTCOffsetHours > 14 {
		return fmt.Errorf("display.utc_offset_hours %d is out of range [-12, 14]", cfg.Display.UTCOffsetHours)
	}
	return nil
}
