package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"corporate-pulse/pkg/config"

	"github.com/go-playground/validator/v10"
)

// Webhook holds the automation webhook settings.
type Webhook struct {
	URL                 string        `mapstructure:"url" validate:"required,url"`
	Timeout             time.Duration `mapstructure:"timeout"`
	MaxRequestPerMinute int           `mapstructure:"max_request_per_minute"`
	BreakerMaxFailures  uint32        `mapstructure:"breaker_max_failures"`
	BreakerOpenTimeout  time.Duration `mapstructure:"breaker_open_timeout"`
}

// Dashboard holds display and reconciliation settings.
type Dashboard struct {
	RecentLimit      int    `mapstructure:"recent_limit"`
	IncludeSynthetic bool   `mapstructure:"include_synthetic"`
	GapPolicy        string `mapstructure:"gap_policy" validate:"oneof=derive_if_missing always_derive remote_only"`
}

// Session holds session store settings.
type Session struct {
	Store string        `mapstructure:"store" validate:"oneof=memory redis"`
	TTL   time.Duration `mapstructure:"ttl"`
}

// Notifier holds the optional Telegram alert settings.
type Notifier struct {
	Enabled  bool          `mapstructure:"enabled"`
	BotToken string        `mapstructure:"bot_token" validate:"required_if=Enabled true"`
	ChatID   int64         `mapstructure:"chat_id" validate:"required_if=Enabled true"`
	Cooldown time.Duration `mapstructure:"cooldown"`
}

// Config holds the full configuration for the dashboard service.
type Config struct {
	App       config.App       `mapstructure:"app"`
	Logger    config.Logger    `mapstructure:"logger"`
	Datastore config.Datastore `mapstructure:"datastore"`
	Redis     config.Redis     `mapstructure:"redis"`
	API       config.API       `mapstructure:"api"`
	Webhook   Webhook          `mapstructure:"webhook"`
	Dashboard Dashboard        `mapstructure:"dashboard"`
	Session   Session          `mapstructure:"session"`
	Notifier  Notifier         `mapstructure:"notifier"`
}

// MissingError reports required endpoint or credential values that were not supplied.
type MissingError struct {
	Keys []string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("missing required configuration: %s", strings.Join(e.Keys, ", "))
}

// Remediation is the message shown to the operator before the service halts.
func (e *MissingError) Remediation() string {
	var b strings.Builder
	b.WriteString("Secrets missing! Provide the following values in the config file or environment:\n")
	for _, key := range e.Keys {
		env := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if aliases, ok := envAliases[key]; ok {
			env = env + " (or " + strings.Join(aliases, ", ") + ")"
		}
		fmt.Fprintf(&b, "  - %s via %s\n", key, env)
	}
	return b.String()
}

var envAliases = map[string][]string{
	"datastore.url": {"SUPABASE_URL"},
	"datastore.key": {"SUPABASE_KEY"},
	"webhook.url":   {"N8N_WEBHOOK_URL"},
}

var defaults = map[string]interface{}{
	"app.name":                       "corporate-pulse",
	"app.env":                        "development",
	"logger.level":                   "info",
	"logger.encoding":                "json",
	"datastore.max_idle_conns":       2,
	"datastore.max_open_conns":       5,
	"datastore.conn_max_lifetime":    "30m",
	"redis.host":                     "localhost",
	"redis.port":                     6379,
	"redis.pool_size":                10,
	"api.port":                       8080,
	"webhook.timeout":                "30s",
	"webhook.max_request_per_minute": 30,
	"webhook.breaker_max_failures":   3,
	"webhook.breaker_open_timeout":   "60s",
	"dashboard.recent_limit":         200,
	"dashboard.include_synthetic":    true,
	"dashboard.gap_policy":           "derive_if_missing",
	"session.store":                  "memory",
	"session.ttl":                    "2h",
	"notifier.enabled":               false,
	"notifier.cooldown":              "1h",
}

// Load loads the dashboard configuration from the given path and validates it.
// A missing datastore or webhook value yields a *MissingError.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg, config.Options{Defaults: defaults, EnvAliases: envAliases}); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// datastoreSection is named so validation namespaces keep a leading type segment.
type datastoreSection struct {
	Datastore config.Datastore `mapstructure:"datastore"`
}

// LoadDatastore loads only the datastore section, for tools that never call the webhook.
func LoadDatastore(path string) (config.Datastore, error) {
	var cfg datastoreSection
	if err := config.Load(path, &cfg, config.Options{Defaults: defaults, EnvAliases: envAliases}); err != nil {
		return config.Datastore{}, err
	}
	if err := validate(&cfg); err != nil {
		return config.Datastore{}, err
	}
	return cfg.Datastore, nil
}

// Validate checks required values and enumerations.
func (c *Config) Validate() error {
	return validate(c)
}

func validate(v interface{}) error {
	err := validator.New().Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	var missing []string
	var invalid []string
	for _, fe := range verrs {
		key := configKey(fe.Namespace())
		if fe.Tag() == "required" || fe.Tag() == "required_if" {
			missing = append(missing, key)
			continue
		}
		invalid = append(invalid, fmt.Sprintf("%s=%v", key, fe.Value()))
	}
	if len(invalid) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(invalid, ", "))
	}
	return &MissingError{Keys: missing}
}

// configKey turns a validator namespace like "Config.Datastore.URL" into "datastore.url".
func configKey(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		parts[i] = toSnake(p)
	}
	return strings.Join(parts, ".")
}

func toSnake(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		upper := r >= 'A' && r <= 'Z'
		if upper && i > 0 {
			prevLower := runes[i-1] >= 'a' && runes[i-1] <= 'z'
			nextLower := i+1 < len(runes) && runes[i+1] >= 'a' && runes[i+1] <= 'z'
			if prevLower || nextLower {
				b.WriteByte('_')
			}
		}
		if upper {
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
