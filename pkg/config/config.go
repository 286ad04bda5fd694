package config

import (
	"errors"
	"log"
	"strings"

	"github.com/spf13/viper"
)

// App holds application configuration.
type App struct {
	Name    string `mapstructure:"name"`
	Env     string `mapstructure:"env"`
	Version string `mapstructure:"version"`
}

// Logger holds logger configuration.
type Logger struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

// Datastore holds the managed datastore endpoint and credential.
type Datastore struct {
	URL             string `mapstructure:"url" validate:"required"`
	Key             string `mapstructure:"key" validate:"required"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime string `mapstructure:"conn_max_lifetime"`
	LogLevel        string `mapstructure:"log_level"`
}

// Redis holds Redis configuration.
type Redis struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// API holds API server configuration.
type API struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Options tunes how Load resolves values that are not in the config file.
type Options struct {
	// Defaults are applied before the file and the environment.
	Defaults map[string]interface{}
	// EnvAliases maps a config key to extra environment variable names, tried in order.
	EnvAliases map[string][]string
}

// Load loads configuration from a file into the given config struct.
// Environment variables override file values, with "." replaced by "_" (DATASTORE_URL for datastore.url).
func Load(path string, config interface{}, opts Options) error {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, value := range opts.Defaults {
		v.SetDefault(key, value)
	}
	for key, aliases := range opts.EnvAliases {
		names := append([]string{strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}, aliases...)
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" && !errors.As(err, &notFound) {
			log.Printf("Failed to read config file %s, falling back to environment variables: %v", path, err)
		}
	}

	return v.Unmarshal(config)
}
