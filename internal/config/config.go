package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/zjy-dev/lcov-parse/internal/report"
)

// EnvPrefix prefixes every environment override, e.g. LCOVPARSE_MODE.
const EnvPrefix = "LCOVPARSE"

// Config holds the lcovparse configuration, read from the top-level
// "config" key of configs/config.yaml.
type Config struct {
	RootDirectory string      `mapstructure:"root_directory"`
	Mode          string      `mapstructure:"mode"`
	Include       []string    `mapstructure:"include"`
	Exclude       []string    `mapstructure:"exclude"`
	LogLevel      string      `mapstructure:"log_level"`
	LogDir        string      `mapstructure:"log_dir"`
	Store         StoreConfig `mapstructure:"store"`
	Watch         WatchConfig `mapstructure:"watch"`
}

// StoreConfig configures the report history database.
type StoreConfig struct {
	// DSN is a sqlite file path, ":memory:", or a libsql/https URL.
	DSN   string `mapstructure:"dsn"`
	Debug bool   `mapstructure:"debug"`
}

// WatchConfig configures the watch command.
type WatchConfig struct {
	DebounceMS int    `mapstructure:"debounce_ms"`
	StateDir   string `mapstructure:"state_dir"`
}

// ReportMode parses Mode.
func (c *Config) ReportMode() (report.Mode, error) {
	return report.ParseMode(c.Mode)
}

// Validate checks the values that cannot be checked by unmarshaling.
func (c *Config) Validate() error {
	if _, err := c.ReportMode(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Watch.DebounceMS < 0 {
		return fmt.Errorf("invalid config: watch.debounce_ms must be >= 0, got %d", c.Watch.DebounceMS)
	}
	return nil
}

// defaults are applied before the config file and the environment.
var defaults = map[string]interface{}{
	"root_directory":    "",
	"mode":              "simple",
	"include":           []string{},
	"exclude":           []string{},
	"log_level":         "info",
	"log_dir":           "",
	"store.dsn":         "lcovparse.db",
	"store.debug":       false,
	"watch.debounce_ms": 500,
	"watch.state_dir":   ".lcovparse",
}

type fileConfig struct {
	Config Config `mapstructure:"config"`
}

// Load reads a configuration file from the "configs" directory into a struct.
// The configName parameter should be the base name of the file without the extension (e.g., "config").
// The result parameter should be a pointer to a struct that the configuration will be unmarshaled into.
// Defaults and LCOVPARSE_* overrides apply under the top-level "config" key.
// When no such file exists the returned error wraps
// viper.ConfigFileNotFoundError and result still holds the defaults.
func Load(configName string, result interface{}) error {
	v, err := newViper()
	if err != nil {
		return err
	}
	v.SetConfigName(configName)
	return read(v, result)
}

// LoadConfig loads configs/config.yaml, see LoadConfigFile.
func LoadConfig() (*Config, error) {
	return LoadConfigFile("")
}

// LoadConfigFile builds the configuration from, in increasing priority:
// defaults, the config file, a .env file in the working directory and the
// LCOVPARSE_* environment. An empty path searches config.yaml in the
// configs directories; a missing file there is not an error.
func LoadConfigFile(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var fc fileConfig
	if path == "" {
		var notFound viper.ConfigFileNotFoundError
		if err := Load("config", &fc); err != nil && !errors.As(err, &notFound) {
			return nil, err
		}
	} else {
		v, err := newViper()
		if err != nil {
			return nil, err
		}
		v.SetConfigFile(path)
		if err := read(v, &fc); err != nil {
			return nil, err
		}
	}

	cfg := fc.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// read unmarshals the file v points at into result. A file missing from the
// search paths still unmarshals v's defaults before the error is returned.
func read(v *viper.Viper, result interface{}) error {
	readErr := v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if readErr != nil && !errors.As(readErr, &notFound) {
		return fmt.Errorf("failed to read config file: %w", readErr)
	}

	if err := v.Unmarshal(result); err != nil {
		return fmt.Errorf("failed to unmarshal config data: %w", err)
	}

	if readErr != nil {
		return fmt.Errorf("failed to read config file: %w", readErr)
	}
	return nil
}

func newViper() (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.AddConfigPath("configs")
	v.AddConfigPath("../configs")
	v.AddConfigPath("../../configs")

	for key, value := range defaults {
		v.SetDefault("config."+key, value)
		envName := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv("config."+key, envName); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", envName, err)
		}
	}
	return v, nil
}
