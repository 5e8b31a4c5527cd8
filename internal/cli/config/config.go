package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/labbookdb/labbookdb/internal/orm/dialect"
	"github.com/labbookdb/labbookdb/internal/orm/store"
)

// DefaultPath is the database file used when nothing else is configured
const DefaultPath = "~/syncdata/meta.db"

// Config represents the labbookdb configuration
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
	DSN    string `mapstructure:"dsn"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// flagKeys maps global command flags to configuration keys
var flagKeys = map[string]string{
	"db":        "database.path",
	"driver":    "database.driver",
	"dsn":       "database.dsn",
	"log-level": "log.level",
}

// envKeys maps configuration keys to environment variables
var envKeys = map[string]string{
	"database.path":   "LDB_PATH",
	"database.driver": "LDB_DRIVER",
	"database.dsn":    "LDB_DSN",
	"log.level":       "LDB_LOG_LEVEL",
}

// Load loads the configuration. An explicit file must exist; otherwise
// labbookdb.yaml is looked up in the working directory and in
// $HOME/.config/labbookdb. Set flags take precedence over the environment,
// which takes precedence over the file.
func Load(file string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	v.SetDefault("database.driver", dialect.SQLite.String())
	v.SetDefault("database.path", DefaultPath)
	v.SetDefault("database.dsn", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("labbookdb")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "labbookdb"))
		}
	}

	for key, env := range envKeys {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			f := flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("failed to bind --%s: %w", name, err)
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	d, err := dialect.Parse(c.Database.Driver)
	if err != nil {
		return fmt.Errorf("database.driver: %w", err)
	}
	if d == dialect.Postgres && c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required with the %s driver", d)
	}
	if d == dialect.SQLite && c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if _, err := c.level(); err != nil {
		return err
	}
	return nil
}

// StoreOptions returns the options to open the configured store with
func (c *Config) StoreOptions() (store.Options, error) {
	path, err := store.ExpandPath(c.Database.Path)
	if err != nil {
		return store.Options{}, err
	}
	return store.Options{
		Driver: c.Database.Driver,
		Path:   path,
		DSN:    c.Database.DSN,
	}, nil
}

// Logger builds the zap logger for the configured level. Logs go to stderr.
func (c *Config) Logger() (*zap.Logger, error) {
	level, err := c.level()
	if err != nil {
		return nil, err
	}

	zc := zap.NewProductionConfig()
	if c.Log.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}

func (c *Config) level() (zapcore.Level, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return level, fmt.Errorf("log.level: unknown level %q", c.Log.Level)
	}
	return level, nil
}
