// Package config loads the server configuration.
//
// Sources, lowest precedence first: defaults, the ini file, environment variables (SCHEMACMS_LISTEN etc., a .env file is read too),
// and command-line flags. Flags and ini keys have the same names.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/ini.v1"
)

const (
	DefaultFile = "config/schemacms.ini"
	EnvPrefix   = "SCHEMACMS_"
)

type Config struct {
	Listen         string        `ini:"listen"`
	Base           string        `ini:"base"` // strip off this prefix from every HTTP request and prepend it to every link
	DB             string        `ini:"db"`   // sql database url, see github.com/xo/dburl
	AllowCORS      bool          `ini:"allow-cors"`
	LogLevel       string        `ini:"log-level"`
	LogPretty      bool          `ini:"log-pretty"`
	SchemaDir      string        `ini:"schema-dir"`
	WatchSchemas   bool          `ini:"watch-schemas"`
	CacheSize      int           `ini:"cache-size"`
	TokenLifetime  time.Duration `ini:"token-lifetime"`
	PublishTimeout time.Duration `ini:"publish-timeout"`
}

// Keys lists the names of all settings.
var Keys = []string{"listen", "base", "db", "allow-cors", "log-level", "log-pretty", "schema-dir", "watch-schemas", "cache-size", "token-lifetime", "publish-timeout"}

func Default() Config {
	return Config{
		Listen:         "127.0.0.1:8080",
		DB:             "sqlite3:schemacms.sqlite3?_busy_timeout=10000&_journal=WAL&_sync=NORMAL&cache=shared",
		LogLevel:       "info",
		CacheSize:      1024,
		TokenLifetime:  30 * 24 * time.Hour,
		PublishTimeout: 30 * time.Second,
	}
}

// Load returns the defaults, overridden by the ini file at path (if it exists) and by the environment.
func Load(path string) (Config, error) {
	var c = Default()
	if path != "" {
		if err := c.loadIni(path); err != nil {
			return c, err
		}
	}
	_ = godotenv.Load() // .env is optional
	if err := c.ApplyEnv(os.LookupEnv); err != nil {
		return c, err
	}
	return c, nil
}

func (c *Config) loadIni(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	file, err := ini.Load(path)
	if err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	if err := file.Section("").MapTo(c); err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	return nil
}

// EnvName returns the name of the environment variable of a key, like SCHEMACMS_ALLOW_CORS for "allow-cors".
func EnvName(key string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
}

func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	for _, key := range Keys {
		if value, ok := lookup(EnvName(key)); ok {
			if err := c.Set(key, value); err != nil {
				return fmt.Errorf("%s: %w", EnvName(key), err)
			}
		}
	}
	return nil
}

// Set parses value and assigns it to the setting with the given key.
func (c *Config) Set(key, value string) error {
	var err error
	switch key {
	case "listen":
		c.Listen = value
	case "base":
		c.Base = value
	case "db":
		c.DB = value
	case "allow-cors":
		c.AllowCORS, err = strconv.ParseBool(value)
	case "log-level":
		c.LogLevel = value
	case "log-pretty":
		c.LogPretty, err = strconv.ParseBool(value)
	case "schema-dir":
		c.SchemaDir = value
	case "watch-schemas":
		c.WatchSchemas, err = strconv.ParseBool(value)
	case "cache-size":
		c.CacheSize, err = strconv.Atoi(value)
	case "token-lifetime":
		c.TokenLifetime, err = time.ParseDuration(value)
	case "publish-timeout":
		c.PublishTimeout, err = time.ParseDuration(value)
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
	return err
}

// NormalizedBase returns Base with a leading and without a trailing slash, or the empty string.
func (c *Config) NormalizedBase() string {
	var base = strings.Trim(c.Base, "/")
	if base == "" {
		return ""
	}
	return "/" + base
}

// Logger creates the root logger. If LogPretty is set, it writes human-readable lines.
func (c *Config) Logger(w io.Writer) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("log level: %w", err)
	}
	if c.LogPretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger(), nil
}
