// Package config loads ledgerbook settings from an optional YAML file and
// LEDGERBOOK_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/simonvc/ledgerbook/internal/ledger"
	"github.com/simonvc/ledgerbook/internal/logger"
	"github.com/spf13/viper"
)

const EnvPrefix = "LEDGERBOOK"

type Config struct {
	Book     string
	Standard string
	Log      LogConfig
	Server   ServerConfig
}

type LogConfig struct {
	Level  string
	Format string
	Output string
}

type ServerConfig struct {
	Addr string
}

// Logger converts the log section for the logger package.
func (c LogConfig) Logger() *logger.Config {
	return &logger.Config{Level: c.Level, Format: c.Format, Output: c.Output}
}

// Load reads configuration. Priority (highest to lowest):
//  1. Environment variables with the LEDGERBOOK_ prefix (e.g. LEDGERBOOK_LOG_LEVEL)
//  2. the file named by path, or ledgerbook.yaml in . or $HOME/.ledgerbook
//  3. Built-in defaults
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("ledgerbook")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.ledgerbook")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		Book:     v.GetString("book"),
		Standard: v.GetString("standard"),
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Server: ServerConfig{
			Addr: v.GetString("server.addr"),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	def := logger.DefaultConfig()
	v.SetDefault("book", "ledger.db")
	v.SetDefault("standard", ledger.StandardEnterprise2018)
	v.SetDefault("log.level", def.Level)
	v.SetDefault("log.format", def.Format)
	v.SetDefault("log.output", def.Output)
	v.SetDefault("server.addr", "127.0.0.1:8888")
}

func (c *Config) Validate() error {
	if c.Book == "" {
		return errors.New("config: book path is empty")
	}
	if _, err := ledger.LookupStandard(c.Standard); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("config: unknown log format %q", c.Log.Format)
	}
	return nil
}
