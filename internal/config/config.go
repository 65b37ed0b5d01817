// Package config loads the INI settings shared by the CLI and the HTTP server.
package config

import (
	"os"
	"strings"

	beecfg "github.com/astaxie/beego/config"
	"github.com/juju/errors"

	"github.com/gregLibert/emv-qr/internal/logging"
)

// Output formats for decoded records.
const (
	OutputText = "text"
	OutputJSON = "json"
	OutputYAML = "yaml"
)

// Defaults used for keys missing from the file.
const (
	DefaultListen     = ":8080"
	DefaultLogLevel   = "warn"
	DefaultMaxPayload = 4096
	DefaultOutput     = OutputText
)

// Config holds the runtime settings.
type Config struct {
	Listen     string
	LogLevel   string
	MaxPayload int // in characters
	Output     string
}

// Default returns the settings used when no file is given.
func Default() *Config {
	return &Config{
		Listen:     DefaultListen,
		LogLevel:   DefaultLogLevel,
		MaxPayload: DefaultMaxPayload,
		Output:     DefaultOutput,
	}
}

// Load reads an INI file. An empty path yields the defaults; a path that does not exist is an error.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Annotatef(err, "config %s", path)
	}
	c, err := beecfg.NewConfig("ini", path)
	if err != nil {
		return nil, errors.Annotatef(err, "parse config %s", path)
	}
	return fromConfiger(c)
}

// Parse reads INI content held in memory.
func Parse(data []byte) (*Config, error) {
	c, err := beecfg.NewConfigData("ini", data)
	if err != nil {
		return nil, errors.Annotate(err, "parse config")
	}
	return fromConfiger(c)
}

func fromConfiger(c beecfg.Configer) (*Config, error) {
	cfg := Default()
	cfg.Listen = c.DefaultString("listen", cfg.Listen)
	cfg.LogLevel = c.DefaultString("log_level", cfg.LogLevel)
	cfg.Output = c.DefaultString("output", cfg.Output)

	if raw := c.String("max_payload"); raw != "" {
		n, err := c.Int("max_payload")
		if err != nil {
			return nil, errors.NotValidf("max_payload %q", raw)
		}
		cfg.MaxPayload = n
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every setting, normalizing case of the enumerated ones.
func (c *Config) Validate() error {
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return errors.Trace(err)
	}

	c.Output = strings.ToLower(strings.TrimSpace(c.Output))
	switch c.Output {
	case OutputText, OutputJSON, OutputYAML:
	default:
		return errors.NotValidf("output %q", c.Output)
	}

	if c.MaxPayload <= 0 {
		return errors.NotValidf("max_payload %d", c.MaxPayload)
	}
	if strings.TrimSpace(c.Listen) == "" {
		return errors.NotValidf("empty listen address")
	}
	return nil
}
