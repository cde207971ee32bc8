package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

type Mode string

const (
	// ModeValues reads the seed line as discrete values.
	ModeValues Mode = "values"
	// ModeRanges reads the seed line as (start, length) pairs.
	ModeRanges Mode = "ranges"
)

type Config struct {
	Mode     Mode   `yaml:"mode"`
	Start    string `yaml:"start,omitempty"`
	Terminal string `yaml:"terminal,omitempty"`
	Workers  int    `yaml:"workers,omitempty"`
	Coalesce bool   `yaml:"coalesce"`
	LogLevel string `yaml:"logLevel"`
}

func Default() Config {
	return Config{
		Mode:     ModeRanges,
		Coalesce: true,
		LogLevel: "info",
	}
}

// Load reads a YAML file on top of the defaults. Unknown keys are an error.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	c, err := Decode(bytes.NewReader(b))
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return c, nil
}

func Decode(r io.Reader) (Config, error) {
	c := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) Validate() error {
	var errm error
	switch c.Mode {
	case ModeValues, ModeRanges:
	default:
		errm = errors.Join(errm, fmt.Errorf("mode %q, want %q or %q", c.Mode, ModeValues, ModeRanges))
	}
	if c.Workers < 0 {
		errm = errors.Join(errm, fmt.Errorf("workers %d cannot be negative", c.Workers))
	}
	if _, err := c.Level(); err != nil {
		errm = errors.Join(errm, err)
	}
	return errm
}

func (c Config) Level() (zapcore.Level, error) {
	return zapcore.ParseLevel(c.LogLevel)
}

func (c Config) String() string {
	b, _ := yaml.Marshal(c)
	return string(b)
}
