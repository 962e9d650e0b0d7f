// Package config loads the optional wpimg YAML configuration file.
//
// Values from the file sit between built-in profile defaults and explicit
// command-line flags: a flag always wins, the file fills what flags leave
// unset.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Config mirrors wpimg.yaml.
type Config struct {
	Uploads string  `yaml:"uploads"`
	Corpus  string  `yaml:"corpus"`
	LogFile string  `yaml:"log_file"`
	Convert Convert `yaml:"convert"`
}

// Convert holds conversion overrides. Zero values mean "not set".
type Convert struct {
	Profile string `yaml:"profile"`
	Format  string `yaml:"format"`
	Quality int    `yaml:"quality"`
	Speed   *int   `yaml:"speed"`
	Threads int    `yaml:"threads"`
	MaxDim  *int   `yaml:"max_dim"`
	Workers int    `yaml:"workers"`
	Out     string `yaml:"out"`
}

// Load reads and validates the file at path. An empty path returns an
// empty Config.
func Load(path string) (*Config, error) {
	if path == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML, rejecting unknown keys so typos surface early.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	cv := c.Convert
	if cv.Quality < 0 || cv.Quality > 100 {
		return fmt.Errorf("convert.quality must be 1-100, got %d", cv.Quality)
	}
	if cv.Speed != nil && (*cv.Speed < 0 || *cv.Speed > 10) {
		return fmt.Errorf("convert.speed must be 0-10, got %d", *cv.Speed)
	}
	if cv.MaxDim != nil && *cv.MaxDim < 0 {
		return fmt.Errorf("convert.max_dim must be >= 0, got %d", *cv.MaxDim)
	}
	if cv.Threads < 0 || cv.Workers < 0 {
		return errors.New("convert.threads and convert.workers must be >= 0")
	}
	switch cv.Format {
	case "", "avif", "webp":
	default:
		return fmt.Errorf("convert.format must be avif or webp, got %q", cv.Format)
	}
	return nil
}
