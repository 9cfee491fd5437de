// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

// Package config holds the user-facing configuration for cadastre.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all user-facing configuration for cadastre.
type Config struct {
	Dataset  DatasetConfig  `toml:"dataset"`
	Communes CommunesConfig `toml:"communes"`
	HTTP     HTTPConfig     `toml:"http"`
	Server   ServerConfig   `toml:"server"`
	Export   ExportConfig   `toml:"export"`
}

// DatasetConfig locates the Etalab cadastre extracts.
type DatasetConfig struct {
	// URLTemplate accepts the {millesime} and {dept} placeholders
	URLTemplate string   `toml:"url_template"`
	Millesime   string   `toml:"millesime"`
	Timeout     Duration `toml:"timeout"`
}

// CommunesConfig configures the commune name lookups.
type CommunesConfig struct {
	// URLTemplate accepts the {code} placeholder
	URLTemplate string   `toml:"url_template"`
	Timeout     Duration `toml:"timeout"`
	Delay       Duration `toml:"delay"`
}

type HTTPConfig struct {
	UserAgent string `toml:"user_agent"`
	Trace     bool   `toml:"trace"`
	TraceBody bool   `toml:"trace_body"`
}

type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

type ExportConfig struct {
	H3Resolution int `toml:"h3_resolution"`
}

// Duration is a time.Duration read from strings such as "60s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", text, err)
	}

	d.Duration = v

	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Defaults returns a Config populated with built-in default values.
func Defaults() *Config {
	return &Config{
		Dataset: DatasetConfig{
			URLTemplate: "https://cadastre.data.gouv.fr/data/etalab-cadastre/{millesime}/geojson/departements/{dept}/cadastre-{dept}-parcelles.json.gz",
			Millesime:   "2025-04-01",
			Timeout:     Duration{60 * time.Second},
		},
		Communes: CommunesConfig{
			URLTemplate: "https://geo.api.gouv.fr/communes/{code}?fields=nom&format=json",
			Timeout:     Duration{6 * time.Second},
			Delay:       Duration{10 * time.Millisecond},
		},
		Server: ServerConfig{Host: "localhost", Port: 8080},
		Export: ExportConfig{H3Resolution: 11},
	}
}

// Validate reports settings that would make the pipeline misbehave.
func (c *Config) Validate() error {
	var errs []error

	if c.Dataset.URLTemplate == "" {
		errs = append(errs, errors.New("dataset.url_template must not be empty"))
	}

	if c.Communes.URLTemplate == "" {
		errs = append(errs, errors.New("communes.url_template must not be empty"))
	}

	if c.Dataset.Timeout.Duration <= 0 || c.Communes.Timeout.Duration <= 0 {
		errs = append(errs, errors.New("timeouts must be positive"))
	}

	if c.Communes.Delay.Duration < 0 {
		errs = append(errs, errors.New("communes.delay must not be negative"))
	}

	if c.Export.H3Resolution < 0 || c.Export.H3Resolution > 15 {
		errs = append(errs, fmt.Errorf("export.h3_resolution %d out of range [0, 15]", c.Export.H3Resolution))
	}

	return errors.Join(errs...)
}

// Load reads a TOML config file. If the file does not exist, built-in
// defaults are returned without error.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("reading %s: unknown keys %v", path, undecoded)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating %s: %w", path, err)
	}

	return cfg, nil
}
