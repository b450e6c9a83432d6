// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/iometer/lib/clock"
	"github.com/bureau-foundation/iometer/lib/telemetry"
)

// EnvironmentVariable names the config file read by [Load].
const EnvironmentVariable = "IOMETER_CONFIG"

// Config is the iometer configuration file.
type Config struct {
	// Telemetry configures timestep and report periods.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Sinks configures where summaries go besides the log.
	Sinks SinksConfig `yaml:"sinks"`

	// Status configures the HTTP status server.
	Status StatusConfig `yaml:"status"`
}

// TelemetryConfig mirrors telemetry.Config with durations as strings.
type TelemetryConfig struct {
	// TimestepPeriod is how often the observation buffer is drained.
	// Default: 1s
	TimestepPeriod string `yaml:"timestep_period"`

	// ReportPeriod is how often a report is published.
	// Default: 60s
	ReportPeriod string `yaml:"report_period"`

	// MaxObservationCount is the observation buffer capacity.
	// Default: 1000000
	MaxObservationCount int `yaml:"max_observation_count"`

	// Alignment is the wall-clock boundary the first timestep waits
	// for. "0s" disables alignment.
	// Default: 1m
	Alignment string `yaml:"alignment"`

	// StrictPeriods rejects a report period that is not a multiple of
	// the timestep period instead of truncating.
	// Default: false
	StrictPeriods bool `yaml:"strict_periods"`
}

// SinksConfig configures report sinks. Empty values disable a sink.
type SinksConfig struct {
	// CBORPath appends every summary to this file as a CBOR sequence.
	CBORPath string `yaml:"cbor_path"`

	// NATSURL publishes every summary to this NATS server.
	NATSURL string `yaml:"nats_url"`

	// NATSSubject is the subject prefix; the stream name is appended.
	// Default: iometer.reports
	NATSSubject string `yaml:"nats_subject"`
}

// StatusConfig configures the status server.
type StatusConfig struct {
	// ListenAddr is the TCP address to serve on. Empty disables the
	// server.
	ListenAddr string `yaml:"listen_addr"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Telemetry: TelemetryConfig{
			TimestepPeriod:      telemetry.DefaultTimestepPeriod.String(),
			ReportPeriod:        telemetry.DefaultReportPeriod.String(),
			MaxObservationCount: telemetry.DefaultMaxObservationCount,
			Alignment:           telemetry.DefaultAlignment.String(),
		},
		Sinks: SinksConfig{
			NATSSubject: "iometer.reports",
		},
	}
}

// Load loads the file named by IOMETER_CONFIG. Fails if the variable
// is not set.
func Load() (*Config, error) {
	path := os.Getenv(EnvironmentVariable)
	if path == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your iometer config file, or use --config flag", EnvironmentVariable)
	}
	return LoadFile(path)
}

// LoadFile loads path over [Default] and validates the result.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		data = jsonc.ToJSON(data)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.expandVariables()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	durations := []struct {
		field string
		value string
	}{
		{"telemetry.timestep_period", c.Telemetry.TimestepPeriod},
		{"telemetry.report_period", c.Telemetry.ReportPeriod},
		{"telemetry.alignment", c.Telemetry.Alignment},
	}
	for _, duration := range durations {
		parsed, err := time.ParseDuration(duration.value)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", duration.field, err))
			continue
		}
		if parsed < 0 || (parsed == 0 && duration.field != "telemetry.alignment") {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", duration.field, duration.value))
		}
	}

	if c.Telemetry.MaxObservationCount <= 0 {
		errs = append(errs, fmt.Errorf("telemetry.max_observation_count must be positive, got %d", c.Telemetry.MaxObservationCount))
	}

	if c.Sinks.NATSURL != "" && c.Sinks.NATSSubject == "" {
		errs = append(errs, errors.New("sinks.nats_subject is required when sinks.nats_url is set"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// NewTelemetryConfig converts the telemetry section into a
// telemetry.Config with the given logger and clock. Name and Sinks are
// left for the caller. The config must have passed Validate.
func (c *Config) NewTelemetryConfig(logger *slog.Logger, clk clock.Clock) (telemetry.Config, error) {
	timestep, err := time.ParseDuration(c.Telemetry.TimestepPeriod)
	if err != nil {
		return telemetry.Config{}, fmt.Errorf("telemetry.timestep_period: %w", err)
	}
	report, err := time.ParseDuration(c.Telemetry.ReportPeriod)
	if err != nil {
		return telemetry.Config{}, fmt.Errorf("telemetry.report_period: %w", err)
	}
	alignment, err := time.ParseDuration(c.Telemetry.Alignment)
	if err != nil {
		return telemetry.Config{}, fmt.Errorf("telemetry.alignment: %w", err)
	}

	return telemetry.Config{
		Logger:              logger,
		Clock:               clk,
		TimestepPeriod:      timestep,
		ReportPeriod:        report,
		MaxObservationCount: c.Telemetry.MaxObservationCount,
		Alignment:           alignment,
		StrictPeriods:       c.Telemetry.StrictPeriods,
	}, nil
}

// expandVariables expands ${VAR} and ${VAR:-default} in paths.
func (c *Config) expandVariables() {
	c.Sinks.CBORPath = expandVars(c.Sinks.CBORPath)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		return parts[2]
	})
}
