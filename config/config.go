// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadFromFile loads configuration from a file, trying YAML then JSON.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file (tried YAML and JSON): %w", err)
		}
	}

	setDefaults(cfg)

	return cfg, nil
}

// SaveToFile saves configuration to a file, choosing the format by extension.
func SaveToFile(cfg *Config, path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".json") {
		data, err = json.MarshalIndent(cfg, "", "  ")
	} else {
		data, err = yaml.Marshal(cfg)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// setDefaults fills in the timers and limits a realtime client needs in
// order to operate even when a config file omits them.
func setDefaults(cfg *Config) {
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	if cfg.Client.DisconnectedRetryTimeout == 0 {
		cfg.Client.DisconnectedRetryTimeout = 15 * time.Second
	}
	if cfg.Client.SuspendedRetryTimeout == 0 {
		cfg.Client.SuspendedRetryTimeout = 30 * time.Second
	}
	if cfg.Client.ChannelRetryTimeout == 0 {
		cfg.Client.ChannelRetryTimeout = 15 * time.Second
	}
	if cfg.Client.HTTPRequestTimeout == 0 {
		cfg.Client.HTTPRequestTimeout = 10 * time.Second
	}
	if cfg.Client.RealtimeRequestTimeout == 0 {
		cfg.Client.RealtimeRequestTimeout = 10 * time.Second
	}
	if cfg.Client.MaxInboundRate == 0 {
		cfg.Client.MaxInboundRate = 512
	}
	if cfg.Client.AckTimeout == 0 {
		cfg.Client.AckTimeout = 10 * time.Second
	}
	if cfg.Client.MaxAckQueue == 0 {
		cfg.Client.MaxAckQueue = 10000
	}

	if cfg.Channel.CipherAlgo == "" {
		cfg.Channel.CipherAlgo = "aes"
	}
	if cfg.Channel.CipherKeyBits == 0 {
		cfg.Channel.CipherKeyBits = 256
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}

	if cfg.Health.Path == "" {
		cfg.Health.Path = "/healthz"
	}
}

// ValidationError describes a single configuration validation finding.
type ValidationError struct {
	Field   string
	Message string
	Level   string // error, warning
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateConfiguration checks cfg for values that would prevent a
// client from operating correctly. Error-level findings should abort
// Load; warning-level findings are informational.
func ValidateConfiguration(cfg *Config) []ValidationError {
	var errs []ValidationError

	if cfg.Client.Endpoint == "" {
		errs = append(errs, ValidationError{
			Field:   "client.endpoint",
			Message: "no endpoint configured",
			Level:   "warning",
		})
	}

	if cfg.Client.MaxInboundRate < 0 {
		errs = append(errs, ValidationError{
			Field:   "client.max_inbound_rate",
			Message: "must not be negative",
			Level:   "error",
		})
	}

	if cfg.Client.MaxAckQueue <= 0 {
		errs = append(errs, ValidationError{
			Field:   "client.max_ack_queue",
			Message: "must be positive",
			Level:   "error",
		})
	}

	if cfg.Channel.Encrypted && cfg.Channel.CipherKeyEnv == "" {
		errs = append(errs, ValidationError{
			Field:   "channel_defaults.cipher_key_env",
			Message: "encrypted channel defaults require a cipher_key_env to source the key from",
			Level:   "error",
		})
	}

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error", "":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: "unrecognized log level " + cfg.Logging.Level,
			Level:   "warning",
		})
	}

	return errs
}
