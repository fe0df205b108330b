// go-cr95hf
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-cr95hf.
//
// go-cr95hf is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-cr95hf is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-cr95hf; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config is the cr95hfctl configuration, loadable from a TOML file.
// Durations are given in milliseconds to keep the file format plain.
type Config struct {
	Device           string `toml:"device"`
	Transport        string `toml:"transport"`
	PollIntervalMS   int    `toml:"poll_interval_ms"`
	RemovalTimeoutMS int    `toml:"removal_timeout_ms"`
	TimeoutMS        int    `toml:"timeout_ms"`
}

// LoadConfig reads the TOML file at path and fills in defaults. An empty
// path yields the default configuration.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config load failed (%s): %w", path, err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config parse failed (%s): %w", path, err)
		}
	}

	if cfg.PollIntervalMS == 0 {
		cfg.PollIntervalMS = 100
	}
	if cfg.RemovalTimeoutMS == 0 {
		cfg.RemovalTimeoutMS = 500
	}
	if cfg.TimeoutMS == 0 {
		cfg.TimeoutMS = 30000
	}
	return &cfg, nil
}

// Validate rejects settings the commands cannot work with.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Transport) {
	case "", "uart", "spi":
	default:
		return fmt.Errorf("config: unknown transport %q", c.Transport)
	}
	if c.PollIntervalMS < 0 {
		return fmt.Errorf("config: poll_interval_ms must not be negative")
	}
	if c.RemovalTimeoutMS < 0 {
		return fmt.Errorf("config: removal_timeout_ms must not be negative")
	}
	if c.TimeoutMS < 0 {
		return fmt.Errorf("config: timeout_ms must not be negative")
	}
	return nil
}

func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

func (c *Config) RemovalTimeout() time.Duration {
	return time.Duration(c.RemovalTimeoutMS) * time.Millisecond
}

func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}
