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

package cr95hf

import (
	"time"
)

// WakeStrategy selects which wake-up request detection sends first
type WakeStrategy string

const (
	// WakeAuto sends WUPA first and falls back to REQA when nothing
	// answers. WUPA also wakes tags that were put to sleep with Halt,
	// so this is the preferred default strategy.
	WakeAuto WakeStrategy = "auto"

	// WakeWUPAOnly sends WUPA without a REQA fallback
	WakeWUPAOnly WakeStrategy = "wupa"

	// WakeREQAOnly sends only REQA, which halted tags ignore.
	// Combined with HaltAfterDetect this yields detect-once behavior:
	// a tag is reported a single time until it leaves the field.
	WakeREQAOnly WakeStrategy = "reqa"
)

// ContinuousScanConfig contains configuration for continuous scan cycles
type ContinuousScanConfig struct {
	Strategy           WakeStrategy
	ScanInterval       time.Duration
	StabilizationDelay time.Duration
	RetryDelay         time.Duration
	MaxRetries         int
	ReinitThreshold    int
	RetryOnFailure     bool
	HaltAfterDetect    bool
}

// DefaultContinuousScanConfig returns a default continuous scan configuration
func DefaultContinuousScanConfig() *ContinuousScanConfig {
	return &ContinuousScanConfig{
		Strategy:           WakeAuto,
		ScanInterval:       100 * time.Millisecond,
		StabilizationDelay: 10 * time.Millisecond, // settle time after Init before scanning
		RetryDelay:         500 * time.Millisecond,
		MaxRetries:         3,
		ReinitThreshold:    5, // re-run Init after this many failed cycles in a row
		RetryOnFailure:     true,
		HaltAfterDetect:    false,
	}
}

// Validate checks if the configuration is valid
func (c *ContinuousScanConfig) Validate() error {
	switch c.Strategy {
	case WakeAuto, WakeWUPAOnly, WakeREQAOnly:
	default:
		return ErrInvalidParameter
	}

	if c.ScanInterval <= 0 {
		return ErrInvalidParameter
	}

	if c.StabilizationDelay < 0 {
		return ErrInvalidParameter
	}

	if c.RetryDelay < 0 {
		return ErrInvalidParameter
	}

	if c.MaxRetries < 0 {
		return ErrInvalidParameter
	}

	if c.ReinitThreshold < 0 {
		return ErrInvalidParameter
	}

	return nil
}

// Clone creates a copy of the configuration
func (c *ContinuousScanConfig) Clone() *ContinuousScanConfig {
	clone := *c
	return &clone
}

// scanHealthState tracks failures across scan cycles so callers know when
// to back off and when the device needs a fresh Init
type scanHealthState struct {
	lastFailure         time.Time
	config              *ContinuousScanConfig
	consecutiveFailures int
}

// newScanHealthState creates scan health tracking for the given config
func newScanHealthState(config *ContinuousScanConfig) *scanHealthState {
	if config == nil {
		config = DefaultContinuousScanConfig()
	}

	return &scanHealthState{
		config:              config.Clone(),
		consecutiveFailures: 0,
	}
}

// recordFailure records a failed scan cycle
func (s *scanHealthState) recordFailure() {
	s.consecutiveFailures++
	s.lastFailure = time.Now()
}

// recordSuccess records a scan cycle that completed, with or without a tag
func (s *scanHealthState) recordSuccess() {
	s.consecutiveFailures = 0
}

// shouldReinit reports whether enough cycles failed in a row that the
// device state can no longer be trusted
func (s *scanHealthState) shouldReinit() bool {
	return s.config.ReinitThreshold > 0 &&
		s.consecutiveFailures >= s.config.ReinitThreshold
}

// shouldRetry determines if a retry should be attempted
func (s *scanHealthState) shouldRetry() bool {
	if !s.config.RetryOnFailure {
		return false
	}

	if s.config.MaxRetries > 0 && s.consecutiveFailures >= s.config.MaxRetries {
		return false
	}

	// Check retry delay
	if !s.lastFailure.IsZero() && time.Since(s.lastFailure) < s.config.RetryDelay {
		return false
	}

	return true
}

// currentStrategy returns the wake strategy scan cycles should use
func (s *scanHealthState) currentStrategy() WakeStrategy {
	return s.config.Strategy
}
