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
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"
)

// ValidationConfig holds configuration for detection validation
type ValidationConfig struct {
	// RetryDelay specifies delay between verification reads
	RetryDelay time.Duration

	// DetectRetries specifies max number of verification reads
	DetectRetries int

	// RequiredMatches is how many consecutive identical UID reads, after
	// the initial detection, confirm a tag
	RequiredMatches int

	// EnableDetectVerification enables automatic verification of detected tags
	EnableDetectVerification bool
}

// DefaultValidationConfig returns default validation configuration
func DefaultValidationConfig() *ValidationConfig {
	return &ValidationConfig{
		EnableDetectVerification: true,
		DetectRetries:            3,
		RequiredMatches:          2,
		RetryDelay:               50 * time.Millisecond,
	}
}

// ValidationMetrics tracks validation statistics
type ValidationMetrics struct {
	LastValidation    time.Time
	TotalDetections   uint64
	FailedValidations uint64
}

// ValidatedDevice wraps a Device with detection verification. A tag on
// the edge of the field powers up intermittently and can produce garbled
// or unstable UIDs, verification filters those detections out.
type ValidatedDevice struct {
	*Device
	config  *ValidationConfig
	metrics *ValidationMetrics
	mu      sync.RWMutex
}

// NewValidatedDevice creates and initializes a device with detection
// verification
func NewValidatedDevice(transport Transport, config *ValidationConfig) (*ValidatedDevice, error) {
	if config == nil {
		config = DefaultValidationConfig()
	}

	device, err := New(transport)
	if err != nil {
		return nil, err
	}

	if err := device.Init(); err != nil {
		return nil, err
	}

	return &ValidatedDevice{
		Device:  device,
		config:  config,
		metrics: &ValidationMetrics{},
	}, nil
}

// Validated wraps an already connected device with detection
// verification, using the validation configuration attached by
// WithValidation or the defaults when none was attached.
func (d *Device) Validated() *ValidatedDevice {
	config := d.validationConfig
	if config == nil {
		config = DefaultValidationConfig()
	}

	return &ValidatedDevice{
		Device:  d,
		config:  config,
		metrics: &ValidationMetrics{},
	}
}

// GetValidationMetrics returns current validation metrics (thread-safe)
func (vd *ValidatedDevice) GetValidationMetrics() ValidationMetrics {
	vd.mu.RLock()
	defer vd.mu.RUnlock()
	return *vd.metrics
}

// recordValidation updates metrics safely
func (vd *ValidatedDevice) recordValidation(success bool) {
	vd.mu.Lock()
	defer vd.mu.Unlock()

	vd.metrics.TotalDetections++
	vd.metrics.LastValidation = time.Now()

	if !success {
		vd.metrics.FailedValidations++
	}
}

// DetectTagValidated detects a tag and confirms the result with
// consecutive matching UID reads before reporting it
func (vd *ValidatedDevice) DetectTagValidated() (*DetectedTag, error) {
	return vd.DetectTagValidatedContext(context.Background())
}

// DetectTagValidatedContext detects a tag and confirms the result with
// consecutive matching UID reads before reporting it
func (vd *ValidatedDevice) DetectTagValidatedContext(ctx context.Context) (*DetectedTag, error) {
	tag, err := vd.DetectTagContext(ctx)
	if err != nil {
		return nil, err
	}

	if !vd.config.EnableDetectVerification {
		vd.recordValidation(true)
		return tag, nil
	}

	confirmed, err := vd.verifyDetection(ctx, tag)
	if err != nil {
		vd.recordValidation(false)
		return nil, err
	}

	vd.recordValidation(true)
	return confirmed, nil
}

// verifyDetection re-runs detection until the UID matches on enough
// consecutive reads
func (vd *ValidatedDevice) verifyDetection(ctx context.Context, initial *DetectedTag) (*DetectedTag, error) {
	var lastErr error
	lastUID := initial.UIDBytes
	confirmed := initial
	consecutiveMatches := 0

	for retry := 0; retry < vd.config.DetectRetries; retry++ {
		if retry > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("detection validation interrupted: %w", ctx.Err())
			case <-time.After(vd.config.RetryDelay):
			}
		}

		verify, err := vd.DetectTagContext(ctx)
		if err != nil {
			lastErr = err
			consecutiveMatches = 0
			continue
		}

		if bytes.Equal(lastUID, verify.UIDBytes) {
			consecutiveMatches++
		} else {
			consecutiveMatches = 0
			lastUID = verify.UIDBytes
		}
		confirmed = verify

		if consecutiveMatches >= vd.config.RequiredMatches {
			return confirmed, nil
		}
	}

	if lastErr != nil {
		return nil, fmt.Errorf("detection validation failed after %d retries: %w",
			vd.config.DetectRetries, lastErr)
	}
	return nil, fmt.Errorf("detection validation failed: unstable UID after %d retries",
		vd.config.DetectRetries)
}
