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

// TransportOptimizer lets a transport supply its own scan tuning instead
// of the per-type defaults
type TransportOptimizer interface {
	// OptimizeForScanning returns transport-specific scan parameters
	OptimizeForScanning(strategy WakeStrategy) *OptimizedScanParams

	// GetPreferredStrategy returns the preferred wake strategy for this transport
	GetPreferredStrategy() WakeStrategy

	// GetStabilizationDelay returns the required stabilization delay
	GetStabilizationDelay() time.Duration
}

// OptimizedScanParams contains transport-tuned scan parameters
type OptimizedScanParams struct {
	ScanInterval       time.Duration
	StabilizationDelay time.Duration
	RetryDelay         time.Duration
	MaxRetries         int
}

// OptimizedScanConfig returns the active scan configuration with timing
// fields replaced by values tuned for the current transport. The wake
// strategy and detection behavior are kept as configured.
func (d *Device) OptimizedScanConfig() *ContinuousScanConfig {
	config := d.GetScanConfig()
	params := d.getOptimizedScanParams(config.Strategy)

	config.ScanInterval = params.ScanInterval
	config.StabilizationDelay = params.StabilizationDelay
	config.RetryDelay = params.RetryDelay
	config.MaxRetries = params.MaxRetries
	return config
}

// getOptimizedScanParams returns tuned scan parameters for the current transport
func (d *Device) getOptimizedScanParams(strategy WakeStrategy) *OptimizedScanParams {
	// Check if transport provides its own tuning
	if optimizer, ok := d.transport.(TransportOptimizer); ok {
		return optimizer.OptimizeForScanning(strategy)
	}

	switch d.transport.Type() {
	case TransportUART:
		return d.getUARTOptimizedParams(strategy)

	case TransportSPI:
		return d.getSPIOptimizedParams(strategy)

	case TransportMock:
		// Mock transport uses default parameters for testing
		return d.getDefaultOptimizedParams(strategy)

	default:
		return d.getDefaultOptimizedParams(strategy)
	}
}

// getUARTOptimizedParams returns UART-tuned scan parameters. At 57600 baud
// each command round trip is slow enough that tight intervals just queue up.
func (*Device) getUARTOptimizedParams(strategy WakeStrategy) *OptimizedScanParams {
	params := &OptimizedScanParams{
		StabilizationDelay: 10 * time.Millisecond,
		RetryDelay:         100 * time.Millisecond,
		MaxRetries:         3,
	}

	switch strategy {
	case WakeAuto:
		params.ScanInterval = 150 * time.Millisecond // up to two wakes per cycle
	case WakeWUPAOnly, WakeREQAOnly:
		params.ScanInterval = 100 * time.Millisecond
	default:
		params.ScanInterval = 150 * time.Millisecond
	}

	return params
}

// getSPIOptimizedParams returns SPI-tuned scan parameters
func (*Device) getSPIOptimizedParams(strategy WakeStrategy) *OptimizedScanParams {
	params := &OptimizedScanParams{
		StabilizationDelay: 5 * time.Millisecond, // SPI is fast
		RetryDelay:         25 * time.Millisecond,
		MaxRetries:         5, // SPI can handle more retries
	}

	switch strategy {
	case WakeAuto:
		params.ScanInterval = 100 * time.Millisecond
	case WakeWUPAOnly, WakeREQAOnly:
		params.ScanInterval = 50 * time.Millisecond
	default:
		params.ScanInterval = 100 * time.Millisecond
	}

	return params
}

// getDefaultOptimizedParams returns conservative scan parameters
func (*Device) getDefaultOptimizedParams(WakeStrategy) *OptimizedScanParams {
	return &OptimizedScanParams{
		ScanInterval:       250 * time.Millisecond,
		StabilizationDelay: 50 * time.Millisecond,
		RetryDelay:         500 * time.Millisecond,
		MaxRetries:         3,
	}
}
