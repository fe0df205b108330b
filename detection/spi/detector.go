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

// Package spi provides spidev node detection for CR95HF devices
package spi

import (
	"context"
	"runtime"

	"github.com/ZaparooProject/go-cr95hf/detection"
)

const (
	// DefaultBus and DefaultChipSelect locate the canonical CR95HF
	// wiring on boards with a single exposed SPI header
	DefaultBus        = 0
	DefaultChipSelect = 0
)

// detector implements the Detector interface for SPI devices
type detector struct{}

// New creates a new SPI detector
func New() detection.Detector {
	return &detector{}
}

// init registers the detector on package import
func init() {
	detection.RegisterDetector(New())
}

// Transport returns the transport type
func (*detector) Transport() string {
	return "spi"
}

// Detect searches for CR95HF devices on SPI buses
func (*detector) Detect(ctx context.Context, opts *detection.Options) ([]detection.DeviceInfo, error) {
	// spidev nodes only exist on Linux
	switch runtime.GOOS {
	case "linux":
		return detectLinux(ctx, opts)
	default:
		return nil, detection.ErrUnsupportedPlatform
	}
}
