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

// Package detection finds CR95HF devices attached to the system.
// Transport-specific detectors register themselves on import, so a
// caller only needs to blank-import the detector packages it wants and
// run DetectAll.
package detection

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// Detection errors.
var (
	// ErrNoDevicesFound indicates no candidate devices were found.
	ErrNoDevicesFound = errors.New("no CR95HF devices found")

	// ErrUnsupportedPlatform indicates the detector cannot run on this
	// operating system.
	ErrUnsupportedPlatform = errors.New("detection not supported on this platform")

	// ErrDetectionTimeout indicates the detection run was cancelled or
	// ran out of time.
	ErrDetectionTimeout = errors.New("detection cancelled or timed out")
)

// Mode controls how intrusive a detection run is allowed to be.
type Mode int

const (
	// Passive lists candidate devices without opening any of them.
	Passive Mode = iota

	// Safe opens only plausible candidates and probes them with the
	// echo command, which a CR95HF answers and other hardware ignores.
	Safe

	// Full probes every candidate port, including ones with no USB
	// identity. Use when the device hangs off a bare UART header.
	Full
)

// Confidence grades how likely a candidate is to be a CR95HF.
type Confidence int

const (
	// Low means the device exists but nothing ties it to a CR95HF.
	Low Confidence = iota
	// Medium means the device identity matches known CR95HF carriers.
	Medium
	// High means the device answered a CR95HF probe.
	High
)

// String returns a human-readable confidence grade.
func (c Confidence) String() string {
	switch c {
	case Low:
		return "low"
	case Medium:
		return "medium"
	case High:
		return "high"
	default:
		return "unknown"
	}
}

// DeviceInfo describes a candidate device found during detection.
type DeviceInfo struct {
	// Metadata holds transport-specific details such as USB identity.
	Metadata map[string]string
	// Transport names the transport the device was found on.
	Transport string
	// Path is the device path to hand to the transport constructor.
	Path string
	// Name is a human-readable device name.
	Name string
	// Confidence grades how likely this is a CR95HF.
	Confidence Confidence
}

// Options configures a detection run.
type Options struct {
	// Blocklist holds VID:PID pairs that must never be probed.
	Blocklist []string
	// IgnorePaths holds device paths to skip entirely.
	IgnorePaths []string
	// Mode controls how intrusive detection may be.
	Mode Mode
}

// DefaultOptions returns options suitable for most callers: safe
// probing with the default blocklist.
func DefaultOptions() *Options {
	return &Options{
		Mode:      Safe,
		Blocklist: DefaultBlocklist(),
	}
}

// Detector finds CR95HF devices reachable over one transport.
type Detector interface {
	// Transport returns the transport type this detector covers
	Transport() string

	// Detect searches for CR95HF devices
	Detect(ctx context.Context, opts *Options) ([]DeviceInfo, error)
}

var (
	registryMu sync.RWMutex
	registry   []Detector
)

// RegisterDetector adds a detector to the global registry. Detector
// packages call this from init, so importing a detector package is
// what enables it.
func RegisterDetector(d Detector) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = append(registry, d)
}

// Detectors returns a snapshot of the registered detectors.
func Detectors() []Detector {
	registryMu.RLock()
	defer registryMu.RUnlock()

	out := make([]Detector, len(registry))
	copy(out, registry)
	return out
}

// DetectAll runs every registered detector and returns all candidates
// ordered by confidence, best first. A detector that finds nothing or
// cannot run on this platform does not fail the whole run.
func DetectAll(ctx context.Context, opts *Options) ([]DeviceInfo, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	var devices []DeviceInfo
	for _, detector := range Detectors() {
		select {
		case <-ctx.Done():
			return devices, ErrDetectionTimeout
		default:
		}

		found, err := detector.Detect(ctx, opts)
		if err != nil {
			continue
		}
		devices = append(devices, found...)
	}

	if len(devices) == 0 {
		return nil, ErrNoDevicesFound
	}

	sort.SliceStable(devices, func(i, j int) bool {
		return devices[i].Confidence > devices[j].Confidence
	})

	return devices, nil
}
