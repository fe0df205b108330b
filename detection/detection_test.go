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

package detection

import (
	"context"
	"errors"
	"testing"
)

type fakeDetector struct {
	err       error
	transport string
	devices   []DeviceInfo
}

func (f *fakeDetector) Transport() string { return f.transport }

func (f *fakeDetector) Detect(_ context.Context, _ *Options) ([]DeviceInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.devices, nil
}

// Not parallel: the registry is package-global state shared by every
// DetectAll call in this test binary.
func TestDetectAll(t *testing.T) {
	ctx := context.Background()

	// Nothing registered yet, so a run finds nothing
	if _, err := DetectAll(ctx, nil); !errors.Is(err, ErrNoDevicesFound) {
		t.Fatalf("expected ErrNoDevicesFound with empty registry, got %v", err)
	}

	RegisterDetector(&fakeDetector{
		transport: "alpha",
		devices: []DeviceInfo{
			{Transport: "alpha", Path: "/dev/alpha1", Confidence: Low},
			{Transport: "alpha", Path: "/dev/alpha0", Confidence: Medium},
		},
	})
	RegisterDetector(&fakeDetector{transport: "broken", err: ErrUnsupportedPlatform})

	devices, err := DetectAll(ctx, nil)
	if err != nil {
		t.Fatalf("DetectAll() error = %v", err)
	}
	if len(devices) != 2 {
		t.Fatalf("expected 2 devices, got %d", len(devices))
	}
	if devices[0].Confidence != Medium || devices[1].Confidence != Low {
		t.Errorf("devices not ordered by confidence: got %v then %v",
			devices[0].Confidence, devices[1].Confidence)
	}

	RegisterDetector(&fakeDetector{
		transport: "beta",
		devices: []DeviceInfo{
			{Transport: "beta", Path: "/dev/beta0", Confidence: High},
		},
	})

	devices, err = DetectAll(ctx, nil)
	if err != nil {
		t.Fatalf("DetectAll() error = %v", err)
	}
	if len(devices) != 3 {
		t.Fatalf("expected 3 devices, got %d", len(devices))
	}
	if devices[0].Path != "/dev/beta0" {
		t.Errorf("expected the high confidence device first, got %q", devices[0].Path)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := DetectAll(cancelled, nil); !errors.Is(err, ErrDetectionTimeout) {
		t.Errorf("expected ErrDetectionTimeout with cancelled context, got %v", err)
	}
}

func TestDetectorsSnapshot(t *testing.T) {
	before := len(Detectors())
	RegisterDetector(&fakeDetector{transport: "gamma"})

	after := Detectors()
	if len(after) != before+1 {
		t.Fatalf("expected %d detectors after registration, got %d", before+1, len(after))
	}
}

func TestDefaultOptions(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	if opts.Mode != Safe {
		t.Errorf("DefaultOptions().Mode = %v, want %v", opts.Mode, Safe)
	}
	if opts.Blocklist == nil {
		t.Error("DefaultOptions().Blocklist should not be nil")
	}
}

func TestConfidenceString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		expected   string
		confidence Confidence
	}{
		{expected: "low", confidence: Low},
		{expected: "medium", confidence: Medium},
		{expected: "high", confidence: High},
		{expected: "unknown", confidence: Confidence(42)},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.expected, func(t *testing.T) {
			t.Parallel()
			if got := tt.confidence.String(); got != tt.expected {
				t.Errorf("Confidence(%d).String() = %q, want %q", tt.confidence, got, tt.expected)
			}
		})
	}
}
