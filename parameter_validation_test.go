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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContinuousScanConfigValidate(t *testing.T) {
	t.Parallel()

	valid := func() *ContinuousScanConfig {
		return DefaultContinuousScanConfig()
	}

	tests := []struct {
		mutate  func(*ContinuousScanConfig)
		name    string
		wantErr bool
	}{
		{
			name:   "Defaults_Are_Valid",
			mutate: func(*ContinuousScanConfig) {},
		},
		{
			name:   "All_Strategies_Valid",
			mutate: func(c *ContinuousScanConfig) { c.Strategy = WakeWUPAOnly },
		},
		{
			name:    "Unknown_Strategy",
			mutate:  func(c *ContinuousScanConfig) { c.Strategy = "hybrid" },
			wantErr: true,
		},
		{
			name:    "Zero_Scan_Interval",
			mutate:  func(c *ContinuousScanConfig) { c.ScanInterval = 0 },
			wantErr: true,
		},
		{
			name:    "Negative_Scan_Interval",
			mutate:  func(c *ContinuousScanConfig) { c.ScanInterval = -time.Second },
			wantErr: true,
		},
		{
			name:    "Negative_Stabilization_Delay",
			mutate:  func(c *ContinuousScanConfig) { c.StabilizationDelay = -1 },
			wantErr: true,
		},
		{
			name:    "Negative_Retry_Delay",
			mutate:  func(c *ContinuousScanConfig) { c.RetryDelay = -1 },
			wantErr: true,
		},
		{
			name:    "Negative_Max_Retries",
			mutate:  func(c *ContinuousScanConfig) { c.MaxRetries = -1 },
			wantErr: true,
		},
		{
			name:    "Negative_Reinit_Threshold",
			mutate:  func(c *ContinuousScanConfig) { c.ReinitThreshold = -1 },
			wantErr: true,
		},
		{
			name:   "Zero_Reinit_Threshold_Disables_Reinit",
			mutate: func(c *ContinuousScanConfig) { c.ReinitThreshold = 0 },
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			config := valid()
			tt.mutate(config)

			err := config.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidParameter)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestContinuousScanConfigClone(t *testing.T) {
	t.Parallel()

	original := DefaultContinuousScanConfig()
	clone := original.Clone()

	clone.Strategy = WakeREQAOnly
	clone.MaxRetries = 99

	assert.Equal(t, WakeAuto, original.Strategy)
	assert.NotEqual(t, 99, original.MaxRetries)
}

func TestProtocolString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		want  string
		proto Protocol
	}{
		{proto: ProtocolOff, want: "off"},
		{proto: ProtocolISO15693, want: "ISO15693"},
		{proto: ProtocolISO14443A, want: "ISO14443-A"},
		{proto: ProtocolISO14443B, want: "ISO14443-B"},
		{proto: ProtocolFeliCa, want: "FeliCa"},
		{proto: Protocol(0x7F), want: "Protocol(0x7F)"},
	}

	for _, tt := range tests {
		tt := tt
		assert.Equal(t, tt.want, tt.proto.String())
	}
}

func TestStatusErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		want error
		name string
		code byte
	}{
		{name: "Success", code: StatusSuccess, want: nil},
		{name: "Data_Ready", code: StatusDataReady, want: nil},
		{name: "Frame_Wait_Timeout", code: StatusFrameWaitTimeout, want: ErrNoTagDetected},
		{name: "Collision", code: StatusCollision, want: ErrCollisionDetected},
		{name: "Framing_Error", code: StatusFramingError, want: ErrFrameCorrupted},
		{name: "Invalid_Length", code: StatusInvalidLength, want: ErrInvalidParameter},
		{name: "Invalid_Command", code: StatusInvalidCommand, want: ErrInvalidParameter},
		{name: "Unknown_Code", code: 0x42, want: ErrInvalidResponse},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := statusError(tt.code)
			if tt.want == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestValidationConfigDefaults(t *testing.T) {
	t.Parallel()

	config := DefaultValidationConfig()
	require.NotNil(t, config)
	assert.Positive(t, config.DetectRetries)
	assert.Positive(t, config.RequiredMatches)
	assert.Positive(t, config.RetryDelay)
}
