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

import "testing"

func TestDefaultBlocklistCoversDebugProbes(t *testing.T) {
	t.Parallel()

	// ST-LINK probes sit on the same boards as CR95HF demo firmware
	// and must never receive probe frames.
	blocklist := DefaultBlocklist()
	for _, vidpid := range []string{"0483:3748", "0483:374B", "0483:374E"} {
		if !IsBlocked(vidpid, blocklist) {
			t.Errorf("default blocklist should cover %s", vidpid)
		}
	}
	if IsBlocked("0483:5740", blocklist) {
		t.Error("the plain ST virtual COM port is a CR95HF candidate, not blocked")
	}
}

func TestIsBlocked(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		vidpid    string
		blocklist []string
		expected  bool
	}{
		{
			name:      "exact match",
			vidpid:    "0483:374B",
			blocklist: []string{"0483:374B"},
			expected:  true,
		},
		{
			name:      "case insensitive",
			vidpid:    "0483:374b",
			blocklist: []string{"0483:374B"},
			expected:  true,
		},
		{
			name:      "surrounding whitespace",
			vidpid:    " 0483:374B ",
			blocklist: []string{"0483:374B"},
			expected:  true,
		},
		{
			name:      "not listed",
			vidpid:    "10C4:EA60",
			blocklist: []string{"0483:374B"},
			expected:  false,
		},
		{
			name:      "empty blocklist",
			vidpid:    "0483:374B",
			blocklist: nil,
			expected:  false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsBlocked(tt.vidpid, tt.blocklist); got != tt.expected {
				t.Errorf("IsBlocked(%q, %v) = %v, want %v",
					tt.vidpid, tt.blocklist, got, tt.expected)
			}
		})
	}
}

func TestParseVIDPID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		descriptor string
		expected   string
	}{
		{
			name:       "plain pair",
			descriptor: "0483:374B",
			expected:   "0483:374B",
		},
		{
			name:       "vid pid labels",
			descriptor: "VID:0483 PID:374B",
			expected:   "0483:374B",
		},
		{
			name:       "vendor product labels",
			descriptor: "vendor=0483 product=374b",
			expected:   "0483:374B",
		},
		{
			name:       "equals labels",
			descriptor: "VID=10C4 PID=EA60",
			expected:   "10C4:EA60",
		},
		{
			name:       "not a descriptor",
			descriptor: "ttyUSB0",
			expected:   "",
		},
		{
			name:       "empty",
			descriptor: "",
			expected:   "",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ParseVIDPID(tt.descriptor); got != tt.expected {
				t.Errorf("ParseVIDPID(%q) = %q, want %q", tt.descriptor, got, tt.expected)
			}
		})
	}
}
