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
)

func TestTagTypeFromSAK(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want TagType
		sak  byte
	}{
		{name: "Ultralight_NTAG", sak: 0x00, want: TagTypeUltralight},
		{name: "Classic_1K", sak: 0x08, want: TagTypeClassic1K},
		{name: "Mini", sak: 0x09, want: TagTypeMini},
		{name: "Plus_2K", sak: 0x10, want: TagTypePlus2K},
		{name: "Plus_4K", sak: 0x11, want: TagTypePlus4K},
		{name: "Classic_4K", sak: 0x18, want: TagTypeClassic4K},
		{name: "Plus_DESFire", sak: 0x20, want: TagTypePlusDESFire},
		{name: "JCOP_SmartMX", sak: 0x28, want: TagTypeJCOP},
		{name: "Classic_4K_Emulated", sak: 0x38, want: TagTypeClassic4KEmu},
		{name: "Classic_1K_Infineon", sak: 0x88, want: TagTypeClassic1KInf},
		{name: "ProX", sak: 0x98, want: TagTypeProX},
		{name: "Unknown_SAK", sak: 0x42, want: TagTypeUnknown},
		{name: "Unknown_SAK_High", sak: 0xFF, want: TagTypeUnknown},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, TagTypeFromSAK(tt.sak))
		})
	}
}

func TestDetectedTagString(t *testing.T) {
	t.Parallel()

	tag := &DetectedTag{
		UID:        "0401029a3b1c4d",
		UIDBytes:   []byte{0x04, 0x01, 0x02, 0x9A, 0x3B, 0x1C, 0x4D},
		ATQA:       []byte{0x04, 0x00},
		SAK:        0x08,
		Type:       TagTypeClassic1K,
		DetectedAt: time.Now(),
	}

	s := tag.String()
	assert.Contains(t, s, "0401029a3b1c4d")
	assert.Contains(t, s, string(TagTypeClassic1K))
}

func TestCalculateBCC(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		id   []byte
		want byte
	}{
		{name: "Cascade_Tag_Block", id: []byte{0x88, 0x04, 0x01, 0x02}, want: 0x8F},
		{name: "Single_Size_UID", id: []byte{0x12, 0x34, 0x56, 0x78}, want: 0x08},
		{name: "Second_Level_Block", id: []byte{0x9A, 0x3B, 0x1C, 0x4D}, want: 0xF0},
		{name: "All_Zero", id: []byte{0x00, 0x00, 0x00, 0x00}, want: 0x00},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, CalculateBCC(tt.id))
		})
	}
}
