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

// Package frame provides frame construction and parsing for CR95HF communication
package frame

// Command frame layout - [command] [length] [payload]
const (
	HeaderLength     = 2  // Command byte + length byte
	MaxFrameLength   = 32 // CR95HF internal frame buffer size
	MaxPayloadLength = MaxFrameLength - HeaderLength
)

// Response frame layout - [code] [length] [payload]
const (
	ResponseHeaderLength = 2 // Result code byte + length byte
)

// Echo exchange - single unframed byte in both directions
const (
	EchoByte = 0x55 // Sent bare, answered bare, no length byte
)
