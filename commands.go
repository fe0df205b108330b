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

import "fmt"

// CR95HF command codes
const (
	cmdIDN            = 0x01
	cmdProtocolSelect = 0x02
	cmdSendRecv       = 0x04
	cmdIdle           = 0x07
	cmdRdReg          = 0x08
	cmdWrReg          = 0x09
	cmdEcho           = 0x55
)

// Result codes, the first byte of every framed response. Exported because
// Raw returns them unmapped.
const (
	StatusSuccess          byte = 0x00 // Command completed
	StatusDataReady        byte = 0x80 // Response carries received tag data
	StatusInvalidLength    byte = 0x82 // Command length rejected by the device
	StatusInvalidCommand   byte = 0x83 // Command code rejected by the device
	StatusFrameWaitTimeout byte = 0x87 // No tag answered within the RF wait window
	StatusCollision        byte = 0x88 // More than one tag answered
	StatusFramingError     byte = 0x8F // RF framing failure, bad CRC or parity
)

// Protocol identifies an RF protocol for the ProtocolSelect command.
type Protocol byte

// Protocol codes. Selecting ProtocolOff drops the RF field.
const (
	ProtocolOff       Protocol = 0x00
	ProtocolISO15693  Protocol = 0x01
	ProtocolISO14443A Protocol = 0x02
	ProtocolISO14443B Protocol = 0x03
	ProtocolFeliCa    Protocol = 0x04
)

// String returns the protocol name.
func (p Protocol) String() string {
	switch p {
	case ProtocolOff:
		return "off"
	case ProtocolISO15693:
		return "ISO15693"
	case ProtocolISO14443A:
		return "ISO14443-A"
	case ProtocolISO14443B:
		return "ISO14443-B"
	case ProtocolFeliCa:
		return "FeliCa"
	default:
		return fmt.Sprintf("Protocol(0x%02X)", byte(p))
	}
}

// ISO14443-A command bytes carried inside SendRecv payloads
const (
	rfREQA        = 0x26
	rfWUPA        = 0x52
	rfHLTA        = 0x50
	rfCascadeTag  = 0x88 // First UID byte when another cascade level follows
	rfSelCL1      = 0x93
	rfSelCL2      = 0x95
	rfSelCL3      = 0x97 // Triple-size UIDs, defined but never issued
	rfNVBAnticoll = 0x20 // NVB for a full anticollision round
	rfNVBSelect   = 0x70 // NVB for select with a complete UID part
)

// SendRecv transmission flag byte, appended after the TX data
const (
	txShortFrame  = 0x07 // 7-bit short frame, REQA and WUPA only
	txStandard    = 0x08 // Standard frame with parity
	txStandardCRC = 0x28 // Standard frame with parity and appended CRC
)

// statusError maps a result code to a driver error. StatusSuccess and
// StatusDataReady map to nil.
func statusError(code byte) error {
	switch code {
	case StatusSuccess, StatusDataReady:
		return nil
	case StatusFrameWaitTimeout:
		return ErrNoTagDetected
	case StatusCollision:
		return ErrCollisionDetected
	case StatusFramingError:
		return fmt.Errorf("result code 0x%02X: %w", code, ErrFrameCorrupted)
	case StatusInvalidLength:
		return fmt.Errorf("command length rejected: %w", ErrInvalidParameter)
	case StatusInvalidCommand:
		return fmt.Errorf("command code rejected: %w", ErrInvalidParameter)
	default:
		return fmt.Errorf("unexpected result code 0x%02X: %w", code, ErrInvalidResponse)
	}
}
