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

// Package testing provides canned CR95HF responses and a simulated
// ISO14443-A card for driving the mock transports. Responses are in
// transport form: result code byte followed by the payload.
package testing

// BuildEchoResponse creates the echo answer, a single unframed byte
func BuildEchoResponse() []byte {
	return []byte{0x55}
}

// BuildIDNResponse creates a successful IDN response: device name,
// NUL terminator, two ROM CRC bytes
func BuildIDNResponse() []byte {
	resp := []byte{0x00}
	resp = append(resp, []byte("NFC FS2JAST4\x00")...)
	resp = append(resp, 0x2A, 0xCE)
	return resp
}

// BuildProtocolSelectResponse creates a successful ProtocolSelect response
func BuildProtocolSelectResponse() []byte {
	return []byte{0x00}
}

// BuildWakeResponse creates a SendRecv response carrying an ATQA
func BuildWakeResponse(atqa ...byte) []byte {
	if len(atqa) == 0 {
		atqa = []byte{0x04, 0x00} // MIFARE Classic 1K
	}
	return append([]byte{0x80}, atqa...)
}

// BuildAnticollisionResponse creates a SendRecv response for an
// anticollision round: the four cascade ID bytes plus their BCC
func BuildAnticollisionResponse(idBlock []byte) []byte {
	resp := append([]byte{0x80}, idBlock[:4]...)
	return append(resp, CalculateBCC(idBlock[:4]))
}

// BuildSelectResponse creates a SendRecv response carrying a SAK
func BuildSelectResponse(sak byte) []byte {
	return []byte{0x80, sak}
}

// BuildNoTagResponse creates a SendRecv response for an empty field
func BuildNoTagResponse() []byte {
	return []byte{0x87}
}

// BuildErrorResponse creates a response with an arbitrary result code
func BuildErrorResponse(code byte) []byte {
	return []byte{code}
}

// CalculateBCC returns the XOR check byte over a cascade ID block
func CalculateBCC(idBlock []byte) byte {
	var bcc byte
	for _, b := range idBlock {
		bcc ^= b
	}
	return bcc
}

// Common UIDs for testing
var (
	// TestNTAG213UID is a sample 7-byte NTAG213 UID
	TestNTAG213UID = []byte{0x04, 0xAB, 0xCD, 0xEF, 0x12, 0x34, 0x56}

	// TestMIFARE1KUID is a sample MIFARE Classic 1K UID
	TestMIFARE1KUID = []byte{0x12, 0x34, 0x56, 0x78}

	// TestMIFARE4KUID is a sample MIFARE Classic 4K UID
	TestMIFARE4KUID = []byte{0xAB, 0xCD, 0xEF, 0x01}
)

// Command bytes for reference
const (
	CmdIDN            = 0x01
	CmdProtocolSelect = 0x02
	CmdSendRecv       = 0x04
	CmdIdle           = 0x07
	CmdRdReg          = 0x08
	CmdWrReg          = 0x09
	CmdEcho           = 0x55
)
