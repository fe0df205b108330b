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
	"context"
)

// Echo probes the device with the echo command
func (d *Device) Echo() error {
	return d.EchoContext(context.Background())
}

// ReadIdentification queries the device name and ROM CRC with IDN
func (d *Device) ReadIdentification() (*Identification, error) {
	return d.ReadIdentificationContext(context.Background())
}

// SelectProtocol configures the RF protocol
func (d *Device) SelectProtocol(proto Protocol) error {
	return d.SelectProtocolContext(context.Background(), proto)
}

// FieldOff drops the RF field
func (d *Device) FieldOff() error {
	return d.FieldOffContext(context.Background())
}

// Raw sends an arbitrary command and returns the raw response, result code
// first. Intended for the documented commands this driver does not wrap:
//
//	Idle  (0x07): low-power wait states, parameters per the datasheet
//	RdReg (0x08): analog register reads
//	WrReg (0x09): analog register writes
//
// The caller owns the command semantics; the driver only frames the bytes
// and bounds the exchange with the configured timeout.
func (d *Device) Raw(cmd byte, args []byte) ([]byte, error) {
	return d.RawContext(context.Background(), cmd, args)
}

// DetectTag scans for a single ISO14443-A tag and resolves its full UID.
// Returns ErrNoTagDetected when no tag is in the field, which callers
// should treat as a normal outcome rather than a fault.
func (d *Device) DetectTag() (*DetectedTag, error) {
	return d.DetectTagContext(context.Background())
}

// Halt sends HLTA to the tag in the field. A halted tag stays silent to
// REQA and only answers WUPA, so it will not be rediscovered by REQA-only
// scanning until it leaves and re-enters the field.
func (d *Device) Halt() error {
	return d.HaltContext(context.Background())
}

// Scan runs ScanContext with a background context.
func (d *Device) Scan() (*DetectedTag, error) {
	return d.ScanContext(context.Background())
}

// SelfTest exercises the command set and the RF path and reports what
// works. It leaves the device initialized for ISO14443-A on success.
func (d *Device) SelfTest() (*SelfTestReport, error) {
	return d.SelfTestContext(context.Background())
}

// FieldLevel estimates RF field strength on a coarse 0 to 100 scale using
// whatever is currently in the field.
func (d *Device) FieldLevel() (int, error) {
	return d.FieldLevelContext(context.Background())
}

// AntennaOK reports whether the antenna produces a usable field
func (d *Device) AntennaOK() (bool, error) {
	return d.AntennaOKContext(context.Background())
}
