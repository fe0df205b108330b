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
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
)

// minIdentificationLength is the shortest IDN payload a real device sends:
// device name plus the two ROM CRC bytes.
const minIdentificationLength = 10

// Identification holds the device name and ROM CRC reported by IDN.
type Identification struct {
	// DeviceName is the ASCII name, such as "NFC FS2JAST4".
	DeviceName string
	// ROMCRC is the two-byte ROM checksum.
	ROMCRC uint16
}

// String renders the identification in one line.
func (i *Identification) String() string {
	return fmt.Sprintf("%s (ROM CRC %04X)", i.DeviceName, i.ROMCRC)
}

// parseIdentification decodes an IDN payload: NUL-terminated ASCII name
// followed by two ROM CRC bytes. Callers validate the minimum length.
func parseIdentification(data []byte) *Identification {
	crc := binary.BigEndian.Uint16(data[len(data)-2:])

	name := data[: len(data)-2 : len(data)-2]
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}

	return &Identification{
		DeviceName: string(name),
		ROMCRC:     crc,
	}
}

// ReadIdentificationContext queries the device with IDN and refreshes the
// cached identification. The payload must report success and carry at
// least the name and ROM CRC.
func (d *Device) ReadIdentificationContext(ctx context.Context) (*Identification, error) {
	resp, err := d.exchangeContext(ctx, cmdIDN, nil, idnTimeout)
	if err != nil {
		return nil, fmt.Errorf("identification exchange failed: %w", err)
	}

	code, data, err := splitResponse(resp)
	if err != nil {
		return nil, err
	}
	if code != StatusSuccess {
		if serr := statusError(code); serr != nil {
			return nil, fmt.Errorf("identification query: %w", serr)
		}
		return nil, fmt.Errorf("identification query returned result code 0x%02X: %w", code, ErrInvalidResponse)
	}
	if len(data) < minIdentificationLength {
		return nil, fmt.Errorf("identification payload is %d bytes, need at least %d: %w",
			len(data), minIdentificationLength, ErrInvalidResponse)
	}

	ident := parseIdentification(data)
	d.ident = ident
	return ident, nil
}
