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
	"fmt"
	"time"
)

// TagType identifies the tag family derived from the SAK byte.
type TagType string

// Tag families distinguishable by SAK.
const (
	TagTypeUnknown         TagType = "Unknown"
	TagTypeUltralight      TagType = "MIFARE Ultralight/NTAG"
	TagTypeClassic1K       TagType = "MIFARE Classic 1K"
	TagTypeMini            TagType = "MIFARE Mini"
	TagTypeClassic4K       TagType = "MIFARE Classic 4K"
	TagTypePlus2K          TagType = "MIFARE Plus 2K"
	TagTypePlus4K          TagType = "MIFARE Plus 4K"
	TagTypePlusDESFire     TagType = "MIFARE Plus/DESFire"
	TagTypeJCOP            TagType = "JCOP/SmartMX"
	TagTypeClassic4KEmu    TagType = "MIFARE Classic 4K (emu)"
	TagTypeClassic1KInf    TagType = "MIFARE Classic 1K (Infineon)"
	TagTypeProX            TagType = "MIFARE ProX"
)

// SAK values for the families above
const (
	sakUltralight   = 0x00
	sakClassic1K    = 0x08
	sakMini         = 0x09
	sakClassic4K    = 0x18
	sakPlus2K       = 0x10
	sakPlus4K       = 0x11
	sakPlusDESFire  = 0x20
	sakJCOP         = 0x28
	sakClassic4KEmu = 0x38
	sakClassic1KInf = 0x88
	sakProX         = 0x98
)

// TagTypeFromSAK maps a select acknowledge byte to the tag family.
func TagTypeFromSAK(sak byte) TagType {
	switch sak {
	case sakUltralight:
		return TagTypeUltralight
	case sakClassic1K:
		return TagTypeClassic1K
	case sakMini:
		return TagTypeMini
	case sakClassic4K:
		return TagTypeClassic4K
	case sakPlus2K:
		return TagTypePlus2K
	case sakPlus4K:
		return TagTypePlus4K
	case sakPlusDESFire:
		return TagTypePlusDESFire
	case sakJCOP:
		return TagTypeJCOP
	case sakClassic4KEmu:
		return TagTypeClassic4KEmu
	case sakClassic1KInf:
		return TagTypeClassic1KInf
	case sakProX:
		return TagTypeProX
	default:
		return TagTypeUnknown
	}
}

// DetectedTag holds the result of one successful discovery pass.
type DetectedTag struct {
	// DetectedAt is when the tag was selected.
	DetectedAt time.Time
	// UID is the full UID as lowercase hex.
	UID string
	// Type is the tag family derived from SAK.
	Type TagType
	// UIDBytes is the full UID, 4 bytes for single-size and 7 bytes for
	// double-size UIDs.
	UIDBytes []byte
	// ATQA is the two answer-to-request bytes from the wake.
	ATQA []byte
	// SAK is the select acknowledge of the last cascade level.
	SAK byte
}

// String renders the tag family and UID.
func (t *DetectedTag) String() string {
	return fmt.Sprintf("%s %s", t.Type, t.UID)
}
