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

package testing

import "bytes"

// RF request codes understood by the simulator
const (
	rfREQA     = 0x26
	rfWUPA     = 0x52
	rfHLTA     = 0x50
	rfSelCL1   = 0x93
	rfSelCL2   = 0x95
	nvbAnti    = 0x20
	nvbSelect  = 0x70
	cascadeTag = 0x88
	sakCascade = 0x04 // UID not complete, another cascade level follows
)

// VirtualCard simulates one ISO14443-A card answering the RF dialogue of
// tag discovery. Feed it the payload of each SendRecv command and it
// produces the transport-level response a CR95HF would return with that
// card in the field.
//
// Halted is simplified to what scanning observes: a halted card ignores
// REQA but still answers WUPA and the selection rounds that follow.
type VirtualCard struct {
	Type    string
	UID     []byte // 4 or 7 bytes
	ATQA    []byte
	SAK     byte
	Present bool
	Halted  bool
}

// NewVirtualMIFARE1K creates a simulated MIFARE Classic 1K card
func NewVirtualMIFARE1K(uid []byte) *VirtualCard {
	if uid == nil {
		uid = TestMIFARE1KUID
	}
	return &VirtualCard{
		Type:    "MIFARE1K",
		UID:     uid,
		ATQA:    []byte{0x04, 0x00},
		SAK:     0x08,
		Present: true,
	}
}

// NewVirtualNTAG213 creates a simulated NTAG213 card with a 7-byte UID
func NewVirtualNTAG213(uid []byte) *VirtualCard {
	if uid == nil {
		uid = TestNTAG213UID
	}
	return &VirtualCard{
		Type:    "NTAG213",
		UID:     uid,
		ATQA:    []byte{0x44, 0x00},
		SAK:     0x00,
		Present: true,
	}
}

// Remove takes the card out of the field
func (v *VirtualCard) Remove() {
	v.Present = false
}

// Insert puts the card back into the field. Losing field power clears
// the HALT state.
func (v *VirtualCard) Insert() {
	v.Present = true
	v.Halted = false
}

// Respond answers one SendRecv payload: the request bytes followed by
// the transmission flags byte
func (v *VirtualCard) Respond(args []byte) []byte {
	if len(args) < 2 || !v.Present {
		return BuildNoTagResponse()
	}

	switch args[0] {
	case rfREQA:
		if v.Halted {
			return BuildNoTagResponse()
		}
		return BuildWakeResponse(v.ATQA...)

	case rfWUPA:
		return BuildWakeResponse(v.ATQA...)

	case rfHLTA:
		v.Halted = true
		// The card acknowledges by staying silent
		return BuildNoTagResponse()

	case rfSelCL1:
		return v.respondCascade(args, v.idBlockCL1(), v.sakCL1())

	case rfSelCL2:
		if len(v.UID) != 7 {
			return BuildNoTagResponse()
		}
		return v.respondCascade(args, v.idBlockCL2(), v.SAK)

	default:
		return BuildNoTagResponse()
	}
}

// respondCascade answers the anticollision or select round of one
// cascade level
func (v *VirtualCard) respondCascade(args, idBlock []byte, sak byte) []byte {
	switch args[1] {
	case nvbAnti:
		return BuildAnticollisionResponse(idBlock)
	case nvbSelect:
		// A select naming a different card draws no answer
		if len(args) < 7 || !bytes.Equal(args[2:6], idBlock) || args[6] != CalculateBCC(idBlock) {
			return BuildNoTagResponse()
		}
		return BuildSelectResponse(sak)
	default:
		return BuildNoTagResponse()
	}
}

func (v *VirtualCard) idBlockCL1() []byte {
	if len(v.UID) == 7 {
		return append([]byte{cascadeTag}, v.UID[:3]...)
	}
	return v.UID[:4]
}

func (v *VirtualCard) idBlockCL2() []byte {
	return v.UID[3:7]
}

func (v *VirtualCard) sakCL1() byte {
	if len(v.UID) == 7 {
		return sakCascade
	}
	return v.SAK
}

// DiscoverySequence returns the SendRecv responses of one full discovery
// of this card in protocol order, for preloading mock response queues
func (v *VirtualCard) DiscoverySequence() [][]byte {
	if len(v.UID) == 7 {
		return [][]byte{
			BuildWakeResponse(v.ATQA...),
			BuildAnticollisionResponse(v.idBlockCL1()),
			BuildSelectResponse(sakCascade),
			BuildAnticollisionResponse(v.idBlockCL2()),
			BuildSelectResponse(v.SAK),
		}
	}
	return [][]byte{
		BuildWakeResponse(v.ATQA...),
		BuildAnticollisionResponse(v.idBlockCL1()),
		BuildSelectResponse(v.SAK),
	}
}
