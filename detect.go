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
	"errors"
	"fmt"
	"time"
)

// uidBlockLength is one cascade level's anticollision payload: four ID
// bytes plus the check byte.
const uidBlockLength = 5

// CalculateBCC returns the ISO14443-A check byte for one cascade level's
// four ID bytes, the XOR of all four.
func CalculateBCC(id []byte) byte {
	var bcc byte
	for _, b := range id {
		bcc ^= b
	}
	return bcc
}

// DetectTagContext scans for a single ISO14443-A tag using the default
// wake strategy. See DetectTag for the outcome contract.
func (d *Device) DetectTagContext(ctx context.Context) (*DetectedTag, error) {
	return d.DetectTagWithStrategy(ctx, WakeAuto)
}

// DetectTagWithStrategy runs one full discovery pass: wake, anticollision,
// select, cascading to the second level for 7-byte UIDs. Every call starts
// from scratch and no retrying happens here; callers that want persistence
// retry whole passes.
func (d *Device) DetectTagWithStrategy(ctx context.Context, strategy WakeStrategy) (*DetectedTag, error) {
	if d.protocol != ProtocolISO14443A {
		return nil, fmt.Errorf("tag discovery with protocol %s: %w", d.protocol, ErrNotImplemented)
	}

	atqa, err := d.wakeContext(ctx, strategy)
	if err != nil {
		if isNoTagReply(err) {
			return nil, ErrNoTagDetected
		}
		return nil, fmt.Errorf("wake failed: %w", err)
	}

	uid, sak, err := d.resolveUIDContext(ctx)
	if err != nil {
		return nil, err
	}

	tag := &DetectedTag{
		UID:        fmt.Sprintf("%x", uid),
		UIDBytes:   uid,
		ATQA:       atqa[:],
		SAK:        sak,
		Type:       TagTypeFromSAK(sak),
		DetectedAt: time.Now(),
	}
	debugf("detected %s UID %s SAK 0x%02X", tag.Type, tag.UID, sak)
	return tag, nil
}

// wakeContext wakes a tag and returns its ATQA. WakeAuto sends WUPA first
// so halted tags answer too, then falls back to REQA for tags that missed
// the wakeup window.
func (d *Device) wakeContext(ctx context.Context, strategy WakeStrategy) ([2]byte, error) {
	switch strategy {
	case WakeREQAOnly:
		return d.sendWakeContext(ctx, rfREQA)
	case WakeWUPAOnly:
		return d.sendWakeContext(ctx, rfWUPA)
	case WakeAuto:
		fallthrough
	default:
		atqa, err := d.sendWakeContext(ctx, rfWUPA)
		if err == nil {
			return atqa, nil
		}
		if !isNoTagReply(err) {
			return atqa, err
		}
		debugln("WUPA unanswered, trying REQA")
		return d.sendWakeContext(ctx, rfREQA)
	}
}

// sendWakeContext issues a single REQA or WUPA short frame.
func (d *Device) sendWakeContext(ctx context.Context, wakeCmd byte) ([2]byte, error) {
	var atqa [2]byte

	code, data, err := d.sendRecvContext(ctx, []byte{wakeCmd, txShortFrame}, wakeTimeout)
	if err != nil {
		return atqa, err
	}
	if serr := statusError(code); serr != nil {
		return atqa, serr
	}
	if len(data) < 2 {
		return atqa, fmt.Errorf("ATQA is %d bytes, need 2: %w", len(data), ErrInvalidResponse)
	}

	copy(atqa[:], data[:2])
	d.lastATQA = atqa
	d.atqaValid = true
	return atqa, nil
}

// isNoTagReply reports whether err means nothing answered in the RF wait
// window rather than a broken exchange. The transceiver reports silence
// either as an in-band frame-wait timeout or, on some link modes, as a
// transport-level timeout.
func isNoTagReply(err error) bool {
	return errors.Is(err, ErrNoTagDetected) || GetErrorType(err) == ErrorTypeTimeout
}

// resolveUIDContext runs the anticollision cascade for the tag that
// answered the wake. The first cascade level either carries the whole
// 4-byte UID or a cascade tag announcing three UID bytes now and four
// more at level two.
func (d *Device) resolveUIDContext(ctx context.Context) (uid []byte, sak byte, err error) {
	cl1, err := d.anticollisionContext(ctx, rfSelCL1)
	if err != nil {
		return nil, 0, fmt.Errorf("cascade level 1 anticollision: %w", err)
	}
	sak1, err := d.selectContext(ctx, rfSelCL1, cl1)
	if err != nil {
		return nil, 0, fmt.Errorf("cascade level 1 select: %w", err)
	}

	if cl1[0] != rfCascadeTag {
		uid = make([]byte, 4)
		copy(uid, cl1[:4])
		return uid, sak1, nil
	}

	cl2, err := d.anticollisionContext(ctx, rfSelCL2)
	if err != nil {
		return nil, 0, fmt.Errorf("cascade level 2 anticollision: %w", err)
	}
	sak2, err := d.selectContext(ctx, rfSelCL2, cl2)
	if err != nil {
		return nil, 0, fmt.Errorf("cascade level 2 select: %w", err)
	}

	uid = make([]byte, 0, 7)
	uid = append(uid, cl1[1:4]...)
	uid = append(uid, cl2[:4]...)
	return uid, sak2, nil
}

// anticollisionContext requests one cascade level's UID block and returns
// all five bytes, check byte verified but kept because select echoes the
// block exactly as received.
func (d *Device) anticollisionContext(ctx context.Context, selCode byte) ([]byte, error) {
	code, data, err := d.sendRecvContext(ctx, []byte{selCode, rfNVBAnticoll, txStandard}, anticollTimeout)
	if err != nil {
		return nil, err
	}
	if serr := statusError(code); serr != nil {
		return nil, serr
	}
	if len(data) < uidBlockLength {
		return nil, fmt.Errorf("anticollision reply is %d bytes, need %d: %w", len(data), uidBlockLength, ErrInvalidResponse)
	}
	if CalculateBCC(data[:4]) != data[4] {
		return nil, fmt.Errorf("UID check byte mismatch: %w", ErrInvalidResponse)
	}

	block := make([]byte, uidBlockLength)
	copy(block, data[:uidBlockLength])
	return block, nil
}

// selectContext selects one cascade level with the UID block from
// anticollision and returns the SAK.
func (d *Device) selectContext(ctx context.Context, selCode byte, idBlock []byte) (byte, error) {
	args := make([]byte, 0, 3+uidBlockLength)
	args = append(args, selCode, rfNVBSelect)
	args = append(args, idBlock...)
	args = append(args, txStandardCRC)

	code, data, err := d.sendRecvContext(ctx, args, anticollTimeout)
	if err != nil {
		return 0, err
	}
	if serr := statusError(code); serr != nil {
		return 0, serr
	}
	if len(data) < 1 {
		return 0, fmt.Errorf("select reply carries no SAK: %w", ErrInvalidResponse)
	}
	return data[0], nil
}

// HaltContext puts the tag in the field into the HALT state. Per
// ISO14443-3 the tag acknowledges HLTA by staying silent, so a frame-wait
// timeout is success and any reply is a failure.
func (d *Device) HaltContext(ctx context.Context) error {
	if d.protocol != ProtocolISO14443A {
		return fmt.Errorf("halt with protocol %s: %w", d.protocol, ErrNotImplemented)
	}

	code, _, err := d.sendRecvContext(ctx, []byte{rfHLTA, 0x00, txStandardCRC}, wakeTimeout)
	if err != nil {
		if isNoTagReply(err) {
			return nil
		}
		return fmt.Errorf("halt exchange failed: %w", err)
	}
	if code == StatusFrameWaitTimeout {
		return nil
	}
	return fmt.Errorf("tag answered HLTA with result code 0x%02X: %w", code, ErrInvalidResponse)
}

// ScanContext runs one detection cycle with the configured scan strategy
// and records the outcome in scan health tracking. An empty field counts
// as a healthy cycle. With HaltAfterDetect set, the detected tag is put
// to sleep so REQA-only scanning will not report it again.
func (d *Device) ScanContext(ctx context.Context) (*DetectedTag, error) {
	tag, err := d.DetectTagWithStrategy(ctx, d.scanHealth.currentStrategy())
	if err != nil {
		if errors.Is(err, ErrNoTagDetected) {
			d.scanHealth.recordSuccess()
		} else {
			d.scanHealth.recordFailure()
		}
		return nil, err
	}

	d.scanHealth.recordSuccess()
	if d.scanHealth.config.HaltAfterDetect {
		if herr := d.HaltContext(ctx); herr != nil {
			debugf("halt after detect failed: %v", herr)
		}
	}
	return tag, nil
}

// ShouldRetryScan reports whether a continuous scanner should attempt
// another cycle now, honoring the retry policy and delay in the scan
// configuration.
func (d *Device) ShouldRetryScan() bool {
	return d.scanHealth.shouldRetry()
}

// NeedsReinit reports whether enough scan cycles failed in a row that
// callers should run Init again before scanning further.
func (d *Device) NeedsReinit() bool {
	return d.scanHealth.shouldReinit()
}
