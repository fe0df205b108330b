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
	"fmt"
	"time"
)

// Response windows per command. The CR95HF answers well inside these on a
// healthy link; anything slower is treated as a failed exchange.
const (
	echoTimeout           = 50 * time.Millisecond
	idnTimeout            = 100 * time.Millisecond
	protocolSelectTimeout = 50 * time.Millisecond
	wakeTimeout           = 20 * time.Millisecond
	anticollTimeout       = 50 * time.Millisecond
)

// exchangeContext sends one command bounded by the given response window
// and the caller's context, whichever ends first.
func (d *Device) exchangeContext(ctx context.Context, cmd byte, args []byte, timeout time.Duration) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("command 0x%02X not sent: %w", cmd, ctx.Err())
	default:
	}

	cmdCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return AsTransportContext(d.transport).SendCommandContext(cmdCtx, cmd, args)
}

// splitResponse separates the result code byte from the payload.
func splitResponse(resp []byte) (code byte, data []byte, err error) {
	if len(resp) == 0 {
		return 0, nil, fmt.Errorf("empty response: %w", ErrInvalidResponse)
	}
	return resp[0], resp[1:], nil
}

// sendRecvContext runs one RF exchange through SendRecv and returns the
// result code and received tag data.
func (d *Device) sendRecvContext(ctx context.Context, data []byte, timeout time.Duration) (byte, []byte, error) {
	resp, err := d.exchangeContext(ctx, cmdSendRecv, data, timeout)
	if err != nil {
		return 0, nil, err
	}
	return splitResponse(resp)
}

// EchoContext probes the device with the echo command. A reachable CR95HF
// answers with the echo byte itself.
func (d *Device) EchoContext(ctx context.Context) error {
	resp, err := d.exchangeContext(ctx, cmdEcho, nil, echoTimeout)
	if err != nil {
		return fmt.Errorf("echo exchange failed: %w", err)
	}
	if len(resp) != 1 || resp[0] != cmdEcho {
		return fmt.Errorf("echo returned % X: %w", resp, ErrInvalidResponse)
	}
	return nil
}

// InitContext runs the initialization handshake: echo probe, identification
// read, then ISO14443-A protocol selection. Each step must succeed before
// the next runs, and any failure leaves the device uninitialized.
func (d *Device) InitContext(ctx context.Context) error {
	d.ident = nil
	d.protocol = ProtocolOff
	d.atqaValid = false

	if err := d.EchoContext(ctx); err != nil {
		return fmt.Errorf("device unreachable: %w", err)
	}

	ident, err := d.ReadIdentificationContext(ctx)
	if err != nil {
		return fmt.Errorf("identification failed: %w", err)
	}
	d.ident = ident

	if err := d.SelectProtocolContext(ctx, ProtocolISO14443A); err != nil {
		return fmt.Errorf("protocol selection failed: %w", err)
	}

	d.scanHealth.recordSuccess()
	debugf("initialized %q (ROM CRC %04X)", ident.DeviceName, ident.ROMCRC)
	return nil
}

// SelectProtocolContext configures the RF protocol. Selecting ProtocolOff
// drops the field. Discovery requires ProtocolISO14443A.
func (d *Device) SelectProtocolContext(ctx context.Context, proto Protocol) error {
	resp, err := d.exchangeContext(ctx, cmdProtocolSelect, []byte{byte(proto), 0x00}, protocolSelectTimeout)
	if err != nil {
		return fmt.Errorf("protocol select exchange failed: %w", err)
	}

	code, _, err := splitResponse(resp)
	if err != nil {
		return err
	}
	if code != StatusSuccess {
		if serr := statusError(code); serr != nil {
			return fmt.Errorf("protocol select %s: %w", proto, serr)
		}
		return fmt.Errorf("protocol select %s returned result code 0x%02X: %w", proto, code, ErrInvalidResponse)
	}

	d.protocol = proto
	return nil
}

// FieldOffContext drops the RF field by selecting ProtocolOff.
func (d *Device) FieldOffContext(ctx context.Context) error {
	return d.SelectProtocolContext(ctx, ProtocolOff)
}

// RawContext sends an arbitrary command and returns the raw response,
// result code first. Framing and timing are handled, semantics are the
// caller's. This is the escape hatch for Idle, RdReg and WrReg.
func (d *Device) RawContext(ctx context.Context, cmd byte, args []byte) ([]byte, error) {
	return d.exchangeContext(ctx, cmd, args, d.config.Timeout)
}
