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

// Package spi provides SPI transport implementation for CR95HF
package spi

import (
	"context"
	"fmt"
	"sync"
	"time"

	cr95hf "github.com/ZaparooProject/go-cr95hf"
	"github.com/ZaparooProject/go-cr95hf/internal/frame"
	"github.com/ZaparooProject/go-cr95hf/internal/transport"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

const (
	// Control bytes that open every SPI transaction.
	ctrlSend = 0x00 // Host sends a command frame
	ctrlRead = 0x02 // Host reads the response frame
	ctrlPoll = 0x03 // Host polls the flags register

	// Flags register bit: a response is ready to read.
	flagDataReady = 0x08

	// Max clock frequency (2 MHz).
	maxClockFreq = 2 * physic.MegaHertz

	// Default response timeout when the caller supplies no deadline.
	defaultTimeout = 100 * time.Millisecond
)

// Transport implements the cr95hf.Transport interface for SPI communication
type Transport struct {
	port     spi.PortCloser
	conn     spi.Conn
	portName string
	timeout  time.Duration
	mu       sync.Mutex
}

// New creates a new SPI transport for the CR95HF on the given SPI port.
// The bus is configured as mode 0 at up to 2 MHz.
func New(portName string) (*Transport, error) {
	// Initialize host
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}

	port, err := spireg.Open(portName)
	if err != nil {
		return nil, fmt.Errorf("failed to open SPI port %s: %w", portName, err)
	}

	conn, err := port.Connect(maxClockFreq, spi.Mode0, 8)
	if err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("failed to configure SPI port %s: %w", portName, err)
	}

	return &Transport{
		port:     port,
		conn:     conn,
		portName: portName,
		timeout:  defaultTimeout,
	}, nil
}

// SendCommand sends a command to the CR95HF and waits for the response.
// The returned slice starts with the result code byte followed by the
// payload. The echo command is exchanged as a single byte.
func (t *Transport) SendCommand(cmd byte, args []byte) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.exchangeLocked(cmd, args, t.timeout)
}

// SendCommandContext sends a command to the CR95HF with context support.
// A context deadline replaces the configured response timeout for this
// exchange, and cancellation interrupts the wait immediately.
func (t *Transport) SendCommandContext(ctx context.Context, cmd byte, args []byte) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("context cancelled before sending command: %w", ctx.Err())
	default:
	}

	type result struct {
		err  error
		data []byte
	}
	resultChan := make(chan result, 1)

	go func() {
		t.mu.Lock()
		defer t.mu.Unlock()

		budget := t.timeout
		if deadline, ok := ctx.Deadline(); ok {
			budget = time.Until(deadline)
		}

		data, err := t.exchangeLocked(cmd, args, budget)
		resultChan <- result{err: err, data: data}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("context cancelled while waiting for command response: %w", ctx.Err())
	case res := <-resultChan:
		return res.data, res.err
	}
}

// exchangeLocked performs one command/response transaction. Callers must
// hold t.mu.
func (t *Transport) exchangeLocked(cmd byte, args []byte, timeout time.Duration) ([]byte, error) {
	if t.conn == nil {
		return nil, cr95hf.NewTransportNotReadyError("SendCommand", t.portName)
	}

	if cmd == frame.EchoByte {
		return t.echoLocked(timeout)
	}

	frm, err := frame.Build(cmd, args)
	if err != nil {
		return nil, err
	}

	if err := t.sendFrame(frm); err != nil {
		return nil, err
	}
	if err := t.waitReady(timeout); err != nil {
		return nil, err
	}

	resp, err := t.readResponse()
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, 1+len(resp.Data))
	out = append(out, resp.Code)
	out = append(out, resp.Data...)
	return out, nil
}

// echoLocked exchanges the echo byte. The reply is the bare echo byte
// with no length, so the read transaction only needs two clocks.
func (t *Transport) echoLocked(timeout time.Duration) ([]byte, error) {
	w := frame.GetSmallBuffer(2)
	defer frame.PutBuffer(w)

	w[0], w[1] = ctrlSend, frame.EchoByte
	if err := t.conn.Tx(w, nil); err != nil {
		return nil, fmt.Errorf("failed to send echo byte: %w", err)
	}

	if err := t.waitReady(timeout); err != nil {
		return nil, err
	}

	rw := frame.GetSmallBuffer(2)
	defer frame.PutBuffer(rw)
	rr := frame.GetSmallBuffer(2)
	defer frame.PutBuffer(rr)

	rw[0], rw[1] = ctrlRead, 0x00
	if err := t.conn.Tx(rw, rr); err != nil {
		return nil, fmt.Errorf("failed to read echo byte: %w", err)
	}

	if rr[1] != frame.EchoByte {
		return nil, fmt.Errorf("echo returned 0x%02X instead of 0x%02X: %w",
			rr[1], frame.EchoByte, cr95hf.ErrInvalidResponse)
	}

	return []byte{frame.EchoByte}, nil
}

// sendFrame clocks out a command frame behind the send control byte.
func (t *Transport) sendFrame(frm []byte) error {
	buf := frame.GetBuffer(1 + len(frm))
	defer frame.PutBuffer(buf)

	buf[0] = ctrlSend
	copy(buf[1:], frm)

	if err := t.conn.Tx(buf, nil); err != nil {
		return fmt.Errorf("failed to send SPI frame: %w", err)
	}
	return nil
}

// waitReady polls the flags register until the response-ready bit comes
// up or the timeout budget runs out.
func (t *Transport) waitReady(timeout time.Duration) error {
	_, err := transport.TimeoutRetry(timeout, func() (bool, bool, error) {
		ready, pollErr := t.pollReady()
		if pollErr != nil {
			return false, false, pollErr
		}
		return ready, !ready, nil
	})
	if err != nil {
		if cr95hf.GetErrorType(err) == cr95hf.ErrorTypeTimeout {
			return cr95hf.NewTimeoutError("waitReady", t.portName)
		}
		return err
	}
	return nil
}

// pollReady runs a single flags-register poll transaction.
func (t *Transport) pollReady() (bool, error) {
	w := frame.GetSmallBuffer(2)
	defer frame.PutBuffer(w)
	r := frame.GetSmallBuffer(2)
	defer frame.PutBuffer(r)

	w[0], w[1] = ctrlPoll, 0x00
	if err := t.conn.Tx(w, r); err != nil {
		return false, fmt.Errorf("SPI flags poll failed: %w", err)
	}

	return r[1]&flagDataReady != 0, nil
}

// readResponse reads the response behind the read control byte. The
// CR95HF replays the response from its first byte on every read
// transaction, so one full-sized transfer always captures the whole
// frame.
func (t *Transport) readResponse() (*frame.Response, error) {
	size := 1 + frame.ResponseHeaderLength + frame.MaxPayloadLength

	w := frame.GetBuffer(size)
	defer frame.PutBuffer(w)
	r := frame.GetBuffer(size)
	defer frame.PutBuffer(r)

	for i := range w {
		w[i] = 0x00
	}
	w[0] = ctrlRead

	if err := t.conn.Tx(w, r); err != nil {
		return nil, fmt.Errorf("SPI response read failed: %w", err)
	}

	return frame.ParseResponse(r[1:], "readResponse", t.portName)
}

// SetTimeout sets the response timeout for subsequent commands. An
// exchange already in flight keeps the timeout it started with.
func (t *Transport) SetTimeout(timeout time.Duration) error {
	t.mu.Lock()
	t.timeout = timeout
	t.mu.Unlock()
	return nil
}

// Close closes the SPI port
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.conn = nil
	if t.port == nil {
		return nil
	}

	err := t.port.Close()
	t.port = nil
	if err != nil {
		return fmt.Errorf("failed to close SPI port %s: %w", t.portName, err)
	}
	return nil
}

// IsConnected returns true if the transport is connected
func (t *Transport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn != nil
}

// Type returns the transport type
func (*Transport) Type() cr95hf.TransportType {
	return cr95hf.TransportSPI
}

// HasCapability reports transport capabilities. SPI can ask the device
// whether a response is pending without consuming it.
func (*Transport) HasCapability(capability cr95hf.TransportCapability) bool {
	return capability == cr95hf.CapabilityReadyPolling
}

// Ensure Transport implements the transport interfaces
var (
	_ cr95hf.Transport                  = (*Transport)(nil)
	_ cr95hf.TransportContext           = (*Transport)(nil)
	_ cr95hf.TransportCapabilityChecker = (*Transport)(nil)
)
