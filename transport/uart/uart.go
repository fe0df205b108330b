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

// Package uart provides UART transport implementation for CR95HF
package uart

import (
	"context"
	"fmt"
	"sync"
	"time"

	cr95hf "github.com/ZaparooProject/go-cr95hf"
	"github.com/ZaparooProject/go-cr95hf/internal/frame"
	"github.com/ZaparooProject/go-cr95hf/internal/transport"
	"go.bug.st/serial"
)

const (
	// CR95HF UART runs at a fixed rate with two stop bits. The part does
	// not autobaud and silently drops frames sent as 8N1.
	defaultBaudRate = 57600

	// Default response timeout when the caller supplies no deadline.
	defaultTimeout = 100 * time.Millisecond

	// The UART needs a short settle period after the port opens before
	// the first command goes out.
	settleDelay = 20 * time.Millisecond

	// USB serial bridges can refuse the first open right after
	// enumeration while the OS is still probing the device.
	openRetries    = 2
	openRetryDelay = 100 * time.Millisecond
)

// Transport implements the cr95hf.Transport interface for UART communication
type Transport struct {
	port     serial.Port
	lock     *portLock
	portName string
	timeout  time.Duration
	mu       sync.Mutex
}

// New creates a new UART transport for the CR95HF on the given serial port.
// The port is configured as 57600 8N2 and locked for exclusive use on
// platforms that support it.
func New(portName string) (*Transport, error) {
	lock, err := acquirePortLock(portName)
	if err != nil {
		return nil, err
	}

	mode := &serial.Mode{
		BaudRate: defaultBaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.TwoStopBits,
	}

	var lastErr error
	port, err := transport.WithRetry(transport.RetryConfig{
		MaxRetries:  openRetries,
		RetryDelay:  openRetryDelay,
		Description: "open serial port",
		Port:        portName,
	}, func() (serial.Port, bool, error) {
		p, openErr := serial.Open(portName, mode)
		if openErr != nil {
			lastErr = openErr
			return nil, true, nil
		}
		return p, false, nil
	})
	if err != nil {
		lock.release()
		if lastErr != nil {
			return nil, fmt.Errorf("failed to open serial port %s: %w", portName, lastErr)
		}
		return nil, err
	}

	time.Sleep(settleDelay)
	_ = port.ResetInputBuffer()

	return &Transport{
		port:     port,
		lock:     lock,
		portName: portName,
		timeout:  defaultTimeout,
	}, nil
}

// SendCommand sends a command to the CR95HF and waits for the response.
// The returned slice starts with the result code byte followed by the
// payload. The echo command is exchanged unframed as a single byte.
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

		// Measure the remaining budget once the port is actually ours,
		// a prior exchange may have consumed part of the deadline.
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
	if t.port == nil {
		return nil, cr95hf.NewTransportNotReadyError("SendCommand", t.portName)
	}

	// Discard any stale bytes from an abandoned exchange so the next
	// response is read from a clean boundary.
	_ = t.port.ResetInputBuffer()

	if cmd == frame.EchoByte {
		return t.echoLocked(timeout)
	}

	frm, err := frame.Build(cmd, args)
	if err != nil {
		return nil, err
	}

	if _, err := t.port.Write(frm); err != nil {
		return nil, fmt.Errorf("failed to write command frame: %w", err)
	}

	resp, err := frame.ReadResponse(t.reader(), timeout, "SendCommand", t.portName)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, 1+len(resp.Data))
	out = append(out, resp.Code)
	out = append(out, resp.Data...)
	return out, nil
}

// echoLocked exchanges the unframed echo byte. The CR95HF answers a bare
// 0x55 with a bare 0x55 and no length byte.
func (t *Transport) echoLocked(timeout time.Duration) ([]byte, error) {
	if _, err := t.port.Write([]byte{frame.EchoByte}); err != nil {
		return nil, fmt.Errorf("failed to write echo byte: %w", err)
	}

	b, err := t.reader().ReadByteTimeout(timeout)
	if err != nil {
		return nil, err
	}
	if b != frame.EchoByte {
		return nil, fmt.Errorf("echo returned 0x%02X instead of 0x%02X: %w",
			b, frame.EchoByte, cr95hf.ErrInvalidResponse)
	}

	return []byte{b}, nil
}

func (t *Transport) reader() *portByteReader {
	return &portByteReader{port: t.port, portName: t.portName}
}

// SetTimeout sets the response timeout for subsequent commands. An
// exchange already in flight keeps the timeout it started with.
func (t *Transport) SetTimeout(timeout time.Duration) error {
	t.mu.Lock()
	t.timeout = timeout
	t.mu.Unlock()
	return nil
}

// Close closes the serial port and releases the port lock
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.port == nil {
		return nil
	}

	err := t.port.Close()
	t.port = nil
	t.lock.release()
	t.lock = nil

	if err != nil {
		return fmt.Errorf("failed to close serial port %s: %w", t.portName, err)
	}
	return nil
}

// IsConnected returns true if the transport is connected
func (t *Transport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.port != nil
}

// Type returns the transport type
func (*Transport) Type() cr95hf.TransportType {
	return cr95hf.TransportUART
}

// HasCapability reports transport capabilities. Port locking is only
// available where the platform supports advisory file locks.
func (*Transport) HasCapability(capability cr95hf.TransportCapability) bool {
	return capability == cr95hf.CapabilityPortLocking && lockSupported
}

// portByteReader adapts a serial port to the frame.ByteStream interface.
// Serial reads are latched to a per-call timeout, which gives ReadResponse
// a clean per-byte budget.
type portByteReader struct {
	port     serial.Port
	portName string
}

// ReadByteTimeout reads a single byte, waiting at most wait for it to
// arrive.
func (r *portByteReader) ReadByteTimeout(wait time.Duration) (byte, error) {
	if wait <= 0 {
		return 0, cr95hf.NewTimeoutError("read", r.portName)
	}
	if err := r.port.SetReadTimeout(wait); err != nil {
		return 0, fmt.Errorf("failed to set read timeout: %w", err)
	}

	buf := frame.GetSmallBuffer(1)
	defer frame.PutBuffer(buf)

	n, err := r.port.Read(buf)
	if err != nil {
		return 0, cr95hf.NewTransportError("read", r.portName, err, cr95hf.ErrorTypeTransient)
	}
	if n == 0 {
		// A zero-byte read is how the serial layer reports an expired
		// read timeout.
		return 0, cr95hf.NewTimeoutError("read", r.portName)
	}

	return buf[0], nil
}

// Ensure Transport implements the transport interfaces
var (
	_ cr95hf.Transport                  = (*Transport)(nil)
	_ cr95hf.TransportContext           = (*Transport)(nil)
	_ cr95hf.TransportCapabilityChecker = (*Transport)(nil)
	_ frame.ByteStream                  = (*portByteReader)(nil)
)
