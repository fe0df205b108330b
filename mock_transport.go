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
	"sync"
	"time"
)

// mockReply is one configured answer, either data or an error
type mockReply struct {
	err  error
	data []byte
}

// MockTransport is an in-memory Transport for tests. Answers are
// configured per command code: queued replies are consumed first, then
// the sticky reply set with SetResponse or SetError repeats forever.
//
// A fresh MockTransport answers the initialization handshake out of the
// box: echo, IDN and ProtocolSelect succeed and SendRecv reports an
// empty field.
type MockTransport struct {
	queues       map[byte][]mockReply
	sticky       map[byte]mockReply
	handlers     map[byte]func(args []byte) ([]byte, error)
	callCounts   map[byte]int
	sentArgs     map[byte][][]byte
	capabilities map[TransportCapability]bool
	timeouts     []time.Duration
	delay        time.Duration
	mu           sync.Mutex
	connected    bool
}

// mockIdentPayload mirrors a real IDN answer: device name, NUL, ROM CRC
var mockIdentPayload = append([]byte("NFC FS2JAST4\x00"), 0x2A, 0xCE)

// NewMockTransport creates a mock transport preloaded with handshake
// responses
func NewMockTransport() *MockTransport {
	m := &MockTransport{
		queues:       make(map[byte][]mockReply),
		sticky:       make(map[byte]mockReply),
		handlers:     make(map[byte]func(args []byte) ([]byte, error)),
		callCounts:   make(map[byte]int),
		sentArgs:     make(map[byte][][]byte),
		capabilities: make(map[TransportCapability]bool),
		connected:    true,
	}

	m.SetResponse(cmdEcho, []byte{cmdEcho})
	m.SetResponse(cmdIDN, append([]byte{StatusSuccess}, mockIdentPayload...))
	m.SetResponse(cmdProtocolSelect, []byte{StatusSuccess})
	m.SetResponse(cmdSendRecv, []byte{StatusFrameWaitTimeout})
	return m
}

// SendCommand answers from the configured replies
func (m *MockTransport) SendCommand(cmd byte, args []byte) ([]byte, error) {
	return m.respond(context.Background(), cmd, args)
}

// SendCommandContext answers from the configured replies, honoring
// context cancellation during a configured delay
func (m *MockTransport) SendCommandContext(ctx context.Context, cmd byte, args []byte) ([]byte, error) {
	return m.respond(ctx, cmd, args)
}

func (m *MockTransport) respond(ctx context.Context, cmd byte, args []byte) ([]byte, error) {
	m.mu.Lock()
	if !m.connected {
		m.mu.Unlock()
		return nil, NewTransportNotReadyError("SendCommand", "mock")
	}

	m.callCounts[cmd]++
	m.sentArgs[cmd] = append(m.sentArgs[cmd], append([]byte(nil), args...))

	handler := m.handlers[cmd]
	var reply mockReply
	var ok bool
	if handler == nil {
		reply, ok = m.nextReply(cmd)
	}
	delay := m.delay
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("mock command 0x%02X: %w", cmd, ctx.Err())
		case <-time.After(delay):
		}
	}

	if handler != nil {
		return handler(args)
	}
	if !ok {
		return nil, fmt.Errorf("mock transport has no response for command 0x%02X", cmd)
	}
	if reply.err != nil {
		return nil, reply.err
	}
	return append([]byte(nil), reply.data...), nil
}

// nextReply pops the queue for cmd, falling back to the sticky reply.
// Callers hold the mutex.
func (m *MockTransport) nextReply(cmd byte) (mockReply, bool) {
	if queue := m.queues[cmd]; len(queue) > 0 {
		reply := queue[0]
		m.queues[cmd] = queue[1:]
		return reply, true
	}
	reply, ok := m.sticky[cmd]
	return reply, ok
}

// SetResponse configures the repeating reply for a command
func (m *MockTransport) SetResponse(cmd byte, response []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sticky[cmd] = mockReply{data: append([]byte(nil), response...)}
}

// SetError configures a repeating error for a command
func (m *MockTransport) SetError(cmd byte, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sticky[cmd] = mockReply{err: err}
}

// QueueResponse appends one-shot replies consumed before the sticky reply
func (m *MockTransport) QueueResponse(cmd byte, responses ...[]byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, response := range responses {
		m.queues[cmd] = append(m.queues[cmd], mockReply{data: append([]byte(nil), response...)})
	}
}

// QueueError appends a one-shot error consumed before the sticky reply
func (m *MockTransport) QueueError(cmd byte, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queues[cmd] = append(m.queues[cmd], mockReply{err: err})
}

// SetHandler routes every call of cmd to fn, bypassing configured
// replies. Useful for wiring a simulated card whose answers depend on
// the request bytes.
func (m *MockTransport) SetHandler(cmd byte, fn func(args []byte) ([]byte, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[cmd] = fn
}

// SetDelay makes every command take at least d before answering
func (m *MockTransport) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

// SetCapability configures the answer HasCapability gives for capability
func (m *MockTransport) SetCapability(capability TransportCapability, has bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.capabilities[capability] = has
}

// GetCallCount returns how many times cmd was sent
func (m *MockTransport) GetCallCount(cmd byte) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCounts[cmd]
}

// GetCalls returns the argument bytes of every call to cmd, in order
func (m *MockTransport) GetCalls(cmd byte) [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([][]byte, len(m.sentArgs[cmd]))
	copy(calls, m.sentArgs[cmd])
	return calls
}

// Timeouts returns every value passed to SetTimeout, in order
func (m *MockTransport) Timeouts() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	timeouts := make([]time.Duration, len(m.timeouts))
	copy(timeouts, m.timeouts)
	return timeouts
}

// Close marks the transport disconnected
func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = false
	return nil
}

// SetTimeout records the requested timeout
func (m *MockTransport) SetTimeout(timeout time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeouts = append(m.timeouts, timeout)
	return nil
}

// IsConnected returns whether Close has been called
func (m *MockTransport) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

// Type returns TransportMock
func (*MockTransport) Type() TransportType {
	return TransportMock
}

// HasCapability reports capabilities configured with SetCapability
func (m *MockTransport) HasCapability(capability TransportCapability) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.capabilities[capability]
}

var (
	_ Transport                  = (*MockTransport)(nil)
	_ TransportContext           = (*MockTransport)(nil)
	_ TransportCapabilityChecker = (*MockTransport)(nil)
)
