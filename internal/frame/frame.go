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

package frame

import (
	"fmt"
	"time"

	cr95hf "github.com/ZaparooProject/go-cr95hf"
)

// Response is a decoded CR95HF response frame.
type Response struct {
	// Data is the response payload, length taken from the frame's
	// length byte. Always a fresh slice owned by the caller.
	Data []byte
	// Code is the result code byte (first byte of every framed response).
	Code byte
}

// Build constructs a command frame: [command] [length] [payload].
// The echo command is not framed and must not be built here; transports
// send the bare echo byte directly.
func Build(cmd byte, args []byte) ([]byte, error) {
	if len(args) > MaxPayloadLength {
		return nil, fmt.Errorf("command 0x%02X payload is %d bytes, frame limit is %d: %w",
			cmd, len(args), MaxPayloadLength, cr95hf.ErrDataTooLarge)
	}

	frm := make([]byte, 0, HeaderLength+len(args))
	frm = append(frm, cmd, byte(len(args)))
	frm = append(frm, args...)
	return frm, nil
}

// ByteStream reads protocol bytes from the device one at a time.
// Implementations return a timeout error when no byte arrives within wait.
type ByteStream interface {
	ReadByteTimeout(wait time.Duration) (byte, error)
}

// ReadResponse reads a framed response: result code, length, then payload.
// All three phases share a single deadline fixed on entry. A response that
// cannot complete within the deadline yields a timeout error and no partial
// data is ever returned.
func ReadResponse(s ByteStream, timeout time.Duration, op, port string) (*Response, error) {
	deadline := time.Now().Add(timeout)

	code, err := readStreamByte(s, deadline, op, port)
	if err != nil {
		return nil, fmt.Errorf("reading result code: %w", err)
	}

	length, err := readStreamByte(s, deadline, op, port)
	if err != nil {
		return nil, fmt.Errorf("reading response length: %w", err)
	}
	if int(length) > MaxPayloadLength {
		return nil, cr95hf.NewFrameCorruptedError(op, port)
	}

	data := make([]byte, 0, length)
	for i := 0; i < int(length); i++ {
		b, err := readStreamByte(s, deadline, op, port)
		if err != nil {
			return nil, fmt.Errorf("reading payload byte %d of %d: %w", i+1, length, err)
		}
		data = append(data, b)
	}

	return &Response{Code: code, Data: data}, nil
}

// readStreamByte reads one byte within the remaining deadline budget
func readStreamByte(s ByteStream, deadline time.Time, op, port string) (byte, error) {
	wait := time.Until(deadline)
	if wait <= 0 {
		return 0, cr95hf.NewTimeoutError(op, port)
	}
	return s.ReadByteTimeout(wait)
}

// ParseResponse decodes a complete response frame held in buf, which must
// start at the result code byte. Used by transports that read whole frames
// in one transaction rather than byte by byte.
func ParseResponse(buf []byte, op, port string) (*Response, error) {
	if len(buf) < ResponseHeaderLength {
		return nil, cr95hf.NewFrameCorruptedError(op, port)
	}

	length := int(buf[1])
	if length > MaxPayloadLength || ResponseHeaderLength+length > len(buf) {
		return nil, cr95hf.NewFrameCorruptedError(op, port)
	}

	data := make([]byte, length)
	copy(data, buf[ResponseHeaderLength:ResponseHeaderLength+length])
	return &Response{Code: buf[0], Data: data}, nil
}

// Encode builds a response frame from a result code and payload.
// Used by simulated devices in tests.
func Encode(code byte, data []byte) []byte {
	frm := make([]byte, 0, ResponseHeaderLength+len(data))
	frm = append(frm, code, byte(len(data)))
	frm = append(frm, data...)
	return frm
}
