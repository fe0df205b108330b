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
	"errors"
	"fmt"
)

// Transport-level sentinel errors. These describe failures of the link to
// the CR95HF itself, not RF-level outcomes.
var (
	// ErrTransportTimeout indicates the device did not answer within the
	// configured window.
	ErrTransportTimeout = errors.New("transport operation timed out")

	// ErrTransportRead indicates a read from the transport failed.
	ErrTransportRead = errors.New("transport read failed")

	// ErrTransportWrite indicates a write to the transport failed.
	ErrTransportWrite = errors.New("transport write failed")

	// ErrTransportNotReady indicates the device did not signal readiness
	// in time (SPI flag polling).
	ErrTransportNotReady = errors.New("transport not ready")

	// ErrCommunicationFailed indicates repeated exchanges with the device
	// failed without a more specific cause.
	ErrCommunicationFailed = errors.New("communication with device failed")

	// ErrFrameCorrupted indicates a response frame that violates the
	// [code] [length] [payload] layout, or an RF framing error report.
	ErrFrameCorrupted = errors.New("response frame corrupted")

	// ErrCollisionDetected indicates more than one tag answered during
	// anticollision.
	ErrCollisionDetected = errors.New("tag collision detected")

	// ErrInvalidResponse indicates the device answered with something the
	// protocol does not allow at this point, such as a wrong echo byte.
	ErrInvalidResponse = errors.New("invalid response from device")

	// ErrDeviceNotFound indicates no CR95HF device could be located.
	ErrDeviceNotFound = errors.New("device not found")

	// ErrDataTooLarge indicates a payload that cannot fit the 32-byte
	// frame buffer.
	ErrDataTooLarge = errors.New("data too large for frame")

	// ErrInvalidParameter indicates a command argument the device or the
	// driver rejects.
	ErrInvalidParameter = errors.New("invalid parameter")
)

// ErrorType classifies errors for retry decisions.
type ErrorType int

const (
	// ErrorTypePermanent indicates an error that will not resolve by
	// retrying. This is the zero value.
	ErrorTypePermanent ErrorType = iota
	// ErrorTypeTransient indicates an error that may resolve by retrying.
	ErrorTypeTransient
	// ErrorTypeTimeout indicates the operation timed out.
	ErrorTypeTimeout
)

// String returns a human-readable name for the error type.
func (t ErrorType) String() string {
	switch t {
	case ErrorTypePermanent:
		return "permanent"
	case ErrorTypeTransient:
		return "transient"
	case ErrorTypeTimeout:
		return "timeout"
	default:
		return fmt.Sprintf("ErrorType(%d)", int(t))
	}
}

// TransportError describes a failed transport operation with enough
// context to decide whether retrying makes sense.
type TransportError struct {
	// Err is the underlying error.
	Err error
	// Op is the operation that failed, such as "SendCommand".
	Op string
	// Port identifies the transport endpoint, such as "/dev/ttyUSB0".
	Port string
	// Type classifies the failure.
	Type ErrorType
	// Retryable reports whether retrying the operation may succeed.
	Retryable bool
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.Port != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Port, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError returns a TransportError with Retryable derived from
// the error type.
func NewTransportError(op, port string, err error, errType ErrorType) *TransportError {
	return &TransportError{
		Op:        op,
		Port:      port,
		Err:       err,
		Type:      errType,
		Retryable: errType != ErrorTypePermanent,
	}
}

// NewTimeoutError returns a TransportError for a timed-out operation.
func NewTimeoutError(op, port string) *TransportError {
	return &TransportError{
		Op:        op,
		Port:      port,
		Err:       ErrTransportTimeout,
		Type:      ErrorTypeTimeout,
		Retryable: true,
	}
}

// NewFrameCorruptedError returns a TransportError for a malformed frame.
func NewFrameCorruptedError(op, port string) *TransportError {
	return &TransportError{
		Op:        op,
		Port:      port,
		Err:       ErrFrameCorrupted,
		Type:      ErrorTypeTransient,
		Retryable: true,
	}
}

// NewDataTooLargeError returns a TransportError for an oversized payload.
func NewDataTooLargeError(op, port string) *TransportError {
	return &TransportError{
		Op:        op,
		Port:      port,
		Err:       ErrDataTooLarge,
		Type:      ErrorTypePermanent,
		Retryable: false,
	}
}

// NewTransportNotReadyError returns a TransportError for a device that
// never signaled readiness.
func NewTransportNotReadyError(op, port string) *TransportError {
	return &TransportError{
		Op:        op,
		Port:      port,
		Err:       ErrTransportNotReady,
		Type:      ErrorTypeTransient,
		Retryable: true,
	}
}

// IsRetryable returns true if the error is worth retrying.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var te *TransportError
	if errors.As(err, &te) {
		return te.Retryable
	}

	switch {
	case errors.Is(err, ErrTransportTimeout),
		errors.Is(err, ErrTransportRead),
		errors.Is(err, ErrTransportWrite),
		errors.Is(err, ErrTransportNotReady),
		errors.Is(err, ErrCommunicationFailed),
		errors.Is(err, ErrFrameCorrupted),
		errors.Is(err, ErrCollisionDetected),
		errors.Is(err, ErrInvalidResponse):
		return true
	default:
		return false
	}
}

// GetErrorType classifies an error for retry decisions. Unknown errors are
// treated as permanent.
func GetErrorType(err error) ErrorType {
	if err == nil {
		return ErrorTypePermanent
	}

	var te *TransportError
	if errors.As(err, &te) {
		return te.Type
	}

	switch {
	case errors.Is(err, ErrTransportTimeout):
		return ErrorTypeTimeout
	case errors.Is(err, ErrTransportRead),
		errors.Is(err, ErrTransportWrite),
		errors.Is(err, ErrTransportNotReady),
		errors.Is(err, ErrCommunicationFailed),
		errors.Is(err, ErrFrameCorrupted),
		errors.Is(err, ErrCollisionDetected),
		errors.Is(err, ErrInvalidResponse):
		return ErrorTypeTransient
	default:
		return ErrorTypePermanent
	}
}
