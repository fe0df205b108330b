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

// Package transport provides retry primitives shared by the UART and SPI
// transports.
package transport

import (
	"time"

	cr95hf "github.com/ZaparooProject/go-cr95hf"
)

// readyPollInterval is the pause between polls of the CR95HF flags
// register. The datasheet gives no minimum, one millisecond keeps bus
// traffic low while staying well under the shortest command timeout.
const readyPollInterval = time.Millisecond

// RetryOperation is one attempt of a retryable transport step. It
// returns the result, whether another attempt should run, and any error
// that must stop the retries outright (a busy port keeps retrying, a
// missing port does not).
type RetryOperation[T any] func() (T, bool, error)

// RetryConfig describes a bounded retry loop.
type RetryConfig struct {
	// OnRetry runs before each new attempt, a failure aborts the loop.
	OnRetry func() error
	// OnRetryFailed runs once when every attempt is used up.
	OnRetryFailed func() error
	// Description names the step for error context.
	Description string
	// Port names the device path carried in exhaustion errors.
	Port string
	MaxRetries int
	RetryDelay time.Duration
}

// WithRetry runs operation up to MaxRetries+1 times. The transports use
// it for steps that fail transiently while a port settles, such as
// opening a serial device right after enumeration.
func WithRetry[T any](config RetryConfig, operation RetryOperation[T]) (T, error) {
	var zero T

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		result, shouldRetry, err := operation()
		if err != nil {
			return zero, err
		}

		if !shouldRetry {
			return result, nil
		}

		if attempt >= config.MaxRetries {
			break
		}

		if config.OnRetry != nil {
			if err := config.OnRetry(); err != nil {
				return zero, err
			}
		}

		if config.RetryDelay > 0 {
			time.Sleep(config.RetryDelay)
		}
	}

	return retriesExhausted[T](config)
}

func retriesExhausted[T any](config RetryConfig) (T, error) {
	var zero T

	if config.OnRetryFailed != nil {
		if failErr := config.OnRetryFailed(); failErr != nil {
			return zero, failErr
		}
	}

	port := config.Port
	if port == "" {
		port = "unknown"
	}
	op := config.Description
	if op == "" {
		op = "retry"
	}
	return zero, cr95hf.NewTransportError(op, port, cr95hf.ErrCommunicationFailed, cr95hf.ErrorTypeTransient)
}

// TimeoutRetry polls operation until it reports done or the budget runs
// out. The SPI transport drives its ready-bit wait through this, so the
// poll pace is fixed at readyPollInterval rather than configurable.
func TimeoutRetry[T any](timeout time.Duration, operation RetryOperation[T]) (T, error) {
	var zero T
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		result, shouldRetry, err := operation()
		if err != nil {
			return zero, err
		}

		if !shouldRetry {
			return result, nil
		}

		time.Sleep(readyPollInterval)
	}

	return zero, cr95hf.NewTimeoutError("timeoutRetry", "unknown")
}
