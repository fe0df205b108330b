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
	"time"

	"github.com/avast/retry-go"
)

// RetryConfig configures retry behavior for transport operations.
type RetryConfig struct {
	// MaxAttempts is the total number of tries, the first one included.
	MaxAttempts int
	// InitialBackoff is the delay before the first retry. Subsequent
	// retries back off exponentially.
	InitialBackoff time.Duration
	// MaxBackoff caps the delay between retries.
	MaxBackoff time.Duration
}

// DefaultRetryConfig returns the retry configuration used when none is
// provided.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     500 * time.Millisecond,
	}
}

// RetryWithConfig runs op until it succeeds, returns a non-retryable error,
// the attempts are exhausted, or ctx is canceled. Retry eligibility is
// decided by IsRetryable.
func RetryWithConfig(ctx context.Context, config *RetryConfig, op func() error) error {
	if config == nil {
		config = DefaultRetryConfig()
	}
	attempts := config.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	return retry.Do(
		op,
		retry.Context(ctx),
		retry.Attempts(uint(attempts)),
		retry.Delay(config.InitialBackoff),
		retry.MaxDelay(config.MaxBackoff),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(IsRetryable),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			debugf("retrying after attempt %d: %v", n+1, err)
		}),
	)
}
