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

// Package polling provides continuous card monitoring on top of a
// cr95hf.Device, with debounced removal detection and automatic
// device recovery.
package polling

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ZaparooProject/go-cr95hf"
	"github.com/avast/retry-go"
)

// Config controls monitor timing and recovery behavior
type Config struct {
	// ScanInterval is the pause between scan cycles.
	ScanInterval time.Duration
	// ScanTimeout bounds a single scan cycle.
	ScanTimeout time.Duration
	// CardRemovalTimeout is how long a card may go unseen before it
	// counts as removed.
	CardRemovalTimeout time.Duration
	// ScanRetries is the number of attempts per cycle when a scan
	// fails with a retryable error.
	ScanRetries int
	// RetryDelay is the pause between those attempts.
	RetryDelay time.Duration
	// StabilizationDelay is the settle time after a recovery Init
	// before scanning resumes.
	StabilizationDelay time.Duration
}

// DefaultConfig returns monitor defaults suitable for most readers
func DefaultConfig() *Config {
	return &Config{
		ScanInterval:       100 * time.Millisecond,
		ScanTimeout:        500 * time.Millisecond,
		CardRemovalTimeout: 2 * time.Second,
		ScanRetries:        3,
		RetryDelay:         100 * time.Millisecond,
		StabilizationDelay: 10 * time.Millisecond,
	}
}

// Monitor drives continuous scanning on a device and reports card
// arrivals and removals through callbacks. Assign callbacks before
// calling Start.
type Monitor struct {
	device *cr95hf.Device
	config *Config

	// OnCardDetected fires when a card enters the field. Removal
	// debouncing is suspended while the callback runs, so it may take
	// its time reading the tag.
	OnCardDetected func(tag *cr95hf.DetectedTag) error
	// OnCardChanged fires when the card in the field was swapped for
	// one with a different UID.
	OnCardChanged func(tag *cr95hf.DetectedTag) error
	// OnCardRemoved fires once a card has been gone for the removal
	// timeout.
	OnCardRemoved func()
	// OnError receives scan and recovery errors. The monitor keeps
	// running regardless.
	OnError func(err error)

	mu    sync.Mutex
	state CardState
}

// NewMonitor creates a new card monitor
func NewMonitor(device *cr95hf.Device, config *Config) *Monitor {
	if config == nil {
		config = DefaultConfig()
	}
	return &Monitor{
		device: device,
		config: config,
	}
}

// Start begins continuous monitoring. It blocks until ctx ends and
// returns the context's error.
func (m *Monitor) Start(ctx context.Context) error {
	defer m.disarmRemovalTimer()
	return m.pollLoop(ctx)
}

// GetState returns a snapshot of the current card state
func (m *Monitor) GetState() CardState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// GetDevice returns the underlying device
func (m *Monitor) GetDevice() *cr95hf.Device {
	return m.device
}

// Close stops removal detection and closes the device
func (m *Monitor) Close() error {
	m.mu.Lock()
	m.state.TransitionToIdle()
	m.mu.Unlock()

	if err := m.device.Close(); err != nil {
		return fmt.Errorf("failed to close device: %w", err)
	}
	return nil
}

// pollLoop runs scan cycles until the context ends
func (m *Monitor) pollLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		tag, err := m.scanOnce(ctx)
		switch {
		case err == nil:
			m.processTag(tag)
		case errors.Is(err, cr95hf.ErrNoTagDetected):
			// An empty field is the normal case. The removal timer
			// decides when an absent card counts as removed.
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		default:
			m.handleScanFailure(ctx, err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.config.ScanInterval):
		}
	}
}

// scanOnce runs one detection cycle, retrying retryable failures a few
// times before giving up on the cycle
func (m *Monitor) scanOnce(ctx context.Context) (*cr95hf.DetectedTag, error) {
	scanCtx, cancel := context.WithTimeout(ctx, m.config.ScanTimeout)
	defer cancel()

	attempts := m.config.ScanRetries
	if attempts < 1 {
		attempts = 1
	}

	var tag *cr95hf.DetectedTag
	err := retry.Do(
		func() error {
			var scanErr error
			tag, scanErr = m.device.ScanContext(scanCtx)
			return scanErr
		},
		retry.Context(scanCtx),
		retry.Attempts(uint(attempts)),
		retry.Delay(m.config.RetryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.RetryIf(cr95hf.IsRetryable),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}
	return tag, nil
}

// handleScanFailure reports a failed cycle and reinitializes the
// device once enough cycles failed in a row
func (m *Monitor) handleScanFailure(ctx context.Context, err error) {
	if m.OnError != nil {
		m.OnError(err)
	}

	// A failing device cannot confirm the card is still present
	m.handleCardRemoval()

	if !m.device.NeedsReinit() {
		return
	}

	if initErr := m.device.InitContext(ctx); initErr != nil {
		if m.OnError != nil {
			m.OnError(fmt.Errorf("reinit after scan failures: %w", initErr))
		}
		return
	}

	select {
	case <-ctx.Done():
	case <-time.After(m.config.StabilizationDelay):
	}
}

// processTag updates presence state and fires the detection callbacks.
// Callbacks run in the reading state so a long tag read cannot race
// the removal timer.
func (m *Monitor) processTag(tag *cr95hf.DetectedTag) {
	if tag == nil {
		return
	}

	m.mu.Lock()
	var callback func(*cr95hf.DetectedTag) error
	switch {
	case !m.state.Present:
		callback = m.OnCardDetected
	case m.state.LastUID != tag.UID:
		callback = m.OnCardChanged
	default:
		// Same card still in the field, refresh the removal window
		m.state.TransitionToDetected(m.config.CardRemovalTimeout, m.handleCardRemoval)
		m.mu.Unlock()
		return
	}

	m.state.Present = true
	m.state.LastUID = tag.UID
	m.state.LastType = string(tag.Type)

	if callback == nil {
		m.state.TransitionToDetected(m.config.CardRemovalTimeout, m.handleCardRemoval)
		m.mu.Unlock()
		return
	}

	m.state.TransitionToReading()
	m.mu.Unlock()

	if err := callback(tag); err != nil && m.OnError != nil {
		m.OnError(fmt.Errorf("detection callback: %w", err))
	}

	m.mu.Lock()
	m.state.TransitionToPostReadGrace(m.config.CardRemovalTimeout, m.handleCardRemoval)
	m.mu.Unlock()
}

// handleCardRemoval fires from the removal timer or after a device
// failure. The callback runs outside the lock so it may query state.
func (m *Monitor) handleCardRemoval() {
	m.mu.Lock()
	wasPresent := m.state.Present
	if wasPresent {
		m.state.TransitionToIdle()
	}
	callback := m.OnCardRemoved
	m.mu.Unlock()

	if wasPresent && callback != nil {
		callback()
	}
}

// disarmRemovalTimer releases an armed removal timer without firing
// the removal callback
func (m *Monitor) disarmRemovalTimer() {
	m.mu.Lock()
	safeTimerStop(m.state.RemovalTimer)
	m.state.RemovalTimer = nil
	m.mu.Unlock()
}
