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

package polling

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	cr95hf "github.com/ZaparooProject/go-cr95hf"
)

// Session-specific errors
var (
	ErrSessionRunning    = errors.New("session is already running")
	ErrSessionNotRunning = errors.New("session is not running")
)

// Session is the high-level entry point for continuous scanning. It wraps
// the lower-level Monitor behind a start/stop lifecycle so callers get
// callback-driven scanning without managing the poll loop themselves.
type Session struct {
	device  *cr95hf.Device
	config  *Config
	monitor *Monitor
	cancel  atomic.Pointer[context.CancelFunc]
	done    chan struct{}

	// OnCardDetected fires when a card enters the field.
	OnCardDetected func(tag *cr95hf.DetectedTag) error
	// OnCardChanged fires when the card was swapped for another one.
	OnCardChanged func(tag *cr95hf.DetectedTag) error
	// OnCardRemoved fires when the card leaves the field.
	OnCardRemoved func()
	// OnError receives scan errors. The session keeps running.
	OnError func(err error)

	running atomic.Bool
}

// NewSession creates a scanning session over an initialized device
func NewSession(device *cr95hf.Device, config *Config) (*Session, error) {
	if device == nil {
		return nil, errors.New("device cannot be nil")
	}
	if config == nil {
		config = DefaultConfig()
	}

	return &Session{
		device: device,
		config: config,
	}, nil
}

// Start begins continuous scanning in the background. It returns once
// the poll loop is running; use Stop or cancel ctx to end it.
func (s *Session) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrSessionRunning
	}

	monitor := NewMonitor(s.device, s.config)
	monitor.OnCardDetected = s.OnCardDetected
	monitor.OnCardChanged = s.OnCardChanged
	monitor.OnCardRemoved = s.OnCardRemoved
	monitor.OnError = s.OnError
	s.monitor = monitor

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel.Store(&cancel)
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		defer s.running.Store(false)
		_ = monitor.Start(runCtx)
	}()

	return nil
}

// Stop ends the session and waits for the poll loop to exit. The device
// stays open, stopping a session only stops scanning.
func (s *Session) Stop() error {
	cancel := s.cancel.Swap(nil)
	if cancel == nil {
		return ErrSessionNotRunning
	}

	(*cancel)()
	<-s.done
	return nil
}

// IsRunning reports whether the poll loop is active
func (s *Session) IsRunning() bool {
	return s.running.Load()
}

// State returns a snapshot of the current card state
func (s *Session) State() CardState {
	if s.monitor == nil {
		return CardState{}
	}
	return s.monitor.GetState()
}

// WaitForCard blocks until a card enters the field or ctx ends. It runs
// its own scan loop and must not be mixed with a started session.
func (s *Session) WaitForCard(ctx context.Context) (*cr95hf.DetectedTag, error) {
	if s.running.Load() {
		return nil, ErrSessionRunning
	}

	for {
		tag, err := s.device.ScanContext(ctx)
		switch {
		case err == nil:
			return tag, nil
		case errors.Is(err, cr95hf.ErrNoTagDetected):
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return nil, err
		default:
			if s.OnError != nil {
				s.OnError(err)
			}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.config.ScanInterval):
		}
	}
}
