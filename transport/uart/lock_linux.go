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

//go:build linux

package uart

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

const lockSupported = true

// portLock holds an advisory flock on the device node so two processes
// cannot drive the same CR95HF at once. The lock is tied to its own file
// descriptor and survives the serial library reopening the port.
type portLock struct {
	file *os.File
}

// acquirePortLock takes a non-blocking exclusive lock on the port device
// node. O_NONBLOCK keeps the open from stalling on modem control lines.
func acquirePortLock(portName string) (*portLock, error) {
	file, err := os.OpenFile(portName, os.O_RDONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s for locking: %w", portName, err)
	}

	if err := unix.Flock(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("port %s is in use by another process: %w", portName, err)
	}

	return &portLock{file: file}, nil
}

// release drops the lock and closes its descriptor. Safe to call on nil.
func (l *portLock) release() {
	if l == nil || l.file == nil {
		return
	}
	_ = unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	_ = l.file.Close()
	l.file = nil
}
