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

import "sync"

// Buffer pool sizes. CR95HF frames never exceed 32 bytes, so the large
// size only needs headroom for transport control bytes.
const (
	smallBufferSize = 8
	largeBufferSize = 64
)

var (
	smallBufferPool = sync.Pool{
		New: func() any { return make([]byte, smallBufferSize) },
	}
	largeBufferPool = sync.Pool{
		New: func() any { return make([]byte, largeBufferSize) },
	}
)

// GetBuffer returns a pooled buffer of the requested size. Buffers must be
// returned with PutBuffer and must not outlive the transport call that
// requested them.
func GetBuffer(size int) []byte {
	if size <= largeBufferSize {
		buf, _ := largeBufferPool.Get().([]byte)
		return buf[:size]
	}
	return make([]byte, size)
}

// GetSmallBuffer returns a pooled buffer for short control exchanges.
func GetSmallBuffer(size int) []byte {
	if size <= smallBufferSize {
		buf, _ := smallBufferPool.Get().([]byte)
		return buf[:size]
	}
	return GetBuffer(size)
}

// PutBuffer returns a buffer obtained from GetBuffer or GetSmallBuffer to
// its pool. Buffers of other capacities are dropped.
func PutBuffer(buf []byte) {
	switch cap(buf) {
	case smallBufferSize:
		smallBufferPool.Put(buf[:smallBufferSize]) //nolint:staticcheck // pool stores plain slices
	case largeBufferSize:
		largeBufferPool.Put(buf[:largeBufferSize]) //nolint:staticcheck // pool stores plain slices
	}
}
