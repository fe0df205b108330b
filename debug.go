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
	"fmt"
	"os"
	"sync/atomic"
)

var debugEnabled atomic.Bool

// SetDebugEnabled turns verbose protocol logging on stderr on or off.
// Off by default.
func SetDebugEnabled(enabled bool) {
	debugEnabled.Store(enabled)
}

func debugf(format string, args ...any) {
	if !debugEnabled.Load() {
		return
	}
	_, _ = fmt.Fprintf(os.Stderr, "[cr95hf] "+format+"\n", args...)
}

func debugln(args ...any) {
	if !debugEnabled.Load() {
		return
	}
	_, _ = fmt.Fprintln(os.Stderr, append([]any{"[cr95hf]"}, args...)...)
}
