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

/*
Package cr95hf provides a pure Go driver for the STMicroelectronics CR95HF
NFC transceiver.

The CR95HF is a 13.56 MHz contactless transceiver IC with a framed serial
command set. This library speaks that command set over UART or SPI and
implements single-tag ISO14443-A discovery: wake (WUPA with REQA fallback),
the anticollision cascade, and selection, assembling 4- or 7-byte UIDs and
classifying the tag from its SAK byte.

Features:
  - UART and SPI transport support
  - ISO14443-A tag discovery with cascade level 2 (7-byte UIDs)
  - Tag type classification from the SAK table
  - Device self-test, identification and RF field diagnostics
  - Retry logic with configurable backoff
  - Comprehensive error handling

Basic Usage:

	import (
	    cr95hf "github.com/ZaparooProject/go-cr95hf"
	    "github.com/ZaparooProject/go-cr95hf/transport/uart"
	)

	// Create a UART transport
	transport, err := uart.New("/dev/ttyUSB0")
	if err != nil {
	    log.Fatal(err)
	}
	defer transport.Close()

	// Create and initialize the device
	device, err := cr95hf.New(transport)
	if err != nil {
	    log.Fatal(err)
	}
	if err := device.Init(); err != nil {
	    log.Fatal(err)
	}

	// Or create with custom options
	device, err = cr95hf.New(transport,
	    cr95hf.WithTimeout(2*time.Second),
	    cr95hf.WithMaxRetries(5),
	)

	// Detect a tag
	tag, err := device.DetectTag()
	switch {
	case errors.Is(err, cr95hf.ErrNoTagDetected):
	    fmt.Println("field is empty")
	case err != nil:
	    log.Fatal(err)
	default:
	    fmt.Printf("%s UID %s\n", tag.Type, tag.UID)
	}

Discovery reports exactly one of three outcomes: a detected tag, the
ErrNoTagDetected sentinel for an empty field, or an error describing a
failed exchange. An empty field is the normal case when polling and must
not be treated as a fault.

Transport Selection:

The library supports both host interfaces of the chip:

  - UART: most common, works with USB-to-serial adapters (57600 baud, 8N2)
  - SPI: for embedded systems wired to the native SPI interface

Debug Output:

SetDebugEnabled(true) turns on hex dumps of every frame exchanged, written
to standard error.

Error Handling:

All operations return meaningful errors that can be inspected:

	if errors.Is(err, cr95hf.ErrNoTagDetected) {
	    // Empty field, not a fault
	}

Thread Safety:

Device operations are not thread-safe. If you need concurrent access,
implement appropriate synchronization in your application.
*/
package cr95hf
