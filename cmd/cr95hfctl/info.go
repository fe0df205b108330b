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

package main

import (
	"fmt"

	cr95hf "github.com/ZaparooProject/go-cr95hf"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(infoCmd)
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "print device identification",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := resolveConfig(cmd)
		if err != nil {
			return err
		}

		device, err := openDevice(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = device.Close() }()

		ident, err := device.ReadIdentification()
		if err != nil {
			return fmt.Errorf("identification read failed: %w", err)
		}

		fmt.Printf("Device:    %s\n", green("%s", ident.DeviceName))
		fmt.Printf("ROM CRC:   %04X\n", ident.ROMCRC)
		fmt.Printf("Transport: %s\n", device.Transport().Type())
		fmt.Printf("Protocol:  %s\n", device.CurrentProtocol())

		caps := []struct {
			name string
			cap  cr95hf.TransportCapability
		}{
			{"ready polling", cr95hf.CapabilityReadyPolling},
			{"port locking", cr95hf.CapabilityPortLocking},
		}
		for _, c := range caps {
			if device.HasTransportCapability(c.cap) {
				fmt.Printf("  %s: yes\n", c.name)
			}
		}
		return nil
	},
}
