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

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(fieldCmd)
}

var fieldCmd = &cobra.Command{
	Use:   "field [level|off]",
	Short: "probe the RF field or turn it off",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 && args[0] != "level" && args[0] != "off" {
			return fmt.Errorf("unknown field action %q, want level or off", args[0])
		}

		cfg, err := resolveConfig(cmd)
		if err != nil {
			return err
		}

		device, err := openDevice(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = device.Close() }()

		if len(args) == 1 && args[0] == "off" {
			if err := device.FieldOff(); err != nil {
				return fmt.Errorf("field off failed: %w", err)
			}
			fmt.Println("RF field off")
			return nil
		}

		level, err := device.FieldLevel()
		if err != nil {
			return fmt.Errorf("field probe failed: %w", err)
		}
		fmt.Printf("RF field: %s\n", fieldGrade(level))

		ok, err := device.AntennaOK()
		if err != nil {
			return fmt.Errorf("antenna check failed: %w", err)
		}
		fmt.Printf("Antenna:  %s\n", passFail(ok))
		return nil
	},
}
