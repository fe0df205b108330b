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
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(selftestCmd)
}

var selftestCmd = &cobra.Command{
	Use:   "selftest",
	Short: "run the hardware self test",
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

		report, err := device.SelfTest()
		if err != nil {
			return fmt.Errorf("self test failed to run: %w", err)
		}

		fmt.Printf("Echo:           %s\n", passFail(report.EchoOK))
		if report.Identification != nil {
			fmt.Printf("Identification: %s\n", green("%s", report.Identification))
		} else {
			fmt.Printf("Identification: %s\n", red("FAIL"))
		}
		fmt.Printf("Protocol:       %s\n", passFail(report.ProtocolOK))
		fmt.Printf("RF field:       %s\n", fieldGrade(report.FieldLevel))
		if report.TagPresent {
			fmt.Printf("Tag present:    yes (ATQA % 02X)\n", report.ATQA)
		}

		if !report.Healthy() {
			return errors.New("self test reported failures")
		}
		fmt.Println(green("self test passed"))
		return nil
	},
}

func passFail(ok bool) string {
	if ok {
		return green("OK")
	}
	return red("FAIL")
}

func fieldGrade(level int) string {
	switch {
	case level >= 100:
		return green("%d%% (tag answered)", level)
	case level >= 50:
		return green("%d%% (field up, no tag)", level)
	case level > 0:
		return yellow("%d%% (degraded)", level)
	default:
		return red("0%% (dead)")
	}
}
