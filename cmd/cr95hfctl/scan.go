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
	"context"
	"errors"
	"fmt"

	cr95hf "github.com/ZaparooProject/go-cr95hf"
	"github.com/ZaparooProject/go-cr95hf/polling"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(scanCmd)
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "wait for one card and print it",
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

		sessionConfig := polling.DefaultConfig()
		sessionConfig.ScanInterval = cfg.PollInterval()

		session, err := polling.NewSession(device, sessionConfig)
		if err != nil {
			return fmt.Errorf("session setup failed: %w", err)
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout())
		defer cancel()

		fmt.Println("Waiting for card...")
		tag, err := session.WaitForCard(ctx)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				fmt.Println(yellow("no card detected within %s", cfg.Timeout()))
				return nil
			}
			return fmt.Errorf("scan failed: %w", err)
		}

		printCard(tag)
		return nil
	},
}

func printCard(tag *cr95hf.DetectedTag) {
	fmt.Println(green("%s", tag.Type))
	fmt.Printf("  UID:  %s (%d bytes)\n", tag.UID, len(tag.UIDBytes))
	fmt.Printf("  ATQA: % 02X\n", tag.ATQA)
	fmt.Printf("  SAK:  %02X\n", tag.SAK)
}
