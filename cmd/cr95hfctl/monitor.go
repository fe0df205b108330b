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
	"os"
	"time"

	cr95hf "github.com/ZaparooProject/go-cr95hf"
	"github.com/ZaparooProject/go-cr95hf/polling"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func init() {
	rootCmd.AddCommand(monitorCmd)
}

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "continuously report card arrivals and removals",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := resolveConfig(cmd)
		if err != nil {
			return err
		}

		logger := newLogger()

		device, err := openDevice(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = device.Close() }()

		if ident := device.Identification(); ident != nil {
			logger.Info().Str("device", ident.String()).Msg("connected")
		}

		monitorConfig := polling.DefaultConfig()
		monitorConfig.ScanInterval = cfg.PollInterval()
		monitorConfig.CardRemovalTimeout = cfg.RemovalTimeout()

		monitor := polling.NewMonitor(device, monitorConfig)
		monitor.OnCardDetected = func(tag *cr95hf.DetectedTag) error {
			logger.Info().
				Str("uid", tag.UID).
				Str("type", string(tag.Type)).
				Hex("atqa", tag.ATQA).
				Uint8("sak", tag.SAK).
				Msg("card detected")
			return nil
		}
		monitor.OnCardChanged = func(tag *cr95hf.DetectedTag) error {
			logger.Info().
				Str("uid", tag.UID).
				Str("type", string(tag.Type)).
				Msg("card changed")
			return nil
		}
		monitor.OnCardRemoved = func() {
			logger.Info().Msg("card removed")
		}
		monitor.OnError = func(err error) {
			logger.Warn().Err(err).Msg("scan error")
		}

		g, ctx := errgroup.WithContext(cmd.Context())
		g.Go(func() error {
			return monitor.Start(ctx)
		})

		logger.Info().
			Dur("poll_interval", cfg.PollInterval()).
			Msg("monitoring, press ctrl-c to stop")
		return g.Wait()
	},
}

func newLogger() zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(output).With().Timestamp().Str("app", "cr95hfctl").Logger()
}
