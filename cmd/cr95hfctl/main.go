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
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	cr95hf "github.com/ZaparooProject/go-cr95hf"
	"github.com/ZaparooProject/go-cr95hf/detection"
	// Import all detectors to register them
	_ "github.com/ZaparooProject/go-cr95hf/detection/spi"
	_ "github.com/ZaparooProject/go-cr95hf/detection/uart"
	"github.com/ZaparooProject/go-cr95hf/transport/spi"
	"github.com/ZaparooProject/go-cr95hf/transport/uart"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	yellow = color.New(color.FgHiBlue).SprintfFunc()
	red    = color.New(color.FgRed).SprintfFunc()
	green  = color.New(color.FgGreen).SprintfFunc()
)

var rootCmd = &cobra.Command{
	Use:          "cr95hfctl",
	Short:        "CR95HF contactless reader tool",
	Long:         "Scan, monitor and diagnose ISO14443-A cards through a CR95HF transceiver",
	SilenceUsage: true,
}

const (
	flagConfig    = "config"
	flagDevice    = "device"
	flagTransport = "transport"
	flagDebug     = "debug"
)

func init() {
	log.SetFlags(log.Lshortfile | log.LstdFlags)

	pf := rootCmd.PersistentFlags()
	pf.StringP(flagConfig, "c", "", "path to TOML config file")
	pf.StringP(flagDevice, "p", "", "device path, empty = auto-detect")
	pf.StringP(flagTransport, "t", "", "transport: uart or spi, empty guesses from the path")
	pf.BoolP(flagDebug, "d", false, "debug mode")
}

// resolveConfig merges the config file with command-line overrides.
func resolveConfig(_ *cobra.Command) (*Config, error) {
	pf := rootCmd.PersistentFlags()

	path, err := pf.GetString(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("read config flag: %w", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	if device, _ := pf.GetString(flagDevice); device != "" {
		cfg.Device = device
	}
	if transport, _ := pf.GetString(flagTransport); transport != "" {
		cfg.Transport = transport
	}
	if debug, _ := pf.GetBool(flagDebug); debug {
		cr95hf.SetDebugEnabled(true)
	}

	return cfg, cfg.Validate()
}

func newTransport(cfg *Config) cr95hf.TransportFactory {
	return func(path string) (cr95hf.Transport, error) {
		kind := strings.ToLower(cfg.Transport)
		if kind == "" && strings.Contains(strings.ToLower(path), "spi") {
			kind = "spi"
		}

		switch kind {
		case "spi":
			return spi.New(path)
		case "uart", "":
			return uart.New(path)
		default:
			return nil, fmt.Errorf("unsupported transport type: %s", kind)
		}
	}
}

func newTransportFromDevice(device detection.DeviceInfo) (cr95hf.Transport, error) {
	switch strings.ToLower(device.Transport) {
	case "uart":
		return uart.New(device.Path)
	case "spi":
		return spi.New(device.Path)
	default:
		return nil, fmt.Errorf("unsupported transport type: %s", device.Transport)
	}
}

// openDevice connects per the resolved config, auto-detecting when no
// device path is set.
func openDevice(cfg *Config) (*cr95hf.Device, error) {
	opts := []cr95hf.ConnectOption{
		cr95hf.WithConnectTimeout(cfg.Timeout()),
	}
	if cfg.Device == "" {
		opts = append(opts,
			cr95hf.WithAutoDetection(),
			cr95hf.WithTransportFromDeviceFactory(newTransportFromDevice))
	} else {
		opts = append(opts, cr95hf.WithTransportFactory(newTransport(cfg)))
	}

	device, err := cr95hf.ConnectDevice(cfg.Device, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect failed: %w", err)
	}
	return device, nil
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel() // Setup interupt handler for ctrl-c
	quitChan := make(chan os.Signal, 1)
	signal.Notify(quitChan, os.Interrupt)
	go func() {
		s := <-quitChan
		log.Printf("got %v, exiting", s)
		cancel()
		// Failsafe if there is deadlocks
		<-time.After(15 * time.Second)
		log.Fatal("took to long to shutdown, forcefully exiting")
	}()

	if err := rootCmd.ExecuteContext(ctx); err != nil && !errors.Is(err, context.Canceled) {
		os.Exit(1)
	}
}
