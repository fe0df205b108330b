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
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	cr95hf "github.com/ZaparooProject/go-cr95hf"
	"github.com/ZaparooProject/go-cr95hf/detection"
	// Import all detectors to register them
	_ "github.com/ZaparooProject/go-cr95hf/detection/spi"
	_ "github.com/ZaparooProject/go-cr95hf/detection/uart"
	"github.com/ZaparooProject/go-cr95hf/polling"
	"github.com/ZaparooProject/go-cr95hf/transport/spi"
	"github.com/ZaparooProject/go-cr95hf/transport/uart"
)

type config struct {
	devicePath   *string
	transport    *string
	timeout      *time.Duration
	pollInterval *time.Duration
	monitor      *bool
	selfTest     *bool
	info         *bool
	debug        *bool
}

func parseFlags() *config {
	cfg := &config{
		devicePath: flag.String("device", "",
			"Device path (e.g., /dev/ttyUSB0 or /dev/spidev0.0). Leave empty for auto-detection."),
		transport: flag.String("transport", "",
			"Transport to use: uart or spi. Empty guesses from the device path."),
		timeout: flag.Duration("timeout", 30*time.Second, "Timeout for card detection (default: 30s)"),
		pollInterval: flag.Duration("poll-interval", 100*time.Millisecond,
			"Polling interval for card detection (default: 100ms)"),
		monitor:  flag.Bool("monitor", false, "Keep scanning and report every card arrival and removal"),
		selfTest: flag.Bool("selftest", false, "Run the hardware self test and exit"),
		info:     flag.Bool("info", false, "Print device identification and exit"),
		debug:    flag.Bool("debug", false, "Enable debug output"),
	}
	flag.Parse()

	if *cfg.debug {
		cr95hf.SetDebugEnabled(true)
	}

	return cfg
}

// newTransport creates a new transport from a device path.
func (cfg *config) newTransport(path string) (cr95hf.Transport, error) {
	if path == "" {
		return nil, errors.New("empty device path")
	}

	kind := strings.ToLower(*cfg.transport)
	if kind == "" && strings.Contains(strings.ToLower(path), "spi") {
		kind = "spi"
	}

	switch kind {
	case "spi":
		transport, err := spi.New(path)
		if err != nil {
			return nil, fmt.Errorf("failed to create SPI transport: %w", err)
		}
		return transport, nil
	case "uart", "":
		transport, err := uart.New(path)
		if err != nil {
			return nil, fmt.Errorf("failed to create UART transport: %w", err)
		}
		return transport, nil
	default:
		return nil, fmt.Errorf("unsupported transport type: %s", kind)
	}
}

// newTransportFromDevice creates a new transport from a detected device.
func newTransportFromDevice(device detection.DeviceInfo) (cr95hf.Transport, error) {
	switch strings.ToLower(device.Transport) {
	case "uart":
		transport, err := uart.New(device.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to create UART transport: %w", err)
		}
		return transport, nil
	case "spi":
		transport, err := spi.New(device.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to create SPI transport: %w", err)
		}
		return transport, nil
	default:
		return nil, fmt.Errorf("unsupported transport type: %s", device.Transport)
	}
}

func buildConnectOptions(cfg *config) []cr95hf.ConnectOption {
	var connectOpts []cr95hf.ConnectOption

	if *cfg.devicePath == "" {
		connectOpts = append(connectOpts,
			cr95hf.WithAutoDetection(),
			cr95hf.WithTransportFromDeviceFactory(newTransportFromDevice))
		_, _ = fmt.Println("Auto-detecting CR95HF devices...")
	} else {
		connectOpts = append(connectOpts, cr95hf.WithTransportFactory(cfg.newTransport))
		_, _ = fmt.Printf("Opening device: %s\n", *cfg.devicePath)
	}

	connectOpts = append(connectOpts, cr95hf.WithConnectTimeout(*cfg.timeout))
	return connectOpts
}

func connectToDevice(cfg *config) (*cr95hf.Device, error) {
	device, err := cr95hf.ConnectDevice(*cfg.devicePath, buildConnectOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to CR95HF device: %w", err)
	}

	if ident := device.Identification(); ident != nil {
		_, _ = fmt.Printf("Device: %s\n", ident)
	}

	return device, nil
}

func runSelfTest(device *cr95hf.Device) error {
	report, err := device.SelfTest()
	if err != nil {
		return fmt.Errorf("self test failed to run: %w", err)
	}

	_, _ = fmt.Printf("Echo:          %s\n", okString(report.EchoOK))
	if report.Identification != nil {
		_, _ = fmt.Printf("Identification: %s\n", report.Identification)
	} else {
		_, _ = fmt.Println("Identification: FAIL")
	}
	_, _ = fmt.Printf("Protocol:      %s\n", okString(report.ProtocolOK))
	_, _ = fmt.Printf("RF field:      %d%%\n", report.FieldLevel)
	if report.TagPresent {
		_, _ = fmt.Printf("Tag present:   yes (ATQA % 02X)\n", report.ATQA)
	}

	if !report.Healthy() {
		return errors.New("self test reported failures")
	}
	_, _ = fmt.Println("Self test passed")
	return nil
}

func okString(ok bool) string {
	if ok {
		return "OK"
	}
	return "FAIL"
}

func printTag(tag *cr95hf.DetectedTag) {
	_, _ = fmt.Printf("Card detected: %s\n", tag)
	_, _ = fmt.Printf("  UID:  %s (%d bytes)\n", tag.UID, len(tag.UIDBytes))
	_, _ = fmt.Printf("  ATQA: % 02X\n", tag.ATQA)
	_, _ = fmt.Printf("  SAK:  %02X\n", tag.SAK)
}

func runMonitor(ctx context.Context, session *polling.Session) error {
	session.OnCardDetected = func(tag *cr95hf.DetectedTag) error {
		printTag(tag)
		return nil
	}
	session.OnCardRemoved = func() {
		_, _ = fmt.Println("Card removed - ready for next card...")
	}
	session.OnError = func(err error) {
		_, _ = fmt.Fprintf(os.Stderr, "scan error: %v\n", err)
	}

	if err := session.Start(ctx); err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer func() { _ = session.Stop() }()

	<-ctx.Done()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		_, _ = fmt.Println("Session completed")
	}
	return nil
}

func runOnce(ctx context.Context, session *polling.Session, timeout time.Duration) error {
	tag, err := session.WaitForCard(ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			_, _ = fmt.Printf("timeout: no card detected within %s\n", timeout)
			return nil
		}
		return fmt.Errorf("detection failed: %w", err)
	}

	printTag(tag)
	return nil
}

func run(cfg *config) error {
	device, err := connectToDevice(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = device.Close() }()

	if *cfg.info {
		ident, err := device.ReadIdentification()
		if err != nil {
			return fmt.Errorf("identification read failed: %w", err)
		}
		_, _ = fmt.Println(ident)
		return nil
	}

	if *cfg.selfTest {
		return runSelfTest(device)
	}

	sessionConfig := polling.DefaultConfig()
	sessionConfig.ScanInterval = *cfg.pollInterval

	session, err := polling.NewSession(device, sessionConfig)
	if err != nil {
		return fmt.Errorf("failed to setup session: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *cfg.timeout)
	defer cancel()

	if *cfg.monitor {
		_, _ = fmt.Printf("Monitoring for cards (timeout: %s, poll interval: %s)...\n",
			*cfg.timeout, *cfg.pollInterval)
		return runMonitor(ctx, session)
	}

	_, _ = fmt.Printf("Waiting for card (timeout: %s, poll interval: %s)...\n",
		*cfg.timeout, *cfg.pollInterval)
	return runOnce(ctx, session, *cfg.timeout)
}

func main() {
	if err := run(parseFlags()); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
