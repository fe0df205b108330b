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

// Package uart provides serial port detection for CR95HF devices
package uart

import (
	"context"
	"strings"
	"time"

	"github.com/ZaparooProject/go-cr95hf/detection"
	"github.com/ZaparooProject/go-cr95hf/transport/uart"
)

// serialPort describes one enumerated serial port with whatever USB
// identity the platform could supply.
type serialPort struct {
	Path         string
	Name         string
	VIDPID       string
	Manufacturer string
	Product      string
	SerialNumber string
}

// knownBridges maps USB identities of serial bridges that commonly
// carry CR95HF boards. The ST VCP entry is the CR95HF demo board
// itself, the rest are generic USB-UART chips used on breakouts.
var knownBridges = map[string]string{
	"0483:5740": "STMicroelectronics Virtual COM Port",
	"0403:6001": "FTDI FT232R",
	"0403:6015": "FTDI FT231X",
	"10C4:EA60": "Silicon Labs CP210x",
	"1A86:7523": "WinChipHead CH340",
}

// detector implements the Detector interface for serial ports
type detector struct{}

// New creates a new UART detector
func New() detection.Detector {
	return &detector{}
}

// init registers the detector on package import
func init() {
	detection.RegisterDetector(New())
}

// Transport returns the transport type
func (*detector) Transport() string {
	return "uart"
}

// Detect searches serial ports for CR95HF devices
func (*detector) Detect(ctx context.Context, opts *detection.Options) ([]detection.DeviceInfo, error) {
	ports, err := getSerialPorts(ctx)
	if err != nil {
		return nil, err
	}

	devices := make([]detection.DeviceInfo, 0, len(ports))
	for _, port := range ports {
		select {
		case <-ctx.Done():
			return devices, detection.ErrDetectionTimeout
		default:
		}

		device, skip := evaluatePort(ctx, port, opts)
		if skip {
			continue
		}
		devices = append(devices, device)
	}

	if len(devices) == 0 {
		return nil, detection.ErrNoDevicesFound
	}

	return devices, nil
}

// evaluatePort grades one serial port and probes it when the mode
// allows. Reports whether the port should be skipped.
func evaluatePort(ctx context.Context, port serialPort, opts *detection.Options) (detection.DeviceInfo, bool) {
	if detection.IsPathIgnored(port.Path, opts.IgnorePaths) {
		return detection.DeviceInfo{}, true
	}
	if port.VIDPID != "" && detection.IsBlocked(port.VIDPID, opts.Blocklist) {
		return detection.DeviceInfo{}, true
	}

	device := detection.DeviceInfo{
		Transport:  "uart",
		Path:       port.Path,
		Name:       port.Name,
		Confidence: gradePort(port),
		Metadata:   portMetadata(port),
	}

	switch opts.Mode {
	case detection.Passive:
		// Without probing, only identified bridges are worth reporting.
		return device, device.Confidence < detection.Medium
	case detection.Safe:
		// Safe mode never opens a port that has no recognizable identity.
		if device.Confidence < detection.Medium {
			return detection.DeviceInfo{}, true
		}
	case detection.Full:
	}

	if probePort(ctx, port.Path) {
		device.Confidence = detection.High
		device.Metadata["echo"] = "ok"
	} else if device.Confidence == detection.Low {
		// An unidentified port that does not answer is just noise.
		return detection.DeviceInfo{}, true
	}

	return device, false
}

// gradePort assigns a confidence grade from USB identity alone.
func gradePort(port serialPort) detection.Confidence {
	if port.VIDPID == "" {
		return detection.Low
	}
	if _, ok := knownBridges[strings.ToUpper(port.VIDPID)]; ok {
		return detection.Medium
	}
	return detection.Low
}

// portMetadata collects the non-empty identity fields of a port.
func portMetadata(port serialPort) map[string]string {
	metadata := make(map[string]string)
	if port.VIDPID != "" {
		metadata["vidpid"] = strings.ToUpper(port.VIDPID)
		if bridge, ok := knownBridges[strings.ToUpper(port.VIDPID)]; ok {
			metadata["bridge"] = bridge
		}
	}
	if port.Manufacturer != "" {
		metadata["manufacturer"] = port.Manufacturer
	}
	if port.Product != "" {
		metadata["product"] = port.Product
	}
	if port.SerialNumber != "" {
		metadata["serial_number"] = port.SerialNumber
	}
	return metadata
}

// probePort opens the port briefly and sends the echo command. A
// CR95HF answers the echo byte with the echo byte; anything else on
// the port stays silent and the probe times out.
func probePort(ctx context.Context, path string) bool {
	probeCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	transport, err := uart.New(path)
	if err != nil {
		return false
	}
	defer func() { _ = transport.Close() }()

	resp, err := transport.SendCommandContext(probeCtx, 0x55, nil)
	return err == nil && len(resp) == 1 && resp[0] == 0x55
}
