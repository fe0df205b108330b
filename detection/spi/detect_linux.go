//go:build linux

package spi

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ZaparooProject/go-cr95hf/detection"
	"github.com/ZaparooProject/go-cr95hf/transport/spi"
)

// spiDevice describes one spidev node exposed by the kernel
type spiDevice struct {
	Path       string // Device path, e.g., "/dev/spidev0.0"
	Bus        int    // SPI bus number
	ChipSelect int    // Chip select line on the bus
}

// detectLinux searches Linux spidev nodes for CR95HF devices
func detectLinux(ctx context.Context, opts *detection.Options) ([]detection.DeviceInfo, error) {
	nodes, err := findSPIDevices()
	if err != nil {
		return nil, err
	}

	if len(nodes) == 0 {
		return nil, detection.ErrNoDevicesFound
	}

	devices := make([]detection.DeviceInfo, 0, len(nodes))
	for _, node := range nodes {
		select {
		case <-ctx.Done():
			return devices, detection.ErrDetectionTimeout
		default:
		}

		device, skip := evaluateNode(ctx, node, opts)
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

// evaluateNode grades one spidev node and probes it when the mode
// allows. Reports whether the node should be skipped.
func evaluateNode(ctx context.Context, node spiDevice, opts *detection.Options) (detection.DeviceInfo, bool) {
	if detection.IsPathIgnored(node.Path, opts.IgnorePaths) {
		return detection.DeviceInfo{}, true
	}

	device := detection.DeviceInfo{
		Transport: "spi",
		Path:      node.Path,
		Name:      fmt.Sprintf("SPI device on bus %d chip select %d", node.Bus, node.ChipSelect),
		Metadata: map[string]string{
			"bus":         fmt.Sprintf("%d", node.Bus),
			"chip_select": fmt.Sprintf("%d", node.ChipSelect),
		},
	}

	// A spidev node carries no identity of its own. The first chip
	// select on the first bus is where CR95HF shields land on boards
	// with a single SPI header; anything else is a guess.
	if node.Bus == DefaultBus && node.ChipSelect == DefaultChipSelect {
		device.Confidence = detection.Medium
	} else {
		device.Confidence = detection.Low
	}

	switch opts.Mode {
	case detection.Passive:
		// Without probing, only the canonical location is worth reporting.
		return device, device.Confidence < detection.Medium
	case detection.Safe:
		// Safe mode does not clock a chip select that may belong to
		// some other peripheral.
		if device.Confidence < detection.Medium {
			return detection.DeviceInfo{}, true
		}
	case detection.Full:
	}

	if probeNode(ctx, node.Path) {
		device.Confidence = detection.High
		device.Metadata["echo"] = "ok"
	} else if device.Confidence == detection.Low {
		// A node off the canonical location that does not answer is
		// just noise.
		return detection.DeviceInfo{}, true
	}

	return device, false
}

// findSPIDevices discovers accessible spidev nodes
func findSPIDevices() ([]spiDevice, error) {
	matches, err := filepath.Glob("/dev/spidev*")
	if err != nil {
		return nil, fmt.Errorf("failed to scan for SPI devices: %w", err)
	}

	nodes := make([]spiDevice, 0, len(matches))
	for _, path := range matches {
		var bus, chipSelect int
		if _, err := fmt.Sscanf(filepath.Base(path), "spidev%d.%d", &bus, &chipSelect); err != nil {
			continue
		}

		if _, err := os.Stat(path); err != nil {
			continue
		}

		nodes = append(nodes, spiDevice{
			Path:       path,
			Bus:        bus,
			ChipSelect: chipSelect,
		})
	}

	return nodes, nil
}

// probeNode opens the node briefly and sends the echo command. A
// CR95HF answers the echo byte with the echo byte; anything else on
// the bus stays silent and the probe times out.
func probeNode(ctx context.Context, path string) bool {
	probeCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	transport, err := spi.New(path)
	if err != nil {
		return false
	}
	defer func() { _ = transport.Close() }()

	resp, err := transport.SendCommandContext(probeCtx, 0x55, nil)
	return err == nil && len(resp) == 1 && resp[0] == 0x55
}
