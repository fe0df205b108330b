//go:build linux

package uart

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.bug.st/serial/enumerator"
)

// getSerialPorts returns available serial ports on Linux with USB
// identity where sysfs provides it. The enumerator only lists ttys
// backed by a real device, so virtual consoles never show up here.
func getSerialPorts(_ context.Context) ([]serialPort, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate serial ports: %w", err)
	}

	ports := make([]serialPort, 0, len(details))
	for _, detail := range details {
		port := serialPort{
			Path: detail.Name,
			Name: filepath.Base(detail.Name),
		}
		if detail.IsUSB {
			port.VIDPID = strings.ToUpper(detail.VID + ":" + detail.PID)
			port.SerialNumber = detail.SerialNumber
			port.Product = detail.Product
		}
		ports = append(ports, port)
	}

	return ports, nil
}
