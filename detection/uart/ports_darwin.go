//go:build darwin

package uart

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	calloutDeviceRegex = regexp.MustCompile(`"IOCalloutDevice"\s*=\s*"([^"]+)"`)
	idVendorRegex      = regexp.MustCompile(`"idVendor"\s*=\s*(\d+)`)
	idProductRegex     = regexp.MustCompile(`"idProduct"\s*=\s*(\d+)`)
	usbVendorRegex     = regexp.MustCompile(`"USB Vendor Name"\s*=\s*"([^"]+)"`)
	usbProductRegex    = regexp.MustCompile(`"USB Product Name"\s*=\s*"([^"]+)"`)
	usbSerialRegex     = regexp.MustCompile(`"USB Serial Number"\s*=\s*"([^"]+)"`)
)

// getSerialPorts returns available serial ports on macOS, using ioreg
// for USB identity and falling back to globbing /dev when ioreg is
// unavailable
func getSerialPorts(ctx context.Context) ([]serialPort, error) {
	cmd := exec.CommandContext(ctx, "ioreg", "-r", "-c", "IOSerialBSDClient", "-a")
	output, err := cmd.Output()
	if err != nil {
		return globSerialPorts()
	}

	var ports []serialPort
	for _, device := range strings.Split(string(output), "+-o ") {
		if !strings.Contains(device, "IOSerialBSDClient") ||
			!strings.Contains(device, "IOCalloutDevice") {
			continue
		}

		port, ok := parseIoregDevice(device)
		if !ok {
			continue
		}
		if includeDarwinPort(port.Name) {
			ports = append(ports, port)
		}
	}

	if len(ports) == 0 {
		return globSerialPorts()
	}

	return ports, nil
}

// parseIoregDevice extracts one serial port entry from an ioreg device block
func parseIoregDevice(device string) (serialPort, bool) {
	var port serialPort

	match := calloutDeviceRegex.FindStringSubmatch(device)
	if len(match) < 2 {
		return port, false
	}
	port.Path = match[1]
	port.Name = filepath.Base(port.Path)

	port.VIDPID = parseIoregVIDPID(device)

	if m := usbVendorRegex.FindStringSubmatch(device); len(m) >= 2 {
		port.Manufacturer = m[1]
	}
	if m := usbProductRegex.FindStringSubmatch(device); len(m) >= 2 {
		port.Product = m[1]
	}
	if m := usbSerialRegex.FindStringSubmatch(device); len(m) >= 2 {
		port.SerialNumber = m[1]
	}

	return port, true
}

// parseIoregVIDPID formats ioreg's decimal idVendor/idProduct pair as VID:PID
func parseIoregVIDPID(device string) string {
	vidMatch := idVendorRegex.FindStringSubmatch(device)
	pidMatch := idProductRegex.FindStringSubmatch(device)
	if len(vidMatch) < 2 || len(pidMatch) < 2 {
		return ""
	}

	var vid, pid int
	if _, err := fmt.Sscanf(vidMatch[1], "%d", &vid); err != nil {
		return ""
	}
	if _, err := fmt.Sscanf(pidMatch[1], "%d", &pid); err != nil {
		return ""
	}

	return fmt.Sprintf("%04X:%04X", vid, pid)
}

// globSerialPorts lists serial device nodes without USB metadata.
// /dev/cu.* nodes are preferred over their /dev/tty.* twins since cu
// devices do not block on carrier detect.
func globSerialPorts() ([]serialPort, error) {
	var ports []serialPort

	cuMatches, _ := filepath.Glob("/dev/cu.*")
	for _, path := range cuMatches {
		name := filepath.Base(path)
		if strings.HasPrefix(name, "cu.Bluetooth") || !includeDarwinPort(name) {
			continue
		}
		ports = append(ports, serialPort{Path: path, Name: name})
	}

	ttyMatches, _ := filepath.Glob("/dev/tty.*")
	for _, path := range ttyMatches {
		name := filepath.Base(path)
		if strings.HasPrefix(name, "tty.Bluetooth") || !includeDarwinPort(name) {
			continue
		}
		if hasCUTwin(path, ports) {
			continue
		}
		ports = append(ports, serialPort{Path: path, Name: name})
	}

	return ports, nil
}

// hasCUTwin reports whether the cu.* equivalent of a tty.* path was
// already collected
func hasCUTwin(ttyPath string, ports []serialPort) bool {
	cuPath := strings.Replace(ttyPath, "/dev/tty.", "/dev/cu.", 1)
	for _, p := range ports {
		if p.Path == cuPath {
			return true
		}
	}
	return false
}

// includeDarwinPort filters out nodes that cannot be a CR95HF bridge
func includeDarwinPort(deviceName string) bool {
	lowerName := strings.ToLower(deviceName)

	// USB serial bridge drivers name their nodes predictably
	bridgePatterns := []string{
		"usbserial",
		"slab_usbtouart", // Silicon Labs CP210x
		"usbmodem",       // CDC ACM devices such as the ST VCP demo board
		"wchusbserial",   // WinChipHead CH340/CH341
	}
	for _, pattern := range bridgePatterns {
		if strings.Contains(lowerName, pattern) {
			return true
		}
	}

	// Keep everything else except obvious system devices
	systemPatterns := []string{"console", "debug", "system", "kernel"}
	for _, pattern := range systemPatterns {
		if strings.Contains(lowerName, pattern) {
			return false
		}
	}

	return true
}
