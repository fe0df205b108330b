//go:build !linux

package spi

import (
	"context"

	"github.com/ZaparooProject/go-cr95hf/detection"
)

// detectLinux is a stub for non-Linux platforms
func detectLinux(_ context.Context, _ *detection.Options) ([]detection.DeviceInfo, error) {
	return nil, detection.ErrUnsupportedPlatform
}
