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

package cr95hf

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ZaparooProject/go-cr95hf/detection"
)

// Device errors
var (
	ErrNoTagDetected  = errors.New("no tag detected")
	ErrTimeout        = errors.New("operation timeout")
	ErrNotImplemented = errors.New("not implemented")
)

// defaultCommandTimeout bounds a single command exchange when no other
// timeout has been configured.
const defaultCommandTimeout = 1 * time.Second

// DeviceConfig contains configuration options for the Device
type DeviceConfig struct {
	// RetryConfig configures retry behavior for transport operations
	RetryConfig *RetryConfig
	// Timeout is the default timeout for operations
	Timeout time.Duration
}

// DefaultDeviceConfig returns default device configuration
func DefaultDeviceConfig() *DeviceConfig {
	return &DeviceConfig{
		RetryConfig: DefaultRetryConfig(),
		Timeout:     defaultCommandTimeout,
	}
}

// Device represents a CR95HF NFC transceiver
//
// Thread Safety: Device is NOT thread-safe. All methods must be called from
// a single goroutine or protected with external synchronization. The underlying
// transport may have its own concurrency limitations. For concurrent access,
// wrap the Device with a mutex or use separate Device instances with separate
// transports.
type Device struct {
	transport        Transport
	config           *DeviceConfig
	ident            *Identification
	validationConfig *ValidationConfig
	scanHealth       *scanHealthState
	protocol         Protocol
	lastATQA         [2]byte
	atqaValid        bool
}

// hasCapability checks if the transport has the specified capability
func (d *Device) hasCapability(capability TransportCapability) bool {
	if checker, ok := d.transport.(TransportCapabilityChecker); ok {
		return checker.HasCapability(capability)
	}
	return false
}

// HasTransportCapability reports whether the underlying transport has the
// specified capability.
func (d *Device) HasTransportCapability(capability TransportCapability) bool {
	return d.hasCapability(capability)
}

// New creates a new CR95HF device with the given transport
func New(transport Transport, opts ...Option) (*Device, error) {
	device := &Device{
		transport:  transport,
		config:     DefaultDeviceConfig(),
		scanHealth: newScanHealthState(nil), // Initialize with default config
		protocol:   ProtocolOff,
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(device); err != nil {
			return nil, err
		}
	}

	return device, nil
}

// TransportFactory is a function type for creating transports
type TransportFactory func(path string) (Transport, error)

// TransportFromDeviceFactory is a function type for creating transports from detected devices
type TransportFromDeviceFactory func(device detection.DeviceInfo) (Transport, error)

// ConnectOption represents a functional option for ConnectDevice
type ConnectOption func(*connectConfig) error

// connectConfig holds configuration options for device connection
type connectConfig struct {
	validationConfig       *ValidationConfig
	transportFactory       TransportFactory
	transportDeviceFactory TransportFromDeviceFactory
	deviceOptions          []Option
	timeout                time.Duration
	autoDetect             bool
	enableValidation       bool
}

// WithAutoDetection enables automatic device detection instead of using a specific path
func WithAutoDetection() ConnectOption {
	return func(c *connectConfig) error {
		c.autoDetect = true
		return nil
	}
}

// WithValidation enables verified tag detection with the given configuration
func WithValidation(config *ValidationConfig) ConnectOption {
	return func(c *connectConfig) error {
		c.enableValidation = true
		c.validationConfig = config
		return nil
	}
}

// WithDeviceOptions adds device-level options
func WithDeviceOptions(opts ...Option) ConnectOption {
	return func(c *connectConfig) error {
		c.deviceOptions = append(c.deviceOptions, opts...)
		return nil
	}
}

// WithConnectTimeout sets the device connection timeout
func WithConnectTimeout(timeout time.Duration) ConnectOption {
	return func(c *connectConfig) error {
		c.timeout = timeout
		return nil
	}
}

// WithTransportFactory sets the transport factory function
func WithTransportFactory(factory TransportFactory) ConnectOption {
	return func(c *connectConfig) error {
		c.transportFactory = factory
		return nil
	}
}

// WithTransportFromDeviceFactory sets the transport from device factory function
func WithTransportFromDeviceFactory(factory TransportFromDeviceFactory) ConnectOption {
	return func(c *connectConfig) error {
		c.transportDeviceFactory = factory
		return nil
	}
}

// ConnectDevice creates and initializes a CR95HF device from a path or
// auto-detection. This is a high-level convenience function that handles
// transport creation, device initialization, and optional validation setup.
//
// Example usage:
//
//	// Connect to specific device
//	device, err := cr95hf.ConnectDevice("/dev/ttyUSB0")
//
//	// Connect with verified detection enabled
//	device, err := cr95hf.ConnectDevice("/dev/ttyUSB0", cr95hf.WithValidation(nil))
//
//	// Auto-detect device
//	device, err := cr95hf.ConnectDevice("", cr95hf.WithAutoDetection())
func applyConnectOptions(opts []ConnectOption) (*connectConfig, error) {
	config := &connectConfig{
		autoDetect:             false,
		enableValidation:       false,
		validationConfig:       nil,
		deviceOptions:          nil,
		timeout:                30 * time.Second,
		transportFactory:       nil,
		transportDeviceFactory: nil,
	}

	for _, opt := range opts {
		if err := opt(config); err != nil {
			return nil, fmt.Errorf("failed to apply connect option: %w", err)
		}
	}

	return config, nil
}

func createTransport(path string, config *connectConfig) (Transport, error) {
	if config.autoDetect || path == "" {
		ctx := context.Background()
		if config.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, config.timeout)
			defer cancel()
		}
		return createAutoDetectedTransport(ctx, config.transportDeviceFactory)
	}
	return createManualTransport(path, config.transportFactory)
}

func setupDevice(transport Transport, config *connectConfig) (*Device, error) {
	device, err := New(transport, config.deviceOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to create device: %w", err)
	}

	if config.timeout > 0 {
		if err := device.SetTimeout(config.timeout); err != nil {
			return nil, fmt.Errorf("failed to set timeout: %w", err)
		}
	}

	if err := device.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize device: %w", err)
	}

	return device, nil
}

func handleValidation(device *Device, config *connectConfig) {
	if !config.enableValidation {
		return
	}

	validationConfig := config.validationConfig
	if validationConfig == nil {
		validationConfig = DefaultValidationConfig()
	}
	device.validationConfig = validationConfig
}

func ConnectDevice(path string, opts ...ConnectOption) (*Device, error) {
	config, err := applyConnectOptions(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to apply connect options: %w", err)
	}

	transport, err := createTransport(path, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create transport: %w", err)
	}

	device, err := setupDevice(transport, config)
	if err != nil {
		_ = transport.Close()
		return nil, err
	}

	handleValidation(device, config)
	return device, nil
}

// createManualTransport handles creation of transport for a specific path
func createManualTransport(path string, factory TransportFactory) (Transport, error) {
	if factory == nil {
		return nil, errors.New("transport factory not provided")
	}

	transport, err := factory(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create transport for path %s: %w", path, err)
	}

	return transport, nil
}

// createAutoDetectedTransport handles auto-detection of devices
func createAutoDetectedTransport(ctx context.Context, factory TransportFromDeviceFactory) (Transport, error) {
	opts := detection.DefaultOptions()
	opts.Mode = detection.Safe

	devices, err := detection.DetectAll(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to detect devices: %w", err)
	}

	if len(devices) == 0 {
		return nil, errors.New("no CR95HF devices found")
	}

	// Use the first detected device
	device := devices[0]
	if factory == nil {
		return nil, errors.New("transport device factory not provided")
	}
	return factory(device)
}

// Transport returns the underlying transport
func (d *Device) Transport() Transport {
	return d.transport
}

// Init initializes the CR95HF: echo probe, identification read, then
// ISO14443-A protocol selection.
func (d *Device) Init() error {
	return d.InitContext(context.Background())
}

// SetTimeout sets the default timeout for operations
func (d *Device) SetTimeout(timeout time.Duration) error {
	d.config.Timeout = timeout
	if err := d.transport.SetTimeout(timeout); err != nil {
		return fmt.Errorf("failed to set timeout on transport: %w", err)
	}
	return nil
}

// SetRetryConfig updates the retry configuration
func (d *Device) SetRetryConfig(config *RetryConfig) {
	d.config.RetryConfig = config
	if tr, ok := d.transport.(*TransportWithRetry); ok {
		tr.SetRetryConfig(config)
	}
}

// SetScanConfig sets the continuous scan configuration
func (d *Device) SetScanConfig(config *ContinuousScanConfig) error {
	if config == nil {
		return ErrInvalidParameter
	}

	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid scan config: %w", err)
	}

	d.scanHealth = newScanHealthState(config)
	return nil
}

// GetScanConfig returns the current scan configuration
func (d *Device) GetScanConfig() *ContinuousScanConfig {
	if d.scanHealth == nil {
		return DefaultContinuousScanConfig()
	}
	return d.scanHealth.config.Clone()
}

// GetCurrentWakeStrategy returns the wake strategy scan cycles use
func (d *Device) GetCurrentWakeStrategy() WakeStrategy {
	if d.scanHealth == nil {
		return WakeAuto
	}
	return d.scanHealth.config.Strategy
}

// Identification returns the identification read during Init, or nil if
// the device has not been initialized yet.
func (d *Device) Identification() *Identification {
	return d.ident
}

// CurrentProtocol returns the RF protocol selected last. ProtocolOff means
// the field is down.
func (d *Device) CurrentProtocol() Protocol {
	return d.protocol
}

// LastATQA returns the answer-to-request bytes captured by the most recent
// successful wake, and whether any have been captured since Init.
func (d *Device) LastATQA() ([2]byte, bool) {
	return d.lastATQA, d.atqaValid
}

// Close closes the device connection
func (d *Device) Close() error {
	if d.transport != nil {
		if err := d.transport.Close(); err != nil {
			return fmt.Errorf("failed to close transport: %w", err)
		}
	}
	return nil
}
