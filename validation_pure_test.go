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
	"testing"
	"time"

	testutil "github.com/ZaparooProject/go-cr95hf/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fastValidationConfig keeps verification loops quick in tests
func fastValidationConfig() *ValidationConfig {
	return &ValidationConfig{
		EnableDetectVerification: true,
		DetectRetries:            3,
		RequiredMatches:          2,
		RetryDelay:               time.Millisecond,
	}
}

// queueStableCard loads n full discovery rounds of the same card
func queueStableCard(mock *MockTransport, card *testutil.VirtualCard, n int) {
	for i := 0; i < n; i++ {
		mock.QueueResponse(testutil.CmdSendRecv, card.DiscoverySequence()...)
	}
}

func TestNewValidatedDevice(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	vd, err := NewValidatedDevice(mock, nil)
	require.NoError(t, err)
	require.NotNil(t, vd)

	// Nil config falls back to the defaults, and the device underneath
	// is initialized and ready for discovery.
	assert.True(t, vd.config.EnableDetectVerification)
	assert.Equal(t, ProtocolISO14443A, vd.CurrentProtocol())
}

func TestNewValidatedDeviceInitFailure(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	mock.SetError(testutil.CmdEcho, NewTimeoutError("SendCommand", "mock"))

	_, err := NewValidatedDevice(mock, nil)
	require.Error(t, err)
}

func TestDetectTagValidated_StableUID(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	vd, err := NewValidatedDevice(mock, fastValidationConfig())
	require.NoError(t, err)

	card := testutil.NewVirtualMIFARE1K(nil)
	// Initial detection plus two confirming reads
	queueStableCard(mock, card, 3)

	tag, err := vd.DetectTagValidated()
	require.NoError(t, err)
	assert.Equal(t, testutil.TestMIFARE1KUID, tag.UIDBytes)

	metrics := vd.GetValidationMetrics()
	assert.Equal(t, uint64(1), metrics.TotalDetections)
	assert.Zero(t, metrics.FailedValidations)
	assert.False(t, metrics.LastValidation.IsZero())
}

func TestDetectTagValidated_UnstableUID(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	vd, err := NewValidatedDevice(mock, fastValidationConfig())
	require.NoError(t, err)

	// Every read sees a different card, the verification window never
	// accumulates enough consecutive matches.
	cardA := testutil.NewVirtualMIFARE1K([]byte{0x11, 0x11, 0x11, 0x11})
	cardB := testutil.NewVirtualMIFARE1K([]byte{0x22, 0x22, 0x22, 0x22})
	mock.QueueResponse(testutil.CmdSendRecv, cardA.DiscoverySequence()...)
	mock.QueueResponse(testutil.CmdSendRecv, cardB.DiscoverySequence()...)
	mock.QueueResponse(testutil.CmdSendRecv, cardA.DiscoverySequence()...)
	mock.QueueResponse(testutil.CmdSendRecv, cardB.DiscoverySequence()...)

	_, err = vd.DetectTagValidated()
	require.Error(t, err)

	metrics := vd.GetValidationMetrics()
	assert.Equal(t, uint64(1), metrics.TotalDetections)
	assert.Equal(t, uint64(1), metrics.FailedValidations)
}

func TestDetectTagValidated_VerificationDisabled(t *testing.T) {
	t.Parallel()

	config := fastValidationConfig()
	config.EnableDetectVerification = false

	mock := NewMockTransport()
	vd, err := NewValidatedDevice(mock, config)
	require.NoError(t, err)

	card := testutil.NewVirtualMIFARE1K(nil)
	// Exactly one round queued: any verification read would fail
	queueStableCard(mock, card, 1)

	tag, err := vd.DetectTagValidated()
	require.NoError(t, err)
	assert.Equal(t, testutil.TestMIFARE1KUID, tag.UIDBytes)
	assert.Equal(t, 3, mock.GetCallCount(testutil.CmdSendRecv),
		"no extra reads when verification is off")
}

func TestDetectTagValidated_NoTagPassesThrough(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	vd, err := NewValidatedDevice(mock, fastValidationConfig())
	require.NoError(t, err)

	_, err = vd.DetectTagValidated()
	require.ErrorIs(t, err, ErrNoTagDetected)

	// A failed initial detection is not a validation event
	metrics := vd.GetValidationMetrics()
	assert.Zero(t, metrics.TotalDetections)
}

func TestValidatedWrapperSharesDevice(t *testing.T) {
	t.Parallel()

	device, mock := newInitializedDevice(t)
	vd := device.Validated()

	card := testutil.NewVirtualNTAG213(nil)
	queueStableCard(mock, card, 1+DefaultValidationConfig().RequiredMatches)

	tag, err := vd.DetectTagValidated()
	require.NoError(t, err)
	assert.Equal(t, testutil.TestNTAG213UID, tag.UIDBytes)
}
