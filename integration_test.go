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

// Integration tests run the whole driver against a simulated card that
// answers the real ISO14443-A dialogue byte for byte.

package cr95hf

import (
	"context"
	"testing"

	testutil "github.com/ZaparooProject/go-cr95hf/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// connectVirtualCard wires a simulated card to a fresh initialized device
func connectVirtualCard(t *testing.T, card *testutil.VirtualCard) (*Device, *MockTransport) {
	t.Helper()

	mock := NewMockTransport()
	mock.SetHandler(testutil.CmdSendRecv, func(args []byte) ([]byte, error) {
		return card.Respond(args), nil
	})

	device, err := New(mock)
	require.NoError(t, err)
	require.NoError(t, device.Init())
	return device, mock
}

func TestIntegration_DiscoverSingleSizeUID(t *testing.T) {
	t.Parallel()

	card := testutil.NewVirtualMIFARE1K(nil)
	device, _ := connectVirtualCard(t, card)

	tag, err := device.DetectTag()
	require.NoError(t, err)
	assert.Equal(t, testutil.TestMIFARE1KUID, tag.UIDBytes)
	assert.Equal(t, TagTypeClassic1K, tag.Type)
	assert.Equal(t, byte(0x08), tag.SAK)
	assert.Equal(t, []byte{0x04, 0x00}, tag.ATQA)
}

func TestIntegration_DiscoverDoubleSizeUID(t *testing.T) {
	t.Parallel()

	card := testutil.NewVirtualNTAG213(nil)
	device, _ := connectVirtualCard(t, card)

	tag, err := device.DetectTag()
	require.NoError(t, err)
	assert.Equal(t, testutil.TestNTAG213UID, tag.UIDBytes)
	assert.Len(t, tag.UIDBytes, 7)
	assert.Equal(t, TagTypeUltralight, tag.Type)
	assert.Equal(t, byte(0x00), tag.SAK)
}

func TestIntegration_CardLeavesAndReturns(t *testing.T) {
	t.Parallel()

	card := testutil.NewVirtualMIFARE1K(nil)
	device, _ := connectVirtualCard(t, card)

	_, err := device.DetectTag()
	require.NoError(t, err)

	card.Remove()
	_, err = device.DetectTag()
	require.ErrorIs(t, err, ErrNoTagDetected)

	card.Insert()
	tag, err := device.DetectTag()
	require.NoError(t, err)
	assert.Equal(t, testutil.TestMIFARE1KUID, tag.UIDBytes)
}

func TestIntegration_HaltedCardNeedsWUPA(t *testing.T) {
	t.Parallel()

	card := testutil.NewVirtualMIFARE1K(nil)
	device, _ := connectVirtualCard(t, card)

	_, err := device.DetectTag()
	require.NoError(t, err)
	require.NoError(t, device.Halt())
	require.True(t, card.Halted)

	// REQA cannot rouse a halted card
	_, err = device.DetectTagWithStrategy(context.Background(), WakeREQAOnly)
	require.ErrorIs(t, err, ErrNoTagDetected)

	// The default strategy leads with WUPA, which can
	tag, err := device.DetectTag()
	require.NoError(t, err)
	assert.Equal(t, testutil.TestMIFARE1KUID, tag.UIDBytes)
}

func TestIntegration_RediscoverySeesSameCard(t *testing.T) {
	t.Parallel()

	card := testutil.NewVirtualNTAG213(nil)
	device, _ := connectVirtualCard(t, card)

	first, err := device.DetectTag()
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := device.DetectTag()
		require.NoError(t, err, "cycle %d", i)
		assert.Equal(t, first.UID, again.UID, "cycle %d", i)
		assert.Equal(t, first.Type, again.Type, "cycle %d", i)
	}
}

func TestIntegration_ValidatedDiscovery(t *testing.T) {
	t.Parallel()

	card := testutil.NewVirtualNTAG213(nil)
	mock := NewMockTransport()
	mock.SetHandler(testutil.CmdSendRecv, func(args []byte) ([]byte, error) {
		return card.Respond(args), nil
	})

	vd, err := NewValidatedDevice(mock, fastValidationConfig())
	require.NoError(t, err)

	tag, err := vd.DetectTagValidated()
	require.NoError(t, err)
	assert.Equal(t, testutil.TestNTAG213UID, tag.UIDBytes)

	metrics := vd.GetValidationMetrics()
	assert.Equal(t, uint64(1), metrics.TotalDetections)
	assert.Zero(t, metrics.FailedValidations)
}

func TestIntegration_FullSessionLifecycle(t *testing.T) {
	t.Parallel()

	card := testutil.NewVirtualMIFARE1K(nil)
	device, mock := connectVirtualCard(t, card)

	report, err := device.SelfTest()
	require.NoError(t, err)
	assert.True(t, report.Healthy())
	assert.True(t, report.TagPresent)

	// The self test's wake leaves protocol state intact for discovery
	tag, err := device.DetectTag()
	require.NoError(t, err)
	assert.Equal(t, testutil.TestMIFARE1KUID, tag.UIDBytes)

	require.NoError(t, device.FieldOff())
	assert.Equal(t, ProtocolOff, device.CurrentProtocol())

	// Discovery refuses to run with the field down
	_, err = device.DetectTag()
	require.ErrorIs(t, err, ErrNotImplemented)

	require.NoError(t, device.SelectProtocol(ProtocolISO14443A))
	_, err = device.DetectTag()
	require.NoError(t, err)

	require.NoError(t, device.Close())
	assert.False(t, mock.IsConnected())
}
