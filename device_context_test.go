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
	"testing"
	"time"

	testutil "github.com/ZaparooProject/go-cr95hf/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitContext_HandshakeOrder(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	device, err := New(mock)
	require.NoError(t, err)

	require.NoError(t, device.InitContext(context.Background()))

	assert.Equal(t, 1, mock.GetCallCount(testutil.CmdEcho))
	assert.Equal(t, 1, mock.GetCallCount(testutil.CmdIDN))
	assert.Equal(t, 1, mock.GetCallCount(testutil.CmdProtocolSelect))

	// ISO14443-A with the default parameter byte
	calls := mock.GetCalls(testutil.CmdProtocolSelect)
	require.Len(t, calls, 1)
	assert.Equal(t, []byte{byte(ProtocolISO14443A), 0x00}, calls[0])

	assert.Equal(t, ProtocolISO14443A, device.CurrentProtocol())
	require.NotNil(t, device.Identification())
	assert.Equal(t, "NFC FS2JAST4", device.Identification().DeviceName)
	assert.Equal(t, uint16(0x2ACE), device.Identification().ROMCRC)
}

func TestInitContext_EchoFailureStopsHandshake(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		echo []byte
		err  error
	}{
		{name: "Echo_Timeout", err: NewTimeoutError("SendCommand", "mock")},
		{name: "Echo_Wrong_Byte", echo: []byte{0xAA}},
		{name: "Echo_Empty", echo: []byte{}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mock := NewMockTransport()
			if tt.err != nil {
				mock.SetError(testutil.CmdEcho, tt.err)
			} else {
				mock.SetResponse(testutil.CmdEcho, tt.echo)
			}

			device, err := New(mock)
			require.NoError(t, err)

			require.Error(t, device.InitContext(context.Background()))
			assert.Zero(t, mock.GetCallCount(testutil.CmdIDN),
				"identification must not run after a failed echo")
			assert.Zero(t, mock.GetCallCount(testutil.CmdProtocolSelect))
			assert.Equal(t, ProtocolOff, device.CurrentProtocol())
			assert.Nil(t, device.Identification())
		})
	}
}

func TestInitContext_ShortIdentification(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	// Success status but fewer than the ten payload bytes a real device sends
	mock.SetResponse(testutil.CmdIDN, []byte{StatusSuccess, 'N', 'F', 'C', 0x00, 0x2A})

	device, err := New(mock)
	require.NoError(t, err)

	err = device.InitContext(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidResponse)
	assert.Zero(t, mock.GetCallCount(testutil.CmdProtocolSelect),
		"protocol selection must not run after a failed identification")
	assert.Nil(t, device.Identification())
}

func TestInitContext_ProtocolSelectFailure(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	mock.SetResponse(testutil.CmdProtocolSelect, testutil.BuildErrorResponse(StatusInvalidCommand))

	device, err := New(mock)
	require.NoError(t, err)

	err = device.InitContext(context.Background())
	require.Error(t, err)
	assert.Equal(t, ProtocolOff, device.CurrentProtocol())
}

func TestInitContext_ClearsStateFromEarlierSession(t *testing.T) {
	t.Parallel()

	device, mock := newInitializedDevice(t)

	card := testutil.NewVirtualMIFARE1K(nil)
	mock.QueueResponse(testutil.CmdSendRecv, card.DiscoverySequence()...)
	_, err := device.DetectTag()
	require.NoError(t, err)
	_, valid := device.LastATQA()
	require.True(t, valid)

	require.NoError(t, device.InitContext(context.Background()))
	_, valid = device.LastATQA()
	assert.False(t, valid, "a fresh Init discards the previous session's ATQA")
}

func TestInitContext_Canceled(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	device, err := New(mock)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = device.InitContext(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSelectProtocolContext(t *testing.T) {
	t.Parallel()

	device, mock := newInitializedDevice(t)

	require.NoError(t, device.SelectProtocolContext(context.Background(), ProtocolISO15693))
	assert.Equal(t, ProtocolISO15693, device.CurrentProtocol())

	// A rejected selection leaves the current protocol untouched
	mock.SetResponse(testutil.CmdProtocolSelect, testutil.BuildErrorResponse(StatusInvalidLength))
	err := device.SelectProtocolContext(context.Background(), ProtocolFeliCa)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidParameter)
	assert.Equal(t, ProtocolISO15693, device.CurrentProtocol())
}

func TestFieldOffContext(t *testing.T) {
	t.Parallel()

	device, mock := newInitializedDevice(t)

	require.NoError(t, device.FieldOffContext(context.Background()))
	assert.Equal(t, ProtocolOff, device.CurrentProtocol())

	calls := mock.GetCalls(testutil.CmdProtocolSelect)
	require.Len(t, calls, 2) // Init then FieldOff
	assert.Equal(t, []byte{byte(ProtocolOff), 0x00}, calls[1])
}

func TestRawContext(t *testing.T) {
	t.Parallel()

	device, mock := newInitializedDevice(t)
	mock.SetResponse(testutil.CmdRdReg, []byte{StatusSuccess, 0x26})

	resp, err := device.RawContext(context.Background(), testutil.CmdRdReg, []byte{0x69, 0x01, 0x00})
	require.NoError(t, err)
	assert.Equal(t, []byte{StatusSuccess, 0x26}, resp)

	calls := mock.GetCalls(testutil.CmdRdReg)
	require.Len(t, calls, 1)
	assert.Equal(t, []byte{0x69, 0x01, 0x00}, calls[0])
}

func TestExchangeContext_DelayedTransport(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	mock.SetDelay(5 * time.Millisecond)

	device, err := New(mock)
	require.NoError(t, err)

	// Well inside every per-step window, the delay is harmless
	require.NoError(t, device.InitContext(context.Background()))
}
