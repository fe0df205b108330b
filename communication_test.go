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

	testutil "github.com/ZaparooProject/go-cr95hf/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEcho(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	device, err := New(mock)
	require.NoError(t, err)

	require.NoError(t, device.Echo())

	mock.SetResponse(testutil.CmdEcho, []byte{0x00})
	err = device.Echo()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestReadIdentification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		setupMock func(*MockTransport)
		name      string
		wantName  string
		wantCRC   uint16
		wantErr   bool
	}{
		{
			name:      "Valid_IDN",
			setupMock: func(*MockTransport) {},
			wantName:  "NFC FS2JAST4",
			wantCRC:   0x2ACE,
		},
		{
			name: "Error_Status",
			setupMock: func(m *MockTransport) {
				m.SetResponse(testutil.CmdIDN, testutil.BuildErrorResponse(StatusInvalidCommand))
			},
			wantErr: true,
		},
		{
			name: "Payload_Too_Short",
			setupMock: func(m *MockTransport) {
				m.SetResponse(testutil.CmdIDN, []byte{StatusSuccess, 'X', 0x00, 0x12, 0x34})
			},
			wantErr: true,
		},
		{
			name: "Name_Without_Terminator",
			setupMock: func(m *MockTransport) {
				m.SetResponse(testutil.CmdIDN, append([]byte{StatusSuccess}, []byte("CR95HF-DEMO\xAB\xCD")...))
			},
			wantName: "CR95HF-DEMO",
			wantCRC:  0xABCD,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mock := NewMockTransport()
			tt.setupMock(mock)

			device, err := New(mock)
			require.NoError(t, err)

			ident, err := device.ReadIdentification()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, ident.DeviceName)
			assert.Equal(t, tt.wantCRC, ident.ROMCRC)
			assert.Contains(t, ident.String(), tt.wantName)
		})
	}
}

func TestScan(t *testing.T) {
	t.Parallel()

	device, mock := newInitializedDevice(t)

	// Empty field counts as a healthy cycle
	_, err := device.Scan()
	require.ErrorIs(t, err, ErrNoTagDetected)
	assert.False(t, device.NeedsReinit())

	card := testutil.NewVirtualMIFARE1K(nil)
	mock.QueueResponse(testutil.CmdSendRecv, card.DiscoverySequence()...)

	tag, err := device.Scan()
	require.NoError(t, err)
	assert.Equal(t, testutil.TestMIFARE1KUID, tag.UIDBytes)
}

func TestScanHaltAfterDetect(t *testing.T) {
	t.Parallel()

	device, mock := newInitializedDevice(t)

	config := DefaultContinuousScanConfig()
	config.HaltAfterDetect = true
	require.NoError(t, device.SetScanConfig(config))

	card := testutil.NewVirtualMIFARE1K(nil)
	mock.SetHandler(testutil.CmdSendRecv, func(args []byte) ([]byte, error) {
		return card.Respond(args), nil
	})

	tag, err := device.Scan()
	require.NoError(t, err)
	require.NotNil(t, tag)
	assert.True(t, card.Halted, "detected card must be put to sleep")

	// A halted card ignores REQA, so REQA-only scanning reports it once
	config.Strategy = WakeREQAOnly
	require.NoError(t, device.SetScanConfig(config))
	_, err = device.Scan()
	require.ErrorIs(t, err, ErrNoTagDetected)
}

func TestScanReinitThreshold(t *testing.T) {
	t.Parallel()

	device, mock := newInitializedDevice(t)

	config := DefaultContinuousScanConfig()
	config.ReinitThreshold = 3
	require.NoError(t, device.SetScanConfig(config))

	mock.SetError(testutil.CmdSendRecv, ErrTransportRead)

	for i := 0; i < 3; i++ {
		assert.False(t, device.NeedsReinit(), "cycle %d", i)
		_, err := device.Scan()
		require.Error(t, err)
	}
	assert.True(t, device.NeedsReinit())

	// A successful Init resets the failure count
	mock.SetResponse(testutil.CmdSendRecv, testutil.BuildNoTagResponse())
	require.NoError(t, device.Init())
	assert.False(t, device.NeedsReinit())
}

func TestSelfTestHealthyWithTag(t *testing.T) {
	t.Parallel()

	device, mock := newInitializedDevice(t)
	card := testutil.NewVirtualNTAG213(nil)
	mock.SetHandler(testutil.CmdSendRecv, func(args []byte) ([]byte, error) {
		return card.Respond(args), nil
	})

	report, err := device.SelfTest()
	require.NoError(t, err)
	assert.True(t, report.EchoOK)
	require.NotNil(t, report.Identification)
	assert.True(t, report.ProtocolOK)
	assert.True(t, report.TagPresent)
	assert.Equal(t, []byte{0x44, 0x00}, report.ATQA)
	assert.Equal(t, 100, report.FieldLevel)
	assert.True(t, report.Healthy())
}

func TestSelfTestEmptyField(t *testing.T) {
	t.Parallel()

	device, _ := newInitializedDevice(t)

	report, err := device.SelfTest()
	require.NoError(t, err)
	assert.True(t, report.EchoOK)
	assert.True(t, report.ProtocolOK)
	assert.False(t, report.TagPresent)
	assert.Equal(t, 50, report.FieldLevel, "clean frame-wait timeout grades as field up")
	assert.True(t, report.Healthy())
}

func TestSelfTestReportsBrokenStages(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	mock.SetError(testutil.CmdEcho, NewTimeoutError("SendCommand", "mock"))
	mock.SetResponse(testutil.CmdIDN, testutil.BuildErrorResponse(StatusInvalidCommand))

	device, err := New(mock)
	require.NoError(t, err)

	report, err := device.SelfTest()
	require.NoError(t, err, "stage failures live in the report, not the error")
	assert.False(t, report.EchoOK)
	assert.Nil(t, report.Identification)
	assert.True(t, report.ProtocolOK)
	assert.False(t, report.Healthy())
}

func TestFieldLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		setupMock func(*MockTransport)
		name      string
		want      int
		wantErr   bool
	}{
		{
			name: "Tag_Answered",
			setupMock: func(m *MockTransport) {
				m.SetResponse(testutil.CmdSendRecv, testutil.BuildWakeResponse())
			},
			want: 100,
		},
		{
			name:      "Field_Up_No_Tag",
			setupMock: func(*MockTransport) {},
			want:      50,
		},
		{
			name: "Unexpected_Result_Code",
			setupMock: func(m *MockTransport) {
				m.SetResponse(testutil.CmdSendRecv, testutil.BuildErrorResponse(StatusFramingError))
			},
			want: 25,
		},
		{
			name: "No_Response_At_All",
			setupMock: func(m *MockTransport) {
				m.SetError(testutil.CmdSendRecv, NewTimeoutError("SendCommand", "mock"))
			},
			want: 0,
		},
		{
			name: "Protocol_Select_Broken",
			setupMock: func(m *MockTransport) {
				m.SetResponse(testutil.CmdProtocolSelect, testutil.BuildErrorResponse(StatusInvalidCommand))
			},
			want:    0,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			device, mock := newInitializedDevice(t)
			tt.setupMock(mock)

			level, err := device.FieldLevel()
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, level)
		})
	}
}

func TestAntennaOK(t *testing.T) {
	t.Parallel()

	device, mock := newInitializedDevice(t)

	ok, err := device.AntennaOK()
	require.NoError(t, err)
	assert.True(t, ok)

	mock.SetError(testutil.CmdSendRecv, NewTimeoutError("SendCommand", "mock"))
	ok, err = device.AntennaOK()
	require.NoError(t, err)
	assert.False(t, ok)
}
