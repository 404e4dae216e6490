/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package protocol

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMacString(t *testing.T) {
	assert.Equal(t, "d073d5017c04", MacString(4930653221840))
	assert.Equal(t, "000000000000", MacString(0))
	assert.Equal(t, "ffffffffffff", MacString(1<<48-1))
}

func TestFrameHeaderRoundTrip(t *testing.T) {
	h := FrameHeader{Size: 49, Origin: 0, Tagged: true, Addressable: true, Protocol: 1024, Source: 4752}
	b := make([]byte, FrameHeaderSize)
	n := h.marshalBinaryTo(b)
	require.Equal(t, FrameHeaderSize, n)
	assert.Equal(t, "3100003490120000", hex.EncodeToString(b))

	var got FrameHeader
	got.unmarshalBinary(b)
	assert.Equal(t, h, got)
}

func TestProtocolHeaderRoundTrip(t *testing.T) {
	h := ProtocolHeader{Reserved1: 0, Type: LightSetPower, Reserved2: 0}
	b := make([]byte, ProtocolHeaderSize)
	n := h.marshalBinaryTo(b)
	require.Equal(t, ProtocolHeaderSize, n)
	assert.Equal(t, "000000000000000075000000", hex.EncodeToString(b))

	var got ProtocolHeader
	got.unmarshalBinary(b)
	assert.Equal(t, h, got)
}

func TestFrameAddressRoundTrip(t *testing.T) {
	a := FrameAddress{Target: 0xdeadbeefcafef00d, Sequence: 200, AckRequired: true, ResRequired: false}
	b := make([]byte, FrameAddressSize)
	a.marshalBinaryTo(b)

	var got FrameAddress
	got.unmarshalBinary(b)
	assert.Equal(t, a, got)
}

func TestMakePacketGetPower(t *testing.T) {
	p := MakePacket(45, 4930653221840, false, false, true, 97, GetPower, nil)
	b, err := p.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, "240000142d000000d073d5017c0400000000000000000161000000000000000014000000", hex.EncodeToString(b))

	parsed, err := ParsePacket(b)
	require.NoError(t, err)
	assert.False(t, parsed.Frame.Tagged)
	assert.Equal(t, uint64(4930653221840), parsed.Target())
	assert.Equal(t, uint8(97), parsed.Sequence())
	assert.Equal(t, GetPower, parsed.Type())
	assert.Equal(t, Empty{}, parsed.Payload)
}

func TestDiscoveryPacket(t *testing.T) {
	p := DiscoveryPacket(23, 5)
	b, err := p.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, "240000341700000000000000000000000000000000000105000000000000000002000000", hex.EncodeToString(b))
	assert.True(t, p.Frame.Tagged)
	assert.Equal(t, GetService, p.Type())
}

func TestParsePacketLenMismatchRejected(t *testing.T) {
	p := MakePacket(45, 4930653221840, false, false, true, 97, GetPower, nil)
	b, err := p.MarshalBinary()
	require.NoError(t, err)

	_, err = ParsePacket(b[:len(b)-1])
	assert.Error(t, err)
}

func TestParsePacketUnknownTypeYieldsRawPayload(t *testing.T) {
	p := MakePacket(1, 0, true, false, false, 1, MessageType(111), RawPayload{Bytes: []byte{1, 2, 3, 4}})
	b, err := p.MarshalBinary()
	require.NoError(t, err)

	parsed, err := ParsePacket(b)
	require.NoError(t, err)
	assert.Equal(t, MessageType(111), parsed.Type())
	raw, ok := parsed.Payload.(RawPayload)
	require.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3, 4}, raw.Bytes)
}

func TestVersionString(t *testing.T) {
	assert.Equal(t, "2.1", VersionString(0x00020001))
}

func TestBytesToLabel(t *testing.T) {
	var b [LabelSize]byte
	copy(b[:], "Just Text")
	assert.Equal(t, "Just Text", BytesToLabel(b))

	var b2 [LabelSize]byte
	copy(b2[1:], "AFTER_NULL")
	assert.Equal(t, "", BytesToLabel(b2))
}

func TestLabelRoundTrip(t *testing.T) {
	b := LabelToBytes("Kitchen Light")
	assert.Equal(t, "Kitchen Light", BytesToLabel(b))
}

func TestColorRoundTrip(t *testing.T) {
	cases := []HSBK{
		{Hue: 0, Saturation: 0, Brightness: 0, Kelvin: 2500},
		{Hue: 180, Saturation: 0.5, Brightness: 0.75, Kelvin: 3500},
		{Hue: 359.9945, Saturation: 1, Brightness: 1, Kelvin: 9000},
	}
	for _, c := range cases {
		payload := c.ToPayload(0)
		state := LightStatePayload{Hue: payload.Hue, Saturation: payload.Saturation, Brightness: payload.Brightness, Kelvin: payload.Kelvin}
		got := HSBKFromState(state)
		assert.InDelta(t, c.Hue, got.Hue, 360.0/65535+1e-9)
		assert.InDelta(t, c.Saturation, got.Saturation, 1.0/65535+1e-9)
		assert.InDelta(t, c.Brightness, got.Brightness, 1.0/65535+1e-9)
		assert.Equal(t, c.Kelvin, got.Kelvin)
	}
}

func TestPayloadRoundTripSizes(t *testing.T) {
	payloads := map[MessageType]Payload{
		GetService:        Empty{},
		StateService:      StateServicePayload{Service: ServiceUDP, Port: 56700},
		StateHostInfo:     StateHostInfoPayload{hostInfoLike{Signal: 1, Tx: 2, Rx: 3, Reserved: 4}},
		StateHostFirmware: StateHostFirmwarePayload{firmwareLike{Build: 1, Reserved: 2, Version: 3}},
		StateWifiInfo:     StateWifiInfoPayload{hostInfoLike{Signal: 5, Tx: 6, Rx: 7, Reserved: 8}},
		StateWifiFirmware: StateWifiFirmwarePayload{firmwareLike{Build: 9, Reserved: 10, Version: 11}},
		StatePower:        StatePowerPayload{powerLike{Level: 0}},
		StateLabel:        StateLabelPayload{labelLike{Label: LabelToBytes("hi")}},
		StateVersion:      StateVersionPayload{Vendor: 1, Product: 2, Version: 3},
		StateInfo:         StateInfoPayload{Time: 1, Uptime: 2, Downtime: 3},
		StateLocation:     StateLocationPayload{groupLocationLike{Label: LabelToBytes("home"), UpdatedAt: 42}},
		StateGroup:        StateGroupPayload{groupLocationLike{Label: LabelToBytes("living room"), UpdatedAt: 43}},
		EchoResponse:      EchoResponsePayload{},
		LightState:        LightStatePayload{Hue: 1, Saturation: 2, Brightness: 3, Kelvin: 4, Power: 65535, Label: LabelToBytes("bulb")},
		LightStatePower:   LightStatePowerPayload{powerLike{Level: 65535}},
	}

	for typ, pl := range payloads {
		b := make([]byte, pl.Len())
		n, err := pl.MarshalBinaryTo(b)
		require.NoError(t, err)
		assert.Equal(t, pl.Len(), n)

		got, err := decodePayload(typ, b)
		require.NoError(t, err)
		assert.Equal(t, pl, got)
	}
}

func TestSetPowerLightSetColorLightSetPowerMarshal(t *testing.T) {
	sp := SetPowerPayload{powerLike{Level: 65535}}
	b := make([]byte, sp.Len())
	_, err := sp.MarshalBinaryTo(b)
	require.NoError(t, err)
	assert.Equal(t, "ffff", hex.EncodeToString(b))

	lsc := LightSetColorPayload{Hue: 1, Saturation: 2, Brightness: 3, Kelvin: 4, Duration: 5}
	b2 := make([]byte, lsc.Len())
	_, err = lsc.MarshalBinaryTo(b2)
	require.NoError(t, err)
	assert.Len(t, b2, 13)

	lsp := LightSetPowerPayload{Level: 65535, Duration: 1000}
	b3 := make([]byte, lsp.Len())
	_, err = lsp.MarshalBinaryTo(b3)
	require.NoError(t, err)
	assert.Equal(t, "ffffe8030000", hex.EncodeToString(b3))
}
