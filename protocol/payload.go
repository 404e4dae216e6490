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
	"encoding/binary"
	"fmt"
)

// Payload is implemented by every typed message body in this package, and by
// RawPayload for message types this library does not know how to decode.
type Payload interface {
	// MarshalBinaryTo writes the payload into b, which must be at least
	// Len() bytes, and returns the number of bytes written.
	MarshalBinaryTo(b []byte) (int, error)
	// Len returns the on-wire size of the payload in bytes.
	Len() int
}

// LabelSize is the fixed on-wire length of a device or group/location label.
const LabelSize = 32

// Empty is the payload for every message type that carries no body
// (GET_SERVICE, GET_POWER, ACKNOWLEDGEMENT, LIGHT_GET, ...).
type Empty struct{}

// MarshalBinaryTo implements Payload.
func (Empty) MarshalBinaryTo(_ []byte) (int, error) { return 0, nil }

// Len implements Payload.
func (Empty) Len() int { return 0 }

// RawPayload is returned by ParsePacket for message types this library does
// not recognize; it carries the undecoded trailing bytes so callers can
// still inspect them.
type RawPayload struct {
	Bytes []byte
}

// MarshalBinaryTo implements Payload.
func (p RawPayload) MarshalBinaryTo(b []byte) (int, error) {
	return copy(b, p.Bytes), nil
}

// Len implements Payload.
func (p RawPayload) Len() int { return len(p.Bytes) }

// StateServicePayload is the body of STATE_SERVICE.
type StateServicePayload struct {
	Service Service
	Port    uint32
}

// MarshalBinaryTo implements Payload.
func (p StateServicePayload) MarshalBinaryTo(b []byte) (int, error) {
	if err := checkLen(b, p.Len(), "StateServicePayload"); err != nil {
		return 0, err
	}
	b[0] = uint8(p.Service)
	binary.LittleEndian.PutUint32(b[1:], p.Port)
	return p.Len(), nil
}

// Len implements Payload.
func (StateServicePayload) Len() int { return 5 }

func decodeStateService(b []byte) (Payload, error) {
	if err := checkLen(b, 5, "StateServicePayload"); err != nil {
		return nil, err
	}
	return StateServicePayload{Service: Service(b[0]), Port: binary.LittleEndian.Uint32(b[1:])}, nil
}

// hostInfoLike is shared by STATE_HOST_INFO and STATE_WIFI_INFO: they have
// identical wire layouts (signal, tx, rx, reserved).
type hostInfoLike struct {
	Signal   uint32
	Tx       uint32
	Rx       uint32
	Reserved uint16
}

func (p hostInfoLike) marshalBinaryTo(b []byte) (int, error) {
	if err := checkLen(b, 14, "host/wifi info payload"); err != nil {
		return 0, err
	}
	binary.LittleEndian.PutUint32(b[0:], p.Signal)
	binary.LittleEndian.PutUint32(b[4:], p.Tx)
	binary.LittleEndian.PutUint32(b[8:], p.Rx)
	binary.LittleEndian.PutUint16(b[12:], p.Reserved)
	return 14, nil
}

func decodeHostInfoLike(b []byte) (hostInfoLike, error) {
	if err := checkLen(b, 14, "host/wifi info payload"); err != nil {
		return hostInfoLike{}, err
	}
	return hostInfoLike{
		Signal:   binary.LittleEndian.Uint32(b[0:]),
		Tx:       binary.LittleEndian.Uint32(b[4:]),
		Rx:       binary.LittleEndian.Uint32(b[8:]),
		Reserved: binary.LittleEndian.Uint16(b[12:]),
	}, nil
}

// StateHostInfoPayload is the body of STATE_HOST_INFO.
type StateHostInfoPayload struct{ hostInfoLike }

// MarshalBinaryTo implements Payload.
func (p StateHostInfoPayload) MarshalBinaryTo(b []byte) (int, error) { return p.marshalBinaryTo(b) }

// Len implements Payload.
func (StateHostInfoPayload) Len() int { return 14 }

func decodeStateHostInfo(b []byte) (Payload, error) {
	h, err := decodeHostInfoLike(b)
	if err != nil {
		return nil, err
	}
	return StateHostInfoPayload{h}, nil
}

// StateWifiInfoPayload is the body of STATE_WIFI_INFO.
type StateWifiInfoPayload struct{ hostInfoLike }

// MarshalBinaryTo implements Payload.
func (p StateWifiInfoPayload) MarshalBinaryTo(b []byte) (int, error) { return p.marshalBinaryTo(b) }

// Len implements Payload.
func (StateWifiInfoPayload) Len() int { return 14 }

func decodeStateWifiInfo(b []byte) (Payload, error) {
	h, err := decodeHostInfoLike(b)
	if err != nil {
		return nil, err
	}
	return StateWifiInfoPayload{h}, nil
}

// firmwareLike is shared by STATE_HOST_FIRMWARE and STATE_WIFI_FIRMWARE.
type firmwareLike struct {
	Build    uint64
	Reserved uint64
	Version  uint32
}

func (p firmwareLike) marshalBinaryTo(b []byte) (int, error) {
	if err := checkLen(b, 20, "firmware payload"); err != nil {
		return 0, err
	}
	binary.LittleEndian.PutUint64(b[0:], p.Build)
	binary.LittleEndian.PutUint64(b[8:], p.Reserved)
	binary.LittleEndian.PutUint32(b[16:], p.Version)
	return 20, nil
}

func decodeFirmwareLike(b []byte) (firmwareLike, error) {
	if err := checkLen(b, 20, "firmware payload"); err != nil {
		return firmwareLike{}, err
	}
	return firmwareLike{
		Build:    binary.LittleEndian.Uint64(b[0:]),
		Reserved: binary.LittleEndian.Uint64(b[8:]),
		Version:  binary.LittleEndian.Uint32(b[16:]),
	}, nil
}

// StateHostFirmwarePayload is the body of STATE_HOST_FIRMWARE.
type StateHostFirmwarePayload struct{ firmwareLike }

// MarshalBinaryTo implements Payload.
func (p StateHostFirmwarePayload) MarshalBinaryTo(b []byte) (int, error) {
	return p.marshalBinaryTo(b)
}

// Len implements Payload.
func (StateHostFirmwarePayload) Len() int { return 20 }

func decodeStateHostFirmware(b []byte) (Payload, error) {
	f, err := decodeFirmwareLike(b)
	if err != nil {
		return nil, err
	}
	return StateHostFirmwarePayload{f}, nil
}

// StateWifiFirmwarePayload is the body of STATE_WIFI_FIRMWARE.
type StateWifiFirmwarePayload struct{ firmwareLike }

// MarshalBinaryTo implements Payload.
func (p StateWifiFirmwarePayload) MarshalBinaryTo(b []byte) (int, error) {
	return p.marshalBinaryTo(b)
}

// Len implements Payload.
func (StateWifiFirmwarePayload) Len() int { return 20 }

func decodeStateWifiFirmware(b []byte) (Payload, error) {
	f, err := decodeFirmwareLike(b)
	if err != nil {
		return nil, err
	}
	return StateWifiFirmwarePayload{f}, nil
}

// powerLike is the u16 "level" body shared by SET_POWER and STATE_POWER.
type powerLike struct{ Level uint16 }

func (p powerLike) marshalBinaryTo(b []byte) (int, error) {
	if err := checkLen(b, 2, "power payload"); err != nil {
		return 0, err
	}
	binary.LittleEndian.PutUint16(b[0:], p.Level)
	return 2, nil
}

func decodePowerLike(b []byte) (powerLike, error) {
	if err := checkLen(b, 2, "power payload"); err != nil {
		return powerLike{}, err
	}
	return powerLike{Level: binary.LittleEndian.Uint16(b[0:])}, nil
}

// SetPowerPayload is the body of SET_POWER.
type SetPowerPayload struct{ powerLike }

// MarshalBinaryTo implements Payload.
func (p SetPowerPayload) MarshalBinaryTo(b []byte) (int, error) { return p.marshalBinaryTo(b) }

// Len implements Payload.
func (SetPowerPayload) Len() int { return 2 }

// StatePowerPayload is the body of STATE_POWER.
type StatePowerPayload struct{ powerLike }

// MarshalBinaryTo implements Payload.
func (p StatePowerPayload) MarshalBinaryTo(b []byte) (int, error) { return p.marshalBinaryTo(b) }

// Len implements Payload.
func (StatePowerPayload) Len() int { return 2 }

func decodeStatePower(b []byte) (Payload, error) {
	p, err := decodePowerLike(b)
	if err != nil {
		return nil, err
	}
	return StatePowerPayload{p}, nil
}

// labelLike is the fixed 32-byte label body shared by SET_LABEL and
// STATE_LABEL.
type labelLike struct{ Label [LabelSize]byte }

func (p labelLike) marshalBinaryTo(b []byte) (int, error) {
	if err := checkLen(b, LabelSize, "label payload"); err != nil {
		return 0, err
	}
	copy(b[:LabelSize], p.Label[:])
	return LabelSize, nil
}

func decodeLabelLike(b []byte) (labelLike, error) {
	if err := checkLen(b, LabelSize, "label payload"); err != nil {
		return labelLike{}, err
	}
	var l labelLike
	copy(l.Label[:], b[:LabelSize])
	return l, nil
}

// SetLabelPayload is the body of SET_LABEL.
type SetLabelPayload struct{ labelLike }

// MarshalBinaryTo implements Payload.
func (p SetLabelPayload) MarshalBinaryTo(b []byte) (int, error) { return p.marshalBinaryTo(b) }

// Len implements Payload.
func (SetLabelPayload) Len() int { return LabelSize }

// NewSetLabelPayload truncates label to LabelSize bytes and zero-pads the
// rest, matching Device.SetLabel's on-wire encoding.
func NewSetLabelPayload(label string) SetLabelPayload {
	return SetLabelPayload{labelLike{Label: LabelToBytes(label)}}
}

// StateLabelPayload is the body of STATE_LABEL.
type StateLabelPayload struct{ labelLike }

// MarshalBinaryTo implements Payload.
func (p StateLabelPayload) MarshalBinaryTo(b []byte) (int, error) { return p.marshalBinaryTo(b) }

// Len implements Payload.
func (StateLabelPayload) Len() int { return LabelSize }

func decodeStateLabel(b []byte) (Payload, error) {
	l, err := decodeLabelLike(b)
	if err != nil {
		return nil, err
	}
	return StateLabelPayload{l}, nil
}

// StateVersionPayload is the body of STATE_VERSION.
type StateVersionPayload struct {
	Vendor  uint32
	Product uint32
	Version uint32
}

// MarshalBinaryTo implements Payload.
func (p StateVersionPayload) MarshalBinaryTo(b []byte) (int, error) {
	if err := checkLen(b, p.Len(), "StateVersionPayload"); err != nil {
		return 0, err
	}
	binary.LittleEndian.PutUint32(b[0:], p.Vendor)
	binary.LittleEndian.PutUint32(b[4:], p.Product)
	binary.LittleEndian.PutUint32(b[8:], p.Version)
	return p.Len(), nil
}

// Len implements Payload.
func (StateVersionPayload) Len() int { return 12 }

func decodeStateVersion(b []byte) (Payload, error) {
	if err := checkLen(b, 12, "StateVersionPayload"); err != nil {
		return nil, err
	}
	return StateVersionPayload{
		Vendor:  binary.LittleEndian.Uint32(b[0:]),
		Product: binary.LittleEndian.Uint32(b[4:]),
		Version: binary.LittleEndian.Uint32(b[8:]),
	}, nil
}

// StateInfoPayload is the body of STATE_INFO.
type StateInfoPayload struct {
	Time     uint64
	Uptime   uint64
	Downtime uint64
}

// MarshalBinaryTo implements Payload.
func (p StateInfoPayload) MarshalBinaryTo(b []byte) (int, error) {
	if err := checkLen(b, p.Len(), "StateInfoPayload"); err != nil {
		return 0, err
	}
	binary.LittleEndian.PutUint64(b[0:], p.Time)
	binary.LittleEndian.PutUint64(b[8:], p.Uptime)
	binary.LittleEndian.PutUint64(b[16:], p.Downtime)
	return p.Len(), nil
}

// Len implements Payload.
func (StateInfoPayload) Len() int { return 24 }

func decodeStateInfo(b []byte) (Payload, error) {
	if err := checkLen(b, 24, "StateInfoPayload"); err != nil {
		return nil, err
	}
	return StateInfoPayload{
		Time:     binary.LittleEndian.Uint64(b[0:]),
		Uptime:   binary.LittleEndian.Uint64(b[8:]),
		Downtime: binary.LittleEndian.Uint64(b[16:]),
	}, nil
}

// GroupLocationIDSize is the fixed byte width of a group or location id.
const GroupLocationIDSize = 16

// groupLocationLike is shared by STATE_GROUP and STATE_LOCATION.
type groupLocationLike struct {
	ID        [GroupLocationIDSize]byte
	Label     [LabelSize]byte
	UpdatedAt uint64
}

func (p groupLocationLike) marshalBinaryTo(b []byte) (int, error) {
	if err := checkLen(b, 56, "group/location payload"); err != nil {
		return 0, err
	}
	copy(b[0:16], p.ID[:])
	copy(b[16:48], p.Label[:])
	binary.LittleEndian.PutUint64(b[48:], p.UpdatedAt)
	return 56, nil
}

func decodeGroupLocationLike(b []byte) (groupLocationLike, error) {
	if err := checkLen(b, 56, "group/location payload"); err != nil {
		return groupLocationLike{}, err
	}
	var g groupLocationLike
	copy(g.ID[:], b[0:16])
	copy(g.Label[:], b[16:48])
	g.UpdatedAt = binary.LittleEndian.Uint64(b[48:])
	return g, nil
}

// StateLocationPayload is the body of STATE_LOCATION.
type StateLocationPayload struct{ groupLocationLike }

// MarshalBinaryTo implements Payload.
func (p StateLocationPayload) MarshalBinaryTo(b []byte) (int, error) { return p.marshalBinaryTo(b) }

// Len implements Payload.
func (StateLocationPayload) Len() int { return 56 }

func decodeStateLocation(b []byte) (Payload, error) {
	g, err := decodeGroupLocationLike(b)
	if err != nil {
		return nil, err
	}
	return StateLocationPayload{g}, nil
}

// StateGroupPayload is the body of STATE_GROUP.
type StateGroupPayload struct{ groupLocationLike }

// MarshalBinaryTo implements Payload.
func (p StateGroupPayload) MarshalBinaryTo(b []byte) (int, error) { return p.marshalBinaryTo(b) }

// Len implements Payload.
func (StateGroupPayload) Len() int { return 56 }

func decodeStateGroup(b []byte) (Payload, error) {
	g, err := decodeGroupLocationLike(b)
	if err != nil {
		return nil, err
	}
	return StateGroupPayload{g}, nil
}

// EchoPayloadSize is the fixed byte width of an echo request/response body.
const EchoPayloadSize = 64

type echoLike struct{ Payload [EchoPayloadSize]byte }

func (p echoLike) marshalBinaryTo(b []byte) (int, error) {
	if err := checkLen(b, EchoPayloadSize, "echo payload"); err != nil {
		return 0, err
	}
	copy(b[:EchoPayloadSize], p.Payload[:])
	return EchoPayloadSize, nil
}

func decodeEchoLike(b []byte) (echoLike, error) {
	if err := checkLen(b, EchoPayloadSize, "echo payload"); err != nil {
		return echoLike{}, err
	}
	var e echoLike
	copy(e.Payload[:], b[:EchoPayloadSize])
	return e, nil
}

// EchoRequestPayload is the body of ECHO_REQUEST.
type EchoRequestPayload struct{ echoLike }

// MarshalBinaryTo implements Payload.
func (p EchoRequestPayload) MarshalBinaryTo(b []byte) (int, error) { return p.marshalBinaryTo(b) }

// Len implements Payload.
func (EchoRequestPayload) Len() int { return EchoPayloadSize }

// EchoResponsePayload is the body of ECHO_RESPONSE.
type EchoResponsePayload struct{ echoLike }

// MarshalBinaryTo implements Payload.
func (p EchoResponsePayload) MarshalBinaryTo(b []byte) (int, error) { return p.marshalBinaryTo(b) }

// Len implements Payload.
func (EchoResponsePayload) Len() int { return EchoPayloadSize }

func decodeEchoResponse(b []byte) (Payload, error) {
	e, err := decodeEchoLike(b)
	if err != nil {
		return nil, err
	}
	return EchoResponsePayload{e}, nil
}

// LightSetColorPayload is the body of LIGHT_SET_COLOR.
type LightSetColorPayload struct {
	Reserved   uint8
	Hue        uint16
	Saturation uint16
	Brightness uint16
	Kelvin     uint16
	Duration   uint32
}

// MarshalBinaryTo implements Payload.
func (p LightSetColorPayload) MarshalBinaryTo(b []byte) (int, error) {
	if err := checkLen(b, p.Len(), "LightSetColorPayload"); err != nil {
		return 0, err
	}
	b[0] = p.Reserved
	binary.LittleEndian.PutUint16(b[1:], p.Hue)
	binary.LittleEndian.PutUint16(b[3:], p.Saturation)
	binary.LittleEndian.PutUint16(b[5:], p.Brightness)
	binary.LittleEndian.PutUint16(b[7:], p.Kelvin)
	binary.LittleEndian.PutUint32(b[9:], p.Duration)
	return p.Len(), nil
}

// Len implements Payload.
func (LightSetColorPayload) Len() int { return 13 }

// LightStatePayload is the body of LIGHT_STATE.
type LightStatePayload struct {
	Hue        uint16
	Saturation uint16
	Brightness uint16
	Kelvin     uint16
	Reserved1  int16
	Power      uint16
	Label      [LabelSize]byte
	Reserved2  uint64
}

// MarshalBinaryTo implements Payload.
func (p LightStatePayload) MarshalBinaryTo(b []byte) (int, error) {
	if err := checkLen(b, p.Len(), "LightStatePayload"); err != nil {
		return 0, err
	}
	binary.LittleEndian.PutUint16(b[0:], p.Hue)
	binary.LittleEndian.PutUint16(b[2:], p.Saturation)
	binary.LittleEndian.PutUint16(b[4:], p.Brightness)
	binary.LittleEndian.PutUint16(b[6:], p.Kelvin)
	binary.LittleEndian.PutUint16(b[8:], uint16(p.Reserved1))
	binary.LittleEndian.PutUint16(b[10:], p.Power)
	copy(b[12:44], p.Label[:])
	binary.LittleEndian.PutUint64(b[44:], p.Reserved2)
	return p.Len(), nil
}

// Len implements Payload.
func (LightStatePayload) Len() int { return 52 }

func decodeLightState(b []byte) (Payload, error) {
	if err := checkLen(b, 52, "LightStatePayload"); err != nil {
		return nil, err
	}
	var p LightStatePayload
	p.Hue = binary.LittleEndian.Uint16(b[0:])
	p.Saturation = binary.LittleEndian.Uint16(b[2:])
	p.Brightness = binary.LittleEndian.Uint16(b[4:])
	p.Kelvin = binary.LittleEndian.Uint16(b[6:])
	p.Reserved1 = int16(binary.LittleEndian.Uint16(b[8:]))
	p.Power = binary.LittleEndian.Uint16(b[10:])
	copy(p.Label[:], b[12:44])
	p.Reserved2 = binary.LittleEndian.Uint64(b[44:])
	return p, nil
}

// LightSetPowerPayload is the body of LIGHT_SET_POWER.
type LightSetPowerPayload struct {
	Level    uint16
	Duration uint32
}

// MarshalBinaryTo implements Payload.
func (p LightSetPowerPayload) MarshalBinaryTo(b []byte) (int, error) {
	if err := checkLen(b, p.Len(), "LightSetPowerPayload"); err != nil {
		return 0, err
	}
	binary.LittleEndian.PutUint16(b[0:], p.Level)
	binary.LittleEndian.PutUint32(b[2:], p.Duration)
	return p.Len(), nil
}

// Len implements Payload.
func (LightSetPowerPayload) Len() int { return 6 }

// LightStatePowerPayload is the body of LIGHT_STATE_POWER.
type LightStatePowerPayload struct{ powerLike }

// MarshalBinaryTo implements Payload.
func (p LightStatePowerPayload) MarshalBinaryTo(b []byte) (int, error) { return p.marshalBinaryTo(b) }

// Len implements Payload.
func (LightStatePowerPayload) Len() int { return 2 }

func decodeLightStatePower(b []byte) (Payload, error) {
	p, err := decodePowerLike(b)
	if err != nil {
		return nil, err
	}
	return LightStatePowerPayload{p}, nil
}

func decodeEmpty(b []byte) (Payload, error) {
	if len(b) != 0 {
		return nil, fmt.Errorf("expected empty payload, got %d bytes", len(b))
	}
	return Empty{}, nil
}

// payloadDecoders maps every message type this library understands to its
// decode function. A type absent from this map decodes to RawPayload.
var payloadDecoders = map[MessageType]func([]byte) (Payload, error){
	GetService:        decodeEmpty,
	StateService:      decodeStateService,
	GetHostInfo:       decodeEmpty,
	StateHostInfo:     decodeStateHostInfo,
	GetHostFirmware:   decodeEmpty,
	StateHostFirmware: decodeStateHostFirmware,
	GetWifiInfo:       decodeEmpty,
	StateWifiInfo:     decodeStateWifiInfo,
	GetWifiFirmware:   decodeEmpty,
	StateWifiFirmware: decodeStateWifiFirmware,
	GetPower:          decodeEmpty,
	StatePower:        decodeStatePower,
	GetLabel:          decodeEmpty,
	StateLabel:        decodeStateLabel,
	GetVersion:        decodeEmpty,
	StateVersion:      decodeStateVersion,
	GetInfo:           decodeEmpty,
	StateInfo:         decodeStateInfo,
	Acknowledgement:   decodeEmpty,
	GetLocation:       decodeEmpty,
	StateLocation:     decodeStateLocation,
	GetGroup:          decodeEmpty,
	StateGroup:        decodeStateGroup,
	EchoResponse:      decodeEchoResponse,
	LightGet:          decodeEmpty,
	LightState:        decodeLightState,
	LightGetPower:     decodeEmpty,
	LightStatePower:   decodeLightStatePower,
}

// decodePayload decodes the payload section of a packet whose type is
// already known. Unknown types are returned as RawPayload, per ParsePacket's
// contract.
func decodePayload(t MessageType, b []byte) (Payload, error) {
	if dec, ok := payloadDecoders[t]; ok {
		return dec(b)
	}
	return RawPayload{Bytes: append([]byte(nil), b...)}, nil
}
