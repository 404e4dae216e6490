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

// Package protocol implements a bit-exact encoder/decoder for the LIFX LAN
// binary wire format: the frame header, frame address, protocol header and
// the type-specific payloads that ride on top of them.
package protocol

// MessageType identifies the kind of payload a packet carries, per the
// protocol header's "type" field.
type MessageType uint16

// Device message types.
const (
	GetService          MessageType = 2
	StateService        MessageType = 3
	GetHostInfo         MessageType = 12
	StateHostInfo       MessageType = 13
	GetHostFirmware     MessageType = 14
	StateHostFirmware   MessageType = 15
	GetWifiInfo         MessageType = 16
	StateWifiInfo       MessageType = 17
	GetWifiFirmware     MessageType = 18
	StateWifiFirmware   MessageType = 19
	GetPower            MessageType = 20
	SetPower            MessageType = 21
	StatePower          MessageType = 22
	GetLabel            MessageType = 23
	SetLabel            MessageType = 24
	StateLabel          MessageType = 25
	GetVersion          MessageType = 32
	StateVersion        MessageType = 33
	GetInfo             MessageType = 34
	StateInfo           MessageType = 35
	Acknowledgement     MessageType = 45
	GetLocation         MessageType = 48
	StateLocation       MessageType = 50
	GetGroup            MessageType = 51
	StateGroup          MessageType = 53
	EchoRequest         MessageType = 58
	EchoResponse        MessageType = 59
	LightGet            MessageType = 101
	LightSetColor       MessageType = 102
	LightState          MessageType = 107
	LightGetPower       MessageType = 116
	LightSetPower       MessageType = 117
	LightStatePower     MessageType = 118
)

// messageTypeNames is used only for logging/debugging, mirroring the
// MessageTypeToString convention from ptp/protocol/types.go.
var messageTypeNames = map[MessageType]string{
	GetService:        "GET_SERVICE",
	StateService:      "STATE_SERVICE",
	GetHostInfo:       "GET_HOST_INFO",
	StateHostInfo:     "STATE_HOST_INFO",
	GetHostFirmware:   "GET_HOST_FIRMWARE",
	StateHostFirmware: "STATE_HOST_FIRMWARE",
	GetWifiInfo:       "GET_WIFI_INFO",
	StateWifiInfo:     "STATE_WIFI_INFO",
	GetWifiFirmware:   "GET_WIFI_FIRMWARE",
	StateWifiFirmware: "STATE_WIFI_FIRMWARE",
	GetPower:          "GET_POWER",
	SetPower:          "SET_POWER",
	StatePower:        "STATE_POWER",
	GetLabel:          "GET_LABEL",
	SetLabel:          "SET_LABEL",
	StateLabel:        "STATE_LABEL",
	GetVersion:        "GET_VERSION",
	StateVersion:      "STATE_VERSION",
	GetInfo:           "GET_INFO",
	StateInfo:         "STATE_INFO",
	Acknowledgement:   "ACKNOWLEDGEMENT",
	GetLocation:       "GET_LOCATION",
	StateLocation:     "STATE_LOCATION",
	GetGroup:          "GET_GROUP",
	StateGroup:        "STATE_GROUP",
	EchoRequest:       "ECHO_REQUEST",
	EchoResponse:      "ECHO_RESPONSE",
	LightGet:          "LIGHT_GET",
	LightSetColor:     "LIGHT_SET_COLOR",
	LightState:        "LIGHT_STATE",
	LightGetPower:     "LIGHT_GET_POWER",
	LightSetPower:     "LIGHT_SET_POWER",
	LightStatePower:   "LIGHT_STATE_POWER",
}

func (t MessageType) String() string {
	if s, ok := messageTypeNames[t]; ok {
		return s
	}
	return "UNKNOWN"
}

// IsState reports whether t is one of the STATE* response types, used by the
// client to scope a per-device Transport subscriber.
func (t MessageType) IsState() bool {
	switch t {
	case StateService, StateHostInfo, StateHostFirmware, StateWifiInfo,
		StateWifiFirmware, StatePower, StateLabel, StateVersion, StateInfo,
		StateLocation, StateGroup, LightState, LightStatePower:
		return true
	}
	return false
}

// Service identifies a transport a device offers, returned in STATE_SERVICE.
type Service uint8

// Known service identifiers. Only SERVICE_UDP is used on the wire today; the
// rest are reserved by the protocol.
const (
	ServiceUDP       Service = 1
	ServiceReserved1 Service = 2
	ServiceReserved2 Service = 3
	ServiceReserved3 Service = 4
	ServiceReserved4 Service = 5
)
