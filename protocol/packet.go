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

import "fmt"

// Packet is a complete LIFX LAN message: the three fixed header sections
// plus a type-specific Payload.
type Packet struct {
	Frame    FrameHeader
	Address  FrameAddress
	Protocol ProtocolHeader
	Payload  Payload
}

// Type returns the message type carried in the protocol header.
func (p *Packet) Type() MessageType {
	return p.Protocol.Type
}

// Target returns the packet's destination/source device target. A value of
// zero means "all devices" when combined with a tagged frame.
func (p *Packet) Target() uint64 {
	return p.Address.Target
}

// Sequence returns the frame address's sequence number.
func (p *Packet) Sequence() uint8 {
	return p.Address.Sequence
}

// MakePacket builds a Packet addressed to target (0 with tagged=true means
// "all devices"), requesting the acks/responses the caller asked for, and
// carrying payload as its body. It does not serialize the packet; call
// MarshalBinary (or MarshalBinaryTo) on the result to get wire bytes.
func MakePacket(source uint32, target uint64, tagged, ackRequired, resRequired bool, sequence uint8, pktType MessageType, payload Payload) *Packet {
	if payload == nil {
		payload = Empty{}
	}
	p := &Packet{
		Frame: FrameHeader{
			Origin:      Origin,
			Tagged:      tagged,
			Addressable: Addressable == 1,
			Protocol:    ProtocolNum,
			Source:      source,
		},
		Address: FrameAddress{
			Target:      target,
			AckRequired: ackRequired,
			ResRequired: resRequired,
			Sequence:    sequence,
		},
		Protocol: ProtocolHeader{
			Type: pktType,
		},
		Payload: payload,
	}
	p.Frame.Size = uint16(HeaderSize + payload.Len())
	return p
}

// DiscoveryPacket builds a tagged, targetless GET_SERVICE broadcast packet,
// the message every discovery round starts with.
func DiscoveryPacket(source uint32, sequence uint8) *Packet {
	return MakePacket(source, 0, true, false, true, sequence, GetService, Empty{})
}

// Len returns the total on-wire size of the packet.
func (p *Packet) Len() int {
	return HeaderSize + p.Payload.Len()
}

// MarshalBinary serializes the packet to wire bytes.
func (p *Packet) MarshalBinary() ([]byte, error) {
	b := make([]byte, p.Len())
	if _, err := p.MarshalBinaryTo(b); err != nil {
		return nil, err
	}
	return b, nil
}

// MarshalBinaryTo serializes the packet into b, which must be at least
// p.Len() bytes, and returns the number of bytes written.
func (p *Packet) MarshalBinaryTo(b []byte) (int, error) {
	if err := checkLen(b, p.Len(), "Packet"); err != nil {
		return 0, err
	}
	off := 0
	off += p.Frame.marshalBinaryTo(b[off:])
	off += p.Address.marshalBinaryTo(b[off:])
	off += p.Protocol.marshalBinaryTo(b[off:])
	n, err := p.Payload.MarshalBinaryTo(b[off:])
	if err != nil {
		return 0, fmt.Errorf("marshal payload: %w", err)
	}
	off += n
	return off, nil
}

// ParsePacket decodes a complete wire packet. It rejects the packet if the
// frame header's declared size doesn't match len(b) exactly. Payload types
// this library does not recognize decode to RawPayload rather than an
// error, so callers can still see the type and raw bytes.
func ParsePacket(b []byte) (*Packet, error) {
	if err := checkLen(b, HeaderSize, "Packet header"); err != nil {
		return nil, err
	}
	p := &Packet{}
	off := 0
	p.Frame.unmarshalBinary(b[off:])
	off += FrameHeaderSize
	if int(p.Frame.Size) != len(b) {
		return nil, fmt.Errorf("frame size mismatch: header says %d, got %d bytes", p.Frame.Size, len(b))
	}
	p.Address.unmarshalBinary(b[off:])
	off += FrameAddressSize
	p.Protocol.unmarshalBinary(b[off:])
	off += ProtocolHeaderSize

	payload, err := decodePayload(p.Protocol.Type, b[off:])
	if err != nil {
		return nil, fmt.Errorf("decode payload for %s: %w", p.Protocol.Type, err)
	}
	p.Payload = payload
	return p, nil
}
