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

// Package device implements the per-bulb session: request/response
// correlation by sequence number, retransmission on timeout, and the
// high-level property accessors built on top of that primitive.
package device

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/eclesh/welford"

	"github.com/facebook/lifx/protocol"
	"github.com/facebook/lifx/transport"
)

// Sender is the slice of Client a Device needs to operate, captured as an
// interface so Device never holds a direct pointer back to its owning
// Client: the handler closures Device registers on Transport close over a
// device id and resolve through this interface at call time, breaking the
// ownership cycle between Client and Device.
type Sender interface {
	// Send encodes and transmits a packet addressed to target via addr,
	// filling in the client-wide source identifier.
	Send(addr *net.UDPAddr, target uint64, ackRequired, resRequired bool, sequence uint8, pktType protocol.MessageType, payload protocol.Payload) error
	// NextSequence returns the next sequence number to use, wrapping modulo
	// 256.
	NextSequence() uint8
	// RegisterHandler and UnregisterHandler proxy to the underlying
	// Transport.
	RegisterHandler(predicate func(*protocol.Packet) bool, handler func(host string, port int, pkt *protocol.Packet)) transport.Token
	UnregisterHandler(tok transport.Token)
	// NotePacketSent, NoteRetransmit and NoteTimeout update the Client's
	// shared counters.
	NotePacketSent()
	NoteRetransmit()
	NoteTimeout()
}

// Device tracks one bulb: its network location, the services it advertises,
// and the table of sequences a caller is currently blocked waiting on.
type Device struct {
	id     uint64
	sender Sender

	defaultTimeout     time.Duration
	retransmits        int
	transitionDuration time.Duration

	token transport.Token

	mu           sync.Mutex
	host         net.IP
	ports        map[protocol.Service]uint32
	lastSeen     time.Time
	pending      map[uint8]chan *protocol.Packet
	sentCount    uint64
	droppedCount uint64

	latencyMu sync.Mutex
	latency   *welford.Stats
}

// New creates a Device for id, registers its per-device Transport
// subscriber, and returns it. The caller is responsible for inserting the
// Device into whatever registry it maintains.
func New(id uint64, host net.IP, sender Sender, defaultTimeout time.Duration, retransmits int, transitionDuration time.Duration) *Device {
	d := &Device{
		id:                 id,
		sender:             sender,
		host:               host,
		ports:              make(map[protocol.Service]uint32),
		defaultTimeout:     defaultTimeout,
		retransmits:        retransmits,
		transitionDuration: transitionDuration,
		pending:            make(map[uint8]chan *protocol.Packet),
		latency:            welford.New(),
	}
	d.token = sender.RegisterHandler(d.matches, d.handleInbound)
	return d
}

// ID returns the device's 48-bit target/MAC.
func (d *Device) ID() uint64 { return d.id }

// MAC renders the device id as a colon-free lowercase hex MAC string.
func (d *Device) MAC() string { return protocol.MacString(d.id) }

// Close removes the device's Transport subscriber. It does not forget the
// device from any registry; that is the caller's responsibility.
func (d *Device) Close() {
	d.sender.UnregisterHandler(d.token)
}

// matches is this device's Transport subscriber predicate: packets
// addressed to this device's target whose type is an acknowledgement, an
// echo response, or any STATE* type.
func (d *Device) matches(pkt *protocol.Packet) bool {
	if pkt.Target() != d.id {
		return false
	}
	t := pkt.Type()
	return t == protocol.Acknowledgement || t == protocol.EchoResponse || t.IsState()
}

// Observe feeds pkt through the device's own inbound handling as if
// Transport had dispatched it directly. Client uses this to hand a device
// its bootstrap STATE_SERVICE reply at the moment the device is registered,
// before the device's own Transport subscriber exists to catch it.
func (d *Device) Observe(host string, port int, pkt *protocol.Packet) {
	d.handleInbound(host, port, pkt)
}

// handleInbound is invoked by Transport for every packet matching d.matches.
func (d *Device) handleInbound(host string, port int, pkt *protocol.Packet) {
	d.mu.Lock()
	d.lastSeen = time.Now()
	if svc, ok := pkt.Payload.(protocol.StateServicePayload); ok {
		d.ports[svc.Service] = svc.Port
	}
	ch, waiting := d.pending[pkt.Sequence()]
	d.mu.Unlock()

	if waiting {
		select {
		case ch <- pkt:
		default:
		}
	}
}

// LastSeen returns the last time any packet from this device was observed.
func (d *Device) LastSeen() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastSeen
}

// SeenAgo returns how long ago the device was last seen.
func (d *Device) SeenAgo() time.Duration {
	return time.Since(d.LastSeen())
}

// Stats returns the device's own sent/dropped packet counters.
func (d *Device) Stats() (sent, dropped uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sentCount, d.droppedCount
}

// addr resolves the UDP address to send requests to: the device's host at
// whatever port it advertised for SERVICE_UDP, falling back to the
// well-known LIFX port before the first STATE_SERVICE has been seen.
func (d *Device) addr() *net.UDPAddr {
	d.mu.Lock()
	port, ok := d.ports[protocol.ServiceUDP]
	host := d.host
	d.mu.Unlock()
	if !ok {
		port = transport.DefaultPort
	}
	return &net.UDPAddr{IP: host, Port: int(port)}
}

// blockFor is the single request/response primitive every high-level
// accessor is built on. It is a precondition error to request both an ack
// and a response. If neither is requested, the packet is sent once and
// blockFor returns immediately without waiting.
func (d *Device) blockFor(ackRequired, resRequired bool, pktType protocol.MessageType, payload protocol.Payload, timeout time.Duration) (*protocol.Packet, error) {
	if ackRequired && resRequired {
		return nil, ErrAckAndResponse
	}
	if timeout <= 0 {
		timeout = d.defaultTimeout
	}

	if !ackRequired && !resRequired {
		seq := d.sender.NextSequence()
		if err := d.send(seq, false, false, pktType, payload); err != nil {
			return nil, err
		}
		return nil, nil
	}

	seq := d.sender.NextSequence()
	ch := make(chan *protocol.Packet, 1)
	d.mu.Lock()
	d.pending[seq] = ch
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		delete(d.pending, seq)
		d.mu.Unlock()
	}()

	subTimeout := timeout / time.Duration(d.retransmits)
	for attempt := 1; attempt <= d.retransmits; attempt++ {
		if attempt > 1 {
			d.mu.Lock()
			d.droppedCount++
			d.mu.Unlock()
			d.sender.NoteRetransmit()
		}
		if err := d.send(seq, ackRequired, resRequired, pktType, payload); err != nil {
			return nil, err
		}
		select {
		case pkt := <-ch:
			return pkt, nil
		case <-time.After(subTimeout):
		}
	}
	d.sender.NoteTimeout()
	return nil, &TimeoutError{DeviceID: d.id, Timeout: timeout, Retransmits: d.retransmits}
}

func (d *Device) send(seq uint8, ackRequired, resRequired bool, pktType protocol.MessageType, payload protocol.Payload) error {
	if err := d.sender.Send(d.addr(), d.id, ackRequired, resRequired, seq, pktType, payload); err != nil {
		return fmt.Errorf("device %s: send %s: %w", d.MAC(), pktType, err)
	}
	d.mu.Lock()
	d.sentCount++
	d.mu.Unlock()
	d.sender.NotePacketSent()
	return nil
}

// SendPollPacket fires an unsolicited GET_SERVICE at the device without
// waiting for a reply; any response refreshes LastSeen.
func (d *Device) SendPollPacket() error {
	seq := d.sender.NextSequence()
	return d.send(seq, false, true, protocol.GetService, protocol.Empty{})
}
