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

package device

import (
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facebook/lifx/protocol"
	"github.com/facebook/lifx/transport"
)

// fakeSender is a hand-rolled stand-in for Sender: the interface is small
// and its behavior under test is about timing and reply correlation, which
// a generated mock expresses awkwardly. sendFunc lets each test script the
// reply a given send provokes.
type fakeSender struct {
	mu       sync.Mutex
	seq      uint32
	handlers map[transport.Token]func(*protocol.Packet) bool
	onSend   map[transport.Token]func(host string, port int, pkt *protocol.Packet)
	nextTok  transport.Token

	sent        atomic.Int64
	retransmits atomic.Int64
	timeouts    atomic.Int64

	sendFunc func(target uint64, seq uint8, pktType protocol.MessageType) *protocol.Packet
}

func newFakeSender() *fakeSender {
	return &fakeSender{
		handlers: make(map[transport.Token]func(*protocol.Packet) bool),
		onSend:   make(map[transport.Token]func(host string, port int, pkt *protocol.Packet)),
	}
}

func (f *fakeSender) Send(_ *net.UDPAddr, target uint64, _, _ bool, sequence uint8, pktType protocol.MessageType, _ protocol.Payload) error {
	f.sent.Add(1)
	if f.sendFunc == nil {
		return nil
	}
	reply := f.sendFunc(target, sequence, pktType)
	if reply == nil {
		return nil
	}
	go func() {
		f.mu.Lock()
		handlers := make([]func(string, int, *protocol.Packet), 0, len(f.onSend))
		for _, h := range f.onSend {
			handlers = append(handlers, h)
		}
		f.mu.Unlock()
		for _, h := range handlers {
			h("127.0.0.1", 56700, reply)
		}
	}()
	return nil
}

func (f *fakeSender) NextSequence() uint8 {
	return uint8(atomic.AddUint32(&f.seq, 1))
}

func (f *fakeSender) RegisterHandler(predicate func(*protocol.Packet) bool, handler func(host string, port int, pkt *protocol.Packet)) transport.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextTok++
	tok := f.nextTok
	f.handlers[tok] = predicate
	f.onSend[tok] = handler
	return tok
}

func (f *fakeSender) UnregisterHandler(tok transport.Token) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.handlers, tok)
	delete(f.onSend, tok)
}

func (f *fakeSender) NotePacketSent() {}
func (f *fakeSender) NoteRetransmit() { f.retransmits.Add(1) }
func (f *fakeSender) NoteTimeout()    { f.timeouts.Add(1) }

const testDeviceID uint64 = 0x047c01d573d0

func newTestDevice(sender Sender) *Device {
	return New(testDeviceID, net.ParseIP("127.0.0.1"), sender, 200*time.Millisecond, 4, 250*time.Millisecond)
}

func statePacket(seq uint8, pktType protocol.MessageType, payload protocol.Payload) *protocol.Packet {
	return protocol.MakePacket(1, testDeviceID, false, false, true, seq, pktType, payload)
}

func TestBlockForAckAndResponseIsRejected(t *testing.T) {
	d := newTestDevice(newFakeSender())
	_, err := d.blockFor(true, true, protocol.GetPower, protocol.Empty{}, 0)
	assert.ErrorIs(t, err, ErrAckAndResponse)
}

func TestBlockForFireAndForgetDoesNotBlock(t *testing.T) {
	sender := newFakeSender()
	d := newTestDevice(sender)
	pkt, err := d.blockFor(false, false, protocol.SetLabel, protocol.NewSetLabelPayload("kitchen"), 0)
	require.NoError(t, err)
	assert.Nil(t, pkt)
	assert.EqualValues(t, 1, sender.sent.Load())
}

func TestBlockForReturnsMatchingReply(t *testing.T) {
	sender := newFakeSender()
	sender.sendFunc = func(target uint64, seq uint8, pktType protocol.MessageType) *protocol.Packet {
		return statePacket(seq, protocol.StatePower, protocol.StatePowerPayload{})
	}
	d := newTestDevice(sender)

	pkt, err := d.blockFor(false, true, protocol.GetPower, protocol.Empty{}, 100*time.Millisecond)
	require.NoError(t, err)
	require.NotNil(t, pkt)
	assert.Equal(t, protocol.StatePower, pkt.Type())
	assert.EqualValues(t, 1, sender.sent.Load())
}

func TestBlockForRetransmitsThenTimesOut(t *testing.T) {
	sender := newFakeSender()
	d := newTestDevice(sender)

	_, err := d.blockFor(false, true, protocol.GetPower, protocol.Empty{}, 40*time.Millisecond)
	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, testDeviceID, timeoutErr.DeviceID)
	assert.EqualValues(t, 4, sender.sent.Load())
	assert.EqualValues(t, 3, sender.retransmits.Load())
	assert.EqualValues(t, 1, sender.timeouts.Load())
}

func TestBlockForCleansUpPendingEntryOnSuccess(t *testing.T) {
	sender := newFakeSender()
	sender.sendFunc = func(target uint64, seq uint8, pktType protocol.MessageType) *protocol.Packet {
		return statePacket(seq, protocol.StatePower, protocol.StatePowerPayload{})
	}
	d := newTestDevice(sender)

	_, err := d.blockFor(false, true, protocol.GetPower, protocol.Empty{}, 100*time.Millisecond)
	require.NoError(t, err)

	d.mu.Lock()
	defer d.mu.Unlock()
	assert.Empty(t, d.pending)
}

func TestHandleInboundRecordsStateService(t *testing.T) {
	sender := newFakeSender()
	d := newTestDevice(sender)

	pkt := statePacket(0, protocol.StateService, protocol.StateServicePayload{Service: protocol.ServiceUDP, Port: 56700})
	d.handleInbound("127.0.0.1", 56700, pkt)

	addr := d.addr()
	assert.Equal(t, 56700, addr.Port)
	assert.WithinDuration(t, time.Now(), d.LastSeen(), time.Second)
}

func TestMatchesFiltersByTargetAndType(t *testing.T) {
	sender := newFakeSender()
	d := newTestDevice(sender)

	own := statePacket(0, protocol.StatePower, protocol.StatePowerPayload{})
	assert.True(t, d.matches(own))

	other := protocol.MakePacket(1, testDeviceID+1, false, false, true, 0, protocol.StatePower, protocol.StatePowerPayload{})
	assert.False(t, d.matches(other))

	getPower := statePacket(0, protocol.GetPower, protocol.Empty{})
	assert.False(t, d.matches(getPower))
}

func TestMAC(t *testing.T) {
	d := newTestDevice(newFakeSender())
	assert.Equal(t, "d073d5017c04", d.MAC())
}
