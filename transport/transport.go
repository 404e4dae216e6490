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

// Package transport owns the UDP socket a Client talks through: a receive
// loop that fans parsed packets out to filtered subscribers, and a
// synchronous send path.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/facebook/lifx/protocol"
)

// DefaultPort is the well-known LIFX LAN UDP port.
const DefaultPort = 56700

// maxDatagramSize is the largest datagram this package expects to receive;
// bigger ones are truncated by the kernel before we ever see them.
const maxDatagramSize = 1500

// Conn is the subset of *net.UDPConn this package needs, so tests can swap
// in a loopback or fake connection.
type Conn interface {
	ReadFromUDP(b []byte) (int, *net.UDPAddr, error)
	WriteTo(b []byte, addr net.Addr) (int, error)
	Close() error
	SyscallConn() (syscallConner, error)
}

// syscallConner mirrors the part of syscall.RawConn our broadcast-enabling
// code needs. It is declared separately so Conn's SyscallConn signature
// matches *net.UDPConn's without importing syscall into the interface name.
type syscallConner interface {
	Control(f func(fd uintptr)) error
}

// realConn adapts *net.UDPConn to Conn; syscall.RawConn already satisfies
// syscallConner.
type realConn struct{ *net.UDPConn }

func (c realConn) SyscallConn() (syscallConner, error) {
	return c.UDPConn.SyscallConn()
}

// Token is returned by RegisterPacketHandler and identifies a subscription
// for later removal.
type Token int

type subscriber struct {
	token     Token
	predicate func(*protocol.Packet) bool
	handler   func(host string, port int, pkt *protocol.Packet)
}

// StatsSink receives per-datagram outcome counts from the receive loop, so a
// Client can aggregate them into its own Stats without Transport depending
// on that type.
type StatsSink interface {
	NotePacketReceived()
	NotePacketDropped()
	NoteUnknownType()
}

// Transport owns one UDP socket and dispatches every datagram it receives to
// whichever registered subscribers want it.
type Transport struct {
	conn          Conn
	broadcastAddr *net.UDPAddr
	stats         StatsSink

	mu        sync.Mutex
	subs      []subscriber
	nextToken Token
}

// SetStatsSink wires sink to receive packet-received/dropped/unknown-type
// notifications from the receive loop. nil disables reporting.
func (t *Transport) SetStatsSink(sink StatsSink) {
	t.stats = sink
}

// New opens a UDP socket bound to localAddr (host:port, port 0 for
// ephemeral) with broadcast enabled, and configures broadcastAddr as the
// destination for SendDiscovery.
func New(localAddr string, broadcastHost string) (*Transport, error) {
	laddr, err := net.ResolveUDPAddr("udp4", localAddr)
	if err != nil {
		return nil, fmt.Errorf("resolving local address %q: %w", localAddr, err)
	}
	conn, err := net.ListenUDP("udp4", laddr)
	if err != nil {
		return nil, fmt.Errorf("listening on %q: %w", localAddr, err)
	}
	if err := enableBroadcast(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enabling broadcast: %w", err)
	}
	baddr, err := net.ResolveUDPAddr("udp4", fmt.Sprintf("%s:%d", broadcastHost, DefaultPort))
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("resolving broadcast address %q: %w", broadcastHost, err)
	}
	return newWithConn(realConn{conn}, baddr), nil
}

func newWithConn(conn Conn, broadcastAddr *net.UDPAddr) *Transport {
	return &Transport{
		conn:          conn,
		broadcastAddr: broadcastAddr,
	}
}

func enableBroadcast(conn *net.UDPConn) error {
	raw, err := conn.SyscallConn()
	if err != nil {
		return err
	}
	var setErr error
	if err := raw.Control(func(fd uintptr) {
		setErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_BROADCAST, 1)
	}); err != nil {
		return err
	}
	return setErr
}

// SetDSCP marks every packet this Transport sends with the given DSCP value
// (0-63), by setting IP_TOS on the underlying socket. dscp <= 0 is a no-op:
// callers are not required to configure traffic marking.
func (t *Transport) SetDSCP(dscp int) error {
	if dscp <= 0 {
		return nil
	}
	raw, err := t.conn.SyscallConn()
	if err != nil {
		return err
	}
	var setErr error
	if err := raw.Control(func(fd uintptr) {
		setErr = unix.SetsockoptInt(int(fd), unix.IPPROTO_IP, unix.IP_TOS, dscp<<2)
	}); err != nil {
		return err
	}
	return setErr
}

// LocalAddr returns the socket's bound address, which is useful to read back
// the ephemeral port chosen when localAddr requested port 0.
func (t *Transport) LocalAddr() net.Addr {
	if rc, ok := t.conn.(realConn); ok {
		return rc.UDPConn.LocalAddr()
	}
	return nil
}

// SendPacket encodes pkt and writes it to addr.
func (t *Transport) SendPacket(addr *net.UDPAddr, pkt *protocol.Packet) error {
	b, err := pkt.MarshalBinary()
	if err != nil {
		return fmt.Errorf("marshal packet: %w", err)
	}
	if _, err := t.conn.WriteTo(b, addr); err != nil {
		return fmt.Errorf("send to %v: %w", addr, err)
	}
	return nil
}

// SendDiscovery sends a tagged GET_SERVICE packet to the configured
// broadcast address.
func (t *Transport) SendDiscovery(source uint32, sequence uint8) error {
	pkt := protocol.DiscoveryPacket(source, sequence)
	return t.SendPacket(t.broadcastAddr, pkt)
}

// RegisterPacketHandler adds a subscriber. predicate may be nil to accept
// every packet. Subscribers are invoked in registration order; a nil
// predicate is treated as accept-all.
func (t *Transport) RegisterPacketHandler(predicate func(*protocol.Packet) bool, handler func(host string, port int, pkt *protocol.Packet)) Token {
	if predicate == nil {
		predicate = func(*protocol.Packet) bool { return true }
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	tok := t.nextToken
	t.nextToken++
	t.subs = append(t.subs, subscriber{token: tok, predicate: predicate, handler: handler})
	return tok
}

// UnregisterPacketHandler removes a previously registered subscriber. It is
// a no-op if the token is unknown.
func (t *Transport) UnregisterPacketHandler(tok Token) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, s := range t.subs {
		if s.token == tok {
			t.subs = append(t.subs[:i], t.subs[i+1:]...)
			return
		}
	}
}

// dispatch delivers pkt to every subscriber whose predicate matches. Each
// handler runs with its own panic recovery so one bad subscriber cannot stop
// delivery to the rest or kill the receive loop.
func (t *Transport) dispatch(host string, port int, pkt *protocol.Packet) {
	t.mu.Lock()
	subs := make([]subscriber, len(t.subs))
	copy(subs, t.subs)
	t.mu.Unlock()

	for _, s := range subs {
		if !s.predicate(pkt) {
			continue
		}
		t.invokeHandler(s, host, port, pkt)
	}
}

func (t *Transport) invokeHandler(s subscriber, host string, port int, pkt *protocol.Packet) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("transport: packet handler panicked: %v", r)
		}
	}()
	s.handler(host, port, pkt)
}

// Run runs the receive loop until ctx is cancelled or the socket is closed.
// Other read errors are logged and the loop keeps receiving.
func (t *Transport) Run(ctx context.Context) error {
	doneChan := make(chan error, 1)
	go func() {
		buf := make([]byte, maxDatagramSize)
		for {
			n, addr, err := t.conn.ReadFromUDP(buf)
			if err != nil {
				if errors.Is(err, net.ErrClosed) {
					doneChan <- err
					return
				}
				log.Errorf("transport: reading datagram: %v", err)
				continue
			}
			pkt, err := protocol.ParsePacket(buf[:n])
			if err != nil {
				log.Debugf("transport: dropping malformed packet from %v: %v", addr, err)
				if t.stats != nil {
					t.stats.NotePacketDropped()
				}
				continue
			}
			if t.stats != nil {
				t.stats.NotePacketReceived()
				if _, ok := pkt.Payload.(protocol.RawPayload); ok {
					t.stats.NoteUnknownType()
				}
			}
			t.dispatch(addr.IP.String(), addr.Port, pkt)
		}
	}()
	select {
	case <-ctx.Done():
		t.conn.Close()
		<-doneChan
		return ctx.Err()
	case err := <-doneChan:
		return err
	}
}

// Close closes the underlying socket, unblocking any in-flight Run call.
func (t *Transport) Close() error {
	return t.conn.Close()
}
