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

// Package client ties the protocol, transport, repeater and device packages
// together into the library's public entry point: discover bulbs on the
// local network, keep a registry of the ones still responding, and hand out
// *device.Device handles callers can read and command.
package client

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"net"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/facebook/lifx/device"
	"github.com/facebook/lifx/discoveryif"
	"github.com/facebook/lifx/group"
	"github.com/facebook/lifx/protocol"
	"github.com/facebook/lifx/repeater"
	"github.com/facebook/lifx/transport"
)

// Client discovers LIFX devices on the local broadcast domain and maintains
// a registry of the ones still answering polls. It implements device.Sender
// so every Device it creates can send through it without holding a pointer
// back to it.
type Client struct {
	cfg       Config
	transport *transport.Transport
	stats     *Stats
	source    uint32
	seq       atomic.Uint32

	mu      sync.RWMutex
	devices map[uint64]*device.Device

	discoverTok transport.Token
	groupTok    transport.Token
	locationTok transport.Token

	discoverRepeat *repeater.Repeater
	pollRepeat     *repeater.Repeater

	eg     *errgroup.Group
	cancel context.CancelFunc

	// extraBroadcast holds the addresses discoveryif.BroadcastAddresses
	// found at startup, beyond cfg.BroadcastAddress, when
	// cfg.AutoDiscoverInterfaces is set.
	extraBroadcast []*net.UDPAddr

	groupLabels    map[[protocol.GroupLocationIDSize]byte]labelRecord
	locationLabels map[[protocol.GroupLocationIDSize]byte]labelRecord
	labelsMu       sync.Mutex
}

type labelRecord struct {
	label     string
	updatedAt uint64
}

// New builds a Client bound to cfg's local/broadcast addresses, starts its
// Transport receive loop, and launches the discovery and poll repeaters.
// Callers should call Close when done.
func New(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	t, err := transport.New(cfg.LocalAddress, cfg.BroadcastAddress)
	if err != nil {
		return nil, fmt.Errorf("opening transport: %w", err)
	}
	if err := t.SetDSCP(cfg.DSCP); err != nil {
		log.Warnf("lifx: setting DSCP %d: %v", cfg.DSCP, err)
	}

	var extraBroadcast []*net.UDPAddr
	if cfg.AutoDiscoverInterfaces {
		addrs, err := discoveryif.BroadcastAddresses()
		if err != nil {
			log.Warnf("lifx: auto-discovering broadcast interfaces: %v", err)
		}
		for _, a := range addrs {
			if a == cfg.BroadcastAddress {
				continue
			}
			extraBroadcast = append(extraBroadcast, &net.UDPAddr{IP: net.ParseIP(a), Port: transport.DefaultPort})
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	eg, ctx := errgroup.WithContext(ctx)

	c := &Client{
		cfg:            cfg,
		transport:      t,
		stats:          &Stats{},
		source:         uint32(rand.New(rand.NewSource(time.Now().UnixNano())).Int63n(math.MaxUint32-1)) + 1,
		devices:        make(map[uint64]*device.Device),
		eg:             eg,
		cancel:         cancel,
		extraBroadcast: extraBroadcast,
		groupLabels:    make(map[[protocol.GroupLocationIDSize]byte]labelRecord),
		locationLabels: make(map[[protocol.GroupLocationIDSize]byte]labelRecord),
	}
	t.SetStatsSink(c.stats)

	c.discoverTok = t.RegisterPacketHandler(
		func(pkt *protocol.Packet) bool { return pkt.Type() == protocol.StateService },
		c.handleStateService,
	)
	c.groupTok = t.RegisterPacketHandler(
		func(pkt *protocol.Packet) bool { return pkt.Type() == protocol.StateGroup },
		c.handleStateGroup,
	)
	c.locationTok = t.RegisterPacketHandler(
		func(pkt *protocol.Packet) bool { return pkt.Type() == protocol.StateLocation },
		c.handleStateLocation,
	)

	eg.Go(func() error { return t.Run(ctx) })

	c.discoverRepeat = repeater.Start(cfg.DiscoverInterval, func() {
		if err := c.Discover(); err != nil {
			log.Warnf("lifx: discovery round failed: %v", err)
		}
	})
	c.pollRepeat = repeater.Start(cfg.DevicePollInterval, func() {
		c.PollDevices()
	})

	return c, nil
}

// Discover broadcasts a GET_SERVICE to the configured broadcast address, and
// to every address discoveryif.BroadcastAddresses found at startup when
// cfg.AutoDiscoverInterfaces is set, then lets replies populate the registry
// via handleStateService as they arrive; it does not itself block for
// replies.
func (c *Client) Discover() error {
	seq := c.NextSequence()
	if err := c.transport.SendDiscovery(c.source, seq); err != nil {
		return fmt.Errorf("sending discovery broadcast: %w", err)
	}
	c.stats.PacketsSent.Add(1)
	c.stats.DiscoverySent.Add(1)

	pkt := protocol.DiscoveryPacket(c.source, seq)
	for _, addr := range c.extraBroadcast {
		if err := c.transport.SendPacket(addr, pkt); err != nil {
			log.Debugf("lifx: sending discovery to %s: %v", addr, err)
			continue
		}
		c.stats.PacketsSent.Add(1)
		c.stats.DiscoverySent.Add(1)
	}

	return nil
}

// PollDevices sends an unsolicited GET_SERVICE to every device seen within
// the staleness window (Devices(0)), however recently it was last seen,
// refreshing LastSeen for the ones still reachable; stale devices are not
// polled. It then refreshes
// the devices-known/devices-stale gauges against the current registry.
func (c *Client) PollDevices() {
	for _, d := range c.Devices(0) {
		if err := d.SendPollPacket(); err != nil {
			log.Debugf("lifx: polling %s: %v", d.MAC(), err)
			continue
		}
		c.stats.PollSent.Add(1)
	}
	c.refreshDeviceCounts()
}

// refreshDeviceCounts recomputes the devices-known/devices-stale gauges from
// the live registry. Unlike the other Stats fields these are snapshots, not
// monotonic counters, so they're Stored rather than Added.
func (c *Client) refreshDeviceCounts() {
	staleAfter := c.cfg.staleAfter()

	c.mu.RLock()
	defer c.mu.RUnlock()

	var stale int64
	for _, d := range c.devices {
		if d.SeenAgo() >= staleAfter {
			stale++
		}
	}
	c.stats.DevicesKnown.Store(int64(len(c.devices)))
	c.stats.DevicesStale.Store(stale)
}

// handleStateService registers a new Device the first time a given target
// answers discovery and does nothing for a target that is already known.
// Once a device is known, its own per-device subscriber (registered through
// device.Sender) handles further STATE_SERVICE traffic for it, so this only
// needs to act the first time a target is seen.
func (c *Client) handleStateService(host string, port int, pkt *protocol.Packet) {
	id := pkt.Target()

	c.mu.RLock()
	_, ok := c.devices[id]
	c.mu.RUnlock()
	if ok {
		return
	}

	ip := net.ParseIP(host)
	d := device.New(id, ip, c, c.cfg.RequestTimeout, c.cfg.Retransmits, c.cfg.TransitionDuration)
	d.Observe(host, port, pkt)

	c.mu.Lock()
	c.devices[id] = d
	c.mu.Unlock()

	c.refreshDeviceCounts()
	log.Debugf("lifx: discovered device %s at %s", d.MAC(), host)
}

func (c *Client) handleStateGroup(_ string, _ int, pkt *protocol.Packet) {
	p, ok := pkt.Payload.(protocol.StateGroupPayload)
	if !ok {
		return
	}
	c.labelsMu.Lock()
	defer c.labelsMu.Unlock()
	if cur, ok := c.groupLabels[p.ID]; !ok || p.UpdatedAt > cur.updatedAt {
		c.groupLabels[p.ID] = labelRecord{label: protocol.BytesToLabel(p.Label), updatedAt: p.UpdatedAt}
	}
}

func (c *Client) handleStateLocation(_ string, _ int, pkt *protocol.Packet) {
	p, ok := pkt.Payload.(protocol.StateLocationPayload)
	if !ok {
		return
	}
	c.labelsMu.Lock()
	defer c.labelsMu.Unlock()
	if cur, ok := c.locationLabels[p.ID]; !ok || p.UpdatedAt > cur.updatedAt {
		c.locationLabels[p.ID] = labelRecord{label: protocol.BytesToLabel(p.Label), updatedAt: p.UpdatedAt}
	}
}

// Devices returns every registered device last seen within maxSeen ago,
// sorted by device id. maxSeen <= 0 defaults to missed_polls *
// device_poll_interval.
func (c *Client) Devices(maxSeen time.Duration) []*device.Device {
	if maxSeen <= 0 {
		maxSeen = c.cfg.staleAfter()
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*device.Device, 0, len(c.devices))
	for _, d := range c.devices {
		if d.SeenAgo() < maxSeen {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// ByID returns the device with the given target, if currently registered.
func (c *Client) ByID(id uint64) (*device.Device, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.devices[id]
	return d, ok
}

// ByLabel returns every currently-seen device whose Label matches label.
func (c *Client) ByLabel(label string) []*device.Device {
	var out []*device.Device
	for _, d := range c.Devices(0) {
		l, err := d.Label()
		if err == nil && l == label {
			out = append(out, d)
		}
	}
	return out
}

// ByPower returns every currently-seen device whose power state matches on.
func (c *Client) ByPower(on bool) []*device.Device {
	var out []*device.Device
	for _, d := range c.Devices(0) {
		p, err := d.Power()
		if err == nil && p == on {
			out = append(out, d)
		}
	}
	return out
}

// ByGroupID returns every currently-seen device belonging to the given
// group id.
func (c *Client) ByGroupID(id [protocol.GroupLocationIDSize]byte) []*device.Device {
	var out []*device.Device
	for _, d := range c.Devices(0) {
		gid, err := d.GroupID()
		if err == nil && gid == id {
			out = append(out, d)
		}
	}
	return out
}

// ByLocationID returns every currently-seen device belonging to the given
// location id.
func (c *Client) ByLocationID(id [protocol.GroupLocationIDSize]byte) []*device.Device {
	var out []*device.Device
	for _, d := range c.Devices(0) {
		lid, err := d.LocationID()
		if err == nil && lid == id {
			out = append(out, d)
		}
	}
	return out
}

// Groups returns a Group view for every group id currently reported by a
// seen device.
func (c *Client) Groups() []*group.Group {
	idOf := func(d *device.Device) ([protocol.GroupLocationIDSize]byte, error) { return d.GroupID() }
	return c.aggregateViews(idOf, c.ByGroupID, c.groupLookup)
}

// Locations returns a Group view for every location id currently reported
// by a seen device. Locations share Group's shape: LIFX models a location
// exactly like a group, just with a different id namespace.
func (c *Client) Locations() []*group.Group {
	idOf := func(d *device.Device) ([protocol.GroupLocationIDSize]byte, error) { return d.LocationID() }
	return c.aggregateViews(idOf, c.ByLocationID, c.locationLookup)
}

func (c *Client) aggregateViews(
	idOf func(*device.Device) ([protocol.GroupLocationIDSize]byte, error),
	members group.MembershipFunc,
	labelFunc group.LabelFunc,
) []*group.Group {
	ids := make(map[[protocol.GroupLocationIDSize]byte]struct{})
	for _, d := range c.Devices(0) {
		if id, err := idOf(d); err == nil {
			ids[id] = struct{}{}
		}
	}
	groups := make([]*group.Group, 0, len(ids))
	for id := range ids {
		groups = append(groups, group.New(id, members, labelFunc))
	}
	return groups
}

func (c *Client) groupLookup(id [protocol.GroupLocationIDSize]byte) (string, uint64, bool) {
	c.labelsMu.Lock()
	defer c.labelsMu.Unlock()
	rec, ok := c.groupLabels[id]
	return rec.label, rec.updatedAt, ok
}

func (c *Client) locationLookup(id [protocol.GroupLocationIDSize]byte) (string, uint64, bool) {
	c.labelsMu.Lock()
	defer c.labelsMu.Unlock()
	rec, ok := c.locationLabels[id]
	return rec.label, rec.updatedAt, ok
}

// Stats returns the client's shared packet/retransmit counters.
func (c *Client) Stats() *Stats { return c.stats }

// Close stops the discovery/poll repeaters, cancels the receive loop, and
// closes the underlying socket.
func (c *Client) Close() error {
	c.discoverRepeat.Stop()
	c.pollRepeat.Stop()
	c.transport.UnregisterPacketHandler(c.discoverTok)
	c.transport.UnregisterPacketHandler(c.groupTok)
	c.transport.UnregisterPacketHandler(c.locationTok)

	c.mu.RLock()
	for _, d := range c.devices {
		d.Close()
	}
	c.mu.RUnlock()

	// Cancelling ctx makes transport.Run close the socket itself and return;
	// closing it again here too would race that shutdown and spuriously
	// surface a "use of closed network connection" error.
	c.cancel()
	if err := c.eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// The following methods implement device.Sender.

// Send implements device.Sender.
func (c *Client) Send(addr *net.UDPAddr, target uint64, ackRequired, resRequired bool, sequence uint8, pktType protocol.MessageType, payload protocol.Payload) error {
	pkt := protocol.MakePacket(c.source, target, false, ackRequired, resRequired, sequence, pktType, payload)
	return c.transport.SendPacket(addr, pkt)
}

// NextSequence implements device.Sender: it returns the current counter
// value and then increments it, wrapping modulo 256.
func (c *Client) NextSequence() uint8 {
	return uint8(c.seq.Add(1) - 1)
}

// RegisterHandler implements device.Sender.
func (c *Client) RegisterHandler(predicate func(*protocol.Packet) bool, handler func(host string, port int, pkt *protocol.Packet)) transport.Token {
	return c.transport.RegisterPacketHandler(predicate, handler)
}

// UnregisterHandler implements device.Sender.
func (c *Client) UnregisterHandler(tok transport.Token) {
	c.transport.UnregisterPacketHandler(tok)
}

// NotePacketSent implements device.Sender.
func (c *Client) NotePacketSent() { c.stats.PacketsSent.Add(1) }

// NoteRetransmit implements device.Sender.
func (c *Client) NoteRetransmit() { c.stats.Retransmits.Add(1) }

// NoteTimeout implements device.Sender.
func (c *Client) NoteTimeout() { c.stats.Timeouts.Add(1) }
