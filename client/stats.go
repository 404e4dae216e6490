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

package client

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// Stats holds process-wide atomic counters for a Client. It is safe for
// concurrent use; every Device shares the same Stats instance as its owning
// Client.
type Stats struct {
	PacketsSent         atomic.Int64
	PacketsReceived     atomic.Int64
	PacketsDropped      atomic.Int64
	UnknownTypeReceived atomic.Int64
	Retransmits         atomic.Int64
	Timeouts            atomic.Int64
	DiscoverySent       atomic.Int64
	PollSent            atomic.Int64
	// DevicesKnown and DevicesStale are gauges, not monotonic counters:
	// Client refreshes them against the live registry on every discovery
	// reply and poll tick rather than incrementing them.
	DevicesKnown atomic.Int64
	DevicesStale atomic.Int64
}

// NotePacketReceived implements transport.StatsSink.
func (s *Stats) NotePacketReceived() { s.PacketsReceived.Add(1) }

// NotePacketDropped implements transport.StatsSink.
func (s *Stats) NotePacketDropped() { s.PacketsDropped.Add(1) }

// NoteUnknownType implements transport.StatsSink.
func (s *Stats) NoteUnknownType() { s.UnknownTypeReceived.Add(1) }

// Snapshot returns a point-in-time copy of every counter, keyed by dotted
// "lifx.client.<counter>" names.
func (s *Stats) Snapshot() map[string]int64 {
	return map[string]int64{
		"lifx.client.packets_sent":     s.PacketsSent.Load(),
		"lifx.client.packets_received": s.PacketsReceived.Load(),
		"lifx.client.packets_dropped":  s.PacketsDropped.Load(),
		"lifx.client.unknown_type":     s.UnknownTypeReceived.Load(),
		"lifx.client.retransmits":      s.Retransmits.Load(),
		"lifx.client.timeouts":         s.Timeouts.Load(),
		"lifx.client.discovery_sent":   s.DiscoverySent.Load(),
		"lifx.client.poll_sent":        s.PollSent.Load(),
		"lifx.client.devices_known":    s.DevicesKnown.Load(),
		"lifx.client.devices_stale":    s.DevicesStale.Load(),
	}
}

// RegisterPrometheus registers a gauge per counter on reg, each one reading
// live from the atomic fields at scrape time.
func (s *Stats) RegisterPrometheus(reg *prometheus.Registry) error {
	for name, read := range map[string]func() float64{
		"lifx_client_packets_sent_total":     func() float64 { return float64(s.PacketsSent.Load()) },
		"lifx_client_packets_received_total": func() float64 { return float64(s.PacketsReceived.Load()) },
		"lifx_client_packets_dropped_total":  func() float64 { return float64(s.PacketsDropped.Load()) },
		"lifx_client_unknown_type_total":     func() float64 { return float64(s.UnknownTypeReceived.Load()) },
		"lifx_client_retransmits_total":      func() float64 { return float64(s.Retransmits.Load()) },
		"lifx_client_timeouts_total":         func() float64 { return float64(s.Timeouts.Load()) },
		"lifx_client_discovery_sent_total":   func() float64 { return float64(s.DiscoverySent.Load()) },
		"lifx_client_poll_sent_total":        func() float64 { return float64(s.PollSent.Load()) },
		"lifx_client_devices_known":          func() float64 { return float64(s.DevicesKnown.Load()) },
		"lifx_client_devices_stale":          func() float64 { return float64(s.DevicesStale.Load()) },
	} {
		gauge := prometheus.NewGaugeFunc(prometheus.GaugeOpts{Name: name}, read)
		if err := reg.Register(gauge); err != nil {
			return err
		}
	}
	return nil
}
