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
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/facebook/lifx/protocol"
	"github.com/facebook/lifx/transport"
)

const fakeDeviceID uint64 = 0x047c01d573d0

// startFakeDevice binds the well-known LIFX port on 127.0.0.1 and answers
// every GET_SERVICE it receives with a STATE_SERVICE reply, mimicking a
// bulb's response to discovery. Transport.New always resolves a Client's
// broadcast address at transport.DefaultPort, so this is where a Client
// configured with BroadcastAddress "127.0.0.1" will actually send.
func startFakeDevice(t *testing.T) (stop func()) {
	t.Helper()
	addr := &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: transport.DefaultPort}
	conn, err := net.ListenUDP("udp4", addr)
	require.NoError(t, err)

	go func() {
		buf := make([]byte, 1500)
		for {
			n, raddr, err := conn.ReadFromUDP(buf)
			if err != nil {
				return
			}
			pkt, err := protocol.ParsePacket(buf[:n])
			if err != nil || pkt.Type() != protocol.GetService {
				continue
			}
			reply := protocol.MakePacket(1, fakeDeviceID, false, false, false, pkt.Sequence(), protocol.StateService,
				protocol.StateServicePayload{Service: protocol.ServiceUDP, Port: uint32(transport.DefaultPort)})
			b, err := reply.MarshalBinary()
			if err != nil {
				continue
			}
			_, _ = conn.WriteTo(b, raddr)
		}
	}()
	return func() { conn.Close() }
}

func TestClientDiscoversDeviceOverLoopback(t *testing.T) {
	stop := startFakeDevice(t)
	defer stop()

	cfg := *DefaultConfig()
	cfg.LocalAddress = "127.0.0.1:0"
	cfg.BroadcastAddress = "127.0.0.1"
	cfg.DiscoverInterval = time.Hour
	cfg.DevicePollInterval = time.Hour

	c, err := New(cfg)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Discover())

	require.Eventually(t, func() bool {
		_, ok := c.ByID(fakeDeviceID)
		return ok
	}, time.Second, 10*time.Millisecond)

	d, ok := c.ByID(fakeDeviceID)
	require.True(t, ok)
	require.Equal(t, "d073d5017c04", d.MAC())

	require.EqualValues(t, 1, c.Stats().DiscoverySent.Load())
	require.EqualValues(t, 1, c.Stats().DevicesKnown.Load())
	require.EqualValues(t, 0, c.Stats().DevicesStale.Load())

	c.PollDevices()
	require.EqualValues(t, 1, c.Stats().PollSent.Load())
}

func TestClientByPowerFiltersEmptyRegistry(t *testing.T) {
	cfg := *DefaultConfig()
	cfg.LocalAddress = "127.0.0.1:0"
	cfg.DiscoverInterval = time.Hour
	cfg.DevicePollInterval = time.Hour

	c, err := New(cfg)
	require.NoError(t, err)
	defer c.Close()

	require.Empty(t, c.ByPower(true))
	require.Empty(t, c.Devices(0))
}
