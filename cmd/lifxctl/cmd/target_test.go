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

package cmd

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/facebook/lifx/client"
	"github.com/facebook/lifx/protocol"
	"github.com/facebook/lifx/transport"
)

// fakeDeviceID is asymmetric across its 6 MAC bytes, so a findDevice bug that
// mishandles byte order between protocol.MacString and the reverse parse
// can't pass by coincidence (unlike a palindromic id would).
const fakeDeviceID uint64 = 0xd073d5017c04

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

func TestFindDeviceResolvesItsOwnMACString(t *testing.T) {
	stop := startFakeDevice(t)
	defer stop()

	cfg := *client.DefaultConfig()
	cfg.LocalAddress = "127.0.0.1:0"
	cfg.BroadcastAddress = "127.0.0.1"
	cfg.DiscoverInterval = time.Hour
	cfg.DevicePollInterval = time.Hour

	c, err := client.New(cfg)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Discover())
	require.Eventually(t, func() bool {
		_, ok := c.ByID(fakeDeviceID)
		return ok
	}, time.Second, 10*time.Millisecond)

	want, ok := c.ByID(fakeDeviceID)
	require.True(t, ok)

	got, err := findDevice(c, want.MAC())
	require.NoError(t, err)
	require.Equal(t, want.MAC(), got.MAC())
}

func TestFindDeviceRejectsUnknownMAC(t *testing.T) {
	cfg := *client.DefaultConfig()
	cfg.LocalAddress = "127.0.0.1:0"
	cfg.DiscoverInterval = time.Hour
	cfg.DevicePollInterval = time.Hour

	c, err := client.New(cfg)
	require.NoError(t, err)
	defer c.Close()

	_, err = findDevice(c, "d073d5017c04")
	require.Error(t, err)
}
