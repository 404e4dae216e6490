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

package discoveryif

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBroadcastForDerivesAddressFromMask(t *testing.T) {
	ipnet := &net.IPNet{
		IP:   net.IPv4(192, 168, 1, 42),
		Mask: net.CIDRMask(24, 32),
	}
	assert.Equal(t, "192.168.1.255", broadcastFor(ipnet))
}

func TestBroadcastForHandlesNarrowerSubnet(t *testing.T) {
	ipnet := &net.IPNet{
		IP:   net.IPv4(10, 0, 0, 5),
		Mask: net.CIDRMask(30, 32),
	}
	assert.Equal(t, "10.0.0.7", broadcastFor(ipnet))
}

func TestBroadcastForRejectsNonIPNet(t *testing.T) {
	assert.Equal(t, "", broadcastFor(&net.UDPAddr{IP: net.IPv4(10, 0, 0, 1)}))
}

func TestBroadcastForRejectsIPv6(t *testing.T) {
	ipnet := &net.IPNet{
		IP:   net.ParseIP("fe80::1"),
		Mask: net.CIDRMask(64, 128),
	}
	assert.Equal(t, "", broadcastFor(ipnet))
}

// BroadcastAddresses itself depends on a live netlink socket, which isn't
// available in a sandboxed test environment, so this only checks that it
// returns without panicking; client.New's AutoDiscoverInterfaces handling
// treats any error here as non-fatal.
func TestBroadcastAddressesDoesNotPanicWithoutNetlink(t *testing.T) {
	assert.NotPanics(t, func() {
		_, _ = BroadcastAddresses()
	})
}
