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

// Package discoveryif widens discovery beyond a single configured broadcast
// address by enumerating the local machine's own broadcast-capable
// interfaces over netlink.
package discoveryif

import (
	"fmt"
	"net"

	"github.com/jsimonetti/rtnetlink/rtnl"
	"golang.org/x/sys/unix"
)

// BroadcastAddresses enumerates every up, broadcast-capable local IPv4
// interface and returns the broadcast address each one advertises
// (address | ^mask), deduplicated. Callers should treat a non-nil error as
// non-fatal: netlink is unavailable on non-Linux hosts and may be denied by
// sandboxing, and a Client can always fall back to its single configured
// broadcast address.
func BroadcastAddresses() ([]string, error) {
	conn, err := rtnl.Dial(nil)
	if err != nil {
		return nil, fmt.Errorf("dialing netlink: %w", err)
	}
	defer conn.Close()

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("listing interfaces: %w", err)
	}

	seen := make(map[string]struct{})
	var out []string
	for _, iface := range ifaces {
		iface := iface
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagBroadcast == 0 {
			continue
		}
		addrs, err := conn.Addrs(&iface, unix.AF_INET)
		if err != nil {
			continue
		}
		for _, a := range addrs {
			bcast := broadcastFor(a)
			if bcast == "" {
				continue
			}
			if _, dup := seen[bcast]; dup {
				continue
			}
			seen[bcast] = struct{}{}
			out = append(out, bcast)
		}
	}
	return out, nil
}

// broadcastFor derives an IPv4 network's broadcast address from its address
// and mask. It returns "" for anything that isn't a usable IPv4 /net.IPNet.
func broadcastFor(a net.Addr) string {
	ipnet, ok := a.(*net.IPNet)
	if !ok {
		return ""
	}
	ip4 := ipnet.IP.To4()
	if ip4 == nil || len(ipnet.Mask) != net.IPv4len {
		return ""
	}
	bcast := make(net.IP, net.IPv4len)
	for i := range ip4 {
		bcast[i] = ip4[i] | ^ipnet.Mask[i]
	}
	return bcast.String()
}
