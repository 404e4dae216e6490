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
	"encoding/hex"
	"fmt"

	"github.com/facebook/lifx/client"
	"github.com/facebook/lifx/device"
	"github.com/facebook/lifx/protocol"
)

// findDevice resolves idOrLabel to a device, first trying it as a hex MAC
// (the form Device.MAC returns) and falling back to an exact label match.
func findDevice(c *client.Client, idOrLabel string) (*device.Device, error) {
	if mac, err := hex.DecodeString(idOrLabel); err == nil && len(mac) == 6 {
		id := protocol.BytesToTarget([6]byte(mac))
		if d, ok := c.ByID(id); ok {
			return d, nil
		}
	}
	matches := c.ByLabel(idOrLabel)
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("no device matches %q", idOrLabel)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("label %q matches %d devices, use its MAC instead", idOrLabel, len(matches))
	}
}
