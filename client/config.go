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
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v2"
)

// Config specifies how a Client binds its socket and paces discovery and
// liveness polling.
type Config struct {
	// LocalAddress is the host:port the UDP socket binds to. Port 0 picks an
	// ephemeral port.
	LocalAddress string `yaml:"local_address"`
	// BroadcastAddress is where discovery packets are sent, usually the
	// LAN's broadcast address.
	BroadcastAddress string `yaml:"broadcast_address"`
	// DiscoverInterval is how often the discovery timer re-broadcasts
	// GET_SERVICE.
	DiscoverInterval time.Duration `yaml:"discover_interval"`
	// DevicePollInterval is how often each known device is polled to refresh
	// its last-seen timestamp.
	DevicePollInterval time.Duration `yaml:"device_poll_interval"`
	// MissedPolls is how many consecutive missed polls mark a device stale.
	MissedPolls int `yaml:"missed_polls"`
	// RequestTimeout is the default per-request timeout used by Device
	// accessors.
	RequestTimeout time.Duration `yaml:"request_timeout"`
	// Retransmits is the total number of send attempts per request, the
	// first send included, splitting RequestTimeout into equal sub-timeouts.
	Retransmits int `yaml:"retransmits"`
	// TransitionDuration is the default fade duration for power/color
	// transitions that don't specify one explicitly.
	TransitionDuration time.Duration `yaml:"transition_duration"`
	// DSCP marks every outgoing packet with this traffic class (0-63). 0
	// leaves the socket's default marking untouched.
	DSCP int `yaml:"dscp"`
	// AutoDiscoverInterfaces, when true, adds every locally enumerated
	// broadcast address (see package discoveryif) to the target of each
	// discovery round, in addition to BroadcastAddress.
	AutoDiscoverInterfaces bool `yaml:"auto_discover_interfaces"`
}

// DefaultConfig returns the configuration values used when none are
// otherwise specified.
func DefaultConfig() *Config {
	return &Config{
		LocalAddress:       "0.0.0.0:0",
		BroadcastAddress:   "255.255.255.255",
		DiscoverInterval:   60 * time.Second,
		DevicePollInterval: 5 * time.Second,
		MissedPolls:        3,
		RequestTimeout:     2 * time.Second,
		Retransmits:        10,
		TransitionDuration: 200 * time.Millisecond,
	}
}

// ReadConfig reads a YAML config file, applying its values over
// DefaultConfig.
func ReadConfig(path string) (*Config, error) {
	c := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate sanity-checks a Config.
func (c *Config) Validate() error {
	if c.DiscoverInterval <= 0 {
		return fmt.Errorf("discover_interval must be positive")
	}
	if c.DevicePollInterval <= 0 {
		return fmt.Errorf("device_poll_interval must be positive")
	}
	if c.MissedPolls <= 0 {
		return fmt.Errorf("missed_polls must be positive")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive")
	}
	if c.Retransmits <= 0 {
		return fmt.Errorf("retransmits must be positive")
	}
	return nil
}

// staleAfter is the duration after which a device with no traffic is
// considered stale.
func (c *Config) staleAfter() time.Duration {
	return time.Duration(c.MissedPolls) * c.DevicePollInterval
}
