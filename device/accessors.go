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
	"fmt"
	"time"

	hcversion "github.com/hashicorp/go-version"

	"github.com/facebook/lifx/protocol"
)

const fullBrightness = 65535

// Label returns the device's current label.
func (d *Device) Label() (string, error) {
	pkt, err := d.blockFor(false, true, protocol.GetLabel, protocol.Empty{}, 0)
	if err != nil {
		return "", err
	}
	p, ok := pkt.Payload.(protocol.StateLabelPayload)
	if !ok {
		return "", fmt.Errorf("device %s: unexpected payload for GET_LABEL: %T", d.MAC(), pkt.Payload)
	}
	return protocol.BytesToLabel(p.Label), nil
}

// SetLabel sets the device's label, truncated to 32 bytes on the wire.
func (d *Device) SetLabel(label string) error {
	_, err := d.blockFor(true, false, protocol.SetLabel, protocol.NewSetLabelPayload(label), 0)
	return err
}

// Power returns whether the device is currently on.
func (d *Device) Power() (bool, error) {
	pkt, err := d.blockFor(false, true, protocol.GetPower, protocol.Empty{}, 0)
	if err != nil {
		return false, err
	}
	p, ok := pkt.Payload.(protocol.StatePowerPayload)
	if !ok {
		return false, fmt.Errorf("device %s: unexpected payload for GET_POWER: %T", d.MAC(), pkt.Payload)
	}
	return p.Level > 0, nil
}

// SetPower turns the device on or off using the default transition
// duration.
func (d *Device) SetPower(on bool) error {
	return d.FadePower(on, d.transitionDuration)
}

// FadePower turns the device on or off over duration.
func (d *Device) FadePower(on bool, duration time.Duration) error {
	level := uint16(0)
	if on {
		level = fullBrightness
	}
	payload := protocol.LightSetPowerPayload{Level: level, Duration: uint32(duration.Milliseconds())}
	_, err := d.blockFor(true, false, protocol.LightSetPower, payload, 0)
	return err
}

// PowerToggle reads the device's current power state and fades it to the
// opposite state over duration.
func (d *Device) PowerToggle(duration time.Duration) error {
	on, err := d.Power()
	if err != nil {
		return err
	}
	return d.FadePower(!on, duration)
}

// Color returns the device's current HSBK color.
func (d *Device) Color() (protocol.HSBK, error) {
	pkt, err := d.blockFor(false, true, protocol.LightGet, protocol.Empty{}, 0)
	if err != nil {
		return protocol.HSBK{}, err
	}
	p, ok := pkt.Payload.(protocol.LightStatePayload)
	if !ok {
		return protocol.HSBK{}, fmt.Errorf("device %s: unexpected payload for LIGHT_GET: %T", d.MAC(), pkt.Payload)
	}
	return protocol.HSBKFromState(p), nil
}

// SetColor sets the device's color using the default transition duration.
func (d *Device) SetColor(c protocol.HSBK) error {
	return d.FadeColor(c, d.transitionDuration)
}

// FadeColor transitions the device to c over duration.
func (d *Device) FadeColor(c protocol.HSBK, duration time.Duration) error {
	_, err := d.blockFor(true, false, protocol.LightSetColor, c.ToPayload(uint32(duration.Milliseconds())), 0)
	return err
}

// SetHue replaces the hue component of the current color and applies it.
func (d *Device) SetHue(hue float64) error {
	return d.withColor(func(c *protocol.HSBK) { c.Hue = hue })
}

// SetSaturation replaces the saturation component of the current color and
// applies it.
func (d *Device) SetSaturation(saturation float64) error {
	return d.withColor(func(c *protocol.HSBK) { c.Saturation = saturation })
}

// SetBrightness replaces the brightness component of the current color and
// applies it.
func (d *Device) SetBrightness(brightness float64) error {
	return d.withColor(func(c *protocol.HSBK) { c.Brightness = brightness })
}

// SetKelvin replaces the kelvin component of the current color and applies
// it.
func (d *Device) SetKelvin(kelvin int) error {
	return d.withColor(func(c *protocol.HSBK) { c.Kelvin = kelvin })
}

func (d *Device) withColor(mutate func(c *protocol.HSBK)) error {
	c, err := d.Color()
	if err != nil {
		return err
	}
	mutate(&c)
	return d.SetColor(c)
}

// HostFirmware returns the device's host firmware version as
// "major.minor".
func (d *Device) HostFirmware() (string, error) {
	pkt, err := d.blockFor(false, true, protocol.GetHostFirmware, protocol.Empty{}, 0)
	if err != nil {
		return "", err
	}
	p, ok := pkt.Payload.(protocol.StateHostFirmwarePayload)
	if !ok {
		return "", fmt.Errorf("device %s: unexpected payload for GET_HOST_FIRMWARE: %T", d.MAC(), pkt.Payload)
	}
	return protocol.VersionString(p.Version), nil
}

// WifiFirmware returns the device's wifi firmware version as "major.minor".
func (d *Device) WifiFirmware() (string, error) {
	pkt, err := d.blockFor(false, true, protocol.GetWifiFirmware, protocol.Empty{}, 0)
	if err != nil {
		return "", err
	}
	p, ok := pkt.Payload.(protocol.StateWifiFirmwarePayload)
	if !ok {
		return "", fmt.Errorf("device %s: unexpected payload for GET_WIFI_FIRMWARE: %T", d.MAC(), pkt.Payload)
	}
	return protocol.VersionString(p.Version), nil
}

// HostFirmwareVersion parses HostFirmware into a comparable version, so
// callers can sort or gate behavior on firmware age across a fleet of
// devices.
func (d *Device) HostFirmwareVersion() (*hcversion.Version, error) {
	s, err := d.HostFirmware()
	if err != nil {
		return nil, err
	}
	return hcversion.NewVersion(s)
}

// GroupID returns the device's group id as raw wire bytes.
func (d *Device) GroupID() ([protocol.GroupLocationIDSize]byte, error) {
	pkt, err := d.blockFor(false, true, protocol.GetGroup, protocol.Empty{}, 0)
	if err != nil {
		return [protocol.GroupLocationIDSize]byte{}, err
	}
	p, ok := pkt.Payload.(protocol.StateGroupPayload)
	if !ok {
		return [protocol.GroupLocationIDSize]byte{}, fmt.Errorf("device %s: unexpected payload for GET_GROUP: %T", d.MAC(), pkt.Payload)
	}
	return p.ID, nil
}

// LocationID returns the device's location id as raw wire bytes.
func (d *Device) LocationID() ([protocol.GroupLocationIDSize]byte, error) {
	pkt, err := d.blockFor(false, true, protocol.GetLocation, protocol.Empty{}, 0)
	if err != nil {
		return [protocol.GroupLocationIDSize]byte{}, err
	}
	p, ok := pkt.Payload.(protocol.StateLocationPayload)
	if !ok {
		return [protocol.GroupLocationIDSize]byte{}, fmt.Errorf("device %s: unexpected payload for GET_LOCATION: %T", d.MAC(), pkt.Payload)
	}
	return p.ID, nil
}

// Latency sends a 64-byte ECHO_REQUEST and returns the round-trip time,
// folding the sample into the device's rolling latency window.
func (d *Device) Latency() (time.Duration, error) {
	start := time.Now()
	_, err := d.blockFor(false, true, protocol.EchoRequest, protocol.EchoRequestPayload{}, 0)
	if err != nil {
		return 0, err
	}
	rtt := time.Since(start)

	d.latencyMu.Lock()
	d.latency.Add(float64(rtt))
	d.latencyMu.Unlock()

	return rtt, nil
}

// LatencyStats returns the mean and standard deviation of every Latency
// sample collected so far, both as time.Duration.
func (d *Device) LatencyStats() (mean, stddev time.Duration) {
	d.latencyMu.Lock()
	defer d.latencyMu.Unlock()
	return time.Duration(d.latency.Mean()), time.Duration(d.latency.Stddev())
}
