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

package protocol

import "math"

// HSBK is a color in the device-facing unit system, rather than the raw u16
// wire values LIGHT_SET_COLOR/LIGHT_STATE use.
type HSBK struct {
	// Hue in degrees, [0, 360).
	Hue float64
	// Saturation as a fraction, [0, 1].
	Saturation float64
	// Brightness as a fraction, [0, 1].
	Brightness float64
	// Kelvin in the natural integer range, typically [2500, 9000].
	Kelvin int
}

const (
	wireMax   = 65535.0
	degreeMax = 360.0
)

// scaleToWire maps a value in [0, max] onto the full u16 wire range.
func scaleToWire(v, max float64) uint16 {
	if v < 0 {
		v = 0
	}
	if v > max {
		v = max
	}
	return uint16(math.Round(v / max * wireMax))
}

// scaleFromWire is the inverse of scaleToWire.
func scaleFromWire(v uint16, max float64) float64 {
	return float64(v) / wireMax * max
}

// ToPayload converts c into the raw wire fields LIGHT_SET_COLOR expects.
// Kelvin is taken modulo 65536, defensively, against out-of-range input.
func (c HSBK) ToPayload(duration uint32) LightSetColorPayload {
	return LightSetColorPayload{
		Hue:        scaleToWire(c.Hue, degreeMax),
		Saturation: scaleToWire(c.Saturation, 1),
		Brightness: scaleToWire(c.Brightness, 1),
		Kelvin:     uint16(c.Kelvin % 65536),
		Duration:   duration,
	}
}

// HSBKFromState converts a LIGHT_STATE payload's raw wire color fields into
// the device-facing unit system.
func HSBKFromState(s LightStatePayload) HSBK {
	return HSBK{
		Hue:        scaleFromWire(s.Hue, degreeMax),
		Saturation: scaleFromWire(s.Saturation, 1),
		Brightness: scaleFromWire(s.Brightness, 1),
		Kelvin:     int(s.Kelvin),
	}
}
