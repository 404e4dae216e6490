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
	"time"

	"github.com/spf13/cobra"

	"github.com/facebook/lifx/protocol"
)

var (
	colorHueFlag        float64
	colorSaturationFlag float64
	colorBrightnessFlag float64
	colorKelvinFlag     int
	colorFadeFlag       time.Duration
)

var colorCmd = &cobra.Command{
	Use:   "color <mac-or-label>",
	Short: "Set a device's hue/saturation/brightness/kelvin",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		ConfigureVerbosity()
		c, err := newClient()
		if err != nil {
			return err
		}
		defer c.Close()

		d, err := findDevice(c, args[0])
		if err != nil {
			return err
		}
		target := protocol.HSBK{
			Hue:        colorHueFlag,
			Saturation: colorSaturationFlag,
			Brightness: colorBrightnessFlag,
			Kelvin:     colorKelvinFlag,
		}
		return d.FadeColor(target, colorFadeFlag)
	},
}

func init() {
	colorCmd.Flags().Float64Var(&colorHueFlag, "hue", 0, "hue in degrees [0, 360)")
	colorCmd.Flags().Float64Var(&colorSaturationFlag, "saturation", 1, "saturation fraction [0, 1]")
	colorCmd.Flags().Float64Var(&colorBrightnessFlag, "brightness", 1, "brightness fraction [0, 1]")
	colorCmd.Flags().IntVar(&colorKelvinFlag, "kelvin", 3500, "white point in kelvin")
	colorCmd.Flags().DurationVar(&colorFadeFlag, "fade", 0, "fade duration for the transition")
	RootCmd.AddCommand(colorCmd)
}
