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
)

var powerFadeFlag time.Duration

func runPower(on bool) func(*cobra.Command, []string) error {
	return func(_ *cobra.Command, args []string) error {
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
		return d.FadePower(on, powerFadeFlag)
	}
}

var onCmd = &cobra.Command{
	Use:   "on <mac-or-label>",
	Short: "Turn a device on",
	Args:  cobra.ExactArgs(1),
	RunE:  runPower(true),
}

var offCmd = &cobra.Command{
	Use:   "off <mac-or-label>",
	Short: "Turn a device off",
	Args:  cobra.ExactArgs(1),
	RunE:  runPower(false),
}

var toggleCmd = &cobra.Command{
	Use:   "toggle <mac-or-label>",
	Short: "Toggle a device's power state",
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
		return d.PowerToggle(powerFadeFlag)
	},
}

func init() {
	for _, command := range []*cobra.Command{onCmd, offCmd, toggleCmd} {
		command.Flags().DurationVar(&powerFadeFlag, "fade", 0, "fade duration for the transition")
		RootCmd.AddCommand(command)
	}
}
