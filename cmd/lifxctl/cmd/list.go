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
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Discover devices on the local network and print what answered",
	RunE: func(_ *cobra.Command, _ []string) error {
		ConfigureVerbosity()
		c, err := newClient()
		if err != nil {
			return err
		}
		defer c.Close()

		devices := c.Devices(0)
		if len(devices) == 0 {
			fmt.Println("no devices found")
			return nil
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetColWidth(32)
		table.SetHeader([]string{"mac", "label", "power"})
		for _, d := range devices {
			label, _ := d.Label()
			on, _ := d.Power()
			state := "off"
			if on {
				state = "on"
			}
			table.Append([]string{d.MAC(), label, state})
		}
		table.Render()
		return nil
	},
}

func init() {
	RootCmd.AddCommand(listCmd)
}
