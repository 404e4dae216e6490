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
	"sort"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print packet/retransmit counters after one discovery round",
	RunE: func(_ *cobra.Command, _ []string) error {
		ConfigureVerbosity()
		c, err := newClient()
		if err != nil {
			return err
		}
		defer c.Close()

		snap := c.Stats().Snapshot()
		keys := make([]string, 0, len(snap))
		for k := range snap {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		table := tablewriter.NewWriter(os.Stdout)
		table.SetColWidth(36)
		table.SetHeader([]string{"counter", "value"})
		for _, k := range keys {
			table.Append([]string{k, fmt.Sprintf("%d", snap[k])})
		}
		table.Render()
		return nil
	},
}

func init() {
	RootCmd.AddCommand(statsCmd)
}
