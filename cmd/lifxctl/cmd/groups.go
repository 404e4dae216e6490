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

var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "List the groups currently-seen devices report belonging to",
	RunE: func(_ *cobra.Command, _ []string) error {
		ConfigureVerbosity()
		c, err := newClient()
		if err != nil {
			return err
		}
		defer c.Close()

		table := tablewriter.NewWriter(os.Stdout)
		table.SetColWidth(32)
		table.SetHeader([]string{"id", "label", "members"})
		for _, g := range c.Groups() {
			table.Append([]string{g.IDString(), g.Label(), fmt.Sprintf("%d", len(g.Members()))})
		}
		table.Render()
		return nil
	},
}

func init() {
	RootCmd.AddCommand(groupsCmd)
}
