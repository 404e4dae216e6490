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
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/facebook/lifx/client"
)

// RootCmd is the entry point. It's exported so lifxctl could be easily
// extended without touching core functionality.
var RootCmd = &cobra.Command{
	Use:   "lifxctl",
	Short: "Command-line client for LIFX bulbs on the local network",
}

var (
	rootVerboseFlag   bool
	rootConfigFlag    string
	rootWaitFlag      time.Duration
	rootBroadcastFlag string
)

func init() {
	RootCmd.PersistentFlags().BoolVarP(&rootVerboseFlag, "verbose", "v", false, "verbose output")
	RootCmd.PersistentFlags().StringVarP(&rootConfigFlag, "config", "c", "", "path to a YAML config file (defaults are used if empty)")
	RootCmd.PersistentFlags().DurationVarP(&rootWaitFlag, "wait", "w", 2*time.Second, "how long to wait for discovery replies before acting")
	RootCmd.PersistentFlags().StringVarP(&rootBroadcastFlag, "broadcast", "b", "", "override the configured broadcast address")
}

// ConfigureVerbosity configures log verbosity based on parsed flags. Needs to
// be called by any subcommand that wants debug-level output.
func ConfigureVerbosity() {
	log.SetLevel(log.InfoLevel)
	if rootVerboseFlag {
		log.SetLevel(log.DebugLevel)
	}
}

// newClient loads configuration from rootConfigFlag (or defaults), applies
// flag overrides, opens a Client, runs one discovery round, and waits
// rootWaitFlag for replies before returning.
func newClient() (*client.Client, error) {
	cfg := client.DefaultConfig()
	if rootConfigFlag != "" {
		loaded, err := client.ReadConfig(rootConfigFlag)
		if err != nil {
			return nil, fmt.Errorf("reading config %q: %w", rootConfigFlag, err)
		}
		cfg = loaded
	}
	if rootBroadcastFlag != "" {
		cfg.BroadcastAddress = rootBroadcastFlag
	}

	c, err := client.New(*cfg)
	if err != nil {
		return nil, fmt.Errorf("starting client: %w", err)
	}
	if err := c.Discover(); err != nil {
		c.Close()
		return nil, fmt.Errorf("discovering devices: %w", err)
	}
	time.Sleep(rootWaitFlag)
	return c, nil
}

// Execute is the main entry point for the CLI.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
