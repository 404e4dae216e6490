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
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

var procStartTime = time.Now()

// SysStats collects process-level resource usage for a running Client, the
// way a long-lived daemon embedding this library would want to export it
// alongside the protocol counters in Stats.
type SysStats struct{}

// Collect gathers CPU, memory and goroutine counts for the current process.
func (SysStats) Collect() (map[string]uint64, error) {
	stats := make(map[string]uint64)
	stats["process.uptime"] = uint64(time.Since(procStartTime).Seconds())

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, fmt.Errorf("resolving own process: %w", err)
	}
	if pct, err := proc.CPUPercent(); err == nil {
		stats["process.cpu_pct"] = uint64(pct * 100)
	}
	if mem, err := proc.MemoryInfo(); err == nil {
		stats["process.rss"] = mem.RSS
		stats["process.vms"] = mem.VMS
		stats["process.swap"] = mem.Swap
	}
	if fds, err := proc.NumFDs(); err == nil {
		stats["process.num_fds"] = uint64(fds)
	}
	if threads, err := proc.NumThreads(); err == nil {
		stats["process.num_threads"] = uint64(threads)
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	stats["runtime.goroutines"] = uint64(runtime.NumGoroutine())
	stats["runtime.mem.alloc"] = m.Alloc
	stats["runtime.mem.heap_inuse"] = m.HeapInuse
	stats["runtime.gc.num"] = uint64(m.NumGC)

	return stats, nil
}
