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

package repeater

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRepeaterFiresRepeatedlyThenStops(t *testing.T) {
	var count atomic.Int64
	r := Start(5*time.Millisecond, func() {
		count.Add(1)
	})

	time.Sleep(40 * time.Millisecond)
	r.Stop()

	assert.GreaterOrEqual(t, count.Load(), int64(6))

	afterStop := count.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, afterStop, count.Load())
}

func TestRepeaterStopIsIdempotent(t *testing.T) {
	r := Start(time.Millisecond, func() {})
	r.Stop()
	assert.NotPanics(t, func() { r.Stop() })
}

func TestRepeaterTicksDoNotOverlap(t *testing.T) {
	var running atomic.Bool
	var overlapped atomic.Bool
	r := Start(2*time.Millisecond, func() {
		if !running.CompareAndSwap(false, true) {
			overlapped.Store(true)
			return
		}
		time.Sleep(5 * time.Millisecond)
		running.Store(false)
	})
	time.Sleep(30 * time.Millisecond)
	r.Stop()

	assert.False(t, overlapped.Load())
}
