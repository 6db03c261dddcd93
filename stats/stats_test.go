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

package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestAggregatorWindowEmission mirrors the stats-window scenario: ten offset
// samples {-3,-2,-1,0,1,2,3,0,0,0} should emit rms = sqrt(28/10) and max|offset| = 3.
func TestAggregatorWindowEmission(t *testing.T) {
	a := NewAggregator(10)
	offsets := []float64{-3, -2, -1, 0, 1, 2, 3, 0, 0, 0}

	var w *Window
	for _, o := range offsets {
		w = a.Report(o, 0, -1)
	}

	require.NotNil(t, w)
	require.InDelta(t, math.Sqrt(28.0/10.0), w.OffsetRMSNS, 1e-9)
	require.Equal(t, 3.0, w.OffsetMaxNS)
	require.False(t, w.HasDelay)
}

func TestAggregatorResetsAfterWindow(t *testing.T) {
	a := NewAggregator(2)

	w := a.Report(10, 0, -1)
	require.Nil(t, w)

	w = a.Report(20, 0, -1)
	require.NotNil(t, w)
	require.Equal(t, 2, w.Count)

	// accumulators must have reset atomically: a third sample alone should
	// not carry forward any state from the first window
	w = a.Report(0, 0, -1)
	require.Nil(t, w)
}

func TestAggregatorZeroWindowEmitsEverySample(t *testing.T) {
	a := NewAggregator(0)

	w := a.Report(5, 1, -1)
	require.NotNil(t, w)
	require.Equal(t, 1, w.Count)

	w = a.Report(-5, -1, -1)
	require.NotNil(t, w)
	require.Equal(t, 1, w.Count)
}

func TestAggregatorTracksDelayOnlyWhenKnown(t *testing.T) {
	a := NewAggregator(3)

	a.Report(0, 0, -1) // unknown delay, NoDelay sentinel
	a.Report(0, 0, 100)
	w := a.Report(0, 0, 200)

	require.NotNil(t, w)
	require.True(t, w.HasDelay)
	require.InDelta(t, 150.0, w.DelayMeanNS, 1e-9)
}

func TestAggregatorNegativeWindowTreatedAsUnwindowed(t *testing.T) {
	a := NewAggregator(-5)
	w := a.Report(1, 1, -1)
	require.NotNil(t, w)
}
