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

package servo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestPI2ServoLockedTracking simulates a slave drifting at +100ppb against a
// master; the servo samples the residual offset every second after applying
// its previous correction, closing the loop the way the control loop does.
func TestPI2ServoLockedTracking(t *testing.T) {
	cfg := DefaultServoConfig()
	pi := NewPI2Servo(cfg, DefaultPI2Cfg(), 0)

	const driftPPB = 100.0
	offsetNS := 0.0
	freq := 0.0
	var state State
	for i := 0; i < 40; i++ {
		// offset accrued this second given the uncorrected residual drift
		offsetNS += (driftPPB + freq)
		freq, state = pi.Sample(int64(offsetNS), int64(i)*1e9)
	}

	require.Equal(t, StateLocked, state)
	require.Less(t, math.Abs(freq-(-driftPPB)), 15.0)
}

// TestPI2ServoCatastrophicStep mirrors the Jump contract: a step threshold
// configured below the first offset forces a Jump, resetting the integrator;
// the next in-threshold sample locks.
func TestPI2ServoCatastrophicStep(t *testing.T) {
	cfg := DefaultServoConfig()
	cfg.StepThreshold = 500_000_000 // 500ms
	pi := NewPI2Servo(cfg, DefaultPI2Cfg(), 0)

	freq, state := pi.Sample(2_000_000_000, 0)
	require.Equal(t, StateJump, state)
	require.Equal(t, 0.0, freq)

	// the integrator was reset, so only the proportional term acts: -(0.7 * 50)
	freq, state = pi.Sample(50, 1e9)
	require.Equal(t, StateLocked, state)
	require.InDelta(t, -35.0, freq, 1.0)
}

// TestPI2ServoClamp checks the output never exceeds the configured max.
func TestPI2ServoClamp(t *testing.T) {
	cfg := DefaultServoConfig()
	pi := NewPI2Servo(cfg, DefaultPI2Cfg(), 0)

	freq, state := pi.Sample(10_000_000_000, 0)
	require.Equal(t, StateLocked, state)
	require.LessOrEqual(t, math.Abs(freq), DefaultPI2Cfg().MaxFreqPPB)
}

func TestPI2ServoStepThresholdBoundary(t *testing.T) {
	cfg := DefaultServoConfig()
	cfg.StepThreshold = 1_000_000_000 // 1s

	pi := NewPI2Servo(cfg, DefaultPI2Cfg(), 0)
	_, state := pi.Sample(1_000_000_001, 0)
	require.Equal(t, StateJump, state)

	pi = NewPI2Servo(cfg, DefaultPI2Cfg(), 0)
	_, state = pi.Sample(999_999_999, 0)
	require.Equal(t, StateLocked, state)
}
