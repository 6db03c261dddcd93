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

package sync

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/facebookincubator/ptp2sys/clock"
	"github.com/facebookincubator/ptp2sys/leap"
	"github.com/facebookincubator/ptp2sys/sampler"
	"github.com/facebookincubator/ptp2sys/servo"
	"github.com/facebookincubator/ptp2sys/stats"
)

// fakeClockAdjust records every call a SyncSession makes so scenarios can
// assert on exactly what reached the "kernel".
type fakeClockAdjust struct {
	freqPPB    float64
	freqCalls  []float64
	stepCalls  []int64
	adjFreqErr error
	stepErr    error
}

func (f *fakeClockAdjust) FrequencyPPB() (float64, error) { return f.freqPPB, nil }

func (f *fakeClockAdjust) AdjFreqPPB(ppb float64) error {
	if f.adjFreqErr != nil {
		return f.adjFreqErr
	}
	f.freqCalls = append(f.freqCalls, ppb)
	f.freqPPB = ppb
	return nil
}

func (f *fakeClockAdjust) Step(deltaNS int64) error {
	if f.stepErr != nil {
		return f.stepErr
	}
	f.stepCalls = append(f.stepCalls, deltaNS)
	return nil
}

// sequenceSampler replays a fixed list of tuples, one per Sample call.
type sequenceSampler struct {
	tuples []sampler.Tuple
	errs   []error
	i      int
}

func (s *sequenceSampler) Sample() (sampler.Tuple, error) {
	if s.i >= len(s.tuples) {
		return sampler.Tuple{}, errors.New("sequenceSampler exhausted")
	}
	t, err := s.tuples[s.i], s.errs[s.i]
	s.i++
	return t, err
}

func newSequenceSampler(offsets []int64) *sequenceSampler {
	s := &sequenceSampler{}
	for i, o := range offsets {
		s.tuples = append(s.tuples, sampler.Tuple{OffsetNS: o, TimestampNS: uint64(i) * 1e9, DelayNS: sampler.NoDelay})
		s.errs = append(s.errs, nil)
	}
	return s
}

func newSession(samp sampler.Sampler, clk *fakeClockAdjust) *SyncSession {
	pi := servo.NewPI2Servo(servo.DefaultServoConfig(), servo.DefaultPI2Cfg(), 0)
	return &SyncSession{
		Slave:   clk,
		Sampler: samp,
		Servo:   pi,
	}
}

// TestLockedPHCTracking is scenario E1: a slave drifting at +100ppb should
// converge to a Locked servo with freq close to -100ppb within 20 samples.
func TestLockedPHCTracking(t *testing.T) {
	offsets := make([]int64, 20)
	for i := range offsets {
		offsets[i] = int64(i+1) * 100
	}
	clk := &fakeClockAdjust{}
	s := newSession(newSequenceSampler(offsets), clk)

	for i := 0; i < len(offsets); i++ {
		err := s.Tick(time.Now())
		require.NoError(t, err)
	}

	require.Equal(t, servo.StateLocked, s.Servo.State())
	last := clk.freqCalls[len(clk.freqCalls)-1]
	require.Less(t, math.Abs(last-(-100)), 5.0)
}

// TestCatastrophicStep is scenario E2.
func TestCatastrophicStep(t *testing.T) {
	cfg := servo.DefaultServoConfig()
	cfg.StepThreshold = 500_000_000
	clk := &fakeClockAdjust{}
	samp := newSequenceSampler([]int64{2_000_000_000, 50})
	s := &SyncSession{
		Slave:   clk,
		Sampler: samp,
		Servo:   servo.NewPI2Servo(cfg, servo.DefaultPI2Cfg(), 0),
	}

	require.NoError(t, s.Tick(time.Now()))
	require.Equal(t, servo.StateJump, s.Servo.State())
	require.Equal(t, []int64{-2_000_000_000}, clk.stepCalls)

	require.NoError(t, s.Tick(time.Now()))
	require.Equal(t, servo.StateLocked, s.Servo.State())
}

// erroringSampler always reports the given error (here a disagreement), matching
// scenario E3's "sampler rejects, servo not called" contract.
type erroringSampler struct{ err error }

func (e erroringSampler) Sample() (sampler.Tuple, error) { return sampler.Tuple{}, e.err }

// TestPPSPHCMismatchSkipsServo is scenario E3: when the sampler itself
// rejects the reading (the disagreement check lives in sampler.PpsSampler),
// Tick must propagate ErrSampleTransient and never touch the clock.
func TestPPSPHCMismatchSkipsServo(t *testing.T) {
	clk := &fakeClockAdjust{}
	s := newSession(erroringSampler{err: sampler.ErrPPSOffsetDisagreement}, clk)

	err := s.Tick(time.Now())
	require.ErrorIs(t, err, ErrSampleTransient)
	require.Empty(t, clk.freqCalls)
	require.Empty(t, clk.stepCalls)
}

// TestLeapInsertionEndToEnd is scenario E4, driven through SyncSession
// instead of leap.Coordinator directly, confirming the wiring between the
// two packages.
func TestLeapInsertionEndToEnd(t *testing.T) {
	var lastLeap clock.LeapIndicator
	var leapCalls int
	coord := leap.NewCoordinator()
	coord.SlaveIsSystemRealtime = true
	coord.KernelLeapEnabled = true
	coord.LeapPending = 1
	coord.SyncOffsetSeconds = 37
	coord.Direction = 1
	coord.SetKernelLeap = func(li clock.LeapIndicator) error {
		lastLeap = li
		leapCalls++
		return nil
	}

	clk := &fakeClockAdjust{}
	samp := newSequenceSampler([]int64{0, 0, 0})
	s := &SyncSession{
		Slave:   clk,
		Sampler: samp,
		Servo:   servo.NewPI2Servo(servo.DefaultServoConfig(), servo.DefaultPI2Cfg(), 0),
		Leap:    coord,
	}

	mid := time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.Tick(mid.Add(-30*time.Second)))
	require.Equal(t, clock.LeapInsert, lastLeap)
	require.Equal(t, 1, leapCalls)

	err := s.Tick(mid.Add(-500 * time.Millisecond))
	require.ErrorIs(t, err, ErrLeapAmbiguous)
	require.Equal(t, 1, leapCalls)

	require.NoError(t, s.Tick(mid.Add(time.Second)))
	require.Equal(t, clock.LeapNone, lastLeap)
	require.EqualValues(t, 38, coord.SyncOffsetSeconds)
	require.Equal(t, 2, leapCalls)
}

// TestStatsWindowEmission is scenario E6, exercised through SyncSession.Tick
// so the aggregator wiring itself (not just stats.Aggregator in isolation)
// is covered.
func TestStatsWindowEmission(t *testing.T) {
	clk := &fakeClockAdjust{}
	offsets := []int64{-3, -2, -1, 0, 1, 2, 3, 0, 0, 0}
	samp := newSequenceSampler(offsets)
	agg := stats.NewAggregator(10)
	s := &SyncSession{
		Slave:   clk,
		Sampler: samp,
		Servo:   servo.NewPI2Servo(servo.DefaultServoConfig(), servo.DefaultPI2Cfg(), 0),
		Stats:   agg,
	}

	for i := 0; i < len(offsets)-1; i++ {
		require.NoError(t, s.Tick(time.Now()))
	}
	// the 10th sample (offsets[9] == 0) crosses the window boundary; Tick
	// only logs the emitted window, so reproduce the same call directly to
	// inspect it.
	w := agg.Report(0, 0, 0)
	require.NotNil(t, w)
	require.InDelta(t, math.Sqrt(28.0/10.0), w.OffsetRMSNS, 1e-9)
	require.Equal(t, 3.0, w.OffsetMaxNS)
}

func TestBootstrapReappliesInitialFrequencyAndSeedsServo(t *testing.T) {
	clk := &fakeClockAdjust{freqPPB: 42}
	s := &SyncSession{Slave: clk}

	err := s.Bootstrap(servo.DefaultServoConfig(), servo.DefaultPI2Cfg())
	require.NoError(t, err)
	require.Equal(t, []float64{42}, clk.freqCalls)
	require.NotNil(t, s.Servo)

	freq, state := s.Servo.Sample(0, 0)
	require.Equal(t, servo.StateLocked, state)
	require.Equal(t, 42.0, freq)
}

func TestBootstrapClearsKernelLeapFlag(t *testing.T) {
	var cleared bool
	clk := &fakeClockAdjust{}
	coord := leap.NewCoordinator()
	coord.SlaveIsSystemRealtime = true
	coord.KernelLeapEnabled = true
	coord.SetKernelLeap = func(li clock.LeapIndicator) error {
		if li == clock.LeapNone {
			cleared = true
		}
		return nil
	}
	s := &SyncSession{Slave: clk, Leap: coord}

	require.NoError(t, s.Bootstrap(servo.DefaultServoConfig(), servo.DefaultPI2Cfg()))
	require.True(t, cleared)
}

func TestShutdownClearsKernelLeapFlagOnlyWhenApplied(t *testing.T) {
	var calls int
	clk := &fakeClockAdjust{}
	coord := leap.NewCoordinator()
	coord.SlaveIsSystemRealtime = true
	coord.KernelLeapEnabled = true
	coord.SetKernelLeap = func(clock.LeapIndicator) error { calls++; return nil }
	s := &SyncSession{Slave: clk, Leap: coord}

	s.Shutdown()
	require.Equal(t, 0, calls)

	coord.LeapApplied = 1
	s.Shutdown()
	require.Equal(t, 1, calls)
}
