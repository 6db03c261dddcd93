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

package leap

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/facebookincubator/ptp2sys/clock"
)

func midnight(day time.Time) time.Time {
	return nextMidnight(day)
}

// TestLeapInsertionSequence mirrors the leap-insertion end-to-end scenario:
// the kernel flag is set well before midnight, the ambiguous second is
// discarded, and after midnight the offset and applied flag settle.
func TestLeapInsertionSequence(t *testing.T) {
	var lastSet clock.LeapIndicator
	var setCount int
	c := NewCoordinator()
	c.SlaveIsSystemRealtime = true
	c.KernelLeapEnabled = true
	c.LeapPending = 1
	c.SyncOffsetSeconds = 37
	c.SetKernelLeap = func(li clock.LeapIndicator) error {
		lastSet = li
		setCount++
		return nil
	}

	day := time.Date(2016, 12, 31, 12, 0, 0, 0, time.UTC)
	mid := midnight(day)

	// 30s before midnight: flag gets set to insert
	outcome, err := c.Handle(mid.Add(-30*time.Second), 0, false)
	require.NoError(t, err)
	require.Equal(t, OutcomeProceed, outcome)
	require.Equal(t, clock.LeapInsert, lastSet)
	require.Equal(t, 1, c.LeapApplied)
	require.Equal(t, 1, setCount)

	// in the ambiguous second: sample discarded, no further kernel calls
	outcome, err = c.Handle(mid.Add(-500*time.Millisecond), 0, false)
	require.NoError(t, err)
	require.Equal(t, OutcomeSuspend, outcome)
	require.Equal(t, 1, setCount)

	// after midnight: offset increments, flag cleared
	outcome, err = c.Handle(mid.Add(time.Second), 0, false)
	require.NoError(t, err)
	require.Equal(t, OutcomeProceed, outcome)
	require.Equal(t, clock.LeapNone, lastSet)
	require.Equal(t, 0, c.LeapApplied)
	require.EqualValues(t, 38, c.SyncOffsetSeconds)
	require.Equal(t, 2, setCount)
}

func TestHandleProceedsImmediatelyWhenNoLeapActive(t *testing.T) {
	c := NewCoordinator()
	outcome, err := c.Handle(time.Now(), 0, false)
	require.NoError(t, err)
	require.Equal(t, OutcomeProceed, outcome)
}

func TestIsUTCAmbiguousBoundary(t *testing.T) {
	mid := time.Date(2016, 12, 31, 23, 59, 59, 0, time.UTC).Add(time.Second)
	require.True(t, isUTCAmbiguous(mid.Add(-999*time.Millisecond), mid))
	require.True(t, isUTCAmbiguous(mid.Add(-1*time.Second), mid))
	require.False(t, isUTCAmbiguous(mid.Add(-1*time.Second-time.Nanosecond), mid))
	require.False(t, isUTCAmbiguous(mid, mid))
}

// TestLeapIdempotence applies Handle twice to the same (ts, pending) and
// checks the resulting LeapApplied matches.
func TestLeapIdempotence(t *testing.T) {
	c := NewCoordinator()
	c.SlaveIsSystemRealtime = true
	c.KernelLeapEnabled = true
	c.LeapPending = 1
	c.SetKernelLeap = func(clock.LeapIndicator) error { return nil }

	ts := time.Date(2016, 12, 31, 1, 0, 0, 0, time.UTC)
	_, err := c.Handle(ts, 0, false)
	require.NoError(t, err)
	first := c.LeapApplied

	_, err = c.Handle(ts, 0, false)
	require.NoError(t, err)
	require.Equal(t, first, c.LeapApplied)
}

func TestNonSystemRealtimeSlaveNeverTouchesKernelFlag(t *testing.T) {
	called := false
	c := NewCoordinator()
	c.SlaveIsSystemRealtime = false
	c.KernelLeapEnabled = true
	c.LeapPending = 1
	c.SetKernelLeap = func(clock.LeapIndicator) error { called = true; return nil }

	_, err := c.Handle(time.Date(2016, 12, 31, 1, 0, 0, 0, time.UTC), 0, false)
	require.NoError(t, err)
	require.False(t, called)
	// bookkeeping still advances even though the kernel is untouched
	require.Equal(t, 1, c.LeapApplied)
}
