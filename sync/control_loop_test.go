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
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/facebookincubator/ptp2sys/clock"
	"github.com/facebookincubator/ptp2sys/leap"
	"github.com/facebookincubator/ptp2sys/mgmt"
	"github.com/facebookincubator/ptp2sys/ptp/protocol"
	"github.com/facebookincubator/ptp2sys/sampler"
	"github.com/facebookincubator/ptp2sys/servo"
)

// countingSampler returns a fixed tuple and counts how many times it was
// asked to sample, letting a test bound how long the control loop should be
// left running before cancellation.
type countingSampler struct {
	n int64
}

func (c *countingSampler) Sample() (sampler.Tuple, error) {
	atomic.AddInt64(&c.n, 1)
	return sampler.Tuple{OffsetNS: 0, TimestampNS: 0, DelayNS: sampler.NoDelay}, nil
}

func TestControlLoopRunsUntilCancelled(t *testing.T) {
	clk := &fakeClockAdjust{}
	samp := &countingSampler{}
	s := &SyncSession{
		Slave:   clk,
		Sampler: samp,
		Servo:   servo.NewPI2Servo(servo.DefaultServoConfig(), servo.DefaultPI2Cfg(), 0),
		RateHz:  1000,
	}
	loop := NewControlLoop(s)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := loop.Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Greater(t, atomic.LoadInt64(&samp.n), int64(0))
}

func TestControlLoopClearsKernelLeapFlagOnCancel(t *testing.T) {
	var lastLeap clock.LeapIndicator
	var calls int
	coord := leap.NewCoordinator()
	coord.SlaveIsSystemRealtime = true
	coord.KernelLeapEnabled = true
	coord.LeapPending = 1 // matches LeapApplied so Handle is a no-op every tick
	coord.LeapApplied = 1
	coord.SetKernelLeap = func(li clock.LeapIndicator) error {
		lastLeap = li
		calls++
		return nil
	}

	clk := &fakeClockAdjust{}
	samp := &countingSampler{}
	s := &SyncSession{
		Slave:   clk,
		Sampler: samp,
		Servo:   servo.NewPI2Servo(servo.DefaultServoConfig(), servo.DefaultPI2Cfg(), 0),
		Leap:    coord,
		RateHz:  1000,
	}
	loop := NewControlLoop(s)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_ = loop.Run(ctx)

	require.Equal(t, clock.LeapNone, lastLeap)
	require.Greater(t, calls, 0)
}

// TestControlLoopPPSSourceIgnoresRate checks that a PPS-labeled session
// reports a zero tick interval regardless of RateHz, matching the "PpsSampler
// blocks on its own edge" contract.
func TestControlLoopPPSSourceIgnoresRate(t *testing.T) {
	s := &SyncSession{SourceLabel: SourcePPS, RateHz: 1}
	loop := NewControlLoop(s)
	require.Equal(t, time.Duration(0), loop.interval())
}

func TestControlLoopIntervalFromRateHz(t *testing.T) {
	s := &SyncSession{SourceLabel: SourceSys, RateHz: 10}
	loop := NewControlLoop(s)
	require.Equal(t, 100*time.Millisecond, loop.interval())
}

// TestForcedOffsetTerminatesAfterPortDSOnly is scenario E5: with a forced
// offset and wait-sync enabled, the management client waits for a MASTER or
// SLAVE PortDS response and then completes without ever requesting
// TimePropsDS, leaving sync_offset_seconds untouched by the management
// channel (the caller keeps it pinned at the forced value).
func TestForcedOffsetTerminatesAfterPortDSOnly(t *testing.T) {
	tr := &loopFakeTransport{queued: [][]byte{portDSSlaveResponse(t)}}
	coord := leap.NewCoordinator()
	coord.SyncOffsetSeconds = 37
	coord.Mgmt = mgmt.NewClient(tr, true, true)

	require.NoError(t, coord.MaybeRefresh(time.Now()))
	require.True(t, coord.Mgmt.Result.PortStateValid)
	require.EqualValues(t, 37, coord.SyncOffsetSeconds)
	require.False(t, coord.Mgmt.Result.TimePropsValid)
}

type loopFakeTransport struct {
	lastSent []byte
	queued   [][]byte
}

func (f *loopFakeTransport) Send(b []byte) error { f.lastSent = b; return nil }

func (f *loopFakeTransport) Recv(time.Duration) ([]byte, error) {
	if len(f.queued) == 0 {
		return nil, nil
	}
	resp := f.queued[0]
	f.queued = f.queued[1:]
	return resp, nil
}

func portDSSlaveResponse(t *testing.T) []byte {
	t.Helper()
	m := &protocol.Management{
		ManagementMsgHead: protocol.ManagementMsgHead{
			Header: protocol.Header{
				SdoIDAndMsgType: protocol.NewSdoIDAndMsgType(protocol.MessageManagement, 0),
				Version:         protocol.Version,
			},
			ActionField: protocol.RESPONSE,
		},
		TLV: &protocol.PortDataSetTLV{PortState: protocol.PortStateSlave},
	}
	b, err := m.MarshalBinary()
	require.NoError(t, err)
	return b
}
