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

// Package leap derives the slave clock's leap-pending state and the
// UTC/TAI offset that should be applied to raw offset measurements,
// refreshing both from a management client and suppressing samples that
// fall in the ambiguous second around a leap event.
package leap

import (
	"time"

	"github.com/facebookincubator/ptp2sys/clock"
	"github.com/facebookincubator/ptp2sys/mgmt"
)

// Outcome is returned by Handle.
type Outcome int

// possible values of Outcome
const (
	// OutcomeProceed means the caller should continue feeding this sample
	// to the servo as normal.
	OutcomeProceed Outcome = iota
	// OutcomeSuspend means ts falls in the ambiguous second before a leap
	// event; the caller must discard this sample entirely.
	OutcomeSuspend
)

// DefaultRefreshInterval is how often a management round is attempted when
// a client is configured, matching phc2sys.c's hard-coded 60 second cadence.
const DefaultRefreshInterval = 60 * time.Second

// ambiguousWindow is the final second before a leap-bearing UTC midnight
// during which a timestamp cannot be uniquely decoded.
const ambiguousWindow = time.Second

// Coordinator owns the leap/UTC-offset state a SyncSession carries and
// implements the Refresh and leap-handling responsibilities of spec.md's
// LeapCoordinator.
type Coordinator struct {
	// SlaveIsSystemRealtime gates both which wall-clock branch Handle takes
	// and whether the kernel leap flag may ever be touched.
	SlaveIsSystemRealtime bool
	// KernelLeapEnabled, when false, means the kernel flag is never set;
	// the leap is absorbed elsewhere (the servo-applied path), and only
	// LeapApplied/SyncOffsetSeconds bookkeeping happens here.
	KernelLeapEnabled bool
	// SetKernelLeap applies li to the slave's kernel leap flag. Required
	// only when SlaveIsSystemRealtime && KernelLeapEnabled.
	SetKernelLeap func(li clock.LeapIndicator) error

	// LeapPending is the value most recently reported by the management
	// channel: -1 deletion, 0 none, +1 insertion.
	LeapPending int
	// LeapApplied is the value currently latched into the kernel (or, when
	// the kernel path is disabled, the value last accounted for).
	LeapApplied int
	// SyncOffsetSeconds is the current UTC offset applied between master
	// and slave; Handle adjusts it by one when a leap elapses.
	SyncOffsetSeconds int32
	// Direction is the sign applied to SyncOffsetSeconds when correcting a
	// raw offset; 0 disables the correction entirely.
	Direction int32

	// Mgmt, if non-nil, is polled by MaybeRefresh every RefreshInterval.
	Mgmt            *mgmt.Client
	MgmtTimeout     time.Duration
	RefreshInterval time.Duration

	lastOK    time.Time
	hasLastOK bool

	// boundary is the specific midnight instant a detected pending leap
	// takes effect at, fixed the first time Handle observes a pending leap
	// and cleared again once that leap has elapsed.
	boundary    time.Time
	hasBoundary bool
}

// NewCoordinator builds a Coordinator with the default 60s refresh cadence.
func NewCoordinator() *Coordinator {
	return &Coordinator{RefreshInterval: DefaultRefreshInterval}
}

// MaybeRefresh runs one non-blocking management round if due. It is a no-op
// when no management client is configured.
func (c *Coordinator) MaybeRefresh(now time.Time) error {
	if c.Mgmt == nil {
		return nil
	}
	if c.hasLastOK && now.Sub(c.lastOK) < c.RefreshInterval {
		return nil
	}
	outcome, err := c.Mgmt.Poll(c.MgmtTimeout)
	if err != nil {
		return err
	}
	if outcome != mgmt.OutcomeComplete {
		return nil
	}
	if c.Mgmt.Result.TimePropsValid {
		c.SyncOffsetSeconds = c.Mgmt.Result.SyncOffsetSeconds
		c.LeapPending = c.Mgmt.Result.LeapPending
	}
	c.lastOK = now
	c.hasLastOK = true
	return nil
}

// Handle implements the leap-handling responsibility. now is a wall-clock
// reading of the system clock; offsetNS and unlocked describe the sample
// currently being processed (unlocked means the servo's next update will
// step the clock, per spec.md's "next update will step" test).
func (c *Coordinator) Handle(now time.Time, offsetNS int64, unlocked bool) (Outcome, error) {
	if c.LeapPending == 0 && c.LeapApplied == 0 {
		return OutcomeProceed, nil
	}

	ts := now
	if c.SlaveIsSystemRealtime && unlocked {
		corrected := offsetNS + int64(c.SyncOffsetSeconds)*int64(time.Second)*int64(c.Direction)
		ts = now.Add(-time.Duration(corrected))
	}

	boundary := c.boundaryFor(ts)

	if isUTCAmbiguous(ts, boundary) {
		return OutcomeSuspend, nil
	}

	target := canonicalLeap(ts, boundary, c.LeapPending)
	if target == c.LeapApplied {
		return OutcomeProceed, nil
	}

	if c.SlaveIsSystemRealtime && c.KernelLeapEnabled {
		if err := c.SetKernelLeap(clock.LeapIndicator(target)); err != nil {
			return OutcomeProceed, err
		}
	}

	if target == 0 {
		// the leap has elapsed: preserve continuity in the applied offset
		switch c.LeapApplied {
		case 1:
			c.SyncOffsetSeconds++
		case -1:
			c.SyncOffsetSeconds--
		}
		c.hasBoundary = false
	}
	c.LeapApplied = target

	return OutcomeProceed, nil
}

// boundaryFor returns the midnight instant the currently pending leap takes
// effect at, computing and caching it from ts the first time it is needed.
func (c *Coordinator) boundaryFor(ts time.Time) time.Time {
	if c.hasBoundary {
		return c.boundary
	}
	c.boundary = nextMidnight(ts)
	c.hasBoundary = true
	return c.boundary
}

// nextMidnight returns the UTC midnight that terminates ts's calendar day.
func nextMidnight(ts time.Time) time.Time {
	ts = ts.UTC()
	return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
}

// isUTCAmbiguous reports whether ts falls in the final second before a
// leap-bearing midnight, during which a UTC timestamp is not uniquely
// decodable.
func isUTCAmbiguous(ts, boundary time.Time) bool {
	return !ts.Before(boundary.Add(-ambiguousWindow)) && ts.Before(boundary)
}

// canonicalLeap returns the leap value that should be latched for ts: the
// pending value before boundary, zero at or after it.
func canonicalLeap(ts, boundary time.Time, pending int) int {
	if ts.Before(boundary) {
		return pending
	}
	return 0
}
