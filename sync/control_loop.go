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
	"time"

	log "github.com/sirupsen/logrus"
)

// ControlLoop drives a SyncSession's Tick at a fixed rate until its context
// is cancelled, grounded on sptp's timer-driven runInternal: a zero-delay
// first timer fires immediately, then every tick reschedules itself at the
// configured interval.
type ControlLoop struct {
	Session *SyncSession
	Now     func() time.Time // overridable for tests; defaults to time.Now
}

// NewControlLoop builds a ControlLoop for session, ticking at rateHz times a
// second. A PPS-sourced session ignores the interval entirely: its sampler
// blocks on the hardware edge itself, so the loop simply calls Tick back to
// back.
func NewControlLoop(session *SyncSession) *ControlLoop {
	return &ControlLoop{Session: session, Now: time.Now}
}

func (l *ControlLoop) interval() time.Duration {
	rate := l.Session.RateHz
	if l.Session.SourceLabel == SourcePPS || rate <= 0 {
		return 0
	}
	return time.Second / time.Duration(rate)
}

// Run ticks the session until ctx is cancelled. On cancellation it clears
// any kernel leap flag left set and returns ctx.Err().
func (l *ControlLoop) Run(ctx context.Context) error {
	now := l.Now
	if now == nil {
		now = time.Now
	}

	interval := l.interval()
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug("control loop cancelled, shutting down")
			l.Session.Shutdown()
			return ctx.Err()
		case <-timer.C:
			if err := l.Session.Tick(now()); err != nil {
				log.Debugf("tick returned: %v", err)
			}
			if interval > 0 {
				timer.Reset(interval)
			} else {
				timer.Reset(0)
			}
		}
	}
}
