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

// Package sync owns SyncSession, the single object holding all control-loop
// state, and ControlLoop, the orchestrator that drives a sampler, a servo
// and a leap.Coordinator every tick. This is the ~20% of the system spec.md
// calls the "core": everything else is a collaborator this package wires
// together.
package sync

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/facebookincubator/ptp2sys/clock"
	"github.com/facebookincubator/ptp2sys/leap"
	"github.com/facebookincubator/ptp2sys/sampler"
	"github.com/facebookincubator/ptp2sys/servo"
	"github.com/facebookincubator/ptp2sys/stats"
)

// SourceLabel names which sampler strategy is in use.
type SourceLabel string

// possible values of SourceLabel
const (
	SourcePPS SourceLabel = "pps"
	SourceSys SourceLabel = "sys"
	SourcePHC SourceLabel = "phc"
)

// ClockAdjust is the external capability this package consumes to discipline
// the slave clock: read/set tick frequency in ppb, and step by a signed
// nanosecond delta. Leap flag handling is a separate concern, owned by
// leap.Coordinator's SetKernelLeap.
type ClockAdjust interface {
	FrequencyPPB() (float64, error)
	AdjFreqPPB(ppb float64) error
	Step(deltaNS int64) error
}

// SyncSession is the single object that owns every piece of mutable state
// spec.md's data model assigns to one synchronization run: the slave clock
// handle, the servo, the leap coordinator, and the stats aggregator.
type SyncSession struct {
	Slave       ClockAdjust
	SourceLabel SourceLabel
	Sampler     sampler.Sampler
	Servo       *servo.PI2Servo
	Leap        *leap.Coordinator // nil disables all leap handling
	Stats       *stats.Aggregator // nil emits a per-sample log line instead

	// RateHz rate-limits PHC/SYS sampling; ignored by a PPS sampler, which
	// blocks on the hardware edge instead.
	RateHz int
}

// Bootstrap performs the startup sequence spec.md §4.8 requires: read the
// slave's current frequency once and re-apply it (defeating silent driver
// defaults that read as 0), clear any kernel leap flag, and construct the
// servo seeded with that frequency as its initial integrator state.
func (s *SyncSession) Bootstrap(cfg servo.Servo, piCfg servo.PI2Cfg) error {
	freq, err := s.Slave.FrequencyPPB()
	if err != nil {
		return fmt.Errorf("%w: reading initial slave frequency: %v", ErrConfigurationInvalid, err)
	}
	if err := s.Slave.AdjFreqPPB(freq); err != nil {
		return fmt.Errorf("%w: reapplying initial slave frequency: %v", ErrConfigurationInvalid, err)
	}
	s.Servo = servo.NewPI2Servo(cfg, piCfg, freq)

	if s.Leap != nil && s.Leap.SlaveIsSystemRealtime && s.Leap.KernelLeapEnabled && s.Leap.SetKernelLeap != nil {
		if err := s.Leap.SetKernelLeap(clock.LeapNone); err != nil {
			return fmt.Errorf("%w: clearing kernel leap flag at startup: %v", ErrConfigurationInvalid, err)
		}
	}
	return nil
}

// Shutdown clears a previously-set kernel leap flag, the one persistent
// side effect a clean exit must undo.
func (s *SyncSession) Shutdown() {
	if s.Leap != nil && s.Leap.SlaveIsSystemRealtime && s.Leap.KernelLeapEnabled && s.Leap.LeapApplied != 0 && s.Leap.SetKernelLeap != nil {
		if err := s.Leap.SetKernelLeap(clock.LeapNone); err != nil {
			log.Warnf("failed to clear kernel leap flag on exit: %v", err)
		}
	}
}

// Tick runs exactly one iteration: acquire a sample, run it through the leap
// coordinator, the servo, and dispatch the resulting clock action. now is
// the wall-clock reading used by the leap coordinator. Tick never returns
// ErrSampleTransient/ErrLeapAmbiguous/ErrAdjustmentFailed as fatal — the
// caller should log them (as Tick already has) and continue; it returns a
// non-nil error only to let tests and callers observe what happened.
func (s *SyncSession) Tick(now time.Time) error {
	if s.Leap != nil {
		if err := s.Leap.MaybeRefresh(now); err != nil {
			log.Warnf("management refresh failed: %v", err)
		}
	}

	tup, err := s.Sampler.Sample()
	if err != nil {
		log.Warnf("sample failed, skipping iteration: %v", err)
		return fmt.Errorf("%w: %v", ErrSampleTransient, err)
	}

	offsetNS := tup.OffsetNS

	if s.Leap != nil {
		unlocked := s.Servo == nil || s.Servo.State() == servo.StateInit
		outcome, err := s.Leap.Handle(now, offsetNS, unlocked)
		if err != nil {
			log.Warnf("leap kernel flag update failed: %v", err)
		}
		if outcome == leap.OutcomeSuspend {
			log.Warn("sample discarded: ambiguous leap second")
			return ErrLeapAmbiguous
		}
		offsetNS += int64(s.Leap.SyncOffsetSeconds) * int64(time.Second) * int64(s.Leap.Direction)
	}

	freq, state := s.Servo.Sample(offsetNS, int64(tup.TimestampNS))

	switch state {
	case servo.StateJump:
		if err := s.Slave.Step(-offsetNS); err != nil {
			log.Warnf("step failed: %v", err)
			return fmt.Errorf("%w: step: %v", ErrAdjustmentFailed, err)
		}
		if err := s.Slave.AdjFreqPPB(freq); err != nil {
			log.Warnf("frequency adjustment failed: %v", err)
			return fmt.Errorf("%w: freq: %v", ErrAdjustmentFailed, err)
		}
	case servo.StateLocked:
		if err := s.Slave.AdjFreqPPB(freq); err != nil {
			log.Warnf("frequency adjustment failed: %v", err)
			return fmt.Errorf("%w: freq: %v", ErrAdjustmentFailed, err)
		}
	}

	s.report(offsetNS, freq, tup.DelayNS)
	return nil
}

func (s *SyncSession) report(offsetNS int64, freqPPB float64, delayNS int64) {
	if s.Stats == nil {
		stats.LogSample(&stats.Sample{
			OffsetNS: float64(offsetNS),
			FreqPPB:  freqPPB,
			DelayNS:  float64(delayNS),
			HasDelay: delayNS >= 0,
		})
		return
	}
	if w := s.Stats.Report(float64(offsetNS), freqPPB, float64(delayNS)); w != nil {
		stats.LogWindow(w)
	}
}
