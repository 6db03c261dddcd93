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

// PI2Cfg configures a PI2Servo. Gains here are used directly rather than
// scaled by sync interval - phc2sys runs its own
// sampling loop instead of reacting to PTP Sync messages.
type PI2Cfg struct {
	Kp         float64
	Ki         float64
	MaxFreqPPB float64
}

// DefaultPI2Cfg returns the gains phc2sys has shipped with for years.
func DefaultPI2Cfg() PI2Cfg {
	return PI2Cfg{
		Kp:         0.7,
		Ki:         0.3,
		MaxFreqPPB: 512000,
	}
}

// PI2Servo is a two-term proportional-integral servo with an explicit
// Jump state for catastrophic re-alignment. StateInit is reported as the
// servo's Unlocked state, before the first sample has been observed.
type PI2Servo struct {
	Servo

	cfg      PI2Cfg
	state    State
	integral float64
	freqBias float64
}

// NewPI2Servo builds a PI2Servo. initialFreqPPB is the frequency read from
// the slave clock at startup; the integrator is seeded from it so that a
// freshly locked servo doesn't have to re-discover a drift it already knew.
func NewPI2Servo(s Servo, cfg PI2Cfg, initialFreqPPB float64) *PI2Servo {
	return &PI2Servo{
		Servo:    s,
		cfg:      cfg,
		state:    StateInit,
		freqBias: initialFreqPPB,
	}
}

// State returns the last state reported by Sample.
func (s *PI2Servo) State() State {
	return s.state
}

// Sample feeds a new offset measurement (nanoseconds) taken at timestampNS
// into the servo and returns the frequency adjustment (ppb) to apply and the
// resulting state.
//
// timestampNS is accepted for parity with the sampler interface and future
// interval-aware gain scaling; the current gains are fixed, so it is unused.
func (s *PI2Servo) Sample(offsetNS int64, _ int64) (float64, State) {
	absOffset := offsetNS
	if absOffset < 0 {
		absOffset = -absOffset
	}

	if s.StepThreshold > 0 && absOffset >= s.StepThreshold {
		s.integral = 0
		s.state = StateJump
		return s.freqBias, s.state
	}

	freq := s.freqBias - (s.cfg.Kp*float64(offsetNS) + s.cfg.Ki*s.integral)
	clamped := clampFreq(freq, s.cfg.MaxFreqPPB)
	if clamped == freq {
		// anti-windup: only accumulate while not saturated
		s.integral += float64(offsetNS)
	}
	s.state = StateLocked
	return clamped, s.state
}

func clampFreq(freq, max float64) float64 {
	if freq > max {
		return max
	}
	if freq < -max {
		return -max
	}
	return freq
}
