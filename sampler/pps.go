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

package sampler

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

// PHCPPSOffsetLimitNS is the maximum disagreement, in nanoseconds, allowed
// between the PPS edge and the auxiliary PHC's view of the current second
// before a hybrid-mode sample is discarded. 10ms, matching phc2sys.c.
const PHCPPSOffsetLimitNS = 10_000_000

const nsPerSec = 1_000_000_000

// PPSFetcher abstracts pulling the most recent PPS assertion edge timestamp,
// referenced to the slave clock.
type PPSFetcher interface {
	FetchPPS() (ppsTimestampNS uint64, err error)
}

// PpsSampler consumes PPS assertion events. In pure mode it assumes the
// slave is the system realtime clock and the offset is the sub-second
// remainder of the PPS timestamp; in hybrid mode an auxiliary PHC recovers
// the whole-second component.
type PpsSampler struct {
	PPS PPSFetcher

	// Hybrid, if set, is cross-sampled against the slave to recover the
	// whole second; nil means pure PPS mode.
	Hybrid *PhcCrossSampler
}

// NewPpsSampler builds a pure PPS sampler.
func NewPpsSampler(pps PPSFetcher) *PpsSampler {
	return &PpsSampler{PPS: pps}
}

// NewHybridPpsSampler builds a PPS sampler that additionally cross-samples
// an auxiliary PHC to recover the whole-second component.
func NewHybridPpsSampler(pps PPSFetcher, hybrid *PhcCrossSampler) *PpsSampler {
	return &PpsSampler{PPS: pps, Hybrid: hybrid}
}

// ErrPPSOffsetDisagreement is returned when hybrid mode's PHC cross-sample
// disagrees with the PPS edge by more than PHCPPSOffsetLimitNS; the caller
// should skip this tick rather than feed a bad sample into the servo.
var ErrPPSOffsetDisagreement = fmt.Errorf("PPS edge and PHC second disagree by more than %d ns", PHCPPSOffsetLimitNS)

// Sample implements Sampler.
func (s *PpsSampler) Sample() (Tuple, error) {
	tsPPS, err := s.PPS.FetchPPS()
	if err != nil {
		return Tuple{}, fmt.Errorf("fetching PPS edge: %w", err)
	}

	offset := int64(tsPPS % nsPerSec)
	if offset > nsPerSec/2 {
		offset -= nsPerSec
	}

	if s.Hybrid == nil {
		return Tuple{OffsetNS: offset, TimestampNS: tsPPS, DelayNS: NoDelay}, nil
	}

	phcSample, err := s.Hybrid.Sample()
	if err != nil {
		return Tuple{}, fmt.Errorf("cross-sampling auxiliary PHC: %w", err)
	}
	phcTSInPHC := int64(phcSample.TimestampNS) - phcSample.OffsetNS
	rem := phcTSInPHC % nsPerSec
	if rem < 0 {
		rem += nsPerSec
	}
	if rem > PHCPPSOffsetLimitNS {
		log.Warnf("PPS/PHC disagreement: auxiliary PHC second remainder %dns exceeds limit %dns", rem, PHCPPSOffsetLimitNS)
		return Tuple{}, ErrPPSOffsetDisagreement
	}
	phcTSFloor := phcTSInPHC - rem
	offset = int64(tsPPS) - phcTSFloor

	return Tuple{OffsetNS: offset, TimestampNS: tsPPS, DelayNS: phcSample.DelayNS}, nil
}

// IsPure reports whether this sampler is in pure-PPS mode, in which case the
// control loop must forcibly zero sync_offset_direction: the UTC offset is
// meaningless without a master wall time.
func (s *PpsSampler) IsPure() bool {
	return s.Hybrid == nil
}
