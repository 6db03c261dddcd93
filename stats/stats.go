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

// Package stats implements the windowed offset/frequency/delay aggregator
// the control loop reports every sample to, and its Prometheus exporter.
package stats

import (
	"math"

	"github.com/eclesh/welford"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

// accumulator tracks count/mean/stddev/min/max over a single quantity using
// Welford's online algorithm, the same primitive fbclock's daemon uses for
// its rolling M/W statistics.
type accumulator struct {
	w     *welford.Stats
	min   float64
	max   float64
	seen  bool
	n     int
	sumSq float64
}

func newAccumulator() *accumulator {
	return &accumulator{w: welford.New()}
}

func (a *accumulator) add(v float64) {
	a.w.Add(v)
	if !a.seen || v < a.min {
		a.min = v
	}
	if !a.seen || v > a.max {
		a.max = v
	}
	a.seen = true
	a.n++
	a.sumSq += v * v
}

func (a *accumulator) reset() {
	a.w = welford.New()
	a.min, a.max, a.seen = 0, 0, false
	a.n, a.sumSq = 0, 0
}

func (a *accumulator) mean() float64 {
	if !a.seen {
		return 0
	}
	return a.w.Mean()
}

func (a *accumulator) stddev() float64 {
	if !a.seen {
		return 0
	}
	return a.w.Stddev()
}

func (a *accumulator) maxAbs() float64 {
	abs := math.Abs(a.min)
	if math.Abs(a.max) > abs {
		abs = math.Abs(a.max)
	}
	return abs
}

// rms computes root-mean-square from the running sum of squares.
func (a *accumulator) rms() float64 {
	if a.n == 0 {
		return 0
	}
	return math.Sqrt(a.sumSq / float64(a.n))
}

// Window is one emitted summary record.
type Window struct {
	Count int

	OffsetRMSNS   float64
	OffsetMaxNS   float64
	FreqMeanPPB   float64
	FreqStddevPPB float64

	HasDelay       bool
	DelayMeanNS    float64
	DelayStddevNS  float64
}

// Sample is one per-sample log line, emitted instead of a Window when the
// aggregator's window size is 0.
type Sample struct {
	OffsetNS float64
	FreqPPB  float64
	DelayNS  float64
	HasDelay bool
}

// Aggregator accumulates offset, frequency and delay samples and emits a
// Window every W offset samples (W=0 disables windowing: every sample is
// reported immediately instead).
type Aggregator struct {
	window int

	offset *accumulator
	freq   *accumulator
	delay  *accumulator
	count  int

	metrics *prometheusMetrics
}

// NewAggregator builds an Aggregator with the given window size. window <= 0
// means "emit every sample".
func NewAggregator(window int) *Aggregator {
	if window < 0 {
		window = 0
	}
	return &Aggregator{
		window: window,
		offset: newAccumulator(),
		freq:   newAccumulator(),
		delay:  newAccumulator(),
	}
}

// EnablePrometheus registers this aggregator's gauges with reg. Call once at
// startup, before the control loop begins reporting samples.
func (a *Aggregator) EnablePrometheus(reg prometheus.Registerer) error {
	m, err := newPrometheusMetrics(reg)
	if err != nil {
		return err
	}
	a.metrics = m
	return nil
}

// Report records one offset/freq/delay observation. delayNS < 0 means
// "unknown" and is excluded from the delay accumulator, matching the
// sampler.Tuple.DelayNS convention of sampler.NoDelay.
//
// Report returns a non-nil *Window exactly when a window boundary was
// crossed (or windowing is disabled), and that Window has already been
// atomically reset out of the accumulators.
func (a *Aggregator) Report(offsetNS, freqPPB, delayNS float64) *Window {
	a.offset.add(offsetNS)
	a.freq.add(freqPPB)
	hasDelay := delayNS >= 0
	if hasDelay {
		a.delay.add(delayNS)
	}
	a.count++

	if a.window > 0 && a.count < a.window {
		return nil
	}

	w := a.snapshotAndReset()
	if a.metrics != nil {
		a.metrics.observe(w)
	}
	return w
}

func (a *Aggregator) snapshotAndReset() *Window {
	w := &Window{
		Count:         a.count,
		OffsetRMSNS:   a.offset.rms(),
		OffsetMaxNS:   a.offset.maxAbs(),
		FreqMeanPPB:   a.freq.mean(),
		FreqStddevPPB: a.freq.stddev(),
	}
	if a.delay.seen {
		w.HasDelay = true
		w.DelayMeanNS = a.delay.mean()
		w.DelayStddevNS = a.delay.stddev()
	}

	a.offset.reset()
	a.freq.reset()
	a.delay.reset()
	a.count = 0

	return w
}

// LogWindow writes w as a single structured log line, in the style of
// fbclock/daemon's per-sample logging.
func LogWindow(w *Window) {
	fields := log.Fields{
		"count":           w.Count,
		"offset_rms_ns":   w.OffsetRMSNS,
		"offset_max_ns":   w.OffsetMaxNS,
		"freq_mean_ppb":   w.FreqMeanPPB,
		"freq_stddev_ppb": w.FreqStddevPPB,
	}
	if w.HasDelay {
		fields["delay_mean_ns"] = w.DelayMeanNS
		fields["delay_stddev_ns"] = w.DelayStddevNS
	}
	log.WithFields(fields).Info("stats window")
}

// LogSample writes s as a single structured log line, used when windowing is
// disabled (window=0).
func LogSample(s *Sample) {
	fields := log.Fields{
		"offset_ns": s.OffsetNS,
		"freq_ppb":  s.FreqPPB,
	}
	if s.HasDelay {
		fields["delay_ns"] = s.DelayNS
	}
	log.WithFields(fields).Info("sample")
}
