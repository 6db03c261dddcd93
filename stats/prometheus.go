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

package stats

import "github.com/prometheus/client_golang/prometheus"

// prometheusMetrics mirrors every field of Window as a gauge, so the same
// numbers logged via LogWindow are visible to a scrape.
type prometheusMetrics struct {
	offsetRMS   prometheus.Gauge
	offsetMax   prometheus.Gauge
	freqMean    prometheus.Gauge
	freqStddev  prometheus.Gauge
	delayMean   prometheus.Gauge
	delayStddev prometheus.Gauge
}

func newPrometheusMetrics(reg prometheus.Registerer) (*prometheusMetrics, error) {
	m := &prometheusMetrics{
		offsetRMS:   prometheus.NewGauge(prometheus.GaugeOpts{Name: "offset_rms_ns", Help: "RMS of slave offset over the last window, in nanoseconds"}),
		offsetMax:   prometheus.NewGauge(prometheus.GaugeOpts{Name: "offset_max_ns", Help: "max absolute slave offset over the last window, in nanoseconds"}),
		freqMean:    prometheus.NewGauge(prometheus.GaugeOpts{Name: "freq_mean_ppb", Help: "mean applied frequency adjustment over the last window, in ppb"}),
		freqStddev:  prometheus.NewGauge(prometheus.GaugeOpts{Name: "freq_stddev_ppb", Help: "stddev of applied frequency adjustment over the last window, in ppb"}),
		delayMean:   prometheus.NewGauge(prometheus.GaugeOpts{Name: "delay_mean_ns", Help: "mean measurement delay over the last window, in nanoseconds"}),
		delayStddev: prometheus.NewGauge(prometheus.GaugeOpts{Name: "delay_stddev_ns", Help: "stddev of measurement delay over the last window, in nanoseconds"}),
	}
	for _, c := range []prometheus.Collector{m.offsetRMS, m.offsetMax, m.freqMean, m.freqStddev, m.delayMean, m.delayStddev} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *prometheusMetrics) observe(w *Window) {
	m.offsetRMS.Set(w.OffsetRMSNS)
	m.offsetMax.Set(w.OffsetMaxNS)
	m.freqMean.Set(w.FreqMeanPPB)
	m.freqStddev.Set(w.FreqStddevPPB)
	if w.HasDelay {
		m.delayMean.Set(w.DelayMeanNS)
		m.delayStddev.Set(w.DelayStddevNS)
	}
}
