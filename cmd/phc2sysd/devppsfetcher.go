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

package main

import (
	"fmt"
	"os"

	"github.com/facebookincubator/ptp2sys/phc"
)

// devPPSFetcher implements sampler.PPSFetcher over a PPS character device's
// external timestamp channel.
type devPPSFetcher struct {
	dev      *phc.Device
	pinIndex uint
	armed    bool
}

// newDevPPSFetcher opens the PPS character device at path. The returned
// *os.File must be kept open for the fetcher's lifetime.
func newDevPPSFetcher(path string, pinIndex uint) (*devPPSFetcher, *os.File, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("opening PPS device %q: %w", path, err)
	}
	dev := phc.FromFile(f)
	return &devPPSFetcher{dev: dev, pinIndex: pinIndex}, f, nil
}

func (d *devPPSFetcher) FetchPPS() (uint64, error) {
	if !d.armed {
		if err := d.dev.RequestExtTTS(d.pinIndex); err != nil {
			return 0, fmt.Errorf("arming PPS channel %d: %w", d.pinIndex, err)
		}
		d.armed = true
	}
	event, err := d.dev.ReadExtTTSEvent()
	if err != nil {
		return 0, err
	}
	return uint64(event.T.Sec)*1_000_000_000 + uint64(event.T.NSec), nil
}
