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
	"time"

	"golang.org/x/sys/unix"

	"github.com/facebookincubator/ptp2sys/clock"
	"github.com/facebookincubator/ptp2sys/phc"
)

// clockHandle adapts clock.FrequencyPPB/AdjFreqPPB/Step's clockid-taking
// package functions to the sync.ClockAdjust interface a SyncSession wants.
type clockHandle struct {
	id int32
}

func (c clockHandle) FrequencyPPB() (float64, error) {
	freq, _, err := clock.FrequencyPPB(c.id)
	return freq, err
}

func (c clockHandle) AdjFreqPPB(ppb float64) error {
	_, err := clock.AdjFreqPPB(c.id, ppb)
	return err
}

func (c clockHandle) Step(deltaNS int64) error {
	_, err := clock.Step(c.id, time.Duration(deltaNS))
	return err
}

// resolveClock opens name ("realtime" or a /dev/ptpN path) and returns a
// clockHandle plus, for a PHC, the open *os.File the caller must keep alive
// for the lifetime of the clock ID (closing it invalidates the dynamic
// clock ID phc.Device.ClockID derives from the fd).
func resolveClock(name string) (clockHandle, *os.File, error) {
	if name == "" || name == "realtime" {
		return clockHandle{id: unix.CLOCK_REALTIME}, nil, nil
	}
	f, err := os.OpenFile(name, os.O_RDWR, 0)
	if err != nil {
		return clockHandle{}, nil, fmt.Errorf("opening clock device %q: %w", name, err)
	}
	dev := phc.FromFile(f)
	return clockHandle{id: dev.ClockID()}, f, nil
}

// phcClockFromIface resolves the PHC device backing iface's network card.
func phcClockFromIface(iface string) (clockHandle, *os.File, error) {
	dev, err := phc.IfaceToPHCDevice(iface)
	if err != nil {
		return clockHandle{}, nil, fmt.Errorf("resolving PHC for interface %q: %w", iface, err)
	}
	return resolveClock(dev)
}
