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

package clock

import (
	"golang.org/x/sys/unix"
)

// LeapIndicator tells the kernel whether to insert or delete a leap second
// at the end of the current UTC day.
type LeapIndicator int

// possible values of LeapIndicator
const (
	LeapNone   LeapIndicator = 0
	LeapInsert LeapIndicator = 1
	LeapDelete LeapIndicator = -1
)

// SetLeap sets or clears the kernel leap second flag (STA_INS/STA_DEL) on the
// given clock. Passing LeapNone clears both flags.
func SetLeap(clockid int32, li LeapIndicator) error {
	tx := &unix.Timex{}
	tx.Modes = AdjStatus
	switch li {
	case LeapInsert:
		tx.Status = unix.STA_INS
	case LeapDelete:
		tx.Status = unix.STA_DEL
	case LeapNone:
		tx.Status = 0
	}
	_, err := Adjtime(clockid, tx)
	return err
}

// Leap reads back the kernel leap second flag currently set on the clock.
func Leap(clockid int32) (LeapIndicator, error) {
	tx := &unix.Timex{}
	_, err := Adjtime(clockid, tx)
	if err != nil {
		return LeapNone, err
	}
	switch {
	case tx.Status&unix.STA_INS != 0:
		return LeapInsert, nil
	case tx.Status&unix.STA_DEL != 0:
		return LeapDelete, nil
	default:
		return LeapNone, nil
	}
}

// TAIOffset reads the current TAI-UTC offset from the clock.
func TAIOffset(clockid int32) (int, error) {
	tx := &unix.Timex{}
	_, err := Adjtime(clockid, tx)
	return int(tx.Tai), err
}

// SetTAIOffset sets the TAI-UTC offset on the clock.
func SetTAIOffset(clockid int32, offset int) error {
	tx := &unix.Timex{}
	tx.Modes = AdjTAI
	tx.Constant = int64(offset)
	_, err := Adjtime(clockid, tx)
	return err
}
