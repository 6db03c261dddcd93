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

import "errors"

// Sentinel error kinds, matched with errors.Is. Bootstrap wraps
// ErrConfigurationInvalid; Tick returns ErrSampleTransient, ErrLeapAmbiguous
// and ErrAdjustmentFailed, and ControlLoop.Run keeps ticking after any of
// them. Nothing in this package returns ErrMgmtTimeout or ErrMgmtProtocol.
var (
	// ErrConfigurationInvalid means a flag combination or device could not
	// be resolved at startup; the process should abort.
	ErrConfigurationInvalid = errors.New("configuration invalid")
	// ErrSampleTransient means a single clock read or PPS fetch failed;
	// log and retry next iteration, never feed the servo.
	ErrSampleTransient = errors.New("transient sampling failure")
	// ErrMgmtTimeout means a management round did not complete in time;
	// non-fatal, marks the round incomplete.
	ErrMgmtTimeout = errors.New("management round timed out")
	// ErrMgmtProtocol means a malformed management response was received;
	// the message is dropped and the cursor stays put.
	ErrMgmtProtocol = errors.New("malformed management response")
	// ErrLeapAmbiguous means the sample fell in the ambiguous UTC second;
	// it is skipped.
	ErrLeapAmbiguous = errors.New("sample discarded: ambiguous leap second")
	// ErrAdjustmentFailed means the kernel refused a frequency/step/leap
	// call; log and continue, the loop will attempt again next tick.
	ErrAdjustmentFailed = errors.New("clock adjustment rejected by kernel")
)
