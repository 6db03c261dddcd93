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
	"github.com/facebookincubator/ptp2sys/phc"
)

// devSysOffProbe wraps the PTP_SYS_OFFSET_EXTENDED ioctl for a specific PHC
// device path as a sampler.SysOffProbe.
type devSysOffProbe struct {
	device string
}

func (p devSysOffProbe) SysOffset() (offsetNS int64, sysTimestampNS uint64, delayNS int64, err error) {
	res, err := phc.TimeAndOffsetFromDevice(p.device, phc.MethodIoctlSysOffsetExtended)
	if err != nil {
		return 0, 0, 0, err
	}
	return int64(res.Offset), uint64(res.SysTime.UnixNano()), int64(res.Delay), nil
}

// sysOffSupported probes device once at startup to decide whether the
// SYS_OFFSET_EXTENDED ioctl is usable, matching SysOffSampler's contract.
func sysOffSupported(device string) bool {
	_, err := phc.TimeAndOffsetFromDevice(device, phc.MethodIoctlSysOffsetExtended)
	return err == nil
}
