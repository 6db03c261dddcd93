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

package cmd

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"github.com/facebookincubator/ptp2sys/clock"
)

var leapClear bool

func init() {
	RootCmd.AddCommand(leapCmd)
	leapCmd.Flags().BoolVar(&leapClear, "clear", false, "clear the kernel leap second flag")
}

func leapName(li clock.LeapIndicator) string {
	switch li {
	case clock.LeapInsert:
		return "insert pending"
	case clock.LeapDelete:
		return "delete pending"
	default:
		return "none"
	}
}

func runLeap(clear bool) error {
	if clear {
		if err := clock.SetLeap(unix.CLOCK_REALTIME, clock.LeapNone); err != nil {
			return fmt.Errorf("clearing kernel leap flag: %w", err)
		}
	}
	li, err := clock.Leap(unix.CLOCK_REALTIME)
	if err != nil {
		return fmt.Errorf("reading kernel leap flag: %w", err)
	}
	fmt.Printf("kernel leap flag: %s\n", leapName(li))
	return nil
}

var leapCmd = &cobra.Command{
	Use:   "leap",
	Short: "Print (or clear) the system clock's kernel leap second flag",
	Run: func(_ *cobra.Command, _ []string) {
		ConfigureVerbosity()
		if err := runLeap(leapClear); err != nil {
			log.Fatal(err)
		}
	},
}
