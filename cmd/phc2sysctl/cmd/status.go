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
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/facebookincubator/ptp2sys/phc"
	"github.com/facebookincubator/ptp2sys/sampler"
)

var (
	statusMaster string
	statusSlave  string
	statusN      int
)

func init() {
	RootCmd.AddCommand(statusCmd)
	statusCmd.Flags().StringVarP(&statusMaster, "master", "m", "/dev/ptp0", "master clock: a /dev/ptpN path, or 'realtime'")
	statusCmd.Flags().StringVarP(&statusSlave, "slave", "s", "realtime", "slave clock: a /dev/ptpN path, or 'realtime'")
	statusCmd.Flags().IntVarP(&statusN, "readings", "n", 5, "number of cross-sampling trials")
}

func clockFromName(name string) (sampler.Clock, func(), error) {
	if name == "" || name == "realtime" {
		return systemClock{}, func() {}, nil
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, func() {}, fmt.Errorf("opening %q: %w", name, err)
	}
	return phc.FromFile(f), func() { f.Close() }, nil
}

type systemClock struct{}

func (systemClock) Time() (time.Time, error) { return time.Now(), nil }

func runStatus(master, slave string, n int) error {
	masterClk, closeMaster, err := clockFromName(master)
	if err != nil {
		return err
	}
	defer closeMaster()
	slaveClk, closeSlave, err := clockFromName(slave)
	if err != nil {
		return err
	}
	defer closeSlave()

	samp := sampler.NewPhcCrossSampler(masterClk, slaveClk, n)
	tup, err := samp.Sample()
	if err != nil {
		return fmt.Errorf("sampling %s against %s: %w", slave, master, err)
	}

	offset := time.Duration(tup.OffsetNS)
	delay := time.Duration(tup.DelayNS)

	offsetStr := color.GreenString("%v", offset)
	if abs(offset) > 100*time.Microsecond {
		offsetStr = color.YellowString("%v", offset)
	}
	if abs(offset) > time.Millisecond {
		offsetStr = color.RedString("%v", offset)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"master", "slave", "offset", "delay"})
	table.Append([]string{master, slave, offsetStr, delay.String()})
	table.Render()
	return nil
}

func abs(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Take one cross-sampled reading between a master and a slave clock",
	Run: func(_ *cobra.Command, _ []string) {
		ConfigureVerbosity()
		if err := runStatus(statusMaster, statusSlave, statusN); err != nil {
			log.Fatal(err)
		}
	},
}
