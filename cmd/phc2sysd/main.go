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

// Command phc2sysd disciplines a slave clock (a PHC or the system realtime
// clock) against a master time source, the way phc2sys(8) has for ptp4l
// deployments, but driven by this repository's sampler/servo/sync packages.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/syslog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	lsyslog "github.com/sirupsen/logrus/hooks/syslog"
	"golang.org/x/sys/unix"

	"github.com/facebookincubator/ptp2sys/clock"
	"github.com/facebookincubator/ptp2sys/leap"
	"github.com/facebookincubator/ptp2sys/mgmt"
	"github.com/facebookincubator/ptp2sys/phc"
	"github.com/facebookincubator/ptp2sys/sampler"
	"github.com/facebookincubator/ptp2sys/servo"
	"github.com/facebookincubator/ptp2sys/stats"
	syncpkg "github.com/facebookincubator/ptp2sys/sync"
)

func parseFlags() (*Config, error) {
	var (
		configFlag string
		cfg        = DefaultConfig()
	)
	flag.StringVar(&configFlag, "config", "", "path to a YAML config file, merged before flags are applied")
	flag.StringVar(&cfg.Slave, "slave", cfg.Slave, "slave clock: a /dev/ptpN path, or 'realtime'")
	flag.StringVar(&cfg.Master, "master", cfg.Master, "master clock: a /dev/ptpN path, or 'realtime'")
	flag.StringVar(&cfg.MasterPPS, "master-pps", cfg.MasterPPS, "PPS character device to use as the master source")
	flag.StringVar(&cfg.Iface, "interface", cfg.Iface, "network interface whose PHC is auto-discovered as the master")
	flag.Float64Var(&cfg.Kp, "kp", cfg.Kp, "servo proportional gain")
	flag.Float64Var(&cfg.Ki, "ki", cfg.Ki, "servo integral gain")
	flag.Float64Var(&cfg.StepSec, "step", cfg.StepSec, "step threshold in seconds; 0 disables stepping")
	flag.IntVar(&cfg.RateHz, "rate", cfg.RateHz, "sampling rate in Hz for PHC/SYS sources")
	flag.IntVar(&cfg.Readings, "readings", cfg.Readings, "number of cross-sampling trials per reading")
	flag.IntVar(&cfg.OffsetSec, "offset", cfg.OffsetSec, "forced UTC offset in seconds; disables management-derived updates")
	flag.IntVar(&cfg.StatsWindow, "stats-window", cfg.StatsWindow, "stats aggregation window in samples; 0 disables")
	flag.BoolVar(&cfg.WaitSync, "wait-sync", cfg.WaitSync, "use the management peer's UTC offset/leap data only once its port is MASTER or SLAVE; disciplining is not delayed, and there is no management channel with -offset")
	flag.BoolVar(&cfg.ServoLeap, "servo-leap", cfg.ServoLeap, "apply leap seconds through the servo instead of the kernel")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warning, error")
	flag.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "shorthand for -log-level debug")
	flag.BoolVar(&cfg.NoSyslog, "no-syslog", cfg.NoSyslog, "log to stderr only, without also sending to syslog")
	flag.IntVar(&cfg.MonitoringPort, "monitoringport", cfg.MonitoringPort, "port to serve Prometheus metrics on; 0 disables")
	flag.StringVar(&cfg.PIDFile, "pidfile", cfg.PIDFile, "path to write the running process's PID to")

	// a first pass just to discover -config before flag.Parse applies the
	// rest of the flags over it, matching sptp's "load file, then let CLI
	// flags win" merge order.
	for i, a := range os.Args[1:] {
		if a == "-config" || a == "--config" {
			if i+2 <= len(os.Args[1:]) {
				configFlag = os.Args[1:][i+1]
			}
		}
	}
	if configFlag != "" {
		fileCfg, err := ReadConfig(configFlag)
		if err != nil {
			return nil, fmt.Errorf("reading config from %q: %w", configFlag, err)
		}
		*cfg = *fileCfg
	}

	flag.Parse()
	if cfg.Verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "info":
		log.SetLevel(log.InfoLevel)
	case "warning":
		log.SetLevel(log.WarnLevel)
	case "error":
		log.SetLevel(log.ErrorLevel)
	default:
		log.Fatalf("unrecognized log level: %v", level)
	}
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0644)
}

func buildSampler(cfg *Config) (sampler.Sampler, syncpkg.SourceLabel, func(), error) {
	var closers []func()
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	if cfg.MasterPPS != "" {
		fetcher, f, err := newDevPPSFetcher(cfg.MasterPPS, 0)
		if err != nil {
			return nil, "", closeAll, err
		}
		closers = append(closers, func() { f.Close() })

		if cfg.Master == "" && cfg.Iface == "" {
			return sampler.NewPpsSampler(fetcher), syncpkg.SourcePPS, closeAll, nil
		}
		masterClk, masterF, slaveClk, slaveF, err := resolveMasterSlavePair(cfg)
		if err != nil {
			return nil, "", closeAll, err
		}
		if masterF != nil {
			closers = append(closers, func() { masterF.Close() })
		}
		if slaveF != nil {
			closers = append(closers, func() { slaveF.Close() })
		}
		cross := sampler.NewPhcCrossSampler(masterClk, slaveClk, cfg.Readings)
		return sampler.NewHybridPpsSampler(fetcher, cross), syncpkg.SourcePPS, closeAll, nil
	}

	masterClk, masterF, slaveClk, slaveF, err := resolveMasterSlavePair(cfg)
	if err != nil {
		return nil, "", closeAll, err
	}
	if masterF != nil {
		closers = append(closers, func() { masterF.Close() })
	}
	if slaveF != nil {
		closers = append(closers, func() { slaveF.Close() })
	}
	cross := sampler.NewPhcCrossSampler(masterClk, slaveClk, cfg.Readings)

	if cfg.Slave == "realtime" || cfg.Slave == "" {
		device, devErr := masterDevicePath(cfg)
		if devErr == nil && sysOffSupported(device) {
			probe := devSysOffProbe{device: device}
			return sampler.NewSysOffSampler(probe, true, cross), syncpkg.SourceSys, closeAll, nil
		}
	}
	return cross, syncpkg.SourcePHC, closeAll, nil
}

// masterTimeSource abstracts resolving either a PHC device path or the
// literal "realtime" clock into a sampler.Clock, for both the master and the
// slave sides of a cross-sample pair.
func masterTimeSource(name string) (sampler.Clock, *os.File, error) {
	if name == "" || name == "realtime" {
		return systemClock{}, nil, nil
	}
	f, err := os.OpenFile(name, os.O_RDWR, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("opening clock device %q: %w", name, err)
	}
	return phc.FromFile(f), f, nil
}

func resolveMasterSlavePair(cfg *Config) (sampler.Clock, *os.File, sampler.Clock, *os.File, error) {
	masterName := cfg.Master
	if masterName == "" && cfg.Iface != "" {
		dev, err := phc.IfaceToPHCDevice(cfg.Iface)
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("resolving PHC for interface %q: %w", cfg.Iface, err)
		}
		masterName = dev
	}
	masterClk, masterF, err := masterTimeSource(masterName)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	slaveClk, slaveF, err := masterTimeSource(cfg.Slave)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	return masterClk, masterF, slaveClk, slaveF, nil
}

func masterDevicePath(cfg *Config) (string, error) {
	if cfg.Master != "" {
		return cfg.Master, nil
	}
	if cfg.Iface != "" {
		return phc.IfaceToPHCDevice(cfg.Iface)
	}
	return "", fmt.Errorf("no master device configured")
}

func buildLeapCoordinator(cfg *Config) (*leap.Coordinator, func(), error) {
	coord := leap.NewCoordinator()
	coord.SlaveIsSystemRealtime = cfg.Slave == "realtime" || cfg.Slave == ""
	coord.KernelLeapEnabled = !cfg.ServoLeap
	coord.Direction = 1
	if coord.SlaveIsSystemRealtime && coord.KernelLeapEnabled {
		coord.SetKernelLeap = func(li clock.LeapIndicator) error {
			return clock.SetLeap(unix.CLOCK_REALTIME, li)
		}
	}

	if cfg.OffsetSec != 0 {
		coord.SyncOffsetSeconds = int32(cfg.OffsetSec)
		return coord, func() {}, nil
	}

	tr, err := dialManagementSocket(defaultManagementSocket)
	if err != nil {
		log.Warnf("management channel unavailable, leap/offset tracking disabled: %v", err)
		return coord, func() {}, nil
	}
	coord.Mgmt = mgmt.NewClient(tr, cfg.WaitSync, false)
	coord.MgmtTimeout = 200 * time.Millisecond
	return coord, func() { tr.Close() }, nil
}

func main() {
	cfg, err := parseFlags()
	if err != nil {
		log.Fatal(err)
	}
	setLogLevel(cfg.LogLevel)
	if !cfg.NoSyslog {
		hook, err := lsyslog.NewSyslogHook("", "", syslog.LOG_INFO, "phc2sysd")
		if err != nil {
			log.Warnf("syslog unavailable, logging to stderr only: %v", err)
		} else {
			log.AddHook(hook)
		}
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	if err := writePIDFile(cfg.PIDFile); err != nil {
		log.Fatalf("writing pidfile: %v", err)
	}
	if cfg.PIDFile != "" {
		defer os.Remove(cfg.PIDFile)
	}

	slaveClk, slaveF, err := resolveClock(cfg.Slave)
	if err != nil {
		log.Fatal(err)
	}
	if slaveF != nil {
		defer slaveF.Close()
	}

	samp, source, closeSampler, err := buildSampler(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer closeSampler()

	coord, closeLeap, err := buildLeapCoordinator(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer closeLeap()
	if pps, ok := samp.(*sampler.PpsSampler); ok && pps.IsPure() {
		coord.Direction = 0
	}

	var agg *stats.Aggregator
	if cfg.StatsWindow > 0 {
		agg = stats.NewAggregator(cfg.StatsWindow)
		if cfg.MonitoringPort != 0 {
			reg := prometheus.NewRegistry()
			if err := agg.EnablePrometheus(reg); err != nil {
				log.Warnf("failed to enable prometheus metrics: %v", err)
			}
			http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
			go func() {
				addr := fmt.Sprintf(":%d", cfg.MonitoringPort)
				if err := http.ListenAndServe(addr, nil); err != nil {
					log.Errorf("monitoring http server stopped: %v", err)
				}
			}()
		}
	}

	session := &syncpkg.SyncSession{
		Slave:       slaveClk,
		SourceLabel: source,
		Sampler:     samp,
		Leap:        coord,
		Stats:       agg,
		RateHz:      cfg.RateHz,
	}

	servoCfg := servo.DefaultServoConfig()
	if cfg.StepSec > 0 {
		servoCfg.StepThreshold = int64(cfg.StepSec * 1e9)
	}
	piCfg := servo.PI2Cfg{Kp: cfg.Kp, Ki: cfg.Ki, MaxFreqPPB: servo.DefaultPI2Cfg().MaxFreqPPB}
	if err := session.Bootstrap(servoCfg, piCfg); err != nil {
		log.Fatalf("bootstrap failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, unix.SIGINT, unix.SIGTERM)
	go func() {
		<-sig
		log.Info("received shutdown signal")
		cancel()
	}()

	loop := syncpkg.NewControlLoop(session)
	if err := loop.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("control loop exited: %v", err)
	}
	log.Info("phc2sysd exiting")
}
