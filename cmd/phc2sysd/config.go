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

	"gopkg.in/yaml.v2"
)

// Config is the full set of knobs the daemon accepts, mergeable from a YAML
// file (-config) with CLI flags taking precedence over whatever the file set.
type Config struct {
	Slave       string  `yaml:"slave"`
	Master      string  `yaml:"master"`
	MasterPPS   string  `yaml:"master_pps"`
	Iface       string  `yaml:"interface"`
	Kp          float64 `yaml:"kp"`
	Ki          float64 `yaml:"ki"`
	StepSec     float64 `yaml:"step"`
	RateHz      int     `yaml:"rate"`
	Readings    int     `yaml:"readings"`
	OffsetSec   int     `yaml:"offset"`
	StatsWindow int     `yaml:"stats_window"`
	WaitSync    bool    `yaml:"wait_sync"`
	ServoLeap   bool    `yaml:"servo_leap"`
	LogLevel    string  `yaml:"log_level"`
	Verbose     bool    `yaml:"verbose"`
	NoSyslog    bool    `yaml:"no_syslog"`

	MonitoringPort int    `yaml:"monitoring_port"`
	PIDFile        string `yaml:"pidfile"`
}

// DefaultConfig matches phc2sys's long-standing defaults.
func DefaultConfig() *Config {
	return &Config{
		Slave:    "realtime",
		Kp:       0.7,
		Ki:       0.3,
		RateHz:   1,
		Readings: 5,
		LogLevel: "info",
	}
}

// ReadConfig loads a YAML config file into a fresh DefaultConfig.
func ReadConfig(path string) (*Config, error) {
	c := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the configuration validity rules the control loop
// depends on holding before it starts.
func (c *Config) Validate() error {
	if c.Master == "" && c.MasterPPS == "" && c.Iface == "" {
		return fmt.Errorf("at least one of master, master-pps or interface must be given")
	}
	if c.MasterPPS != "" && c.Slave != "realtime" {
		return fmt.Errorf("master-pps requires the slave to be the system realtime clock")
	}
	if c.Readings < 1 {
		return fmt.Errorf("readings must be >= 1, got %d", c.Readings)
	}
	if c.RateHz < 1 {
		return fmt.Errorf("rate must be >= 1, got %d", c.RateHz)
	}
	return nil
}
