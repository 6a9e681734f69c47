package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// job is what a --config file may preset. Flags given on the command line
// win over the file.
type job struct {
	Input    string `yaml:"input"`
	Entry    string `yaml:"entry"`
	Low      *int   `yaml:"low"`
	High     *int   `yaml:"high"`
	Parallel *bool  `yaml:"parallel"`
	LogLevel string `yaml:"log_level"`
}

func loadJob(path string) (*job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read job file: %w", err)
	}
	var j job
	if err := yaml.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("unable to parse job file %s: %w", path, err)
	}
	return &j, nil
}

func (j *job) apply(opts *options, flags *pflag.FlagSet) {
	if j.Input != "" && !flags.Changed("input") {
		opts.Input = j.Input
	}
	if j.Entry != "" && !flags.Changed("entry") {
		opts.Entry = j.Entry
	}
	if j.Low != nil && !flags.Changed("low") {
		opts.Low = *j.Low
	}
	if j.High != nil && !flags.Changed("high") {
		opts.High = *j.High
	}
	if j.Parallel != nil && !flags.Changed("parallel") {
		opts.Parallel = *j.Parallel
	}
	if j.LogLevel != "" && !flags.Changed("log-level") {
		opts.LogLevel = j.LogLevel
	}
}
