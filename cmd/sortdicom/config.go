package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/sortdicom/pkg/core"
)

// DefaultConfigFile is read from the working directory when --config is not given.
const DefaultConfigFile = "sortdicom.yaml"

// fileConfig mirrors the sort flags. Unset fields keep the flag defaults.
type fileConfig struct {
	Out     string   `yaml:"out"`
	Split   *int     `yaml:"split"`
	Naming  string   `yaml:"naming"`
	Flat    *bool    `yaml:"flat"`
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`
}

// settings is the resolved configuration of one sort run.
type settings struct {
	out        string
	split      int
	splitSet   bool
	naming     string
	flat       bool
	include    []string
	exclude    []string
	configPath string
	jsonOutput bool
}

func defaultSettings() settings {
	return settings{
		out:    "sorted",
		naming: string(core.NamingPositional),
	}
}

// loadConfig reads a YAML config file. Unknown keys are rejected.
func loadConfig(path string) (fileConfig, error) {
	var cfg fileConfig

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// resolve layers flag defaults, the config file and explicitly set flags,
// in that order.
func (s settings) resolve(cmd *cobra.Command) (settings, error) {
	path := s.configPath
	explicit := cmd.Flags().Changed("config")
	if !explicit {
		if _, err := os.Stat(DefaultConfigFile); err != nil {
			return s, nil
		}
		path = DefaultConfigFile
	}

	cfg, err := loadConfig(path)
	if err != nil {
		return s, err
	}

	out := s
	changed := cmd.Flags().Changed
	if cfg.Out != "" && !changed("out") {
		out.out = cfg.Out
	}
	if cfg.Split != nil && !changed("split") {
		out.split = *cfg.Split
		out.splitSet = true
	}
	if cfg.Naming != "" && !changed("naming") {
		out.naming = cfg.Naming
	}
	if cfg.Flat != nil && !changed("flat") {
		out.flat = *cfg.Flat
	}
	if len(cfg.Include) > 0 && !changed("include") {
		out.include = cfg.Include
	}
	if len(cfg.Exclude) > 0 && !changed("exclude") {
		out.exclude = cfg.Exclude
	}
	return out, nil
}
