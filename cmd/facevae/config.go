package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors the training flags. Fields are pointers so the file
// can set any subset; a value present in the file overrides the flag.
type fileConfig struct {
	Data      *string  `yaml:"data"`
	Samples   *int     `yaml:"samples"`
	Epochs    *int     `yaml:"epochs"`
	Batch     *int     `yaml:"batch"`
	LR        *float64 `yaml:"lr"`
	Latent    *int     `yaml:"latent"`
	Out       *string  `yaml:"out"`
	Seed      *int64   `yaml:"seed"`
	Optimizer *string  `yaml:"optimizer"`
	Count     *int     `yaml:"count"`
	Rows      *int     `yaml:"rows"`
	Cols      *int     `yaml:"cols"`
	Upscale   *int     `yaml:"upscale"`
}

// loadConfig reads the YAML file at path. An empty path yields an empty
// config.
func loadConfig(path string) (*fileConfig, error) {
	cfg := &fileConfig{}
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

func applyString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func applyInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func applyInt64(dst *int64, v *int64) {
	if v != nil {
		*dst = *v
	}
}

func applyFloat64(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}
