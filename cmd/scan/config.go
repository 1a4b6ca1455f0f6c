package main

import (
	"os"

	"gopkg.in/yaml.v3"
)

type config struct {
	TempoMultiplier float64 `yaml:"tempo_multiplier"`
	Parallel        int     `yaml:"parallel"`
}

func defaultConfig() *config {
	return &config{
		TempoMultiplier: 1,
		Parallel:        maxGoroutines,
	}
}

func loadConfig(filename string) (*config, error) {
	c := defaultConfig()
	if filename == "" {
		return c, nil
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	if err = yaml.Unmarshal(data, c); err != nil {
		return nil, err
	}
	return c, nil
}
