package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/nandanugg/geofence-map/module/core/domain"
)

// DefaultEngineOptions mirrors config/engine.yaml and is used when that file is absent.
func DefaultEngineOptions() domain.EngineOptions {
	return domain.EngineOptions{
		DesiredAccuracy: 0,
		DistanceFilter:  10,
		StopTimeout:     1,
		StopOnTerminate: false,
		StartOnBoot:     true,
		AutoSync:        true,
		Debug:           true,
	}
}

// LoadEngineOptions reads the engine configure payload. Keys missing from the file
// keep their defaults.
func LoadEngineOptions(path string) (domain.EngineOptions, error) {
	opts := DefaultEngineOptions()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return opts, nil
	}
	if err != nil {
		return opts, fmt.Errorf("read engine config: %w", err)
	}

	if err := yaml.Unmarshal(data, &opts); err != nil {
		return opts, fmt.Errorf("parse engine config %s: %w", path, err)
	}
	return opts, nil
}
