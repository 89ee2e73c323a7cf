package domain

// EngineOptions is the payload of the engine's configure command.
type EngineOptions struct {
	DesiredAccuracy int      `json:"desiredAccuracy" yaml:"desiredAccuracy"`
	DistanceFilter  float64  `json:"distanceFilter" yaml:"distanceFilter"`
	StopTimeout     int      `json:"stopTimeout" yaml:"stopTimeout"`
	StopOnTerminate bool     `json:"stopOnTerminate" yaml:"stopOnTerminate"`
	StartOnBoot     bool     `json:"startOnBoot" yaml:"startOnBoot"`
	URL             string   `json:"url,omitempty" yaml:"url"`
	AutoSync        bool     `json:"autoSync" yaml:"autoSync"`
	Schedule        []string `json:"schedule" yaml:"schedule"`
	Debug           bool     `json:"debug" yaml:"debug"`
}

// EngineState is what the engine reports back from configure, start, and stop.
type EngineState struct {
	Enabled  bool     `json:"enabled"`
	Schedule []string `json:"schedule"`
	Odometer float64  `json:"odometer"`
}
