package main

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed cases.yaml
var defaultCases []byte

type benchmarkTestConfig struct {
	Name           string  `yaml:"name"`           // friendly name for the test, should be unique
	Width          int     `yaml:"width"`          // width of dependency graph to construct
	TotalLayers    int     `yaml:"totalLayers"`    // depth of dependency graph to construct
	StaticFraction float64 `yaml:"staticFraction"` // fraction of nodes that are static
	NSources       int     `yaml:"nSources"`       // construct a graph with number of sources in each node
	ReadFraction   float64 `yaml:"readFraction"`   // fraction of [0, 1] elements in the last layer from which to read values in each test iteration
	Iterations     int     `yaml:"iterations"`     // number of test iterations
}

func (cfg *benchmarkTestConfig) validate() error {
	switch {
	case cfg.Name == "":
		return fmt.Errorf("case without a name")
	case cfg.Width < 1, cfg.TotalLayers < 2, cfg.NSources < 1, cfg.Iterations < 1:
		return fmt.Errorf("case %q: width, nSources and iterations must be positive and totalLayers at least 2", cfg.Name)
	case cfg.StaticFraction < 0 || cfg.StaticFraction > 1:
		return fmt.Errorf("case %q: staticFraction must be in [0, 1]", cfg.Name)
	case cfg.ReadFraction < 0 || cfg.ReadFraction > 1:
		return fmt.Errorf("case %q: readFraction must be in [0, 1]", cfg.Name)
	}
	return nil
}

// loadCases reads benchmark cases from path, or the embedded defaults when
// path is empty.
func loadCases(path string) ([]benchmarkTestConfig, error) {
	data := defaultCases
	if path != "" {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, fmt.Errorf("error while reading cases: %w", err)
		}
	}

	var cases []benchmarkTestConfig
	if err := yaml.Unmarshal(data, &cases); err != nil {
		return nil, fmt.Errorf("error while parsing cases: %w", err)
	}
	for i := range cases {
		if err := cases[i].validate(); err != nil {
			return nil, err
		}
	}
	return cases, nil
}
