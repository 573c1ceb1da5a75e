package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Heuristic fallbacks (windowed subset search, per-face attribute runs)
// are off by default: the strict path never guesses at geometry.
var heuristicsEnabled bool

func SetHeuristics(enabled bool) {
	heuristicsEnabled = enabled
}

func HeuristicsEnabled() bool {
	return heuristicsEnabled
}

type Settings struct {
	Addr       string `yaml:"addr"`
	Dir        string `yaml:"dir"`
	Encoding   string `yaml:"encoding"`
	Heuristics bool   `yaml:"heuristics"`
}

func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to read settings %q", path)
	}
	s := &Settings{}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, errors.Wrapf(err, "Failed to parse settings %q", path)
	}
	return s, nil
}

// Apply pushes file-level settings into the process-wide switches.
func (s *Settings) Apply() error {
	SetHeuristics(s.Heuristics)
	if s.Encoding != "" {
		if err := SetEncoding(s.Encoding); err != nil {
			return err
		}
	}
	return nil
}
