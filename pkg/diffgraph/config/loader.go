package config

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/randalmurphal/diffgraph/pkg/diffgraph"
)

// Load reads a config file. The format follows the extension, as for graph
// documents (.yaml, .yml, .json).
func Load(path string) (Config, error) {
	format, err := diffgraph.FormatFromPath(path)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	c, err := Decode(data, format)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return c, nil
}

// Decode parses a config document. An empty YAML document is an empty Config.
func Decode(data []byte, f diffgraph.Format) (Config, error) {
	var m map[string]any
	switch f {
	case diffgraph.FormatYAML:
		if err := yaml.Unmarshal(data, &m); err != nil {
			return Config{}, fmt.Errorf("parse yaml: %w", err)
		}
	case diffgraph.FormatJSON:
		if err := json.Unmarshal(data, &m); err != nil {
			return Config{}, fmt.Errorf("parse json: %w", err)
		}
	default:
		return Config{}, fmt.Errorf("unknown format %d", int(f))
	}
	return New(m), nil
}
