package config

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Config is a tree of settings decoded from a YAML or JSON document.
// Values are addressed by dotted path, e.g. "telemetry.metrics".
//
// A Config is immutable; With returns a modified copy.
type Config struct {
	root map[string]any
}

// New creates a Config over data. A nil map yields an empty Config.
func New(data map[string]any) Config {
	if data == nil {
		data = map[string]any{}
	}
	return Config{root: data}
}

func (c Config) lookup(path string) (any, bool) {
	node := any(c.root)
	for _, part := range strings.Split(path, ".") {
		m, ok := node.(map[string]any)
		if !ok {
			return nil, false
		}
		if node, ok = m[part]; !ok {
			return nil, false
		}
	}
	return node, true
}

// Has reports whether a value is set at path.
func (c Config) Has(path string) bool {
	_, ok := c.lookup(path)
	return ok
}

// String returns the string at path, or def when unset.
// A value of another type is an error.
func (c Config) String(path, def string) (string, error) {
	v, ok := c.lookup(path)
	if !ok {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return def, fmt.Errorf("%s: want string, got %T", path, v)
	}
	return s, nil
}

// Bool returns the boolean at path, or def when unset.
// A value of another type is an error.
func (c Config) Bool(path string, def bool) (bool, error) {
	v, ok := c.lookup(path)
	if !ok {
		return def, nil
	}
	b, ok := v.(bool)
	if !ok {
		return def, fmt.Errorf("%s: want bool, got %T", path, v)
	}
	return b, nil
}

// With returns a copy of c with value set at path. Intermediate maps are
// created as needed; maps along the path are copied, never mutated.
func (c Config) With(path string, value any) Config {
	return Config{root: with(c.root, strings.Split(path, "."), value)}
}

func with(m map[string]any, parts []string, value any) map[string]any {
	out := maps.Clone(m)
	if out == nil {
		out = map[string]any{}
	}
	if len(parts) == 1 {
		out[parts[0]] = value
		return out
	}
	child, _ := out[parts[0]].(map[string]any)
	out[parts[0]] = with(child, parts[1:], value)
	return out
}

// Paths returns the dotted path of every leaf value, sorted.
func (c Config) Paths() []string {
	var out []string
	var walk func(prefix string, m map[string]any)
	walk = func(prefix string, m map[string]any) {
		for k, v := range m {
			p := k
			if prefix != "" {
				p = prefix + "." + k
			}
			if child, ok := v.(map[string]any); ok {
				walk(p, child)
				continue
			}
			out = append(out, p)
		}
	}
	walk("", c.root)
	slices.Sort(out)
	return out
}
