package collectors

import (
	"context"
	"fmt"
	"sort"

	"subforge/internal/schema"
)

// Collector fetches raw text chunks (subscription bodies, documents or link
// lists) for the importer.
type Collector interface {
	Collect(ctx context.Context, config map[string]interface{}) ([]string, error)
}

type Factory func() Collector

var registry = make(map[string]Factory)

func Register(name string, factory Factory) {
	registry[name] = factory
}

func Get(name string) (Collector, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("collector plugin '%s' not found", name)
	}
	return factory(), nil
}

// Names lists registered collector types.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Param reads a string parameter. Values from YAML and --param overrides
// arrive with different types.
func Param(config map[string]interface{}, key string) string {
	return schema.String(config[key])
}

// IntParam reads an integer parameter, falling back to def.
func IntParam(config map[string]interface{}, key string, def int) int {
	if n, ok := schema.Int(config[key]); ok {
		return n
	}
	return def
}
