package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"subforge/internal/collectors"
	"subforge/internal/logger"
)

type FileCollector struct{}

// Collect reads every file matched by the 'path' glob.
func (c *FileCollector) Collect(_ context.Context, config map[string]interface{}) ([]string, error) {
	pattern := collectors.Param(config, "path")
	if pattern == "" {
		return nil, fmt.Errorf("missing 'path' in collector config")
	}
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid path pattern: %w", err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no files match %s", pattern)
	}

	var out []string
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		logger.Log.Debugf("Read %d bytes from %s", len(data), path)
		out = append(out, string(data))
	}
	return out, nil
}

func init() {
	collectors.Register("file", func() collectors.Collector {
		return &FileCollector{}
	})
}
