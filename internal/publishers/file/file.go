package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"subforge/internal/logger"
	"subforge/internal/publishers"
)

type Publisher struct{}

// Publish writes the document to 'path', replacing it atomically.
func (p *Publisher) Publish(_ context.Context, document string, config map[string]interface{}) error {
	path := publishers.Param(config, "path")
	if path == "" {
		return fmt.Errorf("file publisher requires path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(publishers.Payload(document, config)), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	logger.Log.Debugf("Wrote %d bytes to %s", len(document), path)
	return nil
}

func init() {
	publishers.Register("file", func() publishers.Publisher { return &Publisher{} })
}
