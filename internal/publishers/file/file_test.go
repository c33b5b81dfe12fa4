package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPublishWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "config.yaml")
	p := &Publisher{}
	require.NoError(t, p.Publish(context.Background(), "mixed-port: 7890\n", map[string]interface{}{"path": path}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "mixed-port: 7890\n", string(data))

	require.Error(t, p.Publish(context.Background(), "x", map[string]interface{}{}))
}
