package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"subforge/internal/collectors"
)

func TestCollectGlob(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("trojan://x@h:443"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("proxies: []"), 0o644))

	c, err := collectors.Get("file")
	require.NoError(t, err)

	chunks, err := c.Collect(context.Background(), map[string]interface{}{"path": filepath.Join(dir, "*.txt")})
	require.NoError(t, err)
	require.Equal(t, []string{"trojan://x@h:443", "proxies: []"}, chunks)
}

func TestCollectErrors(t *testing.T) {
	c := &FileCollector{}
	_, err := c.Collect(context.Background(), map[string]interface{}{})
	require.Error(t, err)

	_, err = c.Collect(context.Background(), map[string]interface{}{"path": filepath.Join(t.TempDir(), "none-*")})
	require.Error(t, err)
}
