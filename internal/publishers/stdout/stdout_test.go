package stdout

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPublish(t *testing.T) {
	var buf bytes.Buffer
	p := &Publisher{out: &buf}
	require.NoError(t, p.Publish(context.Background(), "proxies:", nil))
	require.Equal(t, "proxies:\n", buf.String())
}
