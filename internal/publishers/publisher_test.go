package publishers

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPayload(t *testing.T) {
	require.Equal(t, "doc", Payload("doc", nil))
	require.Equal(t, "ZG9j", Payload("doc", map[string]interface{}{"base64": true}))
	require.Equal(t, "doc", Payload("doc", map[string]interface{}{"base64": "false"}))
}

func TestHTTPClient(t *testing.T) {
	c := HTTPClient(map[string]interface{}{"_timeout": 5, "_proxy_url": "http://127.0.0.1:3128"}, 0)
	require.Equal(t, "5s", c.Timeout.String())
	require.NotNil(t, c.Transport)
}
