package publishers

import (
	"encoding/base64"
	"net/http"
	"net/url"
	"time"

	"subforge/internal/logger"
	"subforge/internal/schema"
)

// Payload applies the shared output options to a document. With base64 set
// the document is served encoded, as some clients expect of subscriptions.
func Payload(document string, config map[string]interface{}) string {
	if schema.Truthy(config["base64"]) {
		return base64.StdEncoding.EncodeToString([]byte(document))
	}
	return document
}

// Param reads a string parameter.
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

// HTTPClient builds a client honouring the injected _timeout (seconds) and
// _proxy_url parameters.
func HTTPClient(config map[string]interface{}, def time.Duration) *http.Client {
	timeout := def
	if secs := IntParam(config, "_timeout", 0); secs > 0 {
		timeout = time.Duration(secs) * time.Second
	}
	client := &http.Client{Timeout: timeout}

	if proxyStr := Param(config, "_proxy_url"); proxyStr != "" {
		if u, err := url.Parse(proxyStr); err == nil {
			client.Transport = &http.Transport{Proxy: http.ProxyURL(u)}
			logger.Log.Debugf("Publisher using proxy: %s", proxyStr)
		}
	}
	return client
}
