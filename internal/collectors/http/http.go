package http

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/proxy"

	"subforge/internal/collectors"
	"subforge/internal/logger"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultUserAgent = "clash.meta"
	maxBodySize      = 32 << 20
)

type URLCollector struct{}

// Collect downloads one subscription URL and returns its body untouched.
func (c *URLCollector) Collect(ctx context.Context, config map[string]interface{}) ([]string, error) {
	targetURL := collectors.Param(config, "url")
	if targetURL == "" {
		return nil, fmt.Errorf("missing 'url' in collector config")
	}

	timeout := defaultTimeout
	if secs := collectors.IntParam(config, "_timeout", 0); secs > 0 {
		timeout = time.Duration(secs) * time.Second
	}
	client := &http.Client{Timeout: timeout}

	if proxyStr := collectors.Param(config, "_proxy_url"); proxyStr != "" {
		transport, err := proxyTransport(proxyStr)
		if err != nil {
			return nil, err
		}
		client.Transport = transport
		logger.Log.Debugf("HTTP Collector using proxy: %s", proxyStr)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}
	ua := collectors.Param(config, "user_agent")
	if ua == "" {
		ua = defaultUserAgent
	}
	req.Header.Set("User-Agent", ua)

	logger.Log.Debugf("Fetching URL: %s", targetURL)
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch url: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("non-200 status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	return []string{string(body)}, nil
}

// proxyTransport routes requests through an http(s) or socks5 proxy URL.
func proxyTransport(raw string) (*http.Transport, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy url: %w", err)
	}
	switch u.Scheme {
	case "http", "https":
		return &http.Transport{Proxy: http.ProxyURL(u)}, nil
	}

	dialer, err := proxy.FromURL(u, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("unsupported proxy url: %w", err)
	}
	transport := &http.Transport{}
	if cd, ok := dialer.(proxy.ContextDialer); ok {
		transport.DialContext = cd.DialContext
	} else {
		transport.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
			return dialer.Dial(network, addr)
		}
	}
	return transport, nil
}

func init() {
	collectors.Register("http", func() collectors.Collector {
		return &URLCollector{}
	})
}
