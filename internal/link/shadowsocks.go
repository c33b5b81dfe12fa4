package link

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"subforge/internal/protocol"
)

// decodeShadowsocks accepts SIP002 (ss://base64(method:pass)@host:port),
// the plain method:pass@host:port spelling and the legacy fully encoded
// ss://base64(method:pass@host:port).
func decodeShadowsocks(uri string) (*protocol.Canonical, error) {
	_, rest, _ := strings.Cut(uri, "://")
	if body, frag, found := strings.Cut(rest, "#"); found && !strings.Contains(body, "@") {
		decoded, err := DecodeBase64(strings.TrimSuffix(body, "/"))
		if err != nil {
			return nil, fmt.Errorf("ss base64 error: %w", err)
		}
		uri = "ss://" + decoded + "#" + frag
	} else if !strings.Contains(rest, "@") {
		decoded, err := DecodeBase64(strings.TrimSuffix(rest, "/"))
		if err != nil {
			return nil, fmt.Errorf("ss base64 error: %w", err)
		}
		uri = "ss://" + decoded
	}

	// the password may itself contain '@', so split at the last one
	_, rest, _ = strings.Cut(uri, "://")
	name := ""
	if body, frag, found := strings.Cut(rest, "#"); found {
		rest, name = body, unescape(frag)
	}
	at := strings.LastIndex(rest, "@")
	if at < 0 {
		return nil, fmt.Errorf("missing '@'")
	}
	userInfo, hostPart := rest[:at], rest[at+1:]
	hostPort, query, _ := strings.Cut(hostPart, "?")
	host, portStr, err := splitHostPort(strings.TrimSuffix(hostPort, "/"))
	if err != nil {
		return nil, err
	}
	port, err := portNumber(portStr, 0)
	if err != nil {
		return nil, err
	}

	userInfo = unescape(userInfo)
	if !strings.Contains(userInfo, ":") {
		decoded, err := DecodeBase64(userInfo)
		if err != nil {
			return nil, fmt.Errorf("ss userinfo: %w", err)
		}
		userInfo = decoded
	}
	method, password, ok := strings.Cut(userInfo, ":")
	if !ok || method == "" {
		return nil, fmt.Errorf("invalid shadowsocks userinfo")
	}

	c := canonical("SS", name, host, port)
	c.Fields["cipher"] = strings.ToLower(method)
	c.Fields["password"] = password

	q := parseParams(query)
	if plugin := q.get("plugin"); plugin != "" {
		applyPlugin(c.Fields, plugin)
	}
	if v, ok := q.flag("uot", "udp-over-tcp"); ok {
		c.Fields["udp-over-tcp"] = v
	}
	return c, nil
}

// applyPlugin parses a SIP003 plugin string such as
// "obfs-local;obfs=http;obfs-host=example.com".
func applyPlugin(f map[string]any, plugin string) {
	items := strings.Split(plugin, ";")
	name := strings.TrimSpace(items[0])
	switch name {
	case "obfs-local", "simple-obfs":
		name = "obfs"
	case "":
		return
	}

	opts := make(map[string]any)
	for _, item := range items[1:] {
		k, v, hasValue := strings.Cut(strings.TrimSpace(item), "=")
		if k == "" {
			continue
		}
		switch {
		case name == "obfs" && k == "obfs":
			opts["mode"] = v
		case name == "obfs" && (k == "obfs-host" || k == "host"):
			opts["host"] = v
		case k == "tls" || k == "mux" || k == "skip-cert-verify" || k == "v2ray-http-upgrade":
			opts[k] = !hasValue || v == "true" || v == "1"
		case k == "version":
			if n, err := strconv.Atoi(v); err == nil {
				opts[k] = n
			}
		case k == "fp" || k == "client-fingerprint":
			f["client-fingerprint"] = v
		default:
			opts[k] = v
		}
	}
	f["plugin"] = name
	if len(opts) > 0 {
		f["plugin-opts"] = opts
	}
}

// decodeShadowsocksR parses
// ssr://base64(host:port:protocol:method:obfs:base64(pass)/?obfsparam=..&protoparam=..&remarks=..)
func decodeShadowsocksR(uri string) (*protocol.Canonical, error) {
	_, body, _ := strings.Cut(uri, "://")
	decoded, err := DecodeBase64(body)
	if err != nil {
		return nil, fmt.Errorf("ssr base64 error: %w", err)
	}
	main, query, _ := strings.Cut(decoded, "/?")
	main = strings.TrimSuffix(main, "/")

	segments := strings.Split(main, ":")
	if len(segments) < 6 {
		return nil, fmt.Errorf("invalid ssr format")
	}
	n := len(segments)
	host := strings.Join(segments[:n-5], ":")
	port, err := portNumber(segments[n-5], 0)
	if err != nil {
		return nil, err
	}
	password, err := DecodeBase64(segments[n-1])
	if err != nil {
		return nil, fmt.Errorf("ssr password: %w", err)
	}

	q := parseParams(query)
	b64 := func(key string) string {
		v, err := DecodeBase64(q.get(key))
		if err != nil {
			return ""
		}
		return v
	}

	c := canonical("SSR", b64("remarks"), host, port)
	c.Fields["protocol"] = segments[n-4]
	c.Fields["cipher"] = segments[n-3]
	c.Fields["obfs"] = segments[n-2]
	c.Fields["password"] = password
	if v := b64("obfsparam"); v != "" {
		c.Fields["obfs-param"] = v
	}
	if v := b64("protoparam"); v != "" {
		c.Fields["protocol-param"] = v
	}
	return c, nil
}

func isIP(host string) bool {
	return net.ParseIP(host) != nil
}
