package link

import (
	"fmt"

	"subforge/internal/protocol"
	"subforge/internal/schema"
)

func decodeTrojan(uri string) (*protocol.Canonical, error) {
	c, p, err := passwordLink(uri, "TROJAN")
	if err != nil {
		return nil, err
	}
	applyTransport(c.Fields, p.params)
	tlsParams(c.Fields, p.params, p.host)
	return c, nil
}

func decodeAnyTLS(uri string) (*protocol.Canonical, error) {
	c, p, err := passwordLink(uri, "ANYTLS")
	if err != nil {
		return nil, err
	}
	tlsParams(c.Fields, p.params, p.host)
	for key, field := range map[string]string{
		"idleSessionCheckInterval": "idle-session-check-interval",
		"idleSessionTimeout":       "idle-session-timeout",
		"minIdleSession":           "min-idle-session",
	} {
		if n, ok := schema.Int(p.params.get(key)); ok {
			c.Fields[field] = n
		}
	}
	return c, nil
}

// passwordLink decodes password@host:port?query#name.
func passwordLink(uri, proto string) (*protocol.Canonical, *parts, error) {
	p, err := splitLink(uri, true)
	if err != nil {
		return nil, nil, err
	}
	password := unescape(p.user)
	if password == "" {
		return nil, nil, fmt.Errorf("missing password")
	}
	port, err := portNumber(p.port, 443)
	if err != nil {
		return nil, nil, err
	}
	c := canonical(proto, p.name, p.host, port)
	c.Fields["password"] = password
	return c, p, nil
}

// tlsParams maps the TLS query parameters of always-TLS protocols. The SNI
// defaults to the server host when it is a name.
func tlsParams(f schema.Fields, q params, host string) {
	if v := q.get("sni", "peer"); v != "" {
		f["sni"] = v
	} else if host != "" && !isIP(host) {
		f["sni"] = host
	}
	if alpn := q.list("alpn"); len(alpn) > 0 {
		f["alpn"] = alpn
	}
	if v := q.get("fp"); v != "" {
		f["client-fingerprint"] = v
	}
	if v := q.get("fingerprint", "pinSHA256"); v != "" {
		f["fingerprint"] = v
	}
	if v, ok := q.flag("allowInsecure", "insecure", "allow_insecure", "skip-cert-verify"); ok {
		f["skip-cert-verify"] = v
	}
}
