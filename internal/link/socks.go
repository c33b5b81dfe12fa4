package link

import (
	"fmt"
	"net/url"
	"strings"

	"subforge/internal/protocol"
)

// decodeSocks handles socks:// and socks5:// links. Some clients put a
// base64 "user:pass" in the user info; both spellings are accepted.
func decodeSocks(uri string) (*protocol.Canonical, error) {
	return decodeStandard(uri, "SOCKS5", 1080)
}

// decodeHTTP handles http:// and https://; the scheme decides tls.
func decodeHTTP(uri string) (*protocol.Canonical, error) {
	c, err := decodeStandard(uri, "HTTP", 0)
	if err != nil {
		return nil, err
	}
	if strings.HasPrefix(strings.ToLower(uri), "https://") {
		c.Fields["tls"] = true
	} else if _, set := c.Fields["tls"]; !set {
		c.Fields["tls"] = false
	}
	return c, nil
}

func decodeStandard(uri, proto string, defaultPort int) (*protocol.Canonical, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, err
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("missing host")
	}
	if defaultPort == 0 {
		defaultPort = 80
		if strings.EqualFold(u.Scheme, "https") {
			defaultPort = 443
		}
	}
	port, err := portNumber(u.Port(), defaultPort)
	if err != nil {
		return nil, err
	}

	c := canonical(proto, u.Fragment, u.Hostname(), port)
	if u.User != nil {
		user := u.User.Username()
		pass, hasPass := u.User.Password()
		if !hasPass {
			if decoded, err := DecodeBase64(user); err == nil {
				if du, dp, ok := strings.Cut(decoded, ":"); ok {
					user, pass = du, dp
				}
			}
		}
		if user != "" {
			c.Fields["username"] = user
		}
		if pass != "" {
			c.Fields["password"] = pass
		}
	}

	q := parseParams(u.RawQuery)
	for _, key := range []string{"tls", "skip-cert-verify", "udp", "tfo"} {
		if v, ok := q.flag(key); ok {
			c.Fields[key] = v
		}
	}
	if v, ok := q.flag("allowInsecure", "insecure"); ok {
		c.Fields["skip-cert-verify"] = v
	}
	for _, key := range []string{"sni", "fingerprint", "client-fingerprint"} {
		if v := q.get(key); v != "" {
			c.Fields[key] = v
		}
	}
	if v := q.get("peer"); v != "" && c.Fields["sni"] == nil {
		c.Fields["sni"] = v
	}
	if v := q.get("fp"); v != "" && c.Fields["client-fingerprint"] == nil {
		c.Fields["client-fingerprint"] = v
	}
	return c, nil
}
