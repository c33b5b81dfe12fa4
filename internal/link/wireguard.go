package link

import (
	"fmt"
	"strings"

	"subforge/internal/protocol"
	"subforge/internal/schema"
)

// decodeWireGuard parses wireguard://privatekey@host:port?publickey=..&address=..
func decodeWireGuard(uri string) (*protocol.Canonical, error) {
	p, err := splitLink(uri, true)
	if err != nil {
		return nil, err
	}
	key := unescape(p.user)
	if key == "" {
		return nil, fmt.Errorf("missing private key")
	}
	port, err := portNumber(p.port, 51820)
	if err != nil {
		return nil, err
	}

	c := canonical("WIREGUARD", p.name, p.host, port)
	f := c.Fields
	f["private-key"] = key
	if v := p.params.get("publickey", "public-key", "publicKey"); v != "" {
		f["public-key"] = v
	}
	if v := p.params.get("presharedkey", "pre-shared-key", "preSharedKey"); v != "" {
		f["pre-shared-key"] = v
	}

	f["ip"] = "172.16.0.2"
	for _, addr := range strings.Split(p.params.get("address", "ip"), ",") {
		addr = strings.TrimSpace(addr)
		host, _, _ := strings.Cut(addr, "/")
		switch {
		case host == "":
		case strings.Contains(host, ":"):
			f["ipv6"] = host
		default:
			f["ip"] = host
		}
	}
	if n, ok := schema.Int(p.params.get("mtu")); ok {
		f["mtu"] = n
	}
	if v := p.params.get("reserved"); v != "" {
		f["reserved"] = v
	}
	if v := p.params.get("allowedips", "allowed-ips"); v != "" {
		f["allowed-ips"] = v
	}
	return c, nil
}
