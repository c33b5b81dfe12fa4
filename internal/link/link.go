// Package link decodes subscription share links into canonical descriptors.
package link

import (
	"fmt"
	"sort"
	"strings"

	"subforge/internal/logger"
	"subforge/internal/protocol"
	"subforge/internal/schema"
)

// DecodeFunc turns one share link into a canonical descriptor.
type DecodeFunc func(uri string) (*protocol.Canonical, error)

// Decoder dispatches links to a DecodeFunc by scheme.
type Decoder struct {
	schemes map[string]DecodeFunc
}

func New() *Decoder {
	return &Decoder{schemes: make(map[string]DecodeFunc)}
}

// Default returns a decoder with every built-in scheme registered.
func Default() *Decoder {
	d := New()
	d.Register(decodeSocks, "socks", "socks5")
	d.Register(decodeHTTP, "http", "https")
	d.Register(decodeVLESS, "vless")
	d.Register(decodeVMess, "vmess")
	d.Register(decodeTrojan, "trojan")
	d.Register(decodeShadowsocks, "ss")
	d.Register(decodeShadowsocksR, "ssr")
	d.Register(decodeHysteria, "hysteria")
	d.Register(decodeHysteria2, "hysteria2", "hy2")
	d.Register(decodeTUIC, "tuic")
	d.Register(decodeAnyTLS, "anytls")
	d.Register(decodeWireGuard, "wireguard", "wg")
	return d
}

// Register binds fn to each scheme, replacing earlier bindings.
func (d *Decoder) Register(fn DecodeFunc, schemes ...string) {
	for _, s := range schemes {
		d.schemes[strings.ToLower(s)] = fn
	}
}

// Schemes lists the registered schemes in lexical order.
func (d *Decoder) Schemes() []string {
	out := make([]string, 0, len(d.schemes))
	for s := range d.schemes {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Decode returns the canonical descriptor for uri. Unknown schemes and
// malformed links report false; callers skip the line.
func (d *Decoder) Decode(uri string) (*protocol.Canonical, bool) {
	uri = FixIllegalUrl(uri)
	scheme, _, ok := strings.Cut(uri, "://")
	if !ok {
		return nil, false
	}
	fn, ok := d.schemes[strings.ToLower(scheme)]
	if !ok {
		logger.Log.Debugf("link: unsupported scheme %q", scheme)
		return nil, false
	}
	c, err := fn(uri)
	if err != nil {
		logger.Log.Debugf("link: %s: %v", scheme, err)
		return nil, false
	}
	return c, true
}

// FixIllegalUrl cleans up common issues in scraped links.
func FixIllegalUrl(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", "")
	return s
}

// canonical starts a descriptor with the endpoint and display name filled in.
func canonical(proto, name, server string, port int) *protocol.Canonical {
	if name == "" {
		name = fmt.Sprintf("%s-%s:%d", proto, server, port)
	}
	return &protocol.Canonical{
		Protocol: proto,
		Fields: schema.Fields{
			"name":   name,
			"server": server,
			"port":   port,
		},
	}
}
