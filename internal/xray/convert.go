package xray

import (
	"encoding/json"
	"fmt"

	"github.com/xtls/xray-core/infra/conf"

	"subforge/internal/logger"
	"subforge/internal/protocol"
	"subforge/internal/schema"
)

// ToOutbound converts a synthesized proxy entry into an Xray outbound.
// The proxy name becomes the outbound tag.
func ToOutbound(p *protocol.Proxy) (*conf.OutboundDetourConfig, error) {
	var proto string
	var settings json.RawMessage

	switch p.Type() {
	case "vmess":
		proto = "vmess"
		settings = buildVMess(p)
	case "vless":
		proto = "vless"
		settings = buildVLESS(p)
	case "trojan":
		proto = "trojan"
		settings = buildTrojan(p)
	case "ss":
		proto = "shadowsocks"
		settings = buildShadowsocks(p)
	case "socks5":
		proto = "socks"
		settings = buildSocks(p)
	case "http":
		proto = "http"
		settings = buildSocks(p)
	case "wireguard":
		proto = "wireguard"
		settings = buildWireGuard(p)
	case "hysteria2":
		proto = "hysteria2"
		settings = buildHysteria2(p)
	default:
		return nil, fmt.Errorf("%w: no xray outbound for %s", protocol.ErrUnsupported, p.Type())
	}

	return &conf.OutboundDetourConfig{
		Tag:           p.Name(),
		Protocol:      proto,
		Settings:      &settings,
		StreamSetting: buildStreamSettings(p),
	}, nil
}

// Document renders proxies as an Xray config fragment holding only
// outbounds. Proxies without an Xray equivalent are returned as skipped.
func Document(proxies []*protocol.Proxy) (doc []byte, skipped []string, err error) {
	outbounds := make([]*conf.OutboundDetourConfig, 0, len(proxies))
	for _, p := range proxies {
		out, err := ToOutbound(p)
		if err != nil {
			skipped = append(skipped, p.Name())
			continue
		}
		if _, err := out.Build(); err != nil {
			logger.Log.Warnf("xray: outbound %q may be rejected by xray-core: %v", p.Name(), err)
		}
		outbounds = append(outbounds, out)
	}
	doc, err = json.MarshalIndent(map[string]interface{}{"outbounds": outbounds}, "", "  ")
	if err != nil {
		return nil, skipped, fmt.Errorf("encode xray config: %w", err)
	}
	return doc, skipped, nil
}

func endpoint(p *protocol.Proxy) (string, int) {
	port, _ := p.Int("port")
	return p.String("server"), port
}

func buildVMess(p *protocol.Proxy) json.RawMessage {
	addr, port := endpoint(p)
	alterID, _ := p.Int("alterId")
	return jsonRaw(map[string]interface{}{
		"vnext": []interface{}{
			map[string]interface{}{
				"address": addr,
				"port":    port,
				"users": []interface{}{
					map[string]interface{}{
						"id":       p.String("uuid"),
						"alterId":  alterID,
						"security": orDefault(p.String("cipher"), "auto"),
					},
				},
			},
		},
	})
}

func buildVLESS(p *protocol.Proxy) json.RawMessage {
	addr, port := endpoint(p)
	user := map[string]interface{}{
		"id":         p.String("uuid"),
		"encryption": orDefault(p.String("encryption"), "none"),
	}
	if flow := p.String("flow"); flow != "" {
		user["flow"] = flow
	}
	return jsonRaw(map[string]interface{}{
		"vnext": []interface{}{
			map[string]interface{}{
				"address": addr,
				"port":    port,
				"users":   []interface{}{user},
			},
		},
	})
}

func buildTrojan(p *protocol.Proxy) json.RawMessage {
	addr, port := endpoint(p)
	return jsonRaw(map[string]interface{}{
		"servers": []interface{}{
			map[string]interface{}{
				"address":  addr,
				"port":     port,
				"password": p.String("password"),
			},
		},
	})
}

func buildShadowsocks(p *protocol.Proxy) json.RawMessage {
	addr, port := endpoint(p)
	server := map[string]interface{}{
		"address":  addr,
		"port":     port,
		"method":   p.String("cipher"),
		"password": p.String("password"),
	}
	if p.Bool("udp-over-tcp") {
		server["uot"] = true
	}
	return jsonRaw(map[string]interface{}{
		"servers": []interface{}{server},
	})
}

// buildSocks serves both socks and http outbounds, which share a layout.
func buildSocks(p *protocol.Proxy) json.RawMessage {
	addr, port := endpoint(p)
	server := map[string]interface{}{
		"address": addr,
		"port":    port,
	}
	if user := p.String("username"); user != "" {
		server["users"] = []interface{}{
			map[string]interface{}{"user": user, "pass": p.String("password")},
		}
	}
	return jsonRaw(map[string]interface{}{
		"servers": []interface{}{server},
	})
}

func buildWireGuard(p *protocol.Proxy) json.RawMessage {
	var address []string
	for _, key := range []string{"ip", "ipv6"} {
		if v := p.String(key); v != "" {
			address = append(address, v)
		}
	}

	var peers []interface{}
	if raw, ok := p.Get("peers"); ok {
		for _, item := range toSlice(raw) {
			m, ok := schema.Map(item)
			if !ok {
				continue
			}
			port, _ := schema.Int(m["port"])
			peers = append(peers, wgPeer(
				schema.String(m["server"]), port,
				schema.String(m["public-key"]), schema.String(m["pre-shared-key"]),
				m["allowed-ips"],
			))
		}
	} else {
		addr, port := endpoint(p)
		allowed, _ := p.Get("allowed-ips")
		peers = append(peers, wgPeer(addr, port, p.String("public-key"), p.String("pre-shared-key"), allowed))
	}

	out := map[string]interface{}{
		"secretKey": p.String("private-key"),
		"address":   address,
		"peers":     peers,
	}
	if mtu, ok := p.Int("mtu"); ok {
		out["mtu"] = mtu
	}
	if raw, ok := p.Get("reserved"); ok {
		if reserved := toInts(raw); len(reserved) > 0 {
			out["reserved"] = reserved
		}
	}
	return jsonRaw(out)
}

func wgPeer(addr string, port int, publicKey, psk string, allowed interface{}) map[string]interface{} {
	peer := map[string]interface{}{
		"publicKey": publicKey,
		"endpoint":  fmt.Sprintf("%s:%d", addr, port),
	}
	if psk != "" {
		peer["preSharedKey"] = psk
	}
	if ips := schema.Strings(allowed); len(ips) > 0 {
		peer["allowedIPs"] = ips
	}
	return peer
}

func buildHysteria2(p *protocol.Proxy) json.RawMessage {
	addr, port := endpoint(p)
	out := map[string]interface{}{
		"address": addr,
		"port":    port,
		"auth":    p.String("password"),
	}
	if obfs := p.String("obfs"); obfs != "" {
		out["obfs"] = map[string]interface{}{
			"type": obfs,
			obfs: map[string]interface{}{
				"password": p.String("obfs-password"),
			},
		}
	}
	return jsonRaw(out)
}

func buildStreamSettings(p *protocol.Proxy) *conf.StreamConfig {
	if p.Type() == "wireguard" {
		return nil
	}

	network := orDefault(p.String("network"), "tcp")
	sc := &conf.StreamConfig{
		Network: (*conf.TransportProtocol)(&network),
	}

	security := ""
	switch p.Type() {
	case "trojan", "hysteria2":
		security = "tls"
	default:
		if p.Bool("tls") {
			security = "tls"
		}
	}
	reality, hasReality := p.Map("reality-opts")
	if hasReality {
		security = "reality"
	}
	sc.Security = security

	sni := orDefault(p.String("servername"), p.String("sni"))
	fingerprint := p.String("client-fingerprint")
	if security != "" {
		sc.TLSSettings = &conf.TLSConfig{
			ServerName:  sni,
			Fingerprint: fingerprint,
		}
		if raw, ok := p.Get("alpn"); ok {
			if alpn := schema.Strings(raw); len(alpn) > 0 {
				sc.TLSSettings.ALPN = &conf.StringList{}
				*sc.TLSSettings.ALPN = append(*sc.TLSSettings.ALPN, alpn...)
			}
		}
		if p.Bool("skip-cert-verify") {
			sc.TLSSettings.Insecure = true
		}
	}
	if hasReality {
		sc.REALITYSettings = &conf.REALITYConfig{
			Fingerprint: fingerprint,
			ServerName:  sni,
			PublicKey:   schema.String(reality["public-key"]),
			ShortId:     schema.String(reality["short-id"]),
		}
	}

	switch network {
	case "ws":
		opts, _ := p.Map("ws-opts")
		ws := &conf.WebSocketConfig{Path: schema.String(opts["path"])}
		if headers, ok := schema.Map(opts["headers"]); ok {
			if host := schema.String(headers["Host"]); host != "" {
				ws.Headers = map[string]string{"Host": host}
			}
		}
		sc.WSSettings = ws
	case "grpc":
		opts, _ := p.Map("grpc-opts")
		sc.GRPCSettings = &conf.GRPCConfig{
			ServiceName: schema.String(opts["grpc-service-name"]),
		}
	case "http":
		opts, _ := p.Map("http-opts")
		header := map[string]interface{}{"type": "http"}
		request := map[string]interface{}{}
		if paths := schema.Strings(opts["path"]); len(paths) > 0 {
			request["path"] = paths
		}
		if headers, ok := schema.Map(opts["headers"]); ok {
			request["headers"] = headers
		}
		header["request"] = request
		sc.TCPSettings = &conf.TCPConfig{HeaderConfig: jsonRaw(header)}
		tcp := "tcp"
		sc.Network = (*conf.TransportProtocol)(&tcp)
	}

	return sc
}

func jsonRaw(v interface{}) json.RawMessage {
	b, _ := json.Marshal(v)
	return json.RawMessage(b)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func toSlice(v interface{}) []interface{} {
	arr, err := schema.ArrayValue(v)
	if err != nil {
		return nil
	}
	return arr
}

func toInts(v interface{}) []int {
	var out []int
	for _, item := range toSlice(v) {
		if n, ok := schema.Int(item); ok {
			out = append(out, n)
		}
	}
	return out
}
