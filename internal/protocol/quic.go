package protocol

import (
	"subforge/internal/logger"
	"subforge/internal/schema"
)

// hopping emits either the port-hopping range or the single port, range
// first.
func (s *synth) hopping(rangeID string) {
	s.put("server")
	switch {
	case s.in.Present(rangeID):
		s.put(rangeID)
	case s.in.Present("port"):
		s.put("port")
	default:
		logger.Log.Warnf("%s: neither %s nor port configured", s.d.Name, rangeID)
	}
}

func quicTLSSchema() []schema.Field {
	return []schema.Field{
		schema.Text("sni"),
		schema.Array("alpn"),
		schema.Text("fingerprint"),
		schema.Bool("skip-cert-verify"),
		schema.Text("ca"),
		schema.Text("ca-str"),
	}
}

func hysteria() *Descriptor {
	return &Descriptor{
		Kind: KindHysteria,
		Name: "HYSTERIA",
		Type: "hysteria",
		Fields: concat(
			endpointSchema(443, false),
			[]schema.Field{
				schema.Text("ports"),
				schema.Text("auth-str"),
				schema.Text("obfs"),
				schema.Enum("protocol", "udp", "wechat-video", "faketcp").WithDefault("udp"),
				schema.Text("up").Mandatory().WithDefault("30 Mbps"),
				schema.Text("down").Mandatory().WithDefault("200 Mbps"),
			},
			quicTLSSchema(),
			[]schema.Field{
				schema.Number("recv-window-conn"),
				schema.Number("recv-window"),
				schema.Bool("disable-mtu-discovery"),
				schema.Bool("fast-open"),
				schema.Number("hop-interval"),
			},
		),
		Presets: []Preset{
			{Name: "Default", Fields: schema.Fields{"port": 443, "up": "30 Mbps", "down": "200 Mbps", "alpn": "h3"}},
		},
		Aliases: map[string]string{
			"auth_str":  "auth-str",
			"up_mbps":   "up",
			"down_mbps": "down",
		},
		synthesize: func(s *synth) {
			s.hopping("ports")
			s.put("auth-str", "obfs", "protocol", "up", "down")
			s.put("sni", "alpn", "fingerprint", "skip-cert-verify", "ca", "ca-str")
			s.put("recv-window-conn", "recv-window", "disable-mtu-discovery", "fast-open", "hop-interval")
		},
	}
}

func hysteria2() *Descriptor {
	return &Descriptor{
		Kind: KindHysteria2,
		Name: "HYSTERIA2",
		Type: "hysteria2",
		Fields: concat(
			endpointSchema(443, false),
			[]schema.Field{
				schema.Text("ports"),
				schema.Number("hop-interval"),
				schema.Text("password").Mandatory(),
				schema.Text("up"),
				schema.Text("down"),
				schema.Enum("obfs", "salamander"),
				schema.Text("obfs-password").When("obfs", "salamander"),
			},
			quicTLSSchema(),
			[]schema.Field{
				schema.Number("cwnd"),
				schema.Number("udp-mtu"),
			},
		),
		Presets: []Preset{
			{Name: "Default", Fields: schema.Fields{"port": 443, "alpn": "h3"}},
			{Name: "Salamander", Fields: schema.Fields{"obfs": "salamander", "obfs-password": ""}},
			{Name: "Port hopping", Fields: schema.Fields{"ports": "20000-50000", "hop-interval": 30}},
		},
		Aliases: map[string]string{"auth": "password", "obfs_password": "obfs-password"},
		synthesize: func(s *synth) {
			s.hopping("ports")
			s.put("hop-interval", "password", "up", "down", "obfs", "obfs-password")
			s.put("sni", "alpn", "fingerprint", "skip-cert-verify", "ca", "ca-str")
			s.put("cwnd", "udp-mtu")
		},
	}
}

// tuic emits the v4 token when one is set, otherwise the v5 uuid and
// password pair.
func tuic() *Descriptor {
	return &Descriptor{
		Kind: KindTUIC,
		Name: "TUIC",
		Type: "tuic",
		Fields: concat(
			endpointSchema(443, true),
			[]schema.Field{
				schema.Text("uuid"),
				schema.Text("password"),
				schema.Text("token"),
				schema.Text("ip"),
				schema.Number("heartbeat-interval"),
				schema.Array("alpn").WithDefault([]any{"h3"}),
				schema.Bool("disable-sni"),
				schema.Bool("reduce-rtt"),
				schema.Number("request-timeout"),
				schema.Enum("udp-relay-mode", "native", "quic").WithDefault("native"),
				schema.Enum("congestion-controller", "cubic", "bbr", "new_reno").WithDefault("bbr"),
				schema.Number("max-udp-relay-packet-size"),
				schema.Bool("fast-open"),
				schema.Bool("skip-cert-verify"),
				schema.Number("max-open-streams"),
				schema.Text("sni").When("disable-sni", "false"),
				schema.Bool("udp-over-stream"),
			},
		),
		Presets: []Preset{
			{Name: "v5", Fields: schema.Fields{"alpn": "h3", "congestion-controller": "bbr", "udp-relay-mode": "native"}},
			{Name: "v4", Fields: schema.Fields{"token": "", "alpn": "h3"}},
		},
		synthesize: func(s *synth) {
			s.endpoint()
			switch {
			case s.in.Present("token"):
				s.put("token")
			case s.in.Present("uuid") || s.in.Present("password"):
				s.put("uuid", "password")
			default:
				logger.Log.Warnf("%s: neither token nor uuid/password configured", s.d.Name)
			}
			s.put("ip", "heartbeat-interval")
			s.putOr("alpn")
			s.put("disable-sni", "reduce-rtt", "request-timeout", "udp-relay-mode", "congestion-controller",
				"max-udp-relay-packet-size", "fast-open", "skip-cert-verify", "max-open-streams", "sni", "udp-over-stream")
		},
	}
}
