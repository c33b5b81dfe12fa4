package protocol

import "subforge/internal/schema"

func vless() *Descriptor {
	return &Descriptor{
		Kind: KindVLESS,
		Name: "VLESS",
		Type: "vless",
		Fields: concat(
			endpointSchema(443, true),
			[]schema.Field{
				schema.Text("uuid").Mandatory(),
				schema.Enum("flow", "xtls-rprx-vision"),
				schema.Enum("packet-encoding", "xudp", "packetaddr"),
				schema.Text("encryption"),
			},
			udpSchema(),
			tlsSchema("servername", true),
			transportSchema("tcp", "ws", "http", "h2", "grpc"),
			smuxSchema(),
			dialSchema(),
		),
		Presets: []Preset{
			{Name: "Reality Vision", Fields: schema.Fields{
				"tls":                true,
				"flow":               "xtls-rprx-vision",
				"network":            "tcp",
				"client-fingerprint": "chrome",
				"reality-opts":       `{"public-key": "", "short-id": ""}`,
			}},
			{Name: "WS TLS", Fields: schema.Fields{
				"tls":     true,
				"network": "ws",
				"ws-opts": `{"path": "/", "headers": {"Host": ""}}`,
			}},
			{Name: "gRPC TLS", Fields: schema.Fields{
				"tls":       true,
				"network":   "grpc",
				"grpc-opts": `{"grpc-service-name": ""}`,
			}},
		},
		Aliases: map[string]string{"sni": "servername"},
		synthesize: func(s *synth) {
			s.endpoint()
			s.put("uuid", "flow", "packet-encoding", "encryption")
			s.putOr("udp")
			s.gatedTLS()
			s.transport()
			s.smux()
			s.dial()
		},
	}
}

func vmess() *Descriptor {
	return &Descriptor{
		Kind: KindVMESS,
		Name: "VMESS",
		Type: "vmess",
		Fields: concat(
			endpointSchema(443, true),
			[]schema.Field{
				schema.Text("uuid").Mandatory(),
				schema.Number("alterId").WithDefault(0),
				schema.Enum("cipher", "auto", "none", "zero", "aes-128-gcm", "chacha20-poly1305").WithDefault("auto"),
				schema.Enum("packet-encoding", "xudp", "packetaddr"),
				schema.Bool("global-padding"),
				schema.Bool("authenticated-length"),
			},
			udpSchema(),
			tlsSchema("servername", true),
			transportSchema("tcp", "ws", "http", "h2", "grpc"),
			smuxSchema(),
			dialSchema(),
		),
		Presets: []Preset{
			{Name: "TCP", Fields: schema.Fields{"network": "tcp", "cipher": "auto"}},
			{Name: "WS TLS", Fields: schema.Fields{
				"tls":     true,
				"network": "ws",
				"ws-opts": `{"path": "/", "headers": {"Host": ""}}`,
			}},
		},
		Aliases: map[string]string{"sni": "servername", "alterid": "alterId"},
		synthesize: func(s *synth) {
			s.endpoint()
			s.put("uuid")
			s.putOr("alterId")
			s.putOr("cipher")
			s.put("packet-encoding", "global-padding", "authenticated-length")
			s.putOr("udp")
			s.gatedTLS()
			s.transport()
			s.smux()
			s.dial()
		},
	}
}

// trojan always runs over TLS, so its TLS options are not gated.
func trojan() *Descriptor {
	return &Descriptor{
		Kind: KindTrojan,
		Name: "TROJAN",
		Type: "trojan",
		Fields: concat(
			endpointSchema(443, true),
			[]schema.Field{schema.Text("password").Mandatory()},
			udpSchema(),
			tlsSchema("sni", false),
			transportSchema("tcp", "ws", "grpc"),
			[]schema.Field{schema.Object("ss-opts")},
			smuxSchema(),
			dialSchema(),
		),
		Presets: []Preset{
			{Name: "Standard", Fields: schema.Fields{"port": 443, "network": "tcp"}},
			{Name: "WS", Fields: schema.Fields{
				"network": "ws",
				"ws-opts": `{"path": "/", "headers": {"Host": ""}}`,
			}},
		},
		Aliases: map[string]string{"servername": "sni"},
		synthesize: func(s *synth) {
			s.endpoint()
			s.put("password")
			s.putOr("udp")
			s.tlsOptions()
			s.transport()
			s.put("ss-opts")
			s.smux()
			s.dial()
		},
	}
}
