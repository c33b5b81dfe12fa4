package protocol

import "subforge/internal/schema"

func anytls() *Descriptor {
	return &Descriptor{
		Kind: KindAnyTLS,
		Name: "ANYTLS",
		Type: "anytls",
		Fields: concat(
			endpointSchema(443, true),
			[]schema.Field{
				schema.Text("password").Mandatory(),
				schema.Number("idle-session-check-interval"),
				schema.Number("idle-session-timeout"),
				schema.Number("min-idle-session"),
			},
			udpSchema(),
			tlsSchema("sni", false),
			dialSchema(),
		),
		Presets: []Preset{
			{Name: "Default", Fields: schema.Fields{
				"client-fingerprint":          "chrome",
				"idle-session-check-interval": 30,
				"idle-session-timeout":        30,
				"min-idle-session":            0,
			}},
		},
		Aliases: map[string]string{"servername": "sni"},
		synthesize: func(s *synth) {
			s.endpoint()
			s.put("password")
			s.put("idle-session-check-interval", "idle-session-timeout", "min-idle-session")
			s.putOr("udp")
			s.tlsOptions()
			s.dial()
		},
	}
}

// mieru listens on a single port or a port range; the range wins.
func mieru() *Descriptor {
	return &Descriptor{
		Kind: KindMieru,
		Name: "MIERU",
		Type: "mieru",
		Fields: concat(
			endpointSchema(2999, false),
			[]schema.Field{
				schema.Text("port-range"),
				schema.Enum("transport", "TCP", "UDP").WithDefault("TCP"),
				schema.Text("username").Mandatory(),
				schema.Text("password").Mandatory(),
				schema.Enum("multiplexing", "MULTIPLEXING_OFF", "MULTIPLEXING_LOW", "MULTIPLEXING_MIDDLE", "MULTIPLEXING_HIGH"),
				schema.Enum("handshake-mode", "HANDSHAKE_STANDARD", "HANDSHAKE_NO_WAIT"),
			},
			udpSchema(),
			dialSchema(),
		),
		Presets: []Preset{
			{Name: "TCP", Fields: schema.Fields{"transport": "TCP", "multiplexing": "MULTIPLEXING_LOW"}},
			{Name: "Port range", Fields: schema.Fields{"port-range": "2090-2099", "transport": "TCP"}},
		},
		synthesize: func(s *synth) {
			s.hopping("port-range")
			s.putOr("transport")
			s.put("username", "password", "multiplexing", "handshake-mode")
			s.putOr("udp")
			s.dial()
		},
	}
}
