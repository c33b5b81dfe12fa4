package protocol

import "subforge/internal/schema"

func builtin() []*Descriptor {
	return []*Descriptor{
		socks5(),
		httpProxy(),
		vless(),
		vmess(),
		trojan(),
		shadowsocks(),
		shadowsocksR(),
		snell(),
		ssh(),
		wireguard(),
		hysteria(),
		hysteria2(),
		tuic(),
		anytls(),
		mieru(),
	}
}

func socks5() *Descriptor {
	return &Descriptor{
		Kind: KindSOCKS5,
		Name: "SOCKS5",
		Type: "socks5",
		Fields: concat(
			endpointSchema(1080, true),
			[]schema.Field{schema.Text("username"), schema.Text("password")},
			tlsSchema("sni", true),
			udpSchema(),
			dialSchema(),
		),
		Presets: []Preset{
			{Name: "Local", Fields: schema.Fields{"server": "127.0.0.1", "port": 1080}},
			{Name: "TLS", Fields: schema.Fields{"tls": true, "skip-cert-verify": false}},
		},
		synthesize: func(s *synth) {
			s.endpoint()
			s.put("username", "password")
			s.gatedTLS()
			s.putOr("udp")
			s.dial()
		},
	}
}

func httpProxy() *Descriptor {
	return &Descriptor{
		Kind: KindHTTP,
		Name: "HTTP",
		Type: "http",
		Fields: concat(
			endpointSchema(8080, true),
			[]schema.Field{
				schema.Text("username"),
				schema.Text("password"),
				schema.Object("headers"),
			},
			tlsSchema("sni", true),
			dialSchema(),
		),
		Presets: []Preset{
			{Name: "Local", Fields: schema.Fields{"server": "127.0.0.1", "port": 8080}},
			{Name: "HTTPS", Fields: schema.Fields{"port": 443, "tls": true}},
		},
		synthesize: func(s *synth) {
			s.endpoint()
			s.put("username", "password", "headers")
			s.gatedTLS()
			s.dial()
		},
	}
}
