package protocol

import "subforge/internal/schema"

var ssCiphers = []string{
	"aes-128-gcm", "aes-192-gcm", "aes-256-gcm",
	"aes-128-cfb", "aes-192-cfb", "aes-256-cfb",
	"aes-128-ctr", "aes-192-ctr", "aes-256-ctr",
	"rc4-md5", "chacha20-ietf", "xchacha20",
	"chacha20-ietf-poly1305", "xchacha20-ietf-poly1305",
	"2022-blake3-aes-128-gcm", "2022-blake3-aes-256-gcm", "2022-blake3-chacha20-poly1305",
	"none",
}

func shadowsocks() *Descriptor {
	plugins := []string{"obfs", "v2ray-plugin", "shadow-tls", "restls", "gost-plugin", "kcptun"}
	return &Descriptor{
		Kind: KindSS,
		Name: "SS",
		Type: "ss",
		Fields: concat(
			endpointSchema(8388, true),
			[]schema.Field{
				schema.Enum("cipher", ssCiphers...).Mandatory().WithDefault("aes-128-gcm"),
				schema.Text("password").Mandatory(),
			},
			udpSchema(),
			[]schema.Field{
				schema.Bool("udp-over-tcp"),
				schema.Number("udp-over-tcp-version").When("udp-over-tcp", "true"),
				schema.Enum("plugin", plugins...),
				schema.Object("plugin-opts").When("plugin", plugins...),
				schema.Enum("client-fingerprint", clientFingerprints...),
			},
			smuxSchema(),
			dialSchema(),
		),
		Presets: []Preset{
			{Name: "AEAD", Fields: schema.Fields{"cipher": "aes-256-gcm"}},
			{Name: "2022", Fields: schema.Fields{"cipher": "2022-blake3-aes-128-gcm"}},
			{Name: "obfs", Fields: schema.Fields{
				"plugin":      "obfs",
				"plugin-opts": `{"mode": "tls", "host": "bing.com"}`,
			}},
			{Name: "shadow-tls", Fields: schema.Fields{
				"plugin":             "shadow-tls",
				"client-fingerprint": "chrome",
				"plugin-opts":        `{"host": "cloud.tencent.com", "password": "", "version": 3}`,
			}},
		},
		Aliases: map[string]string{"method": "cipher"},
		synthesize: func(s *synth) {
			s.endpoint()
			s.put("cipher", "password")
			s.putOr("udp")
			s.put("udp-over-tcp", "udp-over-tcp-version", "plugin", "plugin-opts", "client-fingerprint")
			s.smux()
			s.dial()
		},
	}
}

func shadowsocksR() *Descriptor {
	return &Descriptor{
		Kind: KindSSR,
		Name: "SSR",
		Type: "ssr",
		Fields: concat(
			endpointSchema(8388, true),
			[]schema.Field{
				schema.Enum("cipher", ssCiphers...).Mandatory().WithDefault("aes-256-cfb"),
				schema.Text("password").Mandatory(),
				schema.Enum("obfs", "plain", "http_simple", "http_post", "random_head", "tls1.2_ticket_auth", "tls1.2_ticket_fastauth").
					Mandatory().WithDefault("plain"),
				schema.Text("obfs-param"),
				schema.Enum("protocol", "origin", "auth_sha1_v4", "auth_aes128_md5", "auth_aes128_sha1", "auth_chain_a", "auth_chain_b").
					Mandatory().WithDefault("origin"),
				schema.Text("protocol-param"),
			},
			udpSchema(),
			dialSchema(),
		),
		Presets: []Preset{
			{Name: "Plain", Fields: schema.Fields{"obfs": "plain", "protocol": "origin"}},
			{Name: "TLS ticket", Fields: schema.Fields{
				"obfs":     "tls1.2_ticket_auth",
				"protocol": "auth_aes128_md5",
			}},
		},
		Aliases: map[string]string{
			"method":        "cipher",
			"obfsparam":     "obfs-param",
			"protocolparam": "protocol-param",
		},
		synthesize: func(s *synth) {
			s.endpoint()
			s.put("cipher", "password", "obfs", "obfs-param", "protocol", "protocol-param")
			s.putOr("udp")
			s.dial()
		},
	}
}

func snell() *Descriptor {
	return &Descriptor{
		Kind: KindSnell,
		Name: "SNELL",
		Type: "snell",
		Fields: concat(
			endpointSchema(44046, true),
			[]schema.Field{
				schema.Text("psk").Mandatory(),
				schema.Enum("version", "1", "2", "3").WithDefault(3),
				schema.Object("obfs-opts"),
			},
			udpSchema(),
			dialSchema(),
		),
		Presets: []Preset{
			{Name: "v3", Fields: schema.Fields{"version": 3}},
			{Name: "v3 obfs", Fields: schema.Fields{
				"version":   3,
				"obfs-opts": `{"mode": "http", "host": "bing.com"}`,
			}},
		},
		synthesize: func(s *synth) {
			s.endpoint()
			s.put("psk")
			if v, ok := s.value("version"); ok {
				if n, ok := schema.Int(v); ok {
					s.out.Set("version", n)
				}
			}
			s.put("obfs-opts")
			// only snell v3 relays UDP
			if n, ok := s.out.Int("version"); ok && n < 3 {
				s.out.Set("udp", false)
			} else {
				s.putOr("udp")
			}
			s.dial()
		},
	}
}
