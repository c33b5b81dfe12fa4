package protocol

import (
	"subforge/internal/logger"
	"subforge/internal/schema"
)

func ssh() *Descriptor {
	return &Descriptor{
		Kind: KindSSH,
		Name: "SSH",
		Type: "ssh",
		Fields: concat(
			endpointSchema(22, true),
			[]schema.Field{
				schema.Text("username").Mandatory().WithDefault("root"),
				schema.Text("password"),
				schema.Text("private-key"),
				schema.Text("private-key-passphrase"),
				schema.Array("host-key"),
				schema.Array("host-key-algorithms"),
			},
			dialSchema(),
		),
		Presets: []Preset{
			{Name: "Password", Fields: schema.Fields{"port": 22, "username": "root"}},
			{Name: "Key", Fields: schema.Fields{"port": 22, "username": "root", "private-key": "~/.ssh/id_ed25519"}},
		},
		synthesize: func(s *synth) {
			s.endpoint()
			s.put("username", "password", "private-key", "private-key-passphrase", "host-key", "host-key-algorithms")
			s.dial()
		},
	}
}

// wireguard accepts either a single peer given by top-level server, port and
// public-key or a peers list. A non-empty peers list wins.
func wireguard() *Descriptor {
	return &Descriptor{
		Kind: KindWireGuard,
		Name: "WIREGUARD",
		Type: "wireguard",
		Fields: concat(
			[]schema.Field{
				schema.Text("name"),
				schema.Text("server"),
				schema.Number("port").WithDefault(51820),
				schema.Text("ip"),
				schema.Text("ipv6"),
				schema.Text("private-key").Mandatory(),
				schema.Text("public-key"),
				schema.Text("pre-shared-key"),
				schema.Array("reserved"),
				schema.Array("allowed-ips").WithDefault([]any{"0.0.0.0/0", "::/0"}),
				schema.Number("mtu"),
				schema.Array("peers"),
				schema.Bool("remote-dns-resolve"),
				schema.Array("dns").When("remote-dns-resolve", "true"),
				schema.Object("amnezia-wg-option"),
			},
			udpSchema(),
			dialSchema(),
		),
		Presets: []Preset{
			{Name: "Single peer", Fields: schema.Fields{"port": 51820, "ip": "172.16.0.2", "mtu": 1280}},
			{Name: "Peers", Fields: schema.Fields{
				"ip":    "172.16.0.2",
				"peers": `[{"server": "", "port": 51820, "public-key": "", "allowed-ips": ["0.0.0.0/0"]}]`,
			}},
		},
		synthesize: func(s *synth) {
			peers, multi := s.value("peers")
			switch {
			case multi:
			case s.in.Present("server"):
				s.endpoint()
			default:
				logger.Log.Warnf("%s: neither peers nor server configured, output will not connect", s.d.Name)
				s.put("port")
			}
			s.put("ip", "ipv6", "private-key")
			if !multi {
				s.put("public-key", "pre-shared-key")
				s.reserved()
				s.putOr("allowed-ips")
			}
			s.put("mtu")
			s.putOr("udp")
			s.put("remote-dns-resolve", "dns", "amnezia-wg-option")
			if multi {
				s.out.Set("peers", peers)
			}
			s.dial()
		},
	}
}

// reserved emits the three reserved bytes as integers, or passes a single
// base64 token through as a string.
func (s *synth) reserved() {
	v, ok := s.value("reserved")
	if !ok {
		return
	}
	items := v.([]any)
	if len(items) == 1 {
		if _, numeric := schema.Int(items[0]); !numeric {
			s.out.Set("reserved", schema.String(items[0]))
			return
		}
	}
	out := make([]any, 0, len(items))
	for _, item := range items {
		n, ok := schema.Int(item)
		if !ok {
			logger.Log.Warnf("%s: omitting reserved: %q is not a byte", s.d.Name, schema.String(item))
			return
		}
		out = append(out, n)
	}
	s.out.Set("reserved", out)
}
