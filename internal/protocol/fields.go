package protocol

import "subforge/internal/schema"

var clientFingerprints = []string{"chrome", "firefox", "safari", "ios", "android", "edge", "360", "qq", "random"}

func concat(groups ...[]schema.Field) []schema.Field {
	var out []schema.Field
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// endpointSchema is name, server and port. The port is optional for
// protocols that also accept a multi-port form.
func endpointSchema(port int, portRequired bool) []schema.Field {
	p := schema.Number("port").WithDefault(port)
	if portRequired {
		p = p.Mandatory()
	}
	return []schema.Field{
		schema.Text("name"),
		schema.Text("server").Mandatory(),
		p,
	}
}

func udpSchema() []schema.Field {
	return []schema.Field{schema.Bool("udp").WithDefault(true)}
}

func dialSchema() []schema.Field {
	return []schema.Field{
		schema.Enum("ip-version", "dual", "ipv4", "ipv6", "ipv4-prefer", "ipv6-prefer"),
		schema.Bool("tfo"),
		schema.Bool("mptcp"),
		schema.Text("interface-name"),
		schema.Number("routing-mark"),
		schema.Text("dialer-proxy"),
	}
}

// tlsSchema lists the TLS sub-fields. When gated they hang off a tls toggle.
func tlsSchema(sniID string, gated bool) []schema.Field {
	fields := []schema.Field{
		schema.Text(sniID),
		schema.Array("alpn"),
		schema.Text("fingerprint"),
		schema.Enum("client-fingerprint", clientFingerprints...),
		schema.Bool("skip-cert-verify"),
		schema.Object("reality-opts"),
		schema.Object("ech-opts"),
	}
	if !gated {
		return fields
	}
	for i := range fields {
		fields[i] = fields[i].When("tls", "true")
	}
	return append([]schema.Field{schema.Bool("tls").WithDefault(false)}, fields...)
}

func transportSchema(networks ...string) []schema.Field {
	fields := []schema.Field{schema.Enum("network", networks...).WithDefault(networks[0])}
	for _, n := range networks {
		switch n {
		case "ws", "http", "h2", "grpc":
			fields = append(fields, schema.Object(n+"-opts").When("network", n))
		}
	}
	return fields
}

func smuxSchema() []schema.Field {
	return []schema.Field{
		schema.Bool("smux").WithDefault(false),
		schema.Enum("smux-protocol", "smux", "yamux", "h2mux").When("smux", "true"),
		schema.Number("smux-max-connections").When("smux", "true"),
		schema.Number("smux-min-streams").When("smux", "true"),
		schema.Number("smux-max-streams").When("smux", "true"),
		schema.Bool("smux-statistic").When("smux", "true"),
		schema.Bool("smux-only-tcp").When("smux", "true"),
		schema.Bool("smux-padding").When("smux", "true"),
		schema.Object("smux-brutal-opts").When("smux", "true"),
	}
}
