package protocol

import (
	"encoding/json"
	"fmt"
	"strings"

	"subforge/internal/logger"
	"subforge/internal/schema"
)

// synth accumulates one output entry while a descriptor walks its fields.
type synth struct {
	d   *Descriptor
	in  schema.Fields
	out *Proxy
}

// value normalizes the raw value of id by its schema kind. Malformed values
// are logged and reported absent; ids outside the schema never reach output.
func (s *synth) value(id string) (any, bool) {
	raw, ok := s.in[id]
	if !ok {
		return nil, false
	}
	f, known := s.d.Field(id)
	if !known {
		return nil, false
	}
	v, present, err := schema.Normalize(f, raw)
	if err != nil {
		logger.Log.Warnf("%s: omitting %s: %v", s.d.Name, id, err)
		return nil, false
	}
	return v, present
}

func (s *synth) str(id string) string {
	v, ok := s.value(id)
	if !ok {
		return ""
	}
	return schema.String(v)
}

func (s *synth) flag(id string) bool {
	v, ok := s.value(id)
	return ok && schema.Truthy(v)
}

// put copies each present field under its own id.
func (s *synth) put(ids ...string) {
	for _, id := range ids {
		s.putAs(id, id)
	}
}

// putAs copies field id to the output key.
func (s *synth) putAs(id, key string) {
	if v, ok := s.value(id); ok {
		s.out.Set(key, v)
	}
}

// putOr copies id, falling back to the schema default when it is absent.
// Used for keys the target format expects to see explicitly.
func (s *synth) putOr(id string) {
	if v, ok := s.value(id); ok {
		s.out.Set(id, v)
		return
	}
	if f, ok := s.d.Field(id); ok && f.Default != nil {
		s.out.Set(id, f.Default)
	}
}

// endpoint emits server and port.
func (s *synth) endpoint() {
	s.put("server", "port")
}

var dialFields = []string{"ip-version", "tfo", "mptcp", "interface-name", "routing-mark", "dialer-proxy"}

func (s *synth) dial() {
	s.put(dialFields...)
}

var tlsOptionFields = []string{"alpn", "fingerprint", "client-fingerprint", "skip-cert-verify", "reality-opts", "ech-opts"}

// tlsOptions emits the TLS sub-fields. Reality without an explicit client
// fingerprint gets the chrome default.
func (s *synth) tlsOptions() {
	s.put("sni", "servername")
	s.put(tlsOptionFields...)
	if s.out.Has("reality-opts") && !s.out.Has("client-fingerprint") {
		s.out.Set("client-fingerprint", defaultClientFingerprint)
	}
}

// gatedTLS emits tls and, only while it is on, the TLS sub-fields.
func (s *synth) gatedTLS() {
	s.put("tls")
	if s.flag("tls") {
		s.tlsOptions()
	}
}

// transport emits network and the options object that belongs to it. Option
// objects for other networks are still emitted when supplied.
func (s *synth) transport() {
	s.put("network")
	s.put("ws-opts", "http-opts", "h2-opts", "grpc-opts")
}

var smuxTuning = []string{"protocol", "max-connections", "min-streams", "max-streams", "statistic", "only-tcp", "padding", "brutal-opts"}

// smux emits the multiplexing block, always as an object with a boolean
// enabled key.
func (s *synth) smux() {
	raw, ok := s.in["smux"]
	if !ok || schema.ShapeOf(raw) == schema.ShapeEmpty {
		return
	}

	var obj map[string]any
	switch t := raw.(type) {
	case bool:
		obj = map[string]any{"enabled": t}
	default:
		if sh := schema.ShapeOf(raw); sh == schema.ShapeEncodedJSON || sh == schema.ShapeStructure {
			m, err := schema.ObjectValue(raw)
			if err != nil {
				logger.Log.Warnf("%s: smux is not a valid object: %v", s.d.Name, err)
			} else if _, isBool := m["enabled"].(bool); isBool {
				obj = m
			}
		}
		if obj == nil {
			obj = map[string]any{"enabled": schema.Truthy(raw)}
		}
	}

	if obj["enabled"] == true {
		for _, key := range smuxTuning {
			if v, ok := s.value("smux-" + key); ok {
				obj[key] = v
			}
		}
	}
	s.out.Set("smux", obj)
}

// jsonString renders structured values compactly for names and logs.
func jsonString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any, map[string]any:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
	return schema.String(v)
}

// fallbackName builds "{NAME}-{server}:{port}" from what was emitted, using
// the multi-endpoint form when that is what the entry carries.
func (s *synth) fallbackName() string {
	server := s.out.String("server")
	port := ""
	for _, key := range []string{"ports", "port-range", "port"} {
		if v, ok := s.out.Get(key); ok {
			port = jsonString(v)
			break
		}
	}
	if server == "" {
		if peers, ok := s.out.Get("peers"); ok {
			if list, ok := peers.([]any); ok && len(list) > 0 {
				if peer, ok := schema.Map(list[0]); ok {
					server = schema.String(peer["server"])
					port = schema.String(peer["port"])
				}
			}
		}
	}
	return fmt.Sprintf("%s-%s:%s", s.d.Name, server, strings.TrimSpace(port))
}

const defaultClientFingerprint = "chrome"
