package link

import (
	"fmt"
	"strings"

	"subforge/internal/protocol"
	"subforge/internal/schema"
)

// decodeVLESS parses uuid@host:port?query#name with the permissive link
// grammar rather than a URL parser, so transport paths may contain '?'.
func decodeVLESS(uri string) (*protocol.Canonical, error) {
	p, err := splitLink(uri, true)
	if err != nil {
		return nil, err
	}
	uuid := unescape(p.user)
	if uuid == "" {
		return nil, fmt.Errorf("missing uuid")
	}
	port, err := portNumber(p.port, 443)
	if err != nil {
		return nil, err
	}

	c := canonical("VLESS", p.name, p.host, port)
	f := c.Fields
	f["uuid"] = uuid
	if v := p.params.get("flow"); v != "" {
		f["flow"] = v
	}
	if v := p.params.get("encryption"); v != "" && v != "none" {
		f["encryption"] = v
	}
	if v := p.params.get("packetEncoding", "packet-encoding"); v != "" {
		f["packet-encoding"] = v
	}

	applyTransport(f, p.params)
	if err := applySecurity(f, p.params, "servername"); err != nil {
		return nil, err
	}
	return c, nil
}

// applyTransport maps the type query parameter onto network and the option
// object that belongs to it. xhttp is carried as websocket.
func applyTransport(f schema.Fields, q params) {
	network := strings.ToLower(q.get("type", "net"))
	host := q.get("host")
	path := q.get("path")

	switch network {
	case "", "tcp":
		f["network"] = "tcp"
		if q.get("headerType") == "http" {
			opts := map[string]any{"method": "GET"}
			if path != "" {
				opts["path"] = []any{path}
			}
			if host != "" {
				opts["headers"] = map[string]any{"Host": []any{host}}
			}
			f["network"] = "http"
			f["http-opts"] = opts
		}
	case "ws", "xhttp", "httpupgrade":
		f["network"] = "ws"
		opts := map[string]any{}
		if path != "" {
			opts["path"] = path
		}
		if host != "" {
			opts["headers"] = map[string]any{"Host": host}
		}
		if network == "httpupgrade" {
			opts["v2ray-http-upgrade"] = true
		}
		if len(opts) > 0 {
			f["ws-opts"] = opts
		}
	case "grpc":
		f["network"] = "grpc"
		if name := q.get("serviceName", "service-name"); name != "" {
			f["grpc-opts"] = map[string]any{"grpc-service-name": name}
		}
	case "h2":
		f["network"] = "h2"
		opts := map[string]any{}
		if path != "" {
			opts["path"] = path
		}
		if host != "" {
			opts["host"] = []any{host}
		}
		if len(opts) > 0 {
			f["h2-opts"] = opts
		}
	case "http":
		f["network"] = "http"
		opts := map[string]any{}
		if path != "" {
			opts["path"] = []any{path}
		}
		if host != "" {
			opts["headers"] = map[string]any{"Host": []any{host}}
		}
		if len(opts) > 0 {
			f["http-opts"] = opts
		}
	default:
		f["network"] = network
	}
}

// applySecurity maps security=tls|reality and the TLS parameters. Reality
// needs a public key and defaults the client fingerprint.
func applySecurity(f schema.Fields, q params, sniID string) error {
	security := strings.ToLower(q.get("security"))
	switch security {
	case "tls", "reality", "xtls":
		f["tls"] = true
	case "", "none":
		f["tls"] = false
	default:
		return fmt.Errorf("unknown security %q", security)
	}

	if v := q.get("sni", "peer"); v != "" {
		f[sniID] = v
	}
	if v := q.get("fp"); v != "" {
		f["client-fingerprint"] = v
	}
	if v := q.get("fingerprint"); v != "" {
		f["fingerprint"] = v
	}
	if alpn := q.list("alpn"); len(alpn) > 0 {
		f["alpn"] = alpn
	}
	if v, ok := q.flag("allowInsecure", "skip-cert-verify", "insecure"); ok {
		f["skip-cert-verify"] = v
	}

	if security == "reality" {
		pbk := q.get("pbk", "publicKey")
		if pbk == "" {
			return fmt.Errorf("reality link without pbk")
		}
		opts := map[string]any{"public-key": pbk}
		if sid := q.get("sid", "shortId"); sid != "" || q.has("sid") {
			opts["short-id"] = sid
		}
		f["reality-opts"] = opts
		if f["client-fingerprint"] == nil {
			f["client-fingerprint"] = "chrome"
		}
	}
	return nil
}
