package link

import (
	"encoding/json"
	"fmt"
	"strings"

	"subforge/internal/protocol"
	"subforge/internal/schema"
)

// vmessJSON is the legacy v2rayN share format, base64 encoded after the
// scheme.
type vmessJSON struct {
	V    interface{} `json:"v"`
	Ps   string      `json:"ps"`
	Add  string      `json:"add"`
	Port interface{} `json:"port"`
	Id   string      `json:"id"`
	Aid  interface{} `json:"aid"`
	Scy  string      `json:"scy"`
	Net  string      `json:"net"`
	Type string      `json:"type"`
	Host string      `json:"host"`
	Path string      `json:"path"`
	Tls  string      `json:"tls"`
	Sni  string      `json:"sni"`
	Alpn string      `json:"alpn"`
	Fp   string      `json:"fp"`
}

func decodeVMess(uri string) (*protocol.Canonical, error) {
	body := strings.TrimSpace(uri[strings.Index(uri, "://")+3:])
	// Standard VMess URI (vmess://uuid@host:port?...)
	if strings.Contains(body, "@") {
		return decodeVMessURI(uri)
	}

	if i := strings.Index(body, "#"); i >= 0 {
		body = body[:i]
	}
	jsonStr, err := DecodeBase64(body)
	if err != nil {
		return nil, fmt.Errorf("vmess base64 error: %w", err)
	}
	var v vmessJSON
	if err := json.Unmarshal([]byte(jsonStr), &v); err != nil {
		return nil, fmt.Errorf("vmess json error: %w", err)
	}
	if v.Add == "" || v.Id == "" {
		return nil, fmt.Errorf("vmess json without address or id")
	}
	port, err := portNumber(schema.String(v.Port), 0)
	if err != nil {
		return nil, err
	}

	c := canonical("VMESS", strings.TrimSpace(v.Ps), v.Add, port)
	f := c.Fields
	f["uuid"] = v.Id
	aid, _ := schema.Int(v.Aid)
	f["alterId"] = aid
	f["cipher"] = "auto"
	if v.Scy != "" {
		f["cipher"] = v.Scy
	}

	q := params{
		"type":        v.Net,
		"host":        v.Host,
		"path":        v.Path,
		"headerType":  v.Type,
		"serviceName": "",
		"sni":         v.Sni,
		"fp":          v.Fp,
		"alpn":        v.Alpn,
	}
	if v.Net == "grpc" {
		q["serviceName"] = v.Path
	}
	applyTransport(f, q)

	f["tls"] = strings.EqualFold(v.Tls, "tls")
	if f["tls"] == true {
		if v.Sni != "" {
			f["servername"] = v.Sni
		} else if v.Host != "" {
			f["servername"] = v.Host
		}
		if v.Fp != "" {
			f["client-fingerprint"] = v.Fp
		}
		if alpn := q.list("alpn"); len(alpn) > 0 {
			f["alpn"] = alpn
		}
	}
	return c, nil
}

func decodeVMessURI(uri string) (*protocol.Canonical, error) {
	p, err := splitLink(uri, true)
	if err != nil {
		return nil, err
	}
	port, err := portNumber(p.port, 443)
	if err != nil {
		return nil, err
	}
	c := canonical("VMESS", p.name, p.host, port)
	c.Fields["uuid"] = unescape(p.user)
	c.Fields["alterId"] = 0
	c.Fields["cipher"] = "auto"
	if v := p.params.get("encryption", "scy"); v != "" && v != "none" {
		c.Fields["cipher"] = v
	}
	applyTransport(c.Fields, p.params)
	if err := applySecurity(c.Fields, p.params, "servername"); err != nil {
		return nil, err
	}
	return c, nil
}
