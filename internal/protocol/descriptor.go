// Package protocol holds the closed set of supported proxy protocols. Each
// protocol is a Descriptor carrying its field schema, its presets and the
// function that turns canonical fields into a target-format proxy entry.
package protocol

import (
	"errors"
	"fmt"

	"subforge/internal/schema"
)

// Kind tags one protocol variant.
type Kind int

const (
	KindSOCKS5 Kind = iota
	KindHTTP
	KindVLESS
	KindVMESS
	KindTrojan
	KindSS
	KindSSR
	KindSnell
	KindSSH
	KindWireGuard
	KindHysteria
	KindHysteria2
	KindTUIC
	KindAnyTLS
	KindMieru
)

var kindNames = [...]string{
	KindSOCKS5:    "SOCKS5",
	KindHTTP:      "HTTP",
	KindVLESS:     "VLESS",
	KindVMESS:     "VMESS",
	KindTrojan:    "TROJAN",
	KindSS:        "SS",
	KindSSR:       "SSR",
	KindSnell:     "SNELL",
	KindSSH:       "SSH",
	KindWireGuard: "WIREGUARD",
	KindHysteria:  "HYSTERIA",
	KindHysteria2: "HYSTERIA2",
	KindTUIC:      "TUIC",
	KindAnyTLS:    "ANYTLS",
	KindMieru:     "MIERU",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// ErrUnsupported is returned when a protocol name does not resolve.
var ErrUnsupported = errors.New("unsupported protocol")

// MissingFieldError rejects a descriptor whose required field is empty.
type MissingFieldError struct {
	Protocol string
	Field    string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: required field %q is missing", e.Protocol, e.Field)
}

// Canonical is one proxy entry in protocol-schema shape, independent of how
// it was obtained.
type Canonical struct {
	Protocol string
	Fields   schema.Fields
}

// Preset is a named bundle of field values used to pre-fill manual entry.
type Preset struct {
	Name   string
	Fields schema.Fields
}

// Descriptor describes one protocol variant.
type Descriptor struct {
	Kind    Kind
	Name    string // display tag, e.g. "VLESS"
	Type    string // target format type, e.g. "vless"
	Fields  []schema.Field
	Presets []Preset
	// Aliases maps foreign option keys seen in imported documents onto
	// field ids.
	Aliases map[string]string

	synthesize func(s *synth)
}

// Field looks up a schema field by id.
func (d *Descriptor) Field(id string) (schema.Field, bool) {
	for _, f := range d.Fields {
		if f.ID == id {
			return f, true
		}
	}
	return schema.Field{}, false
}

// Defaults returns the schema defaults, used as the starting point for
// manual entry.
func (d *Descriptor) Defaults() schema.Fields {
	out := make(schema.Fields)
	for _, f := range d.Fields {
		if f.Default != nil {
			out[f.ID] = f.Default
		}
	}
	return out
}

// Preset returns the defaults overlaid with the named preset.
func (d *Descriptor) Preset(name string) (schema.Fields, bool) {
	for _, p := range d.Presets {
		if p.Name == name {
			out := d.Defaults()
			for k, v := range p.Fields {
				out[k] = v
			}
			return out, true
		}
	}
	return nil, false
}

// Validate is the admission check: every required field must be present
// and non-empty.
func (d *Descriptor) Validate(fields schema.Fields) error {
	for _, f := range d.Fields {
		if f.Required && !fields.Present(f.ID) {
			return &MissingFieldError{Protocol: d.Name, Field: f.ID}
		}
	}
	return nil
}

// Synthesize renders fields as a target-format proxy entry. It never fails:
// malformed optional values are logged and left out.
func (d *Descriptor) Synthesize(fields schema.Fields) *Proxy {
	s := &synth{d: d, in: fields, out: NewProxy()}
	s.out.Set("name", "")
	s.out.Set("type", d.Type)
	if name := s.str("name"); name != "" {
		s.out.Set("name", name)
	}
	d.synthesize(s)
	if s.out.Name() == "" {
		s.out.Set("name", s.fallbackName())
	}
	return s.out
}
