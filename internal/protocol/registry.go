package protocol

import (
	"fmt"
	"strings"

	"subforge/internal/schema"
)

// Registry maps protocol names to descriptors. It is populated once by the
// composition root and only read afterwards.
type Registry struct {
	order  []*Descriptor
	byName map[string]*Descriptor
	byType map[string]*Descriptor
}

// typeAliases are foreign spellings of target types seen in imports.
var typeAliases = map[string]string{
	"socks":       "socks5",
	"shadowsocks": "ss",
	"hy2":         "hysteria2",
	"hy":          "hysteria",
}

func NewEmptyRegistry() *Registry {
	return &Registry{
		byName: make(map[string]*Descriptor),
		byType: make(map[string]*Descriptor),
	}
}

// NewRegistry returns a registry holding every supported protocol.
func NewRegistry() *Registry {
	r := NewEmptyRegistry()
	for _, d := range builtin() {
		r.Register(d)
	}
	return r
}

// Register adds d. Registering the same name twice replaces the descriptor
// but keeps its original position.
func (r *Registry) Register(d *Descriptor) {
	key := strings.ToUpper(d.Name)
	if old, ok := r.byName[key]; ok {
		for i := range r.order {
			if r.order[i] == old {
				r.order[i] = d
			}
		}
		delete(r.byType, old.Type)
	} else {
		r.order = append(r.order, d)
	}
	r.byName[key] = d
	r.byType[d.Type] = d
}

// ByName resolves a display tag case-insensitively.
func (r *Registry) ByName(name string) (*Descriptor, bool) {
	d, ok := r.byName[strings.ToUpper(strings.TrimSpace(name))]
	return d, ok
}

// ByType resolves a target-format type value, accepting common aliases.
func (r *Registry) ByType(typ string) (*Descriptor, bool) {
	t := strings.ToLower(strings.TrimSpace(typ))
	if alias, ok := typeAliases[t]; ok {
		t = alias
	}
	d, ok := r.byType[t]
	return d, ok
}

// Resolve accepts either a display tag or a target type.
func (r *Registry) Resolve(name string) (*Descriptor, bool) {
	if d, ok := r.ByName(name); ok {
		return d, true
	}
	return r.ByType(name)
}

// Names lists display tags in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	for i, d := range r.order {
		out[i] = d.Name
	}
	return out
}

// Validate runs the admission check for a canonical descriptor.
func (r *Registry) Validate(c *Canonical) error {
	d, ok := r.Resolve(c.Protocol)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupported, c.Protocol)
	}
	return d.Validate(c.Fields)
}

// Synthesize resolves the descriptor for c and renders it.
func (r *Registry) Synthesize(c *Canonical) (*Proxy, error) {
	d, ok := r.Resolve(c.Protocol)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, c.Protocol)
	}
	return d.Synthesize(c.Fields), nil
}

// Project maps a target-format object (as found in imported documents) onto
// the descriptor's field ids, coercing each value by kind. Keys the schema
// does not know are dropped.
func (d *Descriptor) Project(obj map[string]any) schema.Fields {
	out := make(schema.Fields)
	for _, key := range schema.SortedKeys(obj) {
		id := key
		if alias, ok := d.Aliases[key]; ok {
			id = alias
		}
		f, ok := d.Field(id)
		if !ok {
			continue
		}
		if f.ID == "smux" {
			d.projectSmux(obj[key], out)
			continue
		}
		v, present, err := schema.Normalize(f, obj[key])
		if err != nil || !present {
			continue
		}
		out[id] = v
	}
	return out
}

// projectSmux splits an imported smux object into the smux toggle and the
// flat smux-* tuning fields.
func (d *Descriptor) projectSmux(raw any, out schema.Fields) {
	m, err := schema.ObjectValue(raw)
	if err != nil {
		out["smux"] = schema.Truthy(raw)
		return
	}
	out["smux"] = schema.Truthy(m["enabled"])
	for _, k := range schema.SortedKeys(m) {
		if k == "enabled" {
			continue
		}
		f, ok := d.Field("smux-" + k)
		if !ok {
			continue
		}
		if v, present, err := schema.Normalize(f, m[k]); err == nil && present {
			out[f.ID] = v
		}
	}
}
