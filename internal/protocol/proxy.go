package protocol

import (
	"bytes"
	"encoding/json"

	"gopkg.in/yaml.v3"

	"subforge/internal/schema"
)

// Proxy is one target-format proxy entry. Keys keep insertion order so the
// emitted YAML reads name, type, server, port first.
type Proxy struct {
	keys   []string
	values map[string]any
}

func NewProxy() *Proxy {
	return &Proxy{values: make(map[string]any)}
}

// ProxyFromMap builds a Proxy from a plain map, name and type first and the
// remaining keys sorted.
func ProxyFromMap(m map[string]any) *Proxy {
	p := NewProxy()
	for _, k := range []string{"name", "type", "server", "port"} {
		if v, ok := m[k]; ok {
			p.Set(k, v)
		}
	}
	for _, k := range schema.SortedKeys(m) {
		if _, ok := p.values[k]; !ok {
			p.Set(k, m[k])
		}
	}
	return p
}

// Set assigns key, keeping its original position when it already exists.
func (p *Proxy) Set(key string, v any) {
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.values[key] = v
}

func (p *Proxy) Get(key string) (any, bool) {
	v, ok := p.values[key]
	return v, ok
}

func (p *Proxy) Has(key string) bool {
	_, ok := p.values[key]
	return ok
}

func (p *Proxy) Delete(key string) {
	if _, ok := p.values[key]; !ok {
		return
	}
	delete(p.values, key)
	for i, k := range p.keys {
		if k == key {
			p.keys = append(p.keys[:i], p.keys[i+1:]...)
			break
		}
	}
}

func (p *Proxy) Keys() []string {
	out := make([]string, len(p.keys))
	copy(out, p.keys)
	return out
}

func (p *Proxy) Len() int { return len(p.keys) }

func (p *Proxy) Name() string { return p.String("name") }
func (p *Proxy) Type() string { return p.String("type") }

func (p *Proxy) String(key string) string { return schema.String(p.values[key]) }

func (p *Proxy) Int(key string) (int, bool) { return schema.Int(p.values[key]) }

func (p *Proxy) Bool(key string) bool { return schema.Truthy(p.values[key]) }

func (p *Proxy) Map(key string) (map[string]any, bool) { return schema.Map(p.values[key]) }

// Clone copies the key order and top-level values. Nested structures are shared.
func (p *Proxy) Clone() *Proxy {
	c := &Proxy{
		keys:   make([]string, len(p.keys)),
		values: make(map[string]any, len(p.values)),
	}
	copy(c.keys, p.keys)
	for k, v := range p.values {
		c.values[k] = v
	}
	return c
}

// AsMap returns the entry as a plain map.
func (p *Proxy) AsMap() map[string]any {
	out := make(map[string]any, len(p.values))
	for k, v := range p.values {
		out[k] = v
	}
	return out
}

func (p *Proxy) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, k := range p.keys {
		key := &yaml.Node{}
		key.SetString(k)
		val := &yaml.Node{}
		if err := val.Encode(p.values[k]); err != nil {
			return nil, err
		}
		node.Content = append(node.Content, key, val)
	}
	return node, nil
}

func (p *Proxy) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range p.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(p.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
