// Package importer turns raw pasted or fetched text into canonical
// descriptors: base64 subscriptions, YAML/JSON documents with a proxies
// list, single proxy objects and newline separated share links.
package importer

import (
	"strings"
	"unicode/utf8"

	"subforge/internal/codec"
	"subforge/internal/link"
	"subforge/internal/logger"
	"subforge/internal/protocol"
	"subforge/internal/schema"
)

// Result is the outcome of one import. Descriptors keep input order.
type Result struct {
	Descriptors []*protocol.Canonical
	// Unsupported counts entries whose protocol is not registered.
	Unsupported int
	// Invalid counts entries that could not be decoded at all.
	Invalid int
}

// Merge appends other to r.
func (r *Result) Merge(other Result) {
	r.Descriptors = append(r.Descriptors, other.Descriptors...)
	r.Unsupported += other.Unsupported
	r.Invalid += other.Invalid
}

type Importer struct {
	registry *protocol.Registry
	decoder  *link.Decoder
}

func New(registry *protocol.Registry, decoder *link.Decoder) *Importer {
	return &Importer{registry: registry, decoder: decoder}
}

// ImportFromText decodes raw into descriptors. It never fails: every step
// falls through to the next and bad entries are only counted.
func (im *Importer) ImportFromText(raw string) Result {
	var res Result
	text := normalizeText(raw)
	if strings.TrimSpace(text) == "" {
		return res
	}

	if decoded, ok := link.DecodeSubscription(text); ok && utf8.ValidString(decoded) {
		logger.Log.Debugf("import: decoded base64 subscription (%d bytes)", len(decoded))
		text = normalizeText(decoded)
	}

	if objects, ok := parseDocument(text); ok {
		for _, obj := range objects {
			im.addObject(obj, &res)
		}
		return res
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}
		c, ok := im.decoder.Decode(line)
		if !ok {
			res.Invalid++
			continue
		}
		im.addCanonical(c, &res)
	}
	return res
}

// addObject projects a target-format proxy object onto its protocol schema.
func (im *Importer) addObject(raw any, res *Result) {
	obj, ok := schema.Map(raw)
	if !ok {
		res.Invalid++
		return
	}
	typ := schema.String(obj["type"])
	d, ok := im.registry.Resolve(typ)
	if !ok {
		logger.Log.Debugf("import: skipping unsupported type %q", typ)
		res.Unsupported++
		return
	}
	res.Descriptors = append(res.Descriptors, &protocol.Canonical{
		Protocol: d.Name,
		Fields:   d.Project(obj),
	})
}

// addCanonical re-coerces a decoded link through its schema.
func (im *Importer) addCanonical(c *protocol.Canonical, res *Result) {
	d, ok := im.registry.Resolve(c.Protocol)
	if !ok {
		logger.Log.Debugf("import: skipping unsupported protocol %q", c.Protocol)
		res.Unsupported++
		return
	}
	res.Descriptors = append(res.Descriptors, &protocol.Canonical{
		Protocol: d.Name,
		Fields:   d.Project(c.Fields),
	})
}

// parseDocument returns the proxy objects of a structured document. ok is
// false when text is not a document this importer understands.
func parseDocument(text string) ([]any, bool) {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "{") && !strings.HasPrefix(trimmed, "[") && !strings.Contains(trimmed, ":\n") &&
		!strings.Contains(trimmed, ": ") && !strings.HasSuffix(trimmed, ":") {
		return nil, false
	}
	doc, err := codec.Decode(text)
	if err != nil {
		return nil, false
	}

	switch v := doc.(type) {
	case map[string]any:
		if list, ok := v["proxies"]; ok {
			switch list := list.(type) {
			case []any:
				return list, true
			case nil:
				// an empty proxies: section
				return nil, true
			}
		}
		if looksLikeProxy(v) {
			return []any{v}, true
		}
	case []any:
		var out []any
		for _, item := range v {
			if m, ok := schema.Map(item); ok && looksLikeProxy(m) {
				out = append(out, m)
			}
		}
		if len(out) > 0 {
			return out, true
		}
	}
	return nil, false
}

func looksLikeProxy(m map[string]any) bool {
	for _, key := range []string{"type", "server", "port"} {
		if schema.ShapeOf(m[key]) == schema.ShapeEmpty {
			return false
		}
	}
	return true
}

// normalizeText drops a byte order mark, zero-width characters and stray
// control characters, and unifies line endings.
func normalizeText(content string) string {
	content = strings.TrimPrefix(content, "\ufeff")

	var b strings.Builder
	b.Grow(len(content))
	for _, r := range content {
		switch r {
		case '\u200b', '\u200c', '\u200d', '\ufeff', '\r':
			continue
		}
		if r < 0x20 && r != '\n' && r != '\t' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
