// Package generator renders stored proxies into a complete client
// configuration document using named templates.
package generator

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"subforge/internal/codec"
	"subforge/internal/logger"
	"subforge/internal/protocol"
)

const (
	PlaceholderPort       = "{{PORT}}"
	PlaceholderSocksPort  = "{{SOCKS_PORT}}"
	PlaceholderNamesList  = "{{PROXY_NAMES_LIST}}"
	PlaceholderNamesFlow  = "{{PROXY_NAMES}}"
	anchorLine            = "proxies:"
	nameListIndent        = "      "
	emptyProxyPlaceholder = "DIRECT"
)

var (
	ErrTemplateNotFound = errors.New("template not found")
	ErrAnchorMissing    = errors.New("template has no proxies: anchor")
)

//go:embed templates/*.yaml
var builtinTemplates embed.FS

type Generator struct {
	templates map[string]string
}

// New loads the built-in templates, then every *.yaml or *.yml file in dir.
// Files in dir replace built-ins of the same name. dir may be empty.
func New(dir string) (*Generator, error) {
	g := &Generator{templates: make(map[string]string)}

	entries, err := builtinTemplates.ReadDir("templates")
	if err != nil {
		return nil, fmt.Errorf("read built-in templates: %w", err)
	}
	for _, e := range entries {
		data, err := builtinTemplates.ReadFile("templates/" + e.Name())
		if err != nil {
			return nil, fmt.Errorf("read built-in template %s: %w", e.Name(), err)
		}
		g.templates[templateName(e.Name())] = string(data)
	}

	if dir == "" {
		return g, nil
	}
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read templates dir: %w", err)
	}
	for _, f := range files {
		ext := filepath.Ext(f.Name())
		if f.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, f.Name()))
		if err != nil {
			return nil, fmt.Errorf("read template %s: %w", f.Name(), err)
		}
		name := templateName(f.Name())
		if _, ok := g.templates[name]; ok {
			logger.Log.Debugf("generator: %s overrides built-in template %q", f.Name(), name)
		}
		g.templates[name] = string(data)
	}
	return g, nil
}

// Add registers or replaces a template from memory.
func (g *Generator) Add(name, text string) {
	g.templates[name] = text
}

// Templates lists template names in lexical order.
func (g *Generator) Templates() []string {
	names := make([]string, 0, len(g.templates))
	for name := range g.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Generate fills the named template with proxies and the listen ports.
// The only failures are an unknown template, a template without a
// top-level proxies: line and a proxy that cannot be encoded.
func (g *Generator) Generate(name string, proxies []*protocol.Proxy, mainPort, socksPort int) (string, error) {
	tpl, ok := g.templates[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
	}

	proxies = uniqueNames(proxies)

	// One pass, so names containing placeholder text are left as they are.
	out := strings.NewReplacer(
		PlaceholderPort, strconv.Itoa(mainPort),
		PlaceholderSocksPort, strconv.Itoa(socksPort),
		PlaceholderNamesList, nameList(proxies),
		PlaceholderNamesFlow, nameFlow(proxies),
	).Replace(tpl)

	block, err := proxyBlock(proxies)
	if err != nil {
		return "", err
	}
	return splice(out, block)
}

// splice inserts block after the first column-0 proxies: line.
func splice(doc, block string) (string, error) {
	lines := strings.Split(doc, "\n")
	for i, line := range lines {
		if strings.TrimRight(line, " \t\r") != anchorLine {
			continue
		}
		if block == "" {
			return doc, nil
		}
		out := make([]string, 0, len(lines)+1)
		out = append(out, lines[:i+1]...)
		out = append(out, block)
		out = append(out, lines[i+1:]...)
		return strings.Join(out, "\n"), nil
	}
	return "", ErrAnchorMissing
}

// proxyBlock renders proxies as a block sequence with list markers at two
// spaces and keys at four.
func proxyBlock(proxies []*protocol.Proxy) (string, error) {
	if len(proxies) == 0 {
		return "", nil
	}
	text, err := codec.Encode(proxies, codec.DefaultIndent)
	if err != nil {
		return "", fmt.Errorf("encode proxies: %w", err)
	}
	return codec.Indent(text, "  "), nil
}

func nameList(proxies []*protocol.Proxy) string {
	if len(proxies) == 0 {
		return nameListIndent + "- " + emptyProxyPlaceholder
	}
	lines := make([]string, len(proxies))
	for i, p := range proxies {
		lines[i] = nameListIndent + "- " + yamlDQ(p.Name())
	}
	return strings.Join(lines, "\n")
}

func nameFlow(proxies []*protocol.Proxy) string {
	if len(proxies) == 0 {
		return emptyProxyPlaceholder
	}
	names := make([]string, len(proxies))
	for i, p := range proxies {
		names[i] = yamlDQ(p.Name())
	}
	return strings.Join(names, ", ")
}

// uniqueNames returns proxies with repeated names suffixed -2, -3 and so
// on. The first occurrence keeps its name and inputs are never modified.
func uniqueNames(proxies []*protocol.Proxy) []*protocol.Proxy {
	reserved := make(map[string]bool, len(proxies))
	for _, p := range proxies {
		reserved[p.Name()] = true
	}
	used := make(map[string]bool, len(proxies))
	out := make([]*protocol.Proxy, len(proxies))
	for i, p := range proxies {
		name := p.Name()
		if !used[name] {
			used[name] = true
			out[i] = p
			continue
		}
		n := 2
		candidate := name + "-" + strconv.Itoa(n)
		for used[candidate] || reserved[candidate] {
			n++
			candidate = name + "-" + strconv.Itoa(n)
		}
		used[candidate] = true
		clone := p.Clone()
		clone.Set("name", candidate)
		out[i] = clone
	}
	return out
}

// yamlDQ renders s as a double-quoted YAML scalar.
func yamlDQ(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\r", "\\r")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\t", "\\t")
	return "\"" + s + "\""
}

func templateName(file string) string {
	return strings.TrimSuffix(file, filepath.Ext(file))
}
