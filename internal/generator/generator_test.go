package generator

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"subforge/internal/codec"
	"subforge/internal/protocol"
)

func proxy(name, server string, port int) *protocol.Proxy {
	p := protocol.NewProxy()
	p.Set("name", name)
	p.Set("type", "socks5")
	p.Set("server", server)
	p.Set("port", port)
	return p
}

func newGenerator(t *testing.T) *Generator {
	t.Helper()
	g, err := New("")
	require.NoError(t, err)
	return g
}

const miniTemplate = `port: {{PORT}}
socks: {{SOCKS_PORT}}
proxies:
proxy-groups:
  - name: G
    type: select
    proxies:
{{PROXY_NAMES_LIST}}
  - name: F
    proxies: [{{PROXY_NAMES}}]
`

func TestGenerateExactLayout(t *testing.T) {
	g := newGenerator(t)
	g.Add("mini", miniTemplate)

	a := proxy("a", "a.example.com", 1080)
	a.Set("ws-opts", map[string]any{"path": "/ws"})
	b := proxy("b q", "b.example.com", 1081)

	out, err := g.Generate("mini", []*protocol.Proxy{a, b}, 7890, 7891)
	require.NoError(t, err)
	require.Equal(t, `port: 7890
socks: 7891
proxies:
  - name: a
    type: socks5
    server: a.example.com
    port: 1080
    ws-opts:
      path: /ws
  - name: b q
    type: socks5
    server: b.example.com
    port: 1081
proxy-groups:
  - name: G
    type: select
    proxies:
      - "a"
      - "b q"
  - name: F
    proxies: ["a", "b q"]
`, out)

	doc, err := codec.Decode(out)
	require.NoError(t, err)
	m := doc.(map[string]any)
	require.Len(t, m["proxies"], 2)
}

func TestYamlDQ(t *testing.T) {
	require.Equal(t, `"plain"`, yamlDQ("plain"))
	require.Equal(t, `"say \"hi\"\\n"`, yamlDQ("say \"hi\"\\n"))
	require.Equal(t, `"a\nb"`, yamlDQ("a\nb"))
}

func TestGenerateEmptyFallsBackToDirect(t *testing.T) {
	g := newGenerator(t)
	out, err := g.Generate("no_rules", nil, 7890, 7891)
	require.NoError(t, err)
	require.Contains(t, out, "mixed-port: 7890")
	require.Contains(t, out, "socks-port: 7891")
	require.Contains(t, out, "      - DIRECT")
	require.Contains(t, out, "proxies: [DIRECT]")
	require.NotContains(t, out, "{{")

	_, err = codec.Decode(out)
	require.NoError(t, err)
}

func TestGenerateTemplateNotFound(t *testing.T) {
	g := newGenerator(t)
	out, err := g.Generate("missing_template", []*protocol.Proxy{proxy("a", "h", 1)}, 1, 1)
	require.ErrorIs(t, err, ErrTemplateNotFound)
	require.Empty(t, out)
}

func TestGenerateAnchorMissing(t *testing.T) {
	g := newGenerator(t)
	g.Add("broken", "mixed-port: {{PORT}}\nproxy-groups:\n  - name: G\n    proxies:\n{{PROXY_NAMES_LIST}}\n")
	_, err := g.Generate("broken", nil, 1, 1)
	require.ErrorIs(t, err, ErrAnchorMissing)
}

func TestGenerateIdempotent(t *testing.T) {
	g := newGenerator(t)
	proxies := []*protocol.Proxy{proxy("a", "h1", 1), proxy("b", "h2", 2)}
	first, err := g.Generate("default", proxies, 7890, 7891)
	require.NoError(t, err)
	second, err := g.Generate("default", proxies, 7890, 7891)
	require.NoError(t, err)
	require.Equal(t, first, second)

	// both name list occurrences are filled
	require.Equal(t, 2, strings.Count(first, "      - \"b\""))
}

func TestGenerateDuplicateNames(t *testing.T) {
	g := newGenerator(t)
	g.Add("mini", miniTemplate)
	in := []*protocol.Proxy{proxy("a", "h1", 1), proxy("a", "h2", 2), proxy("a-2", "h3", 3), proxy("a", "h4", 4)}

	out, err := g.Generate("mini", in, 1, 2)
	require.NoError(t, err)
	require.Contains(t, out, `proxies: ["a", "a-3", "a-2", "a-4"]`)
	require.Equal(t, "a", in[1].Name())
}

func TestGeneratePlaceholderInName(t *testing.T) {
	g := newGenerator(t)
	in := []*protocol.Proxy{proxy("{{PROXY_NAMES}}", "h1", 1), proxy("N", "h2", 2)}

	out, err := g.Generate("no_rules", in, 1, 2)
	require.NoError(t, err)
	require.Contains(t, out, "      - \"{{PROXY_NAMES}}\"\n")
	require.Contains(t, out, `proxies: ["{{PROXY_NAMES}}", "N"]`)

	doc, err := codec.Decode(out)
	require.NoError(t, err)
	proxies := doc.(map[string]any)["proxies"].([]any)
	require.Len(t, proxies, 2)
	require.Equal(t, "{{PROXY_NAMES}}", proxies[0].(map[string]any)["name"])
}

func TestBuiltinTemplatesParse(t *testing.T) {
	g := newGenerator(t)
	require.Equal(t, []string{"default", "lite", "no_rules"}, g.Templates())

	for _, name := range g.Templates() {
		out, err := g.Generate(name, []*protocol.Proxy{proxy("x", "h", 1)}, 7890, 7891)
		require.NoError(t, err, name)
		doc, err := codec.Decode(out)
		require.NoError(t, err, name)
		proxies := doc.(map[string]any)["proxies"].([]any)
		require.Len(t, proxies, 1, name)
	}
}

func TestTemplatesDirOverrides(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lite.yaml"), []byte("proxies:\nnames: [{{PROXY_NAMES}}]\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "custom.yml"), []byte("proxies:\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	g, err := New(dir)
	require.NoError(t, err)
	require.Equal(t, []string{"custom", "default", "lite", "no_rules"}, g.Templates())

	out, err := g.Generate("lite", nil, 1, 2)
	require.NoError(t, err)
	require.Equal(t, "proxies:\nnames: [DIRECT]\n", out)

	_, err = New(filepath.Join(dir, "absent"))
	require.Error(t, err)
}
