package link

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// parts is a share link split by the permissive link grammar:
// scheme://[user@]host[:port][/][?query][#name]
type parts struct {
	user   string
	host   string
	port   string
	params params
	name   string
}

// splitLink splits off the fragment first, then the user info at the first
// '@', then the query at the first '?'. Transport paths may carry '?' or
// '/' without breaking the split.
func splitLink(uri string, needUser bool) (*parts, error) {
	_, rest, ok := strings.Cut(uri, "://")
	if !ok {
		return nil, fmt.Errorf("missing scheme separator")
	}

	p := &parts{}
	if body, frag, found := strings.Cut(rest, "#"); found {
		rest = body
		p.name = unescape(frag)
	}

	if user, hostPart, found := strings.Cut(rest, "@"); found {
		p.user = user
		rest = hostPart
	} else if needUser {
		return nil, fmt.Errorf("missing '@'")
	}

	hostPort, query, _ := strings.Cut(rest, "?")
	hostPort = strings.TrimSuffix(hostPort, "/")
	p.params = parseParams(query)

	host, port, err := splitHostPort(hostPort)
	if err != nil {
		return nil, err
	}
	p.host, p.port = host, port
	return p, nil
}

// splitHostPort accepts host, host:port and [v6]:port.
func splitHostPort(s string) (string, string, error) {
	if s == "" {
		return "", "", fmt.Errorf("missing host")
	}
	if strings.HasPrefix(s, "[") {
		end := strings.Index(s, "]")
		if end < 0 {
			return "", "", fmt.Errorf("unterminated IPv6 literal %q", s)
		}
		host := s[1:end]
		rest := s[end+1:]
		if rest == "" {
			return host, "", nil
		}
		if !strings.HasPrefix(rest, ":") {
			return "", "", fmt.Errorf("invalid host %q", s)
		}
		return host, rest[1:], nil
	}
	i := strings.LastIndex(s, ":")
	if i < 0 {
		return s, "", nil
	}
	if i == 0 {
		return "", "", fmt.Errorf("missing host")
	}
	return s[:i], s[i+1:], nil
}

// portNumber parses a port, falling back to def when empty.
func portNumber(s string, def int) (int, error) {
	if s == "" {
		if def == 0 {
			return 0, fmt.Errorf("missing port")
		}
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 || n > 65535 {
		return 0, fmt.Errorf("invalid port %q", s)
	}
	return n, nil
}

// params is a permissively parsed query string. The first occurrence of a
// key wins; keys without '=' are present with an empty value.
type params map[string]string

func parseParams(query string) params {
	out := make(params)
	for _, token := range strings.FieldsFunc(query, func(r rune) bool { return r == '&' || r == ';' }) {
		k, v, _ := strings.Cut(token, "=")
		k = unescape(k)
		if k == "" {
			continue
		}
		if _, seen := out[k]; !seen {
			out[k] = unescape(v)
		}
	}
	return out
}

func (p params) get(keys ...string) string {
	for _, k := range keys {
		if v := p[k]; v != "" {
			return v
		}
	}
	return ""
}

func (p params) has(key string) bool {
	_, ok := p[key]
	return ok
}

// flag reads the first boolean spelled explicitly as true/false or 1/0.
func (p params) flag(keys ...string) (bool, bool) {
	for _, k := range keys {
		switch strings.ToLower(p[k]) {
		case "true", "1":
			return true, true
		case "false", "0":
			return false, true
		}
	}
	return false, false
}

func (p params) list(keys ...string) []any {
	v := p.get(keys...)
	if v == "" {
		return nil
	}
	var out []any
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// unescape percent-decodes s, keeping '+' and returning s unchanged when it
// is not valid escaping.
func unescape(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	out, err := url.PathUnescape(s)
	if err != nil {
		return s
	}
	return out
}
