package link

import (
	"bufio"
	"net/url"
	"regexp"
	"strings"
)

var regexLink = regexp.MustCompile(`(vmess|vless|trojan|ssr|ss|socks5|socks|https|http|wireguard|wg|hysteria2|hysteria|hy2|tuic|anytls)://[a-zA-Z0-9_\-\.\:@\?=&%#+/;~\[\]!$',*]+`)

// ExtractLinks finds share links embedded in free text such as chat messages
// and web pages. Order is preserved and duplicates dropped. Plain web
// addresses are skipped: an http(s) link only counts as a proxy when it
// names credentials or a port.
func ExtractLinks(text string) []string {
	var links []string
	text = strings.ReplaceAll(text, "\r\n", "\n")
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		matches := regexLink.FindAllString(line, -1)
		for _, match := range matches {
			clean := strings.TrimRight(match, ".,;)\"'")
			if clean != "" && !isWebPage(clean) {
				links = append(links, clean)
			}
		}
	}
	return deduplicate(links)
}

func isWebPage(raw string) bool {
	lower := strings.ToLower(raw)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return true
	}
	return u.User == nil && u.Port() == ""
}

func deduplicate(input []string) []string {
	keys := make(map[string]bool)
	list := []string{}
	for _, entry := range input {
		if _, value := keys[entry]; !value {
			keys[entry] = true
			list = append(list, entry)
		}
	}
	return list
}
