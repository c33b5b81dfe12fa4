package link

import (
	"encoding/base64"
	"strings"
)

// DecodeBase64 attempts to decode standard and URL-safe base64 strings,
// automatically fixing missing padding.
func DecodeBase64(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	s = strings.TrimRight(s, "=")
	if n := len(s) % 4; n != 0 {
		s += strings.Repeat("=", 4-n)
	}

	b, err := base64.StdEncoding.DecodeString(s)
	if err == nil {
		return string(b), nil
	}

	b, err = base64.URLEncoding.DecodeString(s)
	if err == nil {
		return string(b), nil
	}

	return "", err
}

// LooksLikeBase64 reports whether text, ignoring line breaks, is made only of
// base64 alphabet characters.
func LooksLikeBase64(text string) bool {
	compact := stripSpace(text)
	if len(compact) < 4 {
		return false
	}
	for i := 0; i < len(compact); i++ {
		c := compact[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		case c == '+', c == '/', c == '=', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}

// DecodeSubscription decodes a base64 subscription blob that may be wrapped
// across lines.
func DecodeSubscription(text string) (string, bool) {
	if !LooksLikeBase64(text) {
		return "", false
	}
	out, err := DecodeBase64(stripSpace(text))
	if err != nil || out == "" {
		return "", false
	}
	return out, true
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\r', '\n':
			return -1
		}
		return r
	}, s)
}
