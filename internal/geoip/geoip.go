package geoip

import (
	"fmt"
	"net"
	"strings"
	"sync"

	"github.com/oschwald/geoip2-golang"
)

var (
	countryReader *geoip2.Reader
	once          sync.Once
	initErr       error
)

// Init opens the country MMDB once. An empty path leaves lookups disabled.
func Init(countryPath string) error {
	once.Do(func() {
		if countryPath == "" {
			return
		}
		var err error
		countryReader, err = geoip2.Open(countryPath)
		if err != nil {
			initErr = fmt.Errorf("failed to open Country DB at %s: %w", countryPath, err)
		}
	})
	return initErr
}

// Enabled reports whether a country database is loaded.
func Enabled() bool {
	return countryReader != nil
}

// Country returns the ISO code for an IP literal, or "" when unknown.
func Country(host string) string {
	if countryReader == nil {
		return ""
	}
	ip := net.ParseIP(strings.Trim(host, "[]"))
	if ip == nil {
		return ""
	}
	c, err := countryReader.Country(ip)
	if err != nil {
		return ""
	}
	return c.Country.IsoCode
}

// Flag renders a two letter country code as its regional indicator emoji.
func Flag(countryCode string) string {
	if len(countryCode) != 2 {
		return "🌐"
	}
	countryCode = strings.ToUpper(countryCode)
	return string(rune(countryCode[0])+127397) + string(rune(countryCode[1])+127397)
}

func Close() {
	if countryReader != nil {
		countryReader.Close()
	}
}
