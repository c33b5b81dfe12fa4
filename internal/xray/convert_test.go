package xray

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"subforge/internal/protocol"
	"subforge/internal/schema"
)

func synth(t *testing.T, proto string, fields schema.Fields) *protocol.Proxy {
	t.Helper()
	p, err := protocol.NewRegistry().Synthesize(&protocol.Canonical{Protocol: proto, Fields: fields})
	require.NoError(t, err)
	return p
}

func settings(t *testing.T, raw *json.RawMessage) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(*raw, &out))
	return out
}

func TestVLESSReality(t *testing.T) {
	p := synth(t, "VLESS", schema.Fields{
		"name":         "edge",
		"server":       "v.example.com",
		"port":         443,
		"uuid":         "U",
		"flow":         "xtls-rprx-vision",
		"tls":          true,
		"servername":   "www.microsoft.com",
		"reality-opts": `{"public-key": "PK", "short-id": "SID"}`,
	})
	out, err := ToOutbound(p)
	require.NoError(t, err)
	require.Equal(t, "vless", out.Protocol)
	require.Equal(t, "edge", out.Tag)

	s := settings(t, out.Settings)
	vnext := s["vnext"].([]interface{})[0].(map[string]interface{})
	require.Equal(t, "v.example.com", vnext["address"])
	user := vnext["users"].([]interface{})[0].(map[string]interface{})
	require.Equal(t, "U", user["id"])
	require.Equal(t, "none", user["encryption"])
	require.Equal(t, "xtls-rprx-vision", user["flow"])

	require.Equal(t, "reality", out.StreamSetting.Security)
	require.Equal(t, "PK", out.StreamSetting.REALITYSettings.PublicKey)
	require.Equal(t, "SID", out.StreamSetting.REALITYSettings.ShortId)
	require.Equal(t, "chrome", out.StreamSetting.REALITYSettings.Fingerprint)
	require.Equal(t, "www.microsoft.com", out.StreamSetting.REALITYSettings.ServerName)
}

func TestTrojanWebSocket(t *testing.T) {
	p := synth(t, "TROJAN", schema.Fields{
		"server":   "t.example.com",
		"port":     443,
		"password": "pw",
		"sni":      "cdn.example.com",
		"network":  "ws",
		"ws-opts":  map[string]interface{}{"path": "/ws", "headers": map[string]interface{}{"Host": "cdn.example.com"}},
	})
	out, err := ToOutbound(p)
	require.NoError(t, err)
	require.Equal(t, "trojan", out.Protocol)
	require.Equal(t, "tls", out.StreamSetting.Security)
	require.Equal(t, "cdn.example.com", out.StreamSetting.TLSSettings.ServerName)
	require.Equal(t, "/ws", out.StreamSetting.WSSettings.Path)
	require.Equal(t, "cdn.example.com", out.StreamSetting.WSSettings.Headers["Host"])
}

func TestSocksCredentials(t *testing.T) {
	p := synth(t, "SOCKS5", schema.Fields{"server": "1.2.3.4", "port": 1080, "username": "u", "password": "p"})
	out, err := ToOutbound(p)
	require.NoError(t, err)
	require.Equal(t, "socks", out.Protocol)
	s := settings(t, out.Settings)
	server := s["servers"].([]interface{})[0].(map[string]interface{})
	require.EqualValues(t, 1080, server["port"])
	users := server["users"].([]interface{})
	require.Equal(t, "u", users[0].(map[string]interface{})["user"])
	require.Empty(t, out.StreamSetting.Security)
}

func TestWireGuardSinglePeer(t *testing.T) {
	p := synth(t, "WIREGUARD", schema.Fields{
		"server":      "wg.example.com",
		"port":        51820,
		"private-key": "PRIV",
		"public-key":  "PUB",
		"ip":          "172.16.0.2",
		"reserved":    "1,2,3",
		"mtu":         1280,
	})
	out, err := ToOutbound(p)
	require.NoError(t, err)
	require.Nil(t, out.StreamSetting)

	s := settings(t, out.Settings)
	require.Equal(t, "PRIV", s["secretKey"])
	require.Equal(t, []interface{}{"172.16.0.2"}, s["address"])
	require.Equal(t, []interface{}{1.0, 2.0, 3.0}, s["reserved"])
	peer := s["peers"].([]interface{})[0].(map[string]interface{})
	require.Equal(t, "wg.example.com:51820", peer["endpoint"])
	require.Equal(t, "PUB", peer["publicKey"])
}

func TestDocumentSkipsUnsupported(t *testing.T) {
	ss := synth(t, "SS", schema.Fields{"name": "a", "server": "s.example.com", "port": 8388, "cipher": "aes-128-gcm", "password": "pw"})
	tuic := synth(t, "TUIC", schema.Fields{"name": "b", "server": "q.example.com", "port": 443, "uuid": "U", "password": "P"})

	doc, skipped, err := Document([]*protocol.Proxy{ss, tuic})
	require.NoError(t, err)
	require.Equal(t, []string{"b"}, skipped)

	var parsed struct {
		Outbounds []struct {
			Tag      string `json:"tag"`
			Protocol string `json:"protocol"`
		} `json:"outbounds"`
	}
	require.NoError(t, json.Unmarshal(doc, &parsed))
	require.Len(t, parsed.Outbounds, 1)
	require.Equal(t, "a", parsed.Outbounds[0].Tag)
	require.Equal(t, "shadowsocks", parsed.Outbounds[0].Protocol)
}
