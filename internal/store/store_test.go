package store

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"subforge/internal/db"
	"subforge/internal/protocol"
	"subforge/internal/schema"
)

func newStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	return New(database, protocol.NewRegistry(), opts...)
}

func socks(name, server string, port int) *protocol.Canonical {
	return &protocol.Canonical{Protocol: "SOCKS5", Fields: schema.Fields{
		"name":   name,
		"server": server,
		"port":   port,
	}}
}

func TestAddAndGet(t *testing.T) {
	s := newStore(t)
	c := socks("one", "1.2.3.4", 1080)
	c.Fields["not-a-field"] = "x"

	id, err := s.Add(c, "manual")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	row, err := s.Get(id)
	require.NoError(t, err)
	require.Equal(t, "SOCKS5", row.Protocol)
	require.Equal(t, "one", row.Name)
	require.Equal(t, "manual", row.Source)
	require.Equal(t, "1.2.3.4", row.Fields["server"])
	require.NotContains(t, row.Fields, "not-a-field")

	// json round trip turns numbers into float64; synthesis coerces them back
	p, err := protocol.NewRegistry().Synthesize(Canonical(row))
	require.NoError(t, err)
	port, ok := p.Int("port")
	require.True(t, ok)
	require.Equal(t, 1080, port)
}

func TestAddRejects(t *testing.T) {
	s := newStore(t)

	_, err := s.Add(&protocol.Canonical{Protocol: "SOCKS5", Fields: schema.Fields{"port": 1080}}, "")
	var missing *protocol.MissingFieldError
	require.True(t, errors.As(err, &missing))
	require.Equal(t, "server", missing.Field)

	_, err = s.Add(&protocol.Canonical{Protocol: "NAIVE", Fields: schema.Fields{"server": "h"}}, "")
	require.ErrorIs(t, err, protocol.ErrUnsupported)

	_, err = s.Add(socks("a", "h.example.com", 1), "")
	require.NoError(t, err)
	_, err = s.Add(socks("renamed", "H.example.com", 1), "")
	require.ErrorIs(t, err, ErrDuplicate)

	n, err := s.Count()
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

func TestAddBatchReport(t *testing.T) {
	s := newStore(t)
	report := s.AddBatch([]*protocol.Canonical{
		socks("a", "a.example.com", 1),
		socks("b", "b.example.com", 2),
		socks("a again", "a.example.com", 1),
		{Protocol: "VLESS", Fields: schema.Fields{"server": "v.example.com", "port": 443}},
		{Protocol: "UNKNOWN", Fields: schema.Fields{}},
	}, "import")
	require.Equal(t, Report{Added: 2, SkippedDuplicate: 1, SkippedInvalid: 2}, report)

	rows, err := s.List()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "a", rows[0].Name)
	require.Equal(t, "b", rows[1].Name)
}

func TestUpdate(t *testing.T) {
	s := newStore(t)
	id, err := s.Add(socks("a", "a.example.com", 1), "")
	require.NoError(t, err)
	other, err := s.Add(socks("b", "b.example.com", 2), "")
	require.NoError(t, err)

	ok, err := s.Update(id, schema.Fields{"name": "renamed", "username": "u", "password": "p"})
	require.NoError(t, err)
	require.True(t, ok)

	row, err := s.Get(id)
	require.NoError(t, err)
	require.Equal(t, "renamed", row.Name)
	require.Equal(t, "u", row.Fields["username"])

	ok, err = s.Update(id, schema.Fields{"username": ""})
	require.NoError(t, err)
	require.True(t, ok)
	row, err = s.Get(id)
	require.NoError(t, err)
	require.NotContains(t, row.Fields, "username")

	_, err = s.Update(id, schema.Fields{"server": ""})
	require.Error(t, err)

	_, err = s.Update(other, schema.Fields{"server": "a.example.com", "port": 1, "password": "p"})
	require.ErrorIs(t, err, ErrDuplicate)

	ok, err = s.Update("missing", schema.Fields{"name": "x"})
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRemove(t *testing.T) {
	s := newStore(t)
	id, err := s.Add(socks("a", "a.example.com", 1), "")
	require.NoError(t, err)

	ok, err := s.Remove(id)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.Remove(id)
	require.NoError(t, err)
	require.False(t, ok)

	_, err = s.Get(id)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCountsAndLocator(t *testing.T) {
	s := newStore(t, WithLocator(func(host string) string {
		if host == "1.1.1.1" {
			return "AU"
		}
		return ""
	}))
	s.AddBatch([]*protocol.Canonical{
		socks("a", "1.1.1.1", 1),
		socks("b", "b.example.com", 2),
		{Protocol: "TROJAN", Fields: schema.Fields{"server": "1.1.1.1", "port": 443, "password": "x"}},
	}, "")

	byProto, err := s.CountByProtocol()
	require.NoError(t, err)
	require.Equal(t, map[string]int64{"SOCKS5": 2, "TROJAN": 1}, byProto)

	byCountry, err := s.CountByCountry()
	require.NoError(t, err)
	require.Equal(t, map[string]int64{"AU": 2, "": 1}, byCountry)
}

func TestProxiesSelection(t *testing.T) {
	s := newStore(t)
	a, err := s.Add(socks("a", "a.example.com", 1), "")
	require.NoError(t, err)
	_, err = s.Add(socks("b", "b.example.com", 2), "")
	require.NoError(t, err)

	all, err := s.Proxies()
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, "socks5", all[0].Type())

	some, err := s.Proxies(a)
	require.NoError(t, err)
	require.Len(t, some, 1)
	require.Equal(t, "a", some[0].Name())
}

func TestKeyIgnoresName(t *testing.T) {
	a := Key("vless", schema.Fields{"name": "x", "server": "Host", "port": 443, "uuid": "u"})
	b := Key("VLESS", schema.Fields{"name": "y", "server": "host", "port": "443", "uuid": "u"})
	require.Equal(t, a, b)
	require.Len(t, a, 32)
	require.NotEqual(t, a, Key("VLESS", schema.Fields{"server": "host", "port": 443, "uuid": "v"}))
}
