package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadFillsDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
database:
  path: /tmp/x.db
generator:
  template: lite
fetch:
  timeout: 15s
  proxy_url: socks5://127.0.0.1:1080
collectors:
  - name: sub
    type: http
publishers:
  - name: out
    type: file
    params:
      path: out.yaml
`))
	require.NoError(t, err)
	require.Equal(t, "/tmp/x.db", cfg.Database.Path)
	require.Equal(t, "lite", cfg.Generator.Template)
	require.Equal(t, 7890, cfg.Generator.MainPort)
	require.Equal(t, 7891, cfg.Generator.SocksPort)
	require.Equal(t, 15*time.Second, cfg.Fetch.Timeout)
	require.Equal(t, "socks5://127.0.0.1:1080", cfg.Fetch.ProxyURL)
	require.NotNil(t, cfg.Collectors[0].Params)
	require.Equal(t, "out.yaml", cfg.Publishers[0].Params["path"])
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)

	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "database: [\n"))
	require.Error(t, err)
}

func TestLoadSchedule(t *testing.T) {
	cfg, err := Load(writeConfig(t, "schedule:\n  cron: \"@every 6h\"\n  publishers: [gist]\n"))
	require.NoError(t, err)
	require.Equal(t, "@every 6h", cfg.Schedule.Cron)
	require.Equal(t, "yaml", cfg.Schedule.Format)
	require.Equal(t, []string{"gist"}, cfg.Schedule.Publishers)
	require.Equal(t, 4, cfg.Fetch.Workers)

	_, err = Load(writeConfig(t, "schedule:\n  cron: \"every tuesday\"\n"))
	require.ErrorContains(t, err, "schedule.cron")
}

func TestFilter(t *testing.T) {
	cfg := &Config{
		Collectors: []CollectorConfig{{Name: "a"}, {Name: "b"}, {Name: "c"}},
		Publishers: []PublisherConfig{{Name: "x"}, {Name: "y"}},
	}
	cfg.FilterCollectors(nil)
	require.Len(t, cfg.Collectors, 3)
	cfg.FilterCollectors([]string{"c", "a"})
	require.Equal(t, []CollectorConfig{{Name: "a"}, {Name: "c"}}, cfg.Collectors)
	cfg.FilterPublishers([]string{"y"})
	require.Equal(t, []PublisherConfig{{Name: "y"}}, cfg.Publishers)
}
