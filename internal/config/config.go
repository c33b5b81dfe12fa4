package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

const defaultPath = "config.yaml"

type Config struct {
	Database   DatabaseConfig    `yaml:"database"`
	Generator  GeneratorConfig   `yaml:"generator"`
	Fetch      FetchConfig       `yaml:"fetch"`
	GeoIP      GeoIPConfig       `yaml:"geoip"`
	Schedule   ScheduleConfig    `yaml:"schedule"`
	Collectors []CollectorConfig `yaml:"collectors"`
	Publishers []PublisherConfig `yaml:"publishers"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type GeneratorConfig struct {
	Template     string `yaml:"template"`
	TemplatesDir string `yaml:"templates_dir"`
	MainPort     int    `yaml:"main_port"`
	SocksPort    int    `yaml:"socks_port"`
}

type FetchConfig struct {
	Timeout  time.Duration `yaml:"timeout"`
	ProxyURL string        `yaml:"proxy_url"` // http(s):// or socks5:// upstream for collectors
	Workers  int           `yaml:"workers"`
}

type GeoIPConfig struct {
	CountryPath string `yaml:"country_path"`
}

// ScheduleConfig drives the daemon: every tick runs all collectors, then
// renders the store and hands the result to the listed publishers.
type ScheduleConfig struct {
	Cron       string   `yaml:"cron"`
	Format     string   `yaml:"format"`
	Publishers []string `yaml:"publishers"`
}

type CollectorConfig struct {
	Name   string                 `yaml:"name"`
	Type   string                 `yaml:"type"`
	Params map[string]interface{} `yaml:"params"`
}

type PublisherConfig struct {
	Name   string                 `yaml:"name"`
	Type   string                 `yaml:"type"`
	Params map[string]interface{} `yaml:"params"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	var cfg Config
	cfg.Database.Path = "subforge.db"
	cfg.Generator.Template = "default"
	cfg.Generator.MainPort = 7890
	cfg.Generator.SocksPort = 7891
	cfg.Fetch.Timeout = 60 * time.Second
	cfg.Fetch.Workers = 4
	cfg.Schedule.Format = "yaml"
	return &cfg
}

// Load reads the YAML config at path. An explicit path must exist; the
// implicit ./config.yaml may be absent, in which case defaults are returned.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = defaultPath
	}

	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config yaml: %w", err)
	}

	if cfg.Generator.MainPort <= 0 {
		cfg.Generator.MainPort = 7890
	}
	if cfg.Generator.SocksPort <= 0 {
		cfg.Generator.SocksPort = 7891
	}
	if cfg.Fetch.Timeout <= 0 {
		cfg.Fetch.Timeout = 60 * time.Second
	}
	if cfg.Fetch.Workers <= 0 {
		cfg.Fetch.Workers = 4
	}
	if cfg.Schedule.Cron != "" {
		if _, err := cron.ParseStandard(cfg.Schedule.Cron); err != nil {
			return nil, fmt.Errorf("invalid schedule.cron %q: %w", cfg.Schedule.Cron, err)
		}
	}
	for i := range cfg.Collectors {
		if cfg.Collectors[i].Params == nil {
			cfg.Collectors[i].Params = make(map[string]interface{})
		}
	}
	for i := range cfg.Publishers {
		if cfg.Publishers[i].Params == nil {
			cfg.Publishers[i].Params = make(map[string]interface{})
		}
	}

	return cfg, nil
}

func (c *Config) FilterCollectors(names []string) {
	if len(names) == 0 {
		return
	}
	whitelist := make(map[string]bool)
	for _, n := range names {
		whitelist[n] = true
	}
	var filtered []CollectorConfig
	for _, item := range c.Collectors {
		if whitelist[item.Name] {
			filtered = append(filtered, item)
		}
	}
	c.Collectors = filtered
}

func (c *Config) FilterPublishers(names []string) {
	if len(names) == 0 {
		return
	}
	whitelist := make(map[string]bool)
	for _, n := range names {
		whitelist[n] = true
	}
	var filtered []PublisherConfig
	for _, item := range c.Publishers {
		if whitelist[item.Name] {
			filtered = append(filtered, item)
		}
	}
	c.Publishers = filtered
}
