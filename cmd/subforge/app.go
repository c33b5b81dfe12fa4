package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"subforge/internal/config"
	"subforge/internal/db"
	"subforge/internal/geoip"
	"subforge/internal/logger"
	"subforge/internal/protocol"
	"subforge/internal/schema"
	"subforge/internal/store"
)

// app bundles what most commands need: config, registry and an open store.
type app struct {
	cfg      *config.Config
	registry *protocol.Registry
	database *gorm.DB
	store    *store.Store
}

func openApp() (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}

	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	var opts []store.Option
	if err := geoip.Init(cfg.GeoIP.CountryPath); err != nil {
		logger.Log.Warnf("GeoIP disabled: %v", err)
	} else if geoip.Enabled() {
		opts = append(opts, store.WithLocator(geoip.Country))
	}

	registry := protocol.NewRegistry()
	return &app{
		cfg:      cfg,
		registry: registry,
		database: database,
		store:    store.New(database, registry, opts...),
	}, nil
}

func (a *app) Close() {
	geoip.Close()
	db.Close(a.database)
}

// parseFields normalizes --field key=value pairs against the schema of d.
// Values may hold commas and JSON. With keepEmpty, empty values survive as
// "" so an update can drop them.
func parseFields(d *protocol.Descriptor, pairs []string, keepEmpty bool) (schema.Fields, error) {
	out := make(schema.Fields, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid field %q, want key=value", pair)
		}
		k = strings.TrimSpace(k)
		f, ok := d.Field(k)
		if !ok {
			return nil, fmt.Errorf("%s has no field %q", d.Name, k)
		}
		value, present, err := schema.Normalize(f, v)
		if err != nil {
			return nil, err
		}
		if !present {
			if keepEmpty {
				out[k] = ""
			}
			continue
		}
		if f.Kind == schema.KindEnum && len(f.Options) > 0 && !contains(f.Options, value.(string)) {
			logger.Log.Warnf("field %s: %q is not one of %v", k, value, f.Options)
		}
		out[k] = value
	}
	return out, nil
}

// applyParams copies --param overrides into plugin params. Integers are
// stored as ints.
func applyParams(params map[string]interface{}, overrides map[string]string) {
	for k, v := range overrides {
		if intVal, err := strconv.Atoi(v); err == nil {
			params[k] = intVal
		} else {
			params[k] = v
		}
	}
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func sortedCounts(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if m[keys[i]] != m[keys[j]] {
			return m[keys[i]] > m[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}
