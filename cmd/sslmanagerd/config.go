package main

import (
	"sslmanager-backend/lib/browser"

	"dario.cat/mergo"
)

type Config struct {
	// sqlite file path or a libsql:// url
	Database string         `json:"database"`
	Browser  browser.Config `json:"browser"`
	// minutes between automatic imports of every host, 0 keeps the
	// default
	ImportIntervalMinutes int `json:"import_interval_minutes"`
}

const defaultImportIntervalMinutes = 360

// browserConfig overlays the configured browser settings on the
// defaults so a config file only has to name what it changes.
func (c Config) browserConfig() (browser.Config, error) {
	merged := browser.DefaultConfig()
	err := mergo.Merge(&merged, c.Browser, mergo.WithOverride)
	return merged, err
}

func (c Config) importInterval() int {
	if c.ImportIntervalMinutes <= 0 {
		return defaultImportIntervalMinutes
	}
	return c.ImportIntervalMinutes
}
