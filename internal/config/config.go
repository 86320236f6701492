// Package config holds server process configuration, layered from defaults,
// an optional YAML file, and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config contains process configuration for the almanac server.
type Config struct {
	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the handler: text or json.
	LogFormat string `koanf:"log_format"`

	// DefaultEphemeris names the ephemeris used when queries do not pick
	// one: "builtin" or a kernel name resolvable from EphemerisDir.
	DefaultEphemeris string `koanf:"default_ephemeris"`

	// EphemerisDir is the directory searched for state-table documents.
	EphemerisDir string `koanf:"ephemeris_dir"`

	// EphemerisURLs are documents prefetched into EphemerisDir at startup.
	EphemerisURLs []string `koanf:"ephemeris_urls"`

	// SitesFile optionally merges extra observatory sites into the
	// embedded registry.
	SitesFile string `koanf:"sites_file"`

	// CacheDir holds downloaded ephemeris documents and their index.
	CacheDir string `koanf:"cache_dir"`

	// QueryLogPath is the SQLite file recording served queries. Empty
	// disables the query log.
	QueryLogPath string `koanf:"query_log_path"`

	// SkyRefreshSeconds is the period of the background sky snapshot.
	SkyRefreshSeconds int `koanf:"sky_refresh_seconds"`

	// SkySite names the observatory the sky snapshot is computed for;
	// empty means a geocentric observer.
	SkySite string `koanf:"sky_site"`
}

// Defaults returns the configuration used when nothing overrides it.
func Defaults() *Config {
	return &Config{
		Addr:              ":8080",
		LogLevel:          "info",
		LogFormat:         "text",
		DefaultEphemeris:  "builtin",
		CacheDir:          defaultCacheDir(),
		SkyRefreshSeconds: 60,
	}
}

// Load builds a Config by layering defaults, an optional YAML file, and
// environment variables. Order of precedence (low -> high):
//  1. Defaults()
//  2. file (YAML) if ALMANAC_CONFIG is set
//  3. env (prefix ALMANAC_)
func Load() (*Config, error) {
	k := koanf.New(".")

	if path := os.Getenv("ALMANAC_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %q: %w", path, err)
		}
	}

	// ALMANAC_ADDR -> addr, ALMANAC_SKY_REFRESH_SECONDS -> sky_refresh_seconds.
	envProvider := env.Provider("ALMANAC_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "almanac_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load config from environment: %w", err)
	}

	cfg := *Defaults()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Addr == "" {
		return errors.New("addr must not be empty")
	}
	if c.SkyRefreshSeconds <= 0 {
		return fmt.Errorf("sky_refresh_seconds must be positive, got %d", c.SkyRefreshSeconds)
	}
	if len(c.EphemerisURLs) > 0 && c.EphemerisDir == "" {
		return errors.New("ephemeris_urls requires ephemeris_dir")
	}
	return nil
}

func defaultCacheDir() string {
	if base, err := os.UserCacheDir(); err == nil {
		return base + "/almanac"
	}
	return ".almanac-cache"
}
