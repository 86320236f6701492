// Package sites resolves observatory names to geodetic locations. A small
// registry of well-known sites ships embedded in the binary; callers can
// merge additional sites from JSON documents of the same shape.
package sites

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/signalsfoundry/almanac/earth"
	"github.com/signalsfoundry/almanac/units"
)

//go:embed sites.json
var builtinSites []byte

// ErrUnknownSite is returned when a name matches no registered site.
var ErrUnknownSite = errors.New("unknown site")

// Site is one observatory entry: geodetic coordinates in degrees and
// metres, plus the names it can be looked up under.
type Site struct {
	Name      string   `json:"name"`
	Aliases   []string `json:"aliases,omitempty"`
	LonDeg    float64  `json:"lon_deg"`
	LatDeg    float64  `json:"lat_deg"`
	HeightM   float64  `json:"height_m"`
	Source    string   `json:"source,omitempty"`
	Telescope string   `json:"telescope,omitempty"`
}

// Location converts the entry to an observer location.
func (s Site) Location() earth.Location {
	return earth.FromGeodetic(
		units.Degrees(s.LonDeg),
		units.Degrees(s.LatDeg),
		units.Kilometers(s.HeightM/1000),
	)
}

// Registry maps site names and aliases to entries. Lookups are
// case-insensitive.
type Registry struct {
	mu      sync.RWMutex
	byName  map[string]Site
	byAlias map[string]string
}

// NewRegistry returns a registry seeded with the embedded sites.
func NewRegistry() (*Registry, error) {
	r := &Registry{
		byName:  make(map[string]Site),
		byAlias: make(map[string]string),
	}
	if err := r.merge(builtinSites); err != nil {
		return nil, fmt.Errorf("embedded site registry: %w", err)
	}
	return r, nil
}

// Merge reads a JSON array of sites and adds them to the registry,
// replacing entries with the same name.
func (r *Registry) Merge(src io.Reader) error {
	raw, err := io.ReadAll(src)
	if err != nil {
		return err
	}
	return r.merge(raw)
}

// MergeFile merges the sites from a JSON file on disk.
func (r *Registry) MergeFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return r.Merge(f)
}

func (r *Registry) merge(raw []byte) error {
	var entries []Site
	if err := json.Unmarshal(raw, &entries); err != nil {
		return fmt.Errorf("decode sites: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range entries {
		if s.Name == "" {
			return fmt.Errorf("decode sites: entry with empty name")
		}
		key := normalize(s.Name)
		r.byName[key] = s
		for _, a := range s.Aliases {
			r.byAlias[normalize(a)] = key
		}
	}
	return nil
}

// Lookup resolves a site name or alias to its entry.
func (r *Registry) Lookup(name string) (Site, error) {
	key := normalize(name)

	r.mu.RLock()
	defer r.mu.RUnlock()
	if s, ok := r.byName[key]; ok {
		return s, nil
	}
	if canonical, ok := r.byAlias[key]; ok {
		return r.byName[canonical], nil
	}
	return Site{}, fmt.Errorf("%w: %q", ErrUnknownSite, name)
}

// Location resolves a site name directly to an observer location.
func (r *Registry) Location(name string) (earth.Location, error) {
	s, err := r.Lookup(name)
	if err != nil {
		return earth.Location{}, err
	}
	return s.Location(), nil
}

// Names lists the canonical site names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.byName))
	for _, s := range r.byName {
		out = append(out, s.Name)
	}
	sort.Strings(out)
	return out
}

func normalize(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
	defaultErr  error
)

// Default returns the shared registry backed by the embedded sites.
func Default() (*Registry, error) {
	defaultOnce.Do(func() {
		defaultReg, defaultErr = NewRegistry()
	})
	return defaultReg, defaultErr
}

// Lookup resolves a name against the shared registry.
func Lookup(name string) (Site, error) {
	r, err := Default()
	if err != nil {
		return Site{}, err
	}
	return r.Lookup(name)
}

// Location resolves a name against the shared registry.
func Location(name string) (earth.Location, error) {
	r, err := Default()
	if err != nil {
		return earth.Location{}, err
	}
	return r.Location(name)
}
