// Package ephem resolves ephemeris sources by name and defines the source
// contract: a barycentric state query for a named solar-system body. The
// "builtin" analytic source is always registered; kernel-backed sources such
// as "de432s" resolve only when a state table or provider supplies them.
package ephem

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/signalsfoundry/almanac/body"
	"github.com/signalsfoundry/almanac/frames"
	"github.com/signalsfoundry/almanac/timescale"
)

// Builtin is the name of the always-available analytic source.
const Builtin = "builtin"

// EphemDirEnv names the directory searched for state-table documents when a
// kernel-backed ephemeris name does not match a registered source.
const EphemDirEnv = "ALMANAC_EPHEM_DIR"

var (
	// ErrUnknownEphemeris is returned for names that match no source and
	// no kernel naming convention.
	ErrUnknownEphemeris = errors.New("unknown ephemeris")

	// ErrKernelUnavailable is returned for kernel-style names ("de432s",
	// "de430", *.bsp) with no registered provider or state table behind
	// them.
	ErrKernelUnavailable = errors.New("ephemeris kernel unavailable")

	// ErrNoVelocity is returned when a source can supply a body's position
	// but not its velocity.
	ErrNoVelocity = errors.New("ephemeris source provides no velocity for body")

	// ErrEpochNotCovered is returned by state-table sources for epochs
	// they hold no exact entry for.
	ErrEpochNotCovered = errors.New("epoch not covered by state table")
)

// State is a barycentric position, and optionally velocity, on mean-equator
// J2000 axes. Vel is nil when the source cannot supply it.
type State struct {
	Pos frames.Vec3  // km
	Vel *frames.Vec3 // km/s
}

// Source computes barycentric states for solar-system bodies.
type Source interface {
	// Name identifies the source in the registry.
	Name() string
	// BarycentricPosVel returns the body's state relative to the
	// solar-system barycenter at t. Vel may be nil for sources or bodies
	// without velocity support.
	BarycentricPosVel(b body.Body, t timescale.Time) (State, error)
}

// Provider resolves a kernel-style ephemeris name to a Source, allowing
// external kernel readers to plug in without this package depending on them.
type Provider func(name string) (Source, error)

type registry struct {
	mu          sync.RWMutex
	sources     map[string]Source
	providers   []Provider
	defaultName string
}

var reg = &registry{
	sources:     map[string]Source{Builtin: NewBuiltinSource()},
	defaultName: Builtin,
}

// Register makes a source resolvable by its name, replacing any source
// previously registered under it.
func Register(src Source) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.sources[strings.ToLower(src.Name())] = src
}

// RegisterProvider adds a fallback resolver for kernel-style names.
func RegisterProvider(p Provider) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.providers = append(reg.providers, p)
}

// SetDefault selects the source used when a query names no ephemeris.
func SetDefault(name string) error {
	if _, err := Resolve(name); err != nil {
		return err
	}
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.defaultName = strings.ToLower(name)
	return nil
}

// DefaultName reports the currently selected default source name.
func DefaultName() string {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return reg.defaultName
}

// Resolve maps an ephemeris name to a source. The empty string resolves the
// package default. Kernel-style names fall back to providers and then to a
// state-table document under $ALMANAC_EPHEM_DIR.
func Resolve(name string) (Source, error) {
	name = strings.ToLower(strings.TrimSpace(name))

	reg.mu.RLock()
	if name == "" {
		name = reg.defaultName
	}
	src, ok := reg.sources[name]
	providers := append([]Provider(nil), reg.providers...)
	reg.mu.RUnlock()
	if ok {
		return src, nil
	}

	if !isKernelName(name) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEphemeris, name)
	}

	for _, p := range providers {
		src, err := p(name)
		if err == nil && src != nil {
			return src, nil
		}
	}

	if dir := os.Getenv(EphemDirEnv); dir != "" {
		src, err := OpenStateTableDir(dir, name)
		if err == nil {
			return src, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrKernelUnavailable, name)
}

// isKernelName reports whether the name follows the JPL development
// ephemeris or SPK file naming conventions.
func isKernelName(name string) bool {
	return strings.HasPrefix(name, "de") || strings.HasSuffix(name, ".bsp")
}
