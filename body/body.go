// Package body names the solar-system bodies the library can compute and
// maps them to the kernel segment chains used by ephemeris sources.
package body

import (
	"errors"
	"fmt"
	"strings"
)

// Body identifies a solar-system body by its canonical lower-case name.
type Body string

const (
	Sun                 Body = "sun"
	Mercury             Body = "mercury"
	Venus               Body = "venus"
	Earth               Body = "earth"
	Moon                Body = "moon"
	Mars                Body = "mars"
	Jupiter             Body = "jupiter"
	Saturn              Body = "saturn"
	Uranus              Body = "uranus"
	Neptune             Body = "neptune"
	Pluto               Body = "pluto"
	EarthMoonBarycenter Body = "earth-moon-barycenter"
)

// ErrUnknownBody is returned when a name does not match any known body.
var ErrUnknownBody = errors.New("unknown body")

// NAIF identifiers for barycenters and body centers.
const (
	NAIFSolarSystemBarycenter = 0
	NAIFMercuryBarycenter     = 1
	NAIFVenusBarycenter       = 2
	NAIFEarthMoonBarycenter   = 3
	NAIFMarsBarycenter        = 4
	NAIFJupiterBarycenter     = 5
	NAIFSaturnBarycenter      = 6
	NAIFUranusBarycenter      = 7
	NAIFNeptuneBarycenter     = 8
	NAIFPlutoBarycenter       = 9
	NAIFSun                   = 10
	NAIFMercury               = 199
	NAIFVenus                 = 299
	NAIFMoon                  = 301
	NAIFEarth                 = 399
)

// Segment is one (center, target) hop in a kernel lookup chain. Summing the
// states of all segments in a chain yields the target's position relative to
// the first center.
type Segment struct {
	Center int
	Target int
}

// KernelSpec is the chain of kernel segments that takes the solar-system
// barycenter to a body.
type KernelSpec []Segment

// NameToKernelSpec maps each canonical body name to the segment chain used
// when querying a kernel-backed ephemeris source.
var NameToKernelSpec = map[Body]KernelSpec{
	Sun:                 {{NAIFSolarSystemBarycenter, NAIFSun}},
	Mercury:             {{NAIFSolarSystemBarycenter, NAIFMercuryBarycenter}, {NAIFMercuryBarycenter, NAIFMercury}},
	Venus:               {{NAIFSolarSystemBarycenter, NAIFVenusBarycenter}, {NAIFVenusBarycenter, NAIFVenus}},
	EarthMoonBarycenter: {{NAIFSolarSystemBarycenter, NAIFEarthMoonBarycenter}},
	Earth:               {{NAIFSolarSystemBarycenter, NAIFEarthMoonBarycenter}, {NAIFEarthMoonBarycenter, NAIFEarth}},
	Moon:                {{NAIFSolarSystemBarycenter, NAIFEarthMoonBarycenter}, {NAIFEarthMoonBarycenter, NAIFMoon}},
	Mars:                {{NAIFSolarSystemBarycenter, NAIFMarsBarycenter}},
	Jupiter:             {{NAIFSolarSystemBarycenter, NAIFJupiterBarycenter}},
	Saturn:              {{NAIFSolarSystemBarycenter, NAIFSaturnBarycenter}},
	Uranus:              {{NAIFSolarSystemBarycenter, NAIFUranusBarycenter}},
	Neptune:             {{NAIFSolarSystemBarycenter, NAIFNeptuneBarycenter}},
	Pluto:               {{NAIFSolarSystemBarycenter, NAIFPlutoBarycenter}},
}

// Parse resolves a user-supplied name to a Body. Matching is
// case-insensitive and tolerates surrounding whitespace.
func Parse(name string) (Body, error) {
	b := Body(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := NameToKernelSpec[b]; ok {
		return b, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownBody, name)
}

// FromKernelSpec finds the body whose kernel chain matches spec. It is the
// inverse of NameToKernelSpec, used when callers pass a kernel specifier
// instead of a name.
func FromKernelSpec(spec KernelSpec) (Body, error) {
	for b, ks := range NameToKernelSpec {
		if equalSpecs(ks, spec) {
			return b, nil
		}
	}
	return "", fmt.Errorf("%w: no body for kernel spec %v", ErrUnknownBody, spec)
}

func equalSpecs(a, b KernelSpec) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// All lists every supported body in a stable order.
func All() []Body {
	return []Body{Sun, Mercury, Venus, Earth, Moon, Mars, Jupiter, Saturn, Uranus, Neptune, Pluto, EarthMoonBarycenter}
}
