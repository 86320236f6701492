package earth

import (
	"math"
	"testing"

	"github.com/signalsfoundry/almanac/timescale"
	"github.com/signalsfoundry/almanac/units"
)

func kittPeak() Location {
	return FromGeodetic(
		units.Degrees(-111.6),
		units.Degrees(31.963333333333342),
		units.Kilometers(2.120),
	)
}

func TestITRFPoles(t *testing.T) {
	north := FromGeodetic(units.Degrees(0), units.Degrees(90), 0).ITRF()
	polarRadius := EquatorialRadiusKm * (1 - Flattening)
	if math.Abs(north.Z-polarRadius) > 1e-6 || math.Abs(north.X) > 1e-6 || math.Abs(north.Y) > 1e-6 {
		t.Errorf("north pole ITRF = %+v, want (0, 0, %v)", north, polarRadius)
	}

	equator := FromGeodetic(units.Degrees(0), units.Degrees(0), 0).ITRF()
	if math.Abs(equator.X-EquatorialRadiusKm) > 1e-6 {
		t.Errorf("equator ITRF X = %v, want %v", equator.X, EquatorialRadiusKm)
	}
}

func TestITRFKittPeak(t *testing.T) {
	itrf := kittPeak().ITRF()

	// Geocentric radius at latitude 32 degrees sits between the polar and
	// equatorial radii, plus the 2.1 km site elevation.
	r := itrf.Norm()
	if r < EquatorialRadiusKm*(1-Flattening) || r > EquatorialRadiusKm+3 {
		t.Errorf("geocentric radius = %v km out of plausible range", r)
	}
	if itrf.Z < 0 {
		t.Error("northern site has negative Z")
	}
	// West longitude puts the site at negative Y.
	if itrf.Y > 0 {
		t.Error("longitude -111.6 deg should give negative Y")
	}
}

func TestGCRSPosVel(t *testing.T) {
	ts := timescale.MustParse("2014-09-25T00:00")
	pos, vel := kittPeak().GCRSPosVel(ts)

	if got, want := pos.Norm(), kittPeak().ITRF().Norm(); math.Abs(got-want) > 1e-6 {
		t.Errorf("GCRS position norm = %v, want %v", got, want)
	}

	// Rotation speed at latitude phi is roughly omega * r * cos(phi):
	// about 0.394 km/s at Kitt Peak.
	speed := vel.Norm()
	if speed < 0.37 || speed > 0.42 {
		t.Errorf("observer speed = %v km/s, want ~0.394", speed)
	}
}

func TestFrameTopocentric(t *testing.T) {
	ts := timescale.MustParse("2014-09-25T00:00")
	frame := kittPeak().Frame(ts)
	if frame.IsGeocentric() {
		t.Error("Kitt Peak frame reported as geocentric")
	}
	if frame.Obstime != ts {
		t.Error("frame obstime mismatch")
	}
}
