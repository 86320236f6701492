package frames

import (
	"math"
	"testing"

	"github.com/signalsfoundry/almanac/timescale"
	"github.com/signalsfoundry/almanac/units"
)

func TestMat3RoundTrip(t *testing.T) {
	m := rotZ(0.3).Mul(rotY(-1.1)).Mul(rotX(2.2))
	v := Vec3{X: 1, Y: -2, Z: 3}

	back := m.Transpose().MulVec(m.MulVec(v))
	if back.DistanceTo(v) > 1e-12 {
		t.Errorf("transpose did not invert rotation: got %+v, want %+v", back, v)
	}
	if got, want := m.MulVec(v).Norm(), v.Norm(); math.Abs(got-want) > 1e-12 {
		t.Errorf("rotation changed norm: %v -> %v", want, got)
	}
}

func TestVec3Cross(t *testing.T) {
	got := Vec3{X: 1}.Cross(Vec3{Y: 1})
	if got != (Vec3{Z: 1}) {
		t.Errorf("x cross y = %+v, want +z", got)
	}
}

func TestSeparationKnownAngles(t *testing.T) {
	frame := Geocentric(timescale.MustParse("2000-01-01 12:00"))
	a := NewSkyCoord(units.Degrees(0), units.Degrees(0), units.AU(1), frame)
	b := NewSkyCoord(units.Degrees(1), units.Degrees(0), units.AU(1), frame)
	pole := NewSkyCoord(units.Degrees(123), units.Degrees(90), units.AU(1), frame)

	if got := a.Separation(b).Degrees(); math.Abs(got-1) > 1e-9 {
		t.Errorf("equatorial 1 deg separation = %v", got)
	}
	if got := a.Separation(pole).Degrees(); math.Abs(got-90) > 1e-9 {
		t.Errorf("equator-to-pole separation = %v, want 90", got)
	}
	if got := a.Separation(a).Arcsec(); got > 1e-6 {
		t.Errorf("self separation = %v arcsec, want 0", got)
	}
}

func TestSeparation3D(t *testing.T) {
	frame := Geocentric(timescale.MustParse("2000-01-01 12:00"))
	a := NewSkyCoord(units.Degrees(0), units.Degrees(0), units.Kilometers(1000), frame)
	b := NewSkyCoord(units.Degrees(180), units.Degrees(0), units.Kilometers(1000), frame)
	if got := a.Separation3D(b).Kilometers(); math.Abs(got-2000) > 1e-9 {
		t.Errorf("antipodal separation = %v km, want 2000", got)
	}
}

func TestCartesianRoundTrip(t *testing.T) {
	frame := Geocentric(timescale.MustParse("1980-03-25 00:00"))
	in := NewSkyCoord(units.Hours(22.7), units.Degrees(-8.5), units.LightMinutes(6.3), frame)
	out := SkyCoordFromCartesian(in.Cartesian(), frame)
	if sep := in.Separation(out).Arcsec(); sep > 1e-8 {
		t.Errorf("round trip moved direction by %v arcsec", sep)
	}
	if diff := math.Abs(in.Distance.Kilometers() - out.Distance.Kilometers()); diff > 1e-6 {
		t.Errorf("round trip changed distance by %v km", diff)
	}
}

func TestMeanObliquityAtJ2000(t *testing.T) {
	want := 84381.448 * arcsecToRad
	if got := meanObliquity(0); math.Abs(got-want) > 1e-12 {
		t.Errorf("meanObliquity(0) = %v, want %v", got, want)
	}
}

func TestNutationMagnitude(t *testing.T) {
	for _, T := range []float64{-0.2, 0, 0.15} {
		dpsi, deps := nutation(T)
		if as := math.Abs(dpsi) / arcsecToRad; as == 0 || as > 20 {
			t.Errorf("T=%v: nutation in longitude = %v arcsec, want nonzero and < 20", T, as)
		}
		if as := math.Abs(deps) / arcsecToRad; as == 0 || as > 10 {
			t.Errorf("T=%v: nutation in obliquity = %v arcsec, want nonzero and < 10", T, as)
		}
	}
}

func TestGreenwichMeanSiderealTimeKnownValue(t *testing.T) {
	// Meeus example 12.a: 1987 April 10, 0h UT -> GMST 13h10m46.3668s.
	got := GreenwichMeanSiderealTime(timescale.MustParse("1987-04-10 00:00")).Degrees()
	want := 197.693195
	if math.Abs(got-want) > 0.001 {
		t.Errorf("GMST = %v deg, want %v", got, want)
	}
}

func TestApparentInTrueCoordinates(t *testing.T) {
	frame := Geocentric(timescale.MustParse("1980-03-25 00:00"))
	in := NewSkyCoord(units.Hours(10.3), units.Degrees(12), units.LightMinutes(37.7), frame)
	out := ApparentInTrueCoordinates(in)

	if out.Distance != in.Distance {
		t.Errorf("correction changed distance: %v -> %v km",
			in.Distance.Kilometers(), out.Distance.Kilometers())
	}
	// Twenty years of precession is roughly 0.28 degrees; the exact shift
	// depends on sky position but must stay in that neighbourhood.
	sep := in.Separation(out).Degrees()
	if sep < 0.05 || sep > 0.5 {
		t.Errorf("J2000->1980 correction moved direction by %v deg, want ~0.25", sep)
	}
	if out.Frame != in.Frame {
		t.Error("correction must keep the frame tag")
	}
}

func TestITRFPosVelToGCRS(t *testing.T) {
	ts := timescale.MustParse("2014-09-25T00:00")
	itrf := Vec3{X: 6378.137}

	pos, vel := ITRFPosVelToGCRS(ts, itrf)
	if got, want := pos.Norm(), itrf.Norm(); math.Abs(got-want) > 1e-9 {
		t.Errorf("rotation changed radius: %v -> %v km", want, got)
	}
	wantSpeed := EarthRotationRate * itrf.Norm()
	if got := vel.Norm(); math.Abs(got-wantSpeed) > 1e-6 {
		t.Errorf("equatorial rotation speed = %v km/s, want %v", got, wantSpeed)
	}
	if dot := math.Abs(pos.Dot(vel)); dot > 1e-6 {
		t.Errorf("velocity not perpendicular to position: dot = %v", dot)
	}
}
