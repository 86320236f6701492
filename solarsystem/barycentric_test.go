package solarsystem

import (
	"errors"
	"math"
	"testing"

	"github.com/signalsfoundry/almanac/ephem"
	"github.com/signalsfoundry/almanac/timescale"
	"github.com/signalsfoundry/almanac/units"
)

var equinox2016 = timescale.MustParse("2016-03-20T12:30:00")

// The position-only query is exactly the position component of the
// position-velocity query, not a reimplementation that could drift.
func TestBarycentricPositionMatchesPosVel(t *testing.T) {
	for _, name := range []string{"mercury", "earth", "jupiter", "sun"} {
		pos, err := GetBodyBarycentric(name, equinox2016)
		if err != nil {
			t.Fatalf("GetBodyBarycentric(%s) error: %v", name, err)
		}
		pvPos, _, err := GetBodyBarycentricPosVel(name, equinox2016)
		if err != nil {
			t.Fatalf("GetBodyBarycentricPosVel(%s) error: %v", name, err)
		}
		if pos != pvPos {
			t.Errorf("%s: position-only and posvel positions differ: %v vs %v", name, pos, pvPos)
		}
	}
}

// The builtin lunar series is position-only: the velocity query fails with
// the sentinel while the position query still succeeds.
func TestMoonBuiltinVelocityUnavailable(t *testing.T) {
	if _, _, err := GetBodyBarycentricPosVel("moon", equinox2016); !errors.Is(err, ephem.ErrNoVelocity) {
		t.Errorf("GetBodyBarycentricPosVel(moon) error = %v, want ErrNoVelocity", err)
	}

	pos, err := GetBodyBarycentric("moon", equinox2016)
	if err != nil {
		t.Fatalf("GetBodyBarycentric(moon) error: %v", err)
	}
	earthPos, err := GetBodyBarycentric("earth", equinox2016)
	if err != nil {
		t.Fatalf("GetBodyBarycentric(earth) error: %v", err)
	}
	r := units.Kilometers(pos.Sub(earthPos).Norm())
	if r < units.Kilometers(356000) || r > units.Kilometers(407000) {
		t.Errorf("geocentric moon distance = %.0f km, outside the lunar orbit range", r.Kilometers())
	}
}

// At the March equinox the Earth sits near (-1, 0, 0) AU and moves along
// -y tilted by the obliquity of the ecliptic.
func TestEarthBarycentricAtMarchEquinox(t *testing.T) {
	pos, vel, err := GetBodyBarycentricPosVel("earth", equinox2016)
	if err != nil {
		t.Fatalf("GetBodyBarycentricPosVel(earth) error: %v", err)
	}

	posAU := pos.Scale(1 / units.AUKm)
	wantPos := [3]float64{-1, 0, 0}
	for i, got := range [3]float64{posAU.X, posAU.Y, posAU.Z} {
		if math.Abs(got-wantPos[i]) > 0.01 {
			t.Errorf("position[%d] = %.4f AU, want %.0f +/- 0.01", i, got, wantPos[i])
		}
	}

	// ~30 km/s along -y of the ecliptic, split by the obliquity.
	eps := 23.5 * math.Pi / 180
	wantVel := [3]float64{0, -30 * math.Cos(eps), -30 * math.Sin(eps)}
	for i, got := range [3]float64{vel.X, vel.Y, vel.Z} {
		if math.Abs(got-wantVel[i]) > 1 {
			t.Errorf("velocity[%d] = %.2f km/s, want %.2f +/- 1", i, got, wantVel[i])
		}
	}
}

// Half-Julian-year sampling from an equinox alternates the Earth between
// the -x and +x sides of its orbit; the series query preserves length and
// order.
func TestEarthBarycentricSeriesAlternates(t *testing.T) {
	times := timescale.Range(equinox2016, equinox2016.AddJulianYears(4), timescale.DaysPerJulianYear/2)
	if len(times) != 8 {
		t.Fatalf("len(times) = %d, want 8", len(times))
	}

	pos, vel, err := GetBodyBarycentricPosVelSeries("earth", times)
	if err != nil {
		t.Fatalf("GetBodyBarycentricPosVelSeries(earth) error: %v", err)
	}
	if len(pos) != len(times) || len(vel) != len(times) {
		t.Fatalf("series lengths = %d, %d, want %d", len(pos), len(vel), len(times))
	}

	eps := 23.5 * math.Pi / 180
	for i := range times {
		side := -1.0
		if i%2 == 1 {
			side = 1
		}
		if got := pos[i].X / units.AUKm; math.Abs(got-side) > 0.06 {
			t.Errorf("sample %d: x = %.4f AU, want %.0f +/- 0.06", i, got, side)
		}
		if got := vel[i].Y; math.Abs(got-side*30*math.Cos(eps)) > 2 {
			t.Errorf("sample %d: vy = %.2f km/s, want %.2f +/- 2", i, got, side*30*math.Cos(eps))
		}
	}
}

// The positions-only series matches the posvel series element by element.
func TestBarycentricSeriesConsistent(t *testing.T) {
	times := timescale.Range(equinox2016, equinox2016.AddDays(30), 10)
	pos, err := GetBodyBarycentricSeries("jupiter", times)
	if err != nil {
		t.Fatalf("GetBodyBarycentricSeries error: %v", err)
	}
	pvPos, _, err := GetBodyBarycentricPosVelSeries("jupiter", times)
	if err != nil {
		t.Fatalf("GetBodyBarycentricPosVelSeries error: %v", err)
	}
	if len(pos) != len(times) {
		t.Fatalf("len(pos) = %d, want %d", len(pos), len(times))
	}
	for i := range pos {
		if pos[i] != pvPos[i] {
			t.Errorf("sample %d: series positions differ: %v vs %v", i, pos[i], pvPos[i])
		}
	}
}
