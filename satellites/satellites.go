// Package satellites propagates Earth satellites from two-line element sets
// and expresses them in the same observer frames the solar-system pipeline
// uses, so a tracked satellite and a tracked planet are directly comparable.
package satellites

import (
	"fmt"
	"math"
	"strings"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/signalsfoundry/almanac/earth"
	"github.com/signalsfoundry/almanac/frames"
	"github.com/signalsfoundry/almanac/timescale"
	"github.com/signalsfoundry/almanac/units"
)

// Satellite is an SGP4-propagatable satellite built from a TLE.
type Satellite struct {
	name string
	sat  satellite.Satellite
}

// FromTLE builds a satellite from the two element lines. The name is
// informational; pass "" for anonymous element sets.
func FromTLE(name, line1, line2 string) (*Satellite, error) {
	line1 = strings.TrimSpace(line1)
	line2 = strings.TrimSpace(line2)
	if !strings.HasPrefix(line1, "1 ") || !strings.HasPrefix(line2, "2 ") {
		return nil, fmt.Errorf("malformed TLE for %q: lines must start with \"1 \" and \"2 \"", name)
	}
	sat := satellite.TLEToSat(line1, line2, satellite.GravityWGS72)
	return &Satellite{name: name, sat: sat}, nil
}

// Name returns the satellite's display name.
func (s *Satellite) Name() string { return s.name }

// ECIPosVel propagates the satellite to t and returns its position (km) and
// velocity (km/s) in the true-equator ECI frame of date.
func (s *Satellite) ECIPosVel(t timescale.Time) (pos, vel frames.Vec3) {
	ut := t.UTC()
	p, v := satellite.Propagate(s.sat, ut.Year(), int(ut.Month()), ut.Day(),
		ut.Hour(), ut.Minute(), ut.Second())
	return frames.Vec3{X: p.X, Y: p.Y, Z: p.Z}, frames.Vec3{X: v.X, Y: v.Y, Z: v.Z}
}

// ITRF propagates the satellite to t and returns its Earth-fixed position
// in kilometres.
func (s *Satellite) ITRF(t timescale.Time) frames.Vec3 {
	pos, _ := s.ECIPosVel(t)
	gmst := frames.GreenwichMeanSiderealTime(t)
	sg, cg := math.Sincos(gmst.Radians())
	// ECI of date -> Earth-fixed is a rotation about the pole by GMST.
	return frames.Vec3{
		X: cg*pos.X + sg*pos.Y,
		Y: -sg*pos.X + cg*pos.Y,
		Z: pos.Z,
	}
}

// Observe returns the satellite as a sky coordinate in the observer's
// frame at t, with range, azimuth, and elevation. A nil location means a
// geocentric observer with zero azimuth/elevation information.
func (s *Satellite) Observe(t timescale.Time, loc *earth.Location) Observation {
	satITRF := s.ITRF(t)

	if loc == nil {
		pos, _ := frames.ITRFPosVelToGCRS(t, satITRF)
		return Observation{
			Coord: frames.SkyCoordFromCartesian(pos, frames.Geocentric(t)),
			Range: units.Kilometers(pos.Norm()),
		}
	}

	obsITRF := loc.ITRF()
	relITRF := satITRF.Sub(obsITRF)

	relGCRS, _ := frames.ITRFPosVelToGCRS(t, relITRF)
	obsPos, obsVel := loc.GCRSPosVel(t)
	coord := frames.SkyCoordFromCartesian(relGCRS, frames.Topocentric(t, obsPos, obsVel))

	az, el := topocentricAzEl(relITRF, loc)
	return Observation{
		Coord:     coord,
		Range:     units.Kilometers(relITRF.Norm()),
		Azimuth:   az,
		Elevation: el,
	}
}

// Observation is a satellite as seen by an observer at one instant.
type Observation struct {
	Coord     frames.SkyCoord
	Range     units.Distance
	Azimuth   units.Angle // from north through east; zero for geocentric observers
	Elevation units.Angle // above the geodetic horizon; zero for geocentric observers
}

// Visible reports whether the satellite is above the horizon.
func (o Observation) Visible() bool { return o.Elevation > 0 }

// topocentricAzEl rotates an Earth-fixed offset into the observer's
// east-north-up frame and reads off azimuth and elevation.
func topocentricAzEl(relITRF frames.Vec3, loc *earth.Location) (az, el units.Angle) {
	sinLat, cosLat := math.Sincos(loc.Lat.Radians())
	sinLon, cosLon := math.Sincos(loc.Lon.Radians())

	east := -sinLon*relITRF.X + cosLon*relITRF.Y
	north := -sinLat*cosLon*relITRF.X - sinLat*sinLon*relITRF.Y + cosLat*relITRF.Z
	up := cosLat*cosLon*relITRF.X + cosLat*sinLon*relITRF.Y + sinLat*relITRF.Z

	az = units.Radians(math.Atan2(east, north)).Normalized()
	el = units.Radians(math.Atan2(up, math.Hypot(east, north)))
	return az, el
}

// Track samples observations from start to end every stepDays.
func (s *Satellite) Track(start, end timescale.Time, stepDays float64, loc *earth.Location) []Observation {
	var out []Observation
	for _, t := range timescale.Range(start, end, stepDays) {
		out = append(out, s.Observe(t, loc))
	}
	return out
}
