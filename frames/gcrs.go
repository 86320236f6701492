// Package frames holds the geocentric celestial frame, sky coordinates
// expressed in it, and the equator/equinox rotations connecting J2000 to the
// true frame of date. Only the rotations the position pipeline needs exist
// here; this is not a general frame-graph machinery.
package frames

import (
	"math"

	"github.com/signalsfoundry/almanac/timescale"
	"github.com/signalsfoundry/almanac/units"
)

// GCRS is a geocentric celestial frame parameterized by observation time
// and, optionally, the observer's geocentric position and velocity. Zero
// ObsGeoLoc/ObsGeoVel mean a geocentric observer.
type GCRS struct {
	Obstime   timescale.Time
	ObsGeoLoc Vec3 // km, GCRS axes
	ObsGeoVel Vec3 // km/s, GCRS axes
}

// Geocentric builds the frame of a geocentric observer at t.
func Geocentric(t timescale.Time) GCRS {
	return GCRS{Obstime: t}
}

// Topocentric builds the frame of an observer offset from the geocenter.
func Topocentric(t timescale.Time, loc, vel Vec3) GCRS {
	return GCRS{Obstime: t, ObsGeoLoc: loc, ObsGeoVel: vel}
}

// IsGeocentric reports whether the frame has no observer offset.
func (f GCRS) IsGeocentric() bool {
	return f.ObsGeoLoc == (Vec3{}) && f.ObsGeoVel == (Vec3{})
}

// SkyCoord is a direction and distance on the sky, tagged with the frame it
// is expressed in.
type SkyCoord struct {
	RA       units.Angle
	Dec      units.Angle
	Distance units.Distance
	Frame    GCRS
}

// NewSkyCoord assembles a coordinate from spherical components.
func NewSkyCoord(ra, dec units.Angle, dist units.Distance, frame GCRS) SkyCoord {
	return SkyCoord{RA: ra.Normalized(), Dec: dec, Distance: dist, Frame: frame}
}

// SkyCoordFromCartesian converts a frame-axes vector in kilometres to
// spherical components.
func SkyCoordFromCartesian(v Vec3, frame GCRS) SkyCoord {
	r := v.Norm()
	dec := 0.0
	if r > 0 {
		dec = math.Asin(v.Z / r)
	}
	ra := math.Atan2(v.Y, v.X)
	return SkyCoord{
		RA:       units.Radians(ra).Normalized(),
		Dec:      units.Radians(dec),
		Distance: units.Kilometers(r),
		Frame:    frame,
	}
}

// Cartesian returns the coordinate as a vector in kilometres on the frame
// axes.
func (c SkyCoord) Cartesian() Vec3 {
	sd, cd := math.Sincos(c.Dec.Radians())
	sa, ca := math.Sincos(c.RA.Radians())
	r := c.Distance.Kilometers()
	return Vec3{X: r * cd * ca, Y: r * cd * sa, Z: r * sd}
}

// Separation returns the on-sky angle between two coordinates, using the
// Vincenty formula for stability at all separations.
func (c SkyCoord) Separation(other SkyCoord) units.Angle {
	sd1, cd1 := math.Sincos(c.Dec.Radians())
	sd2, cd2 := math.Sincos(other.Dec.Radians())
	dra := other.RA.Radians() - c.RA.Radians()
	sr, cr := math.Sincos(dra)

	num := math.Hypot(cd2*sr, cd1*sd2-sd1*cd2*cr)
	den := sd1*sd2 + cd1*cd2*cr
	return units.Radians(math.Atan2(num, den))
}

// Separation3D returns the straight-line distance between the two
// coordinates' cartesian positions.
func (c SkyCoord) Separation3D(other SkyCoord) units.Distance {
	return units.Kilometers(c.Cartesian().DistanceTo(other.Cartesian()))
}

// ApparentInTrueCoordinates re-expresses an apparent GCRS coordinate on the
// true equator and equinox of its observation time, the convention JPL
// Horizons reports apparent places in. The rotation preserves distance
// exactly.
func ApparentInTrueCoordinates(c SkyCoord) SkyCoord {
	rotated := trueOfDateMatrix(c.Frame.Obstime).MulVec(c.Cartesian())
	out := SkyCoordFromCartesian(rotated, c.Frame)
	// Spherical conversion rebuilds the norm; pin the original distance so
	// the rotation is exactly length-preserving for callers comparing
	// distances bit-for-bit.
	out.Distance = c.Distance
	return out
}
