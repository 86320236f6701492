// Package earth models observer locations on the WGS84 ellipsoid and their
// motion through the geocentric celestial frame.
package earth

import (
	"math"

	"github.com/signalsfoundry/almanac/frames"
	"github.com/signalsfoundry/almanac/timescale"
	"github.com/signalsfoundry/almanac/units"
)

// WGS84 ellipsoid constants.
const (
	EquatorialRadiusKm = 6378.137
	Flattening         = 1 / 298.257223563
)

// Location is a geodetic observer position: longitude (east positive),
// latitude (north positive), and height above the WGS84 ellipsoid.
type Location struct {
	Lon    units.Angle
	Lat    units.Angle
	Height units.Distance
}

// FromGeodetic builds a Location from geodetic coordinates.
func FromGeodetic(lon, lat units.Angle, height units.Distance) Location {
	return Location{Lon: lon, Lat: lat, Height: height}
}

// ITRF returns the Earth-fixed geocentric position of the location in
// kilometres.
func (l Location) ITRF() frames.Vec3 {
	sinLat, cosLat := math.Sincos(l.Lat.Radians())
	sinLon, cosLon := math.Sincos(l.Lon.Radians())

	e2 := Flattening * (2 - Flattening)
	n := EquatorialRadiusKm / math.Sqrt(1-e2*sinLat*sinLat)
	h := l.Height.Kilometers()

	return frames.Vec3{
		X: (n + h) * cosLat * cosLon,
		Y: (n + h) * cosLat * sinLon,
		Z: (n*(1-e2) + h) * sinLat,
	}
}

// GCRSPosVel returns the observer's position (km) and velocity (km/s) on
// GCRS axes at the given instant. The velocity is the Earth-rotation term
// only; orbital motion about the Sun belongs to the frame's origin, not the
// observer offset.
func (l Location) GCRSPosVel(t timescale.Time) (pos, vel frames.Vec3) {
	return frames.ITRFPosVelToGCRS(t, l.ITRF())
}

// Frame returns the topocentric GCRS frame of this location at t.
func (l Location) Frame(t timescale.Time) frames.GCRS {
	pos, vel := l.GCRSPosVel(t)
	return frames.Topocentric(t, pos, vel)
}
