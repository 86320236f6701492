// Package units carries the physical quantities the library passes around:
// angles, distances, and velocities, each with explicit-unit constructors and
// accessors so call sites never trade bare float64s in ambiguous units.
package units

import "math"

// AUKm is the astronomical unit in kilometres (IAU 2012 definition).
const AUKm = 149597870.7

// SpeedOfLightKmPerSec is the exact defined value of c.
const SpeedOfLightKmPerSec = 299792.458

// Angle is a plane angle, stored in radians.
type Angle float64

// Angle constructors.
func Radians(rad float64) Angle { return Angle(rad) }
func Degrees(deg float64) Angle { return Angle(deg * math.Pi / 180) }
func Arcsec(as float64) Angle   { return Angle(as / 3600 * math.Pi / 180) }

// Hours builds an angle from hours of right ascension (24h = 360°).
func Hours(h float64) Angle { return Degrees(h * 15) }

func (a Angle) Radians() float64 { return float64(a) }
func (a Angle) Degrees() float64 { return float64(a) * 180 / math.Pi }
func (a Angle) Arcsec() float64  { return a.Degrees() * 3600 }
func (a Angle) Hours() float64   { return a.Degrees() / 15 }

// Abs returns the magnitude of the angle.
func (a Angle) Abs() Angle {
	if a < 0 {
		return -a
	}
	return a
}

// Normalized maps the angle into [0, 2π).
func (a Angle) Normalized() Angle {
	r := math.Mod(float64(a), 2*math.Pi)
	if r < 0 {
		r += 2 * math.Pi
	}
	return Angle(r)
}

// Distance is a length, stored in kilometres.
type Distance float64

// Distance constructors.
func Kilometers(km float64) Distance { return Distance(km) }
func AU(au float64) Distance         { return Distance(au * AUKm) }

// LightMinutes builds a distance from one-way light travel time in minutes,
// the unit JPL Horizons reports range in.
func LightMinutes(min float64) Distance {
	return Distance(min * 60 * SpeedOfLightKmPerSec)
}

func (d Distance) Kilometers() float64 { return float64(d) }
func (d Distance) AU() float64         { return float64(d) / AUKm }

// LightMinutes returns the one-way light travel time in minutes.
func (d Distance) LightMinutes() float64 {
	return float64(d) / SpeedOfLightKmPerSec / 60
}

// Abs returns the magnitude of the distance.
func (d Distance) Abs() Distance {
	if d < 0 {
		return -d
	}
	return d
}

// Velocity is a speed, stored in kilometres per second.
type Velocity float64

func KilometersPerSecond(kms float64) Velocity { return Velocity(kms) }
func MetersPerSecond(ms float64) Velocity      { return Velocity(ms / 1000) }

func (v Velocity) KilometersPerSecond() float64 { return float64(v) }
func (v Velocity) MetersPerSecond() float64     { return float64(v) * 1000 }
