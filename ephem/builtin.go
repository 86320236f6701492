package ephem

import (
	"fmt"
	"math"

	"github.com/signalsfoundry/almanac/body"
	"github.com/signalsfoundry/almanac/frames"
	"github.com/signalsfoundry/almanac/timescale"
	"github.com/signalsfoundry/almanac/units"
)

// obliquityJ2000Deg is the obliquity used to tilt ecliptic J2000 positions
// onto the equatorial frame (Standish 2006 value for the elements fit).
const obliquityJ2000Deg = 23.43928

// emRatio is the Earth/Moon mass ratio (DE430 value), used to place the
// Earth relative to the Earth-Moon barycenter.
const emRatio = 81.30056907419062

// keplerElements holds mean orbital elements at J2000 and their rates per
// Julian century: semi-major axis (AU), eccentricity, inclination,
// mean longitude, longitude of perihelion, longitude of ascending node
// (all angles in degrees).
type keplerElements struct {
	a, aDot float64
	e, eDot float64
	i, iDot float64
	l, lDot float64
	w, wDot float64 // longitude of perihelion
	o, oDot float64 // longitude of ascending node
}

// planetElements is the 1800-2050 fit of mean Keplerian elements from the
// JPL "Keplerian elements for approximate positions of the major planets"
// tables (Standish). The Earth row is the Earth-Moon barycenter.
var planetElements = map[body.Body]keplerElements{
	body.Mercury: {
		0.38709927, 0.00000037, 0.20563593, 0.00001906,
		7.00497902, -0.00594749, 252.25032350, 149472.67411175,
		77.45779628, 0.16047689, 48.33076593, -0.12534081,
	},
	body.Venus: {
		0.72333566, 0.00000390, 0.00677672, -0.00004107,
		3.39467605, -0.00078890, 181.97909950, 58517.81538729,
		131.60246718, 0.00268329, 76.67984255, -0.27769418,
	},
	body.EarthMoonBarycenter: {
		1.00000261, 0.00000562, 0.01671123, -0.00004392,
		-0.00001531, -0.01294668, 100.46457166, 35999.37244981,
		102.93768193, 0.32327364, 0, 0,
	},
	body.Mars: {
		1.52371034, 0.00001847, 0.09339410, 0.00007882,
		1.84969142, -0.00813131, -4.55343205, 19140.30268499,
		-23.94362959, 0.44441088, 49.55953891, -0.29257343,
	},
	body.Jupiter: {
		5.20288700, -0.00011607, 0.04838624, -0.00013253,
		1.30439695, -0.00183714, 34.39644051, 3034.74612775,
		14.72847983, 0.21252668, 100.47390909, 0.20469106,
	},
	body.Saturn: {
		9.53667594, -0.00125060, 0.05386179, -0.00050991,
		2.48599187, 0.00193609, 49.95424423, 1222.49362201,
		92.59887831, -0.41897216, 113.66242448, -0.28867794,
	},
	body.Uranus: {
		19.18916464, -0.00196176, 0.04725744, -0.00004397,
		0.77263783, -0.00242939, 313.23810451, 428.48202785,
		170.95427630, 0.40805281, 74.01692503, 0.04240589,
	},
	body.Neptune: {
		30.06992276, 0.00026291, 0.00859048, 0.00005105,
		1.77004347, 0.00035372, -55.12002969, 218.45945325,
		44.96476227, -0.32241464, 131.78422574, -0.00508664,
	},
	body.Pluto: {
		39.48211675, -0.00031596, 0.24882730, 0.00005170,
		17.14001206, 0.00004818, 238.92903833, 145.20780515,
		224.06891629, -0.04062942, 110.30393684, -0.01183482,
	},
}

// reflexOrder fixes the summation order of the Sun's barycentric reflex.
// Float addition is not associative, so iterating the elements map would
// make repeated evaluations bit-different.
var reflexOrder = []body.Body{
	body.Mercury, body.Venus, body.EarthMoonBarycenter, body.Mars,
	body.Jupiter, body.Saturn, body.Uranus, body.Neptune, body.Pluto,
}

// reciprocalMass is 1/mass in solar masses, used to place the Sun relative
// to the solar-system barycenter. The Earth entry is the Earth-Moon system.
var reciprocalMass = map[body.Body]float64{
	body.Mercury:             6023600,
	body.Venus:               408523.71,
	body.EarthMoonBarycenter: 328900.56,
	body.Mars:                3098708,
	body.Jupiter:             1047.3486,
	body.Saturn:              3497.898,
	body.Uranus:              22902.98,
	body.Neptune:             19412.24,
	body.Pluto:               1.352e8,
}

// BuiltinSource is the built-in low-precision analytic ephemeris: Keplerian
// mean elements for the planets and a truncated lunar series for the Moon.
// It needs no data files and covers roughly 1800-2050 at arcminute-level
// accuracy.
type BuiltinSource struct{}

// NewBuiltinSource returns the analytic source.
func NewBuiltinSource() *BuiltinSource { return &BuiltinSource{} }

// Name implements Source.
func (s *BuiltinSource) Name() string { return Builtin }

// BarycentricPosVel implements Source. The Moon's state carries no
// velocity: the truncated lunar series is position-only.
func (s *BuiltinSource) BarycentricPosVel(b body.Body, t timescale.Time) (State, error) {
	T := t.JulianCenturies()

	switch b {
	case body.Sun:
		pos, vel := sunBarycentric(T)
		return State{Pos: pos, Vel: &vel}, nil

	case body.Earth:
		pos, vel := earthBarycentric(t)
		return State{Pos: pos, Vel: &vel}, nil

	case body.Moon:
		earthPos, _ := earthBarycentric(t)
		pos := earthPos.Add(moonGeocentric(t))
		return State{Pos: pos}, nil

	default:
		el, ok := planetElements[b]
		if !ok {
			return State{}, fmt.Errorf("builtin ephemeris: %w: %q", body.ErrUnknownBody, b)
		}
		sunPos, sunVel := sunBarycentric(T)
		pos, vel := helioKepler(el, T)
		vel = vel.Add(sunVel)
		pos = pos.Add(sunPos)
		return State{Pos: pos, Vel: &vel}, nil
	}
}

// earthBarycentric offsets the Earth-Moon barycenter by the lunar position.
// The Moon-induced wobble in velocity (~12 m/s) is below the accuracy of
// the planetary theory and is not modelled.
func earthBarycentric(t timescale.Time) (pos, vel frames.Vec3) {
	T := t.JulianCenturies()
	sunPos, sunVel := sunBarycentric(T)
	embPos, embVel := helioKepler(planetElements[body.EarthMoonBarycenter], T)
	pos = sunPos.Add(embPos).Sub(moonGeocentric(t).Scale(1 / (1 + emRatio)))
	vel = sunVel.Add(embVel)
	return pos, vel
}

// sunBarycentric places the Sun relative to the solar-system barycenter as
// the mass-weighted reflex of the planetary positions.
func sunBarycentric(T float64) (pos, vel frames.Vec3) {
	var massSum float64
	for _, b := range reflexOrder {
		m := 1 / reciprocalMass[b]
		p, v := helioKepler(planetElements[b], T)
		pos = pos.Add(p.Scale(m))
		vel = vel.Add(v.Scale(m))
		massSum += m
	}
	scale := -1 / (1 + massSum)
	return pos.Scale(scale), vel.Scale(scale)
}

// helioKepler evaluates mean elements at T centuries past J2000 and returns
// the heliocentric position (km) and velocity (km/s) on mean-equator J2000
// axes.
func helioKepler(el keplerElements, T float64) (pos, vel frames.Vec3) {
	a := el.a + el.aDot*T
	e := el.e + el.eDot*T
	inc := (el.i + el.iDot*T) * degRad
	l := el.l + el.lDot*T
	wBar := el.w + el.wDot*T
	node := (el.o + el.oDot*T) * degRad

	m := math.Mod(l-wBar, 360) * degRad
	w := (wBar * degRad) - node

	ecc := solveKepler(m, e)
	sinE, cosE := math.Sincos(ecc)
	rootOneMinusE2 := math.Sqrt(1 - e*e)

	// Orbital-plane coordinates and their rates. Element rates other than
	// the mean longitude contribute below the theory's accuracy and are
	// dropped from the derivative.
	xp := a * (cosE - e)
	yp := a * rootOneMinusE2 * sinE

	mDot := (el.lDot - el.wDot) * degRad / timescale.DaysPerJulianCentury // rad/day
	eDot := mDot / (1 - e*cosE)
	xpDot := -a * sinE * eDot
	ypDot := a * rootOneMinusE2 * cosE * eDot

	sinW, cosW := math.Sincos(w)
	sinO, cosO := math.Sincos(node)
	sinI, cosI := math.Sincos(inc)

	// Rotation from the orbital plane to the J2000 ecliptic.
	r11 := cosW*cosO - sinW*sinO*cosI
	r12 := -sinW*cosO - cosW*sinO*cosI
	r21 := cosW*sinO + sinW*cosO*cosI
	r22 := -sinW*sinO + cosW*cosO*cosI
	r31 := sinW * sinI
	r32 := cosW * sinI

	ecl := frames.Vec3{X: r11*xp + r12*yp, Y: r21*xp + r22*yp, Z: r31*xp + r32*yp}
	eclDot := frames.Vec3{X: r11*xpDot + r12*ypDot, Y: r21*xpDot + r22*ypDot, Z: r31*xpDot + r32*ypDot}

	kmPos := eclipticToEquatorial(ecl).Scale(units.AUKm)
	kmVel := eclipticToEquatorial(eclDot).Scale(units.AUKm / 86400)
	return kmPos, kmVel
}

// solveKepler solves E - e sin E = M by Newton iteration.
func solveKepler(m, e float64) float64 {
	ecc := m
	if e > 0.8 {
		ecc = math.Pi
	}
	for i := 0; i < 30; i++ {
		delta := (ecc - e*math.Sin(ecc) - m) / (1 - e*math.Cos(ecc))
		ecc -= delta
		if math.Abs(delta) < 1e-13 {
			break
		}
	}
	return ecc
}

const degRad = math.Pi / 180

// eclipticToEquatorial tilts an ecliptic-J2000 vector onto the equatorial
// frame.
func eclipticToEquatorial(v frames.Vec3) frames.Vec3 {
	sinE, cosE := math.Sincos(obliquityJ2000Deg * degRad)
	return frames.Vec3{
		X: v.X,
		Y: v.Y*cosE - v.Z*sinE,
		Z: v.Y*sinE + v.Z*cosE,
	}
}
