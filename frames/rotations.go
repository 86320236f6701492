package frames

import (
	"math"

	"github.com/signalsfoundry/almanac/timescale"
	"github.com/signalsfoundry/almanac/units"
)

const (
	degToRad    = math.Pi / 180
	arcsecToRad = degToRad / 3600

	// EarthRotationRate is the mean rotation rate of the Earth in rad/s.
	EarthRotationRate = 7.292115855e-5
)

// meanObliquity returns the mean obliquity of the ecliptic in radians for T
// Julian centuries TT since J2000 (IAU 1980 expression).
func meanObliquity(T float64) float64 {
	eps := 84381.448 + T*(-46.8150+T*(-0.00059+T*0.001813))
	return eps * arcsecToRad
}

// precessionMatrix returns the rotation from the mean equator and equinox of
// J2000 to the mean equator and equinox of date (IAU 1976 angles).
func precessionMatrix(T float64) Mat3 {
	zeta := (2306.2181 + T*(0.30188+T*0.017998)) * T * arcsecToRad
	z := (2306.2181 + T*(1.09468+T*0.018203)) * T * arcsecToRad
	theta := (2004.3109 + T*(-0.42665-T*0.041833)) * T * arcsecToRad
	return rotZ(-z).Mul(rotY(theta)).Mul(rotZ(-zeta))
}

// nutationTerm is one term of the truncated IAU 1980 nutation series.
// Coefficients are in units of 0.0001 arcsec (and 0.0001 arcsec per
// century for the T-dependent parts).
type nutationTerm struct {
	d, m, mp, f, om int
	psi, psiT       float64
	eps, epsT       float64
}

// nutationSeries keeps every term of the 1980 theory with a longitude
// coefficient of at least 0.0015 arcsec; the truncation error stays below
// about 0.003 arcsec, far inside the accuracy of the built-in ephemeris.
var nutationSeries = []nutationTerm{
	{0, 0, 0, 0, 1, -171996, -174.2, 92025, 8.9},
	{-2, 0, 0, 2, 2, -13187, -1.6, 5736, -3.1},
	{0, 0, 0, 2, 2, -2274, -0.2, 977, -0.5},
	{0, 0, 0, 0, 2, 2062, 0.2, -895, 0.5},
	{0, 1, 0, 0, 0, 1426, -3.4, 54, -0.1},
	{0, 0, 1, 0, 0, 712, 0.1, -7, 0},
	{-2, 1, 0, 2, 2, -517, 1.2, 224, -0.6},
	{0, 0, 0, 2, 1, -386, -0.4, 200, 0},
	{0, 0, 1, 2, 2, -301, 0, 129, -0.1},
	{-2, -1, 0, 2, 2, 217, -0.5, -95, 0.3},
	{-2, 0, 1, 0, 0, -158, 0, 0, 0},
	{-2, 0, 0, 2, 1, 129, 0.1, -70, 0},
	{0, 0, -1, 2, 2, 123, 0, -53, 0},
	{2, 0, 0, 0, 0, 63, 0, 0, 0},
	{0, 0, 1, 0, 1, 63, 0.1, -33, 0},
	{2, 0, -1, 2, 2, -59, 0, 26, 0},
	{0, 0, -1, 0, 1, -58, -0.1, 32, 0},
	{0, 0, 1, 2, 1, -51, 0, 27, 0},
	{-2, 0, 2, 0, 0, 48, 0, 0, 0},
	{0, 0, -2, 2, 1, 46, 0, -24, 0},
	{2, 0, 0, 2, 2, -38, 0, 16, 0},
	{0, 0, 2, 2, 2, -31, 0, 13, 0},
	{0, 0, 2, 0, 0, 29, 0, 0, 0},
	{-2, 0, 1, 2, 2, 29, 0, -12, 0},
	{0, 0, 0, 2, 0, 26, 0, 0, 0},
	{-2, 0, 0, 2, 0, -22, 0, 0, 0},
	{0, 0, -1, 2, 1, 21, 0, -10, 0},
	{0, 2, 0, 0, 0, 17, -0.1, 0, 0},
	{2, 0, -1, 0, 1, 16, 0, -8, 0},
	{-2, 2, 0, 2, 2, -16, 0.1, 7, 0},
	{0, 1, 0, 0, 1, -15, 0, 9, 0},
}

// nutation returns the nutation in longitude and obliquity (radians) for T
// Julian centuries TT since J2000.
func nutation(T float64) (dpsi, deps float64) {
	// Delaunay arguments, degrees (Meeus ch. 22).
	d := 297.85036 + T*(445267.111480+T*(-0.0019142+T/189474))
	m := 357.52772 + T*(35999.050340+T*(-0.0001603-T/300000))
	mp := 134.96298 + T*(477198.867398+T*(0.0086972+T/56250))
	f := 93.27191 + T*(483202.017538+T*(-0.0036825+T/327270))
	om := 125.04452 + T*(-1934.136261+T*(0.0020708+T/450000))

	for _, term := range nutationSeries {
		arg := (float64(term.d)*d + float64(term.m)*m + float64(term.mp)*mp +
			float64(term.f)*f + float64(term.om)*om) * degToRad
		s, c := math.Sincos(arg)
		dpsi += (term.psi + term.psiT*T) * s
		deps += (term.eps + term.epsT*T) * c
	}
	// Series units are 0.0001 arcsec.
	dpsi *= 1e-4 * arcsecToRad
	deps *= 1e-4 * arcsecToRad
	return dpsi, deps
}

// nutationMatrix returns the rotation from the mean to the true equator and
// equinox of date.
func nutationMatrix(T float64) Mat3 {
	eps := meanObliquity(T)
	dpsi, deps := nutation(T)
	return rotX(-(eps + deps)).Mul(rotZ(-dpsi)).Mul(rotX(eps))
}

// trueOfDateMatrix returns the rotation from the mean equator and equinox of
// J2000 to the true equator and equinox of the given instant.
func trueOfDateMatrix(t timescale.Time) Mat3 {
	T := t.JulianCenturies()
	return nutationMatrix(T).Mul(precessionMatrix(T))
}

// EclipticOfDateToJ2000 returns the rotation taking vectors from the mean
// ecliptic and equinox of date to the mean equator and equinox of J2000.
// Ephemeris theories expressed in ecliptic-of-date coordinates (the lunar
// series) use it to reach the frame the rest of the pipeline works in.
func EclipticOfDateToJ2000(t timescale.Time) Mat3 {
	T := t.JulianCenturies()
	return precessionMatrix(T).Transpose().Mul(rotX(-meanObliquity(T)))
}

// GreenwichMeanSiderealTime returns GMST (IAU 1982 expression) for the
// instant, using UTC as the UT1 approximation.
func GreenwichMeanSiderealTime(t timescale.Time) units.Angle {
	jd := t.JulianUTC()
	T := (jd - timescale.J2000) / timescale.DaysPerJulianCentury
	gmst := 280.46061837 +
		360.98564736629*(jd-timescale.J2000) +
		T*T*(0.000387933-T/38710000)
	return units.Degrees(gmst).Normalized()
}

// GreenwichApparentSiderealTime returns GAST, GMST corrected by the equation
// of the equinoxes.
func GreenwichApparentSiderealTime(t timescale.Time) units.Angle {
	T := t.JulianCenturies()
	dpsi, deps := nutation(T)
	eqeq := dpsi * math.Cos(meanObliquity(T)+deps)
	return (GreenwichMeanSiderealTime(t) + units.Radians(eqeq)).Normalized()
}

// ITRFPosVelToGCRS rotates an Earth-fixed position into GCRS axes and
// derives the velocity the point has from Earth rotation. The position is
// in kilometres; the returned velocity is in km/s.
func ITRFPosVelToGCRS(t timescale.Time, itrf Vec3) (pos, vel Vec3) {
	gast := GreenwichApparentSiderealTime(t).Radians()
	tod := trueOfDateMatrix(t).Transpose()

	rTOD := rotZ(-gast).MulVec(itrf)
	omega := Vec3{Z: EarthRotationRate}
	vTOD := omega.Cross(rTOD)

	return tod.MulVec(rTOD), tod.MulVec(vTOD)
}
