package ephem

import (
	"math"

	"github.com/signalsfoundry/almanac/frames"
	"github.com/signalsfoundry/almanac/timescale"
)

// The lunar theory is the truncated ELP-2000/82 series as tabulated in
// Meeus, Astronomical Algorithms (2nd ed.), ch. 47: about 10 arcsec in
// longitude and 4 arcsec in latitude over a few centuries around J2000.

// lunarTerm is one periodic term. The argument is d*D + m*M + mp*M' + f*F
// with the Delaunay arguments below; l and r are the sine coefficient for
// longitude (1e-6 degree) and the cosine coefficient for distance (1e-3 km);
// b is the sine coefficient for latitude (1e-6 degree).
type lunarTerm struct {
	d, m, mp, f int
	l, r        float64
}

type lunarLatTerm struct {
	d, m, mp, f int
	b           float64
}

var lunarLonDist = []lunarTerm{
	{0, 0, 1, 0, 6288774, -20905355},
	{2, 0, -1, 0, 1274027, -3699111},
	{2, 0, 0, 0, 658314, -2955968},
	{0, 0, 2, 0, 213618, -569925},
	{0, 1, 0, 0, -185116, 48888},
	{0, 0, 0, 2, -114332, -3149},
	{2, 0, -2, 0, 58793, 246158},
	{2, -1, -1, 0, 57066, -152138},
	{2, 0, 1, 0, 53322, -170733},
	{2, -1, 0, 0, 45758, -204586},
	{0, 1, -1, 0, -40923, -129620},
	{1, 0, 0, 0, -34720, 108743},
	{0, 1, 1, 0, -30383, 104755},
	{2, 0, 0, -2, 15327, 10321},
	{0, 0, 1, 2, -12528, 0},
	{0, 0, 1, -2, 10980, 79661},
	{4, 0, -1, 0, 10675, -34782},
	{0, 0, 3, 0, 10034, -23210},
	{4, 0, -2, 0, 8548, -21636},
	{2, 1, -1, 0, -7888, 24208},
	{2, 1, 0, 0, -6766, 30824},
	{1, 0, -1, 0, -5163, -8379},
	{1, 1, 0, 0, 4987, -16675},
	{2, -1, 1, 0, 4036, -12831},
	{2, 0, 2, 0, 3994, -10445},
	{4, 0, 0, 0, 3861, -11650},
	{2, 0, -3, 0, 3665, 14403},
	{0, 1, -2, 0, -2689, -7003},
	{2, 0, -1, 2, -2602, 0},
	{2, -1, -2, 0, 2390, 10056},
	{1, 0, 1, 0, -2348, 6322},
	{2, -2, 0, 0, 2236, -9884},
	{0, 1, 2, 0, -2120, 5751},
	{0, 2, 0, 0, -2069, 0},
	{2, -2, -1, 0, 2048, -4950},
	{2, 0, 1, -2, -1773, 4130},
	{2, 0, 0, 2, -1595, 0},
	{4, -1, -1, 0, 1215, -3958},
	{0, 0, 2, 2, -1110, 0},
	{3, 0, -1, 0, -892, 3258},
	{2, 1, 1, 0, -810, 2616},
	{4, -1, -2, 0, 759, -1897},
	{0, 2, -1, 0, -713, -2117},
	{2, 2, -1, 0, -700, 2354},
	{2, 1, -2, 0, 691, 0},
	{2, -1, 0, -2, 596, 0},
	{4, 0, 1, 0, 549, -1423},
	{0, 0, 4, 0, 537, -1117},
	{4, -1, 0, 0, 520, -1571},
	{1, 0, -2, 0, -487, -1739},
	{2, 1, 0, -2, -399, 0},
	{0, 0, 2, -2, -381, -4421},
	{1, 1, 1, 0, 351, 0},
	{3, 0, -2, 0, -340, 0},
	{4, 0, -3, 0, 330, 0},
	{2, -1, 2, 0, 327, 0},
	{0, 2, 1, 0, -323, 1165},
	{1, 1, -1, 0, 299, 0},
	{2, 0, 3, 0, 294, 0},
	{2, 0, -1, -2, 0, 8752},
}

var lunarLat = []lunarLatTerm{
	{0, 0, 0, 1, 5128122},
	{0, 0, 1, 1, 280602},
	{0, 0, 1, -1, 277693},
	{2, 0, 0, -1, 173237},
	{2, 0, -1, 1, 55413},
	{2, 0, -1, -1, 46271},
	{2, 0, 0, 1, 32573},
	{0, 0, 2, 1, 17198},
	{2, 0, 1, -1, 9266},
	{0, 0, 2, -1, 8822},
	{2, -1, 0, -1, 8216},
	{2, 0, -2, -1, 4324},
	{2, 0, 1, 1, 4200},
	{2, 1, 0, -1, -3359},
	{2, -1, -1, 1, 2463},
	{2, -1, 0, 1, 2211},
	{2, -1, -1, -1, 2065},
	{0, 1, -1, -1, -1870},
	{4, 0, -1, -1, 1828},
	{0, 1, 0, 1, -1794},
	{0, 0, 0, 3, -1749},
	{0, 1, -1, 1, -1565},
	{1, 0, 0, 1, -1491},
	{0, 1, 1, 1, -1475},
	{0, 1, 1, -1, -1410},
	{0, 1, 0, -1, -1344},
	{1, 0, 0, -1, -1335},
	{0, 0, 3, 1, 1107},
	{4, 0, 0, -1, 1021},
	{4, 0, -1, 1, 833},
	{0, 0, 1, -3, 777},
	{4, 0, -2, 1, 671},
	{2, 0, 0, -3, 607},
	{2, 0, 2, -1, 596},
	{2, -1, 1, -1, 491},
	{2, 0, -2, 1, -451},
	{0, 0, 3, -1, 439},
	{2, 0, 2, 1, 422},
	{2, 0, -3, -1, 421},
	{2, 1, -1, 1, -366},
	{2, 1, 0, 1, -351},
	{4, 0, 0, 1, 331},
	{2, -1, 1, 1, 315},
	{2, -2, 0, -1, 302},
	{0, 0, 1, 3, -283},
	{2, 1, 1, -1, -229},
	{1, 1, 0, -1, 223},
	{1, 1, 0, 1, 223},
	{0, 1, -2, -1, -220},
	{2, 1, -1, -1, -220},
	{1, 0, 1, 1, -185},
	{2, -1, -2, -1, 181},
	{0, 1, 2, 1, -177},
	{4, 0, -2, -1, 176},
	{4, -1, -1, -1, 166},
	{1, 0, 1, -1, -164},
	{4, 0, 1, -1, 132},
	{1, 0, -1, -1, -119},
	{4, -1, 0, -1, 115},
	{2, -2, 0, 1, 107},
}

// moonGeocentric returns the Moon's geocentric position on mean-equator
// J2000 axes in kilometres.
func moonGeocentric(t timescale.Time) frames.Vec3 {
	T := t.JulianCenturies()

	// Delaunay arguments plus mean longitude, degrees.
	lp := poly(T, 218.3164477, 481267.88123421, -0.0015786, 1/538841.0, -1/65194000.0)
	d := poly(T, 297.8501921, 445267.1114034, -0.0018819, 1/545868.0, -1/113065000.0)
	m := poly(T, 357.5291092, 35999.0502909, -0.0001536, 1/24490000.0, 0)
	mp := poly(T, 134.9633964, 477198.8675055, 0.0087414, 1/69699.0, -1/14712000.0)
	f := poly(T, 93.2720950, 483202.0175233, -0.0036539, -1/3526000.0, 1/863310000.0)

	// Planetary perturbation arguments and the eccentricity damping of
	// terms involving the solar anomaly.
	a1 := 119.75 + 131.849*T
	a2 := 53.09 + 479264.290*T
	a3 := 313.45 + 481266.484*T
	e := 1 - 0.002516*T - 0.0000074*T*T

	var sumL, sumR, sumB float64
	for _, term := range lunarLonDist {
		arg := (float64(term.d)*d + float64(term.m)*m + float64(term.mp)*mp + float64(term.f)*f) * degRad
		ecc := eccFactor(e, term.m)
		sumL += term.l * ecc * math.Sin(arg)
		sumR += term.r * ecc * math.Cos(arg)
	}
	sumL += 3958*math.Sin(a1*degRad) + 1962*math.Sin((lp-f)*degRad) + 318*math.Sin(a2*degRad)

	for _, term := range lunarLat {
		arg := (float64(term.d)*d + float64(term.m)*m + float64(term.mp)*mp + float64(term.f)*f) * degRad
		sumB += term.b * eccFactor(e, term.m) * math.Sin(arg)
	}
	sumB += -2235*math.Sin(lp*degRad) +
		382*math.Sin(a3*degRad) +
		175*math.Sin((a1-f)*degRad) +
		175*math.Sin((a1+f)*degRad) +
		127*math.Sin((lp-mp)*degRad) -
		115*math.Sin((lp+mp)*degRad)

	lon := (lp + sumL/1e6) * degRad // ecliptic of date
	lat := (sumB / 1e6) * degRad
	dist := 385000.56 + sumR/1e3 // km

	sinLon, cosLon := math.Sincos(lon)
	sinLat, cosLat := math.Sincos(lat)
	ecl := frames.Vec3{
		X: dist * cosLat * cosLon,
		Y: dist * cosLat * sinLon,
		Z: dist * sinLat,
	}
	return frames.EclipticOfDateToJ2000(t).MulVec(ecl)
}

func eccFactor(e float64, m int) float64 {
	switch m {
	case 1, -1:
		return e
	case 2, -2:
		return e * e
	default:
		return 1
	}
}

func poly(T float64, c0, c1, c2, c3, c4 float64) float64 {
	return c0 + T*(c1+T*(c2+T*(c3+T*c4)))
}
