// Package timescale carries instants on the Terrestrial Time scale, the
// uniform scale ephemeris computations run on. Civil UTC input is converted
// through the leap-second table; TDB is approximated by TT, whose difference
// (< 2 ms) is far below the accuracy of the built-in planetary theory.
package timescale

import (
	"fmt"
	"math"
	"time"
)

// J2000 is the reference epoch 2000 January 1.5 TT as a Julian date.
const J2000 = 2451545.0

// DaysPerJulianYear is the length of the Julian year used for calendar
// arithmetic on ephemeris time.
const DaysPerJulianYear = 365.25

// DaysPerJulianCentury is 100 Julian years.
const DaysPerJulianCentury = 36525.0

// ttOffsetSeconds is TT − TAI.
const ttOffsetSeconds = 32.184

// Time is an instant carried as a two-part Julian date on the TT scale.
// The split keeps sub-millisecond precision over the supported epoch range:
// jd1 holds the J2000 epoch and jd2 the (small) offset from it in days.
type Time struct {
	jd1, jd2 float64
}

// parseLayouts are the civil UTC string forms accepted by Parse.
var parseLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Parse reads an ISO-like civil UTC string such as "1980-03-25 00:00" or
// "2016-03-20T12:30:00" and converts it to TT.
func Parse(s string) (Time, error) {
	for _, layout := range parseLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return FromTime(t), nil
		}
	}
	return Time{}, fmt.Errorf("unrecognized time %q", s)
}

// MustParse is Parse for fixture literals; it panics on malformed input.
func MustParse(s string) Time {
	t, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}

// FromTime converts a civil time.Time (interpreted on the UTC scale) to TT.
func FromTime(t time.Time) Time {
	t = t.UTC()
	dayFrac := (float64(t.Hour()) +
		float64(t.Minute())/60 +
		float64(t.Second())/3600 +
		float64(t.Nanosecond())/3600e9) / 24
	jdUTC := civilToJD(t.Year(), int(t.Month()), t.Day(), dayFrac)
	dtt := (deltaAT(jdUTC) + ttOffsetSeconds) / 86400
	return Time{jd1: J2000, jd2: jdUTC - J2000 + dtt}
}

// FromJulianTT builds a Time directly from a TT Julian date.
func FromJulianTT(jd float64) Time {
	return Time{jd1: J2000, jd2: jd - J2000}
}

// JulianTT returns the instant as a single TT Julian date.
func (t Time) JulianTT() float64 { return t.jd1 + t.jd2 }

// TwoPartJulianTT returns the instant as a two-part TT Julian date.
func (t Time) TwoPartJulianTT() (float64, float64) { return t.jd1, t.jd2 }

// JulianCenturies returns Julian centuries of TT elapsed since J2000.
func (t Time) JulianCenturies() float64 {
	return ((t.jd1 - J2000) + t.jd2) / DaysPerJulianCentury
}

// AddDays returns the instant shifted by d days of TT.
func (t Time) AddDays(d float64) Time {
	return Time{jd1: t.jd1, jd2: t.jd2 + d}
}

// AddJulianYears returns the instant shifted by y Julian years.
func (t Time) AddJulianYears(y float64) Time {
	return t.AddDays(y * DaysPerJulianYear)
}

// Sub returns t − other in days of TT.
func (t Time) Sub(other Time) float64 {
	return (t.jd1 - other.jd1) + (t.jd2 - other.jd2)
}

// JulianUTC returns the instant as a Julian date on the UTC scale, which
// also serves as the UT1 approximation for sidereal-time computations
// (|UT1−UTC| < 0.9 s by construction of the leap-second system).
func (t Time) JulianUTC() float64 {
	jdTT := t.JulianTT()
	return jdTT - (deltaAT(jdTT)+ttOffsetSeconds)/86400
}

// UTC converts back to a civil time.Time on the UTC scale, to round-trip
// display and logging. The inverse leap-second lookup evaluates ΔAT at the
// TT instant, which is exact except within a second of a leap step.
func (t Time) UTC() time.Time {
	return jdToCivil(t.JulianUTC())
}

func (t Time) String() string {
	return t.UTC().Format("2006-01-02T15:04:05") + " UTC"
}

// Range samples the half-open interval [start, end) every step days,
// always including start. It replaces the n-dimensional time arrays of
// array-programming environments with a flat, order-preserving slice.
func Range(start, end Time, stepDays float64) []Time {
	if stepDays <= 0 {
		return nil
	}
	var out []Time
	for d := 0.0; d < end.Sub(start); d += stepDays {
		out = append(out, start.AddDays(d))
	}
	return out
}

// civilToJD converts a Gregorian calendar date plus day fraction to a
// Julian date (Meeus, Astronomical Algorithms, ch. 7).
func civilToJD(year, month, day int, dayFrac float64) float64 {
	y, m := float64(year), float64(month)
	if m <= 2 {
		y--
		m += 12
	}
	a := math.Floor(y / 100)
	b := 2 - a + math.Floor(a/4)
	return math.Floor(365.25*(y+4716)) + math.Floor(30.6001*(m+1)) +
		float64(day) + dayFrac + b - 1524.5
}

// jdToCivil inverts civilToJD for Gregorian dates.
func jdToCivil(jd float64) time.Time {
	z, f := math.Modf(jd + 0.5)
	a := z
	if z >= 2299161 {
		alpha := math.Floor((z - 1867216.25) / 36524.25)
		a = z + 1 + alpha - math.Floor(alpha/4)
	}
	b := a + 1524
	c := math.Floor((b - 122.1) / 365.25)
	d := math.Floor(365.25 * c)
	e := math.Floor((b - d) / 30.6001)

	day := b - d - math.Floor(30.6001*e)
	month := e - 1
	if e >= 14 {
		month = e - 13
	}
	year := c - 4716
	if month <= 2 {
		year = c - 4715
	}

	secs := f * 86400
	whole := math.Floor(secs)
	nanos := math.Round((secs - whole) * 1e9)
	return time.Date(int(year), time.Month(month), int(day), 0, 0, 0, 0, time.UTC).
		Add(time.Duration(whole)*time.Second + time.Duration(nanos)*time.Nanosecond)
}
