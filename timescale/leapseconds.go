package timescale

// leapEntry records a step of the cumulative UTC-TAI offset (ΔAT, seconds)
// taking effect at 0h UTC on the given civil date.
type leapEntry struct {
	year, month int
	dat         float64
}

// datTable is the integer-second ΔAT era, 1972 onward. Source: IERS
// Bulletin C history. The last entry (37 s from 2017-01-01) remains in
// force until a new leap second is announced.
var datTable = []leapEntry{
	{1972, 1, 10}, {1972, 7, 11},
	{1973, 1, 12}, {1974, 1, 13}, {1975, 1, 14}, {1976, 1, 15},
	{1977, 1, 16}, {1978, 1, 17}, {1979, 1, 18}, {1980, 1, 19},
	{1981, 7, 20}, {1982, 7, 21}, {1983, 7, 22}, {1985, 7, 23},
	{1988, 1, 24}, {1990, 1, 25}, {1991, 1, 26}, {1992, 7, 27},
	{1993, 7, 28}, {1994, 7, 29}, {1996, 1, 30}, {1997, 7, 31},
	{1999, 1, 32}, {2006, 1, 33}, {2009, 1, 34}, {2012, 7, 35},
	{2015, 7, 36}, {2017, 1, 37},
}

// deltaAT returns ΔAT = TAI − UTC in seconds at the given UTC Julian date.
// Before 1972 the rubber-second era is approximated by a linear drift from
// zero at 1958 (when TAI and UTC coincided) to the 10 s step at 1972,
// which is adequate for the low-precision computations this library
// performs at historical epochs. ΔAT is never negative.
func deltaAT(jdUTC float64) float64 {
	first := civilToJD(datTable[0].year, datTable[0].month, 1, 0)
	if jdUTC < first {
		dat := datTable[0].dat * (1 - (first-jdUTC)/(14*365.25))
		if dat < 0 {
			return 0
		}
		return dat
	}
	dat := datTable[0].dat
	for _, e := range datTable {
		if jdUTC >= civilToJD(e.year, e.month, 1, 0) {
			dat = e.dat
		}
	}
	return dat
}
