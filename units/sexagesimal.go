package units

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
)

var (
	hmsPattern = regexp.MustCompile(`^([+-]?)(\d+)h(\d+)m([\d.]+)s$`)
	dmsPattern = regexp.MustCompile(`^([+-]?)(\d+)d(\d+)m([\d.]+)s$`)
)

// ParseHMS parses a right-ascension string of the form "22h41m47.78s".
func ParseHMS(s string) (Angle, error) {
	sign, a, b, c, err := parseSexagesimal(hmsPattern, s)
	if err != nil {
		return 0, fmt.Errorf("parse HMS angle %q: %w", s, err)
	}
	return Hours(sign * (a + b/60 + c/3600)), nil
}

// ParseDMS parses a declination string of the form "-08d29m32.0s".
func ParseDMS(s string) (Angle, error) {
	sign, a, b, c, err := parseSexagesimal(dmsPattern, s)
	if err != nil {
		return 0, fmt.Errorf("parse DMS angle %q: %w", s, err)
	}
	return Degrees(sign * (a + b/60 + c/3600)), nil
}

func parseSexagesimal(pattern *regexp.Regexp, s string) (sign, a, b, c float64, err error) {
	m := pattern.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, 0, 0, fmt.Errorf("malformed sexagesimal value")
	}
	sign = 1
	if m[1] == "-" {
		sign = -1
	}
	if a, err = strconv.ParseFloat(m[2], 64); err != nil {
		return 0, 0, 0, 0, err
	}
	if b, err = strconv.ParseFloat(m[3], 64); err != nil {
		return 0, 0, 0, 0, err
	}
	if c, err = strconv.ParseFloat(m[4], 64); err != nil {
		return 0, 0, 0, 0, err
	}
	return sign, a, b, c, nil
}

// FormatHMS renders the angle as hours-minutes-seconds with the given number
// of decimal places on the seconds field.
func (a Angle) FormatHMS(decimals int) string {
	h := a.Normalized().Hours()
	hh := math.Floor(h)
	m := (h - hh) * 60
	mm := math.Floor(m)
	ss := (m - mm) * 60
	hh, mm, ss = carrySexagesimal(hh, mm, ss, decimals)
	return fmt.Sprintf("%02.0fh%02.0fm%0*.*fs", hh, mm, decimals+3, decimals, ss)
}

// FormatDMS renders the angle as signed degrees-minutes-seconds.
func (a Angle) FormatDMS(decimals int) string {
	deg := a.Degrees()
	sign := "+"
	if deg < 0 {
		sign = "-"
		deg = -deg
	}
	dd := math.Floor(deg)
	m := (deg - dd) * 60
	mm := math.Floor(m)
	ss := (m - mm) * 60
	dd, mm, ss = carrySexagesimal(dd, mm, ss, decimals)
	return fmt.Sprintf("%s%02.0fd%02.0fm%0*.*fs", sign, dd, mm, decimals+3, decimals, ss)
}

// carrySexagesimal ripples rounding of the seconds field up through minutes
// so "59.9999..." never prints as "60.00".
func carrySexagesimal(top, mm, ss float64, decimals int) (float64, float64, float64) {
	scale := math.Pow(10, float64(decimals))
	ss = math.Round(ss*scale) / scale
	if ss >= 60 {
		ss -= 60
		mm++
	}
	if mm >= 60 {
		mm -= 60
		top++
	}
	return top, mm, ss
}
