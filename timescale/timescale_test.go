package timescale

import (
	"math"
	"testing"
	"time"
)

func TestParseAcceptedLayouts(t *testing.T) {
	for _, s := range []string{
		"1980-03-25 00:00",
		"2014-09-25T00:00",
		"2016-03-20T12:30:00",
		"2015-08-28 03:30",
	} {
		if _, err := Parse(s); err != nil {
			t.Errorf("Parse(%q) error: %v", s, err)
		}
	}
	if _, err := Parse("25/03/1980"); err == nil {
		t.Error("Parse accepted a slash-separated date")
	}
}

func TestJ2000Epoch(t *testing.T) {
	// 2000-01-01 12:00 UTC is J2000 plus the then-current TT-UTC offset
	// of 32 + 32.184 seconds.
	tt := MustParse("2000-01-01 12:00")
	wantOffsetDays := (32 + 32.184) / 86400
	if got := tt.JulianTT(); math.Abs(got-(J2000+wantOffsetDays)) > 1e-9 {
		t.Errorf("JulianTT = %.9f, want %.9f", got, J2000+wantOffsetDays)
	}
}

func TestDeltaATSteps(t *testing.T) {
	cases := []struct {
		date string
		want float64
	}{
		{"1980-03-25 00:00", 19},
		{"2014-09-25 00:00", 35},
		{"2016-03-20 12:30", 36},
		{"2020-01-01 00:00", 37},
	}
	for _, tc := range cases {
		ct, err := time.Parse("2006-01-02 15:04", tc.date)
		if err != nil {
			t.Fatal(err)
		}
		dayFrac := (float64(ct.Hour()) + float64(ct.Minute())/60) / 24
		jd := civilToJD(ct.Year(), int(ct.Month()), ct.Day(), dayFrac)
		if got := deltaAT(jd); got != tc.want {
			t.Errorf("deltaAT(%s) = %v, want %v", tc.date, got, tc.want)
		}
	}
}

func TestDeltaATPre1972Approximation(t *testing.T) {
	jd1960 := civilToJD(1960, 1, 1, 0)
	got := deltaAT(jd1960)
	if got >= 10 || got < 0 {
		t.Errorf("deltaAT(1960) = %v, want a value in [0, 10)", got)
	}
	// TAI-UTC was about 1.4 s in 1960.
	if math.Abs(got-1.4) > 0.5 {
		t.Errorf("deltaAT(1960) = %v, want ~1.4", got)
	}

	// ΔAT is never negative, even before the TAI epoch.
	for _, year := range []int{1900, 1940, 1958} {
		if got := deltaAT(civilToJD(year, 1, 1, 0)); got < 0 {
			t.Errorf("deltaAT(%d) = %v, want >= 0", year, got)
		}
	}

	// The approximation grows monotonically toward the 1972 step.
	prev := -1.0
	for year := 1958; year <= 1971; year++ {
		got := deltaAT(civilToJD(year, 1, 1, 0))
		if got < prev {
			t.Fatalf("deltaAT(%d) = %v, decreased from %v", year, got, prev)
		}
		prev = got
	}
}

func TestUTCRoundTrip(t *testing.T) {
	in := time.Date(2014, 9, 25, 0, 0, 0, 0, time.UTC)
	out := FromTime(in).UTC()
	if diff := out.Sub(in).Abs(); diff > time.Millisecond {
		t.Errorf("UTC round trip drifted by %v", diff)
	}
}

func TestArithmetic(t *testing.T) {
	t0 := MustParse("2016-03-20T12:30:00")
	if got := t0.AddDays(36525).JulianCenturies() - t0.JulianCenturies(); math.Abs(got-1) > 1e-12 {
		t.Errorf("AddDays(36525) advanced %v centuries, want 1", got)
	}
	if got := t0.AddJulianYears(2).Sub(t0); math.Abs(got-730.5) > 1e-9 {
		t.Errorf("AddJulianYears(2) = %v days, want 730.5", got)
	}
}

func TestRange(t *testing.T) {
	start := MustParse("2016-03-20T12:30:00")
	end := start.AddJulianYears(4)
	got := Range(start, end, DaysPerJulianYear/2)
	if len(got) != 8 {
		t.Fatalf("Range produced %d samples, want 8", len(got))
	}
	for i := 1; i < len(got); i++ {
		step := got[i].Sub(got[i-1])
		if math.Abs(step-DaysPerJulianYear/2) > 1e-9 {
			t.Errorf("sample %d step = %v days, want %v", i, step, DaysPerJulianYear/2)
		}
	}
	if Range(start, end, 0) != nil {
		t.Error("Range with zero step should be empty")
	}
}

func TestCivilJDKnownValue(t *testing.T) {
	// 1957-10-04.81 is JD 2436116.31 (Meeus example 7.a).
	if got := civilToJD(1957, 10, 4, 0.81); math.Abs(got-2436116.31) > 1e-6 {
		t.Errorf("civilToJD = %v, want 2436116.31", got)
	}
}
