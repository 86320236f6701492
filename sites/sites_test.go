package sites

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestLookupKittPeak(t *testing.T) {
	s, err := Lookup("kitt peak")
	if err != nil {
		t.Fatalf("Lookup(kitt peak) error: %v", err)
	}
	if s.LonDeg != -111.6 {
		t.Errorf("LonDeg = %v, want -111.6", s.LonDeg)
	}
	loc := s.Location()
	if got := loc.Lat.Degrees(); math.Abs(got-31.963333333333342) > 1e-12 {
		t.Errorf("Lat = %v deg, want 31.963333333333342", got)
	}
	if got := loc.Height.Kilometers(); math.Abs(got-2.120) > 1e-12 {
		t.Errorf("Height = %v km, want 2.120", got)
	}
}

func TestLookupIsCaseAndAliasInsensitive(t *testing.T) {
	for _, name := range []string{"Kitt Peak", "KPNO", "kitt  peak", "Kitt Peak National Observatory"} {
		s, err := Lookup(name)
		if err != nil {
			t.Fatalf("Lookup(%q) error: %v", name, err)
		}
		if s.Name != "kitt peak" {
			t.Errorf("Lookup(%q).Name = %q, want %q", name, s.Name, "kitt peak")
		}
	}
}

func TestLookupUnknownSite(t *testing.T) {
	if _, err := Lookup("mount doom"); !errors.Is(err, ErrUnknownSite) {
		t.Errorf("Lookup(mount doom) error = %v, want ErrUnknownSite", err)
	}
}

func TestNamesSortedAndComplete(t *testing.T) {
	r, err := NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry error: %v", err)
	}
	names := r.Names()
	if len(names) < 8 {
		t.Fatalf("len(Names()) = %d, want >= 8", len(names))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Fatalf("Names() not sorted at %d: %q >= %q", i, names[i-1], names[i])
		}
	}
}

func TestMergeFileAddsAndOverrides(t *testing.T) {
	r, err := NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry error: %v", err)
	}

	path := filepath.Join(t.TempDir(), "extra.json")
	doc := `[
		{"name": "backyard", "lon_deg": 13.4, "lat_deg": 52.5, "height_m": 34},
		{"name": "kitt peak", "lon_deg": -111.5, "lat_deg": 31.9, "height_m": 2000}
	]`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := r.MergeFile(path); err != nil {
		t.Fatalf("MergeFile error: %v", err)
	}

	if s, err := r.Lookup("backyard"); err != nil || s.LatDeg != 52.5 {
		t.Errorf("Lookup(backyard) = %+v, %v", s, err)
	}
	if s, err := r.Lookup("kitt peak"); err != nil || s.LonDeg != -111.5 {
		t.Errorf("merged kitt peak = %+v, %v; want override to -111.5", s, err)
	}
	// Aliases of the replaced entry keep resolving.
	if s, err := r.Lookup("kpno"); err != nil || s.LonDeg != -111.5 {
		t.Errorf("Lookup(kpno) after override = %+v, %v", s, err)
	}
}

func TestMergeRejectsEmptyName(t *testing.T) {
	r, err := NewRegistry()
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte(`[{"lon_deg": 1}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := r.MergeFile(path); err == nil {
		t.Error("MergeFile accepted an entry with no name")
	}
}
