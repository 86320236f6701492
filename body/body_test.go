package body

import (
	"errors"
	"testing"
)

func TestParseCanonicalNames(t *testing.T) {
	for _, b := range All() {
		got, err := Parse(string(b))
		if err != nil {
			t.Fatalf("Parse(%q) error: %v", b, err)
		}
		if got != b {
			t.Errorf("Parse(%q) = %q, want %q", b, got, b)
		}
	}
}

func TestParseIsCaseInsensitive(t *testing.T) {
	got, err := Parse("  Jupiter ")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if got != Jupiter {
		t.Errorf("Parse = %q, want %q", got, Jupiter)
	}
}

func TestParseUnknownName(t *testing.T) {
	_, err := Parse("vulcan")
	if !errors.Is(err, ErrUnknownBody) {
		t.Fatalf("Parse(vulcan) error = %v, want ErrUnknownBody", err)
	}
}

func TestKernelSpecRoundTrip(t *testing.T) {
	for _, b := range All() {
		spec, ok := NameToKernelSpec[b]
		if !ok {
			t.Fatalf("no kernel spec for %q", b)
		}
		got, err := FromKernelSpec(spec)
		if err != nil {
			t.Fatalf("FromKernelSpec(%v) error: %v", spec, err)
		}
		if got != b {
			t.Errorf("FromKernelSpec(%v) = %q, want %q", spec, got, b)
		}
	}
}

func TestKernelSpecChainsStartAtBarycenter(t *testing.T) {
	for b, spec := range NameToKernelSpec {
		if len(spec) == 0 {
			t.Fatalf("empty kernel spec for %q", b)
		}
		if spec[0].Center != NAIFSolarSystemBarycenter {
			t.Errorf("%q: first segment center = %d, want %d", b, spec[0].Center, NAIFSolarSystemBarycenter)
		}
		for i := 1; i < len(spec); i++ {
			if spec[i].Center != spec[i-1].Target {
				t.Errorf("%q: segment %d center %d does not chain from target %d", b, i, spec[i].Center, spec[i-1].Target)
			}
		}
	}
}
