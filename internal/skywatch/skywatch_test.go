package skywatch

import (
	"context"
	"testing"
	"time"

	"github.com/signalsfoundry/almanac/body"
)

func fixedClock(s string) func() time.Time {
	t, err := time.Parse("2006-01-02 15:04", s)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t }
}

func TestRefreshBuildsFullSnapshot(t *testing.T) {
	w := New(Config{Now: fixedClock("2016-03-20 12:30")})

	if _, ok := w.Snapshot(); ok {
		t.Fatal("Snapshot reported fresh before any refresh")
	}
	if err := w.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh error: %v", err)
	}

	snap, ok := w.Snapshot()
	if !ok {
		t.Fatal("Snapshot not fresh after refresh")
	}
	// All bodies except the observer and the Earth-Moon barycenter.
	if want := len(body.All()) - 2; len(snap.Coords) != want {
		t.Errorf("len(Coords) = %d, want %d", len(snap.Coords), want)
	}
	for _, b := range []body.Body{body.Sun, body.Moon, body.Jupiter} {
		if _, ok := snap.Coords[b]; !ok {
			t.Errorf("snapshot missing %s", b)
		}
	}
	if snap.Coords[body.Sun].Distance.AU() < 0.9 || snap.Coords[body.Sun].Distance.AU() > 1.1 {
		t.Errorf("sun distance = %.3f AU, want ~1", snap.Coords[body.Sun].Distance.AU())
	}
}

func TestRefreshTracksConfiguredBodies(t *testing.T) {
	w := New(Config{
		Bodies: []body.Body{body.Mars, body.Venus},
		Now:    fixedClock("2016-03-20 12:30"),
	})
	if err := w.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh error: %v", err)
	}
	snap, _ := w.Snapshot()
	if len(snap.Coords) != 2 {
		t.Fatalf("len(Coords) = %d, want 2", len(snap.Coords))
	}
	if _, ok := snap.Coords[body.Jupiter]; ok {
		t.Error("snapshot contains an untracked body")
	}
}

func TestSubscribeAndUnsubscribe(t *testing.T) {
	w := New(Config{
		Bodies: []body.Body{body.Sun},
		Now:    fixedClock("2016-03-20 12:30"),
	})

	var got []Snapshot
	unsub := w.Subscribe(func(s Snapshot) { got = append(got, s) })

	if err := w.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("subscriber called %d times, want 1", len(got))
	}
	if _, ok := got[0].Coords[body.Sun]; !ok {
		t.Error("subscriber snapshot missing sun")
	}

	unsub()
	if err := w.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Errorf("subscriber called after unsubscribe: %d calls", len(got))
	}
}

func TestRefreshFailsWhenNothingComputable(t *testing.T) {
	w := New(Config{
		Bodies:    []body.Body{body.Sun},
		Ephemeris: "de404", // no source behind it
		Now:       fixedClock("2016-03-20 12:30"),
	})
	if err := w.Refresh(context.Background()); err == nil {
		t.Error("Refresh succeeded with an unavailable ephemeris")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	w := New(Config{
		Bodies:   []body.Body{body.Sun},
		Interval: 10 * time.Millisecond,
		Now:      fixedClock("2016-03-20 12:30"),
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}

	if _, ok := w.Snapshot(); !ok {
		t.Error("Run never produced a snapshot")
	}
}
