package ephem

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/signalsfoundry/almanac/body"
	"github.com/signalsfoundry/almanac/frames"
	"github.com/signalsfoundry/almanac/timescale"
)

// epochToleranceDays is the matching window for exact-epoch lookups, about
// a microsecond. State tables do not interpolate.
const epochToleranceDays = 1e-11

// segmentKey identifies one kernel segment.
type segmentKey struct {
	center, target int
}

// segmentState is one tabulated state of a kernel segment.
type segmentState struct {
	epoch float64 // TT Julian date
	pos   frames.Vec3
	vel   *frames.Vec3
}

// StateTable is a kernel-backed ephemeris source holding exact-epoch
// barycentric segment states, typically loaded from a JSON document
// extracted from a binary kernel. Chebyshev interpolation of raw kernels is
// deliberately out of scope; queries at epochs the table does not list fail
// with ErrEpochNotCovered.
type StateTable struct {
	name     string
	segments map[segmentKey][]segmentState
}

// NewStateTable returns an empty table registered under name.
func NewStateTable(name string) *StateTable {
	return &StateTable{name: name, segments: make(map[segmentKey][]segmentState)}
}

// Name implements Source.
func (st *StateTable) Name() string { return st.name }

// Add records the state of a kernel segment at an epoch, keeping epochs
// sorted for lookup.
func (st *StateTable) Add(center, target int, t timescale.Time, pos frames.Vec3, vel *frames.Vec3) {
	key := segmentKey{center, target}
	states := append(st.segments[key], segmentState{epoch: t.JulianTT(), pos: pos, vel: vel})
	sort.Slice(states, func(i, j int) bool { return states[i].epoch < states[j].epoch })
	st.segments[key] = states
}

// BarycentricPosVel implements Source by chaining the body's kernel-spec
// segments. The velocity is present only when every segment in the chain
// carries one.
func (st *StateTable) BarycentricPosVel(b body.Body, t timescale.Time) (State, error) {
	spec, ok := body.NameToKernelSpec[b]
	if !ok {
		return State{}, fmt.Errorf("state table %q: %w: %q", st.name, body.ErrUnknownBody, b)
	}

	var out State
	vel := &frames.Vec3{}
	for _, seg := range spec {
		s, err := st.lookup(seg.Center, seg.Target, t)
		if err != nil {
			return State{}, err
		}
		out.Pos = out.Pos.Add(s.pos)
		if vel != nil && s.vel != nil {
			*vel = vel.Add(*s.vel)
		} else {
			vel = nil
		}
	}
	out.Vel = vel
	return out, nil
}

func (st *StateTable) lookup(center, target int, t timescale.Time) (segmentState, error) {
	states := st.segments[segmentKey{center, target}]
	jd := t.JulianTT()

	i := sort.Search(len(states), func(i int) bool { return states[i].epoch >= jd-epochToleranceDays })
	if i < len(states) && states[i].epoch <= jd+epochToleranceDays {
		return states[i], nil
	}
	return segmentState{}, fmt.Errorf("state table %q segment %d->%d at JD %f: %w",
		st.name, center, target, jd, ErrEpochNotCovered)
}

// stateTableDoc is the JSON document shape.
type stateTableDoc struct {
	Name   string `json:"name"`
	States []struct {
		EpochTTJD float64     `json:"epoch_tt_jd"`
		Center    int         `json:"center"`
		Target    int         `json:"target"`
		PosKm     [3]float64  `json:"pos_km"`
		VelKmS    *[3]float64 `json:"vel_km_s,omitempty"`
	} `json:"states"`
}

// LoadStateTable reads a state-table JSON document.
func LoadStateTable(r io.Reader) (*StateTable, error) {
	var doc stateTableDoc
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode state table: %w", err)
	}
	if doc.Name == "" {
		return nil, fmt.Errorf("decode state table: missing name")
	}

	st := NewStateTable(doc.Name)
	for _, s := range doc.States {
		pos := frames.Vec3{X: s.PosKm[0], Y: s.PosKm[1], Z: s.PosKm[2]}
		var vel *frames.Vec3
		if s.VelKmS != nil {
			vel = &frames.Vec3{X: s.VelKmS[0], Y: s.VelKmS[1], Z: s.VelKmS[2]}
		}
		st.Add(s.Center, s.Target, timescale.FromJulianTT(s.EpochTTJD), pos, vel)
	}
	return st, nil
}

// OpenStateTableDir loads the state table for the named ephemeris from a
// directory of JSON documents, looking for "<name>.json".
func OpenStateTableDir(dir, name string) (*StateTable, error) {
	base := strings.TrimSuffix(name, ".bsp") + ".json"
	f, err := os.Open(filepath.Join(dir, base))
	if err != nil {
		return nil, fmt.Errorf("open state table for %q: %w", name, err)
	}
	defer f.Close()
	return LoadStateTable(f)
}
