// Package solarsystem answers the questions the library exists for: where a
// solar-system body appears from Earth (or from an observer on it), and
// where it sits relative to the solar-system barycenter. Apparent positions
// account for light travel time and annual aberration; callers comparing
// against true-equinox references apply frames.ApparentInTrueCoordinates.
package solarsystem

import (
	"errors"
	"fmt"

	"github.com/signalsfoundry/almanac/body"
	"github.com/signalsfoundry/almanac/earth"
	"github.com/signalsfoundry/almanac/ephem"
	"github.com/signalsfoundry/almanac/frames"
	"github.com/signalsfoundry/almanac/timescale"
	"github.com/signalsfoundry/almanac/units"
)

// lightTimeToleranceSec is the convergence criterion of the light-time
// iteration.
const lightTimeToleranceSec = 1e-8

// options collects per-query settings.
type options struct {
	ephemeris string
}

// Option adjusts a query.
type Option func(*options)

// WithEphemeris selects the ephemeris source by name ("builtin", "de432s",
// ...). The package default applies when unset.
func WithEphemeris(name string) Option {
	return func(o *options) { o.ephemeris = name }
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// GetBody returns the apparent position of a named body in the GCRS frame
// of the observer. A nil location means a geocentric observer.
func GetBody(name string, t timescale.Time, loc *earth.Location, opts ...Option) (frames.SkyCoord, error) {
	b, err := body.Parse(name)
	if err != nil {
		return frames.SkyCoord{}, err
	}
	return getBody(b, t, loc, buildOptions(opts))
}

// GetBodyByKernelSpec is GetBody for callers holding a kernel specifier
// instead of a name. The same body queried by name or by its specifier
// yields identical right ascension, declination, and distance.
func GetBodyByKernelSpec(spec body.KernelSpec, t timescale.Time, loc *earth.Location, opts ...Option) (frames.SkyCoord, error) {
	b, err := body.FromKernelSpec(spec)
	if err != nil {
		return frames.SkyCoord{}, err
	}
	return getBody(b, t, loc, buildOptions(opts))
}

// GetMoon returns the apparent position of the Moon for the observer.
func GetMoon(t timescale.Time, loc *earth.Location, opts ...Option) (frames.SkyCoord, error) {
	return getBody(body.Moon, t, loc, buildOptions(opts))
}

// GetMoonSeries evaluates the Moon over a series of instants, preserving
// length and order.
func GetMoonSeries(times []timescale.Time, loc *earth.Location, opts ...Option) ([]frames.SkyCoord, error) {
	o := buildOptions(opts)
	out := make([]frames.SkyCoord, len(times))
	for i, t := range times {
		c, err := getBody(body.Moon, t, loc, o)
		if err != nil {
			return nil, fmt.Errorf("moon at %s: %w", t, err)
		}
		out[i] = c
	}
	return out, nil
}

// GetSun returns the apparent geocentric position of the Sun computed with
// the builtin ephemeris.
func GetSun(t timescale.Time) (frames.SkyCoord, error) {
	return getBody(body.Sun, t, nil, options{ephemeris: ephem.Builtin})
}

// GetBodyBarycentric returns the body's position relative to the
// solar-system barycenter on mean-equator J2000 axes, in kilometres. It is
// exactly the position component of GetBodyBarycentricPosVel, and also
// serves bodies whose source carries no velocity.
func GetBodyBarycentric(name string, t timescale.Time, opts ...Option) (frames.Vec3, error) {
	b, src, err := resolveQuery(name, buildOptions(opts))
	if err != nil {
		return frames.Vec3{}, err
	}
	st, err := src.BarycentricPosVel(b, t)
	if err != nil {
		return frames.Vec3{}, err
	}
	return st.Pos, nil
}

// GetBodyBarycentricPosVel returns the body's barycentric position (km) and
// velocity (km/s). Sources without velocity support for the body return
// ephem.ErrNoVelocity.
func GetBodyBarycentricPosVel(name string, t timescale.Time, opts ...Option) (pos, vel frames.Vec3, err error) {
	b, src, err := resolveQuery(name, buildOptions(opts))
	if err != nil {
		return frames.Vec3{}, frames.Vec3{}, err
	}
	st, err := src.BarycentricPosVel(b, t)
	if err != nil {
		return frames.Vec3{}, frames.Vec3{}, err
	}
	if st.Vel == nil {
		return frames.Vec3{}, frames.Vec3{}, fmt.Errorf("%s from %q: %w", b, src.Name(), ephem.ErrNoVelocity)
	}
	return st.Pos, *st.Vel, nil
}

// GetBodyBarycentricSeries evaluates barycentric positions over a series of
// instants, preserving length and order.
func GetBodyBarycentricSeries(name string, times []timescale.Time, opts ...Option) ([]frames.Vec3, error) {
	out := make([]frames.Vec3, len(times))
	for i, t := range times {
		p, err := GetBodyBarycentric(name, t, opts...)
		if err != nil {
			return nil, fmt.Errorf("%s at %s: %w", name, t, err)
		}
		out[i] = p
	}
	return out, nil
}

// GetBodyBarycentricPosVelSeries evaluates barycentric states over a series
// of instants, preserving length and order.
func GetBodyBarycentricPosVelSeries(name string, times []timescale.Time, opts ...Option) (pos, vel []frames.Vec3, err error) {
	pos = make([]frames.Vec3, len(times))
	vel = make([]frames.Vec3, len(times))
	for i, t := range times {
		p, v, err := GetBodyBarycentricPosVel(name, t, opts...)
		if err != nil {
			return nil, nil, fmt.Errorf("%s at %s: %w", name, t, err)
		}
		pos[i], vel[i] = p, v
	}
	return pos, vel, nil
}

// Track samples the apparent position of a body from start to end every
// stepDays, for the given observer.
func Track(name string, start, end timescale.Time, stepDays float64, loc *earth.Location, opts ...Option) ([]frames.SkyCoord, error) {
	b, err := body.Parse(name)
	if err != nil {
		return nil, err
	}
	o := buildOptions(opts)
	var out []frames.SkyCoord
	for _, t := range timescale.Range(start, end, stepDays) {
		c, err := getBody(b, t, loc, o)
		if err != nil {
			return nil, fmt.Errorf("%s at %s: %w", name, t, err)
		}
		out = append(out, c)
	}
	return out, nil
}

func resolveQuery(name string, o options) (body.Body, ephem.Source, error) {
	b, err := body.Parse(name)
	if err != nil {
		return "", nil, err
	}
	src, err := ephem.Resolve(o.ephemeris)
	if err != nil {
		return "", nil, err
	}
	return b, src, nil
}

// getBody runs the apparent-position pipeline: observer barycentric state,
// light-time iteration, and annual aberration.
func getBody(b body.Body, t timescale.Time, loc *earth.Location, o options) (frames.SkyCoord, error) {
	src, err := ephem.Resolve(o.ephemeris)
	if err != nil {
		return frames.SkyCoord{}, err
	}

	frame := frames.Geocentric(t)
	var geoOff, geoVel frames.Vec3
	if loc != nil {
		geoOff, geoVel = loc.GCRSPosVel(t)
		frame = frames.Topocentric(t, geoOff, geoVel)
	}

	earthState, err := src.BarycentricPosVel(body.Earth, t)
	if err != nil {
		return frames.SkyCoord{}, fmt.Errorf("observer state: %w", err)
	}
	obsPos := earthState.Pos.Add(geoOff)
	obsVel := geoVel
	if earthState.Vel != nil {
		obsVel = obsVel.Add(*earthState.Vel)
	} else {
		// Aberration needs the Earth's orbital velocity even when the
		// selected source cannot supply it.
		builtinEarth, err := ephem.NewBuiltinSource().BarycentricPosVel(body.Earth, t)
		if err != nil {
			return frames.SkyCoord{}, fmt.Errorf("observer velocity fallback: %w", err)
		}
		obsVel = obsVel.Add(*builtinEarth.Vel)
	}

	// Light-time iteration: evaluate the target at the emission epoch.
	var rel frames.Vec3
	var tau float64 // days
	for i := 0; i < 10; i++ {
		targetPos, err := positionAtRetardedEpoch(src, b, t, tau)
		if err != nil {
			return frames.SkyCoord{}, err
		}
		rel = targetPos.Sub(obsPos)
		next := rel.Norm() / units.SpeedOfLightKmPerSec / 86400
		if (next-tau)*86400 < lightTimeToleranceSec && (tau-next)*86400 < lightTimeToleranceSec {
			tau = next
			break
		}
		tau = next
	}

	// Annual aberration, first order in v/c; the distance is the
	// light-time range and is preserved by the direction correction.
	dist := rel.Norm()
	dir := rel.Normalized().Add(obsVel.Scale(1 / units.SpeedOfLightKmPerSec)).Normalized()
	return frames.SkyCoordFromCartesian(dir.Scale(dist), frame), nil
}

// positionAtRetardedEpoch looks the body up at t - tau days. Exact-epoch
// state tables cover only t itself; for those the position is corrected to
// first order using the tabulated velocity.
func positionAtRetardedEpoch(src ephem.Source, b body.Body, t timescale.Time, tau float64) (frames.Vec3, error) {
	st, err := src.BarycentricPosVel(b, t.AddDays(-tau))
	if err == nil {
		return st.Pos, nil
	}
	if !errors.Is(err, ephem.ErrEpochNotCovered) {
		return frames.Vec3{}, fmt.Errorf("target state: %w", err)
	}

	st, err = src.BarycentricPosVel(b, t)
	if err != nil {
		return frames.Vec3{}, fmt.Errorf("target state: %w", err)
	}
	if st.Vel == nil {
		return st.Pos, nil
	}
	return st.Pos.Sub(st.Vel.Scale(tau * 86400)), nil
}
