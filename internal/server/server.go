// Package server exposes the position pipeline over an HTTP JSON API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/signalsfoundry/almanac/body"
	"github.com/signalsfoundry/almanac/earth"
	"github.com/signalsfoundry/almanac/ephem"
	"github.com/signalsfoundry/almanac/frames"
	"github.com/signalsfoundry/almanac/internal/logging"
	"github.com/signalsfoundry/almanac/internal/observability"
	"github.com/signalsfoundry/almanac/internal/obslog"
	"github.com/signalsfoundry/almanac/internal/skywatch"
	"github.com/signalsfoundry/almanac/sites"
	"github.com/signalsfoundry/almanac/solarsystem"
	"github.com/signalsfoundry/almanac/timescale"
)

// Options assembles a Server. Nil fields disable the corresponding feature.
type Options struct {
	Logger   logging.Logger
	Metrics  *observability.APICollector
	Sites    *sites.Registry
	QueryLog *obslog.Log
	Sky      *skywatch.Watcher

	// Now overrides the wall clock used when queries omit a time.
	Now func() time.Time
}

// Server answers position queries over HTTP.
type Server struct {
	log      logging.Logger
	metrics  *observability.APICollector
	sites    *sites.Registry
	queryLog *obslog.Log
	sky      *skywatch.Watcher
	now      func() time.Time
}

// New builds a Server from options.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = logging.Noop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Server{
		log:      opts.Logger,
		metrics:  opts.Metrics,
		sites:    opts.Sites,
		queryLog: opts.QueryLog,
		sky:      opts.Sky,
		now:      opts.Now,
	}
}

// Handler returns the routed HTTP handler with logging and metrics
// middleware applied per route.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	route := func(pattern string, h http.HandlerFunc) {
		var handler http.Handler = h
		if s.metrics != nil {
			handler = s.metrics.Middleware(pattern, handler)
		}
		mux.Handle(pattern, RequestIDMiddleware(s.log, pattern, handler))
	}

	route("/v1/body", s.handleBody)
	route("/v1/sun", s.handleSun)
	route("/v1/moon", s.handleMoon)
	route("/v1/barycentric", s.handleBarycentric)
	route("/v1/track", s.handleTrack)
	route("/v1/sky", s.handleSky)
	route("/v1/history", s.handleHistory)
	route("/healthz", s.handleHealth)
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics.Handler())
	}
	return mux
}

// positionResponse is the JSON shape for a single apparent position.
type positionResponse struct {
	Target       string  `json:"target"`
	EpochUTC     string  `json:"epoch_utc"`
	Ephemeris    string  `json:"ephemeris"`
	Site         string  `json:"site,omitempty"`
	RADeg        float64 `json:"ra_deg"`
	RAHMS        string  `json:"ra_hms"`
	DecDeg       float64 `json:"dec_deg"`
	DecDMS       string  `json:"dec_dms"`
	DistanceKm   float64 `json:"distance_km"`
	DistanceAU   float64 `json:"distance_au"`
	LightTimeMin float64 `json:"light_time_min"`
}

func toPositionResponse(target, ephName, site string, at timescale.Time, c frames.SkyCoord) positionResponse {
	if ephName == "" {
		ephName = ephem.DefaultName()
	}
	return positionResponse{
		Target:       target,
		EpochUTC:     at.UTC().Format("2006-01-02T15:04:05"),
		Ephemeris:    ephName,
		Site:         site,
		RADeg:        c.RA.Degrees(),
		RAHMS:        c.RA.FormatHMS(2),
		DecDeg:       c.Dec.Degrees(),
		DecDMS:       c.Dec.FormatDMS(1),
		DistanceKm:   c.Distance.Kilometers(),
		DistanceAU:   c.Distance.AU(),
		LightTimeMin: c.Distance.LightMinutes(),
	}
}

func (s *Server) handleBody(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		httpError(w, http.StatusBadRequest, "missing name parameter")
		return
	}
	s.servePosition(w, r, name, func(at timescale.Time, loc *earth.Location, ephName string) (frames.SkyCoord, error) {
		return solarsystem.GetBody(name, at, loc, solarsystem.WithEphemeris(ephName))
	})
}

func (s *Server) handleSun(w http.ResponseWriter, r *http.Request) {
	s.servePosition(w, r, "sun", func(at timescale.Time, _ *earth.Location, _ string) (frames.SkyCoord, error) {
		return solarsystem.GetSun(at)
	})
}

func (s *Server) handleMoon(w http.ResponseWriter, r *http.Request) {
	s.servePosition(w, r, "moon", func(at timescale.Time, loc *earth.Location, ephName string) (frames.SkyCoord, error) {
		return solarsystem.GetMoon(at, loc, solarsystem.WithEphemeris(ephName))
	})
}

func (s *Server) servePosition(w http.ResponseWriter, r *http.Request,
	target string, compute func(timescale.Time, *earth.Location, string) (frames.SkyCoord, error)) {

	q := r.URL.Query()
	at, err := s.parseTime(q.Get("time"))
	if err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	loc, siteName, err := s.parseObserver(q.Get("site"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	ephName := q.Get("ephemeris")

	c, err := compute(at, loc, ephName)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	s.recordQuery(r.Context(), target, siteName, ephName, at, c)
	writeJSON(w, http.StatusOK, toPositionResponse(target, ephName, siteName, at, c))
}

type barycentricResponse struct {
	Target    string      `json:"target"`
	EpochUTC  string      `json:"epoch_utc"`
	Ephemeris string      `json:"ephemeris"`
	PosKm     [3]float64  `json:"pos_km"`
	VelKmS    *[3]float64 `json:"vel_km_s,omitempty"`
}

func (s *Server) handleBarycentric(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	name := q.Get("name")
	if name == "" {
		httpError(w, http.StatusBadRequest, "missing name parameter")
		return
	}
	at, err := s.parseTime(q.Get("time"))
	if err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	ephName := q.Get("ephemeris")
	opt := solarsystem.WithEphemeris(ephName)

	resp := barycentricResponse{
		Target:    name,
		EpochUTC:  at.UTC().Format("2006-01-02T15:04:05"),
		Ephemeris: ephName,
	}
	if resp.Ephemeris == "" {
		resp.Ephemeris = ephem.DefaultName()
	}

	pos, vel, err := solarsystem.GetBodyBarycentricPosVel(name, at, opt)
	switch {
	case err == nil:
		resp.PosKm = [3]float64{pos.X, pos.Y, pos.Z}
		resp.VelKmS = &[3]float64{vel.X, vel.Y, vel.Z}
	case errors.Is(err, ephem.ErrNoVelocity):
		pos, perr := solarsystem.GetBodyBarycentric(name, at, opt)
		if perr != nil {
			writeDomainError(w, perr)
			return
		}
		resp.PosKm = [3]float64{pos.X, pos.Y, pos.Z}
	default:
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type trackResponse struct {
	Target   string             `json:"target"`
	Site     string             `json:"site,omitempty"`
	StepDays float64            `json:"step_days"`
	Samples  []positionResponse `json:"samples"`
}

func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	name := q.Get("name")
	if name == "" {
		httpError(w, http.StatusBadRequest, "missing name parameter")
		return
	}
	start, err := s.parseTime(q.Get("start"))
	if err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	end, err := s.parseTime(q.Get("end"))
	if err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	step := 1.0
	if raw := q.Get("step_days"); raw != "" {
		if step, err = strconv.ParseFloat(raw, 64); err != nil || step <= 0 {
			httpError(w, http.StatusBadRequest, "step_days must be a positive number")
			return
		}
	}
	loc, siteName, err := s.parseObserver(q.Get("site"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	ephName := q.Get("ephemeris")

	coords, err := solarsystem.Track(name, start, end, step, loc, solarsystem.WithEphemeris(ephName))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := trackResponse{Target: name, Site: siteName, StepDays: step}
	at := start
	for _, c := range coords {
		resp.Samples = append(resp.Samples, toPositionResponse(name, ephName, siteName, at, c))
		at = at.AddDays(step)
	}
	writeJSON(w, http.StatusOK, resp)
}

type skyResponse struct {
	EpochUTC  string             `json:"epoch_utc"`
	Site      string             `json:"site,omitempty"`
	Refreshed string             `json:"refreshed"`
	Bodies    []positionResponse `json:"bodies"`
}

func (s *Server) handleSky(w http.ResponseWriter, r *http.Request) {
	if s.sky == nil {
		httpError(w, http.StatusNotFound, "sky snapshots are not enabled")
		return
	}
	snap, ok := s.sky.Snapshot()
	if !ok {
		httpError(w, http.StatusServiceUnavailable, "no sky snapshot yet")
		return
	}

	resp := skyResponse{
		EpochUTC:  snap.Time.UTC().Format("2006-01-02T15:04:05"),
		Site:      snap.Site,
		Refreshed: snap.Refreshed.Format(time.RFC3339),
	}
	for _, b := range body.All() {
		if c, ok := snap.Coords[b]; ok {
			resp.Bodies = append(resp.Bodies, toPositionResponse(string(b), "", snap.Site, snap.Time, c))
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.queryLog == nil {
		httpError(w, http.StatusNotFound, "the query log is not enabled")
		return
	}
	q := r.URL.Query()
	limit := 50
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			httpError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	var (
		entries []obslog.Entry
		err     error
	)
	if target := q.Get("target"); target != "" {
		entries, err = s.queryLog.ByTarget(r.Context(), target, limit)
	} else {
		entries, err = s.queryLog.Recent(r.Context(), limit)
	}
	if err != nil {
		s.log.Error(r.Context(), "query log read failed", logging.String("error", err.Error()))
		httpError(w, http.StatusInternalServerError, "query log read failed")
		return
	}
	if entries == nil {
		entries = []obslog.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// parseTime reads a query epoch; empty means now.
func (s *Server) parseTime(raw string) (timescale.Time, error) {
	if raw == "" {
		return timescale.FromTime(s.now()), nil
	}
	return timescale.Parse(raw)
}

// parseObserver resolves a site name to a location; empty means geocentric.
func (s *Server) parseObserver(site string) (*earth.Location, string, error) {
	if site == "" {
		return nil, "", nil
	}
	if s.sites == nil {
		return nil, "", sites.ErrUnknownSite
	}
	entry, err := s.sites.Lookup(site)
	if err != nil {
		return nil, "", err
	}
	loc := entry.Location()
	return &loc, entry.Name, nil
}

func (s *Server) recordQuery(ctx context.Context, target, site, ephName string, at timescale.Time, c frames.SkyCoord) {
	if s.queryLog == nil {
		return
	}
	if ephName == "" {
		ephName = ephem.DefaultName()
	}
	_, err := s.queryLog.Record(ctx, obslog.Entry{
		Target:     target,
		Epoch:      at.UTC().Format("2006-01-02T15:04:05"),
		Site:       site,
		Ephemeris:  ephName,
		RADeg:      c.RA.Degrees(),
		DecDeg:     c.Dec.Degrees(),
		DistanceKm: c.Distance.Kilometers(),
	})
	if err != nil {
		s.log.Warn(ctx, "query log write failed", logging.String("error", err.Error()))
		return
	}
	if n, err := s.queryLog.Count(ctx); err == nil {
		s.metrics.SetQueryLogEntries(n)
	}
}

// writeDomainError maps pipeline errors to HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, body.ErrUnknownBody), errors.Is(err, sites.ErrUnknownSite):
		httpError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ephem.ErrUnknownEphemeris):
		httpError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ephem.ErrKernelUnavailable), errors.Is(err, ephem.ErrEpochNotCovered):
		httpError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, ephem.ErrNoVelocity):
		httpError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		httpError(w, http.StatusInternalServerError, err.Error())
	}
}

func httpError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
