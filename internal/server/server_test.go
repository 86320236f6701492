package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/signalsfoundry/almanac/internal/observability"
	"github.com/signalsfoundry/almanac/internal/obslog"
	"github.com/signalsfoundry/almanac/internal/skywatch"
	"github.com/signalsfoundry/almanac/sites"
)

func fixedClock(s string) func() time.Time {
	t, err := time.Parse("2006-01-02 15:04", s)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t }
}

func newTestServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()

	reg, err := sites.NewRegistry()
	if err != nil {
		t.Fatalf("sites.NewRegistry: %v", err)
	}
	metrics, err := observability.NewAPICollector(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewAPICollector: %v", err)
	}
	qlog, err := obslog.Open(filepath.Join(t.TempDir(), "queries.db"))
	if err != nil {
		t.Fatalf("obslog.Open: %v", err)
	}
	t.Cleanup(func() { qlog.Close() })

	srv := New(Options{
		Metrics:  metrics,
		Sites:    reg,
		QueryLog: qlog,
		Now:      fixedClock("2014-09-25 00:00"),
	})
	return srv, srv.Handler()
}

func getJSON(t *testing.T, h http.Handler, url string, wantStatus int, out any) {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, url, nil))
	if rr.Code != wantStatus {
		t.Fatalf("GET %s status = %d, want %d; body: %s", url, rr.Code, wantStatus, rr.Body.String())
	}
	if out != nil {
		if err := json.Unmarshal(rr.Body.Bytes(), out); err != nil {
			t.Fatalf("decode %s response: %v", url, err)
		}
	}
}

func TestBodyEndpoint(t *testing.T) {
	_, h := newTestServer(t)

	var resp struct {
		Target       string  `json:"target"`
		EpochUTC     string  `json:"epoch_utc"`
		Ephemeris    string  `json:"ephemeris"`
		Site         string  `json:"site"`
		RADeg        float64 `json:"ra_deg"`
		RAHMS        string  `json:"ra_hms"`
		DistanceAU   float64 `json:"distance_au"`
		LightTimeMin float64 `json:"light_time_min"`
	}
	getJSON(t, h, "/v1/body?name=jupiter&time=2014-09-25T00:00&site=kitt%20peak", http.StatusOK, &resp)

	if resp.Target != "jupiter" {
		t.Errorf("target = %q", resp.Target)
	}
	if resp.Site != "kitt peak" {
		t.Errorf("site = %q", resp.Site)
	}
	if resp.Ephemeris != "builtin" {
		t.Errorf("ephemeris = %q, want builtin", resp.Ephemeris)
	}
	if resp.EpochUTC != "2014-09-25T00:00:00" {
		t.Errorf("epoch_utc = %q", resp.EpochUTC)
	}
	// Jupiter was ~49 light minutes out.
	if resp.LightTimeMin < 45 || resp.LightTimeMin > 55 {
		t.Errorf("light_time_min = %v, want ~49", resp.LightTimeMin)
	}
	if resp.RAHMS == "" {
		t.Error("ra_hms empty")
	}
}

func TestBodyEndpointErrors(t *testing.T) {
	_, h := newTestServer(t)

	getJSON(t, h, "/v1/body", http.StatusBadRequest, nil)
	getJSON(t, h, "/v1/body?name=vulcan", http.StatusNotFound, nil)
	getJSON(t, h, "/v1/body?name=mars&time=yesterday", http.StatusBadRequest, nil)
	getJSON(t, h, "/v1/body?name=mars&site=mount%20doom", http.StatusNotFound, nil)
	getJSON(t, h, "/v1/body?name=mars&ephemeris=horoscope", http.StatusBadRequest, nil)
	getJSON(t, h, "/v1/body?name=mars&ephemeris=de432s", http.StatusServiceUnavailable, nil)
}

func TestSunAndMoonEndpoints(t *testing.T) {
	_, h := newTestServer(t)

	var sun struct {
		DistanceAU float64 `json:"distance_au"`
	}
	getJSON(t, h, "/v1/sun?time=2014-09-25T00:00", http.StatusOK, &sun)
	if sun.DistanceAU < 0.9 || sun.DistanceAU > 1.1 {
		t.Errorf("sun distance_au = %v, want ~1", sun.DistanceAU)
	}

	var moon struct {
		DistanceKm float64 `json:"distance_km"`
	}
	getJSON(t, h, "/v1/moon?time=2014-09-25T00:00&site=kitt%20peak", http.StatusOK, &moon)
	if moon.DistanceKm < 350000 || moon.DistanceKm > 410000 {
		t.Errorf("moon distance_km = %v, want lunar range", moon.DistanceKm)
	}
}

func TestBarycentricEndpoint(t *testing.T) {
	_, h := newTestServer(t)

	var resp struct {
		PosKm  [3]float64  `json:"pos_km"`
		VelKmS *[3]float64 `json:"vel_km_s"`
	}
	getJSON(t, h, "/v1/barycentric?name=earth&time=2016-03-20T12:30:00", http.StatusOK, &resp)
	if resp.VelKmS == nil {
		t.Fatal("earth vel_km_s missing")
	}
	if resp.PosKm[0] > -1.4e8 {
		t.Errorf("earth x = %v km, want ~ -1 AU", resp.PosKm[0])
	}

	// The Moon has no builtin velocity; the endpoint degrades to
	// position-only instead of failing.
	var moon struct {
		PosKm  [3]float64  `json:"pos_km"`
		VelKmS *[3]float64 `json:"vel_km_s"`
	}
	getJSON(t, h, "/v1/barycentric?name=moon&time=2016-03-20T12:30:00", http.StatusOK, &moon)
	if moon.VelKmS != nil {
		t.Error("moon vel_km_s present, want omitted")
	}
	if moon.PosKm == [3]float64{} {
		t.Error("moon pos_km empty")
	}
}

func TestTrackEndpoint(t *testing.T) {
	_, h := newTestServer(t)

	var resp struct {
		Samples []struct {
			EpochUTC string  `json:"epoch_utc"`
			RADeg    float64 `json:"ra_deg"`
		} `json:"samples"`
	}
	getJSON(t, h, "/v1/track?name=mars&start=2014-09-25T00:00&end=2014-10-05T00:00&step_days=5", http.StatusOK, &resp)
	if len(resp.Samples) != 2 {
		t.Fatalf("len(samples) = %d, want 2", len(resp.Samples))
	}
	if resp.Samples[0].EpochUTC != "2014-09-25T00:00:00" {
		t.Errorf("first sample epoch = %q", resp.Samples[0].EpochUTC)
	}
	if resp.Samples[0].RADeg == resp.Samples[1].RADeg {
		t.Error("mars did not move between samples")
	}

	getJSON(t, h, "/v1/track?name=mars&start=2014-09-25T00:00&end=2014-10-05T00:00&step_days=-1", http.StatusBadRequest, nil)
}

func TestHistoryEndpointRecordsQueries(t *testing.T) {
	_, h := newTestServer(t)

	getJSON(t, h, "/v1/body?name=mars&time=2014-09-25T00:00", http.StatusOK, nil)
	getJSON(t, h, "/v1/sun?time=2014-09-25T00:00", http.StatusOK, nil)

	var entries []struct {
		Target    string `json:"target"`
		Ephemeris string `json:"ephemeris"`
	}
	getJSON(t, h, "/v1/history", http.StatusOK, &entries)
	if len(entries) != 2 {
		t.Fatalf("len(history) = %d, want 2", len(entries))
	}

	getJSON(t, h, "/v1/history?target=mars", http.StatusOK, &entries)
	if len(entries) != 1 || entries[0].Target != "mars" {
		t.Errorf("filtered history = %+v, want one mars entry", entries)
	}
	getJSON(t, h, "/v1/history?limit=0", http.StatusBadRequest, nil)
}

func TestSkyEndpoint(t *testing.T) {
	sky := skywatch.New(skywatch.Config{Now: fixedClock("2014-09-25 00:00")})
	srv := New(Options{Sky: sky, Now: fixedClock("2014-09-25 00:00")})
	h := srv.Handler()

	getJSON(t, h, "/v1/sky", http.StatusServiceUnavailable, nil)

	if err := sky.Refresh(httptest.NewRequest(http.MethodGet, "/", nil).Context()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	var resp struct {
		Bodies []struct {
			Target string `json:"target"`
		} `json:"bodies"`
	}
	getJSON(t, h, "/v1/sky", http.StatusOK, &resp)
	if len(resp.Bodies) < 10 {
		t.Errorf("len(bodies) = %d, want >= 10", len(resp.Bodies))
	}
}

func TestHealthAndRequestID(t *testing.T) {
	_, h := newTestServer(t)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("/healthz status = %d", rr.Code)
	}
	if rr.Header().Get("X-Request-Id") == "" {
		t.Error("response missing X-Request-Id")
	}

	// An inbound request ID is echoed back.
	rr = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	h.ServeHTTP(rr, req)
	if got := rr.Header().Get("X-Request-Id"); got != "abc-123" {
		t.Errorf("X-Request-Id = %q, want abc-123", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	_, h := newTestServer(t)

	getJSON(t, h, "/v1/body?name=mars&time=2014-09-25T00:00", http.StatusOK, nil)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "almanac_http_requests_total") {
		t.Error("/metrics missing almanac_http_requests_total")
	}
	if !strings.Contains(body, "almanac_query_log_entries") {
		t.Error("/metrics missing almanac_query_log_entries")
	}
}
