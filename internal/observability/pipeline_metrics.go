package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PipelineCollector exposes metrics for the position-computation pipeline:
// apparent-position evaluation latency, sky snapshot freshness, and the
// ephemeris download cache.
type PipelineCollector struct {
	gatherer prometheus.Gatherer

	ComputationDuration prometheus.Histogram
	SkySnapshotBodies   prometheus.Gauge
	EphemerisFetches    prometheus.Counter
	FetchCacheHitRatio  prometheus.Gauge
}

// NewPipelineCollector registers pipeline metrics against the provided
// registerer.
func NewPipelineCollector(reg prometheus.Registerer) (*PipelineCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	computation := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "almanac_position_computation_duration_seconds",
		Help:    "Duration of apparent-position computations, light-time iteration included.",
		Buckets: []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
	})
	computation, err := registerHistogram(reg, computation, "almanac_position_computation_duration_seconds")
	if err != nil {
		return nil, err
	}

	snapshotBodies := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "almanac_sky_snapshot_bodies",
		Help: "Number of bodies in the most recent sky snapshot.",
	})
	snapshotBodies, err = registerGauge(reg, snapshotBodies, "almanac_sky_snapshot_bodies")
	if err != nil {
		return nil, err
	}

	fetches := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "almanac_ephemeris_fetches_total",
		Help: "Cumulative number of ephemeris document downloads, revalidations included.",
	})
	fetches, err = registerCounter(reg, fetches, "almanac_ephemeris_fetches_total")
	if err != nil {
		return nil, err
	}

	cacheRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "almanac_ephemeris_cache_hit_ratio",
		Help: "Hit ratio of the ephemeris download cache.",
	})
	cacheRatio, err = registerGauge(reg, cacheRatio, "almanac_ephemeris_cache_hit_ratio")
	if err != nil {
		return nil, err
	}

	return &PipelineCollector{
		gatherer:            gatherer,
		ComputationDuration: computation,
		SkySnapshotBodies:   snapshotBodies,
		EphemerisFetches:    fetches,
		FetchCacheHitRatio:  cacheRatio,
	}, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *PipelineCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// ObserveComputation records one apparent-position computation duration.
func (c *PipelineCollector) ObserveComputation(d time.Duration) {
	if c == nil || c.ComputationDuration == nil {
		return
	}
	c.ComputationDuration.Observe(d.Seconds())
}

// SetSnapshotBodies updates the sky snapshot size gauge.
func (c *PipelineCollector) SetSnapshotBodies(count int) {
	if c == nil || c.SkySnapshotBodies == nil {
		return
	}
	c.SkySnapshotBodies.Set(float64(count))
}

// IncEphemerisFetches increments the download counter.
func (c *PipelineCollector) IncEphemerisFetches() {
	if c == nil || c.EphemerisFetches == nil {
		return
	}
	c.EphemerisFetches.Inc()
}

// SetFetchCacheHitRatio sets the download cache hit ratio, clamped to [0, 1].
func (c *PipelineCollector) SetFetchCacheHitRatio(ratio float64) {
	if c == nil || c.FetchCacheHitRatio == nil {
		return
	}
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	c.FetchCacheHitRatio.Set(ratio)
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}
