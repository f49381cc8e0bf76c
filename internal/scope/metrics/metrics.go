// Package metrics provides observability for the scope engine. All methods
// are nil-safe so the engine can run uninstrumented in tests.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the scope engine instruments.
type Metrics struct {
	// Resolutions counts completed passes by winning source.
	Resolutions *prometheus.CounterVec

	// ResolveDuration tracks full pass latency including membership load.
	ResolveDuration prometheus.Histogram

	// LoadFailures counts membership loads aborted by transient errors.
	LoadFailures prometheus.Counter

	// OrgSwitches counts accepted active-organization changes.
	OrgSwitches prometheus.Counter

	// LocationSwitches counts location change attempts by outcome.
	LocationSwitches *prometheus.CounterVec

	// AllDowngrades counts cached org-wide references that lost org-wide
	// access and fell through to the default rule.
	AllDowngrades *prometheus.CounterVec

	// CacheWriteFailures counts swallowed device cache write errors.
	CacheWriteFailures prometheus.Counter

	// ProfileWriteFailures counts best-effort profile write-back errors.
	ProfileWriteFailures prometheus.Counter

	// DefaultSaves counts explicit save-as-default calls by outcome.
	DefaultSaves *prometheus.CounterVec

	// ActiveSessions gauges live identity sessions.
	ActiveSessions prometheus.Gauge
}

// New registers and returns the scope engine metrics.
func New() *Metrics {
	return &Metrics{
		Resolutions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "stc_scope_resolutions_total",
			Help: "Completed resolution passes by org and location source",
		}, []string{"org_source", "location_source"}),

		ResolveDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "stc_scope_resolve_duration_seconds",
			Help:    "Duration of full resolution passes including membership load",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),

		LoadFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stc_scope_load_failures_total",
			Help: "Membership loads aborted by transient store errors",
		}),

		OrgSwitches: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stc_scope_org_switches_total",
			Help: "Accepted active-organization changes",
		}),

		LocationSwitches: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "stc_scope_location_switches_total",
			Help: "Location change attempts by outcome",
		}, []string{"outcome"}),

		AllDowngrades: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "stc_scope_all_downgrades_total",
			Help: "Org-wide references downgraded to the default location rule",
		}, []string{"source"}),

		CacheWriteFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stc_scope_cache_write_failures_total",
			Help: "Swallowed device cache write errors",
		}),

		ProfileWriteFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stc_scope_profile_write_failures_total",
			Help: "Best-effort profile write-back errors",
		}),

		DefaultSaves: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "stc_scope_default_saves_total",
			Help: "Explicit save-as-default calls by outcome",
		}, []string{"outcome"}),

		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "stc_scope_active_sessions",
			Help: "Live identity sessions",
		}),
	}
}

func (m *Metrics) IncrementResolution(orgSource, locationSource string) {
	if m != nil {
		m.Resolutions.WithLabelValues(orgSource, locationSource).Inc()
	}
}

func (m *Metrics) ObserveResolveDuration(d time.Duration) {
	if m != nil {
		m.ResolveDuration.Observe(d.Seconds())
	}
}

func (m *Metrics) IncrementLoadFailure() {
	if m != nil {
		m.LoadFailures.Inc()
	}
}

func (m *Metrics) IncrementOrgSwitch() {
	if m != nil {
		m.OrgSwitches.Inc()
	}
}

func (m *Metrics) IncrementLocationSwitch(outcome string) {
	if m != nil {
		m.LocationSwitches.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) IncrementAllDowngrade(source string) {
	if m != nil {
		m.AllDowngrades.WithLabelValues(source).Inc()
	}
}

func (m *Metrics) IncrementCacheWriteFailure() {
	if m != nil {
		m.CacheWriteFailures.Inc()
	}
}

func (m *Metrics) IncrementProfileWriteFailure() {
	if m != nil {
		m.ProfileWriteFailures.Inc()
	}
}

func (m *Metrics) IncrementDefaultSave(outcome string) {
	if m != nil {
		m.DefaultSaves.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) AddActiveSessions(delta float64) {
	if m != nil {
		m.ActiveSessions.Add(delta)
	}
}
