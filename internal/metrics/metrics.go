package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Render outcomes.
const (
	OutcomeOK      = "ok"
	OutcomeInvalid = "invalid"
	OutcomeIOError = "io_error"
)

// Gauges
var (
	ActiveListeners = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "brandtone_active_listeners",
		Help: "Connected stream listeners by transport",
	}, []string{"transport"})
	QueuedTracks = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "brandtone_queued_tracks",
		Help: "Rendered tracks waiting for playback",
	})
)

// Counters
var (
	RendersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "brandtone_renders_total",
		Help: "Render requests by outcome",
	}, []string{"outcome"})
	RendersByDescriptor = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "brandtone_renders_by_descriptor_total",
		Help: "Successful renders by extracted genre and mood",
	}, []string{"genre", "mood"})
	SamplesRenderedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "brandtone_samples_rendered_total",
		Help: "PCM samples synthesized",
	})
	DurationClampedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "brandtone_duration_clamped_total",
		Help: "Render requests whose duration exceeded the configured maximum",
	})
	TracksPlayedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "brandtone_tracks_played_total",
		Help: "Tracks started by the playback pipeline",
	})
	FramesDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "brandtone_frames_dropped_total",
		Help: "PCM frames dropped for slow listeners",
	})
	StationTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "brandtone_station_transitions_total",
		Help: "Station changes by trigger",
	}, []string{"trigger"})
)

// Histograms
var (
	RenderLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "brandtone_render_duration_ms",
		Help:    "Render duration in milliseconds by stage",
		Buckets: []float64{5, 25, 50, 100, 250, 500, 1000, 2500},
	}, []string{"stage"})
)
