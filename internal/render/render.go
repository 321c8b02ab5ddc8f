// Package render is the engine's entry point: prompt in, WAV path out.
package render

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/satindergrewal/brandtone/internal/descriptor"
	"github.com/satindergrewal/brandtone/internal/metrics"
	"github.com/satindergrewal/brandtone/internal/synth"
	"github.com/satindergrewal/brandtone/internal/wavstore"
)

// DefaultDuration is the clip length, in seconds, used by callers that
// do not ask for one.
const DefaultDuration = 30

// HardMaxDuration bounds every request, whatever the configured cap.
// Longer requests are rejected as invalid rather than clamped.
const HardMaxDuration = 300

var (
	ErrInvalidDuration = synth.ErrInvalidDuration
	ErrInvalidTitle    = wavstore.ErrInvalidTitle
)

// Request describes one clip to render.
type Request struct {
	Prompt   string
	Title    string
	Duration int // seconds, must be positive
}

// Result describes a rendered and stored clip.
type Result struct {
	Path     string
	Genre    descriptor.Genre
	Mood     descriptor.Mood
	Duration int // seconds actually rendered, after clamping
	Samples  int
}

// Store persists quantized samples under a title and returns the path.
type Store interface {
	Save(samples []int16, title string) (string, error)
}

// Renderer turns prompts into stored WAV files. It holds no per-call state
// and may be used from multiple goroutines.
type Renderer struct {
	store       Store
	maxDuration int
	logger      *zap.Logger
}

// New creates a renderer. maxDuration clamps requested durations; 0 (or a
// value above HardMaxDuration) leaves only the hard limit.
func New(store Store, maxDuration int, logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{store: store, maxDuration: maxDuration, logger: logger}
}

// Limit returns the longest duration, in seconds, Render will produce.
func (r *Renderer) Limit() int {
	if r.maxDuration <= 0 || r.maxDuration > HardMaxDuration {
		return HardMaxDuration
	}
	return r.maxDuration
}

// Render validates the request, synthesizes the clip and saves it. On any
// error no file is left behind and Result is zero.
func (r *Renderer) Render(req Request) (Result, error) {
	if req.Duration <= 0 || req.Duration > HardMaxDuration {
		metrics.RendersTotal.WithLabelValues(metrics.OutcomeInvalid).Inc()
		return Result{}, fmt.Errorf("%w: got %d, limit %d", ErrInvalidDuration, req.Duration, HardMaxDuration)
	}
	if strings.TrimSpace(req.Title) == "" {
		metrics.RendersTotal.WithLabelValues(metrics.OutcomeInvalid).Inc()
		return Result{}, ErrInvalidTitle
	}

	seconds := req.Duration
	if limit := r.Limit(); seconds > limit {
		r.logger.Warn("duration clamped",
			zap.String("title", req.Title),
			zap.Int("requested", seconds),
			zap.Int("max", limit),
		)
		metrics.DurationClampedTotal.Inc()
		seconds = limit
	}

	genre, mood := descriptor.Extract(req.Prompt)

	start := time.Now()
	buf, err := synth.Synthesize(genre, mood, seconds)
	if err != nil {
		metrics.RendersTotal.WithLabelValues(metrics.OutcomeInvalid).Inc()
		return Result{}, err
	}
	pcm := buf.PCM()
	metrics.RenderLatency.WithLabelValues("synthesize").Observe(msSince(start))

	start = time.Now()
	path, err := r.store.Save(pcm, req.Title)
	metrics.RenderLatency.WithLabelValues("write").Observe(msSince(start))
	if err != nil {
		metrics.RendersTotal.WithLabelValues(metrics.OutcomeIOError).Inc()
		r.logger.Error("render write failed",
			zap.String("title", req.Title),
			zap.Error(err),
		)
		return Result{}, fmt.Errorf("save %q: %w", req.Title, err)
	}

	metrics.RendersTotal.WithLabelValues(metrics.OutcomeOK).Inc()
	metrics.RendersByDescriptor.WithLabelValues(genre.String(), mood.String()).Inc()
	metrics.SamplesRenderedTotal.Add(float64(len(pcm)))

	r.logger.Info("track rendered",
		zap.String("title", req.Title),
		zap.String("genre", genre.String()),
		zap.String("mood", mood.String()),
		zap.Int("seconds", seconds),
		zap.String("path", path),
	)

	return Result{
		Path:     path,
		Genre:    genre,
		Mood:     mood,
		Duration: seconds,
		Samples:  len(pcm),
	}, nil
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000
}
