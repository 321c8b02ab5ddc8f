package audio

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/satindergrewal/brandtone/internal/metrics"
)

type decodedTrack struct {
	info    TrackInfo
	samples []int16
}

// DecodeFunc loads a track file into stream-format samples.
type DecodeFunc func(path string) ([]int16, error)

// Pipeline loads tracks, applies crossfade, and outputs PCM frames at real-time rate.
type Pipeline struct {
	trackCh chan TrackInfo
	frameCh chan []int16
	skipCh  chan struct{}
	decode  DecodeFunc
	logger  *zap.Logger

	mu            sync.RWMutex
	crossfadeDur  time.Duration
	currentTrack  TrackInfo
	trackPosition time.Duration
	trackDuration time.Duration
}

// NewPipeline creates an audio pipeline with the given crossfade duration.
func NewPipeline(crossfadeDuration time.Duration, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		trackCh:      make(chan TrackInfo, 8),
		frameCh:      make(chan []int16, 100),
		skipCh:       make(chan struct{}, 1),
		decode:       DecodeFile,
		logger:       logger,
		crossfadeDur: crossfadeDuration,
	}
}

// SetDecoder replaces the track loader. Must be called before Run.
func (p *Pipeline) SetDecoder(fn DecodeFunc) {
	p.decode = fn
}

// Frames returns the channel of outgoing PCM frames (20ms each).
func (p *Pipeline) Frames() <-chan []int16 {
	return p.frameCh
}

// Enqueue adds a track to the pipeline's playback queue. It blocks while
// the queue is full.
func (p *Pipeline) Enqueue(t TrackInfo) {
	p.trackCh <- t
	metrics.QueuedTracks.Set(float64(len(p.trackCh)))
}

// QueueSize returns the number of tracks waiting in the queue.
func (p *Pipeline) QueueSize() int {
	return len(p.trackCh)
}

// Skip interrupts the current track.
func (p *Pipeline) Skip() {
	select {
	case p.skipCh <- struct{}{}:
	default:
	}
}

// SetCrossfade changes the crossfade length for upcoming transitions.
func (p *Pipeline) SetCrossfade(d time.Duration) {
	p.mu.Lock()
	p.crossfadeDur = d
	p.mu.Unlock()
	p.logger.Info("crossfade updated", zap.Duration("crossfade", d))
}

// CrossfadeDuration returns the current crossfade length.
func (p *Pipeline) CrossfadeDuration() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.crossfadeDur
}

// Status returns current playback info.
func (p *Pipeline) Status() (track TrackInfo, position, duration time.Duration) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.currentTrack, p.trackPosition, p.trackDuration
}

// Run starts the pipeline. Blocks until ctx is cancelled.
func (p *Pipeline) Run(ctx context.Context) {
	defer close(p.frameCh)

	ticker := time.NewTicker(FrameDuration)
	defer ticker.Stop()

	// Background loader: converts file paths to stream-format PCM
	decodedCh := make(chan *decodedTrack, 2)
	go func() {
		defer close(decodedCh)
		for {
			select {
			case <-ctx.Done():
				return
			case t, ok := <-p.trackCh:
				if !ok {
					return
				}
				metrics.QueuedTracks.Set(float64(len(p.trackCh)))
				samples, err := p.decode(t.Path)
				if err != nil {
					p.logger.Warn("track load failed", zap.String("path", t.Path), zap.Error(err))
					continue
				}
				select {
				case decodedCh <- &decodedTrack{info: t, samples: samples}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	// Main playback loop
	var pending *decodedTrack
	var startFrame int

	for {
		var dt *decodedTrack

		if pending != nil {
			dt = pending
			pending = nil
		} else {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-decodedCh:
				if !ok {
					return
				}
				dt = d
				startFrame = 0
			}
		}

		next, nextStart := p.playTrack(ctx, ticker, decodedCh, dt, startFrame)
		if next != nil {
			pending = next
			startFrame = nextStart
		} else {
			startFrame = 0
		}
	}
}

// crossfadeFrames is the crossfade length in frames, never more than half
// the track.
func (p *Pipeline) crossfadeFrames(totalFrames int) int {
	cf := int(p.CrossfadeDuration() / FrameDuration)
	if cf > totalFrames/2 {
		cf = totalFrames / 2
	}
	return cf
}

// playTrack plays a decoded track with crossfade into the next one if available.
// Returns the next decoded track and starting frame if a crossfade occurred.
func (p *Pipeline) playTrack(ctx context.Context, ticker *time.Ticker, decodedCh <-chan *decodedTrack, dt *decodedTrack, startFrame int) (*decodedTrack, int) {
	samples := dt.samples
	totalFrames := len(samples) / FrameSamples
	cfFrames := p.crossfadeFrames(totalFrames)
	cfStart := totalFrames - cfFrames

	p.setTrack(dt.info, totalFrames)
	metrics.TracksPlayedTotal.Inc()
	p.logger.Info("now playing",
		zap.String("track", dt.info.ID),
		zap.String("name", dt.info.Name),
		zap.String("station", dt.info.Station),
		zap.Int("frames", totalFrames),
	)

	for i := startFrame; i < cfStart; i++ {
		if !p.sendFrame(ctx, ticker, samples[i*FrameSamples:(i+1)*FrameSamples]) {
			return nil, 0
		}
		p.updatePosition(i)
	}

	var next *decodedTrack
	if cfFrames > 0 {
		select {
		case d := <-decodedCh:
			next = d
		default:
		}
	}

	if next != nil {
		played := 0
		for i := 0; i < cfFrames; i++ {
			outPos := (cfStart + i) * FrameSamples
			inPos := i * FrameSamples

			if outPos+FrameSamples > len(samples) || inPos+FrameSamples > len(next.samples) {
				break
			}

			progress := float64(i) / float64(cfFrames)
			frame := CrossfadeFrames(
				samples[outPos:outPos+FrameSamples],
				next.samples[inPos:inPos+FrameSamples],
				progress,
			)

			if !p.sendFrame(ctx, ticker, frame) {
				if ctx.Err() != nil {
					return nil, 0
				}
				// Skipped mid-fade: next is already dequeued, play it in full.
				return next, 0
			}
			p.updatePosition(cfStart + i)
			played++
		}

		p.logger.Info("crossfaded", zap.String("from", dt.info.ID), zap.String("to", next.info.ID))
		return next, played
	}

	for i := cfStart; i < totalFrames; i++ {
		if !p.sendFrame(ctx, ticker, samples[i*FrameSamples:(i+1)*FrameSamples]) {
			return nil, 0
		}
		p.updatePosition(i)
	}

	return nil, 0
}

// sendFrame waits for the ticker then sends a frame. Returns false on skip or cancel.
func (p *Pipeline) sendFrame(ctx context.Context, ticker *time.Ticker, frame []int16) bool {
	select {
	case <-ctx.Done():
		return false
	case <-p.skipCh:
		p.logger.Info("track skipped")
		return false
	case <-ticker.C:
	}

	select {
	case p.frameCh <- frame:
		return true
	case <-ctx.Done():
		return false
	}
}

func (p *Pipeline) setTrack(info TrackInfo, totalFrames int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.currentTrack = info
	p.trackPosition = 0
	p.trackDuration = time.Duration(totalFrames) * FrameDuration
}

func (p *Pipeline) updatePosition(frameIdx int) {
	p.mu.Lock()
	p.trackPosition = time.Duration(frameIdx) * FrameDuration
	p.mu.Unlock()
}
