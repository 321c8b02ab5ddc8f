// Package autodj keeps the radio fed: it walks the station graph and
// renders tracks ahead of playback.
package autodj

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/satindergrewal/brandtone/internal/audio"
	"github.com/satindergrewal/brandtone/internal/metrics"
	"github.com/satindergrewal/brandtone/internal/render"
)

// ErrUnknownStation is returned when a station name is not in the graph.
var ErrUnknownStation = errors.New("unknown station")

// Transition triggers, used as metric labels.
const (
	triggerDwell  = "dwell"
	triggerManual = "manual"
)

// SchedulerConfig holds auto-DJ parameters.
type SchedulerConfig struct {
	StartingStation string
	TrackDuration   int // seconds
	BufferAhead     int // tracks to render ahead of playback
	DwellMin        int // min seconds per station
	DwellMax        int // max seconds per station
}

// SchedulerStatus is the current state of the auto-DJ.
type SchedulerStatus struct {
	Station        string  `json:"station"`
	Prompt         string  `json:"prompt"`
	Genre          string  `json:"genre"`
	Mood           string  `json:"mood"`
	AutoDJ         bool    `json:"auto_dj"`
	Idle           bool    `json:"idle"`
	DwellRemaining float64 `json:"dwell_remaining"` // seconds
	QueueSize      int     `json:"queue_size"`
	TrackDuration  int     `json:"track_duration"`
	LastTrack      string  `json:"last_track,omitempty"`
}

// TrackRenderer renders one track to a file.
type TrackRenderer interface {
	Render(req render.Request) (render.Result, error)
}

// Player accepts rendered tracks for playback.
type Player interface {
	Enqueue(t audio.TrackInfo)
	QueueSize() int
	Skip()
}

// Pruner drops old rendered tracks, keeping the newest keep files.
type Pruner interface {
	Prune(keep int) (int, error)
}

// ListenerCountFunc reports how many listeners are connected.
type ListenerCountFunc func() int

// Scheduler manages station transitions and track rendering.
type Scheduler struct {
	renderer TrackRenderer
	player   Player
	logger   *zap.Logger

	pollInterval time.Duration
	retryDelay   time.Duration

	mu              sync.RWMutex
	cfg             SchedulerConfig
	currentStation  string
	autoDJ          bool
	idle            bool
	dwellEnd        time.Time
	lastTrack       string
	listenerCountFn ListenerCountFunc
	pruner          Pruner
}

// NewScheduler creates an auto-DJ scheduler. An unknown starting station
// falls back to "lobby".
func NewScheduler(renderer TrackRenderer, player Player, cfg SchedulerConfig, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !IsValidStation(cfg.StartingStation) {
		cfg.StartingStation = "lobby"
	}
	if cfg.BufferAhead < 1 {
		cfg.BufferAhead = 1
	}
	s := &Scheduler{
		renderer:       renderer,
		player:         player,
		logger:         logger,
		pollInterval:   time.Second,
		retryDelay:     5 * time.Second,
		cfg:            cfg,
		currentStation: cfg.StartingStation,
		autoDJ:         true,
	}
	s.resetDwell()
	return s
}

// SetListenerCountFunc enables idle pause: while fn reports zero listeners
// no new tracks are rendered. Pass nil to always render.
func (s *Scheduler) SetListenerCountFunc(fn ListenerCountFunc) {
	s.mu.Lock()
	s.listenerCountFn = fn
	s.mu.Unlock()
}

// SetPruner makes the scheduler delete played tracks after each render. The
// pruner must own only radio tracks; it keeps the queue, the playing track
// and the one fading in.
func (s *Scheduler) SetPruner(p Pruner) {
	s.mu.Lock()
	s.pruner = p
	s.mu.Unlock()
}

// Status returns the current DJ state.
func (s *Scheduler) Status() SchedulerStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	remaining := time.Until(s.dwellEnd).Seconds()
	if remaining < 0 {
		remaining = 0
	}
	st := Stations[s.currentStation]
	return SchedulerStatus{
		Station:        st.Name,
		Prompt:         st.Prompt,
		Genre:          st.Genre.String(),
		Mood:           st.Mood.String(),
		AutoDJ:         s.autoDJ,
		Idle:           s.idle,
		DwellRemaining: remaining,
		QueueSize:      s.player.QueueSize(),
		TrackDuration:  s.cfg.TrackDuration,
		LastTrack:      s.lastTrack,
	}
}

// SetStation manually switches to a station and restarts its dwell timer.
func (s *Scheduler) SetStation(name string) error {
	if !IsValidStation(name) {
		return ErrUnknownStation
	}
	s.mu.Lock()
	prev := s.currentStation
	s.currentStation = name
	s.resetDwell()
	s.mu.Unlock()

	metrics.StationTransitionsTotal.WithLabelValues(triggerManual).Inc()
	s.logger.Info("station set", zap.String("from", prev), zap.String("to", name))
	return nil
}

// Skip skips the current track.
func (s *Scheduler) Skip() {
	s.player.Skip()
}

// SetAutoDJ enables or disables automatic station transitions.
func (s *Scheduler) SetAutoDJ(enabled bool) {
	s.mu.Lock()
	s.autoDJ = enabled
	if enabled {
		s.resetDwell()
	}
	s.mu.Unlock()
	s.logger.Info("auto-dj toggled", zap.Bool("enabled", enabled))
}

// SetTrackDuration updates the duration for future rendered tracks (seconds).
func (s *Scheduler) SetTrackDuration(seconds int) error {
	if seconds <= 0 {
		return render.ErrInvalidDuration
	}
	s.mu.Lock()
	s.cfg.TrackDuration = seconds
	s.mu.Unlock()
	s.logger.Info("track duration set", zap.Int("seconds", seconds))
	return nil
}

// TrackDuration returns the current track duration setting.
func (s *Scheduler) TrackDuration() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.TrackDuration
}

// Run starts the auto-DJ loop. Blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.mu.Lock()
	s.resetDwell()
	station := s.currentStation
	s.mu.Unlock()

	s.logger.Info("auto-dj started", zap.String("station", station))

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		s.mu.RLock()
		autoDJ := s.autoDJ
		expired := time.Now().After(s.dwellEnd)
		s.mu.RUnlock()

		if autoDJ && expired {
			s.transitionStation()
		}

		if s.checkIdle() {
			s.wait(ctx, s.pollInterval)
			continue
		}

		if s.player.QueueSize() < s.cfg.BufferAhead {
			if err := s.renderTrack(); err != nil {
				s.wait(ctx, s.retryDelay)
			}
		} else {
			s.wait(ctx, s.pollInterval)
		}
	}
}

// checkIdle updates and returns the idle flag.
func (s *Scheduler) checkIdle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	idle := s.listenerCountFn != nil && s.listenerCountFn() == 0
	if idle != s.idle {
		s.logger.Info("listener state changed", zap.Bool("idle", idle))
	}
	s.idle = idle
	return idle
}

func (s *Scheduler) renderTrack() error {
	s.mu.RLock()
	st := Stations[s.currentStation]
	trackDur := s.cfg.TrackDuration
	s.mu.RUnlock()

	id := uuid.NewString()
	name := TrackName(st.Name, id)

	res, err := s.renderer.Render(render.Request{
		Prompt:   st.Prompt,
		Title:    trackTitle(name, id),
		Duration: trackDur,
	})
	if err != nil {
		s.logger.Error("track render failed",
			zap.String("station", st.Name),
			zap.Duration("retry_in", s.retryDelay),
			zap.Error(err),
		)
		return err
	}

	s.mu.Lock()
	s.lastTrack = name
	s.mu.Unlock()

	s.logger.Info("track ready",
		zap.String("name", name),
		zap.String("id", id),
		zap.String("station", st.Name),
	)

	s.player.Enqueue(audio.TrackInfo{
		ID:      id,
		Station: st.Name,
		Genre:   res.Genre.String(),
		Mood:    res.Mood.String(),
		Path:    res.Path,
		Name:    name,
	})
	s.prune()
	return nil
}

func (s *Scheduler) prune() {
	s.mu.RLock()
	p := s.pruner
	keep := s.cfg.BufferAhead + 2
	s.mu.RUnlock()
	if p == nil {
		return
	}
	removed, err := p.Prune(keep)
	if err != nil {
		s.logger.Warn("prune played tracks", zap.Error(err))
	}
	if removed > 0 {
		s.logger.Debug("pruned played tracks", zap.Int("removed", removed), zap.Int("kept", keep))
	}
}

func (s *Scheduler) transitionStation() {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := Stations[s.currentStation]
	if !ok || len(st.Adjacent) == 0 {
		s.resetDwell()
		return
	}

	next := st.Adjacent[rand.IntN(len(st.Adjacent))]
	s.logger.Info("auto-dj transition", zap.String("from", s.currentStation), zap.String("to", next))
	metrics.StationTransitionsTotal.WithLabelValues(triggerDwell).Inc()
	s.currentStation = next
	s.resetDwell()
}

// resetDwell sets a new random dwell timer. Must be called with mu held.
func (s *Scheduler) resetDwell() {
	spread := s.cfg.DwellMax - s.cfg.DwellMin
	if spread <= 0 {
		spread = 1
	}
	dwell := s.cfg.DwellMin + rand.IntN(spread)
	s.dwellEnd = time.Now().Add(time.Duration(dwell) * time.Second)
}

func (s *Scheduler) wait(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
