package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/satindergrewal/brandtone/internal/autodj"
	"github.com/satindergrewal/brandtone/internal/descriptor"
	"github.com/satindergrewal/brandtone/internal/render"
	"github.com/satindergrewal/brandtone/internal/wavstore"
)

// Bounds for runtime radio settings.
const (
	MaxTrackDuration = 300 // seconds
	MaxCrossfade     = 30  // seconds
)

type renderRequest struct {
	Prompt   string `json:"prompt"`
	Title    string `json:"title"`
	Duration *int   `json:"duration"`
}

type renderResponse struct {
	Path     string `json:"path"`
	Name     string `json:"name"`
	Genre    string `json:"genre"`
	Mood     string `json:"mood"`
	Duration int    `json:"duration"`
	Samples  int    `json:"samples"`
}

// renderTrack handles POST /api/render.
func (s *Server) renderTrack(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	duration := render.DefaultDuration
	if req.Duration != nil {
		duration = *req.Duration
	}

	res, err := s.deps.Renderer.Render(render.Request{
		Prompt:   req.Prompt,
		Title:    req.Title,
		Duration: duration,
	})
	switch {
	case errors.Is(err, render.ErrInvalidDuration), errors.Is(err, render.ErrInvalidTitle):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "render failed")
		return
	}

	writeJSON(w, http.StatusCreated, renderResponse{
		Path:     res.Path,
		Name:     filepath.Base(res.Path),
		Genre:    res.Genre.String(),
		Mood:     res.Mood.String(),
		Duration: res.Duration,
		Samples:  res.Samples,
	})
}

// describe handles POST /api/describe.
func (s *Server) describe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	g, m := descriptor.Extract(req.Prompt)
	writeJSON(w, http.StatusOK, map[string]string{"genre": g.String(), "mood": m.String()})
}

// listTracks handles GET /api/tracks.
func (s *Server) listTracks(w http.ResponseWriter, r *http.Request) {
	tracks, err := s.deps.Catalog.List()
	if err != nil {
		s.logger.Error("list tracks", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list failed")
		return
	}
	if tracks == nil {
		tracks = []wavstore.Track{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"tracks": tracks})
}

// downloadTrack handles GET /api/tracks/{name}.
func (s *Server) downloadTrack(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	path, err := s.deps.Catalog.Lookup(name)
	if err != nil {
		writeError(w, http.StatusNotFound, "track not found")
		return
	}
	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	http.ServeFile(w, r, path)
}

type playlogRequest struct {
	Station   string     `json:"station"`
	TrackID   string     `json:"track_id"`
	StartedAt *time.Time `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at"`
}

// playlog handles POST /api/playlog. Records are logged, not stored.
func (s *Server) playlog(w http.ResponseWriter, r *http.Request) {
	var req playlogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Station == "" || req.TrackID == "" || req.StartedAt == nil {
		writeError(w, http.StatusBadRequest, "missing required fields: station, track_id, started_at")
		return
	}

	fields := []zap.Field{
		zap.String("station", req.Station),
		zap.String("track_id", req.TrackID),
		zap.Time("started_at", *req.StartedAt),
	}
	if req.EndedAt != nil {
		fields = append(fields, zap.Time("ended_at", *req.EndedAt))
	}
	s.logger.Info("play log", fields...)

	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// status handles GET /api/status.
func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	dj := s.deps.DJ.Status()
	track, pos, dur := s.deps.Player.Status()

	trackName := track.Name
	if trackName == "" {
		trackName = autodj.TrackName(track.Station, track.ID)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"station":         dj.Station,
		"prompt":          dj.Prompt,
		"genre":           dj.Genre,
		"mood":            dj.Mood,
		"auto_dj":         dj.AutoDJ,
		"idle":            dj.Idle,
		"dwell_remaining": dj.DwellRemaining,
		"queue_size":      dj.QueueSize,
		"track_id":        track.ID,
		"track_name":      trackName,
		"track_station":   track.Station,
		"position":        pos.Seconds(),
		"duration":        dur.Seconds(),
		"listeners":       count(s.deps.Listeners),
		"webrtc_peers":    count(s.deps.Peers),
		"config": map[string]any{
			"track_duration": s.deps.DJ.TrackDuration(),
			"crossfade":      s.deps.Player.CrossfadeDuration().Seconds(),
		},
	})
}

// stations handles GET /api/stations.
func (s *Server) stations(w http.ResponseWriter, r *http.Request) {
	type station struct {
		Name     string   `json:"name"`
		Prompt   string   `json:"prompt"`
		Genre    string   `json:"genre"`
		Mood     string   `json:"mood"`
		Adjacent []string `json:"adjacent"`
	}
	var out []station
	for _, name := range autodj.StationNames() {
		st := autodj.Stations[name]
		out = append(out, station{
			Name:     st.Name,
			Prompt:   st.Prompt,
			Genre:    st.Genre.String(),
			Mood:     st.Mood.String(),
			Adjacent: st.Adjacent,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"stations": out})
}

// setStation handles POST /api/station.
func (s *Server) setStation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Station string `json:"station"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Station == "" {
		writeError(w, http.StatusBadRequest, "invalid station")
		return
	}
	if err := s.deps.DJ.SetStation(req.Station); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "station": req.Station})
}

// skip handles POST /api/skip.
func (s *Server) skip(w http.ResponseWriter, r *http.Request) {
	s.deps.DJ.Skip()
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// setAutoDJ handles POST /api/autodj.
func (s *Server) setAutoDJ(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	s.deps.DJ.SetAutoDJ(req.Enabled)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "auto_dj": req.Enabled})
}

// setConfig handles POST /api/config. Fields left out are unchanged.
func (s *Server) setConfig(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TrackDuration *int     `json:"track_duration"`
		Crossfade     *float64 `json:"crossfade"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.TrackDuration != nil {
		// Radio tracks go through the same renderer, so its cap applies.
		limit := min(MaxTrackDuration, s.deps.Renderer.Limit())
		if v := *req.TrackDuration; v < 1 || v > limit {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("track_duration must be 1-%d", limit))
			return
		}
	}
	if req.Crossfade != nil {
		if v := *req.Crossfade; v < 0 || v > MaxCrossfade {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("crossfade must be 0-%d", MaxCrossfade))
			return
		}
	}

	if req.TrackDuration != nil {
		if err := s.deps.DJ.SetTrackDuration(*req.TrackDuration); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if req.Crossfade != nil {
		s.deps.Player.SetCrossfade(time.Duration(*req.Crossfade * float64(time.Second)))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":             true,
		"track_duration": s.deps.DJ.TrackDuration(),
		"crossfade":      s.deps.Player.CrossfadeDuration().Seconds(),
	})
}

func count(fn func() int) int {
	if fn == nil {
		return 0
	}
	return fn()
}
