// Package api is the HTTP surface: on-demand rendering, the track catalog,
// radio control and the audio streams.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/satindergrewal/brandtone/internal/audio"
	"github.com/satindergrewal/brandtone/internal/autodj"
	"github.com/satindergrewal/brandtone/internal/render"
	"github.com/satindergrewal/brandtone/internal/wavstore"
)

// Renderer renders one clip to a file. Limit is the longest clip, in
// seconds, it will produce without clamping.
type Renderer interface {
	Render(req render.Request) (render.Result, error)
	Limit() int
}

// Catalog lists and resolves stored tracks.
type Catalog interface {
	List() ([]wavstore.Track, error)
	Lookup(name string) (string, error)
}

// DJ controls station selection and track rendering for the radio.
type DJ interface {
	Status() autodj.SchedulerStatus
	SetStation(name string) error
	Skip()
	SetAutoDJ(enabled bool)
	SetTrackDuration(seconds int) error
	TrackDuration() int
}

// Player reports and tunes playback.
type Player interface {
	Status() (track audio.TrackInfo, position, duration time.Duration)
	SetCrossfade(d time.Duration)
	CrossfadeDuration() time.Duration
}

// Deps wires the server. Renderer and Catalog are required; the radio
// routes are mounted only when DJ and Player are set.
type Deps struct {
	Renderer Renderer
	Catalog  Catalog
	DJ       DJ
	Player   Player

	Stream http.Handler // GET /stream
	Offer  http.Handler // POST /offer

	Listeners func() int // connected stream listeners
	Peers     func() int // connected WebRTC peers
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	deps   Deps
	logger *zap.Logger
}

// NewServer creates the API server.
func NewServer(deps Deps, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{deps: deps, logger: logger}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.RequestID)
	r.Use(requestLogger(s.logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", s.health)
	r.Handle("/metrics", promhttp.Handler())

	if s.deps.Stream != nil {
		r.Get("/stream", s.deps.Stream.ServeHTTP)
	}
	if s.deps.Offer != nil {
		r.Post("/offer", s.deps.Offer.ServeHTTP)
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/render", s.renderTrack)
		r.Post("/describe", s.describe)
		r.Route("/tracks", func(r chi.Router) {
			r.Get("/", s.listTracks)
			r.Get("/{name}", s.downloadTrack)
		})
		r.Post("/playlog", s.playlog)

		if s.deps.DJ != nil && s.deps.Player != nil {
			r.Get("/status", s.status)
			r.Get("/stations", s.stations)
			r.Post("/station", s.setStation)
			r.Post("/skip", s.skip)
			r.Post("/autodj", s.setAutoDJ)
			r.Post("/config", s.setConfig)
		}
	})

	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// requestLogger logs one line per request with zap.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("elapsed", time.Since(start)),
				zap.String("request_id", chimw.GetReqID(r.Context())),
			)
		})
	}
}
