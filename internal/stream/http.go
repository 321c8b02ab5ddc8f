package stream

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/satindergrewal/brandtone/internal/audio"
)

// HTTPHandler serves the radio as an endless WAV stream: a header with
// unknown length followed by raw 48kHz stereo PCM.
type HTTPHandler struct {
	broadcaster *Broadcaster
	logger      *zap.Logger
	name        string
}

// NewHTTPHandler creates an HTTP stream handler. name is announced in the
// ICY-Name header.
func NewHTTPHandler(b *Broadcaster, name string, logger *zap.Logger) *HTTPHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPHandler{broadcaster: b, logger: logger, name: name}
}

func (h *HTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Cache-Control", "no-cache, no-store")
	w.Header().Set("Connection", "close")
	if h.name != "" {
		w.Header().Set("ICY-Name", h.name)
	}

	listener := h.broadcaster.Subscribe(TransportHTTP)
	defer h.broadcaster.Unsubscribe(listener)

	h.logger.Info("http listener connected",
		zap.String("remote", r.RemoteAddr),
		zap.Int("total", h.broadcaster.ListenerCount()),
	)
	defer func() {
		h.logger.Info("http listener disconnected",
			zap.String("remote", r.RemoteAddr),
			zap.Uint64("dropped_frames", listener.Dropped()),
		)
	}()

	if _, err := w.Write(audio.StreamHeader()); err != nil {
		return
	}
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-listener.Done():
			return
		case frame, ok := <-listener.C:
			if !ok {
				return
			}
			if _, err := w.Write(audio.SamplesToBytes(frame)); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
