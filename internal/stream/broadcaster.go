// Package stream delivers the radio's PCM frames to listeners over HTTP
// and WebRTC.
package stream

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/satindergrewal/brandtone/internal/metrics"
)

// Listener transports, used as metric labels.
const (
	TransportHTTP   = "http"
	TransportWebRTC = "webrtc"
)

// listenerBuffer is ~3 seconds of frames at 20ms/frame.
const listenerBuffer = 150

// Broadcaster fans out PCM frames from one source to N listeners.
type Broadcaster struct {
	mu        sync.RWMutex
	listeners map[*Listener]struct{}
}

// Listener receives PCM frames from the broadcaster.
type Listener struct {
	C chan []int16 // buffered channel of 20ms PCM frames

	transport string
	done      chan struct{}
	closeOnce sync.Once
	dropped   atomic.Uint64
}

// Done is closed when the listener is unsubscribed.
func (l *Listener) Done() <-chan struct{} {
	return l.done
}

// Dropped returns how many frames were skipped because the listener fell
// behind.
func (l *Listener) Dropped() uint64 {
	return l.dropped.Load()
}

// NewBroadcaster creates a new broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		listeners: make(map[*Listener]struct{}),
	}
}

// Subscribe registers a new listener for the given transport.
func (b *Broadcaster) Subscribe(transport string) *Listener {
	l := &Listener{
		C:         make(chan []int16, listenerBuffer),
		transport: transport,
		done:      make(chan struct{}),
	}
	b.mu.Lock()
	b.listeners[l] = struct{}{}
	b.mu.Unlock()
	metrics.ActiveListeners.WithLabelValues(transport).Inc()
	return l
}

// Unsubscribe removes a listener and signals it to stop. Safe to call more
// than once.
func (b *Broadcaster) Unsubscribe(l *Listener) {
	l.closeOnce.Do(func() {
		b.mu.Lock()
		delete(b.listeners, l)
		b.mu.Unlock()
		close(l.done)
		metrics.ActiveListeners.WithLabelValues(l.transport).Dec()
	})
}

// ListenerCount returns the number of active listeners.
func (b *Broadcaster) ListenerCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners)
}

// Run reads frames from source and fans out to all listeners.
// Slow listeners get frames dropped rather than blocking the broadcast.
func (b *Broadcaster) Run(ctx context.Context, source <-chan []int16) {
	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-source:
			if !ok {
				return
			}
			b.mu.RLock()
			for l := range b.listeners {
				select {
				case l.C <- frame:
				default:
					l.dropped.Add(1)
					metrics.FramesDroppedTotal.Inc()
				}
			}
			b.mu.RUnlock()
		}
	}
}
