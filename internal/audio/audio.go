// Package audio plays rendered tracks as a real-time stream of 20ms PCM
// frames, crossfading between consecutive tracks.
package audio

import "time"

// Stream format. Opus only accepts 48kHz-family rates, so rendered 44.1kHz
// mono tracks are converted to this on load.
const (
	SampleRate    = 48000
	Channels      = 2
	BitDepth      = 16
	FrameDuration = 20 * time.Millisecond
	FrameSize     = 960                  // samples per channel per 20ms frame
	FrameSamples  = FrameSize * Channels // total interleaved samples per frame
	FrameBytes    = FrameSamples * 2     // bytes per frame (int16 = 2 bytes)
)

// TrackInfo identifies a rendered track for the pipeline.
type TrackInfo struct {
	ID      string `json:"id"`
	Station string `json:"station"`
	Genre   string `json:"genre"`
	Mood    string `json:"mood"`
	Path    string `json:"path"`
	Name    string `json:"name"` // display name
}
