// Package synth renders a (genre, mood) descriptor into a mono waveform by
// summing a genre's oscillator bank, applying the mood's modulation and a
// linear fade envelope.
package synth

import (
	"errors"
	"math"

	"github.com/satindergrewal/brandtone/internal/descriptor"
)

const (
	SampleRate = 44100
	FullScale  = 16383 // quantization scale, half of int16 range for headroom

	FadeSeconds = 0.5

	BeatFrequency = 2.0 // Hz, energetic pulse

	EchoDelaySeconds = 0.1
	EchoGain         = 0.3

	baseAmplitude = 0.3
)

// MaxSeconds is the longest duration whose sample count fits in an int.
const MaxSeconds = math.MaxInt / SampleRate

// ErrInvalidDuration is returned for non-positive or unrepresentable
// durations.
var ErrInvalidDuration = errors.New("duration must be a positive number of seconds")

// Bank is the set of oscillator frequencies (Hz) summed for one genre.
// Index 0 is the fundamental and is the loudest.
type Bank [3]float64

var banks = map[descriptor.Genre]Bank{
	descriptor.GenreElectronic: {440, 554, 659}, // A4, C#5, E5
	descriptor.GenrePop:        {523, 659, 784}, // C5, E5, G5
	descriptor.GenreIndie:      {392, 494, 587}, // G4, B4, D5
	descriptor.GenreGeneral:    {440, 523, 659}, // A4, C5, E5
}

// BankFor returns the oscillator bank for a genre, falling back to the
// general bank for values outside the enumeration.
func BankFor(g descriptor.Genre) Bank {
	if b, ok := banks[g]; ok {
		return b
	}
	return banks[descriptor.GenreGeneral]
}

// Buffer is one mono channel of float samples at SampleRate.
type Buffer struct {
	Samples []float64
}

// Len returns the number of samples.
func (b *Buffer) Len() int {
	return len(b.Samples)
}

// Seconds returns the clip length.
func (b *Buffer) Seconds() float64 {
	return float64(len(b.Samples)) / SampleRate
}

// PCM quantizes the buffer to 16-bit samples scaled by FullScale, rounding
// half away from zero and clamping to [-FullScale, FullScale].
func (b *Buffer) PCM() []int16 {
	out := make([]int16, len(b.Samples))
	for i, s := range b.Samples {
		v := math.Round(s * FullScale)
		if v > FullScale {
			v = FullScale
		} else if v < -FullScale {
			v = -FullScale
		}
		out[i] = int16(v)
	}
	return out
}

// Synthesize renders seconds of audio for the given descriptor. The output
// holds exactly SampleRate*seconds samples and is bit-identical across calls
// with the same arguments.
func Synthesize(genre descriptor.Genre, mood descriptor.Mood, seconds int) (*Buffer, error) {
	if seconds <= 0 || seconds > MaxSeconds {
		return nil, ErrInvalidDuration
	}

	t := timeAxis(seconds)
	samples := oscillate(t, BankFor(genre))

	switch mood {
	case descriptor.MoodEnergetic:
		applyBeat(samples, t)
	case descriptor.MoodCalm:
		applyEcho(samples, echoDelaySamples())
	}

	applyFade(samples, fadeSamples(len(samples)))

	return &Buffer{Samples: samples}, nil
}

// timeAxis spaces n points evenly from 0 to seconds inclusive.
func timeAxis(seconds int) []float64 {
	n := SampleRate * seconds
	t := make([]float64, n)
	if n == 1 {
		return t
	}
	step := float64(seconds) / float64(n-1)
	for i := range t {
		t[i] = float64(i) * step
	}
	return t
}

func oscillate(t []float64, bank Bank) []float64 {
	out := make([]float64, len(t))
	for i, freq := range bank {
		amp := baseAmplitude / float64(i+1)
		w := 2 * math.Pi * freq
		for j, ts := range t {
			out[j] += amp * math.Sin(w*ts)
		}
	}
	return out
}

// applyBeat multiplies by a unipolar 2 Hz pulse ranging over [0, 1].
func applyBeat(samples, t []float64) {
	w := 2 * math.Pi * BeatFrequency
	for i, ts := range t {
		samples[i] *= 0.5 + 0.5*math.Sin(w*ts)
	}
}

func echoDelaySamples() int {
	return int(math.Round(EchoDelaySeconds * SampleRate))
}

// applyEcho adds one delayed, attenuated copy of the dry signal. Walking
// backwards keeps every read on a not yet modified sample.
func applyEcho(samples []float64, delay int) {
	if delay <= 0 {
		return
	}
	for i := len(samples) - 1; i >= delay; i-- {
		samples[i] += EchoGain * samples[i-delay]
	}
}

// fadeSamples is the fade window length, clamped to half the buffer so the
// in and out ramps never overlap.
func fadeSamples(n int) int {
	w := int(FadeSeconds * SampleRate)
	if w > n/2 {
		w = n / 2
	}
	return w
}

// FadeGain returns the envelope gain at sample i of an n-sample buffer with
// a fade window of w samples.
func FadeGain(i, n, w int) float64 {
	if w <= 0 {
		return 1
	}
	if i < w {
		return ramp(i, w)
	}
	if i >= n-w {
		return 1 - ramp(i-(n-w), w)
	}
	return 1
}

// ramp is the j-th of w points evenly spaced over [0, 1].
func ramp(j, w int) float64 {
	if w == 1 {
		return 0
	}
	return float64(j) / float64(w-1)
}

func applyFade(samples []float64, w int) {
	n := len(samples)
	if w <= 0 {
		return
	}
	for i := 0; i < w; i++ {
		samples[i] *= ramp(i, w)
	}
	for j := 0; j < w; j++ {
		samples[n-w+j] *= 1 - ramp(j, w)
	}
}
