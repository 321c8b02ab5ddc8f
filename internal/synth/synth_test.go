package synth

import (
	"errors"
	"math"
	"testing"

	"github.com/satindergrewal/brandtone/internal/descriptor"
)

var (
	allGenres = []descriptor.Genre{
		descriptor.GenreGeneral, descriptor.GenreElectronic, descriptor.GenrePop, descriptor.GenreIndie,
	}
	allMoods = []descriptor.Mood{
		descriptor.MoodNeutral, descriptor.MoodEnergetic, descriptor.MoodCalm, descriptor.MoodEmotional,
	}
)

func mustSynthesize(t *testing.T, g descriptor.Genre, m descriptor.Mood, seconds int) *Buffer {
	t.Helper()
	buf, err := Synthesize(g, m, seconds)
	if err != nil {
		t.Fatalf("Synthesize(%v, %v, %d): %v", g, m, seconds, err)
	}
	return buf
}

// --- Length ---

func TestSynthesizeLength(t *testing.T) {
	for _, d := range []int{1, 2, 5} {
		buf := mustSynthesize(t, descriptor.GenrePop, descriptor.MoodCalm, d)
		if buf.Len() != SampleRate*d {
			t.Errorf("d=%d: Len = %d, want %d", d, buf.Len(), SampleRate*d)
		}
		if got := len(buf.PCM()); got != SampleRate*d {
			t.Errorf("d=%d: len(PCM) = %d, want %d", d, got, SampleRate*d)
		}
		if buf.Seconds() != float64(d) {
			t.Errorf("d=%d: Seconds = %v", d, buf.Seconds())
		}
	}
}

func TestSynthesizeRejectsNonPositive(t *testing.T) {
	for _, d := range []int{0, -1, -30} {
		buf, err := Synthesize(descriptor.GenrePop, descriptor.MoodNeutral, d)
		if !errors.Is(err, ErrInvalidDuration) {
			t.Errorf("d=%d: err = %v, want ErrInvalidDuration", d, err)
		}
		if buf != nil {
			t.Errorf("d=%d: expected nil buffer", d)
		}
	}
}

func TestSynthesizeRejectsOverflowingDuration(t *testing.T) {
	for _, d := range []int{MaxSeconds + 1, math.MaxInt / SampleRate * 2, math.MaxInt} {
		buf, err := Synthesize(descriptor.GenrePop, descriptor.MoodNeutral, d)
		if !errors.Is(err, ErrInvalidDuration) {
			t.Errorf("d=%d: err = %v, want ErrInvalidDuration", d, err)
		}
		if buf != nil {
			t.Errorf("d=%d: expected nil buffer", d)
		}
	}
}

// --- Range ---

func TestPCMWithinHeadroom(t *testing.T) {
	for _, g := range allGenres {
		for _, m := range allMoods {
			pcm := mustSynthesize(t, g, m, 1).PCM()
			for i, s := range pcm {
				if s > FullScale || s < -FullScale {
					t.Fatalf("%v/%v sample[%d] = %d out of range", g, m, i, s)
				}
			}
		}
	}
}

func TestPCMRounding(t *testing.T) {
	buf := &Buffer{Samples: []float64{0, 1, -1, 0.5, -0.5, 2, -2}}
	want := []int16{0, 16383, -16383, 8192, -8192, 16383, -16383}
	got := buf.PCM()
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("PCM[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

// --- Determinism ---

func TestSynthesizeDeterministic(t *testing.T) {
	for _, m := range allMoods {
		a := mustSynthesize(t, descriptor.GenreElectronic, m, 2).PCM()
		b := mustSynthesize(t, descriptor.GenreElectronic, m, 2).PCM()
		for i := range a {
			if a[i] != b[i] {
				t.Fatalf("%v: sample[%d] differs: %d vs %d", m, i, a[i], b[i])
			}
		}
	}
}

// --- Oscillator bank ---

func TestBankForFallsBackToGeneral(t *testing.T) {
	if got := BankFor(descriptor.Genre(99)); got != BankFor(descriptor.GenreGeneral) {
		t.Errorf("BankFor(99) = %v, want general bank", got)
	}
	if got := BankFor(descriptor.GenreIndie); got != (Bank{392, 494, 587}) {
		t.Errorf("BankFor(indie) = %v", got)
	}
}

func TestUnknownGenreSynthesizesAsGeneral(t *testing.T) {
	a := mustSynthesize(t, descriptor.Genre(99), descriptor.MoodNeutral, 1).PCM()
	b := mustSynthesize(t, descriptor.GenreGeneral, descriptor.MoodNeutral, 1).PCM()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("sample[%d] = %d, want %d", i, a[i], b[i])
		}
	}
}

func TestEmotionalMatchesNeutral(t *testing.T) {
	a := mustSynthesize(t, descriptor.GenrePop, descriptor.MoodEmotional, 1).PCM()
	b := mustSynthesize(t, descriptor.GenrePop, descriptor.MoodNeutral, 1).PCM()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("sample[%d] = %d, want %d", i, a[i], b[i])
		}
	}
}

func TestFirstSampleMatchesFormula(t *testing.T) {
	// Sample 1 sits at t = 1/(N-1) inside the fade-in; check it against the
	// closed form for the general bank.
	const d = 1
	n := SampleRate * d
	ts := float64(d) / float64(n-1)
	var want float64
	for i, f := range BankFor(descriptor.GenreGeneral) {
		want += 0.3 / float64(i+1) * math.Sin(2*math.Pi*f*ts)
	}
	want *= FadeGain(1, n, fadeSamples(n))

	buf := mustSynthesize(t, descriptor.GenreGeneral, descriptor.MoodNeutral, d)
	if diff := math.Abs(buf.Samples[1] - want); diff > 1e-12 {
		t.Errorf("Samples[1] = %v, want %v", buf.Samples[1], want)
	}
}

// --- Fade ---

func TestFadeEndpointsSilent(t *testing.T) {
	for _, m := range allMoods {
		buf := mustSynthesize(t, descriptor.GenreIndie, m, 2)
		if buf.Samples[0] != 0 {
			t.Errorf("%v: first sample = %v, want 0", m, buf.Samples[0])
		}
		if last := buf.Samples[buf.Len()-1]; last != 0 {
			t.Errorf("%v: last sample = %v, want 0", m, last)
		}
	}
}

func TestFadeGainMonotonic(t *testing.T) {
	n := SampleRate * 2
	w := fadeSamples(n)
	if w != SampleRate/2 {
		t.Fatalf("fade window = %d, want %d", w, SampleRate/2)
	}

	prev := FadeGain(0, n, w)
	if prev != 0 {
		t.Errorf("gain at 0 = %v, want 0", prev)
	}
	for i := 1; i < w; i++ {
		g := FadeGain(i, n, w)
		if g < prev {
			t.Fatalf("fade-in not monotonic at %d: %v < %v", i, g, prev)
		}
		prev = g
	}
	if prev != 1 {
		t.Errorf("gain at end of fade-in = %v, want 1", prev)
	}

	// Symmetric ramp-out.
	for i := 0; i < w; i++ {
		in := FadeGain(i, n, w)
		out := FadeGain(n-1-i, n, w)
		if math.Abs(in-out) > 1e-12 {
			t.Fatalf("fade asymmetric at %d: in=%v out=%v", i, in, out)
		}
	}

	if g := FadeGain(n/2, n, w); g != 1 {
		t.Errorf("gain in body = %v, want 1", g)
	}
}

func TestFadeWindowClampedToHalfBuffer(t *testing.T) {
	tests := []struct{ n, want int }{
		{100, 50},
		{SampleRate, SampleRate / 2},
		{SampleRate * 30, SampleRate / 2},
		{1, 0},
	}
	for _, tt := range tests {
		if got := fadeSamples(tt.n); got != tt.want {
			t.Errorf("fadeSamples(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}

func TestApplyFadeShortBuffer(t *testing.T) {
	samples := []float64{1, 1, 1, 1, 1}
	applyFade(samples, fadeSamples(len(samples)))
	want := []float64{0, 1, 1, 1, 0}
	for i := range want {
		if samples[i] != want[i] {
			t.Errorf("samples[%d] = %v, want %v", i, samples[i], want[i])
		}
	}
}

// --- Echo ---

func TestEchoIsSingleTap(t *testing.T) {
	delay := echoDelaySamples()
	if delay != 4410 {
		t.Fatalf("echo delay = %d, want 4410", delay)
	}
	samples := make([]float64, 3*delay+1)
	samples[0] = 1
	applyEcho(samples, delay)

	if samples[0] != 1 {
		t.Errorf("dry impulse changed: %v", samples[0])
	}
	if samples[delay] != EchoGain {
		t.Errorf("echo at %d = %v, want %v", delay, samples[delay], EchoGain)
	}
	if samples[2*delay] != 0 {
		t.Errorf("second echo at %d = %v, want 0 (no feedback)", 2*delay, samples[2*delay])
	}
}

func TestEchoShorterThanDelay(t *testing.T) {
	samples := []float64{1, 2, 3}
	applyEcho(samples, 10)
	if samples[0] != 1 || samples[1] != 2 || samples[2] != 3 {
		t.Errorf("short buffer modified: %v", samples)
	}
}

// --- Energetic beat ---

func windowRMS(s []float64, center, half int) float64 {
	var sum float64
	for i := center - half; i <= center+half; i++ {
		sum += s[i] * s[i]
	}
	return math.Sqrt(sum / float64(2*half+1))
}

func TestEnergeticHasPeriodicNulls(t *testing.T) {
	const d = 3
	n := SampleRate * d
	half := SampleRate / 100 // 10ms either side
	idx := func(sec float64) int {
		return int(math.Round(sec * float64(n-1) / d))
	}

	for _, m := range allMoods {
		buf := mustSynthesize(t, descriptor.GenreElectronic, m, d)
		body := windowRMS(buf.Samples, idx(1.5), idx(1.0))

		// Beat minima of 0.5+0.5sin(4πt) fall at t = 0.375 + 0.5k.
		for _, null := range []float64{0.875, 1.375, 1.875, 2.375} {
			ratio := windowRMS(buf.Samples, idx(null), half) / body
			if m == descriptor.MoodEnergetic {
				if ratio > 0.1 {
					t.Errorf("energetic: no null at %.3fs (ratio %.3f)", null, ratio)
				}
			} else if ratio < 0.5 {
				t.Errorf("%v: unexpected null at %.3fs (ratio %.3f)", m, null, ratio)
			}
		}
	}
}
