package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/satindergrewal/brandtone/internal/wavstore"
)

// --- Constants ---

func TestConstants(t *testing.T) {
	// 48kHz * 20ms = 960 samples per channel
	if got := SampleRate * int(FrameDuration/time.Millisecond) / 1000; got != FrameSize {
		t.Errorf("FrameSize mismatch: want %d, got %d", got, FrameSize)
	}
	if FrameSamples != FrameSize*Channels {
		t.Errorf("FrameSamples = %d, want %d", FrameSamples, FrameSize*Channels)
	}
	if FrameBytes != FrameSamples*2 {
		t.Errorf("FrameBytes = %d, want %d", FrameBytes, FrameSamples*2)
	}
}

// --- Smoothstep ---

func TestSmoothstepBoundaries(t *testing.T) {
	tests := []struct {
		input float64
		want  float64
	}{
		{-0.5, 0},
		{0, 0},
		{0.5, 0.5},
		{1, 1},
		{1.5, 1},
	}
	for _, tt := range tests {
		got := Smoothstep(tt.input)
		if got != tt.want {
			t.Errorf("Smoothstep(%v) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestSmoothstepMonotonic(t *testing.T) {
	prev := 0.0
	for i := 1; i <= 100; i++ {
		x := float64(i) / 100.0
		val := Smoothstep(x)
		if val < prev {
			t.Errorf("Smoothstep not monotonic: f(%v)=%v < f(%v)=%v", x, val, float64(i-1)/100.0, prev)
		}
		prev = val
	}
}

// --- CrossfadeFrames ---

func TestCrossfadeEndpoints(t *testing.T) {
	out := []int16{1000, -1000, 500, -500}
	in := []int16{2000, -2000, 1500, -1500}

	start := CrossfadeFrames(out, in, 0)
	end := CrossfadeFrames(out, in, 1)
	for i := range out {
		if start[i] != out[i] {
			t.Errorf("progress=0 sample[%d] = %d, want %d", i, start[i], out[i])
		}
		if end[i] != in[i] {
			t.Errorf("progress=1 sample[%d] = %d, want %d", i, end[i], in[i])
		}
	}
}

func TestCrossfadeMidpoint(t *testing.T) {
	out := []int16{1000, -1000}
	in := []int16{3000, -3000}
	result := CrossfadeFrames(out, in, 0.5)
	for i, want := range []int16{2000, -2000} {
		if result[i] != want {
			t.Errorf("progress=0.5 sample[%d] = %d, want %d", i, result[i], want)
		}
	}
}

func TestCrossfadeShortIncoming(t *testing.T) {
	out := []int16{1000, 1000, 1000, 1000}
	in := []int16{3000}
	result := CrossfadeFrames(out, in, 0.5)
	if len(result) != len(out) {
		t.Fatalf("len = %d, want %d", len(result), len(out))
	}
	if result[0] != 2000 {
		t.Errorf("sample[0] = %d, want 2000", result[0])
	}
	for i := 1; i < len(result); i++ {
		if result[i] != 500 {
			t.Errorf("sample[%d] = %d, want 500 (blend with silence)", i, result[i])
		}
	}
}

func TestCrossfadeClipping(t *testing.T) {
	result := CrossfadeFrames([]int16{32767, -32768}, []int16{32767, -32768}, 0.5)
	if result[0] != 32767 {
		t.Errorf("max at midpoint: got %d, want 32767", result[0])
	}
	if result[1] != -32768 {
		t.Errorf("min at midpoint: got %d, want -32768", result[1])
	}
}

// --- Resample ---

func TestResampleLength(t *testing.T) {
	tests := []struct {
		n, from, to, want int
	}{
		{44100, 44100, 48000, 48000},
		{441, 44100, 48000, 480},
		{48000, 48000, 48000, 48000},
		{0, 44100, 48000, 0},
	}
	for _, tt := range tests {
		got := Resample(make([]int16, tt.n), tt.from, tt.to)
		if len(got) != tt.want {
			t.Errorf("Resample(%d samples, %d->%d) len = %d, want %d", tt.n, tt.from, tt.to, len(got), tt.want)
		}
	}
}

func TestResampleConstantSignal(t *testing.T) {
	in := make([]int16, 441)
	for i := range in {
		in[i] = 1234
	}
	for i, v := range Resample(in, 44100, 48000) {
		if v != 1234 {
			t.Fatalf("sample[%d] = %d, want 1234", i, v)
		}
	}
}

func TestResampleInterpolates(t *testing.T) {
	// Upsampling 2x puts the midpoint between neighbours.
	got := Resample([]int16{0, 100, 200}, 1, 2)
	want := []int16{0, 50, 100, 150, 200, 200}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestResampleCopiesOnSameRate(t *testing.T) {
	in := []int16{1, 2, 3}
	out := Resample(in, 48000, 48000)
	out[0] = 99
	if in[0] != 1 {
		t.Error("Resample aliased its input")
	}
}

// --- Channel conversion ---

func TestMonoStereoRoundTrip(t *testing.T) {
	mono := []int16{5, -7, 32767, -32768}
	stereo := MonoToStereo(mono)
	if len(stereo) != 2*len(mono) {
		t.Fatalf("stereo len = %d, want %d", len(stereo), 2*len(mono))
	}
	for i, s := range mono {
		if stereo[2*i] != s || stereo[2*i+1] != s {
			t.Errorf("pair %d = (%d,%d), want (%d,%d)", i, stereo[2*i], stereo[2*i+1], s, s)
		}
	}
	back := StereoToMono(stereo)
	for i := range mono {
		if back[i] != mono[i] {
			t.Errorf("back[%d] = %d, want %d", i, back[i], mono[i])
		}
	}
}

// --- Bytes and headers ---

func TestSamplesToBytes(t *testing.T) {
	original := []int16{0, 1, -1, 32767, -32768, 256}
	buf := SamplesToBytes(original)
	if len(buf) != len(original)*2 {
		t.Fatalf("length = %d, want %d", len(buf), len(original)*2)
	}
	// 256 = 0x0100 -> bytes [0x00, 0x01]
	if buf[10] != 0x00 || buf[11] != 0x01 {
		t.Errorf("256 encoded as [%02x, %02x], want [00, 01]", buf[10], buf[11])
	}
	for i, v := range original {
		if got := int16(binary.LittleEndian.Uint16(buf[i*2:])); got != v {
			t.Errorf("round-trip sample[%d]: got %d, want %d", i, got, v)
		}
	}
}

func TestStreamHeader(t *testing.T) {
	h := StreamHeader()
	if len(h) != 44 {
		t.Fatalf("header len = %d, want 44", len(h))
	}
	if !bytes.Equal(h[0:4], []byte("RIFF")) || !bytes.Equal(h[8:12], []byte("WAVE")) || !bytes.Equal(h[36:40], []byte("data")) {
		t.Errorf("bad chunk ids: %q", h)
	}
	le := binary.LittleEndian
	if got := le.Uint16(h[22:24]); got != Channels {
		t.Errorf("channels = %d, want %d", got, Channels)
	}
	if got := le.Uint32(h[24:28]); got != SampleRate {
		t.Errorf("rate = %d, want %d", got, SampleRate)
	}
	if got := le.Uint32(h[28:32]); got != SampleRate*Channels*2 {
		t.Errorf("byte rate = %d, want %d", got, SampleRate*Channels*2)
	}
	if got := le.Uint32(h[40:44]); got != 0xFFFFFFFF {
		t.Errorf("data size = %#x, want open-ended", got)
	}
}

// --- DecodeFile ---

func TestDecodeFileConvertsToStreamFormat(t *testing.T) {
	store := wavstore.NewFileStore(t.TempDir(), 44100)
	mono := make([]int16, 44100)
	for i := range mono {
		mono[i] = 1000
	}
	path, err := store.Save(mono, "one second")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	samples, err := DecodeFile(path)
	if err != nil {
		t.Fatalf("DecodeFile: %v", err)
	}
	if want := SampleRate * Channels; len(samples) != want {
		t.Fatalf("len = %d, want %d", len(samples), want)
	}
	for i, v := range samples {
		if v != 1000 {
			t.Fatalf("sample[%d] = %d, want 1000", i, v)
		}
	}
}

func TestDecodeFileMissing(t *testing.T) {
	if _, err := DecodeFile(t.TempDir() + "/nope.wav"); err == nil {
		t.Error("expected error for missing file")
	}
}

// --- Pipeline ---

func TestNewPipeline(t *testing.T) {
	p := NewPipeline(8*time.Second, nil)
	if p.CrossfadeDuration() != 8*time.Second {
		t.Errorf("CrossfadeDuration = %v, want 8s", p.CrossfadeDuration())
	}
	if p.QueueSize() != 0 {
		t.Errorf("initial QueueSize = %d, want 0", p.QueueSize())
	}
	track, pos, dur := p.Status()
	if track.ID != "" || pos != 0 || dur != 0 {
		t.Errorf("initial status should be zero-valued, got track=%v pos=%v dur=%v", track, pos, dur)
	}
}

func TestPipelineSetCrossfade(t *testing.T) {
	p := NewPipeline(4*time.Second, nil)
	p.SetCrossfade(2 * time.Second)
	if p.CrossfadeDuration() != 2*time.Second {
		t.Errorf("CrossfadeDuration = %v, want 2s", p.CrossfadeDuration())
	}
	// 2s = 100 frames, capped at half of a 50-frame track.
	if got := p.crossfadeFrames(50); got != 25 {
		t.Errorf("crossfadeFrames(50) = %d, want 25", got)
	}
	if got := p.crossfadeFrames(1000); got != 100 {
		t.Errorf("crossfadeFrames(1000) = %d, want 100", got)
	}
}

func TestPipelineSkipNonBlocking(t *testing.T) {
	p := NewPipeline(4*time.Second, nil)
	p.Skip()
	p.Skip()
}

func constantTrack(frames int, v int16) []int16 {
	s := make([]int16, frames*FrameSamples)
	for i := range s {
		s[i] = v
	}
	return s
}

func TestPipelinePlaysQueuedTracksInOrder(t *testing.T) {
	tracks := map[string][]int16{
		"a.wav": constantTrack(3, 100),
		"b.wav": constantTrack(3, 200),
	}
	p := NewPipeline(0, nil)
	p.SetDecoder(func(path string) ([]int16, error) {
		s, ok := tracks[path]
		if !ok {
			return nil, errors.New("not found")
		}
		return s, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go p.Run(ctx)

	p.Enqueue(TrackInfo{ID: "1", Path: "a.wav"})
	p.Enqueue(TrackInfo{ID: "x", Path: "missing.wav"})
	p.Enqueue(TrackInfo{ID: "2", Path: "b.wav"})

	var got []int16
	for len(got) < 6 {
		select {
		case f, ok := <-p.Frames():
			if !ok {
				t.Fatal("frame channel closed early")
			}
			if len(f) != FrameSamples {
				t.Fatalf("frame len = %d, want %d", len(f), FrameSamples)
			}
			got = append(got, f[0])
		case <-ctx.Done():
			t.Fatalf("timed out after %d frames", len(got))
		}
	}

	want := []int16{100, 100, 100, 200, 200, 200}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("frame %d = %d, want %d", i, got[i], want[i])
		}
	}

	cancel()
	for range p.Frames() {
	}
}

func TestPipelineSkipDuringCrossfadePlaysNext(t *testing.T) {
	tracks := map[string][]int16{
		"a.wav": constantTrack(100, 100),
		"b.wav": constantTrack(100, 200),
	}
	// 40 crossfade frames: a fades out over frames 60-99.
	p := NewPipeline(40*FrameDuration, nil)
	p.SetDecoder(func(path string) ([]int16, error) { return tracks[path], nil })
	p.Enqueue(TrackInfo{ID: "a", Path: "a.wav"})
	p.Enqueue(TrackInfo{ID: "b", Path: "b.wav"})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go p.Run(ctx)

	next := func() int16 {
		t.Helper()
		select {
		case f, ok := <-p.Frames():
			if !ok {
				t.Fatal("frame channel closed early")
			}
			return f[0]
		case <-ctx.Done():
			t.Fatal("timed out waiting for a frame")
		}
		return 0
	}

	var last int16
	for range 71 {
		last = next()
	}
	if last <= 100 || last >= 200 {
		t.Fatalf("frame 70 = %d, want a crossfade mix", last)
	}

	p.Skip()
	for range 5 {
		if next() == 200 {
			if info, _, _ := p.Status(); info.ID != "b" {
				t.Errorf("now playing %q, want b", info.ID)
			}
			cancel()
			for range p.Frames() {
			}
			return
		}
	}
	t.Fatal("incoming track was not played after a skip during the crossfade")
}
