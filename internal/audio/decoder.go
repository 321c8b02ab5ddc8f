package audio

import (
	"encoding/binary"
	"fmt"

	"github.com/satindergrewal/brandtone/internal/wavstore"
)

// DecodeFile loads a rendered WAV file and converts it to the stream format:
// interleaved stereo at 48kHz.
func DecodeFile(path string) ([]int16, error) {
	clip, err := wavstore.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	mono := clip.Samples
	switch clip.Channels {
	case 1:
	case 2:
		mono = StereoToMono(clip.Samples)
	default:
		return nil, fmt.Errorf("%s: unsupported channel count %d", path, clip.Channels)
	}

	return MonoToStereo(Resample(mono, clip.SampleRate, SampleRate)), nil
}

// SamplesToBytes converts int16 samples to little-endian bytes.
func SamplesToBytes(samples []int16) []byte {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	return buf
}

// StreamHeader returns a 44-byte WAV header for an open-ended stream in the
// stream format. Length fields carry the maximum value since the total size
// is unknown; players treat the data chunk as running to end of stream.
func StreamHeader() []byte {
	const unknown = 0xFFFFFFFF
	h := make([]byte, wavstore.HeaderSize)
	le := binary.LittleEndian

	copy(h[0:4], "RIFF")
	le.PutUint32(h[4:8], unknown)
	copy(h[8:12], "WAVE")
	copy(h[12:16], "fmt ")
	le.PutUint32(h[16:20], 16)
	le.PutUint16(h[20:22], 1) // PCM
	le.PutUint16(h[22:24], Channels)
	le.PutUint32(h[24:28], SampleRate)
	le.PutUint32(h[28:32], SampleRate*Channels*BitDepth/8)
	le.PutUint16(h[32:34], Channels*BitDepth/8)
	le.PutUint16(h[34:36], BitDepth)
	copy(h[36:40], "data")
	le.PutUint32(h[40:44], unknown)
	return h
}
