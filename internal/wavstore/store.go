// Package wavstore persists rendered tracks as uncompressed PCM WAV files.
package wavstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	Ext        = ".wav"
	HeaderSize = 44
	BitDepth   = 16
	Channels   = 1

	// FileMode is the permission of saved tracks. CreateTemp uses 0600.
	FileMode os.FileMode = 0o644

	formatPCM = 1
)

// ErrInvalidTitle is returned when a title does not yield a usable file name.
var ErrInvalidTitle = errors.New("title must not be empty")

// FileStore writes mono 16-bit WAV files into Dir.
type FileStore struct {
	Dir        string
	SampleRate int
}

// NewFileStore creates a store rooted at dir. The directory is created on
// the first Save.
func NewFileStore(dir string, sampleRate int) *FileStore {
	if dir == "" {
		dir = "musicas_geradas"
	}
	return &FileStore{Dir: dir, SampleRate: sampleRate}
}

// FileName derives the on-disk name for a title: lower-cased, spaces and
// path separators replaced with underscores, plus the .wav extension.
func FileName(title string) (string, error) {
	name := strings.TrimSpace(title)
	if name == "" {
		return "", ErrInvalidTitle
	}
	name = strings.ToLower(name)
	name = strings.NewReplacer(" ", "_", "/", "_", `\`, "_").Replace(name)
	if name == "." || name == ".." {
		return "", ErrInvalidTitle
	}
	return name + Ext, nil
}

// Save writes samples as <Dir>/<FileName(title)> and returns the path.
// The file appears atomically: it is written to a temp file in Dir and
// renamed into place, and the temp file is removed on any failure.
func (s *FileStore) Save(samples []int16, title string) (string, error) {
	name, err := FileName(title)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.Dir, "."+name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if err := s.encode(tmp, samples); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", err
	}
	if err := tmp.Chmod(FileMode); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("close temp file: %w", err)
	}

	path := filepath.Join(s.Dir, name)
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("rename %s: %w", name, err)
	}
	return path, nil
}

// encode writes the WAV header and samples; Close on the encoder patches
// the chunk sizes and syncs the file.
func (s *FileStore) encode(f *os.File, samples []int16) error {
	data := make([]int, len(samples))
	for i, v := range samples {
		data[i] = int(v)
	}
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: Channels, SampleRate: s.SampleRate},
		Data:           data,
		SourceBitDepth: BitDepth,
	}

	enc := wav.NewEncoder(f, s.SampleRate, BitDepth, Channels, formatPCM)
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("write samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalize wav: %w", err)
	}
	return nil
}

// Track is one stored file in the catalog.
type Track struct {
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	Size     int64     `json:"size"`
	Seconds  float64   `json:"seconds"`
	Modified time.Time `json:"modified"`
}

// List returns the stored tracks, newest first. A missing directory is an
// empty catalog.
func (s *FileStore) List() ([]Track, error) {
	entries, err := os.ReadDir(s.Dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read output dir: %w", err)
	}

	bytesPerSecond := float64(s.SampleRate * Channels * BitDepth / 8)
	var tracks []Track
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != Ext || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		tr := Track{
			Name:     e.Name(),
			Path:     filepath.Join(s.Dir, e.Name()),
			Size:     info.Size(),
			Modified: info.ModTime(),
		}
		if info.Size() > HeaderSize && bytesPerSecond > 0 {
			tr.Seconds = float64(info.Size()-HeaderSize) / bytesPerSecond
		}
		tracks = append(tracks, tr)
	}

	sort.Slice(tracks, func(i, j int) bool {
		if tracks[i].Modified.Equal(tracks[j].Modified) {
			return tracks[i].Name < tracks[j].Name
		}
		return tracks[i].Modified.After(tracks[j].Modified)
	})
	return tracks, nil
}

// Prune removes all but the keep newest tracks and returns how many were
// removed. Files that vanish underneath it are not an error.
func (s *FileStore) Prune(keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}
	tracks, err := s.List()
	if err != nil {
		return 0, err
	}
	if len(tracks) <= keep {
		return 0, nil
	}

	removed := 0
	var errs []error
	for _, t := range tracks[keep:] {
		err := os.Remove(t.Path)
		switch {
		case err == nil:
			removed++
		case !errors.Is(err, os.ErrNotExist):
			errs = append(errs, err)
		}
	}
	return removed, errors.Join(errs...)
}

// Lookup resolves a catalog name to its path, rejecting anything that is
// not a plain file name inside Dir.
func (s *FileStore) Lookup(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || filepath.Ext(name) != Ext {
		return "", fmt.Errorf("invalid track name %q", name)
	}
	path := filepath.Join(s.Dir, name)
	if _, err := os.Stat(path); err != nil {
		return "", err
	}
	return path, nil
}
