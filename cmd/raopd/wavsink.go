package main

import (
	"fmt"
	"os"
	"sync"

	"github.com/mycophonic/raop"
	"github.com/mycophonic/raop/sink"
	"github.com/mycophonic/raop/wav"
)

// wavSink accumulates delivered PCM frames in sequence-arrival order and
// writes them as a single WAV file on Close. It is a thin collaborator
// implementation of sink.Sink, not part of the core itself.
type wavSink struct {
	mu   sync.Mutex
	pcm  []byte
	path string
}

var _ sink.Sink = (*wavSink)(nil)

func newWAVSink(path string) *wavSink {
	return &wavSink{path: path}
}

func (s *wavSink) OnPCM(frame sink.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pcm = append(s.pcm, frame.PCM...)
}

func (s *wavSink) OnFlush() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pcm = s.pcm[:0]
}

// Close writes the accumulated PCM to s.path as a 16-bit stereo WAV file.
func (s *wavSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Create(s.path) //nolint:gosec // operator-specified output path
	if err != nil {
		return fmt.Errorf("raopd: creating %s: %w", s.path, err)
	}
	defer f.Close()

	format := raop.PCMFormat{SampleRate: raop.SampleRate, BitDepth: raop.Depth16, Channels: 2}

	if err := wav.Encode(f, s.pcm, format); err != nil {
		return fmt.Errorf("raopd: encoding wav: %w", err)
	}

	return nil
}
