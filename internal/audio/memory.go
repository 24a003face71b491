package audio

import (
	"bytes"
	"errors"
	"sync"
	"time"

	"fivephase/internal/core/synth"
)

// ErrSinkClosed is returned by writes after Close.
var ErrSinkClosed = errors.New("sink closed")

// MemorySink collects PCM in memory.
type MemorySink struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	closed bool
}

// NewMemorySink returns an empty sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (sink *MemorySink) Write(p []byte) (int, error) {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	if sink.closed {
		return 0, ErrSinkClosed
	}
	return sink.buf.Write(p)
}

func (sink *MemorySink) Close() error {
	sink.mu.Lock()
	sink.closed = true
	sink.mu.Unlock()
	return nil
}

// Bytes returns a copy of everything written so far.
func (sink *MemorySink) Bytes() []byte {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	return append([]byte(nil), sink.buf.Bytes()...)
}

// Frames returns the number of stereo frames written.
func (sink *MemorySink) Frames() int {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	return sink.buf.Len() / synth.FrameBytes
}

// Duration returns the playback length of the collected audio.
func (sink *MemorySink) Duration() time.Duration {
	return time.Duration(sink.Frames()) * time.Second / synth.SampleRate
}
