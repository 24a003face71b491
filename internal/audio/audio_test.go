package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/faiface/beep/wav"

	"fivephase/internal/core/synth"
)

func renderTone(t *testing.T, frames int) []byte {
	t.Helper()
	sink := NewMemorySink()
	tone := synth.Tone{Frequency: 440, Frames: frames, InhaleFrames: frames / 2}
	if err := synth.New(sink, nil).Play(context.Background(), tone, nil); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if sink.Frames() != frames {
		t.Fatalf("Frames() = %d, want %d", sink.Frames(), frames)
	}
	return sink.Bytes()
}

func TestMemorySinkDuration(t *testing.T) {
	sink := NewMemorySink()
	if _, err := sink.Write(make([]byte, synth.SampleRate*synth.FrameBytes)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := sink.Duration(); got != time.Second {
		t.Errorf("Duration() = %v, want 1s", got)
	}
	_ = sink.Close()
	if _, err := sink.Write([]byte{0, 0, 0, 0}); !errors.Is(err, ErrSinkClosed) {
		t.Errorf("Write after Close = %v, want ErrSinkClosed", err)
	}
}

func TestStreamerDecodesFrames(t *testing.T) {
	pcm := make([]byte, 3*synth.FrameBytes)
	binary.LittleEndian.PutUint16(pcm[0:], uint16(16384))
	neg := int16(-16384)
	binary.LittleEndian.PutUint16(pcm[6:], uint16(neg))

	streamer := NewStreamer(pcm)
	samples := make([][2]float64, 8)
	n, ok := streamer.Stream(samples)
	if n != 3 || !ok {
		t.Fatalf("Stream() = %d, %v, want 3, true", n, ok)
	}
	if samples[0][0] != 0.5 || samples[1][1] != -0.5 {
		t.Errorf("samples = %v", samples[:3])
	}
	if n, ok := streamer.Stream(samples); n != 0 || ok {
		t.Errorf("drained Stream() = %d, %v, want 0, false", n, ok)
	}
}

func TestWriteWAVRoundTrip(t *testing.T) {
	frames := synth.FramesFor(250 * time.Millisecond)
	pcm := renderTone(t, frames)
	path := filepath.Join(t.TempDir(), "tone.wav")

	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := WriteWAV(file, pcm); err != nil {
		t.Fatalf("WriteWAV: %v", err)
	}
	if err := file.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	in, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer in.Close()
	decoded, format, err := wav.Decode(in)
	if err != nil {
		t.Fatalf("wav.Decode: %v", err)
	}
	defer decoded.Close()
	if int(format.SampleRate) != synth.SampleRate || format.NumChannels != synth.Channels {
		t.Errorf("format = %+v", format)
	}
	if decoded.Len() != frames {
		t.Fatalf("Len() = %d, want %d", decoded.Len(), frames)
	}

	original := NewStreamer(pcm)
	want := make([][2]float64, 512)
	got := make([][2]float64, 512)
	original.Stream(want)
	decoded.Stream(got)
	for i := range want {
		if math.Abs(want[i][0]-got[i][0]) > 1e-3 || math.Abs(want[i][1]-got[i][1]) > 1e-3 {
			t.Fatalf("sample %d = %v, want %v", i, got[i], want[i])
		}
	}
}
