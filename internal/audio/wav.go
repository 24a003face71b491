package audio

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/faiface/beep"
	"github.com/faiface/beep/wav"

	"fivephase/internal/core/synth"
)

// Format is the beep description of the synthesizer output.
var Format = beep.Format{
	SampleRate:  beep.SampleRate(synth.SampleRate),
	NumChannels: synth.Channels,
	Precision:   synth.BytesPerSample,
}

// pcmStreamer exposes interleaved s16le stereo as a beep.Streamer.
type pcmStreamer struct {
	pcm []byte
	pos int
}

// NewStreamer wraps PCM produced by the synthesizer.
func NewStreamer(pcm []byte) beep.Streamer {
	return &pcmStreamer{pcm: pcm}
}

func (streamer *pcmStreamer) Stream(samples [][2]float64) (int, bool) {
	n := 0
	for n < len(samples) && streamer.pos+synth.FrameBytes <= len(streamer.pcm) {
		left := int16(binary.LittleEndian.Uint16(streamer.pcm[streamer.pos:]))
		right := int16(binary.LittleEndian.Uint16(streamer.pcm[streamer.pos+2:]))
		samples[n][0] = float64(left) / 32768
		samples[n][1] = float64(right) / 32768
		streamer.pos += synth.FrameBytes
		n++
	}
	return n, n > 0
}

func (streamer *pcmStreamer) Err() error {
	return nil
}

// WriteWAV encodes PCM as a 16-bit stereo WAV file.
func WriteWAV(w io.WriteSeeker, pcm []byte) error {
	if err := wav.Encode(w, NewStreamer(pcm), Format); err != nil {
		return fmt.Errorf("encode wav: %w", err)
	}
	return nil
}
