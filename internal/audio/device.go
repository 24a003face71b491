package audio

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"fivephase/internal/core/synth"
)

// ErrDeviceUnavailable indicates the audio output could not be opened.
var ErrDeviceUnavailable = errors.New("audio device unavailable")

// Sink is a blocking PCM destination.
type Sink interface {
	io.WriteCloser
}

// DeviceOptions tune the output device.
type DeviceOptions struct {
	BufferSize time.Duration
}

var (
	otoMu  sync.Mutex
	otoCtx *oto.Context
)

// Oto allows a single context per process, so it is created once and shared
// by every Device.
func sharedContext(options DeviceOptions) (*oto.Context, error) {
	otoMu.Lock()
	defer otoMu.Unlock()
	if otoCtx != nil {
		return otoCtx, nil
	}
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   synth.SampleRate,
		ChannelCount: synth.Channels,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   options.BufferSize,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDeviceUnavailable, err)
	}
	<-ready
	otoCtx = ctx
	return otoCtx, nil
}

// Device plays interleaved s16le stereo through the system output. Write
// blocks while the device buffer is full.
type Device struct {
	player *oto.Player
	reader *io.PipeReader
	writer *io.PipeWriter
	once   sync.Once
}

// OpenDevice opens the default output device.
func OpenDevice(options DeviceOptions) (*Device, error) {
	if options.BufferSize <= 0 {
		options.BufferSize = 100 * time.Millisecond
	}
	ctx, err := sharedContext(options)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDeviceUnavailable, err)
	}
	reader, writer := io.Pipe()
	player := ctx.NewPlayer(reader)
	player.Play()
	return &Device{player: player, reader: reader, writer: writer}, nil
}

// Write queues PCM for playback.
func (device *Device) Write(p []byte) (int, error) {
	if err := device.player.Err(); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrDeviceUnavailable, err)
	}
	return device.writer.Write(p)
}

// Close stops playback and releases the player.
func (device *Device) Close() error {
	var err error
	device.once.Do(func() {
		device.writer.Close()
		err = device.player.Close()
		device.reader.Close()
	})
	return err
}
