package synth

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"time"
)

const (
	SampleRate       = 44100
	Channels         = 2
	BytesPerSample   = 2
	FrameBytes       = Channels * BytesPerSample
	ChunkFrames      = 512
	CrossfadeSamples = 256
	PanGlideSamples  = 256
	Headroom         = 0.30
	MicroRampFrames  = 88 // 2 ms at 44.1 kHz
)

// Stereo gains per breath segment.
const (
	inhaleLeft  = 0.9
	inhaleRight = 0.6
	exhaleLeft  = 0.6
	exhaleRight = 0.9
)

// ErrSinkWrite wraps failures writing PCM to the sink.
var ErrSinkWrite = errors.New("sink write failed")

// Tone is one phase worth of audio.
type Tone struct {
	Frequency    float64
	Frames       int
	InhaleFrames int
	Hard         bool
}

// FramesFor converts a duration into whole sample frames.
func FramesFor(duration time.Duration) int {
	return int(duration.Seconds() * SampleRate)
}

// Synth streams tones to a blocking sink. It is not safe for concurrent use;
// one generation goroutine owns it.
type Synth struct {
	sink     io.Writer
	gate     *Gate
	buf      []byte
	lastL    float64
	lastR    float64
	haveLast bool
}

// New creates a Synth writing to sink. A nil gate never pauses.
func New(sink io.Writer, gate *Gate) *Synth {
	if gate == nil {
		gate = NewGate()
	}
	return &Synth{
		sink: sink,
		gate: gate,
		buf:  make([]byte, ChunkFrames*FrameBytes),
	}
}

// Reset forgets the retained output so the next stream starts without a
// crossfade.
func (synth *Synth) Reset() {
	synth.lastL, synth.lastR = 0, 0
	synth.haveLast = false
}

// Gate returns the pause gate shared with the controller.
func (synth *Synth) Gate() *Gate {
	return synth.gate
}

// Last returns the retained last output pair.
func (synth *Synth) Last() (float64, float64) {
	return synth.lastL, synth.lastR
}

// Envelope returns the attack and release lengths in frames for a stream of
// total frames.
func Envelope(total int, hard bool) (int, int) {
	if hard {
		return MicroRampFrames, MicroRampFrames
	}
	attack := max(MicroRampFrames, total*8/100)
	release := max(MicroRampFrames, total/4)
	if sum := attack + release; sum > total && total > 0 {
		attack = max(1, attack*total/sum)
		release = max(1, release*total/sum)
	}
	return attack, release
}

// CrossfadeWeight returns the share of the new stream at sample index i of
// the anti-click crossfade.
func CrossfadeWeight(i int) float64 {
	if i >= CrossfadeSamples-1 {
		return 1
	}
	if i <= 0 {
		return 0
	}
	return 0.5 - 0.5*math.Cos(math.Pi*float64(i)/float64(CrossfadeSamples-1))
}

// Waveform is the rounded tone shape at oscillator phase phi.
func Waveform(phi float64) float64 {
	return 0.85*math.Sin(phi) + 0.15*math.Sin(phi*0.5)
}

// Play renders tone to the sink. onFirstAudible runs once, right before the
// first chunk written while the gate is open. A cancelled ctx stops the stream
// at the next chunk boundary and returns ctx.Err().
func (synth *Synth) Play(ctx context.Context, tone Tone, onFirstAudible func()) error {
	total := tone.Frames
	if total <= 0 {
		return nil
	}
	attack, release := Envelope(total, tone.Hard)
	step := 2 * math.Pi * tone.Frequency / SampleRate
	crossfade := synth.haveLast
	fromL, fromR := synth.lastL, synth.lastR

	pan := newPanner(tone.InhaleFrames)
	started := false
	rampIn := 0
	sent := 0

	for sent < total {
		if err := ctx.Err(); err != nil {
			return err
		}
		if synth.gate.Paused() {
			if err := synth.fadeToSilence(); err != nil {
				return err
			}
			if err := synth.gate.Wait(ctx); err != nil {
				return err
			}
			rampIn = MicroRampFrames
			continue
		}

		frames := min(ChunkFrames, total-sent)
		offset := 0
		for i := 0; i < frames; i++ {
			g := sent + i
			env := 1.0
			if g < attack {
				env = float64(g) / float64(attack)
			} else if g > total-release {
				env = float64(total-g) / float64(release)
			}
			window := 1.0
			if !tone.Hard {
				window = 0.5 * (1 - math.Cos(2*math.Pi*float64(g)/math.Max(1, float64(total-1))))
			}
			value := Waveform(step*float64(g)) * env * window * Headroom

			gainL, gainR := pan.next(g)
			left := value * gainL
			right := value * gainR

			if crossfade && g < CrossfadeSamples {
				t := CrossfadeWeight(g)
				left = fromL*(1-t) + left*t
				right = fromR*(1-t) + right*t
			}
			if rampIn > 0 {
				k := float64(MicroRampFrames-rampIn) / float64(MicroRampFrames)
				left *= k
				right *= k
				rampIn--
			}

			putFrame(synth.buf[offset:], left, right)
			offset += FrameBytes
			synth.lastL, synth.lastR = left, right
		}

		if !started {
			started = true
			if onFirstAudible != nil {
				onFirstAudible()
			}
		}
		if err := synth.write(synth.buf[:offset]); err != nil {
			return err
		}
		synth.haveLast = true
		sent += frames
	}

	if tone.Hard {
		synth.lastL, synth.lastR = 0, 0
	}
	synth.haveLast = true
	return nil
}

// fadeToSilence ramps the retained output down to zero.
func (synth *Synth) fadeToSilence() error {
	offset := 0
	for i := 1; i <= MicroRampFrames; i++ {
		k := 1 - float64(i)/float64(MicroRampFrames)
		putFrame(synth.buf[offset:], synth.lastL*k, synth.lastR*k)
		offset += FrameBytes
	}
	synth.lastL, synth.lastR = 0, 0
	return synth.write(synth.buf[:offset])
}

func (synth *Synth) write(chunk []byte) error {
	if _, err := synth.sink.Write(chunk); err != nil {
		return fmt.Errorf("%w: %w", ErrSinkWrite, err)
	}
	return nil
}

func putFrame(dst []byte, left, right float64) {
	binary.LittleEndian.PutUint16(dst[0:], uint16(toInt16(left)))
	binary.LittleEndian.PutUint16(dst[2:], uint16(toInt16(right)))
}

func toInt16(value float64) int16 {
	scaled := math.Round(value * 32767)
	if scaled > math.MaxInt16 {
		return math.MaxInt16
	}
	if scaled < math.MinInt16 {
		return math.MinInt16
	}
	return int16(scaled)
}

// panner glides stereo gains towards the current breath segment.
type panner struct {
	inhaleFrames int
	left         float64
	right        float64
}

func newPanner(inhaleFrames int) *panner {
	pan := &panner{inhaleFrames: inhaleFrames}
	pan.left, pan.right = pan.target(0)
	return pan
}

func (pan *panner) target(g int) (float64, float64) {
	if g < pan.inhaleFrames {
		return inhaleLeft, inhaleRight
	}
	return exhaleLeft, exhaleRight
}

func (pan *panner) next(g int) (float64, float64) {
	wantL, wantR := pan.target(g)
	pan.left = approach(pan.left, wantL, (inhaleLeft-exhaleLeft)/PanGlideSamples)
	pan.right = approach(pan.right, wantR, (exhaleRight-inhaleRight)/PanGlideSamples)
	return pan.left, pan.right
}

func approach(current, target, step float64) float64 {
	if current < target {
		return math.Min(target, current+step)
	}
	if current > target {
		return math.Max(target, current-step)
	}
	return current
}
