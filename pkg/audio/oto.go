package audio

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

const bytesPerSample = 4 // float32 LE

// Oto plays a Renderer through an oto context. oto pulls bytes through
// Read, which renders fixed-size blocks into a preallocated buffer.
type Oto struct {
	r               Renderer
	sampleRate      int
	framesPerBuffer int

	mu     sync.Mutex
	ctx    *oto.Context
	player *oto.Player

	// Read state, only touched by oto's reader goroutine.
	block   []float32
	pending []float32
}

// NewOto creates a driver; the oto context is created on Start.
func NewOto(r Renderer, sampleRate, framesPerBuffer int) *Oto {
	return &Oto{
		r:               r,
		sampleRate:      sampleRate,
		framesPerBuffer: framesPerBuffer,
		block:           make([]float32, framesPerBuffer*Channels),
	}
}

// Start creates the oto context (once per process) and starts playback.
func (o *Oto) Start() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.player != nil {
		return ErrAlreadyStarted
	}

	if o.ctx == nil {
		bufferTime := time.Duration(o.framesPerBuffer) * time.Second / time.Duration(o.sampleRate)
		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   o.sampleRate,
			ChannelCount: Channels,
			Format:       oto.FormatFloat32LE,
			BufferSize:   bufferTime,
		})
		if err != nil {
			return fmt.Errorf("oto new context: %w", err)
		}
		<-ready
		o.ctx = ctx
	}

	o.player = o.ctx.NewPlayer(o)
	o.player.Play()

	slog.Info("oto player started", "sample_rate", o.sampleRate, "frames_per_buffer", o.framesPerBuffer)
	return nil
}

// Read implements io.Reader for oto. It never returns an error; the stream
// is endless until the player is closed.
func (o *Oto) Read(p []byte) (int, error) {
	n := 0
	for n+bytesPerSample <= len(p) {
		if len(o.pending) == 0 {
			o.r.RenderBlock(o.block)
			o.pending = o.block
		}
		binary.LittleEndian.PutUint32(p[n:], math.Float32bits(o.pending[0]))
		o.pending = o.pending[1:]
		n += bytesPerSample
	}
	return n, nil
}

// Stop closes the player. The oto context stays alive since oto allows
// only one per process.
func (o *Oto) Stop() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.player == nil {
		return ErrNotStarted
	}

	err := o.player.Close()
	o.player = nil
	if err != nil {
		return fmt.Errorf("oto close player: %w", err)
	}

	slog.Info("oto player stopped")
	return nil
}
