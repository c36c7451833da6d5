package audio

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// PortAudio plays a Renderer through the default PortAudio output device.
// The device callback calls RenderBlock directly.
type PortAudio struct {
	r               Renderer
	sampleRate      float64
	framesPerBuffer int

	mu     sync.Mutex
	stream *portaudio.Stream
}

// NewPortAudio creates a driver; nothing is opened until Start.
func NewPortAudio(r Renderer, sampleRate float64, framesPerBuffer int) *PortAudio {
	return &PortAudio{r: r, sampleRate: sampleRate, framesPerBuffer: framesPerBuffer}
}

// Start initializes PortAudio and opens and starts a stereo output stream.
func (p *PortAudio) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stream != nil {
		return ErrAlreadyStarted
	}

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("portaudio initialize: %w", err)
	}

	stream, err := portaudio.OpenDefaultStream(0, Channels, p.sampleRate, p.framesPerBuffer, p.callback)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("portaudio open stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("portaudio start stream: %w", err)
	}
	p.stream = stream

	slog.Info("portaudio stream started", "sample_rate", p.sampleRate, "frames_per_buffer", p.framesPerBuffer)
	return nil
}

func (p *PortAudio) callback(out []float32) {
	p.r.RenderBlock(out)
}

// Stop stops and closes the stream and terminates PortAudio. No fade-out is
// applied; release notes first for a clean tail.
func (p *PortAudio) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stream == nil {
		return ErrNotStarted
	}

	stream := p.stream
	p.stream = nil
	if err := stream.Stop(); err != nil {
		slog.Warn("portaudio stop stream", "err", err)
	}
	if err := stream.Close(); err != nil {
		return fmt.Errorf("portaudio close stream: %w", err)
	}
	if err := portaudio.Terminate(); err != nil {
		return fmt.Errorf("portaudio terminate: %w", err)
	}

	slog.Info("portaudio stream stopped")
	return nil
}
