// Package audio connects a synth engine to output devices and files. None of
// the code here runs inside the render loop itself; drivers only decide when
// RenderBlock is called and where its samples go.
package audio

import "errors"

// Channels is the number of interleaved output channels.
const Channels = 2

var (
	ErrAlreadyStarted = errors.New("audio: driver already started")
	ErrNotStarted     = errors.New("audio: driver not started")
)

// Renderer produces interleaved stereo float32 frames. *synth.Engine
// implements it.
type Renderer interface {
	RenderBlock(out []float32) int
}

// Driver is an output device that pulls frames from a Renderer.
type Driver interface {
	Start() error
	Stop() error
}
