// Package midiin feeds note messages from a MIDI input port to a synth.
package midiin

import (
	"errors"
	"fmt"
	"log/slog"

	"gitlab.com/gomidi/midi/v2"
)

// MaxMIDIVelocity is the largest velocity a MIDI note message can carry.
const MaxMIDIVelocity = 127

var ErrNoInputPorts = errors.New("midi: no input ports")

// NoteSink receives notes. *synth.Engine implements it.
type NoteSink interface {
	NoteOn(id, velocity int)
	NoteOff(id int)
}

// ScaleVelocity maps a 0..127 MIDI velocity onto 0..maxVelocity.
func ScaleVelocity(v uint8, maxVelocity int) int {
	return (int(v)*maxVelocity + MaxMIDIVelocity/2) / MaxMIDIVelocity
}

// Handle forwards a single message to sink and reports whether it was a
// note start or end. A note on with velocity 0 counts as a note end.
func Handle(sink NoteSink, msg midi.Message, maxVelocity int) bool {
	var channel, key, velocity uint8
	switch {
	case msg.GetNoteStart(&channel, &key, &velocity):
		sink.NoteOn(int(key), ScaleVelocity(velocity, maxVelocity))
		return true
	case msg.GetNoteEnd(&channel, &key):
		sink.NoteOff(int(key))
		return true
	}
	return false
}

// Listen opens input port number port and forwards its notes to sink until
// the returned stop function is called.
func Listen(port int, sink NoteSink, maxVelocity int) (stop func(), err error) {
	if len(midi.GetInPorts()) == 0 {
		return nil, ErrNoInputPorts
	}
	in, err := midi.InPort(port)
	if err != nil {
		return nil, fmt.Errorf("midi in port %d: %w", port, err)
	}
	stop, err = midi.ListenTo(in, func(msg midi.Message, timestampms int32) {
		if !Handle(sink, msg, maxVelocity) {
			slog.Debug("midi message ignored", "msg", msg.String())
		}
	})
	if err != nil {
		return nil, fmt.Errorf("midi listen: %w", err)
	}

	slog.Info("midi input opened", "port", port, "name", in.String())
	return stop, nil
}
