package midiin

import (
	"testing"

	"gitlab.com/gomidi/midi/v2"
)

type note struct {
	on       bool
	id       int
	velocity int
}

type recorder struct {
	notes []note
}

func (r *recorder) NoteOn(id, velocity int) {
	r.notes = append(r.notes, note{on: true, id: id, velocity: velocity})
}

func (r *recorder) NoteOff(id int) {
	r.notes = append(r.notes, note{id: id})
}

func TestHandle(t *testing.T) {
	tests := []struct {
		name    string
		msg     midi.Message
		handled bool
		want    note
	}{
		{"note on", midi.NoteOn(0, 60, 127), true, note{on: true, id: 60, velocity: 255}},
		{"note on other channel", midi.NoteOn(9, 36, 64), true, note{on: true, id: 36, velocity: 129}},
		{"note off", midi.NoteOff(0, 60), true, note{id: 60}},
		{"note on zero velocity", midi.NoteOn(0, 72, 0), true, note{id: 72}},
		{"control change", midi.ControlChange(0, 7, 100), false, note{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r recorder
			if got := Handle(&r, tt.msg, 255); got != tt.handled {
				t.Fatalf("Handle() = %v, want %v", got, tt.handled)
			}
			if !tt.handled {
				if len(r.notes) != 0 {
					t.Fatalf("unexpected notes %+v", r.notes)
				}
				return
			}
			if len(r.notes) != 1 || r.notes[0] != tt.want {
				t.Fatalf("notes = %+v, want [%+v]", r.notes, tt.want)
			}
		})
	}
}

func TestScaleVelocity(t *testing.T) {
	tests := []struct {
		in   uint8
		max  int
		want int
	}{
		{0, 255, 0},
		{1, 255, 2},
		{64, 255, 129},
		{127, 255, 255},
		{127, 127, 127},
	}
	for _, tt := range tests {
		if got := ScaleVelocity(tt.in, tt.max); got != tt.want {
			t.Errorf("ScaleVelocity(%d, %d) = %d, want %d", tt.in, tt.max, got, tt.want)
		}
	}
}
