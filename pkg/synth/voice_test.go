package synth

import "testing"

func TestStepSamplesFloorsToOne(t *testing.T) {
	tests := []struct {
		ms   float64
		want float64
	}{
		{0, 1},
		{-10, 1},
		{0.001, 1},
		{50, 2205},
	}
	for _, tt := range tests {
		if got := stepSamples(tt.ms, 44100); got != tt.want {
			t.Errorf("stepSamples(%v) = %v, want %v", tt.ms, got, tt.want)
		}
	}
}

func TestZeroLengthEnvelope(t *testing.T) {
	var tbl VoiceTable
	env := Envelope{Sustain: 0.5}
	tbl.NoteOn(1, 1, 440, &env, 44100)
	v := &tbl.slots[1].voice

	if amp := v.tick(&env, 44100); amp != 1 || v.stage != StageDecay {
		t.Fatalf("after 1 sample: amp %g stage %v", amp, v.stage)
	}
	if amp := v.tick(&env, 44100); amp != 0.5 || v.stage != StageSustain {
		t.Fatalf("after 2 samples: amp %g stage %v", amp, v.stage)
	}
	tbl.NoteOff(1, &env, 44100)
	if amp := v.tick(&env, 44100); amp != 0 || !v.done {
		t.Fatalf("after release: amp %g done %v", amp, v.done)
	}
}

func TestSustainReleasesWhenKeyLifted(t *testing.T) {
	env := Envelope{Sustain: 0.5, ReleaseMs: 1}
	v := Voice{stage: StageSustain, amplitude: 0.5, peak: 1, target: 0.5}
	v.tick(&env, 44100)
	if v.stage != StageRelease || v.step >= 0 {
		t.Fatalf("stage %v step %g, want release with negative step", v.stage, v.step)
	}
}

func TestNoteOffDuringAttack(t *testing.T) {
	var tbl VoiceTable
	env := Envelope{AttackMs: 10, DecayMs: 10, Sustain: 0.5, ReleaseMs: 10}
	tbl.NoteOn(9, 1, 440, &env, 44100)
	v := &tbl.slots[9].voice
	for i := 0; i < 100; i++ {
		v.tick(&env, 44100)
	}
	amp := v.amplitude
	tbl.NoteOff(9, &env, 44100)
	if v.stage != StageRelease || v.keyHeld {
		t.Fatalf("stage %v held %v", v.stage, v.keyHeld)
	}
	if want := -amp / 441; v.step != want {
		t.Fatalf("release step = %g, want %g", v.step, want)
	}
}

func TestVoiceTableSweepKeepsOrder(t *testing.T) {
	var tbl VoiceTable
	env := Envelope{Sustain: 1}
	for _, id := range []uint8{10, 20, 30, 40} {
		tbl.NoteOn(id, 1, 100, &env, 44100)
	}
	tbl.slots[20].voice.done = true
	tbl.slots[40].voice.done = true
	if freed := tbl.Sweep(); freed != 2 {
		t.Fatalf("freed %d, want 2", freed)
	}
	if tbl.Len() != 2 || tbl.active[0] != 10 || tbl.active[1] != 30 {
		t.Fatalf("active = %v (len %d)", tbl.active[:tbl.Len()], tbl.Len())
	}
	if _, ok := tbl.Get(20); ok {
		t.Fatal("freed slot still active")
	}
	if tbl.slots[20].state != slotEmpty {
		t.Fatal("freed slot not marked empty")
	}
	// A freed slot can be allocated again.
	tbl.NoteOn(20, 1, 100, &env, 44100)
	if v, ok := tbl.Get(20); !ok || v.Amplitude() != 0 || v.Phase() != 0 {
		t.Fatalf("reallocated voice = %+v, %v", v, ok)
	}
}

func TestNoteOffEmptySlot(t *testing.T) {
	var tbl VoiceTable
	env := Envelope{}
	tbl.NoteOff(3, &env, 44100)
	if tbl.Len() != 0 || tbl.slots[3].state != slotEmpty {
		t.Fatal("note-off allocated a voice")
	}
}

func TestStageString(t *testing.T) {
	for s, want := range map[Stage]string{
		StageAttack: "attack", StageDecay: "decay", StageSustain: "sustain", StageRelease: "release", Stage(9): "unknown",
	} {
		if got := s.String(); got != want {
			t.Errorf("Stage(%d).String() = %q, want %q", s, got, want)
		}
	}
}
