package synth

// Voice is the complete synthesis state of one sounding note.
type Voice struct {
	note      uint8
	frequency float64
	phase     float64
	amplitude float64
	peak      float64
	target    float64 // sustain level fixed when the decay stage starts
	step      float64
	stage     Stage
	keyHeld   bool
	done      bool // release reached zero, slot is freed after the buffer
}

func (v Voice) Note() uint8        { return v.note }
func (v Voice) Frequency() float64 { return v.frequency }
func (v Voice) Phase() float64     { return v.phase }
func (v Voice) Amplitude() float64 { return v.amplitude }
func (v Voice) Peak() float64      { return v.peak }
func (v Voice) Step() float64      { return v.step }
func (v Voice) Stage() Stage       { return v.stage }
func (v Voice) KeyHeld() bool      { return v.keyHeld }

type slotState uint8

const (
	slotEmpty slotState = iota
	slotActive
)

type slot struct {
	state slotState
	voice Voice
}

// VoiceTable is a fixed arena of one slot per note id. Active slots are
// also listed in allocation order so rendering does not scan all 256.
// It is owned by the audio thread.
type VoiceTable struct {
	slots  [NumNotes]slot
	active [NumNotes]uint8
	n      int
}

// Len returns the number of active voices.
func (t *VoiceTable) Len() int {
	return t.n
}

// Get returns a copy of the voice for id.
func (t *VoiceTable) Get(id uint8) (Voice, bool) {
	s := &t.slots[id]
	if s.state != slotActive {
		return Voice{}, false
	}
	return s.voice, true
}

// NoteOn starts a voice for id or re-arms the existing one. A re-armed
// voice keeps its phase and amplitude and climbs from there to the new
// peak.
func (t *VoiceTable) NoteOn(id uint8, peak, frequency float64, env *Envelope, sampleRate float64) {
	s := &t.slots[id]
	if s.state == slotEmpty {
		s.state = slotActive
		s.voice = Voice{note: id}
		t.active[t.n] = id
		t.n++
	}
	s.voice.frequency = frequency
	s.voice.attack(peak, env, sampleRate)
}

// NoteOff releases the voice for id. It is a no-op when no voice exists.
func (t *VoiceTable) NoteOff(id uint8, env *Envelope, sampleRate float64) {
	s := &t.slots[id]
	if s.state != slotActive {
		return
	}
	s.voice.release(env, sampleRate)
}

// ReleaseAll releases every active voice.
func (t *VoiceTable) ReleaseAll(env *Envelope, sampleRate float64) {
	for i := 0; i < t.n; i++ {
		t.slots[t.active[i]].voice.release(env, sampleRate)
	}
}

// Sweep frees the slots of voices whose release has finished, keeping the
// remaining voices in allocation order. It returns the number freed.
func (t *VoiceTable) Sweep() int {
	kept := 0
	for i := 0; i < t.n; i++ {
		id := t.active[i]
		s := &t.slots[id]
		if s.voice.done {
			s.state = slotEmpty
			s.voice = Voice{}
			continue
		}
		t.active[kept] = id
		kept++
	}
	freed := t.n - kept
	t.n = kept
	return freed
}
