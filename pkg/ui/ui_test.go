package ui

import (
	"math"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"polysynth/pkg/synth"
)

func newTestModel(t *testing.T, layout Layout) (Model, *synth.Engine) {
	t.Helper()
	e, err := synth.NewEngine(synth.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	return NewModel(e, layout, 300*time.Millisecond), e
}

func runeKey(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return nm, cmd
}

func render(e *synth.Engine) {
	e.RenderBlock(make([]float32, 2*synth.FramesPerBuffer))
}

func TestNoteKeyPlaysAndGateReleases(t *testing.T) {
	m, e := newTestModel(t, QWERTY)

	m, cmd := send(t, m, runeKey("a"))
	if cmd == nil {
		t.Fatal("note key returned no gate command")
	}
	render(e)
	v, ok := e.Voice(middleC)
	if !ok || !v.KeyHeld() {
		t.Fatalf("voice %d not held after key press", middleC)
	}

	m, _ = send(t, m, gateMsg{note: middleC, seq: m.seq})
	if m.Held() != 0 {
		t.Fatalf("Held() = %d after gate", m.Held())
	}
	render(e)
	v, ok = e.Voice(middleC)
	if !ok || v.KeyHeld() || v.Stage() != synth.StageRelease {
		t.Fatalf("voice %d not releasing after gate: ok=%v stage=%v", middleC, ok, v.Stage())
	}
}

func TestRepeatedPressExtendsGate(t *testing.T) {
	m, e := newTestModel(t, QWERTY)

	m, _ = send(t, m, runeKey("s"))
	first := m.seq
	m, _ = send(t, m, runeKey("s"))

	m, _ = send(t, m, gateMsg{note: middleC + 2, seq: first})
	if m.Held() != 1 {
		t.Fatalf("stale gate released the note")
	}
	render(e)
	if v, ok := e.Voice(middleC + 2); !ok || !v.KeyHeld() {
		t.Fatal("voice released by stale gate")
	}
}

func TestColemakLayout(t *testing.T) {
	m, e := newTestModel(t, Colemak)

	m, _ = send(t, m, runeKey("r"))
	m, _ = send(t, m, runeKey("'"))
	render(e)
	for _, id := range []int{middleC + 2, middleC + 17} {
		if _, ok := e.Voice(id); !ok {
			t.Errorf("voice %d not started", id)
		}
	}
	if m.Held() != 2 {
		t.Fatalf("Held() = %d, want 2", m.Held())
	}
}

func TestOctaveShift(t *testing.T) {
	m, e := newTestModel(t, QWERTY)

	m, _ = send(t, m, runeKey("x"))
	m, _ = send(t, m, runeKey("a"))
	render(e)
	if _, ok := e.Voice(middleC + 12); !ok {
		t.Fatal("octave up did not shift the note")
	}
	_ = m
}

func TestAllNotesOffKey(t *testing.T) {
	m, e := newTestModel(t, QWERTY)

	m, _ = send(t, m, runeKey("a"))
	m, _ = send(t, m, runeKey("d"))
	render(e)
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	if m.Held() != 0 {
		t.Fatalf("Held() = %d after all notes off", m.Held())
	}
	render(e)
	for _, id := range []int{middleC, middleC + 4} {
		if v, ok := e.Voice(id); ok && v.KeyHeld() {
			t.Errorf("voice %d still held", id)
		}
	}
}

func TestGainKeys(t *testing.T) {
	m, e := newTestModel(t, QWERTY)

	m, _ = send(t, m, runeKey("]"))
	render(e)
	if got := e.Stats().Gain; math.Abs(got-(synth.InitialGain+gainStep)) > 1e-9 {
		t.Fatalf("gain after ] = %v", got)
	}
	// Each request ramps from the gain reached so far.
	m, _ = send(t, m, runeKey("\\"))
	render(e)
	m, _ = send(t, m, runeKey("\\"))
	render(e)
	if got := e.Stats().Gain; math.Abs(got-(synth.InitialGain-gainStep)) > 1e-9 {
		t.Fatalf("gain after two \\ = %v", got)
	}
	_ = m
}

func TestAdjustParameters(t *testing.T) {
	m, e := newTestModel(t, QWERTY)

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyRight})
	if got := e.Params().Envelope.AttackMs; got != 15 {
		t.Fatalf("attack = %v, want 15", got)
	}

	for range 3 {
		m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyDown})
	}
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	if got := e.Params().Envelope.ReleaseMs; got != 190 {
		t.Fatalf("release = %v, want 190", got)
	}

	// Sine is already 1; raising the square weight renormalizes the mix.
	for m.selected < realTimeRow-1 {
		m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyDown})
	}
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyRight})
	mix := e.Params().Mix
	if sum := mix.Sin + mix.Saw + mix.Square; math.Abs(sum-1) > 1e-9 || mix.Square == 0 {
		t.Fatalf("mix = %+v", mix)
	}

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyRight})
	if !m.realTime {
		t.Fatal("real-time toggle not set")
	}
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyDown})
	if m.selected != realTimeRow {
		t.Fatalf("selected = %d, want %d", m.selected, realTimeRow)
	}
}

func TestAdjustClampsToRange(t *testing.T) {
	m, e := newTestModel(t, QWERTY)

	for range 5 {
		m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	}
	if got := e.Params().Envelope.AttackMs; got != 0 {
		t.Fatalf("attack = %v, want 0", got)
	}
}

func TestQuit(t *testing.T) {
	m, _ := newTestModel(t, QWERTY)
	_, cmd := send(t, m, runeKey("q"))
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("q did not quit")
	}
}

func TestView(t *testing.T) {
	m, _ := newTestModel(t, QWERTY)
	out := m.View()
	for _, want := range []string{"Attack", "Cutoff LFO Depth", "Real-time display", "Waveform Display"} {
		if !strings.Contains(out, want) {
			t.Errorf("View() missing %q", want)
		}
	}
}

func TestLayoutByName(t *testing.T) {
	if _, err := LayoutByName("dvorak"); err == nil {
		t.Fatal("expected error for unknown layout")
	}
	l, err := LayoutByName("colemak")
	if err != nil || l["'"] != 17 {
		t.Fatalf("colemak layout = %v, %v", l, err)
	}
}
