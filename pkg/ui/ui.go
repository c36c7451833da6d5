package ui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"polysynth/pkg/synth"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	waveformWidth  = 100 // Width of the waveform display
	waveformHeight = 20  // Height of the waveform display

	noteVelocity = synth.MaxVelocity
	gainStep     = 0.1 // Gain change per ] or \ press
	gainRampMs   = 1.0 // Ramp length for keyboard gain changes
	meterWidth   = 30
)

// param is one adjustable row of the control menu.
type param struct {
	label  string
	format string
	step   float64
	min    float64
	max    float64
	get    func(p synth.Params) float64
	set    func(e *synth.Engine, p synth.Params, v float64)
}

func setEnvelope(e *synth.Engine, env synth.Envelope) {
	e.SetEnvelope(env.AttackMs, env.DecayMs, env.Sustain, env.ReleaseMs)
}

func setMix(e *synth.Engine, m synth.Mix) {
	m = synth.NormalizeMix(m)
	e.SetWaveformMix(m.Sin, m.Saw, m.Square)
}

var params = []param{
	{"Attack", "%.0f ms", 5, 0, 2000,
		func(p synth.Params) float64 { return p.Envelope.AttackMs },
		func(e *synth.Engine, p synth.Params, v float64) { p.Envelope.AttackMs = v; setEnvelope(e, p.Envelope) }},
	{"Decay", "%.0f ms", 5, 0, 2000,
		func(p synth.Params) float64 { return p.Envelope.DecayMs },
		func(e *synth.Engine, p synth.Params, v float64) { p.Envelope.DecayMs = v; setEnvelope(e, p.Envelope) }},
	{"Sustain", "%.2f", 0.05, 0, 1,
		func(p synth.Params) float64 { return p.Envelope.Sustain },
		func(e *synth.Engine, p synth.Params, v float64) { p.Envelope.Sustain = v; setEnvelope(e, p.Envelope) }},
	{"Release", "%.0f ms", 10, 0, 5000,
		func(p synth.Params) float64 { return p.Envelope.ReleaseMs },
		func(e *synth.Engine, p synth.Params, v float64) { p.Envelope.ReleaseMs = v; setEnvelope(e, p.Envelope) }},
	{"Volume LFO Frequency", "%.1f Hz", 0.5, 0, 20,
		func(p synth.Params) float64 { return p.VolumeLFO.FrequencyHz },
		func(e *synth.Engine, p synth.Params, v float64) { e.SetVolumeLFO(v, p.VolumeLFO.Amplitude) }},
	{"Volume LFO Depth", "%.2f", 0.05, 0, 1,
		func(p synth.Params) float64 { return p.VolumeLFO.Amplitude },
		func(e *synth.Engine, p synth.Params, v float64) { e.SetVolumeLFO(p.VolumeLFO.FrequencyHz, v) }},
	{"Cutoff LFO Frequency", "%.1f Hz", 0.5, 0, 20,
		func(p synth.Params) float64 { return p.CutoffLFO.FrequencyHz },
		func(e *synth.Engine, p synth.Params, v float64) { e.SetCutoffLFO(v, p.CutoffLFO.Amplitude) }},
	{"Cutoff LFO Depth", "%.2f", 0.05, 0, 0.9,
		func(p synth.Params) float64 { return p.CutoffLFO.Amplitude },
		func(e *synth.Engine, p synth.Params, v float64) { e.SetCutoffLFO(p.CutoffLFO.FrequencyHz, v) }},
	{"Cutoff", "%.0f Hz", 250, 50, 20000,
		func(p synth.Params) float64 { return p.Filter.CutoffHz },
		func(e *synth.Engine, p synth.Params, v float64) { e.SetFilter(v, p.Filter.Q) }},
	{"Resonance (Q)", "%.2f", 0.1, 0.1, 10,
		func(p synth.Params) float64 { return p.Filter.Q },
		func(e *synth.Engine, p synth.Params, v float64) { e.SetFilter(p.Filter.CutoffHz, v) }},
	{"Sine", "%.2f", 0.1, 0, 1,
		func(p synth.Params) float64 { return p.Mix.Sin },
		func(e *synth.Engine, p synth.Params, v float64) { p.Mix.Sin = v; setMix(e, p.Mix) }},
	{"Sawtooth", "%.2f", 0.1, 0, 1,
		func(p synth.Params) float64 { return p.Mix.Saw },
		func(e *synth.Engine, p synth.Params, v float64) { p.Mix.Saw = v; setMix(e, p.Mix) }},
	{"Square", "%.2f", 0.1, 0, 1,
		func(p synth.Params) float64 { return p.Mix.Square },
		func(e *synth.Engine, p synth.Params, v float64) { p.Mix.Square = v; setMix(e, p.Mix) }},
}

// realTimeRow is the menu row after the parameters.
var realTimeRow = len(params)

// Model represents the application UI state
type Model struct {
	spinner  spinner.Model
	help     help.Model
	gainBar  progress.Model
	voiceBar progress.Model

	engine   *synth.Engine
	layout   Layout
	gate     time.Duration
	realTime bool
	selected int
	octave   int

	// held maps a sounding note to the press that last extended its gate.
	held     map[int]uint64
	seq      uint64
	lastNote int
}

// NewModel creates a new UI model. Terminals report key presses but not
// releases, so every note is released gate after its last press.
func NewModel(e *synth.Engine, layout Layout, gate time.Duration) Model {
	return Model{
		spinner:  spinner.New(),
		help:     help.New(),
		gainBar:  progress.New(progress.WithDefaultGradient(), progress.WithWidth(meterWidth), progress.WithoutPercentage()),
		voiceBar: progress.New(progress.WithSolidFill("#00ff00"), progress.WithWidth(meterWidth), progress.WithoutPercentage()),
		engine:   e,
		layout:   layout,
		gate:     gate,
		held:     make(map[int]uint64),
		lastNote: middleC,
	}
}

// Init initializes the application
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		tea.Every(time.Second/60, func(time.Time) tea.Msg {
			return frameMsg{}
		}),
	)
}

// Custom message type for frame updates
type frameMsg struct{}

// gateMsg releases note unless it was pressed again after seq.
type gateMsg struct {
	note int
	seq  uint64
}

// Update handles application updates
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil
	case frameMsg:
		// Request next frame
		return m, tea.Batch(
			m.spinner.Tick,
			tea.Every(time.Second/60, func(time.Time) tea.Msg {
				return frameMsg{}
			}),
		)
	case gateMsg:
		if seq, ok := m.held[msg.note]; ok && seq == msg.seq {
			delete(m.held, msg.note)
			m.engine.NoteOff(msg.note)
		}
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Up):
		if m.selected > 0 {
			m.selected--
		}
	case key.Matches(msg, keys.Down):
		if m.selected < realTimeRow {
			m.selected++
		}
	case key.Matches(msg, keys.Left), key.Matches(msg, keys.Right):
		if m.selected == realTimeRow {
			m.realTime = !m.realTime
			break
		}
		dir := 1.0
		if key.Matches(msg, keys.Left) {
			dir = -1
		}
		m.adjust(params[m.selected], dir)
	case key.Matches(msg, keys.GainUp):
		m.engine.SetGain(gainStep, gainRampMs)
	case key.Matches(msg, keys.GainDown):
		m.engine.SetGain(-gainStep, gainRampMs)
	case key.Matches(msg, keys.OctaveDown):
		m.octave = max(m.octave-1, -4)
	case key.Matches(msg, keys.OctaveUp):
		m.octave = min(m.octave+1, 4)
	case key.Matches(msg, keys.AllNotesOff):
		clear(m.held)
		m.engine.AllNotesOff()
	default:
		if offset, ok := m.layout[msg.String()]; ok {
			cmd := m.press(middleC + 12*m.octave + offset)
			return m, cmd
		}
	}
	return m, nil
}

func (m *Model) adjust(p param, dir float64) {
	snapshot := m.engine.Params()
	v := p.get(snapshot) + dir*p.step
	v = math.Round(v/p.step) * p.step
	p.set(m.engine, snapshot, math.Max(p.min, math.Min(p.max, v)))
}

// press starts (or re-strikes) note and schedules its release.
func (m *Model) press(note int) tea.Cmd {
	m.seq++
	seq := m.seq
	m.held[note] = seq
	m.lastNote = note
	m.engine.NoteOn(note, noteVelocity)
	return tea.Tick(m.gate, func(time.Time) tea.Msg {
		return gateMsg{note: note, seq: seq}
	})
}

// Held returns the number of notes the UI is currently holding.
func (m Model) Held() int {
	return len(m.held)
}

// getWaveformChar returns an appropriate character based on intensity
func getWaveformChar(value float64) rune {
	switch {
	case value >= 0.8:
		return '█'
	case value >= 0.6:
		return '▓'
	case value >= 0.4:
		return '▒'
	case value >= 0.2:
		return '░'
	case value > 0:
		return '·'
	default:
		return ' '
	}
}

// Create styles for different waveform elements
var (
	waveformStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#000000")).
			Foreground(lipgloss.Color("#00ff00"))

	borderStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#000000")).
			Foreground(lipgloss.Color("#004400"))

	spaceStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#000000"))
)

// hslToRGB converts HSL color values to RGB
func hslToRGB(h, s, l float64) (r, g, b float64) {
	if s == 0 {
		return l, l, l
	}

	var q float64
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q

	r = hueToRGB(p, q, h+1.0/3.0)
	g = hueToRGB(p, q, h)
	b = hueToRGB(p, q, h-1.0/3.0)
	return
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t += 1
	}
	if t > 1 {
		t -= 1
	}
	switch {
	case t < 1.0/6.0:
		return p + (q-p)*6*t
	case t < 1.0/2.0:
		return q
	case t < 2.0/3.0:
		return p + (q-p)*(2.0/3.0-t)*6
	}
	return p
}

// getRainbowColor returns a color string based on time and intensity
func getRainbowColor(intensity float64, timeOffset float64) string {
	hue := math.Mod(timeOffset, 1.0)
	lightness := 0.3 + math.Min(intensity, 1)*0.4

	r, g, b := hslToRGB(hue, 1.0, lightness)
	return fmt.Sprintf("#%02x%02x%02x", int(r*255), int(g*255), int(b*255))
}

// sampleWaveform returns the raw sine and the blended, volume-modulated
// signal of the current snapshot at time t for a note at freq.
func sampleWaveform(p synth.Params, freq, t float64) (raw, shaped float64) {
	phase := math.Mod(2*math.Pi*freq*t, 2*math.Pi)
	raw = math.Sin(phase)
	shaped = synth.Waveform(p.Mix, phase)
	if p.VolumeLFO.Active() {
		shaped *= 1 + p.VolumeLFO.Amplitude*math.Sin(2*math.Pi*p.VolumeLFO.FrequencyHz*t)
	}
	return raw, shaped
}

// drawWaveform creates an ASCII art representation of the waveform
func (m Model) drawWaveform(p synth.Params, stats synth.Stats) string {
	buffer := make([][]rune, waveformHeight)
	intensities := make([][]float64, waveformHeight)
	for i := range buffer {
		buffer[i] = make([]rune, waveformWidth)
		intensities[i] = make([]float64, waveformWidth)
		for j := range buffer[i] {
			buffer[i][j] = ' '
		}
	}

	centerY := waveformHeight / 2
	for x := 0; x < waveformWidth; x++ {
		buffer[centerY][x] = '─'
		intensities[centerY][x] = 0.2
	}

	freq := 440.0
	if m.lastNote >= 0 && m.lastNote < synth.NumNotes && p.Keys != nil {
		freq = p.Keys[m.lastNote]
	}

	// Animate from the engine's rendered position in real-time mode.
	displayTime := 0.0
	elapsed := float64(stats.Frames) / m.engine.Config().SampleRate
	if m.realTime {
		displayTime = elapsed
	}

	points := waveformWidth * 4 // Calculate more points for smoother rendering
	lastRawY := -1
	lastShapedY := -1
	scale := float64(waveformHeight / 4)
	for i := 0; i < points; i++ {
		x := i * waveformWidth / points
		t := displayTime + float64(i)/float64(points)*0.02 // Show 0.02 seconds of waveform

		raw, shaped := sampleWaveform(p, freq, t)

		rawY := clamp(int(-raw*scale)+centerY, 0, waveformHeight-1)
		shapedY := clamp(int(-shaped*scale)+centerY, 0, waveformHeight-1)

		if lastRawY != -1 && x > 0 {
			interpolatePointsWithIntensity(buffer, intensities, x-1, lastRawY, x, rawY, '·', math.Abs(raw)*0.7)
		}
		if lastShapedY != -1 && x > 0 {
			char := getWaveformChar(math.Abs(shaped))
			interpolatePointsWithIntensity(buffer, intensities, x-1, lastShapedY, x, shapedY, char, math.Abs(shaped))
		}

		lastRawY = rawY
		lastShapedY = shapedY
	}

	var result strings.Builder
	result.WriteString("\n")
	result.WriteString(waveformStyle.Render(fmt.Sprintf("Waveform Display %.1f Hz", freq)) + " ")
	result.WriteString(waveformStyle.Render("(sine: ·)") + " ")
	result.WriteString(waveformStyle.Render("(mix: ░▒▓█)") + "\n")

	result.WriteString(borderStyle.Render("╔" + strings.Repeat("═", waveformWidth) + "╗\n"))

	timeHueOffset := math.Mod(elapsed*0.2, 1.0)
	for y, line := range buffer {
		result.WriteString(borderStyle.Render("║"))
		for x, char := range line {
			if char == ' ' {
				result.WriteString(spaceStyle.Render(" "))
				continue
			}
			color := getRainbowColor(intensities[y][x], timeHueOffset+float64(x)/float64(waveformWidth)*0.5)
			style := lipgloss.NewStyle().
				Background(lipgloss.Color("#000000")).
				Foreground(lipgloss.Color(color))
			result.WriteString(style.Render(string(char)))
		}
		result.WriteString(borderStyle.Render("║") + "\n")
	}

	result.WriteString(borderStyle.Render("╚" + strings.Repeat("═", waveformWidth) + "╝\n"))

	return result.String()
}

// interpolatePointsWithIntensity draws a line between two points using Bresenham's line algorithm
func interpolatePointsWithIntensity(buffer [][]rune, intensities [][]float64, x1, y1, x2, y2 int, char rune, intensity float64) {
	dx := x2 - x1
	dy := y2 - y1

	if dx == 0 && dy == 0 {
		if y1 >= 0 && y1 < len(buffer) && x1 >= 0 && x1 < len(buffer[0]) {
			buffer[y1][x1] = char
			intensities[y1][x1] = intensity
		}
		return
	}

	if dx != 0 {
		for x := x1; x <= x2; x++ {
			t := float64(x-x1) / float64(dx)
			y := int(float64(y1) + t*float64(dy))
			if y >= 0 && y < len(buffer) && x >= 0 && x < len(buffer[0]) {
				buffer[y][x] = char
				intensities[y][x] = intensity
			}
		}
		return
	}

	step := 1
	if dy < 0 {
		step = -1
	}
	for y := y1; y != y2+step; y += step {
		if y >= 0 && y < len(buffer) && x1 >= 0 && x1 < len(buffer[0]) {
			buffer[y][x1] = char
			intensities[y][x1] = intensity
		}
	}
}

// clamp ensures a value is within the given range
func clamp(value, lo, hi int) int {
	return max(lo, min(value, hi))
}

// View renders the application UI
func (m Model) View() string {
	baseStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#ffffff")).
		Background(lipgloss.Color("#000000"))

	selectedStyle := baseStyle.
		Foreground(lipgloss.Color("#00ff00"))

	containerStyle := lipgloss.NewStyle().
		Background(lipgloss.Color("#000000")).
		MarginLeft(2).
		MarginRight(2)

	p := m.engine.Params()
	stats := m.engine.Stats()

	var s strings.Builder
	s.WriteString(baseStyle.Render(m.spinner.View()+" Synthesizer Controls") + "\n\n")

	row := func(i int, label, value string) {
		if m.selected == i {
			s.WriteString(selectedStyle.Render("> " + label + ": "))
		} else {
			s.WriteString(baseStyle.Render("  " + label + ": "))
		}
		s.WriteString(baseStyle.Render(value) + "\n")
	}
	for i, pr := range params {
		row(i, pr.label, fmt.Sprintf(pr.format, pr.get(p)))
	}
	row(realTimeRow, "Real-time display", fmt.Sprintf("%v", m.realTime))

	s.WriteString("\n")
	s.WriteString(baseStyle.Render(fmt.Sprintf("Gain   %.2f ", stats.Gain)) + m.gainBar.ViewAs(stats.Gain) + "\n")
	s.WriteString(baseStyle.Render(fmt.Sprintf("Voices %3d  ", stats.ActiveVoices)) +
		m.voiceBar.ViewAs(float64(stats.ActiveVoices)/synth.NumNotes) + "\n")
	s.WriteString(baseStyle.Render(fmt.Sprintf("Octave %+d  held %d  dropped %d  ignored %d",
		m.octave, len(m.held), stats.EventsDropped, stats.Ignored)) + "\n\n")

	s.WriteString(m.help.View(keys) + "\n")

	s.WriteString(m.drawWaveform(p, stats))

	return containerStyle.Render(
		lipgloss.NewStyle().
			Background(lipgloss.Color("#000000")).
			Render(s.String()),
	)
}
