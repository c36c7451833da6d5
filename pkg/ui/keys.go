package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
)

// Layout maps a key (as reported by tea.KeyMsg.String) to a note id
// relative to middle C.
type Layout map[string]int

// QWERTY puts the white keys from C4 on the home row and the black keys on
// the row above.
var QWERTY = Layout{
	"a": 0, "w": 1, "s": 2, "e": 3, "d": 4, "f": 5, "t": 6, "g": 7,
	"y": 8, "h": 9, "u": 10, "j": 11, "k": 12, "o": 13, "l": 14, "p": 15,
	";": 16, "'": 17,
}

// Colemak plays C4 to F5 on the Colemak home row.
var Colemak = Layout{
	"a": 0, "r": 2, "s": 4, "t": 5, "d": 7, "h": 9,
	"n": 11, "e": 12, "i": 14, "o": 16, "'": 17,
}

// LayoutByName returns the layout for "qwerty" or "colemak".
func LayoutByName(name string) (Layout, error) {
	switch name {
	case "qwerty":
		return QWERTY, nil
	case "colemak":
		return Colemak, nil
	}
	return nil, fmt.Errorf("unknown keyboard layout %q", name)
}

// middleC is the note id the layouts are relative to.
const middleC = 60

type keyMap struct {
	Up          key.Binding
	Down        key.Binding
	Left        key.Binding
	Right       key.Binding
	GainUp      key.Binding
	GainDown    key.Binding
	OctaveDown  key.Binding
	OctaveUp    key.Binding
	AllNotesOff key.Binding
	Quit        key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Left, k.Right, k.GainUp, k.GainDown, k.OctaveDown, k.OctaveUp, k.AllNotesOff, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right},
		{k.GainUp, k.GainDown, k.OctaveDown, k.OctaveUp},
		{k.AllNotesOff, k.Quit},
	}
}

var keys = keyMap{
	Up:          key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "select")),
	Down:        key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "select")),
	Left:        key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "decrease")),
	Right:       key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "increase")),
	GainUp:      key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "gain +")),
	GainDown:    key.NewBinding(key.WithKeys("\\"), key.WithHelp("\\", "gain -")),
	OctaveDown:  key.NewBinding(key.WithKeys("z"), key.WithHelp("z", "octave -")),
	OctaveUp:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "octave +")),
	AllNotesOff: key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "all notes off")),
	Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}
