package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"polysynth/pkg/audio"
	"polysynth/pkg/midiin"
	"polysynth/pkg/synth"
	"polysynth/pkg/ui"

	tea "github.com/charmbracelet/bubbletea"
	"gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // autoregisters driver
)

type options struct {
	driver   string
	rate     float64
	buffer   int
	gain     float64
	midi     bool
	midiPort int
	layout   string
	gate     time.Duration
	out      string
	duration time.Duration
	debug    bool
	logPath  string
	noFilter bool
	noLFO    bool
	softClip bool
}

func parseFlags() options {
	var o options
	flag.StringVar(&o.driver, "driver", "portaudio", "Audio output: portaudio, oto or wav")
	flag.Float64Var(&o.rate, "rate", synth.SampleRate, "Sample rate in Hz")
	flag.IntVar(&o.buffer, "buffer", synth.FramesPerBuffer, "Frames per buffer")
	flag.Float64Var(&o.gain, "gain", synth.InitialGain, "Initial master gain (0-1)")
	flag.BoolVar(&o.midi, "midi", false, "Play notes from a MIDI input port")
	flag.IntVar(&o.midiPort, "midi-port", 0, "MIDI input port number")
	flag.StringVar(&o.layout, "layout", "qwerty", "Keyboard layout: qwerty or colemak")
	flag.DurationVar(&o.gate, "gate", 300*time.Millisecond, "How long a key press holds its note")
	flag.StringVar(&o.out, "out", "render.wav", "Output file for -driver wav")
	flag.DurationVar(&o.duration, "duration", 4*time.Second, "Render length for -driver wav")
	flag.BoolVar(&o.debug, "debug", false, "Enable debug logging")
	flag.StringVar(&o.logPath, "log", "polysynth.log", "Log file while the terminal UI runs")
	flag.BoolVar(&o.noFilter, "no-filter", false, "Bypass the low-pass filter")
	flag.BoolVar(&o.noLFO, "no-lfo", false, "Disable both LFOs")
	flag.BoolVar(&o.softClip, "soft-clip", false, "Soft-clip the output before the hard limit")
	flag.Parse()
	return o
}

func (o options) engineConfig() synth.Config {
	cfg := synth.DefaultConfig()
	cfg.SampleRate = o.rate
	cfg.FramesPerBuffer = o.buffer
	cfg.InitialGain = o.gain
	cfg.Filter = !o.noFilter
	cfg.VolumeLFO = !o.noLFO
	cfg.CutoffLFO = !o.noLFO
	cfg.SoftClip = o.softClip
	return cfg
}

func setupLogging(w io.Writer, debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

func main() {
	o := parseFlags()
	setupLogging(os.Stderr, o.debug)

	e, err := synth.NewEngine(o.engineConfig())
	if err != nil {
		slog.Error("invalid engine config", "err", err)
		os.Exit(1)
	}

	if o.driver == "wav" {
		if err := renderFile(e, o); err != nil {
			slog.Error("render failed", "err", err)
			os.Exit(1)
		}
		return
	}

	if err := run(e, o); err != nil {
		slog.Error("synth stopped", "err", err)
		os.Exit(1)
	}
}

func renderFile(e *synth.Engine, o options) error {
	f, err := os.Create(o.out)
	if err != nil {
		return fmt.Errorf("create %s: %w", o.out, err)
	}
	defer f.Close()

	cfg := e.Config()
	if err := audio.RenderWAV(f, e, audio.DemoScore(), o.duration, int(cfg.SampleRate), cfg.FramesPerBuffer); err != nil {
		return err
	}
	slog.Info("wav written", "path", o.out, "duration", o.duration)
	return f.Close()
}

func newDriver(e *synth.Engine, name string) (audio.Driver, error) {
	cfg := e.Config()
	switch name {
	case "portaudio":
		return audio.NewPortAudio(e, cfg.SampleRate, cfg.FramesPerBuffer), nil
	case "oto":
		return audio.NewOto(e, int(cfg.SampleRate), cfg.FramesPerBuffer), nil
	}
	return nil, fmt.Errorf("unknown driver %q", name)
}

func run(e *synth.Engine, o options) error {
	layout, err := ui.LayoutByName(o.layout)
	if err != nil {
		return err
	}
	driver, err := newDriver(e, o.driver)
	if err != nil {
		return err
	}

	// The terminal UI owns stderr from here on.
	logFile, err := os.OpenFile(o.logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()
	setupLogging(logFile, o.debug)

	// Initialize MIDI
	defer midi.CloseDriver()
	if o.midi {
		stop, err := midiin.Listen(o.midiPort, e, int(e.Config().MaxVelocity))
		if errors.Is(err, midiin.ErrNoInputPorts) {
			slog.Warn("midi enabled but no input ports found")
		} else if err != nil {
			slog.Warn("midi input unavailable", "err", err)
		} else {
			defer stop()
		}
	}

	if err := driver.Start(); err != nil {
		return err
	}
	defer func() {
		if err := driver.Stop(); err != nil {
			slog.Error("stop driver", "err", err)
		}
	}()

	p := tea.NewProgram(ui.NewModel(e, layout, o.gate))

	// Handle OS signals for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		slog.Info("signal received", "signal", sig.String())
		e.AllNotesOff()
		p.Quit()
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	e.AllNotesOff()
	return nil
}
