package audio

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sort"
	"time"

	wav "github.com/youpy/go-wav"
)

const bitsPerSample = 16

// Instrument is a Renderer that also accepts notes.
type Instrument interface {
	Renderer
	NoteOn(id, velocity int)
	NoteOff(id int)
}

// ScoreEvent is a note start (Velocity > 0) or end (Velocity == 0) at a
// point in time.
type ScoreEvent struct {
	At       time.Duration
	Note     int
	Velocity int
}

// Score is a list of timed note events.
type Score []ScoreEvent

// DemoScore plays a short arpeggio over four chords.
func DemoScore() Score {
	chords := [][]int{
		{60, 64, 67, 72}, // C
		{57, 60, 64, 69}, // Am
		{53, 57, 60, 65}, // F
		{55, 59, 62, 67}, // G
	}
	const step = 150 * time.Millisecond
	var s Score
	at := time.Duration(0)
	for _, chord := range chords {
		for _, n := range chord {
			s = append(s,
				ScoreEvent{At: at, Note: n, Velocity: 200},
				ScoreEvent{At: at + step*3/4, Note: n},
			)
			at += step
		}
	}
	return s
}

// RenderWAV renders duration of audio from inst into w as a 16-bit stereo
// WAV file, applying score events at the buffer boundary on or after their
// time.
func RenderWAV(w io.Writer, inst Instrument, score Score, duration time.Duration, sampleRate, framesPerBuffer int) error {
	if sampleRate <= 0 || framesPerBuffer <= 0 {
		return fmt.Errorf("render wav: invalid sample rate %d or buffer size %d", sampleRate, framesPerBuffer)
	}
	events := append(Score(nil), score...)
	sort.SliceStable(events, func(i, j int) bool { return events[i].At < events[j].At })

	totalFrames := int(duration.Seconds() * float64(sampleRate))
	bw := bufio.NewWriter(w)
	ww := wav.NewWriter(bw, uint32(totalFrames), Channels, uint32(sampleRate), bitsPerSample)

	block := make([]float32, framesPerBuffer*Channels)
	samples := make([]wav.Sample, framesPerBuffer)
	next := 0
	for written := 0; written < totalFrames; {
		now := time.Duration(written) * time.Second / time.Duration(sampleRate)
		for ; next < len(events) && events[next].At <= now; next++ {
			ev := events[next]
			if ev.Velocity > 0 {
				inst.NoteOn(ev.Note, ev.Velocity)
			} else {
				inst.NoteOff(ev.Note)
			}
		}

		frames := min(framesPerBuffer, totalFrames-written)
		inst.RenderBlock(block[:frames*Channels])
		for i := 0; i < frames; i++ {
			samples[i].Values[0] = toPCM16(block[2*i])
			samples[i].Values[1] = toPCM16(block[2*i+1])
		}
		if err := ww.WriteSamples(samples[:frames]); err != nil {
			return fmt.Errorf("render wav: write samples: %w", err)
		}
		written += frames
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("render wav: flush: %w", err)
	}
	slog.Debug("wav rendered", "frames", totalFrames, "events", next)
	return nil
}

func toPCM16(s float32) int {
	v := math.Round(float64(s) * math.MaxInt16)
	return int(max(min(v, math.MaxInt16), math.MinInt16))
}
