package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTone(t *testing.T) {
	pcm := Tone(880, 250*time.Millisecond, 0.5)
	assert.Len(t, pcm, SampleRate/4*2)

	first := int16(binary.LittleEndian.Uint16(pcm[0:]))
	assert.Zero(t, first, "fade in starts silent")

	var peak int16
	for i := 0; i < len(pcm); i += 2 {
		if v := int16(binary.LittleEndian.Uint16(pcm[i:])); v > peak {
			peak = v
		}
	}
	assert.InDelta(t, 0.5*32767, float64(peak), 200)
}

func TestBeepFallbackChain(t *testing.T) {
	var ran []string
	bell := &bytes.Buffer{}

	b := &Beeper{
		Play: func([]byte) error { return errors.New("no device") },
		Run: func(_ context.Context, c Command) error {
			ran = append(ran, c.Name)
			return errors.New("missing")
		},
		Commands: FallbackCommands("linux"),
		Bell:     bell,
	}
	b.Beep()

	assert.Equal(t, []string{"paplay", "canberra-gtk-play"}, ran)
	assert.Equal(t, "\a", bell.String())
}

func TestBeepStopsAtFirstSuccess(t *testing.T) {
	var ran []string
	bell := &bytes.Buffer{}

	b := &Beeper{
		Run: func(_ context.Context, c Command) error {
			ran = append(ran, c.Name)
			return nil
		},
		Commands: FallbackCommands("linux"),
		Bell:     bell,
	}
	b.Beep()

	assert.Equal(t, []string{"paplay"}, ran)
	assert.Empty(t, bell.String())
}

func TestBeepDisabled(t *testing.T) {
	played := false
	b := &Beeper{
		Enabled: func() bool { return false },
		Play:    func([]byte) error { played = true; return nil },
	}
	b.Beep()
	assert.False(t, played)
}

func TestFallbackCommandsPerPlatform(t *testing.T) {
	assert.Equal(t, "afplay", FallbackCommands("darwin")[0].Name)
	assert.Equal(t, "powershell", FallbackCommands("windows")[0].Name)
}
