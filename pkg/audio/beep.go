package audio

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"runtime"
	"time"
)

// Command is an external program that can make a sound
type Command struct {
	Name string
	Args []string
}

// FallbackCommands lists, in order, the system sound commands tried for goos
func FallbackCommands(goos string) []Command {
	switch goos {
	case "windows":
		return []Command{{"powershell", []string{"-NoProfile", "-NonInteractive", "-Command", "[console]::Beep(880,250)"}}}
	case "darwin":
		return []Command{{"afplay", []string{"/System/Library/Sounds/Glass.aiff"}}}
	default:
		return []Command{
			{"paplay", []string{"/usr/share/sounds/freedesktop/stereo/alarm-clock-elapsed.oga"}},
			{"canberra-gtk-play", []string{"-i", "message"}},
		}
	}
}

// Beeper makes a short alarm sound, trying a synthesized tone, then system
// sound commands, then the terminal bell. All failures are logged and dropped.
type Beeper struct {
	// Enabled is consulted on every beep; nil means always on
	Enabled func() bool

	Play     func(pcm []byte) error
	Run      func(ctx context.Context, c Command) error
	Commands []Command
	Bell     io.Writer
}

// NewBeeper creates a Beeper for the current platform
func NewBeeper(enabled func() bool) *Beeper {
	return &Beeper{
		Enabled:  enabled,
		Play:     PlayPCM,
		Run:      runCommand,
		Commands: FallbackCommands(runtime.GOOS),
		Bell:     os.Stdout,
	}
}

var beepTone = Tone(880, 250*time.Millisecond, 0.5)

// Beep plays the alarm sound once
func (b *Beeper) Beep() {
	if b.Enabled != nil && !b.Enabled() {
		return
	}

	if b.Play != nil {
		err := b.Play(beepTone)
		if err == nil {
			return
		}
		log.Printf("[DEBUG] tone playback failed: %v", err)
	}

	for _, c := range b.Commands {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := b.Run(ctx, c)
		cancel()
		if err == nil {
			return
		}
		log.Printf("[DEBUG] %s failed: %v", c.Name, err)
	}

	if b.Bell != nil {
		fmt.Fprint(b.Bell, "\a")
	}
}

func runCommand(ctx context.Context, c Command) error {
	if _, err := exec.LookPath(c.Name); err != nil {
		return err
	}
	return exec.CommandContext(ctx, c.Name, c.Args...).Run()
}
