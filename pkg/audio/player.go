package audio

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// Format of every PCM buffer played here
const (
	SampleRate   = 44100
	ChannelCount = 1
)

// Global audio context singleton; oto allows one per process
var (
	globalAudioCtx     *oto.Context
	globalAudioCtxOnce sync.Once
	globalAudioCtxErr  error
)

// initAudioContext initializes the global audio context once
func initAudioContext() error {
	globalAudioCtxOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   SampleRate,
			ChannelCount: ChannelCount,
			Format:       oto.FormatSignedInt16LE,
		}

		ctx, readyChan, err := oto.NewContext(op)
		if err != nil {
			globalAudioCtxErr = fmt.Errorf("initialize audio context: %w", err)
			return
		}

		// Wait for the hardware audio devices to be ready
		select {
		case <-readyChan:
		case <-time.After(2 * time.Second):
			globalAudioCtxErr = errors.New("audio device not ready")
			return
		}

		globalAudioCtx = ctx
		log.Println("[DEBUG] audio context initialized")
	})
	return globalAudioCtxErr
}

// PlayPCM plays 16-bit mono PCM and returns once playback has finished
func PlayPCM(pcm []byte) error {
	if err := initAudioContext(); err != nil {
		return err
	}

	player := globalAudioCtx.NewPlayer(bytes.NewReader(pcm))
	defer player.Close()

	player.Play()
	for player.IsPlaying() {
		time.Sleep(10 * time.Millisecond)
	}
	return player.Err()
}
