package audio

import (
	"encoding/binary"
	"math"
	"time"
)

// Tone synthesizes a sine wave as 16-bit little endian mono PCM at SampleRate.
// The first and last few milliseconds are faded to avoid clicks.
func Tone(freq float64, d time.Duration, volume float64) []byte {
	n := int(d.Seconds() * SampleRate)
	fade := SampleRate / 200 // 5ms
	if fade*2 > n {
		fade = n / 2
	}

	buf := make([]byte, n*2)
	for i := 0; i < n; i++ {
		amp := volume
		switch {
		case i < fade:
			amp *= float64(i) / float64(fade)
		case i >= n-fade:
			amp *= float64(n-1-i) / float64(fade)
		}
		v := amp * math.Sin(2*math.Pi*freq*float64(i)/SampleRate)
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(int16(v*math.MaxInt16)))
	}
	return buf
}
