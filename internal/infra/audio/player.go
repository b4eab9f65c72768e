//go:build portaudio
// +build portaudio

package audio

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/go-audio/wav"
	"github.com/gordonklaus/portaudio"
)

// Player renders WAV audio on the default output device.
type Player struct {
	chunkSize int
	logger    *slog.Logger
}

func NewPlayer(chunkSize int, logger *slog.Logger) *Player {
	return &Player{chunkSize: chunkSize, logger: logger}
}

// Play decodes data as a WAV container and plays it to completion. The
// output device is released on every exit path.
func (p *Player) Play(ctx context.Context, data []byte) error {
	dec := wav.NewDecoder(bytes.NewReader(data))
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return fmt.Errorf("decoding wav audio: %w", err)
	}
	if buf.Format == nil || buf.Format.NumChannels != 1 {
		return fmt.Errorf("expected mono audio")
	}

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("initializing portaudio: %w", err)
	}
	defer portaudio.Terminate()

	out := make([]int16, p.chunkSize)
	stream, err := portaudio.OpenDefaultStream(0, 1, float64(buf.Format.SampleRate), p.chunkSize, out)
	if err != nil {
		return fmt.Errorf("opening output stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("starting output stream: %w", err)
	}
	defer stream.Stop()

	samples := buf.Data
	for offset := 0; offset < len(samples); offset += p.chunkSize {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		for i := range out {
			if offset+i < len(samples) {
				out[i] = int16(samples[offset+i])
			} else {
				out[i] = 0
			}
		}
		if err := stream.Write(); err != nil {
			return fmt.Errorf("writing to stream: %w", err)
		}
	}
	return nil
}
