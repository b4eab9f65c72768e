//go:build !portaudio
// +build !portaudio

package audio

import (
	"context"
	"fmt"
	"log/slog"
)

// Player stub when portaudio is not available
type Player struct {
	logger *slog.Logger
}

func NewPlayer(chunkSize int, logger *slog.Logger) *Player {
	return &Player{logger: logger}
}

func (p *Player) Play(_ context.Context, _ []byte) error {
	return fmt.Errorf("audio playback not available: rebuild with -tags portaudio")
}
