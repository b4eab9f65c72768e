//go:build !portaudio
// +build !portaudio

package audio

import (
	"context"
	"fmt"
	"log/slog"
)

// Recorder stub when portaudio is not available
type Recorder struct {
	logger *slog.Logger
}

func NewRecorder(sampleRate, chunkSize int, logger *slog.Logger) *Recorder {
	return &Recorder{logger: logger}
}

func (r *Recorder) Record(_ context.Context, _ int) (string, error) {
	return "", fmt.Errorf("microphone capture not available: rebuild with -tags portaudio")
}
