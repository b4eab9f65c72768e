//go:build portaudio
// +build portaudio

package audio

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/gordonklaus/portaudio"
)

// Recorder captures fixed-duration clips from the default input device.
type Recorder struct {
	sampleRate int
	chunkSize  int
	logger     *slog.Logger
}

func NewRecorder(sampleRate, chunkSize int, logger *slog.Logger) *Recorder {
	return &Recorder{
		sampleRate: sampleRate,
		chunkSize:  chunkSize,
		logger:     logger,
	}
}

// Record captures roughly seconds of mono 16-bit audio and writes it to a
// temporary WAV file, returning its path. The loop is iteration-counted
// (rate/chunk*seconds reads), so actual wall-clock length drifts slightly
// with device buffering. The device is released on every exit path.
func (r *Recorder) Record(ctx context.Context, seconds int) (string, error) {
	if seconds <= 0 {
		return "", fmt.Errorf("record duration must be positive, got %d", seconds)
	}

	if err := portaudio.Initialize(); err != nil {
		return "", fmt.Errorf("initializing portaudio: %w", err)
	}
	defer portaudio.Terminate()

	buffer := make([]int16, r.chunkSize)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(r.sampleRate), r.chunkSize, buffer)
	if err != nil {
		return "", fmt.Errorf("opening input stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return "", fmt.Errorf("starting input stream: %w", err)
	}
	defer stream.Stop()

	r.logger.Info("recording", "seconds", seconds, "sample_rate", r.sampleRate)

	iterations := r.sampleRate / r.chunkSize * seconds
	samples := make([]int16, 0, iterations*r.chunkSize)
	for i := 0; i < iterations; i++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}
		if err := stream.Read(); err != nil {
			return "", fmt.Errorf("reading from stream: %w", err)
		}
		samples = append(samples, buffer...)
	}

	path := filepath.Join(os.TempDir(), "capture-"+uuid.NewString()+".wav")
	if err := WriteFile(path, samples, r.sampleRate); err != nil {
		return "", err
	}

	r.logger.Info("recording completed", "path", path, "frames", len(samples))
	return path, nil
}
