package audio_test

import (
	"path/filepath"
	"testing"

	"loan-assistant/internal/infra/audio"
)

func TestWriteAndReadInfo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")

	const rate = 44100
	samples := make([]int16, rate*2)
	for i := range samples {
		samples[i] = int16(i % 512)
	}

	if err := audio.WriteFile(path, samples, rate); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	info, err := audio.ReadInfo(path)
	if err != nil {
		t.Fatalf("ReadInfo: %v", err)
	}
	if info.SampleRate != rate {
		t.Errorf("SampleRate: got %d, want %d", info.SampleRate, rate)
	}
	if info.Channels != 1 {
		t.Errorf("Channels: got %d, want 1", info.Channels)
	}
	if info.BitDepth != 16 {
		t.Errorf("BitDepth: got %d, want 16", info.BitDepth)
	}
	if info.Frames != len(samples) {
		t.Errorf("Frames: got %d, want %d", info.Frames, len(samples))
	}
}

func TestReadInfo_NotWav(t *testing.T) {
	if _, err := audio.ReadInfo(filepath.Join(t.TempDir(), "absent.wav")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
