package audio

import (
	"fmt"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Info describes a WAV file's format and length.
type Info struct {
	SampleRate int
	Channels   int
	BitDepth   int
	Frames     int
}

// WriteFile encodes mono 16-bit samples as a WAV file at path.
func WriteFile(path string, samples []int16, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating wav file: %w", err)
	}
	defer f.Close()

	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(s)
	}

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		enc.Close()
		return fmt.Errorf("writing samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalizing wav file: %w", err)
	}
	return nil
}

// ReadInfo parses the WAV header at path.
func ReadInfo(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, fmt.Errorf("opening wav file: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	dec.ReadInfo()
	if err := dec.Err(); err != nil {
		return Info{}, fmt.Errorf("reading wav header: %w", err)
	}
	if !dec.WasPCMAccessed() {
		if err := dec.FwdToPCM(); err != nil {
			return Info{}, fmt.Errorf("locating pcm chunk: %w", err)
		}
	}

	bytesPerFrame := int(dec.NumChans) * int(dec.BitDepth) / 8
	info := Info{
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
	}
	if bytesPerFrame > 0 {
		info.Frames = int(dec.PCMLen()) / bytesPerFrame
	}
	return info, nil
}
