package application

import (
	"context"
	"fmt"

	"loan-assistant/internal/domain"
)

type Completer interface {
	Complete(ctx context.Context, query string) (string, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, path string) domain.Transcription
}

type Recorder interface {
	Record(ctx context.Context, seconds int) (string, error)
}

type Speaker interface {
	Synthesize(ctx context.Context, text string) bool
}

// NoopSpeaker stands in when speech synthesis is disabled.
type NoopSpeaker struct{}

func (NoopSpeaker) Synthesize(_ context.Context, _ string) bool { return false }

// NoopTranscriber stands in when recognition credentials are absent. It
// reports a service error without touching the network.
type NoopTranscriber struct{}

func (NoopTranscriber) Transcribe(_ context.Context, _ string) domain.Transcription {
	return domain.Transcription{
		Outcome: domain.OutcomeServiceError,
		Detail:  "speech recognition not configured: set azure_speech.api_key and azure_speech.region",
	}
}

// NoopRecorder stands in when microphone capture is unavailable.
type NoopRecorder struct{}

func (NoopRecorder) Record(_ context.Context, _ int) (string, error) {
	return "", fmt.Errorf("microphone capture not configured")
}
