package application

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"loan-assistant/internal/domain"
)

// Session drives the chat pipeline and owns the conversation history. The
// history is display-only: completion requests carry a single user turn, so
// the model never sees prior exchanges.
type Session struct {
	completer   Completer
	transcriber Transcriber
	recorder    Recorder
	speaker     Speaker
	logger      *slog.Logger

	mu      sync.Mutex
	history []domain.Message
}

// Result is one processed query: the appended assistant message and whether
// the reply was spoken aloud.
type Result struct {
	Message domain.Message
	Spoken  bool
}

func NewSession(completer Completer, transcriber Transcriber, recorder Recorder, speaker Speaker, logger *slog.Logger) *Session {
	return &Session{
		completer:   completer,
		transcriber: transcriber,
		recorder:    recorder,
		speaker:     speaker,
		logger:      logger,
	}
}

// ProcessQuery records the user turn, obtains a completion, and records the
// assistant turn. On completion failure the assistant turn carries the
// user-facing error text and the underlying error is returned alongside it;
// the session keeps functioning either way.
func (s *Session) ProcessQuery(ctx context.Context, query string) (Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Result{}, fmt.Errorf("empty query")
	}

	s.append(domain.NewMessage(domain.RoleUser, query))
	s.logger.Info("processing query", "length", len(query))

	reply, err := s.completer.Complete(ctx, query)
	if err != nil {
		s.logger.Error("completion failed", "error", err)
		msg := domain.NewMessage(domain.RoleAssistant, fmt.Sprintf("เกิดข้อผิดพลาด: %v", err))
		s.append(msg)
		return Result{Message: msg}, err
	}

	msg := domain.NewMessage(domain.RoleAssistant, reply)
	s.append(msg)

	spoken := s.speaker.Synthesize(ctx, reply)
	return Result{Message: msg, Spoken: spoken}, nil
}

// RecordAndTranscribe captures a clip from the microphone and transcribes
// it. The error covers capture failures only; recognition outcomes live in
// the Transcription. The temporary capture file is removed before returning.
func (s *Session) RecordAndTranscribe(ctx context.Context, seconds int) (domain.Transcription, error) {
	path, err := s.recorder.Record(ctx, seconds)
	if err != nil {
		return domain.Transcription{}, fmt.Errorf("recording audio: %w", err)
	}
	defer func() {
		if err := os.Remove(path); err != nil {
			s.logger.Warn("removing capture file", "path", path, "error", err)
		}
	}()

	return s.transcriber.Transcribe(ctx, path), nil
}

// TranscribeFile runs recognition on an existing audio file, for callers
// that capture audio out of process.
func (s *Session) TranscribeFile(ctx context.Context, path string) domain.Transcription {
	return s.transcriber.Transcribe(ctx, path)
}

// History returns a snapshot of the conversation so far.
func (s *Session) History() []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Message, len(s.history))
	copy(out, s.history)
	return out
}

// Clear resets the conversation.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
}

func (s *Session) append(msg domain.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, msg)
}
