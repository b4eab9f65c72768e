package azurespeech

import (
	"context"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Player renders WAV audio on an output device.
type Player interface {
	Play(ctx context.Context, data []byte) error
}

// Synthesizer speaks text through the Azure Speech synthesis REST endpoint.
// Failures never propagate: synthesis is a side effect the chat flow can
// survive without, so every error is logged and reported as false.
type Synthesizer struct {
	apiKey     string
	voice      string
	language   string
	player     Player
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

func NewSynthesizer(apiKey, region, voice, language string, player Player, logger *slog.Logger) *Synthesizer {
	baseURL := ""
	if region != "" {
		baseURL = fmt.Sprintf("https://%s.tts.speech.microsoft.com", region)
	}
	return NewSynthesizerWithURL(apiKey, voice, language, baseURL, player, logger)
}

func NewSynthesizerWithURL(apiKey, voice, language, baseURL string, player Player, logger *slog.Logger) *Synthesizer {
	return &Synthesizer{
		apiKey:     apiKey,
		voice:      voice,
		language:   language,
		player:     player,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		logger:     logger,
	}
}

// Synthesize speaks text aloud and reports whether playback happened. With
// missing configuration it returns false without any network call.
func (s *Synthesizer) Synthesize(ctx context.Context, text string) bool {
	if s.apiKey == "" || s.baseURL == "" || s.voice == "" {
		s.logger.Warn("speech synthesis not configured, skipping")
		return false
	}

	ssml := fmt.Sprintf(
		"<speak version='1.0' xml:lang='%s'><voice name='%s'>%s</voice></speak>",
		s.language, s.voice, html.EscapeString(text))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.baseURL+"/cognitiveservices/v1", strings.NewReader(ssml))
	if err != nil {
		s.logger.Error("creating synthesis request", "error", err)
		return false
	}
	req.Header.Set("Content-Type", "application/ssml+xml")
	req.Header.Set("Ocp-Apim-Subscription-Key", s.apiKey)
	req.Header.Set("X-Microsoft-OutputFormat", "riff-44100hz-16bit-mono-pcm")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Error("sending synthesis request", "error", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		s.logger.Error("synthesis API error", "status", resp.StatusCode, "body", string(respBody))
		return false
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		s.logger.Error("reading synthesis response", "error", err)
		return false
	}

	if err := s.player.Play(ctx, data); err != nil {
		s.logger.Error("playing synthesized audio", "error", err)
		return false
	}
	return true
}
