package azurespeech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"loan-assistant/internal/domain"
)

// Recognizer transcribes WAV files through the Azure Speech short-audio REST
// endpoint.
type Recognizer struct {
	apiKey     string
	language   string
	httpClient *http.Client
	baseURL    string
}

func NewRecognizer(apiKey, region, language string) *Recognizer {
	return NewRecognizerWithURL(apiKey, language,
		fmt.Sprintf("https://%s.stt.speech.microsoft.com", region))
}

func NewRecognizerWithURL(apiKey, language, baseURL string) *Recognizer {
	return &Recognizer{
		apiKey:     apiKey,
		language:   language,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
	}
}

type recognitionResponse struct {
	RecognitionStatus string `json:"RecognitionStatus"`
	DisplayText       string `json:"DisplayText"`
}

// Transcribe submits the audio at path for recognition. It never returns an
// error; every failure mode maps to a tagged outcome so the caller can tell
// "speech not understood" from "service call failed".
func (r *Recognizer) Transcribe(ctx context.Context, path string) domain.Transcription {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Transcription{
			Outcome: domain.OutcomeAudioError,
			Detail:  fmt.Sprintf("reading audio file: %v", err),
		}
	}

	requestURL := fmt.Sprintf("%s/speech/recognition/conversation/cognitiveservices/v1?language=%s&format=simple",
		r.baseURL, url.QueryEscape(r.language))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, bytes.NewReader(data))
	if err != nil {
		return serviceError(fmt.Sprintf("creating request: %v", err))
	}
	req.Header.Set("Content-Type", "audio/wav; codecs=audio/pcm; samplerate=44100")
	req.Header.Set("Ocp-Apim-Subscription-Key", r.apiKey)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return serviceError(fmt.Sprintf("sending request: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return serviceError(fmt.Sprintf("recognition API error %d: %s", resp.StatusCode, string(respBody)))
	}

	var result recognitionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return serviceError(fmt.Sprintf("decoding response: %v", err))
	}

	switch result.RecognitionStatus {
	case "Success":
		return domain.Transcription{Outcome: domain.OutcomeRecognized, Text: result.DisplayText}
	case "NoMatch", "InitialSilenceTimeout", "BabbleTimeout":
		return domain.Transcription{
			Outcome: domain.OutcomeNoSpeech,
			Detail:  result.RecognitionStatus,
		}
	default:
		return serviceError(fmt.Sprintf("recognition status %q", result.RecognitionStatus))
	}
}

func serviceError(detail string) domain.Transcription {
	return domain.Transcription{Outcome: domain.OutcomeServiceError, Detail: detail}
}
