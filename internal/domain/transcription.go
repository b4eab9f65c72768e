package domain

type TranscriptionOutcome string

const (
	OutcomeRecognized   TranscriptionOutcome = "recognized"
	OutcomeNoSpeech     TranscriptionOutcome = "no_speech"
	OutcomeServiceError TranscriptionOutcome = "service_error"
	OutcomeAudioError   TranscriptionOutcome = "audio_error"
)

// Transcription is the tagged result of one recognition attempt. Outcome is
// always set; Text only carries meaning for OutcomeRecognized, Detail carries
// the underlying failure description for the other outcomes.
type Transcription struct {
	Outcome TranscriptionOutcome `json:"outcome"`
	Text    string               `json:"text,omitempty"`
	Detail  string               `json:"detail,omitempty"`
}

func (t Transcription) Recognized() bool {
	return t.Outcome == OutcomeRecognized
}

// PlaceholderFor returns the user-facing fallback text for a failed
// recognition, in the assistant's spoken language.
func PlaceholderFor(outcome TranscriptionOutcome) string {
	switch outcome {
	case OutcomeNoSpeech:
		return "ไม่สามารถเข้าใจเสียงพูดได้"
	case OutcomeServiceError:
		return "เกิดข้อผิดพลาดในการรู้จำเสียง"
	case OutcomeAudioError:
		return "เกิดข้อผิดพลาดในการแปลงเสียง"
	default:
		return ""
	}
}
